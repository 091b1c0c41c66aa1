package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
}

// ConsumeJourneyEvents decodes every message before handing it on. Messages
// that are not journey events go to onInvalid and are skipped.
func (c *Consumer) ConsumeJourneyEvents(ctx context.Context, handle func(context.Context, JourneyEvent) error, onInvalid func(kafka.Message, error)) error {
	return c.Consume(ctx, JourneyEventHandler(handle, onInvalid))
}

func JourneyEventHandler(handle func(context.Context, JourneyEvent) error, onInvalid func(kafka.Message, error)) func(context.Context, kafka.Message) error {
	return func(ctx context.Context, msg kafka.Message) error {
		event, err := DecodeJourneyEvent(msg)
		if err != nil {
			if onInvalid != nil {
				onInvalid(msg, err)
			}
			return nil
		}
		return handle(ctx, event)
	}
}
