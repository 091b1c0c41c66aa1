package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/airjourney/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	EventJourneyResolved = "journey_resolved"
	EventJourneyDeleted  = "journey_deleted"
)

type JourneyEvent struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	JourneyID   int64     `json:"journey_id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Price       float64   `json:"price"`
	Hops        int       `json:"hops"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func NewJourneyEvent(eventType string, journey *domain.Journey, at time.Time) JourneyEvent {
	return JourneyEvent{
		ID:          uuid.New(),
		Type:        eventType,
		JourneyID:   journey.ID,
		Origin:      journey.Origin,
		Destination: journey.Destination,
		Price:       journey.Price,
		Hops:        len(journey.Flights),
		OccurredAt:  at.UTC(),
	}
}

func DecodeJourneyEvent(msg kafka.Message) (JourneyEvent, error) {
	var event JourneyEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return JourneyEvent{}, fmt.Errorf("failed to decode journey event: %w", err)
	}
	switch event.Type {
	case EventJourneyResolved, EventJourneyDeleted:
		return event, nil
	default:
		return JourneyEvent{}, fmt.Errorf("unknown journey event type %q", event.Type)
	}
}
