package audit

import (
	"context"
	"log/slog"

	"github.com/Domenick1991/airjourney/internal/kafka"
)

// Recorder writes one audit line per journey event.
type Recorder struct {
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{logger: logger.With("component", "audit")}
}

func (r *Recorder) Record(ctx context.Context, event kafka.JourneyEvent) error {
	r.logger.InfoContext(ctx, "journey event",
		"event_id", event.ID.String(),
		"type", event.Type,
		"journey_id", event.JourneyID,
		"origin", event.Origin,
		"destination", event.Destination,
		"price", event.Price,
		"hops", event.Hops,
		"occurred_at", event.OccurredAt,
	)
	return nil
}
