// Package events publishes machine events to a log stream or a Kafka topic.
package events

import (
	"context"
	"log/slog"

	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
)

// LogPublisher writes each event as a structured log record. It is used when
// no broker is configured.
type LogPublisher struct {
	log *slog.Logger
}

// NewLogPublisher returns a LogPublisher writing to log.
func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

// Publish logs ev at info level. It never fails.
func (p *LogPublisher) Publish(ctx context.Context, ev model.Event) error {
	attrs := []any{
		"sequence", ev.Sequence,
		"machine_id", ev.MachineID,
		"event_type", string(ev.Type),
		"amount_ct", ev.AmountCents,
		"balance_ct", ev.BalanceCents,
	}
	if ev.ProductID != 0 {
		attrs = append(attrs, "product_id", ev.ProductID)
	}
	if len(ev.Coins) > 0 {
		attrs = append(attrs, "coins", ev.Coins)
	}
	if ev.Error != "" {
		attrs = append(attrs, "reason", ev.Error)
	}
	p.log.InfoContext(ctx, "machine_event", attrs...)
	return nil
}
