package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pos-platform/pos/pkg/cloudevents"
	"github.com/pos-platform/pos/pkg/metrics"
)

// EventHandler is a function that handles a CloudEvent.
// This mirrors the kafka.EventHandler type.
type EventHandler func(ctx context.Context, event *cloudevents.POSCloudEvent) error

// DeduplicatingHandler wraps an event handler with deduplication against the
// processed-message ledger. An already-processed message is skipped and treated
// as success; a handler failure is never recorded so the message redelivers.
func DeduplicatingHandler(config *ConsumerConfig, m *metrics.Metrics, handler EventHandler) EventHandler {
	return func(ctx context.Context, event *cloudevents.POSCloudEvent) error {
		processed, err := config.Repository.IsProcessed(
			ctx,
			event.ID,
			config.Topic,
			config.ConsumerGroup,
		)
		if err != nil {
			slog.Error("Failed to check if message is processed",
				"error", err,
				"messageId", event.ID,
				"topic", config.Topic,
				"eventType", event.Type,
			)
			if m != nil {
				m.RecordMessageDeduplicationError(config.Topic, event.Type)
			}
			return err
		}

		if processed {
			slog.Info("Duplicate message skipped",
				"messageId", event.ID,
				"topic", config.Topic,
				"eventType", event.Type,
			)
			if m != nil {
				m.RecordMessageDeduplicationHit(config.Topic, event.Type)
			}
			return nil
		}

		if m != nil {
			m.RecordMessageDeduplicationMiss(config.Topic, event.Type)
		}

		if err := handler(ctx, event); err != nil {
			return err
		}

		msg := &ProcessedMessage{
			MessageID:     event.ID,
			Topic:         config.Topic,
			EventType:     event.Type,
			ConsumerGroup: config.ConsumerGroup,
			ServiceID:     config.ServiceName,
			ProcessedAt:   time.Now().UTC(),
			ExpiresAt:     time.Now().UTC().Add(config.RetentionPeriod),
			CorrelationID: event.CorrelationID,
		}

		if err := config.Repository.MarkProcessed(ctx, msg); err != nil {
			if errors.Is(err, ErrMessageAlreadyProcessed) {
				// Another consumer won the race; the work is done.
				slog.Warn("Message was processed concurrently",
					"messageId", event.ID,
					"topic", config.Topic,
					"eventType", event.Type,
				)
				return nil
			}

			slog.Error("Failed to mark message as processed",
				"error", err,
				"messageId", event.ID,
				"topic", config.Topic,
				"eventType", event.Type,
			)
			if m != nil {
				m.RecordMessageDeduplicationError(config.Topic, event.Type)
			}
			// The handler succeeded but the ledger write failed; the message
			// may be reprocessed, which the handler must tolerate.
			return err
		}

		return nil
	}
}
