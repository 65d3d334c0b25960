package idempotency

import (
	"context"
	"time"
)

// DefaultRetentionPeriod is the default retention period for processed message IDs
const DefaultRetentionPeriod = 24 * time.Hour

// MessageRepository manages processed messages for Kafka consumers.
// Implementations must make MarkProcessed atomic so concurrent consumers of
// the same message race safely.
type MessageRepository interface {
	// MarkProcessed marks a message as processed.
	// Returns ErrMessageAlreadyProcessed when the message is already recorded.
	MarkProcessed(ctx context.Context, msg *ProcessedMessage) error

	// IsProcessed checks if a message has been processed
	IsProcessed(ctx context.Context, messageID, topic, consumerGroup string) (bool, error)

	// Clean removes expired processed messages and returns the number deleted
	Clean(ctx context.Context, before time.Time) (int64, error)

	// EnsureIndexes ensures that all required indexes are created.
	// Should be called on service startup.
	EnsureIndexes(ctx context.Context) error
}

// ConsumerConfig holds configuration for Kafka consumer message deduplication
type ConsumerConfig struct {
	// ServiceName is the name of the service consuming messages
	ServiceName string

	// Topic is the Kafka topic being consumed
	Topic string

	// ConsumerGroup is the Kafka consumer group
	ConsumerGroup string

	// Repository is the storage backend for processed messages
	Repository MessageRepository

	// RetentionPeriod is how long processed message IDs are retained
	RetentionPeriod time.Duration
}

// DefaultConsumerConfig returns a default consumer configuration
func DefaultConsumerConfig(serviceName, topic, consumerGroup string, repository MessageRepository) *ConsumerConfig {
	return &ConsumerConfig{
		ServiceName:     serviceName,
		Topic:           topic,
		ConsumerGroup:   consumerGroup,
		Repository:      repository,
		RetentionPeriod: DefaultRetentionPeriod,
	}
}
