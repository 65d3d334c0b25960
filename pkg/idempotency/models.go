package idempotency

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProcessedMessage represents a deduplicated Kafka message. The ledger is keyed
// on (messageId, topic, consumerGroup) so redelivered events apply exactly once.
type ProcessedMessage struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	MessageID     string             `bson:"messageId"`     // CloudEvent.ID
	Topic         string             `bson:"topic"`         // Kafka topic
	EventType     string             `bson:"eventType"`     // CloudEvent.Type
	ConsumerGroup string             `bson:"consumerGroup"` // Kafka consumer group
	ServiceID     string             `bson:"serviceId"`     // Service name

	ProcessedAt time.Time `bson:"processedAt"`
	ExpiresAt   time.Time `bson:"expiresAt"` // TTL index

	CorrelationID string `bson:"correlationId,omitempty"`
}
