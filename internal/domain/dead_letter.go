package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrDeadLetterResolved is returned when resolving an already resolved entry
var ErrDeadLetterResolved = errors.New("dead letter entry is already resolved")

// RetryAttempt records a single failed handling attempt
type RetryAttempt struct {
	Attempt   int       `bson:"attempt" json:"attempt"`
	Error     string    `bson:"error" json:"error"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// DeadLetterEntry stores a consumed message that exhausted its retry
// budget or could not be parsed, so it can be inspected and replayed.
type DeadLetterEntry struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EntryID       string             `bson:"entryId" json:"entryId"`
	Topic         string             `bson:"topic" json:"topic"`
	Partition     int                `bson:"partition" json:"partition"`
	Offset        int64              `bson:"offset" json:"offset"`
	EventType     string             `bson:"eventType" json:"eventType"`
	EventID       string             `bson:"eventId,omitempty" json:"eventId,omitempty"`
	Payload       []byte             `bson:"payload" json:"payload"`
	FailureReason string             `bson:"failureReason" json:"failureReason"`
	Attempts      []RetryAttempt     `bson:"attempts" json:"attempts"`
	Resolved      bool               `bson:"resolved" json:"resolved"`
	ResolvedAt    *time.Time         `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	ResolvedBy    string             `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// NewDeadLetterEntry creates a dead letter entry for a failed message
func NewDeadLetterEntry(topic string, partition int, offset int64, eventType, eventID string, payload []byte, failureReason string, at time.Time) *DeadLetterEntry {
	return &DeadLetterEntry{
		ID:            primitive.NewObjectID(),
		EntryID:       uuid.New().String(),
		Topic:         topic,
		Partition:     partition,
		Offset:        offset,
		EventType:     eventType,
		EventID:       eventID,
		Payload:       payload,
		FailureReason: failureReason,
		Attempts:      make([]RetryAttempt, 0),
		CreatedAt:     at,
	}
}

// RecordAttempt appends a failed handling attempt to the entry
func (e *DeadLetterEntry) RecordAttempt(attempt int, errMsg string, at time.Time) {
	e.Attempts = append(e.Attempts, RetryAttempt{
		Attempt:   attempt,
		Error:     errMsg,
		Timestamp: at,
	})
}

// Resolve marks the entry as handled by an operator
func (e *DeadLetterEntry) Resolve(resolvedBy string, at time.Time) error {
	if e.Resolved {
		return ErrDeadLetterResolved
	}

	e.Resolved = true
	e.ResolvedAt = &at
	e.ResolvedBy = resolvedBy

	return nil
}
