package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pos-platform/pos/pkg/cloudevents"
)

type memoryRepository struct {
	processed map[string]bool
	checkErr  error
	markErr   error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{processed: make(map[string]bool)}
}

func (r *memoryRepository) key(messageID, topic, consumerGroup string) string {
	return messageID + "|" + topic + "|" + consumerGroup
}

func (r *memoryRepository) MarkProcessed(_ context.Context, msg *ProcessedMessage) error {
	if r.markErr != nil {
		return r.markErr
	}
	k := r.key(msg.MessageID, msg.Topic, msg.ConsumerGroup)
	if r.processed[k] {
		return ErrMessageAlreadyProcessed
	}
	r.processed[k] = true
	return nil
}

func (r *memoryRepository) IsProcessed(_ context.Context, messageID, topic, consumerGroup string) (bool, error) {
	if r.checkErr != nil {
		return false, r.checkErr
	}
	return r.processed[r.key(messageID, topic, consumerGroup)], nil
}

func (r *memoryRepository) Clean(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *memoryRepository) EnsureIndexes(_ context.Context) error {
	return nil
}

func testEvent(id string) *cloudevents.POSCloudEvent {
	return &cloudevents.POSCloudEvent{
		ID:   id,
		Type: cloudevents.SaleCompleted,
	}
}

// TestDeduplicatingHandlerFirstDelivery tests that a fresh message runs
// the handler and is recorded
func TestDeduplicatingHandlerFirstDelivery(t *testing.T) {
	repo := newMemoryRepository()
	config := DefaultConsumerConfig("test-service", "pos.sales.events", "test-group", repo)

	calls := 0
	handler := DeduplicatingHandler(config, nil, func(_ context.Context, _ *cloudevents.POSCloudEvent) error {
		calls++
		return nil
	})

	err := handler(context.Background(), testEvent("msg-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	processed, err := repo.IsProcessed(context.Background(), "msg-1", "pos.sales.events", "test-group")
	require.NoError(t, err)
	assert.True(t, processed)
}

// TestDeduplicatingHandlerSkipsDuplicate tests that a redelivered
// message never reaches the handler
func TestDeduplicatingHandlerSkipsDuplicate(t *testing.T) {
	repo := newMemoryRepository()
	config := DefaultConsumerConfig("test-service", "pos.sales.events", "test-group", repo)

	calls := 0
	handler := DeduplicatingHandler(config, nil, func(_ context.Context, _ *cloudevents.POSCloudEvent) error {
		calls++
		return nil
	})

	require.NoError(t, handler(context.Background(), testEvent("msg-1")))
	require.NoError(t, handler(context.Background(), testEvent("msg-1")))
	require.NoError(t, handler(context.Background(), testEvent("msg-1")))

	assert.Equal(t, 1, calls)
}

// TestDeduplicatingHandlerFailureNotRecorded tests that a failed
// handler leaves no ledger entry so the message redelivers
func TestDeduplicatingHandlerFailureNotRecorded(t *testing.T) {
	repo := newMemoryRepository()
	config := DefaultConsumerConfig("test-service", "pos.sales.events", "test-group", repo)

	handlerErr := errors.New("downstream unavailable")
	calls := 0
	handler := DeduplicatingHandler(config, nil, func(_ context.Context, _ *cloudevents.POSCloudEvent) error {
		calls++
		if calls == 1 {
			return handlerErr
		}
		return nil
	})

	err := handler(context.Background(), testEvent("msg-1"))
	assert.ErrorIs(t, err, handlerErr)

	processed, _ := repo.IsProcessed(context.Background(), "msg-1", "pos.sales.events", "test-group")
	assert.False(t, processed)

	// Redelivery succeeds and is then recorded
	require.NoError(t, handler(context.Background(), testEvent("msg-1")))
	assert.Equal(t, 2, calls)
}

// TestDeduplicatingHandlerConcurrentMark tests the already-processed
// race on MarkProcessed being treated as success
func TestDeduplicatingHandlerConcurrentMark(t *testing.T) {
	repo := newMemoryRepository()
	repo.markErr = ErrMessageAlreadyProcessed
	config := DefaultConsumerConfig("test-service", "pos.sales.events", "test-group", repo)

	handler := DeduplicatingHandler(config, nil, func(_ context.Context, _ *cloudevents.POSCloudEvent) error {
		return nil
	})

	err := handler(context.Background(), testEvent("msg-1"))
	assert.NoError(t, err)
}

// TestDeduplicatingHandlerCheckFailure tests that a ledger read error
// propagates so the message is retried
func TestDeduplicatingHandlerCheckFailure(t *testing.T) {
	repo := newMemoryRepository()
	repo.checkErr = ErrStorageFailure
	config := DefaultConsumerConfig("test-service", "pos.sales.events", "test-group", repo)

	calls := 0
	handler := DeduplicatingHandler(config, nil, func(_ context.Context, _ *cloudevents.POSCloudEvent) error {
		calls++
		return nil
	})

	err := handler(context.Background(), testEvent("msg-1"))
	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.Equal(t, 0, calls)
}

// TestDeduplicatingHandlerScopedByConsumerGroup tests that different
// consumer groups process the same message independently
func TestDeduplicatingHandlerScopedByConsumerGroup(t *testing.T) {
	repo := newMemoryRepository()

	calls := 0
	handlerFn := func(_ context.Context, _ *cloudevents.POSCloudEvent) error {
		calls++
		return nil
	}

	groupA := DeduplicatingHandler(DefaultConsumerConfig("svc", "pos.sales.events", "group-a", repo), nil, handlerFn)
	groupB := DeduplicatingHandler(DefaultConsumerConfig("svc", "pos.sales.events", "group-b", repo), nil, handlerFn)

	require.NoError(t, groupA(context.Background(), testEvent("msg-1")))
	require.NoError(t, groupB(context.Background(), testEvent("msg-1")))

	assert.Equal(t, 2, calls)
}
