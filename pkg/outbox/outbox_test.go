package outbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pos-platform/pos/pkg/cloudevents"
)

func testCloudEvent() *cloudevents.POSCloudEvent {
	factory := cloudevents.NewEventFactoryWithClock(
		"/pos/pos-api",
		func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) },
		func() string { return "event-1" },
	)
	return factory.CreateEvent(nil, cloudevents.SaleCompleted, "store/JKT-01", map[string]any{
		"saleId": "sale-1",
	})
}

// TestNewOutboxEventFromCloudEvent tests outbox row creation
func TestNewOutboxEventFromCloudEvent(t *testing.T) {
	cloudEvent := testCloudEvent()

	event, err := NewOutboxEventFromCloudEvent("sale-1", "Sale", "pos.sales.events", cloudEvent)
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "sale-1", event.AggregateID)
	assert.Equal(t, "Sale", event.AggregateType)
	assert.Equal(t, cloudevents.SaleCompleted, event.EventType)
	assert.Equal(t, "pos.sales.events", event.Topic)
	assert.Equal(t, 0, event.RetryCount)
	assert.Equal(t, DefaultMaxRetries, event.MaxRetries)
	assert.False(t, event.IsPublished())
	assert.True(t, event.ShouldRetry())
}

// TestOutboxEventRoundTrip tests that the envelope survives storage
func TestOutboxEventRoundTrip(t *testing.T) {
	original := testCloudEvent()

	event, err := NewOutboxEventFromCloudEvent("sale-1", "Sale", "pos.sales.events", original)
	require.NoError(t, err)

	restored, err := event.ToCloudEvent()
	require.NoError(t, err)

	assert.Equal(t, original.ID, restored.ID)
	assert.Equal(t, original.Type, restored.Type)
	assert.Equal(t, original.Source, restored.Source)
	assert.Equal(t, original.Subject, restored.Subject)
}

// TestOutboxEventRetryExhaustion tests the retry budget
func TestOutboxEventRetryExhaustion(t *testing.T) {
	event, err := NewOutboxEventFromCloudEvent("sale-1", "Sale", "pos.sales.events", testCloudEvent())
	require.NoError(t, err)

	event.RetryCount = DefaultMaxRetries
	assert.False(t, event.ShouldRetry())

	// Published events are never retried
	event.RetryCount = 0
	now := time.Now().UTC()
	event.PublishedAt = &now
	assert.True(t, event.IsPublished())
	assert.False(t, event.ShouldRetry())
}
