package worker

import (
	"github.com/pos-platform/pos/internal/domain"
	"github.com/pos-platform/pos/pkg/idempotency"
	"github.com/pos-platform/pos/pkg/kafka"
	"github.com/pos-platform/pos/pkg/metrics"
)

// RegisterHandlers subscribes the typed event handlers on the
// consumer, each wrapped in the deduplicating middleware so a
// redelivered event never mutates stock twice.
func RegisterHandlers(
	consumer *kafka.Consumer,
	handlers *EventHandlers,
	dedupeRepo idempotency.MessageRepository,
	serviceName string,
	consumerGroup string,
	m *metrics.Metrics,
) {
	subscribe := func(topic, eventType string, handler idempotency.EventHandler) {
		config := idempotency.DefaultConsumerConfig(serviceName, topic, consumerGroup, dedupeRepo)
		deduped := idempotency.DeduplicatingHandler(config, m, handler)
		consumer.Subscribe(topic, eventType, kafka.EventHandler(deduped))
	}

	subscribe(kafka.Topics.SalesEvents, domain.EventTypeSaleCompleted, handlers.HandleSaleCompleted)
	subscribe(kafka.Topics.SalesEvents, domain.EventTypeSaleCancelled, handlers.HandleSaleCancelled)
	subscribe(kafka.Topics.ReturnsEvents, domain.EventTypeReturnCreated, handlers.HandleReturnCreated)
}
