package mongodb

import (
	"context"
	"fmt"

	"github.com/pos-platform/pos/internal/domain"
	"github.com/pos-platform/pos/pkg/cloudevents"
	"github.com/pos-platform/pos/pkg/kafka"
	"github.com/pos-platform/pos/pkg/outbox"
)

// mapDomainEvents converts pending domain events into outbox rows.
// The switch is exhaustive over the event union; an unknown event type
// is a programming error and fails the enclosing transaction.
//
// The CloudEvent subject is "store/{storeId}", which doubles as the
// Kafka message key so all events for one store land on one partition
// in order.
func mapDomainEvents(ctx context.Context, factory *cloudevents.EventFactory, events []domain.DomainEvent) ([]*outbox.OutboxEvent, error) {
	outboxEvents := make([]*outbox.OutboxEvent, 0, len(events))

	for _, event := range events {
		var (
			cloudEvent    *cloudevents.POSCloudEvent
			aggregateID   string
			aggregateType string
			topic         string
			storeID       string
		)

		switch e := event.(type) {
		case *domain.SaleCompletedEvent:
			cloudEvent = factory.CreateEvent(ctx, e.EventType(), "store/"+e.StoreID, e)
			aggregateID, aggregateType = e.SaleID, "Sale"
			topic, storeID = kafka.Topics.SalesEvents, e.StoreID
		case *domain.SaleCancelledEvent:
			cloudEvent = factory.CreateEvent(ctx, e.EventType(), "store/"+e.StoreID, e)
			aggregateID, aggregateType = e.SaleID, "Sale"
			topic, storeID = kafka.Topics.SalesEvents, e.StoreID
		case *domain.ReturnCreatedEvent:
			cloudEvent = factory.CreateEvent(ctx, e.EventType(), "store/"+e.StoreID, e)
			aggregateID, aggregateType = e.ReturnID, "Return"
			topic, storeID = kafka.Topics.ReturnsEvents, e.StoreID
		case *domain.InventoryAdjustedEvent:
			cloudEvent = factory.CreateEvent(ctx, e.EventType(), "store/"+e.StoreID, e)
			aggregateID, aggregateType = e.AggregateID(), "Inventory"
			topic, storeID = kafka.Topics.InventoryEvents, e.StoreID
		case *domain.LowStockAlertEvent:
			cloudEvent = factory.CreateEvent(ctx, e.EventType(), "store/"+e.StoreID, e)
			aggregateID, aggregateType = e.AggregateID(), "Inventory"
			topic, storeID = kafka.Topics.InventoryEvents, e.StoreID
		default:
			return nil, fmt.Errorf("unmapped domain event type %T", event)
		}

		cloudEvent.StoreID = storeID

		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(aggregateID, aggregateType, topic, cloudEvent)
		if err != nil {
			return nil, fmt.Errorf("failed to create outbox event: %w", err)
		}
		outboxEvents = append(outboxEvents, outboxEvent)
	}

	return outboxEvents, nil
}
