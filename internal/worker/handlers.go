package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pos-platform/pos/internal/application"
	"github.com/pos-platform/pos/internal/domain"
	"github.com/pos-platform/pos/pkg/cloudevents"
	"github.com/pos-platform/pos/pkg/logging"
	"github.com/pos-platform/pos/pkg/mongodb"
)

// EventHandlers routes consumed POS events into the reconciliation
// service. Each message is handled inside a single MongoDB transaction
// so inventory mutations and ledger entries commit or roll back
// together; the consumer commits the Kafka offset only afterwards.
type EventHandlers struct {
	reconciliation *application.ReconciliationService
	client         *mongodb.Client
	logger         *logging.Logger
}

// NewEventHandlers creates a new EventHandlers
func NewEventHandlers(reconciliation *application.ReconciliationService, client *mongodb.Client, logger *logging.Logger) *EventHandlers {
	return &EventHandlers{
		reconciliation: reconciliation,
		client:         client,
		logger:         logger,
	}
}

// HandleSaleCompleted deducts sold stock for a completed sale
func (h *EventHandlers) HandleSaleCompleted(ctx context.Context, event *cloudevents.POSCloudEvent) error {
	var payload domain.SaleCompletedEvent
	if err := decodeEventData(event, &payload); err != nil {
		return err
	}

	h.logger.Info("Handling sale completed",
		"eventId", event.ID,
		"saleId", payload.SaleID,
		"storeId", payload.StoreID,
		"items", len(payload.Items),
	)

	return h.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return h.reconciliation.DeductStockForSale(sessCtx, &payload)
	})
}

// HandleSaleCancelled restores stock for a cancelled sale when the
// sale had completed (and therefore deducted stock) before cancellation
func (h *EventHandlers) HandleSaleCancelled(ctx context.Context, event *cloudevents.POSCloudEvent) error {
	var payload domain.SaleCancelledEvent
	if err := decodeEventData(event, &payload); err != nil {
		return err
	}

	h.logger.Info("Handling sale cancelled",
		"eventId", event.ID,
		"saleId", payload.SaleID,
		"storeId", payload.StoreID,
		"wasCompleted", payload.WasCompleted,
	)

	return h.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return h.reconciliation.RestoreStockForCancellation(sessCtx, &payload)
	})
}

// HandleReturnCreated restores stock for restockable returned items
func (h *EventHandlers) HandleReturnCreated(ctx context.Context, event *cloudevents.POSCloudEvent) error {
	var payload domain.ReturnCreatedEvent
	if err := decodeEventData(event, &payload); err != nil {
		return err
	}

	h.logger.Info("Handling return created",
		"eventId", event.ID,
		"returnId", payload.ReturnID,
		"storeId", payload.StoreID,
		"items", len(payload.Items),
	)

	return h.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return h.reconciliation.RestoreStockForReturn(sessCtx, &payload)
	})
}

// decodeEventData re-marshals the envelope's data field into a typed
// event payload. The envelope arrives as generic JSON, so a round trip
// through encoding/json gives us the typed struct.
func decodeEventData(event *cloudevents.POSCloudEvent, target any) error {
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data for %s: %w", event.ID, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to decode %s payload for event %s: %w", event.Type, event.ID, err)
	}
	return nil
}
