package application

import (
	"context"
	"fmt"

	"github.com/pos-platform/pos/internal/domain"
	"github.com/pos-platform/pos/pkg/logging"
	"github.com/pos-platform/pos/pkg/metrics"
)

// ReconciliationService applies sale and return events to inventory.
// Each operation mutates the Inventory aggregate and appends matching
// entries to the stock movement ledger; callers are expected to run it
// inside a database transaction so both commit or roll back together.
type ReconciliationService struct {
	inventoryRepo domain.InventoryRepository
	ledgerRepo    domain.InventoryTransactionRepository
	clock         domain.Clock
	logger        *logging.Logger
	metrics       *metrics.Metrics
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	inventoryRepo domain.InventoryRepository,
	ledgerRepo domain.InventoryTransactionRepository,
	clock domain.Clock,
	logger *logging.Logger,
	m *metrics.Metrics,
) *ReconciliationService {
	if clock == nil {
		clock = domain.SystemClock()
	}
	return &ReconciliationService{
		inventoryRepo: inventoryRepo,
		ledgerRepo:    ledgerRepo,
		clock:         clock,
		logger:        logger,
		metrics:       m,
	}
}

// DeductStockForSale deducts sold quantities from inventory. A
// deduction beyond available stock fails the whole event so the
// message can be retried or dead-lettered.
func (s *ReconciliationService) DeductStockForSale(ctx context.Context, event *domain.SaleCompletedEvent) error {
	storeID, err := domain.NewStoreID(event.StoreID)
	if err != nil {
		return fmt.Errorf("invalid store id on event %s: %w", event.ID, err)
	}

	for _, item := range event.Items {
		inv, err := s.fetchOrCreate(ctx, storeID, item.SKU, itemWarehouse(item.WarehouseID))
		if err != nil {
			return err
		}

		before := inv.QuantityOnHand
		if err := inv.DeductStock(item.Quantity); err != nil {
			s.logger.WithError(err).Error("Stock deduction rejected",
				"sku", item.SKU.String(),
				"storeId", event.StoreID,
				"saleId", event.SaleID,
				"requested", item.Quantity,
				"available", inv.QuantityAvailable(),
			)
			return err
		}

		ledger, err := domain.NewInventoryTransaction(
			inv, domain.TransactionDeduction, item.Quantity, before,
			domain.ReferenceTypeSale, event.SaleID, event.ID,
			fmt.Sprintf("sale %s", event.TransactionNumber), s.clock.Now(),
		)
		if err != nil {
			return err
		}

		if err := s.persist(ctx, inv, ledger); err != nil {
			return err
		}

		s.metrics.RecordStockDeduction(event.StoreID)

		if inv.IsLowStock() {
			s.logger.Warn("Low stock after sale deduction",
				"sku", item.SKU.String(),
				"storeId", event.StoreID,
				"available", inv.QuantityAvailable(),
				"reorderPoint", inv.ReorderPoint,
			)
		}
	}

	return nil
}

// RestoreStockForCancellation adds sold quantities back to inventory
// when a completed sale is cancelled. Cancellations of sales that
// never completed are skipped because they never touched stock.
func (s *ReconciliationService) RestoreStockForCancellation(ctx context.Context, event *domain.SaleCancelledEvent) error {
	if !event.WasCompleted {
		s.logger.Info("Skipping stock restore for never-completed sale",
			"saleId", event.SaleID,
			"storeId", event.StoreID,
		)
		return nil
	}

	storeID, err := domain.NewStoreID(event.StoreID)
	if err != nil {
		return fmt.Errorf("invalid store id on event %s: %w", event.ID, err)
	}

	for _, item := range event.Items {
		inv, err := s.fetchOrCreate(ctx, storeID, item.SKU, itemWarehouse(item.WarehouseID))
		if err != nil {
			return err
		}

		before := inv.QuantityOnHand
		if err := inv.AddStock(item.Quantity); err != nil {
			return err
		}

		ledger, err := domain.NewInventoryTransaction(
			inv, domain.TransactionAddition, item.Quantity, before,
			domain.ReferenceTypeSaleCancellation, event.SaleID, event.ID,
			fmt.Sprintf("cancellation of sale %s: %s", event.TransactionNumber, event.Reason), s.clock.Now(),
		)
		if err != nil {
			return err
		}

		if err := s.persist(ctx, inv, ledger); err != nil {
			return err
		}

		s.metrics.RecordStockRestore(event.StoreID, "cancellation")
	}

	return nil
}

// RestoreStockForReturn adds returned quantities back to inventory.
// Lines with restockRequired false (damaged or defective goods) leave
// stock and the ledger untouched.
func (s *ReconciliationService) RestoreStockForReturn(ctx context.Context, event *domain.ReturnCreatedEvent) error {
	storeID, err := domain.NewStoreID(event.StoreID)
	if err != nil {
		return fmt.Errorf("invalid store id on event %s: %w", event.ID, err)
	}

	for _, item := range event.Items {
		if !item.RestockRequired {
			s.logger.Info("Skipping restock for non-restockable item",
				"sku", item.SKU.String(),
				"returnId", event.ReturnID,
				"condition", string(item.Condition),
			)
			continue
		}

		inv, err := s.fetchOrCreate(ctx, storeID, item.SKU, itemWarehouse(item.WarehouseID))
		if err != nil {
			return err
		}

		before := inv.QuantityOnHand
		if err := inv.AddStock(item.Quantity); err != nil {
			return err
		}

		ledger, err := domain.NewInventoryTransaction(
			inv, domain.TransactionAddition, item.Quantity, before,
			domain.ReferenceTypeReturn, event.ReturnID, event.ID,
			fmt.Sprintf("return %s, condition %s", event.ReturnNumber, item.Condition), s.clock.Now(),
		)
		if err != nil {
			return err
		}

		if err := s.persist(ctx, inv, ledger); err != nil {
			return err
		}

		s.metrics.RecordStockRestore(event.StoreID, "return")
	}

	return nil
}

// itemWarehouse resolves the warehouse a line books against. Lines
// without an explicit warehouse fall back to the store default.
func itemWarehouse(warehouseID string) string {
	if warehouseID == "" {
		return domain.DefaultWarehouseID
	}
	return warehouseID
}

// fetchOrCreate loads the inventory record for a SKU, synthesizing a
// zero-stock record when none exists. Out-of-band SKUs are tolerated
// rather than rejected; a fresh record will simply fail any deduction
// sufficiency check.
func (s *ReconciliationService) fetchOrCreate(ctx context.Context, storeID domain.StoreID, sku domain.SKU, warehouseID string) (*domain.Inventory, error) {
	inv, err := s.inventoryRepo.FindBySKU(ctx, storeID, sku, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory for %s: %w", sku, err)
	}

	if inv == nil {
		inv = domain.NewInventory(sku, storeID, warehouseID, s.clock)
		s.logger.Info("Created inventory record for unknown SKU",
			"sku", sku.String(),
			"storeId", storeID.String(),
			"warehouseId", warehouseID,
		)
		return inv, nil
	}

	return inv.WithClock(s.clock), nil
}

func (s *ReconciliationService) persist(ctx context.Context, inv *domain.Inventory, ledger *domain.InventoryTransaction) error {
	if err := s.inventoryRepo.Save(ctx, inv); err != nil {
		return fmt.Errorf("failed to save inventory for %s: %w", inv.SKU, err)
	}
	if err := s.ledgerRepo.Insert(ctx, ledger); err != nil {
		return fmt.Errorf("failed to append ledger entry for %s: %w", inv.SKU, err)
	}
	return nil
}
