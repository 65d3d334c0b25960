package application

import (
	"context"
	"fmt"

	"github.com/pos-platform/pos/internal/domain"
	"github.com/pos-platform/pos/pkg/errors"
	"github.com/pos-platform/pos/pkg/logging"
)

// InventoryApplicationService handles stock query and adjustment use cases
type InventoryApplicationService struct {
	inventoryRepo domain.InventoryRepository
	ledgerRepo    domain.InventoryTransactionRepository
	clock         domain.Clock
	logger        *logging.Logger
}

// NewInventoryApplicationService creates a new InventoryApplicationService
func NewInventoryApplicationService(
	inventoryRepo domain.InventoryRepository,
	ledgerRepo domain.InventoryTransactionRepository,
	clock domain.Clock,
	logger *logging.Logger,
) *InventoryApplicationService {
	if clock == nil {
		clock = domain.SystemClock()
	}
	return &InventoryApplicationService{
		inventoryRepo: inventoryRepo,
		ledgerRepo:    ledgerRepo,
		clock:         clock,
		logger:        logger,
	}
}

// GetInventory retrieves the stock record for a SKU in a store
func (s *InventoryApplicationService) GetInventory(ctx context.Context, query GetInventoryQuery) (*InventoryDTO, error) {
	storeID, sku, err := s.parseKeys(query.StoreID, query.SKU)
	if err != nil {
		return nil, err
	}

	warehouseID := query.WarehouseID
	if warehouseID == "" {
		warehouseID = domain.DefaultWarehouseID
	}

	inv, err := s.inventoryRepo.FindBySKU(ctx, storeID, sku, warehouseID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get inventory", "sku", query.SKU, "storeId", query.StoreID)
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	if inv == nil {
		return nil, errors.ErrNotFoundWithID("inventory", query.SKU)
	}

	return ToInventoryDTO(inv), nil
}

// ListInventory lists stock records for a store
func (s *InventoryApplicationService) ListInventory(ctx context.Context, query ListInventoryQuery) (*PagedResult[InventoryDTO], error) {
	storeID, err := domain.NewStoreID(query.StoreID)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	pagination := domain.DefaultPagination()
	if query.Page > 0 {
		pagination.Page = query.Page
	}
	if query.PageSize > 0 {
		pagination.PageSize = query.PageSize
	}

	records, err := s.inventoryRepo.FindByStore(ctx, storeID, pagination)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list inventory", "storeId", query.StoreID)
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}

	return &PagedResult[InventoryDTO]{
		Data:     ToInventoryDTOs(records),
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
	}, nil
}

// ListLowStock lists records at or below their reorder point
func (s *InventoryApplicationService) ListLowStock(ctx context.Context, storeIDRaw string) ([]InventoryDTO, error) {
	storeID, err := domain.NewStoreID(storeIDRaw)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	records, err := s.inventoryRepo.FindLowStock(ctx, storeID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list low stock", "storeId", storeIDRaw)
		return nil, fmt.Errorf("failed to list low stock: %w", err)
	}

	return ToInventoryDTOs(records), nil
}

// ReceiveStock adds received stock and appends an Addition ledger entry
func (s *InventoryApplicationService) ReceiveStock(ctx context.Context, cmd ReceiveStockCommand) (*InventoryDTO, error) {
	storeID, sku, err := s.parseKeys(cmd.StoreID, cmd.SKU)
	if err != nil {
		return nil, err
	}

	warehouseID := cmd.WarehouseID
	if warehouseID == "" {
		warehouseID = domain.DefaultWarehouseID
	}

	inv, err := s.inventoryRepo.FindBySKU(ctx, storeID, sku, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	if inv == nil {
		inv = domain.NewInventory(sku, storeID, warehouseID, s.clock)
	} else {
		inv.WithClock(s.clock)
	}

	before := inv.QuantityOnHand
	if err := inv.AddStock(cmd.Quantity); err != nil {
		return nil, errors.MapDomainError(err)
	}

	ledger, err := domain.NewInventoryTransaction(
		inv, domain.TransactionAddition, cmd.Quantity, before,
		"", "", "", cmd.Notes, s.clock.Now(),
	)
	if err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.inventoryRepo.Save(ctx, inv); err != nil {
		s.logger.WithError(err).Error("Failed to save inventory", "sku", cmd.SKU)
		return nil, fmt.Errorf("failed to save inventory: %w", err)
	}
	if err := s.ledgerRepo.Insert(ctx, ledger); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	s.logger.Info("Stock received",
		"sku", cmd.SKU,
		"storeId", cmd.StoreID,
		"quantity", cmd.Quantity,
		"onHand", inv.QuantityOnHand,
	)

	return ToInventoryDTO(inv), nil
}

// AdjustStock sets stock to an absolute level and appends an
// Adjustment ledger entry
func (s *InventoryApplicationService) AdjustStock(ctx context.Context, cmd AdjustInventoryCommand) (*InventoryDTO, error) {
	storeID, sku, err := s.parseKeys(cmd.StoreID, cmd.SKU)
	if err != nil {
		return nil, err
	}

	warehouseID := cmd.WarehouseID
	if warehouseID == "" {
		warehouseID = domain.DefaultWarehouseID
	}

	inv, err := s.inventoryRepo.FindBySKU(ctx, storeID, sku, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	if inv == nil {
		return nil, errors.ErrNotFoundWithID("inventory", cmd.SKU)
	}
	inv.WithClock(s.clock)

	before := inv.QuantityOnHand
	if err := inv.AdjustStock(cmd.NewQuantity, cmd.Reason); err != nil {
		return nil, errors.MapDomainError(err)
	}

	ledger := domain.NewAdjustmentTransaction(inv, before, cmd.NewQuantity, cmd.Reason, s.clock.Now())

	if err := s.inventoryRepo.Save(ctx, inv); err != nil {
		s.logger.WithError(err).Error("Failed to save inventory", "sku", cmd.SKU)
		return nil, fmt.Errorf("failed to save inventory: %w", err)
	}
	if err := s.ledgerRepo.Insert(ctx, ledger); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	s.logger.Info("Stock adjusted",
		"sku", cmd.SKU,
		"storeId", cmd.StoreID,
		"before", before,
		"after", cmd.NewQuantity,
		"reason", cmd.Reason,
	)

	return ToInventoryDTO(inv), nil
}

// ListTransactions lists ledger entries for a SKU, newest first
func (s *InventoryApplicationService) ListTransactions(ctx context.Context, query ListTransactionsQuery) (*PagedResult[InventoryTransactionDTO], error) {
	storeID, sku, err := s.parseKeys(query.StoreID, query.SKU)
	if err != nil {
		return nil, err
	}

	pagination := domain.DefaultPagination()
	if query.Page > 0 {
		pagination.Page = query.Page
	}
	if query.PageSize > 0 {
		pagination.PageSize = query.PageSize
	}

	txs, err := s.ledgerRepo.FindBySKU(ctx, storeID, sku, pagination)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list transactions", "sku", query.SKU)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &PagedResult[InventoryTransactionDTO]{
		Data:     ToTransactionDTOs(txs),
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
	}, nil
}

func (s *InventoryApplicationService) parseKeys(storeIDRaw, skuRaw string) (domain.StoreID, domain.SKU, error) {
	storeID, err := domain.NewStoreID(storeIDRaw)
	if err != nil {
		return "", "", errors.ErrValidation(err.Error())
	}
	sku, err := domain.NewSKU(skuRaw)
	if err != nil {
		return "", "", errors.ErrValidation(err.Error())
	}
	return storeID, sku, nil
}
