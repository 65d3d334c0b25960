package domain

import (
	"context"
	"errors"
)

// ErrConcurrentModification is returned by repositories when a save
// loses the version check against the stored document. The caller
// holds a stale aggregate and must reload before retrying.
var ErrConcurrentModification = errors.New("aggregate was modified concurrently")

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// Save persists a sale and its pending domain events atomically (upsert)
	Save(ctx context.Context, sale *Sale) error

	// FindByID retrieves a sale by its SaleID
	FindByID(ctx context.Context, saleID string) (*Sale, error)

	// FindByTransactionNumber retrieves a sale by its transaction number
	FindByTransactionNumber(ctx context.Context, transactionNumber string) (*Sale, error)

	// FindByStore retrieves sales for a store, newest first
	FindByStore(ctx context.Context, storeID StoreID, status *SaleStatus, pagination Pagination) ([]*Sale, error)

	// Count returns the number of sales matching the filter
	Count(ctx context.Context, filter SaleFilter) (int64, error)
}

// SaleFilter represents filter options for querying sales
type SaleFilter struct {
	StoreID    *StoreID
	TerminalID *TerminalID
	Status     *SaleStatus
}

// ReturnRepository defines the interface for return persistence
type ReturnRepository interface {
	// Save persists a return and its pending domain events atomically (upsert)
	Save(ctx context.Context, ret *Return) error

	// FindByID retrieves a return by its ReturnID
	FindByID(ctx context.Context, returnID string) (*Return, error)

	// FindBySaleID retrieves all returns created against a sale
	FindBySaleID(ctx context.Context, saleID string) ([]*Return, error)

	// FindByStore retrieves returns for a store, newest first
	FindByStore(ctx context.Context, storeID StoreID, pagination Pagination) ([]*Return, error)
}

// InventoryRepository defines the interface for inventory persistence
type InventoryRepository interface {
	// Save persists an inventory record (upsert)
	Save(ctx context.Context, inv *Inventory) error

	// FindBySKU retrieves the inventory record for a SKU in a store and
	// warehouse, returning nil when none exists
	FindBySKU(ctx context.Context, storeID StoreID, sku SKU, warehouseID string) (*Inventory, error)

	// FindByStore retrieves all inventory records for a store
	FindByStore(ctx context.Context, storeID StoreID, pagination Pagination) ([]*Inventory, error)

	// FindLowStock retrieves records at or below their reorder point
	FindLowStock(ctx context.Context, storeID StoreID) ([]*Inventory, error)
}

// InventoryTransactionRepository defines the interface for the
// append-only stock movement ledger
type InventoryTransactionRepository interface {
	// Insert appends a ledger entry
	Insert(ctx context.Context, tx *InventoryTransaction) error

	// InsertAll appends multiple ledger entries
	InsertAll(ctx context.Context, txs []*InventoryTransaction) error

	// FindBySKU retrieves ledger entries for a SKU, newest first
	FindBySKU(ctx context.Context, storeID StoreID, sku SKU, pagination Pagination) ([]*InventoryTransaction, error)

	// FindByReference retrieves ledger entries created for a reference
	FindByReference(ctx context.Context, referenceType, referenceID string) ([]*InventoryTransaction, error)
}

// DeadLetterRepository defines the interface for dead letter persistence
type DeadLetterRepository interface {
	// Save persists a dead letter entry (upsert)
	Save(ctx context.Context, entry *DeadLetterEntry) error

	// FindByID retrieves a dead letter entry by its EntryID
	FindByID(ctx context.Context, entryID string) (*DeadLetterEntry, error)

	// FindUnresolved retrieves unresolved entries, oldest first
	FindUnresolved(ctx context.Context, pagination Pagination) ([]*DeadLetterEntry, error)
}

// Pagination represents pagination options
type Pagination struct {
	Page     int64
	PageSize int64
}

// DefaultPagination returns default pagination options
func DefaultPagination() Pagination {
	return Pagination{
		Page:     1,
		PageSize: 20,
	}
}

// Skip returns the number of documents to skip
func (p Pagination) Skip() int64 {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the maximum number of documents to return
func (p Pagination) Limit() int64 {
	return p.PageSize
}
