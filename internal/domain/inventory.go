package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors for Inventory aggregate
var (
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidStockQuantity   = errors.New("quantity must be greater than zero")
	ErrNegativeStockLevel     = errors.New("stock level cannot be negative")
	ErrReservationExceedsHand = errors.New("cannot reserve more than available stock")
	ErrAdjustBelowReserved    = errors.New("cannot adjust stock below reserved quantity")
)

// DefaultWarehouseID is used when no warehouse is specified
const DefaultWarehouseID = "DEFAULT"

// Default replenishment settings for newly created inventory records
const (
	DefaultReorderPoint    = 10
	DefaultReorderQuantity = 50
)

// Inventory is the aggregate root for per-store, per-SKU stock levels.
// Invariants: on-hand never goes negative and reserved never exceeds
// on-hand.
type Inventory struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InventoryID      string             `bson:"inventoryId" json:"inventoryId"`
	SKU              SKU                `bson:"sku" json:"sku"`
	StoreID          StoreID            `bson:"storeId" json:"storeId"`
	WarehouseID      string             `bson:"warehouseId" json:"warehouseId"`
	QuantityOnHand   int                `bson:"quantityOnHand" json:"quantityOnHand"`
	QuantityReserved int                `bson:"quantityReserved" json:"quantityReserved"`
	ReorderPoint     int                `bson:"reorderPoint" json:"reorderPoint"`
	ReorderQuantity  int                `bson:"reorderQuantity" json:"reorderQuantity"`
	Version          int                `bson:"version" json:"version"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`

	clock Clock `bson:"-" json:"-"`

	// Version last seen in the database - transient, zero until persisted
	persistedVersion int `bson:"-" json:"-"`

	// Domain events - transient, not persisted
	domainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewInventory creates a new Inventory aggregate with zero stock
func NewInventory(sku SKU, storeID StoreID, warehouseID string, clock Clock) *Inventory {
	if warehouseID == "" {
		warehouseID = DefaultWarehouseID
	}
	if clock == nil {
		clock = SystemClock()
	}

	now := clock.Now()
	return &Inventory{
		ID:              primitive.NewObjectID(),
		InventoryID:     uuid.New().String(),
		SKU:             sku,
		StoreID:         storeID,
		WarehouseID:     warehouseID,
		ReorderPoint:    DefaultReorderPoint,
		ReorderQuantity: DefaultReorderQuantity,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
		clock:           clock,
		domainEvents:    make([]DomainEvent, 0),
	}
}

// WithClock attaches a clock to a rehydrated aggregate
func (i *Inventory) WithClock(clock Clock) *Inventory {
	i.clock = clock
	return i
}

// PersistedVersion returns the version the record was loaded at. Zero
// means the record has never been persisted.
func (i *Inventory) PersistedVersion() int {
	return i.persistedVersion
}

// MarkPersisted records the current version as stored. Repositories
// call it after a load and after a successful save.
func (i *Inventory) MarkPersisted() {
	i.persistedVersion = i.Version
}

func (i *Inventory) now() time.Time {
	if i.clock == nil {
		i.clock = SystemClock()
	}
	return i.clock.Now()
}

// QuantityAvailable returns on-hand stock not held by reservations
func (i *Inventory) QuantityAvailable() int {
	return i.QuantityOnHand - i.QuantityReserved
}

// IsLowStock returns true if available stock is at or below the reorder point
func (i *Inventory) IsLowStock() bool {
	return i.QuantityAvailable() <= i.ReorderPoint
}

// AddStock increases on-hand stock
func (i *Inventory) AddStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidStockQuantity
	}

	i.QuantityOnHand += quantity
	i.touch()

	return nil
}

// DeductStock decreases on-hand stock. Deduction beyond available
// stock is rejected so on-hand can never go negative. Crossing the
// reorder point raises a low stock alert.
func (i *Inventory) DeductStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidStockQuantity
	}
	if quantity > i.QuantityAvailable() {
		return fmt.Errorf("%w for %s: requested %d, available %d",
			ErrInsufficientStock, i.SKU, quantity, i.QuantityAvailable())
	}

	wasLow := i.IsLowStock()
	i.QuantityOnHand -= quantity
	i.touch()

	if !wasLow && i.IsLowStock() {
		i.addDomainEvent(NewLowStockAlertEvent(i, i.now()))
	}

	return nil
}

// ReserveStock holds stock for a pending order
func (i *Inventory) ReserveStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidStockQuantity
	}
	if quantity > i.QuantityAvailable() {
		return fmt.Errorf("%w: requested %d, available %d",
			ErrReservationExceedsHand, quantity, i.QuantityAvailable())
	}

	i.QuantityReserved += quantity
	i.touch()

	return nil
}

// ReleaseReservation releases held stock, clamping at zero
func (i *Inventory) ReleaseReservation(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidStockQuantity
	}

	i.QuantityReserved -= quantity
	if i.QuantityReserved < 0 {
		i.QuantityReserved = 0
	}
	i.touch()

	return nil
}

// AdjustStock sets on-hand stock to an absolute value, for cycle
// counts and corrections. Raises InventoryAdjustedEvent.
func (i *Inventory) AdjustStock(newQuantity int, reason string) error {
	if newQuantity < 0 {
		return ErrNegativeStockLevel
	}
	if newQuantity < i.QuantityReserved {
		return fmt.Errorf("%w: reserved %d", ErrAdjustBelowReserved, i.QuantityReserved)
	}

	before := i.QuantityOnHand
	i.QuantityOnHand = newQuantity
	i.touch()
	i.addDomainEvent(NewInventoryAdjustedEvent(i, before, reason, i.now()))

	return nil
}

func (i *Inventory) touch() {
	i.UpdatedAt = i.now()
	i.Version++
}

// addDomainEvent adds a domain event to the inventory record
func (i *Inventory) addDomainEvent(event DomainEvent) {
	i.domainEvents = append(i.domainEvents, event)
}

// DomainEvents returns all pending domain events
func (i *Inventory) DomainEvents() []DomainEvent {
	return i.domainEvents
}

// ClearDomainEvents clears all pending domain events
func (i *Inventory) ClearDomainEvents() {
	i.domainEvents = make([]DomainEvent, 0)
}
