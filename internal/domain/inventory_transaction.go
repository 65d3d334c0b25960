package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrUnknownTransactionType is returned for unrecognized ledger entry types
var ErrUnknownTransactionType = errors.New("unknown inventory transaction type")

// TransactionType classifies inventory ledger entries
type TransactionType string

const (
	TransactionAddition    TransactionType = "addition"
	TransactionDeduction   TransactionType = "deduction"
	TransactionAdjustment  TransactionType = "adjustment"
	TransactionReservation TransactionType = "reservation"
	TransactionRelease     TransactionType = "release"
	TransactionTransfer    TransactionType = "transfer"
)

// IsValid checks if the transaction type is a known value
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionAddition, TransactionDeduction, TransactionAdjustment,
		TransactionReservation, TransactionRelease, TransactionTransfer:
		return true
	default:
		return false
	}
}

// Reference type constants for ledger entries created by reconciliation
const (
	ReferenceTypeSale             = "Sale"
	ReferenceTypeSaleCancellation = "SaleCancellation"
	ReferenceTypeReturn           = "Return"
)

// InventoryTransaction is an append-only ledger entry recording a
// single stock movement. Entries are never updated or deleted.
type InventoryTransaction struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TransactionID  string             `bson:"transactionId" json:"transactionId"`
	SKU            SKU                `bson:"sku" json:"sku"`
	StoreID        StoreID            `bson:"storeId" json:"storeId"`
	WarehouseID    string             `bson:"warehouseId" json:"warehouseId"`
	Type           TransactionType    `bson:"type" json:"type"`
	Quantity       int                `bson:"quantity" json:"quantity"`
	QuantityBefore int                `bson:"quantityBefore" json:"quantityBefore"`
	QuantityAfter  int                `bson:"quantityAfter" json:"quantityAfter"`
	ReferenceType  string             `bson:"referenceType,omitempty" json:"referenceType,omitempty"`
	ReferenceID    string             `bson:"referenceId,omitempty" json:"referenceId,omitempty"`
	SourceEventID  string             `bson:"sourceEventId,omitempty" json:"sourceEventId,omitempty"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// NewInventoryTransaction creates a ledger entry for a stock movement.
// QuantityAfter is derived from the movement direction: deductions
// subtract from the before quantity, everything else adds.
func NewInventoryTransaction(
	inv *Inventory,
	txType TransactionType,
	quantity int,
	quantityBefore int,
	referenceType string,
	referenceID string,
	sourceEventID string,
	notes string,
	at time.Time,
) (*InventoryTransaction, error) {
	if !txType.IsValid() {
		return nil, ErrUnknownTransactionType
	}
	if quantity <= 0 {
		return nil, ErrInvalidStockQuantity
	}

	quantityAfter := quantityBefore + quantity
	if txType == TransactionDeduction {
		quantityAfter = quantityBefore - quantity
	}

	return &InventoryTransaction{
		ID:             primitive.NewObjectID(),
		TransactionID:  uuid.New().String(),
		SKU:            inv.SKU,
		StoreID:        inv.StoreID,
		WarehouseID:    inv.WarehouseID,
		Type:           txType,
		Quantity:       quantity,
		QuantityBefore: quantityBefore,
		QuantityAfter:  quantityAfter,
		ReferenceType:  referenceType,
		ReferenceID:    referenceID,
		SourceEventID:  sourceEventID,
		Notes:          notes,
		CreatedAt:      at,
	}, nil
}

// NewAdjustmentTransaction creates a ledger entry for an absolute
// stock adjustment, where the after quantity is set directly.
func NewAdjustmentTransaction(
	inv *Inventory,
	quantityBefore int,
	quantityAfter int,
	notes string,
	at time.Time,
) *InventoryTransaction {
	delta := quantityAfter - quantityBefore
	if delta < 0 {
		delta = -delta
	}

	return &InventoryTransaction{
		ID:             primitive.NewObjectID(),
		TransactionID:  uuid.New().String(),
		SKU:            inv.SKU,
		StoreID:        inv.StoreID,
		WarehouseID:    inv.WarehouseID,
		Type:           TransactionAdjustment,
		Quantity:       delta,
		QuantityBefore: quantityBefore,
		QuantityAfter:  quantityAfter,
		Notes:          notes,
		CreatedAt:      at,
	}
}
