package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors for Return aggregate
var (
	ErrSaleNotReturnable      = errors.New("returns can only be created for completed sales")
	ErrReturnNotPending       = errors.New("return can only be modified in pending status")
	ErrReturnAlreadyProcessed = errors.New("return is already processed")
	ErrNoReturnItems          = errors.New("return must have at least one item")
	ErrItemNotInSale          = errors.New("item was not part of the original sale")
	ErrReturnQuantityExceeded = errors.New("return quantity exceeds remaining quantity for this item")
	ErrInvalidCondition       = errors.New("invalid item condition")
	ErrReturnReasonRequired   = errors.New("return reason is required")
)

// ReturnStatus represents the lifecycle state of a return
type ReturnStatus string

const (
	ReturnStatusPending   ReturnStatus = "pending"
	ReturnStatusProcessed ReturnStatus = "processed"
	ReturnStatusCancelled ReturnStatus = "cancelled"
)

// ItemCondition describes the state of a returned item. Items in new
// or opened condition go back to stock; damaged and defective do not.
type ItemCondition string

const (
	ConditionNew       ItemCondition = "new"
	ConditionOpened    ItemCondition = "opened"
	ConditionDamaged   ItemCondition = "damaged"
	ConditionDefective ItemCondition = "defective"
)

// IsValid checks if the condition is a known value
func (c ItemCondition) IsValid() bool {
	switch c {
	case ConditionNew, ConditionOpened, ConditionDamaged, ConditionDefective:
		return true
	default:
		return false
	}
}

// Restockable returns true if items in this condition go back to stock
func (c ItemCondition) Restockable() bool {
	return c == ConditionNew || c == ConditionOpened
}

// ReturnItem represents a returned line. RefundPerUnit is derived from
// the original line's gross total so refunds stay proportional to what
// was actually paid, tax and discounts included.
type ReturnItem struct {
	SKU             SKU           `bson:"sku" json:"sku"`
	Name            string        `bson:"name" json:"name"`
	Quantity        int           `bson:"quantity" json:"quantity"`
	RefundPerUnit   Money         `bson:"refundPerUnit" json:"refundPerUnit"`
	RefundAmount    Money         `bson:"refundAmount" json:"refundAmount"`
	Condition       ItemCondition `bson:"condition" json:"condition"`
	RestockRequired bool          `bson:"restockRequired" json:"restockRequired"`
	WarehouseID     string        `bson:"warehouseId,omitempty" json:"warehouseId,omitempty"`
	LocationID      string        `bson:"locationId,omitempty" json:"locationId,omitempty"`
}

// Return is the aggregate root for the return/refund flow
type Return struct {
	ID                        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReturnID                  string             `bson:"returnId" json:"returnId"`
	ReturnNumber              string             `bson:"returnNumber" json:"returnNumber"`
	OriginalSaleID            string             `bson:"originalSaleId" json:"originalSaleId"`
	OriginalTransactionNumber string             `bson:"originalTransactionNumber" json:"originalTransactionNumber"`
	StoreID                   StoreID            `bson:"storeId" json:"storeId"`
	CashierID                 string             `bson:"cashierId,omitempty" json:"cashierId,omitempty"`
	CustomerID                string             `bson:"customerId,omitempty" json:"customerId,omitempty"`
	Status                    ReturnStatus       `bson:"status" json:"status"`
	Items                     []ReturnItem       `bson:"items" json:"items"`
	TotalRefund               Money              `bson:"totalRefund" json:"totalRefund"`
	Reason                    string             `bson:"reason" json:"reason"`
	CancellationReason        string             `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	RefundMethod              PaymentMethod      `bson:"refundMethod,omitempty" json:"refundMethod,omitempty"`
	Currency                  string             `bson:"currency" json:"currency"`
	ProcessedAt               *time.Time         `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	CancelledAt               *time.Time         `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	Version                   int                `bson:"version" json:"version"`
	CreatedAt                 time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt                 time.Time          `bson:"updatedAt" json:"updatedAt"`

	clock Clock `bson:"-" json:"-"`

	// Version last seen in the database - transient, zero until persisted
	persistedVersion int `bson:"-" json:"-"`

	// Domain events - transient, not persisted
	domainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewReturn creates a new Return aggregate against a completed sale
func NewReturn(sale *Sale, reason string, clock Clock, numbers *ReceiptNumberGenerator) (*Return, error) {
	if !sale.IsReturnable() {
		return nil, ErrSaleNotReturnable
	}
	if reason == "" {
		return nil, ErrReturnReasonRequired
	}
	if clock == nil {
		clock = SystemClock()
	}
	if numbers == nil {
		numbers = NewReceiptNumberGenerator(clock, nil)
	}

	now := clock.Now()
	ret := &Return{
		ID:                        primitive.NewObjectID(),
		ReturnID:                  uuid.New().String(),
		ReturnNumber:              numbers.ReturnNumber(sale.StoreID),
		OriginalSaleID:            sale.SaleID,
		OriginalTransactionNumber: sale.TransactionNumber,
		StoreID:                   sale.StoreID,
		CashierID:                 sale.CashierID,
		CustomerID:                sale.CustomerID,
		Status:                    ReturnStatusPending,
		Items:                     make([]ReturnItem, 0),
		TotalRefund:               ZeroMoney(sale.Currency),
		Reason:                    reason,
		Currency:                  sale.Currency,
		Version:                   1,
		CreatedAt:                 now,
		UpdatedAt:                 now,
		clock:                     clock,
		domainEvents:              make([]DomainEvent, 0),
	}

	return ret, nil
}

// WithClock attaches a clock to a rehydrated aggregate
func (r *Return) WithClock(clock Clock) *Return {
	r.clock = clock
	return r
}

// PersistedVersion returns the version the return was loaded at. Zero
// means the return has never been persisted.
func (r *Return) PersistedVersion() int {
	return r.persistedVersion
}

// MarkPersisted records the current version as stored. Repositories
// call it after a load and after a successful save.
func (r *Return) MarkPersisted() {
	r.persistedVersion = r.Version
}

func (r *Return) now() time.Time {
	if r.clock == nil {
		r.clock = SystemClock()
	}
	return r.clock.Now()
}

// AddItem adds a returned line. alreadyReturned is the quantity of the
// SKU returned by prior returns against the same sale; the cumulative
// total may never exceed the originally sold quantity.
func (r *Return) AddItem(original SaleItem, quantity int, condition ItemCondition, alreadyReturned int) error {
	if r.Status != ReturnStatusPending {
		return ErrReturnNotPending
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !condition.IsValid() {
		return ErrInvalidCondition
	}

	pending := 0
	for _, item := range r.Items {
		if item.SKU == original.SKU {
			pending += item.Quantity
		}
	}

	if alreadyReturned+pending+quantity > original.Quantity {
		return fmt.Errorf("%w: sku %s, sold %d, already returned %d",
			ErrReturnQuantityExceeded, original.SKU, original.Quantity, alreadyReturned+pending)
	}

	refundPerUnit, err := original.TotalPrice.DivideInt(original.Quantity)
	if err != nil {
		return err
	}

	r.Items = append(r.Items, ReturnItem{
		SKU:             original.SKU,
		Name:            original.Name,
		Quantity:        quantity,
		RefundPerUnit:   refundPerUnit,
		RefundAmount:    refundPerUnit.MultiplyInt(quantity),
		Condition:       condition,
		RestockRequired: condition.Restockable(),
		WarehouseID:     original.WarehouseID,
		LocationID:      original.LocationID,
	})

	r.recalculateRefund()
	r.touch()

	return nil
}

// Process finalizes a pending return and raises ReturnCreatedEvent.
// The refund method defaults to cash when not specified.
func (r *Return) Process(refundMethod PaymentMethod) error {
	if r.Status == ReturnStatusProcessed {
		return ErrReturnAlreadyProcessed
	}
	if r.Status != ReturnStatusPending {
		return ErrReturnNotPending
	}
	if len(r.Items) == 0 {
		return ErrNoReturnItems
	}
	if refundMethod == "" {
		refundMethod = PaymentMethodCash
	}
	if !refundMethod.IsValid() {
		return fmt.Errorf("invalid refund method: %s", refundMethod)
	}

	now := r.now()
	r.RefundMethod = refundMethod
	r.Status = ReturnStatusProcessed
	r.ProcessedAt = &now
	r.touch()
	r.addDomainEvent(NewReturnCreatedEvent(r, now))

	return nil
}

// Cancel cancels a pending return
func (r *Return) Cancel(reason string) error {
	if r.Status == ReturnStatusProcessed {
		return ErrReturnAlreadyProcessed
	}
	if r.Status == ReturnStatusCancelled {
		return nil
	}

	now := r.now()
	r.Status = ReturnStatusCancelled
	r.CancellationReason = reason
	r.CancelledAt = &now
	r.touch()

	return nil
}

// ReturnedQuantity returns the total quantity of a SKU in this return
func (r *Return) ReturnedQuantity(sku SKU) int {
	total := 0
	for _, item := range r.Items {
		if item.SKU == sku {
			total += item.Quantity
		}
	}
	return total
}

func (r *Return) recalculateRefund() {
	total := ZeroMoney(r.Currency)
	for _, item := range r.Items {
		total.Amount += item.RefundAmount.Amount
	}
	r.TotalRefund = total
}

func (r *Return) touch() {
	r.UpdatedAt = r.now()
	r.Version++
}

// addDomainEvent adds a domain event to the return
func (r *Return) addDomainEvent(event DomainEvent) {
	r.domainEvents = append(r.domainEvents, event)
}

// DomainEvents returns all pending domain events
func (r *Return) DomainEvents() []DomainEvent {
	return r.domainEvents
}

// ClearDomainEvents clears all pending domain events
func (r *Return) ClearDomainEvents() {
	r.domainEvents = make([]DomainEvent, 0)
}
