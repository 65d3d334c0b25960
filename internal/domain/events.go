package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event type constants for the POS bounded context
const (
	EventTypeSaleCompleted     = "pos.sale.completed"
	EventTypeSaleCancelled     = "pos.sale.cancelled"
	EventTypeReturnCreated     = "pos.return.created"
	EventTypeInventoryAdjusted = "pos.inventory.adjusted"
	EventTypeLowStockAlert     = "pos.inventory.low-stock-alert"
)

// DomainEvent represents a domain event
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
	AggregateID() string
}

// BaseDomainEvent contains common event fields
type BaseDomainEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	AggregateId string    `json:"aggregateId"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseDomainEvent) EventType() string     { return e.Type }
func (e BaseDomainEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseDomainEvent) AggregateID() string   { return e.AggregateId }

func newBaseEvent(eventType, aggregateID string, at time.Time) BaseDomainEvent {
	return BaseDomainEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateId: aggregateID,
		Timestamp:   at,
	}
}

// SaleCompletedEvent is raised when a sale finishes payment and completes
type SaleCompletedEvent struct {
	BaseDomainEvent
	SaleID            string     `json:"saleId"`
	TransactionNumber string     `json:"transactionNumber"`
	StoreID           string     `json:"storeId"`
	TerminalID        string     `json:"terminalId"`
	CashierID         string     `json:"cashierId,omitempty"`
	CustomerID        string     `json:"customerId,omitempty"`
	Items             []SaleItem `json:"items"`
	Payments          []Payment  `json:"payments"`
	SubTotal          Money      `json:"subTotal"`
	TaxAmount         Money      `json:"taxAmount"`
	DiscountAmount    Money      `json:"discountAmount"`
	TotalAmount       Money      `json:"totalAmount"`
	ChangeAmount      Money      `json:"changeAmount"`
	CompletedAt       time.Time  `json:"completedAt"`
}

// NewSaleCompletedEvent creates a new SaleCompletedEvent
func NewSaleCompletedEvent(sale *Sale, at time.Time) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent:   newBaseEvent(EventTypeSaleCompleted, sale.SaleID, at),
		SaleID:            sale.SaleID,
		TransactionNumber: sale.TransactionNumber,
		StoreID:           sale.StoreID.String(),
		TerminalID:        sale.TerminalID.String(),
		CashierID:         sale.CashierID,
		CustomerID:        sale.CustomerID,
		Items:             sale.Items,
		Payments:          sale.Payments,
		SubTotal:          sale.SubTotal,
		TaxAmount:         sale.TaxAmount,
		DiscountAmount:    sale.DiscountAmount,
		TotalAmount:       sale.TotalAmount,
		ChangeAmount:      sale.ChangeAmount,
		CompletedAt:       at,
	}
}

// SaleCancelledEvent is raised when a sale is cancelled. WasCompleted
// signals whether stock had already been deducted for this sale.
type SaleCancelledEvent struct {
	BaseDomainEvent
	SaleID            string     `json:"saleId"`
	TransactionNumber string     `json:"transactionNumber"`
	StoreID           string     `json:"storeId"`
	TerminalID        string     `json:"terminalId"`
	CashierID         string     `json:"cashierId,omitempty"`
	Items             []SaleItem `json:"items"`
	Reason            string     `json:"reason"`
	AuthorizedBy      string     `json:"authorizedBy,omitempty"`
	WasCompleted      bool       `json:"wasCompleted"`
	CancelledAt       time.Time  `json:"cancelledAt"`
}

// NewSaleCancelledEvent creates a new SaleCancelledEvent
func NewSaleCancelledEvent(sale *Sale, reason, authorizedBy string, wasCompleted bool, at time.Time) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent:   newBaseEvent(EventTypeSaleCancelled, sale.SaleID, at),
		SaleID:            sale.SaleID,
		TransactionNumber: sale.TransactionNumber,
		StoreID:           sale.StoreID.String(),
		TerminalID:        sale.TerminalID.String(),
		CashierID:         sale.CashierID,
		Items:             sale.Items,
		Reason:            reason,
		AuthorizedBy:      authorizedBy,
		WasCompleted:      wasCompleted,
		CancelledAt:       at,
	}
}

// ReturnCreatedEvent is raised when a return is processed
type ReturnCreatedEvent struct {
	BaseDomainEvent
	ReturnID                  string        `json:"returnId"`
	ReturnNumber              string        `json:"returnNumber"`
	OriginalSaleID            string        `json:"originalSaleId"`
	OriginalTransactionNumber string        `json:"originalTransactionNumber"`
	StoreID                   string        `json:"storeId"`
	CashierID                 string        `json:"cashierId,omitempty"`
	CustomerID                string        `json:"customerId,omitempty"`
	Items                     []ReturnItem  `json:"items"`
	TotalRefund               Money         `json:"totalRefund"`
	Reason                    string        `json:"reason"`
	RefundMethod              PaymentMethod `json:"refundMethod,omitempty"`
	ProcessedAt               time.Time     `json:"processedAt"`
}

// NewReturnCreatedEvent creates a new ReturnCreatedEvent
func NewReturnCreatedEvent(ret *Return, at time.Time) *ReturnCreatedEvent {
	return &ReturnCreatedEvent{
		BaseDomainEvent:           newBaseEvent(EventTypeReturnCreated, ret.ReturnID, at),
		ReturnID:                  ret.ReturnID,
		ReturnNumber:              ret.ReturnNumber,
		OriginalSaleID:            ret.OriginalSaleID,
		OriginalTransactionNumber: ret.OriginalTransactionNumber,
		StoreID:                   ret.StoreID.String(),
		CashierID:                 ret.CashierID,
		CustomerID:                ret.CustomerID,
		Items:                     ret.Items,
		TotalRefund:               ret.TotalRefund,
		Reason:                    ret.Reason,
		RefundMethod:              ret.RefundMethod,
		ProcessedAt:               at,
	}
}

// InventoryAdjustedEvent is raised when stock is manually adjusted
type InventoryAdjustedEvent struct {
	BaseDomainEvent
	SKU            string    `json:"sku"`
	StoreID        string    `json:"storeId"`
	WarehouseID    string    `json:"warehouseId"`
	QuantityBefore int       `json:"quantityBefore"`
	QuantityAfter  int       `json:"quantityAfter"`
	Reason         string    `json:"reason"`
	AdjustedAt     time.Time `json:"adjustedAt"`
}

// NewInventoryAdjustedEvent creates a new InventoryAdjustedEvent
func NewInventoryAdjustedEvent(inv *Inventory, before int, reason string, at time.Time) *InventoryAdjustedEvent {
	return &InventoryAdjustedEvent{
		BaseDomainEvent: newBaseEvent(EventTypeInventoryAdjusted, inv.InventoryID, at),
		SKU:             inv.SKU.String(),
		StoreID:         inv.StoreID.String(),
		WarehouseID:     inv.WarehouseID,
		QuantityBefore:  before,
		QuantityAfter:   inv.QuantityOnHand,
		Reason:          reason,
		AdjustedAt:      at,
	}
}

// LowStockAlertEvent is raised when available stock drops to or below
// the reorder point
type LowStockAlertEvent struct {
	BaseDomainEvent
	SKU               string    `json:"sku"`
	StoreID           string    `json:"storeId"`
	WarehouseID       string    `json:"warehouseId"`
	QuantityAvailable int       `json:"quantityAvailable"`
	ReorderPoint      int       `json:"reorderPoint"`
	ReorderQuantity   int       `json:"reorderQuantity"`
	DetectedAt        time.Time `json:"detectedAt"`
}

// NewLowStockAlertEvent creates a new LowStockAlertEvent
func NewLowStockAlertEvent(inv *Inventory, at time.Time) *LowStockAlertEvent {
	return &LowStockAlertEvent{
		BaseDomainEvent:   newBaseEvent(EventTypeLowStockAlert, inv.InventoryID, at),
		SKU:               inv.SKU.String(),
		StoreID:           inv.StoreID.String(),
		WarehouseID:       inv.WarehouseID,
		QuantityAvailable: inv.QuantityAvailable(),
		ReorderPoint:      inv.ReorderPoint,
		ReorderQuantity:   inv.ReorderQuantity,
		DetectedAt:        at,
	}
}
