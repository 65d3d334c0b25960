package application

import "time"

// SaleItemDTO is the API representation of a sale line
type SaleItemDTO struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Discount    float64 `json:"discount"`
	TaxAmount   float64 `json:"taxAmount"`
	TotalPrice  float64 `json:"totalPrice"`
	WarehouseID string  `json:"warehouseId,omitempty"`
	LocationID  string  `json:"locationId,omitempty"`
}

// PaymentDTO is the API representation of a payment
type PaymentDTO struct {
	Method     string    `json:"method"`
	Amount     float64   `json:"amount"`
	Reference  string    `json:"reference,omitempty"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// SaleDTO is the API representation of a sale
type SaleDTO struct {
	SaleID             string        `json:"saleId"`
	TransactionNumber  string        `json:"transactionNumber"`
	StoreID            string        `json:"storeId"`
	TerminalID         string        `json:"terminalId"`
	CashierID          string        `json:"cashierId,omitempty"`
	CustomerID         string        `json:"customerId,omitempty"`
	Status             string        `json:"status"`
	Items              []SaleItemDTO `json:"items"`
	Payments           []PaymentDTO  `json:"payments"`
	TaxRate            float64       `json:"taxRate"`
	Currency           string        `json:"currency"`
	SubTotal           float64       `json:"subTotal"`
	TaxAmount          float64       `json:"taxAmount"`
	DiscountAmount     float64       `json:"discountAmount"`
	TotalAmount        float64       `json:"totalAmount"`
	PaidAmount         float64       `json:"paidAmount"`
	ChangeAmount       float64       `json:"changeAmount"`
	CancellationReason string        `json:"cancellationReason,omitempty"`
	CancelledBy        string        `json:"cancelledBy,omitempty"`
	CompletedAt        *time.Time    `json:"completedAt,omitempty"`
	CancelledAt        *time.Time    `json:"cancelledAt,omitempty"`
	Version            int           `json:"version"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// ReturnItemDTO is the API representation of a returned line
type ReturnItemDTO struct {
	SKU             string  `json:"sku"`
	Name            string  `json:"name"`
	Quantity        int     `json:"quantity"`
	RefundPerUnit   float64 `json:"refundPerUnit"`
	RefundAmount    float64 `json:"refundAmount"`
	Condition       string  `json:"condition"`
	RestockRequired bool    `json:"restockRequired"`
	WarehouseID     string  `json:"warehouseId,omitempty"`
	LocationID      string  `json:"locationId,omitempty"`
}

// ReturnDTO is the API representation of a return
type ReturnDTO struct {
	ReturnID                  string          `json:"returnId"`
	ReturnNumber              string          `json:"returnNumber"`
	OriginalSaleID            string          `json:"originalSaleId"`
	OriginalTransactionNumber string          `json:"originalTransactionNumber"`
	StoreID                   string          `json:"storeId"`
	Status                    string          `json:"status"`
	Items                     []ReturnItemDTO `json:"items"`
	TotalRefund               float64         `json:"totalRefund"`
	Reason                    string          `json:"reason"`
	CancellationReason        string          `json:"cancellationReason,omitempty"`
	RefundMethod              string          `json:"refundMethod,omitempty"`
	Currency                  string          `json:"currency"`
	ProcessedAt               *time.Time      `json:"processedAt,omitempty"`
	CancelledAt               *time.Time      `json:"cancelledAt,omitempty"`
	CreatedAt                 time.Time       `json:"createdAt"`
}

// InventoryDTO is the API representation of an inventory record
type InventoryDTO struct {
	InventoryID       string    `json:"inventoryId"`
	SKU               string    `json:"sku"`
	StoreID           string    `json:"storeId"`
	WarehouseID       string    `json:"warehouseId"`
	QuantityOnHand    int       `json:"quantityOnHand"`
	QuantityReserved  int       `json:"quantityReserved"`
	QuantityAvailable int       `json:"quantityAvailable"`
	ReorderPoint      int       `json:"reorderPoint"`
	ReorderQuantity   int       `json:"reorderQuantity"`
	IsLowStock        bool      `json:"isLowStock"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// InventoryTransactionDTO is the API representation of a ledger entry
type InventoryTransactionDTO struct {
	TransactionID  string    `json:"transactionId"`
	SKU            string    `json:"sku"`
	StoreID        string    `json:"storeId"`
	WarehouseID    string    `json:"warehouseId"`
	Type           string    `json:"type"`
	Quantity       int       `json:"quantity"`
	QuantityBefore int       `json:"quantityBefore"`
	QuantityAfter  int       `json:"quantityAfter"`
	ReferenceType  string    `json:"referenceType,omitempty"`
	ReferenceID    string    `json:"referenceId,omitempty"`
	SourceEventID  string    `json:"sourceEventId,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// DeadLetterDTO is the API representation of a dead letter entry
type DeadLetterDTO struct {
	EntryID       string     `json:"entryId"`
	Topic         string     `json:"topic"`
	Partition     int        `json:"partition"`
	Offset        int64      `json:"offset"`
	EventType     string     `json:"eventType"`
	EventID       string     `json:"eventId,omitempty"`
	FailureReason string     `json:"failureReason"`
	AttemptCount  int        `json:"attemptCount"`
	Resolved      bool       `json:"resolved"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy    string     `json:"resolvedBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// PagedResult wraps a page of results with pagination metadata
type PagedResult[T any] struct {
	Data       []T   `json:"data"`
	Page       int64 `json:"page"`
	PageSize   int64 `json:"pageSize"`
	TotalItems int64 `json:"totalItems,omitempty"`
}
