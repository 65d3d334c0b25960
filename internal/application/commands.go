package application

// CreateSaleCommand opens a new draft sale on a terminal
type CreateSaleCommand struct {
	StoreID    string   `json:"storeId" binding:"required,store_id"`
	TerminalID string   `json:"terminalId" binding:"required"`
	CashierID  string   `json:"cashierId,omitempty"`
	CustomerID string   `json:"customerId,omitempty"`
	TaxRate    *float64 `json:"taxRate,omitempty" binding:"omitempty,gte=0"`
	Currency   string   `json:"currency,omitempty" binding:"omitempty,currency"`
}

// AddSaleItemCommand adds a line to a draft sale
type AddSaleItemCommand struct {
	SaleID      string  `json:"-"`
	SKU         string  `json:"sku" binding:"required,sku"`
	Name        string  `json:"name" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64 `json:"unitPrice" binding:"gte=0"`
	Discount    float64 `json:"discount" binding:"gte=0"`
	WarehouseID string  `json:"warehouseId,omitempty"`
	LocationID  string  `json:"locationId,omitempty"`
}

// UpdateSaleItemCommand replaces the quantity on an existing line
type UpdateSaleItemCommand struct {
	SaleID   string `json:"-"`
	SKU      string `json:"-"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// RemoveSaleItemCommand removes a line from a draft sale
type RemoveSaleItemCommand struct {
	SaleID string `json:"-"`
	SKU    string `json:"sku" binding:"required,sku"`
}

// ApplyDiscountCommand sets the order-level discount
type ApplyDiscountCommand struct {
	SaleID   string  `json:"-"`
	Discount float64 `json:"discount" binding:"gte=0"`
}

// AddPaymentCommand records a tendered payment on a sale
type AddPaymentCommand struct {
	SaleID    string  `json:"-"`
	Method    string  `json:"method" binding:"required,payment_method"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Reference string  `json:"reference,omitempty"`
}

// CompleteSaleCommand finalizes a fully paid sale
type CompleteSaleCommand struct {
	SaleID string `json:"-"`
}

// CancelSaleCommand cancels a sale with a reason
type CancelSaleCommand struct {
	SaleID       string `json:"-"`
	Reason       string `json:"reason" binding:"required"`
	AuthorizedBy string `json:"authorizedBy,omitempty"`
}

// GetSaleQuery retrieves a single sale
type GetSaleQuery struct {
	SaleID string
}

// ListSalesQuery lists sales for a store
type ListSalesQuery struct {
	StoreID  string `form:"storeId" binding:"required,store_id"`
	Status   string `form:"status" binding:"omitempty,oneof=draft pending_completion completed cancelled"`
	Page     int64  `form:"page" binding:"omitempty,gte=1"`
	PageSize int64  `form:"pageSize" binding:"omitempty,gte=1,lte=100"`
}

// ReturnItemCommand is a single line in a return request
type ReturnItemCommand struct {
	SKU       string `json:"sku" binding:"required,sku"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Condition string `json:"condition" binding:"required,item_condition"`
}

// CreateReturnCommand opens a return against a completed sale
type CreateReturnCommand struct {
	SaleID string              `json:"saleId" binding:"required"`
	Reason string              `json:"reason" binding:"required"`
	Items  []ReturnItemCommand `json:"items" binding:"required,min=1,dive"`
}

// AddReturnItemCommand adds a line to a pending return
type AddReturnItemCommand struct {
	ReturnID  string `json:"-"`
	SKU       string `json:"sku" binding:"required,sku"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Condition string `json:"condition" binding:"required,item_condition"`
}

// ProcessReturnCommand finalizes a pending return
type ProcessReturnCommand struct {
	ReturnID     string `json:"-"`
	RefundMethod string `json:"refundMethod,omitempty" binding:"omitempty,payment_method"`
}

// CancelReturnCommand cancels a pending return
type CancelReturnCommand struct {
	ReturnID string `json:"-"`
	Reason   string `json:"reason,omitempty"`
}

// GetReturnQuery retrieves a single return
type GetReturnQuery struct {
	ReturnID string
}

// ListReturnsQuery lists returns for a store
type ListReturnsQuery struct {
	StoreID  string `form:"storeId" binding:"required,store_id"`
	Page     int64  `form:"page" binding:"omitempty,gte=1"`
	PageSize int64  `form:"pageSize" binding:"omitempty,gte=1,lte=100"`
}

// GetInventoryQuery retrieves a single inventory record
type GetInventoryQuery struct {
	StoreID     string
	SKU         string
	WarehouseID string
}

// ListInventoryQuery lists inventory records for a store
type ListInventoryQuery struct {
	StoreID  string `form:"storeId" binding:"required,store_id"`
	Page     int64  `form:"page" binding:"omitempty,gte=1"`
	PageSize int64  `form:"pageSize" binding:"omitempty,gte=1,lte=100"`
}

// ReceiveStockCommand adds received stock to an inventory record
type ReceiveStockCommand struct {
	StoreID     string `json:"storeId" binding:"required,store_id"`
	SKU         string `json:"sku" binding:"required,sku"`
	WarehouseID string `json:"warehouseId,omitempty"`
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
	Notes       string `json:"notes,omitempty"`
}

// AdjustInventoryCommand sets stock to an absolute level
type AdjustInventoryCommand struct {
	StoreID     string `json:"storeId" binding:"required,store_id"`
	SKU         string `json:"sku" binding:"required,sku"`
	WarehouseID string `json:"warehouseId,omitempty"`
	NewQuantity int    `json:"newQuantity" binding:"gte=0"`
	Reason      string `json:"reason" binding:"required"`
}

// ListTransactionsQuery lists ledger entries for a SKU
type ListTransactionsQuery struct {
	StoreID  string `form:"storeId" binding:"required,store_id"`
	SKU      string `form:"sku" binding:"required,sku"`
	Page     int64  `form:"page" binding:"omitempty,gte=1"`
	PageSize int64  `form:"pageSize" binding:"omitempty,gte=1,lte=100"`
}

// ResolveDeadLetterCommand marks a dead letter entry as handled
type ResolveDeadLetterCommand struct {
	EntryID    string `json:"-"`
	ResolvedBy string `json:"resolvedBy" binding:"required"`
}
