package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors for Sale aggregate
var (
	ErrSaleNotModifiable    = errors.New("sale cannot be modified once completed or cancelled")
	ErrSaleAlreadyCancelled = errors.New("sale is already cancelled")
	ErrSaleNotCompletable   = errors.New("sale cannot be completed in its current status")
	ErrNoSaleItems          = errors.New("sale must have at least one item")
	ErrInsufficientPayment  = errors.New("paid amount does not cover the sale total")
	ErrCancelReasonRequired = errors.New("cancellation reason is required")
	ErrInvalidQuantity      = errors.New("quantity must be greater than zero")
	ErrInvalidUnitPrice     = errors.New("unit price cannot be negative")
	ErrInvalidDiscount      = errors.New("discount cannot be negative")
	ErrInvalidTaxRate       = errors.New("tax rate cannot be negative")
	ErrPaymentNotPositive   = errors.New("payment amount must be greater than zero")
	ErrSaleItemNotFound     = errors.New("item not found in sale")
)

// SaleStatus represents the lifecycle state of a sale
type SaleStatus string

const (
	SaleStatusDraft             SaleStatus = "draft"
	SaleStatusPendingCompletion SaleStatus = "pending_completion"
	SaleStatusCompleted         SaleStatus = "completed"
	SaleStatusCancelled         SaleStatus = "cancelled"
)

// IsValid checks if the status is a known value
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusDraft, SaleStatusPendingCompletion, SaleStatusCompleted, SaleStatusCancelled:
		return true
	default:
		return false
	}
}

// PaymentMethod represents how a payment was tendered
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodQRIS         PaymentMethod = "qris"
	PaymentMethodEWallet      PaymentMethod = "e_wallet"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// IsValid checks if the payment method is a known value
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodQRIS, PaymentMethodEWallet, PaymentMethodBankTransfer:
		return true
	default:
		return false
	}
}

// DefaultTaxRate is applied when a sale does not specify its own rate
const DefaultTaxRate = 0.11

// SaleItem represents a line in a sale. TotalPrice is the gross line
// total: unit price times quantity, minus line discount, plus line tax.
// WarehouseID and LocationID are optional fulfillment hints carried
// through to the inventory events.
type SaleItem struct {
	SKU         SKU    `bson:"sku" json:"sku"`
	Name        string `bson:"name" json:"name"`
	Quantity    int    `bson:"quantity" json:"quantity"`
	UnitPrice   Money  `bson:"unitPrice" json:"unitPrice"`
	Discount    Money  `bson:"discount" json:"discount"`
	TaxAmount   Money  `bson:"taxAmount" json:"taxAmount"`
	TotalPrice  Money  `bson:"totalPrice" json:"totalPrice"`
	WarehouseID string `bson:"warehouseId,omitempty" json:"warehouseId,omitempty"`
	LocationID  string `bson:"locationId,omitempty" json:"locationId,omitempty"`
}

// Payment represents a tendered payment on a sale
type Payment struct {
	Method     PaymentMethod `bson:"method" json:"method"`
	Amount     Money         `bson:"amount" json:"amount"`
	Reference  string        `bson:"reference,omitempty" json:"reference,omitempty"`
	ReceivedAt time.Time     `bson:"receivedAt" json:"receivedAt"`
}

// Sale is the aggregate root for the point-of-sale checkout flow
type Sale struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SaleID             string             `bson:"saleId" json:"saleId"`
	TransactionNumber  string             `bson:"transactionNumber" json:"transactionNumber"`
	StoreID            StoreID            `bson:"storeId" json:"storeId"`
	TerminalID         TerminalID         `bson:"terminalId" json:"terminalId"`
	CashierID          string             `bson:"cashierId,omitempty" json:"cashierId,omitempty"`
	CustomerID         string             `bson:"customerId,omitempty" json:"customerId,omitempty"`
	Status             SaleStatus         `bson:"status" json:"status"`
	Items              []SaleItem         `bson:"items" json:"items"`
	Payments           []Payment          `bson:"payments" json:"payments"`
	TaxRate            float64            `bson:"taxRate" json:"taxRate"`
	Currency           string             `bson:"currency" json:"currency"`
	SubTotal           Money              `bson:"subTotal" json:"subTotal"`
	TaxAmount          Money              `bson:"taxAmount" json:"taxAmount"`
	DiscountAmount     Money              `bson:"discountAmount" json:"discountAmount"`
	TotalAmount        Money              `bson:"totalAmount" json:"totalAmount"`
	PaidAmount         Money              `bson:"paidAmount" json:"paidAmount"`
	ChangeAmount       Money              `bson:"changeAmount" json:"changeAmount"`
	CancellationReason string             `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	CancelledBy        string             `bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`
	CompletedAt        *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CancelledAt        *time.Time         `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	Version            int                `bson:"version" json:"version"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Injected clock - transient, defaults to the system clock after rehydration
	clock Clock `bson:"-" json:"-"`

	// Version last seen in the database - transient, zero until persisted
	persistedVersion int `bson:"-" json:"-"`

	// Domain events - transient, not persisted
	domainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewSale creates a new Sale aggregate in draft status. The cashier
// and customer identifiers are optional.
func NewSale(storeID StoreID, terminalID TerminalID, cashierID, customerID string, taxRate float64, currency string, clock Clock, numbers *ReceiptNumberGenerator) (*Sale, error) {
	if taxRate < 0 {
		return nil, ErrInvalidTaxRate
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	if clock == nil {
		clock = SystemClock()
	}
	if numbers == nil {
		numbers = NewReceiptNumberGenerator(clock, nil)
	}

	now := clock.Now()
	sale := &Sale{
		ID:                primitive.NewObjectID(),
		SaleID:            uuid.New().String(),
		TransactionNumber: numbers.TransactionNumber(storeID, terminalID),
		StoreID:           storeID,
		TerminalID:        terminalID,
		CashierID:         cashierID,
		CustomerID:        customerID,
		Status:            SaleStatusDraft,
		Items:             make([]SaleItem, 0),
		Payments:          make([]Payment, 0),
		TaxRate:           taxRate,
		Currency:          currency,
		SubTotal:          ZeroMoney(currency),
		TaxAmount:         ZeroMoney(currency),
		DiscountAmount:    ZeroMoney(currency),
		TotalAmount:       ZeroMoney(currency),
		PaidAmount:        ZeroMoney(currency),
		ChangeAmount:      ZeroMoney(currency),
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
		clock:             clock,
		domainEvents:      make([]DomainEvent, 0),
	}

	return sale, nil
}

// WithClock attaches a clock to a rehydrated aggregate
func (s *Sale) WithClock(clock Clock) *Sale {
	s.clock = clock
	return s
}

// PersistedVersion returns the version the sale was loaded at. Zero
// means the sale has never been persisted.
func (s *Sale) PersistedVersion() int {
	return s.persistedVersion
}

// MarkPersisted records the current version as stored. Repositories
// call it after a load and after a successful save.
func (s *Sale) MarkPersisted() {
	s.persistedVersion = s.Version
}

func (s *Sale) now() time.Time {
	if s.clock == nil {
		s.clock = SystemClock()
	}
	return s.clock.Now()
}

// canModify rejects item and discount mutations once the sale has
// reached a terminal state. Draft and pending completion sales may
// still change; item edits never re-check payment coverage, only
// payments do.
func (s *Sale) canModify() error {
	if s.Status == SaleStatusCompleted || s.Status == SaleStatusCancelled {
		return ErrSaleNotModifiable
	}
	return nil
}

// AddItem adds a line to the sale. Adding the same SKU again merges
// quantities and discounts into the existing line; the first line's
// warehouse and location stick.
func (s *Sale) AddItem(sku SKU, name string, quantity int, unitPrice Money, discount Money, warehouseID, locationID string) error {
	if err := s.canModify(); err != nil {
		return err
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return ErrInvalidUnitPrice
	}
	if discount.IsNegative() {
		return ErrInvalidDiscount
	}
	if unitPrice.Currency != s.Currency || discount.Currency != s.Currency {
		return fmt.Errorf("%w: sale currency is %s", ErrCurrencyMismatch, s.Currency)
	}

	merged := false
	for i := range s.Items {
		if s.Items[i].SKU == sku {
			s.Items[i].Quantity += quantity
			s.Items[i].Discount.Amount += discount.Amount
			merged = true
			break
		}
	}

	if !merged {
		s.Items = append(s.Items, SaleItem{
			SKU:         sku,
			Name:        name,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			Discount:    discount,
			WarehouseID: warehouseID,
			LocationID:  locationID,
		})
	}

	s.recalculateTotals()
	s.touch()

	return nil
}

// RemoveItem removes a line from the sale
func (s *Sale) RemoveItem(sku SKU) error {
	if err := s.canModify(); err != nil {
		return err
	}

	for i := range s.Items {
		if s.Items[i].SKU == sku {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			s.recalculateTotals()
			s.touch()
			return nil
		}
	}

	return ErrSaleItemNotFound
}

// UpdateItemQuantity replaces the quantity on an existing line
func (s *Sale) UpdateItemQuantity(sku SKU, quantity int) error {
	if err := s.canModify(); err != nil {
		return err
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	for i := range s.Items {
		if s.Items[i].SKU == sku {
			s.Items[i].Quantity = quantity
			s.recalculateTotals()
			s.touch()
			return nil
		}
	}

	return ErrSaleItemNotFound
}

// ApplyItemDiscount sets the discount on an existing line
func (s *Sale) ApplyItemDiscount(sku SKU, discount Money) error {
	if err := s.canModify(); err != nil {
		return err
	}
	if discount.IsNegative() {
		return ErrInvalidDiscount
	}
	if discount.Currency != s.Currency {
		return fmt.Errorf("%w: sale currency is %s", ErrCurrencyMismatch, s.Currency)
	}

	for i := range s.Items {
		if s.Items[i].SKU == sku {
			s.Items[i].Discount = discount
			s.recalculateTotals()
			s.touch()
			return nil
		}
	}

	return ErrSaleItemNotFound
}

// ApplyDiscount sets the order-level discount on the sale
func (s *Sale) ApplyDiscount(discount Money) error {
	if err := s.canModify(); err != nil {
		return err
	}
	if discount.IsNegative() {
		return ErrInvalidDiscount
	}
	if discount.Currency != s.Currency {
		return fmt.Errorf("%w: sale currency is %s", ErrCurrencyMismatch, s.Currency)
	}

	s.DiscountAmount = discount
	s.recalculateTotals()
	s.touch()

	return nil
}

// AddPayment records a tendered payment. Once payments cover the total
// the sale transitions to pending completion. Change tracks the excess
// of payments over the total and is kept current by recalculateTotals.
func (s *Sale) AddPayment(method PaymentMethod, amount Money, reference string) error {
	if s.Status != SaleStatusDraft && s.Status != SaleStatusPendingCompletion {
		return fmt.Errorf("cannot add payment to a %s sale", s.Status)
	}
	if !method.IsValid() {
		return fmt.Errorf("invalid payment method: %s", method)
	}
	if !amount.IsPositive() {
		return ErrPaymentNotPositive
	}
	if amount.Currency != s.Currency {
		return fmt.Errorf("%w: sale currency is %s", ErrCurrencyMismatch, s.Currency)
	}
	if len(s.Items) == 0 {
		return ErrNoSaleItems
	}

	s.Payments = append(s.Payments, Payment{
		Method:     method,
		Amount:     amount,
		Reference:  reference,
		ReceivedAt: s.now(),
	})
	s.PaidAmount.Amount += amount.Amount
	s.recalculateTotals()

	if s.PaidAmount.Amount >= s.TotalAmount.Amount {
		s.Status = SaleStatusPendingCompletion
	}

	s.touch()

	return nil
}

// Complete finalizes a fully paid sale and raises SaleCompletedEvent
func (s *Sale) Complete() error {
	if s.Status == SaleStatusCancelled {
		return ErrSaleAlreadyCancelled
	}
	if s.Status == SaleStatusCompleted {
		return ErrSaleNotCompletable
	}
	if len(s.Items) == 0 {
		return ErrNoSaleItems
	}
	if s.PaidAmount.Amount < s.TotalAmount.Amount {
		return ErrInsufficientPayment
	}

	now := s.now()
	s.Status = SaleStatusCompleted
	s.CompletedAt = &now
	s.touch()
	s.addDomainEvent(NewSaleCompletedEvent(s, now))

	return nil
}

// Cancel cancels the sale. A completed sale may still be cancelled;
// the raised event carries WasCompleted so downstream consumers know
// whether stock has to be restored. The authorizer is optional and
// recorded for audit.
func (s *Sale) Cancel(reason, authorizedBy string) error {
	if s.Status == SaleStatusCancelled {
		return ErrSaleAlreadyCancelled
	}
	if reason == "" {
		return ErrCancelReasonRequired
	}

	wasCompleted := s.Status == SaleStatusCompleted

	now := s.now()
	s.Status = SaleStatusCancelled
	s.CancellationReason = reason
	s.CancelledBy = authorizedBy
	s.CancelledAt = &now
	s.touch()
	s.addDomainEvent(NewSaleCancelledEvent(s, reason, authorizedBy, wasCompleted, now))

	return nil
}

// FindItem returns the line with the given SKU
func (s *Sale) FindItem(sku SKU) (*SaleItem, bool) {
	for i := range s.Items {
		if s.Items[i].SKU == sku {
			return &s.Items[i], true
		}
	}
	return nil, false
}

// TotalItems returns the total unit count across all lines
func (s *Sale) TotalItems() int {
	total := 0
	for _, item := range s.Items {
		total += item.Quantity
	}
	return total
}

// IsReturnable returns true if returns can be created against this sale
func (s *Sale) IsReturnable() bool {
	return s.Status == SaleStatusCompleted
}

// recalculateTotals recomputes line taxes and sale totals:
//
//	subTotal  = sum(unitPrice * quantity)
//	lineTax   = (lineTotal - lineDiscount) * taxRate
//	total     = subTotal + tax - orderDiscount - sum(lineDiscounts), floored at zero
//	change    = paid - total when payments cover the total, else zero
func (s *Sale) recalculateTotals() {
	subTotal := ZeroMoney(s.Currency)
	taxTotal := ZeroMoney(s.Currency)
	lineDiscounts := ZeroMoney(s.Currency)

	for i := range s.Items {
		item := &s.Items[i]

		lineTotal := item.UnitPrice.MultiplyInt(item.Quantity)
		taxable := Money{Amount: lineTotal.Amount - item.Discount.Amount, Currency: s.Currency}.ClampZero()
		item.TaxAmount = taxable.MultiplyRate(s.TaxRate)
		item.TotalPrice = Money{
			Amount:   lineTotal.Amount - item.Discount.Amount + item.TaxAmount.Amount,
			Currency: s.Currency,
		}

		subTotal.Amount += lineTotal.Amount
		taxTotal.Amount += item.TaxAmount.Amount
		lineDiscounts.Amount += item.Discount.Amount
	}

	s.SubTotal = subTotal
	s.TaxAmount = taxTotal
	s.TotalAmount = Money{
		Amount:   subTotal.Amount + taxTotal.Amount - s.DiscountAmount.Amount - lineDiscounts.Amount,
		Currency: s.Currency,
	}.ClampZero()

	if len(s.Payments) > 0 && s.PaidAmount.Amount >= s.TotalAmount.Amount {
		s.ChangeAmount = Money{Amount: s.PaidAmount.Amount - s.TotalAmount.Amount, Currency: s.Currency}
	} else {
		s.ChangeAmount = ZeroMoney(s.Currency)
	}
}

func (s *Sale) touch() {
	s.UpdatedAt = s.now()
	s.Version++
}

// addDomainEvent adds a domain event to the sale
func (s *Sale) addDomainEvent(event DomainEvent) {
	s.domainEvents = append(s.domainEvents, event)
}

// DomainEvents returns all pending domain events
func (s *Sale) DomainEvents() []DomainEvent {
	return s.domainEvents
}

// ClearDomainEvents clears all pending domain events
func (s *Sale) ClearDomainEvents() {
	s.domainEvents = make([]DomainEvent, 0)
}
