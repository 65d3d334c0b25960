package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testInstant = time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

func createTestSale(t *testing.T) *Sale {
	t.Helper()
	clock := FixedClock{Instant: testInstant}
	numbers := NewReceiptNumberGenerator(clock, FixedSequence{Value: 1234})

	sale, err := NewSale("JKT-01", "T01", "CSH-42", "", DefaultTaxRate, "IDR", clock, numbers)
	require.NoError(t, err)
	return sale
}

func createPaidSale(t *testing.T) *Sale {
	t.Helper()
	sale := createTestSale(t)
	require.NoError(t, sale.AddItem("COF-001", "Coffee Beans 1kg", 3, NewMoneyFromFloat(25000, "IDR"), ZeroMoney("IDR"), "", ""))
	require.NoError(t, sale.AddPayment(PaymentMethodCash, NewMoneyFromFloat(90000, "IDR"), ""))
	return sale
}

// TestNewSale tests sale creation
func TestNewSale(t *testing.T) {
	tests := []struct {
		name        string
		taxRate     float64
		currency    string
		expectError error
	}{
		{
			name:     "Valid sale with default tax rate",
			taxRate:  DefaultTaxRate,
			currency: "IDR",
		},
		{
			name:     "Empty currency falls back to default",
			taxRate:  0.1,
			currency: "",
		},
		{
			name:        "Negative tax rate is rejected",
			taxRate:     -0.1,
			currency:    "IDR",
			expectError: ErrInvalidTaxRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := FixedClock{Instant: testInstant}
			numbers := NewReceiptNumberGenerator(clock, FixedSequence{Value: 1234})
			sale, err := NewSale("JKT-01", "T01", "CSH-42", "CUST-7", tt.taxRate, tt.currency, clock, numbers)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, sale)
			} else {
				require.NoError(t, err)
				require.NotNil(t, sale)
				assert.Equal(t, SaleStatusDraft, sale.Status)
				assert.NotEmpty(t, sale.SaleID)
				assert.Equal(t, "JKT-01-T01-20260828100000-1234", sale.TransactionNumber)
				assert.Equal(t, testInstant, sale.CreatedAt)
				assert.Empty(t, sale.DomainEvents())
				if tt.currency == "" {
					assert.Equal(t, DefaultCurrency, sale.Currency)
				}
			}
		})
	}
}

// TestSaleAddItem tests adding lines and total recalculation
func TestSaleAddItem(t *testing.T) {
	tests := []struct {
		name        string
		setupSale   func(t *testing.T) *Sale
		sku         SKU
		quantity    int
		unitPrice   Money
		discount    Money
		expectError error
	}{
		{
			name:      "Add item to draft sale",
			setupSale: createTestSale,
			sku:       "COF-001",
			quantity:  3,
			unitPrice: NewMoneyFromFloat(25000, "IDR"),
			discount:  ZeroMoney("IDR"),
		},
		{
			name:        "Zero quantity is rejected",
			setupSale:   createTestSale,
			sku:         "COF-001",
			quantity:    0,
			unitPrice:   NewMoneyFromFloat(25000, "IDR"),
			discount:    ZeroMoney("IDR"),
			expectError: ErrInvalidQuantity,
		},
		{
			name:        "Negative unit price is rejected",
			setupSale:   createTestSale,
			sku:         "COF-001",
			quantity:    1,
			unitPrice:   NewMoney(-100, "IDR"),
			discount:    ZeroMoney("IDR"),
			expectError: ErrInvalidUnitPrice,
		},
		{
			name:        "Negative discount is rejected",
			setupSale:   createTestSale,
			sku:         "COF-001",
			quantity:    1,
			unitPrice:   NewMoneyFromFloat(25000, "IDR"),
			discount:    NewMoney(-100, "IDR"),
			expectError: ErrInvalidDiscount,
		},
		{
			name:        "Wrong currency is rejected",
			setupSale:   createTestSale,
			sku:         "COF-001",
			quantity:    1,
			unitPrice:   NewMoneyFromFloat(25000, "USD"),
			discount:    ZeroMoney("USD"),
			expectError: ErrCurrencyMismatch,
		},
		{
			name: "Cannot add item to completed sale",
			setupSale: func(t *testing.T) *Sale {
				sale := createPaidSale(t)
				require.NoError(t, sale.Complete())
				return sale
			},
			sku:         "TEA-002",
			quantity:    1,
			unitPrice:   NewMoneyFromFloat(15000, "IDR"),
			discount:    ZeroMoney("IDR"),
			expectError: ErrSaleNotModifiable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sale := tt.setupSale(t)
			err := sale.AddItem(tt.sku, "Test Product", tt.quantity, tt.unitPrice, tt.discount, "", "")

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				require.NoError(t, err)
				item, found := sale.FindItem(tt.sku)
				require.True(t, found)
				assert.Equal(t, tt.quantity, item.Quantity)
			}
		})
	}
}

// TestSaleAddItemMergesSameSKU tests that re-adding a SKU merges the line
func TestSaleAddItemMergesSameSKU(t *testing.T) {
	sale := createTestSale(t)
	price := NewMoneyFromFloat(25000, "IDR")

	require.NoError(t, sale.AddItem("COF-001", "Coffee Beans 1kg", 2, price, ZeroMoney("IDR"), "WH-001", "A-01"))
	require.NoError(t, sale.AddItem("COF-001", "Coffee Beans 1kg", 1, price, NewMoneyFromFloat(1000, "IDR"), "", ""))

	assert.Len(t, sale.Items, 1)
	item, found := sale.FindItem("COF-001")
	require.True(t, found)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, NewMoneyFromFloat(1000, "IDR").Amount, item.Discount.Amount)
	assert.Equal(t, "WH-001", item.WarehouseID)
	assert.Equal(t, "A-01", item.LocationID)
	assert.Equal(t, 3, sale.TotalItems())
}

// TestSaleTotals tests the tax and discount arithmetic
func TestSaleTotals(t *testing.T) {
	sale := createTestSale(t)

	// 3 x 25000 at 11% tax: subtotal 75000, tax 8250, total 83250
	require.NoError(t, sale.AddItem("COF-001", "Coffee Beans 1kg", 3, NewMoneyFromFloat(25000, "IDR"), ZeroMoney("IDR"), "", ""))

	assert.InDelta(t, 75000.0, sale.SubTotal.Float64(), 0.001)
	assert.InDelta(t, 8250.0, sale.TaxAmount.Float64(), 0.001)
	assert.InDelta(t, 83250.0, sale.TotalAmount.Float64(), 0.001)

	item, _ := sale.FindItem("COF-001")
	assert.InDelta(t, 83250.0, item.TotalPrice.Float64(), 0.001)

	// Line discount reduces the taxable base
	require.NoError(t, sale.AddItem("TEA-002", "Green Tea", 1, NewMoneyFromFloat(10000, "IDR"), NewMoneyFromFloat(2000, "IDR"), "", ""))

	tea, _ := sale.FindItem("TEA-002")
	assert.InDelta(t, 880.0, tea.TaxAmount.Float64(), 0.001)   // (10000-2000) * 0.11
	assert.InDelta(t, 8880.0, tea.TotalPrice.Float64(), 0.001) // 10000 - 2000 + 880

	// Order-level discount comes off the grand total
	require.NoError(t, sale.ApplyDiscount(NewMoneyFromFloat(5000, "IDR")))
	assert.InDelta(t, 87130.0, sale.TotalAmount.Float64(), 0.001) // 85000 + 9130 - 5000 - 2000

	// Total never goes negative
	require.NoError(t, sale.ApplyDiscount(NewMoneyFromFloat(1000000, "IDR")))
	assert.Equal(t, int64(0), sale.TotalAmount.Amount)
}

// TestSaleRemoveItem tests removing lines
func TestSaleRemoveItem(t *testing.T) {
	sale := createTestSale(t)
	require.NoError(t, sale.AddItem("COF-001", "Coffee Beans 1kg", 2, NewMoneyFromFloat(25000, "IDR"), ZeroMoney("IDR"), "", ""))

	err := sale.RemoveItem("COF-001")
	require.NoError(t, err)
	assert.Empty(t, sale.Items)
	assert.Equal(t, int64(0), sale.TotalAmount.Amount)

	err = sale.RemoveItem("COF-001")
	assert.ErrorIs(t, err, ErrSaleItemNotFound)
}

// TestSaleAddPayment tests payment recording and the transition to
// pending completion
func TestSaleAddPayment(t *testing.T) {
	tests := []struct {
		name           string
		setupSale      func(t *testing.T) *Sale
		method         PaymentMethod
		amount         Money
		expectError    error
		expectedStatus SaleStatus
	}{
		{
			name: "Partial payment keeps sale in draft",
			setupSale: func(t *testing.T) *Sale {
				sale := createTestSale(t)
				require.NoError(t, sale.AddItem("COF-001", "Coffee Beans 1kg", 3, NewMoneyFromFloat(25000, "IDR"), ZeroMoney("IDR"), "", ""))
				return sale
			},
			method:         PaymentMethodCash,
			amount:         NewMoneyFromFloat(50000, "IDR"),
			expectedStatus: SaleStatusDraft,
		},
		{
			name: "Covering payment moves sale to pending completion",
			setupSale: func(t *testing.T) *Sale {
				sale := createTestSale(t)
				require.NoError(t, sale.AddItem("COF-001", "Coffee Beans 1kg", 3, NewMoneyFromFloat(25000, "IDR"), ZeroMoney("IDR"), "", ""))
				return sale
			},
			method:         PaymentMethodCash,
			amount:         NewMoneyFromFloat(90000, "IDR"),
			expectedStatus: SaleStatusPendingCompletion,
		},
		{
			name:        "Cannot pay an empty sale",
			setupSale:   createTestSale,
			method:      PaymentMethodCash,
			amount:      NewMoneyFromFloat(10000, "IDR"),
			expectError: ErrNoSaleItems,
		},
		{
			name: "Zero payment is rejected",
			setupSale: func(t *testing.T) *Sale {
				sale := createTestSale(t)
				require.NoError(t, sale.AddItem("COF-001", "Coffee Beans 1kg", 1, NewMoneyFromFloat(25000, "IDR"), ZeroMoney("IDR"), "", ""))
				return sale
			},
			method:      PaymentMethodCash,
			amount:      ZeroMoney("IDR"),
			expectError: ErrPaymentNotPositive,
		},
		{
			name: "Cannot pay a cancelled sale",
			setupSale: func(t *testing.T) *Sale {
				sale := createTestSale(t)
				require.NoError(t, sale.AddItem("COF-001", "Coffee Beans 1kg", 1, NewMoneyFromFloat(25000, "IDR"), ZeroMoney("IDR"), "", ""))
				require.NoError(t, sale.Cancel("changed mind", ""))
				return sale
			},
			method:      PaymentMethodCash,
			amount:      NewMoneyFromFloat(30000, "IDR"),
			expectError: nil, // generic status error, asserted below
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sale := tt.setupSale(t)
			err := sale.AddPayment(tt.method, tt.amount, "")

			switch {
			case tt.expectError != nil:
				assert.ErrorIs(t, err, tt.expectError)
			case sale.Status == SaleStatusCancelled:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.expectedStatus, sale.Status)
				assert.Len(t, sale.Payments, 1)
			}
		})
	}
}

// TestSaleChangeCalculation tests change for overpayment
func TestSaleChangeCalculation(t *testing.T) {
	sale := createPaidSale(t)

	// Paid 90000 against 83250
	assert.Equal(t, SaleStatusPendingCompletion, sale.Status)
	assert.InDelta(t, 90000.0, sale.PaidAmount.Float64(), 0.001)
	assert.InDelta(t, 6750.0, sale.ChangeAmount.Float64(), 0.001)
}

// TestSaleSplitPayment tests multiple tenders accumulating
func TestSaleSplitPayment(t *testing.T) {
	sale := createTestSale(t)
	require.NoError(t, sale.AddItem("COF-001", "Coffee Beans 1kg", 3, NewMoneyFromFloat(25000, "IDR"), ZeroMoney("IDR"), "", ""))

	require.NoError(t, sale.AddPayment(PaymentMethodCash, NewMoneyFromFloat(50000, "IDR"), ""))
	assert.Equal(t, SaleStatusDraft, sale.Status)

	require.NoError(t, sale.AddPayment(PaymentMethodQRIS, NewMoneyFromFloat(33250, "IDR"), "QR-REF-1"))
	assert.Equal(t, SaleStatusPendingCompletion, sale.Status)
	assert.Equal(t, int64(0), sale.ChangeAmount.Amount)
	assert.Len(t, sale.Payments, 2)
}

// TestSaleComplete tests finalization and the completed event
func TestSaleComplete(t *testing.T) {
	tests := []struct {
		name        string
		setupSale   func(t *testing.T) *Sale
		expectError error
	}{
		{
			name:      "Complete fully paid sale",
			setupSale: createPaidSale,
		},
		{
			name: "Cannot complete unpaid sale",
			setupSale: func(t *testing.T) *Sale {
				sale := createTestSale(t)
				require.NoError(t, sale.AddItem("COF-001", "Coffee Beans 1kg", 3, NewMoneyFromFloat(25000, "IDR"), ZeroMoney("IDR"), "", ""))
				return sale
			},
			expectError: ErrInsufficientPayment,
		},
		{
			name:        "Cannot complete empty sale",
			setupSale:   createTestSale,
			expectError: ErrNoSaleItems,
		},
		{
			name: "Cannot complete twice",
			setupSale: func(t *testing.T) *Sale {
				sale := createPaidSale(t)
				require.NoError(t, sale.Complete())
				return sale
			},
			expectError: ErrSaleNotCompletable,
		},
		{
			name: "Cannot complete cancelled sale",
			setupSale: func(t *testing.T) *Sale {
				sale := createPaidSale(t)
				require.NoError(t, sale.Cancel("customer left", ""))
				return sale
			},
			expectError: ErrSaleAlreadyCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sale := tt.setupSale(t)
			err := sale.Complete()

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, SaleStatusCompleted, sale.Status)
				require.NotNil(t, sale.CompletedAt)
				assert.Equal(t, testInstant, *sale.CompletedAt)
				assert.True(t, sale.IsReturnable())

				events := sale.DomainEvents()
				require.Len(t, events, 1)
				event, ok := events[0].(*SaleCompletedEvent)
				require.True(t, ok)
				assert.Equal(t, sale.SaleID, event.SaleID)
				assert.Equal(t, sale.TransactionNumber, event.TransactionNumber)
				assert.Len(t, event.Items, 1)
			}
		})
	}
}

// TestSaleCancel tests cancellation and the WasCompleted flag
func TestSaleCancel(t *testing.T) {
	tests := []struct {
		name              string
		setupSale         func(t *testing.T) *Sale
		reason            string
		authorizedBy      string
		expectError       error
		expectedCompleted bool
	}{
		{
			name:      "Cancel draft sale",
			setupSale: createTestSale,
			reason:    "customer left",
		},
		{
			name: "Cancel completed sale carries WasCompleted",
			setupSale: func(t *testing.T) *Sale {
				sale := createPaidSale(t)
				require.NoError(t, sale.Complete())
				sale.ClearDomainEvents()
				return sale
			},
			reason:            "refund at register",
			authorizedBy:      "MGR-07",
			expectedCompleted: true,
		},
		{
			name:        "Reason is required",
			setupSale:   createTestSale,
			reason:      "",
			expectError: ErrCancelReasonRequired,
		},
		{
			name: "Cannot cancel twice",
			setupSale: func(t *testing.T) *Sale {
				sale := createTestSale(t)
				require.NoError(t, sale.Cancel("first", ""))
				return sale
			},
			reason:      "second",
			expectError: ErrSaleAlreadyCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sale := tt.setupSale(t)
			err := sale.Cancel(tt.reason, tt.authorizedBy)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, SaleStatusCancelled, sale.Status)
				assert.Equal(t, tt.reason, sale.CancellationReason)
				assert.Equal(t, tt.authorizedBy, sale.CancelledBy)
				require.NotNil(t, sale.CancelledAt)

				events := sale.DomainEvents()
				require.Len(t, events, 1)
				event, ok := events[0].(*SaleCancelledEvent)
				require.True(t, ok)
				assert.Equal(t, tt.expectedCompleted, event.WasCompleted)
				assert.Equal(t, tt.reason, event.Reason)
				assert.Equal(t, tt.authorizedBy, event.AuthorizedBy)
			}
		})
	}
}

// TestSaleModifyWhilePendingCompletion tests that item edits stay
// legal after payments cover the total and keep change current
func TestSaleModifyWhilePendingCompletion(t *testing.T) {
	sale := createPaidSale(t)
	require.Equal(t, SaleStatusPendingCompletion, sale.Status)
	assert.InDelta(t, 6750.0, sale.ChangeAmount.Float64(), 0.001) // 90000 - 83250

	// Item edits never re-check payment coverage, but change follows the total
	require.NoError(t, sale.AddItem("TEA-002", "Green Tea", 1, NewMoneyFromFloat(10000, "IDR"), ZeroMoney("IDR"), "", ""))
	assert.Equal(t, SaleStatusPendingCompletion, sale.Status)
	assert.InDelta(t, 94350.0, sale.TotalAmount.Float64(), 0.001) // 83250 + 11100
	assert.InDelta(t, 0.0, sale.ChangeAmount.Float64(), 0.001)    // payments no longer cover the total

	require.NoError(t, sale.RemoveItem("TEA-002"))
	assert.InDelta(t, 83250.0, sale.TotalAmount.Float64(), 0.001)
	assert.InDelta(t, 6750.0, sale.ChangeAmount.Float64(), 0.001)
}

// TestSaleVersionTracking tests the persisted-version bookkeeping that
// repositories use for their optimistic concurrency checks
func TestSaleVersionTracking(t *testing.T) {
	sale := createTestSale(t)
	assert.Zero(t, sale.PersistedVersion())

	sale.MarkPersisted()
	assert.Equal(t, sale.Version, sale.PersistedVersion())

	require.NoError(t, sale.AddItem("COF-001", "Coffee Beans 1kg", 1, NewMoneyFromFloat(25000, "IDR"), ZeroMoney("IDR"), "", ""))
	assert.Greater(t, sale.Version, sale.PersistedVersion())

	sale.MarkPersisted()
	assert.Equal(t, sale.Version, sale.PersistedVersion())
}

// TestSaleUpdateItemQuantity tests replacing a line quantity
func TestSaleUpdateItemQuantity(t *testing.T) {
	sale := createTestSale(t)
	require.NoError(t, sale.AddItem("COF-001", "Coffee Beans 1kg", 3, NewMoneyFromFloat(25000, "IDR"), ZeroMoney("IDR"), "", ""))

	require.NoError(t, sale.UpdateItemQuantity("COF-001", 2))
	item, _ := sale.FindItem("COF-001")
	assert.Equal(t, 2, item.Quantity)
	assert.InDelta(t, 55500.0, sale.TotalAmount.Float64(), 0.001) // 2 * 25000 * 1.11

	assert.ErrorIs(t, sale.UpdateItemQuantity("COF-001", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, sale.UpdateItemQuantity("TEA-002", 1), ErrSaleItemNotFound)

	require.NoError(t, sale.AddPayment(PaymentMethodCash, NewMoneyFromFloat(55500, "IDR"), ""))
	require.NoError(t, sale.Complete())
	assert.ErrorIs(t, sale.UpdateItemQuantity("COF-001", 1), ErrSaleNotModifiable)
}

// TestSaleApplyItemDiscount tests setting a line discount after the fact
func TestSaleApplyItemDiscount(t *testing.T) {
	sale := createTestSale(t)
	require.NoError(t, sale.AddItem("TEA-002", "Green Tea", 1, NewMoneyFromFloat(10000, "IDR"), ZeroMoney("IDR"), "", ""))

	require.NoError(t, sale.ApplyItemDiscount("TEA-002", NewMoneyFromFloat(2000, "IDR")))
	item, _ := sale.FindItem("TEA-002")
	assert.InDelta(t, 880.0, item.TaxAmount.Float64(), 0.001) // (10000-2000) * 0.11
	assert.InDelta(t, 8880.0, sale.TotalAmount.Float64(), 0.001)

	assert.ErrorIs(t, sale.ApplyItemDiscount("TEA-002", NewMoney(-100, "IDR")), ErrInvalidDiscount)
	assert.ErrorIs(t, sale.ApplyItemDiscount("COF-001", ZeroMoney("IDR")), ErrSaleItemNotFound)
}

// TestSaleVersionIncrements tests optimistic versioning on mutation
func TestSaleVersionIncrements(t *testing.T) {
	sale := createTestSale(t)
	assert.Equal(t, 1, sale.Version)

	require.NoError(t, sale.AddItem("COF-001", "Coffee Beans 1kg", 1, NewMoneyFromFloat(25000, "IDR"), ZeroMoney("IDR"), "", ""))
	assert.Equal(t, 2, sale.Version)

	require.NoError(t, sale.AddPayment(PaymentMethodCard, NewMoneyFromFloat(30000, "IDR"), "AUTH-1"))
	assert.Equal(t, 3, sale.Version)
}

// BenchmarkRecalculateTotals benchmarks total recalculation
func BenchmarkRecalculateTotals(b *testing.B) {
	clock := FixedClock{Instant: testInstant}
	numbers := NewReceiptNumberGenerator(clock, FixedSequence{Value: 1234})
	sale, _ := NewSale("JKT-01", "T01", "", "", DefaultTaxRate, "IDR", clock, numbers)
	for i := 0; i < 20; i++ {
		sale.AddItem(SKU(string(rune('A'+i))+"-SKU"), "Product", 2, NewMoneyFromFloat(10000, "IDR"), ZeroMoney("IDR"), "", "")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sale.recalculateTotals()
	}
}
