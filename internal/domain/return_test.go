package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createCompletedSale(t *testing.T) *Sale {
	t.Helper()
	sale := createPaidSale(t)
	require.NoError(t, sale.Complete())
	sale.ClearDomainEvents()
	return sale
}

func createTestReturn(t *testing.T) (*Return, *Sale) {
	t.Helper()
	sale := createCompletedSale(t)
	clock := FixedClock{Instant: testInstant}
	numbers := NewReceiptNumberGenerator(clock, FixedSequence{Value: 5678})

	ret, err := NewReturn(sale, "wrong size", clock, numbers)
	require.NoError(t, err)
	return ret, sale
}

// TestNewReturn tests return creation rules
func TestNewReturn(t *testing.T) {
	tests := []struct {
		name        string
		setupSale   func(t *testing.T) *Sale
		reason      string
		expectError error
	}{
		{
			name:      "Return against completed sale",
			setupSale: createCompletedSale,
			reason:    "wrong size",
		},
		{
			name:        "Cannot return a draft sale",
			setupSale:   createTestSale,
			reason:      "wrong size",
			expectError: ErrSaleNotReturnable,
		},
		{
			name: "Cannot return a cancelled sale",
			setupSale: func(t *testing.T) *Sale {
				sale := createPaidSale(t)
				require.NoError(t, sale.Cancel("void", ""))
				return sale
			},
			reason:      "wrong size",
			expectError: ErrSaleNotReturnable,
		},
		{
			name:        "Reason is required",
			setupSale:   createCompletedSale,
			reason:      "",
			expectError: ErrReturnReasonRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sale := tt.setupSale(t)
			clock := FixedClock{Instant: testInstant}
			numbers := NewReceiptNumberGenerator(clock, FixedSequence{Value: 5678})
			ret, err := NewReturn(sale, tt.reason, clock, numbers)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, ret)
			} else {
				require.NoError(t, err)
				require.NotNil(t, ret)
				assert.Equal(t, ReturnStatusPending, ret.Status)
				assert.Equal(t, sale.SaleID, ret.OriginalSaleID)
				assert.Equal(t, sale.TransactionNumber, ret.OriginalTransactionNumber)
				assert.Equal(t, sale.StoreID, ret.StoreID)
				assert.Equal(t, sale.CashierID, ret.CashierID)
				assert.Equal(t, "RTN-JKT-01-20260828100000-5678", ret.ReturnNumber)
				assert.Empty(t, ret.Items)
			}
		})
	}
}

// TestReturnAddItem tests per-line validation and the quantity cap
func TestReturnAddItem(t *testing.T) {
	tests := []struct {
		name            string
		quantity        int
		condition       ItemCondition
		alreadyReturned int
		expectError     error
	}{
		{
			name:      "Return one of three units",
			quantity:  1,
			condition: ConditionNew,
		},
		{
			name:      "Return everything",
			quantity:  3,
			condition: ConditionOpened,
		},
		{
			name:        "Cannot exceed sold quantity",
			quantity:    4,
			condition:   ConditionNew,
			expectError: ErrReturnQuantityExceeded,
		},
		{
			name:            "Prior returns count against the cap",
			quantity:        2,
			condition:       ConditionNew,
			alreadyReturned: 2,
			expectError:     ErrReturnQuantityExceeded,
		},
		{
			name:        "Zero quantity is rejected",
			quantity:    0,
			condition:   ConditionNew,
			expectError: ErrInvalidQuantity,
		},
		{
			name:        "Unknown condition is rejected",
			quantity:    1,
			condition:   ItemCondition("soggy"),
			expectError: ErrInvalidCondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ret, sale := createTestReturn(t)
			original, found := sale.FindItem("COF-001")
			require.True(t, found)

			err := ret.AddItem(*original, tt.quantity, tt.condition, tt.alreadyReturned)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				require.NoError(t, err)
				require.Len(t, ret.Items, 1)
				assert.Equal(t, tt.quantity, ret.ReturnedQuantity("COF-001"))
				assert.Equal(t, tt.condition.Restockable(), ret.Items[0].RestockRequired)
			}
		})
	}
}

// TestReturnProportionalRefund tests that refunds track the gross line total
func TestReturnProportionalRefund(t *testing.T) {
	ret, sale := createTestReturn(t)
	original, _ := sale.FindItem("COF-001")

	// Line gross total is 83250 for 3 units: 27750 per unit
	require.NoError(t, ret.AddItem(*original, 2, ConditionNew, 0))

	item := ret.Items[0]
	assert.InDelta(t, 27750.0, item.RefundPerUnit.Float64(), 0.001)
	assert.InDelta(t, 55500.0, item.RefundAmount.Float64(), 0.001)
	assert.InDelta(t, 55500.0, ret.TotalRefund.Float64(), 0.001)
}

// TestReturnCumulativeCapAcrossLines tests the cap counting lines already
// pending in the same return
func TestReturnCumulativeCapAcrossLines(t *testing.T) {
	ret, sale := createTestReturn(t)
	original, _ := sale.FindItem("COF-001")

	require.NoError(t, ret.AddItem(*original, 2, ConditionNew, 0))

	err := ret.AddItem(*original, 2, ConditionDamaged, 0)
	assert.ErrorIs(t, err, ErrReturnQuantityExceeded)

	require.NoError(t, ret.AddItem(*original, 1, ConditionDamaged, 0))
	assert.Equal(t, 3, ret.ReturnedQuantity("COF-001"))
}

// TestReturnProcess tests finalization and the created event
func TestReturnProcess(t *testing.T) {
	tests := []struct {
		name         string
		setupReturn  func(t *testing.T) *Return
		refundMethod PaymentMethod
		expectMethod PaymentMethod
		expectError  error
	}{
		{
			name: "Process pending return with items",
			setupReturn: func(t *testing.T) *Return {
				ret, sale := createTestReturn(t)
				original, _ := sale.FindItem("COF-001")
				require.NoError(t, ret.AddItem(*original, 1, ConditionNew, 0))
				return ret
			},
			refundMethod: PaymentMethodCard,
			expectMethod: PaymentMethodCard,
		},
		{
			name: "Empty refund method defaults to cash",
			setupReturn: func(t *testing.T) *Return {
				ret, sale := createTestReturn(t)
				original, _ := sale.FindItem("COF-001")
				require.NoError(t, ret.AddItem(*original, 1, ConditionNew, 0))
				return ret
			},
			expectMethod: PaymentMethodCash,
		},
		{
			name: "Cannot process empty return",
			setupReturn: func(t *testing.T) *Return {
				ret, _ := createTestReturn(t)
				return ret
			},
			expectError: ErrNoReturnItems,
		},
		{
			name: "Cannot process twice",
			setupReturn: func(t *testing.T) *Return {
				ret, sale := createTestReturn(t)
				original, _ := sale.FindItem("COF-001")
				require.NoError(t, ret.AddItem(*original, 1, ConditionNew, 0))
				require.NoError(t, ret.Process(PaymentMethodCash))
				return ret
			},
			expectError: ErrReturnAlreadyProcessed,
		},
		{
			name: "Cannot process cancelled return",
			setupReturn: func(t *testing.T) *Return {
				ret, _ := createTestReturn(t)
				require.NoError(t, ret.Cancel("changed mind"))
				return ret
			},
			expectError: ErrReturnNotPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ret := tt.setupReturn(t)
			err := ret.Process(tt.refundMethod)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, ReturnStatusProcessed, ret.Status)
				assert.Equal(t, tt.expectMethod, ret.RefundMethod)
				require.NotNil(t, ret.ProcessedAt)

				events := ret.DomainEvents()
				require.Len(t, events, 1)
				event, ok := events[0].(*ReturnCreatedEvent)
				require.True(t, ok)
				assert.Equal(t, ret.ReturnID, event.ReturnID)
				assert.Equal(t, ret.OriginalSaleID, event.OriginalSaleID)
				assert.Len(t, event.Items, 1)
			}
		})
	}
}

// TestReturnCancel tests cancellation rules
func TestReturnCancel(t *testing.T) {
	ret, sale := createTestReturn(t)

	require.NoError(t, ret.Cancel("customer kept the item"))
	assert.Equal(t, ReturnStatusCancelled, ret.Status)
	assert.Equal(t, "customer kept the item", ret.CancellationReason)
	require.NotNil(t, ret.CancelledAt)

	// Cancelling again is a no-op
	require.NoError(t, ret.Cancel("again"))

	// Processed returns cannot be cancelled
	processed, _ := createTestReturn(t)
	original, _ := sale.FindItem("COF-001")
	require.NoError(t, processed.AddItem(*original, 1, ConditionNew, 0))
	require.NoError(t, processed.Process(PaymentMethodCash))
	assert.ErrorIs(t, processed.Cancel(""), ErrReturnAlreadyProcessed)
}

// TestItemConditionRestockable tests the restock decision per condition
func TestItemConditionRestockable(t *testing.T) {
	assert.True(t, ConditionNew.Restockable())
	assert.True(t, ConditionOpened.Restockable())
	assert.False(t, ConditionDamaged.Restockable())
	assert.False(t, ConditionDefective.Restockable())
	assert.False(t, ItemCondition("soggy").IsValid())
}
