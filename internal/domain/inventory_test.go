package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestInventory(t *testing.T, onHand int) *Inventory {
	t.Helper()
	inv := NewInventory("COF-001", "JKT-01", "", FixedClock{Instant: testInstant})
	if onHand > 0 {
		require.NoError(t, inv.AddStock(onHand))
	}
	return inv
}

// TestNewInventory tests inventory record creation
func TestNewInventory(t *testing.T) {
	inv := NewInventory("COF-001", "JKT-01", "", FixedClock{Instant: testInstant})

	assert.NotEmpty(t, inv.InventoryID)
	assert.Equal(t, SKU("COF-001"), inv.SKU)
	assert.Equal(t, StoreID("JKT-01"), inv.StoreID)
	assert.Equal(t, DefaultWarehouseID, inv.WarehouseID)
	assert.Equal(t, 0, inv.QuantityOnHand)
	assert.Equal(t, 0, inv.QuantityReserved)
	assert.Equal(t, DefaultReorderPoint, inv.ReorderPoint)
	assert.Equal(t, DefaultReorderQuantity, inv.ReorderQuantity)
	assert.True(t, inv.IsLowStock())

	named := NewInventory("COF-001", "JKT-01", "BACKROOM", FixedClock{Instant: testInstant})
	assert.Equal(t, "BACKROOM", named.WarehouseID)
}

// TestInventoryAddStock tests stock additions
func TestInventoryAddStock(t *testing.T) {
	inv := createTestInventory(t, 0)

	require.NoError(t, inv.AddStock(100))
	assert.Equal(t, 100, inv.QuantityOnHand)
	assert.Equal(t, 100, inv.QuantityAvailable())

	assert.ErrorIs(t, inv.AddStock(0), ErrInvalidStockQuantity)
	assert.ErrorIs(t, inv.AddStock(-5), ErrInvalidStockQuantity)
}

// TestInventoryDeductStock tests deductions and the never-negative invariant
func TestInventoryDeductStock(t *testing.T) {
	tests := []struct {
		name           string
		onHand         int
		reserved       int
		deduct         int
		expectError    error
		expectedOnHand int
	}{
		{
			name:           "Deduct within available stock",
			onHand:         100,
			deduct:         30,
			expectedOnHand: 70,
		},
		{
			name:           "Deduct exactly available stock",
			onHand:         50,
			deduct:         50,
			expectedOnHand: 0,
		},
		{
			name:        "Deduct beyond available is rejected",
			onHand:      10,
			deduct:      11,
			expectError: ErrInsufficientStock,
		},
		{
			name:        "Reservations reduce what can be deducted",
			onHand:      50,
			reserved:    45,
			deduct:      10,
			expectError: ErrInsufficientStock,
		},
		{
			name:        "Zero quantity is rejected",
			onHand:      100,
			deduct:      0,
			expectError: ErrInvalidStockQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := createTestInventory(t, tt.onHand)
			if tt.reserved > 0 {
				require.NoError(t, inv.ReserveStock(tt.reserved))
			}

			err := inv.DeductStock(tt.deduct)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				// Failed deduction must not mutate stock
				assert.Equal(t, tt.onHand, inv.QuantityOnHand)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedOnHand, inv.QuantityOnHand)
			}
		})
	}
}

// TestInventoryLowStockAlert tests the crossing-threshold alert event
func TestInventoryLowStockAlert(t *testing.T) {
	inv := createTestInventory(t, 15)

	// 15 -> 12: still above the reorder point of 10, no event
	require.NoError(t, inv.DeductStock(3))
	assert.Empty(t, inv.DomainEvents())

	// 12 -> 9: crosses the threshold, one alert
	require.NoError(t, inv.DeductStock(3))
	events := inv.DomainEvents()
	require.Len(t, events, 1)
	event, ok := events[0].(*LowStockAlertEvent)
	require.True(t, ok)
	assert.Equal(t, "COF-001", event.SKU)
	assert.Equal(t, 9, event.QuantityAvailable)
	assert.Equal(t, DefaultReorderPoint, event.ReorderPoint)

	// Already low: further deductions do not re-alert
	inv.ClearDomainEvents()
	require.NoError(t, inv.DeductStock(3))
	assert.Empty(t, inv.DomainEvents())
}

// TestInventoryReservations tests reserve and release behavior
func TestInventoryReservations(t *testing.T) {
	inv := createTestInventory(t, 100)

	require.NoError(t, inv.ReserveStock(40))
	assert.Equal(t, 40, inv.QuantityReserved)
	assert.Equal(t, 60, inv.QuantityAvailable())

	// Reserved never exceeds on-hand
	err := inv.ReserveStock(70)
	assert.ErrorIs(t, err, ErrReservationExceedsHand)

	require.NoError(t, inv.ReleaseReservation(30))
	assert.Equal(t, 10, inv.QuantityReserved)

	// Releasing more than held clamps at zero
	require.NoError(t, inv.ReleaseReservation(50))
	assert.Equal(t, 0, inv.QuantityReserved)

	assert.ErrorIs(t, inv.ReleaseReservation(0), ErrInvalidStockQuantity)
}

// TestInventoryAdjustStock tests absolute adjustments
func TestInventoryAdjustStock(t *testing.T) {
	tests := []struct {
		name        string
		onHand      int
		reserved    int
		newQuantity int
		expectError error
	}{
		{
			name:        "Adjust up",
			onHand:      10,
			newQuantity: 25,
		},
		{
			name:        "Adjust down to zero",
			onHand:      10,
			newQuantity: 0,
		},
		{
			name:        "Negative level is rejected",
			onHand:      10,
			newQuantity: -1,
			expectError: ErrNegativeStockLevel,
		},
		{
			name:        "Cannot adjust below reserved",
			onHand:      20,
			reserved:    15,
			newQuantity: 10,
			expectError: ErrAdjustBelowReserved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := createTestInventory(t, tt.onHand)
			if tt.reserved > 0 {
				require.NoError(t, inv.ReserveStock(tt.reserved))
			}
			inv.ClearDomainEvents()

			err := inv.AdjustStock(tt.newQuantity, "cycle count")

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Equal(t, tt.onHand, inv.QuantityOnHand)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.newQuantity, inv.QuantityOnHand)

				events := inv.DomainEvents()
				require.Len(t, events, 1)
				event, ok := events[0].(*InventoryAdjustedEvent)
				require.True(t, ok)
				assert.Equal(t, tt.onHand, event.QuantityBefore)
				assert.Equal(t, tt.newQuantity, event.QuantityAfter)
				assert.Equal(t, "cycle count", event.Reason)
			}
		})
	}
}

// TestNewInventoryTransaction tests ledger entry derivation
func TestNewInventoryTransaction(t *testing.T) {
	inv := createTestInventory(t, 100)

	tests := []struct {
		name          string
		txType        TransactionType
		quantity      int
		before        int
		expectedAfter int
		expectError   error
	}{
		{
			name:          "Deduction subtracts",
			txType:        TransactionDeduction,
			quantity:      30,
			before:        100,
			expectedAfter: 70,
		},
		{
			name:          "Addition adds",
			txType:        TransactionAddition,
			quantity:      20,
			before:        100,
			expectedAfter: 120,
		},
		{
			name:        "Unknown type is rejected",
			txType:      TransactionType("teleport"),
			quantity:    1,
			before:      100,
			expectError: ErrUnknownTransactionType,
		},
		{
			name:        "Zero quantity is rejected",
			txType:      TransactionAddition,
			quantity:    0,
			before:      100,
			expectError: ErrInvalidStockQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := NewInventoryTransaction(inv, tt.txType, tt.quantity, tt.before,
				ReferenceTypeSale, "sale-1", "event-1", "", testInstant)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedAfter, tx.QuantityAfter)
				assert.Equal(t, inv.SKU, tx.SKU)
				assert.Equal(t, inv.StoreID, tx.StoreID)
				assert.Equal(t, "sale-1", tx.ReferenceID)
				assert.Equal(t, "event-1", tx.SourceEventID)
				assert.Equal(t, testInstant, tx.CreatedAt)
			}
		})
	}
}

// TestNewAdjustmentTransaction tests absolute adjustment ledger entries
func TestNewAdjustmentTransaction(t *testing.T) {
	inv := createTestInventory(t, 10)

	tx := NewAdjustmentTransaction(inv, 10, 25, "cycle count", testInstant)
	assert.Equal(t, TransactionAdjustment, tx.Type)
	assert.Equal(t, 15, tx.Quantity)
	assert.Equal(t, 10, tx.QuantityBefore)
	assert.Equal(t, 25, tx.QuantityAfter)

	down := NewAdjustmentTransaction(inv, 25, 10, "shrinkage", testInstant)
	assert.Equal(t, 15, down.Quantity)
	assert.Equal(t, 10, down.QuantityAfter)
}
