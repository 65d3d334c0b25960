package application

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pos-platform/pos/internal/domain"
	"github.com/pos-platform/pos/pkg/errors"
	"github.com/pos-platform/pos/pkg/logging"
	"github.com/pos-platform/pos/pkg/metrics"
)

type fakeSaleRepo struct {
	sales   map[string]*domain.Sale
	saveErr error
	saves   int
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[string]*domain.Sale)}
}

func (r *fakeSaleRepo) Save(_ context.Context, sale *domain.Sale) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.sales[sale.SaleID] = sale
	return nil
}

func (r *fakeSaleRepo) FindByID(_ context.Context, saleID string) (*domain.Sale, error) {
	return r.sales[saleID], nil
}

func (r *fakeSaleRepo) FindByTransactionNumber(_ context.Context, transactionNumber string) (*domain.Sale, error) {
	for _, sale := range r.sales {
		if sale.TransactionNumber == transactionNumber {
			return sale, nil
		}
	}
	return nil, nil
}

func (r *fakeSaleRepo) FindByStore(_ context.Context, storeID domain.StoreID, status *domain.SaleStatus, _ domain.Pagination) ([]*domain.Sale, error) {
	var out []*domain.Sale
	for _, sale := range r.sales {
		if sale.StoreID != storeID {
			continue
		}
		if status != nil && sale.Status != *status {
			continue
		}
		out = append(out, sale)
	}
	return out, nil
}

func (r *fakeSaleRepo) Count(_ context.Context, filter domain.SaleFilter) (int64, error) {
	var total int64
	for _, sale := range r.sales {
		if filter.StoreID != nil && sale.StoreID != *filter.StoreID {
			continue
		}
		if filter.Status != nil && sale.Status != *filter.Status {
			continue
		}
		total++
	}
	return total, nil
}

func newTestSaleService(repo *fakeSaleRepo) *SaleApplicationService {
	logConfig := logging.DefaultConfig("test")
	logConfig.Output = io.Discard
	logger := logging.New(logConfig)
	m := metrics.New(metrics.DefaultConfig("test"))
	clock := domain.FixedClock{Instant: reconcileInstant}
	numbers := domain.NewReceiptNumberGenerator(clock, domain.FixedSequence{Value: 1234})

	return NewSaleApplicationService(repo, clock, numbers, logger, m)
}

func createDraftSale(t *testing.T, service *SaleApplicationService) *SaleDTO {
	t.Helper()
	dto, err := service.CreateSale(context.Background(), CreateSaleCommand{
		StoreID:    "JKT-01",
		TerminalID: "T01",
	})
	require.NoError(t, err)
	return dto
}

func addCoffee(t *testing.T, service *SaleApplicationService, saleID string, quantity int) *SaleDTO {
	t.Helper()
	dto, err := service.AddItem(context.Background(), AddSaleItemCommand{
		SaleID:    saleID,
		SKU:       "COF-001",
		Name:      "Coffee Beans 1kg",
		Quantity:  quantity,
		UnitPrice: 25000,
	})
	require.NoError(t, err)
	return dto
}

// TestCreateSale tests opening a draft sale through the service
func TestCreateSale(t *testing.T) {
	repo := newFakeSaleRepo()
	service := newTestSaleService(repo)

	dto := createDraftSale(t, service)

	assert.NotEmpty(t, dto.SaleID)
	assert.Equal(t, "JKT-01-T01-20260828120000-1234", dto.TransactionNumber)
	assert.Equal(t, string(domain.SaleStatusDraft), dto.Status)
	assert.Equal(t, domain.DefaultTaxRate, dto.TaxRate)
	assert.Equal(t, domain.DefaultCurrency, dto.Currency)
	assert.Equal(t, 1, repo.saves)
}

// TestCreateSaleValidation tests input validation before the domain is touched
func TestCreateSaleValidation(t *testing.T) {
	repo := newFakeSaleRepo()
	service := newTestSaleService(repo)

	tests := []struct {
		name string
		cmd  CreateSaleCommand
	}{
		{"Empty store", CreateSaleCommand{StoreID: "", TerminalID: "T01"}},
		{"Malformed store", CreateSaleCommand{StoreID: "J", TerminalID: "T01"}},
		{"Empty terminal", CreateSaleCommand{StoreID: "JKT-01", TerminalID: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dto, err := service.CreateSale(context.Background(), tt.cmd)
			assert.Nil(t, dto)

			appErr, ok := errors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, errors.CodeValidationError, appErr.Code)
		})
	}

	assert.Equal(t, 0, repo.saves)
}

// TestAddItemThroughService tests the add-item use case end to end
func TestAddItemThroughService(t *testing.T) {
	repo := newFakeSaleRepo()
	service := newTestSaleService(repo)

	sale := createDraftSale(t, service)
	dto := addCoffee(t, service, sale.SaleID, 3)

	require.Len(t, dto.Items, 1)
	assert.Equal(t, "COF-001", dto.Items[0].SKU)
	assert.InDelta(t, 75000.0, dto.SubTotal, 0.001)
	assert.InDelta(t, 8250.0, dto.TaxAmount, 0.001)
	assert.InDelta(t, 83250.0, dto.TotalAmount, 0.001)

	// Same SKU merges into the existing line
	merged := addCoffee(t, service, sale.SaleID, 2)
	require.Len(t, merged.Items, 1)
	assert.Equal(t, 5, merged.Items[0].Quantity)
}

// TestAddItemSaleNotFound tests the not-found path
func TestAddItemSaleNotFound(t *testing.T) {
	service := newTestSaleService(newFakeSaleRepo())

	dto, err := service.AddItem(context.Background(), AddSaleItemCommand{
		SaleID:    "missing",
		SKU:       "COF-001",
		Name:      "Coffee Beans 1kg",
		Quantity:  1,
		UnitPrice: 25000,
	})

	assert.Nil(t, dto)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeNotFound, appErr.Code)
	assert.Equal(t, "missing", appErr.Details["id"])
}

// TestUpdateItemQuantityThroughService tests the quantity override use case
func TestUpdateItemQuantityThroughService(t *testing.T) {
	repo := newFakeSaleRepo()
	service := newTestSaleService(repo)
	ctx := context.Background()

	sale := createDraftSale(t, service)
	addCoffee(t, service, sale.SaleID, 3)

	dto, err := service.UpdateItemQuantity(ctx, UpdateSaleItemCommand{
		SaleID:   sale.SaleID,
		SKU:      "COF-001",
		Quantity: 2,
	})
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, 2, dto.Items[0].Quantity)
	assert.InDelta(t, 55500.0, dto.TotalAmount, 0.001)

	// Unknown line maps to not found
	_, err = service.UpdateItemQuantity(ctx, UpdateSaleItemCommand{
		SaleID:   sale.SaleID,
		SKU:      "TEA-002",
		Quantity: 1,
	})
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeNotFound, appErr.Code)
}

// TestCompleteSaleThroughService tests payment and completion
func TestCompleteSaleThroughService(t *testing.T) {
	repo := newFakeSaleRepo()
	service := newTestSaleService(repo)
	ctx := context.Background()

	sale := createDraftSale(t, service)
	addCoffee(t, service, sale.SaleID, 3)

	paid, err := service.AddPayment(ctx, AddPaymentCommand{
		SaleID: sale.SaleID,
		Method: string(domain.PaymentMethodCash),
		Amount: 90000,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.SaleStatusPendingCompletion), paid.Status)

	completed, err := service.CompleteSale(ctx, CompleteSaleCommand{SaleID: sale.SaleID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.SaleStatusCompleted), completed.Status)
	assert.InDelta(t, 6750.0, completed.ChangeAmount, 0.001)
	require.NotNil(t, completed.CompletedAt)
}

// TestCompleteSaleUnderpaid tests that completion maps to a conflict
func TestCompleteSaleUnderpaid(t *testing.T) {
	repo := newFakeSaleRepo()
	service := newTestSaleService(repo)
	ctx := context.Background()

	sale := createDraftSale(t, service)
	addCoffee(t, service, sale.SaleID, 3)

	dto, err := service.CompleteSale(ctx, CompleteSaleCommand{SaleID: sale.SaleID})
	assert.Nil(t, dto)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeConflict, appErr.Code)
}

// TestCancelSaleThroughService tests cancellation with a reason
func TestCancelSaleThroughService(t *testing.T) {
	repo := newFakeSaleRepo()
	service := newTestSaleService(repo)
	ctx := context.Background()

	sale := createDraftSale(t, service)
	addCoffee(t, service, sale.SaleID, 1)

	cancelled, err := service.CancelSale(ctx, CancelSaleCommand{
		SaleID: sale.SaleID,
		Reason: "customer walked away",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.SaleStatusCancelled), cancelled.Status)
	assert.Equal(t, "customer walked away", cancelled.CancellationReason)

	// Second cancel maps to conflict
	_, err = service.CancelSale(ctx, CancelSaleCommand{SaleID: sale.SaleID, Reason: "again"})
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeConflict, appErr.Code)
}

// TestListSales tests store listing with a status filter
func TestListSales(t *testing.T) {
	repo := newFakeSaleRepo()
	service := newTestSaleService(repo)
	ctx := context.Background()

	first := createDraftSale(t, service)
	createDraftSale(t, service)

	addCoffee(t, service, first.SaleID, 1)
	_, err := service.CancelSale(ctx, CancelSaleCommand{SaleID: first.SaleID, Reason: "void"})
	require.NoError(t, err)

	all, err := service.ListSales(ctx, ListSalesQuery{StoreID: "JKT-01"})
	require.NoError(t, err)
	assert.Len(t, all.Data, 2)
	assert.Equal(t, int64(2), all.TotalItems)
	assert.Equal(t, int64(1), all.Page)
	assert.Equal(t, int64(20), all.PageSize)

	cancelled, err := service.ListSales(ctx, ListSalesQuery{
		StoreID: "JKT-01",
		Status:  string(domain.SaleStatusCancelled),
	})
	require.NoError(t, err)
	assert.Len(t, cancelled.Data, 1)
	assert.Equal(t, int64(1), cancelled.TotalItems)
}
