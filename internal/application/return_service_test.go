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

type fakeReturnRepo struct {
	returns map[string]*domain.Return
	saveErr error
}

func newFakeReturnRepo() *fakeReturnRepo {
	return &fakeReturnRepo{returns: make(map[string]*domain.Return)}
}

func (r *fakeReturnRepo) Save(_ context.Context, ret *domain.Return) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.returns[ret.ReturnID] = ret
	return nil
}

func (r *fakeReturnRepo) FindByID(_ context.Context, returnID string) (*domain.Return, error) {
	return r.returns[returnID], nil
}

func (r *fakeReturnRepo) FindBySaleID(_ context.Context, saleID string) ([]*domain.Return, error) {
	var out []*domain.Return
	for _, ret := range r.returns {
		if ret.OriginalSaleID == saleID {
			out = append(out, ret)
		}
	}
	return out, nil
}

func (r *fakeReturnRepo) FindByStore(_ context.Context, storeID domain.StoreID, _ domain.Pagination) ([]*domain.Return, error) {
	var out []*domain.Return
	for _, ret := range r.returns {
		if ret.StoreID == storeID {
			out = append(out, ret)
		}
	}
	return out, nil
}

type returnServiceFixture struct {
	service    *ReturnApplicationService
	saleRepo   *fakeSaleRepo
	returnRepo *fakeReturnRepo
	saleID     string
}

// newReturnServiceFixture seeds a completed sale of 3 COF-001 units
func newReturnServiceFixture(t *testing.T) *returnServiceFixture {
	t.Helper()

	saleRepo := newFakeSaleRepo()
	saleService := newTestSaleService(saleRepo)
	ctx := context.Background()

	sale := createDraftSale(t, saleService)
	addCoffee(t, saleService, sale.SaleID, 3)
	_, err := saleService.AddPayment(ctx, AddPaymentCommand{
		SaleID: sale.SaleID,
		Method: string(domain.PaymentMethodCash),
		Amount: 90000,
	})
	require.NoError(t, err)
	_, err = saleService.CompleteSale(ctx, CompleteSaleCommand{SaleID: sale.SaleID})
	require.NoError(t, err)

	returnRepo := newFakeReturnRepo()
	logConfig := logging.DefaultConfig("test")
	logConfig.Output = io.Discard
	logger := logging.New(logConfig)
	m := metrics.New(metrics.DefaultConfig("test"))
	clock := domain.FixedClock{Instant: reconcileInstant}
	numbers := domain.NewReceiptNumberGenerator(clock, domain.FixedSequence{Value: 5678})
	service := NewReturnApplicationService(returnRepo, saleRepo, clock, numbers, logger, m)

	return &returnServiceFixture{
		service:    service,
		saleRepo:   saleRepo,
		returnRepo: returnRepo,
		saleID:     sale.SaleID,
	}
}

// TestCreateReturnThroughService tests return creation against a completed sale
func TestCreateReturnThroughService(t *testing.T) {
	f := newReturnServiceFixture(t)

	dto, err := f.service.CreateReturn(context.Background(), CreateReturnCommand{
		SaleID: f.saleID,
		Reason: "wrong grind",
		Items: []ReturnItemCommand{
			{SKU: "COF-001", Quantity: 2, Condition: string(domain.ConditionNew)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "RTN-JKT-01-20260828120000-5678", dto.ReturnNumber)
	assert.Equal(t, f.saleID, dto.OriginalSaleID)
	assert.Equal(t, string(domain.ReturnStatusPending), dto.Status)
	require.Len(t, dto.Items, 1)
	assert.True(t, dto.Items[0].RestockRequired)
	assert.InDelta(t, 55500.0, dto.TotalRefund, 0.001)
}

// TestCreateReturnUnknownSale tests the not-found path
func TestCreateReturnUnknownSale(t *testing.T) {
	f := newReturnServiceFixture(t)

	dto, err := f.service.CreateReturn(context.Background(), CreateReturnCommand{
		SaleID: "missing",
		Reason: "wrong grind",
		Items:  []ReturnItemCommand{{SKU: "COF-001", Quantity: 1, Condition: "new"}},
	})

	assert.Nil(t, dto)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeNotFound, appErr.Code)
}

// TestCreateReturnItemNotOnSale tests rejecting SKUs the sale never sold
func TestCreateReturnItemNotOnSale(t *testing.T) {
	f := newReturnServiceFixture(t)

	_, err := f.service.CreateReturn(context.Background(), CreateReturnCommand{
		SaleID: f.saleID,
		Reason: "wrong grind",
		Items:  []ReturnItemCommand{{SKU: "TEA-002", Quantity: 1, Condition: "new"}},
	})

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeValidationError, appErr.Code)
}

// TestCreateReturnHonorsPriorReturns tests the cumulative cap across
// separate return documents
func TestCreateReturnHonorsPriorReturns(t *testing.T) {
	f := newReturnServiceFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateReturn(ctx, CreateReturnCommand{
		SaleID: f.saleID,
		Reason: "wrong grind",
		Items:  []ReturnItemCommand{{SKU: "COF-001", Quantity: 2, Condition: "new"}},
	})
	require.NoError(t, err)

	// Only one unit of three remains claimable
	_, err = f.service.CreateReturn(ctx, CreateReturnCommand{
		SaleID: f.saleID,
		Reason: "changed mind",
		Items:  []ReturnItemCommand{{SKU: "COF-001", Quantity: 2, Condition: "new"}},
	})
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeValidationError, appErr.Code)

	dto, err := f.service.CreateReturn(ctx, CreateReturnCommand{
		SaleID: f.saleID,
		Reason: "changed mind",
		Items:  []ReturnItemCommand{{SKU: "COF-001", Quantity: 1, Condition: "new"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, dto.Items[0].Quantity)
}

// TestCreateReturnIgnoresCancelledReturns tests that cancelled returns
// release their claimed quantities
func TestCreateReturnIgnoresCancelledReturns(t *testing.T) {
	f := newReturnServiceFixture(t)
	ctx := context.Background()

	first, err := f.service.CreateReturn(ctx, CreateReturnCommand{
		SaleID: f.saleID,
		Reason: "wrong grind",
		Items:  []ReturnItemCommand{{SKU: "COF-001", Quantity: 3, Condition: "new"}},
	})
	require.NoError(t, err)

	_, err = f.service.CancelReturn(ctx, CancelReturnCommand{ReturnID: first.ReturnID})
	require.NoError(t, err)

	dto, err := f.service.CreateReturn(ctx, CreateReturnCommand{
		SaleID: f.saleID,
		Reason: "second attempt",
		Items:  []ReturnItemCommand{{SKU: "COF-001", Quantity: 3, Condition: "opened"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, dto.Items[0].Quantity)
}

// TestAddReturnItemThroughService tests amending a pending return
func TestAddReturnItemThroughService(t *testing.T) {
	f := newReturnServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateReturn(ctx, CreateReturnCommand{
		SaleID: f.saleID,
		Reason: "wrong grind",
		Items:  []ReturnItemCommand{{SKU: "COF-001", Quantity: 1, Condition: "new"}},
	})
	require.NoError(t, err)

	dto, err := f.service.AddItem(ctx, AddReturnItemCommand{
		ReturnID:  created.ReturnID,
		SKU:       "COF-001",
		Quantity:  2,
		Condition: "opened",
	})
	require.NoError(t, err)
	require.Len(t, dto.Items, 2)
	assert.InDelta(t, 83250.0, dto.TotalRefund, 0.001)

	// All three sold units are now claimed
	_, err = f.service.AddItem(ctx, AddReturnItemCommand{
		ReturnID:  created.ReturnID,
		SKU:       "COF-001",
		Quantity:  1,
		Condition: "new",
	})
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeValidationError, appErr.Code)
}

// TestProcessReturnThroughService tests finalization
func TestProcessReturnThroughService(t *testing.T) {
	f := newReturnServiceFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateReturn(ctx, CreateReturnCommand{
		SaleID: f.saleID,
		Reason: "wrong grind",
		Items:  []ReturnItemCommand{{SKU: "COF-001", Quantity: 1, Condition: "damaged"}},
	})
	require.NoError(t, err)
	assert.False(t, created.Items[0].RestockRequired)

	processed, err := f.service.ProcessReturn(ctx, ProcessReturnCommand{ReturnID: created.ReturnID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReturnStatusProcessed), processed.Status)
	require.NotNil(t, processed.ProcessedAt)

	// Processing twice maps to conflict
	_, err = f.service.ProcessReturn(ctx, ProcessReturnCommand{ReturnID: created.ReturnID})
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeConflict, appErr.Code)
}

// TestListReturns tests store listing
func TestListReturns(t *testing.T) {
	f := newReturnServiceFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateReturn(ctx, CreateReturnCommand{
		SaleID: f.saleID,
		Reason: "wrong grind",
		Items:  []ReturnItemCommand{{SKU: "COF-001", Quantity: 1, Condition: "new"}},
	})
	require.NoError(t, err)

	page, err := f.service.ListReturns(ctx, ListReturnsQuery{StoreID: "JKT-01"})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)

	_, err = f.service.ListReturns(ctx, ListReturnsQuery{StoreID: "x"})
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeValidationError, appErr.Code)
}
