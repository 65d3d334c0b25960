package application

import (
	"context"
	"fmt"

	"github.com/pos-platform/pos/internal/domain"
	"github.com/pos-platform/pos/pkg/errors"
	"github.com/pos-platform/pos/pkg/logging"
	"github.com/pos-platform/pos/pkg/metrics"
)

// ReturnApplicationService handles return/refund use cases
type ReturnApplicationService struct {
	returnRepo domain.ReturnRepository
	saleRepo   domain.SaleRepository
	clock      domain.Clock
	numbers    *domain.ReceiptNumberGenerator
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// NewReturnApplicationService creates a new ReturnApplicationService
func NewReturnApplicationService(
	returnRepo domain.ReturnRepository,
	saleRepo domain.SaleRepository,
	clock domain.Clock,
	numbers *domain.ReceiptNumberGenerator,
	logger *logging.Logger,
	m *metrics.Metrics,
) *ReturnApplicationService {
	if clock == nil {
		clock = domain.SystemClock()
	}
	if numbers == nil {
		numbers = domain.NewReceiptNumberGenerator(clock, nil)
	}
	return &ReturnApplicationService{
		returnRepo: returnRepo,
		saleRepo:   saleRepo,
		clock:      clock,
		numbers:    numbers,
		logger:     logger,
		metrics:    m,
	}
}

// CreateReturn opens a return against a completed sale. Quantities are
// capped by what the original sale sold minus what prior returns
// already claimed.
func (s *ReturnApplicationService) CreateReturn(ctx context.Context, cmd CreateReturnCommand) (*ReturnDTO, error) {
	sale, err := s.saleRepo.FindByID(ctx, cmd.SaleID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get sale", "saleId", cmd.SaleID)
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	if sale == nil {
		return nil, errors.ErrNotFoundWithID("sale", cmd.SaleID)
	}

	ret, err := domain.NewReturn(sale, cmd.Reason, s.clock, s.numbers)
	if err != nil {
		return nil, errors.MapDomainError(err)
	}

	alreadyReturned, err := s.returnedQuantities(ctx, cmd.SaleID, ret.ReturnID)
	if err != nil {
		return nil, err
	}

	for _, item := range cmd.Items {
		sku, err := domain.NewSKU(item.SKU)
		if err != nil {
			return nil, errors.ErrValidation(err.Error())
		}

		original, ok := sale.FindItem(sku)
		if !ok {
			return nil, errors.ErrValidation(fmt.Sprintf("item %s was not part of the original sale", sku))
		}

		if err := ret.AddItem(*original, item.Quantity, domain.ItemCondition(item.Condition), alreadyReturned[sku]); err != nil {
			return nil, errors.MapDomainError(err)
		}
	}

	if err := s.returnRepo.Save(ctx, ret); err != nil {
		s.logger.WithError(err).Error("Failed to save return", "returnId", ret.ReturnID)
		return nil, fmt.Errorf("failed to save return: %w", err)
	}

	s.logger.Info("Return created",
		"returnId", ret.ReturnID,
		"returnNumber", ret.ReturnNumber,
		"saleId", cmd.SaleID,
		"totalRefund", ret.TotalRefund.Float64(),
	)

	return ToReturnDTO(ret), nil
}

// AddItem adds a line to a pending return, honoring the cumulative
// per-SKU cap across all non-cancelled returns for the sale
func (s *ReturnApplicationService) AddItem(ctx context.Context, cmd AddReturnItemCommand) (*ReturnDTO, error) {
	ret, err := s.loadReturn(ctx, cmd.ReturnID)
	if err != nil {
		return nil, err
	}

	sale, err := s.saleRepo.FindByID(ctx, ret.OriginalSaleID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get sale", "saleId", ret.OriginalSaleID)
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	if sale == nil {
		return nil, errors.ErrNotFoundWithID("sale", ret.OriginalSaleID)
	}

	sku, err := domain.NewSKU(cmd.SKU)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	original, ok := sale.FindItem(sku)
	if !ok {
		return nil, errors.ErrValidation(fmt.Sprintf("item %s was not part of the original sale", sku))
	}

	alreadyReturned, err := s.returnedQuantities(ctx, ret.OriginalSaleID, ret.ReturnID)
	if err != nil {
		return nil, err
	}

	if err := ret.AddItem(*original, cmd.Quantity, domain.ItemCondition(cmd.Condition), alreadyReturned[sku]); err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.returnRepo.Save(ctx, ret); err != nil {
		s.logger.WithError(err).Error("Failed to save return", "returnId", cmd.ReturnID)
		return nil, fmt.Errorf("failed to save return: %w", err)
	}

	return ToReturnDTO(ret), nil
}

// GetReturn retrieves a return by ID
func (s *ReturnApplicationService) GetReturn(ctx context.Context, query GetReturnQuery) (*ReturnDTO, error) {
	ret, err := s.loadReturn(ctx, query.ReturnID)
	if err != nil {
		return nil, err
	}
	return ToReturnDTO(ret), nil
}

// ProcessReturn finalizes a pending return. The ReturnCreatedEvent is
// written to the outbox in the same transaction as the return.
func (s *ReturnApplicationService) ProcessReturn(ctx context.Context, cmd ProcessReturnCommand) (*ReturnDTO, error) {
	ret, err := s.loadReturn(ctx, cmd.ReturnID)
	if err != nil {
		return nil, err
	}

	if err := ret.Process(domain.PaymentMethod(cmd.RefundMethod)); err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.returnRepo.Save(ctx, ret); err != nil {
		s.logger.WithError(err).Error("Failed to save return", "returnId", cmd.ReturnID)
		return nil, fmt.Errorf("failed to save return: %w", err)
	}

	s.metrics.RecordReturnProcessed(ret.StoreID.String())
	s.logger.Info("Return processed",
		"returnId", ret.ReturnID,
		"returnNumber", ret.ReturnNumber,
		"totalRefund", ret.TotalRefund.Float64(),
	)

	return ToReturnDTO(ret), nil
}

// CancelReturn cancels a pending return
func (s *ReturnApplicationService) CancelReturn(ctx context.Context, cmd CancelReturnCommand) (*ReturnDTO, error) {
	ret, err := s.loadReturn(ctx, cmd.ReturnID)
	if err != nil {
		return nil, err
	}

	if err := ret.Cancel(cmd.Reason); err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.returnRepo.Save(ctx, ret); err != nil {
		s.logger.WithError(err).Error("Failed to save return", "returnId", cmd.ReturnID)
		return nil, fmt.Errorf("failed to save return: %w", err)
	}

	return ToReturnDTO(ret), nil
}

// ListReturns lists returns for a store
func (s *ReturnApplicationService) ListReturns(ctx context.Context, query ListReturnsQuery) (*PagedResult[ReturnDTO], error) {
	storeID, err := domain.NewStoreID(query.StoreID)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	pagination := domain.DefaultPagination()
	if query.Page > 0 {
		pagination.Page = query.Page
	}
	if query.PageSize > 0 {
		pagination.PageSize = query.PageSize
	}

	returns, err := s.returnRepo.FindByStore(ctx, storeID, pagination)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list returns", "storeId", query.StoreID)
		return nil, fmt.Errorf("failed to list returns: %w", err)
	}

	return &PagedResult[ReturnDTO]{
		Data:     ToReturnDTOs(returns),
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
	}, nil
}

// returnedQuantities sums quantities already claimed by non-cancelled
// returns against a sale, keyed by SKU. The return being amended is
// excluded; its own pending lines count via the aggregate.
func (s *ReturnApplicationService) returnedQuantities(ctx context.Context, saleID, excludeReturnID string) (map[domain.SKU]int, error) {
	existing, err := s.returnRepo.FindBySaleID(ctx, saleID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load prior returns", "saleId", saleID)
		return nil, fmt.Errorf("failed to load prior returns: %w", err)
	}

	totals := make(map[domain.SKU]int)
	for _, ret := range existing {
		if ret.Status == domain.ReturnStatusCancelled || ret.ReturnID == excludeReturnID {
			continue
		}
		for _, item := range ret.Items {
			totals[item.SKU] += item.Quantity
		}
	}
	return totals, nil
}

func (s *ReturnApplicationService) loadReturn(ctx context.Context, returnID string) (*domain.Return, error) {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get return", "returnId", returnID)
		return nil, fmt.Errorf("failed to get return: %w", err)
	}
	if ret == nil {
		return nil, errors.ErrNotFoundWithID("return", returnID)
	}
	return ret.WithClock(s.clock), nil
}
