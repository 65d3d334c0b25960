package application

import (
	"context"
	"fmt"

	"github.com/pos-platform/pos/internal/domain"
	"github.com/pos-platform/pos/pkg/errors"
	"github.com/pos-platform/pos/pkg/logging"
	"github.com/pos-platform/pos/pkg/metrics"
)

// SaleApplicationService handles checkout use cases
type SaleApplicationService struct {
	saleRepo domain.SaleRepository
	clock    domain.Clock
	numbers  *domain.ReceiptNumberGenerator
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// NewSaleApplicationService creates a new SaleApplicationService
func NewSaleApplicationService(
	saleRepo domain.SaleRepository,
	clock domain.Clock,
	numbers *domain.ReceiptNumberGenerator,
	logger *logging.Logger,
	m *metrics.Metrics,
) *SaleApplicationService {
	if clock == nil {
		clock = domain.SystemClock()
	}
	if numbers == nil {
		numbers = domain.NewReceiptNumberGenerator(clock, nil)
	}
	return &SaleApplicationService{
		saleRepo: saleRepo,
		clock:    clock,
		numbers:  numbers,
		logger:   logger,
		metrics:  m,
	}
}

// CreateSale opens a new draft sale
func (s *SaleApplicationService) CreateSale(ctx context.Context, cmd CreateSaleCommand) (*SaleDTO, error) {
	storeID, err := domain.NewStoreID(cmd.StoreID)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}
	terminalID, err := domain.NewTerminalID(cmd.TerminalID)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	taxRate := domain.DefaultTaxRate
	if cmd.TaxRate != nil {
		taxRate = *cmd.TaxRate
	}

	sale, err := domain.NewSale(storeID, terminalID, cmd.CashierID, cmd.CustomerID, taxRate, cmd.Currency, s.clock, s.numbers)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.saleRepo.Save(ctx, sale); err != nil {
		s.logger.WithError(err).Error("Failed to save sale", "saleId", sale.SaleID)
		return nil, fmt.Errorf("failed to save sale: %w", err)
	}

	s.logger.Info("Sale created",
		"saleId", sale.SaleID,
		"transactionNumber", sale.TransactionNumber,
		"storeId", storeID.String(),
		"terminalId", terminalID.String(),
	)

	return ToSaleDTO(sale), nil
}

// GetSale retrieves a sale by ID
func (s *SaleApplicationService) GetSale(ctx context.Context, query GetSaleQuery) (*SaleDTO, error) {
	sale, err := s.loadSale(ctx, query.SaleID)
	if err != nil {
		return nil, err
	}
	return ToSaleDTO(sale), nil
}

// AddItem adds a line to a draft sale
func (s *SaleApplicationService) AddItem(ctx context.Context, cmd AddSaleItemCommand) (*SaleDTO, error) {
	sale, err := s.loadSale(ctx, cmd.SaleID)
	if err != nil {
		return nil, err
	}

	sku, err := domain.NewSKU(cmd.SKU)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	unitPrice := domain.NewMoneyFromFloat(cmd.UnitPrice, sale.Currency)
	discount := domain.NewMoneyFromFloat(cmd.Discount, sale.Currency)

	if err := sale.AddItem(sku, cmd.Name, cmd.Quantity, unitPrice, discount, cmd.WarehouseID, cmd.LocationID); err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.saleRepo.Save(ctx, sale); err != nil {
		s.logger.WithError(err).Error("Failed to save sale", "saleId", cmd.SaleID)
		return nil, fmt.Errorf("failed to save sale: %w", err)
	}

	return ToSaleDTO(sale), nil
}

// UpdateItemQuantity replaces the quantity on an existing line
func (s *SaleApplicationService) UpdateItemQuantity(ctx context.Context, cmd UpdateSaleItemCommand) (*SaleDTO, error) {
	sale, err := s.loadSale(ctx, cmd.SaleID)
	if err != nil {
		return nil, err
	}

	sku, err := domain.NewSKU(cmd.SKU)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := sale.UpdateItemQuantity(sku, cmd.Quantity); err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.saleRepo.Save(ctx, sale); err != nil {
		s.logger.WithError(err).Error("Failed to save sale", "saleId", cmd.SaleID)
		return nil, fmt.Errorf("failed to save sale: %w", err)
	}

	return ToSaleDTO(sale), nil
}

// RemoveItem removes a line from a draft sale
func (s *SaleApplicationService) RemoveItem(ctx context.Context, cmd RemoveSaleItemCommand) (*SaleDTO, error) {
	sale, err := s.loadSale(ctx, cmd.SaleID)
	if err != nil {
		return nil, err
	}

	sku, err := domain.NewSKU(cmd.SKU)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := sale.RemoveItem(sku); err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.saleRepo.Save(ctx, sale); err != nil {
		s.logger.WithError(err).Error("Failed to save sale", "saleId", cmd.SaleID)
		return nil, fmt.Errorf("failed to save sale: %w", err)
	}

	return ToSaleDTO(sale), nil
}

// ApplyDiscount sets the order-level discount on a draft sale
func (s *SaleApplicationService) ApplyDiscount(ctx context.Context, cmd ApplyDiscountCommand) (*SaleDTO, error) {
	sale, err := s.loadSale(ctx, cmd.SaleID)
	if err != nil {
		return nil, err
	}

	discount := domain.NewMoneyFromFloat(cmd.Discount, sale.Currency)

	if err := sale.ApplyDiscount(discount); err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.saleRepo.Save(ctx, sale); err != nil {
		s.logger.WithError(err).Error("Failed to save sale", "saleId", cmd.SaleID)
		return nil, fmt.Errorf("failed to save sale: %w", err)
	}

	return ToSaleDTO(sale), nil
}

// AddPayment records a tendered payment on a sale
func (s *SaleApplicationService) AddPayment(ctx context.Context, cmd AddPaymentCommand) (*SaleDTO, error) {
	sale, err := s.loadSale(ctx, cmd.SaleID)
	if err != nil {
		return nil, err
	}

	amount := domain.NewMoneyFromFloat(cmd.Amount, sale.Currency)

	if err := sale.AddPayment(domain.PaymentMethod(cmd.Method), amount, cmd.Reference); err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.saleRepo.Save(ctx, sale); err != nil {
		s.logger.WithError(err).Error("Failed to save sale", "saleId", cmd.SaleID)
		return nil, fmt.Errorf("failed to save sale: %w", err)
	}

	s.logger.Info("Payment added",
		"saleId", sale.SaleID,
		"method", cmd.Method,
		"amount", cmd.Amount,
		"status", string(sale.Status),
	)

	return ToSaleDTO(sale), nil
}

// CompleteSale finalizes a fully paid sale. The SaleCompletedEvent is
// written to the outbox in the same transaction as the sale.
func (s *SaleApplicationService) CompleteSale(ctx context.Context, cmd CompleteSaleCommand) (*SaleDTO, error) {
	sale, err := s.loadSale(ctx, cmd.SaleID)
	if err != nil {
		return nil, err
	}

	if err := sale.Complete(); err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.saleRepo.Save(ctx, sale); err != nil {
		s.logger.WithError(err).Error("Failed to save sale", "saleId", cmd.SaleID)
		return nil, fmt.Errorf("failed to save sale: %w", err)
	}

	s.metrics.RecordSaleCompleted(sale.StoreID.String())
	s.logger.Info("Sale completed",
		"saleId", sale.SaleID,
		"transactionNumber", sale.TransactionNumber,
		"totalAmount", sale.TotalAmount.Float64(),
		"changeAmount", sale.ChangeAmount.Float64(),
	)

	return ToSaleDTO(sale), nil
}

// CancelSale cancels a sale with a reason
func (s *SaleApplicationService) CancelSale(ctx context.Context, cmd CancelSaleCommand) (*SaleDTO, error) {
	sale, err := s.loadSale(ctx, cmd.SaleID)
	if err != nil {
		return nil, err
	}

	wasCompleted := sale.Status == domain.SaleStatusCompleted

	if err := sale.Cancel(cmd.Reason, cmd.AuthorizedBy); err != nil {
		return nil, errors.MapDomainError(err)
	}

	if err := s.saleRepo.Save(ctx, sale); err != nil {
		s.logger.WithError(err).Error("Failed to save sale", "saleId", cmd.SaleID)
		return nil, fmt.Errorf("failed to save sale: %w", err)
	}

	s.metrics.RecordSaleCancelled(sale.StoreID.String())
	s.logger.Info("Sale cancelled",
		"saleId", sale.SaleID,
		"reason", cmd.Reason,
		"wasCompleted", wasCompleted,
	)

	return ToSaleDTO(sale), nil
}

// ListSales lists sales for a store with optional status filter
func (s *SaleApplicationService) ListSales(ctx context.Context, query ListSalesQuery) (*PagedResult[SaleDTO], error) {
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

	var status *domain.SaleStatus
	if query.Status != "" {
		st := domain.SaleStatus(query.Status)
		status = &st
	}

	sales, err := s.saleRepo.FindByStore(ctx, storeID, status, pagination)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list sales", "storeId", query.StoreID)
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	total, err := s.saleRepo.Count(ctx, domain.SaleFilter{StoreID: &storeID, Status: status})
	if err != nil {
		s.logger.WithError(err).Error("Failed to count sales", "storeId", query.StoreID)
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}

	return &PagedResult[SaleDTO]{
		Data:       ToSaleDTOs(sales),
		Page:       pagination.Page,
		PageSize:   pagination.PageSize,
		TotalItems: total,
	}, nil
}

func (s *SaleApplicationService) loadSale(ctx context.Context, saleID string) (*domain.Sale, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get sale", "saleId", saleID)
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	if sale == nil {
		return nil, errors.ErrNotFoundWithID("sale", saleID)
	}
	return sale.WithClock(s.clock), nil
}
