package application

import (
	"github.com/pos-platform/pos/internal/domain"
)

// ToSaleDTO converts a Sale aggregate to its API representation
func ToSaleDTO(sale *domain.Sale) *SaleDTO {
	items := make([]SaleItemDTO, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, SaleItemDTO{
			SKU:         item.SKU.String(),
			Name:        item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.Float64(),
			Discount:    item.Discount.Float64(),
			TaxAmount:   item.TaxAmount.Float64(),
			TotalPrice:  item.TotalPrice.Float64(),
			WarehouseID: item.WarehouseID,
			LocationID:  item.LocationID,
		})
	}

	payments := make([]PaymentDTO, 0, len(sale.Payments))
	for _, payment := range sale.Payments {
		payments = append(payments, PaymentDTO{
			Method:     string(payment.Method),
			Amount:     payment.Amount.Float64(),
			Reference:  payment.Reference,
			ReceivedAt: payment.ReceivedAt,
		})
	}

	return &SaleDTO{
		SaleID:             sale.SaleID,
		TransactionNumber:  sale.TransactionNumber,
		StoreID:            sale.StoreID.String(),
		TerminalID:         sale.TerminalID.String(),
		CashierID:          sale.CashierID,
		CustomerID:         sale.CustomerID,
		Status:             string(sale.Status),
		Items:              items,
		Payments:           payments,
		TaxRate:            sale.TaxRate,
		Currency:           sale.Currency,
		SubTotal:           sale.SubTotal.Float64(),
		TaxAmount:          sale.TaxAmount.Float64(),
		DiscountAmount:     sale.DiscountAmount.Float64(),
		TotalAmount:        sale.TotalAmount.Float64(),
		PaidAmount:         sale.PaidAmount.Float64(),
		ChangeAmount:       sale.ChangeAmount.Float64(),
		CancellationReason: sale.CancellationReason,
		CancelledBy:        sale.CancelledBy,
		CompletedAt:        sale.CompletedAt,
		CancelledAt:        sale.CancelledAt,
		Version:            sale.Version,
		CreatedAt:          sale.CreatedAt,
		UpdatedAt:          sale.UpdatedAt,
	}
}

// ToSaleDTOs converts a slice of Sale aggregates
func ToSaleDTOs(sales []*domain.Sale) []SaleDTO {
	dtos := make([]SaleDTO, 0, len(sales))
	for _, sale := range sales {
		dtos = append(dtos, *ToSaleDTO(sale))
	}
	return dtos
}

// ToReturnDTO converts a Return aggregate to its API representation
func ToReturnDTO(ret *domain.Return) *ReturnDTO {
	items := make([]ReturnItemDTO, 0, len(ret.Items))
	for _, item := range ret.Items {
		items = append(items, ReturnItemDTO{
			SKU:             item.SKU.String(),
			Name:            item.Name,
			Quantity:        item.Quantity,
			RefundPerUnit:   item.RefundPerUnit.Float64(),
			RefundAmount:    item.RefundAmount.Float64(),
			Condition:       string(item.Condition),
			RestockRequired: item.RestockRequired,
			WarehouseID:     item.WarehouseID,
			LocationID:      item.LocationID,
		})
	}

	return &ReturnDTO{
		ReturnID:                  ret.ReturnID,
		ReturnNumber:              ret.ReturnNumber,
		OriginalSaleID:            ret.OriginalSaleID,
		OriginalTransactionNumber: ret.OriginalTransactionNumber,
		StoreID:                   ret.StoreID.String(),
		Status:                    string(ret.Status),
		Items:                     items,
		TotalRefund:               ret.TotalRefund.Float64(),
		Reason:                    ret.Reason,
		CancellationReason:        ret.CancellationReason,
		RefundMethod:              string(ret.RefundMethod),
		Currency:                  ret.Currency,
		ProcessedAt:               ret.ProcessedAt,
		CancelledAt:               ret.CancelledAt,
		CreatedAt:                 ret.CreatedAt,
	}
}

// ToReturnDTOs converts a slice of Return aggregates
func ToReturnDTOs(returns []*domain.Return) []ReturnDTO {
	dtos := make([]ReturnDTO, 0, len(returns))
	for _, ret := range returns {
		dtos = append(dtos, *ToReturnDTO(ret))
	}
	return dtos
}

// ToInventoryDTO converts an Inventory aggregate to its API representation
func ToInventoryDTO(inv *domain.Inventory) *InventoryDTO {
	return &InventoryDTO{
		InventoryID:       inv.InventoryID,
		SKU:               inv.SKU.String(),
		StoreID:           inv.StoreID.String(),
		WarehouseID:       inv.WarehouseID,
		QuantityOnHand:    inv.QuantityOnHand,
		QuantityReserved:  inv.QuantityReserved,
		QuantityAvailable: inv.QuantityAvailable(),
		ReorderPoint:      inv.ReorderPoint,
		ReorderQuantity:   inv.ReorderQuantity,
		IsLowStock:        inv.IsLowStock(),
		UpdatedAt:         inv.UpdatedAt,
	}
}

// ToInventoryDTOs converts a slice of Inventory aggregates
func ToInventoryDTOs(records []*domain.Inventory) []InventoryDTO {
	dtos := make([]InventoryDTO, 0, len(records))
	for _, inv := range records {
		dtos = append(dtos, *ToInventoryDTO(inv))
	}
	return dtos
}

// ToTransactionDTO converts a ledger entry to its API representation
func ToTransactionDTO(tx *domain.InventoryTransaction) *InventoryTransactionDTO {
	return &InventoryTransactionDTO{
		TransactionID:  tx.TransactionID,
		SKU:            tx.SKU.String(),
		StoreID:        tx.StoreID.String(),
		WarehouseID:    tx.WarehouseID,
		Type:           string(tx.Type),
		Quantity:       tx.Quantity,
		QuantityBefore: tx.QuantityBefore,
		QuantityAfter:  tx.QuantityAfter,
		ReferenceType:  tx.ReferenceType,
		ReferenceID:    tx.ReferenceID,
		SourceEventID:  tx.SourceEventID,
		Notes:          tx.Notes,
		CreatedAt:      tx.CreatedAt,
	}
}

// ToTransactionDTOs converts a slice of ledger entries
func ToTransactionDTOs(txs []*domain.InventoryTransaction) []InventoryTransactionDTO {
	dtos := make([]InventoryTransactionDTO, 0, len(txs))
	for _, tx := range txs {
		dtos = append(dtos, *ToTransactionDTO(tx))
	}
	return dtos
}

// ToDeadLetterDTO converts a dead letter entry to its API representation
func ToDeadLetterDTO(entry *domain.DeadLetterEntry) *DeadLetterDTO {
	return &DeadLetterDTO{
		EntryID:       entry.EntryID,
		Topic:         entry.Topic,
		Partition:     entry.Partition,
		Offset:        entry.Offset,
		EventType:     entry.EventType,
		EventID:       entry.EventID,
		FailureReason: entry.FailureReason,
		AttemptCount:  len(entry.Attempts),
		Resolved:      entry.Resolved,
		ResolvedAt:    entry.ResolvedAt,
		ResolvedBy:    entry.ResolvedBy,
		CreatedAt:     entry.CreatedAt,
	}
}

// ToDeadLetterDTOs converts a slice of dead letter entries
func ToDeadLetterDTOs(entries []*domain.DeadLetterEntry) []DeadLetterDTO {
	dtos := make([]DeadLetterDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, *ToDeadLetterDTO(entry))
	}
	return dtos
}
