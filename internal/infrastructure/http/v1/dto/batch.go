package dto

import (
	"time"

	"pharmstock/internal/domain/batch"
)

// AddBatchRequest records received stock for an item.
type AddBatchRequest struct {
	BatchNumber  string     `json:"batchNumber" binding:"required"`
	Quantity     int64      `json:"quantity" binding:"required,min=1"`
	ExpiryDate   time.Time  `json:"expiryDate" binding:"required"`
	PurchaseDate *time.Time `json:"purchaseDate"`
	SupplierID   *string    `json:"supplierId"`
}

// BatchViewResponse is one row of a stock summary.
type BatchViewResponse struct {
	BatchID         string    `json:"batchId"`
	BatchNumber     string    `json:"batchNumber"`
	Quantity        int64     `json:"quantity"`
	ExpiryDate      time.Time `json:"expiryDate"`
	DaysUntilExpiry int       `json:"daysUntilExpiry"`
}

// StockSummaryResponse is the per-item batch breakdown.
type StockSummaryResponse struct {
	InventoryID   string              `json:"inventoryId"`
	TotalQuantity int64               `json:"totalQuantity"`
	Batches       []BatchViewResponse `json:"batches"`
}

// FromStockSummary converts a summary to its response DTO.
func FromStockSummary(s *batch.StockSummary) StockSummaryResponse {
	resp := StockSummaryResponse{
		InventoryID:   s.InventoryID.String(),
		TotalQuantity: s.TotalQuantity.Int64(),
		Batches:       make([]BatchViewResponse, 0, len(s.Batches)),
	}
	for _, v := range s.Batches {
		resp.Batches = append(resp.Batches, BatchViewResponse{
			BatchID:         v.BatchID.String(),
			BatchNumber:     v.BatchNumber,
			Quantity:        v.Quantity.Int64(),
			ExpiryDate:      v.ExpiryDate,
			DaysUntilExpiry: v.DaysUntilExpiry,
		})
	}
	return resp
}
