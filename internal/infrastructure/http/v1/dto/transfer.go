package dto

import (
	"time"

	"pharmstock/internal/domain/transfer"
)

// TransferRequest moves quantity between two batches.
type TransferRequest struct {
	SourceBatchID string `json:"sourceBatchId" binding:"required"`
	TargetBatchID string `json:"targetBatchId" binding:"required"`
	Quantity      int64  `json:"quantity" binding:"required,min=1"`
	Reason        string `json:"reason" binding:"required"`
}

// TransferHistoryRequest filters transfer history.
type TransferHistoryRequest struct {
	BatchID  string     `form:"batchId"`
	FromDate *time.Time `form:"fromDate"`
	ToDate   *time.Time `form:"toDate"`
	Limit    int        `form:"limit"`
}

// TransferResponse represents one transfer record.
type TransferResponse struct {
	ID            string    `json:"id"`
	SourceBatchID string    `json:"sourceBatchId"`
	TargetBatchID string    `json:"targetBatchId"`
	Quantity      int64     `json:"quantity"`
	Reason        string    `json:"reason"`
	UserID        string    `json:"userId"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FromTransfer converts a record to its response DTO.
func FromTransfer(rec transfer.Record) TransferResponse {
	return TransferResponse{
		ID:            rec.ID.String(),
		SourceBatchID: rec.SourceBatchID.String(),
		TargetBatchID: rec.TargetBatchID.String(),
		Quantity:      rec.Quantity.Int64(),
		Reason:        rec.Reason,
		UserID:        rec.UserID.String(),
		CreatedAt:     rec.CreatedAt,
	}
}

// TransferListResponse represents transfer history.
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
}
