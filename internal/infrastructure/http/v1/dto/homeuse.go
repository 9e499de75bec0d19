package dto

import (
	"time"

	"pharmstock/internal/domain/homeuse"
)

// TakeRequest withdraws quantity for internal use.
type TakeRequest struct {
	InventoryID       string `json:"inventoryId" binding:"required"`
	BatchID           string `json:"batchId" binding:"required"`
	Quantity          int64  `json:"quantity" binding:"required,min=1"`
	Purpose           string `json:"purpose" binding:"required"`
	WillPay           bool   `json:"willPay"`
	IsBusinessExpense bool   `json:"isBusinessExpense"`
}

// SettleRequest closes a TAKEN record.
type SettleRequest struct {
	Status        string  `json:"status" binding:"required"`
	Notes         *string `json:"notes"`
	PaymentAmount *string `json:"paymentAmount"`
}

// HomeUseListRequest filters home-use records.
type HomeUseListRequest struct {
	InventoryID string     `form:"inventoryId"`
	UserID      string     `form:"userId"`
	Status      string     `form:"status"`
	FromDate    *time.Time `form:"fromDate"`
	ToDate      *time.Time `form:"toDate"`
	Limit       int        `form:"limit"`
}

// HomeUseResponse represents one home-use record.
type HomeUseResponse struct {
	ID          string     `json:"id"`
	InventoryID string     `json:"inventoryId"`
	BatchID     string     `json:"batchId"`
	Quantity    int64      `json:"quantity"`
	Purpose     string     `json:"purpose"`
	UserID      string     `json:"userId"`
	Status      string     `json:"status"`
	CostPrice   string     `json:"costPrice"`
	RetailPrice string     `json:"retailPrice"`
	IsPaid      bool       `json:"isPaid"`
	PaymentDate *time.Time `json:"paymentDate,omitempty"`
	ExpenseID   *string    `json:"expenseId,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	ReturnedAt  *time.Time `json:"returnedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// FromHomeUse converts a record to its response DTO.
func FromHomeUse(rec *homeuse.Record) HomeUseResponse {
	resp := HomeUseResponse{
		ID:          rec.ID.String(),
		InventoryID: rec.InventoryID.String(),
		BatchID:     rec.BatchID.String(),
		Quantity:    rec.Quantity.Int64(),
		Purpose:     rec.Purpose,
		UserID:      rec.UserID.String(),
		Status:      string(rec.Status),
		CostPrice:   rec.CostPrice.String(),
		RetailPrice: rec.RetailPrice.String(),
		IsPaid:      rec.IsPaid,
		PaymentDate: rec.PaymentDate,
		Notes:       rec.Notes,
		ReturnedAt:  rec.ReturnedAt,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if rec.ExpenseID != nil {
		s := rec.ExpenseID.String()
		resp.ExpenseID = &s
	}
	return resp
}

// HomeUseListResponse represents a list of home-use records.
type HomeUseListResponse struct {
	Items []HomeUseResponse `json:"items"`
}
