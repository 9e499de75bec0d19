// Package homeuse tracks stock withdrawn for internal consumption.
// A withdrawal is a soft sale with its own payment and return lifecycle:
// TAKEN -> RETURNED | WRITTEN_OFF, no transition out of a terminal state.
package homeuse

import (
	"context"
	"time"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
)

// Status is the lifecycle state of a home-use record.
type Status string

const (
	StatusTaken      Status = "TAKEN"
	StatusReturned   Status = "RETURNED"
	StatusWrittenOff Status = "WRITTEN_OFF"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusReturned || s == StatusWrittenOff
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTaken, StatusReturned, StatusWrittenOff:
		return true
	}
	return false
}

// Record represents quantity withdrawn from a batch for non-sale use.
// Cost and retail value are snapshots of item pricing at withdrawal time.
type Record struct {
	ID          id.ID          `db:"id" json:"id"`
	InventoryID id.ID          `db:"inventory_id" json:"inventoryId"`
	BatchID     id.ID          `db:"batch_id" json:"batchId"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	Purpose     string         `db:"purpose" json:"purpose"`
	UserID      id.ID          `db:"user_id" json:"userId"`
	Status      Status         `db:"status" json:"status"`

	CostPrice   types.Money `db:"cost_price" json:"costPrice"`
	RetailPrice types.Money `db:"retail_price" json:"retailPrice"`

	IsPaid      bool       `db:"is_paid" json:"isPaid"`
	PaymentDate *time.Time `db:"payment_date" json:"paymentDate,omitempty"`
	ExpenseID   *id.ID     `db:"expense_id" json:"expenseId,omitempty"`

	Notes      *string    `db:"notes" json:"notes,omitempty"`
	ReturnedAt *time.Time `db:"returned_at" json:"returnedAt,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}

// ListFilter narrows home-use queries.
type ListFilter struct {
	InventoryID *id.ID
	UserID      *id.ID
	Status      *Status
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
}

// Repository defines the interface for home-use record persistence.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, recID id.ID) (*Record, error)

	// GetForUpdate retrieves a record with a row lock.
	// Must be called inside a transaction.
	GetForUpdate(ctx context.Context, recID id.ID) (*Record, error)

	Update(ctx context.Context, rec *Record) error
	List(ctx context.Context, filter ListFilter) ([]Record, error)
}
