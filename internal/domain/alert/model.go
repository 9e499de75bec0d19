// Package alert provides standing stock alert rules and their evaluation.
// Evaluation is read-only: it reports which rules trigger and never mutates
// batches, items, or the rules themselves.
package alert

import (
	"context"
	"time"

	"pharmstock/internal/core/id"
)

// Type is the alert kind.
type Type string

const (
	TypeLowStock  Type = "LOW_STOCK"
	TypeHighStock Type = "HIGH_STOCK"
	TypeExpiry    Type = "EXPIRY"
)

// Valid reports whether t is a known alert type.
func (t Type) Valid() bool {
	switch t {
	case TypeLowStock, TypeHighStock, TypeExpiry:
		return true
	}
	return false
}

// StockAlert is a standing rule. BatchID nil means the rule applies to the
// item's total stock. Threshold is a quantity for stock alerts and a number
// of days for expiry alerts.
type StockAlert struct {
	ID          id.ID  `db:"id" json:"id"`
	InventoryID id.ID  `db:"inventory_id" json:"inventoryId"`
	BatchID     *id.ID `db:"batch_id" json:"batchId,omitempty"`
	Type        Type   `db:"alert_type" json:"type"`
	Threshold   int64  `db:"threshold" json:"threshold"`

	// Condition is an optional CEL expression replacing the built-in
	// comparison. Variables: quantity, stock, days_until_expiry, threshold.
	Condition *string `db:"condition" json:"condition,omitempty"`

	Message   string    `db:"message" json:"message"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Triggered pairs a firing rule with the value observed at evaluation time.
type Triggered struct {
	Alert    StockAlert `json:"alert"`
	Observed int64      `json:"observed"`
}

// Repository defines the interface for alert rule persistence.
type Repository interface {
	Create(ctx context.Context, a *StockAlert) error
	GetByID(ctx context.Context, alertID id.ID) (*StockAlert, error)
	List(ctx context.Context) ([]StockAlert, error)
	ListActive(ctx context.Context) ([]StockAlert, error)
	SetActive(ctx context.Context, alertID id.ID, active bool) error
}
