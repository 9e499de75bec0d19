// Package batch provides the stock batch ledger.
// An inventory item's quantity is the sum of discrete, expiring lots; the
// ledger is the sole writer of both batch quantities and the item aggregate.
package batch

import (
	"time"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
)

// StockBatch is one received lot of an item.
// (InventoryID, BatchNumber) is unique per item. A batch is never deleted:
// quantity zero is a valid historical record.
type StockBatch struct {
	ID          id.ID  `db:"id" json:"id"`
	InventoryID id.ID  `db:"inventory_id" json:"inventoryId"`
	BatchNumber string `db:"batch_number" json:"batchNumber"`

	// Quantity is never negative.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	ExpiryDate   time.Time  `db:"expiry_date" json:"expiryDate"`
	PurchaseDate *time.Time `db:"purchase_date" json:"purchaseDate,omitempty"`
	SupplierID   *id.ID     `db:"supplier_id" json:"supplierId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// IsExpired reports whether the batch expiry has passed at the given time.
// Expired batches are excluded from sale and home use, but not from transfer.
func (b *StockBatch) IsExpired(now time.Time) bool {
	return !b.ExpiryDate.After(now)
}

// DaysUntilExpiry returns ceil((expiry - now) / 24h).
// Negative for already-expired batches.
func DaysUntilExpiry(expiry, now time.Time) int {
	d := expiry.Sub(now)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// AddBatchInput describes a stock receipt (initial creation or replenishment).
type AddBatchInput struct {
	InventoryID  id.ID
	BatchNumber  string
	Quantity     types.Quantity
	ExpiryDate   time.Time
	PurchaseDate *time.Time
	SupplierID   *id.ID
}

// BatchView is a read-model row in the stock summary.
type BatchView struct {
	BatchID         id.ID          `json:"batchId"`
	BatchNumber     string         `json:"batchNumber"`
	Quantity        types.Quantity `json:"quantity"`
	ExpiryDate      time.Time      `json:"expiryDate"`
	DaysUntilExpiry int            `json:"daysUntilExpiry"`
}

// StockSummary is the per-item batch breakdown.
type StockSummary struct {
	InventoryID   id.ID          `json:"inventoryId"`
	TotalQuantity types.Quantity `json:"totalQuantity"`
	Batches       []BatchView    `json:"batches"`
}
