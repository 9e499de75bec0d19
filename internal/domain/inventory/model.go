// Package inventory provides the sellable product catalog.
// An item's Stock field is a derived aggregate: it always equals the sum of
// its batch quantities and is written only by the batch ledger.
package inventory

import (
	"context"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
)

// Item represents a sellable product variant.
type Item struct {
	ID   id.ID  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`

	// Barcode is the item barcode (EAN-13, etc.)
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// WholesalePrice is the per-unit purchase cost
	WholesalePrice types.Money `db:"wholesale_price" json:"wholesalePrice"`

	// RetailPrice is the per-unit sale price
	RetailPrice types.Money `db:"retail_price" json:"retailPrice"`

	// Stock is the derived aggregate quantity over all batches.
	// Only the batch ledger writes it.
	Stock types.Quantity `db:"stock" json:"stock"`

	SupplierID *id.ID `db:"supplier_id" json:"supplierId,omitempty"`
	CategoryID *id.ID `db:"category_id" json:"categoryId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewItem creates an item with zero stock.
func NewItem(name string, wholesale, retail types.Money) *Item {
	now := time.Now().UTC()
	return &Item{
		ID:             id.New(),
		Name:           name,
		WholesalePrice: wholesale,
		RetailPrice:    retail,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Validate checks item fields.
func (i *Item) Validate(ctx context.Context) error {
	if i.Name == "" {
		return apperror.NewValidation("item name is required").WithDetail("field", "name")
	}
	if i.WholesalePrice.IsNegative() {
		return apperror.NewValidation("wholesale price cannot be negative").WithDetail("field", "wholesalePrice")
	}
	if i.RetailPrice.IsNegative() {
		return apperror.NewValidation("retail price cannot be negative").WithDetail("field", "retailPrice")
	}
	return nil
}
