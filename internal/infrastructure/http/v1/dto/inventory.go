package dto

import (
	"time"

	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/inventory"
)

// CreateItemRequest for registering a new inventory item.
type CreateItemRequest struct {
	Name           string  `json:"name" binding:"required"`
	Barcode        *string `json:"barcode"`
	WholesalePrice string  `json:"wholesalePrice" binding:"required"`
	RetailPrice    string  `json:"retailPrice" binding:"required"`
	SupplierID     *string `json:"supplierId"`
	CategoryID     *string `json:"categoryId"`
}

// ItemResponse represents an inventory item in API responses.
type ItemResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Barcode        *string   `json:"barcode,omitempty"`
	WholesalePrice string    `json:"wholesalePrice"`
	RetailPrice    string    `json:"retailPrice"`
	Stock          int64     `json:"stock"`
	SupplierID     *string   `json:"supplierId,omitempty"`
	CategoryID     *string   `json:"categoryId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// FromItem converts an item to its response DTO.
func FromItem(item *inventory.Item) ItemResponse {
	resp := ItemResponse{
		ID:             item.ID.String(),
		Name:           item.Name,
		Barcode:        item.Barcode,
		WholesalePrice: item.WholesalePrice.String(),
		RetailPrice:    item.RetailPrice.String(),
		Stock:          item.Stock.Int64(),
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
	if item.SupplierID != nil {
		s := item.SupplierID.String()
		resp.SupplierID = &s
	}
	if item.CategoryID != nil {
		s := item.CategoryID.String()
		resp.CategoryID = &s
	}
	return resp
}

// ItemListResponse represents a list of items.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
}

// ReconcileResponse reports the recomputed aggregate.
type ReconcileResponse struct {
	InventoryID string `json:"inventoryId"`
	Stock       int64  `json:"stock"`
}

// NewReconcileResponse creates a reconcile response.
func NewReconcileResponse(inventoryID string, stock types.Quantity) ReconcileResponse {
	return ReconcileResponse{InventoryID: inventoryID, Stock: stock.Int64()}
}
