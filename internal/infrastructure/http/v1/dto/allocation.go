package dto

import (
	"pharmstock/internal/domain/allocation"
)

// AllocateRequest asks for quantity from an item's stock.
type AllocateRequest struct {
	Quantity int64 `json:"quantity" binding:"required,min=1"`
}

// PickResponse is one partial take from a batch.
type PickResponse struct {
	BatchID     string `json:"batchId"`
	BatchNumber string `json:"batchNumber"`
	Quantity    int64  `json:"quantity"`
}

// FromPick converts a pick to its response DTO.
func FromPick(p allocation.Pick) PickResponse {
	return PickResponse{
		BatchID:     p.BatchID.String(),
		BatchNumber: p.BatchNumber,
		Quantity:    p.Quantity.Int64(),
	}
}

// AllocationResponse is the executed (or planned) pick list.
type AllocationResponse struct {
	Picks []PickResponse `json:"picks"`
	Total int64          `json:"total"`
}

// FromPicks converts a pick list to its response DTO.
func FromPicks(picks []allocation.Pick) AllocationResponse {
	resp := AllocationResponse{Picks: make([]PickResponse, 0, len(picks))}
	for _, p := range picks {
		resp.Picks = append(resp.Picks, FromPick(p))
		resp.Total += p.Quantity.Int64()
	}
	return resp
}
