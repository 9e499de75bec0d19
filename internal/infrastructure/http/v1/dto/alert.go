package dto

import (
	"time"

	"pharmstock/internal/domain/alert"
)

// CreateAlertRequest registers a new alert rule.
type CreateAlertRequest struct {
	InventoryID string  `json:"inventoryId" binding:"required"`
	BatchID     *string `json:"batchId"`
	Type        string  `json:"type" binding:"required"`
	Threshold   int64   `json:"threshold"`
	Condition   *string `json:"condition"`
	Message     string  `json:"message" binding:"required"`
}

// SetAlertActiveRequest toggles a rule.
type SetAlertActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// AlertResponse represents one alert rule.
type AlertResponse struct {
	ID          string    `json:"id"`
	InventoryID string    `json:"inventoryId"`
	BatchID     *string   `json:"batchId,omitempty"`
	Type        string    `json:"type"`
	Threshold   int64     `json:"threshold"`
	Condition   *string   `json:"condition,omitempty"`
	Message     string    `json:"message"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FromAlert converts a rule to its response DTO.
func FromAlert(a alert.StockAlert) AlertResponse {
	resp := AlertResponse{
		ID:          a.ID.String(),
		InventoryID: a.InventoryID.String(),
		Type:        string(a.Type),
		Threshold:   a.Threshold,
		Condition:   a.Condition,
		Message:     a.Message,
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt,
	}
	if a.BatchID != nil {
		s := a.BatchID.String()
		resp.BatchID = &s
	}
	return resp
}

// AlertListResponse represents a list of alert rules.
type AlertListResponse struct {
	Items []AlertResponse `json:"items"`
}

// TriggeredResponse pairs a firing rule with the observed value.
type TriggeredResponse struct {
	Alert    AlertResponse `json:"alert"`
	Observed int64         `json:"observed"`
}

// EvaluationResponse reports the outcome of an evaluation pass.
type EvaluationResponse struct {
	Triggered []TriggeredResponse `json:"triggered"`
}

// FromTriggered converts evaluation results to the response DTO.
func FromTriggered(triggered []alert.Triggered) EvaluationResponse {
	resp := EvaluationResponse{Triggered: make([]TriggeredResponse, 0, len(triggered))}
	for _, t := range triggered {
		resp.Triggered = append(resp.Triggered, TriggeredResponse{
			Alert:    FromAlert(t.Alert),
			Observed: t.Observed,
		})
	}
	return resp
}
