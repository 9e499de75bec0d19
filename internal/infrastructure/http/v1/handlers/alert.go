package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/alert"
	"pharmstock/internal/infrastructure/http/v1/dto"
)

// AlertHandler handles HTTP requests for alert rules and evaluation.
type AlertHandler struct {
	*BaseHandler
	service   *alert.Service
	evaluator *alert.Evaluator
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(base *BaseHandler, service *alert.Service, evaluator *alert.Evaluator) *AlertHandler {
	return &AlertHandler{
		BaseHandler: base,
		service:     service,
		evaluator:   evaluator,
	}
}

// Create handles POST /alerts
func (h *AlertHandler) Create(c *gin.Context) {
	var req dto.CreateAlertRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inventoryID, err := id.Parse(req.InventoryID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid inventoryId format"))
		return
	}

	in := alert.CreateInput{
		InventoryID: inventoryID,
		Type:        alert.Type(req.Type),
		Threshold:   req.Threshold,
		Condition:   req.Condition,
		Message:     req.Message,
	}
	if req.BatchID != nil {
		parsed, err := id.Parse(*req.BatchID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid batchId format"))
			return
		}
		in.BatchID = &parsed
	}

	a, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromAlert(*a))
}

// List handles GET /alerts
func (h *AlertHandler) List(c *gin.Context) {
	alerts, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.AlertListResponse{Items: make([]dto.AlertResponse, 0, len(alerts))}
	for _, a := range alerts {
		resp.Items = append(resp.Items, dto.FromAlert(a))
	}
	c.JSON(http.StatusOK, resp)
}

// SetActive handles PATCH /alerts/:id/active
func (h *AlertHandler) SetActive(c *gin.Context) {
	alertID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SetAlertActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetActive(c.Request.Context(), alertID, *req.Active); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "alert updated")
}

// Evaluate handles POST /alerts/evaluate
// Runs a full evaluation pass and returns the firing rules.
func (h *AlertHandler) Evaluate(c *gin.Context) {
	triggered, err := h.evaluator.Evaluate(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTriggered(triggered))
}

// RegisterRoutes registers alert routes.
func (h *AlertHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.PATCH("/:id/active", h.SetActive)
	rg.POST("/evaluate", h.Evaluate)
}
