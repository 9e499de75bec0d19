package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/homeuse"
	"pharmstock/internal/infrastructure/http/v1/dto"
)

// HomeUseHandler handles HTTP requests for the home-use lifecycle.
type HomeUseHandler struct {
	*BaseHandler
	service *homeuse.Service
}

// NewHomeUseHandler creates a new home-use handler.
func NewHomeUseHandler(base *BaseHandler, service *homeuse.Service) *HomeUseHandler {
	return &HomeUseHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Take handles POST /home-use
func (h *HomeUseHandler) Take(c *gin.Context) {
	var req dto.TakeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inventoryID, err := id.Parse(req.InventoryID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid inventoryId format"))
		return
	}
	batchID, err := id.Parse(req.BatchID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid batchId format"))
		return
	}

	rec, err := h.service.Take(c.Request.Context(), homeuse.TakeInput{
		InventoryID:       inventoryID,
		BatchID:           batchID,
		Quantity:          types.Quantity(req.Quantity),
		Purpose:           req.Purpose,
		WillPay:           req.WillPay,
		IsBusinessExpense: req.IsBusinessExpense,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromHomeUse(rec))
}

// Settle handles POST /home-use/:id/settle
func (h *HomeUseHandler) Settle(c *gin.Context) {
	recID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SettleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in := homeuse.SettleInput{
		ID:     recID,
		Status: homeuse.Status(req.Status),
		Notes:  req.Notes,
	}
	if req.PaymentAmount != nil {
		amount, err := types.NewMoneyFromString(*req.PaymentAmount)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid paymentAmount format"))
			return
		}
		in.PaymentAmount = &amount
	}

	rec, err := h.service.Settle(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromHomeUse(rec))
}

// List handles GET /home-use
func (h *HomeUseHandler) List(c *gin.Context) {
	var req dto.HomeUseListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter := homeuse.ListFilter{
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
		Limit:    req.Limit,
	}
	if req.InventoryID != "" {
		parsed, err := id.Parse(req.InventoryID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid inventoryId format"))
			return
		}
		filter.InventoryID = &parsed
	}
	if req.UserID != "" {
		parsed, err := id.Parse(req.UserID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid userId format"))
			return
		}
		filter.UserID = &parsed
	}
	if req.Status != "" {
		status := homeuse.Status(req.Status)
		if !status.Valid() {
			h.Error(c, apperror.NewValidation("invalid status"))
			return
		}
		filter.Status = &status
	}

	recs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.HomeUseListResponse{Items: make([]dto.HomeUseResponse, 0, len(recs))}
	for i := range recs {
		resp.Items = append(resp.Items, dto.FromHomeUse(&recs[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterRoutes registers home-use routes.
func (h *HomeUseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Take)
	rg.POST("/:id/settle", h.Settle)
	rg.GET("", h.List)
}
