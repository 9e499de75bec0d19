package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/transfer"
	"pharmstock/internal/infrastructure/http/v1/dto"
)

// TransferHandler handles HTTP requests for batch transfers.
type TransferHandler struct {
	*BaseHandler
	service *transfer.Service
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(base *BaseHandler, service *transfer.Service) *TransferHandler {
	return &TransferHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /transfers
func (h *TransferHandler) Create(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sourceID, err := id.Parse(req.SourceBatchID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid sourceBatchId format"))
		return
	}
	targetID, err := id.Parse(req.TargetBatchID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid targetBatchId format"))
		return
	}

	rec, err := h.service.Transfer(c.Request.Context(), transfer.Input{
		SourceBatchID: sourceID,
		TargetBatchID: targetID,
		Quantity:      types.Quantity(req.Quantity),
		Reason:        req.Reason,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromTransfer(*rec))
}

// History handles GET /transfers
func (h *TransferHandler) History(c *gin.Context) {
	var req dto.TransferHistoryRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter := transfer.ListFilter{
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
		Limit:    req.Limit,
	}
	if req.BatchID != "" {
		parsed, err := id.Parse(req.BatchID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid batchId format"))
			return
		}
		filter.BatchID = &parsed
	}

	recs, err := h.service.History(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.TransferListResponse{Items: make([]dto.TransferResponse, 0, len(recs))}
	for _, rec := range recs {
		resp.Items = append(resp.Items, dto.FromTransfer(rec))
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterRoutes registers transfer routes.
func (h *TransferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.History)
}
