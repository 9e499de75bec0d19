package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/batch"
	"pharmstock/internal/domain/inventory"
	"pharmstock/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles HTTP requests for items and their batch ledger.
type InventoryHandler struct {
	*BaseHandler
	items  inventory.Repository
	ledger *batch.Ledger
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, items inventory.Repository, ledger *batch.Ledger) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: base,
		items:       items,
		ledger:      ledger,
	}
}

// Create handles POST /inventory
func (h *InventoryHandler) Create(c *gin.Context) {
	var req dto.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	wholesale, err := types.NewMoneyFromString(req.WholesalePrice)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid wholesalePrice format"))
		return
	}
	retail, err := types.NewMoneyFromString(req.RetailPrice)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid retailPrice format"))
		return
	}

	item := inventory.NewItem(req.Name, wholesale, retail)
	item.Barcode = req.Barcode
	if req.SupplierID != nil {
		parsed, err := id.Parse(*req.SupplierID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid supplierId format"))
			return
		}
		item.SupplierID = &parsed
	}
	if req.CategoryID != nil {
		parsed, err := id.Parse(*req.CategoryID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid categoryId format"))
			return
		}
		item.CategoryID = &parsed
	}

	ctx := c.Request.Context()
	if err := item.Validate(ctx); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.items.Create(ctx, item); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, item.ID.String())
}

// List handles GET /inventory
func (h *InventoryHandler) List(c *gin.Context) {
	items, err := h.items.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.ItemListResponse{Items: make([]dto.ItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, dto.FromItem(item))
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /inventory/:id
func (h *InventoryHandler) Get(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	item, err := h.items.GetByID(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromItem(item))
}

// AddBatch handles POST /inventory/:id/batches
func (h *InventoryHandler) AddBatch(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.AddBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in := batch.AddBatchInput{
		InventoryID:  itemID,
		BatchNumber:  req.BatchNumber,
		Quantity:     types.Quantity(req.Quantity),
		ExpiryDate:   req.ExpiryDate,
		PurchaseDate: req.PurchaseDate,
	}
	if req.SupplierID != nil {
		parsed, err := id.Parse(*req.SupplierID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid supplierId format"))
			return
		}
		in.SupplierID = &parsed
	}

	item, err := h.ledger.AddBatch(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromItem(item))
}

// Summary handles GET /inventory/:id/summary
func (h *InventoryHandler) Summary(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	summary, err := h.ledger.Summary(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromStockSummary(summary))
}

// Reconcile handles POST /inventory/:id/reconcile
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	stock, err := h.ledger.Reconcile(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewReconcileResponse(itemID.String(), stock))
}

// RegisterRoutes registers inventory routes.
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/batches", h.AddBatch)
	rg.GET("/:id/summary", h.Summary)
	rg.POST("/:id/reconcile", h.Reconcile)
}
