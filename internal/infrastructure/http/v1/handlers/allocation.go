package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/allocation"
	"pharmstock/internal/infrastructure/http/v1/dto"
)

// AllocationHandler handles HTTP requests for FEFO allocation.
type AllocationHandler struct {
	*BaseHandler
	picker *allocation.Picker
}

// NewAllocationHandler creates a new allocation handler.
func NewAllocationHandler(base *BaseHandler, picker *allocation.Picker) *AllocationHandler {
	return &AllocationHandler{
		BaseHandler: base,
		picker:      picker,
	}
}

// Plan handles GET /inventory/:id/pick?quantity=N
// Returns the pick list without mutating anything.
func (h *AllocationHandler) Plan(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}
	qty := h.ParseIntQuery(c, "quantity", 0)
	if qty <= 0 {
		h.Error(c, apperror.NewValidation("quantity must be positive"))
		return
	}

	picks, err := h.picker.Pick(c.Request.Context(), itemID, types.Quantity(qty))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromPicks(picks))
}

// Allocate handles POST /inventory/:id/allocate
func (h *AllocationHandler) Allocate(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.AllocateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	picks, err := h.picker.Allocate(c.Request.Context(), itemID, types.Quantity(req.Quantity))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromPicks(picks))
}

// AllocateFromBatch handles POST /batches/:id/allocate
// Point-of-sale override naming an explicit batch.
func (h *AllocationHandler) AllocateFromBatch(c *gin.Context) {
	batchID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.AllocateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	pick, err := h.picker.AllocateFromBatch(c.Request.Context(), batchID, types.Quantity(req.Quantity))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromPick(pick))
}

// RegisterRoutes registers allocation routes on the inventory and batch groups.
func (h *AllocationHandler) RegisterRoutes(inventory, batches *gin.RouterGroup) {
	inventory.GET("/:id/pick", h.Plan)
	inventory.POST("/:id/allocate", h.Allocate)
	batches.POST("/:id/allocate", h.AllocateFromBatch)
}
