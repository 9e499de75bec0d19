// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"pharmstock/internal/domain/alert"
	"pharmstock/internal/domain/allocation"
	"pharmstock/internal/domain/batch"
	"pharmstock/internal/domain/homeuse"
	"pharmstock/internal/domain/inventory"
	"pharmstock/internal/domain/transfer"
	"pharmstock/internal/infrastructure/http/v1/handlers"
	"pharmstock/internal/infrastructure/http/v1/middleware"
	"pharmstock/pkg/logger"
)

// RouterConfig holds everything the router wires together.
type RouterConfig struct {
	Logger *logger.Logger

	// DB reports storage health; nil for the memory backend.
	DB handlers.Pinger

	Items     inventory.Repository
	Ledger    *batch.Ledger
	Picker    *allocation.Picker
	Transfers *transfer.Service
	HomeUse   *homeuse.Service
	Alerts    *alert.Service
	Evaluator *alert.Evaluator
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB)
	healthHandler.RegisterRoutes(router.Group("/health"))

	base := handlers.NewBaseHandler()

	api := router.Group("/api/v1")
	api.Use(middleware.User())
	{
		inventoryGroup := api.Group("/inventory")
		batchGroup := api.Group("/batches")

		handlers.NewInventoryHandler(base, cfg.Items, cfg.Ledger).
			RegisterRoutes(inventoryGroup)
		handlers.NewAllocationHandler(base, cfg.Picker).
			RegisterRoutes(inventoryGroup, batchGroup)
		handlers.NewTransferHandler(base, cfg.Transfers).
			RegisterRoutes(api.Group("/transfers"))
		handlers.NewHomeUseHandler(base, cfg.HomeUse).
			RegisterRoutes(api.Group("/home-use"))
		handlers.NewAlertHandler(base, cfg.Alerts, cfg.Evaluator).
			RegisterRoutes(api.Group("/alerts"))
	}

	return router
}
