// Package main is the entry point for the pharmstock API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pharmstock/internal/core/tx"
	"pharmstock/internal/domain/alert"
	"pharmstock/internal/domain/allocation"
	"pharmstock/internal/domain/audit"
	"pharmstock/internal/domain/batch"
	"pharmstock/internal/domain/expense"
	"pharmstock/internal/domain/homeuse"
	"pharmstock/internal/domain/inventory"
	"pharmstock/internal/domain/transfer"
	v1 "pharmstock/internal/infrastructure/http/v1"
	"pharmstock/internal/infrastructure/http/v1/handlers"
	"pharmstock/internal/infrastructure/storage/memory"
	"pharmstock/internal/infrastructure/storage/postgres"
	"pharmstock/pkg/logger"
)

// backend groups everything main needs from a storage implementation.
type backend struct {
	db        handlers.Pinger
	txManager tx.Manager
	items     inventory.Repository
	batches   batch.Repository
	transfers transfer.Repository
	homeUse   homeuse.Repository
	alerts    alert.Repository
	expenses  expense.Recorder
	auditor   audit.Recorder
	close     func()
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store := getEnv("STORE", "postgres")
	log.Infow("starting pharmstock server", "store", store)

	var be backend
	switch store {
	case "memory":
		be = memoryBackend()
	case "postgres":
		be, err = postgresBackend(ctx)
		if err != nil {
			log.Fatalw("failed to initialize storage", "error", err)
		}
	default:
		log.Fatalw("unknown STORE value", "store", store)
	}
	defer be.close()

	// --- Domain wiring ---
	ledger := batch.NewLedger(be.batches, be.items, be.txManager, be.auditor)
	picker := allocation.NewPicker(be.batches, ledger, be.txManager)
	transfers := transfer.NewService(be.transfers, be.batches, ledger, be.txManager, be.auditor)
	homeUse := homeuse.NewService(be.homeUse, be.items, be.batches, ledger, be.expenses, be.txManager, be.auditor)
	alerts := alert.NewService(be.alerts, be.items)
	evaluator := alert.NewEvaluator(be.alerts, be.batches)

	// --- Alert scheduler ---
	schedCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	interval := getEnvDuration("ALERT_INTERVAL", 15*time.Minute)
	go alert.NewScheduler(evaluator, interval).Run(schedCtx)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:    log,
		DB:        be.db,
		Items:     be.items,
		Ledger:    ledger,
		Picker:    picker,
		Transfers: transfers,
		HomeUse:   homeUse,
		Alerts:    alerts,
		Evaluator: evaluator,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stopScheduler()

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func postgresBackend(ctx context.Context) (backend, error) {
	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		return backend{}, fmt.Errorf("connect database: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return backend{}, err
	}

	txManager := postgres.NewTxManager(pool)
	auditor, err := postgres.NewAuditService(txManager)
	if err != nil {
		pool.Close()
		return backend{}, err
	}

	return backend{
		db:        pool,
		txManager: txManager,
		items:     postgres.NewInventoryRepo(txManager),
		batches:   postgres.NewBatchRepo(txManager),
		transfers: postgres.NewTransferRepo(txManager),
		homeUse:   postgres.NewHomeUseRepo(txManager),
		alerts:    postgres.NewAlertRepo(txManager),
		expenses:  postgres.NewExpenseRepo(txManager),
		auditor:   auditor,
		close:     pool.Close,
	}, nil
}

func memoryBackend() backend {
	store := memory.NewStore()
	return backend{
		txManager: store,
		items:     store.Inventory(),
		batches:   store.Batches(),
		transfers: store.Transfers(),
		homeUse:   store.HomeUse(),
		alerts:    store.Alerts(),
		expenses:  store.Expenses(),
		auditor:   store.Audit(),
		close:     func() {},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
