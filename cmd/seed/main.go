// Package main seeds sample pharmacy data for local development.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"pharmstock/internal/core/id"
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/batch"
	"pharmstock/internal/domain/inventory"
	"pharmstock/internal/infrastructure/storage/postgres"
	"pharmstock/pkg/logger"
)

var itemColumns = []string{
	"id", "name", "barcode", "wholesale_price", "retail_price",
	"stock", "supplier_id", "category_id", "created_at", "updated_at",
}

var batchColumns = []string{
	"id", "inventory_id", "batch_number", "quantity",
	"expiry_date", "purchase_date", "supplier_id", "created_at", "updated_at",
}

type seedItem struct {
	name      string
	barcode   string
	wholesale string
	retail    string
	batches   []seedBatch
}

type seedBatch struct {
	number     string
	quantity   int64
	expiryDays int
}

var medicines = []seedItem{
	{"Paracetamol 500mg", "5901234123457", "1.20", "2.50", []seedBatch{
		{"PCM-2024-001", 200, 180},
		{"PCM-2024-002", 150, 365},
	}},
	{"Ibuprofen 400mg", "5901234123464", "1.80", "3.90", []seedBatch{
		{"IBU-2024-011", 120, 90},
	}},
	{"Amoxicillin 250mg", "5901234123471", "4.50", "9.80", []seedBatch{
		{"AMX-2024-003", 60, 240},
		{"AMX-2024-004", 40, 400},
	}},
	{"Loratadine 10mg", "5901234123488", "2.10", "4.60", []seedBatch{
		{"LOR-2024-007", 80, 120},
	}},
	{"Omeprazole 20mg", "5901234123495", "3.30", "7.20", []seedBatch{
		{"OMP-2024-009", 100, 300},
	}},
	{"Vitamin C 1000mg", "5901234123501", "2.90", "6.50", []seedBatch{
		{"VTC-2024-015", 250, 540},
		{"VTC-2024-016", 100, 720},
	}},
}

func main() {
	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect", "error", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("failed to migrate", "error", err)
	}

	txManager := postgres.NewTxManager(pool)
	inserter := postgres.NewBulkInserter(txManager)
	ledger := batch.NewLedger(
		postgres.NewBatchRepo(txManager),
		postgres.NewInventoryRepo(txManager),
		txManager,
		nil,
	)

	err = txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()

		items := make([]*inventory.Item, 0, len(medicines))
		var batchRows [][]any
		for _, m := range medicines {
			item := inventory.NewItem(m.name, types.MustMoney(m.wholesale), types.MustMoney(m.retail))
			barcode := m.barcode
			item.Barcode = &barcode
			items = append(items, item)

			for _, b := range m.batches {
				expiry := now.AddDate(0, 0, b.expiryDays)
				batchRows = append(batchRows, []any{
					id.New(), item.ID, b.number, b.quantity,
					expiry, &now, nil, now, now,
				})
			}
		}

		n, err := postgres.CopySlice(ctx, inserter, "inventory_items", itemColumns, items,
			func(i *inventory.Item) ([]any, error) {
				return []any{
					i.ID, i.Name, i.Barcode, i.WholesalePrice, i.RetailPrice,
					0, nil, nil, i.CreatedAt, i.UpdatedAt,
				}, nil
			})
		if err != nil {
			return err
		}
		log.Infow("items seeded", "count", n)

		n, err = inserter.CopyRows(ctx, "stock_batches", batchColumns, batchRows)
		if err != nil {
			return err
		}
		log.Infow("batches seeded", "count", n)

		// Bulk load bypasses the ledger, so bring the aggregates in line.
		for _, item := range items {
			if _, err := ledger.Reconcile(ctx, item.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalw("seed failed", "error", err)
	}

	log.Info("seed complete")
}
