package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BulkInserter loads many rows into a table in one round trip using the
// PostgreSQL COPY protocol. Intended for seeding and imports, not for the
// transactional write paths.
type BulkInserter struct {
	tx *TxManager
}

// NewBulkInserter creates a bulk inserter backed by the given manager.
func NewBulkInserter(tx *TxManager) *BulkInserter {
	return &BulkInserter{tx: tx}
}

// CopyRows inserts pre-built rows into table. Each row must match columns
// in length and order.
func (b *BulkInserter) CopyRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	q := b.tx.GetQuerier(ctx)
	n, err := q.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

// CopySlice inserts a typed slice into table, converting each element to a
// row with toRow.
func CopySlice[T any](ctx context.Context, b *BulkInserter, table string, columns []string, items []T, toRow func(T) ([]any, error)) (int64, error) {
	q := b.tx.GetQuerier(ctx)
	n, err := q.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
		return toRow(items[i])
	}))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}
