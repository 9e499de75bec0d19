package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pharmstock/pkg/logger"
)

type txContextKey struct{}

// TxOptions configures transaction behavior.
type TxOptions struct {
	IsolationLevel   pgx.TxIsoLevel
	AccessMode       pgx.TxAccessMode
	StatementTimeout string // e.g. "5s", empty means no override
	UseSavepoint     bool   // nest via savepoint instead of reusing the outer tx as-is
}

// DefaultTxOptions returns options suitable for most write paths.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		IsolationLevel: pgx.ReadCommitted,
		AccessMode:     pgx.ReadWrite,
	}
}

// ReadOnlyTxOptions returns options for read-only transactions.
func ReadOnlyTxOptions() TxOptions {
	return TxOptions{
		IsolationLevel: pgx.ReadCommitted,
		AccessMode:     pgx.ReadOnly,
	}
}

// Querier is the common subset of pgx.Tx and pgxpool.Pool used by repositories.
// Repositories obtain one via GetQuerier so the same code runs inside and
// outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// TxManager starts and propagates database transactions through the context.
// A function running inside RunInTransaction sees the transaction via
// GetQuerier; nested calls reuse the outer transaction.
type TxManager struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewTxManager creates a transaction manager over the given pool.
func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{
		pool:   pool.Unwrap(),
		tracer: otel.Tracer("pharmstock/tx"),
	}
}

// GetQuerier returns the transaction bound to ctx, or the pool when no
// transaction is active.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return m.pool
}

// InTransaction reports whether ctx carries an active transaction.
func (m *TxManager) InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txContextKey{}).(pgx.Tx)
	return ok
}

// RunInTransaction executes fn within a read-write transaction.
// Implements tx.Manager.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunWithOptions(ctx, DefaultTxOptions(), fn)
}

// ReadOnly executes fn within a read-only transaction.
// Implements tx.ReadOnlyManager.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunWithOptions(ctx, ReadOnlyTxOptions(), fn)
}

// RunWithOptions executes fn within a transaction using the given options.
// If a transaction is already active on ctx it is reused; with UseSavepoint
// the nested call runs under a savepoint so its failure does not poison the
// outer transaction.
func (m *TxManager) RunWithOptions(ctx context.Context, opts TxOptions, fn func(ctx context.Context) error) error {
	if outer, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		if !opts.UseSavepoint {
			return fn(ctx)
		}
		return m.runInSavepoint(ctx, outer, fn)
	}

	ctx, span := m.tracer.Start(ctx, "tx",
		trace.WithAttributes(
			attribute.String("db.isolation", string(opts.IsolationLevel)),
			attribute.String("db.access_mode", string(opts.AccessMode)),
		),
	)
	defer span.End()

	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   opts.IsolationLevel,
		AccessMode: opts.AccessMode,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin failed")
		return fmt.Errorf("begin transaction: %w", err)
	}

	if opts.StatementTimeout != "" {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%s'", opts.StatementTimeout)); err != nil {
			_ = tx.Rollback(ctx)
			span.RecordError(err)
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	txCtx := context.WithValue(ctx, txContextKey{}, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Error(ctx, "transaction rollback failed", "error", rbErr)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolled back")
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return fmt.Errorf("commit transaction: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (m *TxManager) runInSavepoint(ctx context.Context, outer pgx.Tx, fn func(ctx context.Context) error) error {
	nested, err := outer.Begin(ctx) // pgx implements nested Begin via savepoints
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}

	nestedCtx := context.WithValue(ctx, txContextKey{}, nested)

	if err := fn(nestedCtx); err != nil {
		if rbErr := nested.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Error(ctx, "savepoint rollback failed", "error", rbErr)
		}
		return err
	}

	if err := nested.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}
