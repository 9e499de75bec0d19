package postgres

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/alert"
)

var alertColumns = []string{
	"id", "inventory_id", "batch_id", "alert_type", "threshold",
	"condition", "message", "is_active", "created_at",
}

// AlertRepo is the PostgreSQL implementation of alert.Repository.
type AlertRepo struct {
	tx      *TxManager
	builder sq.StatementBuilderType
}

var _ alert.Repository = (*AlertRepo)(nil)

// NewAlertRepo creates an alert rule repository.
func NewAlertRepo(tx *TxManager) *AlertRepo {
	return &AlertRepo{
		tx:      tx,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *AlertRepo) Create(ctx context.Context, a *alert.StockAlert) error {
	query, args, err := r.builder.
		Insert("stock_alerts").
		Columns(alertColumns...).
		Values(a.ID, a.InventoryID, a.BatchID, a.Type, a.Threshold,
			a.Condition, a.Message, a.IsActive, a.CreatedAt).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build alert insert", err)
	}

	if _, err := r.tx.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return apperror.NewDatabase("failed to insert alert", err)
	}
	return nil
}

func (r *AlertRepo) GetByID(ctx context.Context, alertID id.ID) (*alert.StockAlert, error) {
	query, args, err := r.builder.
		Select(alertColumns...).
		From("stock_alerts").
		Where(sq.Eq{"id": alertID}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build alert select", err)
	}

	var a alert.StockAlert
	if err := pgxscan.Get(ctx, r.tx.GetQuerier(ctx), &a, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("alert", alertID)
		}
		return nil, apperror.NewDatabase("failed to get alert", err)
	}
	return &a, nil
}

func (r *AlertRepo) List(ctx context.Context) ([]alert.StockAlert, error) {
	return r.list(ctx, nil)
}

func (r *AlertRepo) ListActive(ctx context.Context) ([]alert.StockAlert, error) {
	return r.list(ctx, sq.Eq{"is_active": true})
}

func (r *AlertRepo) list(ctx context.Context, where any) ([]alert.StockAlert, error) {
	q := r.builder.
		Select(alertColumns...).
		From("stock_alerts").
		OrderBy("created_at ASC")
	if where != nil {
		q = q.Where(where)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build alert list", err)
	}

	var alerts []alert.StockAlert
	if err := pgxscan.Select(ctx, r.tx.GetQuerier(ctx), &alerts, query, args...); err != nil {
		return nil, apperror.NewDatabase("failed to list alerts", err)
	}
	return alerts, nil
}

func (r *AlertRepo) SetActive(ctx context.Context, alertID id.ID, active bool) error {
	query, args, err := r.builder.
		Update("stock_alerts").
		Set("is_active", active).
		Where(sq.Eq{"id": alertID}).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build alert update", err)
	}

	tag, err := r.tx.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return apperror.NewDatabase("failed to update alert", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("alert", alertID)
	}
	return nil
}
