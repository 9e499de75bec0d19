package memory

import (
	"context"
	"sort"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/alert"
)

// AlertRepo is the in-memory implementation of alert.Repository.
type AlertRepo struct {
	s *Store
}

var _ alert.Repository = (*AlertRepo)(nil)

// Alerts returns the alert rule repository view of the store.
func (s *Store) Alerts() *AlertRepo {
	return &AlertRepo{s: s}
}

func (r *AlertRepo) Create(ctx context.Context, a *alert.StockAlert) error {
	t, unlock := r.s.lockWrite(ctx)
	defer unlock()

	if _, ok := r.s.alerts[a.ID]; ok {
		return apperror.NewDuplicate("alert", a.ID)
	}
	r.s.alerts[a.ID] = *a
	if t != nil {
		alertID := a.ID
		t.record(func() { delete(r.s.alerts, alertID) })
	}
	return nil
}

func (r *AlertRepo) GetByID(ctx context.Context, alertID id.ID) (*alert.StockAlert, error) {
	unlock := r.s.lockRead(ctx)
	defer unlock()

	a, ok := r.s.alerts[alertID]
	if !ok {
		return nil, apperror.NewNotFound("alert", alertID)
	}
	return &a, nil
}

func (r *AlertRepo) List(ctx context.Context) ([]alert.StockAlert, error) {
	return r.list(ctx, false)
}

func (r *AlertRepo) ListActive(ctx context.Context) ([]alert.StockAlert, error) {
	return r.list(ctx, true)
}

func (r *AlertRepo) list(ctx context.Context, activeOnly bool) ([]alert.StockAlert, error) {
	unlock := r.s.lockRead(ctx)
	defer unlock()

	var alerts []alert.StockAlert
	for _, a := range r.s.alerts {
		if activeOnly && !a.IsActive {
			continue
		}
		alerts = append(alerts, a)
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].CreatedAt.Before(alerts[j].CreatedAt) })
	return alerts, nil
}

func (r *AlertRepo) SetActive(ctx context.Context, alertID id.ID, active bool) error {
	t, unlock := r.s.lockWrite(ctx)
	defer unlock()

	a, ok := r.s.alerts[alertID]
	if !ok {
		return apperror.NewNotFound("alert", alertID)
	}
	if t != nil {
		prev := a
		t.record(func() { r.s.alerts[alertID] = prev })
	}
	a.IsActive = active
	r.s.alerts[alertID] = a
	return nil
}
