package memory

import (
	"context"
	"sort"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/homeuse"
)

// HomeUseRepo is the in-memory implementation of homeuse.Repository.
type HomeUseRepo struct {
	s *Store
}

var _ homeuse.Repository = (*HomeUseRepo)(nil)

// HomeUse returns the home-use record repository view of the store.
func (s *Store) HomeUse() *HomeUseRepo {
	return &HomeUseRepo{s: s}
}

func (r *HomeUseRepo) Create(ctx context.Context, rec *homeuse.Record) error {
	t, unlock := r.s.lockWrite(ctx)
	defer unlock()

	if _, ok := r.s.homeUse[rec.ID]; ok {
		return apperror.NewDuplicate("home-use record", rec.ID)
	}
	r.s.homeUse[rec.ID] = *rec
	if t != nil {
		recID := rec.ID
		t.record(func() { delete(r.s.homeUse, recID) })
	}
	return nil
}

func (r *HomeUseRepo) GetByID(ctx context.Context, recID id.ID) (*homeuse.Record, error) {
	unlock := r.s.lockRead(ctx)
	defer unlock()
	return r.get(recID)
}

func (r *HomeUseRepo) GetForUpdate(ctx context.Context, recID id.ID) (*homeuse.Record, error) {
	unlock := r.s.lockRead(ctx)
	defer unlock()
	return r.get(recID)
}

func (r *HomeUseRepo) get(recID id.ID) (*homeuse.Record, error) {
	rec, ok := r.s.homeUse[recID]
	if !ok {
		return nil, apperror.NewNotFound("home-use record", recID)
	}
	return &rec, nil
}

func (r *HomeUseRepo) Update(ctx context.Context, rec *homeuse.Record) error {
	t, unlock := r.s.lockWrite(ctx)
	defer unlock()

	prev, ok := r.s.homeUse[rec.ID]
	if !ok {
		return apperror.NewNotFound("home-use record", rec.ID)
	}
	if t != nil {
		recID := rec.ID
		t.record(func() { r.s.homeUse[recID] = prev })
	}
	r.s.homeUse[rec.ID] = *rec
	return nil
}

func (r *HomeUseRepo) List(ctx context.Context, filter homeuse.ListFilter) ([]homeuse.Record, error) {
	unlock := r.s.lockRead(ctx)
	defer unlock()

	var recs []homeuse.Record
	for _, rec := range r.s.homeUse {
		if filter.InventoryID != nil && rec.InventoryID != *filter.InventoryID {
			continue
		}
		if filter.UserID != nil && rec.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		if filter.FromDate != nil && rec.CreatedAt.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && rec.CreatedAt.After(*filter.ToDate) {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	if filter.Limit > 0 && len(recs) > filter.Limit {
		recs = recs[:filter.Limit]
	}
	return recs, nil
}
