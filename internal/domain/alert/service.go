package alert

import (
	"context"
	"time"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/id"
	"pharmstock/internal/domain/inventory"
	"pharmstock/pkg/logger"
)

// CreateInput describes a new alert rule.
type CreateInput struct {
	InventoryID id.ID
	BatchID     *id.ID
	Type        Type
	Threshold   int64
	Condition   *string
	Message     string
}

// Service manages alert rules.
type Service struct {
	repo  Repository
	items inventory.Repository
}

// NewService creates an alert rule service.
func NewService(repo Repository, items inventory.Repository) *Service {
	return &Service{repo: repo, items: items}
}

// Create registers a new active rule. Custom conditions are compiled here so
// a broken expression never reaches the evaluator.
func (s *Service) Create(ctx context.Context, in CreateInput) (*StockAlert, error) {
	if !in.Type.Valid() {
		return nil, apperror.NewValidation("invalid alert type").
			WithDetail("type", string(in.Type))
	}
	if in.Threshold < 0 {
		return nil, apperror.NewValidation("threshold cannot be negative").
			WithDetail("threshold", in.Threshold)
	}
	if in.Message == "" {
		return nil, apperror.NewValidation("message is required")
	}
	if in.Condition != nil {
		if _, err := CompileCondition(*in.Condition); err != nil {
			return nil, err
		}
	}
	if _, err := s.items.GetByID(ctx, in.InventoryID); err != nil {
		return nil, err
	}

	a := &StockAlert{
		ID:          id.New(),
		InventoryID: in.InventoryID,
		BatchID:     in.BatchID,
		Type:        in.Type,
		Threshold:   in.Threshold,
		Condition:   in.Condition,
		Message:     in.Message,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock alert created",
		"alert_id", a.ID,
		"inventory_id", a.InventoryID,
		"type", string(a.Type),
	)
	return a, nil
}

// List returns all rules, active or not.
func (s *Service) List(ctx context.Context) ([]StockAlert, error) {
	return s.repo.List(ctx)
}

// SetActive toggles a rule. Evaluation itself never changes this flag.
func (s *Service) SetActive(ctx context.Context, alertID id.ID, active bool) error {
	if _, err := s.repo.GetByID(ctx, alertID); err != nil {
		return err
	}
	return s.repo.SetActive(ctx, alertID, active)
}
