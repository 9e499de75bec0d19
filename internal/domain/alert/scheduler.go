package alert

import (
	"context"
	"time"

	"pharmstock/pkg/logger"
)

// Scheduler runs the evaluator on a fixed interval and logs what fires.
// Acting on triggered alerts (notification, reorder) is a collaborator's
// concern; the scheduler only surfaces them.
type Scheduler struct {
	evaluator *Evaluator
	interval  time.Duration
}

// NewScheduler creates a periodic evaluation loop.
func NewScheduler(evaluator *Evaluator, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Scheduler{evaluator: evaluator, interval: interval}
}

// Run blocks until ctx is cancelled, evaluating once per interval.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Info(ctx, "alert scheduler started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "alert scheduler stopped")
			return
		case <-ticker.C:
			triggered, err := s.evaluator.Evaluate(ctx)
			if err != nil {
				logger.Error(ctx, "alert evaluation failed", "error", err)
				continue
			}
			for _, t := range triggered {
				logger.Warn(ctx, "stock alert triggered",
					"alert_id", t.Alert.ID,
					"inventory_id", t.Alert.InventoryID,
					"type", string(t.Alert.Type),
					"threshold", t.Alert.Threshold,
					"observed", t.Observed,
					"message", t.Alert.Message,
				)
			}
		}
	}
}
