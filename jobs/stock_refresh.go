package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// RefreshEnqueuer submits per-session refresh tasks.
type RefreshEnqueuer interface {
	EnqueueStockRefresh(ctx context.Context, session string) (*asynq.TaskInfo, error)
}

// StockRefreshJob applies the scheduled stock reconciliation pass to carts.
type StockRefreshJob struct {
	refresher CartRefresher
	sessions  SessionLister
	enqueuer  RefreshEnqueuer
	logger    *slog.Logger
}

// NewStockRefreshJob constructs the job.
func NewStockRefreshJob(refresher CartRefresher, sessions SessionLister, enqueuer RefreshEnqueuer, logger *slog.Logger) *StockRefreshJob {
	return &StockRefreshJob{refresher: refresher, sessions: sessions, enqueuer: enqueuer, logger: logger}
}

// HandleRefresh re-consolidates one session's cart. Per-item stock fetch
// failures are absorbed inside the consolidator; only store failures retry.
func (j *StockRefreshJob) HandleRefresh(ctx context.Context, t *asynq.Task) error {
	var payload StockRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if err := j.refresher.Refresh(ctx, payload.Session); err != nil {
		j.logger.Warn("cart stock refresh failed",
			slog.String("session", payload.Session), slog.Any("error", err))
		return err
	}
	return nil
}

// HandleSweep enqueues one refresh task per active cart session.
func (j *StockRefreshJob) HandleSweep(ctx context.Context, t *asynq.Task) error {
	var payload StockSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	sessions, err := j.sessions.Sessions(ctx)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if _, err := j.enqueuer.EnqueueStockRefresh(ctx, session); err != nil {
			j.logger.Warn("enqueue stock refresh failed",
				slog.String("session", session), slog.Any("error", err))
		}
	}
	j.logger.Info("cart stock sweep enqueued", slog.Int("sessions", len(sessions)))
	return nil
}
