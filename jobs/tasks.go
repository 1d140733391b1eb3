package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCartStockRefresh re-consolidates one session's cart against live
	// inventory, applying the silent stock clamp.
	TaskCartStockRefresh = "cart:stock_refresh"
	// TaskCartStockSweep fans a refresh task out to every active cart.
	TaskCartStockSweep = "cart:stock_sweep"
)

// CartRefresher re-consolidates a single session's cart.
type CartRefresher interface {
	Refresh(ctx context.Context, session string) error
}

// SessionLister enumerates sessions currently holding a cart.
type SessionLister interface {
	Sessions(ctx context.Context) ([]string, error)
}

// StockRefreshPayload identifies the cart to refresh.
type StockRefreshPayload struct {
	Session string `json:"session"`
}

// NewStockRefreshTask constructs a refresh task for one session.
func NewStockRefreshTask(session string) (*asynq.Task, error) {
	data, err := json.Marshal(StockRefreshPayload{Session: session})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCartStockRefresh, data, asynq.Queue(QueueDefault)), nil
}

// StockSweepPayload carries scheduling metadata for the periodic sweep.
type StockSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewStockSweepTask constructs the periodic sweep task.
func NewStockSweepTask(at time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(StockSweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCartStockSweep, data, asynq.Queue(QueueDefault)), nil
}
