package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRefresher struct {
	refreshed []string
	err       error
}

func (s *stubRefresher) Refresh(ctx context.Context, session string) error {
	s.refreshed = append(s.refreshed, session)
	return s.err
}

type stubSessions struct {
	sessions []string
}

func (s *stubSessions) Sessions(ctx context.Context) ([]string, error) {
	return s.sessions, nil
}

type stubEnqueuer struct {
	enqueued []string
}

func (s *stubEnqueuer) EnqueueStockRefresh(ctx context.Context, session string) (*asynq.TaskInfo, error) {
	s.enqueued = append(s.enqueued, session)
	return &asynq.TaskInfo{}, nil
}

func TestHandleRefresh(t *testing.T) {
	refresher := &stubRefresher{}
	job := NewStockRefreshJob(refresher, &stubSessions{}, &stubEnqueuer{}, slog.New(slog.DiscardHandler))

	task, err := NewStockRefreshTask("sess-1")
	require.NoError(t, err)
	require.NoError(t, job.HandleRefresh(context.Background(), task))
	assert.Equal(t, []string{"sess-1"}, refresher.refreshed)
}

func TestHandleRefreshRetriesOnStoreFailure(t *testing.T) {
	refresher := &stubRefresher{err: errors.New("redis down")}
	job := NewStockRefreshJob(refresher, &stubSessions{}, &stubEnqueuer{}, slog.New(slog.DiscardHandler))

	task, err := NewStockRefreshTask("sess-1")
	require.NoError(t, err)
	require.Error(t, job.HandleRefresh(context.Background(), task))
}

func TestHandleRefreshSkipsMalformedPayload(t *testing.T) {
	job := NewStockRefreshJob(&stubRefresher{}, &stubSessions{}, &stubEnqueuer{}, slog.New(slog.DiscardHandler))
	err := job.HandleRefresh(context.Background(), asynq.NewTask(TaskCartStockRefresh, []byte("not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleSweepEnqueuesEveryActiveCart(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	sessions := &stubSessions{sessions: []string{"s1", "s2", "s3"}}
	job := NewStockRefreshJob(&stubRefresher{}, sessions, enqueuer, slog.New(slog.DiscardHandler))

	task, err := NewStockSweepTask(time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, job.HandleSweep(context.Background(), task))
	assert.ElementsMatch(t, []string{"s1", "s2", "s3"}, enqueuer.enqueued)
}
