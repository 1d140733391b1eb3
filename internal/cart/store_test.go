package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	items, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, items, "missing slot is an empty cart")

	require.NoError(t, store.Append(ctx, "s1", entry("e1", "P1", "Basmati Rice", "E1", 2)))
	require.NoError(t, store.Append(ctx, "s1", entry("e2", "P2", "Olive Oil", "E1", 1)))

	items, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "e1", items[0].EntryID)
	assert.True(t, items[0].UnitPrice.Equal(entry("e1", "P1", "Basmati Rice", "E1", 2).UnitPrice))
}

func TestRedisStoreClearEmptiesSlot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", entry("e1", "P1", "Basmati Rice", "E1", 2)))
	require.NoError(t, store.Clear(ctx, "s1"))

	items, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRedisStoreSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", entry("e1", "P1", "Basmati Rice", "E1", 2)))
	require.NoError(t, store.Append(ctx, "s2", entry("e2", "P2", "Olive Oil", "E2", 1)))

	sessions, err := store.Sessions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, sessions)
}

func TestRedisStorePublishesChangeEvents(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, stop := store.Subscribe(ctx)
	defer stop()
	// Give the subscriber a moment to attach.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, store.Append(ctx, "s1", entry("e1", "P1", "Basmati Rice", "E1", 2)))
	require.NoError(t, store.Clear(ctx, "s1"))

	var got []Event
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-events:
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out waiting for events, have %d", len(got))
		}
	}

	assert.Equal(t, EventMutated, got[0].Kind)
	assert.Equal(t, 1, got[0].Items)
	assert.Equal(t, EventCleared, got[1].Kind)
	assert.Equal(t, "s1", got[1].Session)
}
