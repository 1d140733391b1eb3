package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	carts  map[string][]LineItem
	events []Event
	fail   error
}

func newMemStore() *memStore {
	return &memStore{carts: make(map[string][]LineItem)}
}

func (m *memStore) Load(ctx context.Context, session string) ([]LineItem, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	return append([]LineItem(nil), m.carts[session]...), nil
}

func (m *memStore) Replace(ctx context.Context, session string, items []LineItem) error {
	if m.fail != nil {
		return m.fail
	}
	if len(items) == 0 {
		return m.Clear(ctx, session)
	}
	m.carts[session] = append([]LineItem(nil), items...)
	m.events = append(m.events, Event{Session: session, Kind: EventMutated, Items: len(items)})
	return nil
}

func (m *memStore) Append(ctx context.Context, session string, item LineItem) error {
	items, err := m.Load(ctx, session)
	if err != nil {
		return err
	}
	return m.Replace(ctx, session, append(items, item))
}

func (m *memStore) Clear(ctx context.Context, session string) error {
	if m.fail != nil {
		return m.fail
	}
	delete(m.carts, session)
	m.events = append(m.events, Event{Session: session, Kind: EventCleared})
	return nil
}

func (m *memStore) Sessions(ctx context.Context) ([]string, error) {
	var sessions []string
	for s := range m.carts {
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (m *memStore) clearedCount(session string) int {
	n := 0
	for _, ev := range m.events {
		if ev.Session == session && ev.Kind == EventCleared {
			n++
		}
	}
	return n
}

const session = "sess-1"

func newTestService(store Store, stock *stubStock) *Service {
	consolidator := NewConsolidator(stock, testLogger())
	return NewService(store, consolidator, stock, DefaultPricingConfig(), testLogger())
}

func TestViewConsolidatesAndWritesBack(t *testing.T) {
	store := newMemStore()
	stock := newStubStock()
	stock.levels["P1"] = 100
	svc := newTestService(store, stock)
	ctx := context.Background()

	store.carts[session] = []LineItem{
		entry("e1", "P1", "Basmati Rice", "E1", 2),
		entry("e2", "P1", "Basmati Rice", "E1", 3),
	}

	view, err := svc.View(ctx, session)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)

	// The merged shape was persisted: a second load is already canonical.
	stored, err := store.Load(ctx, session)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.ElementsMatch(t, []string{"e1", "e2"}, stored[0].OriginalIDs)
}

func TestSetQuantityRejectsBeyondStock(t *testing.T) {
	store := newMemStore()
	stock := newStubStock()
	svc := newTestService(store, stock)
	ctx := context.Background()

	store.carts[session] = []LineItem{
		entry("e1", "P1", "Basmati Rice", "E1", 2, func(li *LineItem) { li.Stock = intPtr(4) }),
	}

	err := svc.SetQuantity(ctx, session, "e1", 10)
	var exceeded *StockExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 10, exceeded.Requested)
	assert.Equal(t, 4, exceeded.Available)

	stored, _ := store.Load(ctx, session)
	assert.Equal(t, 2, stored[0].Quantity, "rejected mutation must not change state")
}

func TestSetQuantityRefreshesUnknownStock(t *testing.T) {
	store := newMemStore()
	stock := newStubStock()
	stock.levels["P1"] = 3
	svc := newTestService(store, stock)
	ctx := context.Background()

	store.carts[session] = []LineItem{entry("e1", "P1", "Basmati Rice", "E1", 1)}

	err := svc.SetQuantity(ctx, session, "e1", 5)
	var exceeded *StockExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 3, exceeded.Available)

	require.NoError(t, svc.SetQuantity(ctx, session, "e1", 3))
	stored, _ := store.Load(ctx, session)
	assert.Equal(t, 3, stored[0].Quantity)
	got, _ := stored[0].KnownStock()
	assert.Equal(t, 3, got)
}

func TestSetQuantityBelowOneRemoves(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, newStubStock())
	ctx := context.Background()

	store.carts[session] = []LineItem{entry("e1", "P1", "Basmati Rice", "E1", 2)}

	require.NoError(t, svc.SetQuantity(ctx, session, "e1", 0))
	stored, _ := store.Load(ctx, session)
	assert.Empty(t, stored)
}

func TestRemoveCascadesThroughOriginalIDs(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, newStubStock())
	ctx := context.Background()

	store.carts[session] = []LineItem{
		entry("e1", "P1", "Basmati Rice", "E1", 2),
		entry("e2", "P1", "Basmati Rice", "E1", 3),
		entry("e3", "P2", "Olive Oil", "E1", 1),
	}

	// Consolidate first so the stored shape is merged.
	_, err := svc.View(ctx, session)
	require.NoError(t, err)

	before, _ := store.Load(ctx, session)
	require.Len(t, before, 2)

	require.NoError(t, svc.Remove(ctx, session, "e1"))

	after, _ := store.Load(ctx, session)
	require.Len(t, after, 1)
	assert.Equal(t, "Olive Oil", after[0].ProductName)
}

func TestRemoveRawDuplicatesTogether(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, newStubStock())
	ctx := context.Background()

	// Raw, never consolidated: removing the merged head still deletes every
	// contributing entry.
	store.carts[session] = []LineItem{
		entry("e1", "P1", "Basmati Rice", "E1", 2),
		entry("e2", "P1", "Basmati Rice", "E1", 3),
	}

	require.NoError(t, svc.Remove(ctx, session, "e1"))
	stored, _ := store.Load(ctx, session)
	assert.Empty(t, stored)
}

func TestRemoveUnknownItem(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, newStubStock())

	err := svc.Remove(context.Background(), session, "missing")
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestRevalidatePersistsRefreshedStock(t *testing.T) {
	store := newMemStore()
	stock := newStubStock()
	stock.levels["P1"] = 0
	svc := newTestService(store, stock)
	ctx := context.Background()

	store.carts[session] = []LineItem{entry("e1", "P1", "Basmati Rice", "E1", 2)}

	items, mismatches, err := svc.Revalidate(ctx, session)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, 2, items[0].Quantity, "revalidation never clamps")

	stored, _ := store.Load(ctx, session)
	require.Len(t, stored, 1)
	got, _ := stored[0].KnownStock()
	assert.Equal(t, 0, got, "refreshed stock must be persisted")
}

func TestStoreFailureIsSurfaced(t *testing.T) {
	store := newMemStore()
	store.fail = errors.New("redis down")
	svc := newTestService(store, newStubStock())

	_, err := svc.View(context.Background(), session)
	require.Error(t, err)
}
