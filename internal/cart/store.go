package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventKind classifies store change notifications.
type EventKind string

const (
	// EventMutated fires after any write that leaves items in the cart.
	EventMutated EventKind = "mutated"
	// EventCleared fires exactly once when a cart is emptied wholesale.
	EventCleared EventKind = "cleared"
)

// Event is broadcast on every store change so cart-size indicators elsewhere
// can refresh without polling.
type Event struct {
	Session string    `json:"session"`
	Kind    EventKind `json:"kind"`
	Items   int       `json:"items"`
}

// Store is the single source of truth for raw cart entries between page
// loads. One serialized slot per session; consolidated and priced views are
// always recomputed from it, never persisted independently.
type Store interface {
	Load(ctx context.Context, session string) ([]LineItem, error)
	Replace(ctx context.Context, session string, items []LineItem) error
	Append(ctx context.Context, session string, item LineItem) error
	Clear(ctx context.Context, session string) error
	Sessions(ctx context.Context) ([]string, error)
}

const (
	cartKeyPrefix = "cart:items:"
	eventsChannel = "cart:events"
)

// RedisStore persists each session's cart in a single redis key and publishes
// change events on a shared channel.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs the store. A zero ttl keeps carts forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func cartKey(session string) string {
	return cartKeyPrefix + session
}

// Load reads the session's raw entries. A missing slot is an empty cart.
func (s *RedisStore) Load(ctx context.Context, session string) ([]LineItem, error) {
	raw, err := s.client.Get(ctx, cartKey(session)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrStoreUnavailable, session, err)
	}
	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrStoreUnavailable, session, err)
	}
	return items, nil
}

// Replace overwrites the slot with the given items and notifies listeners.
// An empty slice behaves as Clear.
func (s *RedisStore) Replace(ctx context.Context, session string, items []LineItem) error {
	if len(items) == 0 {
		return s.Clear(ctx, session)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrStoreUnavailable, session, err)
	}
	if err := s.client.Set(ctx, cartKey(session), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStoreUnavailable, session, err)
	}
	s.publish(ctx, Event{Session: session, Kind: EventMutated, Items: len(items)})
	return nil
}

// Append adds one raw entry to the slot. The store is single-writer within a
// session, so read-modify-write is sufficient.
func (s *RedisStore) Append(ctx context.Context, session string, item LineItem) error {
	items, err := s.Load(ctx, session)
	if err != nil {
		return err
	}
	return s.Replace(ctx, session, append(items, item))
}

// Clear empties the cart atomically with a single DEL and notifies listeners
// exactly once.
func (s *RedisStore) Clear(ctx context.Context, session string) error {
	if err := s.client.Del(ctx, cartKey(session)).Err(); err != nil {
		return fmt.Errorf("%w: clear %s: %v", ErrStoreUnavailable, session, err)
	}
	s.publish(ctx, Event{Session: session, Kind: EventCleared})
	return nil
}

// Sessions lists every session currently holding a cart.
func (s *RedisStore) Sessions(ctx context.Context) ([]string, error) {
	var sessions []string
	iter := s.client.Scan(ctx, 0, cartKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		sessions = append(sessions, strings.TrimPrefix(iter.Val(), cartKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan sessions: %v", ErrStoreUnavailable, err)
	}
	return sessions, nil
}

// Subscribe delivers store change events until ctx is done. Delivery is
// best-effort; cross-tab consumers re-read the slot on each event.
func (s *RedisStore) Subscribe(ctx context.Context) (<-chan Event, func()) {
	sub := s.client.Subscribe(ctx, eventsChannel)
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, func() { _ = sub.Close() }
}

func (s *RedisStore) publish(ctx context.Context, ev Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	// Notification loss is tolerable; the slot itself stays authoritative.
	_ = s.client.Publish(ctx, eventsChannel, raw).Err()
}
