package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service exposes the cart operations: the consolidated/priced view, raw
// entry additions, and the mutation controller (quantity changes, removals).
type Service struct {
	store        Store
	consolidator *Consolidator
	stock        StockFetcher
	pricing      PricingConfig
	logger       *slog.Logger
}

// NewService constructs the cart service.
func NewService(store Store, consolidator *Consolidator, stock StockFetcher, pricing PricingConfig, logger *slog.Logger) *Service {
	return &Service{
		store:        store,
		consolidator: consolidator,
		stock:        stock,
		pricing:      pricing,
		logger:       logger,
	}
}

// View holds the consolidated cart and its derived pricing.
type View struct {
	Items   []LineItem     `json:"items"`
	Pricing PricingSummary `json:"pricing"`
}

// View loads the session's entries, consolidates them against live
// inventory, writes the merged shape back so the next load observes it
// directly, and prices the result.
func (s *Service) View(ctx context.Context, session string) (*View, error) {
	items, err := s.store.Load(ctx, session)
	if err != nil {
		return nil, err
	}
	consolidated := s.consolidator.Consolidate(ctx, items)
	if !sameItems(items, consolidated) {
		if err := s.store.Replace(ctx, session, consolidated); err != nil {
			return nil, err
		}
	}
	return &View{Items: consolidated, Pricing: Price(consolidated, s.pricing)}, nil
}

// AddItemInput describes one raw addition from a catalog interaction.
// Monetary values arrive already normalized to decimals; parsing display
// strings is the caller's concern at the outer edge.
type AddItemInput struct {
	ProductID   string
	ProductName string
	Brand       string
	Category    string
	Employee    string
	Company     string
	UnitPrice   decimal.Decimal
	Quantity    int
	VATRate     decimal.Decimal
	Stock       *int
	Priority    Priority
}

// Add appends one raw entry to the session's cart and returns it with its
// assigned entry id and capture time.
func (s *Service) Add(ctx context.Context, session string, input AddItemInput) (LineItem, error) {
	if input.Priority == "" {
		input.Priority = PriorityNormal
	}
	item := LineItem{
		EntryID:     uuid.NewString(),
		ProductID:   input.ProductID,
		ProductName: input.ProductName,
		Brand:       input.Brand,
		Category:    input.Category,
		Employee:    input.Employee,
		Company:     input.Company,
		UnitPrice:   input.UnitPrice,
		Quantity:    input.Quantity,
		VATRate:     input.VATRate,
		Stock:       input.Stock,
		Priority:    input.Priority,
		AddedAt:     time.Now().UTC(),
	}
	if err := s.store.Append(ctx, session, item); err != nil {
		return LineItem{}, err
	}
	return item, nil
}

// SetQuantity changes the quantity of a consolidated item. A quantity below
// one behaves as Remove. The change is rejected with StockExceededError when
// it exceeds the available stock; the item is left unchanged in that case.
func (s *Service) SetQuantity(ctx context.Context, session, entryID string, quantity int) error {
	if quantity < 1 {
		return s.Remove(ctx, session, entryID)
	}

	items, err := s.store.Load(ctx, session)
	if err != nil {
		return err
	}
	merged := s.consolidator.Merge(items)

	at := indexOf(merged, entryID)
	if at < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, entryID)
	}
	item := &merged[at]

	available, known := item.KnownStock()
	if !known && item.ProductID != "" {
		current, err := s.stock.CurrentStock(ctx, item.ProductID)
		if err != nil {
			s.logger.Warn("stock refresh failed during quantity change",
				slog.String("product", item.ProductID), slog.Any("error", err))
		} else {
			available, known = current, true
			item.Stock = &current
		}
	}
	if known && quantity > available {
		return &StockExceededError{
			ProductName: item.ProductName,
			Requested:   quantity,
			Available:   available,
		}
	}

	item.Quantity = quantity
	return s.store.Replace(ctx, session, merged)
}

// Remove deletes a consolidated item together with every raw entry folded
// into it, then re-consolidates the store so the cart view stays canonical.
func (s *Service) Remove(ctx context.Context, session, entryID string) error {
	items, err := s.store.Load(ctx, session)
	if err != nil {
		return err
	}
	merged := s.consolidator.Merge(items)

	at := indexOf(merged, entryID)
	if at < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, entryID)
	}
	doomed := make(map[string]struct{})
	for _, id := range merged[at].EntryIDs() {
		doomed[id] = struct{}{}
	}
	doomed[merged[at].EntryID] = struct{}{}

	kept := items[:0]
	for _, item := range items {
		if containsAny(doomed, item.EntryIDs()) {
			continue
		}
		if _, gone := doomed[item.EntryID]; gone {
			continue
		}
		kept = append(kept, item)
	}
	return s.store.Replace(ctx, session, s.consolidator.Merge(kept))
}

// Refresh re-consolidates the session's cart against live inventory and
// persists the corrected shape. Used by the scheduled stock-refresh job.
func (s *Service) Refresh(ctx context.Context, session string) error {
	_, err := s.View(ctx, session)
	return err
}

// Revalidate runs the pre-submission stock pass: fresh stock for every item,
// refreshed values persisted, and the full mismatch list returned. The cart
// itself is never cleared here.
func (s *Service) Revalidate(ctx context.Context, session string) ([]LineItem, []StockMismatch, error) {
	items, err := s.store.Load(ctx, session)
	if err != nil {
		return nil, nil, err
	}
	merged := s.consolidator.Merge(items)
	refreshed, mismatches := s.consolidator.Revalidate(ctx, merged)
	if !sameItems(items, refreshed) {
		if err := s.store.Replace(ctx, session, refreshed); err != nil {
			return nil, nil, err
		}
	}
	return refreshed, mismatches, nil
}

// Clear empties the session's cart. Exposed for the submission controller.
func (s *Service) Clear(ctx context.Context, session string) error {
	return s.store.Clear(ctx, session)
}

// Pricing exposes the calculator over an already-consolidated list.
func (s *Service) Pricing(items []LineItem) PricingSummary {
	return Price(items, s.pricing)
}

func indexOf(items []LineItem, entryID string) int {
	for i, item := range items {
		if item.EntryID == entryID {
			return i
		}
		for _, id := range item.OriginalIDs {
			if id == entryID {
				return i
			}
		}
	}
	return -1
}

func containsAny(set map[string]struct{}, ids []string) bool {
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

// sameItems compares two item lists via their canonical serialization; the
// store slot is JSON so this matches what would be persisted.
func sameItems(a, b []LineItem) bool {
	if len(a) != len(b) {
		return false
	}
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ra, rb)
}
