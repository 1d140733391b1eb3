package cart

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// StockFetcher resolves current stock for a catalog product.
type StockFetcher interface {
	CurrentStock(ctx context.Context, productID string) (int, error)
}

// Consolidator folds raw entries into canonical line items and reconciles
// them against live inventory.
type Consolidator struct {
	stock  StockFetcher
	logger *slog.Logger
}

// NewConsolidator constructs a Consolidator.
func NewConsolidator(stock StockFetcher, logger *slog.Logger) *Consolidator {
	return &Consolidator{stock: stock, logger: logger}
}

// Merge groups entries by merge key and folds each group into one item:
// quantities sum, stock takes the most restrictive defined value, the
// earliest capture time wins, display fields come from the first entry, and
// OriginalIDs accumulates every folded entry id. Merge is pure and is a
// fixed point on its own output.
func (c *Consolidator) Merge(items []LineItem) []LineItem {
	merged := make([]LineItem, 0, len(items))
	index := make(map[string]int, len(items))

	for _, item := range items {
		key := item.MergeKey()
		at, ok := index[key]
		if !ok {
			head := item
			head.OriginalIDs = append([]string(nil), item.EntryIDs()...)
			index[key] = len(merged)
			merged = append(merged, head)
			continue
		}
		head := &merged[at]
		head.Quantity += item.Quantity
		head.OriginalIDs = append(head.OriginalIDs, item.EntryIDs()...)
		if s, ok := item.KnownStock(); ok {
			if cur, has := head.KnownStock(); !has || s < cur {
				stock := s
				head.Stock = &stock
			}
		}
		if item.AddedAt.Before(head.AddedAt) {
			head.AddedAt = item.AddedAt
		}
	}
	return merged
}

// fetchStock issues one gateway request per distinct resolvable product id
// and waits for all of them to settle. A failed fetch is logged and absent
// from the result; every line sharing a product id observes the same value.
func (c *Consolidator) fetchStock(ctx context.Context, items []LineItem) map[string]int {
	ids := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.ProductID != "" {
			ids[item.ProductID] = struct{}{}
		}
	}

	var mu sync.Mutex
	levels := make(map[string]int, len(ids))
	var g errgroup.Group
	for id := range ids {
		id := id
		g.Go(func() error {
			current, err := c.stock.CurrentStock(ctx, id)
			if err != nil {
				c.logger.Warn("stock fetch failed, keeping last known value",
					slog.String("product", id), slog.Any("error", err))
				return nil
			}
			mu.Lock()
			levels[id] = current
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return levels
}

// Reconcile refreshes stock for every item with a resolvable product id,
// fanning out one gateway request per distinct product and waiting for all
// to settle. A fetch failure is isolated to its product: last known stock is
// kept and quantity is untouched. A successful fetch records the new stock
// and clamps quantity down when it exceeds it.
func (c *Consolidator) Reconcile(ctx context.Context, items []LineItem) []LineItem {
	out := append([]LineItem(nil), items...)
	levels := c.fetchStock(ctx, out)

	// Clamping can zero out a line entirely.
	kept := out[:0]
	for _, item := range out {
		if current, ok := levels[item.ProductID]; ok {
			stock := current
			item.Stock = &stock
			if item.Quantity > current {
				item.Quantity = current
			}
		}
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	return kept
}

// Consolidate merges then reconciles. The result is written back to the
// store by the caller so a subsequent load observes the merged shape.
func (c *Consolidator) Consolidate(ctx context.Context, items []LineItem) []LineItem {
	return c.Reconcile(ctx, c.Merge(items))
}

// Revalidate performs the mandatory pre-submission pass: fresh stock for
// every item, same fan-out and failure isolation as Reconcile, but instead
// of clamping it reports every item whose requested quantity no longer fits.
// The returned items carry refreshed stock values regardless.
func (c *Consolidator) Revalidate(ctx context.Context, items []LineItem) ([]LineItem, []StockMismatch) {
	out := append([]LineItem(nil), items...)
	levels := c.fetchStock(ctx, out)

	var mismatches []StockMismatch
	for i := range out {
		current, ok := levels[out[i].ProductID]
		if !ok {
			continue
		}
		stock := current
		out[i].Stock = &stock
		if out[i].Quantity > current {
			mismatches = append(mismatches, StockMismatch{
				ProductName: out[i].ProductName,
				Requested:   out[i].Quantity,
				Available:   current,
			})
		}
	}
	return out, mismatches
}
