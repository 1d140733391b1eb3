// Package cart implements the consolidation engine for raw line-item
// additions accumulated across browsing sessions.
package cart

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Priority tags an entry with its fulfilment urgency.
type Priority string

const (
	PriorityNormal    Priority = "normal"
	PriorityUrgent    Priority = "urgent"
	PriorityRush      Priority = "rush"
	PriorityEmergency Priority = "emergency"
)

// LineItem is a cart entry as persisted in the session store. Entries start
// life raw (one per catalog interaction) and are folded together by the
// Consolidator; a folded entry carries the ids of every raw entry it absorbed
// in OriginalIDs.
type LineItem struct {
	EntryID     string          `json:"entryId"`
	ProductID   string          `json:"productId,omitempty"`
	ProductName string          `json:"productName"`
	Brand       string          `json:"brand,omitempty"`
	Category    string          `json:"category,omitempty"`
	Employee    string          `json:"employee"`
	Company     string          `json:"company"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	VATRate     decimal.Decimal `json:"vatRate"`
	Stock       *int            `json:"stock,omitempty"`
	Priority    Priority        `json:"orderStatus"`
	AddedAt     time.Time       `json:"addedAt"`
	OriginalIDs []string        `json:"originalIds,omitempty"`
}

// ProductKey identifies which entries merge together: the product id when the
// entry resolves to a catalog product, otherwise the free-text product name.
func (li LineItem) ProductKey() string {
	if li.ProductID != "" {
		return li.ProductID
	}
	return li.ProductName
}

// MergeKey is the full consolidation key; entries added by different
// salespeople never merge.
func (li LineItem) MergeKey() string {
	return li.ProductKey() + "|" + li.Employee
}

// EntryIDs returns every raw entry id the item stands for, the item's own id
// included.
func (li LineItem) EntryIDs() []string {
	if len(li.OriginalIDs) > 0 {
		return li.OriginalIDs
	}
	return []string{li.EntryID}
}

// KnownStock reports the cached stock level, false when never observed.
func (li LineItem) KnownStock() (int, bool) {
	if li.Stock == nil {
		return 0, false
	}
	return *li.Stock, true
}

// Sentinel errors for the cart core.
var (
	// ErrItemNotFound indicates the referenced line item is not in the cart.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrStoreUnavailable wraps persistence failures; fatal for the session.
	ErrStoreUnavailable = errors.New("cart store unavailable")
)

// StockExceededError rejects a manual quantity change beyond available stock.
// The targeted item is left unchanged.
type StockExceededError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("stock exceeded for %s: requested %d, available %d", e.ProductName, e.Requested, e.Available)
}

// StockMismatch records one item whose requested quantity no longer fits the
// freshly observed stock.
type StockMismatch struct {
	ProductName string `json:"productName"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// StockMismatchError aborts a submission before any network write; it carries
// the full batch of mismatches found by the pre-submission revalidation pass.
type StockMismatchError struct {
	Mismatches []StockMismatch
}

func (e *StockMismatchError) Error() string {
	return fmt.Sprintf("stock changed for %d cart item(s)", len(e.Mismatches))
}
