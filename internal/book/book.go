// Package book implements the local mirror of an exchange's L2 order book:
// a bounded-depth bid/ask ladder kept current by snapshot and incremental
// diff application, plus a symbol-keyed registry guarding concurrent
// access from stream goroutines and reader goroutines.
package book

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"triarb/pkg/types"
)

// DefaultMaxLength is the default bounded depth per side.
const DefaultMaxLength = 1000

// Book is one symbol's bid/ask ladder. Bids are sorted descending by price
// (best bid first); asks are sorted ascending by price (best ask first).
// Both sides are decimal-keyed, so there is no NaN/float ordering concern.
type Book struct {
	mu sync.RWMutex

	symbol    types.Symbol
	maxLength int
	bids      []types.PriceLevel
	asks      []types.PriceLevel
	updatedAt int64 // exchange-reported update timestamp, nanoseconds
}

// New creates an empty book for symbol with the given bounded depth. A
// maxLength <= 0 falls back to DefaultMaxLength.
func New(symbol types.Symbol, maxLength int) *Book {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Book{symbol: symbol, maxLength: maxLength}
}

// Symbol returns the book's symbol.
func (b *Book) Symbol() types.Symbol {
	return b.symbol
}

// ApplySnapshot replaces both sides wholesale. raw[i] = [price, amount]
// string pairs, as received over the wire.
func (b *Book) ApplySnapshot(bidsRaw, asksRaw [][]string, updatedAt int64) error {
	bids, err := parseLevels(bidsRaw)
	if err != nil {
		return fmt.Errorf("parse bids: %w", err)
	}
	asks, err := parseLevels(asksRaw)
	if err != nil {
		return fmt.Errorf("parse asks: %w", err)
	}

	sort.Slice(bids, func(i, j int) bool { return bids[i].Price.GreaterThan(bids[j].Price) })
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price.LessThan(asks[j].Price) })

	b.mu.Lock()
	defer b.mu.Unlock()

	b.bids = truncate(bids, b.maxLength)
	b.asks = truncate(asks, b.maxLength)
	b.updatedAt = updatedAt
	return nil
}

// ApplyDiff incrementally applies level changes: a zero amount removes the
// level at that price, any other amount inserts or overwrites it. Bids
// stay sorted descending, asks ascending; each side is re-truncated to
// maxLength afterward, pruning the worst level (lowest bid, highest ask).
func (b *Book) ApplyDiff(bidsRaw, asksRaw [][]string, updatedAt int64) error {
	bidUpdates, err := parseLevels(bidsRaw)
	if err != nil {
		return fmt.Errorf("parse bids: %w", err)
	}
	askUpdates, err := parseLevels(asksRaw)
	if err != nil {
		return fmt.Errorf("parse asks: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, lvl := range bidUpdates {
		b.bids = upsertLevel(b.bids, lvl, true)
	}
	for _, lvl := range askUpdates {
		b.asks = upsertLevel(b.asks, lvl, false)
	}
	b.bids = truncate(b.bids, b.maxLength)
	b.asks = truncate(b.asks, b.maxLength)
	b.updatedAt = updatedAt
	return nil
}

// TopBids returns up to n best bids, best first.
func (b *Book) TopBids(n int) []types.PriceLevel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return topN(b.bids, n)
}

// TopAsks returns up to n best asks, best first.
func (b *Book) TopAsks(n int) []types.PriceLevel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return topN(b.asks, n)
}

// BookTicker returns the current best bid/ask. ok is false if either side
// is empty.
func (b *Book) BookTicker() (types.BookTicker, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.bids) == 0 || len(b.asks) == 0 {
		return types.BookTicker{}, false
	}
	return types.BookTicker{
		Symbol:      b.symbol,
		BidPrice:    b.bids[0].Price,
		BidQuantity: b.bids[0].Amount,
		AskPrice:    b.asks[0].Price,
		AskQuantity: b.asks[0].Amount,
	}, true
}

// UpdatedAt returns the exchange timestamp of the last applied update.
func (b *Book) UpdatedAt() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.updatedAt
}

func topN(levels []types.PriceLevel, n int) []types.PriceLevel {
	if n <= 0 || n > len(levels) {
		n = len(levels)
	}
	out := make([]types.PriceLevel, n)
	copy(out, levels[:n])
	return out
}

// truncate drops levels past maxLength from the tail. Since both sides are
// kept sorted best-first, the tail is always the worst level: the lowest
// bid or the highest ask.
func truncate(levels []types.PriceLevel, maxLength int) []types.PriceLevel {
	if len(levels) > maxLength {
		return levels[:maxLength]
	}
	return levels
}

// upsertLevel inserts, overwrites, or removes a single price level while
// preserving sort order (descending for bids, ascending for asks).
func upsertLevel(levels []types.PriceLevel, lvl types.PriceLevel, descending bool) []types.PriceLevel {
	// atOrPast reports whether levels[i] has reached the insertion point:
	// for descending (bids), the first level whose price is <= lvl.Price;
	// for ascending (asks), the first level whose price is >= lvl.Price.
	atOrPast := func(i int) bool {
		if descending {
			return !levels[i].Price.GreaterThan(lvl.Price)
		}
		return !levels[i].Price.LessThan(lvl.Price)
	}
	idx := sort.Search(len(levels), atOrPast)

	if idx < len(levels) && levels[idx].Price.Equal(lvl.Price) {
		if lvl.Amount.IsZero() {
			return append(levels[:idx], levels[idx+1:]...)
		}
		levels[idx].Amount = lvl.Amount
		return levels
	}

	if lvl.Amount.IsZero() {
		return levels
	}

	levels = append(levels, types.PriceLevel{})
	copy(levels[idx+1:], levels[idx:])
	levels[idx] = lvl
	return levels
}

func parseLevels(raw [][]string) ([]types.PriceLevel, error) {
	out := make([]types.PriceLevel, 0, len(raw))
	for _, pair := range raw {
		if len(pair) != 2 {
			return nil, fmt.Errorf("level must be [price, amount], got %v", pair)
		}
		price, err := decimal.NewFromString(pair[0])
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", pair[0], err)
		}
		amount, err := decimal.NewFromString(pair[1])
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", pair[1], err)
		}
		out = append(out, types.PriceLevel{Price: price, Amount: amount})
	}
	return out, nil
}
