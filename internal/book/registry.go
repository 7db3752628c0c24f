package book

import (
	"sort"
	"sync"

	"triarb/pkg/types"
)

// Registry is the concurrent symbol -> Book map shared by every stream
// connection and every strategy runner. Books are looked up in a map keyed
// by symbol; the registry lock is only held long enough to find-or-create
// a book, not across the update itself (each Book guards its own state).
type Registry struct {
	mu     sync.RWMutex
	books  map[types.Symbol]*Book
	maxLen int
}

// NewRegistry creates an empty registry. maxLen is the bounded depth
// applied to every book it creates.
func NewRegistry(maxLen int) *Registry {
	return &Registry{books: make(map[types.Symbol]*Book), maxLen: maxLen}
}

// GetOrCreate returns the book for symbol, creating it on first use.
func (r *Registry) GetOrCreate(symbol types.Symbol) *Book {
	r.mu.RLock()
	b, ok := r.books[symbol]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.books[symbol]; ok {
		return b
	}
	b = New(symbol, r.maxLen)
	r.books[symbol] = b
	return b
}

// Get returns the book for symbol without creating it.
func (r *Registry) Get(symbol types.Symbol) (*Book, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.books[symbol]
	return b, ok
}

// Tops reads the current BookTicker for each requested symbol as one
// snapshot-consistent triple: every book involved is RLock'd before any of
// their tops are read, and none is unlocked until all three have been read,
// so a writer can never land an update between the first and last read. ok
// is false if any symbol has no book yet or either side of its book is
// empty.
func (r *Registry) Tops(symbols []types.Symbol) ([]types.BookTicker, bool) {
	r.mu.RLock()
	books := make([]*Book, len(symbols))
	for i, sym := range symbols {
		books[i] = r.books[sym]
	}
	r.mu.RUnlock()

	for _, b := range books {
		if b == nil {
			return nil, false
		}
	}

	// Lock every book in a fixed order (by symbol) regardless of the
	// order requested, so two Tops calls over overlapping symbol sets
	// can never deadlock on each other.
	ordered := append([]*Book(nil), books...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].symbol < ordered[j].symbol })
	for _, b := range ordered {
		b.mu.RLock()
	}
	defer func() {
		for _, b := range ordered {
			b.mu.RUnlock()
		}
	}()

	out := make([]types.BookTicker, len(books))
	for i, b := range books {
		if len(b.bids) == 0 || len(b.asks) == 0 {
			return nil, false
		}
		out[i] = types.BookTicker{
			Symbol:      b.symbol,
			BidPrice:    b.bids[0].Price,
			BidQuantity: b.bids[0].Amount,
			AskPrice:    b.asks[0].Price,
			AskQuantity: b.asks[0].Amount,
		}
	}
	return out, true
}
