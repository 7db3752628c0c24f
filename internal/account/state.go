// Package account holds the engine's view of its own orders and balances,
// kept current by the authenticated user stream and queried by the
// executor while it waits for legs to fill.
package account

import (
	"sync"

	"triarb/internal/errs"
	"triarb/pkg/types"
)

// State is the concurrent order/balance registry for one exchange account.
// One event from the user stream may update many orders or balances at
// once; ApplyOrderMessage/ApplyBalanceMessage make one UpsertOrder/
// UpsertBalance call per entry, and each call takes the mutex on its own,
// so a multi-entry event is not applied as one atomic batch.
type State struct {
	mu       sync.RWMutex
	orders   map[string]types.Order
	balances map[string]types.CurrencyBalance
}

// New creates an empty account state.
func New() *State {
	return &State{
		orders:   make(map[string]types.Order),
		balances: make(map[string]types.CurrencyBalance),
	}
}

// UpsertOrder stores order, keyed by OrderID, last-writer-wins. An
// incoming order strictly older than the currently stored one (by
// UpdatedTS) is discarded, since the user stream offers no ordering
// guarantee across reconnects.
func (s *State) UpsertOrder(o types.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.orders[o.OrderID]; ok && o.UpdatedTS < existing.UpdatedTS {
		return
	}
	s.orders[o.OrderID] = o
}

// UpsertBalance stores bal, keyed by Currency, last-writer-wins with the
// same stale-update guard as UpsertOrder.
func (s *State) UpsertBalance(bal types.CurrencyBalance) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.balances[bal.Currency]; ok && bal.UpdatedTS < existing.UpdatedTS {
		return
	}
	s.balances[bal.Currency] = bal
}

// QueryOrder returns the order for orderID, or KindOrderNotFound if it has
// never been observed.
func (s *State) QueryOrder(orderID string) (types.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderID]
	if !ok {
		return types.Order{}, errs.OrderNotFound(orderID)
	}
	return o, nil
}

// CheckFilled returns the order if its status is FILLED, or
// KindOrderNotFilled otherwise.
func (s *State) CheckFilled(orderID string) (types.Order, error) {
	o, err := s.QueryOrder(orderID)
	if err != nil {
		return types.Order{}, err
	}
	if o.Status != types.OrderStatusFilled {
		return types.Order{}, errs.New(errs.KindOrderNotFilled)
	}
	return o, nil
}

// Balance returns the balance for currency, or the zero value and false if
// it has never been observed.
func (s *State) Balance(currency string) (types.CurrencyBalance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bal, ok := s.balances[currency]
	return bal, ok
}
