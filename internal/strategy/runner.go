// Package strategy runs one reconnecting book subscription per configured
// triangle and turns its updates into arbitrage opportunities.
//
// Each Runner owns a stream.Client subscribed to its triangle's three
// symbols and evaluates the cycle on every inbound book frame, generalizing
// the hard-coded symbols_list loop in the original StrategyRunner into one
// goroutine per [[triangles]] entry.
package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"triarb/internal/arbitrage"
	"triarb/internal/book"
	"triarb/internal/stream"
	"triarb/pkg/types"
)

// bookDepth is the order-book subscription depth requested for every
// symbol; the evaluator only ever looks at top-of-book.
const bookDepth = 1

// opportunityChanCapacity bounds how many undelivered opportunities a
// runner will hold before it starts dropping them.
const opportunityChanCapacity = 100

// CooldownChecker reports whether a triangle is currently cooled down
// after repeated leg failures, so the runner can stop emitting
// opportunities for it. Satisfied by *risk.Guard.
type CooldownChecker interface {
	IsCooledDown(triangleKey string) bool
}

// Runner subscribes to one triangle's three order books and emits
// profitable cycles on Opportunities().
type Runner struct {
	key     string // canonical triangle key, e.g. "BTC_USDT/BTC_TWD/USDT_TWD"
	symbols [3]types.Symbol

	registry *book.Registry
	stream   *stream.Client
	fee      decimal.Decimal
	guard    CooldownChecker

	out    chan types.Opportunity
	logger *slog.Logger
}

// NewRunner builds a Runner for the three symbols, in cycle order. registry
// is the process-wide book registry shared by every runner. guard may be
// nil, in which case the runner never suppresses opportunities.
func NewRunner(wsMarketURL string, symbols [3]types.Symbol, registry *book.Registry, fee decimal.Decimal, guard CooldownChecker, logger *slog.Logger) (*Runner, error) {
	key := fmt.Sprintf("%s/%s/%s", symbols[0], symbols[1], symbols[2])

	payload, err := json.Marshal(types.WSSubscribeMsg{
		Action: "sub",
		Subscriptions: []types.WSSubscriptions{
			{Channel: "book", Market: marketString(symbols[0]), Depth: bookDepth},
			{Channel: "book", Market: marketString(symbols[1]), Depth: bookDepth},
			{Channel: "book", Market: marketString(symbols[2]), Depth: bookDepth},
		},
		ID: "triarb-" + key,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal subscribe payload: %w", err)
	}

	r := &Runner{
		key:      key,
		symbols:  symbols,
		registry: registry,
		fee:      fee,
		guard:    guard,
		out:      make(chan types.Opportunity, opportunityChanCapacity),
		logger:   logger.With("component", "strategy", "triangle", key),
	}
	r.stream = stream.New(wsMarketURL, payload, r.logger)
	return r, nil
}

// Key returns the runner's canonical triangle key.
func (r *Runner) Key() string {
	return r.key
}

// Opportunities returns the channel opportunities are published on. It is
// never closed.
func (r *Runner) Opportunities() <-chan types.Opportunity {
	return r.out
}

// Run blocks, maintaining the runner's stream subscription, until ctx is
// cancelled.
func (r *Runner) Run(ctx context.Context) error {
	return r.stream.Run(ctx, r.handleFrame)
}

func (r *Runner) handleFrame(data []byte) {
	var msg types.WSBookMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		r.logger.Warn("failed to decode book frame", "error", err)
		return
	}
	if msg.Channel != "book" {
		return
	}

	symbol := types.ParseSymbol(msg.Market)
	if symbol == types.SymbolUnknown {
		r.logger.Warn("unknown market in book frame, ignoring", "market", msg.Market)
		return
	}

	b := r.registry.GetOrCreate(symbol)
	var err error
	switch msg.Event {
	case "snapshot":
		err = b.ApplySnapshot(msg.Bids, msg.Asks, msg.Timestamp)
	case "update":
		err = b.ApplyDiff(msg.Bids, msg.Asks, msg.Timestamp)
	default:
		r.logger.Warn("unknown book event, ignoring", "event", msg.Event)
		return
	}
	if err != nil {
		r.logger.Warn("failed to apply book update", "symbol", symbol, "error", err)
		return
	}

	r.evaluate()
}

func (r *Runner) evaluate() {
	if r.guard != nil && r.guard.IsCooledDown(r.key) {
		return
	}

	tops, ok := r.registry.Tops(r.symbols[:])
	if !ok {
		r.logger.Warn("no usable order book for triangle yet, skipping evaluation", "triangle", r.key)
		return
	}

	opp, err := arbitrage.Evaluate([3]types.BookTicker{tops[0], tops[1], tops[2]}, r.fee)
	if err != nil {
		r.logger.Warn("arbitrage evaluation failed", "error", err)
		return
	}
	if opp == nil {
		return
	}
	opp.TriangleKey = r.key

	select {
	case r.out <- *opp:
	default:
		r.logger.Warn("opportunity channel full, dropping opportunity", "description", opp.Description)
	}
}

func marketString(symbol types.Symbol) string {
	return strings.ToLower(strings.ReplaceAll(symbol.String(), "_", ""))
}
