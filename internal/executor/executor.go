// Package executor runs the three-leg trade for a detected arbitrage
// opportunity: buy/sell the first leg IOC to establish a position, then work
// the remaining two legs as tolerance-padded limit orders that cross the
// book. There is no unwind path — if leg 2 or 3 fails, whatever filled on
// the earlier legs stays filled, and the caller observes a typed leg error.
package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"triarb/internal/account"
	"triarb/internal/errs"
	"triarb/internal/exchange"
	"triarb/pkg/types"
)

// fillPollBudget bounds how long sendAndCheckFilled waits for a leg to fill:
// 10,000 iterations at 1ms apart, roughly 10 seconds worst case.
const fillPollBudget = 10000

var one = decimal.NewFromInt(1)

// OutcomeReporter receives the terminal outcome (nil or a leg error) of
// every completed trade, keyed by triangle. Satisfied by *risk.Guard.
type OutcomeReporter interface {
	Report(triangleKey string, err error)
}

// Executor submits and tracks the orders for every opportunity it is handed,
// whichever triangle it comes from.
type Executor struct {
	client     *exchange.Client
	state      *account.State
	tolerance  decimal.Decimal
	guard      OutcomeReporter
	logger     *slog.Logger
	pollBudget int // overridable in tests; production always uses fillPollBudget
}

// New creates an Executor. tolerance pads legs 2 and 3's limit price so they
// cross the resting book instead of waiting to be hit (e.g. 0.001 = 0.1%).
// guard may be nil, in which case trade outcomes are not reported anywhere.
func New(client *exchange.Client, state *account.State, tolerance float64, guard OutcomeReporter, logger *slog.Logger) *Executor {
	return &Executor{
		client:     client,
		state:      state,
		tolerance:  decimal.NewFromFloat(tolerance),
		guard:      guard,
		logger:     logger.With("component", "executor"),
		pollBudget: fillPollBudget,
	}
}

// HandleArbitrage spawns a goroutine that runs opp's three legs to
// completion (or failure) and returns immediately; callers do not block on
// the trade's outcome.
func (e *Executor) HandleArbitrage(ctx context.Context, opp types.Opportunity) {
	go func() {
		var err error
		switch opp.Direction {
		case types.DirectionForward:
			_, err = e.forwardTrade(ctx, opp)
		case types.DirectionReverse:
			_, err = e.reverseTrade(ctx, opp)
		default:
			err = errs.New(errs.KindUnknown)
		}

		if e.guard != nil {
			e.guard.Report(opp.TriangleKey, err)
		}

		if err != nil {
			e.logger.Error("arbitrage trade failed", "direction", opp.Direction, "description", opp.Description, "error", err)
			return
		}
		e.logger.Info("arbitrage trade completed", "direction", opp.Direction, "description", opp.Description)
	}()
}

// legResult names the three filled orders of a completed trade.
type legResult struct {
	First  types.Order
	Second types.Order
	Third  types.Order
}

// forwardTrade runs the A->B->C->A cycle: buy A/B, sell B/C, buy C/A.
func (e *Executor) forwardTrade(ctx context.Context, opp types.Opportunity) (legResult, error) {
	firstPrice := opp.Booktickers[0].AskPrice
	firstAmount := opp.MaxAmount.Div(firstPrice)

	first := types.NewOrder()
	first.Symbol = opp.Symbols[0]
	first.Side = types.SideBuy
	first.OrderType = types.OrderTypeIOC
	first.Price = firstPrice
	first.Amount = firstAmount
	first.Label = "[#1 Order]"

	firstResult, err := e.sendAndCheckFilled(ctx, first, 1)
	if err != nil {
		return legResult{}, err
	}

	secondPrice := opp.Booktickers[1].BidPrice.Mul(one.Sub(e.tolerance))
	second := types.NewOrder()
	second.Symbol = opp.Symbols[1]
	second.Side = types.SideSell
	second.OrderType = types.OrderTypeLimit
	second.Price = secondPrice
	second.Amount = firstResult.FilledAmount
	second.Label = "[#2 Order]"

	secondResult, err := e.sendAndCheckFilled(ctx, second, 2)
	if err != nil {
		return legResult{}, err
	}

	thirdPrice := opp.Booktickers[2].AskPrice.Mul(one.Add(e.tolerance))
	thirdAmount := secondResult.FilledAmount.Mul(secondResult.FilledPrice).Div(opp.Booktickers[2].AskPrice)
	third := types.NewOrder()
	third.Symbol = opp.Symbols[2]
	third.Side = types.SideBuy
	third.OrderType = types.OrderTypeLimit
	third.Price = thirdPrice
	third.Amount = thirdAmount
	third.Label = "[#3 Order]"

	thirdResult, err := e.sendAndCheckFilled(ctx, third, 3)
	if err != nil {
		return legResult{}, err
	}

	return legResult{First: firstResult, Second: secondResult, Third: thirdResult}, nil
}

// reverseTrade runs the A->C->B->A cycle: buy C/B, sell C/A, sell A/B.
func (e *Executor) reverseTrade(ctx context.Context, opp types.Opportunity) (legResult, error) {
	firstPrice := opp.Booktickers[1].AskPrice
	firstAmount := opp.MaxAmount.Mul(opp.Booktickers[0].AskPrice).Div(firstPrice)

	first := types.NewOrder()
	first.Symbol = opp.Symbols[1]
	first.Side = types.SideBuy
	first.OrderType = types.OrderTypeIOC
	first.Price = firstPrice
	first.Amount = firstAmount
	first.Label = "[#1 Order]"

	firstResult, err := e.sendAndCheckFilled(ctx, first, 1)
	if err != nil {
		return legResult{}, err
	}

	secondPrice := opp.Booktickers[2].BidPrice.Mul(one.Sub(e.tolerance))
	second := types.NewOrder()
	second.Symbol = opp.Booktickers[2].Symbol
	second.Side = types.SideSell
	second.OrderType = types.OrderTypeLimit
	second.Price = secondPrice
	second.Amount = firstResult.FilledAmount
	second.Label = "[#2 Order]"

	secondResult, err := e.sendAndCheckFilled(ctx, second, 2)
	if err != nil {
		return legResult{}, err
	}

	thirdPrice := opp.Booktickers[0].AskPrice.Mul(one.Sub(e.tolerance))
	thirdAmount := secondResult.FilledAmount.Mul(secondResult.FilledPrice)
	third := types.NewOrder()
	third.Symbol = opp.Booktickers[0].Symbol
	third.Side = types.SideSell
	third.OrderType = types.OrderTypeLimit
	third.Price = thirdPrice
	third.Amount = thirdAmount
	third.Label = "[#3 Order]"

	thirdResult, err := e.sendAndCheckFilled(ctx, third, 3)
	if err != nil {
		return legResult{}, err
	}

	return legResult{First: firstResult, Second: secondResult, Third: thirdResult}, nil
}

// sendAndCheckFilled submits order and polls the local user-data state for
// up to fillPollBudget iterations for a filled record keyed by the
// exchange-assigned order ID. leg identifies the 1-indexed position in the
// cycle, used to produce the matching *TriSendError/*TriFilledError kind.
func (e *Executor) sendAndCheckFilled(ctx context.Context, order types.Order, leg int) (types.Order, error) {
	ack, err := e.client.CreateOrder(ctx, order)
	if err != nil {
		e.logger.Warn("order send failed", "label", order.Label, "error", err)
		return types.Order{}, errs.LegSendError(leg)
	}
	e.logger.Info("order send succeeded", "label", order.Label, "order_id", ack.OrderID)

	for i := 0; i < e.pollBudget; i++ {
		if filled, err := e.state.CheckFilled(ack.OrderID); err == nil {
			e.logger.Info("order filled", "label", order.Label, "order_id", ack.OrderID)
			return filled, nil
		}

		select {
		case <-ctx.Done():
			return types.Order{}, errs.LegFilledError(leg)
		case <-time.After(time.Millisecond):
		}
	}

	e.logger.Warn("order did not fill within poll budget", "label", order.Label, "order_id", ack.OrderID)
	return types.Order{}, errs.LegFilledError(leg)
}
