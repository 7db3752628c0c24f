// Package arbitrage implements the triangular-arbitrage evaluator: given the
// current top-of-book for three symbols forming a cycle A/B, B/C, C/A, it
// computes the forward and reverse round-trip returns and the feasible
// notional at current depth, and reports whichever direction is profitable.
package arbitrage

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"triarb/pkg/types"
)

var one = decimal.NewFromInt(1)

// ErrIncompleteQuotes is returned when one of the three legs is missing a
// bid or ask price needed to evaluate the cycle (e.g. an empty order book
// side), as distinct from a well-formed but unprofitable cycle.
var ErrIncompleteQuotes = errors.New("arbitrage: incomplete top-of-book for cycle")

// Evaluate inspects the three legs' top-of-book (in the order A/B, B/C, C/A)
// and returns the more profitable of the forward (A->B->C->A) or reverse
// (A->C->B->A) cycles, or nil if neither clears a value of 1 (break-even).
// fee is the per-leg taker fee rate (e.g. 0.00105) applied symmetrically in
// both directions.
func Evaluate(quotes [3]types.BookTicker, fee decimal.Decimal) (*types.Opportunity, error) {
	if quotes[0].AskPrice.IsZero() || quotes[1].AskPrice.IsZero() || quotes[2].AskPrice.IsZero() ||
		quotes[0].BidPrice.IsZero() || quotes[1].BidPrice.IsZero() || quotes[2].BidPrice.IsZero() {
		return nil, ErrIncompleteQuotes
	}

	buyFee := one.Add(fee)
	sellFee := one.Sub(fee)

	// Forward: A/B, B/C, C/A.
	ab := quotes[0].AskPrice.Mul(buyFee)
	bc := quotes[1].BidPrice.Mul(sellFee)
	ca := quotes[2].AskPrice.Mul(buyFee)
	forward := one.Div(ab).Mul(bc).Mul(one.Div(ca))

	// Reverse: A/C, C/B, B/A.
	ac := quotes[2].BidPrice.Mul(sellFee)
	cb := quotes[1].AskPrice.Mul(buyFee)
	ba := quotes[0].BidPrice.Mul(sellFee)
	reverse := ac.Mul(one.Div(cb)).Mul(ba)

	maxDepthAB := quotes[0].AskQuantity.Mul(quotes[0].AskPrice)
	maxDepthBC := quotes[1].BidQuantity.Mul(quotes[1].BidPrice.Div(quotes[2].AskPrice))
	maxDepthCA := quotes[2].AskQuantity
	maxAmountForward := minDecimal(maxDepthAB, maxDepthBC, maxDepthCA)

	maxDepthAC := quotes[2].BidQuantity
	maxDepthCB := quotes[1].AskQuantity.Mul(quotes[1].AskPrice.Div(quotes[2].BidPrice))
	maxDepthBA := quotes[0].BidQuantity.Mul(quotes[0].BidPrice)
	maxAmountReverse := minDecimal(maxDepthAC, maxDepthCB, maxDepthBA)

	switch {
	case forward.GreaterThan(reverse) && forward.GreaterThan(one):
		return &types.Opportunity{
			Description: fmt.Sprintf("forward arbitrage opportunity: %s -> %s -> %s",
				quotes[0].Symbol, quotes[1].Symbol, quotes[2].Symbol),
			Value:       forward,
			Symbols:     [3]types.Symbol{quotes[0].Symbol, quotes[1].Symbol, quotes[2].Symbol},
			Booktickers: quotes,
			Direction:   types.DirectionForward,
			MaxAmount:   maxAmountForward,
		}, nil
	case reverse.GreaterThan(one):
		return &types.Opportunity{
			Description: fmt.Sprintf("reverse arbitrage opportunity: %s -> %s -> %s",
				quotes[2].Symbol, quotes[1].Symbol, quotes[0].Symbol),
			Value:       reverse,
			Symbols:     [3]types.Symbol{quotes[2].Symbol, quotes[1].Symbol, quotes[0].Symbol},
			Booktickers: quotes,
			Direction:   types.DirectionReverse,
			MaxAmount:   maxAmountReverse,
		}, nil
	default:
		return nil, nil
	}
}

func minDecimal(values ...decimal.Decimal) decimal.Decimal {
	m := values[0]
	for _, v := range values[1:] {
		if v.LessThan(m) {
			m = v
		}
	}
	return m
}
