package account

import (
	"github.com/shopspring/decimal"

	"triarb/pkg/types"
)

// ApplyOrderMessage updates state from an inbound authenticated-stream
// order event (snapshot or incremental update), upserting every entry.
func (s *State) ApplyOrderMessage(msg types.WSOrderMessage) {
	for _, entry := range msg.Orders {
		s.UpsertOrder(orderFromEntry(entry))
	}
}

// ApplyBalanceMessage updates state from an inbound authenticated-stream
// balance event. The exchange sends av/l/stk as null when a currency has
// no activity yet; decimalOrZero normalizes that (and any other
// unparsable value) to zero rather than erroring.
func (s *State) ApplyBalanceMessage(msg types.WSBalanceMessage) {
	for _, entry := range msg.Balances {
		s.UpsertBalance(types.CurrencyBalance{
			Currency:  entry.Currency,
			Available: decimalOrZero(entry.Available),
			Locked:    decimalOrZero(entry.Locked),
			Staked:    decimalOrZero(entry.Staked),
			UpdatedTS: uint64(entry.UpdatedTS),
		})
	}
}

func orderFromEntry(e types.WSOrderEntry) types.Order {
	o := types.NewOrder()
	o.Symbol = types.ParseSymbol(e.Market)
	o.OrderID = e.ID
	o.ClientID = e.ClientID
	o.Side = parseEntrySide(e.Side)
	o.OrderType, o.TimeInForce = parseEntryOrderType(e.OrderType)
	o.Status = parseEntryState(e.State)
	o.Price = decimalOrZero(e.AvgPrice)
	o.FilledPrice = decimalOrZero(e.AvgPrice)
	o.Amount = decimalOrZero(e.Volume)
	o.FilledAmount = decimalOrZero(e.ExecutedVolume)
	o.RemainingAmount = decimalOrZero(e.RemainingVolume)
	o.CreatedTS = uint64(e.CreatedTS)
	o.UpdatedTS = uint64(e.UpdatedTS)
	return o
}

func parseEntrySide(s string) types.Side {
	switch s {
	case "bid":
		return types.SideBuy
	case "ask":
		return types.SideSell
	default:
		return types.SideUnknown
	}
}

func parseEntryOrderType(s string) (types.OrderType, types.TimeInForce) {
	switch s {
	case "market", "stop_market":
		return types.OrderTypeMarket, types.TimeInForceGTC
	case "post_only":
		return types.OrderTypeLimit, types.TimeInForceMakerOnly
	case "limit", "stop_limit":
		return types.OrderTypeLimit, types.TimeInForceGTC
	case "ioc_limit":
		return types.OrderTypeLimit, types.TimeInForceIOC
	default:
		return types.OrderTypeUnknown, types.TimeInForceUnknown
	}
}

func parseEntryState(s string) types.OrderStatus {
	switch s {
	case "wait":
		return types.OrderStatusNew
	case "done":
		return types.OrderStatusFilled
	case "partial":
		return types.OrderStatusPartiallyFilled
	case "cancel":
		return types.OrderStatusCancel
	case "cancel_post_only":
		return types.OrderStatusCancelPostOnly
	default:
		return types.OrderStatusUnknown
	}
}

func decimalOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
