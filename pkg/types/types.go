// Package types defines shared data structures used across all packages.
//
// This package is the common vocabulary for the engine — symbols, orders,
// balances, order book tickers, and exchange wire-format payloads. It has
// no dependencies on internal packages, so it can be imported by any layer.
package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ————————————————————————————————————————————————————————————————————————
// Symbol
// ————————————————————————————————————————————————————————————————————————

// Symbol is a closed enum of the trading pairs the engine understands.
// SymbolUnknown is the sentinel returned by ParseSymbol for unrecognized
// input rather than an error, matching the exchange's own tolerant habit
// of echoing back whatever market string it was given.
type Symbol string

const (
	SymbolUnknown Symbol = "UNKNOWN"

	USDT_TWD Symbol = "USDT_TWD"
	ETH_BTC  Symbol = "ETH_BTC"
	ARB_TWD  Symbol = "ARB_TWD"
	ARB_USDT Symbol = "ARB_USDT"
	BTC_TWD  Symbol = "BTC_TWD"
	BTC_USDT Symbol = "BTC_USDT"
	ETH_TWD  Symbol = "ETH_TWD"
	ETH_USDT Symbol = "ETH_USDT"
	BNB_TWD  Symbol = "BNB_TWD"
	BNB_USDT Symbol = "BNB_USDT"
	MAX_TWD  Symbol = "MAX_TWD"
	MAX_USDT Symbol = "MAX_USDT"
	BCH_TWD  Symbol = "BCH_TWD"
	BCH_USDT Symbol = "BCH_USDT"
	XRP_TWD  Symbol = "XRP_TWD"
	XRP_USDT Symbol = "XRP_USDT"
	BCNT_TWD  Symbol = "BCNT_TWD"
	BCNT_USDT Symbol = "BCNT_USDT"
	LINK_TWD  Symbol = "LINK_TWD"
	LINK_USDT Symbol = "LINK_USDT"
	SHIB_TWD  Symbol = "SHIB_TWD"
	SHIB_USDT Symbol = "SHIB_USDT"
	LTC_TWD   Symbol = "LTC_TWD"
	LTC_USDT  Symbol = "LTC_USDT"
	APE_TWD   Symbol = "APE_TWD"
	APE_USDT  Symbol = "APE_USDT"
	DOGE_TWD  Symbol = "DOGE_TWD"
	DOGE_USDT Symbol = "DOGE_USDT"
	DOT_TWD   Symbol = "DOT_TWD"
	DOT_USDT  Symbol = "DOT_USDT"
	SOL_TWD   Symbol = "SOL_TWD"
	SOL_USDT  Symbol = "SOL_USDT"
	SAND_TWD  Symbol = "SAND_TWD"
	SAND_USDT Symbol = "SAND_USDT"
	USDC_TWD  Symbol = "USDC_TWD"
	USDC_USDT Symbol = "USDC_USDT"
	COMP_TWD  Symbol = "COMP_TWD"
	COMP_USDT Symbol = "COMP_USDT"
	ADA_TWD   Symbol = "ADA_TWD"
	ADA_USDT  Symbol = "ADA_USDT"
	MATIC_TWD  Symbol = "MATIC_TWD"
	MATIC_USDT Symbol = "MATIC_USDT"
	LOOT_TWD   Symbol = "LOOT_TWD"
	LOOT_USDT  Symbol = "LOOT_USDT"
	RLY_TWD    Symbol = "RLY_TWD"
	RLY_USDT   Symbol = "RLY_USDT"
	GRT_TWD    Symbol = "GRT_TWD"
	YFI_USDT   Symbol = "YFI_USDT"
	ETC_TWD    Symbol = "ETC_TWD"
	ETC_USDT   Symbol = "ETC_USDT"
	GALA_TWD   Symbol = "GALA_TWD"
	MANA_TWD   Symbol = "MANA_TWD"
	ALICE_TWD  Symbol = "ALICE_TWD"
	LOOKS_TWD  Symbol = "LOOKS_TWD"
	MASK_USDT  Symbol = "MASK_USDT"
	XTZ_TWD    Symbol = "XTZ_TWD"
	GMT_TWD    Symbol = "GMT_TWD"
	GST_TWD    Symbol = "GST_TWD"
	ENS_TWD    Symbol = "ENS_TWD"
)

var symbolTable = map[string]Symbol{
	string(USDT_TWD): USDT_TWD, string(ETH_BTC): ETH_BTC,
	string(ARB_TWD): ARB_TWD, string(ARB_USDT): ARB_USDT,
	string(BTC_TWD): BTC_TWD, string(BTC_USDT): BTC_USDT,
	string(ETH_TWD): ETH_TWD, string(ETH_USDT): ETH_USDT,
	string(BNB_TWD): BNB_TWD, string(BNB_USDT): BNB_USDT,
	string(MAX_TWD): MAX_TWD, string(MAX_USDT): MAX_USDT,
	string(BCH_TWD): BCH_TWD, string(BCH_USDT): BCH_USDT,
	string(XRP_TWD): XRP_TWD, string(XRP_USDT): XRP_USDT,
	string(BCNT_TWD): BCNT_TWD, string(BCNT_USDT): BCNT_USDT,
	string(LINK_TWD): LINK_TWD, string(LINK_USDT): LINK_USDT,
	string(SHIB_TWD): SHIB_TWD, string(SHIB_USDT): SHIB_USDT,
	string(LTC_TWD): LTC_TWD, string(LTC_USDT): LTC_USDT,
	string(APE_TWD): APE_TWD, string(APE_USDT): APE_USDT,
	string(DOGE_TWD): DOGE_TWD, string(DOGE_USDT): DOGE_USDT,
	string(DOT_TWD): DOT_TWD, string(DOT_USDT): DOT_USDT,
	string(SOL_TWD): SOL_TWD, string(SOL_USDT): SOL_USDT,
	string(SAND_TWD): SAND_TWD, string(SAND_USDT): SAND_USDT,
	string(USDC_TWD): USDC_TWD, string(USDC_USDT): USDC_USDT,
	string(COMP_TWD): COMP_TWD, string(COMP_USDT): COMP_USDT,
	string(ADA_TWD): ADA_TWD, string(ADA_USDT): ADA_USDT,
	string(MATIC_TWD): MATIC_TWD, string(MATIC_USDT): MATIC_USDT,
	string(LOOT_TWD): LOOT_TWD, string(LOOT_USDT): LOOT_USDT,
	string(RLY_TWD): RLY_TWD, string(RLY_USDT): RLY_USDT,
	string(GRT_TWD): GRT_TWD, string(YFI_USDT): YFI_USDT,
	string(ETC_TWD): ETC_TWD, string(ETC_USDT): ETC_USDT,
	string(GALA_TWD): GALA_TWD, string(MANA_TWD): MANA_TWD,
	string(ALICE_TWD): ALICE_TWD, string(LOOKS_TWD): LOOKS_TWD,
	string(MASK_USDT): MASK_USDT, string(XTZ_TWD): XTZ_TWD,
	string(GMT_TWD): GMT_TWD, string(GST_TWD): GST_TWD,
	string(ENS_TWD): ENS_TWD,
}

var symbolStripper = strings.NewReplacer("_", "", "/", "", "-", "")

// ParseSymbol normalizes raw exchange market strings ("btc_usdt", "BTC/USDT",
// "btc-usdt") into the canonical Symbol enum. Separators are stripped and
// the result is uppercased before lookup; anything unrecognized maps to
// SymbolUnknown rather than an error.
func ParseSymbol(raw string) Symbol {
	stripped := strings.ToUpper(symbolStripper.Replace(raw))
	for key, sym := range symbolTable {
		if symbolStripper.Replace(key) == stripped {
			return sym
		}
	}
	return SymbolUnknown
}

// String returns the canonical underscored representation (e.g. "BTC_USDT").
func (s Symbol) String() string {
	return string(s)
}

// ————————————————————————————————————————————————————————————————————————
// Order enums
// ————————————————————————————————————————————————————————————————————————

// Side is the direction of an order.
type Side string

const (
	SideBuy     Side = "BUY"
	SideSell    Side = "SELL"
	SideUnknown Side = "UNKNOWN_ORDER_SIDE"
)

// OrderType enumerates the supported order lifecycles.
type OrderType string

const (
	OrderTypeLimit    OrderType = "LIMIT"
	OrderTypeMarket   OrderType = "MARKET"
	OrderTypeIOC      OrderType = "IOC"
	OrderTypePostOnly OrderType = "POST_ONLY"
	OrderTypeUnknown  OrderType = "UNKNOWN_ORDER_TYPE"
)

// TimeInForce controls how long a resting order stays live.
type TimeInForce string

const (
	TimeInForceGTC       TimeInForce = "GTC"
	TimeInForceIOC       TimeInForce = "IOC"
	TimeInForceMakerOnly TimeInForce = "MAKER_ONLY"
	TimeInForceUnknown   TimeInForce = "UNKNOWN_TIMEINFORCE"
)

// OrderStatus is the exchange-reported lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusCancel          OrderStatus = "CANCEL"
	OrderStatusCancelPostOnly  OrderStatus = "CANCEL_BY_POST_ONLY"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusUnknown         OrderStatus = "UNKNOWN_STATUS"
)

// Direction names which way an arbitrage cycle runs around its triangle.
type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionReverse Direction = "reverse"
)

// ————————————————————————————————————————————————————————————————————————
// Domain models
// ————————————————————————————————————————————————————————————————————————

// Order is the engine's internal record of a single order, merged from the
// authenticated user stream and from our own submission responses.
type Order struct {
	Symbol          Symbol
	OrderID         string
	ClientID        string
	Label           string // "[#1 Order]", "[#2 Order]", "[#3 Order]" for executor legs
	Side            Side
	OrderType       OrderType
	TimeInForce     TimeInForce
	Price           decimal.Decimal
	Amount          decimal.Decimal
	Status          OrderStatus
	FilledPrice     decimal.Decimal
	FilledAmount    decimal.Decimal
	RemainingAmount decimal.Decimal
	CreatedTS       uint64 // unix millis
	UpdatedTS       uint64 // unix millis
}

// NewOrder returns the zero-value order used before a submission response
// has been observed.
func NewOrder() Order {
	return Order{
		Status:          OrderStatusUnknown,
		Price:           decimal.Zero,
		Amount:          decimal.Zero,
		FilledPrice:     decimal.Zero,
		FilledAmount:    decimal.Zero,
		RemainingAmount: decimal.Zero,
	}
}

// CurrencyBalance is the last-known balance for a single currency.
type CurrencyBalance struct {
	Currency  string
	Available decimal.Decimal
	Locked    decimal.Decimal
	Staked    decimal.Decimal
	UpdatedTS uint64
}

// ————————————————————————————————————————————————————————————————————————
// Order book
// ————————————————————————————————————————————————————————————————————————

// PriceLevel is a single bid or ask level in the order book.
type PriceLevel struct {
	Price  decimal.Decimal
	Amount decimal.Decimal
}

// BookTicker is the top-of-book view of a symbol: best bid and ask, with
// their available size. Consumers read this rather than walking the full
// ladder.
type BookTicker struct {
	Symbol      Symbol
	BidPrice    decimal.Decimal
	BidQuantity decimal.Decimal
	AskPrice    decimal.Decimal
	AskQuantity decimal.Decimal
}

// Opportunity is a detected triangular-arbitrage cycle, ready to hand to
// the executor.
type Opportunity struct {
	Description string
	Value       decimal.Decimal // expected multiplicative return, > 1 is profitable
	Symbols     [3]Symbol
	Booktickers [3]BookTicker
	Direction   Direction
	MaxAmount   decimal.Decimal // feasible notional given current depth
	TriangleKey string          // identifies the configured triangle, for risk-guard bookkeeping
}

// ————————————————————————————————————————————————————————————————————————
// Exchange wire formats
// ————————————————————————————————————————————————————————————————————————

// WSSubscribeMsg is the public-stream subscription frame sent on connect
// and resent on every reconnect.
type WSSubscribeMsg struct {
	Action        string            `json:"action"`
	Subscriptions []WSSubscriptions `json:"subscriptions"`
	ID            string            `json:"id"`
}

// WSSubscriptions is a single channel subscription within WSSubscribeMsg.
type WSSubscriptions struct {
	Channel string `json:"channel"`
	Market  string `json:"market"`
	Depth   int    `json:"depth"`
}

// WSBookMessage is an inbound public-stream order-book frame: either a
// full snapshot ("snapshot") or an incremental diff ("update").
type WSBookMessage struct {
	Channel   string     `json:"c"`
	Market    string     `json:"M"`
	Event     string     `json:"e"` // "snapshot" or "update"
	Asks      [][]string `json:"a"`
	Bids      [][]string `json:"b"`
	Timestamp int64      `json:"T"` // nanoseconds
}

// WSAuthMsg is the authenticated-stream auth frame.
type WSAuthMsg struct {
	Action    string   `json:"action"`
	ApiKey    string   `json:"apiKey"`
	Nonce     int64    `json:"nonce"`
	Signature string   `json:"signature"`
	Filters   []string `json:"filters"`
}

// WSOrderMessage is an inbound authenticated-stream order-event frame,
// either an initial snapshot ("order_snapshot") or an incremental update
// ("order_update").
type WSOrderMessage struct {
	Channel   string          `json:"c"`
	Event     string          `json:"e"`
	Orders    []WSOrderEntry  `json:"o"`
	Timestamp int64           `json:"T"`
}

// WSOrderEntry is a single order's fields within a WSOrderMessage.
type WSOrderEntry struct {
	Market          string `json:"M"`
	ID              string `json:"i"`
	ClientID        string `json:"ci"`
	Side            string `json:"sd"` // "bid" or "ask"
	OrderType       string `json:"ot"`
	State           string `json:"S"`
	AvgPrice        string `json:"ap"`
	Volume          string `json:"v"`
	ExecutedVolume  string `json:"ev"`
	RemainingVolume string `json:"rv"`
	CreatedTS       int64  `json:"T"`
	UpdatedTS       int64  `json:"TU"`
}

// WSBalanceMessage is an inbound authenticated-stream balance-event frame.
type WSBalanceMessage struct {
	Channel   string              `json:"c"`
	Event     string              `json:"e"`
	Balances  []WSBalanceEntry    `json:"B"`
	Timestamp int64               `json:"T"`
}

// WSBalanceEntry is a single currency's fields within a WSBalanceMessage.
type WSBalanceEntry struct {
	Currency  string `json:"cu"`
	Available string `json:"av"`
	Locked    string `json:"l"`
	Staked    string `json:"stk"`
	UpdatedTS int64  `json:"TU"`
}
