// Package exchange implements the signed REST client used to fetch public
// market data and place/cancel/query orders and balances. Exchange-specific
// behavior is isolated to a pluggable signer.Signer plus the field-name
// mappings in this file, so a new venue is a new Signer, not a new client.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"triarb/internal/config"
	"triarb/internal/errs"
	"triarb/internal/signer"
	"triarb/pkg/types"
)

// Client is the signed REST API client.
type Client struct {
	http      *resty.Client
	signer    signer.Signer
	apiKey    string
	secretKey string
	rl        *RateLimiter
	logger    *slog.Logger
}

// NewClient creates a REST client with rate limiting and retry-on-5xx.
func NewClient(cfg config.Config, sgnr signer.Signer, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.Settings.ResponseTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.Exchange.RestBaseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:      httpClient,
		signer:    sgnr,
		apiKey:    cfg.APIInfo.ApiKey,
		secretKey: cfg.APIInfo.SecretKey,
		rl:        NewRateLimiter(),
		logger:    logger.With("component", "exchange"),
	}
}

// SetRetryCount overrides the resty client's retry-on-5xx count, mainly
// useful in tests that assert on a single failed attempt.
func (c *Client) SetRetryCount(n int) {
	c.http.SetRetryCount(n)
}

// market converts a Symbol into the exchange's lowercase, separator-free
// market string (e.g. BTC_USDT -> "btcusdt").
func (c *Client) market(symbol types.Symbol) string {
	return strings.ToLower(strings.ReplaceAll(symbol.String(), "_", ""))
}

func orderSideString(side types.Side) string {
	switch side {
	case types.SideBuy:
		return "buy"
	case types.SideSell:
		return "sell"
	default:
		return "unknown_order_side"
	}
}

func orderTypeString(ot types.OrderType) string {
	switch ot {
	case types.OrderTypeLimit:
		return "limit"
	case types.OrderTypeMarket:
		return "market"
	case types.OrderTypeIOC:
		return "ioc_limit"
	case types.OrderTypePostOnly:
		return "post_only"
	default:
		return "unknown_order_type"
	}
}

// GetExchangeInfo fetches the venue's published market list (unsigned).
func (c *Client) GetExchangeInfo(ctx context.Context) (json.RawMessage, error) {
	if err := c.rl.Book.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.KindTransportFailure, err)
	}

	var result json.RawMessage
	resp, err := c.http.R().SetContext(ctx).SetResult(&result).Get("/api/v2/markets")
	if err != nil {
		return nil, errs.Wrap(errs.KindTransportFailure, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errs.HTTPStatus(resp.StatusCode(), resp.String())
	}
	return result, nil
}

// GetTicker fetches the venue's best bid/ask for symbol (unsigned).
func (c *Client) GetTicker(ctx context.Context, symbol types.Symbol) (types.BookTicker, error) {
	if err := c.rl.Book.Wait(ctx); err != nil {
		return types.BookTicker{}, errs.Wrap(errs.KindTransportFailure, err)
	}

	var raw struct {
		Buy  string `json:"buy"`
		Sell string `json:"sell"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&raw).
		Get(fmt.Sprintf("/api/v2/tickers/%s", c.market(symbol)))
	if err != nil {
		return types.BookTicker{}, errs.Wrap(errs.KindTransportFailure, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return types.BookTicker{}, errs.HTTPStatus(resp.StatusCode(), resp.String())
	}

	bid, err := decimal.NewFromString(raw.Buy)
	if err != nil {
		return types.BookTicker{}, errs.JSONDecode(resp.String(), err)
	}
	ask, err := decimal.NewFromString(raw.Sell)
	if err != nil {
		return types.BookTicker{}, errs.JSONDecode(resp.String(), err)
	}
	return types.BookTicker{Symbol: symbol, BidPrice: bid, AskPrice: ask}, nil
}

// GetOrderBook fetches the L2 order book for symbol (unsigned).
func (c *Client) GetOrderBook(ctx context.Context, symbol types.Symbol) (bids, asks [][]string, err error) {
	if err := c.rl.Book.Wait(ctx); err != nil {
		return nil, nil, errs.Wrap(errs.KindTransportFailure, err)
	}

	var raw struct {
		Bids [][]string `json:"bids"`
		Asks [][]string `json:"asks"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("market", c.market(symbol)).
		SetResult(&raw).
		Get("/api/v2/depth")
	if err != nil {
		return nil, nil, errs.Wrap(errs.KindTransportFailure, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, nil, errs.HTTPStatus(resp.StatusCode(), resp.String())
	}
	return raw.Bids, raw.Asks, nil
}

// signedParams builds the base nonce/path param map every signed request
// needs, erroring out if credentials are missing.
func (c *Client) signedParams(path string) (map[string]string, error) {
	if c.apiKey == "" || c.secretKey == "" {
		return nil, errs.New(errs.KindMissingCredentials)
	}
	return map[string]string{
		"nonce": strconv.FormatInt(time.Now().UnixMilli(), 10),
		"path":  path,
	}, nil
}

func (c *Client) signHeaders(params map[string]string) (map[string]string, error) {
	payload, signature, err := c.signer.Sign(params, c.secretKey)
	if err != nil {
		return nil, errs.Wrap(errs.KindTransportFailure, err)
	}
	return map[string]string{
		"access-key": c.apiKey,
		"payload":    payload,
		"signature":  signature,
	}, nil
}

// GetAccount fetches account balances (signed).
func (c *Client) GetAccount(ctx context.Context) (json.RawMessage, error) {
	if err := c.rl.Account.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.KindTransportFailure, err)
	}

	path := "/api/v2/members/accounts"
	params, err := c.signedParams(path)
	if err != nil {
		return nil, err
	}
	headers, err := c.signHeaders(params)
	if err != nil {
		return nil, err
	}

	var result json.RawMessage
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetQueryParams(params).
		SetResult(&result).
		Get(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindTransportFailure, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errs.HTTPStatus(resp.StatusCode(), resp.String())
	}
	return result, nil
}

// GetOpenOrders fetches resting orders for symbol (signed).
func (c *Client) GetOpenOrders(ctx context.Context, symbol types.Symbol) ([]types.Order, error) {
	if err := c.rl.Account.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.KindTransportFailure, err)
	}

	path := "/api/v2/orders"
	params, err := c.signedParams(path)
	if err != nil {
		return nil, err
	}
	params["market"] = c.market(symbol)
	headers, err := c.signHeaders(params)
	if err != nil {
		return nil, err
	}

	var raw []orderWire
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetQueryParams(params).
		SetResult(&raw).
		Get(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindTransportFailure, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errs.HTTPStatus(resp.StatusCode(), resp.String())
	}

	orders := make([]types.Order, len(raw))
	for i, w := range raw {
		orders[i] = w.toOrder()
	}
	return orders, nil
}

// CreateOrder submits req to the exchange (signed) and returns the
// exchange's acknowledgement, which carries the assigned OrderID.
func (c *Client) CreateOrder(ctx context.Context, req types.Order) (types.Order, error) {
	if err := c.rl.Order.Wait(ctx); err != nil {
		return types.Order{}, errs.Wrap(errs.KindTransportFailure, err)
	}

	path := "/api/v2/orders"
	params, err := c.signedParams(path)
	if err != nil {
		return types.Order{}, err
	}
	params["market"] = c.market(req.Symbol)
	params["side"] = orderSideString(req.Side)
	params["ord_type"] = orderTypeString(req.OrderType)
	params["volume"] = req.Amount.String()
	params["price"] = req.Price.String()
	headers, err := c.signHeaders(params)
	if err != nil {
		return types.Order{}, err
	}

	var raw orderWire
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(params).
		SetResult(&raw).
		Post(path)
	if err != nil {
		return types.Order{}, errs.Wrap(errs.KindTransportFailure, err)
	}
	if resp.StatusCode() != http.StatusOK {
		c.logger.Error("create order failed", "status", resp.StatusCode(), "body", resp.String())
		return types.Order{}, errs.HTTPStatus(resp.StatusCode(), resp.String())
	}
	order := raw.toOrder()
	order.Label = req.Label
	return order, nil
}

// CancelOrder cancels a resting order by ID (signed).
func (c *Client) CancelOrder(ctx context.Context, symbol types.Symbol, orderID string) error {
	if err := c.rl.Cancel.Wait(ctx); err != nil {
		return errs.Wrap(errs.KindTransportFailure, err)
	}

	path := "/api/v2/order/delete"
	params, err := c.signedParams(path)
	if err != nil {
		return err
	}
	params["market"] = c.market(symbol)
	params["id"] = orderID
	headers, err := c.signHeaders(params)
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(params).
		Post(path)
	if err != nil {
		return errs.Wrap(errs.KindTransportFailure, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return errs.HTTPStatus(resp.StatusCode(), resp.String())
	}
	return nil
}

// orderWire is the exchange's JSON order representation, mapped into
// types.Order by toOrder.
type orderWire struct {
	Market          string `json:"market"`
	ID              any    `json:"id"`
	ClientOID       string `json:"client_oid"`
	Side            string `json:"side"`
	OrdType         string `json:"ord_type"`
	State           string `json:"state"`
	Price           string `json:"price"`
	Volume          string `json:"volume"`
	AvgPrice        string `json:"avg_price"`
	ExecutedVolume  string `json:"executed_volume"`
	RemainingVolume string `json:"remaining_volume"`
	CreatedAtMs     int64  `json:"created_at_in_ms"`
	UpdatedAtMs     int64  `json:"updated_at_in_ms"`
}

func (w orderWire) toOrder() types.Order {
	o := types.NewOrder()
	o.Symbol = types.ParseSymbol(w.Market)
	o.OrderID = fmt.Sprintf("%v", w.ID)
	o.ClientID = w.ClientOID
	o.Side = parseSide(w.Side)
	o.OrderType, o.TimeInForce = parseOrderTypeAndTIF(w.OrdType)
	o.Status = parseStatus(w.State)
	o.Price = decimalOrZero(w.Price)
	o.Amount = decimalOrZero(w.Volume)
	o.FilledPrice = decimalOrZero(w.AvgPrice)
	o.FilledAmount = decimalOrZero(w.ExecutedVolume)
	o.RemainingAmount = decimalOrZero(w.RemainingVolume)
	o.CreatedTS = uint64(w.CreatedAtMs)
	o.UpdatedTS = uint64(w.UpdatedAtMs)
	return o
}

func decimalOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseSide(s string) types.Side {
	switch s {
	case "buy":
		return types.SideBuy
	case "sell":
		return types.SideSell
	default:
		return types.SideUnknown
	}
}

func parseOrderTypeAndTIF(s string) (types.OrderType, types.TimeInForce) {
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

func parseStatus(s string) types.OrderStatus {
	switch s {
	case "wait":
		return types.OrderStatusNew
	case "cancel":
		return types.OrderStatusCancel
	case "done":
		return types.OrderStatusFilled
	default:
		return types.OrderStatusUnknown
	}
}
