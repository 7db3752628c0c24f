package executor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"triarb/internal/account"
	"triarb/internal/config"
	"triarb/internal/errs"
	"triarb/internal/exchange"
	"triarb/internal/signer"
	"triarb/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestExecutor(t *testing.T, handler http.HandlerFunc, pollBudget int) (*Executor, *account.State) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Config{
		APIInfo:  config.APIInfoConfig{ApiKey: "key", SecretKey: "secret"},
		Exchange: config.ExchangeConfig{RestBaseURL: srv.URL},
		Settings: config.SettingsConfig{ResponseTimeout: 5},
	}
	client := exchange.NewClient(cfg, signer.HMACSigner{}, testLogger())
	client.SetRetryCount(0) // avoid slow retry/backoff in error-path tests
	state := account.New()

	exec := New(client, state, 0.001, nil, testLogger())
	exec.pollBudget = pollBudget
	return exec, state
}

func TestSendAndCheckFilledReturnsLegSendErrorOnHTTPFailure(t *testing.T) {
	t.Parallel()
	exec, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, 5)

	order := types.NewOrder()
	order.Symbol = types.BTC_USDT
	order.Label = "[#1 Order]"

	_, err := exec.sendAndCheckFilled(context.Background(), order, 1)
	if !errors.Is(err, errs.New(errs.KindFirstTriSendError)) {
		t.Fatalf("expected KindFirstTriSendError, got %v", err)
	}
}

func TestSendAndCheckFilledReturnsLegFilledErrorOnTimeout(t *testing.T) {
	t.Parallel()
	exec, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"market": "btcusdt", "id": float64(7), "side": "buy", "ord_type": "ioc_limit",
			"state": "wait", "price": "30010", "volume": "1", "avg_price": "0",
			"executed_volume": "0", "remaining_volume": "1",
		})
	}, 5) // small poll budget so the test completes quickly

	order := types.NewOrder()
	order.Symbol = types.BTC_USDT
	order.Label = "[#2 Order]"

	_, err := exec.sendAndCheckFilled(context.Background(), order, 2)
	if !errors.Is(err, errs.New(errs.KindSecondTriFilledError)) {
		t.Fatalf("expected KindSecondTriFilledError, got %v", err)
	}
}

func TestSendAndCheckFilledReturnsFilledOrderOnceStateCatchesUp(t *testing.T) {
	t.Parallel()
	exec, state := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"market": "btcusdt", "id": float64(9), "side": "buy", "ord_type": "ioc_limit",
			"state": "wait", "price": "30010", "volume": "1", "avg_price": "0",
			"executed_volume": "0", "remaining_volume": "1",
		})
	}, 2000)

	go func() {
		time.Sleep(5 * time.Millisecond)
		filled := types.NewOrder()
		filled.OrderID = "9"
		filled.Status = types.OrderStatusFilled
		filled.FilledAmount = mustDec("1")
		filled.FilledPrice = mustDec("30010")
		filled.UpdatedTS = 1
		state.UpsertOrder(filled)
	}()

	order := types.NewOrder()
	order.Symbol = types.BTC_USDT
	order.Label = "[#1 Order]"

	result, err := exec.sendAndCheckFilled(context.Background(), order, 1)
	if err != nil {
		t.Fatalf("sendAndCheckFilled: %v", err)
	}
	if result.OrderID != "9" {
		t.Errorf("OrderID = %q, want 9", result.OrderID)
	}
}

func TestForwardTradeRunsAllThreeLegs(t *testing.T) {
	t.Parallel()

	var nextID int64
	exec, state := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		nextID++
		id := nextID
		_ = json.NewEncoder(w).Encode(map[string]any{
			"market": "x", "id": float64(id), "side": "buy", "ord_type": "limit",
			"state": "wait", "price": "1", "volume": "1", "avg_price": "0",
			"executed_volume": "0", "remaining_volume": "1",
		})

		go func() {
			time.Sleep(time.Millisecond)
			filled := types.NewOrder()
			filled.OrderID = decimal.NewFromInt(id).String()
			filled.Status = types.OrderStatusFilled
			filled.FilledAmount = mustDec("1")
			filled.FilledPrice = mustDec("1")
			filled.UpdatedTS = uint64(id)
			state.UpsertOrder(filled)
		}()
	}, 2000)

	opp := types.Opportunity{
		Symbols: [3]types.Symbol{types.BTC_USDT, types.BTC_TWD, types.USDT_TWD},
		Booktickers: [3]types.BookTicker{
			{Symbol: types.BTC_USDT, BidPrice: mustDec("30000"), BidQuantity: mustDec("1"), AskPrice: mustDec("30010"), AskQuantity: mustDec("1")},
			{Symbol: types.BTC_TWD, BidPrice: mustDec("930000"), BidQuantity: mustDec("1"), AskPrice: mustDec("930500"), AskQuantity: mustDec("1")},
			{Symbol: types.USDT_TWD, BidPrice: mustDec("31"), BidQuantity: mustDec("100"), AskPrice: mustDec("31.05"), AskQuantity: mustDec("100")},
		},
		Direction: types.DirectionForward,
		MaxAmount: mustDec("1"),
	}

	result, err := exec.forwardTrade(context.Background(), opp)
	if err != nil {
		t.Fatalf("forwardTrade: %v", err)
	}
	if result.First.OrderID == "" || result.Second.OrderID == "" || result.Third.OrderID == "" {
		t.Errorf("expected all three legs to carry an order id, got %+v", result)
	}
}

type recordingGuard struct {
	triangleKey string
	err         error
	called      bool
}

func (g *recordingGuard) Report(triangleKey string, err error) {
	g.called = true
	g.triangleKey = triangleKey
	g.err = err
}

func TestHandleArbitrageReportsOutcomeToGuard(t *testing.T) {
	t.Parallel()

	exec, _ := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, 2)

	guard := &recordingGuard{}
	exec.guard = guard

	opp := types.Opportunity{
		TriangleKey: "BTC_USDT/BTC_TWD/USDT_TWD",
		Symbols:     [3]types.Symbol{types.BTC_USDT, types.BTC_TWD, types.USDT_TWD},
		Booktickers: [3]types.BookTicker{
			{Symbol: types.BTC_USDT, BidPrice: mustDec("30000"), BidQuantity: mustDec("1"), AskPrice: mustDec("30010"), AskQuantity: mustDec("1")},
			{Symbol: types.BTC_TWD, BidPrice: mustDec("930000"), BidQuantity: mustDec("1"), AskPrice: mustDec("930500"), AskQuantity: mustDec("1")},
			{Symbol: types.USDT_TWD, BidPrice: mustDec("31"), BidQuantity: mustDec("100"), AskPrice: mustDec("31.05"), AskQuantity: mustDec("100")},
		},
		Direction: types.DirectionForward,
		MaxAmount: mustDec("1"),
	}

	exec.HandleArbitrage(context.Background(), opp)

	deadline := time.After(time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for guard to be reported to")
		default:
		}
		if guard.called {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if guard.triangleKey != opp.TriangleKey {
		t.Errorf("triangleKey = %q, want %q", guard.triangleKey, opp.TriangleKey)
	}
	if guard.err == nil {
		t.Error("expected a non-nil leg error since every send fails")
	}
}
