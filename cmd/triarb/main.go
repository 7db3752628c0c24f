// Triangular-arbitrage trading engine.
//
// Architecture:
//
//	main.go                  — entry point: loads config, wires components, waits for SIGINT/SIGTERM
//	internal/strategy/runner.go — per-triangle public book stream + arbitrage evaluation
//	internal/arbitrage          — forward/reverse triangular arbitrage math
//	internal/book               — local order book mirror fed by WebSocket snapshots + diffs
//	internal/exchange/client.go — signed REST client (place/cancel orders, fetch book)
//	internal/stream/client.go   — resilient WebSocket client shared by market data and user stream
//	internal/account/state.go   — local view of orders/balances, kept current by the user stream
//	internal/executor/executor.go — runs an opportunity's three legs in sequence
//	internal/risk/guard.go      — consecutive-leg-failure circuit breaker per triangle
//	internal/status             — aggregates live state for the read-only status API
//	internal/api                — /health, /status, /events (SSE) HTTP surface
//	internal/logging            — rotating-file structured logger
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"triarb/internal/account"
	"triarb/internal/api"
	"triarb/internal/book"
	"triarb/internal/config"
	"triarb/internal/exchange"
	"triarb/internal/executor"
	"triarb/internal/logging"
	"triarb/internal/risk"
	"triarb/internal/signer"
	"triarb/internal/status"
	"triarb/internal/stream"
	"triarb/internal/strategy"
	"triarb/pkg/types"
)

// maxBookDepth bounds how many price levels the local book mirror keeps
// per symbol; the evaluator only ever reads the top.
const maxBookDepth = 50

func main() {
	cfgPath := "config/triarb.toml"
	if p := os.Getenv("TRIARB_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.Error("failed to set up logger", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sgnr := signer.HMACSigner{}
	client := exchange.NewClient(*cfg, sgnr, logger)
	state := account.New()
	guard := risk.NewGuard(cfg.Risk, logger)
	registry := book.NewRegistry(maxBookDepth)
	statusProvider := status.New(registry, guard)

	exec := executor.New(client, state, cfg.Settings.ProtectTolerance,
		&fanoutReporter{guard: guard, status: statusProvider}, logger)

	runners := make([]*strategy.Runner, 0, len(cfg.Triangles))
	for _, tri := range cfg.Triangles {
		var symbols [3]types.Symbol
		for i, raw := range tri.Symbols {
			symbols[i] = types.ParseSymbol(raw)
		}

		feeRate := decimalFromFloat(cfg.Settings.FeeRate)
		runner, err := strategy.NewRunner(cfg.Exchange.WSMarketURL, symbols, registry, feeRate, guard, logger)
		if err != nil {
			logger.Error("failed to create strategy runner", "symbols", tri.Symbols, "error", err)
			os.Exit(1)
		}

		statusProvider.Track(runner.Key(), symbols)
		statusProvider.Watch(ctx, runner.Opportunities())
		runners = append(runners, runner)
	}

	for _, runner := range runners {
		go func(r *strategy.Runner) {
			if err := r.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("strategy runner stopped", "triangle", r.Key(), "error", err)
			}
		}(runner)
	}

	go dispatchOpportunities(ctx, runners, exec)

	userStream := startUserStream(ctx, *cfg, state, logger)

	var apiServer *api.Server
	if cfg.Dashboard.Enabled {
		apiServer = api.NewServer(cfg.Dashboard, statusProvider, logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error("status server failed", "error", err)
			}
		}()
		logger.Info("status server started", "url", fmt.Sprintf("http://localhost:%d", cfg.Dashboard.Port))
	}

	logger.Info("triangular arbitrage engine started", "triangles", len(runners))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	if apiServer != nil {
		if err := apiServer.Stop(); err != nil {
			logger.Error("failed to stop status server", "error", err)
		}
	}

	cancel()
	if err := userStream.Close(); err != nil {
		logger.Warn("failed to close user stream", "error", err)
	}
}

// dispatchOpportunities fans in every runner's opportunity channel and
// hands each one to the executor.
func dispatchOpportunities(ctx context.Context, runners []*strategy.Runner, exec *executor.Executor) {
	for _, runner := range runners {
		go func(r *strategy.Runner) {
			for {
				select {
				case <-ctx.Done():
					return
				case opp, ok := <-r.Opportunities():
					if !ok {
						return
					}
					exec.HandleArbitrage(ctx, opp)
				}
			}
		}(runner)
	}
	<-ctx.Done()
}

// startUserStream opens the authenticated user stream, re-authenticating
// on every reconnect, and dispatches order/balance events into state.
func startUserStream(ctx context.Context, cfg config.Config, state *account.State, logger *slog.Logger) *stream.Client {
	nonce := time.Now().UnixMilli()
	authMsg := types.WSAuthMsg{
		Action:    "auth",
		ApiKey:    cfg.APIInfo.ApiKey,
		Nonce:     nonce,
		Signature: signer.SignNonce(nonce, cfg.APIInfo.SecretKey),
		Filters:   []string{"order", "balance"},
	}
	payload, err := marshalAuthMsg(authMsg)
	if err != nil {
		logger.Error("failed to build user stream auth frame", "error", err)
		os.Exit(1)
	}

	client := stream.New(cfg.Exchange.WSUserURL, payload, logger)
	go func() {
		if err := client.Run(ctx, func(text []byte) { dispatchUserFrame(text, state, logger) }); err != nil && ctx.Err() == nil {
			logger.Error("user stream stopped", "error", err)
		}
	}()
	return client
}

func dispatchUserFrame(text []byte, state *account.State, logger *slog.Logger) {
	channel, err := frameChannel(text)
	if err != nil {
		logger.Warn("failed to parse user stream frame", "error", err)
		return
	}

	switch channel {
	case "order":
		msg, err := unmarshalOrderMessage(text)
		if err != nil {
			logger.Warn("failed to parse order message", "error", err)
			return
		}
		state.ApplyOrderMessage(msg)
	case "balance":
		msg, err := unmarshalBalanceMessage(text)
		if err != nil {
			logger.Warn("failed to parse balance message", "error", err)
			return
		}
		state.ApplyBalanceMessage(msg)
	default:
		logger.Warn("ignoring unknown user stream channel", "channel", channel)
	}
}

// fanoutReporter reports every trade outcome to both the risk guard and
// the status provider, keeping those two packages decoupled from each
// other.
type fanoutReporter struct {
	guard  *risk.Guard
	status *status.Provider
}

func (f *fanoutReporter) Report(triangleKey string, err error) {
	f.guard.Report(triangleKey, err)
	f.status.ReportTrade(triangleKey, err)
}
