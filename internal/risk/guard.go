// Package risk enforces a simple circuit breaker over the triangles the
// engine trades.
//
// The guard tracks each triangle's consecutive leg failures as reported by
// the executor. Once a triangle accumulates MaxConsecutiveLegFailures in a
// row, it is marked cooled down for Cooldown: strategy runners stop
// emitting new opportunities for it until the cooldown expires. A single
// successful trade resets its failure count to zero. The guard never
// touches open orders or positions; the executor's never-unwind behavior
// is unaffected.
package risk

import (
	"log/slog"
	"sync"
	"time"

	"triarb/internal/config"
)

// Guard is the consecutive-leg-failure circuit breaker, shared by the
// executor (which reports outcomes) and every strategy runner (which
// consults it before emitting an opportunity).
type Guard struct {
	cfg    config.RiskConfig
	logger *slog.Logger

	mu            sync.Mutex
	failures      map[string]int
	cooldownUntil map[string]time.Time
}

// NewGuard creates a guard from the configured failure threshold and
// cooldown duration.
func NewGuard(cfg config.RiskConfig, logger *slog.Logger) *Guard {
	return &Guard{
		cfg:           cfg,
		logger:        logger.With("component", "risk"),
		failures:      make(map[string]int),
		cooldownUntil: make(map[string]time.Time),
	}
}

// Report records a triangle's trade outcome. err nil means the trade
// completed (all three legs filled); any non-nil err counts as a leg
// failure, regardless of which leg or kind.
func (g *Guard) Report(triangleKey string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err == nil {
		delete(g.failures, triangleKey)
		return
	}

	g.failures[triangleKey]++
	if g.failures[triangleKey] < g.cfg.MaxConsecutiveLegFailures {
		return
	}

	until := time.Now().Add(g.cfg.Cooldown)
	g.cooldownUntil[triangleKey] = until
	g.failures[triangleKey] = 0
	g.logger.Error("triangle cooled down after repeated leg failures",
		"triangle", triangleKey, "until", until)
}

// IsCooledDown reports whether triangleKey is currently in its cooldown
// window. The cooldown entry is cleared lazily once it expires.
func (g *Guard) IsCooledDown(triangleKey string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	until, ok := g.cooldownUntil[triangleKey]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(g.cooldownUntil, triangleKey)
		return false
	}
	return true
}

// Snapshot describes the current cooldown state of every triangle the
// guard has seen a failure for, for the status endpoint.
type Snapshot struct {
	TriangleKey       string
	ConsecutiveErrors int
	CooledDown        bool
	CooldownUntil     time.Time
}

// Snapshots returns a point-in-time view of every tracked triangle.
func (g *Guard) Snapshots() []Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	keys := make(map[string]struct{}, len(g.failures)+len(g.cooldownUntil))
	for k := range g.failures {
		keys[k] = struct{}{}
	}
	for k := range g.cooldownUntil {
		keys[k] = struct{}{}
	}

	out := make([]Snapshot, 0, len(keys))
	for k := range keys {
		until, cooled := g.cooldownUntil[k]
		out = append(out, Snapshot{
			TriangleKey:       k,
			ConsecutiveErrors: g.failures[k],
			CooledDown:        cooled && time.Now().Before(until),
			CooldownUntil:     until,
		})
	}
	return out
}
