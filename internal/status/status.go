// Package status aggregates live engine state into the read-only view
// served by internal/api: a snapshot of every triangle's current top-of-book
// and last opportunity, plus a stream of opportunity/trade-result events.
package status

import (
	"context"
	"sync"
	"time"

	"triarb/internal/api"
	"triarb/internal/book"
	"triarb/internal/risk"
	"triarb/pkg/types"
)

// eventChanCapacity bounds how many undelivered events the provider holds
// before it starts dropping them.
const eventChanCapacity = 100

type triangleEntry struct {
	key     string
	symbols [3]types.Symbol
}

// Provider implements api.StatusProvider over a book registry, a risk
// guard, and the opportunity streams of every configured triangle.
type Provider struct {
	registry *book.Registry
	guard    *risk.Guard

	mu        sync.RWMutex
	triangles []triangleEntry
	lastOpp   map[string]types.Opportunity
	lastOppAt map[string]time.Time

	events chan api.Event
}

// New creates a Provider. guard may be nil if risk cooldown tracking isn't
// wired.
func New(registry *book.Registry, guard *risk.Guard) *Provider {
	return &Provider{
		registry:  registry,
		guard:     guard,
		lastOpp:   make(map[string]types.Opportunity),
		lastOppAt: make(map[string]time.Time),
		events:    make(chan api.Event, eventChanCapacity),
	}
}

// Track registers a triangle so it appears in Status(), keyed the same way
// strategy.Runner keys its opportunities.
func (p *Provider) Track(key string, symbols [3]types.Symbol) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.triangles = append(p.triangles, triangleEntry{key: key, symbols: symbols})
}

// Watch subscribes to a runner's opportunity stream until ctx is
// cancelled, recording each opportunity and publishing it as an event.
func (p *Provider) Watch(ctx context.Context, opportunities <-chan types.Opportunity) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case opp, ok := <-opportunities:
				if !ok {
					return
				}
				p.recordOpportunity(opp)
			}
		}
	}()
}

// ReportTrade records a completed trade's outcome as an event. Wire this
// from the same place the executor reports outcomes to the risk guard.
func (p *Provider) ReportTrade(triangleKey string, err error) {
	view := api.TradeResultView{Success: err == nil}
	if err != nil {
		view.Error = err.Error()
	}
	p.publish(api.Event{Type: "trade_result", Triangle: triangleKey, Data: view})
}

func (p *Provider) recordOpportunity(opp types.Opportunity) {
	now := time.Now()

	p.mu.Lock()
	p.lastOpp[opp.TriangleKey] = opp
	p.lastOppAt[opp.TriangleKey] = now
	p.mu.Unlock()

	p.publish(api.Event{
		Type:     "opportunity",
		Triangle: opp.TriangleKey,
		Data:     toOpportunityView(opp, now),
	})
}

func (p *Provider) publish(evt api.Event) {
	evt.Timestamp = time.Now()
	select {
	case p.events <- evt:
	default:
	}
}

// Status builds the current snapshot.
func (p *Provider) Status() api.StatusSnapshot {
	p.mu.RLock()
	triangles := make([]triangleEntry, len(p.triangles))
	copy(triangles, p.triangles)
	p.mu.RUnlock()

	out := make([]api.TriangleStatus, 0, len(triangles))
	for _, tri := range triangles {
		out = append(out, p.triangleStatus(tri))
	}

	var riskSnaps []risk.Snapshot
	if p.guard != nil {
		riskSnaps = p.guard.Snapshots()
	}

	return api.StatusSnapshot{
		Timestamp: time.Now(),
		Triangles: out,
		Risk:      riskSnaps,
	}
}

func (p *Provider) triangleStatus(tri triangleEntry) api.TriangleStatus {
	status := api.TriangleStatus{
		Key:     tri.key,
		Symbols: [3]string{tri.symbols[0].String(), tri.symbols[1].String(), tri.symbols[2].String()},
	}

	tops, ok := p.registry.Tops(tri.symbols[:])
	if ok {
		status.Tops = make([]api.BookTickerView, len(tops))
		for i, t := range tops {
			status.Tops[i] = api.BookTickerView{
				Symbol:      t.Symbol.String(),
				BidPrice:    t.BidPrice.String(),
				BidQuantity: t.BidQuantity.String(),
				AskPrice:    t.AskPrice.String(),
				AskQuantity: t.AskQuantity.String(),
			}
		}
	}

	p.mu.RLock()
	opp, hasOpp := p.lastOpp[tri.key]
	detectedAt := p.lastOppAt[tri.key]
	p.mu.RUnlock()

	if hasOpp {
		v := toOpportunityView(opp, detectedAt)
		status.LastOpportunity = &v
	}

	return status
}

func toOpportunityView(opp types.Opportunity, detectedAt time.Time) api.OpportunityView {
	return api.OpportunityView{
		Description: opp.Description,
		Direction:   string(opp.Direction),
		Value:       opp.Value.String(),
		MaxAmount:   opp.MaxAmount.String(),
		DetectedAt:  detectedAt,
	}
}

// DashboardEvents returns the event stream, for the SSE endpoint.
func (p *Provider) DashboardEvents() <-chan api.Event {
	return p.events
}
