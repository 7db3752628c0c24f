// Package api exposes a read-only view of the engine over HTTP: a point-in
// time JSON snapshot at GET /status, and the same state streamed as it
// changes via Server-Sent Events at GET /events.
package api

import (
	"time"

	"triarb/internal/risk"
)

// StatusSnapshot is the complete point-in-time state returned by GET
// /status.
type StatusSnapshot struct {
	Timestamp time.Time        `json:"timestamp"`
	Triangles []TriangleStatus `json:"triangles"`
	Risk      []risk.Snapshot  `json:"risk"`
}

// TriangleStatus is one configured triangle's current top-of-book and the
// most recent opportunity detected for it, if any.
type TriangleStatus struct {
	Key             string           `json:"key"`
	Symbols         [3]string        `json:"symbols"`
	Tops            []BookTickerView `json:"tops"`
	LastOpportunity *OpportunityView `json:"last_opportunity,omitempty"`
}

// BookTickerView is the JSON-friendly rendering of a types.BookTicker.
type BookTickerView struct {
	Symbol      string `json:"symbol"`
	BidPrice    string `json:"bid_price"`
	BidQuantity string `json:"bid_quantity"`
	AskPrice    string `json:"ask_price"`
	AskQuantity string `json:"ask_quantity"`
}

// OpportunityView is the JSON-friendly rendering of a types.Opportunity.
type OpportunityView struct {
	Description string    `json:"description"`
	Direction   string    `json:"direction"`
	Value       string    `json:"value"`
	MaxAmount   string    `json:"max_amount"`
	DetectedAt  time.Time `json:"detected_at"`
}

// Event is one entry in the /events SSE stream.
type Event struct {
	Type      string      `json:"type"` // "opportunity" or "trade_result"
	Timestamp time.Time   `json:"timestamp"`
	Triangle  string      `json:"triangle"`
	Data      interface{} `json:"data"`
}

// TradeResultView reports a completed trade's outcome for the events
// stream.
type TradeResultView struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// StatusProvider supplies the live state behind both endpoints. Satisfied
// by *triarb/internal/status.Provider.
type StatusProvider interface {
	Status() StatusSnapshot
	DashboardEvents() <-chan Event
}
