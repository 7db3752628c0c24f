package api

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"triarb/internal/risk"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubProvider struct {
	snapshot StatusSnapshot
	events   chan Event
}

func (p *stubProvider) Status() StatusSnapshot          { return p.snapshot }
func (p *stubProvider) DashboardEvents() <-chan Event { return p.events }

func TestHandleHealthReturnsOK(t *testing.T) {
	t.Parallel()
	h := NewHandlers(&stubProvider{}, NewHub(testLogger()), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HandleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestHandleStatusReturnsProviderSnapshot(t *testing.T) {
	t.Parallel()
	snapshot := StatusSnapshot{
		Triangles: []TriangleStatus{{Key: "BTC_USDT/BTC_TWD/USDT_TWD"}},
		Risk:      []risk.Snapshot{{TriangleKey: "BTC_USDT/BTC_TWD/USDT_TWD"}},
	}
	h := NewHandlers(&stubProvider{snapshot: snapshot}, NewHub(testLogger()), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got StatusSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(got.Triangles) != 1 || got.Triangles[0].Key != "BTC_USDT/BTC_TWD/USDT_TWD" {
		t.Errorf("Triangles = %+v, want the provider's snapshot", got.Triangles)
	}
}

func TestHandleEventsStreamsBroadcastEvents(t *testing.T) {
	t.Parallel()

	hub := NewHub(testLogger())
	go hub.Run()

	h := NewHandlers(&stubProvider{}, hub, testLogger())

	srv := httptest.NewServer(http.HandlerFunc(h.HandleEvents))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	// Give the handler a moment to register its subscription before
	// broadcasting, since Subscribe happens inside the handler goroutine.
	time.Sleep(20 * time.Millisecond)
	hub.BroadcastEvent(Event{Type: "opportunity", Triangle: "a/b/c"})

	reader := bufio.NewReader(resp.Body)
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read SSE stream: %v", err)
		}
		if len(line) > len("data: ") && line[:6] == "data: " {
			var evt Event
			if err := json.Unmarshal([]byte(line[6:]), &evt); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			if evt.Type != "opportunity" || evt.Triangle != "a/b/c" {
				t.Errorf("event = %+v, want the broadcast event", evt)
			}
			return
		}
	}
	t.Fatal("timed out waiting for SSE event")
}
