package stream

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var upgrader = websocket.Upgrader{}

func TestRunDeliversTextFramesToSink(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"hello":"world"}`))
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := New(url, nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var mu sync.Mutex
	var received []string
	go c.Run(ctx, func(text []byte) {
		mu.Lock()
		received = append(received, string(text))
		mu.Unlock()
	})

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	if len(received) == 0 {
		t.Fatal("expected at least one frame to be delivered")
	}
	if received[0] != `{"hello":"world"}` {
		t.Errorf("received[0] = %q, want the raw server frame", received[0])
	}
}

func TestRunResendsSubscribePayloadOnConnect(t *testing.T) {
	t.Parallel()

	firstFrame := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, msg, err := conn.ReadMessage()
		if err == nil {
			firstFrame <- string(msg)
		}
		time.Sleep(30 * time.Millisecond)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := New(url, []byte(`{"action":"subscribe"}`), testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	go c.Run(ctx, func([]byte) {})

	select {
	case got := <-firstFrame:
		if got != `{"action":"subscribe"}` {
			t.Errorf("subscribe frame = %q, want the configured payload", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscribe frame")
	}
}
