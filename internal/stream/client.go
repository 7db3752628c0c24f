// Package stream implements a resilient WebSocket client shared by the
// public market-data feed and the authenticated user feed. It knows nothing
// about message semantics: it hands every inbound text frame, raw, to a
// caller-supplied sink and reconnects on any failure.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	reconnectDelay = 5 * time.Second
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Sink receives the raw text of each inbound text frame.
type Sink func(text []byte)

// Client maintains a single WebSocket connection, reconnecting with a fixed
// delay and resending the subscribe payload on every reconnect.
type Client struct {
	url              string
	subscribePayload []byte // resent verbatim after every (re)connect, nil to skip

	connMu sync.Mutex
	conn   *websocket.Conn

	logger *slog.Logger
}

// New creates a client for url. subscribePayload, if non-nil, is sent as a
// text frame immediately after every successful connect.
func New(url string, subscribePayload []byte, logger *slog.Logger) *Client {
	return &Client{
		url:              url,
		subscribePayload: subscribePayload,
		logger:           logger.With("component", "stream", "url", url),
	}
}

// Run connects and maintains the connection, handing every inbound text
// frame to sink, until ctx is cancelled. It never returns until then: any
// connection failure is followed by a fixed delay and a reconnect attempt.
func (c *Client) Run(ctx context.Context, sink Sink) error {
	for {
		err := c.connectAndRead(ctx, sink)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn("stream disconnected, reconnecting", "error", err, "delay", reconnectDelay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// Close closes the underlying connection, if any, unblocking a pending
// read. Run then returns only if its ctx is cancelled; otherwise it
// reconnects after the fixed delay.
func (c *Client) Close() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) connectAndRead(ctx context.Context, sink Sink) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	defer func() {
		c.connMu.Lock()
		conn.Close()
		c.conn = nil
		c.connMu.Unlock()
	}()

	if c.subscribePayload != nil {
		if err := c.writeText(c.subscribePayload); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
	}

	c.logger.Info("stream connected")

	conn.SetPingHandler(func(appData string) error {
		c.connMu.Lock()
		defer c.connMu.Unlock()
		if c.conn == nil {
			return nil
		}
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return c.conn.WriteMessage(websocket.PongMessage, []byte(appData))
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go c.pingLoop(pingCtx)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if msgType != websocket.TextMessage {
			continue
		}
		sink(data)
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.connMu.Lock()
			conn := c.conn
			if conn != nil {
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			}
			var err error
			if conn != nil {
				err = conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
			if err != nil {
				c.logger.Warn("ping failed", "error", err)
				return
			}
		}
	}
}

func (c *Client) writeText(data []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("stream not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
