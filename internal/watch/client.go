// Package watch follows a running omahareader server over its WebSocket
// feed and shows the tables in a terminal UI.
package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/omahareader/internal/readmodel"
	"github.com/lox/omahareader/internal/server"
)

var ErrNotConnected = errors.New("not connected")

// Update is one detection update received from the server.
type Update struct {
	Payload    readmodel.Payload
	ReceivedAt time.Time
	SentAt     time.Time
}

// Client reads detection updates from the server's /ws endpoint.
type Client struct {
	serverURL string
	logger    *log.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(serverURL string, logger *log.Logger) *Client {
	return &Client{
		serverURL: serverURL,
		logger:    logger.WithPrefix("watch"),
	}
}

// WebSocketURL turns a server address into its /ws endpoint. http and https
// schemes map to ws and wss; a bare host:port is treated as ws.
func WebSocketURL(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: missing host", raw)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Connect dials the server.
func (c *Client) Connect(ctx context.Context) error {
	target, err := WebSocketURL(c.serverURL)
	if err != nil {
		return err
	}

	c.logger.Info("Connecting to server", "url", target)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Close sends a close frame and releases the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Refresh asks the server to resend the current state.
func (c *Client) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.WriteJSON(server.Message{Type: server.MessageTypeRefresh, Timestamp: time.Now().UTC()})
}

// Listen delivers updates to handle until ctx is cancelled or the
// connection drops. Server error messages are logged and skipped.
func (c *Client) Listen(ctx context.Context, handle func(Update)) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	for {
		var msg server.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		switch msg.Type {
		case server.MessageTypeDetectionUpdate:
			var payload readmodel.Payload
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				c.logger.Warn("Malformed update", "error", err)
				continue
			}
			handle(Update{Payload: payload, ReceivedAt: time.Now(), SentAt: msg.Timestamp})
		case server.MessageTypeError:
			var data server.ErrorData
			_ = json.Unmarshal(msg.Data, &data)
			c.logger.Warn("Server error", "code", data.Code, "message", data.Message)
		default:
			c.logger.Debug("Ignoring message", "type", msg.Type)
		}
	}
}
