/*-------------------------------------------------------------------------
 *
 * WebSocket Connection Controller for DB Chat Client
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package chat

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pgedge-dbchat/internal/logging"
)

// ConnState represents the lifecycle state of the duplex channel
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateOpen
)

// String returns the string representation of a connection state
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// reconnectDelay is the fixed delay before a reopen attempt after the
// channel is lost. Retries continue indefinitely while the prerequisite
// triple remains satisfied.
const reconnectDelay = 3 * time.Second

// connParams is the prerequisite triple captured when a connection is
// opened. Reopen attempts reuse the captured triple rather than re-reading
// the latest selection, so a redial never races a selection change.
type connParams struct {
	Database  string
	Schema    string
	SessionID string
}

func (p connParams) complete() bool {
	return p.Database != "" && p.Schema != "" && p.SessionID != ""
}

// transport is the seam between the view model and the channel lifecycle.
// Only the controller opens or closes the underlying connection.
type transport interface {
	Connect(p connParams)
	Disconnect()
	Send(text string) error
	State() ConnState
	Generation() uint64
	Close()
}

// Controller owns the single WebSocket connection to the backend chat
// endpoint. Each successful dial increments a generation counter; frames
// are tagged with their generation so a late frame from a superseded
// connection is never folded into the current conversation.
type Controller struct {
	wsURL    string
	dialer   *websocket.Dialer
	onFrame  func(gen uint64, f Frame)
	onState  func(s ConnState)
	onClosed func(gen uint64)

	retryDelay time.Duration

	mu     sync.Mutex
	state  ConnState
	conn   *websocket.Conn
	gen    uint64
	params connParams
	retry  *time.Timer
	closed bool
}

// NewController creates a controller for the backend at serverURL. The
// callbacks run on the controller's goroutines and must not call back
// into the controller.
func NewController(serverURL string, onFrame func(gen uint64, f Frame), onState func(s ConnState), onClosed func(gen uint64)) (*Controller, error) {
	wsURL, err := websocketURL(serverURL)
	if err != nil {
		return nil, err
	}

	return &Controller{
		wsURL:    wsURL,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		onFrame:  onFrame,
		onState:  onState,
		onClosed: onClosed,
		state:    StateDisconnected,

		retryDelay: reconnectDelay,
	}, nil
}

// websocketURL converts the backend base URL to its ws(s) equivalent
func websocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server url scheme: %s", u.Scheme)
	}

	u.Path = ""
	u.RawQuery = ""
	return strings.TrimRight(u.String(), "/"), nil
}

// chatEndpoint builds the channel URL for the captured triple
func (c *Controller) chatEndpoint(p connParams) string {
	q := url.Values{}
	q.Set("db", p.Database)
	q.Set("schema", p.Schema)
	q.Set("session_id", p.SessionID)
	return c.wsURL + "/ws/chat?" + q.Encode()
}

// State returns the current connection state
func (c *Controller) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generation returns the generation of the current connection
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Connect opens the channel for the given prerequisite triple. An active
// connection with the same triple is left alone; anything else is torn
// down and replaced. Dialing happens off the caller's goroutine.
func (c *Controller) Connect(p connParams) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.params == p && (c.state == StateOpen || c.state == StateConnecting) {
		return
	}

	c.params = p
	c.teardownLocked()
	c.setStateLocked(StateConnecting)

	go c.dial(p)
}

// Disconnect closes the channel and cancels any pending reopen
func (c *Controller) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.state == StateDisconnected {
		return
	}

	c.params = connParams{}
	c.teardownLocked()
	c.setStateLocked(StateDisconnected)
}

// Close shuts the controller down permanently
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.params = connParams{}
	c.teardownLocked()
	c.state = StateDisconnected
}

// Send writes the raw user text as one outbound frame. It is only valid
// while the channel is open; there is no queueing for later delivery.
func (c *Controller) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpen || c.conn == nil {
		return fmt.Errorf("channel is not open")
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// teardownLocked closes the active connection and cancels any pending
// reopen. Caller must hold c.mu.
func (c *Controller) teardownLocked() {
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage, //nolint:errcheck // Best effort close handshake
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
		c.conn = nil
	}
}

// setStateLocked updates the state and notifies. Caller must hold c.mu.
func (c *Controller) setStateLocked(s ConnState) {
	if c.state == s {
		return
	}
	c.state = s
	if c.onState != nil {
		c.onState(s)
	}
}

// dial attempts to open the channel for the captured triple. A failed
// attempt schedules another after the fixed delay; a superseded attempt
// discards its result.
func (c *Controller) dial(p connParams) {
	conn, resp, err := c.dialer.Dial(c.chatEndpoint(p), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.params != p || c.state != StateConnecting {
		// Selection changed or the controller was torn down while dialing
		if conn != nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		logging.Warn("Channel open failed, scheduling retry",
			"database", p.Database, "schema", p.Schema, "error", err.Error())
		c.scheduleRetryLocked(p)
		return
	}

	c.conn = conn
	c.gen++
	c.setStateLocked(StateOpen)

	go c.readLoop(conn, c.gen, p)
}

// scheduleRetryLocked arms the reopen timer with the captured triple.
// Caller must hold c.mu.
func (c *Controller) scheduleRetryLocked(p connParams) {
	c.retry = time.AfterFunc(c.retryDelay, func() {
		c.mu.Lock()
		if c.closed || c.params != p || c.state != StateConnecting {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		c.dial(p)
	})
}

// readLoop delivers inbound frames in arrival order until the connection
// is lost or superseded
func (c *Controller) readLoop(conn *websocket.Conn, gen uint64, p connParams) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			logging.Warn("Discarding malformed frame", "error", err.Error())
			continue
		}

		c.mu.Lock()
		current := !c.closed && c.conn == conn
		c.mu.Unlock()
		if !current {
			return
		}

		c.onFrame(gen, frame)
	}

	c.mu.Lock()
	if c.closed || c.conn != conn {
		// Deliberate teardown or already replaced
		c.mu.Unlock()
		return
	}

	// Transport loss with prerequisites still satisfied: reopen with the
	// triple captured at open time
	c.conn = nil
	c.setStateLocked(StateConnecting)
	c.scheduleRetryLocked(p)
	c.mu.Unlock()

	if c.onClosed != nil {
		c.onClosed(gen)
	}
}
