// Package cdp implements the persistent connection to a browser's DevTools
// endpoint: one websocket shared by every attached tab, with request/response
// correlation by id and fan-out of unsolicited events to subscribers.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single command round-trip when the caller's
// context carries no tighter deadline.
const DefaultTimeout = 30 * time.Second

// subscriberBuffer is the per-subscription event buffer. A subscriber that
// falls this far behind starts losing events instead of stalling the read
// loop.
const subscriberBuffer = 64

// callResult is the terminal state of one in-flight command: either the
// correlated response frame or a session-level failure.
type callResult struct {
	msg message
	err error
}

// pendingCall tracks one outstanding request id until its response arrives
// or the session fails.
type pendingCall struct {
	sessionID string
	ch        chan callResult
}

// Client is a multiplexed CDP connection. One background read loop drains
// the websocket; any number of goroutines may issue commands and subscribe
// to events concurrently.
type Client struct {
	conn    *websocket.Conn
	log     *zap.Logger
	timeout time.Duration

	// writeMu serializes frame writes; gorilla/websocket allows only one
	// concurrent writer.
	writeMu sync.Mutex

	// mu guards the correlation table and subscriber registry. Nothing
	// held under it performs I/O.
	mu       sync.Mutex
	nextID   int64
	pending  map[int64]*pendingCall
	subs     map[string]map[int64]chan Event
	nextSub  int64
	detached map[string]bool
	closed   bool

	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Client at dial time.
type Option func(*Client)

// WithTimeout overrides the default per-command deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// Dial connects to a DevTools websocket URL and starts the read loop.
func Dial(ctx context.Context, wsURL string, opts ...Option) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	c := &Client{
		conn:     conn,
		log:      zap.NewNop(),
		timeout:  DefaultTimeout,
		pending:  make(map[int64]*pendingCall),
		subs:     make(map[string]map[int64]chan Event),
		detached: make(map[string]bool),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.readLoop()
	return c, nil
}

// Call sends one command addressed to sessionID (empty for the browser-level
// session) and blocks until the correlated response arrives, the deadline
// expires, or the session fails. result, when non-nil, receives the decoded
// "result" member.
func (c *Client) Call(ctx context.Context, sessionID, method string, params, result any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", method, ErrTransportClosed)
	}
	if sessionID != "" && c.detached[sessionID] {
		c.mu.Unlock()
		return fmt.Errorf("%s: session %s: %w", method, sessionID, ErrContextGone)
	}
	c.nextID++
	id := c.nextID
	call := &pendingCall{sessionID: sessionID, ch: make(chan callResult, 1)}
	c.pending[id] = call
	c.mu.Unlock()

	req := request{ID: id, SessionID: sessionID, Method: method, Params: params}
	c.writeMu.Lock()
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.removePending(id)
		return fmt.Errorf("write %s: %w", method, ErrTransportClosed)
	}

	c.log.Debug("cdp call", zap.Int64("id", id), zap.String("method", method), zap.String("session", sessionID))

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case res := <-call.ch:
		if res.err != nil {
			return fmt.Errorf("%s: %w", method, res.err)
		}
		if res.msg.Error != nil {
			return fmt.Errorf("%s: %w", method, res.msg.Error)
		}
		if result != nil && len(res.msg.Result) > 0 {
			if err := json.Unmarshal(res.msg.Result, result); err != nil {
				return fmt.Errorf("decode %s result: %w", method, err)
			}
		}
		return nil
	case <-timer.C:
		c.removePending(id)
		return fmt.Errorf("%s after %s: %w", method, c.timeout, ErrTimeout)
	case <-ctx.Done():
		// A late response for this id is discarded by the read loop once
		// the pending entry is gone; no side effect survives cancellation.
		c.removePending(id)
		return ctx.Err()
	case <-c.done:
		return fmt.Errorf("%s: %w", method, ErrTransportClosed)
	}
}

// Subscribe registers for events of the given method, starting now. The
// returned cancel func drops the subscription and closes the channel; the
// channel also closes when the session ends. Each call yields an independent
// stream.
func (c *Client) Subscribe(method string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.nextSub++
	id := c.nextSub
	if c.subs[method] == nil {
		c.subs[method] = make(map[int64]chan Event)
	}
	c.subs[method][id] = ch
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if m := c.subs[method]; m != nil {
			if _, ok := m[id]; ok {
				delete(m, id)
				close(ch)
			}
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

// Attach opens a flat-mode session to a target and returns its session id.
func (c *Client) Attach(ctx context.Context, targetID string) (string, error) {
	var res struct {
		SessionID string `json:"sessionId"`
	}
	params := map[string]any{"targetId": targetID, "flatten": true}
	if err := c.Call(ctx, "", "Target.attachToTarget", params, &res); err != nil {
		return "", err
	}
	return res.SessionID, nil
}

// Close tears the connection down. Every pending command fails with
// ErrTransportClosed and every event stream terminates.
func (c *Client) Close() error {
	c.fail()
	return nil
}

// readLoop is the single consumer of the websocket. Per message it does one
// map lookup (response correlation) or one registry walk (event fan-out);
// it never blocks on a subscriber and performs no network calls.
func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.log.Debug("cdp read loop ended", zap.Error(err))
			c.fail()
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn("cdp: unparseable frame", zap.Error(err))
			continue
		}

		if msg.ID != 0 {
			c.resolve(msg)
			continue
		}
		if msg.Method == "Target.detachedFromTarget" {
			c.handleDetach(msg.Params)
		}
		c.fanout(Event{Method: msg.Method, SessionID: msg.SessionID, Params: msg.Params})
	}
}

// resolve routes a response frame to exactly the call that issued its id.
func (c *Client) resolve(msg message) {
	c.mu.Lock()
	call, ok := c.pending[msg.ID]
	if ok {
		delete(c.pending, msg.ID)
	}
	c.mu.Unlock()
	if !ok {
		// Cancelled or timed out before the response arrived.
		c.log.Debug("cdp: dropping late response", zap.Int64("id", msg.ID))
		return
	}
	call.ch <- callResult{msg: msg}
}

// fanout delivers an event to every current subscriber for its method,
// dropping on a full buffer rather than stalling ingestion.
func (c *Client) fanout(ev Event) {
	c.mu.Lock()
	targets := make([]chan Event, 0, len(c.subs[ev.Method]))
	for _, ch := range c.subs[ev.Method] {
		targets = append(targets, ch)
	}
	c.mu.Unlock()

	for _, ch := range targets {
		select {
		case ch <- ev:
		default:
			c.log.Warn("cdp: slow subscriber, dropping event", zap.String("method", ev.Method))
		}
	}
}

// handleDetach records a dead session and fails its in-flight commands so
// they return ErrContextGone instead of waiting out their deadlines.
func (c *Client) handleDetach(params json.RawMessage) {
	var p struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(params, &p); err != nil || p.SessionID == "" {
		return
	}

	c.mu.Lock()
	c.detached[p.SessionID] = true
	var stranded []*pendingCall
	for id, call := range c.pending {
		if call.sessionID == p.SessionID {
			delete(c.pending, id)
			stranded = append(stranded, call)
		}
	}
	c.mu.Unlock()

	for _, call := range stranded {
		call.ch <- callResult{err: ErrContextGone}
	}
}

func (c *Client) removePending(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// fail transitions the client to closed exactly once: pending commands
// resolve with ErrTransportClosed and all subscriber channels close.
func (c *Client) fail() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		calls := make([]*pendingCall, 0, len(c.pending))
		for id, call := range c.pending {
			delete(c.pending, id)
			calls = append(calls, call)
		}
		var chans []chan Event
		for _, m := range c.subs {
			for _, ch := range m {
				chans = append(chans, ch)
			}
		}
		c.subs = make(map[string]map[int64]chan Event)
		c.mu.Unlock()

		close(c.done)
		for _, call := range calls {
			call.ch <- callResult{err: ErrTransportClosed}
		}
		for _, ch := range chans {
			close(ch)
		}
		c.conn.Close()
	})
}
