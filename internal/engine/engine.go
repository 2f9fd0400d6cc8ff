// Package engine turns abstract target descriptions into concrete,
// actionable page locations and executes actions on them, over a multiplexed
// DevTools session. It owns no persistent state beyond the live session:
// reconnecting starts fresh with no carried-over node or context identity.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mj1618/chrome-cli/internal/cdp"
	"github.com/mj1618/chrome-cli/internal/model"
	"github.com/mj1618/chrome-cli/internal/native"
)

// caller is the slice of the CDP client the engine depends on. Tests
// substitute a fake; production wiring passes *cdp.Client.
type caller interface {
	Call(ctx context.Context, sessionID, method string, params, result any) error
	Subscribe(method string) (<-chan cdp.Event, func())
}

// sessionDomains are enabled once per attached browsing context.
var sessionDomains = []string{"Page.enable", "DOM.enable", "Runtime.enable", "Accessibility.enable"}

// Engine is the resolution and execution facade handed to the tool layer.
// All methods are safe to call concurrently.
type Engine struct {
	client  caller
	log     *zap.Logger
	host    string
	port    int
	visible VisibilityFunc
	input   *native.Provider

	mu       sync.Mutex
	sessions map[string]string // target id -> session id

	// stopDetachWatch ends the goroutine pruning dead sessions.
	stopDetachWatch func()

	// resolveCSSFn is swapped out by resolver tests; the default performs
	// the DOM.querySelector protocol round-trip.
	resolveCSSFn func(ctx context.Context, targetID, selector string) (*ResolvedTarget, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithVisibility replaces the visibility predicate used during resolution.
func WithVisibility(fn VisibilityFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.visible = fn
		}
	}
}

// WithNativeInput supplies the OS input backend used for the native
// execution path. Without it, native execution fails with
// native.ErrUnsupported.
func WithNativeInput(p *native.Provider) Option {
	return func(e *Engine) { e.input = p }
}

// Connect dials the browser-level DevTools endpoint and returns a ready
// engine. The caller owns the engine and must Close it.
func Connect(ctx context.Context, host string, port int, timeout time.Duration, opts ...Option) (*Engine, error) {
	wsURL, err := cdp.BrowserWebSocketURL(ctx, host, port)
	if err != nil {
		return nil, fmt.Errorf("discover browser endpoint: %w", err)
	}

	e := newEngine(nil, host, port)
	for _, opt := range opts {
		opt(e)
	}

	client, err := cdp.Dial(ctx, wsURL, cdp.WithTimeout(timeout), cdp.WithLogger(e.log))
	if err != nil {
		return nil, err
	}
	e.client = client
	e.watchDetached()
	return e, nil
}

// newEngine wires defaults shared by Connect and the tests.
func newEngine(client caller, host string, port int) *Engine {
	e := &Engine{
		client:   client,
		log:      zap.NewNop(),
		host:     host,
		port:     port,
		visible:  DefaultVisibility,
		sessions: make(map[string]string),
	}
	e.resolveCSSFn = e.resolveCSSProtocol
	return e
}

// Close tears down the session. Outstanding work fails with the transport
// error taxonomy; nothing is persisted.
func (e *Engine) Close() {
	if e.stopDetachWatch != nil {
		e.stopDetachWatch()
	}
	if c, ok := e.client.(*cdp.Client); ok {
		c.Close()
	}
}

// watchDetached prunes the target-to-session map as contexts die, so a later
// call re-attaches instead of addressing a dead session.
func (e *Engine) watchDetached() {
	events, cancel := e.client.Subscribe("Target.detachedFromTarget")
	e.stopDetachWatch = cancel
	go func() {
		for ev := range events {
			var p struct {
				SessionID string `json:"sessionId"`
				TargetID  string `json:"targetId"`
			}
			if err := json.Unmarshal(ev.Params, &p); err != nil {
				continue
			}
			e.mu.Lock()
			for tid, sid := range e.sessions {
				if sid == p.SessionID || tid == p.TargetID {
					delete(e.sessions, tid)
				}
			}
			e.mu.Unlock()
			e.log.Debug("session detached", zap.String("target", p.TargetID))
		}
	}()
}

// session returns the attached session for a target, attaching and enabling
// the required protocol domains on first use.
func (e *Engine) session(ctx context.Context, targetID string) (string, error) {
	e.mu.Lock()
	if sid, ok := e.sessions[targetID]; ok {
		e.mu.Unlock()
		return sid, nil
	}
	e.mu.Unlock()

	var res struct {
		SessionID string `json:"sessionId"`
	}
	params := map[string]any{"targetId": targetID, "flatten": true}
	if err := e.client.Call(ctx, "", "Target.attachToTarget", params, &res); err != nil {
		return "", fmt.Errorf("attach %s: %w", targetID, err)
	}
	for _, method := range sessionDomains {
		if err := e.client.Call(ctx, res.SessionID, method, nil, nil); err != nil {
			return "", err
		}
	}

	e.mu.Lock()
	e.sessions[targetID] = res.SessionID
	e.mu.Unlock()
	return res.SessionID, nil
}

// ListTabs returns every open page target.
func (e *Engine) ListTabs(ctx context.Context) ([]model.Tab, error) {
	infos, err := cdp.ListTabs(ctx, e.host, e.port)
	if err != nil {
		return nil, err
	}
	tabs := make([]model.Tab, 0, len(infos))
	for _, t := range infos {
		tabs = append(tabs, model.Tab{ID: t.ID, Title: t.Title, URL: t.URL})
	}
	return tabs, nil
}

// NewTab opens a tab, optionally at url, and returns it.
func (e *Engine) NewTab(ctx context.Context, url string) (model.Tab, error) {
	info, err := cdp.NewTab(ctx, e.host, e.port, url)
	if err != nil {
		return model.Tab{}, err
	}
	return model.Tab{ID: info.ID, Title: info.Title, URL: info.URL}, nil
}

// CloseTab closes a tab by id.
func (e *Engine) CloseTab(ctx context.Context, targetID string) error {
	return cdp.CloseTab(ctx, e.host, e.port, targetID)
}

// ActivateTab brings a tab to the foreground.
func (e *Engine) ActivateTab(ctx context.Context, targetID string) error {
	return e.client.Call(ctx, "", "Target.activateTarget", map[string]any{"targetId": targetID}, nil)
}

// FirstTab returns the first open page, a convenience for single-tab use.
func (e *Engine) FirstTab(ctx context.Context) (model.Tab, error) {
	tabs, err := e.ListTabs(ctx)
	if err != nil {
		return model.Tab{}, err
	}
	if len(tabs) == 0 {
		return model.Tab{}, fmt.Errorf("browser has no open tabs")
	}
	return tabs[0], nil
}

// Navigate loads a URL in the given tab and waits for the load event.
func (e *Engine) Navigate(ctx context.Context, targetID, url string) error {
	sess, err := e.session(ctx, targetID)
	if err != nil {
		return err
	}

	loaded, cancel := e.client.Subscribe("Page.loadEventFired")
	defer cancel()

	var res struct {
		ErrorText string `json:"errorText"`
	}
	if err := e.client.Call(ctx, sess, "Page.navigate", map[string]any{"url": url}, &res); err != nil {
		return err
	}
	if res.ErrorText != "" {
		return fmt.Errorf("navigate %s: %s", url, res.ErrorText)
	}

	for {
		select {
		case ev, ok := <-loaded:
			if !ok {
				return cdp.ErrTransportClosed
			}
			if ev.SessionID == sess {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Evaluate runs a JavaScript expression in the tab and returns its value as
// raw JSON. Page exceptions surface as errors rather than empty results.
func (e *Engine) Evaluate(ctx context.Context, targetID, expression string) (json.RawMessage, error) {
	sess, err := e.session(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return e.evaluate(ctx, sess, expression)
}

func (e *Engine) evaluate(ctx context.Context, sess, expression string) (json.RawMessage, error) {
	params := map[string]any{
		"expression":    expression,
		"returnByValue": true,
		"awaitPromise":  true,
	}
	var res struct {
		Result struct {
			Value json.RawMessage `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text      string `json:"text"`
			Exception *struct {
				Description string `json:"description"`
			} `json:"exception"`
		} `json:"exceptionDetails"`
	}
	if err := e.client.Call(ctx, sess, "Runtime.evaluate", params, &res); err != nil {
		return nil, err
	}
	if ed := res.ExceptionDetails; ed != nil {
		detail := ed.Text
		if ed.Exception != nil && ed.Exception.Description != "" {
			detail = ed.Exception.Description
		}
		return nil, fmt.Errorf("page exception: %s", firstLine(detail))
	}
	return res.Result.Value, nil
}

// PageURL returns the tab's current location.
func (e *Engine) PageURL(ctx context.Context, targetID string) (string, error) {
	raw, err := e.Evaluate(ctx, targetID, "window.location.href")
	if err != nil {
		return "", err
	}
	var url string
	if err := json.Unmarshal(raw, &url); err != nil {
		return "", err
	}
	return url, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
