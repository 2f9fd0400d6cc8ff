package engine

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mj1618/chrome-cli/internal/cdp"
)

// fakeCaller satisfies the caller interface with canned per-method handlers
// and a recorded call log.
type fakeCaller struct {
	mu       sync.Mutex
	handlers map[string]func(sessionID string, params json.RawMessage) (any, error)
	calls    []fakeCall
}

type fakeCall struct {
	SessionID string
	Method    string
	Params    json.RawMessage
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{handlers: make(map[string]func(string, json.RawMessage) (any, error))}
}

func (f *fakeCaller) handle(method string, fn func(sessionID string, params json.RawMessage) (any, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = fn
}

// reply registers a handler that always returns the same value.
func (f *fakeCaller) reply(method string, value any) {
	f.handle(method, func(string, json.RawMessage) (any, error) { return value, nil })
}

func (f *fakeCaller) Call(_ context.Context, sessionID, method string, params, result any) error {
	raw, _ := json.Marshal(params)
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{SessionID: sessionID, Method: method, Params: raw})
	h := f.handlers[method]
	f.mu.Unlock()

	if h == nil {
		return nil
	}
	res, err := h(sessionID, raw)
	if err != nil {
		return err
	}
	if result == nil || res == nil {
		return nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, result)
}

func (f *fakeCaller) Subscribe(string) (<-chan cdp.Event, func()) {
	ch := make(chan cdp.Event, 8)
	return ch, func() {}
}

// methodCalls returns the recorded calls for one method.
func (f *fakeCaller) methodCalls(method string) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// newTestEngine wires an engine around a fake transport with target T1
// already attached as session S1.
func newTestEngine(fake *fakeCaller) *Engine {
	e := newEngine(fake, "localhost", 9222)
	e.sessions["T1"] = "S1"
	return e
}

// evalResult wraps a value the way Runtime.evaluate returns it.
func evalResult(value any) any {
	return map[string]any{"result": map[string]any{"value": value}}
}
