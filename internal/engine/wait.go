package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mj1618/chrome-cli/internal/cdp"
)

// WaitKind names a condition the engine can poll for.
type WaitKind string

const (
	WaitLoad        WaitKind = "load"        // document.readyState === "complete"
	WaitSelector    WaitKind = "selector"    // CSS selector matches
	WaitText        WaitKind = "text"        // accessibility tree contains text
	WaitURLContains WaitKind = "url"         // location contains substring
	WaitGone        WaitKind = "gone"        // CSS selector matches nothing
	WaitIdle        WaitKind = "idle"        // network quiet after load
)

// WaitCondition describes what to wait for.
type WaitCondition struct {
	Kind  WaitKind
	Value string // selector, text, or URL fragment depending on Kind
}

// defaultPollInterval paces condition checks; each check is one or two
// protocol round-trips, so polling faster buys little.
const defaultPollInterval = 250 * time.Millisecond

// WaitFor polls a condition until it holds or the context expires. The
// deadline error carries ErrTimeout so callers can distinguish a slow page
// from a broken one.
func (e *Engine) WaitFor(ctx context.Context, targetID string, cond WaitCondition, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	idle := newIdleState()
	for {
		ok, err := e.check(ctx, targetID, cond, idle)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s %q: %w", cond.Kind, cond.Value, cdp.ErrTimeout)
		}
	}
}

func (e *Engine) check(ctx context.Context, targetID string, cond WaitCondition, idle *idleState) (bool, error) {
	switch cond.Kind {
	case WaitLoad:
		return e.evalBool(ctx, targetID, `document.readyState === "complete"`)
	case WaitIdle:
		return e.checkIdle(ctx, targetID, idle)
	case WaitSelector:
		return e.evalBool(ctx, targetID, fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(cond.Value)))
	case WaitGone:
		return e.evalBool(ctx, targetID, fmt.Sprintf(`document.querySelector(%s) === null`, jsString(cond.Value)))
	case WaitURLContains:
		url, err := e.PageURL(ctx, targetID)
		if err != nil {
			return false, err
		}
		return strings.Contains(url, cond.Value), nil
	case WaitText:
		snap, err := e.Snapshot(ctx, targetID)
		if err != nil {
			return false, err
		}
		query := strings.ToLower(cond.Value)
		for _, el := range snap.Flat() {
			_, sub := textMatch(&el, query)
			if sub {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unknown wait condition %q", cond.Kind)
	}
}

// idleState carries the resource count between idle checks. The page is
// considered network-quiet once it has loaded and the resource timing entry
// count holds still across two consecutive polls.
type idleState struct {
	lastCount int
}

func newIdleState() *idleState {
	return &idleState{lastCount: -1}
}

func (e *Engine) checkIdle(ctx context.Context, targetID string, idle *idleState) (bool, error) {
	loaded, err := e.evalBool(ctx, targetID, `document.readyState === "complete"`)
	if err != nil {
		return false, err
	}
	raw, err := e.Evaluate(ctx, targetID, `performance.getEntriesByType("resource").length`)
	if err != nil {
		return false, err
	}
	var count int
	if err := json.Unmarshal(raw, &count); err != nil {
		return false, err
	}
	quiet := loaded && idle.lastCount == count
	idle.lastCount = count
	return quiet, nil
}

func (e *Engine) evalBool(ctx context.Context, targetID, expr string) (bool, error) {
	raw, err := e.Evaluate(ctx, targetID, expr)
	if err != nil {
		return false, err
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, err
	}
	return b, nil
}

// jsString renders a Go string as a JS string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
