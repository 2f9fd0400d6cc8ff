package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mj1618/chrome-cli/internal/cdp"
	"github.com/mj1618/chrome-cli/internal/model"
	"github.com/mj1618/chrome-cli/internal/native"
)

// ActionKind names an executable interaction.
type ActionKind string

const (
	ActionClick  ActionKind = "click"
	ActionHover  ActionKind = "hover"
	ActionType   ActionKind = "type"
	ActionScroll ActionKind = "scroll"
	ActionSelect ActionKind = "select"
	ActionFocus  ActionKind = "focus"
)

// Action describes what to do at a resolved target.
type Action struct {
	Kind       ActionKind
	Text       string  // type
	Button     string  // click: left, right, middle
	ClickCount int     // click: 2 for double
	DeltaX     float64 // scroll
	DeltaY     float64
	Value      string // select: option value
	Native     bool   // force the OS-level input path
}

// ExecutionReport records what actually happened, including which input
// path delivered the action. Agents use the path to notice when the page
// stopped cooperating with synthetic events.
type ExecutionReport struct {
	ID      string        `json:"id" yaml:"id"`
	Action  string        `json:"action" yaml:"action"`
	Target  string        `json:"target" yaml:"target"`
	Path    string        `json:"path" yaml:"path"` // protocol or native
	X       float64       `json:"x" yaml:"x"`
	Y       float64       `json:"y" yaml:"y"`
	Elapsed time.Duration `json:"elapsedMs" yaml:"elapsedMs"`
}

const (
	pathProtocol = "protocol"
	pathNative   = "native"
)

// Do resolves a description and executes the action on it, the common
// one-shot entry point for the command and tool layers.
func (e *Engine) Do(ctx context.Context, targetID string, desc model.TargetDescription, action Action) (*ExecutionReport, error) {
	rt, err := e.Resolve(ctx, targetID, desc)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, rt, action)
}

// Execute delivers an action at a resolved target. The protocol path is
// preferred; when it reports the target as not interactable, execution
// falls back to OS-level input exactly once. Raw screen coordinates and
// explicitly native actions skip the protocol entirely.
func (e *Engine) Execute(ctx context.Context, rt *ResolvedTarget, action Action) (*ExecutionReport, error) {
	start := time.Now()
	report := &ExecutionReport{
		ID:     uuid.NewString(),
		Action: string(action.Kind),
		Target: rt.Description.String(),
		X:      rt.X,
		Y:      rt.Y,
	}

	if action.Native || rt.Description.Kind == model.TargetCoordinate {
		if err := e.executeNative(ctx, rt, action); err != nil {
			return nil, err
		}
		report.Path = pathNative
		report.Elapsed = time.Since(start)
		return report, nil
	}

	err := e.executeProtocol(ctx, rt, action)
	if err == nil {
		report.Path = pathProtocol
		report.Elapsed = time.Since(start)
		return report, nil
	}
	if !errors.Is(err, cdp.ErrTargetNotInteractable) {
		return nil, err
	}

	// One hop only: a native failure is terminal, never retried through
	// the protocol again.
	e.log.Info("falling back to native input",
		zap.String("target", rt.Description.String()),
		zap.String("action", string(action.Kind)))
	if nerr := e.executeNative(ctx, rt, action); nerr != nil {
		return nil, fmt.Errorf("protocol path failed (%v); native fallback: %w", err, nerr)
	}
	report.Path = pathNative
	report.Elapsed = time.Since(start)
	return report, nil
}

// executeProtocol dispatches the action as synthetic DevTools input.
func (e *Engine) executeProtocol(ctx context.Context, rt *ResolvedTarget, action Action) error {
	sess, err := e.session(ctx, rt.TargetID)
	if err != nil {
		return err
	}

	switch action.Kind {
	case ActionClick:
		return e.protocolClick(ctx, sess, rt, action)
	case ActionHover:
		return e.dispatchMouse(ctx, sess, "mouseMoved", rt.X, rt.Y, "", 0)
	case ActionScroll:
		return e.protocolScroll(ctx, sess, rt, action)
	case ActionType:
		return e.protocolType(ctx, sess, rt, action)
	case ActionSelect:
		return e.protocolSelect(ctx, sess, rt, action)
	case ActionFocus:
		return e.focusNode(ctx, sess, rt)
	default:
		return fmt.Errorf("unknown action %q", action.Kind)
	}
}

func (e *Engine) protocolClick(ctx context.Context, sess string, rt *ResolvedTarget, action Action) error {
	button := action.Button
	if button == "" {
		button = "left"
	}
	count := action.ClickCount
	if count == 0 {
		count = 1
	}
	if err := e.dispatchMouse(ctx, sess, "mousePressed", rt.X, rt.Y, button, count); err != nil {
		return err
	}
	return e.dispatchMouse(ctx, sess, "mouseReleased", rt.X, rt.Y, button, count)
}

func (e *Engine) dispatchMouse(ctx context.Context, sess, kind string, x, y float64, button string, clickCount int) error {
	params := map[string]any{
		"type": kind,
		"x":    x,
		"y":    y,
	}
	if button != "" {
		params["button"] = button
		params["clickCount"] = clickCount
	}
	return e.client.Call(ctx, sess, "Input.dispatchMouseEvent", params, nil)
}

func (e *Engine) protocolScroll(ctx context.Context, sess string, rt *ResolvedTarget, action Action) error {
	params := map[string]any{
		"type":   "mouseWheel",
		"x":      rt.X,
		"y":      rt.Y,
		"deltaX": action.DeltaX,
		"deltaY": action.DeltaY,
	}
	return e.client.Call(ctx, sess, "Input.dispatchMouseEvent", params, nil)
}

// protocolType focuses the node, then delivers text. Plain editable fields
// take the whole string at once; anything else (rich editors, canvas apps)
// gets per-character key events so page key handlers fire.
func (e *Engine) protocolType(ctx context.Context, sess string, rt *ResolvedTarget, action Action) error {
	if err := e.focusNode(ctx, sess, rt); err != nil {
		return err
	}
	if plainTextRole(rt.Role) {
		params := map[string]any{"text": action.Text}
		return e.client.Call(ctx, sess, "Input.insertText", params, nil)
	}
	for _, r := range action.Text {
		ch := string(r)
		for _, kind := range []string{"keyDown", "keyUp"} {
			params := map[string]any{"type": kind, "text": ch, "key": ch}
			if kind == "keyUp" {
				delete(params, "text")
			}
			if err := e.client.Call(ctx, sess, "Input.dispatchKeyEvent", params, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func plainTextRole(role string) bool {
	switch role {
	case "input", "combo", "area":
		return true
	}
	return false
}

// protocolSelect picks an option on a select element by value and fires the
// events frameworks listen for.
func (e *Engine) protocolSelect(ctx context.Context, sess string, rt *ResolvedTarget, action Action) error {
	if rt.BackendID == 0 {
		return fmt.Errorf("select needs an element target: %w", cdp.ErrTargetNotInteractable)
	}
	var res struct {
		Object struct {
			ObjectID string `json:"objectId"`
		} `json:"object"`
	}
	params := map[string]any{"backendNodeId": rt.BackendID}
	if err := e.client.Call(ctx, sess, "DOM.resolveNode", params, &res); err != nil {
		return asNotInteractable(err)
	}

	const fn = `function(value) {
		if (this.tagName !== 'SELECT') { throw new Error('not a select element'); }
		this.value = value;
		this.dispatchEvent(new Event('input', {bubbles: true}));
		this.dispatchEvent(new Event('change', {bubbles: true}));
	}`
	callParams := map[string]any{
		"objectId":            res.Object.ObjectID,
		"functionDeclaration": fn,
		"arguments":           []map[string]any{{"value": action.Value}},
	}
	var callRes struct {
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	}
	if err := e.client.Call(ctx, sess, "Runtime.callFunctionOn", callParams, &callRes); err != nil {
		return err
	}
	if callRes.ExceptionDetails != nil {
		return fmt.Errorf("%s: %w", callRes.ExceptionDetails.Text, cdp.ErrTargetNotInteractable)
	}
	return nil
}

// focusNode moves DOM focus to the resolved element. A node the DOM domain
// refuses to focus is reported as not interactable, which is what arms the
// native fallback.
func (e *Engine) focusNode(ctx context.Context, sess string, rt *ResolvedTarget) error {
	if rt.BackendID == 0 {
		return fmt.Errorf("focus needs an element target: %w", cdp.ErrTargetNotInteractable)
	}
	params := map[string]any{"backendNodeId": rt.BackendID}
	if err := e.client.Call(ctx, sess, "DOM.focus", params, nil); err != nil {
		return asNotInteractable(err)
	}
	return nil
}

// PressKey dispatches a named key (e.g. "Enter", "Tab", "Escape") to the
// focused element of a tab.
func (e *Engine) PressKey(ctx context.Context, targetID, key string) error {
	sess, err := e.session(ctx, targetID)
	if err != nil {
		return err
	}
	code, ok := namedKeyCodes[key]
	if !ok {
		return fmt.Errorf("unknown key %q", key)
	}
	for _, kind := range []string{"rawKeyDown", "keyUp"} {
		params := map[string]any{
			"type":                  kind,
			"key":                   key,
			"windowsVirtualKeyCode": code,
		}
		if key == "Enter" && kind == "rawKeyDown" {
			params["text"] = "\r"
		}
		if err := e.client.Call(ctx, sess, "Input.dispatchKeyEvent", params, nil); err != nil {
			return err
		}
	}
	return nil
}

// namedKeyCodes maps the named keys the tool surface accepts to Windows
// virtual key codes, the identifier space the Input domain keys off.
var namedKeyCodes = map[string]int{
	"Enter":      13,
	"Tab":        9,
	"Escape":     27,
	"Backspace":  8,
	"Delete":     46,
	"ArrowUp":    38,
	"ArrowDown":  40,
	"ArrowLeft":  37,
	"ArrowRight": 39,
	"PageUp":     33,
	"PageDown":   34,
	"Home":       36,
	"End":        35,
}

// asNotInteractable maps protocol-level node errors onto the interactable
// taxonomy so the executor's fallback logic keys off one sentinel. Transport
// failures pass through untouched.
func asNotInteractable(err error) error {
	var perr *cdp.Error
	if errors.As(err, &perr) {
		return fmt.Errorf("%s: %w", perr.Message, cdp.ErrTargetNotInteractable)
	}
	return err
}

// executeNative delivers the action through the OS input layer, composing
// viewport coordinates with the browser window's screen geometry. The
// browser window must be frontmost for the events to land on the page.
func (e *Engine) executeNative(ctx context.Context, rt *ResolvedTarget, action Action) error {
	if e.input == nil || e.input.Inputter == nil {
		return native.ErrUnsupported
	}
	in := e.input.Inputter

	if err := e.ActivateTab(ctx, rt.TargetID); err != nil {
		e.log.Debug("activate before native input failed", zap.Error(err))
	}

	geo, err := e.windowGeometry(ctx, rt.TargetID)
	if err != nil {
		return err
	}
	sx, sy := geo.ToScreen(rt.X, rt.Y)

	switch action.Kind {
	case ActionClick:
		button, err := native.ParseMouseButton(action.Button)
		if err != nil {
			return err
		}
		count := action.ClickCount
		if count == 0 {
			count = 1
		}
		return in.Click(sx, sy, button, count)
	case ActionHover:
		return in.MoveMouse(sx, sy)
	case ActionScroll:
		return in.Scroll(sx, sy, int(action.DeltaX), int(action.DeltaY))
	case ActionType:
		// Click to place focus, then type into the focused element.
		if err := in.Click(sx, sy, native.MouseLeft, 1); err != nil {
			return err
		}
		return in.TypeText(action.Text, 0)
	case ActionFocus:
		return in.Click(sx, sy, native.MouseLeft, 1)
	default:
		return fmt.Errorf("action %q has no native equivalent", action.Kind)
	}
}
