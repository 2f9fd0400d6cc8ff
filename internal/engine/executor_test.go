package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/chrome-cli/internal/cdp"
	"github.com/mj1618/chrome-cli/internal/model"
	"github.com/mj1618/chrome-cli/internal/native"
)

// fakeInputter records OS-level input instead of posting it.
type fakeInputter struct {
	ops       []string
	failClick bool
}

func (f *fakeInputter) Click(x, y int, button native.MouseButton, count int) error {
	if f.failClick {
		return errors.New("event tap rejected")
	}
	f.ops = append(f.ops, fmt.Sprintf("click(%d,%d,%d,%d)", x, y, button, count))
	return nil
}

func (f *fakeInputter) MoveMouse(x, y int) error {
	f.ops = append(f.ops, fmt.Sprintf("move(%d,%d)", x, y))
	return nil
}

func (f *fakeInputter) Scroll(x, y, dx, dy int) error {
	f.ops = append(f.ops, fmt.Sprintf("scroll(%d,%d,%d,%d)", x, y, dx, dy))
	return nil
}

func (f *fakeInputter) TypeText(text string, delayMs int) error {
	f.ops = append(f.ops, "type("+text+")")
	return nil
}

func (f *fakeInputter) KeyCombo(keys []string) error {
	f.ops = append(f.ops, fmt.Sprintf("combo(%v)", keys))
	return nil
}

// geometryAt arms the fake with window geometry placing the viewport origin
// at the given screen position, scale 1.
func geometryAt(fake *fakeCaller, originX, originY float64) {
	fake.reply("Runtime.evaluate", evalResult(map[string]any{
		"sx": originX, "sy": originY - 80,
		"ow": 1200.0, "oh": 880.0,
		"iw": 1200.0, "ih": 800.0,
		"scale": 1.0,
	}))
}

func TestExecute_ClickDispatchesProtocolMouseEvents(t *testing.T) {
	fake := newFakeCaller()
	e := newTestEngine(fake)

	rt := &ResolvedTarget{TargetID: "T1", Description: model.Text("OK"), BackendID: 5, X: 60, Y: 45}
	report, err := e.Execute(context.Background(), rt, Action{Kind: ActionClick})
	require.NoError(t, err)
	assert.Equal(t, "protocol", report.Path)
	assert.NotEmpty(t, report.ID)

	calls := fake.methodCalls("Input.dispatchMouseEvent")
	require.Len(t, calls, 2)
	var press struct {
		Type   string  `json:"type"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Button string  `json:"button"`
	}
	require.NoError(t, json.Unmarshal(calls[0].Params, &press))
	assert.Equal(t, "mousePressed", press.Type)
	assert.Equal(t, 60.0, press.X)
	assert.Equal(t, "left", press.Button)
	var release struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(calls[1].Params, &release))
	assert.Equal(t, "mouseReleased", release.Type)
}

func TestExecute_TypeUsesInsertTextForPlainFields(t *testing.T) {
	fake := newFakeCaller()
	e := newTestEngine(fake)

	rt := &ResolvedTarget{TargetID: "T1", Description: model.CSS("#q"), BackendID: 9, Role: "input", X: 10, Y: 10}
	_, err := e.Execute(context.Background(), rt, Action{Kind: ActionType, Text: "hello"})
	require.NoError(t, err)

	require.Len(t, fake.methodCalls("DOM.focus"), 1)
	inserts := fake.methodCalls("Input.insertText")
	require.Len(t, inserts, 1)
	var p struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(inserts[0].Params, &p))
	assert.Equal(t, "hello", p.Text)
	assert.Empty(t, fake.methodCalls("Input.dispatchKeyEvent"))
}

func TestExecute_TypeFallsBackToKeyEventsForRichEditors(t *testing.T) {
	fake := newFakeCaller()
	e := newTestEngine(fake)

	rt := &ResolvedTarget{TargetID: "T1", Description: model.CSS(".editor"), BackendID: 9, Role: "generic", X: 10, Y: 10}
	_, err := e.Execute(context.Background(), rt, Action{Kind: ActionType, Text: "ab"})
	require.NoError(t, err)

	assert.Empty(t, fake.methodCalls("Input.insertText"))
	// keyDown and keyUp per character.
	assert.Len(t, fake.methodCalls("Input.dispatchKeyEvent"), 4)
}

func TestExecute_FallsBackToNativeOnceWhenNotInteractable(t *testing.T) {
	fake := newFakeCaller()
	fake.handle("DOM.focus", func(string, json.RawMessage) (any, error) {
		return nil, &cdp.Error{Code: -32000, Message: "Element is not focusable"}
	})
	geometryAt(fake, 100, 200)

	in := &fakeInputter{}
	e := newTestEngine(fake)
	e.input = &native.Provider{Inputter: in}

	rt := &ResolvedTarget{TargetID: "T1", Description: model.Text("Search"), BackendID: 3, Role: "input", X: 50, Y: 40}
	report, err := e.Execute(context.Background(), rt, Action{Kind: ActionType, Text: "query"})
	require.NoError(t, err)
	assert.Equal(t, "native", report.Path)

	// Viewport (50,40) composed with window origin (100,200).
	assert.Equal(t, []string{"click(150,240,0,1)", "type(query)"}, in.ops)
}

func TestExecute_NativeFailureIsTerminal(t *testing.T) {
	fake := newFakeCaller()
	fake.handle("DOM.focus", func(string, json.RawMessage) (any, error) {
		return nil, &cdp.Error{Code: -32000, Message: "Element is not focusable"}
	})
	geometryAt(fake, 0, 0)

	in := &fakeInputter{failClick: true}
	e := newTestEngine(fake)
	e.input = &native.Provider{Inputter: in}

	rt := &ResolvedTarget{TargetID: "T1", Description: model.Text("Search"), BackendID: 3, Role: "input", X: 5, Y: 5}
	_, err := e.Execute(context.Background(), rt, Action{Kind: ActionType, Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "native fallback")
	// The protocol path ran exactly once: one hop, no retry loop.
	assert.Len(t, fake.methodCalls("DOM.focus"), 1)
}

func TestExecute_CoordinateTargetGoesStraightToNative(t *testing.T) {
	fake := newFakeCaller()
	geometryAt(fake, 10, 20)

	in := &fakeInputter{}
	e := newTestEngine(fake)
	e.input = &native.Provider{Inputter: in}

	rt, err := e.Resolve(context.Background(), "T1", model.Coordinate(500, 300))
	require.NoError(t, err)
	report, err := e.Execute(context.Background(), rt, Action{Kind: ActionClick})
	require.NoError(t, err)

	assert.Equal(t, "native", report.Path)
	assert.Equal(t, []string{"click(510,320,0,1)"}, in.ops)
	assert.Empty(t, fake.methodCalls("Input.dispatchMouseEvent"))
}

func TestExecute_NativeWithoutBackendIsExplicitFailure(t *testing.T) {
	fake := newFakeCaller()
	e := newTestEngine(fake)

	rt := &ResolvedTarget{TargetID: "T1", Description: model.Coordinate(1, 2), X: 1, Y: 2}
	_, err := e.Execute(context.Background(), rt, Action{Kind: ActionClick})
	require.Error(t, err)
	assert.True(t, errors.Is(err, native.ErrUnsupported))
}

func TestExecute_TransportErrorsDoNotTriggerFallback(t *testing.T) {
	fake := newFakeCaller()
	fake.handle("DOM.focus", func(string, json.RawMessage) (any, error) {
		return nil, cdp.ErrTransportClosed
	})

	in := &fakeInputter{}
	e := newTestEngine(fake)
	e.input = &native.Provider{Inputter: in}

	rt := &ResolvedTarget{TargetID: "T1", Description: model.Text("Go"), BackendID: 3, Role: "input", X: 5, Y: 5}
	_, err := e.Execute(context.Background(), rt, Action{Kind: ActionType, Text: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, cdp.ErrTransportClosed))
	assert.Empty(t, in.ops, "a dead transport is not an interactability problem")
}

func TestExecute_ScrollDispatchesWheelEvent(t *testing.T) {
	fake := newFakeCaller()
	e := newTestEngine(fake)

	rt := &ResolvedTarget{TargetID: "T1", Description: model.CSS("main"), BackendID: 2, X: 400, Y: 300}
	_, err := e.Execute(context.Background(), rt, Action{Kind: ActionScroll, DeltaY: 120})
	require.NoError(t, err)

	calls := fake.methodCalls("Input.dispatchMouseEvent")
	require.Len(t, calls, 1)
	var p struct {
		Type   string  `json:"type"`
		DeltaY float64 `json:"deltaY"`
	}
	require.NoError(t, json.Unmarshal(calls[0].Params, &p))
	assert.Equal(t, "mouseWheel", p.Type)
	assert.Equal(t, 120.0, p.DeltaY)
}

func TestWindowGeometry_ToScreen(t *testing.T) {
	g := WindowGeometry{OriginX: 100, OriginY: 80, Scale: 1}
	x, y := g.ToScreen(50, 40)
	assert.Equal(t, 150, x)
	assert.Equal(t, 120, y)

	g.Scale = 2
	x, y = g.ToScreen(50, 40)
	assert.Equal(t, 200, x)
	assert.Equal(t, 160, y)

	// Zero scale means unknown, treated as identity.
	g.Scale = 0
	x, _ = g.ToScreen(50, 40)
	assert.Equal(t, 150, x)
}
