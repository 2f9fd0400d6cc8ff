package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/chrome-cli/internal/cdp"
	"github.com/mj1618/chrome-cli/internal/model"
)

func TestResolve_CoordinateNeverTouchesTheProtocol(t *testing.T) {
	fake := newFakeCaller()
	e := newTestEngine(fake)

	rt, err := e.Resolve(context.Background(), "T1", model.Coordinate(500, 300))
	require.NoError(t, err)
	assert.Equal(t, 500.0, rt.X)
	assert.Equal(t, 300.0, rt.Y)
	assert.Empty(t, fake.calls, "coordinate targets must resolve without round-trips")
}

func TestMatchText_PrefersExactInteractiveMatch(t *testing.T) {
	// A page with a "Sign in" button and a paragraph mentioning signing in:
	// the button must win on both exactness and interactivity.
	flat := []model.FlatElement{
		{ID: 1, Role: "web", Name: "Login page", Depth: 0, Bounds: [4]int{0, 0, 800, 600}},
		{ID: 2, Role: "txt", Name: "Sign in to your account to continue", Depth: 1, Bounds: [4]int{10, 10, 400, 20}},
		{ID: 3, Role: "btn", Name: "Sign in", Depth: 2, Bounds: [4]int{10, 40, 100, 30}},
	}
	e := newTestEngine(newFakeCaller())

	got := e.matchText(flat, "Sign in")
	require.NotNil(t, got)
	assert.Equal(t, 3, got.ID)
}

func TestMatchText_SkipsInvisibleAndDisabled(t *testing.T) {
	disabled := false
	flat := []model.FlatElement{
		{ID: 1, Role: "btn", Name: "Save", Depth: 1}, // zero-area box
		{ID: 2, Role: "btn", Name: "Save", Depth: 1, Bounds: [4]int{0, 0, 80, 30}, Enabled: &disabled},
		{ID: 3, Role: "btn", Name: "Save", Depth: 1, Bounds: [4]int{0, 40, 80, 30}},
	}
	e := newTestEngine(newFakeCaller())

	got := e.matchText(flat, "save")
	require.NotNil(t, got)
	assert.Equal(t, 3, got.ID)
}

func TestMatchText_DeterministicAcrossRepeats(t *testing.T) {
	flat := []model.FlatElement{
		{ID: 1, Role: "lnk", Name: "Details", Depth: 2, Bounds: [4]int{0, 0, 50, 20}},
		{ID: 2, Role: "lnk", Name: "Details", Depth: 2, Bounds: [4]int{0, 30, 50, 20}},
	}
	e := newTestEngine(newFakeCaller())

	first := e.matchText(flat, "details")
	require.NotNil(t, first)
	for i := 0; i < 10; i++ {
		got := e.matchText(flat, "details")
		require.NotNil(t, got)
		assert.Equal(t, first.ID, got.ID, "same tree and query must resolve identically")
	}
	assert.Equal(t, 1, first.ID, "document order breaks the final tie")
}

func TestPickBest_TieBreakOrder(t *testing.T) {
	a := model.FlatElement{ID: 1, Role: "txt", Depth: 3}
	b := model.FlatElement{ID: 2, Role: "btn", Depth: 3}
	c := model.FlatElement{ID: 3, Role: "btn", Depth: 1}

	// Exact beats substring regardless of role.
	got := pickBest([]candidate{{el: &b, exact: false}, {el: &a, exact: true}})
	assert.Equal(t, 1, got.ID)

	// Interactive beats non-interactive among equals.
	got = pickBest([]candidate{{el: &a, exact: true}, {el: &b, exact: true}})
	assert.Equal(t, 2, got.ID)

	// Shallower depth beats deeper.
	got = pickBest([]candidate{{el: &b, exact: true}, {el: &c, exact: true}})
	assert.Equal(t, 3, got.ID)
}

func TestMatchRoleLabel(t *testing.T) {
	flat := []model.FlatElement{
		{ID: 1, Role: "btn", Name: "Submit", Depth: 1, Bounds: [4]int{0, 0, 80, 30}},
		{ID: 2, Role: "lnk", Name: "Submit", Depth: 1, Bounds: [4]int{0, 40, 80, 30}},
	}
	e := newTestEngine(newFakeCaller())

	got := e.matchRoleLabel(flat, "lnk", "submit")
	require.NotNil(t, got)
	assert.Equal(t, 2, got.ID)

	assert.Nil(t, e.matchRoleLabel(flat, "chk", "submit"))
	assert.Nil(t, e.matchRoleLabel(flat, "btn", "submit extra words"))
}

func TestResolve_CSSUsesSelectorBackend(t *testing.T) {
	e := newTestEngine(newFakeCaller())
	e.resolveCSSFn = func(_ context.Context, targetID, selector string) (*ResolvedTarget, error) {
		assert.Equal(t, "#login", selector)
		return &ResolvedTarget{TargetID: targetID, BackendID: 42, X: 15, Y: 25}, nil
	}

	rt, err := e.Resolve(context.Background(), "T1", model.CSS("#login"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), rt.BackendID)
	assert.Equal(t, model.TargetCSS, rt.Description.Kind)
}

func TestResolve_FreeTextFallsBackToCSS(t *testing.T) {
	fake := newFakeCaller()
	// Empty page: text and label strategies find nothing.
	fake.reply("Accessibility.getFullAXTree", map[string]any{"nodes": []any{}})
	e := newTestEngine(fake)

	cssQueried := ""
	e.resolveCSSFn = func(_ context.Context, _, selector string) (*ResolvedTarget, error) {
		cssQueried = selector
		return &ResolvedTarget{TargetID: "T1", BackendID: 7, X: 1, Y: 2}, nil
	}

	rt, err := e.Resolve(context.Background(), "T1", model.FreeText("#login-form"))
	require.NoError(t, err)
	assert.Equal(t, "#login-form", cssQueried)
	assert.Equal(t, int64(7), rt.BackendID)
}

func TestResolve_FreeTextProseDoesNotHitCSS(t *testing.T) {
	fake := newFakeCaller()
	fake.reply("Accessibility.getFullAXTree", map[string]any{"nodes": []any{}})
	e := newTestEngine(fake)

	e.resolveCSSFn = func(_ context.Context, _, selector string) (*ResolvedTarget, error) {
		t.Fatalf("prose input %q must not reach the selector backend", selector)
		return nil, nil
	}

	_, err := e.Resolve(context.Background(), "T1", model.FreeText("no element says this"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, cdp.ErrNotFound))
}

func TestLooksLikeSelector(t *testing.T) {
	for _, s := range []string{"#login", ".btn-primary", "div > span", "input[name=q]", "button"} {
		assert.True(t, looksLikeSelector(s), s)
	}
	for _, s := range []string{"Sign in to your account", "no element says this"} {
		assert.False(t, looksLikeSelector(s), s)
	}
}

func TestQuadCenter(t *testing.T) {
	x, y, ok := quadCenter([][]float64{{10, 20, 110, 20, 110, 70, 10, 70}})
	require.True(t, ok)
	assert.Equal(t, 60.0, x)
	assert.Equal(t, 45.0, y)

	_, _, ok = quadCenter([][]float64{{0, 0, 0, 0, 0, 0, 0, 0}})
	assert.False(t, ok, "degenerate quads carry no usable geometry")

	_, _, ok = quadCenter(nil)
	assert.False(t, ok)
}

func TestDefaultVisibility(t *testing.T) {
	assert.False(t, DefaultVisibility(&model.FlatElement{}))
	assert.True(t, DefaultVisibility(&model.FlatElement{Bounds: [4]int{0, 0, 1, 1}}))
}
