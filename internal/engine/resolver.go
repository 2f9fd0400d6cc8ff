package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/mj1618/chrome-cli/internal/cdp"
	"github.com/mj1618/chrome-cli/internal/model"
)

// VisibilityFunc decides whether an element can be acted on. The default
// keeps anything with a positive-area box; callers with stricter occlusion
// requirements swap in their own predicate via WithVisibility.
type VisibilityFunc func(el *model.FlatElement) bool

// DefaultVisibility admits elements with a rendered box.
func DefaultVisibility(el *model.FlatElement) bool {
	return el.HasArea()
}

// ResolvedTarget is the concrete location a description resolved to. It is
// valid only against the snapshot it came from: a navigation or mutation
// invalidates BackendID, and callers re-resolve rather than cache.
type ResolvedTarget struct {
	TargetID    string                  `json:"targetId" yaml:"targetId"`
	Description model.TargetDescription `json:"-" yaml:"-"`
	BackendID   int64                   `json:"-" yaml:"-"`
	Role        string                  `json:"role,omitempty" yaml:"role,omitempty"`
	Name        string                  `json:"name,omitempty" yaml:"name,omitempty"`
	X           float64                 `json:"x" yaml:"x"`
	Y           float64                 `json:"y" yaml:"y"`
}

// Resolve maps a target description to a point on the page. Strategies are
// tried in a fixed order per description kind, and matching within a
// snapshot is deterministic: the same tree and description always resolve
// to the same element.
func (e *Engine) Resolve(ctx context.Context, targetID string, desc model.TargetDescription) (*ResolvedTarget, error) {
	switch desc.Kind {
	case model.TargetCoordinate:
		// Screen points carry their own geometry and never miss.
		return &ResolvedTarget{TargetID: targetID, Description: desc, X: desc.X, Y: desc.Y}, nil

	case model.TargetCSS:
		return e.resolveCSS(ctx, targetID, desc)

	case model.TargetText:
		snap, err := e.Snapshot(ctx, targetID)
		if err != nil {
			return nil, err
		}
		if el := e.matchText(snap.Flat(), desc.Text); el != nil {
			return e.fromElement(targetID, desc, el), nil
		}
		return nil, fmt.Errorf("no visible element matches text %q: %w", desc.Text, cdp.ErrNotFound)

	case model.TargetRoleLabel:
		snap, err := e.Snapshot(ctx, targetID)
		if err != nil {
			return nil, err
		}
		if el := e.matchRoleLabel(snap.Flat(), desc.Role, desc.Label); el != nil {
			return e.fromElement(targetID, desc, el), nil
		}
		return nil, fmt.Errorf("no visible %s labelled %q: %w", roleOrAny(desc.Role), desc.Label, cdp.ErrNotFound)

	case model.TargetFreeText:
		return e.resolveFreeText(ctx, targetID, desc)

	default:
		return nil, fmt.Errorf("unknown target kind %q", desc.Kind)
	}
}

// resolveFreeText runs the fallback chain for untyped input: visible text,
// then accessible label, then the input reinterpreted as a CSS selector.
// The first strategy that yields a match wins; later strategies are not
// consulted for a better one.
func (e *Engine) resolveFreeText(ctx context.Context, targetID string, desc model.TargetDescription) (*ResolvedTarget, error) {
	snap, err := e.Snapshot(ctx, targetID)
	if err != nil {
		return nil, err
	}
	flat := snap.Flat()

	if el := e.matchText(flat, desc.Text); el != nil {
		return e.fromElement(targetID, desc, el), nil
	}
	if el := e.matchRoleLabel(flat, "", desc.Text); el != nil {
		return e.fromElement(targetID, desc, el), nil
	}
	if looksLikeSelector(desc.Text) {
		if rt, err := e.resolveCSS(ctx, targetID, desc); err == nil {
			return rt, nil
		}
	}
	return nil, fmt.Errorf("cannot resolve %q by text, label, or selector: %w", desc.Text, cdp.ErrNotFound)
}

// looksLikeSelector guards the CSS reinterpretation so prose like
// "Sign in to your account" is not fed to the query engine.
func looksLikeSelector(s string) bool {
	return strings.ContainsAny(s, "#.[>:*") || (len(s) > 0 && !strings.Contains(s, " "))
}

func roleOrAny(role string) string {
	if role == "" {
		return "element"
	}
	return role
}

// candidate pairs an element with its match quality for ranking.
type candidate struct {
	el    *model.FlatElement
	exact bool
}

// matchText finds the best visible, enabled element whose accessible name,
// value, or description contains the query, case-insensitively.
func (e *Engine) matchText(flat []model.FlatElement, text string) *model.FlatElement {
	query := strings.ToLower(text)
	var cands []candidate
	for i := range flat {
		el := &flat[i]
		if !e.visible(el) || !el.IsEnabled() {
			continue
		}
		exact, sub := textMatch(el, query)
		if sub {
			cands = append(cands, candidate{el: el, exact: exact})
		}
	}
	return pickBest(cands)
}

func textMatch(el *model.FlatElement, query string) (exact, substring bool) {
	for _, field := range []string{el.Name, el.Value, el.Description} {
		lower := strings.ToLower(field)
		if lower == query {
			return true, true
		}
		if strings.Contains(lower, query) {
			substring = true
		}
	}
	return false, substring
}

// matchRoleLabel finds the best visible, enabled element with the given
// role (any role when empty) and an accessible name equal to label,
// case-insensitively.
func (e *Engine) matchRoleLabel(flat []model.FlatElement, role, label string) *model.FlatElement {
	var cands []candidate
	for i := range flat {
		el := &flat[i]
		if !e.visible(el) || !el.IsEnabled() {
			continue
		}
		if role != "" && el.Role != role {
			continue
		}
		if strings.EqualFold(el.Name, label) {
			cands = append(cands, candidate{el: el, exact: true})
		}
	}
	return pickBest(cands)
}

// pickBest applies the ambiguity tie-breaks in order: exact match over
// substring, interactive role over non-interactive, shallower tree depth,
// then document order. The ordering is total, so ties cannot remain.
func pickBest(cands []candidate) *model.FlatElement {
	if len(cands) == 0 {
		return nil
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if better(c, best) {
			best = c
		}
	}
	return best.el
}

func better(a, b candidate) bool {
	if a.exact != b.exact {
		return a.exact
	}
	ai, bi := model.IsInteractive(a.el.Role), model.IsInteractive(b.el.Role)
	if ai != bi {
		return ai
	}
	if a.el.Depth != b.el.Depth {
		return a.el.Depth < b.el.Depth
	}
	return a.el.ID < b.el.ID
}

// fromElement wraps a matched element as a resolved target at its center.
func (e *Engine) fromElement(targetID string, desc model.TargetDescription, el *model.FlatElement) *ResolvedTarget {
	x, y := el.Center()
	return &ResolvedTarget{
		TargetID:    targetID,
		Description: desc,
		BackendID:   el.BackendID,
		Role:        el.Role,
		Name:        el.Name,
		X:           x,
		Y:           y,
	}
}

// resolveCSS delegates to the swappable selector backend.
func (e *Engine) resolveCSS(ctx context.Context, targetID string, desc model.TargetDescription) (*ResolvedTarget, error) {
	rt, err := e.resolveCSSFn(ctx, targetID, desc.Selector)
	if err != nil {
		return nil, err
	}
	rt.Description = desc
	return rt, nil
}

// resolveCSSProtocol queries the DOM domain for the first match of a CSS
// selector and derives its center from the rendered quads.
func (e *Engine) resolveCSSProtocol(ctx context.Context, targetID, selector string) (*ResolvedTarget, error) {
	sess, err := e.session(ctx, targetID)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Root struct {
			NodeID int64 `json:"nodeId"`
		} `json:"root"`
	}
	if err := e.client.Call(ctx, sess, "DOM.getDocument", map[string]any{"depth": 0}, &doc); err != nil {
		return nil, err
	}

	var q struct {
		NodeID int64 `json:"nodeId"`
	}
	params := map[string]any{"nodeId": doc.Root.NodeID, "selector": selector}
	if err := e.client.Call(ctx, sess, "DOM.querySelector", params, &q); err != nil {
		return nil, fmt.Errorf("selector %q: %w", selector, err)
	}
	if q.NodeID == 0 {
		return nil, fmt.Errorf("selector %q matched nothing: %w", selector, cdp.ErrNotFound)
	}

	var desc struct {
		Node struct {
			BackendNodeID int64 `json:"backendNodeId"`
		} `json:"node"`
	}
	if err := e.client.Call(ctx, sess, "DOM.describeNode", map[string]any{"nodeId": q.NodeID}, &desc); err != nil {
		return nil, err
	}

	var quads struct {
		Quads [][]float64 `json:"quads"`
	}
	if err := e.client.Call(ctx, sess, "DOM.getContentQuads", map[string]any{"nodeId": q.NodeID}, &quads); err != nil {
		return nil, fmt.Errorf("selector %q has no box: %w", selector, cdp.ErrNotFound)
	}
	x, y, ok := quadCenter(quads.Quads)
	if !ok {
		return nil, fmt.Errorf("selector %q is not rendered: %w", selector, cdp.ErrNotFound)
	}

	return &ResolvedTarget{
		TargetID:  targetID,
		BackendID: desc.Node.BackendNodeID,
		X:         x,
		Y:         y,
	}, nil
}

// quadCenter averages the corners of the first non-degenerate quad.
func quadCenter(quads [][]float64) (x, y float64, ok bool) {
	for _, q := range quads {
		if len(q) != 8 {
			continue
		}
		cx := (q[0] + q[2] + q[4] + q[6]) / 4
		cy := (q[1] + q[3] + q[5] + q[7]) / 4
		w := q[2] - q[0]
		h := q[5] - q[3]
		if w <= 0 || h <= 0 {
			continue
		}
		return cx, cy, true
	}
	return 0, 0, false
}
