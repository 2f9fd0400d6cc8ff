package engine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mj1618/chrome-cli/internal/model"
)

// maxFrameDepth bounds cross-document recursion so a frame cycle or a
// pathological embed chain cannot hang a snapshot.
const maxFrameDepth = 5

// Snapshot is a point-in-time flattened view of a tab's accessibility tree,
// with all reachable frames merged into one coordinate space (the top
// frame's viewport, CSS pixels).
type Snapshot struct {
	TargetID string
	Taken    time.Time
	Roots    []model.Element
}

// Flat returns the snapshot in document order with depth and path
// breadcrumbs, the form the resolver and the read output consume.
func (s *Snapshot) Flat() []model.FlatElement {
	return model.FlattenElements(s.Roots)
}

// axNode mirrors the Accessibility domain's AXNode shape, trimmed to the
// fields the snapshot consumes.
type axNode struct {
	NodeID           string   `json:"nodeId"`
	Ignored          bool     `json:"ignored"`
	Role             axValue  `json:"role"`
	Name             axValue  `json:"name"`
	Description      axValue  `json:"description"`
	Value            axValue  `json:"value"`
	Properties       []axProp `json:"properties"`
	ChildIDs         []string `json:"childIds"`
	BackendDOMNodeID int64    `json:"backendDOMNodeId"`
	FrameID          string   `json:"frameId"`
}

type axValue struct {
	Value json.RawMessage `json:"value"`
}

func (v axValue) asString() string {
	var s string
	if err := json.Unmarshal(v.Value, &s); err == nil {
		return s
	}
	return ""
}

func (v axValue) asBool() (bool, bool) {
	var b bool
	if err := json.Unmarshal(v.Value, &b); err == nil {
		return b, true
	}
	return false, false
}

type axProp struct {
	Name  string  `json:"name"`
	Value axValue `json:"value"`
}

// Snapshot captures the accessibility tree of a tab, grafting the content of
// out-of-process iframes in place and translating their geometry into the
// top frame's coordinates. IDs are assigned in document order after the full
// tree is assembled, so they are stable within one snapshot but not across
// snapshots.
func (e *Engine) Snapshot(ctx context.Context, targetID string) (*Snapshot, error) {
	sess, err := e.session(ctx, targetID)
	if err != nil {
		return nil, err
	}

	roots, err := e.captureFrame(ctx, sess, 0)
	if err != nil {
		return nil, err
	}
	roots = model.PruneEmptyGeneric(roots)

	next := 1
	assignIDs(roots, &next)

	return &Snapshot{TargetID: targetID, Taken: time.Now(), Roots: roots}, nil
}

// captureFrame builds the element tree for one browsing context and recurses
// into any out-of-process child frames it embeds.
func (e *Engine) captureFrame(ctx context.Context, sess string, depth int) ([]model.Element, error) {
	var axRes struct {
		Nodes []axNode `json:"nodes"`
	}
	if err := e.client.Call(ctx, sess, "Accessibility.getFullAXTree", nil, &axRes); err != nil {
		return nil, err
	}
	if len(axRes.Nodes) == 0 {
		return nil, nil
	}

	bounds, err := e.layoutBounds(ctx, sess)
	if err != nil {
		// A frame mid-navigation has no layout yet; the tree is still
		// worth returning without geometry.
		e.log.Debug("layout capture failed", zap.Error(err))
		bounds = nil
	}

	byID := make(map[string]*axNode, len(axRes.Nodes))
	referenced := make(map[string]bool)
	for i := range axRes.Nodes {
		n := &axRes.Nodes[i]
		byID[n.NodeID] = n
		for _, c := range n.ChildIDs {
			referenced[c] = true
		}
	}

	var roots []model.Element
	for i := range axRes.Nodes {
		n := &axRes.Nodes[i]
		if referenced[n.NodeID] {
			continue
		}
		el, ok := buildElement(n, byID, bounds)
		if ok {
			roots = append(roots, el)
		}
	}

	if depth < maxFrameDepth {
		e.graftChildFrames(ctx, roots, depth)
	}
	return roots, nil
}

// buildElement converts one AX node and its subtree. Ignored nodes vanish
// but their children are promoted, matching how the tree reads to assistive
// tech.
func buildElement(n *axNode, byID map[string]*axNode, bounds map[int64][4]int) (model.Element, bool) {
	el := model.Element{
		Role:        model.MapRole(n.Role.asString()),
		Name:        n.Name.asString(),
		Description: n.Description.asString(),
		Value:       n.Value.asString(),
		Ignored:     n.Ignored,
		BackendID:   n.BackendDOMNodeID,
		FrameID:     n.FrameID,
	}
	for _, p := range n.Properties {
		switch p.Name {
		case "focused":
			if b, ok := p.Value.asBool(); ok {
				el.Focused = b
			}
		case "disabled":
			if b, ok := p.Value.asBool(); ok && b {
				f := false
				el.Enabled = &f
			}
		}
	}
	if bounds != nil {
		if b, ok := bounds[n.BackendDOMNodeID]; ok {
			el.Bounds = b
		}
	}
	for _, cid := range n.ChildIDs {
		child, ok := byID[cid]
		if !ok {
			continue
		}
		c, keep := buildElement(child, byID, bounds)
		if keep {
			el.Children = append(el.Children, c)
		} else {
			el.Children = append(el.Children, c.Children...)
		}
	}
	if n.Ignored {
		return el, false
	}
	return el, true
}

// layoutBounds fetches viewport-relative boxes for every laid-out DOM node
// in one round-trip, keyed by backend node id.
func (e *Engine) layoutBounds(ctx context.Context, sess string) (map[int64][4]int, error) {
	var res struct {
		Documents []struct {
			ScrollOffsetX float64 `json:"scrollOffsetX"`
			ScrollOffsetY float64 `json:"scrollOffsetY"`
			Nodes         struct {
				BackendNodeID []int64 `json:"backendNodeId"`
			} `json:"nodes"`
			Layout struct {
				NodeIndex []int       `json:"nodeIndex"`
				Bounds    [][]float64 `json:"bounds"`
			} `json:"layout"`
		} `json:"documents"`
	}
	params := map[string]any{"computedStyles": []string{}}
	if err := e.client.Call(ctx, sess, "DOMSnapshot.captureSnapshot", params, &res); err != nil {
		return nil, err
	}

	out := make(map[int64][4]int)
	for _, doc := range res.Documents {
		for i, nodeIdx := range doc.Layout.NodeIndex {
			if i >= len(doc.Layout.Bounds) || nodeIdx >= len(doc.Nodes.BackendNodeID) {
				continue
			}
			b := doc.Layout.Bounds[i]
			if len(b) < 4 {
				continue
			}
			backend := doc.Nodes.BackendNodeID[nodeIdx]
			out[backend] = [4]int{
				int(b[0] - doc.ScrollOffsetX),
				int(b[1] - doc.ScrollOffsetY),
				int(b[2]),
				int(b[3]),
			}
		}
	}
	return out, nil
}

// graftChildFrames walks the built tree, and for every empty iframe node
// attaches to the out-of-process child document, captures it, and splices
// the result in place.
func (e *Engine) graftChildFrames(ctx context.Context, roots []model.Element, depth int) {
	for i := range roots {
		el := &roots[i]
		if el.Role == "frame" && len(el.Children) == 0 && el.BackendID != 0 {
			children, err := e.captureOOPIF(ctx, el, depth)
			if err != nil {
				// The frame may be same-process (already inline) or
				// mid-navigation; skip rather than fail the snapshot.
				e.log.Debug("iframe capture skipped", zap.Error(err))
				continue
			}
			GraftFrame(el, children)
			continue
		}
		e.graftChildFrames(ctx, el.Children, depth)
	}
}

// captureOOPIF resolves an iframe element to its child browsing context and
// snapshots it with its own session.
func (e *Engine) captureOOPIF(ctx context.Context, frame *model.Element, depth int) ([]model.Element, error) {
	// For site-isolated frames the frame id doubles as the target id.
	frameID, err := e.describeFrameID(ctx, frame)
	if err != nil {
		return nil, err
	}
	if frameID == "" {
		return nil, errors.New("iframe has no frame id")
	}
	sess, err := e.session(ctx, frameID)
	if err != nil {
		return nil, err
	}
	return e.captureFrame(ctx, sess, depth+1)
}

// describeFrameID asks the DOM domain which browsing context an iframe
// element hosts.
func (e *Engine) describeFrameID(ctx context.Context, frame *model.Element) (string, error) {
	e.mu.Lock()
	var sess string
	for _, sid := range e.sessions {
		sess = sid
		break
	}
	e.mu.Unlock()

	// The owning session is found by frame id when the AX node carried one.
	if frame.FrameID != "" {
		return frame.FrameID, nil
	}
	var res struct {
		Node struct {
			FrameID string `json:"frameId"`
		} `json:"node"`
	}
	params := map[string]any{"backendNodeId": frame.BackendID}
	if err := e.client.Call(ctx, sess, "DOM.describeNode", params, &res); err != nil {
		return "", err
	}
	return res.Node.FrameID, nil
}

// GraftFrame splices a child document's roots under an iframe element,
// translating the child geometry by the iframe's content origin so every
// coordinate in the final tree is relative to the top frame's viewport.
func GraftFrame(frame *model.Element, children []model.Element) {
	dx, dy := frame.Bounds[0], frame.Bounds[1]
	for i := range children {
		translate(&children[i], dx, dy)
	}
	frame.Children = children
}

func translate(el *model.Element, dx, dy int) {
	if el.Bounds != ([4]int{}) {
		el.Bounds[0] += dx
		el.Bounds[1] += dy
	}
	for i := range el.Children {
		translate(&el.Children[i], dx, dy)
	}
}

// assignIDs numbers the assembled tree in document order, starting at 1.
func assignIDs(els []model.Element, next *int) {
	for i := range els {
		els[i].ID = *next
		*next++
		assignIDs(els[i].Children, next)
	}
}

// FindByID walks a snapshot for the element with the given id.
func (s *Snapshot) FindByID(id int) *model.FlatElement {
	for _, el := range s.Flat() {
		if el.ID == id {
			out := el
			return &out
		}
	}
	return nil
}
