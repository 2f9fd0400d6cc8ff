package model

// Element represents one node of an accessibility snapshot: a point-in-time
// projection of a semantic page node. IDs and backend node ids are only
// meaningful within the snapshot they came from and must never be carried
// across snapshots or navigations.
type Element struct {
	ID          int       `json:"i"`           // Sequential ID in document order
	Role        string    `json:"r"`           // Abbreviated role code
	Name        string    `json:"t,omitempty"` // Accessible name / label
	Value       string    `json:"v,omitempty"` // Current value
	Description string    `json:"d,omitempty"` // Accessibility description
	Bounds      [4]int    `json:"b"`           // [x, y, width, height] in top-level viewport coordinates
	Focused     bool      `json:"f,omitempty"` // Has keyboard focus
	Enabled     *bool     `json:"e,omitempty"` // nil or true = enabled (omit); false = disabled (include)
	Ignored     bool      `json:"-"`           // Hidden from the accessibility tree
	BackendID   int64     `json:"-"`           // DOM backend node id, snapshot-scoped
	FrameID     string    `json:"-"`           // Frame this node belongs to
	Children    []Element `json:"c,omitempty"` // Child elements
}

// IsEnabled reports whether the element accepts interaction.
func (el *Element) IsEnabled() bool {
	return el.Enabled == nil || *el.Enabled
}

// Center returns the midpoint of the element's bounding box in top-level
// viewport coordinates.
func (el *Element) Center() (x, y float64) {
	return float64(el.Bounds[0]) + float64(el.Bounds[2])/2,
		float64(el.Bounds[1]) + float64(el.Bounds[3])/2
}

// HasArea reports whether the bounding box has positive area. Zero-area
// nodes are never actionable.
func (el *Element) HasArea() bool {
	return el.Bounds[2] > 0 && el.Bounds[3] > 0
}
