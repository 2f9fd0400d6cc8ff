package model

// FlatElement is an element with a path breadcrumb instead of children.
// Depth is the element's distance from a snapshot root; the resolver uses it
// to prefer the shallowest of otherwise-equal matches.
type FlatElement struct {
	ID          int    `yaml:"i"            json:"i"`
	Role        string `yaml:"r"            json:"r"`
	Name        string `yaml:"t,omitempty"  json:"t,omitempty"`
	Value       string `yaml:"v,omitempty"  json:"v,omitempty"`
	Description string `yaml:"d,omitempty"  json:"d,omitempty"`
	Bounds      [4]int `yaml:"b"            json:"b"`
	Focused     bool   `yaml:"f,omitempty"  json:"f,omitempty"`
	Enabled     *bool  `yaml:"e,omitempty"  json:"e,omitempty"`
	Ignored     bool   `yaml:"-"            json:"-"`
	BackendID   int64  `yaml:"-"            json:"-"`
	FrameID     string `yaml:"-"            json:"-"`
	Depth       int    `yaml:"-"            json:"-"`
	Path        string `yaml:"p,omitempty"  json:"p,omitempty"`
}

// IsEnabled reports whether the element accepts interaction.
func (el *FlatElement) IsEnabled() bool {
	return el.Enabled == nil || *el.Enabled
}

// Center returns the midpoint of the element's bounding box in top-level
// viewport coordinates.
func (el *FlatElement) Center() (x, y float64) {
	return float64(el.Bounds[0]) + float64(el.Bounds[2])/2,
		float64(el.Bounds[1]) + float64(el.Bounds[3])/2
}

// HasArea reports whether the bounding box has positive area.
func (el *FlatElement) HasArea() bool {
	return el.Bounds[2] > 0 && el.Bounds[3] > 0
}

// FlattenElements converts a tree of elements into a flat list in document
// order. Each element gets a path string showing its location in the tree
// using abbreviated role names joined with " > ".
func FlattenElements(elements []Element) []FlatElement {
	var result []FlatElement
	for i := range elements {
		flattenRecursive(&elements[i], "", 0, &result)
	}
	return result
}

func flattenRecursive(el *Element, parentPath string, depth int, result *[]FlatElement) {
	currentPath := el.Role
	if parentPath != "" {
		currentPath = parentPath + " > " + el.Role
	}

	*result = append(*result, FlatElement{
		ID:          el.ID,
		Role:        el.Role,
		Name:        el.Name,
		Value:       el.Value,
		Description: el.Description,
		Bounds:      el.Bounds,
		Focused:     el.Focused,
		Enabled:     el.Enabled,
		Ignored:     el.Ignored,
		BackendID:   el.BackendID,
		FrameID:     el.FrameID,
		Depth:       depth,
		Path:        currentPath,
	})

	for i := range el.Children {
		flattenRecursive(&el.Children[i], currentPath, depth+1, result)
	}
}
