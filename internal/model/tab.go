package model

// Tab represents a top-level browsing context as surfaced to callers.
type Tab struct {
	ID    string `yaml:"id"              json:"id"`
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
	URL   string `yaml:"url"             json:"url"`
}

// Frame represents one browsing context inside a tab's frame tree. ParentID
// is empty for the top-level frame; the relationship is a forest and a
// frame's parent never changes.
type Frame struct {
	ID       string `json:"id"`
	ParentID string `json:"parentId,omitempty"`
	URL      string `json:"url"`
}
