package model

import "fmt"

// TargetKind discriminates the ways a caller can describe what to act on.
type TargetKind string

const (
	// TargetCSS resolves via the page's native selector engine.
	TargetCSS TargetKind = "css"
	// TargetText matches the accessibility snapshot's visible text.
	TargetText TargetKind = "text"
	// TargetRoleLabel matches on role (optional) plus accessible name.
	TargetRoleLabel TargetKind = "role"
	// TargetCoordinate wraps a raw viewport coordinate; always resolves.
	TargetCoordinate TargetKind = "coordinate"
	// TargetFreeText is caller-supplied prose with no strategy chosen. The
	// resolver tries text, then role+label, then a CSS interpretation of
	// the literal string.
	TargetFreeText TargetKind = "auto"
)

// TargetDescription is an immutable, strategy-agnostic description of "what
// to act on". Exactly the fields implied by Kind are meaningful.
type TargetDescription struct {
	Kind     TargetKind
	Selector string
	Text     string
	Role     string
	Label    string
	X, Y     float64
}

// CSS describes a target by CSS selector.
func CSS(selector string) TargetDescription {
	return TargetDescription{Kind: TargetCSS, Selector: selector}
}

// Text describes a target by its visible text.
func Text(text string) TargetDescription {
	return TargetDescription{Kind: TargetText, Text: text}
}

// RoleLabel describes a target by role code and accessible label. Role may
// be empty to match any role.
func RoleLabel(role, label string) TargetDescription {
	return TargetDescription{Kind: TargetRoleLabel, Role: role, Label: label}
}

// Coordinate describes a target by raw viewport coordinates. Intended as the
// caller's explicit last resort; it always resolves.
func Coordinate(x, y float64) TargetDescription {
	return TargetDescription{Kind: TargetCoordinate, X: x, Y: y}
}

// FreeText describes a target by prose, leaving strategy choice to the
// resolver's ordered fallback.
func FreeText(text string) TargetDescription {
	return TargetDescription{Kind: TargetFreeText, Text: text}
}

// String renders the description for logs and error messages.
func (d TargetDescription) String() string {
	switch d.Kind {
	case TargetCSS:
		return fmt.Sprintf("css(%s)", d.Selector)
	case TargetText:
		return fmt.Sprintf("text(%s)", d.Text)
	case TargetRoleLabel:
		if d.Role == "" {
			return fmt.Sprintf("label(%s)", d.Label)
		}
		return fmt.Sprintf("%s(%s)", d.Role, d.Label)
	case TargetCoordinate:
		return fmt.Sprintf("coordinate(%.0f,%.0f)", d.X, d.Y)
	default:
		return fmt.Sprintf("auto(%s)", d.Text)
	}
}
