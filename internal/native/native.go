// Package native delivers OS-level mouse and keyboard input. It is the
// escape hatch for pages that swallow synthetic DevTools events: input is
// posted to the operating system and arrives at the browser as if a person
// produced it, so the browser window must be frontmost and unoccluded.
package native

import (
	"fmt"
	"runtime"
	"strings"
)

// MouseButton represents a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// ParseMouseButton converts a string flag value to MouseButton.
func ParseMouseButton(s string) (MouseButton, error) {
	switch strings.ToLower(s) {
	case "", "left":
		return MouseLeft, nil
	case "right":
		return MouseRight, nil
	case "middle":
		return MouseMiddle, nil
	default:
		return MouseLeft, fmt.Errorf("unknown mouse button: %q (expected left, right, or middle)", s)
	}
}

// Inputter simulates mouse and keyboard input at screen coordinates.
type Inputter interface {
	Click(x, y int, button MouseButton, count int) error
	MoveMouse(x, y int) error
	Scroll(x, y int, dx, dy int) error
	TypeText(text string, delayMs int) error
	KeyCombo(keys []string) error
}

// Provider bundles the input backend for the current OS.
type Provider struct {
	Inputter Inputter
}

// ErrUnsupported is returned on platforms with no input backend. It is an
// explicit failure: native input never degrades to a silent no-op.
var ErrUnsupported = fmt.Errorf("native input is not supported on %s/%s; supported: darwin/amd64, darwin/arm64", runtime.GOOS, runtime.GOARCH)

// NewProviderFunc is set by platform-specific packages via init().
// See internal/native/darwin/init.go for the macOS registration.
var NewProviderFunc func() (*Provider, error)

// NewProvider returns a Provider for the current OS.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}
