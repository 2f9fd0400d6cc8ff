//go:build darwin

// Package darwin posts OS-level input events using CoreGraphics.
// All functionality requires CGo. When CGo is disabled, the package
// compiles as a no-op stub and no backend is registered.
package darwin
