//go:build darwin

package main

// Register the macOS native input backend.
import _ "github.com/mj1618/chrome-cli/internal/native/darwin"
