//go:build darwin && cgo

package darwin

import "github.com/mj1618/chrome-cli/internal/native"

func init() {
	native.NewProviderFunc = func() (*native.Provider, error) {
		return &native.Provider{Inputter: NewInputter()}, nil
	}
}
