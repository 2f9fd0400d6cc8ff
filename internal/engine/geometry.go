package engine

import (
	"context"
	"encoding/json"
	"math"
)

// WindowGeometry places a tab's viewport on the screen, so viewport-space
// resolution results can be replayed as OS-level input.
type WindowGeometry struct {
	OriginX float64 // screen position of the viewport's top-left, CSS px
	OriginY float64
	Scale   float64 // visual viewport zoom factor
}

// ToScreen converts a viewport coordinate to a screen coordinate.
func (g WindowGeometry) ToScreen(vx, vy float64) (int, int) {
	scale := g.Scale
	if scale == 0 {
		scale = 1
	}
	x := g.OriginX + vx*scale
	y := g.OriginY + vy*scale
	return int(math.Round(x)), int(math.Round(y))
}

// windowGeometry derives the screen position of a tab's content area. The
// horizontal window border is assumed symmetric and the browser chrome is
// assumed to sit entirely above the content, which holds for stock Chrome.
func (e *Engine) windowGeometry(ctx context.Context, targetID string) (WindowGeometry, error) {
	raw, err := e.Evaluate(ctx, targetID, `({
		sx: window.screenX, sy: window.screenY,
		ow: window.outerWidth, oh: window.outerHeight,
		iw: window.innerWidth, ih: window.innerHeight,
		scale: (window.visualViewport && window.visualViewport.scale) || 1
	})`)
	if err != nil {
		return WindowGeometry{}, err
	}
	var m struct {
		SX    float64 `json:"sx"`
		SY    float64 `json:"sy"`
		OW    float64 `json:"ow"`
		OH    float64 `json:"oh"`
		IW    float64 `json:"iw"`
		IH    float64 `json:"ih"`
		Scale float64 `json:"scale"`
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return WindowGeometry{}, err
	}

	return WindowGeometry{
		OriginX: m.SX + (m.OW-m.IW)/2,
		OriginY: m.SY + (m.OH - m.IH),
		Scale:   m.Scale,
	}, nil
}
