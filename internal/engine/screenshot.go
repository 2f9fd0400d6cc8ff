package engine

import (
	"context"
	"encoding/base64"
	"fmt"
)

// ScreenshotOptions configures what to capture.
type ScreenshotOptions struct {
	Format   string  // "png" or "jpeg"
	Quality  int     // JPEG quality 1-100 (ignored for PNG)
	FullPage bool    // capture the whole document, not just the viewport
	Scale    float64 // output scale factor 0.1-1.0 (default 1.0)
}

// Screenshot captures the tab as an encoded image.
func (e *Engine) Screenshot(ctx context.Context, targetID string, opts ScreenshotOptions) ([]byte, error) {
	sess, err := e.session(ctx, targetID)
	if err != nil {
		return nil, err
	}

	format := opts.Format
	if format == "" || format == "jpg" {
		if format == "jpg" {
			format = "jpeg"
		} else {
			format = "png"
		}
	}
	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	scale := opts.Scale
	if scale <= 0 || scale > 1.0 {
		scale = 1.0
	}

	params := map[string]any{"format": format}
	if format == "jpeg" {
		params["quality"] = quality
	}
	if opts.FullPage {
		params["captureBeyondViewport"] = true
	}
	if scale != 1.0 || opts.FullPage {
		clip, err := e.captureClip(ctx, sess, opts.FullPage, scale)
		if err != nil {
			return nil, err
		}
		params["clip"] = clip
	}

	var res struct {
		Data string `json:"data"`
	}
	if err := e.client.Call(ctx, sess, "Page.captureScreenshot", params, &res); err != nil {
		return nil, err
	}
	img, err := base64.StdEncoding.DecodeString(res.Data)
	if err != nil {
		return nil, fmt.Errorf("decode screenshot payload: %w", err)
	}
	return img, nil
}

// captureClip sizes the capture region from layout metrics, scaled down at
// the protocol level so large pages never round-trip at full resolution.
func (e *Engine) captureClip(ctx context.Context, sess string, fullPage bool, scale float64) (map[string]any, error) {
	var res struct {
		CSSContentSize struct {
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		} `json:"cssContentSize"`
		CSSVisualViewport struct {
			ClientWidth  float64 `json:"clientWidth"`
			ClientHeight float64 `json:"clientHeight"`
		} `json:"cssVisualViewport"`
	}
	if err := e.client.Call(ctx, sess, "Page.getLayoutMetrics", nil, &res); err != nil {
		return nil, err
	}
	w, h := res.CSSVisualViewport.ClientWidth, res.CSSVisualViewport.ClientHeight
	if fullPage {
		w, h = res.CSSContentSize.Width, res.CSSContentSize.Height
	}
	return map[string]any{
		"x":      0,
		"y":      0,
		"width":  w,
		"height": h,
		"scale":  scale,
	}, nil
}
