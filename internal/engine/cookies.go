package engine

import (
	"context"
)

// Cookie is the subset of the Network domain's cookie the tool surface
// exposes.
type Cookie struct {
	Name     string  `json:"name" yaml:"name"`
	Value    string  `json:"value" yaml:"value"`
	Domain   string  `json:"domain" yaml:"domain"`
	Path     string  `json:"path" yaml:"path"`
	Expires  float64 `json:"expires,omitempty" yaml:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty" yaml:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty" yaml:"secure,omitempty"`
}

// Cookies returns the cookies visible to a tab.
func (e *Engine) Cookies(ctx context.Context, targetID string) ([]Cookie, error) {
	sess, err := e.session(ctx, targetID)
	if err != nil {
		return nil, err
	}
	var res struct {
		Cookies []Cookie `json:"cookies"`
	}
	if err := e.client.Call(ctx, sess, "Network.getCookies", nil, &res); err != nil {
		return nil, err
	}
	return res.Cookies, nil
}

// SetCookie writes one cookie into the browser's jar.
func (e *Engine) SetCookie(ctx context.Context, targetID string, c Cookie) error {
	sess, err := e.session(ctx, targetID)
	if err != nil {
		return err
	}
	params := map[string]any{
		"name":   c.Name,
		"value":  c.Value,
		"domain": c.Domain,
		"path":   c.Path,
	}
	if c.Expires != 0 {
		params["expires"] = c.Expires
	}
	if c.Secure {
		params["secure"] = true
	}
	if c.HTTPOnly {
		params["httpOnly"] = true
	}
	return e.client.Call(ctx, sess, "Network.setCookie", params, nil)
}

// ClearCookies removes every cookie in the browser.
func (e *Engine) ClearCookies(ctx context.Context, targetID string) error {
	sess, err := e.session(ctx, targetID)
	if err != nil {
		return err
	}
	return e.client.Call(ctx, sess, "Network.clearBrowserCookies", nil, nil)
}
