package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// httpClient is shared by the DevTools REST helpers. The endpoints are local
// and answer immediately; a short timeout keeps a dead browser from hanging us.
var httpClient = &http.Client{Timeout: 10 * time.Second}

// BrowserWebSocketURL asks /json/version for the browser-level debugger
// endpoint. One connection to it multiplexes every tab via sessions.
func BrowserWebSocketURL(ctx context.Context, host string, port int) (string, error) {
	var info struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := getJSON(ctx, fmt.Sprintf("http://%s:%d/json/version", host, port), &info); err != nil {
		return "", err
	}
	if info.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("browser reports no webSocketDebuggerUrl")
	}
	return info.WebSocketDebuggerURL, nil
}

// ListTabs fetches all page targets from the /json endpoint.
func ListTabs(ctx context.Context, host string, port int) ([]TabInfo, error) {
	var tabs []TabInfo
	if err := getJSON(ctx, fmt.Sprintf("http://%s:%d/json", host, port), &tabs); err != nil {
		return nil, err
	}
	var pages []TabInfo
	for _, t := range tabs {
		if t.Type == "" || t.Type == "page" {
			pages = append(pages, t)
		}
	}
	return pages, nil
}

// NewTab opens a new tab, optionally navigated to rawURL.
func NewTab(ctx context.Context, host string, port int, rawURL string) (TabInfo, error) {
	endpoint := fmt.Sprintf("http://%s:%d/json/new", host, port)
	if rawURL != "" {
		endpoint += "?" + url.QueryEscape(rawURL)
	}
	var tab TabInfo
	// Newer Chrome requires PUT for /json/new; older builds accepted GET.
	if err := putJSON(ctx, endpoint, &tab); err != nil {
		return TabInfo{}, err
	}
	return tab, nil
}

// CloseTab asks the browser to close the given tab.
func CloseTab(ctx context.Context, host string, port int, tabID string) error {
	endpoint := fmt.Sprintf("http://%s:%d/json/close/%s", host, port, tabID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("close tab: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("close tab %s: HTTP %d", tabID, resp.StatusCode)
	}
	return nil
}

func getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return doJSON(req, v)
}

func putJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, nil)
	if err != nil {
		return err
	}
	return doJSON(req, v)
}

func doJSON(req *http.Request, v any) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("devtools endpoint: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("devtools endpoint %s: HTTP %d: %s", req.URL.Path, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode devtools response: %w", err)
	}
	return nil
}
