// Package server exposes the browser engine as MCP tools, so agents can
// drive pages with direct tool calls instead of shelling out per action.
package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/chrome-cli/internal/engine"
	"github.com/mj1618/chrome-cli/internal/model"
	"github.com/mj1618/chrome-cli/internal/native"
)

// Config holds MCP server configuration.
type Config struct {
	BrowserHost string
	BrowserPort int
	Transport   string // stdio or streamable-http
	HTTPPort    int
	Timeout     time.Duration
	CacheTTL    time.Duration
}

// Server wraps the MCP server with the engine and snapshot cache. Actions
// serialize on a mutex: interleaved input from concurrent tool calls would
// race on page focus.
type Server struct {
	eng   *engine.Engine
	cache *SnapshotCache
	mu    sync.Mutex
	mcp   *mcpserver.MCPServer
	log   *zap.Logger
}

// New connects to the browser and configures an MCP server with all tools.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := []engine.Option{engine.WithLogger(log)}
	if provider, err := native.NewProvider(); err == nil {
		opts = append(opts, engine.WithNativeInput(provider))
	}
	eng, err := engine.Connect(ctx, cfg.BrowserHost, cfg.BrowserPort, cfg.Timeout, opts...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		eng:   eng,
		cache: NewSnapshotCache(cfg.CacheTTL),
		log:   log,
	}
	s.mcp = mcpserver.NewMCPServer(
		"chrome-cli",
		"1.0.0",
	)
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server with the configured transport.
func (s *Server) Serve(cfg Config) error {
	defer s.eng.Close()
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.HTTPPort))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *Server) registerTools() {
	// tabs
	s.mcp.AddTool(
		mcp.NewTool("tabs",
			mcp.WithDescription("List open browser tabs, or open/close/activate one"),
			mcp.WithString("new", mcp.Description("Open a new tab at this URL")),
			mcp.WithString("close", mcp.Description("Close the tab with this target id")),
			mcp.WithString("activate", mcp.Description("Bring the tab with this target id to the foreground")),
		),
		s.handleTabs,
	)

	// open
	s.mcp.AddTool(
		mcp.NewTool("open",
			mcp.WithDescription("Navigate a tab to a URL and wait for it to load"),
			mcp.WithString("url", mcp.Description("URL to open"), mcp.Required()),
			mcp.WithString("tab", mcp.Description("Tab to navigate: target id or URL/title substring (default: first tab)")),
			mcp.WithBoolean("new-tab", mcp.Description("Open in a new tab instead of navigating")),
		),
		s.handleOpen,
	)

	// read
	s.mcp.AddTool(
		mcp.NewTool("read",
			mcp.WithDescription("Read the page's accessibility tree. Returns elements with IDs, roles, names, and viewport bounds; iframes are flattened in. IDs are only valid until the next action."),
			mcp.WithString("tab", mcp.Description("Tab to read (default: first tab)")),
			mcp.WithString("roles", mcp.Description("Comma-separated roles to include (e.g. 'btn,lnk,input' or 'interactive')")),
			mcp.WithString("text", mcp.Description("Filter elements by text content")),
			mcp.WithBoolean("focused", mcp.Description("Only return the currently focused element")),
			mcp.WithNumber("max-elements", mcp.Description("Max elements in output (0 = unlimited)")),
		),
		s.handleRead,
	)

	// find
	s.mcp.AddTool(
		mcp.NewTool("find",
			mcp.WithDescription("Resolve an element by CSS, text, role+label, or free text without acting on it"),
			mcp.WithString("tab", mcp.Description("Tab to search (default: first tab)")),
			mcp.WithString("css", mcp.Description("CSS selector")),
			mcp.WithString("text", mcp.Description("Visible text")),
			mcp.WithString("role", mcp.Description("Role (with label)")),
			mcp.WithString("label", mcp.Description("Accessible name")),
			mcp.WithString("query", mcp.Description("Free text, resolved by text, then label, then CSS")),
		),
		s.handleFind,
	)

	// click
	s.mcp.AddTool(
		mcp.NewTool("click",
			mcp.WithDescription("Click a page element by CSS, text, role+label, free text, or coordinates"),
			mcp.WithString("tab", mcp.Description("Tab to act on (default: first tab)")),
			mcp.WithString("css", mcp.Description("CSS selector")),
			mcp.WithString("text", mcp.Description("Visible text")),
			mcp.WithString("role", mcp.Description("Role (with label)")),
			mcp.WithString("label", mcp.Description("Accessible name")),
			mcp.WithString("query", mcp.Description("Free text target")),
			mcp.WithNumber("x", mcp.Description("Viewport X coordinate (with y; uses OS-level input)")),
			mcp.WithNumber("y", mcp.Description("Viewport Y coordinate")),
			mcp.WithString("button", mcp.Description("Mouse button: left, right, middle")),
			mcp.WithBoolean("double", mcp.Description("Double-click")),
			mcp.WithBoolean("native", mcp.Description("Force OS-level input")),
		),
		s.handleClick,
	)

	// type
	s.mcp.AddTool(
		mcp.NewTool("type",
			mcp.WithDescription("Focus an element and type text into it"),
			mcp.WithString("text", mcp.Description("Text to type"), mcp.Required()),
			mcp.WithString("tab", mcp.Description("Tab to act on (default: first tab)")),
			mcp.WithString("css", mcp.Description("Target element by CSS selector")),
			mcp.WithString("query", mcp.Description("Target element by free text")),
			mcp.WithBoolean("submit", mcp.Description("Press Enter after typing")),
			mcp.WithBoolean("native", mcp.Description("Force OS-level input")),
		),
		s.handleType,
	)

	// select
	s.mcp.AddTool(
		mcp.NewTool("select",
			mcp.WithDescription("Pick an option on a <select> element by value"),
			mcp.WithString("value", mcp.Description("Option value to select"), mcp.Required()),
			mcp.WithString("tab", mcp.Description("Tab to act on (default: first tab)")),
			mcp.WithString("css", mcp.Description("Target select by CSS selector")),
			mcp.WithString("query", mcp.Description("Target select by free text")),
		),
		s.handleSelect,
	)

	// hover
	s.mcp.AddTool(
		mcp.NewTool("hover",
			mcp.WithDescription("Move the pointer over an element (tooltips, hover menus)"),
			mcp.WithString("tab", mcp.Description("Tab to act on (default: first tab)")),
			mcp.WithString("css", mcp.Description("CSS selector")),
			mcp.WithString("text", mcp.Description("Visible text")),
			mcp.WithString("query", mcp.Description("Free text target")),
		),
		s.handleHover,
	)

	// scroll
	s.mcp.AddTool(
		mcp.NewTool("scroll",
			mcp.WithDescription("Scroll the page or a scrollable element"),
			mcp.WithString("direction", mcp.Description("Scroll direction: up, down, left, right"), mcp.Required()),
			mcp.WithNumber("amount", mcp.Description("Scroll clicks (default: 3)")),
			mcp.WithString("tab", mcp.Description("Tab to act on (default: first tab)")),
			mcp.WithString("css", mcp.Description("Scroll within this element")),
		),
		s.handleScroll,
	)

	// press_key
	s.mcp.AddTool(
		mcp.NewTool("press_key",
			mcp.WithDescription("Press a named key (Enter, Tab, Escape, arrows) in the focused element"),
			mcp.WithString("key", mcp.Description("Key name, e.g. Enter"), mcp.Required()),
			mcp.WithString("tab", mcp.Description("Tab to act on (default: first tab)")),
		),
		s.handlePressKey,
	)

	// eval
	s.mcp.AddTool(
		mcp.NewTool("eval",
			mcp.WithDescription("Evaluate a JavaScript expression in the page and return its value"),
			mcp.WithString("expression", mcp.Description("JavaScript expression"), mcp.Required()),
			mcp.WithString("tab", mcp.Description("Tab to evaluate in (default: first tab)")),
		),
		s.handleEval,
	)

	// wait
	s.mcp.AddTool(
		mcp.NewTool("wait",
			mcp.WithDescription("Wait for a page condition (selector present/gone, text visible, URL, load)"),
			mcp.WithString("tab", mcp.Description("Tab to watch (default: first tab)")),
			mcp.WithString("for-selector", mcp.Description("Wait until a CSS selector matches")),
			mcp.WithString("for-text", mcp.Description("Wait until the page contains text")),
			mcp.WithString("gone", mcp.Description("Wait until a CSS selector matches nothing")),
			mcp.WithString("url-contains", mcp.Description("Wait until the location contains a substring")),
			mcp.WithBoolean("load", mcp.Description("Wait until the document finishes loading")),
			mcp.WithBoolean("idle", mcp.Description("Wait until the page has loaded and network activity settles")),
			mcp.WithNumber("timeout", mcp.Description("Max seconds to wait (default: 30)")),
		),
		s.handleWait,
	)

	// screenshot
	s.mcp.AddTool(
		mcp.NewTool("screenshot",
			mcp.WithDescription("Capture a tab as an image"),
			mcp.WithString("tab", mcp.Description("Tab to capture (default: first tab)")),
			mcp.WithString("format", mcp.Description("Image format: png, jpeg (default: png)")),
			mcp.WithNumber("quality", mcp.Description("JPEG quality 1-100 (default: 80)")),
			mcp.WithBoolean("full-page", mcp.Description("Capture the whole document")),
			mcp.WithNumber("scale", mcp.Description("Scale factor 0.1-1.0 (default: 0.5)")),
		),
		s.handleScreenshot,
	)

	// cookies
	s.mcp.AddTool(
		mcp.NewTool("cookies",
			mcp.WithDescription("List, set, or clear browser cookies"),
			mcp.WithString("tab", mcp.Description("Tab scope (default: first tab)")),
			mcp.WithString("set-name", mcp.Description("Cookie name to set (with set-value)")),
			mcp.WithString("set-value", mcp.Description("Cookie value to set")),
			mcp.WithString("domain", mcp.Description("Cookie domain (with set-name)")),
			mcp.WithBoolean("clear", mcp.Description("Remove every cookie in the browser")),
		),
		s.handleCookies,
	)
}

// resultText serializes v to YAML for an MCP text response.
func resultText(v any) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}

// tabFor resolves the tab a tool call addresses.
func (s *Server) tabFor(ctx context.Context, params map[string]interface{}) (model.Tab, error) {
	selector := stringParam(params, "tab", "")
	if selector == "" {
		return s.eng.FirstTab(ctx)
	}
	tabs, err := s.eng.ListTabs(ctx)
	if err != nil {
		return model.Tab{}, err
	}
	for _, t := range tabs {
		if t.ID == selector {
			return t, nil
		}
	}
	sel := strings.ToLower(selector)
	for _, t := range tabs {
		if strings.Contains(strings.ToLower(t.URL), sel) || strings.Contains(strings.ToLower(t.Title), sel) {
			return t, nil
		}
	}
	return model.Tab{}, fmt.Errorf("no tab matches %q", selector)
}

// targetFrom builds a target description from tool arguments.
func targetFrom(params map[string]interface{}) (model.TargetDescription, error) {
	css := stringParam(params, "css", "")
	text := stringParam(params, "text", "")
	role := stringParam(params, "role", "")
	label := stringParam(params, "label", "")
	query := stringParam(params, "query", "")

	switch {
	case css != "":
		return model.CSS(css), nil
	case text != "":
		return model.Text(text), nil
	case label != "":
		return model.RoleLabel(role, label), nil
	case query != "":
		return model.FreeText(query), nil
	}
	if x, okX := floatParamOK(params, "x"); okX {
		if y, okY := floatParamOK(params, "y"); okY {
			return model.Coordinate(x, y), nil
		}
	}
	return model.TargetDescription{}, fmt.Errorf("specify a target: css, text, role/label, query, or x/y")
}

// actionResult is the YAML shape returned by action tools.
type actionResult struct {
	OK        bool    `yaml:"ok"`
	Action    string  `yaml:"action"`
	Target    string  `yaml:"target,omitempty"`
	Path      string  `yaml:"path,omitempty"`
	X         float64 `yaml:"x,omitempty"`
	Y         float64 `yaml:"y,omitempty"`
	ElapsedMs int64   `yaml:"elapsedMs,omitempty"`
}

// runAction resolves a target, executes an action, and invalidates the
// snapshot cache for the tab.
func (s *Server) runAction(ctx context.Context, params map[string]interface{}, action engine.Action) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tab, err := s.tabFor(ctx, params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	desc, err := targetFrom(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.eng.Do(ctx, tab.ID, desc, action)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.InvalidateTarget(tab.ID)

	return mcp.NewToolResultText(resultText(actionResult{
		OK:        true,
		Action:    report.Action,
		Target:    report.Target,
		Path:      report.Path,
		X:         report.X,
		Y:         report.Y,
		ElapsedMs: report.Elapsed.Milliseconds(),
	})), nil
}

func (s *Server) handleTabs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	s.mu.Lock()
	defer s.mu.Unlock()

	if url := stringParam(params, "new", ""); url != "" {
		tab, err := s.eng.NewTab(ctx, url)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(resultText(tab)), nil
	}
	if id := stringParam(params, "close", ""); id != "" {
		if err := s.eng.CloseTab(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.cache.InvalidateTarget(id)
		return mcp.NewToolResultText("closed " + id), nil
	}
	if id := stringParam(params, "activate", ""); id != "" {
		if err := s.eng.ActivateTab(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("activated " + id), nil
	}

	tabs, err := s.eng.ListTabs(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultText(tabs)), nil
}

func (s *Server) handleOpen(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	url := stringParam(params, "url", "")
	if url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if boolParam(params, "new-tab", false) {
		tab, err := s.eng.NewTab(ctx, url)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(resultText(tab)), nil
	}

	tab, err := s.tabFor(ctx, params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.eng.Navigate(ctx, tab.ID, url); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.InvalidateTarget(tab.ID)
	return mcp.NewToolResultText(resultText(actionResult{OK: true, Action: "open", Target: url})), nil
}

func (s *Server) handleRead(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	s.mu.Lock()
	defer s.mu.Unlock()

	tab, err := s.tabFor(ctx, params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.cache.Snapshot(ctx, s.eng, tab.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	elements := snap.Roots

	if rolesStr := stringParam(params, "roles", ""); rolesStr != "" {
		var roles []string
		for _, r := range strings.Split(rolesStr, ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}
		elements = model.FilterElements(elements, model.ExpandRoles(roles), nil)
	}
	if text := stringParam(params, "text", ""); text != "" {
		elements = model.FilterByText(elements, text)
	}
	if boolParam(params, "focused", false) {
		elements = model.FilterByFocused(elements)
	}

	flat := model.FlattenElements(elements)
	if max := intParam(params, "max-elements", 0); max > 0 && len(flat) > max {
		flat = flat[:max]
	}
	return mcp.NewToolResultText(resultText(flat)), nil
}

func (s *Server) handleFind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	s.mu.Lock()
	defer s.mu.Unlock()

	tab, err := s.tabFor(ctx, params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	desc, err := targetFrom(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rt, err := s.eng.Resolve(ctx, tab.ID, desc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultText(rt)), nil
}

func (s *Server) handleClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	action := engine.Action{
		Kind:   engine.ActionClick,
		Button: stringParam(params, "button", "left"),
		Native: boolParam(params, "native", false),
	}
	if boolParam(params, "double", false) {
		action.ClickCount = 2
	}
	return s.runAction(ctx, params, action)
}

func (s *Server) handleType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	text := stringParam(params, "text", "")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}
	action := engine.Action{
		Kind:   engine.ActionType,
		Text:   text,
		Native: boolParam(params, "native", false),
	}
	result, err := s.runAction(ctx, params, action)
	if err != nil || result.IsError {
		return result, err
	}
	if boolParam(params, "submit", false) {
		s.mu.Lock()
		defer s.mu.Unlock()
		tab, terr := s.tabFor(ctx, params)
		if terr != nil {
			return mcp.NewToolResultError(terr.Error()), nil
		}
		if kerr := s.eng.PressKey(ctx, tab.ID, "Enter"); kerr != nil {
			return mcp.NewToolResultError(kerr.Error()), nil
		}
		s.cache.InvalidateTarget(tab.ID)
	}
	return result, nil
}

func (s *Server) handleSelect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	value := stringParam(params, "value", "")
	if value == "" {
		return mcp.NewToolResultError("value is required"), nil
	}
	return s.runAction(ctx, params, engine.Action{Kind: engine.ActionSelect, Value: value})
}

func (s *Server) handleHover(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.runAction(ctx, request.GetArguments(), engine.Action{Kind: engine.ActionHover})
}

func (s *Server) handleScroll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	amount := intParam(params, "amount", 3)
	action := engine.Action{Kind: engine.ActionScroll}
	delta := float64(amount * 120)
	switch stringParam(params, "direction", "down") {
	case "down":
		action.DeltaY = delta
	case "up":
		action.DeltaY = -delta
	case "right":
		action.DeltaX = delta
	case "left":
		action.DeltaX = -delta
	default:
		return mcp.NewToolResultError("direction must be up, down, left, or right"), nil
	}
	if stringParam(params, "css", "") == "" {
		params["css"] = "body"
	}
	return s.runAction(ctx, params, action)
}

func (s *Server) handlePressKey(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	key := stringParam(params, "key", "")
	if key == "" {
		return mcp.NewToolResultError("key is required"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tab, err := s.tabFor(ctx, params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.eng.PressKey(ctx, tab.ID, key); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.InvalidateTarget(tab.ID)
	return mcp.NewToolResultText(resultText(actionResult{OK: true, Action: "press_key", Target: key})), nil
}

func (s *Server) handleEval(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	expression := stringParam(params, "expression", "")
	if expression == "" {
		return mcp.NewToolResultError("expression is required"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tab, err := s.tabFor(ctx, params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := s.eng.Evaluate(ctx, tab.ID, expression)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.InvalidateTarget(tab.ID)
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleWait(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	var cond engine.WaitCondition
	switch {
	case stringParam(params, "for-selector", "") != "":
		cond = engine.WaitCondition{Kind: engine.WaitSelector, Value: stringParam(params, "for-selector", "")}
	case stringParam(params, "for-text", "") != "":
		cond = engine.WaitCondition{Kind: engine.WaitText, Value: stringParam(params, "for-text", "")}
	case stringParam(params, "gone", "") != "":
		cond = engine.WaitCondition{Kind: engine.WaitGone, Value: stringParam(params, "gone", "")}
	case stringParam(params, "url-contains", "") != "":
		cond = engine.WaitCondition{Kind: engine.WaitURLContains, Value: stringParam(params, "url-contains", "")}
	case boolParam(params, "load", false):
		cond = engine.WaitCondition{Kind: engine.WaitLoad}
	case boolParam(params, "idle", false):
		cond = engine.WaitCondition{Kind: engine.WaitIdle}
	default:
		return mcp.NewToolResultError("specify a condition: for-selector, for-text, gone, url-contains, load, or idle"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tab, err := s.tabFor(ctx, params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	timeout := time.Duration(intParam(params, "timeout", 30)) * time.Second
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.eng.WaitFor(waitCtx, tab.ID, cond, 0); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultText(actionResult{OK: true, Action: "wait", Target: string(cond.Kind) + "(" + cond.Value + ")"})), nil
}

func (s *Server) handleScreenshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	s.mu.Lock()
	defer s.mu.Unlock()

	tab, err := s.tabFor(ctx, params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	format := stringParam(params, "format", "png")
	data, err := s.eng.Screenshot(ctx, tab.ID, engine.ScreenshotOptions{
		Format:   format,
		Quality:  intParam(params, "quality", 80),
		FullPage: boolParam(params, "full-page", false),
		Scale:    floatParam(params, "scale", 0.5),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	b64 := base64.StdEncoding.EncodeToString(data)
	mimeType := "image/png"
	if format == "jpg" || format == "jpeg" {
		mimeType = "image/jpeg"
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.ImageContent{
				Type:     "image",
				Data:     b64,
				MIMEType: mimeType,
			},
		},
	}, nil
}

func (s *Server) handleCookies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	s.mu.Lock()
	defer s.mu.Unlock()

	tab, err := s.tabFor(ctx, params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if name := stringParam(params, "set-name", ""); name != "" {
		c := engine.Cookie{
			Name:   name,
			Value:  stringParam(params, "set-value", ""),
			Domain: stringParam(params, "domain", ""),
			Path:   "/",
		}
		if err := s.eng.SetCookie(ctx, tab.ID, c); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("cookie set: " + name), nil
	}
	if boolParam(params, "clear", false) {
		if err := s.eng.ClearCookies(ctx, tab.ID); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("cookies cleared"), nil
	}

	cookies, err := s.eng.Cookies(ctx, tab.ID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultText(cookies)), nil
}

// stringParam reads a string tool argument with a default.
func stringParam(params map[string]interface{}, key, def string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// intParam reads a numeric tool argument with a default.
func intParam(params map[string]interface{}, key string, def int) int {
	if v, ok := params[key]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return def
}

// floatParam reads a float tool argument with a default.
func floatParam(params map[string]interface{}, key string, def float64) float64 {
	if f, ok := floatParamOK(params, key); ok {
		return f
	}
	return def
}

func floatParamOK(params map[string]interface{}, key string) (float64, bool) {
	if v, ok := params[key]; ok {
		if f, ok := v.(float64); ok {
			return f, true
		}
	}
	return 0, false
}

// boolParam reads a boolean tool argument with a default.
func boolParam(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}
