package cdp

import "encoding/json"

// request is one outbound CDP command. SessionID addresses a specific
// attached browsing context; empty means the browser-level session.
type request struct {
	ID        int64  `json:"id"`
	SessionID string `json:"sessionId,omitempty"`
	Method    string `json:"method"`
	Params    any    `json:"params,omitempty"`
}

// message is any inbound frame. A non-zero ID marks it as the response to a
// previously sent request; otherwise it is an unsolicited event identified by
// Method.
type message struct {
	ID        int64           `json:"id,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Method    string          `json:"method,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *Error          `json:"error,omitempty"`
}

// Event is one unsolicited protocol event delivered to subscribers.
type Event struct {
	Method    string
	SessionID string
	Params    json.RawMessage
}

// TabInfo describes one page target as reported by the DevTools HTTP
// endpoint (/json) or Target.getTargets.
type TabInfo struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl,omitempty"`
	ParentID             string `json:"parentId,omitempty"`
}
