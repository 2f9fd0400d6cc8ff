package cdp

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes callers are expected to branch on.
// Each maps to a distinct recovery strategy: reconnect, retry, re-list tabs,
// supply a different description, or fall back to native input.
var (
	// ErrTransportClosed means the websocket connection to the browser is
	// gone. Fatal to the session; all pending commands fail with it.
	ErrTransportClosed = errors.New("transport closed")

	// ErrTimeout means a single command exceeded its deadline. The session
	// remains usable and the caller may retry.
	ErrTimeout = errors.New("command timed out")

	// ErrContextGone means the addressed browsing context (tab or frame)
	// detached before or while the command was in flight.
	ErrContextGone = errors.New("browsing context gone")

	// ErrNotFound means target resolution exhausted every strategy.
	ErrNotFound = errors.New("no matching element")

	// ErrTargetNotInteractable means the protocol-level action was rejected
	// for the resolved element. Triggers at most one native-input fallback.
	ErrTargetNotInteractable = errors.New("target not interactable")
)

// Error is a protocol-reported command failure (the "error" member of a CDP
// response). It is distinct from transport failures: the connection is fine,
// the browser just refused the command.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("cdp: %s (code %d)", e.Message, e.Code)
}
