package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBrowser is a minimal in-process DevTools endpoint. A handler func
// receives each decoded request and may write frames back on the same
// connection.
type fakeBrowser struct {
	t       *testing.T
	srv     *httptest.Server
	handler func(conn *wsConn, req request)
}

// wsConn wraps the server side of the websocket with a write lock so
// handlers may respond from multiple goroutines.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) send(v any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.WriteJSON(v)
}

func newFakeBrowser(t *testing.T, handler func(conn *wsConn, req request)) *fakeBrowser {
	t.Helper()
	fb := &fakeBrowser{t: t, handler: handler}
	upgrader := websocket.Upgrader{}
	fb.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		wc := &wsConn{conn: conn}
		for {
			var req request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if fb.handler != nil {
				go fb.handler(wc, req)
			}
		}
	}))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBrowser) wsURL() string {
	return "ws" + strings.TrimPrefix(fb.srv.URL, "http")
}

// respond writes a success response for req with the given result object.
func respond(conn *wsConn, req request, result any) {
	raw, _ := json.Marshal(result)
	conn.send(map[string]any{"id": req.ID, "result": json.RawMessage(raw)})
}

func TestCall_RoutesResponseToCaller(t *testing.T) {
	fb := newFakeBrowser(t, func(conn *wsConn, req request) {
		respond(conn, req, map[string]string{"echo": req.Method})
	})
	c, err := Dial(context.Background(), fb.wsURL())
	require.NoError(t, err)
	defer c.Close()

	var res struct {
		Echo string `json:"echo"`
	}
	require.NoError(t, c.Call(context.Background(), "", "Page.enable", nil, &res))
	assert.Equal(t, "Page.enable", res.Echo)
}

func TestCall_OutOfOrderCorrelation(t *testing.T) {
	// Respond in reverse arrival order: each caller must still get its own
	// answer, proving correlation is by id rather than FIFO.
	var mu sync.Mutex
	var queued []request
	fb := newFakeBrowser(t, func(conn *wsConn, req request) {
		mu.Lock()
		queued = append(queued, req)
		n := len(queued)
		var flush []request
		if n == 5 {
			flush = make([]request, n)
			copy(flush, queued)
		}
		mu.Unlock()
		for i := len(flush) - 1; i >= 0; i-- {
			respond(conn, flush[i], map[string]int64{"forID": flush[i].ID})
		}
	})
	c, err := Dial(context.Background(), fb.wsURL())
	require.NoError(t, err)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var res struct {
				ForID int64 `json:"forID"`
			}
			err := c.Call(context.Background(), "", fmt.Sprintf("Cmd.%d", i), nil, &res)
			assert.NoError(t, err)
			assert.NotZero(t, res.ForID)
		}(i)
	}
	wg.Wait()
}

func TestCall_Timeout(t *testing.T) {
	fb := newFakeBrowser(t, nil) // never answers
	c, err := Dial(context.Background(), fb.wsURL(), WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	defer c.Close()

	err = c.Call(context.Background(), "", "Page.navigate", nil, nil)
	require.ErrorIs(t, err, ErrTimeout)

	// The id must be freed: the correlation table holds no stale entry.
	c.mu.Lock()
	n := len(c.pending)
	c.mu.Unlock()
	assert.Zero(t, n)
}

func TestCall_AfterCloseFailsImmediately(t *testing.T) {
	fb := newFakeBrowser(t, nil)
	c, err := Dial(context.Background(), fb.wsURL())
	require.NoError(t, err)
	c.Close()

	start := time.Now()
	err = c.Call(context.Background(), "", "Page.enable", nil, nil)
	require.ErrorIs(t, err, ErrTransportClosed)
	assert.Less(t, time.Since(start), time.Second, "must fail fast, not hang")
}

func TestCall_PendingFailOnDisconnect(t *testing.T) {
	fb := newFakeBrowser(t, nil)
	c, err := Dial(context.Background(), fb.wsURL())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- c.Call(context.Background(), "", "Page.enable", nil, nil)
	}()
	time.Sleep(20 * time.Millisecond)
	fb.srv.CloseClientConnections()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrTransportClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("pending call not failed on disconnect")
	}
}

func TestCall_ProtocolError(t *testing.T) {
	fb := newFakeBrowser(t, func(conn *wsConn, req request) {
		conn.send(map[string]any{
			"id":    req.ID,
			"error": map[string]any{"code": -32000, "message": "No node with given id found"},
		})
	})
	c, err := Dial(context.Background(), fb.wsURL())
	require.NoError(t, err)
	defer c.Close()

	err = c.Call(context.Background(), "", "DOM.focus", nil, nil)
	var cdpErr *Error
	require.ErrorAs(t, err, &cdpErr)
	assert.Equal(t, -32000, cdpErr.Code)
}

func TestCall_DetachedSessionFailsWithContextGone(t *testing.T) {
	fb := newFakeBrowser(t, func(conn *wsConn, req request) {
		respond(conn, req, map[string]any{})
	})
	c, err := Dial(context.Background(), fb.wsURL())
	require.NoError(t, err)
	defer c.Close()

	params, _ := json.Marshal(map[string]string{"sessionId": "S1"})
	c.handleDetach(params)

	err = c.Call(context.Background(), "S1", "Page.enable", nil, nil)
	require.ErrorIs(t, err, ErrContextGone)

	// Other sessions stay usable.
	require.NoError(t, c.Call(context.Background(), "S2", "Page.enable", nil, nil))
}

func TestSubscribe_FansOutAndTerminatesOnClose(t *testing.T) {
	fb := newFakeBrowser(t, func(conn *wsConn, req request) {
		// Answer the trigger command, then emit two events.
		respond(conn, req, map[string]any{})
		conn.send(map[string]any{"method": "Page.loadEventFired", "params": map[string]any{}})
		conn.send(map[string]any{"method": "Page.loadEventFired", "params": map[string]any{}})
	})
	c, err := Dial(context.Background(), fb.wsURL())
	require.NoError(t, err)

	events, cancel := c.Subscribe("Page.loadEventFired")
	defer cancel()
	other, cancelOther := c.Subscribe("Page.loadEventFired")
	defer cancelOther()

	require.NoError(t, c.Call(context.Background(), "", "Page.enable", nil, nil))

	for _, ch := range []<-chan Event{events, other} {
		for i := 0; i < 2; i++ {
			select {
			case ev := <-ch:
				assert.Equal(t, "Page.loadEventFired", ev.Method)
			case <-time.After(2 * time.Second):
				t.Fatal("event not delivered")
			}
		}
	}

	c.Close()
	select {
	case _, ok := <-events:
		assert.False(t, ok, "stream must close with the session")
	case <-time.After(2 * time.Second):
		t.Fatal("stream not terminated on close")
	}
}

func TestSubscribe_SlowSubscriberDropsInsteadOfStalling(t *testing.T) {
	fb := newFakeBrowser(t, func(conn *wsConn, req request) {
		for i := 0; i < subscriberBuffer*3; i++ {
			conn.send(map[string]any{"method": "Network.requestWillBeSent", "params": map[string]any{}})
		}
		respond(conn, req, map[string]any{})
	})
	c, err := Dial(context.Background(), fb.wsURL())
	require.NoError(t, err)
	defer c.Close()

	events, cancel := c.Subscribe("Network.requestWillBeSent")
	defer cancel()

	// Never draining the subscription must not prevent command traffic.
	require.NoError(t, c.Call(context.Background(), "", "Network.enable", nil, nil))
	assert.LessOrEqual(t, len(events), subscriberBuffer)
}

func TestCall_ContextCancellation(t *testing.T) {
	fb := newFakeBrowser(t, nil)
	c, err := Dial(context.Background(), fb.wsURL())
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err = c.Call(ctx, "", "Page.enable", nil, nil)
	require.True(t, errors.Is(err, context.Canceled))

	c.mu.Lock()
	n := len(c.pending)
	c.mu.Unlock()
	assert.Zero(t, n, "cancellation must not leave dangling pending entries")
}
