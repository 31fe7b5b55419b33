package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iksnae/chat-timeline/internal"
)

const defaultDialTimeout = 15 * time.Second

// conn is a websocket to a bridge. Calls are serialized: one request is
// written and its response read before the next call starts.
type conn struct {
	mu     sync.Mutex
	ws     *websocket.Conn
	nextID uint64
	broken bool
}

func dial(ctx context.Context, url string, timeout time.Duration) (*conn, error) {
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}

	ws, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: dial %s: status=%d: %v", internal.ErrTransientNetwork, url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: dial %s: %v", internal.ErrTransientNetwork, url, err)
	}
	internal.LogDebug("Connected to relay %s", url)
	return &conn{ws: ws}, nil
}

// call sends method with params and decodes the result into out (if non-nil).
// Transport failures wrap ErrTransientNetwork and mark the connection broken.
func (c *conn) call(ctx context.Context, method string, params, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken || c.ws == nil {
		return fmt.Errorf("%w: %v", internal.ErrTransientNetwork, errClosed)
	}

	req := Request{ID: c.nextID + 1, Method: method}
	c.nextID++
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("%w: encode %s params: %v", internal.ErrSerialization, method, err)
		}
		req.Params = data
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.ws.SetWriteDeadline(deadline)
		_ = c.ws.SetReadDeadline(deadline)
	} else {
		_ = c.ws.SetWriteDeadline(time.Time{})
		_ = c.ws.SetReadDeadline(time.Time{})
	}

	// Unblock the read when ctx is cancelled.
	ws := c.ws
	stop := context.AfterFunc(ctx, func() {
		_ = ws.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := c.ws.WriteJSON(req); err != nil {
		return c.fail(ctx, method, err)
	}

	for {
		var resp Response
		if err := c.ws.ReadJSON(&resp); err != nil {
			return c.fail(ctx, method, err)
		}
		if resp.ID != req.ID {
			internal.LogDebug("Ignoring relay response %d while waiting for %d", resp.ID, req.ID)
			continue
		}
		if resp.Error != nil {
			return resp.Error
		}
		if out == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("%w: decode %s result: %v", internal.ErrSerialization, method, err)
		}
		return nil
	}
}

func (c *conn) fail(ctx context.Context, method string, err error) error {
	c.broken = true
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("%w: %s: %v", internal.ErrSerialization, method, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s timed out: %v", internal.ErrTransientNetwork, method, err)
	}
	return fmt.Errorf("%w: %s: %v", internal.ErrTransientNetwork, method, err)
}

func (c *conn) isBroken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broken
}

func (c *conn) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		return nil
	}
	_ = c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	err := c.ws.Close()
	c.ws = nil
	c.broken = true
	return err
}
