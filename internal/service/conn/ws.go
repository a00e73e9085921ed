package conn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"wa_outbound/internal/model"
	"wa_outbound/internal/protocol/frame"
	"wa_outbound/internal/utils/log"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("connection closed")

type (
	// Handler receives frames nobody is waiting for, e.g. relayed messages.
	Handler func(tag string, payload json.RawMessage)

	WSConn struct {
		ws    *websocket.Conn
		ownID string

		// guards writes, gorilla allows one concurrent writer
		writeMu sync.Mutex

		mu      sync.Mutex
		pending map[string]chan json.RawMessage
		handler Handler

		epoch   atomic.Int64
		session int64

		closeOnce sync.Once
		done      chan struct{}
		err       error
	}
)

// Dial connects to the relay at rawURL as ownID. h may be nil.
func Dial(ctx context.Context, rawURL, ownID string, h Handler) (*WSConn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("relay url: %w", err)
	}
	q := u.Query()
	q.Set("jid", ownID)
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return New(ws, ownID, h), nil
}

// New wraps an established websocket and starts reading from it.
// Frames arriving before anyone waits for them go to h.
func New(ws *websocket.Conn, ownID string, h Handler) *WSConn {
	c := &WSConn{
		ws:      ws,
		ownID:   ownID,
		handler: h,
		pending: make(map[string]chan json.RawMessage),
		session: time.Now().Unix(),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *WSConn) OwnID() string {
	return c.ownID
}

func (c *WSConn) Epoch() int64 {
	return c.epoch.Load()
}

// OnFrame replaces the handler for unsolicited frames.
func (c *WSConn) OnFrame(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Done is closed once the read loop stops.
func (c *WSConn) Done() <-chan struct{} {
	return c.done
}

func (c *WSConn) Close() error {
	c.shutdown(ErrClosed)
	return c.ws.Close()
}

func (c *WSConn) nextTag() string {
	n := c.epoch.Add(1)
	return strconv.FormatInt(c.session, 10) + ".--" + strconv.FormatInt(n, 10)
}

func (c *WSConn) SetQuery(ctx context.Context, nodes []model.Node) (*model.Response, error) {
	node := model.NewNode("action", model.Attrs{
		"epoch": strconv.FormatInt(c.Epoch(), 10),
		"type":  "set",
	}, nodes)

	var resp model.Response
	raw, err := c.roundTrip(ctx, c.nextTag(), node, model.Tags{})
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("set reply: %w", err)
	}
	resp.Raw = raw
	if resp.Status != 200 {
		return &resp, fmt.Errorf("set rejected with status %d", resp.Status)
	}
	return &resp, nil
}

func (c *WSConn) Query(ctx context.Context, node model.Node, out any) error {
	raw, err := c.roundTrip(ctx, c.nextTag(), node, model.Tags{})
	if err != nil {
		return err
	}
	if raw == nil {
		raw = json.RawMessage("null")
	}
	return json.Unmarshal(raw, out)
}

func (c *WSConn) QueryExpecting200(ctx context.Context, node model.Node, tags model.Tags, id string) (*model.Response, error) {
	c.epoch.Add(1)
	raw, err := c.roundTrip(ctx, id, node, tags)
	if err != nil {
		return nil, err
	}

	var resp model.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("reply to %s: %w", id, err)
	}
	resp.Raw = raw
	return &resp, nil
}

func (c *WSConn) roundTrip(ctx context.Context, tag string, node model.Node, tags model.Tags) (json.RawMessage, error) {
	data, err := frame.Encode(tag, node)
	if err != nil {
		return nil, err
	}

	ch := make(chan json.RawMessage, 1)
	c.mu.Lock()
	if _, dup := c.pending[tag]; dup {
		c.mu.Unlock()
		return nil, fmt.Errorf("tag %s already in flight", tag)
	}
	c.pending[tag] = ch
	c.mu.Unlock()
	defer c.forget(tag)

	log.Debug("write frame",
		zap.String("tag", tag),
		zap.String("node", node.Tag),
		zap.Uint8("metric", uint8(tags.Metric)),
		zap.Uint8("flag", uint8(tags.Flag)))

	if err := c.write(ctx, data); err != nil {
		return nil, err
	}

	select {
	case raw := <-ch:
		return raw, nil
	case <-c.done:
		return nil, c.closeErr()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *WSConn) write(ctx context.Context, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		c.ws.SetWriteDeadline(deadline)
		defer c.ws.SetWriteDeadline(time.Time{})
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *WSConn) forget(tag string) {
	c.mu.Lock()
	delete(c.pending, tag)
	c.mu.Unlock()
}

func (c *WSConn) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			log.Debug("relay web socket closed", zap.Error(err))
			c.shutdown(fmt.Errorf("%w: %v", ErrClosed, err))
			return
		}

		tag, payload, err := frame.Decode(data)
		if err != nil {
			log.Warn("dropping frame", zap.Error(err))
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[tag]
		if ok {
			delete(c.pending, tag)
		}
		handler := c.handler
		c.mu.Unlock()

		switch {
		case ok:
			ch <- payload
		case handler != nil:
			handler(tag, payload)
		default:
			log.Debug("unsolicited frame", zap.String("tag", tag))
		}
	}
}

func (c *WSConn) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *WSConn) closeErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		return ErrClosed
	}
	return c.err
}
