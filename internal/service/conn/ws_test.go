package conn

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"wa_outbound/internal/model"
	"wa_outbound/internal/protocol/frame"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	tag  string
	node model.Node
}

// relayStub answers each frame with reply(node), or stays silent when reply returns nil.
type relayStub struct {
	*httptest.Server

	mu    sync.Mutex
	seen  []received
	jid   string
	reply func(model.Node) any
	peer  *websocket.Conn
}

func newRelayStub(t *testing.T, reply func(model.Node) any) *relayStub {
	rs := &relayStub{reply: reply}
	upgrader := websocket.Upgrader{}

	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		rs.mu.Lock()
		rs.jid = r.URL.Query().Get("jid")
		rs.peer = ws
		rs.mu.Unlock()

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			tag, payload, err := frame.Decode(data)
			if err != nil {
				continue
			}
			var node model.Node
			if err := json.Unmarshal(payload, &node); err != nil {
				continue
			}

			rs.mu.Lock()
			rs.seen = append(rs.seen, received{tag, node})
			rs.mu.Unlock()

			if out := rs.reply(node); out != nil {
				msg, _ := frame.Encode(tag, out)
				ws.WriteMessage(websocket.TextMessage, msg)
			}
		}
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *relayStub) wsURL() string {
	return "ws" + strings.TrimPrefix(rs.URL, "http") + "/ws"
}

func (rs *relayStub) received() []received {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]received(nil), rs.seen...)
}

func dial(t *testing.T, rs *relayStub) *WSConn {
	t.Helper()
	c, err := Dial(context.Background(), rs.wsURL(), "999@s.whatsapp.net", nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func ok200(model.Node) any { return map[string]int{"status": 200} }

func TestDialSendsJID(t *testing.T) {
	rs := newRelayStub(t, ok200)
	c := dial(t, rs)

	_, err := c.SetQuery(context.Background(), nil)
	require.NoError(t, err)

	rs.mu.Lock()
	defer rs.mu.Unlock()
	assert.Equal(t, "999@s.whatsapp.net", rs.jid)
	assert.Equal(t, "999@s.whatsapp.net", c.OwnID())
}

func TestSetQueryWrapsNodes(t *testing.T) {
	rs := newRelayStub(t, ok200)
	c := dial(t, rs)

	resp, err := c.SetQuery(context.Background(), []model.Node{
		model.NewNode("read", model.Attrs{"jid": "456@s.whatsapp.net"}, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)

	got := rs.received()
	require.Len(t, got, 1)
	assert.Equal(t, "action", got[0].node.Tag)
	assert.Equal(t, "set", got[0].node.Attr("type"))
	assert.Equal(t, "0", got[0].node.Attr("epoch"))
	require.Len(t, got[0].node.Children(), 1)
	assert.Equal(t, "read", got[0].node.Children()[0].Tag)
}

func TestSetQueryRejected(t *testing.T) {
	rs := newRelayStub(t, func(model.Node) any { return map[string]int{"status": 401} })
	c := dial(t, rs)

	resp, err := c.SetQuery(context.Background(), nil)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.Status)
}

func TestQueryDecodesReply(t *testing.T) {
	rs := newRelayStub(t, func(n model.Node) any {
		return model.MediaConnResponse{Status: 200, MediaConn: &model.MediaConn{Auth: "tok", TTL: 60,
			Hosts: []model.MediaHost{{Hostname: "mmg.example"}}}}
	})
	c := dial(t, rs)

	var out model.MediaConnResponse
	err := c.Query(context.Background(), model.NewNode("query", model.Attrs{"type": "mediaConn"}, nil), &out)
	require.NoError(t, err)
	assert.Equal(t, "tok", out.MediaConn.Auth)
	assert.Equal(t, "mmg.example", out.MediaConn.Hosts[0].Hostname)
}

func TestEpochAdvancesPerFrame(t *testing.T) {
	rs := newRelayStub(t, ok200)
	c := dial(t, rs)

	assert.Equal(t, int64(0), c.Epoch())
	for i := 0; i < 3; i++ {
		_, err := c.SetQuery(context.Background(), nil)
		require.NoError(t, err)
	}
	_, err := c.QueryExpecting200(context.Background(), model.NewNode("action", nil, nil), model.Tags{}, "3EB0AA")
	require.NoError(t, err)
	assert.Equal(t, int64(4), c.Epoch())

	got := rs.received()
	tags := map[string]bool{}
	for _, r := range got {
		tags[r.tag] = true
	}
	assert.Len(t, tags, 4, "tags are unique")
}

func TestQueryExpecting200UsesIDAsTag(t *testing.T) {
	rs := newRelayStub(t, func(model.Node) any { return map[string]int{"status": 500} })
	c := dial(t, rs)

	resp, err := c.QueryExpecting200(context.Background(), model.NewNode("action", model.Attrs{"type": "relay"}, nil),
		model.Tags{Metric: model.MetricMessage, Flag: model.FlagIgnore}, "3EB0BEEF")
	require.NoError(t, err, "status is judged by the caller")
	assert.Equal(t, 500, resp.Status)
	assert.Equal(t, "3EB0BEEF", rs.received()[0].tag)
}

func TestContextCancelAbandonsWait(t *testing.T) {
	rs := newRelayStub(t, func(model.Node) any { return nil })
	c := dial(t, rs)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.QueryExpecting200(ctx, model.NewNode("action", nil, nil), model.Tags{}, "3EB0SLOW")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	c.mu.Lock()
	assert.Empty(t, c.pending)
	c.mu.Unlock()
}

func TestCloseReleasesWaiters(t *testing.T) {
	rs := newRelayStub(t, func(model.Node) any { return nil })
	c := dial(t, rs)

	errc := make(chan error, 1)
	go func() {
		_, err := c.SetQuery(context.Background(), nil)
		errc <- err
	}()

	require.Eventually(t, func() bool { return len(rs.received()) == 1 }, time.Second, 5*time.Millisecond)
	c.Close()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("waiter was not released")
	}
}

func TestUnsolicitedFramesReachHandler(t *testing.T) {
	rs := newRelayStub(t, ok200)
	c := dial(t, rs)

	got := make(chan string, 1)
	c.OnFrame(func(tag string, payload json.RawMessage) { got <- tag })

	// wait for the server side socket
	_, err := c.SetQuery(context.Background(), nil)
	require.NoError(t, err)

	msg, err := frame.Encode("3EB0PUSH", model.NewNode("action", nil, nil))
	require.NoError(t, err)
	rs.mu.Lock()
	require.NoError(t, rs.peer.WriteMessage(websocket.TextMessage, msg))
	rs.mu.Unlock()

	select {
	case tag := <-got:
		assert.Equal(t, "3EB0PUSH", tag)
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}
}
