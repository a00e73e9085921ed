package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"wa_outbound/internal/model"
	"wa_outbound/internal/protocol/frame"
	"wa_outbound/internal/utils/log"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type statusReply struct {
	Status int `json:"status"`
}

func (s *HttpServer) HandleWS() http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		jid := r.URL.Query().Get("jid")
		if err := model.ValidateJID(jid); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if _, ok := s.lookup(jid); ok {
			http.Error(w, "duplicated jid", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("upgrade failed", zap.Error(err))
			return
		}

		p := &peer{jid: jid, conn: conn}
		if !s.register(p) {
			conn.Close()
			return
		}

		go s.processWSFrames(p)
		if err := s.ForwardUnsentFrames(context.Background(), jid); err != nil {
			log.Error("forward frames failed", zap.Error(err))
		}
	}
}

func (s *HttpServer) processWSFrames(p *peer) {
	defer func() {
		s.unregister(p)
		p.conn.Close()
	}()

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			log.Debug("peer web socket closed", zap.String("jid", p.jid), zap.Error(err))
			return
		}

		tag, payload, err := frame.Decode(data)
		if err != nil {
			log.Warn("dropping frame", zap.String("jid", p.jid), zap.Error(err))
			continue
		}

		var node model.Node
		if err := json.Unmarshal(payload, &node); err != nil {
			log.Warn("frame is not a node", zap.String("tag", tag), zap.Error(err))
			s.reply(p, tag, statusReply{Status: http.StatusBadRequest})
			continue
		}

		s.reply(p, tag, s.handleNode(context.Background(), p, tag, node))
	}
}

func (s *HttpServer) reply(p *peer, tag string, v any) {
	data, err := frame.Encode(tag, v)
	if err != nil {
		log.Error("encode reply failed", zap.String("tag", tag), zap.Error(err))
		return
	}
	if err := p.write(data); err != nil {
		log.Debug("reply failed", zap.String("jid", p.jid), zap.Error(err))
	}
}

func (s *HttpServer) handleNode(ctx context.Context, p *peer, tag string, node model.Node) any {
	switch {
	case node.Tag == "query" && node.Attr("type") == "mediaConn":
		return model.MediaConnResponse{
			Status: http.StatusOK,
			MediaConn: &model.MediaConn{
				Auth:  s.opts.MediaAuth,
				TTL:   s.opts.MediaTTL,
				Hosts: []model.MediaHost{{Hostname: s.opts.MediaHost}},
			},
		}
	case node.Tag == "query" && node.Attr("type") == "search":
		return s.search(ctx, p, node)
	case node.Tag == "action" && node.Attr("type") == "relay":
		return statusReply{Status: s.relay(ctx, p, tag, node)}
	case node.Tag == "action" && node.Attr("type") == "set":
		log.Debug("set", zap.String("jid", p.jid), zap.Int("nodes", len(node.Children())))
		return statusReply{Status: http.StatusOK}
	}
	return statusReply{Status: http.StatusNotFound}
}

func (s *HttpServer) search(ctx context.Context, p *peer, node model.Node) any {
	if s.archive == nil {
		return statusReply{Status: http.StatusNotImplemented}
	}

	count, _ := strconv.Atoi(node.Attr("count"))
	page, _ := strconv.Atoi(node.Attr("page"))

	res, err := s.archive.Search(ctx, p.jid, node.Attr("search"), node.Attr("jid"), count, page)
	if err != nil {
		log.Error("search failed", zap.Error(err))
		return statusReply{Status: http.StatusInternalServerError}
	}

	rows := make([]model.Node, 0, len(res.Messages))
	for _, m := range res.Messages {
		rows = append(rows, model.NewNode("message", nil, m))
	}
	return model.NewNode("response", model.Attrs{"last": strconv.FormatBool(res.Last)}, rows)
}

// relay forwards the envelope and returns the status for the sender.
func (s *HttpServer) relay(ctx context.Context, p *peer, tag string, node model.Node) int {
	children := node.Children()
	if len(children) != 1 || children[0].Tag != "message" {
		return http.StatusBadRequest
	}

	var info model.WebMessageInfo
	if err := children[0].DecodeContent(&info); err != nil || info.Message == nil {
		return http.StatusBadRequest
	}
	if info.Key.ID != tag {
		return http.StatusBadRequest
	}

	if s.archive != nil {
		if err := s.archive.Archive(ctx, p.jid, &info); err != nil {
			log.Error("archive failed", zap.String("id", info.Key.ID), zap.Error(err))
		}
	}

	data, err := incomingFrame(p.jid, info)
	if err != nil {
		return http.StatusInternalServerError
	}

	to := info.Key.RemoteJID
	switch {
	case model.IsGroupJID(to):
		// no membership here, every other peer gets it
		for _, other := range s.others(p.jid) {
			other.write(data)
		}
		return http.StatusOK
	case to == p.jid:
		return http.StatusOK
	}

	if other, ok := s.lookup(to); ok {
		if err := other.write(data); err == nil {
			return http.StatusOK
		}
	}
	if err := s.PutFramesToCache(ctx, to, data); err != nil {
		log.Error("PutFramesToCache failed", zap.Error(err))
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

// incomingFrame rewrites the envelope as the recipient sees it.
func incomingFrame(from string, info model.WebMessageInfo) ([]byte, error) {
	info.Key.FromMe = false
	if model.IsGroupJID(info.Key.RemoteJID) {
		info.Key.Participant = from
	} else {
		info.Key.RemoteJID = from
	}
	info.Participant = ""

	node := model.NewNode("action", model.Attrs{"add": "relay"}, []model.Node{
		model.NewNode("message", nil, info),
	})
	return frame.Encode(info.Key.ID, node)
}
