package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"wa_outbound/internal/model"
	"wa_outbound/internal/utils/log"

	"go.uber.org/zap"
)

func (s *Sender) setQuery(ctx context.Context, node model.Node) (*model.Response, error) {
	log.Debug("set query", zap.String("tag", node.Tag), zap.Any("attrs", node.Attrs))

	resp, err := s.conn.SetQuery(ctx, []model.Node{node})
	if err != nil {
		return nil, &model.ProtocolError{Err: fmt.Errorf("%s: %w", node.Tag, err)}
	}
	return resp, nil
}

// SendReadReceipt marks messageID (or the whole chat when empty) as read,
// or as unread when unread is set.
func (s *Sender) SendReadReceipt(ctx context.Context, jid, messageID string, unread bool) (*model.Response, error) {
	if err := model.ValidateJID(jid); err != nil {
		return nil, err
	}

	attrs := model.Attrs{"jid": jid, "owner": "false"}
	if messageID != "" {
		attrs["count"] = "1"
		attrs["index"] = messageID
	}
	if unread {
		attrs["type"] = "false"
	}
	return s.setQuery(ctx, model.NewNode("read", attrs, nil))
}

// normalizeStamp renders the stamp as integer epoch seconds.
func normalizeStamp(opts model.ModifyOptions) (string, error) {
	if opts.Stamp != "" {
		sec, err := strconv.ParseInt(opts.Stamp, 10, 64)
		if err != nil {
			return "", model.NewValidationError("stamp", fmt.Sprintf("%q is not epoch seconds", opts.Stamp))
		}
		return strconv.FormatInt(sec, 10), nil
	}
	if opts.At.IsZero() {
		return "", nil
	}
	ms := opts.At.UnixMilli()
	return strconv.FormatInt((ms+500)/1000, 10), nil
}

// ModifyChat archives, pins or mutes a chat, or reverts one of those.
// pin and mute default to the current time, unpin and unmute need the
// stamp of the original pin or mute.
func (s *Sender) ModifyChat(ctx context.Context, jid string, mod model.ChatModification, opts model.ModifyOptions) (*model.ModifyResult, error) {
	if err := model.ValidateJID(jid); err != nil {
		return nil, err
	}

	if (mod == model.ChatPin || mod == model.ChatMute) && opts.Stamp == "" && opts.At.IsZero() {
		opts.At = s.now()
	}
	stamp, err := normalizeStamp(opts)
	if err != nil {
		return nil, err
	}
	attrs := model.Attrs{"jid": jid}

	switch mod {
	case model.ChatPin, model.ChatMute:
		attrs["type"] = string(mod)
		attrs[string(mod)] = stamp
	case model.ChatUnpin, model.ChatUnmute:
		if stamp == "" {
			return nil, model.NewValidationError("stamp", fmt.Sprintf("%s requires the original stamp", mod))
		}
		attrs["type"] = strings.TrimPrefix(string(mod), "un")
		attrs["previous"] = stamp
	case model.ChatArchive, model.ChatUnarchive:
		attrs["type"] = string(mod)
	default:
		return nil, model.NewValidationError("modification", fmt.Sprintf("unknown chat modification %q", mod))
	}

	resp, err := s.setQuery(ctx, model.NewNode("chat", attrs, nil))
	if err != nil {
		return nil, err
	}
	return &model.ModifyResult{Status: resp.Status, Stamp: stamp}, nil
}

// SearchMessages runs a server side text search, optionally inside jid.
func (s *Sender) SearchMessages(ctx context.Context, text, jid string, count, page int) (*model.SearchResult, error) {
	if jid != "" {
		if err := model.ValidateJID(jid); err != nil {
			return nil, err
		}
	}

	attrs := model.Attrs{
		"epoch":  strconv.FormatInt(s.conn.Epoch(), 10),
		"type":   "search",
		"search": text,
		"count":  strconv.Itoa(count),
		"page":   strconv.Itoa(page),
	}
	if jid != "" {
		attrs["jid"] = jid
	}

	var raw json.RawMessage
	if err := s.conn.Query(ctx, model.NewNode("query", attrs, nil), &raw); err != nil {
		return nil, &model.ProtocolError{Err: fmt.Errorf("search: %w", err)}
	}
	return parseSearch(raw)
}

func parseSearch(raw json.RawMessage) (*model.SearchResult, error) {
	res := &model.SearchResult{Messages: []*model.WebMessageInfo{}}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return res, nil
	}

	// a bare {"status":...} object is an error reply
	if raw[0] == '{' {
		var status model.Response
		if err := json.Unmarshal(raw, &status); err != nil {
			return nil, fmt.Errorf("search reply: %w", err)
		}
		if status.Status != 0 && status.Status != 200 {
			return nil, &model.ProtocolError{Status: status.Status}
		}
		return res, nil
	}

	var node model.Node
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("search reply: %w", err)
	}

	res.Last = node.Attr("last") == "true"
	for _, row := range node.Children() {
		if row.Content == nil {
			continue
		}
		var info model.WebMessageInfo
		if err := row.DecodeContent(&info); err != nil {
			return nil, fmt.Errorf("search row: %w", err)
		}
		res.Messages = append(res.Messages, &info)
	}
	return res, nil
}

// ClearMessage deletes a message from this device only.
func (s *Sender) ClearMessage(ctx context.Context, jid string, key model.MessageKey) (*model.Response, error) {
	if err := model.ValidateJID(jid); err != nil {
		return nil, err
	}
	if key.ID == "" {
		return nil, model.NewValidationError("key", "message id is empty")
	}

	tag, err := s.randomTag()
	if err != nil {
		return nil, err
	}

	node := model.NewNode("chat", model.Attrs{
		"jid":        jid,
		"modify_tag": tag,
		"type":       "clear",
	}, []model.Node{
		model.NewNode("item", model.Attrs{
			"owner": strconv.FormatBool(key.FromMe),
			"index": key.ID,
		}, nil),
	})
	return s.setQuery(ctx, node)
}

// RevokeMessage deletes a message for everyone. It is relayed like any other
// message because the recipients have to act on it.
func (s *Sender) RevokeMessage(ctx context.Context, jid string, key model.MessageKey) (*model.SendResult, error) {
	if err := model.ValidateJID(jid); err != nil {
		return nil, err
	}
	if key.ID == "" {
		return nil, model.NewValidationError("key", "message id is empty")
	}

	target := key
	return s.SendFragment(ctx, jid, &model.ProtocolMessage{Key: &target, Kind: model.ProtocolMessageRevoke}, model.MessageOptions{})
}

// DeleteMessage clears the message locally when forMe is set, otherwise revokes it.
// The returned status is the server's reply status in both cases.
func (s *Sender) DeleteMessage(ctx context.Context, jid string, key model.MessageKey, forMe bool) (int, error) {
	if forMe {
		resp, err := s.ClearMessage(ctx, jid, key)
		if err != nil {
			return 0, err
		}
		return resp.Status, nil
	}

	res, err := s.RevokeMessage(ctx, jid, key)
	if err != nil {
		return 0, err
	}
	return res.Status, nil
}
