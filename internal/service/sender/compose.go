package sender

import (
	"context"
	"net/http"
	"strconv"

	"wa_outbound/internal/model"
	"wa_outbound/internal/utils/log"

	"go.uber.org/zap"
)

func checkQuoted(opts model.MessageOptions) error {
	q := opts.Quoted
	if q == nil {
		return nil
	}
	if q.Key.ID == "" {
		return model.NewValidationError("quoted", "quoted message has no id")
	}
	if q.Key.RemoteJID == "" && q.Key.Participant == "" {
		return model.NewValidationError("quoted", "quoted message has no chat or sender")
	}
	return nil
}

// quoteContext builds the context info for a reply. The caller's context
// info is copied, never modified.
func quoteContext(base *model.ContextInfo, quoted *model.WebMessageInfo) *model.ContextInfo {
	var ci *model.ContextInfo
	if base != nil {
		cp := *base
		ci = &cp
	}
	if quoted == nil {
		return ci
	}
	if ci == nil {
		ci = &model.ContextInfo{}
	}

	ci.StanzaID = quoted.Key.ID
	ci.QuotedMessage = quoted.Message
	ci.RemoteJID = ""
	ci.Participant = quoted.Key.RemoteJID
	if quoted.Key.Participant != "" {
		// quoted from a group: carry the group along with the sender
		ci.Participant = quoted.Key.Participant
		ci.RemoteJID = quoted.Key.RemoteJID
	}
	return ci
}

// Compose wraps frag into a dispatch envelope addressed to jid.
func (s *Sender) Compose(jid string, frag model.Fragment, opts model.MessageOptions) (*model.WebMessageInfo, error) {
	// Send checks this before uploading, SendFragment callers reach here unchecked
	if err := checkQuoted(opts); err != nil {
		return nil, err
	}

	if ci := quoteContext(opts.ContextInfo, opts.Quoted); ci != nil {
		frag.SetContext(ci)
	}
	if c, ok := frag.(model.Captioned); ok {
		c.SetCaption(opts.Caption)
	}
	if t, ok := frag.(model.Thumbnailed); ok {
		t.SetThumbnail(opts.Thumbnail)
	}

	ts := opts.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	id, err := s.GenerateMessageID()
	if err != nil {
		return nil, err
	}

	info := &model.WebMessageInfo{
		Key: model.MessageKey{
			RemoteJID: jid,
			FromMe:    true,
			ID:        id,
		},
		Message:               model.NewMessage(frag),
		MessageTimestamp:      ts.Unix(),
		MessageStubParameters: []string{},
		Status:                model.StatusPending,
	}
	if model.IsGroupJID(jid) {
		info.Participant = s.conn.OwnID()
	}
	return info, nil
}

// Relay hands a composed envelope to the connection layer.
func (s *Sender) Relay(ctx context.Context, info *model.WebMessageInfo) (*model.SendResult, error) {
	id := info.Key.ID
	node := model.NewNode("action", model.Attrs{
		"epoch": strconv.FormatInt(s.conn.Epoch(), 10),
		"type":  "relay",
	}, []model.Node{model.NewNode("message", nil, info)})

	tags := model.Tags{Metric: model.MetricMessage, Flag: model.FlagIgnore}
	if info.Key.RemoteJID == s.conn.OwnID() {
		tags.Flag = model.FlagAcknowledge
	}

	log.Debug("relay message", zap.String("jid", info.Key.RemoteJID), zap.String("message_id", id))

	var (
		result  *model.SendResult
		sendErr error
	)
	resp, err := s.conn.QueryExpecting200(ctx, node, tags, id)
	switch {
	case err != nil:
		sendErr = &model.ProtocolError{MessageID: id, Err: err}
	case resp.Status != http.StatusOK:
		sendErr = &model.ProtocolError{MessageID: id, Status: resp.Status}
	default:
		result = &model.SendResult{Status: resp.Status, MessageID: id}
	}

	if sendErr != nil {
		log.Warn("relay failed", zap.String("jid", info.Key.RemoteJID), zap.String("message_id", id), zap.Error(sendErr))
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, info, result, sendErr); err != nil {
			log.Error("record message failed", zap.String("message_id", id), zap.Error(err))
		}
	}
	return result, sendErr
}

// SendFragment composes and relays one fragment.
func (s *Sender) SendFragment(ctx context.Context, jid string, frag model.Fragment, opts model.MessageOptions) (*model.SendResult, error) {
	info, err := s.Compose(jid, frag, opts)
	if err != nil {
		return nil, err
	}
	return s.Relay(ctx, info)
}
