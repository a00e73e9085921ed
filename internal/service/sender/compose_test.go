package sender

import (
	"context"
	"errors"
	"testing"
	"time"

	"wa_outbound/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quotedFrom(remote, participant string) *model.WebMessageInfo {
	return &model.WebMessageInfo{
		Key:     model.MessageKey{RemoteJID: remote, ID: "QUOTED1", Participant: participant},
		Message: model.NewMessage(&model.ExtendedTextMessage{Text: "original"}),
	}
}

func TestComposeQuoteFromGroup(t *testing.T) {
	s, _, _ := newTestSender(t)

	info, err := s.Compose("123@g.us", &model.ExtendedTextMessage{Text: "reply"}, model.MessageOptions{
		Quoted: quotedFrom("123@g.us", "456@s.whatsapp.net"),
	})
	require.NoError(t, err)

	ci := info.Message.ExtendedTextMessage.ContextInfo
	require.NotNil(t, ci)
	assert.Equal(t, "QUOTED1", ci.StanzaID)
	assert.Equal(t, "456@s.whatsapp.net", ci.Participant)
	assert.Equal(t, "123@g.us", ci.RemoteJID)
	assert.Equal(t, "original", ci.QuotedMessage.ExtendedTextMessage.Text)
}

func TestComposeQuoteFromDirectChat(t *testing.T) {
	s, _, _ := newTestSender(t)

	info, err := s.Compose("456@s.whatsapp.net", &model.ExtendedTextMessage{Text: "reply"}, model.MessageOptions{
		Quoted:      quotedFrom("456@s.whatsapp.net", ""),
		ContextInfo: &model.ContextInfo{RemoteJID: "stale@g.us", MentionedJID: []string{"1@s.whatsapp.net"}},
	})
	require.NoError(t, err)

	ci := info.Message.ExtendedTextMessage.ContextInfo
	require.NotNil(t, ci)
	assert.Equal(t, "456@s.whatsapp.net", ci.Participant)
	assert.Empty(t, ci.RemoteJID)
	assert.Equal(t, "QUOTED1", ci.StanzaID)
	assert.Equal(t, []string{"1@s.whatsapp.net"}, ci.MentionedJID)
}

func TestComposeDoesNotTouchCallerContext(t *testing.T) {
	s, _, _ := newTestSender(t)
	base := &model.ContextInfo{MentionedJID: []string{"1@s.whatsapp.net"}}

	_, err := s.Compose("456@s.whatsapp.net", &model.ExtendedTextMessage{Text: "x"}, model.MessageOptions{
		Quoted:      quotedFrom("456@s.whatsapp.net", ""),
		ContextInfo: base,
	})
	require.NoError(t, err)
	assert.Empty(t, base.StanzaID)
	assert.Empty(t, base.Participant)
}

func TestComposeQuoteWithoutID(t *testing.T) {
	s, _, _ := newTestSender(t)
	q := quotedFrom("456@s.whatsapp.net", "")
	q.Key.ID = ""

	_, err := s.Compose("456@s.whatsapp.net", &model.ExtendedTextMessage{Text: "x"}, model.MessageOptions{Quoted: q})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestComposeWithoutQuoteHasNoContext(t *testing.T) {
	s, _, _ := newTestSender(t)

	info, err := s.Compose("456@s.whatsapp.net", &model.ExtendedTextMessage{Text: "x"}, model.MessageOptions{})
	require.NoError(t, err)
	assert.Nil(t, info.Message.ExtendedTextMessage.ContextInfo)
}

func TestComposeCaptionAndThumbnailReplaceFragmentFields(t *testing.T) {
	s, _, _ := newTestSender(t)

	img := &model.ImageMessage{Caption: "old", JPEGThumbnail: []byte{1}}
	info, err := s.Compose("456@s.whatsapp.net", img, model.MessageOptions{Caption: "new", Thumbnail: []byte{9, 9}})
	require.NoError(t, err)
	assert.Equal(t, "new", info.Message.ImageMessage.Caption)
	assert.Equal(t, []byte{9, 9}, info.Message.ImageMessage.JPEGThumbnail)

	// absent options clear the fields
	img = &model.ImageMessage{Caption: "old", JPEGThumbnail: []byte{1}}
	info, err = s.Compose("456@s.whatsapp.net", img, model.MessageOptions{})
	require.NoError(t, err)
	assert.Empty(t, info.Message.ImageMessage.Caption)
	assert.Nil(t, info.Message.ImageMessage.JPEGThumbnail)
}

func TestComposeEnvelope(t *testing.T) {
	s, _, _ := newTestSender(t)

	direct, err := s.Compose("456@s.whatsapp.net", &model.ExtendedTextMessage{Text: "x"}, model.MessageOptions{})
	require.NoError(t, err)
	assert.True(t, direct.Key.FromMe)
	assert.Equal(t, "456@s.whatsapp.net", direct.Key.RemoteJID)
	assert.Empty(t, direct.Participant)
	assert.Equal(t, fixedNow.Unix(), direct.MessageTimestamp)
	assert.Equal(t, model.StatusPending, direct.Status)
	assert.NotNil(t, direct.MessageStubParameters)

	group, err := s.Compose("123-456@g.us", &model.ExtendedTextMessage{Text: "x"}, model.MessageOptions{
		Timestamp: time.Unix(1600000000, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, ownJID, group.Participant)
	assert.Equal(t, int64(1600000000), group.MessageTimestamp)
	assert.NotEqual(t, direct.Key.ID, group.Key.ID)
}

func TestRelayNode(t *testing.T) {
	s, conn, _ := newTestSender(t)

	res, err := s.SendFragment(context.Background(), "456@s.whatsapp.net", &model.ExtendedTextMessage{Text: "x"}, model.MessageOptions{})
	require.NoError(t, err)

	require.Len(t, conn.relays, 1)
	call := conn.relays[0]
	assert.Equal(t, res.MessageID, call.id)
	assert.Equal(t, "action", call.node.Tag)
	assert.Equal(t, model.Attrs{"epoch": "7", "type": "relay"}, call.node.Attrs)
	assert.Equal(t, model.Tags{Metric: model.MetricMessage, Flag: model.FlagIgnore}, call.tags)
	assert.Equal(t, "message", call.node.Children()[0].Tag)

	_, err = s.SendFragment(context.Background(), ownJID, &model.ExtendedTextMessage{Text: "note to self"}, model.MessageOptions{})
	require.NoError(t, err)
	assert.Equal(t, model.FlagAcknowledge, conn.relays[1].tags.Flag)
}

func TestRelayRejectedStatus(t *testing.T) {
	s, conn, _ := newTestSender(t)
	conn.relayStatus = 599

	res, err := s.SendFragment(context.Background(), "456@s.whatsapp.net", &model.ExtendedTextMessage{Text: "x"}, model.MessageOptions{})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, model.ErrProtocol)

	var perr *model.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 599, perr.Status)
	assert.Equal(t, conn.relays[0].id, perr.MessageID)
}

func TestRelayTimeout(t *testing.T) {
	s, conn, _ := newTestSender(t)
	conn.relayErr = context.DeadlineExceeded

	_, err := s.SendFragment(context.Background(), "456@s.whatsapp.net", &model.ExtendedTextMessage{Text: "x"}, model.MessageOptions{})
	assert.ErrorIs(t, err, model.ErrProtocol)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var perr *model.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.NotEmpty(t, perr.MessageID)
}

type recordedSend struct {
	info   *model.WebMessageInfo
	result *model.SendResult
	err    error
}

type memoryRecorder struct {
	sends []recordedSend
	fail  bool
}

func (r *memoryRecorder) Record(ctx context.Context, info *model.WebMessageInfo, result *model.SendResult, sendErr error) error {
	r.sends = append(r.sends, recordedSend{info, result, sendErr})
	if r.fail {
		return errors.New("db down")
	}
	return nil
}

func TestRelayRecordsOutcome(t *testing.T) {
	s, conn, _ := newTestSender(t)
	rec := &memoryRecorder{fail: true}
	s.recorder = rec

	ok, err := s.SendFragment(context.Background(), "456@s.whatsapp.net", &model.ExtendedTextMessage{Text: "a"}, model.MessageOptions{})
	require.NoError(t, err, "recorder failures do not fail the send")

	conn.relayStatus = 500
	_, sendErr := s.SendFragment(context.Background(), "456@s.whatsapp.net", &model.ExtendedTextMessage{Text: "b"}, model.MessageOptions{})
	require.Error(t, sendErr)

	require.Len(t, rec.sends, 2)
	assert.Equal(t, ok, rec.sends[0].result)
	assert.NoError(t, rec.sends[0].err)
	assert.Nil(t, rec.sends[1].result)
	assert.ErrorIs(t, rec.sends[1].err, model.ErrProtocol)
	assert.Equal(t, "b", rec.sends[1].info.Message.Text())
}
