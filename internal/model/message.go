package model

type MessageType string

const (
	MessageTypeText         MessageType = "conversation"
	MessageTypeExtendedText MessageType = "extendedTextMessage"
	MessageTypeLocation     MessageType = "locationMessage"
	MessageTypeLiveLocation MessageType = "liveLocationMessage"
	MessageTypeContact      MessageType = "contactMessage"
	MessageTypeImage        MessageType = "imageMessage"
	MessageTypeVideo        MessageType = "videoMessage"
	MessageTypeAudio        MessageType = "audioMessage"
	MessageTypeDocument     MessageType = "documentMessage"
	MessageTypeSticker      MessageType = "stickerMessage"
	MessageTypeProtocol     MessageType = "protocolMessage"
)

func (t MessageType) IsMedia() bool {
	switch t {
	case MessageTypeImage, MessageTypeVideo, MessageTypeAudio, MessageTypeDocument, MessageTypeSticker:
		return true
	}
	return false
}

type MessageStatus int

const (
	StatusError MessageStatus = iota
	StatusPending
	StatusServerAck
	StatusDeliveryAck
	StatusRead
	StatusPlayed
)

type ProtocolMessageType int

const (
	ProtocolMessageRevoke ProtocolMessageType = 0
)

type (
	// Fragment is one content payload. Only the types in this file implement it.
	Fragment interface {
		Type() MessageType
		Context() *ContextInfo
		SetContext(ci *ContextInfo)
		isFragment()
	}

	// Captioned fragments accept a caption from message options.
	Captioned interface {
		SetCaption(caption string)
	}

	// Thumbnailed fragments accept a jpeg preview from message options.
	Thumbnailed interface {
		SetThumbnail(jpeg []byte)
	}

	ContextInfo struct {
		StanzaID      string   `json:"stanzaId,omitempty"`
		Participant   string   `json:"participant,omitempty"`
		RemoteJID     string   `json:"remoteJid,omitempty"`
		QuotedMessage *Message `json:"quotedMessage,omitempty"`
		MentionedJID  []string `json:"mentionedJid,omitempty"`
	}

	fragmentBase struct {
		ContextInfo *ContextInfo `json:"contextInfo,omitempty"`
	}

	ExtendedTextMessage struct {
		Text          string `json:"text"`
		JPEGThumbnail []byte `json:"jpegThumbnail,omitempty"`
		fragmentBase
	}

	LocationMessage struct {
		DegreesLatitude  float64 `json:"degreesLatitude"`
		DegreesLongitude float64 `json:"degreesLongitude"`
		Name             string  `json:"name,omitempty"`
		Address          string  `json:"address,omitempty"`
		URL              string  `json:"url,omitempty"`
		JPEGThumbnail    []byte  `json:"jpegThumbnail,omitempty"`
		fragmentBase
	}

	LiveLocationMessage struct {
		DegreesLatitude                   float64 `json:"degreesLatitude"`
		DegreesLongitude                  float64 `json:"degreesLongitude"`
		AccuracyInMeters                  uint32  `json:"accuracyInMeters,omitempty"`
		SpeedInMps                        float32 `json:"speedInMps,omitempty"`
		DegreesClockwiseFromMagneticNorth uint32  `json:"degreesClockwiseFromMagneticNorth,omitempty"`
		Caption                           string  `json:"caption,omitempty"`
		SequenceNumber                    int64   `json:"sequenceNumber,omitempty"`
		JPEGThumbnail                     []byte  `json:"jpegThumbnail,omitempty"`
		fragmentBase
	}

	ContactMessage struct {
		DisplayName string `json:"displayName"`
		Vcard       string `json:"vcard"`
		fragmentBase
	}

	// MediaInfo is what every uploaded media fragment references.
	MediaInfo struct {
		URL           string `json:"url"`
		MediaKey      string `json:"mediaKey"`
		Mimetype      string `json:"mimetype"`
		FileEncSHA256 string `json:"fileEncSha256"`
		FileSHA256    string `json:"fileSha256"`
		FileLength    uint64 `json:"fileLength"`
	}

	ImageMessage struct {
		MediaInfo
		Caption       string `json:"caption,omitempty"`
		JPEGThumbnail []byte `json:"jpegThumbnail,omitempty"`
		fragmentBase
	}

	VideoMessage struct {
		MediaInfo
		Caption       string `json:"caption,omitempty"`
		JPEGThumbnail []byte `json:"jpegThumbnail,omitempty"`
		GIFPlayback   bool   `json:"gifPlayback,omitempty"`
		fragmentBase
	}

	AudioMessage struct {
		MediaInfo
		fragmentBase
	}

	DocumentMessage struct {
		MediaInfo
		FileName      string `json:"fileName,omitempty"`
		Caption       string `json:"caption,omitempty"`
		JPEGThumbnail []byte `json:"jpegThumbnail,omitempty"`
		fragmentBase
	}

	StickerMessage struct {
		MediaInfo
		fragmentBase
	}

	// ProtocolMessage carries directives such as revoke.
	ProtocolMessage struct {
		Key  *MessageKey         `json:"key"`
		Kind ProtocolMessageType `json:"type"`
		fragmentBase
	}

	// Message is the content envelope. Outbound messages have exactly one field set.
	Message struct {
		ExtendedTextMessage *ExtendedTextMessage `json:"extendedTextMessage,omitempty"`
		LocationMessage     *LocationMessage     `json:"locationMessage,omitempty"`
		LiveLocationMessage *LiveLocationMessage `json:"liveLocationMessage,omitempty"`
		ContactMessage      *ContactMessage      `json:"contactMessage,omitempty"`
		ImageMessage        *ImageMessage        `json:"imageMessage,omitempty"`
		VideoMessage        *VideoMessage        `json:"videoMessage,omitempty"`
		AudioMessage        *AudioMessage        `json:"audioMessage,omitempty"`
		DocumentMessage     *DocumentMessage     `json:"documentMessage,omitempty"`
		StickerMessage      *StickerMessage      `json:"stickerMessage,omitempty"`
		ProtocolMessage     *ProtocolMessage     `json:"protocolMessage,omitempty"`
	}

	// WebMessageInfo is the dispatch envelope relayed to the server.
	WebMessageInfo struct {
		Key                   MessageKey    `json:"key"`
		Message               *Message      `json:"message"`
		MessageTimestamp      int64         `json:"messageTimestamp"`
		MessageStubParameters []string      `json:"messageStubParameters"`
		Participant           string        `json:"participant,omitempty"`
		Status                MessageStatus `json:"status"`
	}

	SendResult struct {
		Status    int    `json:"status"`
		MessageID string `json:"messageId"`
	}
)

func (b *fragmentBase) Context() *ContextInfo      { return b.ContextInfo }
func (b *fragmentBase) SetContext(ci *ContextInfo) { b.ContextInfo = ci }
func (b *fragmentBase) isFragment()                {}

func (*ExtendedTextMessage) Type() MessageType { return MessageTypeExtendedText }
func (*LocationMessage) Type() MessageType     { return MessageTypeLocation }
func (*LiveLocationMessage) Type() MessageType { return MessageTypeLiveLocation }
func (*ContactMessage) Type() MessageType      { return MessageTypeContact }
func (*ImageMessage) Type() MessageType        { return MessageTypeImage }
func (*VideoMessage) Type() MessageType        { return MessageTypeVideo }
func (*AudioMessage) Type() MessageType        { return MessageTypeAudio }
func (*DocumentMessage) Type() MessageType     { return MessageTypeDocument }
func (*StickerMessage) Type() MessageType      { return MessageTypeSticker }
func (*ProtocolMessage) Type() MessageType     { return MessageTypeProtocol }

func (m *ImageMessage) SetCaption(c string)        { m.Caption = c }
func (m *VideoMessage) SetCaption(c string)        { m.Caption = c }
func (m *DocumentMessage) SetCaption(c string)     { m.Caption = c }
func (m *LiveLocationMessage) SetCaption(c string) { m.Caption = c }

func (m *ExtendedTextMessage) SetThumbnail(b []byte) { m.JPEGThumbnail = b }
func (m *LocationMessage) SetThumbnail(b []byte)     { m.JPEGThumbnail = b }
func (m *LiveLocationMessage) SetThumbnail(b []byte) { m.JPEGThumbnail = b }
func (m *ImageMessage) SetThumbnail(b []byte)        { m.JPEGThumbnail = b }
func (m *VideoMessage) SetThumbnail(b []byte)        { m.JPEGThumbnail = b }
func (m *DocumentMessage) SetThumbnail(b []byte)     { m.JPEGThumbnail = b }

// NewMessage wraps a single fragment into a content envelope.
func NewMessage(f Fragment) *Message {
	m := &Message{}
	switch f := f.(type) {
	case *ExtendedTextMessage:
		m.ExtendedTextMessage = f
	case *LocationMessage:
		m.LocationMessage = f
	case *LiveLocationMessage:
		m.LiveLocationMessage = f
	case *ContactMessage:
		m.ContactMessage = f
	case *ImageMessage:
		m.ImageMessage = f
	case *VideoMessage:
		m.VideoMessage = f
	case *AudioMessage:
		m.AudioMessage = f
	case *DocumentMessage:
		m.DocumentMessage = f
	case *StickerMessage:
		m.StickerMessage = f
	case *ProtocolMessage:
		m.ProtocolMessage = f
	}
	return m
}

// Fragments lists every set content field in declaration order.
func (m *Message) Fragments() []Fragment {
	if m == nil {
		return nil
	}

	var res []Fragment
	add := func(ok bool, f Fragment) {
		if ok {
			res = append(res, f)
		}
	}
	add(m.ExtendedTextMessage != nil, m.ExtendedTextMessage)
	add(m.LocationMessage != nil, m.LocationMessage)
	add(m.LiveLocationMessage != nil, m.LiveLocationMessage)
	add(m.ContactMessage != nil, m.ContactMessage)
	add(m.ImageMessage != nil, m.ImageMessage)
	add(m.VideoMessage != nil, m.VideoMessage)
	add(m.AudioMessage != nil, m.AudioMessage)
	add(m.DocumentMessage != nil, m.DocumentMessage)
	add(m.StickerMessage != nil, m.StickerMessage)
	add(m.ProtocolMessage != nil, m.ProtocolMessage)
	return res
}

// Fragment returns the only set content field, or nil when zero or several are set.
func (m *Message) Fragment() Fragment {
	fs := m.Fragments()
	if len(fs) != 1 {
		return nil
	}
	return fs[0]
}

// Text returns the searchable text of a message: body or caption.
func (m *Message) Text() string {
	switch f := m.Fragment().(type) {
	case *ExtendedTextMessage:
		return f.Text
	case *ImageMessage:
		return f.Caption
	case *VideoMessage:
		return f.Caption
	case *DocumentMessage:
		if f.Caption != "" {
			return f.Caption
		}
		return f.FileName
	case *LocationMessage:
		return f.Name
	case *ContactMessage:
		return f.DisplayName
	}
	return ""
}
