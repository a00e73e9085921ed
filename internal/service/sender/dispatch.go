package sender

import (
	"context"
	"fmt"

	"wa_outbound/internal/model"
)

func mismatch(typ model.MessageType, want string, content any) error {
	return model.NewValidationError("content", fmt.Sprintf("%s needs %s, got %T", typ, want, content))
}

// Send validates jid, builds the fragment for typ from content and relays it.
//
// Text types take a string, location types a model.LocationMessage or
// model.LiveLocationMessage, contacts a model.ContactMessage and media types
// the raw []byte to upload.
func (s *Sender) Send(ctx context.Context, jid string, content any, typ model.MessageType, opts model.MessageOptions) (*model.SendResult, error) {
	if !opts.SkipIDValidation {
		if err := model.ValidateJID(jid); err != nil {
			return nil, err
		}
	}
	if err := checkQuoted(opts); err != nil {
		return nil, err
	}

	frag, err := s.fragment(ctx, content, typ, opts)
	if err != nil {
		return nil, err
	}
	return s.SendFragment(ctx, jid, frag, opts)
}

func (s *Sender) fragment(ctx context.Context, content any, typ model.MessageType, opts model.MessageOptions) (model.Fragment, error) {
	switch typ {
	case model.MessageTypeText, model.MessageTypeExtendedText:
		text, ok := content.(string)
		if !ok {
			return nil, mismatch(typ, "a string", content)
		}
		return &model.ExtendedTextMessage{Text: text}, nil

	case model.MessageTypeLocation:
		switch c := content.(type) {
		case model.LocationMessage:
			return &c, nil
		case *model.LocationMessage:
			if c != nil {
				cp := *c
				return &cp, nil
			}
		}
		return nil, mismatch(typ, "a location", content)

	case model.MessageTypeLiveLocation:
		switch c := content.(type) {
		case model.LiveLocationMessage:
			return &c, nil
		case *model.LiveLocationMessage:
			if c != nil {
				cp := *c
				return &cp, nil
			}
		}
		return nil, mismatch(typ, "a live location", content)

	case model.MessageTypeContact:
		switch c := content.(type) {
		case model.ContactMessage:
			return &c, nil
		case *model.ContactMessage:
			if c != nil {
				cp := *c
				return &cp, nil
			}
		}
		return nil, mismatch(typ, "a contact", content)

	case model.MessageTypeImage, model.MessageTypeVideo, model.MessageTypeAudio,
		model.MessageTypeDocument, model.MessageTypeSticker:
		data, ok := content.([]byte)
		if !ok {
			return nil, mismatch(typ, "a media buffer", content)
		}
		return s.PrepareMedia(ctx, data, typ, opts)
	}

	return nil, model.NewValidationError("type", fmt.Sprintf("cannot send message type %q", typ))
}
