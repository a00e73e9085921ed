package sender

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"wa_outbound/internal/model"
	"wa_outbound/internal/protocol/mediakey"
	"wa_outbound/internal/utils/log"

	"go.uber.org/zap"
)

const maxUploadReply = 1 << 20

type mediaPlan struct {
	typ      model.MessageType
	mimetype string
	gif      bool
}

// planMedia resolves type and mimetype without touching the network.
func planMedia(typ model.MessageType, opts model.MessageOptions) (mediaPlan, error) {
	if !typ.IsMedia() {
		return mediaPlan{}, model.NewValidationError("type", fmt.Sprintf("%s is not a media type", typ))
	}
	if typ == model.MessageTypeSticker && opts.Caption != "" {
		return mediaPlan{}, model.NewValidationError("caption", "stickers cannot have captions")
	}

	plan := mediaPlan{typ: typ, mimetype: opts.Mimetype}
	if plan.mimetype == "" {
		m, ok := model.DefaultMimetype(typ)
		if !ok {
			return mediaPlan{}, model.NewValidationError("mimetype", fmt.Sprintf("mimetype required to send a %s", typ))
		}
		plan.mimetype = m
	}

	if model.IsGIFMimetype(plan.mimetype) {
		plan.gif = true
		plan.typ = model.MessageTypeVideo
		plan.mimetype, _ = model.DefaultMimetype(model.MessageTypeVideo)
	}
	return plan, nil
}

// PrepareMedia encrypts data, uploads it and returns the fragment referencing it.
func (s *Sender) PrepareMedia(ctx context.Context, data []byte, typ model.MessageType, opts model.MessageOptions) (model.Fragment, error) {
	plan, err := planMedia(typ, opts)
	if err != nil {
		return nil, err
	}

	seed, err := s.randomBytes(mediakey.SeedSize)
	if err != nil {
		return nil, err
	}
	defer clear(seed)

	keys, err := mediakey.Derive(seed, plan.typ)
	if err != nil {
		return nil, err
	}
	defer keys.Destroy()

	body, err := keys.Encrypt(data)
	if err != nil {
		return nil, fmt.Errorf("encrypt media: %w", err)
	}

	fileSHA256 := sha256.Sum256(data)
	encSHA256 := sha256.Sum256(body)
	encName := base64.RawURLEncoding.EncodeToString(encSHA256[:])

	mc, err := s.mediaConn(ctx)
	if err != nil {
		return nil, err
	}

	path, _ := model.UploadPath(plan.typ)
	uploadURL := fmt.Sprintf("%s://%s%s/%s?auth=%s&token=%s",
		s.uploadScheme, mc.Hosts[0].Hostname, path, encName, url.QueryEscape(mc.Auth), encName)

	mediaURL, err := s.upload(ctx, uploadURL, body)
	if err != nil {
		log.Warn("media upload failed", zap.String("type", string(plan.typ)), zap.Error(err))
		return nil, err
	}

	info := model.MediaInfo{
		URL:           mediaURL,
		MediaKey:      base64.StdEncoding.EncodeToString(seed),
		Mimetype:      plan.mimetype,
		FileEncSHA256: encName,
		FileSHA256:    base64.StdEncoding.EncodeToString(fileSHA256[:]),
		FileLength:    uint64(len(data)),
	}

	switch plan.typ {
	case model.MessageTypeImage:
		return &model.ImageMessage{MediaInfo: info}, nil
	case model.MessageTypeVideo:
		return &model.VideoMessage{MediaInfo: info, GIFPlayback: plan.gif}, nil
	case model.MessageTypeAudio:
		return &model.AudioMessage{MediaInfo: info}, nil
	case model.MessageTypeDocument:
		return &model.DocumentMessage{MediaInfo: info, FileName: opts.Filename}, nil
	default:
		return &model.StickerMessage{MediaInfo: info}, nil
	}
}

// mediaConn returns an upload target, from the cache when one is configured.
func (s *Sender) mediaConn(ctx context.Context) (*model.MediaConn, error) {
	if s.cache != nil {
		mc, err := s.cache.GetMediaConn(ctx)
		if err != nil {
			log.Warn("media conn cache read failed", zap.Error(err))
		} else if mc != nil && len(mc.Hosts) > 0 {
			return mc, nil
		}
	}

	var resp model.MediaConnResponse
	node := model.NewNode("query", model.Attrs{"type": "mediaConn"}, nil)
	if err := s.conn.Query(ctx, node, &resp); err != nil {
		return nil, &model.ProtocolError{Err: fmt.Errorf("media conn query: %w", err)}
	}
	if resp.MediaConn == nil || len(resp.MediaConn.Hosts) == 0 {
		return nil, &model.ProtocolError{Status: resp.Status, Err: errors.New("media conn reply has no hosts")}
	}

	if s.cache != nil {
		if err := s.cache.SetMediaConn(ctx, resp.MediaConn); err != nil {
			log.Warn("media conn cache write failed", zap.Error(err))
		}
	}
	return resp.MediaConn, nil
}

func (s *Sender) upload(ctx context.Context, uploadURL string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(body))
	if err != nil {
		return "", &model.UploadError{Err: err}
	}
	req.Header.Set("Origin", s.origin)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", &model.UploadError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUploadReply))
	if err != nil {
		return "", &model.UploadError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode/100 != 2 {
		return "", &model.UploadError{StatusCode: resp.StatusCode, Body: raw}
	}

	var out model.UploadResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.URL == "" {
		return "", &model.UploadError{StatusCode: resp.StatusCode, Body: raw}
	}
	return out.URL, nil
}
