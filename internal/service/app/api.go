package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"wa_outbound/internal/model"
	"wa_outbound/internal/protocol/mediakey"
)

// fetchMedia downloads and decrypts the media an envelope points at.
func (c *App) fetchMedia(ctx context.Context, typ model.MessageType, m model.MediaInfo) ([]byte, error) {
	seed, err := base64.StdEncoding.DecodeString(m.MediaKey)
	if err != nil {
		return nil, fmt.Errorf("media key: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", m.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return mediakey.Decrypt(seed, typ, body)
}

// mediaOf returns the media reference of a media fragment.
func mediaOf(msg *model.Message) (model.MessageType, model.MediaInfo, bool) {
	if msg == nil {
		return "", model.MediaInfo{}, false
	}
	switch f := msg.Fragment().(type) {
	case *model.ImageMessage:
		return model.MessageTypeImage, f.MediaInfo, true
	case *model.VideoMessage:
		return model.MessageTypeVideo, f.MediaInfo, true
	case *model.AudioMessage:
		return model.MessageTypeAudio, f.MediaInfo, true
	case *model.DocumentMessage:
		return model.MessageTypeDocument, f.MediaInfo, true
	case *model.StickerMessage:
		return model.MessageTypeSticker, f.MediaInfo, true
	}
	return "", model.MediaInfo{}, false
}
