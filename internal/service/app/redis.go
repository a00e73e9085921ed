package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wa_outbound/internal/model"
	redisSvc "wa_outbound/internal/service/redis"
)

const stateTTL = 30 * 24 * time.Hour

func lastSentKey(owner, chat string) string {
	return fmt.Sprintf("last_sent: %s, chat: %s", owner, chat)
}

func stampKey(owner, chat string, mod model.ChatModification) string {
	return fmt.Sprintf("stamp: %s, chat: %s, %s", owner, chat, mod)
}

func (c *App) SaveLastSent(ctx context.Context, chat string, key model.MessageKey) error {
	data, err := json.Marshal(key)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, lastSentKey(c.owner, chat), data, stateTTL)
}

// GetLastSent returns nil, nil when nothing was sent to chat yet.
func (c *App) GetLastSent(ctx context.Context, chat string) (*model.MessageKey, error) {
	v, err := c.store.Get(ctx, lastSentKey(c.owner, chat))
	if errors.Is(err, redisSvc.ErrMiss) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	var key model.MessageKey
	if err := json.Unmarshal([]byte(v), &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// SaveStamp remembers the stamp of a pin or mute so it can be undone later.
func (c *App) SaveStamp(ctx context.Context, chat string, mod model.ChatModification, stamp string) error {
	return c.store.Set(ctx, stampKey(c.owner, chat, mod), stamp, stateTTL)
}

func (c *App) GetStamp(ctx context.Context, chat string, mod model.ChatModification) (string, error) {
	v, err := c.store.Get(ctx, stampKey(c.owner, chat, mod))
	if errors.Is(err, redisSvc.ErrMiss) {
		return "", nil
	}
	return v, err
}
