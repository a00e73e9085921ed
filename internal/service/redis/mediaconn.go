package redis

import (
	"context"
	"encoding/json"
	"time"

	"wa_outbound/internal/model"
)

// MediaConnCache keeps the upload targets of one account for their ttl.
type MediaConnCache struct {
	store Store
	key   string
}

func NewMediaConnCache(store Store, ownID string) *MediaConnCache {
	return &MediaConnCache{
		store: store,
		key:   "media_conn: " + ownID,
	}
}

// GetMediaConn returns nil, nil on a miss.
func (c *MediaConnCache) GetMediaConn(ctx context.Context) (*model.MediaConn, error) {
	v, err := c.store.Get(ctx, c.key)
	if isMiss(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var mc model.MediaConn
	if err := json.Unmarshal([]byte(v), &mc); err != nil {
		return nil, err
	}
	return &mc, nil
}

// SetMediaConn stores mc until its ttl runs out. A zero ttl is not cached.
func (c *MediaConnCache) SetMediaConn(ctx context.Context, mc *model.MediaConn) error {
	if mc == nil || mc.TTL <= 0 {
		return nil
	}
	data, err := json.Marshal(mc)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.key, data, time.Duration(mc.TTL)*time.Second)
}
