package redis

import (
	"context"
	"time"
)

// BlobStore keeps uploaded media bodies keyed by their encrypted hash.
type BlobStore struct {
	store Store
	ttl   time.Duration
}

func NewBlobStore(store Store, ttl time.Duration) *BlobStore {
	return &BlobStore{store: store, ttl: ttl}
}

func blobKey(hash string) string {
	return "blob: " + hash
}

func (b *BlobStore) PutBlob(ctx context.Context, hash string, body []byte) error {
	return b.store.Set(ctx, blobKey(hash), body, b.ttl)
}

// GetBlob returns nil, nil when the blob is unknown or expired.
func (b *BlobStore) GetBlob(ctx context.Context, hash string) ([]byte, error) {
	v, err := b.store.Get(ctx, blobKey(hash))
	if isMiss(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}
