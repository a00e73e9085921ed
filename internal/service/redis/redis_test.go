package redis

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"wa_outbound/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	val string
	ttl time.Duration
}

// memStore mimics the redis commands Store exposes.
type memStore struct {
	mu    sync.Mutex
	kv    map[string]entry
	lists map[string][]string
}

func newMemStore() *memStore {
	return &memStore{kv: map[string]entry{}, lists: map[string][]string{}}
}

func (m *memStore) RPush(ctx context.Context, key string, value ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range value {
		switch v := v.(type) {
		case []byte:
			m.lists[key] = append(m.lists[key], string(v))
		default:
			m.lists[key] = append(m.lists[key], fmt.Sprint(v))
		}
	}
	return nil
}

func (m *memStore) LRange(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lists[key]...), nil
}

func (m *memStore) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	delete(m.lists, key)
	return nil
}

func (m *memStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.kv[key] = entry{string(v), ttl}
	default:
		m.kv[key] = entry{fmt.Sprint(v), ttl}
	}
	return nil
}

func (m *memStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.kv[key]
	if !ok {
		return "", redis.Nil
	}
	return e.val, nil
}

func TestMediaConnCache(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cache := NewMediaConnCache(store, "999@s.whatsapp.net")

	mc, err := cache.GetMediaConn(ctx)
	require.NoError(t, err)
	assert.Nil(t, mc)

	want := &model.MediaConn{Auth: "tok", TTL: 300, Hosts: []model.MediaHost{{Hostname: "mmg.example"}}}
	require.NoError(t, cache.SetMediaConn(ctx, want))
	assert.Equal(t, 300*time.Second, store.kv["media_conn: 999@s.whatsapp.net"].ttl)

	mc, err = cache.GetMediaConn(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, mc)
}

func TestMediaConnCacheSkipsZeroTTL(t *testing.T) {
	store := newMemStore()
	cache := NewMediaConnCache(store, "999@s.whatsapp.net")

	require.NoError(t, cache.SetMediaConn(context.Background(), &model.MediaConn{Auth: "tok"}))
	assert.Empty(t, store.kv)
}

func TestOfflineQueue(t *testing.T) {
	ctx := context.Background()
	q := NewOfflineQueue(newMemStore())

	require.NoError(t, q.Push(ctx, "456@s.whatsapp.net", []byte("a,1"), []byte("b,2")))
	require.NoError(t, q.Push(ctx, "456@s.whatsapp.net", []byte("c,3")))
	require.NoError(t, q.Push(ctx, "456@s.whatsapp.net"))

	frames, err := q.Drain(ctx, "456@s.whatsapp.net")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a,1"), []byte("b,2"), []byte("c,3")}, frames)

	frames, err = q.Drain(ctx, "456@s.whatsapp.net")
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestBlobStore(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	blobs := NewBlobStore(store, time.Hour)

	body, err := blobs.GetBlob(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, body)

	require.NoError(t, blobs.PutBlob(ctx, "abc", []byte{0, 1, 2}))
	body, err = blobs.GetBlob(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, body)
	assert.Equal(t, time.Hour, store.kv["blob: abc"].ttl)
}

// TestRedisService runs against a live server when REDIS_ADDR is set.
func TestRedisService(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	svc := NewRedis(redis.NewClient(&redis.Options{Addr: addr}))
	require.NoError(t, svc.Ping(ctx))

	key := fmt.Sprintf("wa_outbound_test_%d", time.Now().UnixNano())
	t.Cleanup(func() { svc.Del(ctx, queueKey(key)) })

	q := NewOfflineQueue(svc)
	require.NoError(t, q.Push(ctx, key, []byte("x,1")))
	frames, err := q.Drain(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("x,1")}, frames)

	_, err = svc.Get(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)
}
