package redis

import (
	"context"
	"fmt"
)

// OfflineQueue holds frames for recipients that are not connected.
type OfflineQueue struct {
	store Store
}

func NewOfflineQueue(store Store) *OfflineQueue {
	return &OfflineQueue{store: store}
}

func queueKey(jid string) string {
	return fmt.Sprintf("to: %s", jid)
}

func (q *OfflineQueue) Push(ctx context.Context, jid string, frames ...[]byte) error {
	if len(frames) == 0 {
		return nil
	}
	vals := make([]any, 0, len(frames))
	for _, f := range frames {
		vals = append(vals, f)
	}
	return q.store.RPush(ctx, queueKey(jid), vals...)
}

// Drain returns the queued frames in arrival order and empties the queue.
func (q *OfflineQueue) Drain(ctx context.Context, jid string) ([][]byte, error) {
	key := queueKey(jid)
	vals, err := q.store.LRange(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, nil
	}
	if err := q.store.Del(ctx, key); err != nil {
		return nil, err
	}

	frames := make([][]byte, 0, len(vals))
	for _, v := range vals {
		frames = append(frames, []byte(v))
	}
	return frames, nil
}
