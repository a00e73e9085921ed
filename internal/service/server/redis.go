package server

import (
	"context"

	"wa_outbound/internal/utils/log"

	"go.uber.org/zap"
)

func (s *HttpServer) PutFramesToCache(ctx context.Context, to string, frames ...[]byte) error {
	if s.queue == nil {
		return nil
	}
	return s.queue.Push(ctx, to, frames...)
}

// ForwardUnsentFrames flushes the offline queue of jid to its socket.
func (s *HttpServer) ForwardUnsentFrames(ctx context.Context, jid string) error {
	if s.queue == nil {
		return nil
	}

	p, ok := s.lookup(jid)
	if !ok {
		return nil
	}

	frames, err := s.queue.Drain(ctx, jid)
	if err != nil {
		log.Error("ForwardUnsentFrames failed", zap.Error(err))
		return err
	}

	for i, f := range frames {
		if err := p.write(f); err != nil {
			// put the rest back for the next connect
			return s.queue.Push(ctx, jid, frames[i:]...)
		}
	}
	return nil
}
