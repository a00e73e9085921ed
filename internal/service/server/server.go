package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"wa_outbound/internal/model"
	"wa_outbound/internal/utils/log"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type (
	// Queue holds frames for recipients that are offline.
	Queue interface {
		Push(ctx context.Context, jid string, frames ...[]byte) error
		Drain(ctx context.Context, jid string) ([][]byte, error)
	}

	BlobStore interface {
		PutBlob(ctx context.Context, hash string, body []byte) error
		GetBlob(ctx context.Context, hash string) ([]byte, error)
	}

	Archive interface {
		Archive(ctx context.Context, owner string, info *model.WebMessageInfo) error
		Search(ctx context.Context, owner, text, chat string, count, page int) (*model.SearchResult, error)
	}

	Options struct {
		// MediaHost is the host:port handed out in mediaConn replies.
		MediaHost string
		MediaAuth string
		MediaTTL  int
	}

	peer struct {
		jid     string
		conn    *websocket.Conn
		writeMu sync.Mutex
	}

	HttpServer struct {
		mu     sync.RWMutex
		mapper map[string]*peer

		queue   Queue
		blobs   BlobStore
		archive Archive
		opts    Options
	}
)

const maxUploadSize = 64 << 20

func NewHttpServer(queue Queue, blobs BlobStore, archive Archive, opts Options) *HttpServer {
	return &HttpServer{
		mapper:  make(map[string]*peer),
		queue:   queue,
		blobs:   blobs,
		archive: archive,
		opts:    opts,
	}
}

func (s *HttpServer) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/ws", s.HandleWS()).Methods(http.MethodGet)
	r.HandleFunc("/mms/{type}/{hash}", s.HandleUpload()).Methods(http.MethodPost)
	r.HandleFunc("/media/{hash}", s.HandleDownload()).Methods(http.MethodGet)
	return r
}

// Run serves until ctx is cancelled.
func (s *HttpServer) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("relay listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (p *peer) write(data []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *HttpServer) lookup(jid string) (*peer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.mapper[jid]
	return p, ok
}

// others returns every connected peer except jid.
func (s *HttpServer) others(jid string) []*peer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*peer, 0, len(s.mapper))
	for k, p := range s.mapper {
		if k != jid {
			res = append(res, p)
		}
	}
	return res
}

func (s *HttpServer) register(p *peer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mapper[p.jid]; ok {
		return false
	}
	s.mapper[p.jid] = p
	return true
}

func (s *HttpServer) unregister(p *peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mapper[p.jid] == p {
		delete(s.mapper, p.jid)
	}
}
