package sender

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wa_outbound/internal/model"

	"github.com/google/uuid"
)

type (
	// Conn is the session layer this package talks through.
	Conn interface {
		// SetQuery sends nodes as one "set" action and waits for the ack.
		SetQuery(ctx context.Context, nodes []model.Node) (*model.Response, error)
		// Query sends a request node and decodes the json reply into out.
		Query(ctx context.Context, node model.Node, out any) error
		// QueryExpecting200 sends node correlated by id and returns the raw status reply.
		QueryExpecting200(ctx context.Context, node model.Node, tags model.Tags, id string) (*model.Response, error)
		// Epoch is the current query counter.
		Epoch() int64
		// OwnID is the jid of the logged in user.
		OwnID() string
	}

	HTTPDoer interface {
		Do(req *http.Request) (*http.Response, error)
	}

	// MediaConnCache keeps upload targets around for their ttl.
	MediaConnCache interface {
		GetMediaConn(ctx context.Context) (*model.MediaConn, error)
		SetMediaConn(ctx context.Context, mc *model.MediaConn) error
	}

	// Recorder receives every relayed envelope and its outcome.
	Recorder interface {
		Record(ctx context.Context, info *model.WebMessageInfo, result *model.SendResult, sendErr error) error
	}

	Deps struct {
		Conn Conn

		HTTP     HTTPDoer
		Now      func() time.Time
		Random   io.Reader
		Cache    MediaConnCache
		Recorder Recorder

		// UploadScheme is https unless a dev server says otherwise.
		UploadScheme string
		Origin       string
	}

	Sender struct {
		conn     Conn
		http     HTTPDoer
		now      func() time.Time
		random   io.Reader
		cache    MediaConnCache
		recorder Recorder

		uploadScheme string
		origin       string
	}
)

const (
	defaultOrigin   = "https://web.whatsapp.com"
	messageIDPrefix = "3EB0"
)

func New(d Deps) *Sender {
	s := &Sender{
		conn:         d.Conn,
		http:         d.HTTP,
		now:          d.Now,
		random:       d.Random,
		cache:        d.Cache,
		recorder:     d.Recorder,
		uploadScheme: d.UploadScheme,
		origin:       d.Origin,
	}

	if s.http == nil {
		s.http = http.DefaultClient
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.random == nil {
		s.random = rand.Reader
	}
	if s.uploadScheme == "" {
		s.uploadScheme = "https"
	}
	if s.origin == "" {
		s.origin = defaultOrigin
	}
	return s
}

func (s *Sender) OwnID() string {
	return s.conn.OwnID()
}

// GenerateMessageID returns 3EB0 followed by 16 uppercase hex characters.
func (s *Sender) GenerateMessageID() (string, error) {
	u, err := uuid.NewRandomFromReader(s.random)
	if err != nil {
		return "", fmt.Errorf("generate message id: %w", err)
	}
	return messageIDPrefix + strings.ToUpper(hex.EncodeToString(u[:8])), nil
}

func (s *Sender) randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(s.random, b); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	return b, nil
}

func (s *Sender) randomTag() (string, error) {
	b, err := s.randomBytes(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(binary.BigEndian.Uint32(b) % 1_000_000), nil
}
