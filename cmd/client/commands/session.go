package commands

import (
	"context"
	"net/http"
	"time"

	"wa_outbound/internal/repository/message"
	"wa_outbound/internal/service/conn"
	redisSvc "wa_outbound/internal/service/redis"
	"wa_outbound/internal/service/sender"
	"wa_outbound/internal/utils/log"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// session holds everything one command needs. redis and mongo are optional.
type session struct {
	conn   *conn.WSConn
	sender *sender.Sender

	redis  *redisSvc.RedisService
	outbox *message.MessageRepo

	rdb   *redis.Client
	mongo *mongo.Client
}

func openSession(ctx context.Context, h conn.Handler) (*session, error) {
	s := &session{}

	s.rdb = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	svc := redisSvc.NewRedis(s.rdb)
	if err := ping(ctx, svc.Ping); err != nil {
		log.Warn("redis unavailable, running without cache", zap.Error(err))
		s.rdb.Close()
		s.rdb = nil
	} else {
		s.redis = svc
	}

	if client, err := initMongo(ctx, cfg.Mongo.URI); err != nil {
		log.Warn("mongo unavailable, running without outbox", zap.Error(err))
	} else {
		s.mongo = client
		s.outbox = message.NewMessageRepo(client.Database(cfg.Mongo.Database), cfg.OwnJID)
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	defer cancel()
	c, err := conn.Dial(dialCtx, cfg.RelayURL, cfg.OwnJID, h)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.conn = c

	deps := sender.Deps{
		Conn:         c,
		HTTP:         &http.Client{Timeout: cfg.Media.UploadTimeout},
		UploadScheme: cfg.Media.Scheme,
		Origin:       cfg.Media.Origin,
	}
	if s.redis != nil && cfg.Media.ConnCache {
		deps.Cache = redisSvc.NewMediaConnCache(s.redis, cfg.OwnJID)
	}
	if s.outbox != nil {
		deps.Recorder = s.outbox
	}
	s.sender = sender.New(deps)
	return s, nil
}

func (s *session) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.rdb != nil {
		s.rdb.Close()
	}
	if s.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.mongo.Disconnect(ctx)
	}
}

// timeout bounds one protocol operation; media sends get the upload budget on top.
func timeout(ctx context.Context, media bool) (context.Context, context.CancelFunc) {
	d := cfg.QueryTimeout
	if media {
		d += cfg.Media.UploadTimeout
	}
	return context.WithTimeout(ctx, d)
}

func ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return fn(ctx)
}

func initMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := ping(ctx, func(ctx context.Context) error { return client.Ping(ctx, nil) }); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}
