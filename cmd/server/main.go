package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"wa_outbound/internal/boot"
	"wa_outbound/internal/repository/message"
	redisSvc "wa_outbound/internal/service/redis"
	"wa_outbound/internal/service/server"
	"wa_outbound/internal/utils/log"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := boot.Load(ctx)
	if err != nil {
		panic(err)
	}
	if err := log.Init(cfg.LogLevel, cfg.IsDevelopment()); err != nil {
		panic(err)
	}
	defer log.Sync()

	mongoDBClient, err := initMongo(cfg.Mongo.URI)
	if err != nil {
		log.Fatal("connect mongo failed", zap.Error(err))
	}
	defer mongoDBClient.Disconnect(context.Background())

	db := mongoDBClient.Database(cfg.Mongo.Database)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	redis := redisSvc.NewRedis(rdb)
	if err := redis.Ping(ctx); err != nil {
		log.Fatal("connect redis failed", zap.Error(err))
	}

	// the archive is shared by every peer, so it has no fixed owner
	archive := message.NewMessageRepo(db, "")
	if err := archive.EnsureIndexes(ctx); err != nil {
		log.Fatal("create indexes failed", zap.Error(err))
	}
	srv := server.NewHttpServer(
		redisSvc.NewOfflineQueue(redis),
		redisSvc.NewBlobStore(redis, cfg.Server.BlobTTL),
		archive,
		server.Options{
			MediaHost: cfg.Server.MediaHost,
			MediaAuth: cfg.Server.MediaAuth,
			MediaTTL:  cfg.Server.MediaTTL,
		},
	)

	if err := srv.Run(ctx, cfg.Server.ListenAddr); err != nil {
		log.Fatal("relay stopped", zap.Error(err))
	}
}

func initMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return client, client.Ping(ctx, nil)
}
