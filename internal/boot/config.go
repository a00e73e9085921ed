package boot

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env      string `env:"ENV,default=dev"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	OwnJID   string `env:"OWN_JID"`
	RelayURL string `env:"RELAY_URL,default=ws://localhost:9090/ws"`

	Server struct {
		ListenAddr string        `env:"LISTEN_ADDR,default=localhost:9090"`
		MediaHost  string        `env:"MEDIA_HOST,default=localhost:9090"`
		MediaAuth  string        `env:"MEDIA_AUTH,default=dev-media-auth"`
		MediaTTL   int           `env:"MEDIA_TTL,default=300"`
		BlobTTL    time.Duration `env:"BLOB_TTL,default=24h"`
	}

	Media struct {
		Origin        string        `env:"MEDIA_ORIGIN,default=https://web.whatsapp.com"`
		Scheme        string        `env:"MEDIA_SCHEME,default=https"`
		UploadTimeout time.Duration `env:"UPLOAD_TIMEOUT,default=60s"`
		ConnCache     bool          `env:"MEDIA_CONN_CACHE,default=true"`
	}

	QueryTimeout time.Duration `env:"QUERY_TIMEOUT,default=20s"`

	Mongo struct {
		URI      string `env:"MONGO_URI,default=mongodb://localhost:27017"`
		Database string `env:"MONGO_DB,default=wa_outbound"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR,default=localhost:6379"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB,default=0"`
	}
}

func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads the config through an arbitrary lookuper, so tests can use envconfig.MapLookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	config := &Config{}
	if err := envconfig.ProcessWith(ctx, config, l); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "dev"
}
