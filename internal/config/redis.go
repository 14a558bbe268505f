package config

// Redis backs the token denylist. If the server cannot be reached during
// startup the constructor returns nil and callers degrade gracefully: token
// invalidation becomes a no-op and tokens live until their own expiry.

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client from cfg and pings it with a
// short timeout. The returned client is nil if the ping fails.
func NewRedisClient(cfg Redis) *redis.Client {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	var tlsConf *tls.Config
	if cfg.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  cfg.Password,
		DB:        cfg.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
