package config

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/condo-manager/internal/utils"
)

// RedisConfig locates the Redis server behind the rate limiter and the
// response cache.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	TLS           bool
	TLSSkipVerify bool
	PingTimeout   time.Duration
}

// LoadRedisConfig reads REDIS_HOST/REDIS_PORT, falling back to REDIS_ADDR
// and then to a local server.  REDIS_PASSWORD, REDIS_DB, REDIS_TLS and
// REDIS_TLS_SKIP_VERIFY are optional.
func LoadRedisConfig() RedisConfig {
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
		addr = net.JoinHostPort(host, port)
	}
	return RedisConfig{
		Addr:          addr,
		Password:      envStr("REDIS_PASSWORD", ""),
		DB:            envInt("REDIS_DB", 0),
		TLS:           envBool("REDIS_TLS", false),
		TLSSkipVerify: envBool("REDIS_TLS_SKIP_VERIFY", false),
		PingTimeout:   envDur("REDIS_PING_TIMEOUT", 2*time.Second),
	}
}

func (c RedisConfig) options() *redis.Options {
	opts := &redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB}
	if c.TLS {
		host, _, err := net.SplitHostPort(c.Addr)
		if err != nil {
			host = c.Addr
		}
		opts.TLSConfig = &tls.Config{ServerName: host, InsecureSkipVerify: c.TLSSkipVerify}
	}
	return opts
}

// NewRedisClient connects and pings.  It returns nil when the server is
// unreachable; callers then run without rate limiting and caching.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	client := redis.NewClient(cfg.options())
	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		utils.Logger.WithError(err).WithField("addr", cfg.Addr).Warn("redis unavailable; rate limit and cache disabled")
		_ = client.Close()
		return nil
	}
	return client
}
