package config

// Redis backs the flight-search response cache and the API rate limiter.
// Both features are optional: when the connection cannot be established
// at startup this constructor returns nil and callers degrade gracefully
// by serving uncached, unthrottled requests.

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig carries the connection and feature settings for Redis.
type RedisConfig struct {
	Addr             string        // host:port of the Redis server
	Password         string        // optional password
	DB               int           // database number
	SearchCacheTTL   time.Duration // lifetime of cached flight-search responses
	RateLimit        int           // allowed requests per window, 0 disables limiting
	RateLimitWindow  time.Duration // fixed window for the rate limiter
	SearchCacheDebug bool          // adds X-Cache headers when true
}

// LoadRedisConfig builds a RedisConfig from the environment with defaults.
func LoadRedisConfig() RedisConfig {
	db := 0
	if s := envStr("REDIS_DB", ""); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			db = n
		}
	}
	return RedisConfig{
		Addr:             envStr("REDIS_ADDR", "localhost:6379"),
		Password:         envStr("REDIS_PASSWORD", ""),
		DB:               db,
		SearchCacheTTL:   envDur("SEARCH_CACHE_TTL", 30*time.Second),
		RateLimit:        envInt("RATE_LIMIT", 60),
		RateLimitWindow:  envDur("RATE_LIMIT_WINDOW", time.Minute),
		SearchCacheDebug: envBool("SEARCH_CACHE_DEBUG", false),
	}
}

// NewRedisClient connects to Redis using the given config.  The returned
// client may be nil if a connection cannot be established; callers must
// treat nil as "caching and rate limiting disabled".
func NewRedisClient(cfg RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	// Ping with a short timeout; degrade to nil on failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
