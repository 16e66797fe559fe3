package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/brunacrodrigues/vitoria-airlines/internal/config"
)

// NewRateLimiter returns a fixed-window limiter backed by Redis: one
// counter per client IP per window, INCR plus EXPIRE on first hit.  A
// nil Redis client or a zero limit disables limiting entirely, and a
// Redis error at request time fails open; throttling is a nicety, not
// a correctness guarantee.
func NewRateLimiter(cfg config.RedisConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if rdb == nil || cfg.RateLimit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	window := cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			key := fmt.Sprintf("ratelimit:ip:%s:%d", ip, time.Now().Unix()/int64(window.Seconds()))

			ctx := c.Request().Context()
			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				return next(c)
			}
			if count == 1 {
				_ = rdb.Expire(ctx, key, window).Err()
			}

			remaining := int64(cfg.RateLimit) - count
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RateLimit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(cfg.RateLimit) {
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":   "too_many_requests",
					"message": "rate limit exceeded",
				})
			}
			return next(c)
		}
	}
}
