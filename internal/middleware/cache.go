package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/brunacrodrigues/vitoria-airlines/internal/config"
)

// captureWriter tees the response body so a successful reply can be
// stored after the handler ran.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.buf.Write(b)
	return cw.ResponseWriter.Write(b)
}

// NewSearchCache caches successful GET responses in Redis for the
// configured TTL, keyed by route and query string.  Flight search is
// the hot read path and its results only change when staff edit the
// schedule, so a short TTL keeps results fresh enough.  A nil client
// disables caching; Redis errors fall through to the handler.
func NewSearchCache(cfg config.RedisConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if rdb == nil || cfg.SearchCacheTTL <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			key := cacheKey(c)
			ctx := c.Request().Context()

			if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if cfg.SearchCacheDebug {
					c.Response().Header().Set("X-Cache", "HIT")
				}
				return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			if cfg.SearchCacheDebug {
				c.Response().Header().Set("X-Cache", "MISS")
			}
			if err := next(c); err != nil {
				return err
			}
			if cw.status == http.StatusOK {
				// Store with a background context: the request may already
				// be done, but the cache write should still land.
				storeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = rdb.Set(storeCtx, key, cw.buf.Bytes(), cfg.SearchCacheTTL).Err()
			}
			return nil
		}
	}
}

func cacheKey(c echo.Context) string {
	sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery))
	return fmt.Sprintf("searchcache:%x", sum)
}
