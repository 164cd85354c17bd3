package cache

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Metrics receives cache hit and miss counts.
type Metrics interface {
	IncrementCacheHit()
	IncrementCacheMiss()
}

// Cache stores successful JSON responses keyed by request path and body.
// Only deterministic endpoints may be cached.
type Cache struct {
	store *Store[string, []byte]
	ttl   time.Duration
}

// NewCache creates a new cache with the specified TTL
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		store: NewStore[string, []byte](ttl, 5*time.Minute, nil),
		ttl:   ttl,
	}
}

// generateKey creates a consistent key from the input
func (c *Cache) generateKey(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// Get retrieves an item from the cache
func (c *Cache) Get(key string) ([]byte, bool) {
	return c.store.Get(key)
}

// Set stores an item in the cache
func (c *Cache) Set(key string, data []byte) {
	c.store.Set(key, data)
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.store.Clear()
}

// Size returns the number of items in the cache
func (c *Cache) Size() int {
	return c.store.Len()
}

// Stats returns cache statistics
func (c *Cache) Stats() map[string]interface{} {
	return c.store.Stats()
}

// HitFunc observes a response served from the cache.
type HitFunc func(ctx *gin.Context, body []byte, elapsed time.Duration)

// Middleware caches POST responses for the given paths. onHit, when set, is
// called for every cached response so callers can account for it.
func (c *Cache) Middleware(metrics Metrics, onHit HitFunc, paths ...string) gin.HandlerFunc {
	cached := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		cached[p] = struct{}{}
	}

	return func(ctx *gin.Context) {
		start := time.Now()
		if _, ok := cached[ctx.Request.URL.Path]; !ok || ctx.Request.Method != http.MethodPost {
			ctx.Next()
			return
		}

		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			ctx.Next()
			return
		}
		ctx.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		cacheKey := c.generateKey(ctx.Request.URL.Path + "\x00" + string(body))

		if cachedData, found := c.Get(cacheKey); found {
			slog.Debug("Cache hit", "key", cacheKey[:8]+"...")
			metrics.IncrementCacheHit()
			if onHit != nil {
				onHit(ctx, cachedData, time.Since(start))
			}
			ctx.Header("X-Cache", "HIT")
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", cachedData)
			ctx.Abort()
			return
		}

		slog.Debug("Cache miss", "key", cacheKey[:8]+"...")
		metrics.IncrementCacheMiss()
		ctx.Header("X-Cache", "MISS")

		wrapper := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = wrapper
		ctx.Next()

		if wrapper.Status() == http.StatusOK && wrapper.body.Len() > 0 {
			c.Set(cacheKey, wrapper.body.Bytes())
		}
	}
}

// responseWriter wraps gin.ResponseWriter to capture response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Close stops the background sweeper.
func (c *Cache) Close(ctx context.Context) error {
	return c.store.Close(ctx)
}
