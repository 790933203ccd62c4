package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busfleet/internal/config"
)

func newCacheRig(t *testing.T) (*gin.Engine, *redis.Client, config.CacheConfig, *int64) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.CacheConfig{
		Enabled:      true,
		TTL:          30 * time.Second,
		Prefix:       "test:cache",
		MaxBodyBytes: 1 << 20,
	}

	var hits int64
	router := gin.New()
	cached := router.Group("", ResponseCache(cfg, rdb))
	cached.GET("/diagrams", func(c *gin.Context) {
		atomic.AddInt64(&hits, 1)
		c.JSON(http.StatusOK, gin.H{"count": atomic.LoadInt64(&hits)})
	})
	cached.GET("/missing", func(c *gin.Context) {
		atomic.AddInt64(&hits, 1)
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	cached.POST("/diagrams", func(c *gin.Context) {
		atomic.AddInt64(&hits, 1)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router, rdb, cfg, &hits
}

func doGet(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestResponseCacheMissThenHit(t *testing.T) {
	router, _, _, hits := newCacheRig(t)

	first := doGet(router, "/diagrams")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := doGet(router, "/diagrams")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.EqualValues(t, 1, atomic.LoadInt64(hits), "handler runs only on miss")
}

func TestResponseCacheKeyIncludesQuery(t *testing.T) {
	router, _, _, hits := newCacheRig(t)

	doGet(router, "/diagrams?page=1")
	doGet(router, "/diagrams?page=2")
	assert.EqualValues(t, 2, atomic.LoadInt64(hits))

	again := doGet(router, "/diagrams?page=1")
	assert.Equal(t, "HIT", again.Header().Get("X-Cache"))
	assert.EqualValues(t, 2, atomic.LoadInt64(hits))
}

func TestResponseCacheSkipsNonGet(t *testing.T) {
	router, _, _, hits := newCacheRig(t)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/diagrams", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Cache"))
	}
	assert.EqualValues(t, 2, atomic.LoadInt64(hits))
}

func TestResponseCacheSkipsErrorResponses(t *testing.T) {
	router, _, _, hits := newCacheRig(t)

	doGet(router, "/missing")
	doGet(router, "/missing")
	assert.EqualValues(t, 2, atomic.LoadInt64(hits), "404 responses are never cached")
}

func TestInvalidateCacheDropsPrefix(t *testing.T) {
	router, rdb, cfg, hits := newCacheRig(t)

	doGet(router, "/diagrams")
	require.Equal(t, "HIT", doGet(router, "/diagrams").Header().Get("X-Cache"))

	InvalidateCache(context.Background(), cfg, rdb)

	after := doGet(router, "/diagrams")
	assert.Equal(t, "MISS", after.Header().Get("X-Cache"))
	assert.EqualValues(t, 2, atomic.LoadInt64(hits))
}

func TestResponseCacheDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", ResponseCache(config.CacheConfig{Enabled: false}, nil), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 2; i++ {
		w := doGet(router, "/x")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Cache"))
	}
}
