package utils

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "hello", SanitizeText("  <b>hello</b> "))
	assert.Equal(t, "", SanitizeText("<script>alert(1)</script>"))
	assert.Equal(t, []string{"a", "b"}, SanitizeAll([]string{"a", " ", "<i>b</i>"}))
}

func TestSanitizeText_KeepsPlainTextVerbatim(t *testing.T) {
	for _, in := range []string{"R&D", `5 < 6 "quoted"`, "it's fine", "a > b & c"} {
		assert.Equal(t, in, SanitizeText(in))
	}
	assert.Equal(t, "R&D Bot", SanitizeText("<b>R&amp;D</b> Bot"))
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 41)
	assert.Equal(t, int64(3), p.TotalPages)
	assert.Equal(t, int64(0), NewPagination(1, 20, 0).TotalPages)
	assert.Equal(t, int64(0), NewPagination(1, 0, 10).TotalPages)
}

func TestRecoveryWithZap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Ginzap(zap.NewNop(), time.RFC3339, true), RecoveryWithZap(zap.NewNop(), true))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, CodeInternal, body.Code)
}

func TestNewRollingFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gin.log")
	l, err := NewRollingFileLogger(path, "info", 1, 1, 1, false)
	require.NoError(t, err)
	l.Info("hello")
	require.NoError(t, l.Sync())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"hello"`)
}

func TestServer_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := NewServer(ln.Addr().String(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return mr, rc
}

func TestBalanceCache_Redis(t *testing.T) {
	mr, rc := newMiniredisClient(t)
	ctx := context.Background()
	cache := NewBalanceCache(rc, time.Minute, nil)

	_, ok := cache.GetBalance(ctx, "cache-test")
	assert.False(t, ok)

	cache.SetBalance(ctx, "cache-test", 42)
	v, ok := cache.GetBalance(ctx, "cache-test")
	require.True(t, ok)
	assert.Equal(t, int64(42), v)
	assert.Equal(t, time.Minute, mr.TTL(balanceKey("cache-test")))

	cache.Invalidate(ctx, "cache-test")
	_, ok = cache.GetBalance(ctx, "cache-test")
	assert.False(t, ok)

	cache.SetBalance(ctx, "a", 1)
	cache.SetBalance(ctx, "b", -3)
	require.NoError(t, mr.Set("unrelated", "keep"))
	cache.Flush(ctx)
	assert.False(t, mr.Exists(balanceKey("a")))
	assert.False(t, mr.Exists(balanceKey("b")))
	assert.True(t, mr.Exists("unrelated"))
}

func TestBalanceCache_ExpiresAndIgnoresGarbage(t *testing.T) {
	mr, rc := newMiniredisClient(t)
	ctx := context.Background()
	cache := NewBalanceCache(rc, 0, nil)

	cache.SetBalance(ctx, "u1", 9)
	mr.FastForward(defaultCacheTTL + time.Second)
	_, ok := cache.GetBalance(ctx, "u1")
	assert.False(t, ok)

	require.NoError(t, mr.Set(balanceKey("u2"), "not-a-number"))
	_, ok = cache.GetBalance(ctx, "u2")
	assert.False(t, ok)
}

func TestBalanceCache_RedisDownIsAMiss(t *testing.T) {
	mr, rc := newMiniredisClient(t)
	ctx := context.Background()
	cache := NewBalanceCache(rc, time.Minute, nil)
	cache.SetBalance(ctx, "u1", 5)

	mr.Close()
	_, ok := cache.GetBalance(ctx, "u1")
	assert.False(t, ok)
	cache.Invalidate(ctx, "u1")
}
