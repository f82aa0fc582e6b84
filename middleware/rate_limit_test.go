package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(perMinute int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(perMinute))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func hit(r *gin.Engine, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitMiddleware_BurstThenReject(t *testing.T) {
	r := newLimitedRouter(4)

	assert.Equal(t, http.StatusNoContent, hit(r, "10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, hit(r, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1"))

	assert.Equal(t, http.StatusNoContent, hit(r, "10.0.0.2"))
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	r := newLimitedRouter(0)
	for i := 0; i < 50; i++ {
		assert.Equal(t, http.StatusNoContent, hit(r, "10.0.0.1"))
	}
}
