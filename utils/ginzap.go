package utils

import (
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Ginzap logs one line per request through logger.
func Ginzap(logger *zap.Logger, timeFormat string, utc bool) gin.HandlerFunc {
	return ginzap.Ginzap(logger, timeFormat, utc)
}

// RecoveryWithZap logs panics and answers with the standard 500 envelope.
// Broken client connections are logged without writing a response.
func RecoveryWithZap(logger *zap.Logger, stack bool) gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(logger, stack, func(c *gin.Context, _ any) {
		Error(c, http.StatusInternalServerError, CodeInternal, "internal error")
		c.Abort()
	})
}
