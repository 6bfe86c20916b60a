package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MAHMOUDGAD123/vidl-api/pkg/logger"
)

// RecoveryWithAdapter converts handler panics into a 500 response with the
// standard error envelope. The panic lands in the error category log with
// enough request context to trace it back; the client only sees a generic
// internal_error.
func RecoveryWithAdapter(logAdapter *logger.LoggerAdapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			logAdapter.LogError(logger.CategoryWebAccess, "Panic recovered",
				zap.Any("error", recovered),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":  "internal_error",
				"error": "Internal server error",
			})
		}()
		c.Next()
	}
}
