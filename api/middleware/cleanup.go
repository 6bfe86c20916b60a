package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MAHMOUDGAD123/vidl-api/internal/domain"
)

// SessionCleanup destroys the session's folder after the response has been
// written, whether the download succeeded or failed. A session serves exactly
// one download attempt. Destroy is idempotent, so racing the janitor is fine.
func SessionCleanup(store domain.SessionStore, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		sessionID := c.Param("id")
		if sessionID == "" {
			return
		}
		if err := store.Destroy(sessionID); err != nil {
			log.Warn("Failed to clean up session",
				zap.String("session_id", sessionID),
				zap.Error(err))
			return
		}
		log.Info("Session cleaned up", zap.String("session_id", sessionID))
	}
}
