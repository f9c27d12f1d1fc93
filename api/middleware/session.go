package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/feichai0017/interview-practice/pkg/logger"
	"github.com/feichai0017/interview-practice/pkg/session"
)

const (
	SessionHeader = session.Header
	RequestHeader = "X-Request-ID"

	sessionKey = "sessionId"
)

// Session takes the interview session id from X-Session-ID, generating one
// when absent, and echoes it back. Request and session ids are attached to
// the request context for logging.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionHeader)
		if sessionID == "" {
			sessionID = uuid.New().String()
		}
		requestID := c.GetHeader(RequestHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := logger.WithSessionID(c.Request.Context(), sessionID)
		ctx = logger.WithRequestID(ctx, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Set(sessionKey, sessionID)
		c.Header(SessionHeader, sessionID)
		c.Header(RequestHeader, requestID)
		c.Next()
	}
}

// SessionID returns the id set by Session.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

// Logging writes one line per request.
func Logging(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		logger.FromContext(c.Request.Context(), log).Info("Request handled",
			logger.String("method", c.Request.Method),
			logger.String("path", c.FullPath()),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("latency", time.Since(started)),
		)
	}
}
