package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// DefaultUserID is assumed when no X-User-ID header is present.
// Authentication is handled upstream of this service; the header only
// scopes invoice lookups to a tenant.
const DefaultUserID int64 = 1

// User extracts the tenant id from the X-User-ID header.
func User() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := DefaultUserID
		if raw := c.GetHeader("X-User-ID"); raw != "" {
			if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
				userID = parsed
			}
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the tenant id set by the User middleware.
func UserID(c *gin.Context) int64 {
	if id, ok := c.Get(userIDKey); ok {
		if userID, ok := id.(int64); ok {
			return userID
		}
	}
	return DefaultUserID
}

// Logging returns middleware that logs each request via slog.
func Logging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
		)
	}
}
