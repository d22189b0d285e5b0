package middleware

import (
	"net/http"
	"strconv"

	"dailyrise_engine/pkg/logger"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// UserIdentity resolves the calling user from the X-User-ID header set by
// the product gateway. Requests without a parseable identity are rejected
// before any handler runs.
func UserIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			log.Info("rejecting request with malformed user identity")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user identity"})
			return
		}

		c.Set(userIDKey, id)
		c.Next()
	}
}

// UserID returns the identity set by UserIdentity. Zero means the
// middleware did not run for this route.
func UserID(c *gin.Context) int64 {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}
