package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserIDHeader carries the caller's user ID.
const UserIDHeader = "X-User-ID"

const userIDKey = "userID"

// RequireUser rejects requests without a caller ID with 401 and stores the
// ID in the gin context.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + UserIDHeader + " header"})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

// UserID returns the caller ID stored by RequireUser, or "".
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
