package middleware

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"finance_tracker/internal/domain"  // Domain errors
	"finance_tracker/internal/session" // Server-side sessions
	"finance_tracker/internal/utils"   // JWT utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Context keys set by SessionAuthMiddleware
const (
	UserIDKey    = "userID"
	SessionIDKey = "sessionID"
)

// SessionAuthMiddleware requires a valid bearer token whose session is still live
// and binds the request to that session's user
func SessionAuthMiddleware(secret string, sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ParseJWT(tokenStr, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		userID, err := sessions.Lookup(c.Request.Context(), claims.ID)
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthenticated) {
				logrus.WithField("error", err.Error()).Error("Session lookup failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired or logged out"})
			return
		}
		// The token and the session must agree on who the caller is
		if userID != claims.UserID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(UserIDKey, userID)
		c.Set(SessionIDKey, claims.ID)
		c.Next()
	}
}

// CurrentUserID returns the user bound by SessionAuthMiddleware
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
