package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"waggle/services"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the caller's identity into the "user_id" context
// key. Two inputs are accepted:
//  1. Authorization: Bearer <session token> resolved against user_tokens
//  2. X-User-ID header (test environments only)
func AuthMiddleware(profiles *services.ProfileService, allowTestHeader bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if allowTestHeader {
			userIDHeader := c.GetHeader("X-User-ID")
			if userIDHeader != "" {
				userID, err := strconv.ParseInt(userIDHeader, 10, 64)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid X-User-ID format"})
					c.Abort()
					return
				}
				c.Set("user_id", userID)
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			userID, err := profiles.Authenticate(c.Request.Context(), token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				c.Abort()
				return
			}
			c.Set("user_id", userID)
			c.Next()
			return
		}

		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		c.Abort()
	}
}
