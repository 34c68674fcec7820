package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"student_rideshare/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// UserIDKey is the context key holding the caller's user id
const UserIDKey = "userID"

// IdentityMiddleware resolves the caller. A Bearer token is verified when a
// secret is configured; otherwise the fixed development identity is used.
func IdentityMiddleware(secret, devUserID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		if secret != "" && strings.HasPrefix(authHeader, "Bearer ") {
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string
			claims, err := utils.ParseJWT(tokenStr, secret)       // Parse the JWT token
			if err != nil {
				// If parsing fails, abort with unauthorized status
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
				return
			}
			c.Set(UserIDKey, claims.UserID) // Store userID in context
			c.Next()
			return
		}
		if devUserID == "" {
			// No token and no fallback identity
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Missing or invalid Authorization header"})
			return
		}
		c.Set(UserIDKey, devUserID) // Fixed identity
		c.Next()
	}
}

// UserID returns the caller resolved by IdentityMiddleware
func UserID(c *gin.Context) (string, bool) {
	id := c.GetString(UserIDKey)
	return id, id != ""
}
