package middleware

import (
	"context"  // Context for the role lookup
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"student_rideshare/internal/domain" // Error kinds

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// AdminChecker decides whether a user holds the admin role
type AdminChecker interface {
	RequireAdmin(ctx context.Context, userID string) error
}

// AdminOnlyMiddleware checks the user's role from the database on each request
func AdminOnlyMiddleware(admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := UserID(c) // Get userID from context
		if !exists {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
			return
		}
		if err := admins.RequireAdmin(c.Request.Context(), userID); err != nil {
			if errors.Is(err, domain.ErrForbidden) {
				// Not an admin
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Admin access required"})
				return
			}
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Admin check failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
			return
		}
		// If admin, proceed to the next handler
		c.Next()
	}
}
