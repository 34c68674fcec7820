package api

import (
	"net/http" // HTTP status codes
	"time"     // Sweep reference time

	"student_rideshare/internal/middleware" // Caller identity key
	"student_rideshare/internal/service"    // Sweeper and user service

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// SweepHandler runs the expiry sweep on demand
func SweepHandler(sweeper *service.Sweeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := sweeper.Sweep(c.Request.Context(), time.Now())
		if err != nil {
			fail(c, err)
			return
		}
		// Log who triggered it
		logrus.WithFields(logrus.Fields{
			"user_id":   c.GetString(middleware.UserIDKey), // Admin user ID
			"expired":   res.Expired,                       // Requests expired
			"completed": res.Completed,                     // Requests completed
		}).Info("Manual sweep")
		respond(c, http.StatusOK, "Sweep completed", res)
	}
}

// AdminStatsHandler counts requests per status
func AdminStatsHandler(sweeper *service.Sweeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := sweeper.Stats(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, "Stats retrieved successfully", stats)
	}
}

// IncompleteProfilesHandler lists week-old accounts missing profile details
func IncompleteProfilesHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := users.IncompleteProfiles(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, "Incomplete profiles retrieved successfully", list)
	}
}
