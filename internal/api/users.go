package api

import (
	"net/http" // HTTP status codes

	"student_rideshare/internal/service" // User service

	"github.com/gin-gonic/gin" // Gin web framework
)

// ProfileHandler returns the caller's profile
func ProfileHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := caller(c)
		if !ok {
			return
		}
		user, err := users.Get(c.Request.Context(), userID)
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, "Profile retrieved successfully", user)
	}
}

// UpdateProfileHandler changes the caller's profile
func UpdateProfileHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := caller(c)
		if !ok {
			return
		}
		var in service.ProfileInput // Bind JSON request to struct
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		user, err := users.UpdateProfile(c.Request.Context(), userID, in)
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, "Profile updated successfully", user)
	}
}

// UserStatsHandler summarizes the caller's requests and votes
func UserStatsHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := caller(c)
		if !ok {
			return
		}
		stats, err := users.Stats(c.Request.Context(), userID)
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, "Stats retrieved successfully", stats)
	}
}

// DeleteUserHandler removes a user account (admin only)
func DeleteUserHandler(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := caller(c)
		if !ok {
			return
		}
		if err := users.Delete(c.Request.Context(), adminID, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, "User deleted successfully", nil)
	}
}
