package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strconv"  // Query parsing

	"student_rideshare/internal/domain"     // Error kinds
	"student_rideshare/internal/middleware" // Caller identity
	"student_rideshare/internal/service"    // Pagination

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Envelope is the body of every response
type Envelope struct {
	Success bool   `json:"success"`        // Whether the operation succeeded
	Message string `json:"message"`        // Human-readable outcome
	Data    any    `json:"data,omitempty"` // Payload on success
}

// respond writes a successful envelope
func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// statusFor maps an error kind to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrInvalidOperation),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail writes the error envelope. Storage and unknown errors are logged and
// never shown to the client.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	message := domain.Message(err, "Internal server error")
	if status == http.StatusInternalServerError {
		message = "Internal server error"
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method, // HTTP method
			"path":   c.FullPath(),     // Route pattern
			"error":  err.Error(),      // Underlying error
		}).Error("Request failed")
	}
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message})
}

// badRequest rejects a body or query that could not be bound
func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{Success: false, Message: message})
}

// caller returns the resolved user id or aborts with 401
func caller(c *gin.Context) (string, bool) {
	userID, ok := middleware.UserID(c) // Get userID from context
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{Success: false, Message: "Unauthorized"})
	}
	return userID, ok
}

// pageFrom reads page and limit (or page_size) from the query string.
// Bad values fall back to the defaults.
func pageFrom(c *gin.Context) service.Page {
	var p service.Page
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		p.Page = v // Set page if valid
	}
	limit := c.Query("limit")
	if limit == "" {
		limit = c.Query("page_size")
	}
	if v, err := strconv.Atoi(limit); err == nil {
		p.Limit = v // Capped by the query service
	}
	return p
}
