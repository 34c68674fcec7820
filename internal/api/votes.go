package api

import (
	"net/http" // HTTP status codes

	"student_rideshare/internal/domain"  // Importing domain models
	"student_rideshare/internal/service" // Vote engine

	"github.com/gin-gonic/gin" // Gin web framework
)

// VoteRequest is the body of a cast
type VoteRequest struct {
	Status string  `json:"status" binding:"required"` // accepted or rejected
	Note   *string `json:"note"`                      // Optional note to the owner
}

// CastVoteHandler records the caller's answer to a request
func CastVoteHandler(votes *service.VoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := caller(c)
		if !ok {
			return
		}
		var body VoteRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "Status is required")
			return
		}
		res, err := votes.CastVote(c.Request.Context(), c.Param("requestId"), userID, domain.VoteStatus(body.Status), body.Note)
		if err != nil {
			fail(c, err)
			return
		}
		message := "Vote recorded successfully"
		if res.Vote.Status == domain.VoteAccepted {
			message = "Vote accepted, contact details shared"
		}
		respond(c, http.StatusOK, message, res)
	}
}

// WithdrawVoteHandler deletes the caller's vote on a request
func WithdrawVoteHandler(votes *service.VoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := caller(c)
		if !ok {
			return
		}
		if err := votes.WithdrawVote(c.Request.Context(), c.Param("requestId"), userID); err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, "Vote removed successfully", nil)
	}
}

// RequestVotesHandler lists the votes on one of the caller's requests
func RequestVotesHandler(votes *service.VoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := caller(c)
		if !ok {
			return
		}
		list, err := votes.RequestVotes(c.Request.Context(), c.Param("requestId"), userID)
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, "Votes retrieved successfully", list)
	}
}

// MyVotesHandler lists the caller's votes
func MyVotesHandler(votes *service.VoteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := caller(c)
		if !ok {
			return
		}
		list, err := votes.MyVotes(c.Request.Context(), userID, domain.VoteStatus(c.Query("status")))
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, "Your votes retrieved successfully", list)
	}
}
