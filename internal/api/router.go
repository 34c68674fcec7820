package api

import (
	"context"  // Health check context
	"net/http" // HTTP status codes
	"time"     // Health check timeout

	"student_rideshare/internal/middleware" // Identity, admin and CORS middleware
	"student_rideshare/internal/service"    // Core services

	"github.com/gin-gonic/gin" // Gin web framework
)

// HealthChecker reports whether storage is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Services are the handlers' dependencies
type Services struct {
	Requests *service.RequestService
	Votes    *service.VoteService
	Queries  *service.QueryService
	Users    *service.UserService
	Sweeper  *service.Sweeper
	Health   HealthChecker
	Metrics  http.Handler // Prometheus endpoint, nil to skip
}

// RouterConfig carries the HTTP-level settings
type RouterConfig struct {
	JWTSecret      string
	DevUserID      string
	CORSOrigins    []string
	TrustedProxies []string
}

// NewRouter wires every route under /api/v1
func NewRouter(s Services, cfg RouterConfig) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.CORSMiddleware(cfg.CORSOrigins))

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	if s.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.Metrics)) // Prometheus scrape endpoint
	}

	v1 := r.Group("/api/v1")
	v1.GET("/health", HealthHandler(s.Health)) // Unauthenticated

	authed := v1.Group("")
	authed.Use(middleware.IdentityMiddleware(cfg.JWTSecret, cfg.DevUserID))

	// Request routes
	requests := authed.Group("/requests")
	requests.POST("", CreateRequestHandler(s.Requests))        // Create request
	requests.GET("/all", AllRequestsHandler(s.Queries))        // Upcoming requests
	requests.GET("/search", SearchRequestsHandler(s.Queries))  // Search other users' requests
	requests.GET("/my-requests", MyRequestsHandler(s.Queries)) // Caller's requests
	requests.GET("/:id", GetRequestHandler(s.Queries))         // Request details
	requests.PUT("/:id", UpdateRequestHandler(s.Requests))     // Update request
	requests.DELETE("/:id", CancelRequestHandler(s.Requests))  // Cancel request

	// Vote routes
	votes := authed.Group("/votes")
	votes.GET("/my-votes", MyVotesHandler(s.Votes))                // Caller's votes
	votes.GET("/request/:requestId", RequestVotesHandler(s.Votes)) // Votes on a request (owner only)
	votes.POST("/:requestId", CastVoteHandler(s.Votes))            // Cast or change a vote
	votes.DELETE("/:requestId", WithdrawVoteHandler(s.Votes))      // Withdraw a vote

	// User routes
	users := authed.Group("/users")
	users.GET("/profile", ProfileHandler(s.Users))                                            // Caller's profile
	users.PUT("/profile", UpdateProfileHandler(s.Users))                                      // Update profile
	users.GET("/stats", UserStatsHandler(s.Users))                                            // Caller's stats
	users.DELETE("/:id", middleware.AdminOnlyMiddleware(s.Users), DeleteUserHandler(s.Users)) // Delete a user

	// Admin routes (admin only)
	admin := authed.Group("/admin")
	admin.Use(middleware.AdminOnlyMiddleware(s.Users))
	admin.POST("/sweep", SweepHandler(s.Sweeper))                         // On-demand sweep
	admin.GET("/stats", AdminStatsHandler(s.Sweeper))                     // Requests per status
	admin.GET("/incomplete-profiles", IncompleteProfilesHandler(s.Users)) // Profiles missing details

	return r, nil
}

// HealthHandler pings storage
func HealthHandler(health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := health.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, Envelope{Success: false, Message: "Database unavailable"})
			return
		}
		respond(c, http.StatusOK, "OK", gin.H{"database": "up"})
	}
}
