package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"student_rideshare/internal/domain"  // Importing domain models
	"student_rideshare/internal/service" // Ride request services

	"github.com/gin-gonic/gin" // Gin web framework
)

// CreateRequestHandler posts a new ride request owned by the caller
func CreateRequestHandler(requests *service.RequestService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := caller(c)
		if !ok {
			return
		}
		var in service.CreateRequestInput // Bind JSON request to struct
		if err := c.ShouldBindJSON(&in); err != nil {
			// Missing fields or wrong types
			badRequest(c, "From, to, date, time, carType and maxPersons are required")
			return
		}
		req, err := requests.Create(c.Request.Context(), userID, in)
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusCreated, "Request created successfully", req)
	}
}

// UpdateRequestHandler applies the owner's changes to a request
func UpdateRequestHandler(requests *service.RequestService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := caller(c)
		if !ok {
			return
		}
		var in service.UpdateRequestInput
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "Invalid request")
			return
		}
		req, err := requests.Update(c.Request.Context(), c.Param("id"), userID, in)
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, "Request updated successfully", req)
	}
}

// CancelRequestHandler cancels the caller's request
func CancelRequestHandler(requests *service.RequestService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := caller(c)
		if !ok {
			return
		}
		req, err := requests.Cancel(c.Request.Context(), c.Param("id"), userID)
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, "Request cancelled successfully", req)
	}
}

// AllRequestsHandler lists upcoming requests, active unless ?status= says otherwise
func AllRequestsHandler(queries *service.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := domain.RequestStatus(c.Query("status")) // Optional status filter
		page, err := queries.All(c.Request.Context(), status, pageFrom(c))
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, "Requests retrieved successfully", page)
	}
}

// SearchRequestsHandler searches other users' open requests
func SearchRequestsHandler(queries *service.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := caller(c)
		if !ok {
			return
		}
		criteria := service.SearchCriteria{
			From:    c.Query("from"),    // Origin contains
			To:      c.Query("to"),      // Destination contains
			Date:    c.Query("date"),    // Exact day
			CarType: c.Query("carType"), // Car type or "any"
		}
		if v := c.Query("maxPersons"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				badRequest(c, "maxPersons must be a number")
				return
			}
			criteria.MinPersons = n // Minimum capacity
		}
		page, err := queries.Search(c.Request.Context(), userID, criteria, pageFrom(c))
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, "Search completed successfully", page)
	}
}

// MyRequestsHandler lists the caller's own requests with their votes
func MyRequestsHandler(queries *service.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := caller(c)
		if !ok {
			return
		}
		requests, err := queries.Mine(c.Request.Context(), userID, domain.RequestStatus(c.Query("status")))
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, "Your requests retrieved successfully", requests)
	}
}

// GetRequestHandler returns one request with its owner and votes
func GetRequestHandler(queries *service.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := queries.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, "Request retrieved successfully", req)
	}
}
