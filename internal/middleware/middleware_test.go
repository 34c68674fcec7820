package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"student_rideshare/internal/domain"
	"student_rideshare/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func whoami(c *gin.Context) {
	id, _ := UserID(c)
	c.String(http.StatusOK, id)
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	r.ServeHTTP(w, req)
	return w
}

func TestIdentityMiddleware_DevIdentity(t *testing.T) {
	r := gin.New()
	r.GET("/me", IdentityMiddleware("", "dev-user"), whoami)

	w := serve(r, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dev-user", w.Body.String())
}

func TestIdentityMiddleware_Token(t *testing.T) {
	r := gin.New()
	r.GET("/me", IdentityMiddleware("s3cret", "dev-user"), whoami)

	token, err := utils.GenerateJWT("user-42", "s3cret", time.Hour)
	require.NoError(t, err)

	w := serve(r, http.MethodGet, "/me", http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-42", w.Body.String())

	w = serve(r, http.MethodGet, "/me", http.Header{"Authorization": {"Bearer nope"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Without a token the fixed identity still applies.
	w = serve(r, http.MethodGet, "/me", nil)
	assert.Equal(t, "dev-user", w.Body.String())
}

func TestIdentityMiddleware_NoIdentity(t *testing.T) {
	r := gin.New()
	r.GET("/me", IdentityMiddleware("s3cret", ""), whoami)

	w := serve(r, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type fakeAdmins map[string]error

func (f fakeAdmins) RequireAdmin(_ context.Context, userID string) error {
	return f[userID]
}

func TestAdminOnlyMiddleware(t *testing.T) {
	admins := fakeAdmins{
		"student": domain.Forbidden("Admin access required"),
		"broken":  errors.New("connection refused"),
	}
	for _, tt := range []struct {
		user string
		want int
	}{
		{"admin", http.StatusOK},
		{"student", http.StatusForbidden},
		{"broken", http.StatusInternalServerError},
	} {
		r := gin.New()
		r.GET("/admin", IdentityMiddleware("", tt.user), AdminOnlyMiddleware(admins), whoami)
		w := serve(r, http.MethodGet, "/admin", nil)
		assert.Equal(t, tt.want, w.Code, tt.user)
	}

	r := gin.New()
	r.GET("/admin", AdminOnlyMiddleware(admins), whoami)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/admin", nil).Code)
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example.edu"}))
	r.GET("/x", whoami)

	w := serve(r, http.MethodGet, "/x", http.Header{"Origin": {"https://app.example.edu"}})
	assert.Equal(t, "https://app.example.edu", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodGet, "/x", http.Header{"Origin": {"https://evil.example"}})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodOptions, "/x", http.Header{"Origin": {"https://app.example.edu"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
}
