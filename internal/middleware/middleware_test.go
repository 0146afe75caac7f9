package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Baaaki/instagallery/internal/authz"
	"github.com/Baaaki/instagallery/internal/models"
	"github.com/Baaaki/instagallery/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// fakeAuth accepts a fixed set of tokens
type fakeAuth map[string]authz.Principal

func (f fakeAuth) Authenticate(ctx context.Context, token string) authz.Principal {
	if p, ok := f[token]; ok {
		return p
	}
	return authz.Anonymous()
}

var tokens = fakeAuth{
	"user-token":  authz.User(7, models.RoleUser),
	"admin-token": authz.User(1, models.RoleAdmin),
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init(false)
}

func whoAmI(c *gin.Context) {
	if u, ok := authz.AsUser(PrincipalFrom(c)); ok {
		c.JSON(http.StatusOK, gin.H{"user_id": u.UserID, "token": TokenFrom(c)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"anonymous": true})
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	router := gin.New()
	router.GET("/me", AuthMiddleware(tokens), whoAmI)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized, "Authentication required"},
		{"bad scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, http.StatusUnauthorized, "Authentication required"},
		{"unknown token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, "Invalid or expired token"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer user-token") }, http.StatusOK, `"user_id":7`},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "user-token"}) }, http.StatusOK, `"token":"user-token"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)

			w := serve(router, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	router := gin.New()
	router.GET("/me", OptionalAuth(tokens), whoAmI)

	// Anonymous request passes
	w := serve(router, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")

	// Invalid token degrades to anonymous instead of failing
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer expired")
	w = serve(router, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w = serve(router, req)
	assert.Contains(t, w.Body.String(), `"user_id":1`)
}

func TestAdminMiddleware(t *testing.T) {
	router := gin.New()
	router.GET("/admin", AuthMiddleware(tokens), AdminMiddleware(), whoAmI)
	router.GET("/bare", AdminMiddleware(), whoAmI)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	assert.Equal(t, http.StatusForbidden, serve(router, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	assert.Equal(t, http.StatusOK, serve(router, req).Code)

	assert.Equal(t, http.StatusUnauthorized, serve(router, httptest.NewRequest(http.MethodGet, "/bare", nil)).Code)
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeaders(SecurityOptions{
		HSTS:         true,
		MediaOrigins: []string{"https://res.cloudinary.com"},
		MediaPrefix:  "/media/",
	}))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	router.GET("/media/:name", func(c *gin.Context) { c.String(http.StatusOK, "bytes") })

	w := serve(router, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "same-origin", w.Header().Get("Cross-Origin-Resource-Policy"))
	csp := w.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "frame-ancestors 'none'")
	assert.Contains(t, csp, "img-src 'self' https://res.cloudinary.com data:")
	assert.Contains(t, csp, "media-src 'self' https://res.cloudinary.com")
	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=31536000")

	media := serve(router, httptest.NewRequest(http.MethodGet, "/media/a.jpg", nil))
	assert.Equal(t, "cross-origin", media.Header().Get("Cross-Origin-Resource-Policy"))

	dev := gin.New()
	dev.Use(SecurityHeaders(SecurityOptions{}))
	dev.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	w = serve(dev, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "media-src 'self';")
}

func TestRequestIDAndLogger(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), RequestLogger())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := serve(router, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = serve(router, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
