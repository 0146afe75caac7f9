package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Baaaki/instagallery/internal/authz"
	"github.com/Baaaki/instagallery/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	principalKey = "principal"
	tokenKey     = "token"

	// TokenCookie is the http-only cookie set on login
	TokenCookie = "token"
)

// Authenticator resolves a raw token into the caller's identity.
// Any failure yields authz.NoPrincipal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) authz.Principal
}

// AuthMiddleware rejects requests without a valid, live session
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Extract token from header or cookie
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		// 2. Validate token and session
		p := auth.Authenticate(c.Request.Context(), token)
		if _, ok := authz.AsUser(p); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		// 3. Add principal to context
		c.Set(principalKey, p)
		c.Set(tokenKey, token)

		c.Next()
	}
}

// OptionalAuth resolves the caller when a token is present and lets
// anonymous requests through
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := authz.Anonymous()
		if token := extractToken(c); token != "" {
			p = auth.Authenticate(c.Request.Context(), token)
			if _, ok := authz.AsUser(p); ok {
				c.Set(tokenKey, token)
			}
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := authz.AsUser(PrincipalFrom(c))
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		if user.Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// PrincipalFrom returns the identity stored by the auth middlewares,
// or NoPrincipal when none ran
func PrincipalFrom(c *gin.Context) authz.Principal {
	if v, exists := c.Get(principalKey); exists {
		if p, ok := v.(authz.Principal); ok {
			return p
		}
	}
	return authz.Anonymous()
}

// TokenFrom returns the raw token accepted by the auth middlewares
func TokenFrom(c *gin.Context) string {
	return c.GetString(tokenKey)
}

func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, found := strings.CutPrefix(header, "Bearer "); found {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}
