package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// SecurityOptions configures SecurityHeaders
type SecurityOptions struct {
	// HSTS sends Strict-Transport-Security. Production only.
	HSTS bool
	// MediaOrigins are allowed as img-src and media-src next to 'self',
	// e.g. https://res.cloudinary.com
	MediaOrigins []string
	// MediaPrefix marks stored uploads, which other origins may embed
	MediaPrefix string
}

// SecurityHeaders sets the response headers shared by every route
func SecurityHeaders(opts SecurityOptions) gin.HandlerFunc {
	csp := contentSecurityPolicy(opts.MediaOrigins)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", csp)
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=()")

		if opts.MediaPrefix != "" && strings.HasPrefix(c.Request.URL.Path, opts.MediaPrefix) {
			h.Set("Cross-Origin-Resource-Policy", "cross-origin")
		} else {
			h.Set("Cross-Origin-Resource-Policy", "same-origin")
		}

		if opts.HSTS {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		}
		c.Next()
	}
}

func contentSecurityPolicy(mediaOrigins []string) string {
	media := strings.Join(append([]string{"'self'"}, mediaOrigins...), " ")
	return strings.Join([]string{
		"default-src 'self'",
		"script-src 'self'",
		"style-src 'self' 'unsafe-inline'",
		"img-src " + media + " data:",
		"media-src " + media,
		"connect-src 'self'",
		"frame-ancestors 'none'",
	}, "; ")
}

// RequestID reuses the caller's X-Request-ID or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" || len(rid) > 64 {
			rid = uuid.NewString()
		}
		c.Set("request_id", rid)
		c.Header(RequestIDHeader, rid)
		c.Next()
	}
}
