package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig defines CORS configuration options.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig returns CORS configuration for the given origins.
// Credentials are only allowed when the origin list is explicit.
func DefaultCORSConfig(origins ...string) CORSConfig {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Accept",
			"Origin",
			"Cache-Control",
			"X-Requested-With",
			"Sec-WebSocket-Protocol",
		},
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           12 * time.Hour,
	}
}

// CORS creates a CORS middleware with the provided configuration.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}

// OriginAllowed reports whether origin passes the CORS origin list. A
// request without an Origin header only passes an explicit list.
func (cfg CORSConfig) OriginAllowed(origin string) bool {
	if origin == "" {
		return !slices.Contains(cfg.AllowOrigins, "*")
	}
	return OriginIn(cfg.AllowOrigins, origin)
}

// OriginIn reports whether origin matches an entry of origins exactly or
// origins contains "*".
func OriginIn(origins []string, origin string) bool {
	for _, o := range origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
