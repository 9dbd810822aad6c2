package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vxl-labs/glasscore/internal/observability"
)

const headerName = "X-API-Key"

// APIKeyMiddleware gates cmd/adminapi's /v1 routes behind a single shared
// key (spec §9: the admin REST surface is operator-only, unlike the
// glasses WebSocket which authenticates by physical pairing). An empty
// apiKey disables the check for local development.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(headerName)
		if provided == "" {
			observability.AdminAuthRejections.WithLabelValues("missing").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			slog.Warn("rejected admin API request", "path", c.Request.URL.Path, "ip", c.ClientIP())
			observability.AdminAuthRejections.WithLabelValues("invalid").Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid API key"})
			return
		}

		c.Next()
	}
}
