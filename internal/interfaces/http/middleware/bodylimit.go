package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ordertrack/backend/internal/interfaces/http/dto"
)

// DefaultMaxBodySize bounds request bodies when no limit is configured.
// Marketplace webhooks carry whole orders, so it is generous.
const DefaultMaxBodySize int64 = 2 << 20

// BodyLimit returns a middleware that limits request body size. Declared
// oversize bodies are rejected up front; streamed ones fail on read.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				c.GetString(RequestIDKey),
			))
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
