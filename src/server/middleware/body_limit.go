package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodySize caps request bodies at 10MB, enough headroom for
// the 5MB upload limit plus multipart framing
const DefaultMaxBodySize = 10 << 20

// BodySizeLimit rejects oversized request bodies before handlers read
// them. Reads past the cap fail with http.MaxBytesError.
func BodySizeLimit(maxSize int64) gin.HandlerFunc {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}

	return func(c *gin.Context) {
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			c.Next()
			return
		}

		// Content-Length is advisory; the reader below enforces the cap
		if c.Request.ContentLength > maxSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"message": "Request body too large",
				"error":   "BODY_TOO_LARGE",
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)

		c.Next()
	}
}
