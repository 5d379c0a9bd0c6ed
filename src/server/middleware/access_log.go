package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/tripplanner/src/utils"
)

// AccessLogger logs every HTTP request to the access log in combined
// format. The identity column carries the authenticated user's email
// when the auth middleware ran before this one resolved the response.
func AccessLogger(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)

		clientIP := c.ClientIP()
		method := c.Request.Method
		path := c.Request.URL.Path
		protocol := c.Request.Proto
		statusCode := c.Writer.Status()
		bodySize := int64(c.Writer.Size())
		referer := c.Request.Referer()
		userAgent := c.Request.UserAgent()

		identity := ""
		if user, ok := CurrentUser(c); ok {
			identity = user.Email
		}

		logger.Access(clientIP, identity, method, path, protocol, statusCode, bodySize, referer, userAgent)

		if duration > 1*time.Second {
			logger.Warn("Slow request: %s %s took %v", method, path, duration)
		}
	}
}
