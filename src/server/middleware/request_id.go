package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// Context key for storing request ID
	RequestIDKey = "request_id"

	// Header names to check for existing request ID (in priority order)
	HeaderXRequestID     = "X-Request-ID"
	HeaderXRequestId     = "X-Request-Id"
	HeaderXCorrelationID = "X-Correlation-ID"
	HeaderXCorrelationId = "X-Correlation-Id"
	// Cloudflare request ID
	HeaderCFRay = "CF-Ray"
	// AWS request ID
	HeaderXAmznTraceID = "X-Amzn-Trace-Id"
	// Zipkin/B3 trace ID
	HeaderXB3TraceID = "X-B3-TraceId"
)

// RequestID extracts the inbound request ID, or generates a UUID when
// no proxy or upstream supplied one, and echoes it on the response so
// a single request can be correlated across logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := extractRequestID(c)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(HeaderXRequestID, requestID)

		c.Next()
	}
}

// extractRequestID tries the known request ID headers in priority order
func extractRequestID(c *gin.Context) string {
	headers := []string{
		HeaderXRequestID,
		HeaderXRequestId,
		HeaderXCorrelationID,
		HeaderXCorrelationId,
		HeaderCFRay,
		HeaderXAmznTraceID,
		HeaderXB3TraceID,
	}

	for _, header := range headers {
		if id := c.GetHeader(header); id != "" {
			return id
		}
	}

	return ""
}

// GetRequestID retrieves the request ID from the context.
// Returns empty string if not found.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		if requestID, ok := id.(string); ok {
			return requestID
		}
	}
	return ""
}
