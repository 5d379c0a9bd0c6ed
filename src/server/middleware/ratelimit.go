package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
)

const (
	// Global rate limit (all endpoints)
	GlobalRPS = 100

	// Auth rate limit (login, signup, password reset)
	// Tight window to slow down credential stuffing
	AuthRequestsPerWindow = 20
	AuthWindowDuration    = 15 * time.Minute

	// Admin rate limit
	AdminRequestsPerWindow = 120
	AdminWindowDuration    = 15 * time.Minute
)

var (
	globalLimiter *httprate.RateLimiter
	authLimiter   *httprate.RateLimiter
	adminLimiter  *httprate.RateLimiter
)

func init() {
	globalLimiter = httprate.NewRateLimiter(
		GlobalRPS,
		time.Second,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)

	authLimiter = httprate.NewRateLimiter(
		AuthRequestsPerWindow,
		AuthWindowDuration,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)

	adminLimiter = httprate.NewRateLimiter(
		AdminRequestsPerWindow,
		AdminWindowDuration,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

// GlobalRateLimit applies the per-IP global rate limit (100 req/s)
func GlobalRateLimit() gin.HandlerFunc {
	return wrapRateLimiter(globalLimiter, GlobalRPS, time.Second)
}

// AuthRateLimit applies the stricter limit for credential endpoints
func AuthRateLimit() gin.HandlerFunc {
	return wrapRateLimiter(authLimiter, AuthRequestsPerWindow, AuthWindowDuration)
}

// AdminRateLimit applies the admin panel rate limit
func AdminRateLimit() gin.HandlerFunc {
	return wrapRateLimiter(adminLimiter, AdminRequestsPerWindow, AdminWindowDuration)
}

// wrapRateLimiter adapts an httprate.RateLimiter to Gin
func wrapRateLimiter(limiter *httprate.RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		rateLimitExceeded := false

		handler := limiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if w.Header().Get("X-RateLimit-Remaining") == "0" {
				rateLimitExceeded = true
			}
			c.Next()
		}))

		writer := &rateLimitResponseWriter{
			ResponseWriter: c.Writer,
		}
		c.Writer = writer

		handler.ServeHTTP(writer, c.Request)

		if rateLimitExceeded {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"message":     "Too many requests. Please try again later.",
				"error":       "RATE_LIMITED",
				"retry_after": int(window.Seconds()),
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", writer.Header().Get("X-RateLimit-Limit"))
		c.Header("X-RateLimit-Remaining", writer.Header().Get("X-RateLimit-Remaining"))
		c.Header("X-RateLimit-Reset", writer.Header().Get("X-RateLimit-Reset"))
	}
}

// rateLimitResponseWriter suppresses the plain 429 body httprate writes
// so the JSON response above is the one the client sees
type rateLimitResponseWriter struct {
	gin.ResponseWriter
	statusCode int
}

func (w *rateLimitResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	if statusCode == http.StatusTooManyRequests {
		return
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *rateLimitResponseWriter) Write(b []byte) (int, error) {
	if w.statusCode == http.StatusTooManyRequests {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}
