// Package middleware provides the gin middleware shared by the API routes
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/tripplanner/src/database"
	"github.com/apimgr/tripplanner/src/server/model"
	"github.com/apimgr/tripplanner/src/server/service"
)

// UserKey is the context key the auth middleware stores the
// authenticated *models.User under.
const UserKey = "user"

// RequireAuth validates the Authorization bearer token and loads the
// user it names into the request context. Requests without a valid
// access token are rejected with 401.
func RequireAuth(tokens *services.TokenService, users *models.UserModel) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			abortWithError(c, models.ErrMissingToken)
			return
		}

		claims, err := tokens.VerifyAccess(token)
		if err != nil {
			abortWithError(c, models.AsError(err))
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			// The token was signed for an account that has since been
			// deleted; treat it as an authentication failure.
			if models.IsNotFound(err) {
				abortWithError(c, models.ErrTokenUserNotFound)
				return
			}
			abortWithError(c, models.AsError(err))
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// RequireAdmin rejects requests whose authenticated user is not an
// admin. Must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsAdmin() {
			abortWithError(c, models.ErrInsufficientPrivileges)
			return
		}
		c.Next()
	}
}

// RequireDatabase rejects every request with 503 while the server runs
// without a configured database.
func RequireDatabase(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			abortWithError(c, models.ErrDatabaseUnconfigured)
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by RequireAuth
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

// MustCurrentUser returns the authenticated user, panicking if the
// route was wired without RequireAuth
func MustCurrentUser(c *gin.Context) *models.User {
	user, ok := CurrentUser(c)
	if !ok {
		panic("middleware: route requires RequireAuth")
	}
	return user
}

// extractBearerToken pulls the token out of the Authorization header.
// A token query parameter is accepted as a fallback for websocket
// clients that cannot set headers.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("token")
}

// abortWithError stops the chain and writes the domain error body
func abortWithError(c *gin.Context, err *models.Error) {
	c.AbortWithStatusJSON(err.Status, err)
}
