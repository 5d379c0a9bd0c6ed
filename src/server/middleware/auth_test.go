package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	"github.com/apimgr/tripplanner/src/config"
	"github.com/apimgr/tripplanner/src/database"
	"github.com/apimgr/tripplanner/src/server/model"
	"github.com/apimgr/tripplanner/src/server/service"
)

func setupAuthTest(t *testing.T) (*models.UserModel, *services.TokenService, *models.User) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	if err := database.EnsureSchema(db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	users := &models.UserModel{DB: db}
	user, err := users.Create(context.Background(), "mw@example.com", "Middleware User", "password123")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	tokens := services.NewTokenService(config.JWTConfig{
		Secret:        "mw-access-secret",
		RefreshSecret: "mw-refresh-secret",
		TTL:           time.Hour,
		RefreshTTL:    24 * time.Hour,
	})

	return users, tokens, user
}

func protectedRouter(users *models.UserModel, tokens *services.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", RequireAuth(tokens, users), func(c *gin.Context) {
		user := MustCurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"email": user.Email})
	})
	router.GET("/admin", RequireAuth(tokens, users), RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func request(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	users, tokens, user := setupAuthTest(t)
	router := protectedRouter(users, tokens)

	access, err := tokens.IssueAccess(user)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	refresh, err := tokens.IssueRefresh(user)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + access, http.StatusOK},
		{"no header", "", http.StatusUnauthorized},
		{"malformed header", "Token " + access, http.StatusUnauthorized},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized},
		{"refresh on access path", "Bearer " + refresh, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := request(router, "/protected", tt.header); w.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestRequireAuthQueryFallback(t *testing.T) {
	users, tokens, user := setupAuthTest(t)
	router := protectedRouter(users, tokens)

	access, err := tokens.IssueAccess(user)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	// Websocket clients pass the token as a query parameter
	if w := request(router, "/protected?token="+access, ""); w.Code != http.StatusOK {
		t.Errorf("Expected 200 via query token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRequireAuthDeletedUser(t *testing.T) {
	users, tokens, user := setupAuthTest(t)
	router := protectedRouter(users, tokens)

	access, err := tokens.IssueAccess(user)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	if err := users.Delete(context.Background(), user.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// A token signed for a deleted account is an auth failure
	if w := request(router, "/protected", "Bearer "+access); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for deleted user, got %d", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	users, tokens, user := setupAuthTest(t)
	router := protectedRouter(users, tokens)

	access, err := tokens.IssueAccess(user)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	if w := request(router, "/admin", "Bearer "+access); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin, got %d", w.Code)
	}

	if err := users.UpdateRole(context.Background(), user.ID, models.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole failed: %v", err)
	}
	if w := request(router, "/admin", "Bearer "+access); w.Code != http.StatusOK {
		t.Errorf("Expected 200 for admin, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRequireDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/data", RequireDatabase(nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := request(router, "/data", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without a database, got %d", w.Code)
	}
}
