package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/apimgr/tripplanner/src/config"
	"github.com/apimgr/tripplanner/src/database"
	"github.com/apimgr/tripplanner/src/server/metrics"
	"github.com/apimgr/tripplanner/src/server/model"
	"github.com/apimgr/tripplanner/src/server/service"
	"github.com/apimgr/tripplanner/src/utils"
)

func init() {
	metrics.Init("test", "", "")
}

// setupRouter wires a full router over an in-memory database
func setupRouter(t *testing.T) *apiTester {
	t.Helper()

	raw, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	raw.SetMaxOpenConns(1)
	if _, err := raw.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}
	if err := database.EnsureSchema(raw); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	db := &database.DB{DB: raw}

	logger, err := utils.NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create test logger: %v", err)
	}

	cfg := &config.Config{
		Mode: config.ModeTest,
		JWT: config.JWTConfig{
			Secret:        "router-access-secret",
			RefreshSecret: "router-refresh-secret",
			TTL:           time.Hour,
			RefreshTTL:    24 * time.Hour,
		},
		CORS:    config.CORSConfig{Origin: "*"},
		Uploads: config.UploadConfig{Dir: t.TempDir(), MaxSize: 5 << 20},
		Cache:   config.CacheConfig{Enabled: false},
		LogDir:  t.TempDir(),
	}

	users := &models.UserModel{DB: db.DB}
	cities := &models.CityModel{DB: db.DB}
	activities := &models.ActivityModel{DB: db.DB}
	trips := &models.TripModel{DB: db.DB}
	tripCities := &models.TripCityModel{DB: db.DB}
	items := &models.ItineraryModel{DB: db.DB}
	resets := &models.PasswordResetModel{DB: db.DB}

	tokens := services.NewTokenService(cfg.JWT)
	catalog := services.NewCatalogCache()
	hub := services.NewWebSocketHub(logger)
	go hub.Run()
	t.Cleanup(hub.Stop)
	bus := services.NewEventBus(hub, logger)
	go bus.Run()
	t.Cleanup(bus.Stop)
	shared := services.NewCacheManager(cfg.Cache)

	deps := Deps{
		Config:     cfg,
		DB:         db,
		Logger:     logger,
		Version:    "test",
		Users:      users,
		Cities:     cities,
		Activities: activities,
		Tokens:     tokens,
		Auth:       services.NewAuthService(users, resets, tokens, logger),
		Trips:      services.NewTripService(trips, tripCities, items, bus, shared, logger),
		Itinerary:  services.NewItineraryService(trips, items, activities, bus, shared, logger),
		Admin:      services.NewAdminService(users, trips, cities, activities, db, hub, catalog, logger),
		Catalog:    catalog,
		Hub:        hub,
		Bus:        bus,
	}

	return &apiTester{t: t, router: NewRouter(deps), db: db}
}

type apiTester struct {
	t      *testing.T
	router http.Handler
	db     *database.DB
}

// do issues one request with an optional JSON body and bearer token
func (at *apiTester) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	at.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			at.t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	at.router.ServeHTTP(w, req)
	return w
}

func (at *apiTester) decode(w *httptest.ResponseRecorder, out interface{}) {
	at.t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		at.t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

// signup registers an account and returns its access token
func (at *apiTester) signup(name, email string) string {
	at.t.Helper()

	w := at.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"full_name": name,
		"email":     email,
		"password":  "hunter22",
	})
	if w.Code != http.StatusCreated {
		at.t.Fatalf("Signup returned %d: %s", w.Code, w.Body.String())
	}

	var result struct {
		Token string `json:"token"`
	}
	at.decode(w, &result)
	return result.Token
}

func (at *apiTester) createTrip(token, title string) int64 {
	at.t.Helper()

	w := at.do(http.MethodPost, "/api/trips", token, map[string]string{"title": title})
	if w.Code != http.StatusCreated {
		at.t.Fatalf("Create trip returned %d: %s", w.Code, w.Body.String())
	}

	var result struct {
		Trip struct {
			ID int64 `json:"id"`
		} `json:"trip"`
	}
	at.decode(w, &result)
	return result.Trip.ID
}

func TestSignupAndDuplicateEmail(t *testing.T) {
	at := setupRouter(t)

	w := at.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"full_name": "Ada",
		"email":     "ada@x.io",
		"password":  "hunter22",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var result struct {
		User struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
		Token string `json:"token"`
	}
	at.decode(w, &result)
	if result.User.ID == 0 || result.Token == "" {
		t.Errorf("Expected user id and token, got %+v", result)
	}

	// Same address again: 409 EMAIL_EXISTS
	w = at.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"full_name": "Ada2",
		"email":     "ada@x.io",
		"password":  "hunter22",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
	var fail struct {
		Error string `json:"error"`
	}
	at.decode(w, &fail)
	if fail.Error != "EMAIL_EXISTS" {
		t.Errorf("Expected EMAIL_EXISTS, got %s", fail.Error)
	}
}

func TestCreateTripRejectsBackwardsDates(t *testing.T) {
	at := setupRouter(t)
	token := at.signup("Ada", "dates@x.io")

	w := at.do(http.MethodPost, "/api/trips", token, map[string]string{
		"title":     "Japan",
		"startDate": "2025-04-10",
		"endDate":   "2025-04-01",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}
	var fail struct {
		Error string `json:"error"`
	}
	at.decode(w, &fail)
	if fail.Error != "INVALID_DATES" {
		t.Errorf("Expected INVALID_DATES, got %s", fail.Error)
	}
}

func TestShareLinkLifecycle(t *testing.T) {
	at := setupRouter(t)
	token := at.signup("Ada", "share@x.io")
	tripID := at.createTrip(token, "Shared Trip")

	w := at.do(http.MethodPost, fmt.Sprintf("/api/trips/%d/share", tripID), token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var share struct {
		PublicURL string `json:"publicUrl"`
		ShareURL  string `json:"shareUrl"`
	}
	at.decode(w, &share)
	if len(share.PublicURL) < 20 {
		t.Errorf("Expected publicUrl of at least 20 characters, got %q", share.PublicURL)
	}
	if share.ShareURL == "" {
		t.Error("Expected a full share URL")
	}

	// The shared page needs no auth
	w = at.do(http.MethodGet, "/api/trips/shared/"+share.PublicURL, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var detail struct {
		Trip struct {
			ID         int64  `json:"id"`
			Title      string `json:"title"`
			OwnerEmail string `json:"owner_email"`
		} `json:"trip"`
	}
	at.decode(w, &detail)
	if detail.Trip.ID != tripID {
		t.Errorf("Expected trip %d, got %d", tripID, detail.Trip.ID)
	}
	if detail.Trip.OwnerEmail != "" {
		t.Error("Shared view must not expose the owner's email")
	}

	// Revoking visibility kills the URL
	w = at.do(http.MethodPut, fmt.Sprintf("/api/trips/%d", tripID), token, map[string]interface{}{"is_public": false})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = at.do(http.MethodGet, "/api/trips/shared/"+share.PublicURL, "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after revocation, got %d", w.Code)
	}
}

func TestReorderItinerary(t *testing.T) {
	at := setupRouter(t)
	token := at.signup("Ada", "reorder@x.io")
	tripID := at.createTrip(token, "Reorder Trip")

	var ids []int64
	for _, title := range []string{"I1", "I2", "I3"} {
		w := at.do(http.MethodPost, fmt.Sprintf("/api/trips/%d/itinerary", tripID), token, map[string]string{"title": title})
		if w.Code != http.StatusCreated {
			t.Fatalf("Create item returned %d: %s", w.Code, w.Body.String())
		}
		var result struct {
			Item struct {
				ID int64 `json:"id"`
			} `json:"item"`
		}
		at.decode(w, &result)
		ids = append(ids, result.Item.ID)
	}

	reorder := map[string]interface{}{
		"items": []map[string]int64{{"id": ids[2]}, {"id": ids[0]}, {"id": ids[1]}},
	}
	w := at.do(http.MethodPut, fmt.Sprintf("/api/trips/%d/itinerary/reorder", tripID), token, reorder)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = at.do(http.MethodGet, fmt.Sprintf("/api/trips/%d/itinerary", tripID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var listing struct {
		Items []struct {
			ID         int64 `json:"id"`
			OrderIndex int   `json:"order_index"`
		} `json:"items"`
	}
	at.decode(w, &listing)
	if len(listing.Items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(listing.Items))
	}
	want := []int64{ids[2], ids[0], ids[1]}
	for i, item := range listing.Items {
		if item.ID != want[i] {
			t.Errorf("Position %d: expected item %d, got %d", i, want[i], item.ID)
		}
		if item.OrderIndex != i {
			t.Errorf("Position %d: expected order_index %d, got %d", i, i, item.OrderIndex)
		}
	}
}

func TestDeleteTripOwnership(t *testing.T) {
	at := setupRouter(t)
	ownerToken := at.signup("Ada", "owner@x.io")
	strangerToken := at.signup("Eve", "stranger@x.io")

	tripID := at.createTrip(ownerToken, "Guarded Trip")
	w := at.do(http.MethodPost, fmt.Sprintf("/api/trips/%d/itinerary", tripID), ownerToken, map[string]string{"title": "Item"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Create item returned %d", w.Code)
	}

	// A stranger's delete bounces and the trip survives
	w = at.do(http.MethodDelete, fmt.Sprintf("/api/trips/%d", tripID), strangerToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d: %s", w.Code, w.Body.String())
	}
	var fail struct {
		Error string `json:"error"`
	}
	at.decode(w, &fail)
	if fail.Error != "ACCESS_DENIED" {
		t.Errorf("Expected ACCESS_DENIED, got %s", fail.Error)
	}
	w = at.do(http.MethodGet, fmt.Sprintf("/api/trips/%d", tripID), ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Trip must survive a stranger's delete, got %d", w.Code)
	}

	// The owner's delete lands and takes the children with it
	w = at.do(http.MethodDelete, fmt.Sprintf("/api/trips/%d", tripID), ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = at.do(http.MethodGet, fmt.Sprintf("/api/trips/%d", tripID), ownerToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}

	for _, table := range []string{"itinerary_items", "trip_cities"} {
		var count int
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE trip_id = ?", table)
		if err := at.db.QueryRow(query, tripID).Scan(&count); err != nil {
			t.Fatalf("Failed to count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("Expected 0 rows in %s for the deleted trip, got %d", table, count)
		}
	}
}

func TestAuthRequiredAndAdminGate(t *testing.T) {
	at := setupRouter(t)
	token := at.signup("Ada", "gate@x.io")

	// No token: 401
	w := at.do(http.MethodGet, "/api/trips", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a token, got %d", w.Code)
	}

	// Garbage token: 401
	w = at.do(http.MethodGet, "/api/trips", "garbage", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with a bad token, got %d", w.Code)
	}

	// Regular users cannot reach admin routes
	w = at.do(http.MethodGet, "/api/admin/dashboard", token, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin, got %d: %s", w.Code, w.Body.String())
	}

	// Public catalog reads need no auth
	w = at.do(http.MethodGet, "/api/cities/search?q=paris", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for public search, got %d: %s", w.Code, w.Body.String())
	}

	// Catalog writes are admin-only
	w = at.do(http.MethodPost, "/api/cities", token, map[string]string{"name": "Paris", "country": "France"})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin city create, got %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	at := setupRouter(t)

	w := at.do(http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var health struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	at.decode(w, &health)
	if health.Status != "ok" {
		t.Errorf("Expected status ok, got %s", health.Status)
	}
	if health.Database != "ok" {
		t.Errorf("Expected database ok, got %s", health.Database)
	}
}

func TestVerifyEndpoint(t *testing.T) {
	at := setupRouter(t)
	token := at.signup("Ada", "verify@x.io")

	w := at.do(http.MethodGet, "/api/auth/verify", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result struct {
		Valid bool `json:"valid"`
		User  struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	at.decode(w, &result)
	if !result.Valid {
		t.Error("Expected valid=true")
	}
	if result.User.Email != "verify@x.io" {
		t.Errorf("Expected verify@x.io, got %s", result.User.Email)
	}
}
