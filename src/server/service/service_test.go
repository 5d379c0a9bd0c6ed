package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/apimgr/tripplanner/src/config"
	"github.com/apimgr/tripplanner/src/database"
	"github.com/apimgr/tripplanner/src/server/model"
	"github.com/apimgr/tripplanner/src/utils"
)

// setupTestDB creates an in-memory SQLite database with the full schema
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// One connection only: each connection to :memory: is its own database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}
	if err := database.EnsureSchema(db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db
}

func testLogger(t *testing.T) *utils.Logger {
	t.Helper()

	logger, err := utils.NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create test logger: %v", err)
	}
	return logger
}

// captureSink records delivered events for assertions
type captureSink struct {
	mu     sync.Mutex
	events []*Event
}

func (s *captureSink) Deliver(event *Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) snapshot() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Event(nil), s.events...)
}

// waitFor polls until the sink holds at least n events
func (s *captureSink) waitFor(t *testing.T, n int) []*Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := s.snapshot(); len(events) >= n {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %d events, have %d", n, len(s.snapshot()))
	return nil
}

func newTestBus(t *testing.T, logger *utils.Logger) (*EventBus, *captureSink) {
	t.Helper()

	sink := &captureSink{}
	bus := NewEventBus(sink, logger)
	go bus.Run()
	t.Cleanup(bus.Stop)
	return bus, sink
}

// testEnv bundles the services under test with their backing stores
type testEnv struct {
	db     *sql.DB
	logger *utils.Logger
	sink   *captureSink

	users      *models.UserModel
	trips      *models.TripModel
	tripCities *models.TripCityModel
	items      *models.ItineraryModel
	cities     *models.CityModel
	activities *models.ActivityModel

	tokens    *TokenService
	auth      *AuthService
	tripSvc   *TripService
	itinerary *ItineraryService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	logger := testLogger(t)
	bus, sink := newTestBus(t, logger)
	shared := NewCacheManager(config.CacheConfig{Enabled: false})

	env := &testEnv{
		db:         db,
		logger:     logger,
		sink:       sink,
		users:      &models.UserModel{DB: db},
		trips:      &models.TripModel{DB: db},
		tripCities: &models.TripCityModel{DB: db},
		items:      &models.ItineraryModel{DB: db},
		cities:     &models.CityModel{DB: db},
		activities: &models.ActivityModel{DB: db},
	}

	env.tokens = NewTokenService(config.JWTConfig{
		Secret:        "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		TTL:           time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	env.auth = NewAuthService(env.users, &models.PasswordResetModel{DB: db}, env.tokens, logger)
	env.tripSvc = NewTripService(env.trips, env.tripCities, env.items, bus, shared, logger)
	env.itinerary = NewItineraryService(env.trips, env.items, env.activities, bus, shared, logger)

	return env
}

func (env *testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()

	user, err := env.users.Create(context.Background(), email, "Test User", "password123")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func (env *testEnv) createAdmin(t *testing.T, email string) *models.User {
	t.Helper()

	admin, err := env.users.Create(context.Background(), email, "Test Admin", "password123", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Failed to create admin: %v", err)
	}
	return admin
}

func (env *testEnv) createTrip(t *testing.T, owner *models.User, title string) *models.Trip {
	t.Helper()

	trip, err := env.tripSvc.Create(context.Background(), owner, models.TripInput{Title: title})
	if err != nil {
		t.Fatalf("Failed to create trip: %v", err)
	}
	return trip
}

// expectCode asserts that an error chain carries the given domain code
func expectCode(t *testing.T, err error, want *models.Error) {
	t.Helper()

	if err == nil {
		t.Fatalf("Expected error %s, got nil", want.Code)
	}
	if got := models.AsError(err); got.Code != want.Code {
		t.Errorf("Expected error code %s, got %s (%v)", want.Code, got.Code, err)
	}
}
