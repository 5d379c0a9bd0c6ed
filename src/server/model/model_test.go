package models

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/apimgr/tripplanner/src/database"
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

func createTestUser(t *testing.T, db *sql.DB, email string) *User {
	t.Helper()

	m := &UserModel{DB: db}
	user, err := m.Create(context.Background(), email, "Test User", "password123")
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func createTestCity(t *testing.T, db *sql.DB, name, country string) *City {
	t.Helper()

	m := &CityModel{DB: db}
	city, err := m.Create(context.Background(), CityInput{Name: name, Country: country})
	if err != nil {
		t.Fatalf("Failed to create test city: %v", err)
	}
	return city
}

func createTestTrip(t *testing.T, db *sql.DB, userID int64, title string) *Trip {
	t.Helper()

	m := &TripModel{DB: db}
	trip, err := m.Create(context.Background(), userID, TripInput{Title: title})
	if err != nil {
		t.Fatalf("Failed to create test trip: %v", err)
	}
	return trip
}

func createTestItem(t *testing.T, db *sql.DB, tripID int64, title, startTime string) *ItineraryItem {
	t.Helper()

	m := &ItineraryModel{DB: db}
	item, err := m.Create(context.Background(), ItineraryInput{
		TripID:    tripID,
		Title:     title,
		StartTime: startTime,
	})
	if err != nil {
		t.Fatalf("Failed to create test itinerary item: %v", err)
	}
	return item
}

func createTestActivity(t *testing.T, db *sql.DB, cityID int64, name, category string) *Activity {
	t.Helper()

	m := &ActivityModel{DB: db}
	activity, err := m.Create(context.Background(), ActivityInput{
		CityID:   cityID,
		Name:     name,
		Category: category,
	})
	if err != nil {
		t.Fatalf("Failed to create test activity: %v", err)
	}
	return activity
}

// expectCode asserts that an error chain carries the given domain error
// code. WithMessage clones break pointer equality, so tests compare codes.
func expectCode(t *testing.T, err error, want *Error) {
	t.Helper()

	if err == nil {
		t.Fatalf("Expected error %s, got nil", want.Code)
	}
	if got := AsError(err); got.Code != want.Code {
		t.Errorf("Expected error code %s, got %s (%v)", want.Code, got.Code, err)
	}
}

func countRows(t *testing.T, db *sql.DB, table string, tripID int64) int {
	t.Helper()

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE trip_id = ?", table)
	if err := db.QueryRow(query, tripID).Scan(&count); err != nil {
		t.Fatalf("Failed to count %s rows: %v", table, err)
	}
	return count
}
