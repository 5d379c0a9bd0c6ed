package services

import (
	"context"
	"testing"

	"github.com/apimgr/tripplanner/src/server/model"
)

func TestTripServiceOwnership(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner@example.com")
	stranger := env.createUser(t, "stranger@example.com")
	admin := env.createAdmin(t, "admin@example.com")
	trip := env.createTrip(t, owner, "Private Trip")

	// A stranger sees ACCESS_DENIED everywhere
	_, err := env.tripSvc.Get(ctx, stranger, trip.ID)
	expectCode(t, err, models.ErrForbidden)

	title := "Hijacked"
	_, err = env.tripSvc.Update(ctx, stranger, trip.ID, models.TripUpdate{Title: &title})
	expectCode(t, err, models.ErrForbidden)

	err = env.tripSvc.Delete(ctx, stranger, trip.ID)
	expectCode(t, err, models.ErrForbidden)

	_, err = env.tripSvc.Share(ctx, stranger, trip.ID)
	expectCode(t, err, models.ErrForbidden)

	// The owner and an admin both pass
	if _, err := env.tripSvc.Get(ctx, owner, trip.ID); err != nil {
		t.Errorf("Owner access failed: %v", err)
	}
	if _, err := env.tripSvc.Get(ctx, admin, trip.ID); err != nil {
		t.Errorf("Admin access failed: %v", err)
	}
}

func TestTripServiceCreateValidation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "create@example.com")

	_, err := env.tripSvc.Create(ctx, user, models.TripInput{Title: "   "})
	expectCode(t, err, models.ErrMissingFields)

	_, err = env.tripSvc.Create(ctx, user, models.TripInput{
		Title:     "Backwards",
		StartDate: "2026-06-14",
		EndDate:   "2026-06-01",
	})
	expectCode(t, err, models.ErrInvalidDates)

	negative := -10.0
	_, err = env.tripSvc.Create(ctx, user, models.TripInput{Title: "Broke", Budget: &negative})
	expectCode(t, err, models.ErrValidationFailure)
}

func TestTripServiceStatusTransition(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "status@example.com")
	trip := env.createTrip(t, user, "Lifecycle Trip")

	completed := models.StatusCompleted
	_, err := env.tripSvc.Update(ctx, user, trip.ID, models.TripUpdate{Status: &completed})
	expectCode(t, err, models.ErrInvalidStatus)

	active := models.StatusActive
	updated, err := env.tripSvc.Update(ctx, user, trip.ID, models.TripUpdate{Status: &active})
	if err != nil {
		t.Fatalf("Update to active failed: %v", err)
	}
	if updated.Status != models.StatusActive {
		t.Errorf("Expected active, got %s", updated.Status)
	}

	if _, err := env.tripSvc.Update(ctx, user, trip.ID, models.TripUpdate{Status: &completed}); err != nil {
		t.Fatalf("Update to completed failed: %v", err)
	}
}

func TestTripServiceFeaturedFlagIsAdminOnly(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "feature@example.com")
	admin := env.createAdmin(t, "curator@example.com")
	trip := env.createTrip(t, user, "Showcase Trip")

	featured := true
	updated, err := env.tripSvc.Update(ctx, user, trip.ID, models.TripUpdate{Featured: &featured})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Featured {
		t.Error("Non-admins must not set the featured flag")
	}

	updated, err = env.tripSvc.Update(ctx, admin, trip.ID, models.TripUpdate{Featured: &featured})
	if err != nil {
		t.Fatalf("Admin update failed: %v", err)
	}
	if !updated.Featured {
		t.Error("Admin update must set the featured flag")
	}
}

func TestTripServiceShareFlow(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "sharer@example.com")
	trip := env.createTrip(t, user, "Public Trip")

	token, err := env.tripSvc.Share(ctx, user, trip.ID)
	if err != nil {
		t.Fatalf("Share failed: %v", err)
	}
	if len(token) < 20 {
		t.Errorf("Expected an opaque token of at least 20 characters, got %q", token)
	}

	detail, err := env.tripSvc.GetShared(ctx, token)
	if err != nil {
		t.Fatalf("GetShared failed: %v", err)
	}
	if detail.Trip.ID != trip.ID {
		t.Errorf("Expected trip %d, got %d", trip.ID, detail.Trip.ID)
	}
	// The public view withholds the owner's email
	if detail.Trip.OwnerEmail != "" {
		t.Error("Shared view must not expose the owner's email")
	}

	// Sharing again rotates the token
	rotated, err := env.tripSvc.Share(ctx, user, trip.ID)
	if err != nil {
		t.Fatalf("Second share failed: %v", err)
	}
	if rotated == token {
		t.Error("Sharing again must rotate the token")
	}
	_, err = env.tripSvc.GetShared(ctx, token)
	expectCode(t, err, models.ErrTripNotFound)

	// Making the trip private revokes the page
	private := false
	if _, err := env.tripSvc.Update(ctx, user, trip.ID, models.TripUpdate{IsPublic: &private}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	_, err = env.tripSvc.GetShared(ctx, rotated)
	expectCode(t, err, models.ErrTripNotFound)
}

func TestTripServiceAddCity(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "addcity@example.com")
	stranger := env.createUser(t, "nocity@example.com")
	trip := env.createTrip(t, user, "Route Trip")

	city, err := env.cities.Create(ctx, models.CityInput{Name: "Lisbon", Country: "Portugal"})
	if err != nil {
		t.Fatalf("Create city failed: %v", err)
	}

	_, err = env.tripSvc.AddCity(ctx, stranger, trip.ID, city.ID, "", "")
	expectCode(t, err, models.ErrForbidden)

	_, err = env.tripSvc.AddCity(ctx, user, trip.ID, city.ID, "not-a-date", "")
	expectCode(t, err, models.ErrInvalidDates)

	visit, err := env.tripSvc.AddCity(ctx, user, trip.ID, city.ID, "2026-06-01", "2026-06-05")
	if err != nil {
		t.Fatalf("AddCity failed: %v", err)
	}
	if visit.CityName != "Lisbon" {
		t.Errorf("Expected Lisbon, got %s", visit.CityName)
	}

	_, err = env.tripSvc.AddCity(ctx, user, trip.ID, city.ID, "", "")
	expectCode(t, err, models.ErrCityAlreadyInTrip)
}

func TestTripServicePublishesEvents(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "events@example.com")
	trip := env.createTrip(t, user, "Event Trip")

	events := env.sink.waitFor(t, 1)
	if events[0].Event != EventTripUpdate {
		t.Errorf("Expected %s event, got %s", EventTripUpdate, events[0].Event)
	}
	if events[0].Room != UserRoom(user.ID) {
		t.Errorf("Expected room %s, got %s", UserRoom(user.ID), events[0].Room)
	}
	if events[0].ID == "" {
		t.Error("Events must carry an ID")
	}

	if err := env.tripSvc.Delete(ctx, user, trip.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	events = env.sink.waitFor(t, 2)
	payload, ok := events[1].Payload.(TripEventPayload)
	if !ok {
		t.Fatalf("Expected TripEventPayload, got %T", events[1].Payload)
	}
	if payload.Type != TripDeleted {
		t.Errorf("Expected %s, got %s", TripDeleted, payload.Type)
	}
}

func TestTripServiceGetDetail(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "detail@example.com")
	trip := env.createTrip(t, user, "Detail Trip")

	city, err := env.cities.Create(ctx, models.CityInput{Name: "Porto", Country: "Portugal"})
	if err != nil {
		t.Fatalf("Create city failed: %v", err)
	}
	if _, err := env.tripSvc.AddCity(ctx, user, trip.ID, city.ID, "", ""); err != nil {
		t.Fatalf("AddCity failed: %v", err)
	}

	cost := 30.0
	if _, err := env.itinerary.CreateItem(ctx, user, models.ItineraryInput{
		TripID:    trip.ID,
		Title:     "Cellar tour",
		StartTime: "2026-06-02T11:00",
		Cost:      &cost,
	}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	detail, err := env.tripSvc.Get(ctx, user, trip.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(detail.Cities) != 1 {
		t.Errorf("Expected 1 city, got %d", len(detail.Cities))
	}
	if len(detail.Itinerary) != 1 || len(detail.Itinerary[0].Items) != 1 {
		t.Errorf("Expected 1 itinerary bucket with 1 item, got %+v", detail.Itinerary)
	}
	if detail.Itinerary[0].Date != "2026-06-02" {
		t.Errorf("Expected bucket 2026-06-02, got %s", detail.Itinerary[0].Date)
	}
	if detail.Stats == nil || detail.Stats.TotalCost != 30.0 {
		t.Errorf("Expected total cost 30, got %+v", detail.Stats)
	}
}
