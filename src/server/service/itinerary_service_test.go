package services

import (
	"context"
	"testing"

	"github.com/apimgr/tripplanner/src/server/model"
)

func TestItineraryServiceOwnership(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "iowner@example.com")
	stranger := env.createUser(t, "istranger@example.com")
	admin := env.createAdmin(t, "iadmin@example.com")
	trip := env.createTrip(t, owner, "Itinerary Trip")

	item, err := env.itinerary.CreateItem(ctx, owner, models.ItineraryInput{
		TripID: trip.ID,
		Title:  "Guarded item",
	})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	_, err = env.itinerary.CreateItem(ctx, stranger, models.ItineraryInput{TripID: trip.ID, Title: "Sneaky"})
	expectCode(t, err, models.ErrForbidden)

	_, err = env.itinerary.GetItem(ctx, stranger, item.ID)
	expectCode(t, err, models.ErrForbidden)

	err = env.itinerary.DeleteItem(ctx, stranger, item.ID)
	expectCode(t, err, models.ErrForbidden)

	_, err = env.itinerary.ListForTrip(ctx, stranger, trip.ID, "")
	expectCode(t, err, models.ErrForbidden)

	// Admins pass the ownership check
	if _, err := env.itinerary.GetItem(ctx, admin, item.ID); err != nil {
		t.Errorf("Admin access failed: %v", err)
	}
}

func TestItineraryServiceValidation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "ivalid@example.com")
	trip := env.createTrip(t, user, "Valid Trip")

	tests := []struct {
		name  string
		input models.ItineraryInput
		want  *models.Error
	}{
		{"empty title", models.ItineraryInput{TripID: trip.ID, Title: "  "}, models.ErrMissingFields},
		{"bad start", models.ItineraryInput{TripID: trip.ID, Title: "X", StartTime: "whenever"}, models.ErrInvalidDates},
		{"end before start", models.ItineraryInput{TripID: trip.ID, Title: "X", StartTime: "2026-06-02T14:00", EndTime: "2026-06-02T10:00"}, models.ErrInvalidDates},
		{"bad category", models.ItineraryInput{TripID: trip.ID, Title: "X", Category: "safari"}, models.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.itinerary.CreateItem(ctx, user, tt.input)
			expectCode(t, err, tt.want)
		})
	}

	negative := -5.0
	_, err := env.itinerary.CreateItem(ctx, user, models.ItineraryInput{TripID: trip.ID, Title: "X", Cost: &negative})
	expectCode(t, err, models.ErrValidationFailure)
}

func TestItineraryServiceCategoryFilter(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "ifilter@example.com")
	trip := env.createTrip(t, user, "Filter Trip")

	if _, err := env.itinerary.CreateItem(ctx, user, models.ItineraryInput{TripID: trip.ID, Title: "Flight in", Category: "flight"}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if _, err := env.itinerary.CreateItem(ctx, user, models.ItineraryInput{TripID: trip.ID, Title: "Dinner", Category: "restaurant"}); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	flights, err := env.itinerary.ListForTrip(ctx, user, trip.ID, "flight")
	if err != nil {
		t.Fatalf("ListForTrip failed: %v", err)
	}
	if len(flights) != 1 || flights[0].Title != "Flight in" {
		t.Errorf("Expected only the flight, got %v", flights)
	}

	_, err = env.itinerary.ListForTrip(ctx, user, trip.ID, "safari")
	expectCode(t, err, models.ErrInvalidInput)
}

func TestItineraryServiceReorder(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "ireorder@example.com")
	stranger := env.createUser(t, "ireorder2@example.com")
	trip := env.createTrip(t, user, "Reorder Trip")

	a, _ := env.itinerary.CreateItem(ctx, user, models.ItineraryInput{TripID: trip.ID, Title: "A"})
	b, _ := env.itinerary.CreateItem(ctx, user, models.ItineraryInput{TripID: trip.ID, Title: "B"})
	if a == nil || b == nil {
		t.Fatal("Failed to create items")
	}

	_, err := env.itinerary.Reorder(ctx, stranger, trip.ID, []int64{b.ID, a.ID})
	expectCode(t, err, models.ErrForbidden)

	_, err = env.itinerary.Reorder(ctx, user, trip.ID, nil)
	expectCode(t, err, models.ErrInvalidInput)

	items, err := env.itinerary.Reorder(ctx, user, trip.ID, []int64{b.ID, a.ID})
	if err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}
	if items[0].ID != b.ID || items[1].ID != a.ID {
		t.Errorf("Expected order B,A, got %v,%v", items[0].Title, items[1].Title)
	}
}

func TestItineraryServiceAddActivity(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "iactivity@example.com")
	trip := env.createTrip(t, user, "Activity Trip")

	city, err := env.cities.Create(ctx, models.CityInput{Name: "Athens", Country: "Greece"})
	if err != nil {
		t.Fatalf("Create city failed: %v", err)
	}
	costMin := 20.0
	activity, err := env.activities.Create(ctx, models.ActivityInput{
		CityID:   city.ID,
		Name:     "Acropolis tour",
		Category: "activity",
		CostMin:  &costMin,
	})
	if err != nil {
		t.Fatalf("Create activity failed: %v", err)
	}

	item, err := env.itinerary.AddActivity(ctx, user, trip.ID, activity.ID, ItinerarySchedule{
		StartTime: "2026-09-10T09:00",
	})
	if err != nil {
		t.Fatalf("AddActivity failed: %v", err)
	}
	if item.Title != "Acropolis tour" {
		t.Errorf("Expected title from the catalog, got %s", item.Title)
	}
	if item.ActivityID == nil || *item.ActivityID != activity.ID {
		t.Errorf("Expected activity link %d, got %v", activity.ID, item.ActivityID)
	}
	// Catalog cost fills in when the schedule carries none
	if item.Cost == nil || *item.Cost != 20.0 {
		t.Errorf("Expected cost 20 from the catalog, got %v", item.Cost)
	}

	_, err = env.itinerary.AddActivity(ctx, user, trip.ID, 9999, ItinerarySchedule{})
	expectCode(t, err, models.ErrActivityNotFound)
}

func TestItineraryServiceUpdateItem(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "iupdate@example.com")
	trip := env.createTrip(t, user, "Update Trip")

	item, err := env.itinerary.CreateItem(ctx, user, models.ItineraryInput{
		TripID:    trip.ID,
		Title:     "Original",
		StartTime: "2026-06-02T10:00",
		EndTime:   "2026-06-02T12:00",
	})
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	// Moving only the end before the existing start must fail
	badEnd := "2026-06-02T08:00"
	_, err = env.itinerary.UpdateItem(ctx, user, item.ID, models.ItineraryUpdate{EndTime: &badEnd})
	expectCode(t, err, models.ErrInvalidDates)

	empty := " "
	_, err = env.itinerary.UpdateItem(ctx, user, item.ID, models.ItineraryUpdate{Title: &empty})
	expectCode(t, err, models.ErrValidationFailure)

	title := "Renamed"
	updated, err := env.itinerary.UpdateItem(ctx, user, item.ID, models.ItineraryUpdate{Title: &title})
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("Expected Renamed, got %s", updated.Title)
	}
}
