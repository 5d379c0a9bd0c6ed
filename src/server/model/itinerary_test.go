package models

import (
	"context"
	"testing"
)

func TestItineraryCreateAssignsOrder(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "order@example.com")
	trip := createTestTrip(t, db, user.ID, "Order Trip")

	first := createTestItem(t, db, trip.ID, "First", "")
	second := createTestItem(t, db, trip.ID, "Second", "")
	third := createTestItem(t, db, trip.ID, "Third", "")

	if first.OrderIndex != 0 || second.OrderIndex != 1 || third.OrderIndex != 2 {
		t.Errorf("Expected order 0,1,2, got %d,%d,%d",
			first.OrderIndex, second.OrderIndex, third.OrderIndex)
	}
	if first.Category != "activity" {
		t.Errorf("Expected default category activity, got %s", first.Category)
	}

	m := &ItineraryModel{DB: db}
	_, err := m.Create(ctx, ItineraryInput{TripID: 9999, Title: "Orphan"})
	expectCode(t, err, ErrTripNotFound)
}

func TestItineraryListOrdersByStartTime(t *testing.T) {
	db := setupTestDB(t)
	m := &ItineraryModel{DB: db}
	ctx := context.Background()

	user := createTestUser(t, db, "listorder@example.com")
	trip := createTestTrip(t, db, user.ID, "List Trip")

	// Inserted out of chronological order on purpose
	createTestItem(t, db, trip.ID, "Evening", "2026-06-02T21:00")
	createTestItem(t, db, trip.ID, "Morning", "2026-06-02T09:00")
	createTestItem(t, db, trip.ID, "Afternoon", "2026-06-02T14:00")

	items, err := m.ListByTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("ListByTrip failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}

	want := []string{"Morning", "Afternoon", "Evening"}
	for i, title := range want {
		if items[i].Title != title {
			t.Errorf("Position %d: expected %s, got %s", i, title, items[i].Title)
		}
	}
}

func TestItineraryReorder(t *testing.T) {
	db := setupTestDB(t)
	m := &ItineraryModel{DB: db}
	ctx := context.Background()

	user := createTestUser(t, db, "reorder@example.com")
	trip := createTestTrip(t, db, user.ID, "Reorder Trip")

	// Unscheduled items so the persisted order decides the listing
	a := createTestItem(t, db, trip.ID, "A", "")
	b := createTestItem(t, db, trip.ID, "B", "")
	c := createTestItem(t, db, trip.ID, "C", "")

	if err := m.Reorder(ctx, trip.ID, []int64{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}

	items, err := m.ListByTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("ListByTrip failed: %v", err)
	}
	want := []string{"C", "A", "B"}
	for i, title := range want {
		if items[i].Title != title {
			t.Errorf("Position %d: expected %s, got %s", i, title, items[i].Title)
		}
	}
}

func TestItineraryReorderRejectsPartialAndForeign(t *testing.T) {
	db := setupTestDB(t)
	m := &ItineraryModel{DB: db}
	ctx := context.Background()

	user := createTestUser(t, db, "atomic@example.com")
	trip := createTestTrip(t, db, user.ID, "Atomic Trip")
	otherTrip := createTestTrip(t, db, user.ID, "Other Trip")

	a := createTestItem(t, db, trip.ID, "A", "")
	b := createTestItem(t, db, trip.ID, "B", "")
	foreign := createTestItem(t, db, otherTrip.ID, "Foreign", "")

	tests := []struct {
		name string
		ids  []int64
		want *Error
	}{
		{"missing item", []int64{a.ID}, ErrInvalidInput},
		{"duplicate id", []int64{a.ID, a.ID}, ErrInvalidInput},
		{"foreign item", []int64{foreign.ID, a.ID}, ErrItineraryItemNotFound},
		{"unknown id", []int64{9999, a.ID}, ErrItineraryItemNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Reorder(ctx, trip.ID, tt.ids)
			expectCode(t, err, tt.want)

			// A rejected reorder leaves every position untouched
			items, err := m.ListByTrip(ctx, trip.ID)
			if err != nil {
				t.Fatalf("ListByTrip failed: %v", err)
			}
			if items[0].ID != a.ID || items[1].ID != b.ID {
				t.Error("Failed reorder must not change the persisted order")
			}
		})
	}
}

func TestItineraryGroupByDate(t *testing.T) {
	items := []*ItineraryItem{
		{ID: 1, Title: "Late", StartTime: "2026-06-03T20:00"},
		{ID: 2, Title: "Someday"},
		{ID: 3, Title: "Early", StartTime: "2026-06-02T08:00"},
		{ID: 4, Title: "Mid", StartTime: "2026-06-02T12:00"},
	}

	buckets := GroupByDate(items)
	if len(buckets) != 3 {
		t.Fatalf("Expected 3 buckets, got %d", len(buckets))
	}
	if buckets[0].Date != "2026-06-02" || len(buckets[0].Items) != 2 {
		t.Errorf("Expected 2026-06-02 with 2 items, got %s with %d", buckets[0].Date, len(buckets[0].Items))
	}
	if buckets[1].Date != "2026-06-03" || len(buckets[1].Items) != 1 {
		t.Errorf("Expected 2026-06-03 with 1 item, got %s with %d", buckets[1].Date, len(buckets[1].Items))
	}
	if buckets[2].Date != UnscheduledBucket {
		t.Errorf("Expected unscheduled bucket last, got %s", buckets[2].Date)
	}
	if buckets[2].Items[0].Title != "Someday" {
		t.Errorf("Expected Someday in unscheduled bucket, got %s", buckets[2].Items[0].Title)
	}
}

func TestItineraryGroupByDateEmpty(t *testing.T) {
	if buckets := GroupByDate(nil); len(buckets) != 0 {
		t.Errorf("Expected no buckets for empty itinerary, got %d", len(buckets))
	}
}

func TestItineraryUpdatePartial(t *testing.T) {
	db := setupTestDB(t)
	m := &ItineraryModel{DB: db}
	ctx := context.Background()

	user := createTestUser(t, db, "update@example.com")
	trip := createTestTrip(t, db, user.ID, "Update Trip")
	item := createTestItem(t, db, trip.ID, "Original", "2026-06-02T10:00")

	title := "Renamed"
	cost := 25.0
	updated, err := m.Update(ctx, item.ID, ItineraryUpdate{Title: &title, Cost: &cost})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("Expected title Renamed, got %s", updated.Title)
	}
	if updated.Cost == nil || *updated.Cost != 25.0 {
		t.Errorf("Expected cost 25, got %v", updated.Cost)
	}
	// Untouched fields survive the partial update
	if updated.StartTime != "2026-06-02T10:00" {
		t.Errorf("Expected start time unchanged, got %s", updated.StartTime)
	}

	_, err = m.Update(ctx, 9999, ItineraryUpdate{Title: &title})
	expectCode(t, err, ErrItineraryItemNotFound)
}

func TestItineraryUpdateReferences(t *testing.T) {
	db := setupTestDB(t)
	m := &ItineraryModel{DB: db}
	ctx := context.Background()

	user := createTestUser(t, db, "refs@example.com")
	trip := createTestTrip(t, db, user.ID, "Refs Trip")
	item := createTestItem(t, db, trip.ID, "Unlinked", "")

	city := createTestCity(t, db, "Lisbon", "Portugal")
	activity := createTestActivity(t, db, city.ID, "Tram Ride", "transport")

	order := 7
	updated, err := m.Update(ctx, item.ID, ItineraryUpdate{
		CityID:     &city.ID,
		ActivityID: &activity.ID,
		OrderIndex: &order,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.CityID == nil || *updated.CityID != city.ID {
		t.Errorf("Expected city %d, got %v", city.ID, updated.CityID)
	}
	if updated.ActivityID == nil || *updated.ActivityID != activity.ID {
		t.Errorf("Expected activity %d, got %v", activity.ID, updated.ActivityID)
	}
	if updated.OrderIndex != 7 {
		t.Errorf("Expected order index 7, got %d", updated.OrderIndex)
	}

	missing := int64(9999)
	_, err = m.Update(ctx, item.ID, ItineraryUpdate{CityID: &missing})
	expectCode(t, err, ErrCityNotFound)

	_, err = m.Update(ctx, item.ID, ItineraryUpdate{ActivityID: &missing})
	expectCode(t, err, ErrActivityNotFound)
}

func TestItineraryGetJoinsNames(t *testing.T) {
	db := setupTestDB(t)
	m := &ItineraryModel{DB: db}
	ctx := context.Background()

	user := createTestUser(t, db, "joins@example.com")
	trip := createTestTrip(t, db, user.ID, "Joins Trip")

	city := createTestCity(t, db, "Kyoto", "Japan")
	activity := createTestActivity(t, db, city.ID, "Temple Walk", "activity")

	linked, err := m.Create(ctx, ItineraryInput{
		TripID:     trip.ID,
		CityID:     &city.ID,
		ActivityID: &activity.ID,
		Title:      "Linked",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	bare := createTestItem(t, db, trip.ID, "Bare", "")

	got, err := m.GetByID(ctx, linked.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.CityName != "Kyoto" {
		t.Errorf("Expected city name Kyoto, got %q", got.CityName)
	}
	if got.ActivityName != "Temple Walk" {
		t.Errorf("Expected activity name Temple Walk, got %q", got.ActivityName)
	}

	items, err := m.ListByTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("ListByTrip failed: %v", err)
	}
	for _, item := range items {
		switch item.ID {
		case linked.ID:
			if item.CityName != "Kyoto" || item.ActivityName != "Temple Walk" {
				t.Errorf("Expected joined names on linked item, got %q/%q", item.CityName, item.ActivityName)
			}
		case bare.ID:
			if item.CityName != "" || item.ActivityName != "" {
				t.Errorf("Expected empty names on unlinked item, got %q/%q", item.CityName, item.ActivityName)
			}
		}
	}
}

func TestItineraryGetWithOwner(t *testing.T) {
	db := setupTestDB(t)
	m := &ItineraryModel{DB: db}
	ctx := context.Background()

	user := createTestUser(t, db, "itemowner@example.com")
	trip := createTestTrip(t, db, user.ID, "Owner Trip")
	item := createTestItem(t, db, trip.ID, "Owned", "")

	got, owner, err := m.GetWithOwner(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetWithOwner failed: %v", err)
	}
	if got.ID != item.ID {
		t.Errorf("Expected item %d, got %d", item.ID, got.ID)
	}
	if owner.UserID != user.ID {
		t.Errorf("Expected owner %d, got %d", user.ID, owner.UserID)
	}
}

func TestItineraryDelete(t *testing.T) {
	db := setupTestDB(t)
	m := &ItineraryModel{DB: db}
	ctx := context.Background()

	user := createTestUser(t, db, "itemdelete@example.com")
	trip := createTestTrip(t, db, user.ID, "Delete Trip")
	item := createTestItem(t, db, trip.ID, "Short-lived", "")

	if err := m.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err := m.GetByID(ctx, item.ID)
	expectCode(t, err, ErrItineraryItemNotFound)

	err = m.Delete(ctx, item.ID)
	expectCode(t, err, ErrItineraryItemNotFound)
}
