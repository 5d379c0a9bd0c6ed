package models

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/apimgr/tripplanner/src/database"
	"github.com/apimgr/tripplanner/src/utils"
)

// UnscheduledBucket keys itinerary items without a start time when
// grouping by date
const UnscheduledBucket = "unscheduled"

// ItineraryItem is a timestamped, costed entry belonging to a trip
type ItineraryItem struct {
	ID               int64     `json:"id"`
	TripID           int64     `json:"trip_id"`
	CityID           *int64    `json:"city_id,omitempty"`
	ActivityID       *int64    `json:"activity_id,omitempty"`
	Title            string    `json:"title"`
	CityName         string    `json:"city_name,omitempty"`
	ActivityName     string    `json:"activity_name,omitempty"`
	Description      string    `json:"description,omitempty"`
	StartTime        string    `json:"start_time,omitempty"`
	EndTime          string    `json:"end_time,omitempty"`
	Location         string    `json:"location,omitempty"`
	Cost             *float64  `json:"cost,omitempty"`
	Category         string    `json:"category"`
	BookingReference string    `json:"booking_reference,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	OrderIndex       int       `json:"order_index"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DateBucket groups the items of one calendar day
type DateBucket struct {
	Date  string           `json:"date"`
	Items []*ItineraryItem `json:"items"`
}

// ItineraryModel handles itinerary database operations
type ItineraryModel struct {
	DB *sql.DB
}

const itineraryColumns = `i.id, i.trip_id, i.city_id, i.activity_id, i.title, c.name, a.name, i.description, i.start_time, i.end_time, i.location, i.cost, i.category, i.booking_reference, i.notes, i.order_index, i.created_at, i.updated_at`

const itineraryFrom = ` FROM itinerary_items i LEFT JOIN cities c ON c.id = i.city_id LEFT JOIN activities a ON a.id = i.activity_id`

func scanItineraryItem(row interface{ Scan(...interface{}) error }) (*ItineraryItem, error) {
	var item ItineraryItem
	var cityID, activityID sql.NullInt64
	var cityName, activityName sql.NullString
	var description, startTime, endTime, location, bookingRef, notes sql.NullString
	var cost sql.NullFloat64

	err := row.Scan(
		&item.ID,
		&item.TripID,
		&cityID,
		&activityID,
		&item.Title,
		&cityName,
		&activityName,
		&description,
		&startTime,
		&endTime,
		&location,
		&cost,
		&item.Category,
		&bookingRef,
		&notes,
		&item.OrderIndex,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if cityID.Valid {
		item.CityID = &cityID.Int64
	}
	if activityID.Valid {
		item.ActivityID = &activityID.Int64
	}
	if cityName.Valid {
		item.CityName = cityName.String
	}
	if activityName.Valid {
		item.ActivityName = activityName.String
	}
	if description.Valid {
		item.Description = description.String
	}
	if startTime.Valid {
		item.StartTime = startTime.String
	}
	if endTime.Valid {
		item.EndTime = endTime.String
	}
	if location.Valid {
		item.Location = location.String
	}
	if cost.Valid {
		item.Cost = &cost.Float64
	}
	if bookingRef.Valid {
		item.BookingReference = bookingRef.String
	}
	if notes.Valid {
		item.Notes = notes.String
	}

	return &item, nil
}

// ItineraryInput carries the fields accepted at creation
type ItineraryInput struct {
	TripID           int64    `json:"trip_id"`
	CityID           *int64   `json:"city_id"`
	ActivityID       *int64   `json:"activity_id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	StartTime        string   `json:"start_time"`
	EndTime          string   `json:"end_time"`
	Location         string   `json:"location"`
	Cost             *float64 `json:"cost"`
	Category         string   `json:"category"`
	BookingReference string   `json:"booking_reference"`
	Notes            string   `json:"notes"`
}

// ItineraryUpdate carries a partial update; nil fields are left
// untouched
type ItineraryUpdate struct {
	Title            *string  `json:"title"`
	CityID           *int64   `json:"city_id"`
	ActivityID       *int64   `json:"activity_id"`
	Description      *string  `json:"description"`
	StartTime        *string  `json:"start_time"`
	EndTime          *string  `json:"end_time"`
	Location         *string  `json:"location"`
	Cost             *float64 `json:"cost"`
	Category         *string  `json:"category"`
	BookingReference *string  `json:"booking_reference"`
	Notes            *string  `json:"notes"`
	OrderIndex       *int     `json:"order_index"`
}

// Create appends an item to a trip's itinerary
func (m *ItineraryModel) Create(ctx context.Context, input ItineraryInput) (*ItineraryItem, error) {
	category := input.Category
	if category == "" {
		category = "activity"
	}

	var id int64
	err := database.WithTransaction(ctx, m.DB, func(tx *sql.Tx) error {
		var next int
		if err := tx.QueryRow(
			`SELECT COALESCE(MAX(order_index), -1) + 1 FROM itinerary_items WHERE trip_id = ?`, input.TripID,
		).Scan(&next); err != nil {
			return fmt.Errorf("failed to compute item order: %w", err)
		}

		result, err := tx.Exec(`
			INSERT INTO itinerary_items (trip_id, city_id, activity_id, title, description, start_time, end_time, location, cost, category, booking_reference, notes, order_index)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, input.TripID, input.CityID, input.ActivityID, input.Title,
			nullString(input.Description), nullString(input.StartTime), nullString(input.EndTime),
			nullString(input.Location), input.Cost, category,
			nullString(input.BookingReference), nullString(input.Notes), next)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrTripNotFound
			}
			return fmt.Errorf("failed to create itinerary item: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get item ID: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return m.GetByID(ctx, id)
}

// GetByID retrieves an item joined with its city and activity names
func (m *ItineraryModel) GetByID(ctx context.Context, id int64) (*ItineraryItem, error) {
	row := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT `+itineraryColumns+itineraryFrom+` WHERE i.id = ?`, id)

	item, err := scanItineraryItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrItineraryItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get itinerary item: %w", err)
	}
	return item, nil
}

// TripOwner carries the owning trip columns needed for authorization
// and shared-page cache eviction
type TripOwner struct {
	UserID    int64
	PublicURL string
}

// GetWithOwner retrieves an item together with the owning trip's user
// ID and share token in a single join, for ownership checks
func (m *ItineraryModel) GetWithOwner(ctx context.Context, id int64) (*ItineraryItem, *TripOwner, error) {
	row := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect, `
		SELECT i.id, i.trip_id, i.city_id, i.activity_id, i.title, i.description, i.start_time, i.end_time, i.location, i.cost, i.category, i.booking_reference, i.notes, i.order_index, i.created_at, i.updated_at, t.user_id, t.public_url
		FROM itinerary_items i
		JOIN trips t ON t.id = i.trip_id
		WHERE i.id = ?`, id)

	var item ItineraryItem
	var owner TripOwner
	var publicURL sql.NullString
	var cityID, activityID sql.NullInt64
	var description, startTime, endTime, location, bookingRef, notes sql.NullString
	var cost sql.NullFloat64

	err := row.Scan(
		&item.ID,
		&item.TripID,
		&cityID,
		&activityID,
		&item.Title,
		&description,
		&startTime,
		&endTime,
		&location,
		&cost,
		&item.Category,
		&bookingRef,
		&notes,
		&item.OrderIndex,
		&item.CreatedAt,
		&item.UpdatedAt,
		&owner.UserID,
		&publicURL,
	)
	if err == sql.ErrNoRows {
		return nil, nil, ErrItineraryItemNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get itinerary item: %w", err)
	}
	if publicURL.Valid {
		owner.PublicURL = publicURL.String
	}

	if cityID.Valid {
		item.CityID = &cityID.Int64
	}
	if activityID.Valid {
		item.ActivityID = &activityID.Int64
	}
	if description.Valid {
		item.Description = description.String
	}
	if startTime.Valid {
		item.StartTime = startTime.String
	}
	if endTime.Valid {
		item.EndTime = endTime.String
	}
	if location.Valid {
		item.Location = location.String
	}
	if cost.Valid {
		item.Cost = &cost.Float64
	}
	if bookingRef.Valid {
		item.BookingReference = bookingRef.String
	}
	if notes.Valid {
		item.Notes = notes.String
	}

	return &item, &owner, nil
}

// ListByTrip returns a trip's items in their persisted order
func (m *ItineraryModel) ListByTrip(ctx context.Context, tripID int64) ([]*ItineraryItem, error) {
	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect,
		`SELECT `+itineraryColumns+itineraryFrom+` WHERE i.trip_id = ? ORDER BY i.start_time ASC, i.order_index ASC`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list itinerary: %w", err)
	}
	defer rows.Close()

	var items []*ItineraryItem
	for rows.Next() {
		item, err := scanItineraryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan itinerary item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GroupByDate buckets items by the calendar day of their start time.
// Items without a start time land in the unscheduled bucket, which
// sorts last.
func GroupByDate(items []*ItineraryItem) []DateBucket {
	grouped := make(map[string][]*ItineraryItem)
	for _, item := range items {
		key := UnscheduledBucket
		if item.StartTime != "" {
			if day := utils.DateOf(item.StartTime); day != "" {
				key = day
			}
		}
		grouped[key] = append(grouped[key], item)
	}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		if key != UnscheduledBucket {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if _, ok := grouped[UnscheduledBucket]; ok {
		keys = append(keys, UnscheduledBucket)
	}

	buckets := make([]DateBucket, 0, len(keys))
	for _, key := range keys {
		buckets = append(buckets, DateBucket{Date: key, Items: grouped[key]})
	}
	return buckets
}

// Update applies a partial update and bumps updated_at. Referenced
// cities and activities must exist.
func (m *ItineraryModel) Update(ctx context.Context, id int64, update ItineraryUpdate) (*ItineraryItem, error) {
	if update.CityID != nil {
		var exists int
		if err := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
			`SELECT COUNT(*) FROM cities WHERE id = ?`, *update.CityID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check city: %w", err)
		}
		if exists == 0 {
			return nil, ErrCityNotFound
		}
	}
	if update.ActivityID != nil {
		var exists int
		if err := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
			`SELECT COUNT(*) FROM activities WHERE id = ?`, *update.ActivityID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check activity: %w", err)
		}
		if exists == 0 {
			return nil, ErrActivityNotFound
		}
	}

	sets := []string{}
	args := []interface{}{}

	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.CityID != nil {
		sets = append(sets, "city_id = ?")
		args = append(args, *update.CityID)
	}
	if update.ActivityID != nil {
		sets = append(sets, "activity_id = ?")
		args = append(args, *update.ActivityID)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullString(*update.Description))
	}
	if update.StartTime != nil {
		sets = append(sets, "start_time = ?")
		args = append(args, nullString(*update.StartTime))
	}
	if update.EndTime != nil {
		sets = append(sets, "end_time = ?")
		args = append(args, nullString(*update.EndTime))
	}
	if update.Location != nil {
		sets = append(sets, "location = ?")
		args = append(args, nullString(*update.Location))
	}
	if update.Cost != nil {
		sets = append(sets, "cost = ?")
		args = append(args, *update.Cost)
	}
	if update.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *update.Category)
	}
	if update.BookingReference != nil {
		sets = append(sets, "booking_reference = ?")
		args = append(args, nullString(*update.BookingReference))
	}
	if update.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, nullString(*update.Notes))
	}
	if update.OrderIndex != nil {
		sets = append(sets, "order_index = ?")
		args = append(args, *update.OrderIndex)
	}

	if len(sets) == 0 {
		return m.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite,
		`UPDATE itinerary_items SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			if update.ActivityID != nil {
				return nil, ErrActivityNotFound
			}
			return nil, ErrCityNotFound
		}
		return nil, fmt.Errorf("failed to update itinerary item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return nil, ErrItineraryItemNotFound
	}

	return m.GetByID(ctx, id)
}

// Delete removes an item
func (m *ItineraryModel) Delete(ctx context.Context, id int64) error {
	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite,
		`DELETE FROM itinerary_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete itinerary item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrItineraryItemNotFound
	}
	return nil
}

// CountByTrip returns the number of items in a trip's itinerary
func (m *ItineraryModel) CountByTrip(ctx context.Context, tripID int64) (int, error) {
	var count int
	err := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT COUNT(*) FROM itinerary_items WHERE trip_id = ?`, tripID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count itinerary items: %w", err)
	}
	return count, nil
}

// Reorder rewrites the order of a trip's itinerary atomically. The ID
// list must name every item of the trip exactly once; any violation
// rolls the whole operation back.
func (m *ItineraryModel) Reorder(ctx context.Context, tripID int64, ids []int64) error {
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return ErrInvalidInput.WithMessage("duplicate itinerary item %d in reorder", id)
		}
		seen[id] = true
	}

	return database.WithTransaction(ctx, m.DB, func(tx *sql.Tx) error {
		var total int
		if err := tx.QueryRow(
			`SELECT COUNT(*) FROM itinerary_items WHERE trip_id = ?`, tripID,
		).Scan(&total); err != nil {
			return fmt.Errorf("failed to count items for reorder: %w", err)
		}
		if total != len(ids) {
			return ErrInvalidInput.WithMessage("reorder must list all %d itinerary items", total)
		}

		for position, id := range ids {
			result, err := tx.Exec(`
				UPDATE itinerary_items SET order_index = ?, updated_at = CURRENT_TIMESTAMP
				WHERE id = ? AND trip_id = ?
			`, position, id, tripID)
			if err != nil {
				return fmt.Errorf("failed to reorder item %d: %w", id, err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to check reorder result: %w", err)
			}
			if affected == 0 {
				return ErrItineraryItemNotFound.WithMessage("itinerary item %d does not belong to this trip", id)
			}
		}
		return nil
	})
}
