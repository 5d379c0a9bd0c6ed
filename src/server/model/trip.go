package models

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/apimgr/tripplanner/src/database"
)

// Trip status values
const (
	StatusPlanning  = "planning"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// TripStatuses is the closed status set in lifecycle order
var TripStatuses = []string{StatusPlanning, StatusActive, StatusCompleted, StatusCancelled}

// ValidStatus reports whether a status belongs to the closed set
func ValidStatus(status string) bool {
	switch status {
	case StatusPlanning, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a status change is legal. The chain is
// planning -> active -> completed, with cancelled reachable from any
// non-terminal state. Keeping the current status is always allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusPlanning:
		return to == StatusActive || to == StatusCancelled
	case StatusActive:
		return to == StatusCompleted || to == StatusCancelled
	}
	return false
}

// Trip is an owner-scoped travel plan
type Trip struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	StartDate      string    `json:"start_date,omitempty"`
	EndDate        string    `json:"end_date,omitempty"`
	Budget         *float64  `json:"budget,omitempty"`
	Status         string    `json:"status"`
	IsPublic       bool      `json:"is_public"`
	PublicURL      string    `json:"public_url,omitempty"`
	CoverPhotoPath string    `json:"cover_photo_path,omitempty"`
	Featured       bool      `json:"featured"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	OwnerName  string `json:"owner_name,omitempty"`
	OwnerEmail string `json:"owner_email,omitempty"`
}

// TripSummary is a trip enriched with rollups for list views
type TripSummary struct {
	Trip
	CityCount     int      `json:"city_count"`
	ActivityCount int      `json:"activity_count"`
	TotalCost     float64  `json:"total_cost"`
	Cities        []string `json:"cities"`
	Countries     []string `json:"countries"`
}

// CategoryCost is one slice of a trip's cost breakdown
type CategoryCost struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// TripStats aggregates a trip's itinerary
type TripStats struct {
	TripID        int64   `json:"trip_id"`
	CityCount     int     `json:"city_count"`
	ItemCount     int     `json:"item_count"`
	TotalCost     float64 `json:"total_cost"`
	ScheduledDays int     `json:"scheduled_days"`
	FirstDay      string  `json:"first_day,omitempty"`
	LastDay       string  `json:"last_day,omitempty"`
}

// TripModel handles trip database operations
type TripModel struct {
	DB *sql.DB
}

const tripColumns = `t.id, t.user_id, t.title, t.description, t.start_date, t.end_date, t.budget, t.status, t.is_public, t.public_url, t.cover_photo_path, t.featured, t.created_at, t.updated_at`

func scanTrip(row interface{ Scan(...interface{}) error }, withOwner bool) (*Trip, error) {
	var trip Trip
	var description, startDate, endDate, publicURL, coverPhoto sql.NullString
	var budget sql.NullFloat64

	dest := []interface{}{
		&trip.ID,
		&trip.UserID,
		&trip.Title,
		&description,
		&startDate,
		&endDate,
		&budget,
		&trip.Status,
		&trip.IsPublic,
		&publicURL,
		&coverPhoto,
		&trip.Featured,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	}
	if withOwner {
		dest = append(dest, &trip.OwnerName, &trip.OwnerEmail)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if description.Valid {
		trip.Description = description.String
	}
	if startDate.Valid {
		trip.StartDate = startDate.String
	}
	if endDate.Valid {
		trip.EndDate = endDate.String
	}
	if budget.Valid {
		trip.Budget = &budget.Float64
	}
	if publicURL.Valid {
		trip.PublicURL = publicURL.String
	}
	if coverPhoto.Valid {
		trip.CoverPhotoPath = coverPhoto.String
	}

	return &trip, nil
}

// TripInput carries the fields accepted at creation
type TripInput struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date"`
	Budget         *float64 `json:"budget"`
	IsPublic       bool     `json:"is_public"`
	CoverPhotoPath string   `json:"cover_photo_path"`
}

// TripUpdate carries a partial update; nil fields are left untouched
type TripUpdate struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	StartDate      *string  `json:"start_date"`
	EndDate        *string  `json:"end_date"`
	Budget         *float64 `json:"budget"`
	Status         *string  `json:"status"`
	IsPublic       *bool    `json:"is_public"`
	CoverPhotoPath *string  `json:"cover_photo_path"`
	Featured       *bool    `json:"featured"`
}

// Create inserts a trip owned by the given user
func (m *TripModel) Create(ctx context.Context, userID int64, input TripInput) (*Trip, error) {
	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite, `
		INSERT INTO trips (user_id, title, description, start_date, end_date, budget, is_public, cover_photo_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, userID, input.Title, nullString(input.Description), nullString(input.StartDate), nullString(input.EndDate), input.Budget, input.IsPublic, nullString(input.CoverPhotoPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	tripID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get trip ID: %w", err)
	}

	return m.GetByID(ctx, tripID)
}

// GetByID retrieves a trip joined with its owner's name and email
func (m *TripModel) GetByID(ctx context.Context, id int64) (*Trip, error) {
	row := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT `+tripColumns+`, u.full_name, u.email
		 FROM trips t JOIN users u ON u.id = t.user_id
		 WHERE t.id = ?`, id)

	trip, err := scanTrip(row, true)
	if err == sql.ErrNoRows {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// GetByPublicURL retrieves a shared trip by its public token. Trips
// whose sharing has been revoked are treated as absent.
func (m *TripModel) GetByPublicURL(ctx context.Context, publicURL string) (*Trip, error) {
	row := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT `+tripColumns+`, u.full_name, u.email
		 FROM trips t JOIN users u ON u.id = t.user_id
		 WHERE t.public_url = ? AND t.is_public = 1`, publicURL)

	trip, err := scanTrip(row, true)
	if err == sql.ErrNoRows {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shared trip: %w", err)
	}
	return trip, nil
}

const tripRollups = `,
	(SELECT COUNT(*) FROM trip_cities tc WHERE tc.trip_id = t.id) AS city_count,
	(SELECT COUNT(*) FROM itinerary_items ii WHERE ii.trip_id = t.id) AS activity_count,
	(SELECT COALESCE(SUM(ii.cost), 0) FROM itinerary_items ii WHERE ii.trip_id = t.id) AS total_cost`

// ListByUser returns a user's trips enriched with counts, total cost
// and the deduplicated city and country lists
func (m *TripModel) ListByUser(ctx context.Context, userID int64, status string, limit, offset int) ([]*TripSummary, error) {
	query := `SELECT ` + tripColumns + tripRollups + ` FROM trips t WHERE t.user_id = ?`
	args := []interface{}{userID}

	if status != "" {
		query += ` AND t.status = ?`
		args = append(args, status)
	}

	query += ` ORDER BY t.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	summaries, err := collectTripSummaries(rows)
	if err != nil {
		return nil, err
	}

	if err := m.attachCityLists(ctx, summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// attachCityLists fills the Cities and Countries slices of the given
// summaries with one batched query
func (m *TripModel) attachCityLists(ctx context.Context, summaries []*TripSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	byID := make(map[int64]*TripSummary, len(summaries))
	placeholders := make([]string, 0, len(summaries))
	args := make([]interface{}, 0, len(summaries))
	for _, s := range summaries {
		byID[s.ID] = s
		placeholders = append(placeholders, "?")
		args = append(args, s.ID)
		s.Cities = []string{}
		s.Countries = []string{}
	}

	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect, `
		SELECT tc.trip_id, c.name, c.country
		FROM trip_cities tc
		JOIN cities c ON c.id = tc.city_id
		WHERE tc.trip_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY tc.trip_id, tc.order_index
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to load trip cities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tripID int64
		var cityName, country string
		if err := rows.Scan(&tripID, &cityName, &country); err != nil {
			return fmt.Errorf("failed to scan trip city: %w", err)
		}
		summary, ok := byID[tripID]
		if !ok {
			continue
		}
		if !containsString(summary.Cities, cityName) {
			summary.Cities = append(summary.Cities, cityName)
		}
		if !containsString(summary.Countries, country) {
			summary.Countries = append(summary.Countries, country)
		}
	}
	return rows.Err()
}

// Update applies a partial update and bumps updated_at
func (m *TripModel) Update(ctx context.Context, id int64, update TripUpdate) (*Trip, error) {
	sets := []string{}
	args := []interface{}{}

	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullString(*update.Description))
	}
	if update.StartDate != nil {
		sets = append(sets, "start_date = ?")
		args = append(args, nullString(*update.StartDate))
	}
	if update.EndDate != nil {
		sets = append(sets, "end_date = ?")
		args = append(args, nullString(*update.EndDate))
	}
	if update.Budget != nil {
		sets = append(sets, "budget = ?")
		args = append(args, *update.Budget)
	}
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *update.Status)
	}
	if update.IsPublic != nil {
		sets = append(sets, "is_public = ?")
		args = append(args, *update.IsPublic)
		if !*update.IsPublic {
			// Revoking visibility also discards the share token
			sets = append(sets, "public_url = NULL")
		}
	}
	if update.CoverPhotoPath != nil {
		sets = append(sets, "cover_photo_path = ?")
		args = append(args, nullString(*update.CoverPhotoPath))
	}
	if update.Featured != nil {
		sets = append(sets, "featured = ?")
		args = append(args, *update.Featured)
	}

	if len(sets) == 0 {
		return m.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite,
		`UPDATE trips SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update trip: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return nil, ErrTripNotFound
	}

	return m.GetByID(ctx, id)
}

// Share sets the public token and flips visibility in one statement
func (m *TripModel) Share(ctx context.Context, id int64, token string) error {
	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite,
		`UPDATE trips SET public_url = ?, is_public = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, token, id)
	if err != nil {
		return fmt.Errorf("failed to share trip: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check share result: %w", err)
	}
	if affected == 0 {
		return ErrTripNotFound
	}
	return nil
}

// Delete removes a trip and everything hanging off it in one
// transaction
func (m *TripModel) Delete(ctx context.Context, id int64) error {
	return database.WithTransaction(ctx, m.DB, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM itinerary_items WHERE trip_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete trip itinerary: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM trip_cities WHERE trip_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete trip cities: %w", err)
		}

		result, err := tx.Exec(`DELETE FROM trips WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete trip: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check delete result: %w", err)
		}
		if affected == 0 {
			return ErrTripNotFound
		}
		return nil
	})
}

// Stats aggregates a trip's cities and itinerary
func (m *TripModel) Stats(ctx context.Context, tripID int64) (*TripStats, error) {
	stats := &TripStats{TripID: tripID}

	err := database.QueryRowContext(ctx, m.DB, database.TimeoutComplexSelect, `
		SELECT
			(SELECT COUNT(*) FROM trip_cities WHERE trip_id = ?),
			(SELECT COUNT(*) FROM itinerary_items WHERE trip_id = ?),
			(SELECT COALESCE(SUM(cost), 0) FROM itinerary_items WHERE trip_id = ?)
	`, tripID, tripID, tripID).Scan(&stats.CityCount, &stats.ItemCount, &stats.TotalCost)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate trip stats: %w", err)
	}

	var first, last sql.NullString
	var days int
	err = database.QueryRowContext(ctx, m.DB, database.TimeoutComplexSelect, `
		SELECT COUNT(DISTINCT DATE(start_time)), MIN(DATE(start_time)), MAX(DATE(start_time))
		FROM itinerary_items
		WHERE trip_id = ? AND start_time IS NOT NULL
	`, tripID).Scan(&days, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate scheduled days: %w", err)
	}

	stats.ScheduledDays = days
	if first.Valid {
		stats.FirstDay = first.String
	}
	if last.Valid {
		stats.LastDay = last.String
	}

	return stats, nil
}

// CostByCategory totals itinerary costs per category. Rows without a
// cost, or with cost zero, are excluded.
func (m *TripModel) CostByCategory(ctx context.Context, tripID int64) ([]CategoryCost, error) {
	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect, `
		SELECT category, SUM(cost), COUNT(*)
		FROM itinerary_items
		WHERE trip_id = ? AND cost IS NOT NULL AND cost > 0
		GROUP BY category
		ORDER BY SUM(cost) DESC
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost breakdown: %w", err)
	}
	defer rows.Close()

	var breakdown []CategoryCost
	for rows.Next() {
		var c CategoryCost
		if err := rows.Scan(&c.Category, &c.Total, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan cost bucket: %w", err)
		}
		breakdown = append(breakdown, c)
	}
	return breakdown, rows.Err()
}

// tripSortColumns is the allow-list for admin list sorting
var tripSortColumns = map[string]string{
	"created_at": "t.created_at",
	"updated_at": "t.updated_at",
	"title":      "t.title",
	"start_date": "t.start_date",
	"status":     "t.status",
}

// AdminList retrieves trips across all users with optional search,
// status filter and allow-listed sorting
func (m *TripModel) AdminList(ctx context.Context, search, status, sortBy, order string, limit, offset int) ([]*TripSummary, error) {
	column, ok := tripSortColumns[sortBy]
	if !ok {
		column = "t.created_at"
	}
	direction := "DESC"
	if strings.EqualFold(order, "asc") {
		direction = "ASC"
	}

	query := `SELECT ` + tripColumns + tripRollups + `, u.full_name, u.email
		FROM trips t JOIN users u ON u.id = t.user_id WHERE 1=1`
	args := []interface{}{}

	if search != "" {
		query += ` AND (t.title LIKE ? OR u.email LIKE ? OR u.full_name LIKE ?)`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if status != "" {
		query += ` AND t.status = ?`
		args = append(args, status)
	}

	query += ` ORDER BY ` + column + ` ` + direction + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var summaries []*TripSummary
	for rows.Next() {
		var summary TripSummary
		var description, startDate, endDate, publicURL, coverPhoto sql.NullString
		var budget sql.NullFloat64

		err := rows.Scan(
			&summary.ID,
			&summary.UserID,
			&summary.Title,
			&description,
			&startDate,
			&endDate,
			&budget,
			&summary.Status,
			&summary.IsPublic,
			&publicURL,
			&coverPhoto,
			&summary.Featured,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&summary.CityCount,
			&summary.ActivityCount,
			&summary.TotalCost,
			&summary.OwnerName,
			&summary.OwnerEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}

		if description.Valid {
			summary.Description = description.String
		}
		if startDate.Valid {
			summary.StartDate = startDate.String
		}
		if endDate.Valid {
			summary.EndDate = endDate.String
		}
		if budget.Valid {
			summary.Budget = &budget.Float64
		}
		if publicURL.Valid {
			summary.PublicURL = publicURL.String
		}
		if coverPhoto.Valid {
			summary.CoverPhotoPath = coverPhoto.String
		}

		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := m.attachCityLists(ctx, summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Count returns the number of trips matching the optional search and
// status filter
func (m *TripModel) Count(ctx context.Context, search, status string) (int, error) {
	query := `SELECT COUNT(*) FROM trips t JOIN users u ON u.id = t.user_id WHERE 1=1`
	args := []interface{}{}

	if search != "" {
		query += ` AND (t.title LIKE ? OR u.email LIKE ? OR u.full_name LIKE ?)`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if status != "" {
		query += ` AND t.status = ?`
		args = append(args, status)
	}

	var count int
	if err := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trips: %w", err)
	}
	return count, nil
}

// CountByStatus returns the number of trips in one status
func (m *TripModel) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT COUNT(*) FROM trips WHERE status = ?`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trips by status: %w", err)
	}
	return count, nil
}

// CountPublic returns the number of publicly shared trips
func (m *TripModel) CountPublic(ctx context.Context) (int, error) {
	var count int
	err := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT COUNT(*) FROM trips WHERE is_public = 1`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count public trips: %w", err)
	}
	return count, nil
}

// MonthCount is one bucket of a per-month aggregate
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// TripsByMonth returns per-month creation counts for the last N months
func (m *TripModel) TripsByMonth(ctx context.Context, months int) ([]MonthCount, error) {
	cutoff := time.Now().AddDate(0, -months, 0)
	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect, `
		SELECT SUBSTR(DATE(created_at), 1, 7) AS month, COUNT(*)
		FROM trips
		WHERE created_at >= ?
		GROUP BY month
		ORDER BY month
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips by month: %w", err)
	}
	defer rows.Close()

	var buckets []MonthCount
	for rows.Next() {
		var bucket MonthCount
		if err := rows.Scan(&bucket.Month, &bucket.Count); err != nil {
			return nil, fmt.Errorf("failed to scan month bucket: %w", err)
		}
		buckets = append(buckets, bucket)
	}
	return buckets, rows.Err()
}

// CreationsByDay returns per-day creation counts for the last N days
func (m *TripModel) CreationsByDay(ctx context.Context, days int) ([]DayCount, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect, `
		SELECT DATE(created_at) AS day, COUNT(*)
		FROM trips
		WHERE created_at >= ?
		GROUP BY DATE(created_at)
		ORDER BY day
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query trip creations: %w", err)
	}
	defer rows.Close()

	var buckets []DayCount
	for rows.Next() {
		var bucket DayCount
		if err := rows.Scan(&bucket.Date, &bucket.Count); err != nil {
			return nil, fmt.Errorf("failed to scan creation bucket: %w", err)
		}
		buckets = append(buckets, bucket)
	}
	return buckets, rows.Err()
}

// AverageDurationDays returns the mean length of trips carrying both
// dates
func (m *TripModel) AverageDurationDays(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	err := database.QueryRowContext(ctx, m.DB, database.TimeoutComplexSelect, `
		SELECT AVG(JULIANDAY(end_date) - JULIANDAY(start_date))
		FROM trips
		WHERE start_date IS NOT NULL AND end_date IS NOT NULL
	`).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to compute average duration: %w", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// BudgetStats summarizes how trips are budgeted
type BudgetStats struct {
	Budgeted int     `json:"budgeted"`
	Average  float64 `json:"average"`
	Minimum  float64 `json:"minimum"`
	Maximum  float64 `json:"maximum"`
	Total    float64 `json:"total"`
}

// BudgetStatistics aggregates trips carrying a budget
func (m *TripModel) BudgetStatistics(ctx context.Context) (*BudgetStats, error) {
	var stats BudgetStats
	var avg, min, max, total sql.NullFloat64

	err := database.QueryRowContext(ctx, m.DB, database.TimeoutComplexSelect, `
		SELECT COUNT(*), AVG(budget), MIN(budget), MAX(budget), SUM(budget)
		FROM trips
		WHERE budget IS NOT NULL
	`).Scan(&stats.Budgeted, &avg, &min, &max, &total)
	if err != nil {
		return nil, fmt.Errorf("failed to compute budget statistics: %w", err)
	}

	if avg.Valid {
		stats.Average = avg.Float64
	}
	if min.Valid {
		stats.Minimum = min.Float64
	}
	if max.Valid {
		stats.Maximum = max.Float64
	}
	if total.Valid {
		stats.Total = total.Float64
	}
	return &stats, nil
}

func collectTripSummaries(rows *sql.Rows) ([]*TripSummary, error) {
	var summaries []*TripSummary
	for rows.Next() {
		var summary TripSummary
		var description, startDate, endDate, publicURL, coverPhoto sql.NullString
		var budget sql.NullFloat64

		err := rows.Scan(
			&summary.ID,
			&summary.UserID,
			&summary.Title,
			&description,
			&startDate,
			&endDate,
			&budget,
			&summary.Status,
			&summary.IsPublic,
			&publicURL,
			&coverPhoto,
			&summary.Featured,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&summary.CityCount,
			&summary.ActivityCount,
			&summary.TotalCost,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}

		if description.Valid {
			summary.Description = description.String
		}
		if startDate.Valid {
			summary.StartDate = startDate.String
		}
		if endDate.Valid {
			summary.EndDate = endDate.String
		}
		if budget.Valid {
			summary.Budget = &budget.Float64
		}
		if publicURL.Valid {
			summary.PublicURL = publicURL.String
		}
		if coverPhoto.Valid {
			summary.CoverPhotoPath = coverPhoto.String
		}

		summaries = append(summaries, &summary)
	}
	return summaries, rows.Err()
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
