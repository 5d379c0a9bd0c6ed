package models

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/apimgr/tripplanner/src/database"
)

// ActivityCategories is the closed category set shared by activities
// and itinerary items
var ActivityCategories = []string{"flight", "hotel", "activity", "restaurant", "transport", "other"}

// ValidCategory reports whether a category belongs to the closed set
func ValidCategory(category string) bool {
	for _, c := range ActivityCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Activity is a bookable catalog entry attached to a city
type Activity struct {
	ID            int64     `json:"id"`
	CityID        int64     `json:"city_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category"`
	DurationHours *float64  `json:"duration_hours,omitempty"`
	CostMin       *float64  `json:"cost_min,omitempty"`
	CostMax       *float64  `json:"cost_max,omitempty"`
	Rating        *float64  `json:"rating,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	WebsiteURL    string    `json:"website_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	CityName      string    `json:"city_name,omitempty"`
	CityCountry   string    `json:"city_country,omitempty"`
}

// ActivityModel handles activity database operations
type ActivityModel struct {
	DB *sql.DB
}

const activityColumns = `a.id, a.city_id, a.name, a.description, a.category, a.duration_hours, a.cost_min, a.cost_max, a.rating, a.image_url, a.website_url, a.created_at, c.name, c.country`

const activityFrom = ` FROM activities a JOIN cities c ON c.id = a.city_id`

func scanActivity(row interface{ Scan(...interface{}) error }) (*Activity, error) {
	var activity Activity
	var description, imageURL, websiteURL sql.NullString
	var duration, costMin, costMax, rating sql.NullFloat64

	err := row.Scan(
		&activity.ID,
		&activity.CityID,
		&activity.Name,
		&description,
		&activity.Category,
		&duration,
		&costMin,
		&costMax,
		&rating,
		&imageURL,
		&websiteURL,
		&activity.CreatedAt,
		&activity.CityName,
		&activity.CityCountry,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		activity.Description = description.String
	}
	if imageURL.Valid {
		activity.ImageURL = imageURL.String
	}
	if websiteURL.Valid {
		activity.WebsiteURL = websiteURL.String
	}
	if duration.Valid {
		activity.DurationHours = &duration.Float64
	}
	if costMin.Valid {
		activity.CostMin = &costMin.Float64
	}
	if costMax.Valid {
		activity.CostMax = &costMax.Float64
	}
	if rating.Valid {
		activity.Rating = &rating.Float64
	}

	return &activity, nil
}

// ActivityInput carries the writable activity fields
type ActivityInput struct {
	CityID        int64    `json:"city_id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	DurationHours *float64 `json:"duration_hours"`
	CostMin       *float64 `json:"cost_min"`
	CostMax       *float64 `json:"cost_max"`
	Rating        *float64 `json:"rating"`
	ImageURL      string   `json:"image_url"`
	WebsiteURL    string   `json:"website_url"`
}

// validateCostRange rejects an inverted cost range when both bounds are set
func validateCostRange(input ActivityInput) error {
	if input.CostMin != nil && input.CostMax != nil && *input.CostMin > *input.CostMax {
		return NewValidationError(FieldError{Field: "cost_min", Message: "cost_min cannot exceed cost_max", Value: *input.CostMin})
	}
	return nil
}

// Create inserts an activity under an existing city
func (m *ActivityModel) Create(ctx context.Context, input ActivityInput) (*Activity, error) {
	if err := validateCostRange(input); err != nil {
		return nil, err
	}

	category := input.Category
	if category == "" {
		category = "activity"
	}

	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite, `
		INSERT INTO activities (city_id, name, description, category, duration_hours, cost_min, cost_max, rating, image_url, website_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, input.CityID, input.Name, nullString(input.Description), category,
		input.DurationHours, input.CostMin, input.CostMax, input.Rating, nullString(input.ImageURL), nullString(input.WebsiteURL))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrCityNotFound
		}
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	activityID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get activity ID: %w", err)
	}

	return m.GetByID(ctx, activityID)
}

// GetByID retrieves an activity joined with its city
func (m *ActivityModel) GetByID(ctx context.Context, id int64) (*Activity, error) {
	row := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT `+activityColumns+activityFrom+` WHERE a.id = ?`, id)

	activity, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return activity, nil
}

// ActivityFilters narrows a search. Zero values mean "no constraint".
type ActivityFilters struct {
	Category    string
	MinCost     *float64
	MaxCost     *float64
	MinDuration *float64
	MaxDuration *float64
	MinRating   *float64
}

// Search finds activities by substring over name, description and the
// containing city's name, narrowed by the optional city and filters.
// Results rank best-rated first, cheapest first within a rating.
func (m *ActivityModel) Search(ctx context.Context, query string, cityID int64, filters ActivityFilters, limit, offset int) ([]*Activity, error) {
	sqlQuery := `SELECT ` + activityColumns + activityFrom + ` WHERE 1=1`
	args := []interface{}{}

	if query != "" {
		sqlQuery += ` AND (a.name LIKE ? OR a.description LIKE ? OR c.name LIKE ?)`
		pattern := "%" + query + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if cityID > 0 {
		sqlQuery += ` AND a.city_id = ?`
		args = append(args, cityID)
	}
	if filters.Category != "" {
		sqlQuery += ` AND a.category = ?`
		args = append(args, filters.Category)
	}
	if filters.MinCost != nil {
		sqlQuery += ` AND a.cost_min >= ?`
		args = append(args, *filters.MinCost)
	}
	if filters.MaxCost != nil {
		sqlQuery += ` AND (a.cost_max <= ? OR (a.cost_max IS NULL AND a.cost_min <= ?))`
		args = append(args, *filters.MaxCost, *filters.MaxCost)
	}
	if filters.MinDuration != nil {
		sqlQuery += ` AND a.duration_hours >= ?`
		args = append(args, *filters.MinDuration)
	}
	if filters.MaxDuration != nil {
		sqlQuery += ` AND a.duration_hours <= ?`
		args = append(args, *filters.MaxDuration)
	}
	if filters.MinRating != nil {
		sqlQuery += ` AND a.rating >= ?`
		args = append(args, *filters.MinRating)
	}

	sqlQuery += ` ORDER BY a.rating DESC, a.cost_min ASC, a.name ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search activities: %w", err)
	}
	defer rows.Close()

	return collectActivities(rows)
}

// Popular returns the best-rated activities
func (m *ActivityModel) Popular(ctx context.Context, limit int) ([]*Activity, error) {
	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect,
		`SELECT `+activityColumns+activityFrom+` WHERE a.rating IS NOT NULL ORDER BY a.rating DESC, a.name ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query popular activities: %w", err)
	}
	defer rows.Close()

	return collectActivities(rows)
}

// CategoryCount is one row of the categories listing
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Categories returns the categories currently in use with counts
func (m *ActivityModel) Categories(ctx context.Context) ([]CategoryCount, error) {
	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect, `
		SELECT category, COUNT(*)
		FROM activities
		GROUP BY category
		ORDER BY COUNT(*) DESC, category ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ForCities returns the activities of several cities in one query,
// grouped by city and capped at perCity entries each
func (m *ActivityModel) ForCities(ctx context.Context, cityIDs []int64, category string, perCity int) (map[int64][]*Activity, error) {
	grouped := make(map[int64][]*Activity)
	if len(cityIDs) == 0 {
		return grouped, nil
	}
	if perCity <= 0 {
		perCity = 10
	}

	placeholders := strings.Repeat("?,", len(cityIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, 0, len(cityIDs)+1)
	for _, id := range cityIDs {
		args = append(args, id)
	}

	sqlQuery := `SELECT ` + activityColumns + activityFrom + ` WHERE a.city_id IN (` + placeholders + `)`
	if category != "" {
		sqlQuery += ` AND a.category = ?`
		args = append(args, category)
	}
	sqlQuery += ` ORDER BY a.city_id, a.rating DESC, a.cost_min ASC`

	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities for cities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if len(grouped[activity.CityID]) < perCity {
			grouped[activity.CityID] = append(grouped[activity.CityID], activity)
		}
	}
	return grouped, rows.Err()
}

// ListByCity returns all activities of one city
func (m *ActivityModel) ListByCity(ctx context.Context, cityID int64) ([]*Activity, error) {
	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect,
		`SELECT `+activityColumns+activityFrom+` WHERE a.city_id = ? ORDER BY a.rating DESC, a.name ASC`, cityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list city activities: %w", err)
	}
	defer rows.Close()

	return collectActivities(rows)
}

// activitySortColumns is the allow-list for admin list sorting
var activitySortColumns = map[string]string{
	"name":       "a.name",
	"category":   "a.category",
	"rating":     "a.rating",
	"cost_min":   "a.cost_min",
	"created_at": "a.created_at",
}

// List retrieves activities for the admin panel
func (m *ActivityModel) List(ctx context.Context, search, sortBy, order string, limit, offset int) ([]*Activity, error) {
	column, ok := activitySortColumns[sortBy]
	if !ok {
		column = "a.created_at"
	}
	direction := "DESC"
	if strings.EqualFold(order, "asc") {
		direction = "ASC"
	}

	query := `SELECT ` + activityColumns + activityFrom
	args := []interface{}{}
	if search != "" {
		query += ` WHERE a.name LIKE ? OR c.name LIKE ?`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY ` + column + ` ` + direction + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	return collectActivities(rows)
}

// Count returns the number of activities matching the optional search
func (m *ActivityModel) Count(ctx context.Context, search string) (int, error) {
	query := `SELECT COUNT(*)` + activityFrom
	args := []interface{}{}
	if search != "" {
		query += ` WHERE a.name LIKE ? OR c.name LIKE ?`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	var count int
	if err := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}

// Update modifies an activity's catalog entry
func (m *ActivityModel) Update(ctx context.Context, id int64, input ActivityInput) (*Activity, error) {
	if err := validateCostRange(input); err != nil {
		return nil, err
	}

	category := input.Category
	if category == "" {
		category = "activity"
	}

	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite, `
		UPDATE activities
		SET city_id = ?, name = ?, description = ?, category = ?, duration_hours = ?, cost_min = ?, cost_max = ?, rating = ?, image_url = ?, website_url = ?
		WHERE id = ?
	`, input.CityID, input.Name, nullString(input.Description), category,
		input.DurationHours, input.CostMin, input.CostMax, input.Rating, nullString(input.ImageURL), nullString(input.WebsiteURL), id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrCityNotFound
		}
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return nil, ErrActivityNotFound
	}

	return m.GetByID(ctx, id)
}

// Delete removes an activity. Activities referenced by itinerary items
// are refused.
func (m *ActivityModel) Delete(ctx context.Context, id int64) error {
	var count int
	err := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT COUNT(*) FROM itinerary_items WHERE activity_id = ?`, id).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check activity references: %w", err)
	}
	if count > 0 {
		return ErrActivityInUse
	}

	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite,
		`DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrActivityInUse
		}
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrActivityNotFound
	}
	return nil
}

func collectActivities(rows *sql.Rows) ([]*Activity, error) {
	var activities []*Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}
