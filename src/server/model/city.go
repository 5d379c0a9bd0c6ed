package models

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/apimgr/tripplanner/src/database"
)

// City is a destination in the shared catalog
type City struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Country         string    `json:"country"`
	CountryCode     string    `json:"country_code,omitempty"`
	Description     string    `json:"description,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	CostIndex       *float64  `json:"cost_index,omitempty"`
	PopularityScore float64   `json:"popularity_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// CityModel handles city database operations
type CityModel struct {
	DB *sql.DB
}

const cityColumns = `id, name, country, country_code, description, image_url, latitude, longitude, cost_index, popularity_score, created_at`

func scanCity(row interface{ Scan(...interface{}) error }) (*City, error) {
	var city City
	var countryCode, description, imageURL sql.NullString
	var latitude, longitude, costIndex sql.NullFloat64

	err := row.Scan(
		&city.ID,
		&city.Name,
		&city.Country,
		&countryCode,
		&description,
		&imageURL,
		&latitude,
		&longitude,
		&costIndex,
		&city.PopularityScore,
		&city.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if countryCode.Valid {
		city.CountryCode = countryCode.String
	}
	if description.Valid {
		city.Description = description.String
	}
	if imageURL.Valid {
		city.ImageURL = imageURL.String
	}
	if latitude.Valid {
		city.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		city.Longitude = &longitude.Float64
	}
	if costIndex.Valid {
		city.CostIndex = &costIndex.Float64
	}

	return &city, nil
}

// CityInput carries the writable city fields
type CityInput struct {
	Name        string   `json:"name"`
	Country     string   `json:"country"`
	CountryCode string   `json:"country_code"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	CostIndex   *float64 `json:"cost_index"`
}

// Create inserts a city. The (name, country) pair is unique.
func (m *CityModel) Create(ctx context.Context, input CityInput) (*City, error) {
	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite, `
		INSERT INTO cities (name, country, country_code, description, image_url, latitude, longitude, cost_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, input.Name, input.Country, nullString(input.CountryCode), nullString(input.Description), nullString(input.ImageURL), input.Latitude, input.Longitude, input.CostIndex)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCityAlreadyExists
		}
		return nil, fmt.Errorf("failed to create city: %w", err)
	}

	cityID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get city ID: %w", err)
	}

	return m.GetByID(ctx, cityID)
}

// GetByID retrieves a city by ID
func (m *CityModel) GetByID(ctx context.Context, id int64) (*City, error) {
	row := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT `+cityColumns+` FROM cities WHERE id = ?`, id)

	city, err := scanCity(row)
	if err == sql.ErrNoRows {
		return nil, ErrCityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get city: %w", err)
	}
	return city, nil
}

// Search finds cities by name or country substring, optionally limited
// to one country. Results rank by popularity score, then by how many
// trips include the city.
func (m *CityModel) Search(ctx context.Context, query, country string, limit, offset int) ([]*City, error) {
	sqlQuery := `SELECT ` + cityColumns + ` FROM cities WHERE 1=1`
	args := []interface{}{}

	if query != "" {
		sqlQuery += ` AND (name LIKE ? OR country LIKE ?)`
		pattern := "%" + query + "%"
		args = append(args, pattern, pattern)
	}
	if country != "" {
		sqlQuery += ` AND country = ?`
		args = append(args, country)
	}

	sqlQuery += ` ORDER BY popularity_score DESC, (SELECT COUNT(*) FROM trip_cities tc WHERE tc.city_id = cities.id) DESC, name ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search cities: %w", err)
	}
	defer rows.Close()

	return collectCities(rows)
}

// Popular returns the highest-scored cities
func (m *CityModel) Popular(ctx context.Context, limit int) ([]*City, error) {
	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect,
		`SELECT `+cityColumns+` FROM cities ORDER BY popularity_score DESC, name ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query popular cities: %w", err)
	}
	defer rows.Close()

	return collectCities(rows)
}

// Countries returns the distinct country list with city counts
func (m *CityModel) Countries(ctx context.Context) ([]CountryCount, error) {
	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect, `
		SELECT country, COUNT(*) AS city_count
		FROM cities
		GROUP BY country
		ORDER BY country ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}
	defer rows.Close()

	var countries []CountryCount
	for rows.Next() {
		var c CountryCount
		if err := rows.Scan(&c.Country, &c.CityCount); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

// CountryCount is one row of the countries listing
type CountryCount struct {
	Country   string `json:"country"`
	CityCount int    `json:"city_count"`
}

// citySortColumns is the allow-list for admin list sorting
var citySortColumns = map[string]string{
	"name":             "name",
	"country":          "country",
	"popularity_score": "popularity_score",
	"created_at":       "created_at",
}

// List retrieves cities for the admin panel
func (m *CityModel) List(ctx context.Context, search, sortBy, order string, limit, offset int) ([]*City, error) {
	column, ok := citySortColumns[sortBy]
	if !ok {
		column = "popularity_score"
	}
	direction := "DESC"
	if strings.EqualFold(order, "asc") {
		direction = "ASC"
	}

	query := `SELECT ` + cityColumns + ` FROM cities`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE name LIKE ? OR country LIKE ?`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY ` + column + ` ` + direction + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	defer rows.Close()

	return collectCities(rows)
}

// Count returns the number of cities matching the optional search
func (m *CityModel) Count(ctx context.Context, search string) (int, error) {
	query := `SELECT COUNT(*) FROM cities`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE name LIKE ? OR country LIKE ?`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	var count int
	if err := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cities: %w", err)
	}
	return count, nil
}

// Update modifies a city's catalog entry
func (m *CityModel) Update(ctx context.Context, id int64, input CityInput) (*City, error) {
	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite, `
		UPDATE cities
		SET name = ?, country = ?, country_code = ?, description = ?, image_url = ?, latitude = ?, longitude = ?, cost_index = ?
		WHERE id = ?
	`, input.Name, input.Country, nullString(input.CountryCode), nullString(input.Description), nullString(input.ImageURL), input.Latitude, input.Longitude, input.CostIndex, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCityAlreadyExists
		}
		return nil, fmt.Errorf("failed to update city: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return nil, ErrCityNotFound
	}

	return m.GetByID(ctx, id)
}

// Delete removes a city. Cities referenced by any trip or itinerary
// item are refused.
func (m *CityModel) Delete(ctx context.Context, id int64) error {
	inUse, err := m.InUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return ErrCityInUse
	}

	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite, `DELETE FROM cities WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCityInUse
		}
		return fmt.Errorf("failed to delete city: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrCityNotFound
	}
	return nil
}

// InUse reports whether any trip, itinerary item or activity still
// references the city
func (m *CityModel) InUse(ctx context.Context, id int64) (bool, error) {
	var count int
	err := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect, `
		SELECT
			(SELECT COUNT(*) FROM trip_cities WHERE city_id = ?) +
			(SELECT COUNT(*) FROM itinerary_items WHERE city_id = ?) +
			(SELECT COUNT(*) FROM activities WHERE city_id = ?)
	`, id, id, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check city references: %w", err)
	}
	return count > 0, nil
}

func collectCities(rows *sql.Rows) ([]*City, error) {
	var cities []*City
	for rows.Next() {
		city, err := scanCity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, city)
	}
	return cities, rows.Err()
}
