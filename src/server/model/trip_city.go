package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/apimgr/tripplanner/src/database"
)

// TripCity is an ordered membership of a city in a trip
type TripCity struct {
	ID            int64     `json:"id"`
	TripID        int64     `json:"trip_id"`
	CityID        int64     `json:"city_id"`
	ArrivalDate   string    `json:"arrival_date,omitempty"`
	DepartureDate string    `json:"departure_date,omitempty"`
	OrderIndex    int       `json:"order_index"`
	CreatedAt     time.Time `json:"created_at"`

	CityName    string   `json:"city_name"`
	CityCountry string   `json:"city_country"`
	CityImage   string   `json:"city_image,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// TripCityModel handles trip membership database operations
type TripCityModel struct {
	DB *sql.DB
}

// Add appends a city to a trip at the end of the visit order
func (m *TripCityModel) Add(ctx context.Context, tripID, cityID int64, arrivalDate, departureDate string) (*TripCity, error) {
	var id int64
	err := database.WithTransaction(ctx, m.DB, func(tx *sql.Tx) error {
		var next int
		if err := tx.QueryRow(
			`SELECT COALESCE(MAX(order_index), -1) + 1 FROM trip_cities WHERE trip_id = ?`, tripID,
		).Scan(&next); err != nil {
			return fmt.Errorf("failed to compute visit order: %w", err)
		}

		result, err := tx.Exec(`
			INSERT INTO trip_cities (trip_id, city_id, arrival_date, departure_date, order_index)
			VALUES (?, ?, ?, ?, ?)
		`, tripID, cityID, nullString(arrivalDate), nullString(departureDate), next)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrCityAlreadyInTrip
			}
			if isForeignKeyViolation(err) {
				return ErrCityNotFound
			}
			return fmt.Errorf("failed to add city to trip: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get membership ID: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return m.GetByID(ctx, id)
}

const tripCityColumns = `tc.id, tc.trip_id, tc.city_id, tc.arrival_date, tc.departure_date, tc.order_index, tc.created_at, c.name, c.country, c.image_url, c.latitude, c.longitude`

func scanTripCity(row interface{ Scan(...interface{}) error }) (*TripCity, error) {
	var tc TripCity
	var arrival, departure, image sql.NullString
	var latitude, longitude sql.NullFloat64

	err := row.Scan(
		&tc.ID,
		&tc.TripID,
		&tc.CityID,
		&arrival,
		&departure,
		&tc.OrderIndex,
		&tc.CreatedAt,
		&tc.CityName,
		&tc.CityCountry,
		&image,
		&latitude,
		&longitude,
	)
	if err != nil {
		return nil, err
	}

	if arrival.Valid {
		tc.ArrivalDate = arrival.String
	}
	if departure.Valid {
		tc.DepartureDate = departure.String
	}
	if image.Valid {
		tc.CityImage = image.String
	}
	if latitude.Valid {
		tc.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		tc.Longitude = &longitude.Float64
	}

	return &tc, nil
}

// GetByID retrieves a membership row joined with its city
func (m *TripCityModel) GetByID(ctx context.Context, id int64) (*TripCity, error) {
	row := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT `+tripCityColumns+`
		 FROM trip_cities tc JOIN cities c ON c.id = tc.city_id
		 WHERE tc.id = ?`, id)

	tc, err := scanTripCity(row)
	if err == sql.ErrNoRows {
		return nil, ErrCityNotInTrip
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip city: %w", err)
	}
	return tc, nil
}

// ListByTrip returns a trip's cities in visit order
func (m *TripCityModel) ListByTrip(ctx context.Context, tripID int64) ([]*TripCity, error) {
	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect,
		`SELECT `+tripCityColumns+`
		 FROM trip_cities tc JOIN cities c ON c.id = tc.city_id
		 WHERE tc.trip_id = ?
		 ORDER BY tc.order_index ASC, tc.arrival_date ASC`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trip cities: %w", err)
	}
	defer rows.Close()

	var memberships []*TripCity
	for rows.Next() {
		tc, err := scanTripCity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip city: %w", err)
		}
		memberships = append(memberships, tc)
	}
	return memberships, rows.Err()
}

// UpdateDates changes a membership's arrival and departure dates
func (m *TripCityModel) UpdateDates(ctx context.Context, tripID, cityID int64, arrivalDate, departureDate string) error {
	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite, `
		UPDATE trip_cities SET arrival_date = ?, departure_date = ?
		WHERE trip_id = ? AND city_id = ?
	`, nullString(arrivalDate), nullString(departureDate), tripID, cityID)
	if err != nil {
		return fmt.Errorf("failed to update trip city: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrCityNotInTrip
	}
	return nil
}

// Remove detaches a city from a trip
func (m *TripCityModel) Remove(ctx context.Context, tripID, cityID int64) error {
	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite,
		`DELETE FROM trip_cities WHERE trip_id = ? AND city_id = ?`, tripID, cityID)
	if err != nil {
		return fmt.Errorf("failed to remove city from trip: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check remove result: %w", err)
	}
	if affected == 0 {
		return ErrCityNotInTrip
	}
	return nil
}

// Exists reports whether a city already belongs to a trip
func (m *TripCityModel) Exists(ctx context.Context, tripID, cityID int64) (bool, error) {
	var count int
	err := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT COUNT(*) FROM trip_cities WHERE trip_id = ? AND city_id = ?`, tripID, cityID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check trip membership: %w", err)
	}
	return count > 0, nil
}
