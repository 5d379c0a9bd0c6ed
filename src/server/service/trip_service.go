package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/apimgr/tripplanner/src/server/model"
	"github.com/apimgr/tripplanner/src/utils"
)

// sharedCacheTTL bounds staleness of cached shared-trip pages between
// the explicit evictions below
const sharedCacheTTL = 5 * time.Minute

// TripDetail is a trip enriched with its cities, date-grouped itinerary
// and aggregate stats
type TripDetail struct {
	Trip      *models.Trip        `json:"trip"`
	Cities    []*models.TripCity  `json:"cities"`
	Itinerary []models.DateBucket `json:"itinerary"`
	Stats     *models.TripStats   `json:"stats"`
}

// TripSummaryResult is the per-trip rollup served by the summary endpoint
type TripSummaryResult struct {
	TripID        int64    `json:"trip_id"`
	Title         string   `json:"title"`
	Status        string   `json:"status"`
	CityCount     int      `json:"city_count"`
	ItemCount     int      `json:"item_count"`
	TotalCost     float64  `json:"total_cost"`
	ScheduledDays int      `json:"scheduled_days"`
	FirstDay      string   `json:"first_day,omitempty"`
	LastDay       string   `json:"last_day,omitempty"`
	Budget        *float64 `json:"budget,omitempty"`
	Remaining     *float64 `json:"remaining,omitempty"`
}

// TripStatsResult bundles stats, summary and cost breakdown
type TripStatsResult struct {
	Stats         *models.TripStats     `json:"stats"`
	Summary       *TripSummaryResult    `json:"summary"`
	CostBreakdown []models.CategoryCost `json:"costBreakdown"`
}

// TripService implements trip lifecycle, sharing and aggregation. Every
// operation on an existing trip loads it and checks ownership; admins
// pass the check for any trip.
type TripService struct {
	trips      *models.TripModel
	tripCities *models.TripCityModel
	itinerary  *models.ItineraryModel
	bus        *EventBus
	shared     *CacheManager
	logger     *utils.Logger
}

// NewTripService creates the trip service
func NewTripService(trips *models.TripModel, tripCities *models.TripCityModel, itinerary *models.ItineraryModel, bus *EventBus, shared *CacheManager, logger *utils.Logger) *TripService {
	return &TripService{
		trips:      trips,
		tripCities: tripCities,
		itinerary:  itinerary,
		bus:        bus,
		shared:     shared,
		logger:     logger,
	}
}

// authorize returns ACCESS_DENIED unless the caller owns the trip or is
// an admin
func (s *TripService) authorize(trip *models.Trip, caller *models.User) error {
	if trip.UserID != caller.ID && !caller.IsAdmin() {
		return models.ErrForbidden
	}
	return nil
}

// validateTripDates checks format and ordering. Dates are optional but
// when both are present the end must be after the start.
func validateTripDates(startDate, endDate string) error {
	if startDate != "" {
		if err := utils.ValidateDate(startDate); err != nil {
			return models.ErrInvalidDates.WithMessage("start_date must be a YYYY-MM-DD date")
		}
	}
	if endDate != "" {
		if err := utils.ValidateDate(endDate); err != nil {
			return models.ErrInvalidDates.WithMessage("end_date must be a YYYY-MM-DD date")
		}
	}
	if startDate != "" && endDate != "" && endDate <= startDate {
		return models.ErrInvalidDates
	}
	return nil
}

// Create makes a new trip owned by the caller
func (s *TripService) Create(ctx context.Context, caller *models.User, input models.TripInput) (*models.Trip, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, models.ErrMissingFields.WithDetails(models.FieldError{Field: "title", Message: "title is required"})
	}
	if err := validateTripDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if input.Budget != nil && *input.Budget < 0 {
		return nil, models.NewValidationError(models.FieldError{Field: "budget", Message: "budget cannot be negative", Value: *input.Budget})
	}

	// A public trip needs its token in place, so visibility is flipped
	// by Share after the insert
	wantPublic := input.IsPublic
	input.IsPublic = false

	trip, err := s.trips.Create(ctx, caller.ID, input)
	if err != nil {
		return nil, err
	}

	if wantPublic {
		if trip, err = s.publish(ctx, trip.ID); err != nil {
			return nil, err
		}
	}

	s.bus.PublishTripUpdate(trip.UserID, TripEventPayload{Type: TripCreated, Trip: trip})
	return trip, nil
}

// Get returns a trip with its cities, itinerary and stats. The three
// fetches run concurrently.
func (s *TripService) Get(ctx context.Context, caller *models.User, tripID int64) (*TripDetail, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(trip, caller); err != nil {
		return nil, err
	}
	return s.loadDetail(ctx, trip)
}

func (s *TripService) loadDetail(ctx context.Context, trip *models.Trip) (*TripDetail, error) {
	var (
		wg       sync.WaitGroup
		cities   []*models.TripCity
		items    []*models.ItineraryItem
		stats    *models.TripStats
		cityErr  error
		itemErr  error
		statsErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		cities, cityErr = s.tripCities.ListByTrip(ctx, trip.ID)
	}()
	go func() {
		defer wg.Done()
		items, itemErr = s.itinerary.ListByTrip(ctx, trip.ID)
	}()
	go func() {
		defer wg.Done()
		stats, statsErr = s.trips.Stats(ctx, trip.ID)
	}()
	wg.Wait()

	for _, err := range []error{cityErr, itemErr, statsErr} {
		if err != nil {
			return nil, err
		}
	}

	return &TripDetail{
		Trip:      trip,
		Cities:    cities,
		Itinerary: models.GroupByDate(items),
		Stats:     stats,
	}, nil
}

// List returns the caller's trips, optionally filtered by status
func (s *TripService) List(ctx context.Context, caller *models.User, status string, limit, offset int) ([]*models.TripSummary, error) {
	if status != "" && !models.ValidStatus(status) {
		return nil, models.ErrInvalidStatus.WithMessage("unknown status: %s", status)
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return s.trips.ListByUser(ctx, caller.ID, status, limit, offset)
}

// Update applies a partial update after checking ownership, date ordering
// and the status transition
func (s *TripService) Update(ctx context.Context, caller *models.User, tripID int64, update models.TripUpdate) (*models.Trip, error) {
	existing, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(existing, caller); err != nil {
		return nil, err
	}

	// Only admins curate the featured flag
	if update.Featured != nil && !caller.IsAdmin() {
		update.Featured = nil
	}

	if update.Title != nil {
		trimmed := strings.TrimSpace(*update.Title)
		if trimmed == "" {
			return nil, models.NewValidationError(models.FieldError{Field: "title", Message: "title cannot be empty"})
		}
		update.Title = &trimmed
	}

	startDate, endDate := existing.StartDate, existing.EndDate
	if update.StartDate != nil {
		startDate = *update.StartDate
	}
	if update.EndDate != nil {
		endDate = *update.EndDate
	}
	if err := validateTripDates(startDate, endDate); err != nil {
		return nil, err
	}

	if update.Budget != nil && *update.Budget < 0 {
		return nil, models.NewValidationError(models.FieldError{Field: "budget", Message: "budget cannot be negative", Value: *update.Budget})
	}

	if update.Status != nil {
		if !models.ValidStatus(*update.Status) {
			return nil, models.ErrInvalidStatus.WithMessage("unknown status: %s", *update.Status)
		}
		if !models.CanTransition(existing.Status, *update.Status) {
			return nil, models.ErrInvalidStatus.WithMessage("cannot move a %s trip to %s", existing.Status, *update.Status)
		}
	}

	needsToken := update.IsPublic != nil && *update.IsPublic && existing.PublicURL == ""

	trip, err := s.trips.Update(ctx, tripID, update)
	if err != nil {
		return nil, err
	}

	if needsToken {
		if trip, err = s.publish(ctx, tripID); err != nil {
			return nil, err
		}
	}

	s.evictShared(existing.PublicURL)
	s.bus.PublishTripUpdate(trip.UserID, TripEventPayload{Type: TripUpdated, Trip: trip})
	return trip, nil
}

// Delete removes a trip and its cities and itinerary
func (s *TripService) Delete(ctx context.Context, caller *models.User, tripID int64) error {
	existing, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if err := s.authorize(existing, caller); err != nil {
		return err
	}

	if err := s.trips.Delete(ctx, tripID); err != nil {
		return err
	}

	s.evictShared(existing.PublicURL)
	s.bus.PublishTripUpdate(existing.UserID, TripEventPayload{Type: TripDeleted, TripID: tripID})
	return nil
}

// Share makes a trip publicly viewable and returns its opaque token.
// Sharing again rotates the token.
func (s *TripService) Share(ctx context.Context, caller *models.User, tripID int64) (string, error) {
	existing, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return "", err
	}
	if err := s.authorize(existing, caller); err != nil {
		return "", err
	}

	trip, err := s.publish(ctx, tripID)
	if err != nil {
		return "", err
	}

	// Sharing rotates the token, so the old page is gone either way
	s.evictShared(existing.PublicURL)
	s.bus.PublishTripUpdate(trip.UserID, TripEventPayload{Type: TripUpdated, Trip: trip})
	return trip.PublicURL, nil
}

// publish assigns a fresh share token and flips visibility
func (s *TripService) publish(ctx context.Context, tripID int64) (*models.Trip, error) {
	token, err := utils.GenerateShareToken()
	if err != nil {
		return nil, err
	}
	if err := s.trips.Share(ctx, tripID, token); err != nil {
		return nil, err
	}
	return s.trips.GetByID(ctx, tripID)
}

// GetShared returns a publicly shared trip by its token. No caller, no
// ownership: revoked or unknown tokens read as absent. The owner's email
// is withheld from the public view. Results are cached; every mutation
// of a shared trip evicts its entry.
func (s *TripService) GetShared(ctx context.Context, token string) (*TripDetail, error) {
	cacheKey := "shared:" + token
	if cached, err := s.shared.Get(cacheKey); err == nil {
		var detail TripDetail
		if json.Unmarshal([]byte(cached), &detail) == nil {
			return &detail, nil
		}
	}

	trip, err := s.trips.GetByPublicURL(ctx, token)
	if err != nil {
		return nil, err
	}
	trip.OwnerEmail = ""

	detail, err := s.loadDetail(ctx, trip)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(detail); err == nil {
		if err := s.shared.Set(cacheKey, string(payload), sharedCacheTTL); err != nil {
			s.logger.Warn("Failed to cache shared trip: %v", err)
		}
	}
	return detail, nil
}

// evictShared drops a trip's cached public page after a mutation
func (s *TripService) evictShared(publicURL string) {
	if publicURL == "" {
		return
	}
	if err := s.shared.Delete("shared:" + publicURL); err != nil {
		s.logger.Warn("Failed to evict shared trip cache: %v", err)
	}
}

// Stats returns stats, summary and cost breakdown for an owned trip
func (s *TripService) Stats(ctx context.Context, caller *models.User, tripID int64) (*TripStatsResult, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(trip, caller); err != nil {
		return nil, err
	}

	var (
		wg        sync.WaitGroup
		stats     *models.TripStats
		breakdown []models.CategoryCost
		statsErr  error
		costErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		stats, statsErr = s.trips.Stats(ctx, tripID)
	}()
	go func() {
		defer wg.Done()
		breakdown, costErr = s.trips.CostByCategory(ctx, tripID)
	}()
	wg.Wait()

	if statsErr != nil {
		return nil, statsErr
	}
	if costErr != nil {
		return nil, costErr
	}

	return &TripStatsResult{
		Stats:         stats,
		Summary:       buildSummary(trip, stats),
		CostBreakdown: breakdown,
	}, nil
}

// Summary returns the per-trip rollup including budget remaining
func (s *TripService) Summary(ctx context.Context, caller *models.User, tripID int64) (*TripSummaryResult, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(trip, caller); err != nil {
		return nil, err
	}

	stats, err := s.trips.Stats(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return buildSummary(trip, stats), nil
}

func buildSummary(trip *models.Trip, stats *models.TripStats) *TripSummaryResult {
	summary := &TripSummaryResult{
		TripID:        trip.ID,
		Title:         trip.Title,
		Status:        trip.Status,
		CityCount:     stats.CityCount,
		ItemCount:     stats.ItemCount,
		TotalCost:     stats.TotalCost,
		ScheduledDays: stats.ScheduledDays,
		FirstDay:      stats.FirstDay,
		LastDay:       stats.LastDay,
		Budget:        trip.Budget,
	}
	if trip.Budget != nil {
		remaining := *trip.Budget - stats.TotalCost
		summary.Remaining = &remaining
	}
	return summary
}

// CostBreakdown returns the per-category cost slices for an owned trip
func (s *TripService) CostBreakdown(ctx context.Context, caller *models.User, tripID int64) ([]models.CategoryCost, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(trip, caller); err != nil {
		return nil, err
	}
	return s.trips.CostByCategory(ctx, tripID)
}

// ListCities returns a trip's cities in visit order
func (s *TripService) ListCities(ctx context.Context, caller *models.User, tripID int64) ([]*models.TripCity, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(trip, caller); err != nil {
		return nil, err
	}
	return s.tripCities.ListByTrip(ctx, tripID)
}

// AddCity appends a city to a trip's route
func (s *TripService) AddCity(ctx context.Context, caller *models.User, tripID, cityID int64, arrivalDate, departureDate string) (*models.TripCity, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(trip, caller); err != nil {
		return nil, err
	}
	if err := validateCityDates(arrivalDate, departureDate); err != nil {
		return nil, err
	}

	tripCity, err := s.tripCities.Add(ctx, tripID, cityID, arrivalDate, departureDate)
	if err != nil {
		return nil, err
	}

	s.evictShared(trip.PublicURL)
	s.bus.PublishTripUpdate(trip.UserID, TripEventPayload{Type: TripUpdated, TripID: tripID})
	return tripCity, nil
}

// UpdateCityDates changes a trip city's arrival and departure
func (s *TripService) UpdateCityDates(ctx context.Context, caller *models.User, tripID, cityID int64, arrivalDate, departureDate string) error {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if err := s.authorize(trip, caller); err != nil {
		return err
	}
	if err := validateCityDates(arrivalDate, departureDate); err != nil {
		return err
	}

	if err := s.tripCities.UpdateDates(ctx, tripID, cityID, arrivalDate, departureDate); err != nil {
		return err
	}

	s.evictShared(trip.PublicURL)
	s.bus.PublishTripUpdate(trip.UserID, TripEventPayload{Type: TripUpdated, TripID: tripID})
	return nil
}

// RemoveCity takes a city off a trip's route
func (s *TripService) RemoveCity(ctx context.Context, caller *models.User, tripID, cityID int64) error {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if err := s.authorize(trip, caller); err != nil {
		return err
	}

	if err := s.tripCities.Remove(ctx, tripID, cityID); err != nil {
		return err
	}

	s.evictShared(trip.PublicURL)
	s.bus.PublishTripUpdate(trip.UserID, TripEventPayload{Type: TripUpdated, TripID: tripID})
	return nil
}

// validateCityDates checks the optional arrival and departure formats
func validateCityDates(arrivalDate, departureDate string) error {
	if arrivalDate != "" {
		if err := utils.ValidateDate(arrivalDate); err != nil {
			return models.ErrInvalidDates.WithMessage("arrival_date must be a YYYY-MM-DD date")
		}
	}
	if departureDate != "" {
		if err := utils.ValidateDate(departureDate); err != nil {
			return models.ErrInvalidDates.WithMessage("departure_date must be a YYYY-MM-DD date")
		}
	}
	return nil
}
