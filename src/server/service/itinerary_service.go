package services

import (
	"context"
	"strings"

	"github.com/apimgr/tripplanner/src/server/model"
	"github.com/apimgr/tripplanner/src/utils"
)

// ItinerarySchedule carries the optional scheduling fields supplied when
// an activity is dropped onto a trip
type ItinerarySchedule struct {
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Cost      *float64 `json:"cost"`
	Notes     string   `json:"notes"`
}

// ItineraryService implements itinerary item lifecycle. Every operation
// resolves the owning trip and checks ownership before touching items.
type ItineraryService struct {
	trips      *models.TripModel
	items      *models.ItineraryModel
	activities *models.ActivityModel
	bus        *EventBus
	shared     *CacheManager
	logger     *utils.Logger
}

// NewItineraryService creates the itinerary service
func NewItineraryService(trips *models.TripModel, items *models.ItineraryModel, activities *models.ActivityModel, bus *EventBus, shared *CacheManager, logger *utils.Logger) *ItineraryService {
	return &ItineraryService{
		trips:      trips,
		items:      items,
		activities: activities,
		bus:        bus,
		shared:     shared,
		logger:     logger,
	}
}

// evictShared drops the owning trip's cached public page when its
// itinerary changes
func (s *ItineraryService) evictShared(publicURL string) {
	if publicURL == "" {
		return
	}
	if err := s.shared.Delete("shared:" + publicURL); err != nil {
		s.logger.Warn("Failed to evict shared trip cache: %v", err)
	}
}

// requireTrip loads a trip and checks the caller may touch its itinerary
func (s *ItineraryService) requireTrip(ctx context.Context, caller *models.User, tripID int64) (*models.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.UserID != caller.ID && !caller.IsAdmin() {
		return nil, models.ErrForbidden
	}
	return trip, nil
}

// requireItem loads an item and checks ownership through its trip in a
// single query
func (s *ItineraryService) requireItem(ctx context.Context, caller *models.User, itemID int64) (*models.ItineraryItem, *models.TripOwner, error) {
	item, owner, err := s.items.GetWithOwner(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if owner.UserID != caller.ID && !caller.IsAdmin() {
		return nil, nil, models.ErrForbidden
	}
	return item, owner, nil
}

// validateTimes checks the optional start and end timestamps. When both
// are present the end must not precede the start.
func validateTimes(startTime, endTime string) error {
	if startTime != "" {
		if err := utils.ValidateDateTime(startTime); err != nil {
			return models.ErrInvalidDates.WithMessage("start_time is not a valid timestamp")
		}
	}
	if endTime != "" {
		if err := utils.ValidateDateTime(endTime); err != nil {
			return models.ErrInvalidDates.WithMessage("end_time is not a valid timestamp")
		}
	}
	if startTime != "" && endTime != "" {
		startAt, _ := utils.ParseDateTime(startTime)
		endAt, _ := utils.ParseDateTime(endTime)
		if endAt.Before(startAt) {
			return models.ErrInvalidDates.WithMessage("end_time cannot precede start_time")
		}
	}
	return nil
}

// validateItemFields checks the shared content constraints
func validateItemFields(category string, cost *float64) error {
	if category != "" && !models.ValidCategory(category) {
		return models.ErrInvalidInput.WithMessage("unknown category: %s", category)
	}
	if cost != nil && *cost < 0 {
		return models.NewValidationError(models.FieldError{Field: "cost", Message: "cost cannot be negative", Value: *cost})
	}
	return nil
}

// ListForTrip returns a trip's itinerary in order, optionally filtered
// by category
func (s *ItineraryService) ListForTrip(ctx context.Context, caller *models.User, tripID int64, category string) ([]*models.ItineraryItem, error) {
	if _, err := s.requireTrip(ctx, caller, tripID); err != nil {
		return nil, err
	}
	if category != "" && !models.ValidCategory(category) {
		return nil, models.ErrInvalidInput.WithMessage("unknown category: %s", category)
	}

	items, err := s.items.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return items, nil
	}

	filtered := make([]*models.ItineraryItem, 0, len(items))
	for _, item := range items {
		if item.Category == category {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// ListGrouped returns a trip's itinerary bucketed by calendar day
func (s *ItineraryService) ListGrouped(ctx context.Context, caller *models.User, tripID int64, category string) ([]models.DateBucket, error) {
	items, err := s.ListForTrip(ctx, caller, tripID, category)
	if err != nil {
		return nil, err
	}
	return models.GroupByDate(items), nil
}

// CreateItem adds an item to a trip's itinerary
func (s *ItineraryService) CreateItem(ctx context.Context, caller *models.User, input models.ItineraryInput) (*models.ItineraryItem, error) {
	trip, err := s.requireTrip(ctx, caller, input.TripID)
	if err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, models.ErrMissingFields.WithDetails(models.FieldError{Field: "title", Message: "title is required"})
	}
	if err := validateTimes(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}
	if err := validateItemFields(input.Category, input.Cost); err != nil {
		return nil, err
	}

	item, err := s.items.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.evictShared(trip.PublicURL)
	s.bus.PublishItineraryUpdate(trip.UserID, ItineraryEventPayload{
		Type:   ItemUpdated,
		TripID: trip.ID,
		Item:   item,
	})
	return item, nil
}

// GetItem returns one item after checking ownership
func (s *ItineraryService) GetItem(ctx context.Context, caller *models.User, itemID int64) (*models.ItineraryItem, error) {
	item, _, err := s.requireItem(ctx, caller, itemID)
	return item, err
}

// UpdateItem applies a partial update to an item
func (s *ItineraryService) UpdateItem(ctx context.Context, caller *models.User, itemID int64, update models.ItineraryUpdate) (*models.ItineraryItem, error) {
	existing, owner, err := s.requireItem(ctx, caller, itemID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		trimmed := strings.TrimSpace(*update.Title)
		if trimmed == "" {
			return nil, models.NewValidationError(models.FieldError{Field: "title", Message: "title cannot be empty"})
		}
		update.Title = &trimmed
	}

	startTime, endTime := existing.StartTime, existing.EndTime
	if update.StartTime != nil {
		startTime = *update.StartTime
	}
	if update.EndTime != nil {
		endTime = *update.EndTime
	}
	if err := validateTimes(startTime, endTime); err != nil {
		return nil, err
	}

	var category string
	if update.Category != nil {
		category = *update.Category
	}
	if err := validateItemFields(category, update.Cost); err != nil {
		return nil, err
	}

	item, err := s.items.Update(ctx, itemID, update)
	if err != nil {
		return nil, err
	}

	s.evictShared(owner.PublicURL)
	s.bus.PublishItineraryUpdate(owner.UserID, ItineraryEventPayload{
		Type:   ItemUpdated,
		TripID: item.TripID,
		Item:   item,
	})
	return item, nil
}

// DeleteItem removes an item from its trip's itinerary
func (s *ItineraryService) DeleteItem(ctx context.Context, caller *models.User, itemID int64) error {
	existing, owner, err := s.requireItem(ctx, caller, itemID)
	if err != nil {
		return err
	}

	if err := s.items.Delete(ctx, itemID); err != nil {
		return err
	}

	s.evictShared(owner.PublicURL)
	s.bus.PublishItineraryUpdate(owner.UserID, ItineraryEventPayload{
		Type:   ItemDeleted,
		TripID: existing.TripID,
		ItemID: itemID,
	})
	return nil
}

// Reorder rewrites a trip's item order in one transaction. The id list
// must name every item of the trip exactly once.
func (s *ItineraryService) Reorder(ctx context.Context, caller *models.User, tripID int64, ids []int64) ([]*models.ItineraryItem, error) {
	trip, err := s.requireTrip(ctx, caller, tripID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, models.ErrInvalidInput.WithMessage("item ids are required")
	}

	if err := s.items.Reorder(ctx, tripID, ids); err != nil {
		return nil, err
	}

	items, err := s.items.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	s.evictShared(trip.PublicURL)
	s.bus.PublishItineraryUpdate(trip.UserID, ItineraryEventPayload{
		Type:   ItemsReordered,
		TripID: tripID,
		Items:  items,
	})
	return items, nil
}

// AddActivity creates an itinerary item from a catalog activity. The
// activity supplies the title, category, cost and city; the schedule
// fields override where provided.
func (s *ItineraryService) AddActivity(ctx context.Context, caller *models.User, tripID, activityID int64, schedule ItinerarySchedule) (*models.ItineraryItem, error) {
	trip, err := s.requireTrip(ctx, caller, tripID)
	if err != nil {
		return nil, err
	}

	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}

	if err := validateTimes(schedule.StartTime, schedule.EndTime); err != nil {
		return nil, err
	}
	if err := validateItemFields("", schedule.Cost); err != nil {
		return nil, err
	}

	input := models.ItineraryInput{
		TripID:      tripID,
		CityID:      &activity.CityID,
		ActivityID:  &activity.ID,
		Title:       activity.Name,
		Description: activity.Description,
		StartTime:   schedule.StartTime,
		EndTime:     schedule.EndTime,
		Location:    activity.CityName,
		Cost:        schedule.Cost,
		Category:    activity.Category,
		Notes:       schedule.Notes,
	}
	if input.Cost == nil {
		input.Cost = activity.CostMin
	}
	if input.Category == "" {
		input.Category = "activity"
	}

	item, err := s.items.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.evictShared(trip.PublicURL)
	s.bus.PublishItineraryUpdate(trip.UserID, ItineraryEventPayload{
		Type:   ItemUpdated,
		TripID: tripID,
		Item:   item,
	})
	return item, nil
}
