package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/tripplanner/src/server/metrics"
	"github.com/apimgr/tripplanner/src/server/middleware"
	"github.com/apimgr/tripplanner/src/server/model"
	"github.com/apimgr/tripplanner/src/server/service"
	"github.com/apimgr/tripplanner/src/utils"
)

// ActivityHandler exposes the shared activity catalog. Reads are
// public, curation is admin-only, and add-to-trip goes through the
// itinerary service so ownership is enforced there.
type ActivityHandler struct {
	activities *models.ActivityModel
	itinerary  *services.ItineraryService
	catalog    *services.CatalogCache
	logger     *utils.Logger
}

// NewActivityHandler creates the activity handler
func NewActivityHandler(activities *models.ActivityModel, itinerary *services.ItineraryService, catalog *services.CatalogCache, logger *utils.Logger) *ActivityHandler {
	return &ActivityHandler{activities: activities, itinerary: itinerary, catalog: catalog, logger: logger}
}

// Search handles GET /api/activities/search
func (h *ActivityHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		query = strings.TrimSpace(c.Query("query"))
	}

	filters := models.ActivityFilters{
		Category:    c.Query("category"),
		MinCost:     QueryFloat(c, "min_cost"),
		MaxCost:     QueryFloat(c, "max_cost"),
		MinDuration: QueryFloat(c, "min_duration"),
		MaxDuration: QueryFloat(c, "max_duration"),
		MinRating:   QueryFloat(c, "min_rating"),
	}
	if filters.Category != "" && !models.ValidCategory(filters.Category) {
		RespondError(c, models.ErrInvalidInput.WithMessage("unknown category: %s", filters.Category))
		return
	}

	cityID := int64(QueryInt(c, "city_id", 0))
	limit, offset := clampPage(QueryInt(c, "limit", 20), QueryInt(c, "offset", 0), 20, 100)

	activities, err := h.activities.Search(c.Request.Context(), query, cityID, filters, limit, offset)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities, "count": len(activities)})
}

// Popular handles GET /api/activities/popular
func (h *ActivityHandler) Popular(c *gin.Context) {
	limit, _ := clampPage(QueryInt(c, "limit", 10), 0, 10, 50)

	if activities, ok := h.catalog.PopularActivities(limit); ok {
		metrics.RecordCacheHit("popular_activities")
		c.JSON(http.StatusOK, gin.H{"activities": activities})
		return
	}
	metrics.RecordCacheMiss("popular_activities")

	activities, err := h.activities.Popular(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, err)
		return
	}

	h.catalog.SetPopularActivities(limit, activities)
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

// Categories handles GET /api/activities/categories
func (h *ActivityHandler) Categories(c *gin.Context) {
	if categories, ok := h.catalog.Categories(); ok {
		metrics.RecordCacheHit("categories")
		c.JSON(http.StatusOK, gin.H{"categories": categories})
		return
	}
	metrics.RecordCacheMiss("categories")

	categories, err := h.activities.Categories(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}

	h.catalog.SetCategories(categories)
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// Get handles GET /api/activities/:id
func (h *ActivityHandler) Get(c *gin.Context) {
	activityID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	activity, err := h.activities.GetByID(c.Request.Context(), activityID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

type forCitiesRequest struct {
	CityIDs  []int64 `json:"city_ids"`
	Category string  `json:"category"`
	Limit    int     `json:"limit"`
}

// ForCities handles POST /api/activities/for-cities: one lookup for
// the activities of several cities, grouped by city
func (h *ActivityHandler) ForCities(c *gin.Context) {
	var req forCitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}
	if len(req.CityIDs) == 0 {
		RespondError(c, models.ErrMissingFields.WithDetails(models.FieldError{Field: "city_ids", Message: "city_ids is required"}))
		return
	}
	if len(req.CityIDs) > 50 {
		RespondError(c, models.ErrInvalidInput.WithMessage("at most 50 cities per request"))
		return
	}
	if req.Category != "" && !models.ValidCategory(req.Category) {
		RespondError(c, models.ErrInvalidInput.WithMessage("unknown category: %s", req.Category))
		return
	}

	grouped, err := h.activities.ForCities(c.Request.Context(), req.CityIDs, req.Category, req.Limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": grouped})
}

// AddToTrip handles POST /api/activities/:id/add-to-trip: creates an
// itinerary item from the catalog entry, merging any schedule data
func (h *ActivityHandler) AddToTrip(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	activityID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	var req struct {
		TripID int64 `json:"trip_id"`
		services.ItinerarySchedule
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}
	if req.TripID <= 0 {
		RespondError(c, models.ErrMissingFields.WithDetails(models.FieldError{Field: "trip_id", Message: "trip_id is required"}))
		return
	}

	item, err := h.itinerary.AddActivity(c.Request.Context(), user, req.TripID, activityID, req.ItinerarySchedule)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// Create handles POST /api/activities (admin)
func (h *ActivityHandler) Create(c *gin.Context) {
	user := middleware.MustCurrentUser(c)

	var input models.ActivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondBindError(c, err)
		return
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" || input.CityID <= 0 {
		RespondError(c, models.ErrMissingFields.WithDetails(
			models.FieldError{Field: "name", Message: "name is required"},
			models.FieldError{Field: "city_id", Message: "city_id is required"},
		))
		return
	}

	activity, err := h.activities.Create(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}

	h.catalog.Invalidate()
	h.logger.Audit(strconv.FormatInt(user.ID, 10), "create_activity", "activity", "", activity.Name, c.ClientIP(), c.Request.UserAgent(), true, "")
	c.JSON(http.StatusCreated, gin.H{"activity": activity})
}

// Update handles PUT /api/activities/:id (admin)
func (h *ActivityHandler) Update(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	activityID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	var input models.ActivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondBindError(c, err)
		return
	}

	activity, err := h.activities.Update(c.Request.Context(), activityID, input)
	if err != nil {
		RespondError(c, err)
		return
	}

	h.catalog.Invalidate()
	h.logger.Audit(strconv.FormatInt(user.ID, 10), "update_activity", "activity", "", activity.Name, c.ClientIP(), c.Request.UserAgent(), true, "")
	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

// Delete handles DELETE /api/activities/:id (admin). An activity still
// referenced by itinerary items is refused with a conflict.
func (h *ActivityHandler) Delete(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	activityID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	if err := h.activities.Delete(c.Request.Context(), activityID); err != nil {
		RespondError(c, err)
		return
	}

	h.catalog.Invalidate()
	h.logger.Audit(strconv.FormatInt(user.ID, 10), "delete_activity", "activity", strconv.FormatInt(activityID, 10), "", c.ClientIP(), c.Request.UserAgent(), true, "")
	c.JSON(http.StatusOK, statusOK("Activity deleted"))
}
