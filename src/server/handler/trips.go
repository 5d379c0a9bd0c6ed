package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/tripplanner/src/server/middleware"
	"github.com/apimgr/tripplanner/src/server/model"
	"github.com/apimgr/tripplanner/src/server/service"
	"github.com/apimgr/tripplanner/src/utils"
)

// TripHandler exposes the trip lifecycle endpoints
type TripHandler struct {
	trips  *services.TripService
	logger *utils.Logger
}

// NewTripHandler creates the trip handler
func NewTripHandler(trips *services.TripService, logger *utils.Logger) *TripHandler {
	return &TripHandler{trips: trips, logger: logger}
}

// tripCreateRequest accepts both snake_case and the camelCase aliases
// some clients send
type tripCreateRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	StartDate     string   `json:"start_date"`
	StartDateAlt  string   `json:"startDate"`
	EndDate       string   `json:"end_date"`
	EndDateAlt    string   `json:"endDate"`
	Budget        *float64 `json:"budget"`
	IsPublic      *bool    `json:"is_public"`
	IsPublicAlt   *bool    `json:"isPublic"`
	CoverPhoto    string   `json:"cover_photo_path"`
	CoverPhotoAlt string   `json:"coverPhotoPath"`
}

func (r *tripCreateRequest) toInput() models.TripInput {
	input := models.TripInput{
		Title:          r.Title,
		Description:    r.Description,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		Budget:         r.Budget,
		CoverPhotoPath: r.CoverPhoto,
	}
	if input.StartDate == "" {
		input.StartDate = r.StartDateAlt
	}
	if input.EndDate == "" {
		input.EndDate = r.EndDateAlt
	}
	if input.CoverPhotoPath == "" {
		input.CoverPhotoPath = r.CoverPhotoAlt
	}
	if r.IsPublic != nil {
		input.IsPublic = *r.IsPublic
	} else if r.IsPublicAlt != nil {
		input.IsPublic = *r.IsPublicAlt
	}
	return input
}

type tripUpdateRequest struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	StartDate     *string  `json:"start_date"`
	StartDateAlt  *string  `json:"startDate"`
	EndDate       *string  `json:"end_date"`
	EndDateAlt    *string  `json:"endDate"`
	Budget        *float64 `json:"budget"`
	Status        *string  `json:"status"`
	IsPublic      *bool    `json:"is_public"`
	IsPublicAlt   *bool    `json:"isPublic"`
	CoverPhoto    *string  `json:"cover_photo_path"`
	CoverPhotoAlt *string  `json:"coverPhotoPath"`
	Featured      *bool    `json:"featured"`
}

func (r *tripUpdateRequest) toUpdate() models.TripUpdate {
	update := models.TripUpdate{
		Title:          r.Title,
		Description:    r.Description,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		Budget:         r.Budget,
		Status:         r.Status,
		IsPublic:       r.IsPublic,
		CoverPhotoPath: r.CoverPhoto,
		Featured:       r.Featured,
	}
	if update.StartDate == nil {
		update.StartDate = r.StartDateAlt
	}
	if update.EndDate == nil {
		update.EndDate = r.EndDateAlt
	}
	if update.IsPublic == nil {
		update.IsPublic = r.IsPublicAlt
	}
	if update.CoverPhotoPath == nil {
		update.CoverPhotoPath = r.CoverPhotoAlt
	}
	return update
}

// List handles GET /api/trips
func (h *TripHandler) List(c *gin.Context) {
	user := middleware.MustCurrentUser(c)

	trips, err := h.trips.List(c.Request.Context(), user,
		c.Query("status"), QueryInt(c, "limit", 0), QueryInt(c, "offset", 0))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

// Create handles POST /api/trips
func (h *TripHandler) Create(c *gin.Context) {
	user := middleware.MustCurrentUser(c)

	var req tripCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	trip, err := h.trips.Create(c.Request.Context(), user, req.toInput())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"trip": trip})
}

// Get handles GET /api/trips/:id
func (h *TripHandler) Get(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	tripID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	detail, err := h.trips.Get(c.Request.Context(), user, tripID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Update handles PUT /api/trips/:id
func (h *TripHandler) Update(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	tripID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	var req tripUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	trip, err := h.trips.Update(c.Request.Context(), user, tripID, req.toUpdate())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// Delete handles DELETE /api/trips/:id
func (h *TripHandler) Delete(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	tripID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	if err := h.trips.Delete(c.Request.Context(), user, tripID); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusOK("Trip deleted"))
}

// Share handles POST /api/trips/:id/share. The share URL is built from
// the request's own scheme and host so clients behind proxies get a
// working link.
func (h *TripHandler) Share(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	tripID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	token, err := h.trips.Share(c.Request.Context(), user, tripID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"publicUrl": token,
		"shareUrl":  requestBaseURL(c) + "/shared/" + token,
	})
}

// GetShared handles GET /api/trips/shared/:publicUrl without auth
func (h *TripHandler) GetShared(c *gin.Context) {
	token := c.Param("publicUrl")
	if token == "" {
		RespondError(c, models.ErrTripNotFound)
		return
	}

	detail, err := h.trips.GetShared(c.Request.Context(), token)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Stats handles GET /api/trips/:id/stats
func (h *TripHandler) Stats(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	tripID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	result, err := h.trips.Stats(c.Request.Context(), user, tripID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Summary handles GET /api/trips/:id/summary
func (h *TripHandler) Summary(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	tripID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	summary, err := h.trips.Summary(c.Request.Context(), user, tripID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CostBreakdown handles GET /api/trips/:id/cost-breakdown
func (h *TripHandler) CostBreakdown(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	tripID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	breakdown, err := h.trips.CostBreakdown(c.Request.Context(), user, tripID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"costBreakdown": breakdown})
}

// ListCities handles GET /api/trips/:id/cities
func (h *TripHandler) ListCities(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	tripID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	cities, err := h.trips.ListCities(c.Request.Context(), user, tripID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

type tripCityDatesRequest struct {
	ArrivalDate   string `json:"arrival_date"`
	DepartureDate string `json:"departure_date"`
}

// UpdateCityDates handles PUT /api/trips/:id/cities/:cityId
func (h *TripHandler) UpdateCityDates(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	tripID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	cityID, err := ParamID(c, "cityId")
	if err != nil {
		RespondError(c, err)
		return
	}

	var req tripCityDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	if err := h.trips.UpdateCityDates(c.Request.Context(), user, tripID, cityID, req.ArrivalDate, req.DepartureDate); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusOK("City dates updated"))
}
