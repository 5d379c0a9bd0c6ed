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

// CityHandler exposes the shared city catalog and trip-membership
// endpoints. Catalog reads are public; writes are admin-only and trip
// membership requires ownership of the trip.
type CityHandler struct {
	cities  *models.CityModel
	trips   *services.TripService
	catalog *services.CatalogCache
	logger  *utils.Logger
}

// NewCityHandler creates the city handler
func NewCityHandler(cities *models.CityModel, trips *services.TripService, catalog *services.CatalogCache, logger *utils.Logger) *CityHandler {
	return &CityHandler{cities: cities, trips: trips, catalog: catalog, logger: logger}
}

// Search handles GET /api/cities/search
func (h *CityHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		query = strings.TrimSpace(c.Query("query"))
	}
	country := strings.TrimSpace(c.Query("country"))
	limit, offset := clampPage(QueryInt(c, "limit", 20), QueryInt(c, "offset", 0), 20, 100)

	cities, err := h.cities.Search(c.Request.Context(), query, country, limit, offset)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities, "count": len(cities)})
}

// Popular handles GET /api/cities/popular
func (h *CityHandler) Popular(c *gin.Context) {
	limit, _ := clampPage(QueryInt(c, "limit", 10), 0, 10, 50)

	if cities, ok := h.catalog.PopularCities(limit); ok {
		metrics.RecordCacheHit("popular_cities")
		c.JSON(http.StatusOK, gin.H{"cities": cities})
		return
	}
	metrics.RecordCacheMiss("popular_cities")

	cities, err := h.cities.Popular(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, err)
		return
	}

	h.catalog.SetPopularCities(limit, cities)
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

// Countries handles GET /api/cities/countries
func (h *CityHandler) Countries(c *gin.Context) {
	if countries, ok := h.catalog.Countries(); ok {
		metrics.RecordCacheHit("countries")
		c.JSON(http.StatusOK, gin.H{"countries": countries})
		return
	}
	metrics.RecordCacheMiss("countries")

	countries, err := h.cities.Countries(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}

	h.catalog.SetCountries(countries)
	c.JSON(http.StatusOK, gin.H{"countries": countries})
}

// Get handles GET /api/cities/:id
func (h *CityHandler) Get(c *gin.Context) {
	cityID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	city, err := h.cities.GetByID(c.Request.Context(), cityID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"city": city})
}

// Create handles POST /api/cities (admin)
func (h *CityHandler) Create(c *gin.Context) {
	user := middleware.MustCurrentUser(c)

	var input models.CityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondBindError(c, err)
		return
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Country = strings.TrimSpace(input.Country)
	if input.Name == "" || input.Country == "" {
		RespondError(c, models.ErrMissingFields.WithDetails(
			models.FieldError{Field: "name", Message: "name is required"},
			models.FieldError{Field: "country", Message: "country is required"},
		))
		return
	}

	city, err := h.cities.Create(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}

	h.catalog.Invalidate()
	h.logger.Audit(strconv.FormatInt(user.ID, 10), "create_city", "city", "", city.Name, c.ClientIP(), c.Request.UserAgent(), true, "")
	c.JSON(http.StatusCreated, gin.H{"city": city})
}

// Update handles PUT /api/cities/:id (admin)
func (h *CityHandler) Update(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	cityID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	var input models.CityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondBindError(c, err)
		return
	}

	city, err := h.cities.Update(c.Request.Context(), cityID, input)
	if err != nil {
		RespondError(c, err)
		return
	}

	h.catalog.Invalidate()
	h.logger.Audit(strconv.FormatInt(user.ID, 10), "update_city", "city", "", city.Name, c.ClientIP(), c.Request.UserAgent(), true, "")
	c.JSON(http.StatusOK, gin.H{"city": city})
}

// Delete handles DELETE /api/cities/:id (admin). A city still
// referenced by trips or activities is refused with a conflict.
func (h *CityHandler) Delete(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	cityID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	if err := h.cities.Delete(c.Request.Context(), cityID); err != nil {
		RespondError(c, err)
		return
	}

	h.catalog.Invalidate()
	h.logger.Audit(strconv.FormatInt(user.ID, 10), "delete_city", "city", strconv.FormatInt(cityID, 10), "", c.ClientIP(), c.Request.UserAgent(), true, "")
	c.JSON(http.StatusOK, statusOK("City deleted"))
}

type addCityToTripRequest struct {
	TripID        int64  `json:"trip_id"`
	ArrivalDate   string `json:"arrival_date"`
	DepartureDate string `json:"departure_date"`
}

// AddToTrip handles POST /api/cities/:id/add-to-trip
func (h *CityHandler) AddToTrip(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	cityID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	var req addCityToTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}
	if req.TripID <= 0 {
		RespondError(c, models.ErrMissingFields.WithDetails(models.FieldError{Field: "trip_id", Message: "trip_id is required"}))
		return
	}

	tripCity, err := h.trips.AddCity(c.Request.Context(), user, req.TripID, cityID, req.ArrivalDate, req.DepartureDate)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"trip_city": tripCity})
}

// RemoveFromTrip handles DELETE /api/cities/:id/remove-from-trip/:tripId
func (h *CityHandler) RemoveFromTrip(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	cityID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	tripID, err := ParamID(c, "tripId")
	if err != nil {
		RespondError(c, err)
		return
	}

	if err := h.trips.RemoveCity(c.Request.Context(), user, tripID, cityID); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusOK("City removed from trip"))
}
