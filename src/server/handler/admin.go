package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/tripplanner/src/server/middleware"
	"github.com/apimgr/tripplanner/src/server/model"
	"github.com/apimgr/tripplanner/src/server/service"
	"github.com/apimgr/tripplanner/src/utils"
)

// AdminHandler exposes the admin dashboard, user and trip management,
// catalog listings and analytics. Every route is wired behind
// RequireAuth + RequireAdmin.
type AdminHandler struct {
	admin      *services.AdminService
	trips      *services.TripService
	cities     *models.CityModel
	activities *models.ActivityModel
	logger     *utils.Logger
}

// NewAdminHandler creates the admin handler
func NewAdminHandler(admin *services.AdminService, trips *services.TripService, cities *models.CityModel, activities *models.ActivityModel, logger *utils.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, trips: trips, cities: cities, activities: activities, logger: logger}
}

// Dashboard handles GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.admin.Dashboard(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, offset := clampPage(QueryInt(c, "limit", 25), QueryInt(c, "offset", 0), 25, 100)

	users, total, err := h.admin.ListUsers(c.Request.Context(), c.Query("search"), c.Query("sort_by"), c.Query("order"), limit, offset)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users":      users,
		"pagination": Pagination{Limit: limit, Offset: offset, Total: total},
	})
}

// GetUser handles GET /api/admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	userID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	user, err := h.admin.GetUser(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateUser handles PUT /api/admin/users/:id. Demoting your own
// account is refused.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	caller := middleware.MustCurrentUser(c)
	userID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	var update services.AdminUserUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		RespondBindError(c, err)
		return
	}

	user, err := h.admin.UpdateUser(c.Request.Context(), caller, userID, update)
	if err != nil {
		RespondError(c, err)
		return
	}

	h.logger.Audit(strconv.FormatInt(caller.ID, 10), "admin_update_user", "user", strconv.FormatInt(userID, 10), user.Email, c.ClientIP(), c.Request.UserAgent(), true, "")
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser handles DELETE /api/admin/users/:id. Deleting your own
// account is refused.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	caller := middleware.MustCurrentUser(c)
	userID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	if err := h.admin.DeleteUser(c.Request.Context(), caller, userID); err != nil {
		RespondError(c, err)
		return
	}

	h.logger.Audit(strconv.FormatInt(caller.ID, 10), "admin_delete_user", "user", strconv.FormatInt(userID, 10), "", c.ClientIP(), c.Request.UserAgent(), true, "")
	c.JSON(http.StatusOK, statusOK("User deleted"))
}

// ListTrips handles GET /api/admin/trips
func (h *AdminHandler) ListTrips(c *gin.Context) {
	limit, offset := clampPage(QueryInt(c, "limit", 25), QueryInt(c, "offset", 0), 25, 100)

	trips, total, err := h.admin.ListTrips(c.Request.Context(), c.Query("search"), c.Query("status"), c.Query("sort_by"), c.Query("order"), limit, offset)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trips":      trips,
		"pagination": Pagination{Limit: limit, Offset: offset, Total: total},
	})
}

// DeleteTrip handles DELETE /api/admin/trips/:id. The trip service
// passes admins through its ownership check.
func (h *AdminHandler) DeleteTrip(c *gin.Context) {
	caller := middleware.MustCurrentUser(c)
	tripID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	if err := h.trips.Delete(c.Request.Context(), caller, tripID); err != nil {
		RespondError(c, err)
		return
	}

	h.logger.Audit(strconv.FormatInt(caller.ID, 10), "admin_delete_trip", "trip", strconv.FormatInt(tripID, 10), "", c.ClientIP(), c.Request.UserAgent(), true, "")
	c.JSON(http.StatusOK, statusOK("Trip deleted"))
}

type featureTripRequest struct {
	Featured bool `json:"featured"`
}

// FeatureTrip handles PUT /api/admin/trips/:id/feature
func (h *AdminHandler) FeatureTrip(c *gin.Context) {
	caller := middleware.MustCurrentUser(c)
	tripID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	var req featureTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	trip, err := h.trips.Update(c.Request.Context(), caller, tripID, models.TripUpdate{Featured: &req.Featured})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// ListCities handles GET /api/admin/cities
func (h *AdminHandler) ListCities(c *gin.Context) {
	limit, offset := clampPage(QueryInt(c, "limit", 25), QueryInt(c, "offset", 0), 25, 100)

	cities, err := h.cities.List(c.Request.Context(), c.Query("search"), c.Query("sort_by"), c.Query("order"), limit, offset)
	if err != nil {
		RespondError(c, err)
		return
	}
	total, err := h.cities.Count(c.Request.Context(), c.Query("search"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cities":     cities,
		"pagination": Pagination{Limit: limit, Offset: offset, Total: total},
	})
}

// ListActivities handles GET /api/admin/activities
func (h *AdminHandler) ListActivities(c *gin.Context) {
	limit, offset := clampPage(QueryInt(c, "limit", 25), QueryInt(c, "offset", 0), 25, 100)

	activities, err := h.activities.List(c.Request.Context(), c.Query("search"), c.Query("sort_by"), c.Query("order"), limit, offset)
	if err != nil {
		RespondError(c, err)
		return
	}
	total, err := h.activities.Count(c.Request.Context(), c.Query("search"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"activities": activities,
		"pagination": Pagination{Limit: limit, Offset: offset, Total: total},
	})
}

// UserAnalytics handles GET /api/admin/analytics/users
func (h *AdminHandler) UserAnalytics(c *gin.Context) {
	analytics, err := h.admin.UserAnalytics(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// TripAnalytics handles GET /api/admin/analytics/trips
func (h *AdminHandler) TripAnalytics(c *gin.Context) {
	analytics, err := h.admin.TripAnalytics(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// SystemHealth handles GET /api/admin/system/health
func (h *AdminHandler) SystemHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.admin.SystemHealth(c.Request.Context()))
}

// SystemLogs handles GET /api/admin/system/logs?name=server&lines=100
func (h *AdminHandler) SystemLogs(c *gin.Context) {
	name := c.DefaultQuery("name", "server")
	lines := QueryInt(c, "lines", 100)
	if lines <= 0 || lines > 1000 {
		lines = 100
	}

	entries, err := h.admin.SystemLogs(name, lines)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"log": name, "lines": entries})
}
