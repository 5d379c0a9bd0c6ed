package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/tripplanner/src/server/middleware"
	"github.com/apimgr/tripplanner/src/server/model"
	"github.com/apimgr/tripplanner/src/server/service"
	"github.com/apimgr/tripplanner/src/utils"
)

// ItineraryHandler exposes the itinerary endpoints, both trip-scoped
// and item-scoped
type ItineraryHandler struct {
	itinerary *services.ItineraryService
	logger    *utils.Logger
}

// NewItineraryHandler creates the itinerary handler
func NewItineraryHandler(itinerary *services.ItineraryService, logger *utils.Logger) *ItineraryHandler {
	return &ItineraryHandler{itinerary: itinerary, logger: logger}
}

// ListForTrip handles GET /api/trips/:id/itinerary. With
// ?group_by_date=true items come back bucketed per calendar day, the
// unscheduled ones in their own bucket.
func (h *ItineraryHandler) ListForTrip(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	tripID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	category := c.Query("category")

	if c.Query("group_by_date") == "true" {
		buckets, err := h.itinerary.ListGrouped(c.Request.Context(), user, tripID, category)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"itinerary": buckets, "grouped": true})
		return
	}

	items, err := h.itinerary.ListForTrip(c.Request.Context(), user, tripID, category)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type itineraryCreateRequest struct {
	CityID           *int64   `json:"city_id"`
	ActivityID       *int64   `json:"activity_id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	StartTime        string   `json:"start_time"`
	EndTime          string   `json:"end_time"`
	Location         string   `json:"location"`
	Cost             *float64 `json:"cost"`
	Category         string   `json:"category"`
	BookingReference string   `json:"booking_reference"`
	Notes            string   `json:"notes"`
}

// CreateForTrip handles POST /api/trips/:id/itinerary
func (h *ItineraryHandler) CreateForTrip(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	tripID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	var req itineraryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	item, err := h.itinerary.CreateItem(c.Request.Context(), user, models.ItineraryInput{
		TripID:           tripID,
		CityID:           req.CityID,
		ActivityID:       req.ActivityID,
		Title:            req.Title,
		Description:      req.Description,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		Location:         req.Location,
		Cost:             req.Cost,
		Category:         req.Category,
		BookingReference: req.BookingReference,
		Notes:            req.Notes,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// reorderRequest matches the wire shape {items: [{id: ...}, ...]}
type reorderRequest struct {
	Items []struct {
		ID int64 `json:"id"`
	} `json:"items"`
}

// Reorder handles PUT /api/trips/:id/itinerary/reorder
func (h *ItineraryHandler) Reorder(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	tripID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	ids := make([]int64, len(req.Items))
	for i, item := range req.Items {
		ids[i] = item.ID
	}

	items, err := h.itinerary.Reorder(c.Request.Context(), user, tripID, ids)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Get handles GET /api/itinerary/:id
func (h *ItineraryHandler) Get(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	itemID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	item, err := h.itinerary.GetItem(c.Request.Context(), user, itemID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// Update handles PUT /api/itinerary/:id
func (h *ItineraryHandler) Update(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	itemID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	var update models.ItineraryUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		RespondBindError(c, err)
		return
	}

	item, err := h.itinerary.UpdateItem(c.Request.Context(), user, itemID, update)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// Delete handles DELETE /api/itinerary/:id
func (h *ItineraryHandler) Delete(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	itemID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	if err := h.itinerary.DeleteItem(c.Request.Context(), user, itemID); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusOK("Itinerary item deleted"))
}
