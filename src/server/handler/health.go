package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/tripplanner/src/database"
)

// HealthHandler answers liveness probes. It stays reachable with or
// without a configured database so orchestrators can tell "up but
// degraded" from "down".
type HealthHandler struct {
	db      *database.DB
	version string
}

// NewHealthHandler creates the health handler
func NewHealthHandler(db *database.DB, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(c *gin.Context) {
	dbStatus := "unconfigured"
	status := "degraded"

	if h.db != nil {
		if err := database.PingWithTimeout(h.db.DB); err != nil {
			dbStatus = "unreachable"
		} else {
			dbStatus = "ok"
			status = "ok"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":   status,
		"version":  h.version,
		"database": dbStatus,
	})
}
