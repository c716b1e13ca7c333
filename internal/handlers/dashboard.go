package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-api/internal/services"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Stats returns the headline counters for the user's projects. refresh=true
// bypasses the cached figures.
func (h *DashboardHandler) Stats(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh {
		h.dashboardService.Invalidate(actor.UserID)
	}

	stats, err := h.dashboardService.Stats(actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"stats": stats}})
}
