package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yukikurage/kanban-api/internal/constants"
	"github.com/yukikurage/kanban-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-api/internal/errors"
	"github.com/yukikurage/kanban-api/internal/middleware"
	"github.com/yukikurage/kanban-api/internal/realtime"
	"github.com/yukikurage/kanban-api/internal/services"
)

// ActivityHandler serves activity feeds and the realtime socket
type ActivityHandler struct {
	activityService *services.ActivityService
	hub             *realtime.Hub
	upgrader        websocket.Upgrader
}

// NewActivityHandler creates an ActivityHandler. Sockets accept the given
// origins; "*" allows any origin.
func NewActivityHandler(activityService *services.ActivityService, hub *realtime.Hub, allowedOrigins []string) *ActivityHandler {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return &ActivityHandler{
		activityService: activityService,
		hub:             hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
	}
}

// TaskActivities returns the latest activities of a task
func (h *ActivityHandler) TaskActivities(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	limit := queryLimit(c, constants.TaskActivityLimit)
	activities, err := h.activityService.ListForTask(actor, taskID, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ToActivityDTOs(activities, h.activityService.Now())})
}

// ProjectActivities returns the latest activities of a project
func (h *ActivityHandler) ProjectActivities(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	limit := queryLimit(c, constants.ProjectActivityLimit)
	activities, err := h.activityService.ListForProject(actor, projectID, c.Query("type"), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ToActivityDTOs(activities, h.activityService.Now())})
}

// Subscribe upgrades the connection to a websocket receiving the project's
// activities. RequireProjectAccess must run first.
func (h *ActivityHandler) Subscribe(c *gin.Context) {
	access, ok := middleware.GetProjectAccess(c)
	if !ok {
		apierrors.InternalError(c, "Project access not resolved")
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := realtime.NewClient(h.hub, conn, access.ProjectID, userID)
	if !h.hub.Register(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

func queryLimit(c *gin.Context, max int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 || limit > max {
		return max
	}
	return limit
}
