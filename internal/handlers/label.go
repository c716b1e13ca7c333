package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-api/internal/dto"
	"github.com/yukikurage/kanban-api/internal/services"
)

type LabelHandler struct {
	labelService *services.LabelService
}

func NewLabelHandler(labelService *services.LabelService) *LabelHandler {
	return &LabelHandler{labelService: labelService}
}

type labelRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (h *LabelHandler) ListLabels(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	labels, err := h.labelService.ListLabels(actor, projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ToLabelDTOs(labels)})
}

func (h *LabelHandler) CreateLabel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	label, err := h.labelService.CreateLabel(actor, projectID, services.LabelInput{Name: req.Name, Color: req.Color})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Label created successfully",
		"data":    dto.ToLabelDTO(*label),
	})
}

func (h *LabelHandler) UpdateLabel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}
	labelID, ok := parseID(c, "label_id", "label")
	if !ok {
		return
	}

	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	label, err := h.labelService.UpdateLabel(actor, projectID, labelID, services.LabelInput{Name: req.Name, Color: req.Color})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Label updated successfully",
		"data":    dto.ToLabelDTO(*label),
	})
}

func (h *LabelHandler) DeleteLabel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}
	labelID, ok := parseID(c, "label_id", "label")
	if !ok {
		return
	}

	if err := h.labelService.DeleteLabel(actor, projectID, labelID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Label deleted successfully"})
}
