package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-api/internal/dto"
	"github.com/yukikurage/kanban-api/internal/services"
)

type SubtaskHandler struct {
	subtaskService *services.SubtaskService
}

func NewSubtaskHandler(subtaskService *services.SubtaskService) *SubtaskHandler {
	return &SubtaskHandler{subtaskService: subtaskService}
}

func (h *SubtaskHandler) ListSubtasks(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	subtasks, err := h.subtaskService.ListSubtasks(actor, taskID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ToSubtaskDTOs(subtasks)})
}

func (h *SubtaskHandler) CreateSubtask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	type CreateSubtaskRequest struct {
		Title string `json:"title" binding:"required,max=255"`
	}

	var req CreateSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	subtask, err := h.subtaskService.CreateSubtask(actor, taskID, req.Title)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Subtask created successfully",
		"data":    dto.ToSubtaskDTO(*subtask),
	})
}

func (h *SubtaskHandler) UpdateSubtask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}
	subtaskID, ok := parseID(c, "subtask_id", "subtask")
	if !ok {
		return
	}

	type UpdateSubtaskRequest struct {
		Title       *string `json:"title" binding:"omitempty,max=255"`
		IsCompleted *bool   `json:"is_completed"`
	}

	var req UpdateSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	subtask, err := h.subtaskService.UpdateSubtask(actor, taskID, subtaskID, services.UpdateSubtaskInput{
		Title:       req.Title,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Subtask updated successfully",
		"data":    dto.ToSubtaskDTO(*subtask),
	})
}

func (h *SubtaskHandler) DeleteSubtask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}
	subtaskID, ok := parseID(c, "subtask_id", "subtask")
	if !ok {
		return
	}

	if err := h.subtaskService.DeleteSubtask(actor, taskID, subtaskID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subtask deleted successfully"})
}

// ReorderSubtasks rewrites the order of a task's subtasks
func (h *SubtaskHandler) ReorderSubtasks(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	type ReorderRequest struct {
		SubtaskIDs []uint64 `json:"subtask_ids" binding:"required"`
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	subtasks, err := h.subtaskService.ReorderSubtasks(actor, taskID, req.SubtaskIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Subtasks reordered successfully",
		"data":    dto.ToSubtaskDTOs(subtasks),
	})
}
