package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/yukikurage/kanban-api/internal/constants"
	"github.com/yukikurage/kanban-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-api/internal/errors"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/services"
	"github.com/yukikurage/kanban-api/internal/utils"
)

type TaskHandler struct {
	taskService    *services.TaskService
	commentService *services.CommentService
}

func NewTaskHandler(taskService *services.TaskService, commentService *services.CommentService) *TaskHandler {
	return &TaskHandler{
		taskService:    taskService,
		commentService: commentService,
	}
}

// ListTasks returns the tasks visible to the current user
func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c, constants.TaskPageSize)
	input := services.ListTasksInput{
		Search:   c.Query("search"),
		DueRange: c.Query("due_date_range"),
		Page:     params.Page,
		PageSize: params.Limit,
	}

	if input.ColumnID, ok = parseOptionalID(c, "column_id"); !ok {
		return
	}
	if input.AssigneeID, ok = parseOptionalID(c, "assignee_id"); !ok {
		return
	}
	if raw := c.Query("priority"); raw != "" {
		priority := models.TaskPriority(raw)
		if !priority.Valid() {
			apierrors.BadRequest(c, "Invalid priority")
			return
		}
		input.Priority = &priority
	}
	labelIDs, err := parseIDList(c.Query("label_ids"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid label_ids")
		return
	}
	input.LabelIDs = labelIDs

	for key, dst := range map[string]**time.Time{
		"due_date_from": &input.DueDateFrom,
		"due_date_to":   &input.DueDateTo,
	} {
		if raw := c.Query(key); raw != "" {
			date, err := parseDate(raw)
			if err != nil {
				apierrors.BadRequest(c, "Invalid "+key)
				return
			}
			*dst = &date
		}
	}

	switch input.DueRange {
	case "", "overdue", "today", "week":
	default:
		apierrors.BadRequest(c, "Invalid due_date_range")
		return
	}

	tasks, total, err := h.taskService.ListTasks(actor, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": dto.ToTaskDTOs(tasks, h.taskService.Now()),
		"meta": utils.NewPaginationMeta(params, total),
	})
}

// CreateTask appends a task to a column
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		ColumnID    uint64  `json:"column_id" binding:"required"`
		Title       string  `json:"title" binding:"required,max=255"`
		Description string  `json:"description"`
		AssigneeID  *uint64 `json:"assignee_id"`
		Priority    string  `json:"priority"`
		DueDate     *string `json:"due_date"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	input := services.CreateTaskInput{
		ColumnID:    req.ColumnID,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Priority:    models.TaskPriority(req.Priority),
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			apierrors.BadRequest(c, "Invalid due_date")
			return
		}
		input.DueDate = &due
	}

	task, err := h.taskService.CreateTask(actor, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"data":    dto.ToTaskDTO(*task, h.taskService.Now()),
	})
}

// GetTask returns a task with its subtasks, labels and comments
func (h *TaskHandler) GetTask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	task, perms, err := h.taskService.GetTask(actor, taskID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	comments, err := h.commentService.ListComments(actor, taskID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	editable := func(comment models.Comment) bool {
		return h.commentService.Editable(actor, comment)
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.TaskDetailDTO{
		TaskDTO:   dto.ToTaskDTO(*task, h.taskService.Now()),
		Comments:  dto.ToCommentDTOs(comments, editable),
		CanUpdate: perms.CanUpdate,
		CanDelete: perms.CanDelete,
	}})
}

// UpdateTask updates task fields. A column_id in the body also moves the
// task; an explicit null clears assignee_id or due_date.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title       *string `json:"title" binding:"omitempty,max=255"`
		Description *string `json:"description"`
		AssigneeID  *uint64 `json:"assignee_id"`
		Priority    *string `json:"priority"`
		DueDate     *string `json:"due_date"`
		ColumnID    *uint64 `json:"column_id"`
		Position    *int    `json:"position" binding:"omitempty,min=0"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		respondBindingError(c, err)
		return
	}
	var present map[string]json.RawMessage
	if err := c.ShouldBindBodyWith(&present, binding.JSON); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		AssigneeID:    req.AssigneeID,
		ClearAssignee: isNull(present, "assignee_id"),
		ClearDueDate:  isNull(present, "due_date"),
		ColumnID:      req.ColumnID,
		Position:      req.Position,
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		input.Priority = &priority
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			input.ClearDueDate = true
		} else {
			due, err := parseDate(*req.DueDate)
			if err != nil {
				apierrors.BadRequest(c, "Invalid due_date")
				return
			}
			input.DueDate = &due
		}
	}

	task, err := h.taskService.UpdateTask(actor, taskID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task updated successfully",
		"data":    dto.ToTaskDTO(*task, h.taskService.Now()),
	})
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(actor, taskID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// MoveTask places a task at a position in a column
func (h *TaskHandler) MoveTask(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	type MoveTaskRequest struct {
		ColumnID uint64 `json:"column_id" binding:"required"`
		Position *int   `json:"position" binding:"required,min=0"`
	}

	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	task, err := h.taskService.MoveTask(actor, taskID, services.MoveTaskInput{
		ColumnID: req.ColumnID,
		Position: *req.Position,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task moved successfully",
		"data":    dto.ToTaskDTO(*task, h.taskService.Now()),
	})
}

// SyncLabels replaces the labels attached to a task
func (h *TaskHandler) SyncLabels(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	type SyncLabelsRequest struct {
		LabelIDs []uint64 `json:"label_ids"`
	}

	var req SyncLabelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	task, err := h.taskService.SyncLabels(actor, taskID, req.LabelIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Labels updated successfully",
		"data":    dto.ToTaskDTO(*task, h.taskService.Now()),
	})
}

// GenerateTasks asks the AI service for task suggestions for a column
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	columnID, ok := parseID(c, "id", "column")
	if !ok {
		return
	}

	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required,max=10000"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	tasks, err := h.taskService.GenerateTasks(c.Request.Context(), actor, services.GenerateTasksInput{
		ColumnID: columnID,
		Text:     req.Text,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ToGeneratedTaskDTOs(tasks)})
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func isNull(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	return ok && string(raw) == "null"
}
