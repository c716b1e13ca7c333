package dto

import (
	"time"

	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/services"
)

// LabelDTO represents a label in API responses
type LabelDTO struct {
	ID        uint64 `json:"id"`
	ProjectID uint64 `json:"project_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
}

// SubtaskDTO represents a subtask in API responses
type SubtaskDTO struct {
	ID          uint64 `json:"id"`
	TaskID      uint64 `json:"task_id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
	Position    int    `json:"position"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID                    uint64              `json:"id"`
	ColumnID              uint64              `json:"column_id"`
	Title                 string              `json:"title"`
	Description           string              `json:"description"`
	AssigneeID            *uint64             `json:"assignee_id"`
	Assignee              *UserSummaryDTO     `json:"assignee,omitempty"`
	Priority              models.TaskPriority `json:"priority"`
	DueDate               *string             `json:"due_date"`
	Position              int                 `json:"position"`
	Progress              int                 `json:"progress"`
	CompletedSubtaskCount int                 `json:"completed_subtask_count"`
	SubtaskCount          int                 `json:"subtask_count"`
	IsOverdue             bool                `json:"is_overdue"`
	Labels                []LabelDTO          `json:"labels"`
	Subtasks              []SubtaskDTO        `json:"subtasks"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// TaskDetailDTO is a task with its discussion and the caller's permissions
type TaskDetailDTO struct {
	TaskDTO
	Comments  []CommentDTO `json:"comments"`
	CanUpdate bool         `json:"can_update"`
	CanDelete bool         `json:"can_delete"`
}

// GeneratedTaskDTO represents an AI task suggestion
type GeneratedTaskDTO struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *string             `json:"due_date"`
}

// ToLabelDTO converts a Label model to LabelDTO
func ToLabelDTO(label models.Label) LabelDTO {
	return LabelDTO{
		ID:        label.ID,
		ProjectID: label.ProjectID,
		Name:      label.Name,
		Color:     label.Color,
	}
}

// ToLabelDTOs converts a slice of labels
func ToLabelDTOs(labels []models.Label) []LabelDTO {
	result := make([]LabelDTO, len(labels))
	for i, l := range labels {
		result[i] = ToLabelDTO(l)
	}
	return result
}

// ToSubtaskDTO converts a Subtask model to SubtaskDTO
func ToSubtaskDTO(subtask models.Subtask) SubtaskDTO {
	return SubtaskDTO{
		ID:          subtask.ID,
		TaskID:      subtask.TaskID,
		Title:       subtask.Title,
		IsCompleted: subtask.IsCompleted,
		Position:    subtask.Position,
	}
}

// ToSubtaskDTOs converts a slice of subtasks
func ToSubtaskDTOs(subtasks []models.Subtask) []SubtaskDTO {
	result := make([]SubtaskDTO, len(subtasks))
	for i, s := range subtasks {
		result[i] = ToSubtaskDTO(s)
	}
	return result
}

// ToTaskDTO converts a Task model to TaskDTO. is_overdue is evaluated
// against now and requires the Column relation to be loaded.
func ToTaskDTO(task models.Task, now time.Time) TaskDTO {
	dto := TaskDTO{
		ID:                    task.ID,
		ColumnID:              task.ColumnID,
		Title:                 task.Title,
		Description:           task.Description,
		AssigneeID:            task.AssigneeID,
		Priority:              task.Priority,
		DueDate:               formatDate(task.DueDate),
		Position:              task.Position,
		Progress:              task.Progress(),
		CompletedSubtaskCount: task.CompletedSubtaskCount(),
		SubtaskCount:          len(task.Subtasks),
		IsOverdue:             task.IsOverdue(now),
		Labels:                ToLabelDTOs(task.Labels),
		Subtasks:              ToSubtaskDTOs(task.Subtasks),
		CreatedAt:             task.CreatedAt,
		UpdatedAt:             task.UpdatedAt,
	}

	if task.Assignee != nil {
		dto.Assignee = toUserSummary(*task.Assignee)
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task, now time.Time) []TaskDTO {
	result := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		result[i] = ToTaskDTO(t, now)
	}
	return result
}

// ToGeneratedTaskDTOs converts AI suggestions
func ToGeneratedTaskDTOs(tasks []services.GeneratedTask) []GeneratedTaskDTO {
	result := make([]GeneratedTaskDTO, len(tasks))
	for i, t := range tasks {
		result[i] = GeneratedTaskDTO{
			Title:       t.Title,
			Description: t.Description,
			Priority:    t.Priority,
			DueDate:     formatDate(t.DueDate),
		}
	}
	return result
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}
