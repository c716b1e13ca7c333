package dto

import (
	"time"

	"github.com/yukikurage/kanban-api/internal/activity"
	"github.com/yukikurage/kanban-api/internal/models"
)

// ActivityDTO represents an activity feed entry
type ActivityDTO struct {
	ID          uint64                 `json:"id"`
	Type        string                 `json:"type"`
	ProjectID   *uint64                `json:"project_id"`
	TaskID      *uint64                `json:"task_id"`
	SubjectType string                 `json:"subject_type"`
	SubjectID   uint64                 `json:"subject_id"`
	Data        map[string]interface{} `json:"data"`
	User        *UserSummaryDTO        `json:"user"`
	Message     string                 `json:"message"`
	CreatedAt   time.Time              `json:"created_at"`
	CreatedAgo  string                 `json:"created_ago"`
}

// ToActivityDTO converts an Activity model, rendering its feed message
func ToActivityDTO(a models.Activity, now time.Time) ActivityDTO {
	data := map[string]interface{}(a.Data)
	if data == nil {
		data = map[string]interface{}{}
	}

	return ActivityDTO{
		ID:          a.ID,
		Type:        a.Type,
		ProjectID:   a.ProjectID,
		TaskID:      a.TaskID,
		SubjectType: a.SubjectType,
		SubjectID:   a.SubjectID,
		Data:        data,
		User:        toUserSummary(a.User),
		Message:     activity.Message(activity.Type(a.Type), a.User.Name, activity.Data(data)),
		CreatedAt:   a.CreatedAt,
		CreatedAgo:  activity.Ago(a.CreatedAt, now),
	}
}

// ToActivityDTOs converts a slice of activities
func ToActivityDTOs(activities []models.Activity, now time.Time) []ActivityDTO {
	result := make([]ActivityDTO, len(activities))
	for i, a := range activities {
		result[i] = ToActivityDTO(a, now)
	}
	return result
}
