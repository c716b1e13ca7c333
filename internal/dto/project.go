package dto

import (
	"math"
	"time"

	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/policy"
	"github.com/yukikurage/kanban-api/internal/services"
)

// Display labels for the stored project status enums. The mapping only
// exists at the API boundary; storage always holds the enum values.
var (
	timelineLabels = map[models.TimelineStatus]string{
		models.TimelineOnTrack: "On Track",
		models.TimelineBehind:  "At Risk",
		models.TimelineAhead:   "Ahead",
	}
	budgetLabels = map[models.BudgetStatus]string{
		models.BudgetOn:    "Within Budget",
		models.BudgetUnder: "Within Budget",
		models.BudgetOver:  "Over Budget",
	}
	timelineByLabel = map[string]models.TimelineStatus{
		"On Track": models.TimelineOnTrack,
		"At Risk":  models.TimelineBehind,
		"Ahead":    models.TimelineAhead,
	}
	budgetByLabel = map[string]models.BudgetStatus{
		"Within Budget": models.BudgetOn,
		"Over Budget":   models.BudgetOver,
	}
)

// TimelineLabel returns the display label of a timeline status
func TimelineLabel(s models.TimelineStatus) string {
	if label, ok := timelineLabels[s]; ok {
		return label
	}
	return timelineLabels[models.TimelineOnTrack]
}

// BudgetLabel returns the display label of a budget status
func BudgetLabel(s models.BudgetStatus) string {
	if label, ok := budgetLabels[s]; ok {
		return label
	}
	return budgetLabels[models.BudgetOn]
}

// ParseTimeline accepts a display label or a stored value. Unknown input
// maps to on_track.
func ParseTimeline(v string) models.TimelineStatus {
	if s, ok := timelineByLabel[v]; ok {
		return s
	}
	if _, ok := timelineLabels[models.TimelineStatus(v)]; ok {
		return models.TimelineStatus(v)
	}
	return models.TimelineOnTrack
}

// ParseBudget accepts a display label or a stored value. Unknown input maps
// to on_budget.
func ParseBudget(v string) models.BudgetStatus {
	if s, ok := budgetByLabel[v]; ok {
		return s
	}
	if _, ok := budgetLabels[models.BudgetStatus(v)]; ok {
		return models.BudgetStatus(v)
	}
	return models.BudgetOn
}

// TaskCompletionDTO summarises task progress of a project
type TaskCompletionDTO struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	Active     int64 `json:"active"`
	Percentage int   `json:"percentage"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID             uint64             `json:"id"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	InstructorID   uint64             `json:"instructor_id"`
	Instructor     *UserSummaryDTO    `json:"instructor,omitempty"`
	TimelineStatus string             `json:"timeline_status"`
	BudgetStatus   string             `json:"budget_status"`
	IsArchived     bool               `json:"is_archived"`
	TaskCompletion TaskCompletionDTO  `json:"task_completion"`
	TotalMembers   int64              `json:"total_members"`
	Permissions    policy.Permissions `json:"permissions"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// ProjectMemberDTO represents a member in a project
type ProjectMemberDTO struct {
	User     UserDTO           `json:"user"`
	Role     models.MemberRole `json:"role"`
	JoinedAt time.Time         `json:"joined_at"`
}

// ToProjectDTO converts a project detail to ProjectDTO
func ToProjectDTO(detail services.ProjectDetail) ProjectDTO {
	p := detail.Project
	return ProjectDTO{
		ID:             p.ID,
		Title:          p.Title,
		Description:    p.Description,
		InstructorID:   p.InstructorID,
		Instructor:     toUserSummary(p.Instructor),
		TimelineStatus: TimelineLabel(p.TimelineStatus),
		BudgetStatus:   BudgetLabel(p.BudgetStatus),
		IsArchived:     p.IsArchived,
		TaskCompletion: toTaskCompletion(detail.Tasks.Total, detail.Tasks.Completed),
		TotalMembers:   detail.TotalMembers,
		Permissions:    detail.Permissions,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// ToProjectDTOs converts a slice of project details
func ToProjectDTOs(details []services.ProjectDetail) []ProjectDTO {
	result := make([]ProjectDTO, len(details))
	for i, d := range details {
		result[i] = ToProjectDTO(d)
	}
	return result
}

// ToProjectMemberDTO converts a member to DTO
func ToProjectMemberDTO(member models.ProjectMember) ProjectMemberDTO {
	return ProjectMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToProjectMemberDTOs converts a slice of members
func ToProjectMemberDTOs(members []models.ProjectMember) []ProjectMemberDTO {
	result := make([]ProjectMemberDTO, len(members))
	for i, m := range members {
		result[i] = ToProjectMemberDTO(m)
	}
	return result
}

func toTaskCompletion(total, completed int64) TaskCompletionDTO {
	tc := TaskCompletionDTO{Total: total, Completed: completed, Active: total - completed}
	if total > 0 {
		tc.Percentage = int(math.Round(float64(completed) * 100 / float64(total)))
	}
	return tc
}
