package models

import "time"

type TimelineStatus string

const (
	TimelineBehind  TimelineStatus = "behind"
	TimelineOnTrack TimelineStatus = "on_track"
	TimelineAhead   TimelineStatus = "ahead"
)

type BudgetStatus string

const (
	BudgetOver  BudgetStatus = "over_budget"
	BudgetOn    BudgetStatus = "on_budget"
	BudgetUnder BudgetStatus = "under_budget"
)

type Project struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	Title          string         `gorm:"type:varchar(100);not null" json:"title"`
	Description    string         `gorm:"type:varchar(500)" json:"description"`
	InstructorID   uint64         `gorm:"not null;index" json:"instructor_id"`
	TimelineStatus TimelineStatus `gorm:"type:varchar(20);not null;default:'on_track'" json:"timeline_status"`
	BudgetStatus   BudgetStatus   `gorm:"type:varchar(20);not null;default:'on_budget'" json:"budget_status"`
	IsArchived     bool           `gorm:"not null;default:false;index" json:"is_archived"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	// Relations
	Instructor User            `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	Members    []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Boards     []Board         `gorm:"foreignKey:ProjectID" json:"boards,omitempty"`
	Labels     []Label         `gorm:"foreignKey:ProjectID" json:"labels,omitempty"`
}
