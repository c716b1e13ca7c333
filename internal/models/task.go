package models

import (
	"time"
)

type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	ColumnID    uint64       `gorm:"not null;index:idx_tasks_column_position,priority:1" json:"column_id"`
	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	AssigneeID  *uint64      `gorm:"index" json:"assignee_id"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	DueDate     *time.Time   `gorm:"type:date;index" json:"due_date"`
	Position    int          `gorm:"not null;default:0;index:idx_tasks_column_position,priority:2" json:"position"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relations
	Column   Column    `gorm:"foreignKey:ColumnID" json:"column,omitempty"`
	Assignee *User     `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Subtasks []Subtask `gorm:"foreignKey:TaskID" json:"subtasks,omitempty"`
	Comments []Comment `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	Labels   []Label   `gorm:"many2many:task_labels" json:"labels,omitempty"`
}

// CompletedSubtaskCount counts completed subtasks among the loaded ones.
func (t Task) CompletedSubtaskCount() int {
	n := 0
	for _, s := range t.Subtasks {
		if s.IsCompleted {
			n++
		}
	}
	return n
}

// Progress is the integer percentage of completed subtasks, 0 without subtasks.
func (t Task) Progress() int {
	if len(t.Subtasks) == 0 {
		return 0
	}
	return t.CompletedSubtaskCount() * 100 / len(t.Subtasks)
}

// IsOverdue reports whether the due date lies before the start of now's day
// and the task is not sitting in a terminal column. The Column relation must
// be loaded for the terminal check to apply.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Column.IsTerminal() {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return t.DueDate.Before(today)
}

type Subtask struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	TaskID      uint64    `gorm:"not null;index" json:"task_id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	IsCompleted bool      `gorm:"not null;default:false" json:"is_completed"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Comment struct {
	ID        uint64     `gorm:"primarykey" json:"id"`
	TaskID    uint64     `gorm:"not null;index" json:"task_id"`
	UserID    uint64     `gorm:"not null;index" json:"user_id"`
	ParentID  *uint64    `gorm:"index" json:"parent_id"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	EditedAt  *time.Time `json:"edited_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relations
	User    User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Replies []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
}

type Label struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	ProjectID uint64    `gorm:"not null;uniqueIndex:idx_labels_project_name,priority:1" json:"project_id"`
	Name      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_labels_project_name,priority:2" json:"name"`
	Color     string    `gorm:"type:varchar(7);not null" json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
