package models

import (
	"time"

	"gorm.io/datatypes"
)

// Activity is an append-only audit record. SubjectType/SubjectID form a
// tagged reference to the entity the activity is about; TaskID is set for
// every event that belongs to a task's feed, whatever its subject.
type Activity struct {
	ID          uint64            `gorm:"primarykey" json:"id"`
	UserID      uint64            `gorm:"not null;index" json:"user_id"`
	ProjectID   *uint64           `gorm:"index" json:"project_id"`
	TaskID      *uint64           `gorm:"index" json:"task_id"`
	Type        string            `gorm:"type:varchar(50);not null;index" json:"type"`
	SubjectType string            `gorm:"type:varchar(20);not null;index:idx_activities_subject,priority:1" json:"subject_type"`
	SubjectID   uint64            `gorm:"not null;index:idx_activities_subject,priority:2" json:"subject_id"`
	Data        datatypes.JSONMap `json:"data"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// All returns every model managed by migrations, in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&AccessToken{},
		&PasswordReset{},
		&Project{},
		&ProjectMember{},
		&Board{},
		&Column{},
		&Task{},
		&Subtask{},
		&Comment{},
		&Label{},
		&Activity{},
	}
}
