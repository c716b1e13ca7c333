package models

import "time"

type MemberRole string

const (
	MemberRoleEditor MemberRole = "editor"
	MemberRoleViewer MemberRole = "viewer"
	// MemberRoleInstructor is never assigned through the API but existing
	// membership rows carrying it grant label management.
	MemberRoleInstructor MemberRole = "instructor"
)

// Assignable reports whether the role may be granted through the members API.
func (r MemberRole) Assignable() bool {
	return r == MemberRoleEditor || r == MemberRoleViewer
}

// ProjectMember links a non-owner user to a project. The owner is implied by
// Project.InstructorID and never has a row here.
type ProjectMember struct {
	ProjectID uint64     `gorm:"primarykey" json:"project_id"`
	UserID    uint64     `gorm:"primarykey;index" json:"user_id"`
	Role      MemberRole `gorm:"type:varchar(20);not null;default:'viewer'" json:"role"`
	JoinedAt  time.Time  `json:"joined_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
