// Package policy decides who may do what. Every function is pure: callers
// load the facts (actor, project ownership, membership, timestamps) and the
// policy only compares them.
//
// Precedence for project-scoped checks is admin, then owner, then membership.
package policy

import (
	"time"

	"github.com/yukikurage/kanban-api/internal/constants"
	"github.com/yukikurage/kanban-api/internal/models"
)

// Actor is the authenticated principal performing an operation. Name is
// only used for display, never for decisions.
type Actor struct {
	UserID uint64
	Role   models.UserRole
	Name   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// ProjectAccess captures the actor-independent facts about a project that
// authorization depends on. MemberRole is empty when the actor has no
// membership row.
type ProjectAccess struct {
	ProjectID  uint64
	OwnerID    uint64
	MemberRole models.MemberRole
}

func (p ProjectAccess) isOwner(a Actor) bool {
	return p.OwnerID == a.UserID
}

func (p ProjectAccess) isMember() bool {
	return p.MemberRole != ""
}

// Project rules

func CanViewProject(a Actor, p ProjectAccess) bool {
	return a.IsAdmin() || p.isOwner(a) || p.isMember()
}

func CanCreateProject(a Actor) bool {
	return a.IsAdmin() || a.Role == models.RoleInstructor
}

func CanUpdateProject(a Actor, p ProjectAccess) bool {
	return a.IsAdmin() || p.isOwner(a) || p.MemberRole == models.MemberRoleEditor
}

func CanDeleteProject(a Actor, p ProjectAccess) bool {
	return a.IsAdmin() || p.isOwner(a)
}

// CanArchiveProject is owner-only; admins do not bypass it.
func CanArchiveProject(a Actor, p ProjectAccess) bool {
	return p.isOwner(a)
}

// CanManageMembers is owner-only; admins do not bypass it.
func CanManageMembers(a Actor, p ProjectAccess) bool {
	return p.isOwner(a)
}

// Task rules. View, create and update (which includes moving) are open to
// any member regardless of member role.

func CanViewTask(a Actor, p ProjectAccess) bool {
	return a.IsAdmin() || p.isOwner(a) || p.isMember()
}

func CanCreateTask(a Actor, p ProjectAccess) bool {
	return a.IsAdmin() || p.isOwner(a) || p.isMember()
}

func CanUpdateTask(a Actor, p ProjectAccess) bool {
	return a.IsAdmin() || p.isOwner(a) || p.isMember()
}

// CanDeleteTask is limited to admins, the project owner and the assignee.
func CanDeleteTask(a Actor, p ProjectAccess, assigneeID *uint64) bool {
	if a.IsAdmin() || p.isOwner(a) {
		return true
	}
	return assigneeID != nil && *assigneeID == a.UserID
}

// Column and board structure follows project update/delete rights.

func CanManageColumns(a Actor, p ProjectAccess) bool {
	return CanUpdateProject(a, p)
}

// Label rules

func CanViewLabels(a Actor, p ProjectAccess) bool {
	return CanViewProject(a, p)
}

// CanManageLabels allows the owner or a member whose role is literally
// "instructor". Admins are not special-cased.
func CanManageLabels(a Actor, p ProjectAccess) bool {
	return p.isOwner(a) || p.MemberRole == models.MemberRoleInstructor
}

// Comment rules

// CanEditComment requires authorship and now strictly before
// createdAt + 15 minutes.
func CanEditComment(a Actor, authorID uint64, createdAt, now time.Time) bool {
	if authorID != a.UserID {
		return false
	}
	return now.Before(createdAt.Add(constants.CommentEditWindow))
}

// CanDeleteComment is author-only with no time limit.
func CanDeleteComment(a Actor, authorID uint64) bool {
	return authorID == a.UserID
}

// Permissions is the per-project capability summary returned to clients.
type Permissions struct {
	CanEdit          bool `json:"can_edit"`
	CanDelete        bool `json:"can_delete"`
	CanArchive       bool `json:"can_archive"`
	CanManageMembers bool `json:"can_manage_members"`
}

func ProjectPermissions(a Actor, p ProjectAccess) Permissions {
	return Permissions{
		CanEdit:          CanUpdateProject(a, p),
		CanDelete:        CanDeleteProject(a, p),
		CanArchive:       CanArchiveProject(a, p),
		CanManageMembers: CanManageMembers(a, p),
	}
}
