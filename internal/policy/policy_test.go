package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/kanban-api/internal/models"
)

const (
	ownerID    uint64 = 1
	memberID   uint64 = 2
	outsiderID uint64 = 3
	adminID    uint64 = 4
)

func access(role models.MemberRole) ProjectAccess {
	return ProjectAccess{ProjectID: 10, OwnerID: ownerID, MemberRole: role}
}

func TestTaskRules(t *testing.T) {
	owner := Actor{UserID: ownerID, Role: models.RoleInstructor}
	viewer := Actor{UserID: memberID, Role: models.RoleStudent}
	outsider := Actor{UserID: outsiderID, Role: models.RoleStudent}
	admin := Actor{UserID: adminID, Role: models.RoleAdmin}

	tests := []struct {
		name      string
		actor     Actor
		access    ProjectAccess
		canView   bool
		canUpdate bool
	}{
		{"admin without membership", admin, access(""), true, true},
		{"owner", owner, access(""), true, true},
		{"viewer member can still move", viewer, access(models.MemberRoleViewer), true, true},
		{"editor member", viewer, access(models.MemberRoleEditor), true, true},
		{"outsider", outsider, access(""), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.canView, CanViewTask(tt.actor, tt.access))
			assert.Equal(t, tt.canUpdate, CanUpdateTask(tt.actor, tt.access))
			assert.Equal(t, tt.canUpdate, CanCreateTask(tt.actor, tt.access))
		})
	}
}

func TestCanDeleteTask(t *testing.T) {
	member := Actor{UserID: memberID, Role: models.RoleStudent}
	assignee := memberID
	other := outsiderID

	assert.False(t, CanDeleteTask(member, access(models.MemberRoleEditor), nil), "member without assignment")
	assert.False(t, CanDeleteTask(member, access(models.MemberRoleEditor), &other), "member assigned elsewhere")
	assert.True(t, CanDeleteTask(member, access(models.MemberRoleViewer), &assignee), "assignee")
	assert.True(t, CanDeleteTask(Actor{UserID: ownerID}, access(""), nil), "owner")
	assert.True(t, CanDeleteTask(Actor{UserID: adminID, Role: models.RoleAdmin}, access(""), nil), "admin")
}

func TestProjectRules(t *testing.T) {
	owner := Actor{UserID: ownerID, Role: models.RoleStudent}
	member := Actor{UserID: memberID, Role: models.RoleStudent}
	admin := Actor{UserID: adminID, Role: models.RoleAdmin}

	assert.True(t, CanUpdateProject(member, access(models.MemberRoleEditor)))
	assert.False(t, CanUpdateProject(member, access(models.MemberRoleViewer)))
	assert.False(t, CanDeleteProject(member, access(models.MemberRoleEditor)))
	assert.True(t, CanDeleteProject(admin, access("")))

	// Archive and member management never fall back to admin.
	assert.True(t, CanArchiveProject(owner, access("")))
	assert.False(t, CanArchiveProject(admin, access("")))
	assert.False(t, CanManageMembers(admin, access("")))
	assert.False(t, CanManageMembers(member, access(models.MemberRoleEditor)))

	assert.True(t, CanCreateProject(Actor{Role: models.RoleInstructor}))
	assert.True(t, CanCreateProject(admin))
	assert.False(t, CanCreateProject(member))
}

func TestCanManageLabels(t *testing.T) {
	member := Actor{UserID: memberID, Role: models.RoleAdmin}

	assert.True(t, CanManageLabels(Actor{UserID: ownerID}, access("")))
	assert.True(t, CanManageLabels(member, access(models.MemberRoleInstructor)))
	assert.False(t, CanManageLabels(member, access(models.MemberRoleEditor)))
	assert.False(t, CanManageLabels(member, access("")), "admin role grants nothing here")
}

func TestCanEditComment(t *testing.T) {
	author := Actor{UserID: memberID}
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, CanEditComment(author, memberID, created, created.Add(14*time.Minute+59*time.Second)))
	assert.False(t, CanEditComment(author, memberID, created, created.Add(15*time.Minute)), "boundary is exclusive")
	assert.False(t, CanEditComment(author, memberID, created, created.Add(16*time.Minute)))
	assert.False(t, CanEditComment(Actor{UserID: ownerID, Role: models.RoleAdmin}, memberID, created, created), "non-author")
}

func TestCanDeleteComment(t *testing.T) {
	assert.True(t, CanDeleteComment(Actor{UserID: memberID}, memberID))
	assert.False(t, CanDeleteComment(Actor{UserID: adminID, Role: models.RoleAdmin}, memberID))
}

func TestProjectPermissions(t *testing.T) {
	perms := ProjectPermissions(Actor{UserID: memberID}, access(models.MemberRoleEditor))
	assert.Equal(t, Permissions{CanEdit: true}, perms)
}
