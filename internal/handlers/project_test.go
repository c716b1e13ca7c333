package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/kanban-api/internal/dto"
	"github.com/yukikurage/kanban-api/internal/models"
)

func createProject(t *testing.T, srv testServer, token, title string) dto.ProjectDTO {
	t.Helper()

	w := srv.do(t, http.MethodPost, "/api/projects", token, map[string]string{"title": title})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var project dto.ProjectDTO
	decodeData(t, w, &project)
	return project
}

func TestProjectHandler_CreateProject(t *testing.T) {
	srv := setupTestServer(t)
	instructor, token := srv.createUser(t, "instructor", models.RoleInstructor)

	w := srv.do(t, http.MethodPost, "/api/projects", token, map[string]string{
		"title":           "Capstone",
		"description":     "Final project",
		"timeline_status": "At Risk",
		"budget_status":   "Over Budget",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var project dto.ProjectDTO
	decodeData(t, w, &project)
	assert.Equal(t, "Capstone", project.Title)
	assert.Equal(t, instructor.ID, project.InstructorID)
	assert.Equal(t, "At Risk", project.TimelineStatus)
	assert.Equal(t, "Over Budget", project.BudgetStatus)
	assert.True(t, project.Permissions.CanEdit)
	assert.True(t, project.Permissions.CanManageMembers)
	assert.Equal(t, int64(0), project.TaskCompletion.Total)

	var stored models.Project
	require.NoError(t, srv.db.First(&stored, project.ID).Error)
	assert.Equal(t, models.TimelineBehind, stored.TimelineStatus)
	assert.Equal(t, models.BudgetOver, stored.BudgetStatus)
}

func TestProjectHandler_CreateProject_StudentForbidden(t *testing.T) {
	srv := setupTestServer(t)
	_, token := srv.createUser(t, "student", models.RoleStudent)

	w := srv.do(t, http.MethodPost, "/api/projects", token, map[string]string{"title": "Nope"})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestProjectHandler_CreateProject_TitleTooLong(t *testing.T) {
	srv := setupTestServer(t)
	_, token := srv.createUser(t, "instructor", models.RoleInstructor)

	title := make([]byte, 101)
	for i := range title {
		title[i] = 'a'
	}
	w := srv.do(t, http.MethodPost, "/api/projects", token, map[string]string{"title": string(title)})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestProjectHandler_GetProject_Access(t *testing.T) {
	srv := setupTestServer(t)
	_, ownerToken := srv.createUser(t, "owner", models.RoleInstructor)
	member, memberToken := srv.createUser(t, "member", models.RoleStudent)
	_, outsiderToken := srv.createUser(t, "outsider", models.RoleStudent)
	_, adminToken := srv.createUser(t, "admin", models.RoleAdmin)

	project := createProject(t, srv, ownerToken, "Shared")
	srv.addMember(t, project.ID, member.ID, models.MemberRoleViewer)

	path := fmt.Sprintf("/api/projects/%d", project.ID)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, path, memberToken, nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, path, adminToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, path, outsiderToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/projects/9999", ownerToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodGet, "/api/projects/abc", ownerToken, nil).Code)
}

func TestProjectHandler_UpdateProject_StaleWrite(t *testing.T) {
	srv := setupTestServer(t)
	_, token := srv.createUser(t, "owner", models.RoleInstructor)
	project := createProject(t, srv, token, "Original")
	path := fmt.Sprintf("/api/projects/%d", project.ID)

	w := srv.do(t, http.MethodPut, path, token, map[string]interface{}{
		"title":      "Renamed",
		"updated_at": project.UpdatedAt,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = srv.do(t, http.MethodPut, path, token, map[string]interface{}{
		"title":      "Lost update",
		"updated_at": project.UpdatedAt.Add(-time.Hour),
	})
	require.Equal(t, http.StatusConflict, w.Code)

	var stored models.Project
	require.NoError(t, srv.db.First(&stored, project.ID).Error)
	assert.Equal(t, "Renamed", stored.Title)
}

func TestProjectHandler_UpdateProject_ViewerForbidden(t *testing.T) {
	srv := setupTestServer(t)
	_, ownerToken := srv.createUser(t, "owner", models.RoleInstructor)
	viewer, viewerToken := srv.createUser(t, "viewer", models.RoleStudent)
	editor, editorToken := srv.createUser(t, "editor", models.RoleStudent)

	project := createProject(t, srv, ownerToken, "Team")
	srv.addMember(t, project.ID, viewer.ID, models.MemberRoleViewer)
	srv.addMember(t, project.ID, editor.ID, models.MemberRoleEditor)
	path := fmt.Sprintf("/api/projects/%d", project.ID)

	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodPut, path, viewerToken, map[string]string{"title": "x"}).Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodPut, path, editorToken, map[string]string{"title": "y"}).Code)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodDelete, path, editorToken, nil).Code)
}

func TestProjectHandler_ListProjects(t *testing.T) {
	srv := setupTestServer(t)
	owner, ownerToken := srv.createUser(t, "owner", models.RoleInstructor)
	_, otherToken := srv.createUser(t, "other", models.RoleInstructor)

	mine := createProject(t, srv, ownerToken, "Mine")
	theirs := createProject(t, srv, otherToken, "Theirs")
	srv.addMember(t, theirs.ID, owner.ID, models.MemberRoleEditor)
	createProject(t, srv, otherToken, "Hidden")

	w := srv.do(t, http.MethodGet, "/api/projects", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var projects []dto.ProjectDTO
	decodeData(t, w, &projects)
	assert.Len(t, projects, 2)

	w = srv.do(t, http.MethodGet, "/api/projects?role=owner", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &projects)
	require.Len(t, projects, 1)
	assert.Equal(t, mine.ID, projects[0].ID)

	w = srv.do(t, http.MethodGet, "/api/projects?role=member&sort=title&order=asc", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &projects)
	require.Len(t, projects, 1)
	assert.Equal(t, theirs.ID, projects[0].ID)
}

func TestProjectHandler_ArchiveAndDuplicate(t *testing.T) {
	srv := setupTestServer(t)
	_, token := srv.createUser(t, "owner", models.RoleInstructor)
	project := createProject(t, srv, token, "Course")

	w := srv.do(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/boards", project.ID), token, map[string]string{"title": "Sprint"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = srv.do(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/archive", project.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var archived dto.ProjectDTO
	decodeData(t, w, &archived)
	assert.True(t, archived.IsArchived)

	w = srv.do(t, http.MethodGet, "/api/projects?archived=false", token, nil)
	var active []dto.ProjectDTO
	decodeData(t, w, &active)
	assert.Empty(t, active)

	w = srv.do(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/duplicate", project.ID), token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var copied dto.ProjectDTO
	decodeData(t, w, &copied)
	assert.Equal(t, "Course (Copy)", copied.Title)
	assert.False(t, copied.IsArchived)

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/projects/%d/boards", copied.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var boards []dto.BoardDTO
	decodeData(t, w, &boards)
	require.Len(t, boards, 1)
	assert.Len(t, boards[0].Columns, len(models.DefaultColumnTitles))
}

func TestProjectHandler_Members(t *testing.T) {
	srv := setupTestServer(t)
	owner, ownerToken := srv.createUser(t, "owner", models.RoleInstructor)
	student, studentToken := srv.createUser(t, "student", models.RoleStudent)
	project := createProject(t, srv, ownerToken, "Team")
	path := fmt.Sprintf("/api/projects/%d/members", project.ID)

	w := srv.do(t, http.MethodPost, path, ownerToken, map[string]interface{}{"user_id": student.ID, "role": "editor"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = srv.do(t, http.MethodPost, path, ownerToken, map[string]interface{}{"user_id": student.ID, "role": "viewer"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = srv.do(t, http.MethodPost, path, ownerToken, map[string]interface{}{"user_id": owner.ID, "role": "viewer"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = srv.do(t, http.MethodPost, path, ownerToken, map[string]interface{}{"user_id": student.ID, "role": "instructor"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// members cannot manage membership
	w = srv.do(t, http.MethodPost, path, studentToken, map[string]interface{}{"user_id": owner.ID, "role": "viewer"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	memberPath := fmt.Sprintf("%s/%d", path, student.ID)
	w = srv.do(t, http.MethodPut, memberPath, ownerToken, map[string]string{"role": "viewer"})
	require.Equal(t, http.StatusOK, w.Code)
	var member dto.ProjectMemberDTO
	decodeData(t, w, &member)
	assert.Equal(t, models.MemberRoleViewer, member.Role)

	w = srv.do(t, http.MethodGet, path, studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var members []dto.ProjectMemberDTO
	decodeData(t, w, &members)
	require.Len(t, members, 1)
	assert.Equal(t, student.ID, members[0].User.ID)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodDelete, memberPath, ownerToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodDelete, memberPath, ownerToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), studentToken, nil).Code)
}
