package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/kanban-api/internal/dto"
	"github.com/yukikurage/kanban-api/internal/models"
)

func createBoard(t *testing.T, srv testServer, token string, projectID uint64) dto.BoardDTO {
	t.Helper()

	w := srv.do(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/boards", projectID), token, map[string]string{"title": "Board"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var board dto.BoardDTO
	decodeData(t, w, &board)
	return board
}

func TestBoardHandler_CreateBoard_DefaultColumns(t *testing.T) {
	srv := setupTestServer(t)
	_, token := srv.createUser(t, "owner", models.RoleInstructor)
	project := createProject(t, srv, token, "Course")

	board := createBoard(t, srv, token, project.ID)
	require.Len(t, board.Columns, len(models.DefaultColumnTitles))
	for i, column := range board.Columns {
		assert.Equal(t, models.DefaultColumnTitles[i], column.Title)
		assert.Equal(t, i+1, column.Position)
		assert.Equal(t, 0, column.WipLimit)
	}

	w := srv.do(t, http.MethodGet, fmt.Sprintf("/api/boards/%d", board.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var loaded dto.BoardDTO
	decodeData(t, w, &loaded)
	require.Len(t, loaded.Columns, len(models.DefaultColumnTitles))
	assert.Equal(t, board.ID, loaded.ID)
}

func TestBoardHandler_Permissions(t *testing.T) {
	srv := setupTestServer(t)
	_, ownerToken := srv.createUser(t, "owner", models.RoleInstructor)
	viewer, viewerToken := srv.createUser(t, "viewer", models.RoleStudent)
	_, outsiderToken := srv.createUser(t, "outsider", models.RoleStudent)
	project := createProject(t, srv, ownerToken, "Course")
	srv.addMember(t, project.ID, viewer.ID, models.MemberRoleViewer)
	board := createBoard(t, srv, ownerToken, project.ID)

	path := fmt.Sprintf("/api/boards/%d", board.ID)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, path, viewerToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, path, outsiderToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodPut, path, viewerToken, map[string]string{"title": "Mine"}).Code)
	assert.Equal(t, http.StatusForbidden,
		srv.do(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/boards", project.ID), viewerToken, map[string]string{"title": "Mine"}).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/boards/9999", ownerToken, nil).Code)
}

func TestBoardHandler_Columns(t *testing.T) {
	srv := setupTestServer(t)
	_, token := srv.createUser(t, "owner", models.RoleInstructor)
	project := createProject(t, srv, token, "Course")
	board := createBoard(t, srv, token, project.ID)

	w := srv.do(t, http.MethodPost, fmt.Sprintf("/api/boards/%d/columns", board.ID), token, map[string]interface{}{
		"title":     "Blocked",
		"wip_limit": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var blocked dto.ColumnDTO
	decodeData(t, w, &blocked)
	assert.Equal(t, len(models.DefaultColumnTitles)+1, blocked.Position)
	assert.Equal(t, 2, blocked.WipLimit)

	w = srv.do(t, http.MethodPost, fmt.Sprintf("/api/boards/%d/columns", board.ID), token, map[string]interface{}{"wip_limit": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = srv.do(t, http.MethodPut, fmt.Sprintf("/api/columns/%d", blocked.ID), token, map[string]interface{}{"wip_limit": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPut, fmt.Sprintf("/api/columns/%d", blocked.ID), token, map[string]interface{}{"title": "On Hold", "wip_limit": 0})
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &blocked)
	assert.Equal(t, "On Hold", blocked.Title)
	assert.Equal(t, 0, blocked.WipLimit)

	// columns holding tasks cannot be deleted
	w = srv.do(t, http.MethodPost, "/api/tasks", token, map[string]interface{}{"column_id": blocked.ID, "title": "Stuck"})
	require.Equal(t, http.StatusCreated, w.Code)
	var task dto.TaskDTO
	decodeData(t, w, &task)

	columnPath := fmt.Sprintf("/api/columns/%d", blocked.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, srv.do(t, http.MethodDelete, columnPath, token, nil).Code)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), token, nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodDelete, columnPath, token, nil).Code)
}

func TestBoardHandler_ReorderColumns(t *testing.T) {
	srv := setupTestServer(t)
	_, token := srv.createUser(t, "owner", models.RoleInstructor)
	project := createProject(t, srv, token, "Course")
	board := createBoard(t, srv, token, project.ID)
	other := createBoard(t, srv, token, project.ID)

	ids := make([]uint64, len(board.Columns))
	for i, column := range board.Columns {
		ids[len(ids)-1-i] = column.ID
	}

	path := fmt.Sprintf("/api/boards/%d/columns/reorder", board.ID)
	w := srv.do(t, http.MethodPost, path, token, map[string][]uint64{"column_ids": ids})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var columns []dto.ColumnDTO
	decodeData(t, w, &columns)
	require.Len(t, columns, len(ids))
	assert.Equal(t, "Completed", columns[0].Title)
	assert.Equal(t, 1, columns[0].Position)

	assert.Equal(t, http.StatusUnprocessableEntity,
		srv.do(t, http.MethodPost, path, token, map[string][]uint64{"column_ids": ids[:2]}).Code)

	foreign := append([]uint64{other.Columns[0].ID}, ids[1:]...)
	assert.Equal(t, http.StatusUnprocessableEntity,
		srv.do(t, http.MethodPost, path, token, map[string][]uint64{"column_ids": foreign}).Code)
}

func TestBoardHandler_DeleteBoard(t *testing.T) {
	srv := setupTestServer(t)
	_, token := srv.createUser(t, "owner", models.RoleInstructor)
	project := createProject(t, srv, token, "Course")
	board := createBoard(t, srv, token, project.ID)

	w := srv.do(t, http.MethodPost, "/api/tasks", token, map[string]interface{}{"column_id": board.Columns[0].ID, "title": "Doomed"})
	require.Equal(t, http.StatusCreated, w.Code)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodDelete, fmt.Sprintf("/api/boards/%d", board.ID), token, nil).Code)

	var tasks, columns int64
	require.NoError(t, srv.db.Model(&models.Task{}).Count(&tasks).Error)
	require.NoError(t, srv.db.Model(&models.Column{}).Count(&columns).Error)
	assert.Zero(t, tasks)
	assert.Zero(t, columns)
}

func TestLabelHandler(t *testing.T) {
	srv := setupTestServer(t)
	_, ownerToken := srv.createUser(t, "owner", models.RoleInstructor)
	editor, editorToken := srv.createUser(t, "editor", models.RoleStudent)
	project := createProject(t, srv, ownerToken, "Course")
	srv.addMember(t, project.ID, editor.ID, models.MemberRoleEditor)
	path := fmt.Sprintf("/api/projects/%d/labels", project.ID)

	w := srv.do(t, http.MethodPost, path, ownerToken, map[string]string{"name": "bug", "color": "#ff0000"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var label dto.LabelDTO
	decodeData(t, w, &label)

	tests := []struct {
		name   string
		token  string
		body   map[string]string
		status int
	}{
		{"duplicate name", ownerToken, map[string]string{"name": "bug", "color": "#00FF00"}, http.StatusConflict},
		{"bad color", ownerToken, map[string]string{"name": "feature", "color": "red"}, http.StatusUnprocessableEntity},
		{"missing color", ownerToken, map[string]string{"name": "feature"}, http.StatusUnprocessableEntity},
		{"editor cannot manage", editorToken, map[string]string{"name": "feature", "color": "#00FF00"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, srv.do(t, http.MethodPost, path, tt.token, tt.body).Code)
		})
	}

	w = srv.do(t, http.MethodGet, path, editorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var labels []dto.LabelDTO
	decodeData(t, w, &labels)
	assert.Len(t, labels, 1)

	labelPath := fmt.Sprintf("%s/%d", path, label.ID)
	w = srv.do(t, http.MethodPut, labelPath, ownerToken, map[string]string{"color": "#123ABC"})
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &label)
	assert.Equal(t, "bug", label.Name)
	assert.Equal(t, "#123ABC", label.Color)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodDelete, labelPath, ownerToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodDelete, labelPath, ownerToken, nil).Code)
}

func TestSubtaskHandler_Reorder(t *testing.T) {
	srv := setupTestServer(t)
	_, token := srv.createUser(t, "owner", models.RoleInstructor)
	project := createProject(t, srv, token, "Course")
	board := createBoard(t, srv, token, project.ID)

	w := srv.do(t, http.MethodPost, "/api/tasks", token, map[string]interface{}{"column_id": board.Columns[0].ID, "title": "Parent"})
	require.Equal(t, http.StatusCreated, w.Code)
	var task dto.TaskDTO
	decodeData(t, w, &task)

	path := fmt.Sprintf("/api/tasks/%d/subtasks", task.ID)
	ids := make([]uint64, 0, 3)
	for _, title := range []string{"one", "two", "three"} {
		w = srv.do(t, http.MethodPost, path, token, map[string]string{"title": title})
		require.Equal(t, http.StatusCreated, w.Code)
		var subtask dto.SubtaskDTO
		decodeData(t, w, &subtask)
		assert.Equal(t, len(ids), subtask.Position)
		ids = append(ids, subtask.ID)
	}

	w = srv.do(t, http.MethodPost, path+"/reorder", token, map[string][]uint64{"subtask_ids": {ids[2], ids[0], ids[1]}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var subtasks []dto.SubtaskDTO
	decodeData(t, w, &subtasks)
	require.Len(t, subtasks, 3)
	assert.Equal(t, "three", subtasks[0].Title)
	assert.Equal(t, "one", subtasks[1].Title)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodDelete, fmt.Sprintf("%s/%d", path, ids[2]), token, nil).Code)

	w = srv.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &subtasks)
	require.Len(t, subtasks, 2)
	assert.Equal(t, 0, subtasks[0].Position)
	assert.Equal(t, "one", subtasks[0].Title)
	assert.Equal(t, 1, subtasks[1].Position)

	assert.Equal(t, http.StatusUnprocessableEntity,
		srv.do(t, http.MethodPost, path+"/reorder", token, map[string][]uint64{"subtask_ids": {ids[0]}}).Code)
}
