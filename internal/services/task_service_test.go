package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/repository"
)

func TestTaskService_MoveTask_Placement(t *testing.T) {
	tests := []struct {
		name     string
		task     string
		column   string
		position int
		todo     []string
		doing    []string
	}{
		{"to front of other column", "B", "doing", 0, []string{"A", "C"}, []string{"B", "X", "Y"}},
		{"into middle of other column", "A", "doing", 1, []string{"B", "C"}, []string{"X", "A", "Y"}},
		{"past the end is clamped", "C", "doing", 42, []string{"A", "B"}, []string{"X", "Y", "C"}},
		{"negative is clamped", "Y", "todo", -3, []string{"Y", "A", "B", "C"}, []string{"X"}},
		{"down within column", "A", "todo", 2, []string{"B", "C", "A"}, []string{"X", "Y"}},
		{"up within column", "C", "todo", 0, []string{"C", "A", "B"}, []string{"X", "Y"}},
		{"same slot", "B", "todo", 1, []string{"A", "B", "C"}, []string{"X", "Y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ids := map[string]uint64{}
			for _, title := range []string{"A", "B", "C"} {
				ids[title] = f.createTask(t, f.todo, title).ID
			}
			for _, title := range []string{"X", "Y"} {
				ids[title] = f.createTask(t, f.doing, title).ID
			}

			target := f.todo
			if tt.column == "doing" {
				target = f.doing
			}

			moved, err := f.tasks.MoveTask(f.owner, ids[tt.task], MoveTaskInput{ColumnID: target.ID, Position: tt.position})
			require.NoError(t, err)
			assert.Equal(t, target.ID, moved.ColumnID)

			assert.Equal(t, tt.todo, f.order(t, f.todo))
			assert.Equal(t, tt.doing, f.order(t, f.doing))
		})
	}
}

func TestTaskService_MoveTask_WipLimit(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&f.doing).Update("wip_limit", 2).Error)

	f.createTask(t, f.doing, "X")
	f.createTask(t, f.doing, "Y")
	a := f.createTask(t, f.todo, "A")
	b := f.createTask(t, f.todo, "B")

	_, err := f.tasks.MoveTask(f.owner, a.ID, MoveTaskInput{ColumnID: f.doing.ID, Position: 0})
	var wipErr *WipLimitError
	require.True(t, errors.As(err, &wipErr))
	assert.Equal(t, 2, wipErr.Limit)
	assert.Equal(t, int64(2), wipErr.Current)
	assert.Equal(t, []string{"A", "B"}, f.order(t, f.todo))

	// reordering inside a full column is allowed
	x := f.order(t, f.doing)
	require.Len(t, x, 2)
	var first models.Task
	require.NoError(t, f.db.Where("column_id = ? AND position = 0", f.doing.ID).First(&first).Error)
	_, err = f.tasks.MoveTask(f.owner, first.ID, MoveTaskInput{ColumnID: f.doing.ID, Position: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Y", "X"}, f.order(t, f.doing))

	// moving out frees capacity
	require.NoError(t, f.db.Model(&f.doing).Update("wip_limit", 3).Error)
	_, err = f.tasks.MoveTask(f.owner, b.ID, MoveTaskInput{ColumnID: f.doing.ID, Position: 3})
	require.NoError(t, err)
	_, err = f.tasks.MoveTask(f.owner, a.ID, MoveTaskInput{ColumnID: f.doing.ID, Position: 0})
	require.True(t, errors.As(err, &wipErr))
	assert.Equal(t, int64(3), wipErr.Current)
}

// staleColumns reports columns as they were before a WIP limit was set
type staleColumns struct {
	repository.BoardRepository
}

func (r staleColumns) FindColumn(id uint64) (*models.Column, error) {
	column, err := r.BoardRepository.FindColumn(id)
	if err != nil {
		return nil, err
	}
	column.WipLimit = 0
	return column, nil
}

func TestTaskService_MoveTask_UsesLockedWipLimit(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&f.doing).Update("wip_limit", 1).Error)
	f.createTask(t, f.doing, "X")
	a := f.createTask(t, f.todo, "A")

	tasks := NewTaskService(
		repository.NewTaskRepository(f.db),
		staleColumns{repository.NewBoardRepository(f.db)},
		repository.NewLabelRepository(f.db),
		repository.NewUserRepository(f.db),
		f.access, f.activities, nil,
	)

	_, err := tasks.MoveTask(f.owner, a.ID, MoveTaskInput{ColumnID: f.doing.ID, Position: 0})
	var wipErr *WipLimitError
	require.True(t, errors.As(err, &wipErr))
	assert.Equal(t, 1, wipErr.Limit)
	assert.Equal(t, []string{"X"}, f.order(t, f.doing))
}

func TestTaskService_MoveTask_ConcurrentIntoLimitedColumn(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&f.doing).Update("wip_limit", 1).Error)

	tasks := []*models.Task{
		f.createTask(t, f.todo, "A"),
		f.createTask(t, f.todo, "B"),
		f.createTask(t, f.todo, "C"),
	}

	var wg sync.WaitGroup
	errs := make([]error, len(tasks))
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, id uint64) {
			defer wg.Done()
			_, errs[i] = f.tasks.MoveTask(f.owner, id, MoveTaskInput{ColumnID: f.doing.ID, Position: 0})
		}(i, task.ID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var wipErr *WipLimitError
		assert.True(t, errors.As(err, &wipErr), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.order(t, f.doing), 1)
	assert.Len(t, f.order(t, f.todo), 2)
}

func TestTaskService_MoveTask_Rejections(t *testing.T) {
	f := newFixture(t)
	task := f.createTask(t, f.todo, "A")
	outsider := f.addUser(t, "outsider", "")

	_, err := f.tasks.MoveTask(outsider, task.ID, MoveTaskInput{ColumnID: f.doing.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.tasks.MoveTask(f.owner, task.ID+100, MoveTaskInput{ColumnID: f.doing.ID})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = f.tasks.MoveTask(f.owner, task.ID, MoveTaskInput{ColumnID: 9999})
	assert.ErrorIs(t, err, ErrColumnNotFound)

	other := models.Project{Title: "Other", InstructorID: f.owner.UserID}
	require.NoError(t, f.db.Create(&other).Error)
	board := models.Board{ProjectID: other.ID, Title: "Elsewhere"}
	require.NoError(t, f.db.Create(&board).Error)
	foreign := models.Column{BoardID: board.ID, Title: "To Do", Position: 1}
	require.NoError(t, f.db.Create(&foreign).Error)

	_, err = f.tasks.MoveTask(f.owner, task.ID, MoveTaskInput{ColumnID: foreign.ID})
	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Equal(t, []string{"A"}, f.order(t, f.todo))
}

func TestTaskService_DeleteTask_Permissions(t *testing.T) {
	f := newFixture(t)
	editor := f.addUser(t, "editor", models.MemberRoleEditor)
	assignee := f.addUser(t, "assignee", models.MemberRoleViewer)

	task, err := f.tasks.CreateTask(f.owner, CreateTaskInput{ColumnID: f.todo.ID, Title: "Shared", AssigneeID: &assignee.UserID})
	require.NoError(t, err)
	f.createTask(t, f.todo, "Other")

	assert.ErrorIs(t, f.tasks.DeleteTask(editor, task.ID), ErrForbidden)
	require.NoError(t, f.tasks.DeleteTask(assignee, task.ID))
	assert.Equal(t, []string{"Other"}, f.order(t, f.todo))
}

func TestTaskService_IsOverdue(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	f.tasks.now = func() time.Time { return now }

	yesterday := now.AddDate(0, 0, -1)
	today := now

	late, err := f.tasks.CreateTask(f.owner, CreateTaskInput{ColumnID: f.doing.ID, Title: "Late", DueDate: &yesterday})
	require.NoError(t, err)
	dueToday, err := f.tasks.CreateTask(f.owner, CreateTaskInput{ColumnID: f.doing.ID, Title: "Today", DueDate: &today})
	require.NoError(t, err)
	finished, err := f.tasks.CreateTask(f.owner, CreateTaskInput{ColumnID: f.done.ID, Title: "Finished", DueDate: &yesterday})
	require.NoError(t, err)

	assert.True(t, late.IsOverdue(now))
	assert.False(t, dueToday.IsOverdue(now))
	assert.False(t, finished.IsOverdue(now))

	tasks, total, err := f.tasks.ListTasks(f.owner, ListTasksInput{DueRange: "overdue"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, tasks, 1)
	assert.Equal(t, late.ID, tasks[0].ID)
}
