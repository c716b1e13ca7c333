package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/policy"
	"github.com/yukikurage/kanban-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixture is a migrated in-memory database with one project, board and a
// To Do / In Progress / Completed column set.
type fixture struct {
	db      *gorm.DB
	owner   policy.Actor
	project models.Project
	todo    models.Column
	doing   models.Column
	done    models.Column

	access     *AccessService
	activities *ActivityService
	tasks      *TaskService
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	require.NoError(t, db.AutoMigrate(models.All()...))

	owner := models.User{Name: "owner", Email: "owner@example.com", PasswordHash: "x", Role: models.RoleInstructor}
	require.NoError(t, db.Create(&owner).Error)
	project := models.Project{Title: "Course", InstructorID: owner.ID}
	require.NoError(t, db.Create(&project).Error)
	board := models.Board{ProjectID: project.ID, Title: "Board"}
	require.NoError(t, db.Create(&board).Error)

	f := fixture{
		db:      db,
		owner:   policy.Actor{UserID: owner.ID, Role: owner.Role, Name: owner.Name},
		project: project,
		todo:    models.Column{BoardID: board.ID, Title: "To Do", Position: 1},
		doing:   models.Column{BoardID: board.ID, Title: "In Progress", Position: 2},
		done:    models.Column{BoardID: board.ID, Title: "Completed", Position: 3},
	}
	for _, c := range []*models.Column{&f.todo, &f.doing, &f.done} {
		require.NoError(t, db.Create(c).Error)
	}

	projectRepo := repository.NewProjectRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	f.access = NewAccessService(projectRepo, boardRepo, taskRepo)
	f.activities = NewActivityService(repository.NewActivityRepository(db), f.access, nil)
	f.tasks = NewTaskService(taskRepo, boardRepo, repository.NewLabelRepository(db), repository.NewUserRepository(db), f.access, f.activities, nil)
	return f
}

func (f fixture) addUser(t *testing.T, name string, memberRole models.MemberRole) policy.Actor {
	t.Helper()

	user := models.User{Name: name, Email: name + "@example.com", PasswordHash: "x", Role: models.RoleStudent}
	require.NoError(t, f.db.Create(&user).Error)
	if memberRole != "" {
		require.NoError(t, f.db.Create(&models.ProjectMember{
			ProjectID: f.project.ID,
			UserID:    user.ID,
			Role:      memberRole,
			JoinedAt:  time.Now(),
		}).Error)
	}
	return policy.Actor{UserID: user.ID, Role: user.Role, Name: user.Name}
}

func (f fixture) createTask(t *testing.T, column models.Column, title string) *models.Task {
	t.Helper()

	task, err := f.tasks.CreateTask(f.owner, CreateTaskInput{ColumnID: column.ID, Title: title})
	require.NoError(t, err)
	return task
}

// order returns task titles of a column by position and checks positions
// are 0..n-1.
func (f fixture) order(t *testing.T, column models.Column) []string {
	t.Helper()

	var tasks []models.Task
	require.NoError(t, f.db.Where("column_id = ?", column.ID).Order("position ASC").Find(&tasks).Error)
	titles := make([]string, len(tasks))
	for i, task := range tasks {
		require.Equal(t, i, task.Position, "positions of column %q are not contiguous", column.Title)
		titles[i] = task.Title
	}
	return titles
}
