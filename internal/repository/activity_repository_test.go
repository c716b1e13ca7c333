package repository

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/kanban-api/internal/models"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return db, mock
}

func TestActivityRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewActivityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `activities`")).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	projectID := uint64(3)
	activity := &models.Activity{
		UserID:      1,
		ProjectID:   &projectID,
		Type:        "task.created",
		SubjectType: "task",
		SubjectID:   9,
		Data:        datatypes.JSONMap{"title": "Write tests"},
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repo.Create(activity))
	assert.Equal(t, uint64(7), activity.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepository_Create_Failure(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewActivityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `activities`")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Create(&models.Activity{UserID: 1, Type: "task.created", SubjectType: "task", SubjectID: 9})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepository_List(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewActivityRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `activities` WHERE project_id = ? AND type = ? ORDER BY created_at DESC,id DESC LIMIT ?")).
		WithArgs(uint64(3), "task.moved", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "project_id", "task_id", "type", "subject_type", "subject_id", "data", "created_at"}).
			AddRow(2, 1, 3, 9, "task.moved", "task", 9, []byte(`{"from_column":"To Do","to_column":"Review"}`), now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE `users`.`id` = ?")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role"}).
			AddRow(1, "Ada", "ada@example.com", "instructor"))

	projectID := uint64(3)
	activities, err := repo.List(ActivityFilter{ProjectID: &projectID, Type: "task.moved", Limit: 10})
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "Ada", activities[0].User.Name)
	assert.Equal(t, "Review", activities[0].Data["to_column"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
