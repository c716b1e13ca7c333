package repository

import (
	"time"

	"github.com/yukikurage/kanban-api/internal/models"
	"gorm.io/gorm"
)

// GormStatsRepository is a GORM implementation of StatsRepository
type GormStatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &GormStatsRepository{db: db}
}

func (r *GormStatsRepository) activeTasks(projectIDs []uint64) *gorm.DB {
	return r.db.Model(&models.Task{}).
		Joins("JOIN columns ON columns.id = tasks.column_id").
		Joins("JOIN boards ON boards.id = columns.board_id").
		Where("boards.project_id IN ?", projectIDs).
		Where("columns.title NOT IN ?", models.TerminalColumnTitles)
}

// CountActiveTasks counts tasks outside terminal columns
func (r *GormStatsRepository) CountActiveTasks(projectIDs []uint64) (int64, error) {
	var count int64
	if len(projectIDs) == 0 {
		return 0, nil
	}
	err := r.activeTasks(projectIDs).Count(&count).Error
	return count, err
}

// CountOverdueTasks counts active tasks due before the given day
func (r *GormStatsRepository) CountOverdueTasks(projectIDs []uint64, before time.Time) (int64, error) {
	var count int64
	if len(projectIDs) == 0 {
		return 0, nil
	}
	err := r.activeTasks(projectIDs).
		Where("tasks.due_date IS NOT NULL AND tasks.due_date < ?", before).
		Count(&count).Error
	return count, err
}

// CountTeamMembers counts distinct members across projects
func (r *GormStatsRepository) CountTeamMembers(projectIDs []uint64) (int64, error) {
	var count int64
	if len(projectIDs) == 0 {
		return 0, nil
	}
	err := r.db.Model(&models.ProjectMember{}).
		Where("project_id IN ?", projectIDs).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}
