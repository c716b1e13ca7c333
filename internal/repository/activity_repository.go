package repository

import (
	"github.com/yukikurage/kanban-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormActivityRepository is a GORM implementation of ActivityRepository
type GormActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &GormActivityRepository{db: db}
}

// Create appends an activity
func (r *GormActivityRepository) Create(activity *models.Activity) error {
	return r.db.Omit(clause.Associations).Create(activity).Error
}

// List returns activities matching the filter, newest first
func (r *GormActivityRepository) List(filter ActivityFilter) ([]models.Activity, error) {
	var activities []models.Activity

	query := r.db.Preload("User")
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.TaskID != nil {
		query = query.Where("task_id = ?", *filter.TaskID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	err := query.Order("created_at DESC").Order("id DESC").Find(&activities).Error
	return activities, err
}
