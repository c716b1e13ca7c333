package repository

import (
	"github.com/yukikurage/kanban-api/internal/database"
	"github.com/yukikurage/kanban-api/internal/models"
	"gorm.io/gorm"
)

// GormSubtaskRepository is a GORM implementation of SubtaskRepository
type GormSubtaskRepository struct {
	db *gorm.DB
}

// NewSubtaskRepository creates a new SubtaskRepository
func NewSubtaskRepository(db *gorm.DB) SubtaskRepository {
	return &GormSubtaskRepository{db: db}
}

// Append creates a subtask after the task's last subtask
func (r *GormSubtaskRepository) Append(subtask *models.Subtask) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var maxPosition *int
		if err := tx.Model(&models.Subtask{}).
			Where("task_id = ?", subtask.TaskID).
			Select("MAX(position)").
			Scan(&maxPosition).Error; err != nil {
			return err
		}

		subtask.Position = 0
		if maxPosition != nil {
			subtask.Position = *maxPosition + 1
		}

		return tx.Create(subtask).Error
	})
}

// FindByID finds a subtask by ID
func (r *GormSubtaskRepository) FindByID(id uint64) (*models.Subtask, error) {
	var subtask models.Subtask
	if err := r.db.First(&subtask, id).Error; err != nil {
		return nil, err
	}
	return &subtask, nil
}

// ListByTask lists subtasks by position
func (r *GormSubtaskRepository) ListByTask(taskID uint64) ([]models.Subtask, error) {
	var subtasks []models.Subtask
	err := r.db.Where("task_id = ?", taskID).
		Scopes(database.Positioned("subtasks")).
		Find(&subtasks).Error
	return subtasks, err
}

// Update updates a subtask
func (r *GormSubtaskRepository) Update(subtask *models.Subtask) error {
	return r.db.Save(subtask).Error
}

// Delete deletes a subtask and renumbers its siblings
func (r *GormSubtaskRepository) Delete(subtask *models.Subtask) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Subtask{}, subtask.ID).Error; err != nil {
			return err
		}

		var siblings []models.Subtask
		if err := tx.Where("task_id = ?", subtask.TaskID).
			Scopes(database.Positioned("subtasks")).
			Find(&siblings).Error; err != nil {
			return err
		}

		for i, s := range siblings {
			if s.Position == i {
				continue
			}
			if err := tx.Model(&models.Subtask{}).Where("id = ?", s.ID).Update("position", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Reorder assigns positions 0..n-1 following subtaskIDs
func (r *GormSubtaskRepository) Reorder(taskID uint64, subtaskIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Subtask{}).
			Where("task_id = ? AND id IN ?", taskID, subtaskIDs).
			Count(&count).Error; err != nil {
			return err
		}
		if int(count) != len(subtaskIDs) {
			return gorm.ErrRecordNotFound
		}

		for i, id := range subtaskIDs {
			if err := tx.Model(&models.Subtask{}).Where("id = ?", id).Update("position", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
