package repository

import (
	"github.com/yukikurage/kanban-api/internal/models"
	"gorm.io/gorm"
)

// GormLabelRepository is a GORM implementation of LabelRepository
type GormLabelRepository struct {
	db *gorm.DB
}

// NewLabelRepository creates a new LabelRepository
func NewLabelRepository(db *gorm.DB) LabelRepository {
	return &GormLabelRepository{db: db}
}

// Create creates a new label
func (r *GormLabelRepository) Create(label *models.Label) error {
	return r.db.Create(label).Error
}

// FindByID finds a label by ID
func (r *GormLabelRepository) FindByID(id uint64) (*models.Label, error) {
	var label models.Label
	if err := r.db.First(&label, id).Error; err != nil {
		return nil, err
	}
	return &label, nil
}

// ListByProject lists a project's labels by name
func (r *GormLabelRepository) ListByProject(projectID uint64) ([]models.Label, error) {
	var labels []models.Label
	err := r.db.Where("project_id = ?", projectID).Order("name ASC").Find(&labels).Error
	return labels, err
}

// FindInProject returns the labels among ids that belong to the project
func (r *GormLabelRepository) FindInProject(projectID uint64, ids []uint64) ([]models.Label, error) {
	var labels []models.Label
	if len(ids) == 0 {
		return labels, nil
	}
	err := r.db.Where("project_id = ? AND id IN ?", projectID, ids).Order("id ASC").Find(&labels).Error
	return labels, err
}

// NameTaken reports whether another label of the project uses name
func (r *GormLabelRepository) NameTaken(projectID uint64, name string, excludeID uint64) (bool, error) {
	var count int64
	err := r.db.Model(&models.Label{}).
		Where("project_id = ? AND name = ? AND id <> ?", projectID, name, excludeID).
		Count(&count).Error
	return count > 0, err
}

// Update updates a label
func (r *GormLabelRepository) Update(label *models.Label) error {
	return r.db.Save(label).Error
}

// Delete deletes a label and detaches it from tasks
func (r *GormLabelRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_labels WHERE label_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Label{}, id).Error
	})
}
