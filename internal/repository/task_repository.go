package repository

import (
	"github.com/yukikurage/kanban-api/internal/database"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Transaction runs fn with a repository bound to one database transaction
func (r *GormTaskRepository) Transaction(fn func(repo TaskRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormTaskRepository{db: tx})
	})
}

func (r *GormTaskRepository) forUpdate(query *gorm.DB) *gorm.DB {
	if database.SupportsRowLocks(r.db) {
		return query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return query
}

// Append creates a task at the end of its column. The column row is locked
// so concurrent appends cannot claim the same position.
func (r *GormTaskRepository) Append(task *models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		repo := &GormTaskRepository{db: tx}

		if _, err := repo.LockColumn(task.ColumnID); err != nil {
			return err
		}

		count, err := repo.CountInColumn(task.ColumnID)
		if err != nil {
			return err
		}

		task.Position = int(count)
		return tx.Omit(clause.Associations).Create(task).Error
	})
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		switch p {
		case "Subtasks":
			query = query.Preload(p, database.Positioned("subtasks"))
		default:
			query = query.Preload(p)
		}
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	if !filter.AllProjects && len(filter.ProjectIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	query := r.db.Model(&models.Task{}).
		Joins("JOIN columns ON columns.id = tasks.column_id").
		Joins("JOIN boards ON boards.id = columns.board_id")

	if !filter.AllProjects {
		query = query.Where("boards.project_id IN ?", filter.ProjectIDs)
	}

	if filter.ColumnID != nil {
		query = query.Where("tasks.column_id = ?", *filter.ColumnID)
	}
	if filter.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.AssigneeID)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if len(filter.LabelIDs) > 0 {
		query = query.Where("tasks.id IN (SELECT task_id FROM task_labels WHERE label_id IN ?)", filter.LabelIDs)
	}
	if filter.Search != "" {
		query = query.Where("tasks.title LIKE ?", "%"+filter.Search+"%")
	}
	if filter.DueDateFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		query = query.Where("tasks.due_date <= ?", *filter.DueDateTo)
	}
	if filter.OverdueAt != nil {
		query = query.Where("tasks.due_date < ?", *filter.OverdueAt).
			Where("columns.title NOT IN ?", models.TerminalColumnTitles)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("tasks.position ASC").Order("tasks.created_at DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	err := listQuery.
		Preload("Column").
		Preload("Assignee").
		Preload("Labels").
		Preload("Subtasks", database.Positioned("subtasks")).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update writes a task's editable fields. Placement columns are left alone;
// they only change through ApplyOrder.
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Model(task).
		Select("title", "description", "assignee_id", "priority", "due_date", "updated_at").
		Omit(clause.Associations).
		Updates(task).Error
}

// Delete deletes a task and renumbers the column it leaves
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		repo := &GormTaskRepository{db: tx}

		var task models.Task
		if err := tx.Select("id", "column_id").First(&task, id).Error; err != nil {
			return err
		}

		if _, err := repo.LockColumn(task.ColumnID); err != nil {
			return err
		}

		if err := deleteTaskChildren(tx, []uint64{id}); err != nil {
			return err
		}
		if err := tx.Delete(&models.Task{}, id).Error; err != nil {
			return err
		}

		return repo.Renumber(task.ColumnID)
	})
}

// LockColumn loads a column, holding a row lock where the dialect supports it
func (r *GormTaskRepository) LockColumn(id uint64) (*models.Column, error) {
	var column models.Column
	if err := r.forUpdate(r.db).First(&column, id).Error; err != nil {
		return nil, err
	}
	return &column, nil
}

// ListInColumn lists a column's tasks by position, excluding one task
func (r *GormTaskRepository) ListInColumn(columnID uint64, excludeID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("column_id = ? AND id <> ?", columnID, excludeID).
		Scopes(database.Positioned("tasks")).
		Find(&tasks).Error
	return tasks, err
}

// CountInColumn counts the tasks in a column
func (r *GormTaskRepository) CountInColumn(columnID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).Where("column_id = ?", columnID).Count(&count).Error
	return count, err
}

// ApplyOrder writes column_id and positions 0..n-1 for the given tasks,
// touching only rows whose placement changed.
func (r *GormTaskRepository) ApplyOrder(columnID uint64, ordered []models.Task) error {
	for i := range ordered {
		t := &ordered[i]
		if t.ColumnID == columnID && t.Position == i {
			continue
		}

		err := r.db.Model(&models.Task{}).
			Where("id = ?", t.ID).
			Updates(map[string]interface{}{"column_id": columnID, "position": i}).Error
		if err != nil {
			return err
		}

		t.ColumnID = columnID
		t.Position = i
	}
	return nil
}

// Renumber rewrites a column's positions to 0..n-1 keeping relative order
func (r *GormTaskRepository) Renumber(columnID uint64) error {
	tasks, err := r.ListInColumn(columnID, 0)
	if err != nil {
		return err
	}
	return r.ApplyOrder(columnID, tasks)
}

// SyncLabels replaces a task's labels and reports what changed
func (r *GormTaskRepository) SyncLabels(taskID uint64, labels []models.Label) (added, removed []models.Label, err error) {
	err = r.db.Transaction(func(tx *gorm.DB) error {
		var current []models.Label
		if err := tx.Joins("JOIN task_labels ON task_labels.label_id = labels.id").
			Where("task_labels.task_id = ?", taskID).
			Find(&current).Error; err != nil {
			return err
		}

		wanted := make(map[uint64]bool, len(labels))
		for _, l := range labels {
			wanted[l.ID] = true
		}
		existing := make(map[uint64]bool, len(current))
		var removedIDs []uint64
		for _, l := range current {
			existing[l.ID] = true
			if !wanted[l.ID] {
				removed = append(removed, l)
				removedIDs = append(removedIDs, l.ID)
			}
		}

		if len(removedIDs) > 0 {
			if err := tx.Exec("DELETE FROM task_labels WHERE task_id = ? AND label_id IN ?", taskID, removedIDs).Error; err != nil {
				return err
			}
		}

		for _, l := range labels {
			if existing[l.ID] {
				continue
			}
			if err := tx.Exec("INSERT INTO task_labels (task_id, label_id) VALUES (?, ?)", taskID, l.ID).Error; err != nil {
				return err
			}
			existing[l.ID] = true
			added = append(added, l)
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return added, removed, nil
}
