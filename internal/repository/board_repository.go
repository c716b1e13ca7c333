package repository

import (
	"github.com/yukikurage/kanban-api/internal/database"
	"github.com/yukikurage/kanban-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBoardRepository is a GORM implementation of BoardRepository
type GormBoardRepository struct {
	db *gorm.DB
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &GormBoardRepository{db: db}
}

func orderedColumns(db *gorm.DB) *gorm.DB {
	return db.Order("columns.position ASC").Order("columns.id ASC")
}

// CreateWithColumns creates a board and its initial columns atomically
func (r *GormBoardRepository) CreateWithColumns(board *models.Board, columns []models.Column) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(board).Error; err != nil {
			return err
		}

		for i := range columns {
			columns[i].BoardID = board.ID
		}
		if len(columns) > 0 {
			if err := tx.Omit(clause.Associations).Create(&columns).Error; err != nil {
				return err
			}
		}

		board.Columns = columns
		return nil
	})
}

// FindByID finds a board by ID, optionally with ordered columns
func (r *GormBoardRepository) FindByID(id uint64, withColumns bool) (*models.Board, error) {
	var board models.Board
	query := r.db
	if withColumns {
		query = query.Preload("Columns", orderedColumns)
	}
	if err := query.First(&board, id).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

// FindWithTasks finds a board with ordered columns and their ordered tasks
func (r *GormBoardRepository) FindWithTasks(id uint64) (*models.Board, error) {
	var board models.Board
	err := r.db.
		Preload("Columns", orderedColumns).
		Preload("Columns.Tasks", database.Positioned("tasks")).
		Preload("Columns.Tasks.Assignee").
		Preload("Columns.Tasks.Labels").
		Preload("Columns.Tasks.Subtasks", database.Positioned("subtasks")).
		First(&board, id).Error
	if err != nil {
		return nil, err
	}
	return &board, nil
}

// ListByProject lists the boards of a project with their columns
func (r *GormBoardRepository) ListByProject(projectID uint64) ([]models.Board, error) {
	var boards []models.Board
	err := r.db.Preload("Columns", orderedColumns).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&boards).Error
	return boards, err
}

// Update updates a board
func (r *GormBoardRepository) Update(board *models.Board) error {
	return r.db.Omit(clause.Associations).Save(board).Error
}

// Delete deletes a board with its columns and tasks
func (r *GormBoardRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		columnIDs := tx.Model(&models.Column{}).Select("id").Where("board_id = ?", id)

		var taskIDs []uint64
		if err := tx.Model(&models.Task{}).Where("column_id IN (?)", columnIDs).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		if err := deleteTaskChildren(tx, taskIDs); err != nil {
			return err
		}
		if len(taskIDs) > 0 {
			if err := tx.Where("id IN ?", taskIDs).Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("board_id = ?", id).Delete(&models.Column{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Board{}, id).Error
	})
}

// FindColumn finds a column with its board
func (r *GormBoardRepository) FindColumn(id uint64) (*models.Column, error) {
	var column models.Column
	if err := r.db.Preload("Board").First(&column, id).Error; err != nil {
		return nil, err
	}
	return &column, nil
}

// AppendColumn creates a column after the board's last column
func (r *GormBoardRepository) AppendColumn(column *models.Column) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var maxPosition *int
		if err := tx.Model(&models.Column{}).
			Where("board_id = ?", column.BoardID).
			Select("MAX(position)").
			Scan(&maxPosition).Error; err != nil {
			return err
		}

		column.Position = 1
		if maxPosition != nil {
			column.Position = *maxPosition + 1
		}

		return tx.Omit(clause.Associations).Create(column).Error
	})
}

// UpdateColumn updates a column
func (r *GormBoardRepository) UpdateColumn(column *models.Column) error {
	return r.db.Omit(clause.Associations).Save(column).Error
}

// DeleteColumn deletes an empty column
func (r *GormBoardRepository) DeleteColumn(id uint64) error {
	return r.db.Delete(&models.Column{}, id).Error
}

// ReorderColumns assigns positions 1..n following columnIDs
func (r *GormBoardRepository) ReorderColumns(boardID uint64, columnIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Column{}).
			Where("board_id = ? AND id IN ?", boardID, columnIDs).
			Count(&count).Error; err != nil {
			return err
		}
		if int(count) != len(columnIDs) {
			return gorm.ErrRecordNotFound
		}

		for i, id := range columnIDs {
			if err := tx.Model(&models.Column{}).
				Where("id = ?", id).
				Update("position", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CountTasks counts the tasks currently in a column
func (r *GormBoardRepository) CountTasks(columnID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).Where("column_id = ?", columnID).Count(&count).Error
	return count, err
}
