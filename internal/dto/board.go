package dto

import (
	"time"

	"github.com/yukikurage/kanban-api/internal/models"
)

// ColumnDTO represents a column in API responses. Tasks is only set when
// the board is loaded with its tasks.
type ColumnDTO struct {
	ID        uint64    `json:"id"`
	BoardID   uint64    `json:"board_id"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	WipLimit  int       `json:"wip_limit"`
	TaskCount *int      `json:"task_count,omitempty"`
	Tasks     []TaskDTO `json:"tasks,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BoardDTO represents a board in API responses
type BoardDTO struct {
	ID        uint64      `json:"id"`
	ProjectID uint64      `json:"project_id"`
	Title     string      `json:"title"`
	Columns   []ColumnDTO `json:"columns"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// ToColumnDTO converts a Column model without its tasks
func ToColumnDTO(column models.Column) ColumnDTO {
	return ColumnDTO{
		ID:        column.ID,
		BoardID:   column.BoardID,
		Title:     column.Title,
		Position:  column.Position,
		WipLimit:  column.WipLimit,
		CreatedAt: column.CreatedAt,
		UpdatedAt: column.UpdatedAt,
	}
}

// ToColumnDTOs converts a slice of columns without their tasks
func ToColumnDTOs(columns []models.Column) []ColumnDTO {
	result := make([]ColumnDTO, len(columns))
	for i, c := range columns {
		result[i] = ToColumnDTO(c)
	}
	return result
}

// ToBoardDTO converts a Board model. Column tasks are included when loaded.
func ToBoardDTO(board models.Board, now time.Time) BoardDTO {
	dto := BoardDTO{
		ID:        board.ID,
		ProjectID: board.ProjectID,
		Title:     board.Title,
		Columns:   make([]ColumnDTO, len(board.Columns)),
		CreatedAt: board.CreatedAt,
		UpdatedAt: board.UpdatedAt,
	}

	for i, column := range board.Columns {
		c := ToColumnDTO(column)
		if column.Tasks != nil {
			count := len(column.Tasks)
			c.TaskCount = &count
			c.Tasks = make([]TaskDTO, len(column.Tasks))
			for j, task := range column.Tasks {
				task.Column = column
				c.Tasks[j] = ToTaskDTO(task, now)
			}
		}
		dto.Columns[i] = c
	}

	return dto
}

// ToBoardDTOs converts a slice of boards
func ToBoardDTOs(boards []models.Board, now time.Time) []BoardDTO {
	result := make([]BoardDTO, len(boards))
	for i, b := range boards {
		result[i] = ToBoardDTO(b, now)
	}
	return result
}
