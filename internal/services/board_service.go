package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/policy"
	"github.com/yukikurage/kanban-api/internal/repository"
	"gorm.io/gorm"
)

// BoardService handles boards and their columns
type BoardService struct {
	boardRepo repository.BoardRepository
	access    *AccessService
}

// NewBoardService creates a new BoardService
func NewBoardService(boardRepo repository.BoardRepository, access *AccessService) *BoardService {
	return &BoardService{
		boardRepo: boardRepo,
		access:    access,
	}
}

// ColumnInput represents input for creating or updating a column
type ColumnInput struct {
	Title    *string
	WipLimit *int
}

// ListBoards lists the boards of a project with their columns
func (s *BoardService) ListBoards(actor policy.Actor, projectID uint64) ([]models.Board, error) {
	if _, err := s.access.ViewableProject(actor, projectID); err != nil {
		return nil, err
	}

	boards, err := s.boardRepo.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return boards, nil
}

// CreateBoard creates a board seeded with the default columns
func (s *BoardService) CreateBoard(actor policy.Actor, projectID uint64, title string) (*models.Board, error) {
	access, err := s.access.Project(actor, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageColumns(actor, access) {
		return nil, ErrForbidden
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("title", "title is required")
	}

	board := &models.Board{ProjectID: projectID, Title: title}
	columns := make([]models.Column, len(models.DefaultColumnTitles))
	for i, t := range models.DefaultColumnTitles {
		columns[i] = models.Column{Title: t, Position: i + 1}
	}

	if err := s.boardRepo.CreateWithColumns(board, columns); err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	return board, nil
}

// GetBoard returns a board with its columns and their tasks in order
func (s *BoardService) GetBoard(actor policy.Actor, boardID uint64) (*models.Board, error) {
	_, access, err := s.access.Board(actor, boardID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewProject(actor, access) {
		return nil, ErrForbidden
	}

	board, err := s.boardRepo.FindWithTasks(boardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to load board: %w", err)
	}
	return board, nil
}

// UpdateBoard renames a board
func (s *BoardService) UpdateBoard(actor policy.Actor, boardID uint64, title string) (*models.Board, error) {
	board, access, err := s.access.Board(actor, boardID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageColumns(actor, access) {
		return nil, ErrForbidden
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("title", "title is required")
	}

	board.Title = title
	if err := s.boardRepo.Update(board); err != nil {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}
	return board, nil
}

// DeleteBoard deletes a board with its columns and tasks
func (s *BoardService) DeleteBoard(actor policy.Actor, boardID uint64) error {
	_, access, err := s.access.Board(actor, boardID)
	if err != nil {
		return err
	}
	if !policy.CanDeleteProject(actor, access) {
		return ErrForbidden
	}

	if err := s.boardRepo.Delete(boardID); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return nil
}

// CreateColumn appends a column to a board
func (s *BoardService) CreateColumn(actor policy.Actor, boardID uint64, input ColumnInput) (*models.Column, error) {
	board, access, err := s.access.Board(actor, boardID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageColumns(actor, access) {
		return nil, ErrForbidden
	}

	column := &models.Column{BoardID: board.ID}
	if input.Title == nil {
		return nil, invalid("title", "title is required")
	}
	if err := applyColumnFields(column, input); err != nil {
		return nil, err
	}

	if err := s.boardRepo.AppendColumn(column); err != nil {
		return nil, fmt.Errorf("failed to create column: %w", err)
	}
	return column, nil
}

// UpdateColumn changes a column's title or WIP limit. Lowering the limit
// below the current task count is allowed; it only blocks further moves in.
func (s *BoardService) UpdateColumn(actor policy.Actor, columnID uint64, input ColumnInput) (*models.Column, error) {
	column, access, err := s.access.Column(actor, columnID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageColumns(actor, access) {
		return nil, ErrForbidden
	}

	if err := applyColumnFields(column, input); err != nil {
		return nil, err
	}

	if err := s.boardRepo.UpdateColumn(column); err != nil {
		return nil, fmt.Errorf("failed to update column: %w", err)
	}
	return column, nil
}

// DeleteColumn deletes a column that holds no tasks
func (s *BoardService) DeleteColumn(actor policy.Actor, columnID uint64) error {
	column, access, err := s.access.Column(actor, columnID)
	if err != nil {
		return err
	}
	if !policy.CanManageColumns(actor, access) {
		return ErrForbidden
	}

	count, err := s.boardRepo.CountTasks(column.ID)
	if err != nil {
		return fmt.Errorf("failed to count column tasks: %w", err)
	}
	if count > 0 {
		return invalid("column", "cannot delete a column that still contains tasks")
	}

	if err := s.boardRepo.DeleteColumn(column.ID); err != nil {
		return fmt.Errorf("failed to delete column: %w", err)
	}
	return nil
}

// ReorderColumns sets the column order of a board. columnIDs must list
// every column of the board exactly once.
func (s *BoardService) ReorderColumns(actor policy.Actor, boardID uint64, columnIDs []uint64) ([]models.Column, error) {
	board, access, err := s.access.Board(actor, boardID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageColumns(actor, access) {
		return nil, ErrForbidden
	}

	current, err := s.boardRepo.FindByID(board.ID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load columns: %w", err)
	}
	ids := uniqueUint64(columnIDs)
	if len(ids) != len(columnIDs) || len(ids) != len(current.Columns) {
		return nil, invalid("column_ids", "column_ids must list every column of the board once")
	}

	if err := s.boardRepo.ReorderColumns(board.ID, ids); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("column_ids", "column_ids contains a column of another board")
		}
		return nil, fmt.Errorf("failed to reorder columns: %w", err)
	}

	reordered, err := s.boardRepo.FindByID(board.ID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load columns: %w", err)
	}
	return reordered.Columns, nil
}

func applyColumnFields(column *models.Column, input ColumnInput) error {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return invalid("title", "title is required")
		}
		column.Title = title
	}
	if input.WipLimit != nil {
		if *input.WipLimit < 0 {
			return invalid("wip_limit", "wip_limit must be at least 0")
		}
		column.WipLimit = *input.WipLimit
	}
	return nil
}
