package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/policy"
	"github.com/yukikurage/kanban-api/internal/repository"
	"gorm.io/gorm"
)

// AccessService loads the facts authorization depends on. Lookups are
// ordered so a missing resource is reported before a permission failure.
type AccessService struct {
	projectRepo repository.ProjectRepository
	boardRepo   repository.BoardRepository
	taskRepo    repository.TaskRepository
}

// NewAccessService creates a new AccessService
func NewAccessService(projectRepo repository.ProjectRepository, boardRepo repository.BoardRepository, taskRepo repository.TaskRepository) *AccessService {
	return &AccessService{
		projectRepo: projectRepo,
		boardRepo:   boardRepo,
		taskRepo:    taskRepo,
	}
}

// Project resolves the actor's access to a project
func (s *AccessService) Project(actor policy.Actor, projectID uint64) (policy.ProjectAccess, error) {
	access, err := s.projectRepo.Access(projectID, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.ProjectAccess{}, ErrProjectNotFound
		}
		return policy.ProjectAccess{}, fmt.Errorf("failed to resolve project access: %w", err)
	}
	return access, nil
}

// Board loads a board and the actor's access to its project
func (s *AccessService) Board(actor policy.Actor, boardID uint64) (*models.Board, policy.ProjectAccess, error) {
	board, err := s.boardRepo.FindByID(boardID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, policy.ProjectAccess{}, ErrBoardNotFound
		}
		return nil, policy.ProjectAccess{}, fmt.Errorf("failed to find board: %w", err)
	}

	access, err := s.Project(actor, board.ProjectID)
	if err != nil {
		return nil, policy.ProjectAccess{}, err
	}
	return board, access, nil
}

// Column loads a column with its board and the actor's access to its project
func (s *AccessService) Column(actor policy.Actor, columnID uint64) (*models.Column, policy.ProjectAccess, error) {
	column, err := s.boardRepo.FindColumn(columnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, policy.ProjectAccess{}, ErrColumnNotFound
		}
		return nil, policy.ProjectAccess{}, fmt.Errorf("failed to find column: %w", err)
	}

	access, err := s.Project(actor, column.Board.ProjectID)
	if err != nil {
		return nil, policy.ProjectAccess{}, err
	}
	return column, access, nil
}

// Task loads a task with its column and board and the actor's access to its
// project. Extra relations can be preloaded.
func (s *AccessService) Task(actor policy.Actor, taskID uint64, preload ...string) (*models.Task, policy.ProjectAccess, error) {
	task, err := s.taskRepo.FindByID(taskID, append([]string{"Column.Board"}, preload...)...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, policy.ProjectAccess{}, ErrTaskNotFound
		}
		return nil, policy.ProjectAccess{}, fmt.Errorf("failed to find task: %w", err)
	}

	access, err := s.Project(actor, task.Column.Board.ProjectID)
	if err != nil {
		return nil, policy.ProjectAccess{}, err
	}
	return task, access, nil
}

// ViewableProject fails unless the actor can view the project
func (s *AccessService) ViewableProject(actor policy.Actor, projectID uint64) (policy.ProjectAccess, error) {
	access, err := s.Project(actor, projectID)
	if err != nil {
		return access, err
	}
	if !policy.CanViewProject(actor, access) {
		return access, ErrForbidden
	}
	return access, nil
}

// ViewableTask fails unless the actor can view the task
func (s *AccessService) ViewableTask(actor policy.Actor, taskID uint64) (*models.Task, policy.ProjectAccess, error) {
	task, access, err := s.Task(actor, taskID)
	if err != nil {
		return nil, access, err
	}
	if !policy.CanViewTask(actor, access) {
		return nil, access, ErrForbidden
	}
	return task, access, nil
}

// VisibleProjectIDs lists the projects the actor may see. Admins see
// everything, signalled by all=true.
func (s *AccessService) VisibleProjectIDs(actor policy.Actor) (ids []uint64, all bool, err error) {
	if actor.IsAdmin() {
		return nil, true, nil
	}
	ids, err = s.projectRepo.VisibleIDs(actor.UserID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list visible projects: %w", err)
	}
	return ids, false, nil
}
