package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/kanban-api/internal/activity"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/policy"
	"github.com/yukikurage/kanban-api/internal/repository"
	"gorm.io/gorm"
)

// SubtaskService manages the checklist items of a task
type SubtaskService struct {
	subtaskRepo repository.SubtaskRepository
	access      *AccessService
	activities  *ActivityService
}

// NewSubtaskService creates a new SubtaskService
func NewSubtaskService(subtaskRepo repository.SubtaskRepository, access *AccessService, activities *ActivityService) *SubtaskService {
	return &SubtaskService{
		subtaskRepo: subtaskRepo,
		access:      access,
		activities:  activities,
	}
}

// UpdateSubtaskInput represents input for updating a subtask
type UpdateSubtaskInput struct {
	Title       *string
	IsCompleted *bool
}

// ListSubtasks lists the subtasks of a task in order
func (s *SubtaskService) ListSubtasks(actor policy.Actor, taskID uint64) ([]models.Subtask, error) {
	if _, _, err := s.access.ViewableTask(actor, taskID); err != nil {
		return nil, err
	}

	subtasks, err := s.subtaskRepo.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}
	return subtasks, nil
}

// CreateSubtask appends a subtask to a task
func (s *SubtaskService) CreateSubtask(actor policy.Actor, taskID uint64, title string) (*models.Subtask, error) {
	task, access, err := s.editableTask(actor, taskID)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("title", "title is required")
	}

	subtask := &models.Subtask{TaskID: task.ID, Title: title}
	if err := s.subtaskRepo.Append(subtask); err != nil {
		return nil, fmt.Errorf("failed to create subtask: %w", err)
	}

	s.record(actor, access, subtask, activity.SubtaskCreated)
	return subtask, nil
}

// UpdateSubtask renames a subtask or toggles its completion
func (s *SubtaskService) UpdateSubtask(actor policy.Actor, taskID, subtaskID uint64, input UpdateSubtaskInput) (*models.Subtask, error) {
	_, access, err := s.editableTask(actor, taskID)
	if err != nil {
		return nil, err
	}

	subtask, err := s.find(taskID, subtaskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, invalid("title", "title cannot be empty")
		}
		subtask.Title = title
	}

	toggled := input.IsCompleted != nil && *input.IsCompleted != subtask.IsCompleted
	if input.IsCompleted != nil {
		subtask.IsCompleted = *input.IsCompleted
	}

	if err := s.subtaskRepo.Update(subtask); err != nil {
		return nil, fmt.Errorf("failed to update subtask: %w", err)
	}

	if toggled {
		t := activity.SubtaskUncompleted
		if subtask.IsCompleted {
			t = activity.SubtaskCompleted
		}
		s.record(actor, access, subtask, t)
	}

	return subtask, nil
}

// DeleteSubtask removes a subtask and closes the gap it leaves
func (s *SubtaskService) DeleteSubtask(actor policy.Actor, taskID, subtaskID uint64) error {
	if _, _, err := s.editableTask(actor, taskID); err != nil {
		return err
	}

	subtask, err := s.find(taskID, subtaskID)
	if err != nil {
		return err
	}

	if err := s.subtaskRepo.Delete(subtask); err != nil {
		return fmt.Errorf("failed to delete subtask: %w", err)
	}
	return nil
}

// ReorderSubtasks sets the order of every subtask of a task
func (s *SubtaskService) ReorderSubtasks(actor policy.Actor, taskID uint64, subtaskIDs []uint64) ([]models.Subtask, error) {
	if _, _, err := s.editableTask(actor, taskID); err != nil {
		return nil, err
	}

	current, err := s.subtaskRepo.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}

	ids := uniqueUint64(subtaskIDs)
	if len(ids) != len(subtaskIDs) || len(ids) != len(current) {
		return nil, invalid("subtask_ids", "subtask_ids must list every subtask of the task once")
	}

	if err := s.subtaskRepo.Reorder(taskID, ids); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("subtask_ids", "subtask_ids contains a subtask of another task")
		}
		return nil, fmt.Errorf("failed to reorder subtasks: %w", err)
	}

	return s.subtaskRepo.ListByTask(taskID)
}

func (s *SubtaskService) editableTask(actor policy.Actor, taskID uint64) (*models.Task, policy.ProjectAccess, error) {
	task, access, err := s.access.Task(actor, taskID)
	if err != nil {
		return nil, access, err
	}
	if !policy.CanUpdateTask(actor, access) {
		return nil, access, ErrForbidden
	}
	return task, access, nil
}

func (s *SubtaskService) find(taskID, subtaskID uint64) (*models.Subtask, error) {
	subtask, err := s.subtaskRepo.FindByID(subtaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubtaskNotFound
		}
		return nil, fmt.Errorf("failed to find subtask: %w", err)
	}
	if subtask.TaskID != taskID {
		return nil, ErrSubtaskNotFound
	}
	return subtask, nil
}

func (s *SubtaskService) record(actor policy.Actor, access policy.ProjectAccess, subtask *models.Subtask, t activity.Type) {
	taskID := subtask.TaskID
	s.activities.Record(actor, ActivityEntry{
		ProjectID: access.ProjectID,
		TaskID:    &taskID,
		Type:      t,
		Subject:   activity.Subtask(subtask.ID),
		Data:      activity.Data{"task_id": taskID, "title": subtask.Title},
	})
}
