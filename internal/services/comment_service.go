package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/kanban-api/internal/activity"
	"github.com/yukikurage/kanban-api/internal/constants"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/policy"
	"github.com/yukikurage/kanban-api/internal/repository"
	"gorm.io/gorm"
)

// CommentService manages task discussions
type CommentService struct {
	commentRepo repository.CommentRepository
	access      *AccessService
	activities  *ActivityService
	now         func() time.Time
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repository.CommentRepository, access *AccessService, activities *ActivityService) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		access:      access,
		activities:  activities,
		now:         time.Now,
	}
}

// Editable reports whether actor may still edit the comment
func (s *CommentService) Editable(actor policy.Actor, comment models.Comment) bool {
	return policy.CanEditComment(actor, comment.UserID, comment.CreatedAt, s.now())
}

// ListComments returns the comment threads of a task
func (s *CommentService) ListComments(actor policy.Actor, taskID uint64) ([]models.Comment, error) {
	if _, _, err := s.access.ViewableTask(actor, taskID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListThreads(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// CreateComment adds a comment, or a reply when parentID is set
func (s *CommentService) CreateComment(actor policy.Actor, taskID uint64, content string, parentID *uint64) (*models.Comment, error) {
	task, access, err := s.access.ViewableTask(actor, taskID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("content", "content is required")
	}

	if parentID != nil {
		parent, err := s.commentRepo.FindByID(*parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, invalid("parent_id", "the parent comment does not exist")
			}
			return nil, fmt.Errorf("failed to find parent comment: %w", err)
		}
		if parent.TaskID != task.ID {
			return nil, invalid("parent_id", "the parent comment belongs to another task")
		}
		if parent.ParentID != nil {
			parentID = parent.ParentID
		}
	}

	comment := &models.Comment{
		TaskID:   task.ID,
		UserID:   actor.UserID,
		ParentID: parentID,
		Content:  content,
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.activities.Record(actor, ActivityEntry{
		ProjectID: access.ProjectID,
		TaskID:    &comment.TaskID,
		Type:      activity.CommentCreated,
		Subject:   activity.Comment(comment.ID),
		Data: activity.Data{
			"task_id": task.ID,
			"excerpt": activity.Excerpt(comment.Content, constants.CommentExcerptLength),
		},
	})

	return s.find(comment.ID)
}

// UpdateComment edits a comment while its author is inside the edit window
func (s *CommentService) UpdateComment(actor policy.Actor, commentID uint64, content string) (*models.Comment, error) {
	comment, err := s.find(commentID)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.access.ViewableTask(actor, comment.TaskID); err != nil {
		return nil, err
	}
	if !s.Editable(actor, *comment) {
		return nil, ErrForbidden
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("content", "content is required")
	}

	now := s.now()
	comment.Content = content
	comment.EditedAt = &now
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return comment, nil
}

// DeleteComment deletes a comment written by the actor
func (s *CommentService) DeleteComment(actor policy.Actor, commentID uint64) error {
	comment, err := s.find(commentID)
	if err != nil {
		return err
	}
	if _, _, err := s.access.ViewableTask(actor, comment.TaskID); err != nil {
		return err
	}
	if !policy.CanDeleteComment(actor, comment.UserID) {
		return ErrForbidden
	}

	if err := s.commentRepo.Delete(comment.ID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

func (s *CommentService) find(commentID uint64) (*models.Comment, error) {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	return comment, nil
}
