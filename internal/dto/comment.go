package dto

import (
	"time"

	"github.com/yukikurage/kanban-api/internal/models"
)

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID         uint64          `json:"id"`
	TaskID     uint64          `json:"task_id"`
	UserID     uint64          `json:"user_id"`
	User       *UserSummaryDTO `json:"user,omitempty"`
	ParentID   *uint64         `json:"parent_id"`
	Content    string          `json:"content"`
	IsEditable bool            `json:"is_editable"`
	EditedAt   *time.Time      `json:"edited_at"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Replies    []CommentDTO    `json:"replies,omitempty"`
}

// ToCommentDTO converts a comment and its loaded replies. editable decides
// is_editable for the current viewer.
func ToCommentDTO(comment models.Comment, editable func(models.Comment) bool) CommentDTO {
	dto := CommentDTO{
		ID:         comment.ID,
		TaskID:     comment.TaskID,
		UserID:     comment.UserID,
		User:       toUserSummary(comment.User),
		ParentID:   comment.ParentID,
		Content:    comment.Content,
		IsEditable: editable(comment),
		EditedAt:   comment.EditedAt,
		CreatedAt:  comment.CreatedAt,
		UpdatedAt:  comment.UpdatedAt,
	}

	if len(comment.Replies) > 0 {
		dto.Replies = ToCommentDTOs(comment.Replies, editable)
	}

	return dto
}

// ToCommentDTOs converts a slice of comments
func ToCommentDTOs(comments []models.Comment, editable func(models.Comment) bool) []CommentDTO {
	result := make([]CommentDTO, len(comments))
	for i, c := range comments {
		result[i] = ToCommentDTO(c, editable)
	}
	return result
}
