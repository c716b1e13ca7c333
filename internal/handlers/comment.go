package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-api/internal/dto"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/policy"
	"github.com/yukikurage/kanban-api/internal/services"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

type commentRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

// ListComments returns the comment threads of a task
func (h *CommentHandler) ListComments(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(actor, taskID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ToCommentDTOs(comments, h.editable(actor))})
}

// CreateComment posts a comment or a reply to a task
func (h *CommentHandler) CreateComment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "id", "task")
	if !ok {
		return
	}

	type CreateCommentRequest struct {
		Content  string  `json:"content" binding:"required,max=5000"`
		ParentID *uint64 `json:"parent_id"`
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	comment, err := h.commentService.CreateComment(actor, taskID, req.Content, req.ParentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Comment added successfully",
		"data":    dto.ToCommentDTO(*comment, h.editable(actor)),
	})
}

// UpdateComment edits a comment within the edit window
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	commentID, ok := parseID(c, "id", "comment")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	comment, err := h.commentService.UpdateComment(actor, commentID, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment updated successfully",
		"data":    dto.ToCommentDTO(*comment, h.editable(actor)),
	})
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	commentID, ok := parseID(c, "id", "comment")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(actor, commentID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

func (h *CommentHandler) editable(actor policy.Actor) func(models.Comment) bool {
	return func(comment models.Comment) bool {
		return h.commentService.Editable(actor, comment)
	}
}
