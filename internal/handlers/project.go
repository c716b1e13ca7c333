package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-api/internal/constants"
	"github.com/yukikurage/kanban-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-api/internal/errors"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/services"
	"github.com/yukikurage/kanban-api/internal/utils"
)

// ProjectHandler serves projects and their memberships
type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// ListProjects returns a page of the projects visible to the user
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c, constants.DefaultPageSize)
	input := services.ListProjectsInput{
		Role:     c.Query("role"),
		Search:   c.Query("search"),
		SortBy:   c.DefaultQuery("sort", "updated_at"),
		SortDesc: !strings.EqualFold(c.Query("order"), "asc"),
		Page:     params.Page,
		PageSize: params.Limit,
	}

	if raw := c.Query("archived"); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid archived filter")
			return
		}
		input.Archived = &archived
	}
	if raw := c.Query("status"); raw != "" {
		timeline := dto.ParseTimeline(raw)
		input.Timeline = &timeline
	}

	details, total, err := h.projectService.ListProjects(actor, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": dto.ToProjectDTOs(details),
		"meta": utils.NewPaginationMeta(params, total),
	})
}

// CreateProject creates a project owned by the user
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	type CreateProjectRequest struct {
		Title          string `json:"title" binding:"required"`
		Description    string `json:"description"`
		TimelineStatus string `json:"timeline_status"`
		BudgetStatus   string `json:"budget_status"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	detail, err := h.projectService.CreateProject(actor, services.CreateProjectInput{
		Title:          req.Title,
		Description:    req.Description,
		TimelineStatus: dto.ParseTimeline(req.TimelineStatus),
		BudgetStatus:   dto.ParseBudget(req.BudgetStatus),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Project created successfully",
		"data":    dto.ToProjectDTO(*detail),
	})
}

// GetProject returns a project with its completion figures
func (h *ProjectHandler) GetProject(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	detail, err := h.projectService.GetProject(actor, projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ToProjectDTO(*detail)})
}

// UpdateProject updates a project. A stale updated_at is rejected with 409.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	type UpdateProjectRequest struct {
		Title          *string    `json:"title"`
		Description    *string    `json:"description"`
		TimelineStatus *string    `json:"timeline_status"`
		BudgetStatus   *string    `json:"budget_status"`
		UpdatedAt      *time.Time `json:"updated_at"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	input := services.UpdateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		UpdatedAt:   req.UpdatedAt,
	}
	if req.TimelineStatus != nil {
		timeline := dto.ParseTimeline(*req.TimelineStatus)
		input.TimelineStatus = &timeline
	}
	if req.BudgetStatus != nil {
		budget := dto.ParseBudget(*req.BudgetStatus)
		input.BudgetStatus = &budget
	}

	detail, err := h.projectService.UpdateProject(actor, projectID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project updated successfully",
		"data":    dto.ToProjectDTO(*detail),
	})
}

// DeleteProject deletes a project and everything it contains
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(actor, projectID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// ArchiveProject marks a project archived
func (h *ProjectHandler) ArchiveProject(c *gin.Context) {
	h.setArchived(c, true, "Project archived successfully")
}

// UnarchiveProject restores an archived project
func (h *ProjectHandler) UnarchiveProject(c *gin.Context) {
	h.setArchived(c, false, "Project restored successfully")
}

func (h *ProjectHandler) setArchived(c *gin.Context, archived bool, message string) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	detail, err := h.projectService.SetArchived(actor, projectID, archived)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    dto.ToProjectDTO(*detail),
	})
}

// DuplicateProject copies a project's boards, columns and labels
func (h *ProjectHandler) DuplicateProject(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	detail, err := h.projectService.DuplicateProject(actor, projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Project duplicated successfully",
		"data":    dto.ToProjectDTO(*detail),
	})
}

// ListMembers returns the members of a project
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	members, err := h.projectService.ListMembers(actor, projectID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ToProjectMemberDTOs(members)})
}

// AddMember adds a user to a project as editor or viewer
func (h *ProjectHandler) AddMember(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}

	type AddMemberRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
		Role   string `json:"role" binding:"required"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	member, err := h.projectService.AddMember(actor, projectID, req.UserID, models.MemberRole(req.Role))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Member added successfully",
		"data":    dto.ToProjectMemberDTO(*member),
	})
}

// UpdateMemberRole changes the role of a project member
func (h *ProjectHandler) UpdateMemberRole(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}
	userID, ok := parseID(c, "user_id", "user")
	if !ok {
		return
	}

	type UpdateMemberRequest struct {
		Role string `json:"role" binding:"required"`
	}

	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	member, err := h.projectService.UpdateMemberRole(actor, projectID, userID, models.MemberRole(req.Role))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member role updated successfully",
		"data":    dto.ToProjectMemberDTO(*member),
	})
}

// RemoveMember removes a user from a project
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseID(c, "id", "project")
	if !ok {
		return
	}
	userID, ok := parseID(c, "user_id", "user")
	if !ok {
		return
	}

	if err := h.projectService.RemoveMember(actor, projectID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}
