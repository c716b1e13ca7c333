package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/kanban-api/internal/constants"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/policy"
	"github.com/yukikurage/kanban-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectConflict = errors.New("the project was modified by someone else, reload and try again")
	ErrAlreadyMember   = errors.New("user is already a member of this project")
)

// ProjectService handles project and membership business logic
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	access      *AccessService
	now         func() time.Time
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository, access *AccessService) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		access:      access,
		now:         time.Now,
	}
}

// ProjectDetail is a project together with its derived figures
type ProjectDetail struct {
	Project      models.Project
	Tasks        repository.TaskStats
	TotalMembers int64
	Permissions  policy.Permissions
}

// ListProjectsInput represents filters for listing projects
type ListProjectsInput struct {
	Archived *bool
	Timeline *models.TimelineStatus
	Role     string
	Search   string
	SortBy   string
	SortDesc bool
	Page     int
	PageSize int
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Title          string
	Description    string
	TimelineStatus models.TimelineStatus
	BudgetStatus   models.BudgetStatus
}

// UpdateProjectInput represents input for updating a project. UpdatedAt is
// the timestamp the client last saw; when set, a newer stored value fails
// the update with ErrProjectConflict.
type UpdateProjectInput struct {
	Title          *string
	Description    *string
	TimelineStatus *models.TimelineStatus
	BudgetStatus   *models.BudgetStatus
	UpdatedAt      *time.Time
}

// ListProjects lists the projects visible to the actor
func (s *ProjectService) ListProjects(actor policy.Actor, input ListProjectsInput) ([]ProjectDetail, int64, error) {
	filter := repository.ProjectFilter{
		UserID:   actor.UserID,
		AllUsers: actor.IsAdmin(),
		Archived: input.Archived,
		Timeline: input.Timeline,
		Search:   strings.TrimSpace(input.Search),
		SortBy:   input.SortBy,
		SortDesc: input.SortDesc,
		Page:     input.Page,
		PageSize: input.PageSize,
	}

	switch input.Role {
	case "owner":
		filter.OwnedOnly = true
	case "member":
		filter.Member = true
	}

	projects, total, err := s.projectRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}

	details := make([]ProjectDetail, 0, len(projects))
	for i := range projects {
		access, err := s.access.Project(actor, projects[i].ID)
		if err != nil {
			return nil, 0, err
		}
		detail, err := s.detail(actor, access, &projects[i])
		if err != nil {
			return nil, 0, err
		}
		details = append(details, *detail)
	}

	return details, total, nil
}

// CreateProject creates a project owned by the actor
func (s *ProjectService) CreateProject(actor policy.Actor, input CreateProjectInput) (*ProjectDetail, error) {
	if !policy.CanCreateProject(actor) {
		return nil, ErrForbidden
	}

	project := &models.Project{
		InstructorID:   actor.UserID,
		TimelineStatus: models.TimelineOnTrack,
		BudgetStatus:   models.BudgetOn,
	}
	if err := applyProjectFields(project, &input.Title, &input.Description); err != nil {
		return nil, err
	}
	if input.TimelineStatus != "" {
		project.TimelineStatus = input.TimelineStatus
	}
	if input.BudgetStatus != "" {
		project.BudgetStatus = input.BudgetStatus
	}

	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.GetProject(actor, project.ID)
}

// GetProject returns a project the actor can view
func (s *ProjectService) GetProject(actor policy.Actor, projectID uint64) (*ProjectDetail, error) {
	access, err := s.access.ViewableProject(actor, projectID)
	if err != nil {
		return nil, err
	}

	project, err := s.find(projectID)
	if err != nil {
		return nil, err
	}

	return s.detail(actor, access, project)
}

// UpdateProject updates a project, rejecting stale writes
func (s *ProjectService) UpdateProject(actor policy.Actor, projectID uint64, input UpdateProjectInput) (*ProjectDetail, error) {
	access, err := s.access.Project(actor, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanUpdateProject(actor, access) {
		return nil, ErrForbidden
	}

	project, err := s.find(projectID)
	if err != nil {
		return nil, err
	}

	if err := applyProjectFields(project, input.Title, input.Description); err != nil {
		return nil, err
	}
	if input.TimelineStatus != nil {
		project.TimelineStatus = *input.TimelineStatus
	}
	if input.BudgetStatus != nil {
		project.BudgetStatus = *input.BudgetStatus
	}

	if err := s.projectRepo.Update(project, input.UpdatedAt); err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleRecord):
			return nil, ErrProjectConflict
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return s.detail(actor, access, project)
}

// DeleteProject deletes a project and everything it contains
func (s *ProjectService) DeleteProject(actor policy.Actor, projectID uint64) error {
	access, err := s.access.Project(actor, projectID)
	if err != nil {
		return err
	}
	if !policy.CanDeleteProject(actor, access) {
		return ErrForbidden
	}

	if err := s.projectRepo.Delete(projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// SetArchived archives or unarchives a project
func (s *ProjectService) SetArchived(actor policy.Actor, projectID uint64, archived bool) (*ProjectDetail, error) {
	access, err := s.access.Project(actor, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanArchiveProject(actor, access) {
		return nil, ErrForbidden
	}

	project, err := s.find(projectID)
	if err != nil {
		return nil, err
	}

	if project.IsArchived != archived {
		project.IsArchived = archived
		if err := s.projectRepo.Update(project, nil); err != nil {
			return nil, fmt.Errorf("failed to update project: %w", err)
		}
	}

	return s.detail(actor, access, project)
}

// DuplicateProject copies a project's structure into a new project owned by the actor
func (s *ProjectService) DuplicateProject(actor policy.Actor, projectID uint64) (*ProjectDetail, error) {
	if _, err := s.access.ViewableProject(actor, projectID); err != nil {
		return nil, err
	}
	if !policy.CanCreateProject(actor) {
		return nil, ErrForbidden
	}

	source, err := s.find(projectID)
	if err != nil {
		return nil, err
	}

	copyProject := &models.Project{
		Title:          truncateRunes(source.Title+" (Copy)", constants.MaxProjectTitle),
		Description:    source.Description,
		InstructorID:   actor.UserID,
		TimelineStatus: source.TimelineStatus,
		BudgetStatus:   source.BudgetStatus,
	}

	if err := s.projectRepo.Duplicate(source.ID, copyProject); err != nil {
		return nil, fmt.Errorf("failed to duplicate project: %w", err)
	}

	return s.GetProject(actor, copyProject.ID)
}

// ListMembers lists the members of a project the actor can view
func (s *ProjectService) ListMembers(actor policy.Actor, projectID uint64) ([]models.ProjectMember, error) {
	if _, err := s.access.ViewableProject(actor, projectID); err != nil {
		return nil, err
	}

	members, err := s.projectRepo.ListMembers(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// AddMember adds a user to a project with an editor or viewer role
func (s *ProjectService) AddMember(actor policy.Actor, projectID, userID uint64, role models.MemberRole) (*models.ProjectMember, error) {
	access, err := s.access.Project(actor, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageMembers(actor, access) {
		return nil, ErrForbidden
	}
	if !role.Assignable() {
		return nil, invalid("role", "role must be editor or viewer")
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("user_id", "the selected user does not exist")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.ID == access.OwnerID {
		return nil, invalid("user_id", "the project owner cannot be added as a member")
	}

	if _, err := s.projectRepo.FindMember(projectID, userID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		JoinedAt:  s.now(),
	}
	if err := s.projectRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	member.User = *user
	return member, nil
}

// UpdateMemberRole changes the role of an existing member
func (s *ProjectService) UpdateMemberRole(actor policy.Actor, projectID, userID uint64, role models.MemberRole) (*models.ProjectMember, error) {
	access, err := s.access.Project(actor, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageMembers(actor, access) {
		return nil, ErrForbidden
	}
	if !role.Assignable() {
		return nil, invalid("role", "role must be editor or viewer")
	}

	member, err := s.projectRepo.FindMember(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}

	if err := s.projectRepo.UpdateMemberRole(projectID, userID, role); err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	member.Role = role
	return member, nil
}

// RemoveMember removes a member from a project
func (s *ProjectService) RemoveMember(actor policy.Actor, projectID, userID uint64) error {
	access, err := s.access.Project(actor, projectID)
	if err != nil {
		return err
	}
	if !policy.CanManageMembers(actor, access) {
		return ErrForbidden
	}

	if err := s.projectRepo.RemoveMember(projectID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

func (s *ProjectService) find(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID, "Instructor")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

func (s *ProjectService) detail(actor policy.Actor, access policy.ProjectAccess, project *models.Project) (*ProjectDetail, error) {
	stats, err := s.projectRepo.TaskStats(project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count project tasks: %w", err)
	}

	members, err := s.projectRepo.CountMembers(project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count project members: %w", err)
	}

	return &ProjectDetail{
		Project:      *project,
		Tasks:        stats,
		TotalMembers: members,
		Permissions:  policy.ProjectPermissions(actor, access),
	}, nil
}

func applyProjectFields(project *models.Project, title, description *string) error {
	if title != nil {
		t := strings.TrimSpace(*title)
		if t == "" {
			return invalid("title", "title is required")
		}
		if utf8.RuneCountInString(t) > constants.MaxProjectTitle {
			return invalid("title", fmt.Sprintf("title may not be greater than %d characters", constants.MaxProjectTitle))
		}
		project.Title = t
	}
	if description != nil {
		if utf8.RuneCountInString(*description) > constants.MaxProjectDescription {
			return invalid("description", fmt.Sprintf("description may not be greater than %d characters", constants.MaxProjectDescription))
		}
		project.Description = *description
	}
	return nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
