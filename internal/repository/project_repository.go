package repository

import (
	"errors"
	"time"

	"github.com/yukikurage/kanban-api/internal/database"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/policy"
	"github.com/yukikurage/kanban-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

var projectSortColumns = map[string]string{
	"updated_at": "projects.updated_at",
	"created_at": "projects.created_at",
	"title":      "projects.title",
}

// Create creates a new project
func (r *GormProjectRepository) Create(project *models.Project) error {
	return r.db.Omit(clause.Associations).Create(project).Error
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// Access resolves ownership and the user's membership for a project
func (r *GormProjectRepository) Access(projectID, userID uint64) (policy.ProjectAccess, error) {
	var project models.Project
	if err := r.db.Select("id", "instructor_id").First(&project, projectID).Error; err != nil {
		return policy.ProjectAccess{}, err
	}

	access := policy.ProjectAccess{ProjectID: project.ID, OwnerID: project.InstructorID}

	member, err := r.FindMember(projectID, userID)
	switch {
	case err == nil:
		access.MemberRole = member.Role
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return policy.ProjectAccess{}, err
	}

	return access, nil
}

// VisibleIDs lists projects the user owns or belongs to
func (r *GormProjectRepository) VisibleIDs(userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.Model(&models.Project{}).
		Where("instructor_id = ? OR id IN (?)", userID, r.memberSubQuery(userID)).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *GormProjectRepository) memberSubQuery(userID uint64) *gorm.DB {
	return r.db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", userID)
}

// List retrieves projects visible under the filter with pagination
func (r *GormProjectRepository) List(filter ProjectFilter) ([]models.Project, int64, error) {
	var projects []models.Project

	query := r.db.Model(&models.Project{})

	switch {
	case filter.OwnedOnly:
		query = query.Where("projects.instructor_id = ?", filter.UserID)
	case filter.Member:
		query = query.Where("projects.id IN (?)", r.memberSubQuery(filter.UserID))
	case !filter.AllUsers:
		query = query.Where("projects.instructor_id = ? OR projects.id IN (?)", filter.UserID, r.memberSubQuery(filter.UserID))
	}

	if filter.Archived != nil {
		query = query.Where("projects.is_archived = ?", *filter.Archived)
	}
	if filter.Timeline != nil {
		query = query.Where("projects.timeline_status = ?", *filter.Timeline)
	}
	if filter.Search != "" {
		query = query.Where("projects.title LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortColumn, ok := projectSortColumns[filter.SortBy]
	if !ok {
		sortColumn = projectSortColumns["updated_at"]
	}
	listQuery := query.Order(clause.OrderByColumn{
		Column: clause.Column{Name: sortColumn, Raw: true},
		Desc:   filter.SortDesc,
	})

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	if err := listQuery.Preload("Instructor").Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// Update saves a project, optionally guarded by the last seen updated_at
func (r *GormProjectRepository) Update(project *models.Project, expectedUpdatedAt *time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var current models.Project
		query := tx.Select("id", "updated_at")
		if database.SupportsRowLocks(tx) {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.First(&current, project.ID).Error; err != nil {
			return err
		}

		if expectedUpdatedAt != nil && !sameInstant(current.UpdatedAt, *expectedUpdatedAt) {
			return ErrStaleRecord
		}

		return tx.Omit(clause.Associations).Save(project).Error
	})
}

// sameInstant compares timestamps at millisecond precision, the coarsest
// precision the supported databases round-trip.
func sameInstant(a, b time.Time) bool {
	return a.Truncate(time.Millisecond).Equal(b.Truncate(time.Millisecond))
}

// Delete deletes a project and all related data in a transaction
func (r *GormProjectRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		boardIDs := tx.Model(&models.Board{}).Select("id").Where("project_id = ?", id)
		columnIDs := tx.Model(&models.Column{}).Select("id").Where("board_id IN (?)", boardIDs)

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

		if err := tx.Where("board_id IN (?)", boardIDs).Delete(&models.Column{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Board{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Label{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Activity{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Project{}, id).Error
	})
}

// deleteTaskChildren removes rows that hang off the given tasks.
func deleteTaskChildren(tx *gorm.DB, taskIDs []uint64) error {
	if len(taskIDs) == 0 {
		return nil
	}
	if err := tx.Exec("DELETE FROM task_labels WHERE task_id IN ?", taskIDs).Error; err != nil {
		return err
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Subtask{}).Error; err != nil {
		return err
	}
	return tx.Where("task_id IN ?", taskIDs).Delete(&models.Comment{}).Error
}

// Duplicate copies boards, columns and labels of source into target
func (r *GormProjectRepository) Duplicate(sourceID uint64, target *models.Project) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var boards []models.Board
		err := tx.Where("project_id = ?", sourceID).
			Preload("Columns", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC")
			}).
			Order("id ASC").
			Find(&boards).Error
		if err != nil {
			return err
		}

		var labels []models.Label
		if err := tx.Where("project_id = ?", sourceID).Order("id ASC").Find(&labels).Error; err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(target).Error; err != nil {
			return err
		}

		for _, b := range boards {
			board := models.Board{ProjectID: target.ID, Title: b.Title}
			if err := tx.Omit(clause.Associations).Create(&board).Error; err != nil {
				return err
			}
			for _, c := range b.Columns {
				column := models.Column{BoardID: board.ID, Title: c.Title, Position: c.Position, WipLimit: c.WipLimit}
				if err := tx.Omit(clause.Associations).Create(&column).Error; err != nil {
					return err
				}
			}
		}

		for _, l := range labels {
			label := models.Label{ProjectID: target.ID, Name: l.Name, Color: l.Color}
			if err := tx.Create(&label).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// TaskStats counts all and completed tasks of a project
func (r *GormProjectRepository) TaskStats(projectID uint64) (TaskStats, error) {
	var stats TaskStats

	base := func() *gorm.DB {
		return r.db.Model(&models.Task{}).
			Joins("JOIN columns ON columns.id = tasks.column_id").
			Joins("JOIN boards ON boards.id = columns.board_id").
			Where("boards.project_id = ?", projectID)
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := base().Where("columns.title IN ?", models.TerminalColumnTitles).Count(&stats.Completed).Error; err != nil {
		return stats, err
	}

	return stats, nil
}

// CountMembers counts membership rows of a project
func (r *GormProjectRepository) CountMembers(projectID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.ProjectMember{}).Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}

// FindMember finds a specific project member
func (r *GormProjectRepository) FindMember(projectID, userID uint64) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a project
func (r *GormProjectRepository) ListMembers(projectID uint64) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	err := r.db.Preload("User").
		Where("project_id = ?", projectID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

// AddMember adds a member to a project
func (r *GormProjectRepository) AddMember(member *models.ProjectMember) error {
	return r.db.Omit(clause.Associations).Create(member).Error
}

// UpdateMemberRole changes a member's role
func (r *GormProjectRepository) UpdateMemberRole(projectID, userID uint64, role models.MemberRole) error {
	return r.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Update("role", role).Error
}

// RemoveMember removes a member from a project
func (r *GormProjectRepository) RemoveMember(projectID, userID uint64) error {
	result := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
