package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/kanban-api/internal/constants"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/policy"
	"github.com/yukikurage/kanban-api/internal/repository"
	"gorm.io/gorm"
)

var ErrLabelNameTaken = errors.New("a label with this name already exists in the project")

var labelColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// LabelService manages project labels
type LabelService struct {
	labelRepo repository.LabelRepository
	access    *AccessService
}

// NewLabelService creates a new LabelService
func NewLabelService(labelRepo repository.LabelRepository, access *AccessService) *LabelService {
	return &LabelService{
		labelRepo: labelRepo,
		access:    access,
	}
}

// LabelInput represents input for creating or updating a label
type LabelInput struct {
	Name  *string
	Color *string
}

// ListLabels lists the labels of a project
func (s *LabelService) ListLabels(actor policy.Actor, projectID uint64) ([]models.Label, error) {
	access, err := s.access.Project(actor, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewLabels(actor, access) {
		return nil, ErrForbidden
	}

	labels, err := s.labelRepo.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return labels, nil
}

// CreateLabel creates a label in a project
func (s *LabelService) CreateLabel(actor policy.Actor, projectID uint64, input LabelInput) (*models.Label, error) {
	if err := s.manageable(actor, projectID); err != nil {
		return nil, err
	}
	if input.Name == nil {
		return nil, invalid("name", "name is required")
	}
	if input.Color == nil {
		return nil, invalid("color", "color is required")
	}

	label := &models.Label{ProjectID: projectID}
	if err := s.apply(label, input); err != nil {
		return nil, err
	}

	if err := s.labelRepo.Create(label); err != nil {
		return nil, fmt.Errorf("failed to create label: %w", err)
	}
	return label, nil
}

// UpdateLabel renames or recolors a label
func (s *LabelService) UpdateLabel(actor policy.Actor, projectID, labelID uint64, input LabelInput) (*models.Label, error) {
	if err := s.manageable(actor, projectID); err != nil {
		return nil, err
	}

	label, err := s.find(projectID, labelID)
	if err != nil {
		return nil, err
	}

	if err := s.apply(label, input); err != nil {
		return nil, err
	}

	if err := s.labelRepo.Update(label); err != nil {
		return nil, fmt.Errorf("failed to update label: %w", err)
	}
	return label, nil
}

// DeleteLabel deletes a label and detaches it from every task
func (s *LabelService) DeleteLabel(actor policy.Actor, projectID, labelID uint64) error {
	if err := s.manageable(actor, projectID); err != nil {
		return err
	}

	label, err := s.find(projectID, labelID)
	if err != nil {
		return err
	}

	if err := s.labelRepo.Delete(label.ID); err != nil {
		return fmt.Errorf("failed to delete label: %w", err)
	}
	return nil
}

func (s *LabelService) manageable(actor policy.Actor, projectID uint64) error {
	access, err := s.access.Project(actor, projectID)
	if err != nil {
		return err
	}
	if !policy.CanManageLabels(actor, access) {
		return ErrForbidden
	}
	return nil
}

func (s *LabelService) find(projectID, labelID uint64) (*models.Label, error) {
	label, err := s.labelRepo.FindByID(labelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLabelNotFound
		}
		return nil, fmt.Errorf("failed to find label: %w", err)
	}
	if label.ProjectID != projectID {
		return nil, ErrLabelNotFound
	}
	return label, nil
}

func (s *LabelService) apply(label *models.Label, input LabelInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return invalid("name", "name is required")
		}
		if utf8.RuneCountInString(name) > constants.MaxLabelName {
			return invalid("name", fmt.Sprintf("name may not be greater than %d characters", constants.MaxLabelName))
		}

		taken, err := s.labelRepo.NameTaken(label.ProjectID, name, label.ID)
		if err != nil {
			return fmt.Errorf("failed to check label name: %w", err)
		}
		if taken {
			return ErrLabelNameTaken
		}
		label.Name = name
	}

	if input.Color != nil {
		if !labelColorPattern.MatchString(*input.Color) {
			return invalid("color", "color must be a hex value like #1A2B3C")
		}
		label.Color = *input.Color
	}
	return nil
}
