package services

import (
	"log/slog"
	"time"

	"github.com/yukikurage/kanban-api/internal/activity"
	"github.com/yukikurage/kanban-api/internal/constants"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/policy"
	"github.com/yukikurage/kanban-api/internal/repository"
	"gorm.io/datatypes"
)

// ActivityPublisher fans recorded activities out to live listeners.
type ActivityPublisher interface {
	PublishActivity(a models.Activity)
}

// ActivityEntry describes one event to record.
type ActivityEntry struct {
	ProjectID uint64
	TaskID    *uint64
	Type      activity.Type
	Subject   activity.Subject
	Data      activity.Data
}

// ActivityService writes and reads the activity log. Recording is
// best-effort: it runs after the primary change committed and its failures
// are logged, never returned.
type ActivityService struct {
	activityRepo repository.ActivityRepository
	access       *AccessService
	publisher    ActivityPublisher
	now          func() time.Time
}

// NewActivityService creates a new ActivityService. publisher may be nil.
func NewActivityService(activityRepo repository.ActivityRepository, access *AccessService, publisher ActivityPublisher) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		access:       access,
		publisher:    publisher,
		now:          time.Now,
	}
}

// Record appends an activity on behalf of actor.
func (s *ActivityService) Record(actor policy.Actor, entry ActivityEntry) {
	if s == nil {
		return
	}

	projectID := entry.ProjectID
	a := models.Activity{
		UserID:      actor.UserID,
		ProjectID:   &projectID,
		TaskID:      entry.TaskID,
		Type:        string(entry.Type),
		SubjectType: string(entry.Subject.Kind),
		SubjectID:   entry.Subject.ID,
		Data:        datatypes.JSONMap(entry.Data),
		CreatedAt:   s.now(),
	}

	if err := s.activityRepo.Create(&a); err != nil {
		slog.Warn("failed to record activity",
			slog.String("type", a.Type),
			slog.Uint64("project_id", projectID),
			slog.String("error", err.Error()),
		)
		return
	}

	if s.publisher != nil {
		a.User = models.User{ID: actor.UserID, Name: actor.Name, Role: actor.Role}
		s.publisher.PublishActivity(a)
	}
}

// ListForTask returns the latest activities of a task
func (s *ActivityService) ListForTask(actor policy.Actor, taskID uint64, limit int) ([]models.Activity, error) {
	if _, _, err := s.access.ViewableTask(actor, taskID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > constants.TaskActivityLimit {
		limit = constants.TaskActivityLimit
	}

	return s.activityRepo.List(repository.ActivityFilter{TaskID: &taskID, Limit: limit})
}

// ListForProject returns the latest activities of a project, optionally of one type
func (s *ActivityService) ListForProject(actor policy.Actor, projectID uint64, activityType string, limit int) ([]models.Activity, error) {
	if _, err := s.access.ViewableProject(actor, projectID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > constants.ProjectActivityLimit {
		limit = constants.ProjectActivityLimit
	}

	return s.activityRepo.List(repository.ActivityFilter{ProjectID: &projectID, Type: activityType, Limit: limit})
}

// Now returns the clock used for relative times in the feed
func (s *ActivityService) Now() time.Time {
	return s.now()
}
