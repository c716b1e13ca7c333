package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/kanban-api/internal/activity"
	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/policy"
	"github.com/yukikurage/kanban-api/internal/repository"
)

type failingActivityRepo struct {
	repository.ActivityRepository
	err error
}

func (r failingActivityRepo) Create(*models.Activity) error {
	return r.err
}

type recordingPublisher struct {
	published []models.Activity
}

func (p *recordingPublisher) PublishActivity(a models.Activity) {
	p.published = append(p.published, a)
}

func TestActivityService_Record_Publishes(t *testing.T) {
	f := newFixture(t)
	publisher := &recordingPublisher{}
	f.activities.publisher = publisher

	taskID := uint64(5)
	f.activities.Record(f.owner, ActivityEntry{
		ProjectID: f.project.ID,
		TaskID:    &taskID,
		Type:      activity.TaskCreated,
		Subject:   activity.Task(taskID),
		Data:      activity.Data{"title": "Plan"},
	})

	require.Len(t, publisher.published, 1)
	published := publisher.published[0]
	assert.Equal(t, "task.created", published.Type)
	assert.Equal(t, "owner", published.User.Name)
	assert.NotZero(t, published.ID)

	list, err := f.activities.ListForProject(f.owner, f.project.ID, "", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Plan", list[0].Data["title"])
}

func TestActivityService_Record_FailureIsSwallowed(t *testing.T) {
	publisher := &recordingPublisher{}
	service := NewActivityService(failingActivityRepo{err: errors.New("write failed")}, nil, publisher)

	assert.NotPanics(t, func() {
		service.Record(policy.Actor{UserID: 1}, ActivityEntry{
			ProjectID: 1,
			Type:      activity.CommentCreated,
			Subject:   activity.Comment(3),
		})
	})
	assert.Empty(t, publisher.published)

	var nilService *ActivityService
	assert.NotPanics(t, func() {
		nilService.Record(policy.Actor{UserID: 1}, ActivityEntry{})
	})
}

func TestActivityService_ListForProject_Forbidden(t *testing.T) {
	f := newFixture(t)
	outsider := f.addUser(t, "outsider", "")

	_, err := f.activities.ListForProject(outsider, f.project.ID, "", 10)
	assert.ErrorIs(t, err, ErrForbidden)
}
