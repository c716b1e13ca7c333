package services

import (
	"context"
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

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// taskDetailRelations are loaded whenever a single task is returned.
var taskDetailRelations = []string{"Assignee", "Labels", "Subtasks"}

// TaskService handles task business logic, including placement of tasks
// within and across columns.
type TaskService struct {
	taskRepo   repository.TaskRepository
	boardRepo  repository.BoardRepository
	labelRepo  repository.LabelRepository
	userRepo   repository.UserRepository
	access     *AccessService
	activities *ActivityService
	aiService  *AIService
	now        func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	boardRepo repository.BoardRepository,
	labelRepo repository.LabelRepository,
	userRepo repository.UserRepository,
	access *AccessService,
	activities *ActivityService,
	aiService *AIService,
) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		boardRepo:  boardRepo,
		labelRepo:  labelRepo,
		userRepo:   userRepo,
		access:     access,
		activities: activities,
		aiService:  aiService,
		now:        time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	ColumnID    *uint64
	AssigneeID  *uint64
	Priority    *models.TaskPriority
	LabelIDs    []uint64
	Search      string
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	DueRange    string
	Page        int
	PageSize    int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ColumnID    uint64
	Title       string
	Description string
	AssigneeID  *uint64
	Priority    models.TaskPriority
	DueDate     *time.Time
}

// UpdateTaskInput represents input for updating a task. A non-nil ColumnID
// moves the task after the field update.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	AssigneeID    *uint64
	ClearAssignee bool
	Priority      *models.TaskPriority
	DueDate       *time.Time
	ClearDueDate  bool
	ColumnID      *uint64
	Position      *int
}

// MoveTaskInput is the requested placement of a task
type MoveTaskInput struct {
	ColumnID uint64
	Position int
}

// TaskPermissions tells the client which task actions it may offer
type TaskPermissions struct {
	CanUpdate bool `json:"can_update"`
	CanDelete bool `json:"can_delete"`
}

// Now returns the service clock reading used for derived fields.
func (s *TaskService) Now() time.Time {
	return s.now()
}

// ListTasks returns the tasks visible to the actor matching the filters
func (s *TaskService) ListTasks(actor policy.Actor, input ListTasksInput) ([]models.Task, int64, error) {
	projectIDs, all, err := s.access.VisibleProjectIDs(actor)
	if err != nil {
		return nil, 0, err
	}

	filter := repository.TaskFilter{
		ProjectIDs:  projectIDs,
		AllProjects: all,
		ColumnID:    input.ColumnID,
		AssigneeID:  input.AssigneeID,
		Priority:    input.Priority,
		LabelIDs:    input.LabelIDs,
		Search:      strings.TrimSpace(input.Search),
		DueDateFrom: input.DueDateFrom,
		DueDateTo:   input.DueDateTo,
		Page:        input.Page,
		PageSize:    input.PageSize,
	}

	today := startOfDay(s.now())
	switch input.DueRange {
	case "overdue":
		filter.OverdueAt = &today
	case "today":
		filter.DueDateFrom = &today
		filter.DueDateTo = &today
	case "week":
		weekEnd := today.AddDate(0, 0, 7)
		filter.DueDateFrom = &today
		filter.DueDateTo = &weekEnd
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with its subtasks, labels and assignee
func (s *TaskService) GetTask(actor policy.Actor, taskID uint64) (*models.Task, TaskPermissions, error) {
	task, access, err := s.access.Task(actor, taskID, taskDetailRelations...)
	if err != nil {
		return nil, TaskPermissions{}, err
	}
	if !policy.CanViewTask(actor, access) {
		return nil, TaskPermissions{}, ErrForbidden
	}

	return task, TaskPermissions{
		CanUpdate: policy.CanUpdateTask(actor, access),
		CanDelete: policy.CanDeleteTask(actor, access, task.AssigneeID),
	}, nil
}

// CreateTask appends a new task to the end of a column
func (s *TaskService) CreateTask(actor policy.Actor, input CreateTaskInput) (*models.Task, error) {
	column, access, err := s.access.Column(actor, input.ColumnID)
	if err != nil {
		return nil, err
	}
	if !policy.CanCreateTask(actor, access) {
		return nil, ErrForbidden
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid("title", "title is required")
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, invalid("priority", "priority must be one of low, medium, high, critical")
	}

	if input.AssigneeID != nil {
		if _, err := s.ensureAssignable(access, *input.AssigneeID); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		ColumnID:    column.ID,
		Title:       title,
		Description: input.Description,
		AssigneeID:  input.AssigneeID,
		Priority:    priority,
		DueDate:     truncateDate(input.DueDate),
	}

	if err := s.taskRepo.Append(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.activities.Record(actor, ActivityEntry{
		ProjectID: access.ProjectID,
		TaskID:    &task.ID,
		Type:      activity.TaskCreated,
		Subject:   activity.Task(task.ID),
		Data:      activity.Data{"title": task.Title},
	})

	return s.reload(task.ID)
}

// UpdateTask updates task fields and, when requested, moves the task
func (s *TaskService) UpdateTask(actor policy.Actor, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, access, err := s.access.Task(actor, taskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanUpdateTask(actor, access) {
		return nil, ErrForbidden
	}

	fieldsChanged := false
	var newAssignee *models.User
	assigneeChanged := false
	dueDateChanged := false

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, invalid("title", "title cannot be empty")
		}
		if title != task.Title {
			task.Title = title
			fieldsChanged = true
		}
	}
	if input.Description != nil && *input.Description != task.Description {
		task.Description = *input.Description
		fieldsChanged = true
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, invalid("priority", "priority must be one of low, medium, high, critical")
		}
		if *input.Priority != task.Priority {
			task.Priority = *input.Priority
			fieldsChanged = true
		}
	}
	if input.ClearAssignee {
		if task.AssigneeID != nil {
			task.AssigneeID = nil
			fieldsChanged = true
		}
	} else if input.AssigneeID != nil && !sameID(task.AssigneeID, input.AssigneeID) {
		user, err := s.ensureAssignable(access, *input.AssigneeID)
		if err != nil {
			return nil, err
		}
		id := *input.AssigneeID
		task.AssigneeID = &id
		newAssignee = user
		assigneeChanged = true
	}
	if input.ClearDueDate {
		if task.DueDate != nil {
			task.DueDate = nil
			dueDateChanged = true
		}
	} else if input.DueDate != nil {
		due := truncateDate(input.DueDate)
		if task.DueDate == nil || !task.DueDate.Equal(*due) {
			task.DueDate = due
			dueDateChanged = true
		}
	}

	changed := fieldsChanged || assigneeChanged || dueDateChanged
	var move *placement

	if input.ColumnID != nil {
		target, err := s.targetColumn(access, *input.ColumnID)
		if err != nil {
			return nil, err
		}
		err = s.taskRepo.Transaction(func(repo repository.TaskRepository) error {
			move, err = place(repo, task, target.ID, input.Position)
			if err != nil {
				return err
			}
			if changed {
				return repo.Update(task)
			}
			return nil
		})
		if err != nil {
			return nil, moveError(err)
		}
	} else if changed {
		if err := s.taskRepo.Update(task); err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
	}

	if fieldsChanged {
		s.recordTask(actor, access, task, activity.TaskUpdated, nil)
	}
	if assigneeChanged {
		s.recordTask(actor, access, task, activity.TaskAssigned, activity.Data{"assignee_name": newAssignee.Name})
	}
	if dueDateChanged {
		data := activity.Data{"due_date": nil}
		if task.DueDate != nil {
			data["due_date"] = task.DueDate.Format(time.DateOnly)
		}
		s.recordTask(actor, access, task, activity.TaskDueDateChanged, data)
	}
	s.recordMove(actor, access, task, move)

	return s.reload(task.ID)
}

// DeleteTask deletes a task and closes the gap in its column
func (s *TaskService) DeleteTask(actor policy.Actor, taskID uint64) error {
	task, access, err := s.access.Task(actor, taskID)
	if err != nil {
		return err
	}
	if !policy.CanDeleteTask(actor, access, task.AssigneeID) {
		return ErrForbidden
	}

	if err := s.taskRepo.Delete(task.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.recordTask(actor, access, task, activity.TaskDeleted, activity.Data{"title": task.Title})
	return nil
}

// MoveTask places a task at position in the target column.
//
// The capacity check, the reassignment and the renumbering of both columns
// run in one transaction with the affected column rows locked, so two
// concurrent moves into the same column cannot both pass the WIP check.
// The position is clamped to [0, number of other tasks in the column]; ties
// among existing tasks are broken by id.
func (s *TaskService) MoveTask(actor policy.Actor, taskID uint64, input MoveTaskInput) (*models.Task, error) {
	task, access, err := s.access.Task(actor, taskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanUpdateTask(actor, access) {
		return nil, ErrForbidden
	}

	target, err := s.targetColumn(access, input.ColumnID)
	if err != nil {
		return nil, err
	}

	var move *placement
	position := input.Position
	err = s.taskRepo.Transaction(func(repo repository.TaskRepository) error {
		move, err = place(repo, task, target.ID, &position)
		return err
	})
	if err != nil {
		return nil, moveError(err)
	}

	s.recordMove(actor, access, task, move)
	return s.reload(taskID)
}

// targetColumn loads the column a task is moved into and checks it belongs
// to the task's project
func (s *TaskService) targetColumn(access policy.ProjectAccess, columnID uint64) (*models.Column, error) {
	target, err := s.boardRepo.FindColumn(columnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrColumnNotFound
		}
		return nil, fmt.Errorf("failed to find column: %w", err)
	}
	if target.Board.ProjectID != access.ProjectID {
		return nil, invalid("column_id", "the target column belongs to another project")
	}
	return target, nil
}

// placement describes a completed move
type placement struct {
	from models.Column
	to   models.Column
}

func (p *placement) crossColumn() bool {
	return p != nil && p.from.ID != p.to.ID
}

// place moves task into targetID inside a transaction. A nil position keeps
// the task's slot within its own column and appends it to another column.
func place(repo repository.TaskRepository, task *models.Task, targetID uint64, position *int) (*placement, error) {
	locked := make(map[uint64]*models.Column, 2)
	for _, id := range lockOrder(task.ColumnID, targetID) {
		column, err := repo.LockColumn(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrColumnNotFound
			}
			return nil, err
		}
		locked[id] = column
	}
	target := locked[targetID]

	current, err := repo.FindByID(task.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	from := current.ColumnID
	if _, ok := locked[from]; !ok {
		// moved elsewhere since it was loaded
		source, err := repo.LockColumn(from)
		if err != nil {
			return nil, err
		}
		locked[from] = source
	}

	if from != target.ID && target.HasWipLimit() {
		count, err := repo.CountInColumn(target.ID)
		if err != nil {
			return nil, err
		}
		if count >= int64(target.WipLimit) {
			return nil, &WipLimitError{Limit: target.WipLimit, Current: count}
		}
	}

	others, err := repo.ListInColumn(target.ID, current.ID)
	if err != nil {
		return nil, err
	}

	var index int
	switch {
	case position != nil:
		index = *position
	case from == target.ID:
		index = current.Position
	default:
		index = len(others)
	}
	index = clamp(index, 0, len(others))

	ordered := make([]models.Task, 0, len(others)+1)
	ordered = append(ordered, others[:index]...)
	ordered = append(ordered, *current)
	ordered = append(ordered, others[index:]...)

	if err := repo.ApplyOrder(target.ID, ordered); err != nil {
		return nil, err
	}
	if from != target.ID {
		if err := repo.Renumber(from); err != nil {
			return nil, err
		}
	}

	return &placement{from: *locked[from], to: *target}, nil
}

// moveError passes domain errors through and wraps the rest
func moveError(err error) error {
	var wipErr *WipLimitError
	var validationErr *ValidationError
	switch {
	case errors.As(err, &wipErr), errors.As(err, &validationErr),
		errors.Is(err, ErrTaskNotFound), errors.Is(err, ErrColumnNotFound):
		return err
	}
	return fmt.Errorf("failed to move task: %w", err)
}

func (s *TaskService) recordMove(actor policy.Actor, access policy.ProjectAccess, task *models.Task, move *placement) {
	if !move.crossColumn() {
		return
	}
	s.recordTask(actor, access, task, activity.TaskMoved, activity.Data{
		"task_title":  task.Title,
		"from_column": move.from.Title,
		"to_column":   move.to.Title,
	})
}

// SyncLabels replaces the labels of a task with labelIDs
func (s *TaskService) SyncLabels(actor policy.Actor, taskID uint64, labelIDs []uint64) (*models.Task, error) {
	task, access, err := s.access.Task(actor, taskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanUpdateTask(actor, access) {
		return nil, ErrForbidden
	}

	ids := uniqueUint64(labelIDs)
	labels, err := s.labelRepo.FindInProject(access.ProjectID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	if len(labels) != len(ids) {
		return nil, invalid("label_ids", "one or more labels do not belong to this project")
	}

	added, removed, err := s.taskRepo.SyncLabels(task.ID, labels)
	if err != nil {
		return nil, fmt.Errorf("failed to sync labels: %w", err)
	}

	for _, l := range added {
		s.recordLabel(actor, access, task, activity.LabelAssigned, l)
	}
	for _, l := range removed {
		s.recordLabel(actor, access, task, activity.LabelRemoved, l)
	}

	return s.reload(task.ID)
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	ColumnID uint64
	Text     string
}

// GenerateTasks uses AI to suggest tasks for a column. Nothing is persisted.
func (s *TaskService) GenerateTasks(ctx context.Context, actor policy.Actor, input GenerateTasksInput) ([]GeneratedTask, error) {
	_, access, err := s.access.Column(actor, input.ColumnID)
	if err != nil {
		return nil, err
	}
	if !policy.CanCreateTask(actor, access) {
		return nil, ErrForbidden
	}

	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := startOfDay(s.now())
	for _, aiTask := range aiTasks {
		if strings.TrimSpace(aiTask.Title) == "" {
			continue
		}
		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}
		if !aiTask.Priority.Valid() {
			aiTask.Priority = models.PriorityMedium
		}
		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// ensureAssignable checks that userID is the owner or a member of the project
func (s *TaskService) ensureAssignable(access policy.ProjectAccess, userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("assignee_id", "the selected assignee does not exist")
		}
		return nil, fmt.Errorf("failed to find assignee: %w", err)
	}

	if userID == access.OwnerID {
		return user, nil
	}

	assigneeAccess, err := s.access.Project(policy.Actor{UserID: userID}, access.ProjectID)
	if err != nil {
		return nil, err
	}
	if assigneeAccess.MemberRole == "" {
		return nil, invalid("assignee_id", "the assignee must be a member of the project")
	}
	return user, nil
}

func (s *TaskService) recordTask(actor policy.Actor, access policy.ProjectAccess, task *models.Task, t activity.Type, data activity.Data) {
	id := task.ID
	s.activities.Record(actor, ActivityEntry{
		ProjectID: access.ProjectID,
		TaskID:    &id,
		Type:      t,
		Subject:   activity.Task(id),
		Data:      data,
	})
}

func (s *TaskService) recordLabel(actor policy.Actor, access policy.ProjectAccess, task *models.Task, t activity.Type, label models.Label) {
	id := task.ID
	s.activities.Record(actor, ActivityEntry{
		ProjectID: access.ProjectID,
		TaskID:    &id,
		Type:      t,
		Subject:   activity.Label(label.ID),
		Data:      activity.Data{"task_id": task.ID, "label_name": label.Name},
	})
}

func (s *TaskService) reload(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, append([]string{"Column"}, taskDetailRelations...)...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}
	return task, nil
}

// lockOrder returns the distinct column ids in ascending order so that
// concurrent moves acquire row locks in the same sequence.
func lockOrder(a, b uint64) []uint64 {
	switch {
	case a == b:
		return []uint64{a}
	case a < b:
		return []uint64{a, b}
	default:
		return []uint64{b, a}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sameID(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// startOfDay returns the calendar date of t as UTC midnight, the form due
// dates are stored in.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
