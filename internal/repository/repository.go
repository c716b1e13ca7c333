package repository

import (
	"errors"
	"time"

	"github.com/yukikurage/kanban-api/internal/models"
	"github.com/yukikurage/kanban-api/internal/policy"
)

// ErrStaleRecord is returned when an optimistic update finds the row changed
// since the caller read it.
var ErrStaleRecord = errors.New("repository: record was modified concurrently")

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByIDs returns the users with the given IDs
	FindByIDs(ids []uint64) ([]models.User, error)

	// Search matches name or email, excluding one user
	Search(query string, excludeID uint64, limit int) ([]models.User, error)

	// UpdatePassword replaces the stored hash
	UpdatePassword(userID uint64, hash string) error
}

// TokenRepository stores bearer tokens and password reset tokens
type TokenRepository interface {
	// CreateAccessToken persists an issued token
	CreateAccessToken(token *models.AccessToken) error

	// FindActiveAccessToken finds a token that is neither revoked nor expired
	FindActiveAccessToken(id string, now time.Time) (*models.AccessToken, error)

	// TouchAccessToken records the last time a token was used
	TouchAccessToken(id string, now time.Time) error

	// RevokeAccessToken revokes one token
	RevokeAccessToken(id string, now time.Time) error

	// RevokeUserTokens revokes every token of a user
	RevokeUserTokens(userID uint64, now time.Time) error

	// SavePasswordReset upserts the reset token for an email
	SavePasswordReset(reset *models.PasswordReset) error

	// FindPasswordReset finds the reset token for an email
	FindPasswordReset(email string) (*models.PasswordReset, error)

	// DeletePasswordReset removes the reset token for an email
	DeletePasswordReset(email string) error
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	UserID    uint64
	AllUsers  bool
	Archived  *bool
	Timeline  *models.TimelineStatus
	OwnedOnly bool
	Member    bool
	Search    string
	SortBy    string
	SortDesc  bool
	Page      int
	PageSize  int
}

// TaskStats summarises the tasks of a project
type TaskStats struct {
	Total     int64
	Completed int64
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Project, error)

	// Access resolves ownership and the user's membership for a project
	Access(projectID, userID uint64) (policy.ProjectAccess, error)

	// VisibleIDs lists projects the user owns or belongs to
	VisibleIDs(userID uint64) ([]uint64, error)

	// List retrieves projects visible under the filter with pagination
	List(filter ProjectFilter) ([]models.Project, int64, error)

	// Update saves a project. When expectedUpdatedAt is set the write only
	// happens if the stored updated_at still matches it.
	Update(project *models.Project, expectedUpdatedAt *time.Time) error

	// Delete deletes a project and all related data
	Delete(id uint64) error

	// Duplicate copies boards, columns and labels of source into target
	Duplicate(sourceID uint64, target *models.Project) error

	// TaskStats counts all and completed tasks of a project
	TaskStats(projectID uint64) (TaskStats, error)

	// CountMembers counts membership rows of a project
	CountMembers(projectID uint64) (int64, error)

	// FindMember finds a specific project member
	FindMember(projectID, userID uint64) (*models.ProjectMember, error)

	// ListMembers lists all members of a project
	ListMembers(projectID uint64) ([]models.ProjectMember, error)

	// AddMember adds a member to a project
	AddMember(member *models.ProjectMember) error

	// UpdateMemberRole changes a member's role
	UpdateMemberRole(projectID, userID uint64, role models.MemberRole) error

	// RemoveMember removes a member from a project
	RemoveMember(projectID, userID uint64) error
}

// BoardRepository defines the interface for board and column data access
type BoardRepository interface {
	// CreateWithColumns creates a board and its initial columns atomically
	CreateWithColumns(board *models.Board, columns []models.Column) error

	// FindByID finds a board by ID, optionally with ordered columns
	FindByID(id uint64, withColumns bool) (*models.Board, error)

	// FindWithTasks finds a board with ordered columns and their ordered tasks
	FindWithTasks(id uint64) (*models.Board, error)

	// ListByProject lists the boards of a project with their columns
	ListByProject(projectID uint64) ([]models.Board, error)

	// Update updates a board
	Update(board *models.Board) error

	// Delete deletes a board with its columns and tasks
	Delete(id uint64) error

	// FindColumn finds a column with its board
	FindColumn(id uint64) (*models.Column, error)

	// AppendColumn creates a column after the board's last column
	AppendColumn(column *models.Column) error

	// UpdateColumn updates a column
	UpdateColumn(column *models.Column) error

	// DeleteColumn deletes an empty column
	DeleteColumn(id uint64) error

	// ReorderColumns assigns positions 1..n following columnIDs
	ReorderColumns(boardID uint64, columnIDs []uint64) error

	// CountTasks counts the tasks currently in a column
	CountTasks(columnID uint64) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectIDs  []uint64
	AllProjects bool
	ColumnID    *uint64
	AssigneeID  *uint64
	Priority    *models.TaskPriority
	LabelIDs    []uint64
	Search      string
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	OverdueAt   *time.Time
	Page        int
	PageSize    int
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Transaction runs fn with a repository bound to one database transaction
	Transaction(fn func(repo TaskRepository) error) error

	// Append creates a task at the end of its column
	Append(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update writes a task's editable fields, leaving its placement alone
	Update(task *models.Task) error

	// Delete deletes a task with its subtasks, comments and label links, and
	// closes the gap it leaves in its column
	Delete(id uint64) error

	// LockColumn loads a column, holding a row lock where the dialect supports it
	LockColumn(id uint64) (*models.Column, error)

	// ListInColumn lists a column's tasks by position, excluding one task
	ListInColumn(columnID uint64, excludeID uint64) ([]models.Task, error)

	// CountInColumn counts the tasks in a column
	CountInColumn(columnID uint64) (int64, error)

	// ApplyOrder writes column_id and positions 0..n-1 for the given tasks
	ApplyOrder(columnID uint64, ordered []models.Task) error

	// Renumber rewrites a column's positions to 0..n-1 keeping relative order
	Renumber(columnID uint64) error

	// SyncLabels replaces a task's labels and reports what changed
	SyncLabels(taskID uint64, labels []models.Label) (added, removed []models.Label, err error)
}

// SubtaskRepository defines the interface for subtask data access
type SubtaskRepository interface {
	// Append creates a subtask after the task's last subtask
	Append(subtask *models.Subtask) error

	// FindByID finds a subtask by ID
	FindByID(id uint64) (*models.Subtask, error)

	// ListByTask lists subtasks by position
	ListByTask(taskID uint64) ([]models.Subtask, error)

	// Update updates a subtask
	Update(subtask *models.Subtask) error

	// Delete deletes a subtask and renumbers its siblings
	Delete(subtask *models.Subtask) error

	// Reorder assigns positions 0..n-1 following subtaskIDs
	Reorder(taskID uint64, subtaskIDs []uint64) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create creates a new comment
	Create(comment *models.Comment) error

	// FindByID finds a comment by ID with its author
	FindByID(id uint64) (*models.Comment, error)

	// ListThreads lists top-level comments of a task with replies, newest first
	ListThreads(taskID uint64) ([]models.Comment, error)

	// Update updates a comment
	Update(comment *models.Comment) error

	// Delete deletes a comment and its replies
	Delete(id uint64) error
}

// LabelRepository defines the interface for label data access
type LabelRepository interface {
	// Create creates a new label
	Create(label *models.Label) error

	// FindByID finds a label by ID
	FindByID(id uint64) (*models.Label, error)

	// ListByProject lists a project's labels by name
	ListByProject(projectID uint64) ([]models.Label, error)

	// FindInProject returns the labels among ids that belong to the project
	FindInProject(projectID uint64, ids []uint64) ([]models.Label, error)

	// NameTaken reports whether another label of the project uses name
	NameTaken(projectID uint64, name string, excludeID uint64) (bool, error)

	// Update updates a label
	Update(label *models.Label) error

	// Delete deletes a label and detaches it from tasks
	Delete(id uint64) error
}

// ActivityFilter holds filtering options for activity feeds
type ActivityFilter struct {
	ProjectID *uint64
	TaskID    *uint64
	Type      string
	Limit     int
}

// ActivityRepository defines the interface for the activity log
type ActivityRepository interface {
	// Create appends an activity
	Create(activity *models.Activity) error

	// List returns activities matching the filter, newest first
	List(filter ActivityFilter) ([]models.Activity, error)
}

// StatsRepository answers dashboard counters for a user
type StatsRepository interface {
	// CountActiveTasks counts tasks outside terminal columns
	CountActiveTasks(projectIDs []uint64) (int64, error)

	// CountOverdueTasks counts active tasks due before the given day
	CountOverdueTasks(projectIDs []uint64, before time.Time) (int64, error)

	// CountTeamMembers counts distinct members across projects
	CountTeamMembers(projectIDs []uint64) (int64, error)
}
