package constants

import "time"

// Context and session keys
const (
	ContextKeyUserID  = "user_id"
	ContextKeySession = "session"
	ContextKeyProject = "project_access"
	SessionCookieName = "kanban_session"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 15
	MaxPageSize     = 100
	TaskPageSize    = 20
	UserSearchMax   = 50
)

// Validation limits
const (
	MinPasswordLength     = 8
	MaxProjectTitle       = 100
	MaxProjectDescription = 500
	MaxLabelName          = 50
	MinUserSearchQuery    = 2
	CommentExcerptLength  = 50
	MaxAIGeneratedTasks   = 20
)

// Activity feed limits
const (
	TaskActivityLimit    = 20
	ProjectActivityLimit = 50
)

// Timing
const (
	CommentEditWindow  = 15 * time.Minute
	PasswordResetTTL   = 60 * time.Minute
	DashboardCacheTTL  = 5 * time.Minute
	DashboardCacheSize = 1024
)
