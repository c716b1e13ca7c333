package services

import (
	"errors"
	"fmt"
)

// Errors shared by every service. Handlers map them onto HTTP statuses.
var (
	ErrForbidden       = errors.New("this action is unauthorized")
	ErrUserNotFound    = errors.New("user not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrBoardNotFound   = errors.New("board not found")
	ErrColumnNotFound  = errors.New("column not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrSubtaskNotFound = errors.New("subtask not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrLabelNotFound   = errors.New("label not found")
	ErrMemberNotFound  = errors.New("member not found")
)

// ValidationError reports input that is well-formed but not acceptable for
// the current state of the data.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// WipLimitError is returned when a move would push a column past its WIP
// limit. Current is the number of tasks in the column before the move.
type WipLimitError struct {
	Limit   int
	Current int64
}

func (e *WipLimitError) Error() string {
	return fmt.Sprintf("column WIP limit exceeded (%d/%d)", e.Current, e.Limit)
}
