// Package activity defines the audit event vocabulary and how events are
// rendered into human-readable feed lines.
package activity

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type Type string

const (
	TaskCreated        Type = "task.created"
	TaskUpdated        Type = "task.updated"
	TaskMoved          Type = "task.moved"
	TaskAssigned       Type = "task.assigned"
	TaskDueDateChanged Type = "task.due_date_changed"
	TaskDeleted        Type = "task.deleted"
	SubtaskCreated     Type = "subtask.created"
	SubtaskCompleted   Type = "subtask.completed"
	SubtaskUncompleted Type = "subtask.uncompleted"
	CommentCreated     Type = "comment.created"
	LabelAssigned      Type = "label.assigned"
	LabelRemoved       Type = "label.removed"
)

type SubjectKind string

const (
	SubjectTask    SubjectKind = "task"
	SubjectComment SubjectKind = "comment"
	SubjectProject SubjectKind = "project"
	SubjectLabel   SubjectKind = "label"
	SubjectSubtask SubjectKind = "subtask"
)

// Subject identifies the entity an activity refers to.
type Subject struct {
	Kind SubjectKind
	ID   uint64
}

func Task(id uint64) Subject    { return Subject{Kind: SubjectTask, ID: id} }
func Comment(id uint64) Subject { return Subject{Kind: SubjectComment, ID: id} }
func Project(id uint64) Subject { return Subject{Kind: SubjectProject, ID: id} }
func Label(id uint64) Subject   { return Subject{Kind: SubjectLabel, ID: id} }
func Subtask(id uint64) Subject { return Subject{Kind: SubjectSubtask, ID: id} }

// Data is the free-form payload stored with an activity.
type Data map[string]interface{}

// UnknownActor is used when the acting user cannot be resolved.
const UnknownActor = "Someone"

type field struct {
	key      string
	fallback string
}

type template struct {
	format string
	fields []field
}

var templates = map[Type]template{
	TaskCreated:        {`%s created task "%s"`, []field{{"title", "Untitled"}}},
	TaskUpdated:        {`%s updated task`, nil},
	TaskMoved:          {`%s moved task from %s to %s`, []field{{"from_column", "unknown"}, {"to_column", "unknown"}}},
	TaskAssigned:       {`%s assigned task to %s`, []field{{"assignee_name", "someone"}}},
	TaskDueDateChanged: {`%s changed due date`, nil},
	TaskDeleted:        {`%s deleted task "%s"`, []field{{"title", "Untitled"}}},
	SubtaskCreated:     {`%s added subtask "%s"`, []field{{"title", "Untitled"}}},
	SubtaskCompleted:   {`%s completed subtask "%s"`, []field{{"title", "Untitled"}}},
	SubtaskUncompleted: {`%s uncompleted subtask "%s"`, []field{{"title", "Untitled"}}},
	CommentCreated:     {`%s commented: "%s"`, []field{{"excerpt", "..."}}},
	LabelAssigned:      {`%s added label "%s"`, []field{{"label_name", "unknown"}}},
	LabelRemoved:       {`%s removed label "%s"`, []field{{"label_name", "unknown"}}},
}

// Message renders the feed line for an activity of type t.
func Message(t Type, userName string, data Data) string {
	if userName == "" {
		userName = UnknownActor
	}

	tpl, ok := templates[t]
	if !ok {
		return userName + " performed an action"
	}

	args := make([]interface{}, 0, len(tpl.fields)+1)
	args = append(args, userName)
	for _, f := range tpl.fields {
		args = append(args, lookup(data, f))
	}
	return fmt.Sprintf(tpl.format, args...)
}

func lookup(data Data, f field) string {
	v, ok := data[f.key]
	if !ok || v == nil {
		return f.fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Excerpt shortens s to at most n runes, appending "..." when it was cut.
func Excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// Ago renders t relative to now, e.g. "3 minutes ago".
func Ago(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}
