package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		typ  Type
		user string
		data Data
		want string
	}{
		{TaskCreated, "Ana", Data{"title": "Write docs"}, `Ana created task "Write docs"`},
		{TaskCreated, "Ana", nil, `Ana created task "Untitled"`},
		{TaskUpdated, "Ana", nil, "Ana updated task"},
		{TaskMoved, "Ana", Data{"from_column": "To Do", "to_column": "Review"}, "Ana moved task from To Do to Review"},
		{TaskMoved, "Ana", Data{"to_column": "Review"}, "Ana moved task from unknown to Review"},
		{TaskAssigned, "Ana", Data{}, "Ana assigned task to someone"},
		{TaskAssigned, "Ana", Data{"assignee_name": "Bo"}, "Ana assigned task to Bo"},
		{TaskDueDateChanged, "Ana", nil, "Ana changed due date"},
		{TaskDeleted, "Ana", Data{"title": "Old"}, `Ana deleted task "Old"`},
		{SubtaskCreated, "Ana", Data{"title": "Step"}, `Ana added subtask "Step"`},
		{SubtaskCompleted, "Ana", Data{"title": "Step"}, `Ana completed subtask "Step"`},
		{SubtaskUncompleted, "Ana", nil, `Ana uncompleted subtask "Untitled"`},
		{CommentCreated, "Ana", Data{"excerpt": "looks good"}, `Ana commented: "looks good"`},
		{CommentCreated, "Ana", nil, `Ana commented: "..."`},
		{LabelAssigned, "Ana", Data{"label_name": "bug"}, `Ana added label "bug"`},
		{LabelRemoved, "Ana", nil, `Ana removed label "unknown"`},
		{Type("project.renamed"), "Ana", nil, "Ana performed an action"},
		{TaskUpdated, "", nil, "Someone updated task"},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.typ, tt.user, tt.data))
		})
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("  short ", 50))
	assert.Equal(t, "abc...", Excerpt("abcdef", 3))
	assert.Equal(t, "héé...", Excerpt("hééllo", 3))
}

func TestAgo(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "3 minutes ago", Ago(now.Add(-3*time.Minute), now))
}
