package models

import "time"

type Board struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	ProjectID uint64    `gorm:"not null;index" json:"project_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Project Project  `gorm:"foreignKey:ProjectID" json:"-"`
	Columns []Column `gorm:"foreignKey:BoardID" json:"columns,omitempty"`
}

// Column is a workflow stage. A WipLimit of 0 means unlimited.
type Column struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	BoardID   uint64    `gorm:"not null;index" json:"board_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	WipLimit  int       `gorm:"not null;default:0" json:"wip_limit"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Board Board  `gorm:"foreignKey:BoardID" json:"-"`
	Tasks []Task `gorm:"foreignKey:ColumnID" json:"tasks,omitempty"`
}

// DefaultColumnTitles are seeded, in order, on every new board.
var DefaultColumnTitles = []string{"Backlog", "To Do", "In Progress", "Review", "Completed"}

// TerminalColumnTitles mark columns whose tasks count as finished.
var TerminalColumnTitles = []string{"Completed", "Done", "Archived"}

// IsTerminal reports whether tasks in this column are considered finished.
func (c Column) IsTerminal() bool {
	for _, t := range TerminalColumnTitles {
		if c.Title == t {
			return true
		}
	}
	return false
}

// HasWipLimit reports whether the column caps its task count.
func (c Column) HasWipLimit() bool {
	return c.WipLimit > 0
}
