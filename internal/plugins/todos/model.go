// Package todos implements the todo list: CRUD over the todos table, the
// filter-to-query compiler behind the list endpoint, substring search and
// JSON/CSV export. Tag associations are written here (inside the same
// transaction as the todo row) and read through the tags widget.
package todos

import (
	"time"

	"github.com/keyxmakerx/tasktags/internal/widgets/tags"
)

// Priority is the urgency of a todo.
type Priority string

// Supported priorities. The migrations constrain the column to this set.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the supported priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Todo is a single item on the list. Tags is resolved after the row is
// read and is always ordered by tag name.
type Todo struct {
	ID        int64      `db:"id" json:"id"`
	Title     string     `db:"title" json:"title"`
	Content   *string    `db:"content" json:"content"`
	Priority  Priority   `db:"priority" json:"priority"`
	Completed bool       `db:"completed" json:"completed"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
	Tags      []tags.Tag `db:"-" json:"tags"`
}

// TodoFilter selects todos for the list endpoint. Every field is optional;
// set fields combine with AND, TagIDs match any-of.
type TodoFilter struct {
	Priority  *Priority
	Completed *bool
	Search    string
	TagIDs    []int64
}

// MaxPageSize bounds ListOptions.PageSize.
const MaxPageSize = 100

// ListOptions holds optional pagination for list queries. A zero PageSize
// returns every match.
type ListOptions struct {
	Page     int
	PageSize int
}

// Offset returns the SQL OFFSET value for the current page.
func (o ListOptions) Offset() int {
	if o.Page < 1 {
		o.Page = 1
	}
	return (o.Page - 1) * o.PageSize
}

// --- Request inputs (produced by request.go from JSON payloads) ---

// CreateTodoInput holds a validated todo creation request.
type CreateTodoInput struct {
	Title     string   `json:"title" validate:"required,max=255"`
	Content   *string  `json:"content" validate:"omitnil,max=5000"`
	Priority  Priority `json:"priority" validate:"oneof=low medium high"`
	Completed bool     `json:"completed"`
	TagIDs    []int64  `json:"tagIds" validate:"dive,gt=0"`
}

// UpdateTodoInput holds a validated partial update. Nil fields are left
// unchanged. ClearContent removes the content; ReplaceTags replaces the
// association set with TagIDs (which may be empty).
type UpdateTodoInput struct {
	Title        *string   `json:"title" validate:"omitnil,required,max=255"`
	Content      *string   `json:"content" validate:"omitnil,max=5000"`
	ClearContent bool      `json:"-"`
	Priority     *Priority `json:"priority" validate:"omitnil,oneof=low medium high"`
	Completed    *bool     `json:"completed"`
	TagIDs       []int64   `json:"tagIds" validate:"dive,gt=0"`
	ReplaceTags  bool      `json:"-"`
}
