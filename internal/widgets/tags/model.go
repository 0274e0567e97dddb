// Package tags implements the tags widget. Tags are global labels that can
// be attached to todos for categorization and filtering. This widget
// provides CRUD operations for tags and the read side of the many-to-many
// join table (todo_tags); the todos plugin owns writes to that table so a
// todo and its tags change in one transaction.
package tags

import "time"

// DefaultColor is applied when a tag is created without a color. Matches
// the migration default.
const DefaultColor = "#6b7280"

// Tag represents a label that can be attached to todos. Names are unique
// case-insensitively.
type Tag struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Color     string    `db:"color" json:"color"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	// UsageCount is the number of todos carrying this tag. Derived at read
	// time; nil when the query did not compute it.
	UsageCount *int `db:"usage_count" json:"usageCount,omitempty"`
}

// todoTagRow is a tag joined with the todo it is attached to. Used by the
// batch lookup.
type todoTagRow struct {
	TodoID int64 `db:"todo_id"`
	Tag
}

// --- Request inputs (produced by request.go from JSON payloads) ---

// CreateTagInput holds a validated tag creation request.
type CreateTagInput struct {
	Name  string `json:"name" validate:"required,max=50"`
	Color string `json:"color" validate:"color"`
}

// UpdateTagInput holds a validated partial tag update. Nil fields are left
// unchanged.
type UpdateTagInput struct {
	Name  *string `json:"name" validate:"omitnil,required,max=50"`
	Color *string `json:"color" validate:"omitnil,color"`
}
