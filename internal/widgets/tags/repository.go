package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/keyxmakerx/tasktags/internal/apperror"
	"github.com/keyxmakerx/tasktags/internal/database"
)

// TagRepository defines the data access contract for tags and the read side
// of todo-tag associations. One repository per aggregate root; all SQL
// lives here.
type TagRepository interface {
	// Create inserts a new tag. The tag's ID and CreatedAt are set on the
	// struct after insert.
	Create(ctx context.Context, tag *Tag) error

	// FindByID retrieves a single tag, including its usage count.
	FindByID(ctx context.Context, id int64) (*Tag, error)

	// FindByName retrieves a tag by name, ignoring case.
	FindByName(ctx context.Context, name string) (*Tag, error)

	// List returns every tag with its usage count, ordered by name.
	List(ctx context.Context) ([]Tag, error)

	// Update modifies an existing tag's name and color.
	Update(ctx context.Context, tag *Tag) error

	// Delete removes a tag by ID. Cascade deletes remove todo_tags rows.
	Delete(ctx context.Context, id int64) error

	// ExistingIDs returns the subset of ids that exist in the tags table.
	ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error)

	// GetTodoTagsBatch returns tags for multiple todos in a single query.
	// The result is keyed by todo ID. Useful for list views to avoid N+1.
	GetTodoTagsBatch(ctx context.Context, todoIDs []int64) (map[int64][]Tag, error)
}

// tagRepository implements TagRepository with hand-written SQL that runs
// unchanged on MariaDB and SQLite.
type tagRepository struct {
	db *sqlx.DB
}

// NewTagRepository creates a new TagRepository backed by the given database connection.
func NewTagRepository(db *sqlx.DB) TagRepository {
	return &tagRepository{db: db}
}

// selectWithUsage reads tags with the number of todos that reference them.
// Every selected column is grouped so MariaDB's ONLY_FULL_GROUP_BY accepts it.
const selectWithUsage = `SELECT t.id, t.name, t.color, t.created_at, COUNT(tt.todo_id) AS usage_count
	FROM tags t
	LEFT JOIN todo_tags tt ON tt.tag_id = t.id`

const groupWithUsage = ` GROUP BY t.id, t.name, t.color, t.created_at`

// nameKey is the uniqueness key stored in tags.name_key: the name with
// Unicode case folded.
func nameKey(name string) string {
	return strings.ToLower(name)
}

// Create inserts a new tag into the tags table and sets the auto-generated ID
// on the provided struct.
func (r *tagRepository) Create(ctx context.Context, tag *Tag) error {
	tag.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	query := `INSERT INTO tags (name, name_key, color, created_at) VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query, tag.Name, nameKey(tag.Name), tag.Color, tag.CreatedAt)
	if err != nil {
		if database.IsDuplicateEntry(err) {
			return apperror.NewConflict("a tag with this name already exists")
		}
		return fmt.Errorf("inserting tag: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	tag.ID = id

	zero := 0
	tag.UsageCount = &zero
	return nil
}

// FindByID retrieves a single tag by its primary key.
func (r *tagRepository) FindByID(ctx context.Context, id int64) (*Tag, error) {
	query := selectWithUsage + ` WHERE t.id = ?` + groupWithUsage

	var t Tag
	err := r.db.GetContext(ctx, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("tag not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying tag by id: %w", err)
	}
	return &t, nil
}

// FindByName retrieves a tag by name. The comparison ignores case so
// "Work" and "work" are the same tag.
func (r *tagRepository) FindByName(ctx context.Context, name string) (*Tag, error) {
	query := `SELECT id, name, color, created_at FROM tags WHERE name_key = ?`

	var t Tag
	err := r.db.GetContext(ctx, &t, query, nameKey(name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("tag not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying tag by name: %w", err)
	}
	return &t, nil
}

// List returns all tags with usage counts, ordered by name.
func (r *tagRepository) List(ctx context.Context) ([]Tag, error) {
	query := selectWithUsage + groupWithUsage + ` ORDER BY t.name ASC, t.id ASC`

	tags := []Tag{}
	if err := r.db.SelectContext(ctx, &tags, query); err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

// Update modifies an existing tag's name and color.
func (r *tagRepository) Update(ctx context.Context, tag *Tag) error {
	query := `UPDATE tags SET name = ?, name_key = ?, color = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, tag.Name, nameKey(tag.Name), tag.Color, tag.ID)
	if err != nil {
		if database.IsDuplicateEntry(err) {
			return apperror.NewConflict("a tag with this name already exists")
		}
		return fmt.Errorf("updating tag: %w", err)
	}

	// MariaDB reports zero affected rows when the values are unchanged, so
	// existence is checked by the service beforehand rather than here.
	if _, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	return nil
}

// Delete removes a tag by ID. The todo_tags rows are cascade-deleted by
// the foreign key constraint in the migration.
func (r *tagRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM tags WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFound("tag not found")
	}

	return nil
}

// ExistingIDs returns the subset of ids present in the tags table.
func (r *tagRepository) ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	found := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	query, args, err := sqlx.In(`SELECT id FROM tags WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("building tag id query: %w", err)
	}

	var existing []int64
	if err := r.db.SelectContext(ctx, &existing, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("checking tag ids: %w", err)
	}
	for _, id := range existing {
		found[id] = true
	}
	return found, nil
}

// GetTodoTagsBatch returns tags for multiple todos in a single query,
// keyed by todo ID. Each todo's tags are ordered by name.
//
// Returns an empty map if no todo IDs are provided.
func (r *tagRepository) GetTodoTagsBatch(ctx context.Context, todoIDs []int64) (map[int64][]Tag, error) {
	result := make(map[int64][]Tag)
	if len(todoIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT tt.todo_id, t.id, t.name, t.color, t.created_at
		FROM tags t
		INNER JOIN todo_tags tt ON tt.tag_id = t.id
		WHERE tt.todo_id IN (?)
		ORDER BY t.name ASC, t.id ASC`, todoIDs)
	if err != nil {
		return nil, fmt.Errorf("building batch todo tags query: %w", err)
	}

	var rows []todoTagRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("batch getting todo tags: %w", err)
	}
	for _, row := range rows {
		result[row.TodoID] = append(result[row.TodoID], row.Tag)
	}
	return result, nil
}
