package todos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/keyxmakerx/tasktags/internal/apperror"
)

// TodoRepository defines the data access contract for todos and their tag
// associations. Tags themselves are read through the tags widget.
type TodoRepository interface {
	// Create inserts a todo and its tag associations in one transaction.
	// The todo's ID is set on the struct after insert.
	Create(ctx context.Context, todo *Todo, tagIDs []int64) error

	// FindByID retrieves a single todo (without tags).
	FindByID(ctx context.Context, id int64) (*Todo, error)

	// List returns the todos matching f, newest first, and the total
	// number of matches before pagination.
	List(ctx context.Context, f TodoFilter, opts ListOptions) ([]Todo, int, error)

	// Update writes every column of todo. When replaceTags is set the
	// association set becomes exactly tagIDs. Both happen in one
	// transaction.
	Update(ctx context.Context, todo *Todo, tagIDs []int64, replaceTags bool) error

	// Delete removes a todo. Cascade deletes remove todo_tags rows.
	Delete(ctx context.Context, id int64) error
}

// todoRepository implements TodoRepository with SQL that runs unchanged on
// MariaDB and SQLite.
type todoRepository struct {
	db *sqlx.DB
}

// NewTodoRepository creates a new TodoRepository backed by the given database connection.
func NewTodoRepository(db *sqlx.DB) TodoRepository {
	return &todoRepository{db: db}
}

// Create inserts the todo row, then its associations, committing both or
// neither.
func (r *todoRepository) Create(ctx context.Context, todo *Todo, tagIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning create tx: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO todos (title, content, priority, completed, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, query,
		todo.Title, todo.Content, string(todo.Priority), todo.Completed,
		todo.CreatedAt, todo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting todo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}

	if err := insertTodoTags(ctx, tx, id, tagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing create tx: %w", err)
	}

	todo.ID = id
	return nil
}

// FindByID retrieves a single todo by its primary key.
func (r *todoRepository) FindByID(ctx context.Context, id int64) (*Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = ?`

	var t Todo
	err := r.db.GetContext(ctx, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("todo not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying todo by id: %w", err)
	}
	return &t, nil
}

// List counts the matches, then fetches the requested page.
func (r *todoRepository) List(ctx context.Context, f TodoFilter, opts ListOptions) ([]Todo, int, error) {
	query, countQuery, args, countArgs := listQueries(f, opts)

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("counting todos: %w", err)
	}

	todos := []Todo{}
	if err := r.db.SelectContext(ctx, &todos, query, args...); err != nil {
		return nil, 0, fmt.Errorf("listing todos: %w", err)
	}
	return todos, total, nil
}

// Update writes the todo row and optionally swaps its associations. Readers
// never observe the intermediate state with no tags.
func (r *todoRepository) Update(ctx context.Context, todo *Todo, tagIDs []int64, replaceTags bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning update tx: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE todos
	          SET title = ?, content = ?, priority = ?, completed = ?, updated_at = ?
	          WHERE id = ?`
	result, err := tx.ExecContext(ctx, query,
		todo.Title, todo.Content, string(todo.Priority), todo.Completed,
		todo.UpdatedAt, todo.ID,
	)
	if err != nil {
		return fmt.Errorf("updating todo: %w", err)
	}

	// updated_at always changes, so zero rows means the todo is gone.
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFound("todo not found")
	}

	if replaceTags {
		if _, err := tx.ExecContext(ctx, `DELETE FROM todo_tags WHERE todo_id = ?`, todo.ID); err != nil {
			return fmt.Errorf("clearing todo tags: %w", err)
		}
		if err := insertTodoTags(ctx, tx, todo.ID, tagIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing update tx: %w", err)
	}
	return nil
}

// Delete removes a todo by ID. The todo_tags rows are cascade-deleted by
// the foreign key constraint in the migration.
func (r *todoRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFound("todo not found")
	}
	return nil
}

// insertTodoTags attaches tagIDs to a todo inside tx. Callers pass
// de-duplicated ids.
func insertTodoTags(ctx context.Context, tx *sqlx.Tx, todoID int64, tagIDs []int64) error {
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO todo_tags (todo_id, tag_id) VALUES (?, ?)`,
			todoID, tagID,
		); err != nil {
			return fmt.Errorf("attaching tag %d: %w", tagID, err)
		}
	}
	return nil
}
