package todos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/keyxmakerx/tasktags/internal/apperror"
	"github.com/keyxmakerx/tasktags/internal/validate"
	"github.com/keyxmakerx/tasktags/internal/widgets/tags"
)

// TagLookup is the part of the tags widget the todo service depends on.
// tags.TagService satisfies it.
type TagLookup interface {
	MissingIDs(ctx context.Context, ids []int64) ([]int64, error)
	GetTodoTagsBatch(ctx context.Context, todoIDs []int64) (map[int64][]tags.Tag, error)
}

// TodoService defines the business logic contract for todo operations.
// Handlers call these methods -- they never touch the repository directly.
type TodoService interface {
	// List returns the todos matching f with tags resolved, plus the total
	// match count before pagination.
	List(ctx context.Context, f TodoFilter, opts ListOptions) ([]Todo, int, error)

	// GetByID retrieves a single todo with its tags.
	GetByID(ctx context.Context, id int64) (*Todo, error)

	// Create persists a new todo. Unknown tag ids are a validation error.
	Create(ctx context.Context, input CreateTodoInput) (*Todo, error)

	// Update applies a partial update and refreshes updatedAt.
	Update(ctx context.Context, id int64, input UpdateTodoInput) (*Todo, error)

	// Delete removes a todo and its tag associations.
	Delete(ctx context.Context, id int64) error

	// Search returns todos whose title or content contains term, ignoring
	// case.
	Search(ctx context.Context, term string) ([]Todo, error)
}

// todoService implements TodoService.
type todoService struct {
	repo TodoRepository
	tags TagLookup
	now  func() time.Time
}

// NewTodoService creates a new TodoService backed by the given repository
// and tag lookup.
func NewTodoService(repo TodoRepository, tagLookup TagLookup) TodoService {
	return &todoService{repo: repo, tags: tagLookup, now: time.Now}
}

// timestamp returns the current time at the precision both databases store.
func (s *todoService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// List runs the filter query, then resolves tags for the page in one batch.
func (s *todoService) List(ctx context.Context, f TodoFilter, opts ListOptions) ([]Todo, int, error) {
	if opts.PageSize > MaxPageSize {
		opts.PageSize = MaxPageSize
	}

	list, total, err := s.repo.List(ctx, f, opts)
	if err != nil {
		return nil, 0, apperror.NewInternal(err)
	}
	if list == nil {
		list = []Todo{}
	}
	if err := s.attachTags(ctx, list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// GetByID retrieves a single todo with its tags.
func (s *todoService) GetByID(ctx context.Context, id int64) (*Todo, error) {
	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	one := []Todo{*todo}
	if err := s.attachTags(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// Create checks that every referenced tag exists, then inserts the todo
// with both timestamps set to now.
func (s *todoService) Create(ctx context.Context, input CreateTodoInput) (*Todo, error) {
	if err := s.checkTagIDs(ctx, input.TagIDs); err != nil {
		return nil, err
	}

	now := s.timestamp()
	todo := &Todo{
		Title:     input.Title,
		Content:   input.Content,
		Priority:  input.Priority,
		Completed: input.Completed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if todo.Priority == "" {
		todo.Priority = PriorityMedium
	}

	if err := s.repo.Create(ctx, todo, dedupeIDs(input.TagIDs)); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, todo.ID)
}

// Update merges the supplied fields into the stored todo. updatedAt always
// moves forward, even when the clock has not advanced past the previous
// write.
func (s *todoService) Update(ctx context.Context, id int64, input UpdateTodoInput) (*Todo, error) {
	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.ReplaceTags {
		if err := s.checkTagIDs(ctx, input.TagIDs); err != nil {
			return nil, err
		}
	}

	if input.Title != nil {
		todo.Title = *input.Title
	}
	if input.ClearContent {
		todo.Content = nil
	} else if input.Content != nil {
		todo.Content = input.Content
	}
	if input.Priority != nil {
		todo.Priority = *input.Priority
	}
	if input.Completed != nil {
		todo.Completed = *input.Completed
	}

	now := s.timestamp()
	if !now.After(todo.UpdatedAt) {
		now = todo.UpdatedAt.Add(time.Microsecond)
	}
	todo.UpdatedAt = now

	if err := s.repo.Update(ctx, todo, dedupeIDs(input.TagIDs), input.ReplaceTags); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Delete removes a todo by ID. The database cascade deletes todo_tags rows.
func (s *todoService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Search is a list query with only the search filter set.
func (s *todoService) Search(ctx context.Context, term string) ([]Todo, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperror.NewBadRequest("search query is required")
	}

	results, _, err := s.List(ctx, TodoFilter{Search: term}, ListOptions{})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// attachTags resolves tags for every todo in list with one query. Todos
// without tags get an empty, non-nil slice.
func (s *todoService) attachTags(ctx context.Context, list []Todo) error {
	if len(list) == 0 {
		return nil
	}

	ids := make([]int64, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}

	byTodo, err := s.tags.GetTodoTagsBatch(ctx, ids)
	if err != nil {
		return apperror.NewInternal(err)
	}

	for i := range list {
		list[i].Tags = byTodo[list[i].ID]
		if list[i].Tags == nil {
			list[i].Tags = []tags.Tag{}
		}
	}
	return nil
}

// checkTagIDs reports every id that does not name an existing tag, using
// the id's position in the request as the field path.
func (s *todoService) checkTagIDs(ctx context.Context, ids []int64) error {
	missing, err := s.tags.MissingIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}

	unknown := make(map[int64]bool, len(missing))
	for _, id := range missing {
		unknown[id] = true
	}

	var errs validate.Errors
	for i, id := range ids {
		if unknown[id] {
			field := fmt.Sprintf("tagIds[%d]", i)
			errs.Add(field, fmt.Sprintf("tag %d does not exist", id))
		}
	}
	return errs.Err()
}

// dedupeIDs drops repeated ids, keeping first occurrences in order.
func dedupeIDs(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
