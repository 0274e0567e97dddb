package tags

import (
	"context"
	"sort"
	"strings"

	"github.com/keyxmakerx/tasktags/internal/apperror"
)

// TagService defines the business logic contract for tag operations.
// Handlers call these methods -- they never touch the repository directly.
type TagService interface {
	// Create creates a new tag. Names are unique ignoring case.
	Create(ctx context.Context, input CreateTagInput) (*Tag, error)

	// GetByID retrieves a single tag by ID.
	GetByID(ctx context.Context, id int64) (*Tag, error)

	// List returns all tags with usage counts.
	List(ctx context.Context) ([]Tag, error)

	// Update renames and/or recolors an existing tag.
	Update(ctx context.Context, id int64, input UpdateTagInput) (*Tag, error)

	// Delete removes a tag and all its todo associations.
	Delete(ctx context.Context, id int64) error

	// MissingIDs returns the ids that do not name an existing tag, in the
	// order given.
	MissingIDs(ctx context.Context, ids []int64) ([]int64, error)

	// GetTodoTagsBatch returns tags for multiple todos in a single query.
	GetTodoTagsBatch(ctx context.Context, todoIDs []int64) (map[int64][]Tag, error)
}

// tagService implements TagService with uniqueness checks.
type tagService struct {
	repo TagRepository
}

// NewTagService creates a new TagService backed by the given repository.
func NewTagService(repo TagRepository) TagService {
	return &tagService{repo: repo}
}

// Create rejects names that collide with an existing tag in any casing, then
// persists the new tag. The unique index still guards against a concurrent
// insert slipping between the check and the write.
func (s *tagService) Create(ctx context.Context, input CreateTagInput) (*Tag, error) {
	if err := s.ensureNameFree(ctx, input.Name, 0); err != nil {
		return nil, err
	}

	color := input.Color
	if color == "" {
		color = DefaultColor
	}

	tag := &Tag{Name: input.Name, Color: color}
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// GetByID retrieves a single tag by its primary key.
func (s *tagService) GetByID(ctx context.Context, id int64) (*Tag, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns all tags, ordered by name.
func (s *tagService) List(ctx context.Context) ([]Tag, error) {
	return s.repo.List(ctx)
}

// Update applies the supplied fields to an existing tag. Renaming a tag to a
// different casing of its own name is allowed.
func (s *tagService) Update(ctx context.Context, id int64, input UpdateTagInput) (*Tag, error) {
	tag, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := s.ensureNameFree(ctx, *input.Name, id); err != nil {
			return nil, err
		}
		tag.Name = *input.Name
	}
	if input.Color != nil {
		tag.Color = *input.Color
	}

	if err := s.repo.Update(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// Delete removes a tag by ID. The database cascade deletes todo_tags rows.
func (s *tagService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// MissingIDs reports which of ids are not existing tags. Duplicates in ids
// are reported once.
func (s *tagService) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	existing, err := s.repo.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	var missing []int64
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !existing[id] && !seen[id] {
			missing = append(missing, id)
		}
		seen[id] = true
	}
	return missing, nil
}

// GetTodoTagsBatch returns tags for multiple todos, keyed by todo ID.
func (s *tagService) GetTodoTagsBatch(ctx context.Context, todoIDs []int64) (map[int64][]Tag, error) {
	byTodo, err := s.repo.GetTodoTagsBatch(ctx, todoIDs)
	if err != nil {
		return nil, err
	}
	for _, tags := range byTodo {
		sortByName(tags)
	}
	return byTodo, nil
}

// ensureNameFree returns a Conflict if another tag (not selfID) already uses
// name in any casing.
func (s *tagService) ensureNameFree(ctx context.Context, name string, selfID int64) error {
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return apperror.NewConflict("a tag with this name already exists")
	}
	return nil
}

// sortByName keeps a todo's tags in a stable, case-insensitive order
// regardless of the database collation.
func sortByName(tags []Tag) {
	sort.SliceStable(tags, func(i, j int) bool {
		return strings.ToLower(tags[i].Name) < strings.ToLower(tags[j].Name)
	})
}
