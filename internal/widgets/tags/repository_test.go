package tags

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/tasktags/internal/apperror"
	"github.com/keyxmakerx/tasktags/internal/testutil"
)

func TestTagRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewTagRepository(testutil.NewTestDB(t))

	tag := &Tag{Name: "Work", Color: "#ff0000"}
	require.NoError(t, repo.Create(ctx, tag))
	assert.NotZero(t, tag.ID)
	assert.False(t, tag.CreatedAt.IsZero())

	got, err := repo.FindByID(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "Work", got.Name)
	assert.Equal(t, "#ff0000", got.Color)
	require.NotNil(t, got.UsageCount)
	assert.Equal(t, 0, *got.UsageCount)

	byName, err := repo.FindByName(ctx, "wORK")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, byName.ID)
}

func TestTagRepository_FindByID_NotFound(t *testing.T) {
	repo := NewTagRepository(testutil.NewTestDB(t))

	_, err := repo.FindByID(context.Background(), 42)
	assert.True(t, apperror.IsNotFound(err))
}

func TestTagRepository_CreateDuplicateIsConflict(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewTagRepository(db)

	require.NoError(t, repo.Create(ctx, &Tag{Name: "Work", Color: DefaultColor}))

	err := repo.Create(ctx, &Tag{Name: "work", Color: DefaultColor})
	assert.Equal(t, 409, apperror.SafeCode(err))

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM tags"))
	assert.Equal(t, 1, n, "duplicate must not create a row")
}

func TestTagRepository_ListWithUsageCounts(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewTagRepository(db)

	home := &Tag{Name: "home", Color: DefaultColor}
	work := &Tag{Name: "Work", Color: DefaultColor}
	require.NoError(t, repo.Create(ctx, work))
	require.NoError(t, repo.Create(ctx, home))

	seedTodo(t, db, 1, work.ID, home.ID)
	seedTodo(t, db, 2, work.ID)

	tags, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)

	assert.Equal(t, "home", tags[0].Name)
	assert.Equal(t, 1, *tags[0].UsageCount)
	assert.Equal(t, "Work", tags[1].Name)
	assert.Equal(t, 2, *tags[1].UsageCount)
}

func TestTagRepository_DeleteCascadesAssociations(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewTagRepository(db)

	tag := &Tag{Name: "Work", Color: DefaultColor}
	require.NoError(t, repo.Create(ctx, tag))
	seedTodo(t, db, 1, tag.ID)

	require.NoError(t, repo.Delete(ctx, tag.ID))

	byTodo, err := repo.GetTodoTagsBatch(ctx, []int64{1})
	require.NoError(t, err)
	assert.Empty(t, byTodo[1])

	err = repo.Delete(ctx, tag.ID)
	assert.True(t, apperror.IsNotFound(err), "second delete should report not found")
}

func TestTagRepository_NonASCIINamesIgnoreCase(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewTagRepository(db)

	ete := &Tag{Name: "Été", Color: DefaultColor}
	require.NoError(t, repo.Create(ctx, ete))

	byName, err := repo.FindByName(ctx, "ÉTÉ")
	require.NoError(t, err)
	assert.Equal(t, ete.ID, byName.ID)

	err = repo.Create(ctx, &Tag{Name: "été", Color: DefaultColor})
	assert.Equal(t, 409, apperror.SafeCode(err))

	other := &Tag{Name: "Straße", Color: DefaultColor}
	require.NoError(t, repo.Create(ctx, other))
	other.Name = "éTÉ"
	assert.Equal(t, 409, apperror.SafeCode(repo.Update(ctx, other)))

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM tags"))
	assert.Equal(t, 2, n)
}

func TestTagRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewTagRepository(testutil.NewTestDB(t))

	tag := &Tag{Name: "Work", Color: DefaultColor}
	other := &Tag{Name: "Home", Color: DefaultColor}
	require.NoError(t, repo.Create(ctx, tag))
	require.NoError(t, repo.Create(ctx, other))

	tag.Name = "Office"
	tag.Color = "#abcdef"
	require.NoError(t, repo.Update(ctx, tag))

	got, err := repo.FindByID(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "Office", got.Name)
	assert.Equal(t, "#abcdef", got.Color)

	other.Name = "OFFICE"
	assert.Equal(t, 409, apperror.SafeCode(repo.Update(ctx, other)))
}

func TestTagRepository_ExistingIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewTagRepository(testutil.NewTestDB(t))

	tag := &Tag{Name: "Work", Color: DefaultColor}
	require.NoError(t, repo.Create(ctx, tag))

	found, err := repo.ExistingIDs(ctx, []int64{tag.ID, 999})
	require.NoError(t, err)
	assert.True(t, found[tag.ID])
	assert.False(t, found[999])
}

func TestTagRepository_GetTodoTagsBatch(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewTagRepository(db)

	b := &Tag{Name: "b", Color: DefaultColor}
	a := &Tag{Name: "a", Color: DefaultColor}
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Create(ctx, a))
	seedTodo(t, db, 1, b.ID, a.ID)
	seedTodo(t, db, 2)

	byTodo, err := repo.GetTodoTagsBatch(ctx, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, byTodo[1], 2)
	assert.Equal(t, "a", byTodo[1][0].Name)
	assert.Equal(t, "b", byTodo[1][1].Name)
	assert.Empty(t, byTodo[2])

	empty, err := repo.GetTodoTagsBatch(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// seedTodo inserts a todo row with the given id and attaches tagIDs to it.
func seedTodo(t *testing.T, db *sqlx.DB, id int64, tagIDs ...int64) {
	t.Helper()

	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO todos (id, title, priority, completed, created_at, updated_at)
		VALUES (?, ?, 'medium', ?, ?, ?)`, id, "todo", false, now, now)
	require.NoError(t, err)

	for _, tagID := range tagIDs {
		_, err := db.Exec(`INSERT INTO todo_tags (todo_id, tag_id) VALUES (?, ?)`, id, tagID)
		require.NoError(t, err)
	}
}
