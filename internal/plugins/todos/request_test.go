package todos

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/tasktags/internal/apperror"
	"github.com/keyxmakerx/tasktags/internal/validate"
)

func decode(t *testing.T, body string) validate.Payload {
	t.Helper()
	p, err := validate.Decode(strings.NewReader(body))
	require.NoError(t, err)
	return p
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected *apperror.AppError, got %T: %v", err, err)
	assert.Equal(t, 400, appErr.Code)
	out := make(map[string]string, len(appErr.Details))
	for _, d := range appErr.Details {
		out[d.Field] = d.Message
	}
	return out
}

func TestParseCreateTodo_Defaults(t *testing.T) {
	in, err := ParseCreateTodo(decode(t, `{"title":"Buy milk"}`))
	require.NoError(t, err)

	assert.Equal(t, "Buy milk", in.Title)
	assert.Nil(t, in.Content)
	assert.Equal(t, PriorityMedium, in.Priority)
	assert.False(t, in.Completed)
	assert.Empty(t, in.TagIDs)
}

func TestParseCreateTodo_AllFields(t *testing.T) {
	in, err := ParseCreateTodo(decode(t, `{
		"title": "  <em>Buy</em> milk ",
		"description": "2 liters",
		"priority": "High",
		"completed": true,
		"tagIds": [3, 1, 3],
		"unknown": "ignored"
	}`))
	require.NoError(t, err)

	assert.Equal(t, "Buy milk", in.Title)
	require.NotNil(t, in.Content)
	assert.Equal(t, "2 liters", *in.Content)
	assert.Equal(t, PriorityHigh, in.Priority)
	assert.True(t, in.Completed)
	assert.Equal(t, []int64{3, 1, 3}, in.TagIDs)
}

func TestParseCreateTodo_ReportsEveryField(t *testing.T) {
	_, err := ParseCreateTodo(decode(t, `{
		"title": 5,
		"content": "`+strings.Repeat("x", 5001)+`",
		"priority": "urgent",
		"completed": "yes",
		"tagIds": [1, "a", 0]
	}`))

	fields := fieldErrors(t, err)
	for _, f := range []string{"title", "content", "priority", "completed", "tagIds[1]", "tagIds[2]"} {
		assert.Contains(t, fields, f)
	}
	assert.NotContains(t, fields, "tagIds[0]")
	assert.Equal(t, "title must be a string", fields["title"])
}

func TestParseCreateTodo_TitleRules(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing", `{}`},
		{"null", `{"title":null}`},
		{"empty", `{"title":""}`},
		{"whitespace", `{"title":"   "}`},
		{"markup only", `{"title":"<b></b>"}`},
		{"too long", `{"title":"` + strings.Repeat("a", 256) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCreateTodo(decode(t, tt.body))
			assert.Contains(t, fieldErrors(t, err), "title")
		})
	}

	in, err := ParseCreateTodo(decode(t, `{"title":"`+strings.Repeat("a", 255)+`"}`))
	require.NoError(t, err)
	assert.Len(t, in.Title, 255)
}

func TestParseUpdateTodo_Partial(t *testing.T) {
	in, err := ParseUpdateTodo(decode(t, `{"completed":true}`))
	require.NoError(t, err)

	assert.Nil(t, in.Title)
	assert.Nil(t, in.Content)
	assert.False(t, in.ClearContent)
	assert.Nil(t, in.Priority)
	require.NotNil(t, in.Completed)
	assert.True(t, *in.Completed)
	assert.False(t, in.ReplaceTags)
}

func TestParseUpdateTodo_Empty(t *testing.T) {
	in, err := ParseUpdateTodo(decode(t, `{}`))
	require.NoError(t, err)
	assert.Equal(t, UpdateTodoInput{}, in)
}

func TestParseUpdateTodo_ClearContent(t *testing.T) {
	for _, body := range []string{`{"content":null}`, `{"content":""}`, `{"description":null}`} {
		in, err := ParseUpdateTodo(decode(t, body))
		require.NoError(t, err, body)
		assert.True(t, in.ClearContent, body)
		assert.Nil(t, in.Content, body)
	}
}

func TestParseUpdateTodo_Tags(t *testing.T) {
	in, err := ParseUpdateTodo(decode(t, `{"tagIds":[]}`))
	require.NoError(t, err)
	assert.True(t, in.ReplaceTags)
	assert.Empty(t, in.TagIDs)

	in, err = ParseUpdateTodo(decode(t, `{"tagIds":null}`))
	require.NoError(t, err)
	assert.False(t, in.ReplaceTags, "null tagIds must leave tags untouched")
}

func TestParseUpdateTodo_RejectsNulls(t *testing.T) {
	_, err := ParseUpdateTodo(decode(t, `{"title":null,"priority":null,"completed":null}`))
	fields := fieldErrors(t, err)
	assert.Len(t, fields, 3)
	assert.Equal(t, "title cannot be null", fields["title"])
	assert.Contains(t, fields, "priority")
	assert.Contains(t, fields, "completed")
}

func TestParseUpdateTodo_RejectsEmptyTitle(t *testing.T) {
	_, err := ParseUpdateTodo(decode(t, `{"title":"  "}`))
	assert.Contains(t, fieldErrors(t, err), "title")
}
