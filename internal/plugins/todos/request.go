package todos

import (
	"strings"

	"github.com/keyxmakerx/tasktags/internal/sanitize"
	"github.com/keyxmakerx/tasktags/internal/validate"
)

// contentKeys lists the accepted names for the content field. "description"
// is kept for older clients.
var contentKeys = []string{"content", "description"}

// ParseCreateTodo converts a decoded JSON payload into a CreateTodoInput,
// applying defaults (priority medium, not completed). Every failing field
// is reported in the returned validation error.
func ParseCreateTodo(p validate.Payload) (CreateTodoInput, error) {
	var errs validate.Errors
	in := CreateTodoInput{Priority: PriorityMedium}

	if title, state := p.String(&errs, "title"); state == validate.Set {
		in.Title = sanitize.Text(title)
	}

	if content, state := p.String(&errs, contentKeys...); state == validate.Set {
		if content = sanitize.Text(content); content != "" {
			in.Content = &content
		}
	}

	if priority, state := p.String(&errs, "priority"); state == validate.Set {
		in.Priority = Priority(strings.ToLower(strings.TrimSpace(priority)))
	}

	if completed, state := p.Bool(&errs, "completed"); state == validate.Set {
		in.Completed = completed
	}

	if ids, state := p.Int64Slice(&errs, "tagIds"); state == validate.Set {
		in.TagIDs = ids
	}

	validate.Struct(&errs, in)
	return in, errs.Err()
}

// ParseUpdateTodo converts a decoded JSON payload into an UpdateTodoInput.
// Absent keys are left untouched. Content may be cleared with null or "";
// title, priority and completed cannot be null. tagIds null counts as
// absent, while an empty array removes every tag.
func ParseUpdateTodo(p validate.Payload) (UpdateTodoInput, error) {
	var errs validate.Errors
	var in UpdateTodoInput

	switch title, state := p.String(&errs, "title"); state {
	case validate.Set:
		title = sanitize.Text(title)
		in.Title = &title
	case validate.Null:
		errs.Add("title", "title cannot be null")
	}

	switch content, state := p.String(&errs, contentKeys...); state {
	case validate.Set:
		if content = sanitize.Text(content); content != "" {
			in.Content = &content
		} else {
			in.ClearContent = true
		}
	case validate.Null:
		in.ClearContent = true
	}

	switch priority, state := p.String(&errs, "priority"); state {
	case validate.Set:
		pr := Priority(strings.ToLower(strings.TrimSpace(priority)))
		in.Priority = &pr
	case validate.Null:
		errs.Add("priority", "priority cannot be null")
	}

	switch completed, state := p.Bool(&errs, "completed"); state {
	case validate.Set:
		in.Completed = &completed
	case validate.Null:
		errs.Add("completed", "completed cannot be null")
	}

	if ids, state := p.Int64Slice(&errs, "tagIds"); state == validate.Set {
		in.TagIDs = ids
		in.ReplaceTags = true
	}

	validate.Struct(&errs, in)
	return in, errs.Err()
}
