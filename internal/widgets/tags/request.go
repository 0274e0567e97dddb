package tags

import (
	"strings"

	"github.com/keyxmakerx/tasktags/internal/sanitize"
	"github.com/keyxmakerx/tasktags/internal/validate"
)

// ParseCreateTag converts a decoded JSON payload into a CreateTagInput.
// Every failing field is reported in the returned validation error.
func ParseCreateTag(p validate.Payload) (CreateTagInput, error) {
	var errs validate.Errors
	var in CreateTagInput

	if name, state := p.String(&errs, "name"); state == validate.Set {
		in.Name = sanitize.Text(name)
	}

	in.Color = DefaultColor
	if color, state := p.String(&errs, "color"); state == validate.Set && strings.TrimSpace(color) != "" {
		in.Color = strings.TrimSpace(color)
	}

	validate.Struct(&errs, in)
	return in, errs.Err()
}

// ParseUpdateTag converts a decoded JSON payload into an UpdateTagInput.
// Absent keys leave the field untouched; null is rejected because neither
// field can be cleared.
func ParseUpdateTag(p validate.Payload) (UpdateTagInput, error) {
	var errs validate.Errors
	var in UpdateTagInput

	switch name, state := p.String(&errs, "name"); state {
	case validate.Set:
		name = sanitize.Text(name)
		in.Name = &name
	case validate.Null:
		errs.Add("name", "name cannot be null")
	}

	switch color, state := p.String(&errs, "color"); state {
	case validate.Set:
		color = strings.TrimSpace(color)
		in.Color = &color
	case validate.Null:
		errs.Add("color", "color cannot be null")
	}

	validate.Struct(&errs, in)
	return in, errs.Err()
}
