package todos

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/keyxmakerx/tasktags/internal/validate"
)

// likeEscape is the LIKE escape character. A backslash would need doubling
// inside MariaDB string literals, so a plain punctuation mark is used.
const likeEscape = "!"

// escapeLike makes term match literally inside a LIKE pattern.
func escapeLike(term string) string {
	r := strings.NewReplacer(
		likeEscape, likeEscape+likeEscape,
		"%", likeEscape+"%",
		"_", likeEscape+"_",
	)
	return r.Replace(term)
}

// Where compiles the filter into a WHERE clause (empty when nothing is
// set) and its bind arguments. Values are never interpolated into the
// query text.
func (f TodoFilter) Where() (string, []any) {
	var conds []string
	var args []any

	if f.Priority != nil {
		conds = append(conds, "priority = ?")
		args = append(args, string(*f.Priority))
	}

	if f.Completed != nil {
		conds = append(conds, "completed = ?")
		args = append(args, *f.Completed)
	}

	if term := strings.TrimSpace(f.Search); term != "" {
		// Both sides go through the database's LOWER so case folding is
		// identical for the column and the term.
		pattern := "%" + escapeLike(term) + "%"
		conds = append(conds, fmt.Sprintf(
			"(LOWER(title) LIKE LOWER(?) ESCAPE '%[1]s' OR LOWER(COALESCE(content, '')) LIKE LOWER(?) ESCAPE '%[1]s')",
			likeEscape))
		args = append(args, pattern, pattern)
	}

	if len(f.TagIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.TagIDs)), ",")
		conds = append(conds, fmt.Sprintf(
			"id IN (SELECT todo_id FROM todo_tags WHERE tag_id IN (%s))", placeholders))
		for _, id := range f.TagIDs {
			args = append(args, id)
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// todoColumns is the column list every todo SELECT reads.
const todoColumns = `id, title, content, priority, completed, created_at, updated_at`

// listQueries builds the page query and the matching count query for f.
// Results are newest first; id breaks ties between equal timestamps.
func listQueries(f TodoFilter, opts ListOptions) (query, countQuery string, args, countArgs []any) {
	where, whereArgs := f.Where()

	countQuery = strings.TrimSpace("SELECT COUNT(*) FROM todos " + where)
	query = strings.TrimSpace(fmt.Sprintf("SELECT %s FROM todos %s", todoColumns, where)) +
		" ORDER BY created_at DESC, id DESC"

	args = append([]any{}, whereArgs...)
	if opts.PageSize > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.PageSize, opts.Offset())
	}
	return query, countQuery, args, whereArgs
}

// ParseFilter reads the list endpoint's query string. Every malformed
// parameter is reported in one validation error.
//
//	tagIds=1,2,3  priority=high  completed=true|false  search=text  page=2  pageSize=20
func ParseFilter(q url.Values) (TodoFilter, ListOptions, error) {
	var errs validate.Errors
	var f TodoFilter
	var opts ListOptions

	if raw := strings.TrimSpace(q.Get("tagIds")); raw != "" {
		// Empty segments ("1,,2") are skipped and do not count toward the
		// reported index.
		i := 0
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			pos := i
			i++
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				field := fmt.Sprintf("tagIds[%d]", pos)
				errs.Add(field, fmt.Sprintf("%s must be a positive integer", field))
				continue
			}
			f.TagIDs = append(f.TagIDs, id)
		}
	}

	if raw := strings.TrimSpace(q.Get("priority")); raw != "" {
		p := Priority(strings.ToLower(raw))
		if !p.Valid() {
			errs.Add("priority", "priority must be one of: low, medium, high")
		} else {
			f.Priority = &p
		}
	}

	if raw := strings.TrimSpace(q.Get("completed")); raw != "" {
		switch strings.ToLower(raw) {
		case "true":
			v := true
			f.Completed = &v
		case "false":
			v := false
			f.Completed = &v
		default:
			errs.Add("completed", "completed must be true or false")
		}
	}

	f.Search = strings.TrimSpace(q.Get("search"))

	opts.Page = positiveInt(&errs, q, "page")
	opts.PageSize = positiveInt(&errs, q, "pageSize")
	if opts.PageSize > MaxPageSize {
		errs.Add("pageSize", fmt.Sprintf("pageSize must be at most %d", MaxPageSize))
	}
	if opts.Page > 0 && opts.PageSize == 0 {
		opts.PageSize = MaxPageSize
	}

	return f, opts, errs.Err()
}

// positiveInt reads an optional positive integer query parameter. Returns
// zero when the parameter is absent or invalid.
func positiveInt(errs *validate.Errors, q url.Values, key string) int {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		errs.Add(key, key+" must be a positive integer")
		return 0
	}
	return n
}
