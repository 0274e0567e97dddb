package todos

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/tasktags/internal/apperror"
	"github.com/keyxmakerx/tasktags/internal/validate"
	"github.com/keyxmakerx/tasktags/internal/widgets/tags"
)

// TagLister lists every tag for the export document. tags.TagService
// satisfies it.
type TagLister interface {
	List(ctx context.Context) ([]tags.Tag, error)
}

// Handler handles HTTP requests for todo operations. Handlers are thin:
// decode request, call service, return JSON.
type Handler struct {
	service TodoService
	tags    TagLister
}

// NewHandler creates a new todo handler.
func NewHandler(service TodoService, tagLister TagLister) *Handler {
	return &Handler{service: service, tags: tagLister}
}

// ListTodos returns todos matching the query-string filters, newest first
// (GET /api/todos).
func (h *Handler) ListTodos(c echo.Context) error {
	filter, opts, err := ParseFilter(c.QueryParams())
	if err != nil {
		return err
	}

	list, total, err := h.service.List(c.Request().Context(), filter, opts)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"todos": list,
		"total": total,
	})
}

// GetTodo returns a single todo with its tags (GET /api/todos/:id).
func (h *Handler) GetTodo(c echo.Context) error {
	id, err := tags.ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	todo, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, todo)
}

// CreateTodo creates a new todo (POST /api/todos).
func (h *Handler) CreateTodo(c echo.Context) error {
	payload, err := validate.Decode(c.Request().Body)
	if err != nil {
		return err
	}

	input, err := ParseCreateTodo(payload)
	if err != nil {
		return err
	}

	todo, err := h.service.Create(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, todo)
}

// UpdateTodo applies a partial update (PUT/PATCH /api/todos/:id).
func (h *Handler) UpdateTodo(c echo.Context) error {
	id, err := tags.ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	payload, err := validate.Decode(c.Request().Body)
	if err != nil {
		return err
	}

	input, err := ParseUpdateTodo(payload)
	if err != nil {
		return err
	}

	todo, err := h.service.Update(c.Request().Context(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, todo)
}

// DeleteTodo removes a todo (DELETE /api/todos/:id).
func (h *Handler) DeleteTodo(c echo.Context) error {
	id, err := tags.ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Todo deleted successfully"})
}

// SearchTodos performs a case-insensitive substring search over titles and
// content (GET /api/search?q=). "keyword" is accepted as an alias of "q".
func (h *Handler) SearchTodos(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		query = strings.TrimSpace(c.QueryParam("keyword"))
	}
	if query == "" {
		return apperror.NewBadRequest("search query is required")
	}

	results, err := h.service.Search(c.Request().Context(), query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

// ExportTodos downloads every todo as JSON (default) or CSV
// (GET /api/export?format=json|csv).
func (h *Handler) ExportTodos(c echo.Context) error {
	format := strings.ToLower(strings.TrimSpace(c.QueryParam("format")))
	if format == "" {
		format = FormatJSON
	}
	if format != FormatJSON && format != FormatCSV {
		return apperror.NewBadRequest("format must be json or csv")
	}

	ctx := c.Request().Context()
	list, _, err := h.service.List(ctx, TodoFilter{}, ListOptions{})
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	if format == FormatCSV {
		res := c.Response()
		res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
		res.Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=%q", csvFilename(now)))
		res.WriteHeader(http.StatusOK)
		return WriteCSV(res, list)
	}

	allTags, err := h.tags.List(ctx)
	if err != nil {
		return apperror.NewInternal(err)
	}

	return c.JSON(http.StatusOK, Export{
		ExportedAt: now,
		Todos:      list,
		Tags:       allTags,
	})
}
