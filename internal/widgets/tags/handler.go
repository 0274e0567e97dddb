package tags

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/tasktags/internal/apperror"
	"github.com/keyxmakerx/tasktags/internal/validate"
)

// Handler handles HTTP requests for tag operations. Handlers are thin:
// decode request, call service, return JSON.
type Handler struct {
	service TagService
}

// NewHandler creates a new tag handler.
func NewHandler(service TagService) *Handler {
	return &Handler{service: service}
}

// ListTags returns all tags with usage counts (GET /api/tags).
func (h *Handler) ListTags(c echo.Context) error {
	tags, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	if tags == nil {
		tags = []Tag{}
	}
	return c.JSON(http.StatusOK, map[string]any{"tags": tags})
}

// GetTag returns a single tag (GET /api/tags/:id).
func (h *Handler) GetTag(c echo.Context) error {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	tag, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tag)
}

// CreateTag creates a new tag (POST /api/tags).
func (h *Handler) CreateTag(c echo.Context) error {
	payload, err := validate.Decode(c.Request().Body)
	if err != nil {
		return err
	}

	input, err := ParseCreateTag(payload)
	if err != nil {
		return err
	}

	tag, err := h.service.Create(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tag)
}

// UpdateTag renames or recolors a tag (PUT/PATCH /api/tags/:id).
func (h *Handler) UpdateTag(c echo.Context) error {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	payload, err := validate.Decode(c.Request().Body)
	if err != nil {
		return err
	}

	input, err := ParseUpdateTag(payload)
	if err != nil {
		return err
	}

	tag, err := h.service.Update(c.Request().Context(), id, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tag)
}

// DeleteTag removes a tag and detaches it from every todo
// (DELETE /api/tags/:id).
func (h *Handler) DeleteTag(c echo.Context) error {
	id, err := ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Tag deleted successfully"})
}

// ParseID parses a positive integer path parameter.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewBadRequest("invalid ID")
	}
	return id, nil
}
