package todos

import "github.com/labstack/echo/v4"

// RegisterRoutes sets up all todo, search and export routes on the given
// API group.
func RegisterRoutes(api *echo.Group, h *Handler) {
	api.GET("/todos", h.ListTodos)
	api.POST("/todos", h.CreateTodo)
	api.GET("/todos/:id", h.GetTodo)
	api.PUT("/todos/:id", h.UpdateTodo)
	api.PATCH("/todos/:id", h.UpdateTodo)
	api.DELETE("/todos/:id", h.DeleteTodo)

	api.GET("/search", h.SearchTodos)
	api.GET("/export", h.ExportTodos)
}
