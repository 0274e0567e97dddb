package tags

import "github.com/labstack/echo/v4"

// RegisterRoutes sets up all tag routes on the given API group.
func RegisterRoutes(api *echo.Group, h *Handler) {
	api.GET("/tags", h.ListTags)
	api.POST("/tags", h.CreateTag)
	api.GET("/tags/:id", h.GetTag)
	api.PUT("/tags/:id", h.UpdateTag)
	api.PATCH("/tags/:id", h.UpdateTag)
	api.DELETE("/tags/:id", h.DeleteTag)
}
