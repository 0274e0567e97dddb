package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/tasktags/internal/middleware"
	"github.com/keyxmakerx/tasktags/internal/plugins/todos"
	"github.com/keyxmakerx/tasktags/internal/widgets/tags"
)

// healthTimeout bounds each dependency ping in the health check.
const healthTimeout = 2 * time.Second

// RegisterRoutes sets up all application routes. It registers public routes
// directly and delegates to each feature's route registration function.
//
// This is the single place where all routes are aggregated and where the
// feature services are wired to each other.
func (a *App) RegisterRoutes(ctx context.Context) {
	e := a.Echo

	// --- Public Routes ---

	e.GET("/", a.serviceInfo)

	// Health check endpoint for container orchestration.
	e.GET("/healthz", a.healthCheck)
	e.GET("/health", a.healthCheck)

	// --- API Routes ---

	api := e.Group("/api")
	if limiter := a.rateLimiter(ctx); limiter != nil {
		api.Use(middleware.RateLimit(limiter))
	}

	// tags widget: also supplies tag lookups to the todos plugin.
	tagService := tags.NewTagService(tags.NewTagRepository(a.DB))
	tags.RegisterRoutes(api, tags.NewHandler(tagService))

	// todos plugin
	todoService := todos.NewTodoService(todos.NewTodoRepository(a.DB), tagService)
	todos.RegisterRoutes(api, todos.NewHandler(todoService, tagService))
}

// rateLimiter picks the Redis-backed limiter when Redis is configured so
// replicas share one budget. Returns nil when limiting is disabled.
func (a *App) rateLimiter(ctx context.Context) middleware.Limiter {
	rl := a.Config.RateLimit
	if rl.Requests <= 0 {
		return nil
	}
	if a.Redis != nil {
		return middleware.NewRedisLimiter(a.Redis, rl.Requests, rl.Window)
	}
	return middleware.NewMemoryLimiter(ctx, rl.Requests, rl.Window)
}

// serviceInfo describes the API (GET /).
func (a *App) serviceInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"name":    "todo-api",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"todos":  "/api/todos",
			"tags":   "/api/tags",
			"search": "/api/search",
			"export": "/api/export",
			"health": "/health",
		},
	})
}

// healthCheck pings the database and, when configured, Redis. Any failure
// returns 503 so the orchestrator stops routing traffic here.
func (a *App) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	healthy := true

	if err := a.DB.PingContext(ctx); err != nil {
		checks["database"] = "unavailable"
		healthy = false
	}

	if a.Redis != nil {
		checks["redis"] = "ok"
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unavailable"
			healthy = false
		}
	}

	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"checks": checks,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"checks": checks,
	})
}
