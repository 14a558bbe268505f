package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/yesid10/taskflow-api/internal/handler"
	"github.com/yesid10/taskflow-api/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication and
// are not part of the auth flow. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers the authentication routes. Register, login and
// federated login are public; the rest run behind JWTAuth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, p *handler.ProfileHandler, v middleware.TokenValidator) {
	e.POST("/register", a.Register)
	e.POST("/login", a.Login)
	e.POST("/login-google", a.LoginGoogle)

	// protected routes share the root prefix with public ones, so the
	// middleware is attached per route instead of through a group
	jwt := middleware.JWTAuth(v)
	e.POST("/me", a.Me, jwt)
	e.GET("/me", a.Me, jwt)
	e.POST("/logout", a.Logout, jwt)
	e.POST("/refresh", a.Refresh, jwt)
	e.PUT("/profile", p.Update, jwt)
}

// RegisterTasks registers task CRUD. Every route requires a valid token and
// only ever touches the caller's own tasks.
func RegisterTasks(e *echo.Echo, t *handler.TaskHandler, v middleware.TokenValidator) {
	g := e.Group("/tasks", middleware.JWTAuth(v))
	g.GET("", t.List)
	g.POST("", t.Create)
	g.GET("/:id", t.Show)
	g.PUT("/:id", t.Update)
	g.DELETE("/:id", t.Delete)
}
