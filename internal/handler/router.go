package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sumire/issuetracker/internal/service"
)

const healthTimeout = 2 * time.Second

// Deps are the services the router dispatches to. Auth is nil when
// authentication is disabled.
type Deps struct {
	Issues      *service.IssueService
	Auth        *service.AuthService
	CORSOrigins []string
}

// NewRouter builds the echo instance serving the HTTP API.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: newRequestID,
	}))
	e.Use(RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  origins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentType},
		ExposeHeaders: []string{echo.HeaderXRequestID},
		MaxAge:        300,
	}))

	e.GET("/health", health(deps.Issues))

	api := e.Group("/api")

	var protected []echo.MiddlewareFunc
	if deps.Auth != nil {
		protected = append(protected, JWTAuth(deps.Auth))

		authHandler := NewAuthHandler(deps.Auth)
		auth := api.Group("/auth")
		if deps.Auth.GoogleEnabled() {
			auth.GET("/google", authHandler.GoogleRedirect)
			auth.GET("/google/callback", authHandler.GoogleCallback)
		}
		if deps.Auth.GitHubEnabled() {
			auth.GET("/github", authHandler.GitHubRedirect)
			auth.GET("/github/callback", authHandler.GitHubCallback)
		}
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/me", authHandler.Me, protected...)
	}

	issueHandler := NewIssueHandler(deps.Issues)
	issues := api.Group("/issues", protected...)
	issues.POST("/:project", issueHandler.Create)
	issues.GET("/:project", issueHandler.List)
	issues.PUT("/:project", issueHandler.Update)
	issues.DELETE("/:project", issueHandler.Delete)

	return e
}

func health(issues *service.IssueService) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		if err := issues.Ping(ctx); err != nil {
			slog.Warn("health check failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
