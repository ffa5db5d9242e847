package auth

import (
	"github.com/labstack/echo/v4"
	"github.com/smartshelf/smartshelf/pkg/activity"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all auth routes and returns the auth service so
// the server can build middleware from it.
func RegisterRoutes(e *echo.Echo, db *bun.DB, jwtSecret string) *Service {
	authService := NewService(db, jwtSecret)
	authMiddleware := NewMiddleware(authService)

	h := &handler{
		authService:     authService,
		activityService: activity.NewService(db),
	}

	auth := e.Group("/auth")
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.POST("/logout", h.logout, authMiddleware.Authenticate)
	auth.GET("/me", h.me, authMiddleware.Authenticate)

	return authService
}
