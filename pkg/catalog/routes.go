package catalog

import (
	"github.com/labstack/echo/v4"
	"github.com/smartshelf/smartshelf/pkg/activity"
	"github.com/smartshelf/smartshelf/pkg/auth"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers catalog routes on a pre-configured
// group. Read endpoints are open to all authenticated users; mutations
// require staff.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, mw *auth.Middleware) *Service {
	h := &handler{
		catalogService:  NewService(db),
		activityService: activity.NewService(db),
	}

	g.GET("", h.list)
	g.GET("/genres", h.genres)
	g.GET("/:id", h.retrieve)
	g.GET("/:id/status", h.status)

	staff := mw.RequireStaff()
	g.POST("", h.create, staff)
	g.PATCH("/:id", h.update, staff)
	g.DELETE("/:id", h.delete, staff)

	return h.catalogService
}
