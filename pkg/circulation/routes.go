package circulation

import (
	"github.com/labstack/echo/v4"
	"github.com/smartshelf/smartshelf/pkg/activity"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers circulation routes on a pre-configured
// group. The group is expected to already require authentication.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, circulationService *Service) {
	h := &handler{
		circulationService: circulationService,
		activityService:    activity.NewService(db),
	}

	g.GET("", h.list)
	g.POST("", h.borrow)
	g.POST("/:id/return", h.returnBook)
}
