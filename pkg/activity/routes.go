package activity

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers activity log routes on a pre-configured
// group. The group is expected to already require staff access.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		activityService: NewService(db),
	}

	g.GET("", h.list)
}
