package stats

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers stats routes on a pre-configured
// group. The group is expected to already require authentication.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		statsService: NewService(db),
	}

	g.GET("", h.summary)
}
