package reviews

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers review routes on the books group. The
// group is expected to already require authentication.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		reviewService: NewService(db),
	}

	g.GET("/:id/reviews", h.list)
	g.POST("/:id/reviews", h.submit)
	g.POST("/:id/reviews/:reviewID/helpful", h.markHelpful)
}
