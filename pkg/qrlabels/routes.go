package qrlabels

import (
	"github.com/labstack/echo/v4"
	"github.com/smartshelf/smartshelf/pkg/catalog"
)

// RegisterRoutesWithGroup registers label routes on the books group. The
// group is expected to already require authentication.
func RegisterRoutesWithGroup(g *echo.Group, baseURL string, catalogService *catalog.Service) {
	h := &handler{
		labelService:   NewService(baseURL, 256),
		catalogService: catalogService,
	}

	g.GET("/:id/qrlabel", h.label)
	g.GET("/:id/qrlabel.png", h.labelPNG)
}
