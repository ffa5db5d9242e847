package scanner

import (
	"github.com/labstack/echo/v4"
	"github.com/smartshelf/smartshelf/pkg/catalog"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers scanner routes on a pre-configured
// group. The group is expected to already require staff access.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, catalogService *catalog.Service, decoder Decoder) {
	h := &handler{
		scannerService: NewService(db, catalogService, decoder),
	}

	g.POST("/verify", h.verify)
	g.POST("/decode", h.decode)
}
