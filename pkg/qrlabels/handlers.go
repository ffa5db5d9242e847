package qrlabels

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/smartshelf/smartshelf/pkg/catalog"
	"github.com/smartshelf/smartshelf/pkg/errcodes"
)

type handler struct {
	labelService   *Service
	catalogService *catalog.Service
}

func (h *handler) label(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.catalogService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	label, err := h.labelService.Render(book)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, label))
}

func (h *handler) labelPNG(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.catalogService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	png, err := h.labelService.PNG(book)
	if err != nil {
		return err
	}

	return errors.WithStack(c.Blob(http.StatusOK, "image/png", png))
}
