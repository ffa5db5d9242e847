package activity

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	activityService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListActivityQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	entries, total, err := h.activityService.List(ctx, ListOptions{
		Limit:  params.Limit,
		Offset: params.Offset,
		UserID: params.UserID,
		Action: params.Action,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]any{
		"activities": entries,
		"total":      total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}
