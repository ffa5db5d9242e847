package reviews

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/smartshelf/smartshelf/pkg/auth"
	"github.com/smartshelf/smartshelf/pkg/errcodes"
)

type handler struct {
	reviewService *Service
}

func (h *handler) submit(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := SubmitReviewPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	review, err := h.reviewService.Submit(ctx, SubmitOptions{
		UserID:     user.ID,
		BookID:     bookID,
		Rating:     params.Rating,
		ReviewText: params.ReviewText,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, review))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := ListReviewsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	reviews, total, err := h.reviewService.List(ctx, ListOptions{
		BookID: bookID,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		return err
	}

	response := map[string]any{
		"reviews": reviews,
		"total":   total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) markHelpful(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("reviewID"))
	if err != nil {
		return errcodes.NotFound("Review")
	}

	review, err := h.reviewService.MarkHelpful(ctx, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, review))
}
