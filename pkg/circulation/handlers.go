package circulation

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/smartshelf/smartshelf/pkg/activity"
	"github.com/smartshelf/smartshelf/pkg/auth"
	"github.com/smartshelf/smartshelf/pkg/errcodes"
	"github.com/smartshelf/smartshelf/pkg/models"
)

type handler struct {
	circulationService *Service
	activityService    *activity.Service
}

func (h *handler) borrow(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := BorrowPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	borrowing, err := h.circulationService.Borrow(ctx, user.ID, params.BookID)
	if err != nil {
		return err
	}

	ip := c.RealIP()
	details := "Borrowed: " + borrowing.Book.Title
	h.activityService.Record(ctx, activity.Entry{
		Action:    models.ActionBorrow,
		UserID:    &user.ID,
		BookID:    &params.BookID,
		Details:   &details,
		IPAddress: &ip,
	})

	return errors.WithStack(c.JSON(http.StatusCreated, borrowing))
}

func (h *handler) returnBook(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Borrowing")
	}

	result, err := h.circulationService.Return(ctx, id, user)
	if err != nil {
		return err
	}

	ip := c.RealIP()
	details := "Returned: " + result.Borrowing.Book.Title
	h.activityService.Record(ctx, activity.Entry{
		Action:    models.ActionReturn,
		UserID:    &user.ID,
		BookID:    &result.Borrowing.BookID,
		Details:   &details,
		IPAddress: &ip,
	})

	return errors.WithStack(c.JSON(http.StatusOK, result))
}

type borrowingView struct {
	*models.Borrowing
	IsOverdue   bool    `json:"is_overdue"`
	DaysOverdue int     `json:"days_overdue"`
	CurrentFine float64 `json:"current_fine"`
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := ListBorrowingsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListOptions{
		Limit:       params.Limit,
		Offset:      params.Offset,
		ActiveOnly:  params.Active,
		OverdueOnly: params.Overdue,
	}
	// Students only ever see their own loans.
	if user.IsStaff() {
		opts.UserID = params.UserID
		opts.BookID = params.BookID
	} else {
		opts.UserID = &user.ID
		opts.BookID = params.BookID
	}

	borrowings, total, err := h.circulationService.List(ctx, opts)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rate := h.circulationService.FineRatePerDay()
	views := make([]borrowingView, 0, len(borrowings))
	for _, bw := range borrowings {
		view := borrowingView{
			Borrowing:   bw,
			IsOverdue:   bw.IsOverdue(now),
			DaysOverdue: bw.DaysOverdue(now),
		}
		if bw.ReturnedAt != nil {
			view.CurrentFine = bw.FinePaid
		} else {
			view.CurrentFine = bw.CalculateFine(now, rate)
		}
		views = append(views, view)
	}

	response := map[string]any{
		"borrowings": views,
		"total":      total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}
