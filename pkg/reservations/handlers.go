package reservations

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/smartshelf/smartshelf/pkg/activity"
	"github.com/smartshelf/smartshelf/pkg/auth"
	"github.com/smartshelf/smartshelf/pkg/errcodes"
	"github.com/smartshelf/smartshelf/pkg/models"
	"github.com/smartshelf/smartshelf/pkg/notifications"
)

type handler struct {
	reservationService  *Service
	activityService     *activity.Service
	notificationService *notifications.Service
}

func (h *handler) reserve(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := ReservePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	reservation, err := h.reservationService.Reserve(ctx, user.ID, params.BookID)
	if err != nil {
		return err
	}

	ip := c.RealIP()
	h.activityService.Record(ctx, activity.Entry{
		Action:    models.ActionReserve,
		UserID:    &user.ID,
		BookID:    &params.BookID,
		IPAddress: &ip,
	})

	// Best effort; the reservation stands even if the notification fails.
	_, _ = h.notificationService.Send(ctx, notifications.CreateOptions{
		UserID:  user.ID,
		BookID:  &params.BookID,
		Title:   "Reservation placed",
		Message: "You will be notified when a copy becomes available.",
		Type:    models.NotificationTypeReservation,
	})

	return errors.WithStack(c.JSON(http.StatusCreated, reservation))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := ListReservationsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListOptions{
		Limit:      params.Limit,
		Offset:     params.Offset,
		ActiveOnly: params.Active,
	}
	// Students only ever see their own queue entries.
	if user.IsStaff() {
		opts.UserID = params.UserID
		opts.BookID = params.BookID
	} else {
		opts.UserID = &user.ID
		opts.BookID = params.BookID
	}

	reservations, total, err := h.reservationService.List(ctx, opts)
	if err != nil {
		return err
	}

	response := map[string]any{
		"reservations": reservations,
		"total":        total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) cancel(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Reservation")
	}

	reservation, err := h.reservationService.Cancel(ctx, id, user)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, reservation))
}
