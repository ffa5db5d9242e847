package notifications

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/smartshelf/smartshelf/pkg/auth"
	"github.com/smartshelf/smartshelf/pkg/errcodes"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

type handler struct {
	notificationService *Service
	hub                 *Hub
	upgrader            websocket.Upgrader
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := ListNotificationsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	notifications, total, err := h.notificationService.List(ctx, ListOptions{
		UserID:     user.ID,
		UnreadOnly: params.Unread,
		Limit:      params.Limit,
		Offset:     params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	unread, err := h.notificationService.UnreadCount(ctx, user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]any{
		"notifications": notifications,
		"total":         total,
		"unread_count":  unread,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) markRead(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Notification")
	}

	n, err := h.notificationService.MarkRead(ctx, user.ID, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, n))
}

// subscribe upgrades the connection to a websocket and streams the user's
// notifications until the client goes away. Missed payloads are not
// replayed; clients catch up from the list endpoint.
func (h *handler) subscribe(c echo.Context) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	log := logger.FromEchoContext(c)

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.WithStack(err)
	}
	defer conn.Close()

	ch, unsubscribe := h.hub.Subscribe(user.ID)
	defer unsubscribe()

	// Reader goroutine: we never expect client messages, but reading is
	// what surfaces the close frame.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil
		case payload := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Err(err).Warn("notification push failed")
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
