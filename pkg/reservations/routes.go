package reservations

import (
	"github.com/labstack/echo/v4"
	"github.com/smartshelf/smartshelf/pkg/activity"
	"github.com/smartshelf/smartshelf/pkg/notifications"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers reservation routes on a pre-configured
// group. The group is expected to already require authentication.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, notificationService *notifications.Service) *Service {
	h := &handler{
		reservationService:  NewService(db),
		activityService:     activity.NewService(db),
		notificationService: notificationService,
	}

	g.GET("", h.list)
	g.POST("", h.reserve)
	g.POST("/:id/cancel", h.cancel)

	return h.reservationService
}
