package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/smartshelf/smartshelf/pkg/activity"
	"github.com/smartshelf/smartshelf/pkg/auth"
	"github.com/smartshelf/smartshelf/pkg/binder"
	"github.com/smartshelf/smartshelf/pkg/catalog"
	"github.com/smartshelf/smartshelf/pkg/circulation"
	"github.com/smartshelf/smartshelf/pkg/config"
	"github.com/smartshelf/smartshelf/pkg/errcodes"
	"github.com/smartshelf/smartshelf/pkg/notifications"
	"github.com/smartshelf/smartshelf/pkg/qrlabels"
	"github.com/smartshelf/smartshelf/pkg/reservations"
	"github.com/smartshelf/smartshelf/pkg/reviews"
	"github.com/smartshelf/smartshelf/pkg/scanner"
	"github.com/smartshelf/smartshelf/pkg/stats"
	"github.com/uptrace/bun"
)

// Dependencies holds the services the server shares with the rest of the
// process, like the worker.
type Dependencies struct {
	CirculationService  *circulation.Service
	NotificationService *notifications.Service
	Hub                 *notifications.Hub
}

// New builds the HTTP server and returns it along with the services that
// outlive a single request.
func New(cfg *config.Config, db *bun.DB) (*http.Server, *Dependencies, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	authService := auth.RegisterRoutes(e, db, cfg.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)

	hub := notifications.NewHub()
	notificationService := notifications.NewService(db, hub)

	circulationService := registerRoutes(e, db, cfg, authMiddleware, notificationService)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	deps := &Dependencies{
		CirculationService:  circulationService,
		NotificationService: notificationService,
		Hub:                 hub,
	}

	return srv, deps, nil
}

func registerRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware, notificationService *notifications.Service) *circulation.Service {
	booksGroup := e.Group("/books")
	booksGroup.Use(authMiddleware.Authenticate)
	catalogService := catalog.RegisterRoutesWithGroup(booksGroup, db, authMiddleware)
	reviews.RegisterRoutesWithGroup(booksGroup, db)
	qrlabels.RegisterRoutesWithGroup(booksGroup, cfg.BaseURL, catalogService)

	reservationsGroup := e.Group("/reservations")
	reservationsGroup.Use(authMiddleware.Authenticate)
	reservationService := reservations.RegisterRoutesWithGroup(reservationsGroup, db, notificationService)

	circulationService := circulation.NewService(db, catalogService, reservationService, notificationService, circulation.Options{
		LoanPeriodDays: cfg.LoanPeriodDays,
		FineRatePerDay: cfg.FineRatePerDay,
	})
	borrowingsGroup := e.Group("/borrowings")
	borrowingsGroup.Use(authMiddleware.Authenticate)
	circulation.RegisterRoutesWithGroup(borrowingsGroup, db, circulationService)

	notificationsGroup := e.Group("/notifications")
	notificationsGroup.Use(authMiddleware.Authenticate)
	notifications.RegisterRoutesWithGroup(notificationsGroup, notificationService)

	// Landing page counters, no session required.
	statsGroup := e.Group("/stats")
	stats.RegisterRoutesWithGroup(statsGroup, db)

	activityGroup := e.Group("/activity")
	activityGroup.Use(authMiddleware.Authenticate)
	activityGroup.Use(authMiddleware.RequireStaff())
	activity.RegisterRoutesWithGroup(activityGroup, db)

	scanGroup := e.Group("/scan")
	scanGroup.Use(authMiddleware.Authenticate)
	scanGroup.Use(authMiddleware.RequireStaff())
	scanner.RegisterRoutesWithGroup(scanGroup, db, catalogService, scanner.NewZXingDecoder())

	return circulationService
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
