package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/smartshelf/smartshelf/pkg/auth"
	"github.com/smartshelf/smartshelf/pkg/config"
	"github.com/smartshelf/smartshelf/pkg/database"
	"github.com/smartshelf/smartshelf/pkg/migrations"
	"github.com/smartshelf/smartshelf/pkg/server"
	"github.com/smartshelf/smartshelf/pkg/version"
	"github.com/smartshelf/smartshelf/pkg/worker"
	"github.com/uptrace/bun"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting smartshelf", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	if err := bootstrapAdmin(ctx, db, cfg); err != nil {
		log.Err(err).Fatal("admin bootstrap error")
	}

	srv, deps, err := server.New(cfg, db)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	wrkr := worker.New(cfg, deps.CirculationService, deps.NotificationService)

	graceful := signals.Setup()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}

		log.Info("server started", logger.Data{"port": listener.Addr().(*net.TCPAddr).Port})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	wrkr.Start()
	log.Info("worker started")

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	wrkr.Shutdown()
	log.Info("worker shutdown")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}

// bootstrapAdmin creates the initial admin account on an empty database so
// a fresh install is reachable. ADMIN_USERNAME and ADMIN_PASSWORD are only
// consulted when no users exist yet.
func bootstrapAdmin(ctx context.Context, db *bun.DB, cfg *config.Config) error {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return nil
	}

	authService := auth.NewService(db, cfg.JWTSecret)
	admin, err := authService.EnsureAdmin(ctx, username, password)
	if err != nil {
		return err
	}
	if admin != nil {
		logger.New().Info("admin account created", logger.Data{"username": admin.Username})
	}
	return nil
}
