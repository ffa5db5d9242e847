package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robinjoseph08/golib/logger"
	"github.com/smartshelf/smartshelf/pkg/circulation"
	"github.com/smartshelf/smartshelf/pkg/config"
	"github.com/smartshelf/smartshelf/pkg/models"
	"github.com/smartshelf/smartshelf/pkg/notifications"
)

// Worker runs the overdue sweep in the background. Each pass finds active
// loans past their due date and nudges the borrower, at most once per day
// per loan.
type Worker struct {
	config *config.Config
	log    logger.Logger

	circulationService  *circulation.Service
	notificationService *notifications.Service

	interval time.Duration
	shutdown chan struct{}
	done     chan struct{}
}

// New creates a new worker.
func New(cfg *config.Config, circulationService *circulation.Service, notificationService *notifications.Service) *Worker {
	return &Worker{
		config: cfg,
		log:    logger.New(),

		circulationService:  circulationService,
		notificationService: notificationService,

		interval: cfg.OverdueSweepInterval,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins sweeping in the background.
func (w *Worker) Start() {
	go w.run()
}

func (w *Worker) run() {
	timer := time.NewTimer(w.interval)

	for {
		select {
		case <-w.shutdown:
			w.done <- struct{}{}
			return
		case <-timer.C:
			id, err := uuid.NewRandom()
			if err != nil {
				w.log.Err(err).Error("new uuid error")
				timer.Reset(w.interval)
				continue
			}
			log := w.log.ID(id.String()).Root(logger.Data{"sweep": "overdue"})
			ctx := log.WithContext(context.Background())

			if err := w.Sweep(ctx); err != nil {
				log.Err(err).Error("overdue sweep error")
			}
			timer.Reset(w.interval)
		}
	}
}

// Sweep notifies borrowers of every overdue loan that has not been nudged
// in the last day.
func (w *Worker) Sweep(ctx context.Context) error {
	now := time.Now().UTC()

	overdue, err := w.circulationService.Overdue(ctx, now)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	notified := 0
	for _, bw := range overdue {
		recent, err := w.notificationService.HasRecent(ctx, bw.UserID, bw.BookID, models.NotificationTypeOverdue, 24*time.Hour)
		if err != nil {
			log.Err(err).Error("overdue dedupe check error")
			continue
		}
		if recent {
			continue
		}

		days := bw.DaysOverdue(now)
		fine := bw.CalculateFine(now, w.circulationService.FineRatePerDay())
		title := "Book overdue"
		message := fmt.Sprintf("%q is %d day(s) overdue. Your fine so far is %.2f.", bw.Book.Title, days, fine)
		if days == 0 {
			message = fmt.Sprintf("%q is past its due date. Return it soon to avoid a fine.", bw.Book.Title)
		}

		_, err = w.notificationService.Send(ctx, notifications.CreateOptions{
			UserID:  bw.UserID,
			BookID:  &bw.BookID,
			Title:   title,
			Message: message,
			Type:    models.NotificationTypeOverdue,
		})
		if err != nil {
			log.Err(err).Error("overdue notification error")
			continue
		}
		notified++
	}

	if notified > 0 {
		log.Info("overdue sweep complete", logger.Data{"overdue": len(overdue), "notified": notified})
	}

	return nil
}

// Shutdown stops the worker and waits for the current pass to finish.
func (w *Worker) Shutdown() {
	close(w.shutdown)
	<-w.done
}
