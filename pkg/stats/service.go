package stats

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/smartshelf/smartshelf/pkg/models"
	"github.com/uptrace/bun"
)

// Service aggregates dashboard counters.
type Service struct {
	db *bun.DB
}

// NewService creates a new stats service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// Summary holds library-wide counters.
type Summary struct {
	TotalBooks         int `json:"total_books"`
	AvailableBooks     int `json:"available_books"`
	TotalMembers       int `json:"total_members"`
	ActiveBorrowings   int `json:"active_borrowings"`
	OverdueBorrowings  int `json:"overdue_borrowings"`
	ActiveReservations int `json:"active_reservations"`
}

// Summarize computes the current counters.
func (s *Service) Summarize(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	now := time.Now().UTC()

	var err error
	summary.TotalBooks, err = s.db.NewSelect().
		Model((*models.Book)(nil)).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	summary.AvailableBooks, err = s.db.NewSelect().
		Model((*models.Book)(nil)).
		Where("available_copies > 0").
		Where("status = ?", models.BookStatusAvailable).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	summary.TotalMembers, err = s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("role = ?", models.RoleStudent).
		Where("is_active = TRUE").
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	summary.ActiveBorrowings, err = s.db.NewSelect().
		Model((*models.Borrowing)(nil)).
		Where("returned_at IS NULL").
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	summary.OverdueBorrowings, err = s.db.NewSelect().
		Model((*models.Borrowing)(nil)).
		Where("returned_at IS NULL").
		Where("due_date < ?", now).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	summary.ActiveReservations, err = s.db.NewSelect().
		Model((*models.Reservation)(nil)).
		Where("is_fulfilled = FALSE").
		Where("canceled_at IS NULL").
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return summary, nil
}
