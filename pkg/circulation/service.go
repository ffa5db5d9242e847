package circulation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/smartshelf/smartshelf/pkg/catalog"
	"github.com/smartshelf/smartshelf/pkg/errcodes"
	"github.com/smartshelf/smartshelf/pkg/models"
	"github.com/smartshelf/smartshelf/pkg/notifications"
	"github.com/smartshelf/smartshelf/pkg/reservations"
	"github.com/uptrace/bun"
)

// Service manages the loan lifecycle. Every state change runs in a single
// transaction so copy counters, loan rows, and reservation fulfillment
// always move together.
type Service struct {
	db                  *bun.DB
	catalogService      *catalog.Service
	reservationService  *reservations.Service
	notificationService *notifications.Service
	loanPeriod          time.Duration
	fineRatePerDay      float64
}

// Options configures a circulation service.
type Options struct {
	LoanPeriodDays int
	FineRatePerDay float64
}

// NewService creates a new circulation service.
func NewService(db *bun.DB, catalogService *catalog.Service, reservationService *reservations.Service, notificationService *notifications.Service, opts Options) *Service {
	return &Service{
		db:                  db,
		catalogService:      catalogService,
		reservationService:  reservationService,
		notificationService: notificationService,
		loanPeriod:          time.Duration(opts.LoanPeriodDays) * 24 * time.Hour,
		fineRatePerDay:      opts.FineRatePerDay,
	}
}

// FineRatePerDay exposes the configured rate for fine projections.
func (s *Service) FineRatePerDay() float64 {
	return s.fineRatePerDay
}

// Borrow checks a copy out to the user. A user can hold at most one active
// loan per book.
func (s *Service) Borrow(ctx context.Context, userID, bookID int) (*models.Borrowing, error) {
	now := time.Now().UTC()
	borrowing := &models.Borrowing{
		CreatedAt:  now,
		UpdatedAt:  now,
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: now,
		DueDate:    now.Add(s.loanPeriod),
	}

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Borrowing)(nil)).
			Where("user_id = ?", userID).
			Where("book_id = ?", bookID).
			Where("returned_at IS NULL").
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if exists {
			return errcodes.AlreadyBorrowed()
		}

		book, err := s.catalogService.ReserveCopy(ctx, tx, bookID)
		if err != nil {
			return err
		}
		borrowing.Book = book

		_, err = tx.NewInsert().Model(borrowing).Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	_, _ = s.notificationService.Send(ctx, notifications.CreateOptions{
		UserID:  userID,
		BookID:  &bookID,
		Title:   "Book borrowed",
		Message: fmt.Sprintf("You borrowed %q. It is due on %s.", borrowing.Book.Title, borrowing.DueDate.Format("January 2, 2006")),
		Type:    models.NotificationTypeBorrow,
	})

	return borrowing, nil
}

// ReturnResult describes the outcome of a return: the closed loan, any
// fine frozen onto it, and the reservation that was promoted by the freed
// copy, if any.
type ReturnResult struct {
	Borrowing   *models.Borrowing   `json:"borrowing"`
	Fine        float64             `json:"fine"`
	FulfilledBy *models.Reservation `json:"fulfilled_reservation,omitempty"`
}

// Return closes an active loan. Only the borrower or staff may return it.
// The fine is computed once here and stored; returning an already-closed
// loan is rejected rather than silently recounted. When the freed copy has
// a reservation queue, the oldest hold is fulfilled in the same
// transaction and its owner is notified.
func (s *Service) Return(ctx context.Context, borrowingID int, actor *models.User) (*ReturnResult, error) {
	now := time.Now().UTC()
	result := &ReturnResult{}

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		borrowing := &models.Borrowing{}
		err := tx.NewSelect().
			Model(borrowing).
			Relation("Book").
			Where("bw.id = ?", borrowingID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Borrowing")
			}
			return errors.WithStack(err)
		}

		if borrowing.UserID != actor.ID && !actor.IsStaff() {
			return errcodes.Forbidden("Returning another user's loan")
		}
		if borrowing.ReturnedAt != nil {
			return errcodes.AlreadyReturned()
		}

		fine := borrowing.CalculateFine(now, s.fineRatePerDay)
		borrowing.ReturnedAt = &now
		borrowing.FinePaid = fine
		borrowing.UpdatedAt = now

		_, err = tx.NewUpdate().
			Model(borrowing).
			Column("returned_at", "fine_paid", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		book, err := s.catalogService.ReleaseCopy(ctx, tx, borrowing.BookID)
		if err != nil {
			return err
		}
		borrowing.Book = book

		fulfilled, err := s.reservationService.FulfillNext(ctx, tx, borrowing.BookID)
		if err != nil {
			return err
		}

		result.Borrowing = borrowing
		result.Fine = fine
		result.FulfilledBy = fulfilled
		return nil
	})
	if err != nil {
		return nil, err
	}

	borrowing := result.Borrowing
	message := fmt.Sprintf("You returned %q.", borrowing.Book.Title)
	if result.Fine > 0 {
		message = fmt.Sprintf("You returned %q with a late fine of %.2f.", borrowing.Book.Title, result.Fine)
	}
	_, _ = s.notificationService.Send(ctx, notifications.CreateOptions{
		UserID:  borrowing.UserID,
		BookID:  &borrowing.BookID,
		Title:   "Book returned",
		Message: message,
		Type:    models.NotificationTypeInfo,
	})

	if result.FulfilledBy != nil {
		_, _ = s.notificationService.Send(ctx, notifications.CreateOptions{
			UserID:  result.FulfilledBy.UserID,
			BookID:  &borrowing.BookID,
			Title:   "Reserved book available",
			Message: fmt.Sprintf("%q is now available for you to borrow.", borrowing.Book.Title),
			Type:    models.NotificationTypeAvailable,
			TTL:     notifications.AvailableTTL,
		})
	}

	return result, nil
}

// ListOptions contains options for listing borrowings.
type ListOptions struct {
	Limit       int
	Offset      int
	UserID      *int
	BookID      *int
	ActiveOnly  bool
	OverdueOnly bool
}

// List returns borrowings, newest first. Overdue filtering and fine
// projection use the current clock; stored fines on closed loans are
// returned as-is.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.Borrowing, int, error) {
	borrowings := []*models.Borrowing{}
	now := time.Now().UTC()

	query := s.db.NewSelect().
		Model(&borrowings).
		Relation("User").
		Relation("Book").
		Order("bw.borrowed_at DESC", "bw.id DESC")

	if opts.UserID != nil {
		query = query.Where("bw.user_id = ?", *opts.UserID)
	}
	if opts.BookID != nil {
		query = query.Where("bw.book_id = ?", *opts.BookID)
	}
	if opts.ActiveOnly || opts.OverdueOnly {
		query = query.Where("bw.returned_at IS NULL")
	}
	if opts.OverdueOnly {
		query = query.Where("bw.due_date < ?", now)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return borrowings, total, nil
}

// Retrieve gets a borrowing by ID with its user and book.
func (s *Service) Retrieve(ctx context.Context, id int) (*models.Borrowing, error) {
	borrowing := &models.Borrowing{}
	err := s.db.NewSelect().
		Model(borrowing).
		Relation("User").
		Relation("Book").
		Where("bw.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Borrowing")
		}
		return nil, errors.WithStack(err)
	}
	return borrowing, nil
}

// Overdue returns every active loan past its due date, for the reminder
// sweep.
func (s *Service) Overdue(ctx context.Context, now time.Time) ([]*models.Borrowing, error) {
	borrowings := []*models.Borrowing{}
	err := s.db.NewSelect().
		Model(&borrowings).
		Relation("User").
		Relation("Book").
		Where("bw.returned_at IS NULL").
		Where("bw.due_date < ?", now).
		Order("bw.due_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return borrowings, nil
}
