package reservations

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/smartshelf/smartshelf/pkg/errcodes"
	"github.com/smartshelf/smartshelf/pkg/models"
	"github.com/uptrace/bun"
)

// Service manages the reservation queue. Queues are FIFO per book: the
// oldest unfulfilled, uncanceled reservation wins when a copy comes back.
type Service struct {
	db *bun.DB
}

// NewService creates a new reservations service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// Reserve places a hold for the user on a book that has no copies left. A
// user can hold at most one active reservation per book, and cannot
// reserve a book that is sitting on the shelf.
func (s *Service) Reserve(ctx context.Context, userID, bookID int) (*models.Reservation, error) {
	now := time.Now().UTC()
	reservation := &models.Reservation{
		CreatedAt:  now,
		UpdatedAt:  now,
		UserID:     userID,
		BookID:     bookID,
		ReservedAt: now,
	}

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		book := &models.Book{}
		err := tx.NewSelect().
			Model(book).
			Where("b.id = ?", bookID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Book")
			}
			return errors.WithStack(err)
		}

		if book.IsAvailable() {
			return errcodes.BookAvailable()
		}

		exists, err := tx.NewSelect().
			Model((*models.Reservation)(nil)).
			Where("user_id = ?", userID).
			Where("book_id = ?", bookID).
			Where("is_fulfilled = FALSE").
			Where("canceled_at IS NULL").
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if exists {
			return errcodes.AlreadyReserved()
		}

		_, err = tx.NewInsert().Model(reservation).Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	return reservation, nil
}

// FulfillNext marks the oldest active reservation for the book as
// fulfilled and returns it. It returns nil when the queue is empty. Runs
// inside the caller's transaction so fulfillment is atomic with the
// return that freed the copy.
func (s *Service) FulfillNext(ctx context.Context, idb bun.IDB, bookID int) (*models.Reservation, error) {
	reservation := &models.Reservation{}
	err := idb.NewSelect().
		Model(reservation).
		Relation("User").
		Relation("Book").
		Where("rs.book_id = ?", bookID).
		Where("rs.is_fulfilled = FALSE").
		Where("rs.canceled_at IS NULL").
		Order("rs.reserved_at ASC", "rs.id ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	now := time.Now().UTC()
	reservation.IsFulfilled = true
	reservation.FulfilledAt = &now
	reservation.UpdatedAt = now

	_, err = idb.NewUpdate().
		Model(reservation).
		Column("is_fulfilled", "fulfilled_at", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return reservation, nil
}

// Cancel withdraws an active reservation. Only the owner or staff may
// cancel it.
func (s *Service) Cancel(ctx context.Context, reservationID int, actor *models.User) (*models.Reservation, error) {
	reservation := &models.Reservation{}
	err := s.db.NewSelect().
		Model(reservation).
		Where("rs.id = ?", reservationID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Reservation")
		}
		return nil, errors.WithStack(err)
	}

	if reservation.UserID != actor.ID && !actor.IsStaff() {
		return nil, errcodes.Forbidden("Canceling another user's reservation")
	}
	if !reservation.IsActive() {
		return nil, errcodes.NotFound("Reservation")
	}

	now := time.Now().UTC()
	reservation.CanceledAt = &now
	reservation.UpdatedAt = now

	_, err = s.db.NewUpdate().
		Model(reservation).
		Column("canceled_at", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return reservation, nil
}

// ListOptions contains options for listing reservations.
type ListOptions struct {
	Limit      int
	Offset     int
	UserID     *int
	BookID     *int
	ActiveOnly bool
}

// List returns reservations, newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.Reservation, int, error) {
	reservations := []*models.Reservation{}

	query := s.db.NewSelect().
		Model(&reservations).
		Relation("User").
		Relation("Book").
		Order("rs.reserved_at DESC", "rs.id DESC")

	if opts.UserID != nil {
		query = query.Where("rs.user_id = ?", *opts.UserID)
	}
	if opts.BookID != nil {
		query = query.Where("rs.book_id = ?", *opts.BookID)
	}
	if opts.ActiveOnly {
		query = query.
			Where("rs.is_fulfilled = FALSE").
			Where("rs.canceled_at IS NULL")
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

	return reservations, total, nil
}
