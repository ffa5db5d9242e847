package notifications

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/smartshelf/smartshelf/pkg/errcodes"
	"github.com/smartshelf/smartshelf/pkg/models"
	"github.com/uptrace/bun"
)

const (
	// DefaultTTL is how long a notification stays relevant. Expiry is
	// advisory; rows are not auto-deleted.
	DefaultTTL = 30 * 24 * time.Hour
	// AvailableTTL is the shorter window used for "reserved book available"
	// notices, matching the hold window on the shelf.
	AvailableTTL = 7 * 24 * time.Hour
)

// Service handles notification persistence and delivery.
type Service struct {
	db  *bun.DB
	hub *Hub
}

// NewService creates a new notifications service.
func NewService(db *bun.DB, hub *Hub) *Service {
	return &Service{db: db, hub: hub}
}

// Hub returns the live-delivery hub.
func (s *Service) Hub() *Hub {
	return s.hub
}

// CreateOptions contains options for creating a notification.
type CreateOptions struct {
	UserID  int
	BookID  *int
	Title   string
	Message string
	Type    string
	TTL     time.Duration
}

// Create inserts a notification row using the given DB handle, which may be
// a transaction. Delivery over the hub is the caller's responsibility (via
// Publish) once the transaction commits; the persisted row is the source of
// truth.
func (s *Service) Create(ctx context.Context, idb bun.IDB, opts CreateOptions) (*models.Notification, error) {
	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	now := time.Now().UTC()
	n := &models.Notification{
		CreatedAt: now,
		UpdatedAt: now,
		UserID:    opts.UserID,
		BookID:    opts.BookID,
		Title:     opts.Title,
		Message:   opts.Message,
		Type:      opts.Type,
		ExpiresAt: now.Add(ttl),
	}

	_, err := idb.NewInsert().Model(n).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return n, nil
}

// Publish pushes a notification to the user's live subscriptions.
// Best-effort: a lost push is not an error.
func (s *Service) Publish(n *models.Notification) {
	if s.hub == nil || n == nil {
		return
	}
	s.hub.Publish(n.UserID, n)
}

// Send creates a notification in its own transaction and pushes it. Used by
// callers that are not already inside a circulation transaction, like the
// overdue sweep.
func (s *Service) Send(ctx context.Context, opts CreateOptions) (*models.Notification, error) {
	n, err := s.Create(ctx, s.db, opts)
	if err != nil {
		return nil, err
	}
	s.Publish(n)
	return n, nil
}

// HasRecent reports whether the user already got a notification of the
// given type about the book within the window. Used to dedupe sweeps.
func (s *Service) HasRecent(ctx context.Context, userID, bookID int, notificationType string, window time.Duration) (bool, error) {
	cutoff := time.Now().UTC().Add(-window)
	exists, err := s.db.NewSelect().
		Model((*models.Notification)(nil)).
		Where("user_id = ?", userID).
		Where("book_id = ?", bookID).
		Where("type = ?", notificationType).
		Where("created_at >= ?", cutoff).
		Exists(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return exists, nil
}

// ListOptions contains options for listing a user's notifications.
type ListOptions struct {
	UserID     int
	UnreadOnly bool
	Limit      int
	Offset     int
}

// List returns a user's notifications, newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.Notification, int, error) {
	notifications := []*models.Notification{}

	query := s.db.NewSelect().
		Model(&notifications).
		Where("n.user_id = ?", opts.UserID).
		Order("n.created_at DESC", "n.id DESC")

	if opts.UnreadOnly {
		query = query.Where("n.is_read = ?", false)
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

	return notifications, total, nil
}

// MarkRead marks a notification read. Only the owning user may do so.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID int) (*models.Notification, error) {
	n := &models.Notification{}
	err := s.db.NewSelect().
		Model(n).
		Where("n.id = ?", notificationID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Notification")
		}
		return nil, errors.WithStack(err)
	}

	if n.UserID != userID {
		return nil, errcodes.Forbidden("Reading another user's notification")
	}

	if n.IsRead {
		return n, nil
	}

	n.IsRead = true
	n.UpdatedAt = time.Now().UTC()
	_, err = s.db.NewUpdate().
		Model(n).
		Column("is_read", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return n, nil
}

// UnreadCount returns the number of unread notifications for a user.
func (s *Service) UnreadCount(ctx context.Context, userID int) (int, error) {
	count, err := s.db.NewSelect().
		Model((*models.Notification)(nil)).
		Where("user_id = ?", userID).
		Where("is_read = ?", false).
		Count(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}
