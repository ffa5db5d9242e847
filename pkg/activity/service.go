package activity

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/smartshelf/smartshelf/pkg/models"
	"github.com/uptrace/bun"
)

// Service appends entries to the activity log. The log is observability
// data only; business rules never read it.
type Service struct {
	db *bun.DB
}

// NewService creates a new activity service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// Entry describes a single recorded action.
type Entry struct {
	Action    string
	UserID    *int
	BookID    *int
	Details   *string
	IPAddress *string
}

// Record appends an entry. It never returns an error: a failed audit write
// must not fail or roll back the operation that triggered it, so failures
// are logged and dropped.
func (s *Service) Record(ctx context.Context, entry Entry) {
	row := &models.ActivityLog{
		CreatedAt: time.Now().UTC(),
		UserID:    entry.UserID,
		BookID:    entry.BookID,
		Action:    entry.Action,
		Details:   entry.Details,
		IPAddress: entry.IPAddress,
	}

	_, err := s.db.NewInsert().Model(row).Exec(ctx)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Err(err).Warn("activity log write failed", logger.Data{"action": entry.Action})
	}
}

// ListOptions contains options for listing activity log entries.
type ListOptions struct {
	Limit  int
	Offset int
	UserID *int
	Action *string
}

// List returns recent activity entries, newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.ActivityLog, int, error) {
	entries := []*models.ActivityLog{}

	query := s.db.NewSelect().
		Model(&entries).
		Relation("User").
		Relation("Book").
		Order("al.created_at DESC", "al.id DESC")

	if opts.UserID != nil {
		query = query.Where("al.user_id = ?", *opts.UserID)
	}
	if opts.Action != nil {
		query = query.Where("al.action = ?", *opts.Action)
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

	return entries, total, nil
}
