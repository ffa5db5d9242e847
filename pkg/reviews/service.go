package reviews

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/smartshelf/smartshelf/pkg/errcodes"
	"github.com/smartshelf/smartshelf/pkg/models"
	"github.com/uptrace/bun"
)

// Service handles book reviews and keeps the denormalized average rating
// on the book in step with them.
type Service struct {
	db *bun.DB
}

// NewService creates a new reviews service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// SubmitOptions contains options for submitting a review.
type SubmitOptions struct {
	UserID     int
	BookID     int
	Rating     int
	ReviewText string
}

// Submit records the user's review of a book. A second submission by the
// same user replaces their earlier one instead of adding a row. The book's
// average rating is recomputed in the same transaction.
func (s *Service) Submit(ctx context.Context, opts SubmitOptions) (*models.Review, error) {
	if opts.Rating < 1 || opts.Rating > 5 {
		return nil, errcodes.InvalidRating()
	}

	review := &models.Review{}

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Book)(nil)).
			Where("id = ?", opts.BookID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Book")
		}

		err = tx.NewSelect().
			Model(review).
			Where("rv.user_id = ?", opts.UserID).
			Where("rv.book_id = ?", opts.BookID).
			Scan(ctx)
		now := time.Now().UTC()
		switch {
		case errors.Is(err, sql.ErrNoRows):
			review.CreatedAt = now
			review.UpdatedAt = now
			review.UserID = opts.UserID
			review.BookID = opts.BookID
			review.Rating = opts.Rating
			review.ReviewText = opts.ReviewText
			if _, err := tx.NewInsert().Model(review).Exec(ctx); err != nil {
				return errors.WithStack(err)
			}
		case err != nil:
			return errors.WithStack(err)
		default:
			review.Rating = opts.Rating
			review.ReviewText = opts.ReviewText
			review.UpdatedAt = now
			_, err = tx.NewUpdate().
				Model(review).
				Column("rating", "review_text", "updated_at").
				WherePK().
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		return s.recomputeAverage(ctx, tx, opts.BookID)
	})
	if err != nil {
		return nil, err
	}

	return review, nil
}

// recomputeAverage writes the mean rating of all reviews for the book,
// rounded to two decimals, onto the book row. Zero reviews means zero.
func (s *Service) recomputeAverage(ctx context.Context, idb bun.IDB, bookID int) error {
	var avg sql.NullFloat64
	err := idb.NewSelect().
		Model((*models.Review)(nil)).
		ColumnExpr("AVG(rating)").
		Where("book_id = ?", bookID).
		Scan(ctx, &avg)
	if err != nil {
		return errors.WithStack(err)
	}

	rounded := math.Round(avg.Float64*100) / 100

	_, err = idb.NewUpdate().
		Model((*models.Book)(nil)).
		Set("average_rating = ?", rounded).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", bookID).
		Exec(ctx)
	return errors.WithStack(err)
}

// MarkHelpful bumps the helpful counter on a review.
func (s *Service) MarkHelpful(ctx context.Context, reviewID int) (*models.Review, error) {
	review := &models.Review{}
	err := s.db.NewSelect().
		Model(review).
		Where("rv.id = ?", reviewID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Review")
		}
		return nil, errors.WithStack(err)
	}

	review.HelpfulCount++
	review.UpdatedAt = time.Now().UTC()
	_, err = s.db.NewUpdate().
		Model(review).
		Column("helpful_count", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return review, nil
}

// ListOptions contains options for listing reviews.
type ListOptions struct {
	BookID int
	Limit  int
	Offset int
}

// List returns a book's reviews, most helpful first, then newest.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.Review, int, error) {
	reviews := []*models.Review{}

	query := s.db.NewSelect().
		Model(&reviews).
		Relation("User").
		Where("rv.book_id = ?", opts.BookID).
		Order("rv.helpful_count DESC", "rv.created_at DESC", "rv.id DESC")

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

	return reviews, total, nil
}
