package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/smartshelf/smartshelf/pkg/errcodes"
	"github.com/smartshelf/smartshelf/pkg/models"
	"github.com/uptrace/bun"
)

// Service handles catalog operations and owns the book copy-count
// invariants: available_copies never goes negative or above total_copies,
// and status tracks the counter unless staff have set a LOST/MAINTENANCE
// override.
type Service struct {
	db *bun.DB
}

// NewService creates a new catalog service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// CreateBookOptions contains options for creating a book.
type CreateBookOptions struct {
	Title           string
	Author          string
	ISBN            string
	Barcode         string
	Genre           string
	Category        *string
	RackNo          string
	ShelfNo         *string
	Edition         *string
	PublicationYear *int
	Publisher       *string
	Pages           *int
	Description     *string
	TotalCopies     int
}

// Create adds a new book to the catalog.
func (s *Service) Create(ctx context.Context, opts CreateBookOptions) (*models.Book, error) {
	for _, field := range []struct {
		column string
		label  string
		value  string
	}{
		{"isbn", "ISBN", opts.ISBN},
		{"barcode", "Barcode", opts.Barcode},
	} {
		exists, err := s.db.NewSelect().
			Model((*models.Book)(nil)).
			Where("? = ?", bun.Ident(field.column), field.value).
			Exists(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if exists {
			return nil, errcodes.ValidationError(field.label + " already exists")
		}
	}

	now := time.Now().UTC()
	book := &models.Book{
		CreatedAt:       now,
		UpdatedAt:       now,
		Title:           opts.Title,
		Author:          opts.Author,
		ISBN:            opts.ISBN,
		Barcode:         opts.Barcode,
		Genre:           opts.Genre,
		Category:        opts.Category,
		RackNo:          opts.RackNo,
		ShelfNo:         opts.ShelfNo,
		Edition:         opts.Edition,
		PublicationYear: opts.PublicationYear,
		Publisher:       opts.Publisher,
		Pages:           opts.Pages,
		Description:     opts.Description,
		Status:          models.BookStatusAvailable,
		TotalCopies:     opts.TotalCopies,
		AvailableCopies: opts.TotalCopies,
	}

	_, err := s.db.NewInsert().Model(book).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return book, nil
}

// Retrieve gets a book by ID.
func (s *Service) Retrieve(ctx context.Context, id int) (*models.Book, error) {
	book := &models.Book{}
	err := s.db.NewSelect().
		Model(book).
		Where("b.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}
	return book, nil
}

// RetrieveByBarcode gets a book by its barcode.
func (s *Service) RetrieveByBarcode(ctx context.Context, barcode string) (*models.Book, error) {
	book := &models.Book{}
	err := s.db.NewSelect().
		Model(book).
		Where("b.barcode = ?", barcode).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}
	return book, nil
}

// ListOptions contains options for listing books.
type ListOptions struct {
	Limit  int
	Offset int
	Search *string
	Genre  *string
	Status *string
}

// List returns a paginated, filtered list of books.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}

	query := s.db.NewSelect().
		Model(&books).
		Order("b.created_at DESC", "b.id DESC")

	if opts.Search != nil && *opts.Search != "" {
		pattern := "%" + *opts.Search + "%"
		query = query.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("b.title LIKE ?", pattern).
				WhereOr("b.author LIKE ?", pattern).
				WhereOr("b.isbn LIKE ?", pattern)
		})
	}
	if opts.Genre != nil && *opts.Genre != "" {
		query = query.Where("b.genre = ?", *opts.Genre)
	}
	if opts.Status != nil && *opts.Status != "" {
		query = query.Where("b.status = ?", *opts.Status)
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

	return books, total, nil
}

// Genres returns the distinct genres in the catalog.
func (s *Service) Genres(ctx context.Context) ([]string, error) {
	genres := []string{}
	err := s.db.NewSelect().
		Model((*models.Book)(nil)).
		ColumnExpr("DISTINCT genre").
		Order("genre ASC").
		Scan(ctx, &genres)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return genres, nil
}

// UpdateOptions contains options for updating a book.
type UpdateOptions struct {
	Columns []string
}

// Update updates a book's columns.
func (s *Service) Update(ctx context.Context, book *models.Book, opts UpdateOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}
	book.UpdatedAt = time.Now().UTC()
	opts.Columns = append(opts.Columns, "updated_at")
	_, err := s.db.NewUpdate().
		Model(book).
		Column(opts.Columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Delete removes a book. Dependent borrowings, reservations, reviews and
// activity rows cascade at the schema level.
func (s *Service) Delete(ctx context.Context, id int) error {
	res, err := s.db.NewDelete().
		Model((*models.Book)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errcodes.NotFound("Book")
	}
	return nil
}

// ReserveCopy takes one available copy of the book for a loan. It must run
// inside the borrowing transaction so the check and decrement are
// serialized per book. When the counter reaches zero the status flips to
// BORROWED unless a LOST/MAINTENANCE override is set.
func (s *Service) ReserveCopy(ctx context.Context, idb bun.IDB, bookID int) (*models.Book, error) {
	book := &models.Book{}
	err := idb.NewSelect().
		Model(book).
		Where("b.id = ?", bookID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	if book.AvailableCopies <= 0 || book.HasStatusOverride() {
		return nil, errcodes.Unavailable(book.Title)
	}

	book.AvailableCopies--
	if book.AvailableCopies == 0 && !book.HasStatusOverride() {
		book.Status = models.BookStatusBorrowed
	}
	book.UpdatedAt = time.Now().UTC()

	_, err = idb.NewUpdate().
		Model(book).
		Column("available_copies", "status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return book, nil
}

// ReleaseCopy puts a copy back after a return. The status only resets to
// AVAILABLE when it is currently BORROWED, so a manually set
// LOST/MAINTENANCE state is never clobbered by circulation.
func (s *Service) ReleaseCopy(ctx context.Context, idb bun.IDB, bookID int) (*models.Book, error) {
	book := &models.Book{}
	err := idb.NewSelect().
		Model(book).
		Where("b.id = ?", bookID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	if book.AvailableCopies < book.TotalCopies {
		book.AvailableCopies++
	}
	if book.Status == models.BookStatusBorrowed && book.AvailableCopies > 0 {
		book.Status = models.BookStatusAvailable
	}
	book.UpdatedAt = time.Now().UTC()

	_, err = idb.NewUpdate().
		Model(book).
		Column("available_copies", "status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return book, nil
}

// MarkLocationVerified stamps the book as seen on its shelf.
func (s *Service) MarkLocationVerified(ctx context.Context, bookID int, at time.Time) error {
	_, err := s.db.NewUpdate().
		Model((*models.Book)(nil)).
		Set("last_location_verified = ?", at).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// CurrentBorrower returns the user holding the only outstanding copy trail
// for the book, or nil when nobody has it. Used by the real-time status
// endpoint.
func (s *Service) CurrentBorrower(ctx context.Context, bookID int) (*models.User, error) {
	borrowing := &models.Borrowing{}
	err := s.db.NewSelect().
		Model(borrowing).
		Relation("User").
		Where("bw.book_id = ?", bookID).
		Where("bw.returned_at IS NULL").
		Order("bw.borrowed_at ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return borrowing.User, nil
}

// Recommendations returns up to limit available books in the same genre,
// excluding the given book.
func (s *Service) Recommendations(ctx context.Context, genre string, excludeBookID, limit int) ([]*models.Book, error) {
	books := []*models.Book{}
	err := s.db.NewSelect().
		Model(&books).
		Where("b.genre = ?", genre).
		Where("b.status = ?", models.BookStatusAvailable).
		Where("b.id != ?", excludeBookID).
		Order("b.average_rating DESC", "b.id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return books, nil
}
