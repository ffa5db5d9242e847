package catalog

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/smartshelf/smartshelf/pkg/errcodes"
	"github.com/smartshelf/smartshelf/pkg/migrations"
	"github.com/smartshelf/smartshelf/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.ExecContext(context.Background(), "PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func createTestBook(ctx context.Context, t *testing.T, svc *Service, isbn, barcode string, copies int) *models.Book {
	t.Helper()

	book, err := svc.Create(ctx, CreateBookOptions{
		Title:       "The Go Programming Language",
		Author:      "Alan Donovan",
		ISBN:        isbn,
		Barcode:     barcode,
		Genre:       "Programming",
		RackNo:      "A1",
		TotalCopies: copies,
	})
	require.NoError(t, err)

	return book
}

func TestServiceCreate_InitializesCounters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(ctx, t, svc, "9780134190440", "BC-001", 3)

	assert.Equal(t, models.BookStatusAvailable, book.Status)
	assert.Equal(t, 3, book.TotalCopies)
	assert.Equal(t, 3, book.AvailableCopies)
}

func TestServiceCreate_DuplicateISBN(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createTestBook(ctx, t, svc, "9780134190440", "BC-001", 1)

	_, err := svc.Create(ctx, CreateBookOptions{
		Title:       "Duplicate",
		Author:      "Someone",
		ISBN:        "9780134190440",
		Barcode:     "BC-002",
		Genre:       "Programming",
		RackNo:      "A1",
		TotalCopies: 1,
	})
	require.Error(t, err)

	var codedErr *errcodes.Error
	require.ErrorAs(t, err, &codedErr)
	assert.Equal(t, 422, codedErr.HTTPCode)
}

func TestServiceReserveCopy_DecrementsAndFlipsStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(ctx, t, svc, "9780134190440", "BC-001", 2)

	updated, err := svc.ReserveCopy(ctx, db, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.AvailableCopies)
	assert.Equal(t, models.BookStatusAvailable, updated.Status)

	updated, err = svc.ReserveCopy(ctx, db, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.AvailableCopies)
	assert.Equal(t, models.BookStatusBorrowed, updated.Status)
}

func TestServiceReserveCopy_NoCopiesLeft(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(ctx, t, svc, "9780134190440", "BC-001", 1)

	_, err := svc.ReserveCopy(ctx, db, book.ID)
	require.NoError(t, err)

	_, err = svc.ReserveCopy(ctx, db, book.ID)
	require.Error(t, err)

	var codedErr *errcodes.Error
	require.ErrorAs(t, err, &codedErr)
	assert.Equal(t, "unavailable", codedErr.Code)
}

func TestServiceReserveCopy_StatusOverrideBlocksLoan(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(ctx, t, svc, "9780134190440", "BC-001", 1)

	book.Status = models.BookStatusMaintenance
	require.NoError(t, svc.Update(ctx, book, UpdateOptions{Columns: []string{"status"}}))

	_, err := svc.ReserveCopy(ctx, db, book.ID)
	require.Error(t, err)

	var codedErr *errcodes.Error
	require.ErrorAs(t, err, &codedErr)
	assert.Equal(t, "unavailable", codedErr.Code)
}

func TestServiceReleaseCopy_RestoresAvailability(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(ctx, t, svc, "9780134190440", "BC-001", 1)

	_, err := svc.ReserveCopy(ctx, db, book.ID)
	require.NoError(t, err)

	updated, err := svc.ReleaseCopy(ctx, db, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.AvailableCopies)
	assert.Equal(t, models.BookStatusAvailable, updated.Status)
}

func TestServiceReleaseCopy_NeverExceedsTotal(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(ctx, t, svc, "9780134190440", "BC-001", 2)

	updated, err := svc.ReleaseCopy(ctx, db, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.AvailableCopies)
}

func TestServiceReleaseCopy_KeepsStatusOverride(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(ctx, t, svc, "9780134190440", "BC-001", 1)

	_, err := svc.ReserveCopy(ctx, db, book.ID)
	require.NoError(t, err)

	book.Status = models.BookStatusLost
	require.NoError(t, svc.Update(ctx, book, UpdateOptions{Columns: []string{"status"}}))

	updated, err := svc.ReleaseCopy(ctx, db, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.AvailableCopies)
	assert.Equal(t, models.BookStatusLost, updated.Status)
}

func TestServiceList_SearchAndFilters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createTestBook(ctx, t, svc, "9780134190440", "BC-001", 1)

	_, err := svc.Create(ctx, CreateBookOptions{
		Title:       "Dune",
		Author:      "Frank Herbert",
		ISBN:        "9780441172719",
		Barcode:     "BC-002",
		Genre:       "Science Fiction",
		RackNo:      "B2",
		TotalCopies: 1,
	})
	require.NoError(t, err)

	search := "dune"
	books, total, err := svc.List(ctx, ListOptions{Limit: 10, Search: &search})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "Dune", books[0].Title)

	genre := "Programming"
	books, total, err = svc.List(ctx, ListOptions{Limit: 10, Genre: &genre})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "The Go Programming Language", books[0].Title)
}

func TestServiceGenres_Distinct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createTestBook(ctx, t, svc, "9780134190440", "BC-001", 1)
	createTestBook(ctx, t, svc, "9780134190441", "BC-002", 1)

	genres, err := svc.Genres(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Programming"}, genres)
}

func TestServiceDelete_NotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	err := svc.Delete(ctx, 999)
	require.Error(t, err)

	var codedErr *errcodes.Error
	require.ErrorAs(t, err, &codedErr)
	assert.Equal(t, 404, codedErr.HTTPCode)
}

func TestServiceRecommendations_SameGenreAvailableOnly(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	base := createTestBook(ctx, t, svc, "9780134190440", "BC-001", 1)
	other := createTestBook(ctx, t, svc, "9780134190441", "BC-002", 1)
	borrowed := createTestBook(ctx, t, svc, "9780134190442", "BC-003", 1)

	_, err := svc.ReserveCopy(ctx, db, borrowed.ID)
	require.NoError(t, err)

	recs, err := svc.Recommendations(ctx, base.Genre, base.ID, 3)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, other.ID, recs[0].ID)
}

func TestServiceRetrieve_QueryFailureIsNotNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(ctx, t, svc, "9780134190440", "BC-001", 1)

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	_, err := svc.Retrieve(canceled, book.ID)
	require.Error(t, err)

	var codedErr *errcodes.Error
	if errors.As(err, &codedErr) {
		assert.NotEqual(t, 404, codedErr.HTTPCode)
	}
}

func TestServiceReserveCopy_QueryFailureIsNotNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(ctx, t, svc, "9780134190440", "BC-001", 1)

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	_, err := svc.ReserveCopy(canceled, db, book.ID)
	require.Error(t, err)

	var codedErr *errcodes.Error
	if errors.As(err, &codedErr) {
		assert.NotEqual(t, 404, codedErr.HTTPCode)
	}
}
