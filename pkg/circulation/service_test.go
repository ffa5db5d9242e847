package circulation

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/smartshelf/smartshelf/pkg/catalog"
	"github.com/smartshelf/smartshelf/pkg/errcodes"
	"github.com/smartshelf/smartshelf/pkg/migrations"
	"github.com/smartshelf/smartshelf/pkg/models"
	"github.com/smartshelf/smartshelf/pkg/notifications"
	"github.com/smartshelf/smartshelf/pkg/reservations"
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

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newTestService(t *testing.T, db *bun.DB) *Service {
	t.Helper()

	return NewService(
		db,
		catalog.NewService(db),
		reservations.NewService(db),
		notifications.NewService(db, notifications.NewHub()),
		Options{LoanPeriodDays: 14, FineRatePerDay: 10},
	)
}

func createTestUser(ctx context.Context, t *testing.T, db *bun.DB, username, role string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	_, err := db.NewInsert().Model(user).Exec(ctx)
	require.NoError(t, err)

	return user
}

func createTestBook(ctx context.Context, t *testing.T, db *bun.DB, barcode string, copies int) *models.Book {
	t.Helper()

	book := &models.Book{
		Title:           "Test Book " + barcode,
		Author:          "Author",
		ISBN:            "isbn-" + barcode,
		Barcode:         barcode,
		Genre:           "Fiction",
		RackNo:          "A1",
		Status:          models.BookStatusAvailable,
		TotalCopies:     copies,
		AvailableCopies: copies,
	}
	_, err := db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)

	return book
}

func getBook(ctx context.Context, t *testing.T, db *bun.DB, id int) *models.Book {
	t.Helper()

	book := &models.Book{}
	err := db.NewSelect().Model(book).Where("b.id = ?", id).Scan(ctx)
	require.NoError(t, err)

	return book
}

func backdateBorrowing(ctx context.Context, t *testing.T, db *bun.DB, borrowing *models.Borrowing, overdueBy time.Duration) {
	t.Helper()

	borrowing.DueDate = time.Now().UTC().Add(-overdueBy)
	borrowing.BorrowedAt = borrowing.DueDate.Add(-14 * 24 * time.Hour)
	_, err := db.NewUpdate().
		Model(borrowing).
		Column("borrowed_at", "due_date").
		WherePK().
		Exec(ctx)
	require.NoError(t, err)
}

func TestServiceBorrow_SetsDueDateAndDecrementsCopies(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "alice", models.RoleStudent)
	book := createTestBook(ctx, t, db, "BC-001", 2)

	borrowing, err := svc.Borrow(ctx, user.ID, book.ID)
	require.NoError(t, err)

	assert.WithinDuration(t, borrowing.BorrowedAt.Add(14*24*time.Hour), borrowing.DueDate, time.Second)
	assert.Nil(t, borrowing.ReturnedAt)

	updated := getBook(ctx, t, db, book.ID)
	assert.Equal(t, 1, updated.AvailableCopies)
}

func TestServiceBorrow_SecondActiveLoanRejected(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "alice", models.RoleStudent)
	book := createTestBook(ctx, t, db, "BC-001", 2)

	_, err := svc.Borrow(ctx, user.ID, book.ID)
	require.NoError(t, err)

	_, err = svc.Borrow(ctx, user.ID, book.ID)
	require.Error(t, err)

	var codedErr *errcodes.Error
	require.ErrorAs(t, err, &codedErr)
	assert.Equal(t, "already_borrowed", codedErr.Code)

	// The failed attempt must not leak a copy.
	updated := getBook(ctx, t, db, book.ID)
	assert.Equal(t, 1, updated.AvailableCopies)
}

func TestServiceBorrow_LastCopyGone(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	alice := createTestUser(ctx, t, db, "alice", models.RoleStudent)
	bob := createTestUser(ctx, t, db, "bob", models.RoleStudent)
	book := createTestBook(ctx, t, db, "BC-001", 1)

	_, err := svc.Borrow(ctx, alice.ID, book.ID)
	require.NoError(t, err)

	_, err = svc.Borrow(ctx, bob.ID, book.ID)
	require.Error(t, err)

	var codedErr *errcodes.Error
	require.ErrorAs(t, err, &codedErr)
	assert.Equal(t, "unavailable", codedErr.Code)
}

func TestServiceReturn_OnTimeHasNoFine(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "alice", models.RoleStudent)
	book := createTestBook(ctx, t, db, "BC-001", 1)

	borrowing, err := svc.Borrow(ctx, user.ID, book.ID)
	require.NoError(t, err)

	result, err := svc.Return(ctx, borrowing.ID, user)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Fine)
	require.NotNil(t, result.Borrowing.ReturnedAt)

	updated := getBook(ctx, t, db, book.ID)
	assert.Equal(t, 1, updated.AvailableCopies)
	assert.Equal(t, models.BookStatusAvailable, updated.Status)
}

func TestServiceReturn_ThreeDaysLateFinesThirty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "alice", models.RoleStudent)
	book := createTestBook(ctx, t, db, "BC-001", 1)

	borrowing, err := svc.Borrow(ctx, user.ID, book.ID)
	require.NoError(t, err)
	backdateBorrowing(ctx, t, db, borrowing, 3*24*time.Hour+time.Minute)

	result, err := svc.Return(ctx, borrowing.ID, user)
	require.NoError(t, err)

	assert.Equal(t, 30.0, result.Fine)
	assert.Equal(t, 30.0, result.Borrowing.FinePaid)
}

func TestServiceReturn_PartialDayTruncates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "alice", models.RoleStudent)
	book := createTestBook(ctx, t, db, "BC-001", 1)

	borrowing, err := svc.Borrow(ctx, user.ID, book.ID)
	require.NoError(t, err)

	// Kept 16 days on a 14-day loan: two whole days over.
	backdateBorrowing(ctx, t, db, borrowing, 2*24*time.Hour+6*time.Hour)

	result, err := svc.Return(ctx, borrowing.ID, user)
	require.NoError(t, err)

	assert.Equal(t, 20.0, result.Fine)
}

func TestServiceReturn_SecondReturnRejected(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "alice", models.RoleStudent)
	book := createTestBook(ctx, t, db, "BC-001", 1)

	borrowing, err := svc.Borrow(ctx, user.ID, book.ID)
	require.NoError(t, err)

	_, err = svc.Return(ctx, borrowing.ID, user)
	require.NoError(t, err)

	_, err = svc.Return(ctx, borrowing.ID, user)
	require.Error(t, err)

	var codedErr *errcodes.Error
	require.ErrorAs(t, err, &codedErr)
	assert.Equal(t, "already_returned", codedErr.Code)

	// A rejected double return must not bump the counter past total.
	updated := getBook(ctx, t, db, book.ID)
	assert.Equal(t, 1, updated.AvailableCopies)
}

func TestServiceReturn_OnlyBorrowerOrStaff(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	alice := createTestUser(ctx, t, db, "alice", models.RoleStudent)
	bob := createTestUser(ctx, t, db, "bob", models.RoleStudent)
	librarian := createTestUser(ctx, t, db, "lib", models.RoleLibrarian)
	book := createTestBook(ctx, t, db, "BC-001", 2)

	borrowing, err := svc.Borrow(ctx, alice.ID, book.ID)
	require.NoError(t, err)

	_, err = svc.Return(ctx, borrowing.ID, bob)
	require.Error(t, err)

	var codedErr *errcodes.Error
	require.ErrorAs(t, err, &codedErr)
	assert.Equal(t, 403, codedErr.HTTPCode)

	_, err = svc.Return(ctx, borrowing.ID, librarian)
	require.NoError(t, err)
}

func TestServiceReturn_FulfillsOldestReservation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	alice := createTestUser(ctx, t, db, "alice", models.RoleStudent)
	bob := createTestUser(ctx, t, db, "bob", models.RoleStudent)
	carol := createTestUser(ctx, t, db, "carol", models.RoleStudent)
	book := createTestBook(ctx, t, db, "BC-001", 1)

	borrowing, err := svc.Borrow(ctx, alice.ID, book.ID)
	require.NoError(t, err)

	reservationSvc := reservations.NewService(db)
	first, err := reservationSvc.Reserve(ctx, bob.ID, book.ID)
	require.NoError(t, err)

	second, err := reservationSvc.Reserve(ctx, carol.ID, book.ID)
	require.NoError(t, err)
	second.ReservedAt = first.ReservedAt.Add(time.Minute)
	_, err = db.NewUpdate().Model(second).Column("reserved_at").WherePK().Exec(ctx)
	require.NoError(t, err)

	result, err := svc.Return(ctx, borrowing.ID, alice)
	require.NoError(t, err)

	require.NotNil(t, result.FulfilledBy)
	assert.Equal(t, bob.ID, result.FulfilledBy.UserID)

	// Only one hold is promoted per return.
	remaining, _, err := reservationSvc.List(ctx, reservations.ListOptions{
		BookID:     &book.ID,
		ActiveOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, carol.ID, remaining[0].UserID)
}

func TestServiceList_OverdueProjection(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "alice", models.RoleStudent)
	book := createTestBook(ctx, t, db, "BC-001", 2)

	borrowing, err := svc.Borrow(ctx, user.ID, book.ID)
	require.NoError(t, err)
	backdateBorrowing(ctx, t, db, borrowing, 5*24*time.Hour+time.Minute)

	overdue, _, err := svc.List(ctx, ListOptions{UserID: &user.ID, OverdueOnly: true})
	require.NoError(t, err)
	require.Len(t, overdue, 1)

	now := time.Now().UTC()
	assert.True(t, overdue[0].IsOverdue(now))
	assert.Equal(t, 5, overdue[0].DaysOverdue(now))
	assert.Equal(t, 50.0, overdue[0].CalculateFine(now, svc.FineRatePerDay()))
}

func TestServiceReturn_ResultReflectsReleasedCopy(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "alice", models.RoleStudent)
	book := createTestBook(ctx, t, db, "BC-001", 1)

	borrowing, err := svc.Borrow(ctx, user.ID, book.ID)
	require.NoError(t, err)

	result, err := svc.Return(ctx, borrowing.ID, user)
	require.NoError(t, err)

	require.NotNil(t, result.Borrowing.Book)
	assert.Equal(t, 1, result.Borrowing.Book.AvailableCopies)
	assert.Equal(t, models.BookStatusAvailable, result.Borrowing.Book.Status)
}
