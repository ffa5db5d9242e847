package notifications

import (
	"context"
	"database/sql"
	"testing"
	"time"

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

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func createTestUser(ctx context.Context, t *testing.T, db *bun.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		PasswordHash: "x",
		Role:         models.RoleStudent,
		IsActive:     true,
	}
	_, err := db.NewInsert().Model(user).Exec(ctx)
	require.NoError(t, err)

	return user
}

func TestServiceSend_SetsExpiry(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, NewHub())
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "alice")

	n, err := svc.Send(ctx, CreateOptions{
		UserID:  user.ID,
		Title:   "Hello",
		Message: "World",
		Type:    models.NotificationTypeInfo,
	})
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(DefaultTTL), n.ExpiresAt, time.Minute)
	assert.False(t, n.IsRead)
}

func TestServiceSend_CustomTTL(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, NewHub())
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "alice")

	n, err := svc.Send(ctx, CreateOptions{
		UserID:  user.ID,
		Title:   "Ready",
		Message: "Your hold is ready",
		Type:    models.NotificationTypeAvailable,
		TTL:     AvailableTTL,
	})
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(AvailableTTL), n.ExpiresAt, time.Minute)
}

func TestServiceMarkRead_OwnershipEnforced(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, NewHub())
	ctx := context.Background()

	alice := createTestUser(ctx, t, db, "alice")
	bob := createTestUser(ctx, t, db, "bob")

	n, err := svc.Send(ctx, CreateOptions{
		UserID:  alice.ID,
		Title:   "Hello",
		Message: "World",
		Type:    models.NotificationTypeInfo,
	})
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, bob.ID, n.ID)
	require.Error(t, err)

	var codedErr *errcodes.Error
	require.ErrorAs(t, err, &codedErr)
	assert.Equal(t, 403, codedErr.HTTPCode)

	read, err := svc.MarkRead(ctx, alice.ID, n.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
}

func TestServiceUnreadCount(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, NewHub())
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "alice")

	for i := 0; i < 3; i++ {
		_, err := svc.Send(ctx, CreateOptions{
			UserID:  user.ID,
			Title:   "Hello",
			Message: "World",
			Type:    models.NotificationTypeInfo,
		})
		require.NoError(t, err)
	}

	count, err := svc.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	list, total, err := svc.List(ctx, ListOptions{UserID: user.ID, UnreadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.NotEmpty(t, list)

	_, err = svc.MarkRead(ctx, user.ID, list[0].ID)
	require.NoError(t, err)

	count, err = svc.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestServiceHasRecent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, NewHub())
	ctx := context.Background()

	user := createTestUser(ctx, t, db, "alice")
	bookID := 42

	recent, err := svc.HasRecent(ctx, user.ID, bookID, models.NotificationTypeOverdue, 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, recent)

	_, err = svc.Send(ctx, CreateOptions{
		UserID:  user.ID,
		BookID:  &bookID,
		Title:   "Book overdue",
		Message: "Bring it back",
		Type:    models.NotificationTypeOverdue,
	})
	require.NoError(t, err)

	recent, err = svc.HasRecent(ctx, user.ID, bookID, models.NotificationTypeOverdue, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, recent)

	// A different type within the window doesn't count.
	recent, err = svc.HasRecent(ctx, user.ID, bookID, models.NotificationTypeReminder, 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, recent)
}
