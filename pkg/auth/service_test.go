package auth

import (
	"context"
	"database/sql"
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

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestServiceRegister_CreatesStudent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, "test-secret")
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterOptions{
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleStudent, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.True(t, CheckPassword("password123", user.PasswordHash))
}

func TestServiceRegister_UsernameTakenCaseInsensitive(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, "test-secret")
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterOptions{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterOptions{Username: "ALICE", Password: "password456"})
	require.Error(t, err)

	var codedErr *errcodes.Error
	require.ErrorAs(t, err, &codedErr)
	assert.Equal(t, 422, codedErr.HTTPCode)
}

func TestServiceAuthenticate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, "test-secret")
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterOptions{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	require.Error(t, err)

	var codedErr *errcodes.Error
	require.ErrorAs(t, err, &codedErr)
	assert.Equal(t, 401, codedErr.HTTPCode)
}

func TestServiceAuthenticate_InactiveUserRejected(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, "test-secret")
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterOptions{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	_, err = db.NewUpdate().
		Model(user).
		Set("is_active = FALSE").
		WherePK().
		Exec(ctx)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "alice", "password123")
	require.Error(t, err)
}

func TestServiceTokenRoundTrip(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, "test-secret")
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterOptions{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestServiceValidateToken_WrongSecret(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, "test-secret")
	other := NewService(db, "other-secret")
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterOptions{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	require.Error(t, err)
}

func TestServiceEnsureAdmin(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db, "test-secret")
	ctx := context.Background()

	admin, err := svc.EnsureAdmin(ctx, "admin", "supersecret")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	// A second call on a populated database is a no-op.
	again, err := svc.EnsureAdmin(ctx, "admin2", "supersecret")
	require.NoError(t, err)
	assert.Nil(t, again)
}
