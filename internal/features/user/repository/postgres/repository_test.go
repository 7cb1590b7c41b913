package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moments-backend/internal/features/user/repository"
)

var userCols = []string{"id", "wallet_address", "is_verified", "identity_id", "created_at", "updated_at"}

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestGetByWallet_NotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE wallet_address = $1")).
		WithArgs("0xabc").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByWallet(context.Background(), "0xabc")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestEnsureUser_Unverified(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (wallet_address)")).
		WithArgs(sqlmock.AnyArg(), "0xabc").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "0xabc", false, "", now, now))

	u, err := repo.EnsureUser(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.False(t, u.IsVerified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetVerified(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("is_verified = TRUE")).
		WithArgs(sqlmock.AnyArg(), "0xabc", "id-42").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "0xabc", true, "id-42", now, now))

	u, err := repo.SetVerified(context.Background(), "0xabc", "id-42")
	require.NoError(t, err)
	assert.True(t, u.IsVerified)
	assert.Equal(t, "id-42", u.IdentityID)
}
