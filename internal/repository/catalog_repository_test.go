package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/review-desk-api/internal/models"
)

func newSQLMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestAccountUpsertReturnsStoredRow(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewAccountRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (email) DO UPDATE SET")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "access_token", "refresh_token", "token_expiry", "created_at", "updated_at"}).
			AddRow("acc-existing", "owner@example.com", "sealed-access", "sealed-refresh", now.Add(time.Hour), now.Add(-time.Hour), now))

	account := &models.Account{Email: "owner@example.com", AccessToken: "sealed-access"}
	require.NoError(t, repo.UpsertByEmail(context.Background(), account))
	assert.Equal(t, "acc-existing", account.ID)
	require.NotNil(t, account.RefreshToken)
	assert.Equal(t, "sealed-refresh", *account.RefreshToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountUpdateTokensMissing(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET access_token = $2")).
		WithArgs("gone", "sealed", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	expiry := time.Now().Add(time.Hour)
	err := repo.UpdateTokens(context.Background(), "gone", "sealed", nil, &expiry)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationListByAccount(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewLocationRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM locations WHERE account_id = $1 ORDER BY name, id")).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "location_id", "name", "address", "last_synced_at", "created_at", "updated_at"}).
			AddRow("loc-1", "acc-1", "123", "Cafe Luna", nil, nil, now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE locations SET last_synced_at = $2 WHERE id = $1")).
		WithArgs("loc-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	locations, err := repo.List(context.Background(), models.LocationFilter{AccountID: "acc-1"})
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "123", locations[0].LocationID)
	assert.Nil(t, locations[0].LastSyncedAt)

	require.NoError(t, repo.MarkSynced(context.Background(), "loc-1", now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewListUnrepliedPage(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewReviewRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reviews WHERE location_id = $1 AND (reply IS NULL OR reply = '')")).
		WithArgs("loc-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id LIMIT 10 OFFSET 10")).
		WithArgs("loc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "location_id", "review_id", "author_name", "rating", "comment", "reply", "reply_time", "created_at", "synced_at"}).
			AddRow("rev-11", "loc-1", "g-11", "Jane", 5, "Great", nil, nil, now, now))

	reviews, total, err := repo.List(context.Background(), models.ReviewFilter{LocationID: "loc-1", Unreplied: true, Limit: 10, Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, reviews, 1)
	assert.False(t, reviews[0].HasReply())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClampPage(t *testing.T) {
	limit, offset := clampPage(0, -5)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 0, offset)

	limit, _ = clampPage(500, 0)
	assert.Equal(t, 50, limit)

	limit, offset = clampPage(25, 75)
	assert.Equal(t, 25, limit)
	assert.Equal(t, 75, offset)
}
