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

func newTemplateMock(t *testing.T) (*TemplateRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTemplateRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestTemplateRepositoryListActiveOnly(t *testing.T) {
	repo, mock := newTemplateMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM reply_templates WHERE is_active = TRUE ORDER BY rating_min, created_at, id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "content", "rating_min", "rating_max", "is_active", "created_at", "updated_at"}).
			AddRow("tpl-1", "Praise", "Thanks {author_name}!", 4, 5, true, now, now))

	templates, err := repo.List(context.Background(), models.TemplateFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, 4, templates[0].RatingMin)
	assert.True(t, templates[0].IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryCreateAssignsIdentity(t *testing.T) {
	repo, mock := newTemplateMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reply_templates")).
		WithArgs(sqlmock.AnyArg(), "Praise", "Thanks!", 4, 5, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tpl := &models.ReplyTemplate{Name: "Praise", Content: "Thanks!", RatingMin: 4, RatingMax: 5, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), tpl))
	assert.NotEmpty(t, tpl.ID)
	assert.False(t, tpl.CreatedAt.IsZero())
	assert.Equal(t, tpl.CreatedAt, tpl.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepositoryUpdateAndDeleteMissing(t *testing.T) {
	repo, mock := newTemplateMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE reply_templates SET name =")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reply_templates WHERE id = $1")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reply_templates WHERE id = $1")).
		WithArgs("tpl-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &models.ReplyTemplate{ID: "gone", Name: "x", Content: "y", RatingMin: 1, RatingMax: 5})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, repo.Delete(context.Background(), "gone"), sql.ErrNoRows)
	assert.NoError(t, repo.Delete(context.Background(), "tpl-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
