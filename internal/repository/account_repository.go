package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/review-desk-api/internal/models"
)

const accountColumns = `id, email, access_token, refresh_token, token_expiry, created_at, updated_at`

// AccountRepository persists connected Google accounts.
type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// UpsertByEmail inserts or refreshes the account for account.Email.
// An empty refresh token never overwrites a stored one since Google only returns it on first consent.
func (r *AccountRepository) UpsertByEmail(ctx context.Context, account *models.Account) error {
	now := time.Now().UTC()
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.CreatedAt = now
	account.UpdatedAt = now

	const query = `INSERT INTO accounts (` + accountColumns + `)
	VALUES (:id, :email, :access_token, :refresh_token, :token_expiry, :created_at, :updated_at)
	ON CONFLICT (email) DO UPDATE SET
		access_token = EXCLUDED.access_token,
		refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), accounts.refresh_token),
		token_expiry = EXCLUDED.token_expiry,
		updated_at = EXCLUDED.updated_at
	RETURNING ` + accountColumns

	rows, err := r.db.NamedQueryContext(ctx, query, account)
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("upsert account: %w", err)
		}
		return fmt.Errorf("upsert account: no row returned")
	}
	if err := rows.StructScan(account); err != nil {
		return fmt.Errorf("scan account: %w", err)
	}
	return nil
}

// UpdateTokens stores refreshed credentials.
func (r *AccountRepository) UpdateTokens(ctx context.Context, id, accessToken string, refreshToken *string, expiry *time.Time) error {
	const query = `UPDATE accounts SET access_token = $2,
		refresh_token = COALESCE($3, refresh_token), token_expiry = $4, updated_at = NOW()
	WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, accessToken, refreshToken, expiry)
	if err != nil {
		return fmt.Errorf("update account tokens: %w", err)
	}
	return expectAffected(res, "update account tokens")
}

// FindByID returns sql.ErrNoRows when absent.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := r.db.GetContext(ctx, &account, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &account, nil
}

// List returns every account ordered by creation.
func (r *AccountRepository) List(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.SelectContext(ctx, &accounts, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// Delete removes the account; locations, reviews and pending replies cascade.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return expectAffected(res, "delete account")
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
