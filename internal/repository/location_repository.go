package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/review-desk-api/internal/models"
)

const locationColumns = `id, account_id, location_id, name, address, last_synced_at, created_at, updated_at`

// LocationRepository persists Business Profile locations keyed by Google's location id.
type LocationRepository struct {
	db *sqlx.DB
}

func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Upsert inserts the location or updates name and address of the existing row with the same location_id.
func (r *LocationRepository) Upsert(ctx context.Context, location *models.Location) error {
	now := time.Now().UTC()
	if location.ID == "" {
		location.ID = uuid.NewString()
	}
	location.CreatedAt = now
	location.UpdatedAt = now

	const query = `INSERT INTO locations (` + locationColumns + `)
	VALUES (:id, :account_id, :location_id, :name, :address, :last_synced_at, :created_at, :updated_at)
	ON CONFLICT (location_id) DO UPDATE SET
		name = EXCLUDED.name,
		address = EXCLUDED.address,
		account_id = EXCLUDED.account_id,
		updated_at = EXCLUDED.updated_at
	RETURNING ` + locationColumns

	rows, err := r.db.NamedQueryContext(ctx, query, location)
	if err != nil {
		return fmt.Errorf("upsert location: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("upsert location: %w", err)
		}
		return fmt.Errorf("upsert location: no row returned")
	}
	if err := rows.StructScan(location); err != nil {
		return fmt.Errorf("scan location: %w", err)
	}
	return nil
}

// FindByID returns sql.ErrNoRows when absent.
func (r *LocationRepository) FindByID(ctx context.Context, id string) (*models.Location, error) {
	var location models.Location
	if err := r.db.GetContext(ctx, &location, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &location, nil
}

// List returns locations ordered by name, optionally for one account.
func (r *LocationRepository) List(ctx context.Context, filter models.LocationFilter) ([]models.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations`
	args := []interface{}{}
	if filter.AccountID != "" {
		query += ` WHERE account_id = $1`
		args = append(args, filter.AccountID)
	}
	query += ` ORDER BY name, id`

	var locations []models.Location
	if err := r.db.SelectContext(ctx, &locations, query, args...); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

// MarkSynced stamps the last successful review sync.
func (r *LocationRepository) MarkSynced(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE locations SET last_synced_at = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("mark location synced: %w", err)
	}
	return nil
}
