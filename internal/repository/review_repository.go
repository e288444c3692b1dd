package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/review-desk-api/internal/models"
)

const reviewColumns = `id, location_id, review_id, author_name, rating, comment, reply, reply_time, created_at, synced_at`

// ReviewRepository persists reviews keyed by Google's review id.
type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Upsert inserts the review or refreshes its mutable fields. created_at keeps the original Google timestamp.
func (r *ReviewRepository) Upsert(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	review.SyncedAt = time.Now().UTC()

	const query = `INSERT INTO reviews (` + reviewColumns + `)
	VALUES (:id, :location_id, :review_id, :author_name, :rating, :comment, :reply, :reply_time, :created_at, :synced_at)
	ON CONFLICT (review_id) DO UPDATE SET
		author_name = EXCLUDED.author_name,
		rating = EXCLUDED.rating,
		comment = EXCLUDED.comment,
		reply = EXCLUDED.reply,
		reply_time = EXCLUDED.reply_time,
		synced_at = EXCLUDED.synced_at
	RETURNING ` + reviewColumns

	rows, err := r.db.NamedQueryContext(ctx, query, review)
	if err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("upsert review: %w", err)
		}
		return fmt.Errorf("upsert review: no row returned")
	}
	if err := rows.StructScan(review); err != nil {
		return fmt.Errorf("scan review: %w", err)
	}
	return nil
}

// FindByID returns sql.ErrNoRows when absent.
func (r *ReviewRepository) FindByID(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	if err := r.db.GetContext(ctx, &review, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &review, nil
}

// List returns reviews of a location newest first, plus the total count before paging.
func (r *ReviewRepository) List(ctx context.Context, filter models.ReviewFilter) ([]models.Review, int, error) {
	conditions := []string{"location_id = $1"}
	args := []interface{}{filter.LocationID}
	if filter.Unreplied {
		conditions = append(conditions, "(reply IS NULL OR reply = '')")
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reviews`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	limit, offset := clampPage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM reviews%s ORDER BY created_at DESC, id LIMIT %d OFFSET %d`, reviewColumns, where, limit, offset)

	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

// ListUnsuggested returns reviews of a location without an external reply and without any pending reply record.
func (r *ReviewRepository) ListUnsuggested(ctx context.Context, locationID string) ([]models.Review, error) {
	const query = `SELECT r.id, r.location_id, r.review_id, r.author_name, r.rating, r.comment, r.reply, r.reply_time, r.created_at, r.synced_at
	FROM reviews r
	LEFT JOIN pending_replies p ON p.review_id = r.id
	WHERE r.location_id = $1 AND (r.reply IS NULL OR r.reply = '') AND p.id IS NULL
	ORDER BY r.created_at`
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, locationID); err != nil {
		return nil, fmt.Errorf("list unsuggested reviews: %w", err)
	}
	return reviews, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
