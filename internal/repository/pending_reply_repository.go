package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/review-desk-api/internal/models"
)

const pendingReplyColumns = `id, review_id, template_id, suggested_reply, status, created_at, updated_at, processed_at`

var (
	// ErrPendingReplyActive means the review already has a PENDING record.
	ErrPendingReplyActive = errors.New("pending reply already active")
	// ErrPendingReplyFinalized means the review's record was approved and cannot be reused.
	ErrPendingReplyFinalized = errors.New("pending reply already approved")
)

// PendingReplyChange describes the columns a transition writes. Nil fields are left unchanged.
type PendingReplyChange struct {
	Status         *models.PendingReplyStatus
	SuggestedReply *string
	ProcessedAt    *time.Time
	// ReviewReply, when set, is written to the parent review together with ReviewReplyTime.
	ReviewReply     *string
	ReviewReplyTime *time.Time
}

// TransitionFunc inspects the locked record and returns the change to apply. Returning an error rolls back.
type TransitionFunc func(ctx context.Context, current *models.PendingReply) (*PendingReplyChange, error)

// PendingReplyRepository persists the approval records.
type PendingReplyRepository struct {
	db *sqlx.DB
}

func NewPendingReplyRepository(db *sqlx.DB) *PendingReplyRepository {
	return &PendingReplyRepository{db: db}
}

// FindByID returns sql.ErrNoRows when absent.
func (r *PendingReplyRepository) FindByID(ctx context.Context, id string) (*models.PendingReply, error) {
	var reply models.PendingReply
	if err := r.db.GetContext(ctx, &reply, `SELECT `+pendingReplyColumns+` FROM pending_replies WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &reply, nil
}

// FindByReviewID returns sql.ErrNoRows when the review has no record.
func (r *PendingReplyRepository) FindByReviewID(ctx context.Context, reviewID string) (*models.PendingReply, error) {
	var reply models.PendingReply
	if err := r.db.GetContext(ctx, &reply, `SELECT `+pendingReplyColumns+` FROM pending_replies WHERE review_id = $1`, reviewID); err != nil {
		return nil, err
	}
	return &reply, nil
}

// UpsertSuggestion stores a fresh PENDING suggestion for reviewID.
// A REJECTED record is reset in place; PENDING and APPROVED records yield ErrPendingReplyActive and ErrPendingReplyFinalized.
func (r *PendingReplyRepository) UpsertSuggestion(ctx context.Context, reviewID, text string, templateID *string) (reply *models.PendingReply, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin suggestion tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existing models.PendingReply
	err = tx.GetContext(ctx, &existing, `SELECT `+pendingReplyColumns+` FROM pending_replies WHERE review_id = $1 FOR UPDATE`, reviewID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		reply, err = insertSuggestion(ctx, tx, reviewID, text, templateID)
	case err != nil:
		err = fmt.Errorf("lock pending reply: %w", err)
	case existing.Status == models.PendingReplyStatusPending:
		err = ErrPendingReplyActive
	case existing.Status == models.PendingReplyStatusApproved:
		err = ErrPendingReplyFinalized
	default:
		reply, err = resetSuggestion(ctx, tx, existing.ID, text, templateID)
	}
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit suggestion: %w", err)
	}
	return reply, nil
}

func insertSuggestion(ctx context.Context, tx *sqlx.Tx, reviewID, text string, templateID *string) (*models.PendingReply, error) {
	now := time.Now().UTC()
	const query = `INSERT INTO pending_replies (id, review_id, template_id, suggested_reply, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $6)
	ON CONFLICT (review_id) DO NOTHING
	RETURNING ` + pendingReplyColumns

	var reply models.PendingReply
	err := tx.GetContext(ctx, &reply, query, uuid.NewString(), reviewID, templateID, text, models.PendingReplyStatusPending, now)
	if errors.Is(err, sql.ErrNoRows) {
		// A concurrent suggestion inserted first.
		return nil, ErrPendingReplyActive
	}
	if err != nil {
		return nil, fmt.Errorf("insert pending reply: %w", err)
	}
	return &reply, nil
}

func resetSuggestion(ctx context.Context, tx *sqlx.Tx, id, text string, templateID *string) (*models.PendingReply, error) {
	const query = `UPDATE pending_replies SET status = $2, suggested_reply = $3, template_id = $4,
		processed_at = NULL, updated_at = $5
	WHERE id = $1
	RETURNING ` + pendingReplyColumns

	var reply models.PendingReply
	if err := tx.GetContext(ctx, &reply, query, id, models.PendingReplyStatusPending, text, templateID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("reset pending reply: %w", err)
	}
	return &reply, nil
}

// Transition locks the record, lets fn decide the change and applies it in the same transaction.
func (r *PendingReplyRepository) Transition(ctx context.Context, id string, fn TransitionFunc) (updated *models.PendingReply, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current models.PendingReply
	if err = tx.GetContext(ctx, &current, `SELECT `+pendingReplyColumns+` FROM pending_replies WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, err
	}

	change, err := fn(ctx, &current)
	if err != nil {
		return nil, err
	}
	if change == nil {
		err = tx.Commit()
		return &current, err
	}

	sets := []string{"updated_at = :updated_at"}
	args := map[string]interface{}{"id": id, "updated_at": time.Now().UTC()}
	if change.Status != nil {
		sets = append(sets, "status = :status")
		args["status"] = *change.Status
	}
	if change.SuggestedReply != nil {
		sets = append(sets, "suggested_reply = :suggested_reply")
		args["suggested_reply"] = *change.SuggestedReply
	}
	if change.ProcessedAt != nil {
		sets = append(sets, "processed_at = :processed_at")
		args["processed_at"] = *change.ProcessedAt
	}

	query := fmt.Sprintf(`UPDATE pending_replies SET %s WHERE id = :id RETURNING %s`, strings.Join(sets, ", "), pendingReplyColumns)
	query, bound, err := sqlx.Named(query, args)
	if err != nil {
		return nil, fmt.Errorf("bind transition: %w", err)
	}
	var next models.PendingReply
	if err = tx.GetContext(ctx, &next, tx.Rebind(query), bound...); err != nil {
		return nil, fmt.Errorf("apply transition: %w", err)
	}

	if change.ReviewReply != nil {
		if _, err = tx.ExecContext(ctx, `UPDATE reviews SET reply = $2, reply_time = $3 WHERE id = $1`,
			current.ReviewID, *change.ReviewReply, change.ReviewReplyTime); err != nil {
			return nil, fmt.Errorf("record review reply: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return &next, nil
}

// List returns records of filter.Status (default PENDING) newest first, enriched for display, plus the total count.
func (r *PendingReplyRepository) List(ctx context.Context, filter models.PendingReplyFilter) ([]models.PendingReplyView, int, error) {
	status := filter.Status
	if status == "" {
		status = models.PendingReplyStatusPending
	}
	conditions := []string{"p.status = $1"}
	args := []interface{}{status}
	if filter.LocationID != "" {
		args = append(args, filter.LocationID)
		conditions = append(conditions, fmt.Sprintf("rv.location_id = $%d", len(args)))
	}
	from := ` FROM pending_replies p
	JOIN reviews rv ON rv.id = p.review_id
	LEFT JOIN locations l ON l.id = rv.location_id
	WHERE ` + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*)`+from, args...); err != nil {
		return nil, 0, fmt.Errorf("count pending replies: %w", err)
	}

	limit, offset := clampPage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT p.id, p.review_id, p.template_id, p.suggested_reply, p.status, p.created_at, p.updated_at, p.processed_at,
		rv.author_name AS review_author, rv.rating AS review_rating, rv.comment AS review_comment,
		COALESCE(l.name, 'Unknown') AS location_name%s
	ORDER BY p.created_at DESC, p.id LIMIT %d OFFSET %d`, from, limit, offset)

	var views []models.PendingReplyView
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list pending replies: %w", err)
	}
	return views, total, nil
}

// History returns reply records for export, optionally filtered by status and location.
func (r *PendingReplyRepository) History(ctx context.Context, status models.PendingReplyStatus, locationID string) ([]models.ReplyHistoryRow, error) {
	conditions := []string{}
	args := []interface{}{}
	if status != "" {
		args = append(args, status)
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if locationID != "" {
		args = append(args, locationID)
		conditions = append(conditions, fmt.Sprintf("rv.location_id = $%d", len(args)))
	}

	query := `SELECT p.id AS pending_reply_id, p.status, COALESCE(l.name, 'Unknown') AS location_name,
		rv.author_name AS review_author, rv.rating AS review_rating, rv.comment AS review_comment,
		p.suggested_reply AS reply, t.name AS template_name, p.created_at, p.processed_at
	FROM pending_replies p
	JOIN reviews rv ON rv.id = p.review_id
	LEFT JOIN locations l ON l.id = rv.location_id
	LEFT JOIN reply_templates t ON t.id = p.template_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY p.created_at DESC, p.id"

	var rows []models.ReplyHistoryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list reply history: %w", err)
	}
	return rows, nil
}
