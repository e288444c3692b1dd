package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/review-desk-api/internal/models"
)

const templateColumns = `id, name, content, rating_min, rating_max, is_active, created_at, updated_at`

// TemplateRepository persists reply templates.
type TemplateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// List returns templates ordered by rating_min then created_at.
func (r *TemplateRepository) List(ctx context.Context, filter models.TemplateFilter) ([]models.ReplyTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM reply_templates`
	if filter.ActiveOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY rating_min, created_at, id`

	var templates []models.ReplyTemplate
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// FindByID returns sql.ErrNoRows when absent.
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*models.ReplyTemplate, error) {
	var tpl models.ReplyTemplate
	if err := r.db.GetContext(ctx, &tpl, `SELECT `+templateColumns+` FROM reply_templates WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Create inserts tpl, assigning id and timestamps.
func (r *TemplateRepository) Create(ctx context.Context, tpl *models.ReplyTemplate) error {
	now := time.Now().UTC()
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	const query = `INSERT INTO reply_templates (` + templateColumns + `)
	VALUES (:id, :name, :content, :rating_min, :rating_max, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tpl); err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// Update overwrites every mutable column of tpl.
func (r *TemplateRepository) Update(ctx context.Context, tpl *models.ReplyTemplate) error {
	tpl.UpdatedAt = time.Now().UTC()
	const query = `UPDATE reply_templates SET name = :name, content = :content, rating_min = :rating_min,
		rating_max = :rating_max, is_active = :is_active, updated_at = :updated_at
	WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, tpl)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return expectAffected(res, "update template")
}

// Delete removes the template. Pending replies keep their text and lose the reference.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reply_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return expectAffected(res, "delete template")
}
