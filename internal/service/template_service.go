package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/review-desk-api/internal/dto"
	"github.com/noah-isme/review-desk-api/internal/models"
	appErrors "github.com/noah-isme/review-desk-api/pkg/errors"
)

type templateStore interface {
	List(ctx context.Context, filter models.TemplateFilter) ([]models.ReplyTemplate, error)
	FindByID(ctx context.Context, id string) (*models.ReplyTemplate, error)
	Create(ctx context.Context, tpl *models.ReplyTemplate) error
	Update(ctx context.Context, tpl *models.ReplyTemplate) error
	Delete(ctx context.Context, id string) error
}

// TemplateService manages reply templates and keeps the cached active list fresh.
type TemplateService struct {
	repo      templateStore
	engine    *TemplateEngine
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

func NewTemplateService(repo templateStore, engine *TemplateEngine, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *TemplateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = NewTemplateEngine(logger)
	}
	return &TemplateService{repo: repo, engine: engine, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// List returns templates ordered by rating_min then created_at.
func (s *TemplateService) List(ctx context.Context, activeOnly bool) ([]models.ReplyTemplate, error) {
	if activeOnly {
		return s.Active(ctx)
	}
	templates, err := s.repo.List(ctx, models.TemplateFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	return templates, nil
}

// Active returns active templates, served from cache when possible.
func (s *TemplateService) Active(ctx context.Context) ([]models.ReplyTemplate, error) {
	var cached []models.ReplyTemplate
	if s.cache.Get(ctx, cacheKeyActiveTemplates, &cached) {
		return cached, nil
	}
	templates, err := s.repo.List(ctx, models.TemplateFilter{ActiveOnly: true})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active templates")
	}
	s.cache.Set(ctx, cacheKeyActiveTemplates, templates, s.cacheTTL)
	return templates, nil
}

func (s *TemplateService) Get(ctx context.Context, id string) (*models.ReplyTemplate, error) {
	tpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	return tpl, nil
}

func (s *TemplateService) Create(ctx context.Context, req dto.CreateTemplateRequest) (*models.ReplyTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	tpl := &models.ReplyTemplate{
		Name:      strings.TrimSpace(req.Name),
		Content:   req.Content,
		RatingMin: req.RatingMin,
		RatingMax: req.RatingMax,
		IsActive:  true,
	}
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}
	if err := s.check(tpl); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, tpl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create template")
	}
	s.invalidate(ctx)
	s.logger.Info("template created", zap.String("template_id", tpl.ID), zap.Int("rating_min", tpl.RatingMin), zap.Int("rating_max", tpl.RatingMax))
	return tpl, nil
}

// Update applies a partial update. The merged record is validated as a whole.
func (s *TemplateService) Update(ctx context.Context, id string, req dto.UpdateTemplateRequest) (*models.ReplyTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		tpl.Name = strings.TrimSpace(*req.Name)
	}
	if req.Content != nil {
		tpl.Content = *req.Content
	}
	if req.RatingMin != nil {
		tpl.RatingMin = *req.RatingMin
	}
	if req.RatingMax != nil {
		tpl.RatingMax = *req.RatingMax
	}
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}
	if err := s.check(tpl); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, tpl); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update template")
	}
	s.invalidate(ctx)
	return tpl, nil
}

func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete template")
	}
	s.invalidate(ctx)
	s.logger.Info("template deleted", zap.String("template_id", id))
	return nil
}

func (s *TemplateService) check(tpl *models.ReplyTemplate) error {
	if tpl.Name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "name must not be blank")
	}
	if strings.TrimSpace(tpl.Content) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "content must not be blank")
	}
	if tpl.RatingMax < tpl.RatingMin {
		return appErrors.Clone(appErrors.ErrValidation, "rating_max must be greater than or equal to rating_min")
	}
	if unknown := s.engine.Unknown(tpl.Content); len(unknown) > 0 {
		return unknownVariableError(unknown)
	}
	return nil
}

func (s *TemplateService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, cachePatternTemplates)
}

func unknownVariableError(unknown []string) error {
	return appErrors.WithDetails(
		appErrors.Clone(appErrors.ErrUnknownVariable, "unknown variables: "+strings.Join(unknown, ", ")),
		dto.UnknownVariableDetails{Unknown: unknown, Available: AvailableVariables()},
	)
}
