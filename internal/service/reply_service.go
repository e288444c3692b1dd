package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/review-desk-api/internal/dto"
	"github.com/noah-isme/review-desk-api/internal/models"
	"github.com/noah-isme/review-desk-api/internal/repository"
	appErrors "github.com/noah-isme/review-desk-api/pkg/errors"
	"github.com/noah-isme/review-desk-api/pkg/middleware/requestid"
)

const (
	defaultSubmitTimeout = 15 * time.Second

	previewAuthor   = "Jean Dupont"
	previewLocation = "Mon Établissement"
	previewRating   = 5
)

type pendingReplyStore interface {
	FindByID(ctx context.Context, id string) (*models.PendingReply, error)
	FindByReviewID(ctx context.Context, reviewID string) (*models.PendingReply, error)
	UpsertSuggestion(ctx context.Context, reviewID, text string, templateID *string) (*models.PendingReply, error)
	Transition(ctx context.Context, id string, fn repository.TransitionFunc) (*models.PendingReply, error)
	List(ctx context.Context, filter models.PendingReplyFilter) ([]models.PendingReplyView, int, error)
}

type reviewReader interface {
	FindByID(ctx context.Context, id string) (*models.Review, error)
}

type locationReader interface {
	FindByID(ctx context.Context, id string) (*models.Location, error)
}

type activeTemplateSource interface {
	Active(ctx context.Context) ([]models.ReplyTemplate, error)
}

// ReplySubmitter publishes an approved reply to the review platform.
type ReplySubmitter interface {
	SubmitReply(ctx context.Context, location *models.Location, review *models.Review, text string) error
}

// ReplyServiceConfig tunes the workflow.
type ReplyServiceConfig struct {
	SubmitTimeout time.Duration
}

// ReplyService runs the suggest / approve / reject / edit workflow of pending replies.
type ReplyService struct {
	replies   pendingReplyStore
	reviews   reviewReader
	locations locationReader
	templates activeTemplateSource
	engine    *TemplateEngine
	submitter ReplySubmitter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReplyServiceConfig
}

func NewReplyService(
	replies pendingReplyStore,
	reviews reviewReader,
	locations locationReader,
	templates activeTemplateSource,
	engine *TemplateEngine,
	submitter ReplySubmitter,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ReplyServiceConfig,
) *ReplyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if engine == nil {
		engine = NewTemplateEngine(logger)
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = defaultSubmitTimeout
	}
	return &ReplyService{
		replies:   replies,
		reviews:   reviews,
		locations: locations,
		templates: templates,
		engine:    engine,
		submitter: submitter,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Suggest renders the best matching template for the review and stores it as a PENDING reply.
// A REJECTED record is reused; PENDING and APPROVED records are left alone.
func (s *ReplyService) Suggest(ctx context.Context, reviewID string) (*dto.SuggestReplyResponse, error) {
	review, err := s.loadReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.HasReply() {
		s.metrics.RecordSuggestion("already_replied")
		return nil, appErrors.ErrAlreadyReplied
	}

	outcome := "created"
	existing, err := s.replies.FindByReviewID(ctx, review.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending reply")
	case existing.Status == models.PendingReplyStatusPending:
		s.metrics.RecordSuggestion("already_pending")
		return nil, appErrors.ErrAlreadyPending
	case existing.Status == models.PendingReplyStatusApproved:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "reply for this review was already approved")
	default:
		outcome = "reset"
	}

	location, err := s.loadLocation(ctx, review.LocationID)
	if err != nil {
		return nil, err
	}

	templates, err := s.templates.Active(ctx)
	if err != nil {
		return nil, err
	}
	tpl := s.engine.Select(review.Rating, templates)
	if tpl == nil {
		s.metrics.RecordSuggestion("no_template")
		return nil, appErrors.Clone(appErrors.ErrNoTemplate, "no active template covers rating "+ratingLabel(review.Rating))
	}
	text := s.engine.Render(tpl.Content, ReviewVariables(review, location.Name))
	if strings.TrimSpace(text) == "" {
		s.metrics.RecordSuggestion("no_template")
		return nil, appErrors.Clone(appErrors.ErrNoTemplate, "selected template rendered an empty reply")
	}

	templateID := tpl.ID
	reply, err := s.replies.UpsertSuggestion(ctx, review.ID, text, &templateID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPendingReplyActive):
			s.metrics.RecordSuggestion("already_pending")
			return nil, appErrors.ErrAlreadyPending
		case errors.Is(err, repository.ErrPendingReplyFinalized):
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "reply for this review was already approved")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store suggested reply")
	}

	s.metrics.RecordSuggestion(outcome)
	s.log(ctx).Info("reply suggested",
		zap.String("pending_reply_id", reply.ID),
		zap.String("review_id", review.ID),
		zap.String("template_id", tpl.ID),
		zap.String("outcome", outcome),
	)

	name := tpl.Name
	return &dto.SuggestReplyResponse{
		PendingReplyID: reply.ID,
		SuggestedReply: reply.SuggestedReply,
		TemplateID:     &templateID,
		TemplateName:   &name,
	}, nil
}

// ListPending returns PENDING records newest first.
func (s *ReplyService) ListPending(ctx context.Context, query dto.PendingReplyQuery) ([]models.PendingReplyView, *models.Pagination, error) {
	page, size := normalizePage(query.Page, query.PageSize)
	views, total, err := s.replies.List(ctx, models.PendingReplyFilter{
		Status:     models.PendingReplyStatusPending,
		LocationID: query.LocationID,
		Limit:      size,
		Offset:     (page - 1) * size,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending replies")
	}
	if views == nil {
		views = []models.PendingReplyView{}
	}
	return views, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Approve publishes the final text and marks the record APPROVED. The record stays locked while the
// submission runs, and nothing is persisted when it fails.
func (s *ReplyService) Approve(ctx context.Context, id string, editedReply *string) (*models.PendingReply, error) {
	if s.submitter == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "reply submission is not configured")
	}
	record, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}
	review, err := s.loadReview(ctx, record.ReviewID)
	if err != nil {
		return nil, err
	}
	location, err := s.loadLocation(ctx, review.LocationID)
	if err != nil {
		return nil, err
	}

	updated, err := s.replies.Transition(ctx, id, func(ctx context.Context, current *models.PendingReply) (*repository.PendingReplyChange, error) {
		if current.Status != models.PendingReplyStatusPending {
			return nil, invalidState(current.Status)
		}
		final := current.SuggestedReply
		if editedReply != nil {
			if strings.TrimSpace(*editedReply) == "" {
				return nil, appErrors.Clone(appErrors.ErrValidation, "edited_reply must not be blank")
			}
			final = *editedReply
		}

		submitCtx, cancel := context.WithTimeout(ctx, s.cfg.SubmitTimeout)
		defer cancel()
		start := time.Now()
		err := s.submitter.SubmitReply(submitCtx, location, review, final)
		s.metrics.ObserveSubmission(err, time.Since(start))
		if err != nil {
			s.log(ctx).Error("reply submission failed", zap.String("pending_reply_id", id), zap.String("review_id", review.ID), zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrExternalSubmission.Code, appErrors.ErrExternalSubmission.Status, appErrors.ErrExternalSubmission.Message)
		}

		now := time.Now().UTC()
		approved := models.PendingReplyStatusApproved
		return &repository.PendingReplyChange{
			Status:          &approved,
			SuggestedReply:  &final,
			ProcessedAt:     &now,
			ReviewReply:     &final,
			ReviewReplyTime: &now,
		}, nil
	})
	if err != nil {
		return nil, s.transitionError(err, "failed to approve reply")
	}

	s.metrics.RecordTransition(models.PendingReplyStatusApproved)
	s.log(ctx).Info("reply approved", zap.String("pending_reply_id", id), zap.String("review_id", review.ID), zap.Bool("edited", editedReply != nil))
	return updated, nil
}

// Reject marks a PENDING record REJECTED. The reason is only logged.
func (s *ReplyService) Reject(ctx context.Context, id string, req dto.RejectReplyRequest) (*models.PendingReply, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reject payload")
	}
	updated, err := s.replies.Transition(ctx, id, func(_ context.Context, current *models.PendingReply) (*repository.PendingReplyChange, error) {
		if current.Status != models.PendingReplyStatusPending {
			return nil, invalidState(current.Status)
		}
		now := time.Now().UTC()
		rejected := models.PendingReplyStatusRejected
		return &repository.PendingReplyChange{Status: &rejected, ProcessedAt: &now}, nil
	})
	if err != nil {
		return nil, s.transitionError(err, "failed to reject reply")
	}

	s.metrics.RecordTransition(models.PendingReplyStatusRejected)
	s.log(ctx).Info("reply rejected", zap.String("pending_reply_id", id), zap.String("reason", req.Reason))
	return updated, nil
}

// Edit replaces the suggested text of a PENDING record.
func (s *ReplyService) Edit(ctx context.Context, id, text string) (*models.PendingReply, error) {
	updated, err := s.replies.Transition(ctx, id, func(_ context.Context, current *models.PendingReply) (*repository.PendingReplyChange, error) {
		if current.Status != models.PendingReplyStatusPending {
			return nil, invalidState(current.Status)
		}
		if strings.TrimSpace(text) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "suggested_reply must not be blank")
		}
		return &repository.PendingReplyChange{SuggestedReply: &text}, nil
	})
	if err != nil {
		return nil, s.transitionError(err, "failed to edit reply")
	}
	s.log(ctx).Info("reply edited", zap.String("pending_reply_id", id))
	return updated, nil
}

// ValidateTemplate reports whether content uses only recognised placeholders.
func (s *ReplyService) ValidateTemplate(content string) dto.TemplateValidationResponse {
	valid, found := s.engine.Validate(content)
	return dto.TemplateValidationResponse{IsValid: valid, VariablesUsed: found}
}

// PreviewTemplate renders content with sample values.
func (s *ReplyService) PreviewTemplate(req dto.TemplatePreviewRequest) (*dto.TemplatePreviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preview payload")
	}
	valid, found := s.engine.Validate(req.Content)
	if !valid {
		return nil, unknownVariableError(s.engine.Unknown(req.Content))
	}

	author, location, rating := req.AuthorName, req.LocationName, req.Rating
	if author == "" {
		author = previewAuthor
	}
	if location == "" {
		location = previewLocation
	}
	if rating == 0 {
		rating = previewRating
	}

	rendered, unresolved := render(req.Content, map[string]string{
		VarAuthorName:   author,
		VarLocationName: location,
		VarRating:       ratingLabel(rating),
	})
	if unresolved == nil {
		unresolved = []string{}
	}
	return &dto.TemplatePreviewResponse{
		RenderedContent: rendered,
		VariablesUsed:   found,
		IsValid:         true,
		Unresolved:      unresolved,
	}, nil
}

func (s *ReplyService) loadReview(ctx context.Context, id string) (*models.Review, error) {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review")
	}
	return review, nil
}

func (s *ReplyService) loadLocation(ctx context.Context, id string) (*models.Location, error) {
	location, err := s.locations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}
	return location, nil
}

func (s *ReplyService) loadPending(ctx context.Context, id string) (*models.PendingReply, error) {
	reply, err := s.replies.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pending reply not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending reply")
	}
	return reply, nil
}

func (s *ReplyService) transitionError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "pending reply not found")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *ReplyService) log(ctx context.Context) *zap.Logger {
	if id := requestid.FromContext(ctx); id != "" {
		return s.logger.With(zap.String("request_id", id))
	}
	return s.logger
}

func invalidState(status models.PendingReplyStatus) error {
	return appErrors.Clone(appErrors.ErrInvalidState, "pending reply is "+strings.ToLower(string(status)))
}

func ratingLabel(rating int) string {
	return strconv.Itoa(rating)
}

func normalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 50
	}
	return page, size
}
