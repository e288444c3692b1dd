package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/review-desk-api/internal/dto"
	"github.com/noah-isme/review-desk-api/internal/models"
	appErrors "github.com/noah-isme/review-desk-api/pkg/errors"
	"github.com/noah-isme/review-desk-api/pkg/gbp"
	"github.com/noah-isme/review-desk-api/pkg/jobs"
)

// JobTypeReviewSync identifies queued review synchronisations. The job key is the location id.
const JobTypeReviewSync = "review_sync"

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type syncLocationStore interface {
	Upsert(ctx context.Context, location *models.Location) error
	FindByID(ctx context.Context, id string) (*models.Location, error)
	List(ctx context.Context, filter models.LocationFilter) ([]models.Location, error)
	MarkSynced(ctx context.Context, id string, at time.Time) error
}

type syncReviewStore interface {
	Upsert(ctx context.Context, review *models.Review) error
	ListUnsuggested(ctx context.Context, locationID string) ([]models.Review, error)
}

type businessSource interface {
	FetchLocations(ctx context.Context, accountID string) ([]gbp.Location, error)
	FetchReviews(ctx context.Context, location *models.Location) ([]gbp.Review, error)
}

type replySuggester interface {
	Suggest(ctx context.Context, reviewID string) (*dto.SuggestReplyResponse, error)
}

// SyncConfig tunes synchronisation.
type SyncConfig struct {
	Interval    time.Duration
	AutoSuggest bool
}

// SyncService mirrors Google locations and reviews into the local store.
type SyncService struct {
	locations syncLocationStore
	reviews   syncReviewStore
	business  businessSource
	suggester replySuggester
	queue     jobDispatcher
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       SyncConfig
}

func NewSyncService(
	locations syncLocationStore,
	reviews syncReviewStore,
	business businessSource,
	suggester replySuggester,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg SyncConfig,
) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		locations: locations,
		reviews:   reviews,
		business:  business,
		suggester: suggester,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// SetQueue attaches the dispatcher used by the Enqueue methods. The queue's handler is usually HandleJob.
func (s *SyncService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// SyncLocations upserts every Google location of the account.
func (s *SyncService) SyncLocations(ctx context.Context, accountID string) (*dto.SyncResult, error) {
	remote, err := s.business.FetchLocations(ctx, accountID)
	if err != nil {
		s.metrics.RecordSyncFailure("locations")
		return nil, err
	}

	result := &dto.SyncResult{AccountID: accountID}
	for _, item := range remote {
		location := locationFromGoogle(accountID, item)
		if location == nil {
			result.Skipped++
			continue
		}
		if err := s.locations.Upsert(ctx, location); err != nil {
			s.metrics.RecordSyncFailure("locations")
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store location")
		}
		result.Synced++
	}

	s.cache.Invalidate(ctx, cachePatternLocations)
	s.metrics.RecordSynced("locations", result.Synced)
	s.logger.Info("locations synced", zap.String("account_id", accountID), zap.Int("synced", result.Synced), zap.Int("skipped", result.Skipped))
	return result, nil
}

// SyncReviews upserts every Google review of the location and stamps last_synced_at.
func (s *SyncService) SyncReviews(ctx context.Context, locationID string) (*dto.SyncResult, error) {
	location, err := s.locations.FindByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}

	remote, err := s.business.FetchReviews(ctx, location)
	if err != nil {
		s.metrics.RecordSyncFailure("reviews")
		return nil, err
	}

	result := &dto.SyncResult{AccountID: location.AccountID, LocationID: location.ID}
	for _, item := range remote {
		review, ok := reviewFromGoogle(location.ID, item)
		if !ok {
			s.logger.Warn("skipping review with unusable rating",
				zap.String("location_id", location.ID),
				zap.String("review_id", item.ExternalID()),
				zap.String("star_rating", item.StarRating),
			)
			result.Skipped++
			continue
		}
		if err := s.reviews.Upsert(ctx, review); err != nil {
			s.metrics.RecordSyncFailure("reviews")
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store review")
		}
		result.Synced++
	}

	if err := s.locations.MarkSynced(ctx, location.ID, time.Now().UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update location")
	}
	s.cache.Invalidate(ctx, cachePatternLocations)
	s.metrics.RecordSynced("reviews", result.Synced)

	if s.cfg.AutoSuggest {
		result.Suggested = s.autoSuggest(ctx, location.ID)
	}

	s.logger.Info("reviews synced",
		zap.String("location_id", location.ID),
		zap.Int("synced", result.Synced),
		zap.Int("skipped", result.Skipped),
		zap.Int("suggested", result.Suggested),
	)
	return result, nil
}

// EnqueueLocation queues a review sync for one location.
func (s *SyncService) EnqueueLocation(ctx context.Context, locationID string) error {
	if s.queue == nil {
		return appErrors.Clone(appErrors.ErrInternal, "sync queue is not configured")
	}
	if _, err := s.locations.FindByID(ctx, locationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}
	if err := s.enqueue(locationID); err != nil {
		if errors.Is(err, jobs.ErrDuplicate) {
			return appErrors.Clone(appErrors.ErrConflict, "review sync already queued for this location")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue review sync")
	}
	return nil
}

// EnqueueAll queues a review sync for every known location, skipping those already queued.
func (s *SyncService) EnqueueAll(ctx context.Context) (*dto.EnqueueSyncResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "sync queue is not configured")
	}
	locations, err := s.locations.List(ctx, models.LocationFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list locations")
	}

	resp := &dto.EnqueueSyncResponse{}
	for _, location := range locations {
		if err := s.enqueue(location.ID); err != nil {
			if !errors.Is(err, jobs.ErrDuplicate) {
				s.logger.Warn("failed to queue review sync", zap.String("location_id", location.ID), zap.Error(err))
			}
			resp.Skipped++
			continue
		}
		resp.Queued++
	}
	return resp, nil
}

// HandleJob is the queue handler for review sync jobs.
func (s *SyncService) HandleJob(ctx context.Context, job jobs.Job) error {
	if job.Type != JobTypeReviewSync {
		s.logger.Warn("unexpected job type", zap.String("type", job.Type), zap.String("job_id", job.ID))
		return nil
	}
	_, err := s.SyncReviews(ctx, job.Key)
	if errors.Is(err, appErrors.ErrNotFound) {
		s.logger.Info("dropping review sync for removed location", zap.String("location_id", job.Key))
		return nil
	}
	return err
}

// StartScheduler queues a full review sync every Interval until ctx is done.
func (s *SyncService) StartScheduler(ctx context.Context) {
	if s.cfg.Interval <= 0 || s.queue == nil {
		return
	}
	ticker := time.NewTicker(s.cfg.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				resp, err := s.EnqueueAll(ctx)
				if err != nil {
					s.logger.Warn("scheduled review sync failed", zap.Error(err))
					continue
				}
				s.logger.Debug("scheduled review sync queued", zap.Int("queued", resp.Queued), zap.Int("skipped", resp.Skipped))
			}
		}
	}()
}

func (s *SyncService) enqueue(locationID string) error {
	return s.queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Key:  locationID,
		Type: JobTypeReviewSync,
	})
}

func (s *SyncService) autoSuggest(ctx context.Context, locationID string) int {
	if s.suggester == nil {
		return 0
	}
	candidates, err := s.reviews.ListUnsuggested(ctx, locationID)
	if err != nil {
		s.logger.Warn("failed to list reviews for auto suggest", zap.String("location_id", locationID), zap.Error(err))
		return 0
	}

	suggested := 0
	for _, review := range candidates {
		_, err := s.suggester.Suggest(ctx, review.ID)
		switch {
		case err == nil:
			suggested++
		case errors.Is(err, appErrors.ErrAlreadyPending), errors.Is(err, appErrors.ErrAlreadyReplied), errors.Is(err, appErrors.ErrNoTemplate):
			s.logger.Debug("auto suggest skipped", zap.String("review_id", review.ID), zap.Error(err))
		default:
			s.logger.Warn("auto suggest failed", zap.String("review_id", review.ID), zap.Error(err))
		}
	}
	return suggested
}

func locationFromGoogle(accountID string, item gbp.Location) *models.Location {
	id := item.ID()
	if id == "" {
		return nil
	}
	name := strings.TrimSpace(item.Title)
	if name == "" {
		name = id
	}
	location := &models.Location{AccountID: accountID, LocationID: id, Name: name}
	if address := item.StorefrontAddress.Format(); address != "" {
		location.Address = &address
	}
	return location
}

func reviewFromGoogle(locationID string, item gbp.Review) (*models.Review, bool) {
	rating, ok := item.Rating()
	externalID := item.ExternalID()
	if !ok || externalID == "" {
		return nil, false
	}

	author := strings.TrimSpace(item.Reviewer.DisplayName)
	if author == "" || item.Reviewer.IsAnonymous {
		author = models.AnonymousAuthor
	}
	review := &models.Review{
		LocationID: locationID,
		ReviewID:   externalID,
		AuthorName: author,
		Rating:     rating,
		CreatedAt:  item.CreateTime.UTC(),
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	if comment := strings.TrimSpace(item.Comment); comment != "" {
		review.Comment = &comment
	}
	if item.ReviewReply != nil && strings.TrimSpace(item.ReviewReply.Comment) != "" {
		reply := item.ReviewReply.Comment
		review.Reply = &reply
		if item.ReviewReply.UpdateTime != nil {
			at := item.ReviewReply.UpdateTime.UTC()
			review.ReplyTime = &at
		}
	}
	return review, true
}
