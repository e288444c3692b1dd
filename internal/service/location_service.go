package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/review-desk-api/internal/dto"
	"github.com/noah-isme/review-desk-api/internal/models"
	appErrors "github.com/noah-isme/review-desk-api/pkg/errors"
)

const locationReviewPreview = 50

type locationLister interface {
	FindByID(ctx context.Context, id string) (*models.Location, error)
	List(ctx context.Context, filter models.LocationFilter) ([]models.Location, error)
}

type reviewLister interface {
	List(ctx context.Context, filter models.ReviewFilter) ([]models.Review, int, error)
}

// LocationService serves the locally mirrored locations and reviews.
type LocationService struct {
	locations locationLister
	reviews   reviewLister
	cache     *CacheService
	cacheTTL  time.Duration
	logger    *zap.Logger
}

func NewLocationService(locations locationLister, reviews reviewLister, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{locations: locations, reviews: reviews, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// List returns locations, optionally for one account. Results are cached until the next sync.
func (s *LocationService) List(ctx context.Context, accountID string) ([]models.Location, error) {
	key := cacheKeyLocations + accountID
	var cached []models.Location
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	locations, err := s.locations.List(ctx, models.LocationFilter{AccountID: accountID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list locations")
	}
	if locations == nil {
		locations = []models.Location{}
	}
	s.cache.Set(ctx, key, locations, s.cacheTTL)
	return locations, nil
}

// Get returns one location, with its latest reviews when includeReviews is set.
func (s *LocationService) Get(ctx context.Context, id string, includeReviews bool) (*dto.LocationDetail, error) {
	location, err := s.locations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}
	detail := &dto.LocationDetail{Location: *location}
	if !includeReviews {
		return detail, nil
	}
	reviews, _, err := s.reviews.List(ctx, models.ReviewFilter{LocationID: id, Limit: locationReviewPreview})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	detail.Reviews = reviews
	if detail.Reviews == nil {
		detail.Reviews = []models.Review{}
	}
	return detail, nil
}

// Reviews pages the reviews of a location, newest first.
func (s *LocationService) Reviews(ctx context.Context, locationID string, query dto.ReviewQuery) ([]models.Review, *models.Pagination, error) {
	if _, err := s.locations.FindByID(ctx, locationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}
	page, size := normalizePage(query.Page, query.PageSize)
	reviews, total, err := s.reviews.List(ctx, models.ReviewFilter{
		LocationID: locationID,
		Unreplied:  query.Unreplied,
		Limit:      size,
		Offset:     (page - 1) * size,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
