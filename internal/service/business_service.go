package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/review-desk-api/internal/models"
	appErrors "github.com/noah-isme/review-desk-api/pkg/errors"
	"github.com/noah-isme/review-desk-api/pkg/gbp"
)

// maxPages bounds pagination loops against a misbehaving nextPageToken.
const maxPages = 200

// GoogleAPI is the subset of the Business Profile client used by the services.
type GoogleAPI interface {
	ListAccounts(ctx context.Context) ([]gbp.Account, error)
	ListLocations(ctx context.Context, account, pageToken string) (*gbp.LocationsPage, error)
	ListReviews(ctx context.Context, locationPath, pageToken string) (*gbp.ReviewsPage, error)
	UpdateReply(ctx context.Context, reviewPath, comment string) (*gbp.ReviewReply, error)
}

type googleClientProvider interface {
	ClientFor(ctx context.Context, accountID string) (GoogleAPI, error)
}

// BusinessService reads locations and reviews from Google and publishes replies.
type BusinessService struct {
	clients        googleClientProvider
	cache          *CacheService
	accountNameTTL time.Duration
	logger         *zap.Logger
}

func NewBusinessService(clients googleClientProvider, cache *CacheService, accountNameTTL time.Duration, logger *zap.Logger) *BusinessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if accountNameTTL <= 0 {
		accountNameTTL = time.Hour
	}
	return &BusinessService{clients: clients, cache: cache, accountNameTTL: accountNameTTL, logger: logger}
}

// AccountName resolves the first Business Profile account ("accounts/123") of a connected account.
func (s *BusinessService) AccountName(ctx context.Context, accountID string) (string, error) {
	api, err := s.client(ctx, accountID)
	if err != nil {
		return "", err
	}
	return s.accountName(ctx, accountID, api)
}

// FetchLocations returns every location of the account across all pages.
func (s *BusinessService) FetchLocations(ctx context.Context, accountID string) ([]gbp.Location, error) {
	api, err := s.client(ctx, accountID)
	if err != nil {
		return nil, err
	}
	account, err := s.accountName(ctx, accountID, api)
	if err != nil {
		return nil, err
	}

	var out []gbp.Location
	token := ""
	for page := 0; page < maxPages; page++ {
		res, err := api.ListLocations(ctx, account, token)
		if err != nil {
			return nil, externalSync(err, "failed to list google locations")
		}
		out = append(out, res.Locations...)
		if res.NextPageToken == "" {
			break
		}
		token = res.NextPageToken
	}
	return out, nil
}

// FetchReviews returns every review of a location across all pages.
func (s *BusinessService) FetchReviews(ctx context.Context, location *models.Location) ([]gbp.Review, error) {
	api, err := s.client(ctx, location.AccountID)
	if err != nil {
		return nil, err
	}
	account, err := s.accountName(ctx, location.AccountID, api)
	if err != nil {
		return nil, err
	}

	path := locationPath(account, location.LocationID)
	var out []gbp.Review
	token := ""
	for page := 0; page < maxPages; page++ {
		res, err := api.ListReviews(ctx, path, token)
		if err != nil {
			return nil, externalSync(err, "failed to list google reviews")
		}
		out = append(out, res.Reviews...)
		if res.NextPageToken == "" {
			break
		}
		token = res.NextPageToken
	}
	return out, nil
}

// SubmitReply publishes text as the owner reply of review.
func (s *BusinessService) SubmitReply(ctx context.Context, location *models.Location, review *models.Review, text string) error {
	api, err := s.client(ctx, location.AccountID)
	if err != nil {
		return err
	}
	account, err := s.accountName(ctx, location.AccountID, api)
	if err != nil {
		return err
	}
	path := locationPath(account, location.LocationID) + "/reviews/" + review.ReviewID
	if _, err := api.UpdateReply(ctx, path, text); err != nil {
		return err
	}
	s.logger.Info("reply published", zap.String("review_id", review.ID), zap.String("location_id", location.ID))
	return nil
}

func (s *BusinessService) client(ctx context.Context, accountID string) (GoogleAPI, error) {
	if s.clients == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "google client is not configured")
	}
	return s.clients.ClientFor(ctx, accountID)
}

func (s *BusinessService) accountName(ctx context.Context, accountID string, api GoogleAPI) (string, error) {
	key := cacheKeyAccountName + accountID
	var cached string
	if s.cache.Get(ctx, key, &cached) && cached != "" {
		return cached, nil
	}

	accounts, err := api.ListAccounts(ctx)
	if err != nil {
		return "", externalSync(err, "failed to list google accounts")
	}
	if len(accounts) == 0 || accounts[0].Name == "" {
		return "", appErrors.Clone(appErrors.ErrExternalSync, "no business profile account is available")
	}
	name := accounts[0].Name
	s.cache.Set(ctx, key, name, s.accountNameTTL)
	return name, nil
}

func locationPath(account, locationID string) string {
	return account + "/locations/" + locationID
}

func externalSync(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrExternalSync.Code, appErrors.ErrExternalSync.Status, message)
}
