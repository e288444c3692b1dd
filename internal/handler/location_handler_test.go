package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/review-desk-api/internal/dto"
	"github.com/noah-isme/review-desk-api/internal/models"
	appErrors "github.com/noah-isme/review-desk-api/pkg/errors"
)

type locationServiceMock struct {
	lastAccount string
	lastInclude bool
	lastQuery   dto.ReviewQuery
}

func (m *locationServiceMock) List(ctx context.Context, accountID string) ([]models.Location, error) {
	m.lastAccount = accountID
	return []models.Location{{ID: "loc-1", Name: "Cafe Luna"}}, nil
}

func (m *locationServiceMock) Get(ctx context.Context, id string, includeReviews bool) (*dto.LocationDetail, error) {
	m.lastInclude = includeReviews
	return &dto.LocationDetail{Location: models.Location{ID: id}}, nil
}

func (m *locationServiceMock) Reviews(ctx context.Context, locationID string, query dto.ReviewQuery) ([]models.Review, *models.Pagination, error) {
	m.lastQuery = query
	return []models.Review{}, &models.Pagination{Page: query.Page, PageSize: query.PageSize}, nil
}

type syncServiceMock struct {
	err error
}

func (m *syncServiceMock) SyncLocations(ctx context.Context, accountID string) (*dto.SyncResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.SyncResult{AccountID: accountID, Synced: 2}, nil
}

func (m *syncServiceMock) SyncReviews(ctx context.Context, locationID string) (*dto.SyncResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.SyncResult{LocationID: locationID, Synced: 5}, nil
}

func (m *syncServiceMock) EnqueueAll(ctx context.Context) (*dto.EnqueueSyncResponse, error) {
	return &dto.EnqueueSyncResponse{Queued: 3}, nil
}

func TestLocationHandlerQueries(t *testing.T) {
	svc := &locationServiceMock{}
	handler := NewLocationHandler(svc, &syncServiceMock{})

	c, w := newJSONContext(http.MethodGet, "/locations?account_id=acc-1", nil)
	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acc-1", svc.lastAccount)

	c, w = newJSONContext(http.MethodGet, "/locations/loc-1?include_reviews=true", nil)
	c.Params = gin.Params{{Key: "id", Value: "loc-1"}}
	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.lastInclude)

	c, w = newJSONContext(http.MethodGet, "/locations/loc-1/reviews?unreplied=1&page=3&limit=10", nil)
	c.Params = gin.Params{{Key: "id", Value: "loc-1"}}
	handler.Reviews(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ReviewQuery{Unreplied: true, Page: 3, PageSize: 10}, svc.lastQuery)
}

func TestLocationHandlerSync(t *testing.T) {
	sync := &syncServiceMock{}
	handler := NewLocationHandler(&locationServiceMock{}, sync)

	c, w := newJSONContext(http.MethodPost, "/locations/reviews/sync", nil)
	handler.EnqueueAll(c)
	assert.Equal(t, http.StatusAccepted, w.Code)

	sync.err = appErrors.Clone(appErrors.ErrExternalSync, "google unavailable")
	c, w = newJSONContext(http.MethodPost, "/locations/loc-1/reviews/sync", nil)
	c.Params = gin.Params{{Key: "id", Value: "loc-1"}}
	handler.SyncReviews(c)
	assert.Equal(t, appErrors.ErrExternalSync.Status, w.Code)
}
