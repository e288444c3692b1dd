package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/review-desk-api/internal/dto"
	"github.com/noah-isme/review-desk-api/internal/models"
	appErrors "github.com/noah-isme/review-desk-api/pkg/errors"
	"github.com/noah-isme/review-desk-api/pkg/gbp"
	"github.com/noah-isme/review-desk-api/pkg/jobs"
)

type syncLocationRepoStub struct {
	mu        sync.Mutex
	byID      map[string]*models.Location
	synced    map[string]time.Time
	listCalls int
}

func newSyncLocationRepoStub(items ...models.Location) *syncLocationRepoStub {
	repo := &syncLocationRepoStub{byID: map[string]*models.Location{}, synced: map[string]time.Time{}}
	for i := range items {
		item := items[i]
		repo.byID[item.ID] = &item
	}
	return repo
}

func (r *syncLocationRepoStub) Upsert(ctx context.Context, location *models.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.LocationID == location.LocationID {
			location.ID = existing.ID
		}
	}
	if location.ID == "" {
		location.ID = uuid.NewString()
	}
	clone := *location
	r.byID[location.ID] = &clone
	return nil
}

func (r *syncLocationRepoStub) FindByID(ctx context.Context, id string) (*models.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	location, ok := r.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *location
	return &clone, nil
}

func (r *syncLocationRepoStub) List(ctx context.Context, filter models.LocationFilter) ([]models.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	out := []models.Location{}
	for _, location := range r.byID {
		if filter.AccountID == "" || filter.AccountID == location.AccountID {
			out = append(out, *location)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *syncLocationRepoStub) MarkSynced(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synced[id] = at
	return nil
}

type syncReviewRepoStub struct {
	mu       sync.Mutex
	byExtID  map[string]*models.Review
	upserted int
}

func newSyncReviewRepoStub() *syncReviewRepoStub {
	return &syncReviewRepoStub{byExtID: map[string]*models.Review{}}
}

func (r *syncReviewRepoStub) Upsert(ctx context.Context, review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byExtID[review.ReviewID]; ok {
		review.ID = existing.ID
	}
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	clone := *review
	r.byExtID[review.ReviewID] = &clone
	r.upserted++
	return nil
}

func (r *syncReviewRepoStub) ListUnsuggested(ctx context.Context, locationID string) ([]models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Review
	for _, review := range r.byExtID {
		if review.LocationID == locationID && !review.HasReply() {
			out = append(out, *review)
		}
	}
	return out, nil
}

type businessSourceStub struct {
	locations []gbp.Location
	reviews   []gbp.Review
	err       error
}

func (b *businessSourceStub) FetchLocations(ctx context.Context, accountID string) ([]gbp.Location, error) {
	return b.locations, b.err
}

func (b *businessSourceStub) FetchReviews(ctx context.Context, location *models.Location) ([]gbp.Review, error) {
	return b.reviews, b.err
}

type suggesterStub struct {
	mu    sync.Mutex
	calls []string
}

func (s *suggesterStub) Suggest(ctx context.Context, reviewID string) (*dto.SuggestReplyResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, reviewID)
	if len(s.calls) > 1 {
		return nil, appErrors.ErrNoTemplate
	}
	return &dto.SuggestReplyResponse{PendingReplyID: "p-" + reviewID}, nil
}

type dispatcherStub struct {
	mu     sync.Mutex
	keys   map[string]bool
	queued []jobs.Job
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.keys == nil {
		d.keys = map[string]bool{}
	}
	if d.keys[job.Key] {
		return jobs.ErrDuplicate
	}
	d.keys[job.Key] = true
	d.queued = append(d.queued, job)
	return nil
}

func googleReviews() []gbp.Review {
	replied := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	return []gbp.Review{
		{ReviewID: "g-1", Reviewer: gbp.Reviewer{DisplayName: "Jane"}, StarRating: "FIVE", Comment: "Great", CreateTime: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Name: "accounts/1/locations/2/reviews/g-2", Reviewer: gbp.Reviewer{IsAnonymous: true}, StarRating: "TWO",
			ReviewReply: &gbp.ReviewReply{Comment: "Sorry", UpdateTime: &replied}},
		{ReviewID: "g-3", StarRating: "STAR_RATING_UNSPECIFIED"},
	}
}

func TestSyncLocationsUpsertsByNaturalKey(t *testing.T) {
	locations := newSyncLocationRepoStub()
	address := &gbp.PostalAddress{AddressLines: []string{"1 Main St"}, Locality: "Paris"}
	business := &businessSourceStub{locations: []gbp.Location{
		{Name: "locations/1", Title: "Cafe Luna", StorefrontAddress: address},
		{Name: "locations/2"},
		{Name: ""},
	}}
	svc := NewSyncService(locations, newSyncReviewRepoStub(), business, nil, nil, nil, nil, SyncConfig{})

	result, err := svc.SyncLocations(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 1, result.Skipped)

	_, err = svc.SyncLocations(context.Background(), "acc-1")
	require.NoError(t, err)
	all, _ := locations.List(context.Background(), models.LocationFilter{})
	require.Len(t, all, 2)
	for _, location := range all {
		if location.LocationID == "1" {
			assert.Equal(t, "Cafe Luna", location.Name)
			require.NotNil(t, location.Address)
			assert.Equal(t, "1 Main St, Paris", *location.Address)
		} else {
			assert.Equal(t, "2", location.Name)
			assert.Nil(t, location.Address)
		}
	}
}

func TestSyncReviewsMapsAndSkips(t *testing.T) {
	locations := newSyncLocationRepoStub(models.Location{ID: "loc-1", AccountID: "acc-1", LocationID: "2", Name: "Cafe"})
	reviews := newSyncReviewRepoStub()
	svc := NewSyncService(locations, reviews, &businessSourceStub{reviews: googleReviews()}, nil, nil, nil, nil, SyncConfig{})

	result, err := svc.SyncReviews(context.Background(), "loc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 1, result.Skipped)
	assert.Contains(t, locations.synced, "loc-1")

	jane := reviews.byExtID["g-1"]
	require.NotNil(t, jane)
	assert.Equal(t, "Jane", jane.AuthorName)
	assert.Equal(t, 5, jane.Rating)
	require.NotNil(t, jane.Comment)
	assert.False(t, jane.HasReply())

	anon := reviews.byExtID["g-2"]
	require.NotNil(t, anon)
	assert.Equal(t, models.AnonymousAuthor, anon.AuthorName)
	assert.Equal(t, 2, anon.Rating)
	assert.True(t, anon.HasReply())
	require.NotNil(t, anon.ReplyTime)

	_, err = svc.SyncReviews(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSyncReviewsAutoSuggest(t *testing.T) {
	locations := newSyncLocationRepoStub(models.Location{ID: "loc-1", AccountID: "acc-1", LocationID: "2"})
	reviews := newSyncReviewRepoStub()
	suggester := &suggesterStub{}
	business := &businessSourceStub{reviews: []gbp.Review{
		{ReviewID: "g-1", StarRating: "FIVE"},
		{ReviewID: "g-4", StarRating: "ONE"},
	}}
	svc := NewSyncService(locations, reviews, business, suggester, nil, nil, nil, SyncConfig{AutoSuggest: true})

	result, err := svc.SyncReviews(context.Background(), "loc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Suggested)
	assert.Len(t, suggester.calls, 2)
}

func TestSyncReviewsPropagatesExternalFailure(t *testing.T) {
	locations := newSyncLocationRepoStub(models.Location{ID: "loc-1", AccountID: "acc-1", LocationID: "2"})
	failure := appErrors.Clone(appErrors.ErrExternalSync, "google down")
	svc := NewSyncService(locations, newSyncReviewRepoStub(), &businessSourceStub{err: failure}, nil, nil, nil, nil, SyncConfig{})

	_, err := svc.SyncReviews(context.Background(), "loc-1")
	assert.ErrorIs(t, err, appErrors.ErrExternalSync)
	assert.NotContains(t, locations.synced, "loc-1")
}

func TestSyncEnqueueDeduplicates(t *testing.T) {
	locations := newSyncLocationRepoStub(
		models.Location{ID: "loc-1", AccountID: "acc-1"},
		models.Location{ID: "loc-2", AccountID: "acc-1"},
	)
	svc := NewSyncService(locations, newSyncReviewRepoStub(), &businessSourceStub{}, nil, nil, nil, nil, SyncConfig{})

	_, err := svc.EnqueueAll(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	dispatcher := &dispatcherStub{}
	svc.SetQueue(dispatcher)

	require.NoError(t, svc.EnqueueLocation(context.Background(), "loc-1"))
	assert.ErrorIs(t, svc.EnqueueLocation(context.Background(), "loc-1"), appErrors.ErrConflict)
	assert.ErrorIs(t, svc.EnqueueLocation(context.Background(), "missing"), appErrors.ErrNotFound)

	resp, err := svc.EnqueueAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Queued)
	assert.Equal(t, 1, resp.Skipped)
	require.Len(t, dispatcher.queued, 2)
	assert.Equal(t, JobTypeReviewSync, dispatcher.queued[1].Type)
	assert.Equal(t, "loc-2", dispatcher.queued[1].Key)
}

func TestSyncHandleJob(t *testing.T) {
	locations := newSyncLocationRepoStub(models.Location{ID: "loc-1", AccountID: "acc-1", LocationID: "2"})
	reviews := newSyncReviewRepoStub()
	svc := NewSyncService(locations, reviews, &businessSourceStub{reviews: googleReviews()}, nil, nil, nil, nil, SyncConfig{})

	require.NoError(t, svc.HandleJob(context.Background(), jobs.Job{Key: "loc-1", Type: JobTypeReviewSync}))
	assert.Equal(t, 2, reviews.upserted)

	assert.NoError(t, svc.HandleJob(context.Background(), jobs.Job{Key: "gone", Type: JobTypeReviewSync}))
	assert.NoError(t, svc.HandleJob(context.Background(), jobs.Job{Key: "loc-1", Type: "other"}))
	assert.Equal(t, 2, reviews.upserted)
}
