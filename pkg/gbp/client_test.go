package gbp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.Client(), Endpoints{
		AccountAPI:      srv.URL + "/acct/v1",
		BusinessInfoAPI: srv.URL + "/info/v1",
		ReviewsAPI:      srv.URL + "/v4",
		UserInfo:        srv.URL + "/oauth2/v2/userinfo",
	})
}

func TestListLocationsPaging(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/info/v1/accounts/42/locations", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("pageSize"))
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{"locations":[{"name":"locations/7","title":"Cafe Luna","storefrontAddress":{"addressLines":["1 Rue Haute"],"locality":"Lyon","postalCode":"69001","regionCode":"FR"}}],"nextPageToken":"p2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"locations":[{"name":"locations/8","title":"Bar"}]}`))
	})

	first, err := client.ListLocations(context.Background(), "accounts/42", "")
	require.NoError(t, err)
	require.Len(t, first.Locations, 1)
	assert.Equal(t, "p2", first.NextPageToken)
	assert.Equal(t, "7", first.Locations[0].ID())
	assert.Equal(t, "1 Rue Haute, Lyon, 69001, FR", first.Locations[0].StorefrontAddress.Format())

	second, err := client.ListLocations(context.Background(), "accounts/42", "p2")
	require.NoError(t, err)
	assert.Empty(t, second.NextPageToken)
	assert.Equal(t, "", second.Locations[0].StorefrontAddress.Format())
}

func TestListReviewsMapsRatings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v4/accounts/42/locations/7/reviews", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("pageSize"))
		_, _ = w.Write([]byte(`{"reviews":[
			{"reviewId":"r1","reviewer":{"displayName":"Jane"},"starRating":"FIVE","comment":"Great","createTime":"2024-03-01T10:00:00Z"},
			{"name":"accounts/42/locations/7/reviews/r2","starRating":"STAR_RATING_UNSPECIFIED","createTime":"2024-03-02T10:00:00Z","reviewReply":{"comment":"Thanks","updateTime":"2024-03-03T10:00:00Z"}}
		]}`))
	})

	page, err := client.ListReviews(context.Background(), "accounts/42/locations/7", "")
	require.NoError(t, err)
	require.Len(t, page.Reviews, 2)

	rating, ok := page.Reviews[0].Rating()
	assert.True(t, ok)
	assert.Equal(t, 5, rating)
	assert.Equal(t, "r1", page.Reviews[0].ExternalID())

	_, ok = page.Reviews[1].Rating()
	assert.False(t, ok)
	assert.Equal(t, "r2", page.Reviews[1].ExternalID())
	require.NotNil(t, page.Reviews[1].ReviewReply)
	assert.Equal(t, "Thanks", page.Reviews[1].ReviewReply.Comment)
}

func TestUpdateReplySendsComment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/v4/accounts/42/locations/7/reviews/r1/reply", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Thanks Jane!", body["comment"])
		_, _ = w.Write([]byte(`{"comment":"Thanks Jane!","updateTime":"2024-03-03T10:00:00Z"}`))
	})

	reply, err := client.UpdateReply(context.Background(), "accounts/42/locations/7/reviews/r1", "Thanks Jane!")
	require.NoError(t, err)
	assert.Equal(t, "Thanks Jane!", reply.Comment)
	require.NotNil(t, reply.UpdateTime)
}

func TestNon2xxBecomesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"caller lacks permission","status":"PERMISSION_DENIED"}}`))
	})

	_, err := client.ListAccounts(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "PERMISSION_DENIED", apiErr.Status)
	assert.Equal(t, "caller lacks permission", apiErr.Message)
}

func TestUserInfo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"email":"owner@example.com"}`))
	})
	info, err := client.UserInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", info.Email)
}
