package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/review-desk-api/internal/models"
	appErrors "github.com/noah-isme/review-desk-api/pkg/errors"
	"github.com/noah-isme/review-desk-api/pkg/gbp"
	"github.com/noah-isme/review-desk-api/pkg/secure"
)

type accountRepoStub struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	updates  int
}

func newAccountRepoStub() *accountRepoStub {
	return &accountRepoStub{accounts: map[string]*models.Account{}}
}

func (r *accountRepoStub) UpsertByEmail(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			account.ID = existing.ID
			if account.RefreshToken == nil {
				account.RefreshToken = existing.RefreshToken
			}
		}
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	clone := *account
	r.accounts[account.ID] = &clone
	return nil
}

func (r *accountRepoStub) UpdateTokens(ctx context.Context, id, accessToken string, refreshToken *string, expiry *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return sql.ErrNoRows
	}
	account.AccessToken = accessToken
	if refreshToken != nil {
		account.RefreshToken = refreshToken
	}
	account.TokenExpiry = expiry
	r.updates++
	return nil
}

func (r *accountRepoStub) FindByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *account
	return &clone, nil
}

func (r *accountRepoStub) List(ctx context.Context) ([]models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Account
	for _, account := range r.accounts {
		out = append(out, *account)
	}
	return out, nil
}

func (r *accountRepoStub) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.accounts, id)
	return nil
}

type googleFake struct {
	server      *httptest.Server
	refreshes   int32
	lastBearer  atomic.Value
	accessToken string
}

func newGoogleFake(t *testing.T) *googleFake {
	t.Helper()
	fake := &googleFake{accessToken: "fresh-access"}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		switch r.Form.Get("grant_type") {
		case "authorization_code":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token":  "code-access",
				"refresh_token": "code-refresh",
				"token_type":    "Bearer",
				"expires_in":    3600,
			})
		case "refresh_token":
			atomic.AddInt32(&fake.refreshes, 1)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": fake.accessToken,
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		fake.lastBearer.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"owner@example.com"}`))
	})
	mux.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		fake.lastBearer.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accounts":[{"name":"accounts/42"}]}`))
	})
	fake.server = httptest.NewServer(mux)
	t.Cleanup(fake.server.Close)
	return fake
}

func newTestAuthService(t *testing.T, fake *googleFake, repo *accountRepoStub) (*AuthService, *secure.TokenBox) {
	t.Helper()
	box, err := secure.NewTokenBox("test-encryption-key")
	require.NoError(t, err)
	oauthConfig := NewOAuthConfig("client-id", "client-secret", "http://localhost/callback", fake.server.URL+"/auth", fake.server.URL+"/token", []string{"https://www.googleapis.com/auth/business.manage"})
	svc := NewAuthService(repo, box, oauthConfig, fake.server.Client(), nil, AuthConfig{
		SessionSecret: "session-secret",
		SessionTTL:    time.Hour,
		StateTTL:      time.Minute,
		HTTPTimeout:   5 * time.Second,
		Endpoints: gbp.Endpoints{
			AccountAPI: fake.server.URL,
			UserInfo:   fake.server.URL + "/userinfo",
		},
	})
	return svc, box
}

func TestAuthorizationURLRequestsOfflineConsent(t *testing.T) {
	fake := newGoogleFake(t)
	svc, _ := newTestAuthService(t, fake, newAccountRepoStub())

	raw, err := svc.AuthorizationURL("")
	require.NoError(t, err)
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "true", q.Get("include_granted_scopes"))
	assert.Equal(t, "client-id", q.Get("client_id"))

	claims, err := svc.verifyState(q.Get("state"))
	require.NoError(t, err)
	assert.NotEmpty(t, claims.Nonce)

	_, err = svc.verifyState("tampered")
	assert.ErrorIs(t, err, appErrors.ErrInvalidOAuthState)
}

func TestHandleCallbackStoresSealedTokensAndIssuesSession(t *testing.T) {
	fake := newGoogleFake(t)
	repo := newAccountRepoStub()
	svc, box := newTestAuthService(t, fake, repo)

	raw, err := svc.AuthorizationURL("")
	require.NoError(t, err)
	parsed, _ := url.Parse(raw)

	session, err := svc.HandleCallback(context.Background(), "auth-code", parsed.Query().Get("state"))
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", session.Email)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, "Bearer code-access", fake.lastBearer.Load())

	stored, err := repo.FindByID(context.Background(), session.AccountID)
	require.NoError(t, err)
	assert.NotEqual(t, "code-access", stored.AccessToken)
	opened, err := box.Open(stored.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "code-access", opened)
	require.True(t, stored.HasRefreshToken())
	require.NotNil(t, stored.TokenExpiry)

	claims, err := svc.ValidateSession(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.AccountID, claims.AccountID)

	_, err = svc.ValidateSession(session.AccessToken + "x")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestHandleCallbackRejectsBadState(t *testing.T) {
	fake := newGoogleFake(t)
	svc, _ := newTestAuthService(t, fake, newAccountRepoStub())

	_, err := svc.HandleCallback(context.Background(), "auth-code", "")
	assert.ErrorIs(t, err, appErrors.ErrInvalidOAuthState)

	_, err = svc.HandleCallback(context.Background(), "", "whatever")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestClientForRefreshesExpiringToken(t *testing.T) {
	fake := newGoogleFake(t)
	repo := newAccountRepoStub()
	svc, box := newTestAuthService(t, fake, repo)

	access, err := box.Seal("stale-access")
	require.NoError(t, err)
	refresh, err := box.Seal("stored-refresh")
	require.NoError(t, err)
	expiry := time.Now().Add(2 * time.Minute)
	account := &models.Account{Email: "owner@example.com", AccessToken: access, RefreshToken: &refresh, TokenExpiry: &expiry}
	require.NoError(t, repo.UpsertByEmail(context.Background(), account))

	api, err := svc.ClientFor(context.Background(), account.ID)
	require.NoError(t, err)
	accounts, err := api.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.refreshes))
	assert.Equal(t, "Bearer fresh-access", fake.lastBearer.Load())

	stored, err := repo.FindByID(context.Background(), account.ID)
	require.NoError(t, err)
	opened, err := box.Open(stored.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", opened)
	require.NotNil(t, stored.TokenExpiry)
	assert.True(t, stored.TokenExpiry.After(time.Now().Add(30*time.Minute)))
	assert.Equal(t, 1, repo.updates)
}

func TestClientForKeepsValidToken(t *testing.T) {
	fake := newGoogleFake(t)
	repo := newAccountRepoStub()
	svc, box := newTestAuthService(t, fake, repo)

	access, err := box.Seal("valid-access")
	require.NoError(t, err)
	refresh, err := box.Seal("stored-refresh")
	require.NoError(t, err)
	expiry := time.Now().Add(time.Hour)
	account := &models.Account{Email: "owner@example.com", AccessToken: access, RefreshToken: &refresh, TokenExpiry: &expiry}
	require.NoError(t, repo.UpsertByEmail(context.Background(), account))

	api, err := svc.ClientFor(context.Background(), account.ID)
	require.NoError(t, err)
	_, err = api.ListAccounts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(0), atomic.LoadInt32(&fake.refreshes))
	assert.Equal(t, "Bearer valid-access", fake.lastBearer.Load())
	assert.Equal(t, 0, repo.updates)
}

func TestClientForWithoutRefreshTokenUsesStoredToken(t *testing.T) {
	fake := newGoogleFake(t)
	repo := newAccountRepoStub()
	svc, box := newTestAuthService(t, fake, repo)

	access, err := box.Seal("only-access")
	require.NoError(t, err)
	account := &models.Account{Email: "owner@example.com", AccessToken: access}
	require.NoError(t, repo.UpsertByEmail(context.Background(), account))

	api, err := svc.ClientFor(context.Background(), account.ID)
	require.NoError(t, err)
	_, err = api.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fake.refreshes))
	assert.Equal(t, "Bearer only-access", fake.lastBearer.Load())

	_, err = svc.ClientFor(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDisconnect(t *testing.T) {
	fake := newGoogleFake(t)
	repo := newAccountRepoStub()
	svc, _ := newTestAuthService(t, fake, repo)

	account := &models.Account{Email: "owner@example.com", AccessToken: "x"}
	require.NoError(t, repo.UpsertByEmail(context.Background(), account))

	require.NoError(t, svc.Disconnect(context.Background(), account.ID))
	assert.ErrorIs(t, svc.Disconnect(context.Background(), account.ID), appErrors.ErrNotFound)

	accounts, err := svc.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
