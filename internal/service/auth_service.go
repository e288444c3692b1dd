package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/noah-isme/review-desk-api/internal/dto"
	"github.com/noah-isme/review-desk-api/internal/models"
	appErrors "github.com/noah-isme/review-desk-api/pkg/errors"
	"github.com/noah-isme/review-desk-api/pkg/gbp"
)

const (
	tokenRefreshSkew   = 5 * time.Minute
	tokenPersistBudget = 5 * time.Second
	sessionTokenType   = "Bearer"
)

type accountStore interface {
	UpsertByEmail(ctx context.Context, account *models.Account) error
	UpdateTokens(ctx context.Context, id, accessToken string, refreshToken *string, expiry *time.Time) error
	FindByID(ctx context.Context, id string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	Delete(ctx context.Context, id string) error
}

type tokenSealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// AuthConfig defines configuration for the OAuth flow and operator sessions.
type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	StateTTL      time.Duration
	Issuer        string
	HTTPTimeout   time.Duration
	Endpoints     gbp.Endpoints
}

// AuthService connects Google accounts and issues operator sessions.
type AuthService struct {
	accounts   accountStore
	sealer     tokenSealer
	oauth      *oauth2.Config
	httpClient *http.Client
	logger     *zap.Logger
	config     AuthConfig
	now        func() time.Time
}

// NewAuthService constructs an AuthService. httpClient is the base transport for Google calls and may be nil.
func NewAuthService(accounts accountStore, sealer tokenSealer, oauthConfig *oauth2.Config, httpClient *http.Client, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 12 * time.Hour
	}
	if config.StateTTL <= 0 {
		config.StateTTL = 10 * time.Minute
	}
	if config.Issuer == "" {
		config.Issuer = "review-desk-api"
	}
	return &AuthService{
		accounts:   accounts,
		sealer:     sealer,
		oauth:      oauthConfig,
		httpClient: httpClient,
		logger:     logger,
		config:     config,
		now:        time.Now,
	}
}

// NewOAuthConfig builds the authorization-code client for Google.
func NewOAuthConfig(clientID, clientSecret, redirectURI, authURL, tokenURL string, scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthorizationURL returns the Google consent URL carrying a signed state parameter.
func (s *AuthService) AuthorizationURL(redirect string) (string, error) {
	if s.oauth == nil || s.oauth.ClientID == "" {
		return "", appErrors.Clone(appErrors.ErrInternal, "google oauth client is not configured")
	}
	state, err := s.signState(redirect)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign oauth state")
	}
	return s.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	), nil
}

// HandleCallback exchanges the authorization code, stores the sealed credentials and opens a session.
func (s *AuthService) HandleCallback(ctx context.Context, code, state string) (*dto.SessionResponse, error) {
	if strings.TrimSpace(code) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code is required")
	}
	if _, err := s.verifyState(state); err != nil {
		return nil, err
	}

	token, err := s.oauth.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		s.logger.Warn("oauth code exchange failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrExternalSync.Code, appErrors.ErrExternalSync.Status, "failed to exchange authorization code")
	}

	info, err := gbp.New(s.clientFor(ctx, oauth2.StaticTokenSource(token)), s.config.Endpoints).UserInfo(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalSync.Code, appErrors.ErrExternalSync.Status, "failed to load google user info")
	}

	account := &models.Account{Email: info.Email}
	if err := s.sealInto(account, token); err != nil {
		return nil, err
	}
	if err := s.accounts.UpsertByEmail(ctx, account); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store account")
	}

	session, expiresAt, err := s.issueSession(account)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session token")
	}

	s.logger.Info("google account connected", zap.String("account_id", account.ID), zap.Bool("has_refresh_token", account.HasRefreshToken()))
	return &dto.SessionResponse{
		AccessToken: session,
		TokenType:   sessionTokenType,
		ExpiresAt:   expiresAt,
		AccountID:   account.ID,
		Email:       account.Email,
	}, nil
}

// ValidateSession parses and validates an operator session token.
func (s *AuthService) ValidateSession(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.SessionSecret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session token")
	}
	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.AccountID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session token")
	}
	return claims, nil
}

// ListAccounts returns every connected account.
func (s *AuthService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accounts")
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

// Disconnect removes an account together with its locations, reviews and pending replies.
func (s *AuthService) Disconnect(ctx context.Context, id string) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete account")
	}
	s.logger.Info("google account disconnected", zap.String("account_id", id))
	return nil
}

// ClientFor returns a Google client for the account. Credentials expiring within five minutes are
// refreshed before use and the refreshed pair is persisted sealed.
func (s *AuthService) ClientFor(ctx context.Context, accountID string) (GoogleAPI, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	source, err := s.tokenSource(ctx, account)
	if err != nil {
		return nil, err
	}
	return gbp.New(s.clientFor(ctx, source), s.config.Endpoints), nil
}

func (s *AuthService) tokenSource(ctx context.Context, account *models.Account) (oauth2.TokenSource, error) {
	access, err := s.sealer.Open(account.AccessToken)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open stored credentials")
	}
	stored := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
	if account.TokenExpiry != nil {
		stored.Expiry = *account.TokenExpiry
	}
	if !account.HasRefreshToken() {
		return oauth2.StaticTokenSource(stored), nil
	}

	refresh, err := s.sealer.Open(*account.RefreshToken)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open stored credentials")
	}
	stored.RefreshToken = refresh
	if stored.Expiry.IsZero() {
		stored.Expiry = s.now()
	}

	refresher := s.oauth.TokenSource(s.oauthContext(ctx), &oauth2.Token{RefreshToken: refresh})
	return &persistingTokenSource{
		base: oauth2.ReuseTokenSourceWithExpiry(stored, refresher, tokenRefreshSkew),
		last: access,
		persist: func(tok *oauth2.Token) error {
			return s.persistToken(context.WithoutCancel(ctx), account.ID, tok)
		},
		logger: s.logger.With(zap.String("account_id", account.ID)),
	}, nil
}

func (s *AuthService) persistToken(ctx context.Context, accountID string, tok *oauth2.Token) error {
	ctx, cancel := context.WithTimeout(ctx, tokenPersistBudget)
	defer cancel()

	var account models.Account
	if err := s.sealInto(&account, tok); err != nil {
		return err
	}
	if err := s.accounts.UpdateTokens(ctx, accountID, account.AccessToken, account.RefreshToken, account.TokenExpiry); err != nil {
		return err
	}
	s.logger.Debug("google credentials refreshed", zap.String("account_id", accountID))
	return nil
}

func (s *AuthService) sealInto(account *models.Account, tok *oauth2.Token) error {
	access, err := s.sealer.Seal(tok.AccessToken)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seal credentials")
	}
	account.AccessToken = access
	account.RefreshToken = nil
	if tok.RefreshToken != "" {
		refresh, err := s.sealer.Seal(tok.RefreshToken)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seal credentials")
		}
		account.RefreshToken = &refresh
	}
	account.TokenExpiry = nil
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC()
		account.TokenExpiry = &expiry
	}
	return nil
}

func (s *AuthService) clientFor(ctx context.Context, source oauth2.TokenSource) *http.Client {
	client := oauth2.NewClient(s.oauthContext(ctx), source)
	if s.config.HTTPTimeout > 0 {
		client.Timeout = s.config.HTTPTimeout
	}
	return client
}

func (s *AuthService) oauthContext(ctx context.Context) context.Context {
	if s.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func (s *AuthService) signState(redirect string) (string, error) {
	issuedAt := s.now()
	claims := models.OAuthStateClaims{
		Nonce:    uuid.NewString(),
		Redirect: redirect,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   "oauth-state",
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.StateTTL)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.SessionSecret))
}

func (s *AuthService) verifyState(state string) (*models.OAuthStateClaims, error) {
	if state == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidOAuthState, "state is required")
	}
	token, err := jwt.ParseWithClaims(state, &models.OAuthStateClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.SessionSecret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithSubject("oauth-state"))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidOAuthState.Code, appErrors.ErrInvalidOAuthState.Status, appErrors.ErrInvalidOAuthState.Message)
	}
	claims, ok := token.Claims.(*models.OAuthStateClaims)
	if !ok || !token.Valid || claims.Nonce == "" {
		return nil, appErrors.ErrInvalidOAuthState
	}
	return claims, nil
}

func (s *AuthService) issueSession(account *models.Account) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.config.SessionTTL)
	claims := models.SessionClaims{
		AccountID: account.ID,
		Email:     account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   account.ID,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.SessionSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// persistingTokenSource saves every access token it has not handed out before.
type persistingTokenSource struct {
	mu      sync.Mutex
	base    oauth2.TokenSource
	last    string
	persist func(*oauth2.Token) error
	logger  *zap.Logger
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken == p.last {
		return tok, nil
	}
	p.last = tok.AccessToken
	if err := p.persist(tok); err != nil {
		p.logger.Warn("failed to persist refreshed credentials", zap.Error(err))
	}
	return tok, nil
}
