package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Google   GoogleConfig
	Security SecurityConfig
	Replies  RepliesConfig
	Cache    CacheConfig
	Sync     SyncConfig
	Exports  ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
	ConnMaxIdle  time.Duration
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig governs operator session tokens and the OAuth state parameter.
type JWTConfig struct {
	Secret         string
	Expiration     time.Duration
	StateTTL       time.Duration
	RequireSession bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GoogleConfig holds OAuth client credentials and Business Profile API endpoints.
type GoogleConfig struct {
	ClientID           string
	ClientSecret       string
	RedirectURI        string
	Scopes             []string
	AuthURL            string
	TokenURL           string
	AccountAPIURL      string
	BusinessInfoAPIURL string
	ReviewsAPIURL      string
	UserInfoURL        string
	HTTPTimeout        time.Duration
}

// SecurityConfig carries the key used to seal OAuth tokens at rest.
type SecurityConfig struct {
	TokenEncryptionKey string
}

// RepliesConfig bounds the external reply submission.
type RepliesConfig struct {
	SubmitTimeout time.Duration
}

// CacheConfig toggles Redis caching and its TTLs.
type CacheConfig struct {
	Enabled         bool
	TemplateTTL     time.Duration
	AccountNameTTL  time.Duration
	LocationListTTL time.Duration
}

// SyncConfig tunes the background review synchronisation workers.
type SyncConfig struct {
	Workers     int
	Retries     int
	Interval    time.Duration
	AutoSuggest bool
}

// ExportsConfig controls reply history exports.
type ExportsConfig struct {
	Enabled         bool
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLife:  parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), time.Hour),
		ConnMaxIdle:  parseDuration(v.GetString("DB_CONN_MAX_IDLE_TIME"), 30*time.Minute),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:         v.GetString("JWT_SECRET"),
		Expiration:     parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		StateTTL:       parseDuration(v.GetString("OAUTH_STATE_TTL"), 10*time.Minute),
		RequireSession: v.GetBool("AUTH_REQUIRE_SESSION"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Google = GoogleConfig{
		ClientID:           v.GetString("GOOGLE_CLIENT_ID"),
		ClientSecret:       v.GetString("GOOGLE_CLIENT_SECRET"),
		RedirectURI:        v.GetString("GOOGLE_REDIRECT_URI"),
		Scopes:             splitAndTrim(v.GetString("GOOGLE_SCOPES")),
		AuthURL:            v.GetString("GOOGLE_AUTH_URL"),
		TokenURL:           v.GetString("GOOGLE_TOKEN_URL"),
		AccountAPIURL:      v.GetString("GOOGLE_ACCOUNT_API_URL"),
		BusinessInfoAPIURL: v.GetString("GOOGLE_BUSINESS_INFO_API_URL"),
		ReviewsAPIURL:      v.GetString("GOOGLE_REVIEWS_API_URL"),
		UserInfoURL:        v.GetString("GOOGLE_USERINFO_URL"),
		HTTPTimeout:        parseDuration(v.GetString("GOOGLE_HTTP_TIMEOUT"), 20*time.Second),
	}

	cfg.Security = SecurityConfig{TokenEncryptionKey: v.GetString("TOKEN_ENCRYPTION_KEY")}

	cfg.Replies = RepliesConfig{
		SubmitTimeout: parseDuration(v.GetString("REPLY_SUBMIT_TIMEOUT"), 15*time.Second),
	}

	cfg.Cache = CacheConfig{
		Enabled:         v.GetBool("ENABLE_CACHE"),
		TemplateTTL:     parseDuration(v.GetString("TEMPLATE_CACHE_TTL"), 5*time.Minute),
		AccountNameTTL:  parseDuration(v.GetString("ACCOUNT_NAME_CACHE_TTL"), time.Hour),
		LocationListTTL: parseDuration(v.GetString("LOCATION_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Sync = SyncConfig{
		Workers:     v.GetInt("SYNC_WORKERS"),
		Retries:     v.GetInt("SYNC_RETRIES"),
		Interval:    parseDuration(v.GetString("SYNC_INTERVAL"), 0),
		AutoSuggest: v.GetBool("SYNC_AUTO_SUGGEST"),
	}

	cfg.Exports = ExportsConfig{
		Enabled:         v.GetBool("ENABLE_EXPORTS"),
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), time.Hour),
		CleanupInterval: parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8000)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "review_desk")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", "30m")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("OAUTH_STATE_TTL", "10m")
	v.SetDefault("AUTH_REQUIRE_SESSION", true)

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080,http://localhost")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URI", "http://localhost:8000/api/v1/auth/callback")
	v.SetDefault("GOOGLE_SCOPES", "https://www.googleapis.com/auth/business.manage,openid,email")
	v.SetDefault("GOOGLE_AUTH_URL", "https://accounts.google.com/o/oauth2/auth")
	v.SetDefault("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token")
	v.SetDefault("GOOGLE_ACCOUNT_API_URL", "https://mybusinessaccountmanagement.googleapis.com/v1")
	v.SetDefault("GOOGLE_BUSINESS_INFO_API_URL", "https://mybusinessbusinessinformation.googleapis.com/v1")
	v.SetDefault("GOOGLE_REVIEWS_API_URL", "https://mybusiness.googleapis.com/v4")
	v.SetDefault("GOOGLE_USERINFO_URL", "https://www.googleapis.com/oauth2/v2/userinfo")
	v.SetDefault("GOOGLE_HTTP_TIMEOUT", "20s")

	v.SetDefault("TOKEN_ENCRYPTION_KEY", "dev_token_encryption_key")
	v.SetDefault("REPLY_SUBMIT_TIMEOUT", "15s")

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("TEMPLATE_CACHE_TTL", "5m")
	v.SetDefault("ACCOUNT_NAME_CACHE_TTL", "1h")
	v.SetDefault("LOCATION_CACHE_TTL", "2m")

	v.SetDefault("SYNC_WORKERS", 2)
	v.SetDefault("SYNC_RETRIES", 3)
	v.SetDefault("SYNC_INTERVAL", "")
	v.SetDefault("SYNC_AUTO_SUGGEST", false)

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "1h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
