package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.True(t, cfg.JWT.RequireSession)
	assert.Equal(t, 10*time.Minute, cfg.JWT.StateTTL)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/business.manage", "openid", "email"}, cfg.Google.Scopes)
	assert.Equal(t, 15*time.Second, cfg.Replies.SubmitTimeout)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLife)
	assert.Zero(t, cfg.Sync.Interval)
	assert.False(t, cfg.Sync.AutoSuggest)
}

func TestOverridesAndMalformedDurations(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("AUTH_REQUIRE_SESSION", false)
	v.Set("SYNC_INTERVAL", "15m")
	v.Set("TEMPLATE_CACHE_TTL", "soon")
	v.Set("ALLOWED_ORIGINS", " https://desk.example.com , ,http://localhost ")
	cfg := fromViper(v)

	assert.False(t, cfg.JWT.RequireSession)
	assert.Equal(t, 15*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TemplateTTL)
	assert.Equal(t, []string{"https://desk.example.com", "http://localhost"}, cfg.CORS.AllowedOrigins)
}
