package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "")
	t.Setenv("PORT", "")
	t.Setenv("ADMIN_ALLOWED_EMAILS", "")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowOrigins)
	assert.Empty(t, cfg.AdminGrant.AllowedEmails)
	assert.Equal(t, "authenticated", cfg.Auth.Audience)
}

func TestLoadAllowList(t *testing.T) {
	t.Setenv("ADMIN_ALLOWED_EMAILS", " Chair@Example.org, ,ops@example.org ")

	cfg := Load()

	assert.Equal(t, []string{"chair@example.org", "ops@example.org"}, cfg.AdminGrant.AllowedEmails)
	assert.True(t, cfg.IsAdminEmail("CHAIR@example.org"))
	assert.True(t, cfg.IsAdminEmail(" ops@example.org"))
	assert.False(t, cfg.IsAdminEmail("judge@example.org"))
	assert.False(t, cfg.IsAdminEmail(""))
}

func TestLoadParsesTypedValues(t *testing.T) {
	t.Setenv("GRANT_RATE_WINDOW", "30s")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("MAX_POSTER_SIZE", "1024")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.AdminGrant.RateWindow)
	assert.True(t, cfg.Objects.UseSSL)
	assert.Equal(t, int64(1024), cfg.Objects.MaxPosterSize)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.Environment = "development"
	cfg.Storage.Type = "memory"
	cfg.Auth.JWTSecret = ""
	require.NoError(t, cfg.Validate())

	cfg.Environment = "production"
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	cfg.Auth.JWTSecret = "secret"
	cfg.Storage.Type = "sqlite"
	assert.ErrorContains(t, cfg.Validate(), "STORAGE_TYPE")
}

func TestValidateGrantRateLimit(t *testing.T) {
	t.Setenv("GRANT_RATE_LIMIT", "")
	t.Setenv("GRANT_RATE_WINDOW", "")
	t.Setenv("MAX_POSTER_SIZE", "")
	cfg := Load()
	cfg.Environment = "development"
	cfg.Storage.Type = "memory"
	require.NoError(t, cfg.Validate())

	cfg.AdminGrant.RateLimit = 0
	assert.ErrorContains(t, cfg.Validate(), "GRANT_RATE_LIMIT must be at least 1")

	cfg.AdminGrant.RateLimit = 1
	cfg.AdminGrant.RateWindow = 0
	assert.ErrorContains(t, cfg.Validate(), "GRANT_RATE_WINDOW")
}

func TestGetDatabaseURL(t *testing.T) {
	cfg := &Config{}
	cfg.DB.User = "u"
	cfg.DB.Password = "p"
	cfg.DB.Host = "db"
	cfg.DB.Port = "5432"
	cfg.DB.Name = "judging"
	cfg.DB.SSLMode = "disable"

	assert.Equal(t, "postgres://u:p@db:5432/judging?sslmode=disable", cfg.GetDatabaseURL())
}
