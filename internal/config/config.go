package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	LogLevel    string

	Storage struct {
		Type string
	}

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	Server struct {
		Port            string
		GinMode         string
		ShutdownTimeout time.Duration
	}

	Auth struct {
		JWTSecret string
		Issuer    string
		Audience  string
	}

	// AdminGrant controls the one-shot admin bootstrap endpoint.
	AdminGrant struct {
		AllowedEmails []string
		RateLimit     int
		RateWindow    time.Duration
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Objects struct {
		Endpoint      string
		AccessKey     string
		SecretKey     string
		Bucket        string
		UseSSL        bool
		PublicURL     string
		MaxPosterSize int64
	}

	CORS struct {
		AllowOrigins []string
		AllowMethods []string
		AllowHeaders []string
	}
}

// Load loads configuration from environment variables
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{}

	config.Environment = getEnv("ENVIRONMENT", "development")
	config.LogLevel = getEnv("LOG_LEVEL", "info")
	config.Storage.Type = getEnv("STORAGE_TYPE", "postgres")

	config.DB.Host = getEnv("DB_HOST", "localhost")
	config.DB.Port = getEnv("DB_PORT", "5432")
	config.DB.User = getEnv("DB_USER", "posterjudge")
	config.DB.Password = getEnv("DB_PASSWORD", "posterjudge_password")
	config.DB.Name = getEnv("DB_NAME", "posterjudge_db")
	config.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	config.Server.Port = getEnv("PORT", "8080")
	config.Server.GinMode = getEnv("GIN_MODE", "debug")
	config.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second)

	config.Auth.JWTSecret = getEnv("JWT_SECRET", "")
	config.Auth.Issuer = getEnv("JWT_ISSUER", "")
	config.Auth.Audience = getEnv("JWT_AUDIENCE", "authenticated")

	config.AdminGrant.AllowedEmails = normalizeEmails(getEnvAsList("ADMIN_ALLOWED_EMAILS", ""))
	config.AdminGrant.RateLimit = int(getEnvAsInt64("GRANT_RATE_LIMIT", 5))
	config.AdminGrant.RateWindow = getEnvAsDuration("GRANT_RATE_WINDOW", time.Minute)

	config.Redis.Addr = getEnv("REDIS_ADDR", "")
	config.Redis.Password = getEnv("REDIS_PASSWORD", "")
	config.Redis.DB = int(getEnvAsInt64("REDIS_DB", 0))

	config.Objects.Endpoint = getEnv("MINIO_ENDPOINT", "")
	config.Objects.AccessKey = getEnv("MINIO_ACCESS_KEY", "")
	config.Objects.SecretKey = getEnv("MINIO_SECRET_KEY", "")
	config.Objects.Bucket = getEnv("MINIO_BUCKET", "posters")
	config.Objects.UseSSL = getEnvAsBool("MINIO_USE_SSL", false)
	config.Objects.PublicURL = getEnv("MINIO_PUBLIC_URL", "")
	config.Objects.MaxPosterSize = getEnvAsInt64("MAX_POSTER_SIZE", 20<<20)

	config.CORS.AllowOrigins = getEnvAsList("CORS_ALLOW_ORIGINS", "*")
	config.CORS.AllowMethods = getEnvAsList("CORS_ALLOW_METHODS", "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS")
	config.CORS.AllowHeaders = getEnvAsList("CORS_ALLOW_HEADERS", "Origin,Content-Length,Content-Type,Authorization")

	return config
}

// Validate checks the settings that cannot be defaulted safely.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Type {
	case "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_TYPE %q", c.Storage.Type))
	}

	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}

	// a limit of 0 would refuse every grant once Redis is configured
	if c.AdminGrant.RateLimit < 1 {
		errs = append(errs, fmt.Errorf("GRANT_RATE_LIMIT must be at least 1, got %d", c.AdminGrant.RateLimit))
	}
	if c.AdminGrant.RateWindow <= 0 {
		errs = append(errs, errors.New("GRANT_RATE_WINDOW must be positive"))
	}

	if c.Objects.MaxPosterSize <= 0 {
		errs = append(errs, errors.New("MAX_POSTER_SIZE must be positive"))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsAdminEmail reports whether email is on the admin bootstrap allow-list.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, allowed := range c.AdminGrant.AllowedEmails {
		if allowed == email {
			return true
		}
	}
	return false
}

// GetDatabaseURL returns the database connection URL
func (c *Config) GetDatabaseURL() string {
	return "postgres://" + c.DB.User + ":" + c.DB.Password + "@" + c.DB.Host + ":" + c.DB.Port + "/" + c.DB.Name + "?sslmode=" + c.DB.SSLMode
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 gets an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty items
func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func normalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		out = append(out, strings.ToLower(e))
	}
	return out
}
