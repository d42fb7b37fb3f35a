// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides token verification settings for middleware.
// An empty secret disables verification (local development).
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// AIGatewayConfig provides settings for the OpenAI-compatible extraction gateway.
type AIGatewayConfig interface {
	GetAIGatewayURL() string
	GetAIGatewayAPIKey() string
	GetAIGatewayModel() string
	GetAIGatewayTemperature() float64
	IsAIGatewayEnabled() bool
}

// WhatsAppConfig provides settings for the WhatsApp gateway and webhook.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
	GetWhatsAppVerifyToken() string
	IsWhatsAppEnabled() bool
}

// SchedulerConfig provides settings for the background job queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetBackupCron() string
	GetBackupRetention() time.Duration
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketBackups() string
	GetMinioBucketMenuPhotos() string
	IsMinIOEnabled() bool
}

// SMTPConfig provides settings for outgoing email.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsSMTPEnabled() bool
}

// CatalogCacheConfig provides settings for the product snapshot cache.
type CatalogCacheConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetCatalogCacheTTL() time.Duration
}

// DraftConfig provides settings for draft sessions.
type DraftConfig interface {
	GetDraftSessionTTL() time.Duration
	GetDraftSweepInterval() time.Duration
}

// PublicConfig provides settings for the customer-facing order page.
type PublicConfig interface {
	GetPublicBaseURL() string
	GetRestaurantName() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	JWTAccessSecret      string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	AIGatewayURL         string
	AIGatewayAPIKey      string
	AIGatewayModel       string
	AIGatewayTemperature float64
	WhatsAppURL          string
	WhatsAppKey          string
	WhatsAppDeviceID     string
	WhatsAppVerifyToken  string
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	BackupCron           string
	BackupRetention      time.Duration
	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOUseSSL          bool
	MinIOMaxFileSize     int64
	MinioBucketBackups   string
	MinioBucketMenuPhoto string
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	EmailFromName        string
	EmailFromAddress     string
	CatalogCacheTTL      time.Duration
	DraftSessionTTL      time.Duration
	DraftSweepInterval   time.Duration
	PublicBaseURL        string
	RestaurantName       string
}

// =============================================================================
// Interface Implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string     { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

func (c *Config) GetAIGatewayURL() string          { return c.AIGatewayURL }
func (c *Config) GetAIGatewayAPIKey() string       { return c.AIGatewayAPIKey }
func (c *Config) GetAIGatewayModel() string        { return c.AIGatewayModel }
func (c *Config) GetAIGatewayTemperature() float64 { return c.AIGatewayTemperature }
func (c *Config) IsAIGatewayEnabled() bool         { return c.AIGatewayAPIKey != "" }

func (c *Config) GetWhatsAppURL() string         { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string         { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string    { return c.WhatsAppDeviceID }
func (c *Config) GetWhatsAppVerifyToken() string { return c.WhatsAppVerifyToken }
func (c *Config) IsWhatsAppEnabled() bool        { return c.WhatsAppURL != "" }

func (c *Config) GetRedisURL() string                  { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool            { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string            { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int             { return c.AsynqConcurrency }
func (c *Config) GetBackupCron() string                { return c.BackupCron }
func (c *Config) GetBackupRetention() time.Duration    { return c.BackupRetention }
func (c *Config) GetCatalogCacheTTL() time.Duration    { return c.CatalogCacheTTL }
func (c *Config) GetDraftSessionTTL() time.Duration    { return c.DraftSessionTTL }
func (c *Config) GetDraftSweepInterval() time.Duration { return c.DraftSweepInterval }

func (c *Config) GetMinIOEndpoint() string         { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string        { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string        { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool             { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64       { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketBackups() string    { return c.MinioBucketBackups }
func (c *Config) GetMinioBucketMenuPhotos() string { return c.MinioBucketMenuPhoto }

// IsMinIOEnabled returns true if MinIO is configured.
func (c *Config) IsMinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsSMTPEnabled() bool         { return c.SMTPHost != "" && c.EmailFromAddress != "" }

func (c *Config) GetPublicBaseURL() string  { return c.PublicBaseURL }
func (c *Config) GetRestaurantName() string { return c.RestaurantName }

// Load reads configuration from the environment, honouring an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AIGatewayURL:         getEnv("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1"),
		AIGatewayAPIKey:      getEnv("AI_GATEWAY_API_KEY", ""),
		AIGatewayModel:       getEnv("AI_GATEWAY_MODEL", "google/gemini-2.5-flash"),
		AIGatewayTemperature: mustFloat(getEnv("AI_GATEWAY_TEMPERATURE", "0.3")),
		WhatsAppURL:          getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:          getEnv("WHATSAPP_KEY", ""),
		WhatsAppDeviceID:     getEnv("WHATSAPP_DEVICE_ID", ""),
		WhatsAppVerifyToken:  getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:     int(mustInt64(getEnv("ASYNQ_CONCURRENCY", "5"))),
		BackupCron:           getEnv("BACKUP_CRON", "0 3 * * *"),
		BackupRetention:      mustDuration(getEnv("BACKUP_RETENTION", "168h")),
		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:     mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "10485760")),
		MinioBucketBackups:   getEnv("MINIO_BUCKET_BACKUPS", "backups"),
		MinioBucketMenuPhoto: getEnv("MINIO_BUCKET_MENU_PHOTOS", "menu-photos"),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             int(mustInt64(getEnv("SMTP_PORT", "587"))),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "Mare Mio"),
		EmailFromAddress:     getEnv("EMAIL_FROM_ADDRESS", ""),
		CatalogCacheTTL:      mustDuration(getEnv("CATALOG_CACHE_TTL", "5m")),
		DraftSessionTTL:      mustDuration(getEnv("DRAFT_SESSION_TTL", "2h")),
		DraftSweepInterval:   mustDuration(getEnv("DRAFT_SWEEP_INTERVAL", "5m")),
		PublicBaseURL:        getEnv("PUBLIC_BASE_URL", "http://localhost:5173"),
		RestaurantName:       getEnv("RESTAURANT_NAME", "Mare Mio"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.DraftSessionTTL <= 0 {
		return nil, fmt.Errorf("DRAFT_SESSION_TTL must be a positive duration")
	}
	if cfg.DraftSweepInterval <= 0 {
		return nil, fmt.Errorf("DRAFT_SWEEP_INTERVAL must be a positive duration")
	}
	if strings.EqualFold(cfg.Env, "production") && cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required in production")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
