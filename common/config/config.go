package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration. It is constructed once at startup
// and passed to every component constructor; there is no ambient global.
type Config struct {
	Service  ServiceConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Topics   TopicConfig
	CORS     CORSConfig
}

// ServiceConfig holds HTTP-facing settings.
type ServiceConfig struct {
	Name       string
	Host       string
	Port       int
	APIRoute   string
	DRSSelfURL string
	LogLevel   string
	LogFormat  string
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds message-broker connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StorageConfig holds S3-compatible object storage settings.
type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Region       string
	UseSSL       bool
	OutboxBucket string
	PresignTTL   time.Duration
}

// TopicConfig names the event streams this service publishes to and
// consumes from.
type TopicConfig struct {
	StageRequest     string
	FileStaged       string
	FileRegistered   string
	ObjectRegistered string
	ConsumerGroup    string
}

// CORSConfig holds the CORS allow-lists applied by the HTTP server.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

// Load loads configuration from environment variables.
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:       serviceName,
			Host:       getEnv("HOST", "127.0.0.1"),
			Port:       getEnvInt("PORT", 8080),
			APIRoute:   getEnv("API_ROUTE", "/ga4gh/drs/v1"),
			DRSSelfURL: getEnv("DRS_SELF_URL", "drs://drshub.localhost:8080"),
			LogLevel:   getEnv("LOG_LEVEL", "info"),
			LogFormat:  getEnv("LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "storage"),
			User:        getEnv("POSTGRES_USER", "admin"),
			Password:    getEnv("POSTGRES_PASSWORD", "admin"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 50),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 10),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Endpoint:     getEnv("S3_ENDPOINT", "localhost:4566"),
			AccessKey:    getEnv("S3_ACCESS_KEY", "test"),
			SecretKey:    getEnv("S3_SECRET_KEY", "test"),
			Region:       getEnv("S3_REGION", "us-east-1"),
			UseSSL:       getEnvBool("S3_USE_SSL", false),
			OutboxBucket: getEnv("S3_OUTBOX_BUCKET_ID", "outbox"),
			PresignTTL:   getEnvDuration("S3_PRESIGN_TTL", 24*time.Hour),
		},
		Topics: TopicConfig{
			StageRequest:     getEnv("TOPIC_STAGE_REQUEST", "stage_request"),
			FileStaged:       getEnv("TOPIC_FILE_STAGED", "file_staged"),
			FileRegistered:   getEnv("TOPIC_FILE_REGISTERED", "file_registered"),
			ObjectRegistered: getEnv("TOPIC_OBJECT_REGISTERED", "drs_object_registered"),
			ConsumerGroup:    getEnv("CONSUMER_GROUP", "drshub"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getEnvSlice("CORS_ALLOWED_ORIGINS", nil),
			AllowedMethods:   getEnvSlice("CORS_ALLOWED_METHODS", nil),
			AllowedHeaders:   getEnvSlice("CORS_ALLOWED_HEADERS", nil),
			AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", false),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid.
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.Storage.OutboxBucket == "" {
		return fmt.Errorf("outbox bucket id is required")
	}

	if !strings.HasPrefix(c.Service.DRSSelfURL, "drs://") {
		return fmt.Errorf("drs self url must use the drs:// scheme: %s", c.Service.DRSSelfURL)
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns the host:port address of the message broker.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
