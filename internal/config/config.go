package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// devJWTSecret signs tokens outside production when JWT_SECRET is unset.
const devJWTSecret = "estatehub-dev-secret"

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	HTTPTimeout     time.Duration `json:"http_timeout"`

	// Redis configuration
	RedisURL       string        `json:"redis_url"`
	RedisPrefix    string        `json:"redis_prefix"`
	QueryCacheTTL  time.Duration `json:"query_cache_ttl"`
	IdempotencyTTL time.Duration `json:"idempotency_ttl"`
	SubmitLockTTL  time.Duration `json:"submit_lock_ttl"`

	// CloudFlare R2 Configuration
	R2Endpoint     string `json:"r2_endpoint"`
	R2AccessKey    string `json:"r2_access_key"`
	R2SecretKey    string `json:"r2_secret_key"`
	R2AccountID    string `json:"r2_account_id"`
	R2Region       string `json:"r2_region"`
	PropertyBucket string `json:"property_bucket"`
	BlogBucket     string `json:"blog_bucket"`
	MediaPublicURL string `json:"media_public_url"`

	// Media limits
	MaxFileSize int64 `json:"max_file_size"`
	MaxImages   int   `json:"max_images"`

	// Persistence
	DatabaseURL   string `json:"database_url"`
	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`
	StoragePath   string `json:"storage_path"`

	// Orphaned media janitor
	JanitorWorkers   int           `json:"janitor_workers"`
	JanitorInterval  time.Duration `json:"janitor_interval"`
	JanitorBatchSize int           `json:"janitor_batch_size"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFile   string `json:"log_file"`
	LogPretty bool   `json:"log_pretty"`

	// Security
	JWTSecret   string `json:"-"`
	AdminAPIKey string `json:"-"`

	// CLI client
	APIBaseURL string `json:"api_base_url"`
	APIToken   string `json:"-"`
}

// Load loads configuration from environment variables and validates it
func Load() *Config {
	cfg, err := LoadE()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// LoadE is Load without the fatal exit.
func LoadE() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{
		// Server configuration
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 60*time.Second),

		// Redis configuration
		RedisURL:       getEnv("REDIS_URL", ""),
		RedisPrefix:    getEnv("REDIS_PREFIX", "estatehub:"),
		QueryCacheTTL:  getEnvAsDuration("QUERY_CACHE_TTL", 2*time.Minute),
		IdempotencyTTL: getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		SubmitLockTTL:  getEnvAsDuration("SUBMIT_LOCK_TTL", 5*time.Minute),

		// CloudFlare R2 Configuration
		R2Endpoint:     getEnv("R2_ENDPOINT", ""),
		R2AccessKey:    getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey:    getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2AccountID:    getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
		R2Region:       getEnv("R2_REGION", "auto"),
		PropertyBucket: getEnv("PROPERTY_BUCKET", "property-images"),
		BlogBucket:     getEnv("BLOG_BUCKET", "blog-images"),
		MediaPublicURL: getEnv("MEDIA_PUBLIC_URL", "http://localhost:8080/media"),

		// Media limits
		MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10<<20), // 10MB
		MaxImages:   getEnvAsInt("MAX_IMAGES", 20),

		// Persistence
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "estatehub"),
		StoragePath:   getEnv("STORAGE_PATH", "./data"),

		// Orphaned media janitor
		JanitorWorkers:   getEnvAsInt("JANITOR_WORKERS", 2),
		JanitorInterval:  getEnvAsDuration("JANITOR_INTERVAL", 30*time.Second),
		JanitorBatchSize: getEnvAsInt("JANITOR_BATCH_SIZE", 50),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFile:   getEnv("LOG_FILE", ""),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),

		// Security
		JWTSecret:   getEnv("JWT_SECRET", ""),
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		// CLI client
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		APIToken:   getEnv("API_TOKEN", ""),
	}

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		log.Printf("Warning: JWT_SECRET not set, using the development secret")
		cfg.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// R2Configured reports whether remote object storage credentials are present.
func (c *Config) R2Configured() bool {
	return c.R2AccessKey != "" && c.R2SecretKey != "" && (c.R2Endpoint != "" || c.R2AccountID != "")
}

// ResolvedR2Endpoint returns R2_ENDPOINT or the account endpoint derived from CLOUDFLARE_ACCOUNT_ID.
func (c *Config) ResolvedR2Endpoint() string {
	if c.R2Endpoint != "" {
		return c.R2Endpoint
	}
	if c.R2AccountID == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2AccountID)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error
	if c.PropertyBucket == "" {
		errs = append(errs, errors.New("PROPERTY_BUCKET must not be empty"))
	}
	if c.BlogBucket == "" {
		errs = append(errs, errors.New("BLOG_BUCKET must not be empty"))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, errors.New("MAX_FILE_SIZE must be positive"))
	}
	if c.MaxImages <= 0 {
		errs = append(errs, errors.New("MAX_IMAGES must be positive"))
	}
	if c.JanitorWorkers <= 0 || c.JanitorBatchSize <= 0 {
		errs = append(errs, errors.New("JANITOR_WORKERS and JANITOR_BATCH_SIZE must be positive"))
	}
	if c.IsProduction() && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.DatabaseURL != "" && c.MongoURI != "" {
		errs = append(errs, errors.New("set only one of DATABASE_URL and MONGO_URI"))
	}
	return errors.Join(errs...)
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsInt64(name string, defaultVal int64) int64 {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultVal
}
