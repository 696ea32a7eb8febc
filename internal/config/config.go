package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pagesmith/internal/database"
	"pagesmith/internal/utils"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Storage  StorageConfig
	LLM      LLMConfig
	Keyring  KeyringConfig
}

type ServerConfig struct {
	Addr          string
	PublicBaseURL string
	DefaultUserID string
}

type DatabaseConfig struct {
	Path string
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// StorageConfig selects and configures the generated-file sink.
type StorageConfig struct {
	Backend      string
	GeneratedDir string
	GitJournal   bool

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool
	// S3PublicURL prefixes object URLs handed to clients, e.g. a CDN.
	S3PublicURL string
}

// LLMConfig holds provider defaults and the content pipeline pacing.
type LLMConfig struct {
	DefaultProvider string
	MaxTokens       int
	Timeout         time.Duration
	InterFileDelay  time.Duration
}

type KeyringConfig struct {
	Dir      string
	Password string
}

const (
	StorageDisk = "disk"
	StorageS3   = "s3"
)

var knownProviders = map[string]bool{
	"gemini":    true,
	"openai":    true,
	"anthropic": true,
}

// Load reads configuration from the environment after loading the project
// .env file, if any.
func Load() (*Config, error) {
	if err := utils.LoadEnv(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:          getEnv("HTTP_ADDR", ":8080"),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
			DefaultUserID: getEnv("DEFAULT_USER_ID", "local"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", database.GetDefaultDBPath()),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvAsBool("LOG_PRETTY", false),
		},
		Storage: StorageConfig{
			Backend:      strings.ToLower(getEnv("STORAGE_BACKEND", StorageDisk)),
			GeneratedDir: getEnv("GENERATED_DIR", "generated"),
			GitJournal:   getEnvAsBool("GIT_JOURNAL", false),
			S3Endpoint:   getEnv("S3_ENDPOINT", ""),
			S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:  getEnv("S3_SECRET_KEY", ""),
			S3Bucket:     getEnv("S3_BUCKET", ""),
			S3Region:     getEnv("S3_REGION", "us-east-1"),
			S3UseSSL:     getEnvAsBool("S3_USE_SSL", false),
			S3PublicURL:  strings.TrimRight(getEnv("S3_PUBLIC_URL", ""), "/"),
		},
		LLM: LLMConfig{
			DefaultProvider: strings.ToLower(getEnv("DEFAULT_PROVIDER", "gemini")),
			MaxTokens:       getEnvAsInt("MAX_TOKENS", 4000),
			Timeout:         getEnvAsDuration("PROVIDER_TIMEOUT", 120*time.Second),
			InterFileDelay:  getEnvAsDuration("INTER_FILE_DELAY", time.Second),
		},
		Keyring: KeyringConfig{
			Dir:      getEnv("KEYRING_DIR", defaultKeyringDir()),
			Password: getEnv("KEYRING_PASSWORD", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageDisk:
	case StorageS3:
		if c.Storage.S3Endpoint == "" {
			return fmt.Errorf("S3_ENDPOINT is required when STORAGE_BACKEND=s3")
		}
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if !knownProviders[c.LLM.DefaultProvider] {
		return fmt.Errorf("unknown DEFAULT_PROVIDER %q", c.LLM.DefaultProvider)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("MAX_TOKENS must be positive")
	}
	if c.LLM.InterFileDelay < 0 {
		return fmt.Errorf("INTER_FILE_DELAY must not be negative")
	}
	return nil
}

func defaultKeyringDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".pagesmith", "keys")
	}
	return filepath.Join(configDir, "pagesmith", "keys")
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
