package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/haithamlamki/sssppprt-sub000/storage"
)

const (
	defaultServerPort       = 8080
	defaultDBConnectTimeout = 5 * time.Second
)

// Config holds every setting the server reads from the environment.
type Config struct {
	DatabaseURL      string
	JWTSecretKey     string
	ServerPort       int
	LogLevel         slog.Level
	AllowedOrigins   []string
	DBConnectTimeout time.Duration
	R2               storage.CloudflareR2UploaderConfig
}

// SnapshotsEnabled reports whether every R2 setting is present.
func (c *Config) SnapshotsEnabled() bool {
	return c.R2.Complete()
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, which has the os.LookupEnv contract.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := &Config{
		DatabaseURL:  get("DATABASE_URL"),
		JWTSecretKey: get("JWT_SECRET_KEY"),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	cfg.ServerPort = defaultServerPort
	if portStr := get("SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
		}
		if port <= 0 || port > 65535 {
			return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
		}
		cfg.ServerPort = port
	}

	cfg.LogLevel = slog.LevelInfo
	if levelStr := get("LOG_LEVEL"); levelStr != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(levelStr)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
		}
	}

	cfg.AllowedOrigins = []string{"*"}
	if originsStr := get("CORS_ALLOWED_ORIGINS"); originsStr != "" {
		var origins []string
		for _, o := range strings.Split(originsStr, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) == 0 {
			return nil, fmt.Errorf("CORS_ALLOWED_ORIGINS contains no origins")
		}
		cfg.AllowedOrigins = origins
	}

	cfg.DBConnectTimeout = defaultDBConnectTimeout
	if timeoutStr := get("DB_CONNECT_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_CONNECT_TIMEOUT environment variable: %w", err)
		}
		if timeout <= 0 {
			return nil, fmt.Errorf("DB_CONNECT_TIMEOUT must be positive, got %s", timeout)
		}
		cfg.DBConnectTimeout = timeout
	}

	cfg.R2 = storage.CloudflareR2UploaderConfig{
		AccountID:       get("R2_ACCOUNT_ID"),
		AccessKeyID:     get("R2_ACCESS_KEY_ID"),
		SecretAccessKey: get("R2_SECRET_ACCESS_KEY"),
		BucketName:      get("R2_BUCKET_NAME"),
		PublicBaseURL:   get("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}
