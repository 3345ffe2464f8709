// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken     string
	DatabaseURL          string
	LogLevel             string
	LogFormat            string
	WhitelistedUserIDs   []int64
	WhitelistedUsernames []string

	ExchangeProvider string
	ExchangeBaseURL  string
	ExchangeAPIKey   string
	ExchangeTimeout  time.Duration
	ExchangeCacheTTL time.Duration

	// DefaultThresholdPercent is the overall notification threshold as a
	// percentage of the budget limit.
	DefaultThresholdPercent int

	DailyDigestEnabled bool
	DigestHour         int
	DigestTimezone     string

	OTelExporter    string
	OTelEndpoint    string
	OTelServiceName string
}

var (
	validExchangeProviders = []string{"frankfurter", "exchangeratehost", "none"}
	validOTelExporters     = []string{"none", "stdout", "otlpgrpc", "otlphttp"}
)

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogFormat:        strings.ToLower(os.Getenv("LOG_FORMAT")),
		ExchangeProvider: envOr("EXCHANGE_PROVIDER", "frankfurter"),
		ExchangeBaseURL:  os.Getenv("EXCHANGE_RATE_BASE_URL"),
		ExchangeAPIKey:   os.Getenv("EXCHANGE_RATE_API_KEY"),
		ExchangeTimeout:  durationOr("EXCHANGE_RATE_TIMEOUT", 5*time.Second),
		ExchangeCacheTTL: durationOr("EXCHANGE_RATE_CACHE_TTL", 12*time.Hour),
		OTelExporter:     envOr("OTEL_EXPORTER", "none"),
		OTelEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTelServiceName:  envOr("OTEL_SERVICE_NAME", "trip-ledger-bot"),
	}
	cfg.ExchangeProvider = strings.ToLower(cfg.ExchangeProvider)
	cfg.OTelExporter = strings.ToLower(cfg.OTelExporter)

	cfg.DefaultThresholdPercent = 80
	if pctStr := os.Getenv("DEFAULT_THRESHOLD_PERCENT"); pctStr != "" {
		if p, err := strconv.Atoi(pctStr); err == nil && p > 0 && p <= 100 {
			cfg.DefaultThresholdPercent = p
		}
	}

	cfg.DailyDigestEnabled = os.Getenv("DAILY_DIGEST_ENABLED") == "true"
	cfg.DigestHour = 20
	if hourStr := os.Getenv("DIGEST_HOUR"); hourStr != "" {
		if h, err := strconv.Atoi(hourStr); err == nil && h >= 0 && h <= 23 {
			cfg.DigestHour = h
		}
	}
	cfg.DigestTimezone = "Asia/Singapore"
	if tz := os.Getenv("DIGEST_TIMEZONE"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			cfg.DigestTimezone = tz
		}
	}

	whitelistStr := os.Getenv("WHITELISTED_USER_IDS")
	if whitelistStr != "" {
		for idStr := range strings.SplitSeq(whitelistStr, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				continue
			}
			cfg.WhitelistedUserIDs = append(cfg.WhitelistedUserIDs, id)
		}
	}

	whitelistUsernames := os.Getenv("WHITELISTED_USERNAMES")
	if whitelistUsernames != "" {
		for username := range strings.SplitSeq(whitelistUsernames, ",") {
			username = strings.TrimSpace(username)
			if username == "" {
				continue
			}
			// Remove @ prefix if present
			username = strings.TrimPrefix(username, "@")
			cfg.WhitelistedUsernames = append(cfg.WhitelistedUsernames, username)
		}
	}

	// Validate required configuration.
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if len(c.WhitelistedUserIDs) == 0 && len(c.WhitelistedUsernames) == 0 {
		errs = append(errs, "at least one whitelisted user (WHITELISTED_USER_IDS or WHITELISTED_USERNAMES) is required")
	}

	if !slices.Contains(validExchangeProviders, c.ExchangeProvider) {
		errs = append(errs, fmt.Sprintf("EXCHANGE_PROVIDER must be one of %s", strings.Join(validExchangeProviders, ", ")))
	}

	if c.ExchangeProvider == "exchangeratehost" && c.ExchangeAPIKey == "" {
		errs = append(errs, "EXCHANGE_RATE_API_KEY is required for the exchangeratehost provider")
	}

	if !slices.Contains(validOTelExporters, c.OTelExporter) {
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER must be one of %s", strings.Join(validOTelExporters, ", ")))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsUserWhitelisted checks if a Telegram user ID or username is in the whitelist.
// Returns true if either the user ID or username is whitelisted.
func (c *Config) IsUserWhitelisted(userID int64, username string) bool {
	if slices.Contains(c.WhitelistedUserIDs, userID) {
		return true
	}

	// Check username whitelist (case-insensitive)
	if username != "" {
		username = strings.TrimPrefix(username, "@")
		for _, whitelisted := range c.WhitelistedUsernames {
			if strings.EqualFold(whitelisted, username) {
				return true
			}
		}
	}

	return false
}
