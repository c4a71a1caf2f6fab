package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds everything the extraction pipeline reads from the environment.
// A missing provider key disables that strategy; nothing here is fatal except
// the database URL, which main checks on startup.
type Config struct {
	DatabaseURL string
	RedisURL    string

	OpenAI   OpenAIConfig
	Gemini   GeminiConfig
	AnyCrawl AnyCrawlConfig

	Affiliate AffiliateConfig

	CacheTTL           time.Duration
	CacheSweepInterval time.Duration

	FetchTimeout   time.Duration
	FetchUserAgent string

	ScreenshotEnabled bool
}

// OpenAIConfig configures the OpenAI extraction strategy.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// IsAvailable reports whether the OpenAI strategy may be used.
func (c OpenAIConfig) IsAvailable() bool { return c.APIKey != "" }

// GeminiConfig configures the Gemini extraction strategy.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// IsAvailable reports whether the Gemini strategy may be used.
func (c GeminiConfig) IsAvailable() bool { return c.APIKey != "" }

// AnyCrawlConfig configures the premium crawl strategy.
type AnyCrawlConfig struct {
	APIKey  string
	BaseURL string
}

// IsAvailable reports whether the premium crawl may be used.
func (c AnyCrawlConfig) IsAvailable() bool { return c.APIKey != "" }

// AffiliateConfig holds the Shopee affiliate tracking parameters. The
// rewriter fails closed when PartnerID or SiteID is empty.
type AffiliateConfig struct {
	PartnerID               string
	SiteID                  string
	SubID                   string
	ClickLookbackDays       int
	ViewThroughLookbackDays int
}

// IsComplete reports whether the rewriter has enough configuration to run.
func (c AffiliateConfig) IsComplete() bool {
	return c.PartnerID != "" && c.SiteID != ""
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		OpenAI: OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Gemini: GeminiConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		},
		AnyCrawl: AnyCrawlConfig{
			APIKey:  os.Getenv("ANYCRAWL_API_KEY"),
			BaseURL: getEnv("ANYCRAWL_BASE_URL", "https://api.anycrawl.dev/v1"),
		},
		Affiliate: AffiliateConfig{
			PartnerID:               os.Getenv("SHOPEE_PARTNER_ID"),
			SiteID:                  os.Getenv("SHOPEE_SITE_ID"),
			SubID:                   getEnv("SHOPEE_SUB_ID", "pechincha"),
			ClickLookbackDays:       getEnvInt("SHOPEE_CLICK_LOOKBACK_DAYS", 7),
			ViewThroughLookbackDays: getEnvInt("SHOPEE_VIEWTHROUGH_LOOKBACK_DAYS", 1),
		},
		CacheTTL:           getEnvDuration("CACHE_TTL", 30*time.Minute),
		CacheSweepInterval: getEnvDuration("CACHE_SWEEP_INTERVAL", 10*time.Minute),
		FetchTimeout:       getEnvDuration("FETCH_TIMEOUT", 20*time.Second),
		FetchUserAgent: getEnv("FETCH_USER_AGENT",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		ScreenshotEnabled: getEnvBool("SCREENSHOT_ENABLED", false),
	}
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
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
