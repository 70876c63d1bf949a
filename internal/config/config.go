package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/MimeLyc/subtrans-pipeline/internal/llm"
	"github.com/MimeLyc/subtrans-pipeline/internal/pipeline"
	"github.com/MimeLyc/subtrans-pipeline/internal/recovery"
	"github.com/MimeLyc/subtrans-pipeline/internal/window"
)

// Config holds all application configuration.
// Supports environment variables with sensible defaults.
//
// Environment Variables:
// LLM Configuration:
// - LLM_PROVIDER: openrouter | openai | anthropic (default: openrouter)
// - LLM_API_KEY: API key for the LLM provider (required)
// - LLM_API_URL: API endpoint URL (default: https://openrouter.ai/api/v1)
// - LLM_MODEL: Model name to use (default: openai/gpt-4o-mini)
// - LLM_MAX_TOKENS: Maximum tokens for responses (default: 4000)
// - LLM_TEMPERATURE: Temperature for responses (default: 0.3)
// - LLM_TIMEOUT: Request timeout in seconds (default: 60)
// - LLM_FALLBACK_PROVIDER / LLM_FALLBACK_API_KEY / LLM_FALLBACK_MODEL:
//   optional second provider used when recovery decides to switch
//
// Translation Configuration:
// - TARGET_LANGUAGE: BCP-47 tag of the output language (default: zh)
// - BATCH_SIZE: entries per request (default: 10)
// - RECENT_COUNT / LOOKAHEAD_COUNT: context window bounds
// - DYNAMIC_SIZING: enable token-budget batch sizing (default: false)
// - RECOVERY_STRATEGY: default | aggressive | fast-fail
// - DISPATCH_DELAY_MS: shared delay between requests (default: 500)
// - WORKERS: parallel documents (default: 1)
//
// Watch Service Configuration:
// - MEDIA_DIRS: colon-separated directories to scan
// - CRON_EXPR: scan schedule (default: 0 0 * * *)
//
// Session Configuration:
// - SESSION_DB: path of the attempt database (empty disables persistence)
type Config struct {
	LLM         llm.Config   `json:"llm"`
	FallbackLLM *llm.Config  `json:"fallback_llm,omitempty"`
	Translate   Translate    `json:"translate"`
	Watch       Watch        `json:"watch"`
	Session     SessionStore `json:"session"`
	LogLevel    string       `json:"log_level"`
}

// Translate holds the pipeline-facing settings.
type Translate struct {
	TargetLanguage language.Tag  `json:"target_language"`
	BatchSize      int           `json:"batch_size"`
	RecentCount    int           `json:"recent_count"`
	LookaheadCount int           `json:"lookahead_count"`
	DynamicSizing  bool          `json:"dynamic_sizing"`
	Strategy       string        `json:"strategy"`
	DispatchDelay  time.Duration `json:"dispatch_delay"`
	Workers        int           `json:"workers"`
}

// Watch holds the directory watch service settings.
type Watch struct {
	MediaDirs []string `json:"media_dirs"`
	CronExpr  string   `json:"cron_expr"`
}

// SessionStore holds attempt persistence settings.
type SessionStore struct {
	DBPath string `json:"db_path"`
}

// New creates a Config from environment variables.
func New() (*Config, error) {
	targetLang, err := language.Parse(getEnvString("TARGET_LANGUAGE", "zh"))
	if err != nil {
		return nil, fmt.Errorf("invalid TARGET_LANGUAGE: %w", err)
	}

	config := &Config{
		LLM: llm.Config{
			Provider:    getEnvString("LLM_PROVIDER", llm.ProviderOpenRouter),
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnvString("LLM_MODEL", "openai/gpt-4o-mini"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 4000),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.3),
			Timeout:     getEnvInt("LLM_TIMEOUT", 60),
			SiteURL:     getEnvString("LLM_SITE_URL", ""),
			AppName:     getEnvString("LLM_APP_NAME", ""),
		},
		Translate: Translate{
			TargetLanguage: targetLang,
			BatchSize:      getEnvInt("BATCH_SIZE", 10),
			RecentCount:    getEnvInt("RECENT_COUNT", 5),
			LookaheadCount: getEnvInt("LOOKAHEAD_COUNT", 3),
			DynamicSizing:  getEnvBool("DYNAMIC_SIZING", false),
			Strategy:       getEnvString("RECOVERY_STRATEGY", "default"),
			DispatchDelay:  time.Duration(getEnvInt("DISPATCH_DELAY_MS", 500)) * time.Millisecond,
			Workers:        getEnvInt("WORKERS", 1),
		},
		Watch: Watch{
			MediaDirs: splitDirs(getEnvString("MEDIA_DIRS", "")),
			CronExpr:  getEnvString("CRON_EXPR", "0 0 * * *"),
		},
		Session: SessionStore{
			DBPath: getEnvString("SESSION_DB", ""),
		},
		LogLevel: getEnvString("LOG_LEVEL", "info"),
	}

	if key := getEnvString("LLM_FALLBACK_API_KEY", ""); key != "" {
		config.FallbackLLM = &llm.Config{
			Provider:    getEnvString("LLM_FALLBACK_PROVIDER", llm.ProviderOpenRouter),
			APIKey:      key,
			APIURL:      getEnvString("LLM_FALLBACK_API_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnvString("LLM_FALLBACK_MODEL", config.LLM.Model),
			MaxTokens:   config.LLM.MaxTokens,
			Temperature: config.LLM.Temperature,
			Timeout:     config.LLM.Timeout,
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.Translate.BatchSize < 1 {
		return fmt.Errorf("BATCH_SIZE must be at least 1")
	}
	if c.Translate.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1")
	}
	return nil
}

// PipelineConfig assembles the pipeline settings from this config.
func (c *Config) PipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Window.BatchSize = c.Translate.BatchSize
	cfg.Window.RecentCount = c.Translate.RecentCount
	cfg.Window.LookaheadCount = c.Translate.LookaheadCount
	cfg.Strategy = recovery.StrategyByName(c.Translate.Strategy)
	cfg.DispatchDelay = c.Translate.DispatchDelay
	cfg.RequestTimeout = time.Duration(c.LLM.Timeout) * time.Second
	if c.Translate.DynamicSizing {
		sizing := window.DefaultSizingConfig()
		sizing.MaxBatch = c.Translate.BatchSize
		cfg.Sizing = &sizing
	}
	return cfg
}

// Clients builds the ordered provider clients: primary first, fallback
// second when configured.
func (c *Config) Clients() ([]llm.Client, error) {
	primary, err := llm.NewClient(&c.LLM)
	if err != nil {
		return nil, fmt.Errorf("primary provider: %w", err)
	}
	clients := []llm.Client{primary}

	if c.FallbackLLM != nil {
		fallback, err := llm.NewClient(c.FallbackLLM)
		if err != nil {
			return nil, fmt.Errorf("fallback provider: %w", err)
		}
		clients = append(clients, fallback)
	}
	return clients, nil
}

func splitDirs(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, dir := range strings.Split(raw, ":") {
		if dir = strings.TrimSpace(dir); dir != "" {
			out = append(out, dir)
		}
	}
	return out
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
