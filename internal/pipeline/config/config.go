package config

import (
	"time"

	"golang-market-intel/pkg/config"
)

// Gatekeeper holds relevance-filter configuration.
type Gatekeeper struct {
	BatchSize    int           `mapstructure:"batch_size"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	IdleDelay    time.Duration `mapstructure:"idle_delay"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Brain holds deep-analysis configuration. SynthesisCron is a standard 5-field
// cron expression; SynthesisWindow is the trailing range of filtered posts
// each synthesis cycle aggregates.
type Brain struct {
	BatchSize        int           `mapstructure:"batch_size"`
	IdleDelay        time.Duration `mapstructure:"idle_delay"`
	Timeout          time.Duration `mapstructure:"timeout"`
	SynthesisCron    string        `mapstructure:"synthesis_cron"`
	SynthesisWindow  time.Duration `mapstructure:"synthesis_window"`
	SynthesisTimeout time.Duration `mapstructure:"synthesis_timeout"`
}

// CollectorRateLimit bounds a single collector's outbound fetches.
type CollectorRateLimit struct {
	MaxCalls int           `mapstructure:"max_calls"`
	Period   time.Duration `mapstructure:"period"`
}

// RSSCollector configures the built-in RSS reference collector. An empty feed
// list marks the collector dormant at startup.
type RSSCollector struct {
	Feeds              []string `mapstructure:"feeds"`
	BlacklistedDomains []string `mapstructure:"blacklisted_domains"`
}

// Collectors holds shared collector-runtime configuration.
type Collectors struct {
	Interval  time.Duration      `mapstructure:"interval"`
	SeenTTL   time.Duration      `mapstructure:"seen_ttl"`
	Timeout   time.Duration      `mapstructure:"timeout"`
	RateLimit CollectorRateLimit `mapstructure:"rate_limit"`
	RSS       RSSCollector       `mapstructure:"rss"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int    `mapstructure:"max_token_per_minute"`
}

// AI holds configuration for intelligence providers.
type AI struct {
	Provider string `mapstructure:"provider"`
}

// Telegram holds configuration for the signal notifier. Signals at or above
// MinConviction are pushed to the chat.
type Telegram struct {
	BotToken      string  `mapstructure:"bot_token"`
	ChatID        int64   `mapstructure:"chat_id"`
	MinConviction float64 `mapstructure:"min_conviction"`
}

// CorrelationEntry is one row of the ticker-resolution lookup table.
type CorrelationEntry struct {
	Name           string   `mapstructure:"name"`
	EntityType     string   `mapstructure:"entity_type"`
	Ticker         string   `mapstructure:"ticker"`
	RelatedTickers []string `mapstructure:"related_tickers"`
}

// Config holds the full configuration for the pipeline service.
type Config struct {
	App          config.App         `mapstructure:"app"`
	Logger       config.Logger      `mapstructure:"logger"`
	Database     config.Database    `mapstructure:"database"`
	Redis        config.Redis       `mapstructure:"redis"`
	API          config.API         `mapstructure:"api"`
	Gatekeeper   Gatekeeper         `mapstructure:"gatekeeper"`
	Brain        Brain              `mapstructure:"brain"`
	Collectors   Collectors         `mapstructure:"collectors"`
	Gemini       Gemini             `mapstructure:"gemini"`
	AI           AI                 `mapstructure:"ai"`
	Telegram     Telegram           `mapstructure:"telegram"`
	Correlations []CorrelationEntry `mapstructure:"correlations"`
}

// Load loads the pipeline configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
