package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	// Feedback source
	FeedbackFile          string `env:"FEEDBACK_FILE" envDefault:"Review_Feed.xlsx"`
	FeedbackSheet         string `env:"FEEDBACK_SHEET"`
	GoogleSheetID         string `env:"GOOGLE_SHEET_ID"`
	GoogleSheetRange      string `env:"GOOGLE_SHEET_RANGE" envDefault:"A:Z"`
	GoogleCredentialsJSON string `env:"GOOGLE_CREDENTIALS_JSON"`
	GoogleTokenFile       string `env:"GOOGLE_TOKEN_FILE" envDefault:"data/google_token.json"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Prompts
	BrandName string `env:"BRAND_NAME" envDefault:"Jack in the Box"`

	// HTTP dashboard
	HTTPAddr         string `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsNamespace string `env:"METRICS_NAMESPACE" envDefault:"feedback_insights"`

	// Storage
	DatabaseURL       string `env:"DATABASE_URL"`
	AuditLogPath      string `env:"AUDIT_LOG_PATH" envDefault:"logs/generations.jsonl"`
	AllowlistFilePath string `env:"ALLOWLIST_FILE_PATH" envDefault:"data/allowlist.json"`

	// Telegram (optional)
	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN"`
	AllowedUsers     []int64 `env:"ALLOWED_USERS" envSeparator:":"`
	AdminUserID      int64   `env:"ADMIN_USER"`

	// Daily digest, cron syntax in UTC. Empty disables it.
	DigestSchedule string `env:"DIGEST_SCHEDULE" envDefault:"0 21 * * *"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// UsesGoogleSheet reports whether feedback should be read from Google Sheets
// instead of a local file.
func (c *Config) UsesGoogleSheet() bool {
	return c.GoogleSheetID != ""
}

// TelegramEnabled reports whether the bot surface should be started.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}
