package llm

import (
	"fmt"
	"strings"

	"feedback-insights/internal/config"
)

const (
	ProviderOpenAI = "openai"
	ProviderYandex = "yandex"
)

// NewFromConfig builds the completion client selected by LLM_PROVIDER.
// Credentials are not validated here; a missing or bad key surfaces as an
// UpstreamError on the first request.
func NewFromConfig(cfg *config.Config) (Client, error) {
	switch strings.ToLower(string(cfg.LLMProvider)) {
	case ProviderOpenAI, "":
		return NewOpenAI(OpenAIOptions{
			APIKey:   cfg.OpenAIAPIKey,
			BaseURL:  cfg.OpenAIBaseURL,
			Model:    cfg.OpenAIModel,
			Referrer: cfg.OpenRouterReferrer,
			Title:    cfg.OpenRouterTitle,
		}), nil
	case ProviderYandex:
		return NewYandex(cfg.YandexOAuthToken, cfg.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLMProvider)
	}
}
