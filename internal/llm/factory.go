package llm

import (
	"fmt"
	"time"
)

// Provider names accepted by NewFromConfig
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config selects and configures a text-generation provider
type Config struct {
	Provider string
	Model    string // empty selects the provider default
	APIKey   string
	BaseURL  string // empty selects the provider default
	Timeout  time.Duration
}

// NewFromConfig builds the TextGenerator for the configured provider
func NewFromConfig(config Config) (TextGenerator, error) {
	model := config.Model
	if model == "" {
		model = DefaultModelFor(config.Provider)
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(model, config.APIKey, config.BaseURL, config.Timeout), nil

	case ProviderGroq, ProviderOpenAI:
		baseURL := config.BaseURL
		if baseURL == "" {
			baseURL = openAIAPIURL
			if config.Provider == ProviderGroq {
				baseURL = groqAPIURL
			}
		}
		return NewOpenAIClient(model, config.APIKey, baseURL, config.Timeout), nil

	case ProviderOllama:
		return NewOllamaClient(model, config.BaseURL, config.Timeout), nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider %q, must be one of: gemini, groq, openai, ollama", config.Provider)
	}
}

// DefaultModelFor returns the default model name for each provider
func DefaultModelFor(provider string) string {
	switch provider {
	case ProviderGroq:
		return "llama3-70b-8192"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderOllama:
		return "llama3"
	default:
		return "gemini-1.5-flash"
	}
}

// RequiresAPIKey reports whether the provider needs a credential to be reached
func RequiresAPIKey(provider string) bool {
	return provider != ProviderOllama
}
