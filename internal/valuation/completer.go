package valuation

import (
	"context"
	"fmt"
	"strings"
)

// CompletionRequest is a single chat-style request to an external model.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Completer sends a prompt to an external text-completion service and
// returns the raw reply text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Supported providers.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderOllama = "ollama"
)

// DefaultModels names the model each provider uses when none is configured.
var DefaultModels = map[string]string{
	ProviderOpenAI: "gpt-3.5-turbo",
	ProviderClaude: "claude-3-5-haiku-latest",
	ProviderOllama: "llama3.2",
}

// ProviderConfig selects and configures the external service.
type ProviderConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewCompleter builds the completer for cfg. It returns nil with no error when
// the provider needs a credential and none is set; callers treat a nil
// Completer as "use the rule-based model".
func NewCompleter(cfg ProviderConfig) (Completer, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderOpenAI
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModels[provider]
	}

	switch provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, nil
		}
		return NewOpenAICompleter(cfg.APIKey, model, cfg.BaseURL), nil
	case ProviderClaude:
		if cfg.APIKey == "" {
			return nil, nil
		}
		return NewClaudeCompleter(cfg.APIKey, model, cfg.BaseURL), nil
	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		// Ollama serves an OpenAI-compatible API under /v1 and ignores the key.
		return NewOpenAICompleter("ollama", model, strings.TrimSuffix(baseURL, "/")+"/v1"), nil
	default:
		return nil, fmt.Errorf("unknown valuation provider %q", cfg.Provider)
	}
}
