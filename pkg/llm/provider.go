package llm

import (
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Supported model providers.
const (
	ProviderOpenAI   = "openai"
	ProviderScripted = "scripted"
)

// DefaultAPIKeyEnv is consulted when the provider config does not name an
// environment variable for the API key.
const DefaultAPIKeyEnv = "OPENAI_API_KEY"

// ProviderConfig selects and parameterizes the backing model.
type ProviderConfig struct {
	Provider  string // "openai" or "scripted"
	Model     string // provider-specific model name
	APIKeyEnv string // env var holding the API key
}

// New builds the configured model. An OpenAI provider without a usable
// API key degrades to the scripted model so the rest of the system keeps
// working offline.
func New(cfg ProviderConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "", ProviderScripted:
		return NewScriptedModel(), nil

	case ProviderOpenAI:
		keyEnv := cfg.APIKeyEnv
		if keyEnv == "" {
			keyEnv = DefaultAPIKeyEnv
		}
		key := os.Getenv(keyEnv)
		if key == "" {
			slog.Warn("model provider falling back to scripted", "provider", cfg.Provider, "missing_env", keyEnv)
			return NewScriptedModel(), nil
		}

		opts := []openai.Option{openai.WithToken(key)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, errors.Wrap(err, "openai client")
		}
		return model, nil

	default:
		return nil, errors.Errorf("unknown model provider %q", cfg.Provider)
	}
}
