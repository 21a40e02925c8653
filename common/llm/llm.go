package llm

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/invopop/jsonschema"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var defaultModels = map[string]string{
	ProviderAnthropic: "claude-sonnet-4-20250514",
	ProviderOpenAI:    "gpt-4o-mini",
}

const defaultMaxTokens = 1024

type Config struct {
	Provider  string // defaults to anthropic
	APIKey    string
	BaseURL   string // optional proxy or compatible endpoint
	Model     string // defaults per provider
	MaxTokens int    // used when a request leaves it unset
}

// Client turns a prompt into free text. The notes extractor is its only caller;
// structure is imposed by the prompt and validated afterwards, not by the provider.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Model() string
}

type Request struct {
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  *float64 // nil = model default, explicit 0 = deterministic
}

type Response struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// New picks the provider implementation and fills provider defaults.
func New(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	cfg.Provider = cmp.Or(cfg.Provider, ProviderAnthropic)
	cfg.Model = cmp.Or(cfg.Model, defaultModels[cfg.Provider])
	cfg.MaxTokens = cmp.Or(cfg.MaxTokens, defaultMaxTokens)

	switch cfg.Provider {
	case ProviderAnthropic:
		return newAnthropicClient(cfg), nil
	case ProviderOpenAI:
		return newOpenAIClient(cfg), nil
	}
	return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
}

// GenerateSchema reflects T into an inline JSON schema (no $ref indirection).
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

func Temp(t float64) *float64 {
	return &t
}

func budget(req Request, fallback int) int64 {
	return int64(cmp.Or(req.MaxTokens, fallback))
}

func logCompletion(ctx context.Context, provider, model string, start time.Time, resp *Response, extra ...any) {
	args := append([]any{
		"provider", provider,
		"model", model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens,
	}, extra...)
	slog.DebugContext(ctx, "oracle completion finished", args...)
}
