package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultTimeout bounds a single model call so a hung request cannot block new checks.
const DefaultTimeout = 60 * time.Second

// defaultMaxTokens is the fallback when Request.MaxTokens is not set.
const defaultMaxTokens = 1024

// DefaultModel is used when no provider:model string is configured.
const DefaultModel = "gemini:gemini-2.5-flash"

// Schema is a minimal JSON-schema description of the structured output
// requested from the model. Types use JSON-schema spelling ("object",
// "string"); providers translate as needed.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Request holds the parameters for a model completion call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	// ResponseSchema constrains the output to a JSON object when non-nil.
	ResponseSchema *Schema
	// Model overrides the provider's configured model when non-empty.
	Model string
}

// Response holds the result of a model completion call.
type Response struct {
	Content string
	Model   string // actual model used, echoed back for meta
}

// Provider is the interface for model completion backends.
type Provider interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Options tune provider construction. Zero values fall back to defaults.
type Options struct {
	// APIKey overrides the provider's environment variable.
	APIKey  string
	Timeout time.Duration
}

// NewProvider parses a "provider:model" string and returns the appropriate Provider.
// The API key comes from opts or, when empty, from the provider's environment
// variable, and is validated immediately.
// Example: "gemini:gemini-2.5-flash", "openai:gpt-4o" or "anthropic:claude-sonnet-4-6".
func NewProvider(providerModel string, opts Options) (Provider, error) {
	parts := strings.SplitN(providerModel, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid model format %q: expected provider:model (e.g. %s)", providerModel, DefaultModel)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	keyFor := func(envVar string) (string, error) {
		if opts.APIKey != "" {
			return opts.APIKey, nil
		}
		if k := os.Getenv(envVar); k != "" {
			return k, nil
		}
		return "", fmt.Errorf("%s environment variable not set", envVar)
	}

	switch parts[0] {
	case "gemini":
		apiKey, err := keyFor("GEMINI_API_KEY")
		if err != nil {
			return nil, err
		}
		return &geminiProvider{model: parts[1], apiKey: apiKey, client: client}, nil
	case "openai":
		apiKey, err := keyFor("OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		return &openaiProvider{model: parts[1], apiKey: apiKey, client: client}, nil
	case "anthropic":
		apiKey, err := keyFor("ANTHROPIC_API_KEY")
		if err != nil {
			return nil, err
		}
		return &anthropicProvider{model: parts[1], apiKey: apiKey, client: client}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q: supported providers are gemini, openai, anthropic", parts[0])
	}
}

// truncate limits a string to maxLen runes, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
