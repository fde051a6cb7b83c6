// Package llm holds the text-generation providers the pipeline calls out to.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/halcyonvc/memoforge/internal/model"
)

// Provider defines the interface for text-generation backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate produces text for the given request
	Generate(ctx context.Context, req Request) (string, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Request contains the input for one generation call
type Request struct {
	// System is the system prompt
	System string

	// Prompt is the user prompt
	Prompt string

	// MaxTokens limits the response length (0 uses the provider default)
	MaxTokens int

	// Temperature overrides the provider default when > 0
	Temperature float32
}

// Sentinel errors for external-call failure classes. Call sites retry the
// transient ones and abort on the rest.
var (
	ErrRateLimited      = errors.New("rate limited")
	ErrServerOverloaded = errors.New("server overloaded")
	ErrAuth             = errors.New("authentication failed")
)

// IsRetryable reports whether the error is a transient failure worth
// retrying with backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServerOverloaded)
}

// classifyAPIError maps an OpenAI API error onto the sentinel taxonomy so
// call sites can match with errors.Is.
func classifyAPIError(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.HTTPStatusCode == 429:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case apiErr.HTTPStatusCode >= 500:
		return fmt.Errorf("%w: %v", ErrServerOverloaded, err)
	case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
		return fmt.Errorf("%w: %v", ErrAuth, err)
	default:
		return err
	}
}

// NewProvider creates a provider from configuration. An empty provider name
// disables generation (returns nil, nil); callers must handle the nil case.
func NewProvider(cfg model.LLMConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai)", cfg.Provider)
	}
}
