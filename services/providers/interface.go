package providers

import (
	"context"
	"errors"
	"time"
)

// Provider represents a text-generation backend used for insight suggestions
type Provider interface {
	// Name returns the provider name (e.g., "gemini", "openai")
	Name() string

	// Generate produces a completion for a single prompt
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is currently reachable with the configured credentials
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest represents a unified generation request
type GenerateRequest struct {
	// Model overrides the provider's configured model when set
	Model string `json:"model,omitempty"`

	// SystemPrompt sets the assistant's role and output rules
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Prompt is the user message
	Prompt string `json:"prompt"`

	// MaxTokens limits the response length
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature float64 `json:"temperature,omitempty"`

	// JSONOutput asks the provider to return raw JSON
	JSONOutput bool `json:"json_output,omitempty"`
}

// GenerateResponse represents a unified generation response
type GenerateResponse struct {
	// Text is the generated content
	Text string `json:"text"`

	// Model used for the generation
	Model string `json:"model"`

	// Provider that handled the request
	Provider string `json:"provider"`

	// FinishReason reported by the provider
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage statistics
	Usage Usage `json:"usage"`

	// Latency of the request, retries included
	Latency time.Duration `json:"latency"`
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ProviderConfig holds common configuration for providers
type ProviderConfig struct {
	// APIKey for authentication
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// Model used when a request does not name one
	Model string

	// Timeout for requests
	Timeout time.Duration

	// MaxRetries for retryable failures
	MaxRetries int

	// RetryDelay is the initial backoff interval
	RetryDelay time.Duration

	// Additional headers
	Headers map[string]string
}

// DefaultProviderConfig returns a sensible default configuration
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
		Headers:    make(map[string]string),
	}
}

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Retryable indicates if the request can be retried
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return e.Provider + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Provider + ": " + e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return false
}

// IsRetryableStatus reports whether an HTTP status is worth retrying
func IsRetryableStatus(statusCode int) bool {
	return statusCode == 429 || statusCode >= 500
}
