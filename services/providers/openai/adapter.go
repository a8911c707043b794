package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/foodloop/donation-engine/services/providers"
	"go.uber.org/zap"
)

const (
	// ProviderName identifies this adapter in the registry
	ProviderName = "openai"

	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

// OpenAIAdapter implements the Provider interface for OpenAI chat completions
type OpenAIAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAIAdapter creates a new OpenAI adapter
func NewOpenAIAdapter(config providers.ProviderConfig, logger *zap.Logger) *OpenAIAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.Model == "" {
		config.Model = defaultModel
	}

	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAIAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// Name returns the provider name
func (a *OpenAIAdapter) Name() string {
	return ProviderName
}

// Generate performs a chat completion with an optional system message
func (a *OpenAIAdapter) Generate(ctx context.Context, req *providers.GenerateRequest) (*providers.GenerateResponse, error) {
	startTime := time.Now()

	openaiReq := a.buildOpenAIRequest(req)

	reqBody, err := json.Marshal(openaiReq)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "failed to marshal request", 0, false, err)
	}

	var openaiResp OpenAIChatResponse
	err = providers.Retry(ctx, a.config.MaxRetries, a.config.RetryDelay, func() error {
		return a.do(ctx, reqBody, &openaiResp)
	}, func(err error, next time.Duration) {
		a.logger.Warn("openai request failed, retrying",
			zap.Error(err),
			zap.Duration("backoff", next),
		)
	})
	if err != nil {
		return nil, err
	}

	if len(openaiResp.Choices) == 0 {
		return nil, providers.NewProviderError(a.Name(), "EMPTY_RESPONSE", "no choices returned", http.StatusOK, false, nil)
	}

	choice := openaiResp.Choices[0]
	return &providers.GenerateResponse{
		Text:         choice.Message.Content,
		Model:        openaiResp.Model,
		Provider:     a.Name(),
		FinishReason: choice.FinishReason,
		Usage: providers.Usage{
			PromptTokens:     openaiResp.Usage.PromptTokens,
			CompletionTokens: openaiResp.Usage.CompletionTokens,
			TotalTokens:      openaiResp.Usage.TotalTokens,
		},
		Latency: time.Since(startTime),
	}, nil
}

func (a *OpenAIAdapter) do(ctx context.Context, body []byte, out *OpenAIChatResponse) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return providers.NewProviderError(a.Name(), "REQUEST_ERROR", "failed to create request", 0, false, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, ctx.Err() == nil, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return providers.NewProviderError(a.Name(), "READ_ERROR", "failed to read response", httpResp.StatusCode, true, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "failed to unmarshal response", httpResp.StatusCode, false, err)
	}
	return nil
}

// IsAvailable checks if the provider is currently available
func (a *OpenAIAdapter) IsAvailable(ctx context.Context) bool {
	if a.config.APIKey == "" {
		return false
	}

	// Simple health check - try to list models
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.BaseURL+"/models", nil)
	if err != nil {
		return false
	}

	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// buildOpenAIRequest converts unified request to OpenAI format
func (a *OpenAIAdapter) buildOpenAIRequest(req *providers.GenerateRequest) *OpenAIChatRequest {
	model := req.Model
	if model == "" {
		model = a.config.Model
	}

	openaiReq := &OpenAIChatRequest{Model: model}

	if req.SystemPrompt != "" {
		openaiReq.Messages = append(openaiReq.Messages, OpenAIMessage{Role: "system", Content: req.SystemPrompt})
	}
	openaiReq.Messages = append(openaiReq.Messages, OpenAIMessage{Role: "user", Content: req.Prompt})

	// Set optional parameters
	if req.MaxTokens > 0 {
		openaiReq.MaxTokens = &req.MaxTokens
	}
	if req.Temperature > 0 {
		openaiReq.Temperature = &req.Temperature
	}
	if req.JSONOutput {
		openaiReq.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	return openaiReq
}

// handleErrorResponse handles OpenAI error responses
func (a *OpenAIAdapter) handleErrorResponse(statusCode int, body []byte) error {
	retryable := providers.IsRetryableStatus(statusCode)

	var errResp OpenAIErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return providers.NewProviderError(a.Name(), "UNKNOWN_ERROR", strings.TrimSpace(string(body)), statusCode, retryable, err)
	}

	return providers.NewProviderError(
		a.Name(),
		errResp.Error.Type,
		errResp.Error.Message,
		statusCode,
		retryable,
		nil,
	)
}

// OpenAI-specific request/response types

type OpenAIChatRequest struct {
	Model          string          `json:"model"`
	Messages       []OpenAIMessage `json:"messages"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OpenAIChatResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   OpenAIUsage    `json:"usage"`
}

type OpenAIChoice struct {
	Index        int           `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type OpenAIErrorResponse struct {
	Error OpenAIError `json:"error"`
}

type OpenAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}
