package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/foodloop/donation-engine/services/providers"
	"go.uber.org/zap"
)

const (
	// ProviderName identifies this adapter in the registry
	ProviderName = "gemini"

	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash"
	apiKeyHeader   = "x-goog-api-key"
)

// GeminiAdapter implements the Provider interface for Google's Gemini REST API
type GeminiAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeminiAdapter creates a new Gemini adapter
func NewGeminiAdapter(config providers.ProviderConfig, logger *zap.Logger) *GeminiAdapter {
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

	return &GeminiAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// Name returns the provider name
func (a *GeminiAdapter) Name() string {
	return ProviderName
}

// Generate calls models/{model}:generateContent, retrying transport failures, 429 and 5xx
func (a *GeminiAdapter) Generate(ctx context.Context, req *providers.GenerateRequest) (*providers.GenerateResponse, error) {
	startTime := time.Now()

	model := req.Model
	if model == "" {
		model = a.config.Model
	}

	reqBody, err := json.Marshal(a.buildRequest(req))
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "failed to marshal request", 0, false, err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", a.config.BaseURL, url.PathEscape(model))

	var geminiResp GenerateContentResponse
	err = providers.Retry(ctx, a.config.MaxRetries, a.config.RetryDelay, func() error {
		return a.do(ctx, endpoint, reqBody, &geminiResp)
	}, func(err error, next time.Duration) {
		a.logger.Warn("gemini request failed, retrying",
			zap.Error(err),
			zap.Duration("backoff", next),
		)
	})
	if err != nil {
		return nil, err
	}

	if len(geminiResp.Candidates) == 0 {
		reason := "no candidates returned"
		if geminiResp.PromptFeedback != nil && geminiResp.PromptFeedback.BlockReason != "" {
			reason = "prompt blocked: " + geminiResp.PromptFeedback.BlockReason
		}
		return nil, providers.NewProviderError(a.Name(), "EMPTY_RESPONSE", reason, http.StatusOK, false, nil)
	}

	candidate := geminiResp.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}

	resp := &providers.GenerateResponse{
		Text:         text.String(),
		Model:        model,
		Provider:     a.Name(),
		FinishReason: candidate.FinishReason,
		Latency:      time.Since(startTime),
	}
	if geminiResp.UsageMetadata != nil {
		resp.Usage = providers.Usage{
			PromptTokens:     geminiResp.UsageMetadata.PromptTokenCount,
			CompletionTokens: geminiResp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      geminiResp.UsageMetadata.TotalTokenCount,
		}
	}
	return resp, nil
}

func (a *GeminiAdapter) do(ctx context.Context, endpoint string, body []byte, out *GenerateContentResponse) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return providers.NewProviderError(a.Name(), "REQUEST_ERROR", "failed to create request", 0, false, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(apiKeyHeader, a.config.APIKey)
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

// IsAvailable checks that the configured model can be fetched with the configured key
func (a *GeminiAdapter) IsAvailable(ctx context.Context) bool {
	if a.config.APIKey == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/models/%s", a.config.BaseURL, url.PathEscape(a.config.Model)), nil)
	if err != nil {
		return false
	}
	req.Header.Set(apiKeyHeader, a.config.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (a *GeminiAdapter) buildRequest(req *providers.GenerateRequest) *GenerateContentRequest {
	geminiReq := &GenerateContentRequest{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: req.Prompt}}},
		},
	}

	if req.SystemPrompt != "" {
		geminiReq.SystemInstruction = &Content{Parts: []Part{{Text: req.SystemPrompt}}}
	}

	cfg := &GenerationConfig{}
	if req.Temperature > 0 {
		cfg.Temperature = &req.Temperature
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = &req.MaxTokens
	}
	if req.JSONOutput {
		cfg.ResponseMimeType = "application/json"
	}
	if cfg.Temperature != nil || cfg.MaxOutputTokens != nil || cfg.ResponseMimeType != "" {
		geminiReq.GenerationConfig = cfg
	}

	return geminiReq
}

// handleErrorResponse handles Gemini error responses
func (a *GeminiAdapter) handleErrorResponse(statusCode int, body []byte) error {
	retryable := providers.IsRetryableStatus(statusCode)

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return providers.NewProviderError(a.Name(), "UNKNOWN_ERROR", strings.TrimSpace(string(body)), statusCode, retryable, err)
	}

	return providers.NewProviderError(a.Name(), errResp.Error.Status, errResp.Error.Message, statusCode, retryable, nil)
}

// Gemini-specific request/response types

type GenerateContentRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type GenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  *int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type PromptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
