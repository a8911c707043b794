package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foodloop/donation-engine/services/providers"
)

func TestNewOpenAIAdapter(t *testing.T) {
	adapter := NewOpenAIAdapter(providers.ProviderConfig{APIKey: "test-key"}, nil)

	if adapter == nil {
		t.Fatal("NewOpenAIAdapter() returned nil")
	}

	if adapter.Name() != "openai" {
		t.Errorf("Name() = %s, want openai", adapter.Name())
	}

	if adapter.config.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %s, want %s", adapter.config.BaseURL, defaultBaseURL)
	}

	if adapter.config.Model != defaultModel {
		t.Errorf("Model = %s, want %s", adapter.config.Model, defaultModel)
	}
}

func TestOpenAIAdapter_BuildRequest(t *testing.T) {
	adapter := NewOpenAIAdapter(providers.ProviderConfig{Model: "gpt-4o"}, nil)

	tests := []struct {
		name         string
		request      *providers.GenerateRequest
		wantModel    string
		wantMessages int
		wantJSON     bool
	}{
		{
			name:         "prompt only",
			request:      &providers.GenerateRequest{Prompt: "hello"},
			wantModel:    "gpt-4o",
			wantMessages: 1,
		},
		{
			name:         "system prompt and json",
			request:      &providers.GenerateRequest{SystemPrompt: "be terse", Prompt: "hello", JSONOutput: true},
			wantModel:    "gpt-4o",
			wantMessages: 2,
			wantJSON:     true,
		},
		{
			name:         "model override",
			request:      &providers.GenerateRequest{Model: "gpt-4-turbo", Prompt: "hello"},
			wantModel:    "gpt-4-turbo",
			wantMessages: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := adapter.buildOpenAIRequest(tt.request)

			if req.Model != tt.wantModel {
				t.Errorf("Model = %s, want %s", req.Model, tt.wantModel)
			}
			if len(req.Messages) != tt.wantMessages {
				t.Fatalf("len(Messages) = %d, want %d", len(req.Messages), tt.wantMessages)
			}
			if req.Messages[len(req.Messages)-1].Role != "user" {
				t.Errorf("last message role = %s, want user", req.Messages[len(req.Messages)-1].Role)
			}
			if (req.ResponseFormat != nil) != tt.wantJSON {
				t.Errorf("ResponseFormat set = %v, want %v", req.ResponseFormat != nil, tt.wantJSON)
			}
		})
	}
}

func TestOpenAIAdapter_Generate(t *testing.T) {
	// Create mock server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected POST request, got %s", r.Method)
		}

		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}

		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			t.Error("Authorization header missing or invalid")
		}

		body, _ := io.ReadAll(r.Body)
		var req OpenAIChatRequest
		json.Unmarshal(body, &req)

		resp := OpenAIChatResponse{
			ID:      "chatcmpl-test123",
			Object:  "chat.completion",
			Created: time.Now().Unix(),
			Model:   req.Model,
			Choices: []OpenAIChoice{
				{
					Index: 0,
					Message: OpenAIMessage{
						Role:    "assistant",
						Content: `{"insights":[]}`,
					},
					FinishReason: "stop",
				},
			},
			Usage: OpenAIUsage{
				PromptTokens:     10,
				CompletionTokens: 20,
				TotalTokens:      30,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(providers.ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, nil)

	resp, err := adapter.Generate(context.Background(), &providers.GenerateRequest{
		Prompt:      "Hello",
		MaxTokens:   100,
		Temperature: 0.7,
		JSONOutput:  true,
	})

	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if resp.Provider != "openai" {
		t.Errorf("Provider = %s, want openai", resp.Provider)
	}

	if resp.Text != `{"insights":[]}` {
		t.Errorf("Unexpected response content: %s", resp.Text)
	}

	if resp.Model != defaultModel {
		t.Errorf("Model = %s, want %s", resp.Model, defaultModel)
	}

	if resp.Usage.TotalTokens != 30 {
		t.Errorf("TotalTokens = %d, want 30", resp.Usage.TotalTokens)
	}
}

func TestOpenAIAdapter_Generate_Error(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)

		json.NewEncoder(w).Encode(OpenAIErrorResponse{
			Error: OpenAIError{
				Message: "Incorrect API key provided",
				Type:    "invalid_request_error",
				Code:    "invalid_api_key",
			},
		})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(providers.ProviderConfig{
		APIKey:     "invalid-key",
		BaseURL:    server.URL,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}, nil)

	_, err := adapter.Generate(context.Background(), &providers.GenerateRequest{Prompt: "test"})

	if err == nil {
		t.Fatal("Expected error but got none")
	}

	provErr, ok := err.(*providers.ProviderError)
	if !ok {
		t.Fatalf("Expected ProviderError, got %T", err)
	}

	if provErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want %d", provErr.StatusCode, http.StatusUnauthorized)
	}

	if provErr.Code != "invalid_request_error" {
		t.Errorf("Code = %s, want invalid_request_error", provErr.Code)
	}

	if n := atomic.LoadInt32(&attempts); n != 1 {
		t.Errorf("attempts = %d, want 1", n)
	}
}

func TestOpenAIAdapter_Generate_Retry(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		json.NewEncoder(w).Encode(OpenAIChatResponse{
			Model: "gpt-4o-mini",
			Choices: []OpenAIChoice{
				{Message: OpenAIMessage{Role: "assistant", Content: "Success after retry"}, FinishReason: "stop"},
			},
		})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(providers.ProviderConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}, nil)

	resp, err := adapter.Generate(context.Background(), &providers.GenerateRequest{Prompt: "test"})

	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if resp.Text != "Success after retry" {
		t.Errorf("Unexpected response: %s", resp.Text)
	}

	if n := atomic.LoadInt32(&attempts); n != 3 {
		t.Errorf("attempts = %d, want 3", n)
	}
}

func TestOpenAIAdapter_Generate_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(providers.ProviderConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := adapter.Generate(ctx, &providers.GenerateRequest{Prompt: "test"})

	if err == nil {
		t.Fatal("Expected error due to context cancellation")
	}

	if time.Since(start) > time.Second {
		t.Errorf("Generate() kept retrying after the context ended")
	}
}

func TestOpenAIAdapter_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" && r.Header.Get("Authorization") == "Bearer test-key" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	available := NewOpenAIAdapter(providers.ProviderConfig{APIKey: "test-key", BaseURL: server.URL}, nil)
	if !available.IsAvailable(context.Background()) {
		t.Error("IsAvailable() = false, want true")
	}

	rejected := NewOpenAIAdapter(providers.ProviderConfig{APIKey: "bad-key", BaseURL: server.URL}, nil)
	if rejected.IsAvailable(context.Background()) {
		t.Error("IsAvailable() = true, want false")
	}
}
