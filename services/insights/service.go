// Package insights asks a text-generation provider for waste-reduction suggestions
// based on recent diner feedback and waste records.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foodloop/donation-engine/internal/observability"
	"github.com/foodloop/donation-engine/internal/redact"
	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"github.com/foodloop/donation-engine/services"
	"github.com/foodloop/donation-engine/services/providers"
	"github.com/foodloop/donation-engine/services/routing"
	"go.uber.org/zap"
)

const (
	// MaxFeedbackRecords is the number of newest feedback entries sent to the provider
	MaxFeedbackRecords = 10

	// MaxWasteRecords is the number of newest waste records sent to the provider
	MaxWasteRecords = 20
)

const systemPrompt = `You are a food waste reduction consultant for a university cafeteria.
Analyze the diner feedback and daily waste records you are given and suggest concrete changes
to menus, portions or preparation that reduce waste.
Respond with raw JSON only, no markdown, in exactly this shape:
{"insights":[{"id":1,"suggestion":"...","impact":"...","priority":"High|Medium|Low"}]}
Return between 3 and 5 insights ordered by priority.`

// Router sends a generation request to a provider and reports which one served it
type Router interface {
	Route(ctx context.Context, req *providers.GenerateRequest) (*providers.GenerateResponse, string, error)
}

// Service generates insights through the provider router
type Service struct {
	feedback repositories.FeedbackRepository
	waste    repositories.WasteRepository
	router   Router
	timeout  time.Duration
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewService creates an insight service
func NewService(
	feedback repositories.FeedbackRepository,
	waste repositories.WasteRepository,
	router Router,
	timeout time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		feedback: feedback,
		waste:    waste,
		router:   router,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
	}
}

// Generate returns suggestions for the newest records. With no records it returns an empty
// list without calling the provider.
func (s *Service) Generate(ctx context.Context) ([]models.Insight, error) {
	feedback, err := s.feedback.ListRecent(ctx, MaxFeedbackRecords)
	if err != nil {
		return nil, services.WrapInternal("failed to load feedback", err)
	}
	waste, err := s.waste.ListRecent(ctx, MaxWasteRecords)
	if err != nil {
		return nil, services.WrapInternal("failed to load waste records", err)
	}
	if len(feedback) == 0 && len(waste) == 0 {
		return []models.Insight{}, nil
	}

	prompt, err := buildPrompt(feedback, waste)
	if err != nil {
		return nil, services.WrapInternal("failed to build insight prompt", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, providerName, err := s.router.Route(ctx, &providers.GenerateRequest{
		SystemPrompt: systemPrompt,
		Prompt:       prompt,
		Temperature:  0.4,
		JSONOutput:   true,
	})
	if errors.Is(err, routing.ErrNoProviderAvailable) {
		return nil, services.WrapExternal("insight provider is not configured", err)
	}
	if err != nil {
		s.metrics.RecordInsightRequest(ctx, providerName, observability.OutcomeFailure)
		return nil, services.WrapExternal("insight provider request failed", err)
	}

	insights, err := ParseInsights(resp.Text)
	if err != nil {
		s.metrics.RecordInsightRequest(ctx, providerName, observability.OutcomeFailure)
		return nil, services.WrapExternal("insight provider returned malformed output", err)
	}
	s.metrics.RecordInsightRequest(ctx, providerName, observability.OutcomeSuccess)

	observability.FromContext(ctx, s.logger).Info("generated insights",
		zap.String("provider", providerName),
		zap.Int("feedback_records", len(feedback)),
		zap.Int("waste_records", len(waste)),
		zap.Int("insights", len(insights)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("latency", resp.Latency),
	)
	return insights, nil
}

type promptFeedback struct {
	DishName   string `json:"dish_name"`
	MealType   string `json:"meal_type"`
	Rating     int    `json:"rating"`
	Sentiment  string `json:"sentiment"`
	Transcript string `json:"transcript,omitempty"`
}

type promptWaste struct {
	Date      string  `json:"date"`
	DishName  string  `json:"dish_name"`
	MealType  string  `json:"meal_type"`
	WastageKg float64 `json:"wastage_kg"`
}

// buildPrompt serializes the records for the provider. Transcripts are
// free text from diners and get personal data masked first.
func buildPrompt(feedback []*models.Feedback, waste []*models.WasteRecord) (string, error) {
	fb := make([]promptFeedback, 0, len(feedback))
	for _, f := range feedback {
		fb = append(fb, promptFeedback{
			DishName:   f.DishName,
			MealType:   string(f.MealType),
			Rating:     f.Rating,
			Sentiment:  string(f.Sentiment),
			Transcript: redact.Redact(f.Transcript),
		})
	}
	ws := make([]promptWaste, 0, len(waste))
	for _, w := range waste {
		ws = append(ws, promptWaste{
			Date:      w.Date.Format("2006-01-02"),
			DishName:  w.DishName,
			MealType:  string(w.MealType),
			WastageKg: w.WastageKg,
		})
	}

	fbJSON, err := json.Marshal(fb)
	if err != nil {
		return "", err
	}
	wsJSON, err := json.Marshal(ws)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent feedback (rating 1-4):\n%s\n\n", fbJSON)
	fmt.Fprintf(&b, "Recent waste records:\n%s\n", wsJSON)
	return b.String(), nil
}

type insightsEnvelope struct {
	Insights []struct {
		Suggestion string `json:"suggestion"`
		Impact     string `json:"impact"`
		Priority   string `json:"priority"`
	} `json:"insights"`
}

// ParseInsights decodes provider output, tolerating a surrounding markdown code fence.
// Entries without a suggestion are dropped and unknown priorities become Medium.
func ParseInsights(raw string) ([]models.Insight, error) {
	text := stripCodeFence(raw)
	if text == "" {
		return nil, errors.New("empty response")
	}

	var env insightsEnvelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return nil, fmt.Errorf("decode insights: %w", err)
	}

	insights := make([]models.Insight, 0, len(env.Insights))
	for _, in := range env.Insights {
		suggestion := strings.TrimSpace(in.Suggestion)
		if suggestion == "" {
			continue
		}
		insights = append(insights, models.Insight{
			Suggestion: suggestion,
			Impact:     strings.TrimSpace(in.Impact),
			Priority:   NormalizePriority(in.Priority),
		})
	}
	return insights, nil
}

// NormalizePriority maps a free-form priority onto Low, Medium or High
func NormalizePriority(p string) models.InsightPriority {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "high", "urgent", "critical":
		return models.InsightPriorityHigh
	case "low":
		return models.InsightPriorityLow
	default:
		return models.InsightPriorityMedium
	}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the language tag line, e.g. "json"
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
