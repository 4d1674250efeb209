package insights

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dosetrack/dosetrack/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// maxInsightTokens bounds the generated insight length
	maxInsightTokens = 300

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIProvider implements InsightProvider using OpenAI's API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// GenerateAdherenceInsight turns an adherence summary into a short insight
func (p *OpenAIProvider) GenerateAdherenceInsight(ctx context.Context, stat models.AdherenceStat, daily []models.DailyAdherence, windowDays int) (string, error) {
	prompt := buildInsightPrompt(stat, daily, windowDays)

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are a supportive medication adherence coach. Give short, specific, non-judgmental observations. Never give medical advice; suggest talking to a doctor or pharmacist for anything clinical."),
		openai.UserMessage(prompt),
	}

	req := openai.ChatCompletionNewParams{
		Model:     shared.ChatModel(p.model),
		Messages:  messages,
		MaxTokens: openai.Int(maxInsightTokens),
	}

	requestID := ExtractRequestID(ctx)
	userIDStr := ExtractUserID(ctx)

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "adherence_insight"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
			zap.String("user_id", userIDStr),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)

	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "adherence_insight"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("user_id", userIDStr),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("failed to generate insight: %w", apiErr)
		}
		return "", fmt.Errorf("failed to generate insight: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "adherence_insight"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("user_id", userIDStr),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return content, nil
}

// buildInsightPrompt renders the adherence summary as plain text for the model.
// Only aggregate numbers and medication names go into the prompt; dose logs and
// timestamps stay out of it.
func buildInsightPrompt(stat models.AdherenceStat, daily []models.DailyAdherence, windowDays int) string {
	prompt := fmt.Sprintf(`Here is a user's medication adherence summary for the last %d days:

- Overall adherence: %d%% (%d of %d logged doses on time, %d missed)`,
		windowDays, stat.Rate, stat.Taken, stat.Total, stat.Missed)

	if len(stat.MostMissed) > 0 {
		prompt += "\n- Most frequently missed medications:"
		for _, m := range stat.MostMissed {
			prompt += fmt.Sprintf("\n  - %s: missed %d times", m.Name, m.MissedCount)
		}
	}

	if len(daily) > 0 {
		prompt += "\n- Recent daily adherence:"
		for _, d := range daily {
			prompt += fmt.Sprintf("\n  - %s (%s): %d%% of %d doses on time", d.Date.Format("2006-01-02"), d.Label, d.Rate, d.Total)
		}
	}

	prompt += `

Write 2-4 sentences for the user:
1. One observation about their overall adherence trend.
2. If any medication is frequently missed, one concrete, practical suggestion (timing, routine pairing, reminders).
3. A brief encouragement.

Do not mention dosages or give medical advice. Plain text only, no lists or headers.`

	return prompt
}

// RegisterOpenAI registers the OpenAI provider with the registry
func RegisterOpenAI(registry *ProviderRegistry) {
	registry.Register("openai", func(config map[string]string) (InsightProvider, error) {
		apiKey, ok := config["api_key"]
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}

		model := config["model"]
		baseURL := config["base_url"]

		return NewOpenAIProviderWithLogger(apiKey, baseURL, model, nil, false), nil
	})
}
