package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/dashboard"
	"github.com/vladimiradmaev/vitalz-dashboard/internal/logger"
)

// ErrInsightDisabled is returned when no AI provider is configured
var ErrInsightDisabled = errors.New("insight generation disabled")

const (
	geminiModel = "gemini-1.5-flash"
	openaiModel = openai.GPT3Dot5Turbo

	maxInsightLength = 600
)

// Insight is a short narrative about one dashboard
type Insight struct {
	Text     string
	Provider string
}

// InsightService writes a short narrative about a loaded dashboard. Gemini
// is tried first and OpenAI is the fallback.
type InsightService struct {
	geminiClient *genai.Client
	openaiClient *openai.Client
}

// NewInsightService creates clients for the providers that have a key
func NewInsightService(ctx context.Context, geminiAPIKey, openaiAPIKey string) (*InsightService, error) {
	var geminiClient *genai.Client
	if geminiAPIKey != "" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(geminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		geminiClient = client
	}

	var openaiClient *openai.Client
	if openaiAPIKey != "" {
		openaiClient = openai.NewClient(openaiAPIKey)
	}

	return NewInsightServiceWithClients(geminiClient, openaiClient), nil
}

// NewInsightServiceWithClients wraps existing clients; either may be nil
func NewInsightServiceWithClients(geminiClient *genai.Client, openaiClient *openai.Client) *InsightService {
	return &InsightService{
		geminiClient: geminiClient,
		openaiClient: openaiClient,
	}
}

// Enabled reports whether at least one provider is configured
func (s *InsightService) Enabled() bool {
	return s != nil && (s.geminiClient != nil || s.openaiClient != nil)
}

// Summarize returns an insight for a loaded dashboard
func (s *InsightService) Summarize(ctx context.Context, summary dashboard.Summary) (*Insight, error) {
	if !s.Enabled() {
		return nil, ErrInsightDisabled
	}
	prompt := BuildInsightPrompt(summary)

	var errs []error
	if s.geminiClient != nil {
		text, err := s.summarizeWithGemini(ctx, prompt)
		if err == nil {
			return &Insight{Text: text, Provider: "gemini"}, nil
		}
		logger.Warn("Gemini insight failed", "error", err, "fallback", s.openaiClient != nil)
		errs = append(errs, err)
	}
	if s.openaiClient != nil {
		text, err := s.summarizeWithOpenAI(ctx, prompt)
		if err == nil {
			return &Insight{Text: text, Provider: "openai"}, nil
		}
		logger.Warn("OpenAI insight failed", "error", err)
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

func (s *InsightService) summarizeWithGemini(ctx context.Context, prompt string) (string, error) {
	model := s.geminiClient.GenerativeModel(geminiModel)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty Gemini response")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected Gemini part %T", resp.Candidates[0].Content.Parts[0])
	}
	return cleanInsight(string(text))
}

func (s *InsightService) summarizeWithOpenAI(ctx context.Context, prompt string) (string, error) {
	resp, err := s.openaiClient.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:     openaiModel,
			MaxTokens: 200,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty OpenAI response")
	}
	return cleanInsight(resp.Choices[0].Message.Content)
}

// Close releases the Gemini client
func (s *InsightService) Close() error {
	if s == nil || s.geminiClient == nil {
		return nil
	}
	return s.geminiClient.Close()
}

// BuildInsightPrompt describes the loaded sections of a dashboard
func BuildInsightPrompt(summary dashboard.Summary) string {
	var b strings.Builder
	b.WriteString(`You are a wellness assistant reviewing one night of wearable data.
Write two or three short sentences in plain English for a care operator.
Do not give medical diagnoses. Mention only the values provided below.

DATA:
`)
	if summary.User != nil {
		fmt.Fprintf(&b, "- Person: %s\n", summary.User.UserName)
	}
	if summary.Date != "" {
		fmt.Fprintf(&b, "- Statistics date: %s\n", summary.Date)
	}
	if sc := summary.Score; sc != nil {
		fmt.Fprintf(&b, "- Vitalz score: %.0f (type %s)\n", sc.Value, sc.Type)
	}
	if sl := summary.Sleep; sl != nil {
		fmt.Fprintf(&b, "- Total sleep: %d hours, onset %s, wake-up %s\n", sl.TotalHours, sl.Onset, sl.WakeUp)
		for _, st := range sl.Stages {
			fmt.Fprintf(&b, "- %s sleep: %s%%\n", st.Stage, st.PercentText)
		}
	}
	if hr := summary.HeartRate; hr != nil && hr.Len() > 0 {
		lo, hi, avg := stats(hr.HR)
		fmt.Fprintf(&b, "- Heart rate over %d samples: min %.0f, max %.0f, avg %.1f bpm\n", hr.Len(), lo, hi, avg)
		_, _, hrv := stats(hr.HRV)
		fmt.Fprintf(&b, "- Average HRV: %.1f ms\n", hrv)
	}
	return b.String()
}

func stats(values []float64) (lo, hi, avg float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	lo, hi = values[0], values[0]
	sum := 0.0
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
		sum += v
	}
	return lo, hi, sum / float64(len(values))
}

// cleanInsight strips code fences and bounds the length for a chat message.
func cleanInsight(s string) (string, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("empty insight")
	}
	if r := []rune(s); len(r) > maxInsightLength {
		s = string(r[:maxInsightLength-3]) + "..."
	}
	return s, nil
}
