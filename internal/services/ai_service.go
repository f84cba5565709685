package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fittracker/fittracker-bot/internal/logger"
	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"
)

// defaultCompletionTimeout bounds completion calls when the caller did not
// set a deadline.
const defaultCompletionTimeout = 60 * time.Second

// Completer is the black-box text-to-text function behind the program parser
// and the progression analyzer.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userText string) (string, error)
}

// AIService talks to OpenAI and falls back to Gemini when the primary call
// fails (rate limits, outages). Each request is attempted exactly once per
// provider.
type AIService struct {
	openaiClient *openai.Client
	geminiClient *genai.Client
}

// NewAIService creates the completion client. The Gemini fallback is only
// wired when a key is configured.
func NewAIService(openaiAPIKey, geminiAPIKey string) *AIService {
	s := &AIService{
		openaiClient: openai.NewClient(openaiAPIKey),
	}

	if geminiAPIKey != "" {
		geminiClient, err := genai.NewClient(context.Background(), option.WithAPIKey(geminiAPIKey))
		if err != nil {
			logger.Warningf("Gemini client unavailable, fallback disabled: %v", err)
		} else {
			s.geminiClient = geminiClient
		}
	}

	return s
}

// Complete submits the prompt pair and returns the raw completion text.
func (s *AIService) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultCompletionTimeout)
		defer cancel()
	}

	text, err := s.completeWithOpenAI(ctx, systemPrompt, userText)
	if err == nil {
		return text, nil
	}

	if s.geminiClient == nil {
		return "", err
	}

	logger.Warningf("OpenAI completion failed, trying Gemini: %v", err)
	return s.completeWithGemini(ctx, systemPrompt, userText)
}

func (s *AIService) completeWithOpenAI(ctx context.Context, systemPrompt, userText string) (string, error) {
	resp, err := s.openaiClient.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: userText,
				},
			},
			Temperature: 0.2,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (s *AIService) completeWithGemini(ctx context.Context, systemPrompt, userText string) (string, error) {
	model := s.geminiClient.GenerativeModel("gemini-1.5-flash")

	resp, err := model.GenerateContent(ctx, genai.Text(systemPrompt+"\n\n"+userText))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("gemini returned a non-text part")
	}

	return string(text), nil
}

// stripCodeFences drops markdown code-fence markers the completion may wrap
// the JSON in.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractJSON pulls the outermost JSON object out of the completion text,
// tolerating explanatory text or fences around it.
func extractJSON(s string) string {
	s = stripCodeFences(s)
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}
