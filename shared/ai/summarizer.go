package ai

import (
	"context"
	"fmt"
	"strings"

	"videorank/shared/config"

	"google.golang.org/genai"
)

// NoTranscriptSummary is returned when there is nothing to summarize.
const NoTranscriptSummary = "No transcript available for summarization."

// Summarizer produces style-selectable transcript summaries. Unlike the
// rater it reports upstream failures to its caller; a failed summary is a
// user-visible error, not a degraded rating.
type Summarizer struct {
	client *genai.Client
	model  string
}

func NewSummarizer(ctx context.Context, cfg *config.AIConfig) (*Summarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Summarizer{
		client: client,
		model:  cfg.Model,
	}, nil
}

// Summarize renders one summary of a transcript with the given style
// prompt as system instruction.
func (s *Summarizer) Summarize(ctx context.Context, transcript, stylePrompt string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return NoTranscriptSummary, nil
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(transcript),
		}, genai.RoleUser),
	}

	result, err := s.client.Models.GenerateContent(ctx, s.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(stylePrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](modelTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("empty summary response from model")
	}
	return text, nil
}
