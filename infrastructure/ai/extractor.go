package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"meetmap-backend/application/ports"
	apperrors "meetmap-backend/pkg/errors"
)

const extractorSystemPrompt = "You are an expert at extracting clear, concise ideas from conversation transcripts. Return only valid JSON."

// IdeaExtractor pulls short self-contained idea summaries out of a
// transcript chunk via a chat completion. The model's only job is
// extraction; it makes no decisions about graph structure.
type IdeaExtractor struct {
	client  *openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

var _ ports.IdeaExtractor = (*IdeaExtractor)(nil)

// NewIdeaExtractor creates the extraction adapter.
func NewIdeaExtractor(client *openai.Client, model string, logger *zap.Logger) *IdeaExtractor {
	return &IdeaExtractor{
		client:  client,
		model:   model,
		breaker: newBreaker("extractor", logger),
		logger:  logger,
	}
}

type extractedIdeas struct {
	Ideas []string `json:"ideas"`
}

// ExtractIdeas returns zero or more idea strings for the chunk.
func (x *IdeaExtractor) ExtractIdeas(ctx context.Context, chunkText string, recentContext []string) ([]string, error) {
	prompt := buildExtractionPrompt(chunkText, recentContext)

	result, err := x.breaker.Execute(func() (interface{}, error) {
		resp, err := x.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: x.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: extractorSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.3,
			MaxTokens:   500,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("chat response contained no choices")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return nil, apperrors.NewOracleUnavailable("extractor", err)
	}

	var extracted extractedIdeas
	if err := decodeJSON(result.(string), &extracted); err != nil {
		x.logger.Warn("failed to parse extraction response", zap.Error(err))
		return nil, apperrors.NewOracleUnavailable("extractor", err)
	}

	ideas := make([]string, 0, len(extracted.Ideas))
	for _, idea := range extracted.Ideas {
		if trimmed := strings.TrimSpace(idea); trimmed != "" {
			ideas = append(ideas, trimmed)
		}
	}
	return ideas, nil
}

func buildExtractionPrompt(chunkText string, recentContext []string) string {
	var b strings.Builder
	b.WriteString("You are analyzing a conversation transcript chunk.\n\n")
	b.WriteString("Your task is to extract distinct ideas, decisions, actions, or proposals from this chunk.\n\n")

	if len(recentContext) > 0 {
		b.WriteString("Recent ideas from this conversation, for context only:\n")
		for _, c := range recentContext {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Transcript chunk: %q\n\n", chunkText)
	b.WriteString(`Extract each distinct idea as a short, self-contained summary (1-2 sentences max).
Focus on:
- New ideas or proposals
- Decisions being made
- Actions being discussed
- Important points raised

Return JSON:
{
  "ideas": [
    "idea description 1",
    "idea description 2"
  ]
}

IMPORTANT:
- Return ONLY idea descriptions (short summaries)
- Do NOT make any decisions about graph structure
- Do NOT decide parent-child relationships
- Do NOT reference existing nodes
- Just extract clean, minimal idea summaries

Return ONLY the JSON object, no other text.`)
	return b.String()
}
