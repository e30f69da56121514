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

const oracleSystemPrompt = "You are an expert at analyzing how ideas in a conversation relate to each other. Return only valid JSON."

// PlacementOracle classifies how a new idea relates to the best
// matching existing nodes. Its output is untrusted: the placement
// engine validates the target and absorbs every failure.
type PlacementOracle struct {
	client  *openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

var _ ports.PlacementOracle = (*PlacementOracle)(nil)

// NewPlacementOracle creates the classification adapter.
func NewPlacementOracle(client *openai.Client, model string, logger *zap.Logger) *PlacementOracle {
	return &PlacementOracle{
		client:  client,
		model:   model,
		breaker: newBreaker("placement_oracle", logger),
		logger:  logger,
	}
}

type oracleResponse struct {
	Relation  string `json:"relation"`
	TargetID  string `json:"target_id"`
	Reasoning string `json:"reasoning"`
}

// Classify asks the model which candidate the new idea relates to and
// how.
func (o *PlacementOracle) Classify(ctx context.Context, ideaText string, candidates []ports.RankedCandidate) (*ports.Classification, error) {
	prompt := buildClassificationPrompt(ideaText, candidates)

	result, err := o.breaker.Execute(func() (interface{}, error) {
		resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: o.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: oracleSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.2,
			MaxTokens:   300,
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
		return nil, apperrors.NewOracleUnavailable("placement_oracle", err)
	}

	var parsed oracleResponse
	if err := decodeJSON(result.(string), &parsed); err != nil {
		o.logger.Warn("failed to parse classification response", zap.Error(err))
		return nil, apperrors.NewOracleUnavailable("placement_oracle", err)
	}

	relation := ports.Relation(strings.ToLower(strings.TrimSpace(parsed.Relation)))
	if !relation.Valid() {
		return nil, apperrors.NewOracleUnavailable("placement_oracle",
			fmt.Errorf("unknown relation %q", parsed.Relation))
	}

	return &ports.Classification{
		Relation:  relation,
		TargetID:  parsed.TargetID,
		Reasoning: parsed.Reasoning,
	}, nil
}

func buildClassificationPrompt(ideaText string, candidates []ports.RankedCandidate) string {
	var b strings.Builder
	b.WriteString("A new idea just came up in a conversation:\n\n")
	fmt.Fprintf(&b, "New idea: %q\n\n", ideaText)
	b.WriteString("These existing ideas are the closest semantic matches, most similar first:\n\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. id=%s (similarity %.3f): %q\n", i+1, c.Node.ID, c.Similarity, c.Node.Summary)
	}
	b.WriteString(`
Pick the single existing idea the new idea relates to most directly, and classify the relationship as one of:
- "continuation": the new idea develops or extends that idea
- "branch": the new idea diverges into a different direction from that idea
- "resolution": the new idea concludes or settles that idea

Return JSON:
{
  "relation": "continuation" | "branch" | "resolution",
  "target_id": "<id of the chosen existing idea>",
  "reasoning": "<one short sentence>"
}

Return ONLY the JSON object, no other text.`)
	return b.String()
}
