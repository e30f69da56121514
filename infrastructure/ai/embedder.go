package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"meetmap-backend/application/ports"
	apperrors "meetmap-backend/pkg/errors"
)

// Embedder produces fixed-length vectors from the OpenAI embeddings
// endpoint, truncated server-side to the configured dimensionality.
type Embedder struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	dim     int
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

var _ ports.Embedder = (*Embedder)(nil)

// NewEmbedder creates the embedding adapter.
func NewEmbedder(client *openai.Client, model string, dim int, logger *zap.Logger) *Embedder {
	return &Embedder{
		client:  client,
		model:   openai.EmbeddingModel(model),
		dim:     dim,
		breaker: newBreaker("embedder", logger),
		logger:  logger,
	}
}

// Dimension reports the vector length this embedder produces.
func (e *Embedder) Dimension() int {
	return e.dim
}

// Embed returns the embedding for one text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	result, err := e.breaker.Execute(func() (interface{}, error) {
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input:      []string{text},
			Model:      e.model,
			Dimensions: e.dim,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Data) == 0 {
			return nil, fmt.Errorf("embedding response contained no data")
		}
		return resp.Data[0].Embedding, nil
	})
	if err != nil {
		return nil, apperrors.NewOracleUnavailable("embedder", err)
	}

	raw := result.([]float32)
	if len(raw) != e.dim {
		return nil, apperrors.NewOracleUnavailable("embedder",
			fmt.Errorf("expected %d dimensions, got %d", e.dim, len(raw)))
	}

	embedding := make([]float64, len(raw))
	for i, v := range raw {
		embedding[i] = float64(v)
	}
	return embedding, nil
}
