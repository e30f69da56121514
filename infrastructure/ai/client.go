// Package ai implements the external AI capabilities on the OpenAI
// API: text embedding, idea extraction, and placement classification.
// Each adapter wraps its calls in a circuit breaker so a degraded
// upstream fails fast instead of piling up timeouts.
package ai

import (
	"encoding/json"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ClientConfig carries the OpenAI connection settings.
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	EmbeddingDim   int
}

// NewClient builds the underlying OpenAI client. BaseURL overrides the
// default endpoint for local or proxied deployments.
func NewClient(cfg ClientConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

func newBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// stripJSONFence removes a markdown code fence around a JSON payload.
// Models wrap responses in ```json blocks despite being told not to.
func stripJSONFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	content = strings.TrimPrefix(content, "json")
	if idx := strings.LastIndex(content, "```"); idx >= 0 {
		content = content[:idx]
	}
	return strings.TrimSpace(content)
}

func decodeJSON(content string, v any) error {
	return json.Unmarshal([]byte(stripJSONFence(content)), v)
}
