package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripJSONFence(t *testing.T) {
	t.Run("PlainJSON", func(t *testing.T) {
		assert.Equal(t, `{"ideas":[]}`, stripJSONFence(`{"ideas":[]}`))
	})

	t.Run("FencedJSON", func(t *testing.T) {
		in := "```json\n{\"ideas\":[\"a\"]}\n```"
		assert.Equal(t, `{"ideas":["a"]}`, stripJSONFence(in))
	})

	t.Run("FencedWithoutLanguage", func(t *testing.T) {
		in := "```\n{\"relation\":\"branch\"}\n```"
		assert.Equal(t, `{"relation":"branch"}`, stripJSONFence(in))
	})

	t.Run("SurroundingWhitespace", func(t *testing.T) {
		in := "  \n```json\n{}\n```\n  "
		assert.Equal(t, `{}`, stripJSONFence(in))
	})
}

func TestDecodeJSON(t *testing.T) {
	var extracted extractedIdeas
	err := decodeJSON("```json\n{\"ideas\":[\"one\",\"two\"]}\n```", &extracted)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, extracted.Ideas)

	var parsed oracleResponse
	err = decodeJSON(`{"relation":"continuation","target_id":"n1","reasoning":"extends it"}`, &parsed)
	require.NoError(t, err)
	assert.Equal(t, "continuation", parsed.Relation)
	assert.Equal(t, "n1", parsed.TargetID)
}

func TestDecodeJSONMalformed(t *testing.T) {
	var extracted extractedIdeas
	assert.Error(t, decodeJSON("not json at all", &extracted))
}

func TestBuildClassificationPromptListsCandidates(t *testing.T) {
	prompt := buildClassificationPrompt("new idea", nil)
	assert.Contains(t, prompt, "continuation")
	assert.Contains(t, prompt, "branch")
	assert.Contains(t, prompt, "resolution")
}

func TestBuildExtractionPromptIncludesContext(t *testing.T) {
	prompt := buildExtractionPrompt("chunk text", []string{"earlier idea"})
	assert.Contains(t, prompt, "chunk text")
	assert.Contains(t, prompt, "earlier idea")

	noCtx := buildExtractionPrompt("chunk text", nil)
	assert.NotContains(t, noCtx, "for context only")
}
