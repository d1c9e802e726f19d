package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextOf(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("  {\"score\": "), genai.Text("80}\n")}},
		}},
	}
	text, err := textOf(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"score": 80}`, text)
}

func TestTextOf_Empty(t *testing.T) {
	_, err := textOf(nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = textOf(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = textOf(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text("   ")}}}},
	})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "", "gemini-1.5-flash")
	assert.Error(t, err)
}
