package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studybot/pkg/models"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGemini(GeminiConfig{
		APIKey:      "test-key",
		Model:       "gemini-2.5-flash",
		Temperature: 0.7,
		MaxTokens:   2048,
		BaseURL:     srv.URL,
	})
	require.NoError(t, err)
	return g
}

func TestGeminiGenerateRequestShape(t *testing.T) {
	var got GenerateRequest
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Merhaba "},{"text":"öğrenci!"}]},"finishReason":"STOP"}]}`))
	})

	history := []models.Turn{
		{Role: models.RoleUser, Content: "selam"},
		{Role: models.RoleModel, Content: "merhaba"},
	}
	reply, err := g.Generate(context.Background(), "sistem", history, "nasılsın")
	require.NoError(t, err)
	assert.Equal(t, "Merhaba öğrenci!", reply)

	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "sistem", got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 3)
	assert.Equal(t, "user", got.Contents[0].Role)
	assert.Equal(t, "model", got.Contents[1].Role)
	assert.Equal(t, "user", got.Contents[2].Role)
	assert.Equal(t, "nasılsın", got.Contents[2].Parts[0].Text)
	assert.Equal(t, 2048, got.GenerationConfig.MaxOutputTokens)
	assert.InDelta(t, 0.7, got.GenerationConfig.Temperature, 1e-9)
}

func TestGeminiGenerateAPIError(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := g.Generate(context.Background(), "", nil, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGeminiGenerateEmpty(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := g.Generate(context.Background(), "", nil, "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGeminiGenerateBlocked(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	})

	_, err := g.Generate(context.Background(), "", nil, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(GeminiConfig{Model: "m"})
	assert.Error(t, err)
}
