package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/socialforge/llm"
	"github.com/BaSui01/socialforge/llm/providers"
	"github.com/BaSui01/socialforge/types"
)

func newTestProvider(t *testing.T, url string) *Provider {
	t.Helper()
	return New(providers.GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-2.0-flash",
		BaseURL: url,
	}, zaptest.NewLogger(t))
}

func TestGenerateSendsInlineImageAndHeaders(t *testing.T) {
	var calls atomic.Int32
	var got geminiRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Contains(t, r.URL.Path, "gemini-2.0-flash:generateContent")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"role": "model", "parts": []map[string]any{{"text": `{"ok":true}`}}}},
			},
			"usageMetadata": map[string]any{"promptTokenCount": 10, "candidatesTokenCount": 5, "totalTokenCount": 15},
		})
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	resp, err := p.Generate(context.Background(), &llm.Request{
		System: "be brief",
		Parts: []llm.Part{
			llm.ImagePart(types.ImagePayload{Data: []byte{0xFF, 0xD8}, MIME: "image/jpeg"}),
			llm.TextPart("describe"),
		},
		Temperature: 0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, `{"ok":true}`, resp.Text)
	assert.Equal(t, 15, resp.Usage.TotalTokens)

	require.NotNil(t, got.SystemInstruction)
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	// Image part rides first, base64-encoded with its MIME type.
	require.NotNil(t, got.Contents[0].Parts[0].InlineData)
	assert.Equal(t, "image/jpeg", got.Contents[0].Parts[0].InlineData.MimeType)
	assert.Equal(t, "/9g=", got.Contents[0].Parts[0].InlineData.Data)
	assert.Equal(t, "describe", got.Contents[0].Parts[1].Text)
	require.NotNil(t, got.GenerationConfig)
	assert.InDelta(t, 0.7, got.GenerationConfig.Temperature, 1e-6)
}

func TestGenerateMapsUpstreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	_, err := p.Generate(context.Background(), &llm.Request{Parts: []llm.Part{llm.TextPart("hi")}})
	require.Error(t, err)
	assert.Equal(t, types.ErrRateLimited, types.GetErrorCode(err))
}

func TestGenerateNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse all connections

	p := newTestProvider(t, srv.URL)
	_, err := p.Generate(context.Background(), &llm.Request{Parts: []llm.Part{llm.TextPart("hi")}})
	require.Error(t, err)
	assert.Equal(t, types.ErrNetwork, types.GetErrorCode(err))
}

func TestGenerateEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	_, err := p.Generate(context.Background(), &llm.Request{Parts: []llm.Part{llm.TextPart("hi")}})
	require.Error(t, err)
	assert.Equal(t, types.ErrMalformedResponse, types.GetErrorCode(err))
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	assert.NoError(t, p.HealthCheck(context.Background()))
}
