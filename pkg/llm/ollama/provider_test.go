package ollama

import (
	"context"
	stdjson "encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-docqa/pkg/errors"
	"github.com/kart-io/sentinel-docqa/pkg/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewProviderWithConfig(&Config{URL: srv.URL + "/api/embeddings", Model: "nomic-embed-text", Timeout: 2 * time.Second})
}

func TestEmbedSendsExpectedBody(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"model":"nomic-embed-text","prompt":"hello","stream":false}`, string(body))

		_, _ = w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
	})

	vec, err := p.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbedErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr *errors.Errno
	}{
		{"服务端错误", http.StatusInternalServerError, `oops`, errors.ErrTransport},
		{"请求错误", http.StatusBadRequest, `{"error":"bad"}`, errors.ErrTransport},
		{"非 JSON", http.StatusOK, `not json`, errors.ErrMalformedResponse},
		{"缺少字段", http.StatusOK, `{"other":1}`, errors.ErrMalformedResponse},
		{"空向量", http.StatusOK, `{"embedding":[]}`, errors.ErrMalformedResponse},
		{"类型错误", http.StatusOK, `{"embedding":"x"}`, errors.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := p.Embed(context.Background(), "hello")
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestStatusErrorIsExposed(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := p.Embed(context.Background(), "hello")
	var statusErr *llm.StatusError
	require.True(t, stderrors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.True(t, statusErr.Retryable())
}

func TestEmbedTransportFailure(t *testing.T) {
	p := NewProviderWithConfig(&Config{URL: "http://127.0.0.1:1/api/embeddings", Model: "m", Timeout: time.Second})

	_, err := p.Embed(context.Background(), "hello")
	assert.True(t, stderrors.Is(err, errors.ErrTransport))
}

func TestEmbedTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	p := NewProviderWithConfig(&Config{URL: srv.URL, Model: "m", Timeout: 50 * time.Millisecond})
	_, err := p.Embed(context.Background(), "hello")
	assert.True(t, stderrors.Is(err, errors.ErrTransport))
}

func TestGenerate(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req request
		assert.NoError(t, stdjson.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what?", req.Prompt)
		assert.False(t, req.Stream)

		_, _ = w.Write([]byte(`{"model":"llama3","response":"  forty two\n","done":true}`))
	})

	text, err := p.Generate(context.Background(), "what?")
	require.NoError(t, err)
	assert.Equal(t, "  forty two\n", text)
}

func TestGenerateEmptyResponseIsValid(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":""}`))
	})

	text, err := p.Generate(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestGenerateMissingResponse(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"done":true}`))
	})

	_, err := p.Generate(context.Background(), "q")
	assert.True(t, stderrors.Is(err, errors.ErrMalformedResponse))
}

func TestNewProviderFromMap(t *testing.T) {
	p, err := llm.NewProvider(ProviderName, map[string]any{
		"url":     "http://ollama:11434/api/generate",
		"model":   "llama3",
		"timeout": 5 * time.Second,
	})
	require.NoError(t, err)

	op := p.(*Provider)
	assert.Equal(t, "http://ollama:11434/api/generate", op.config.URL)
	assert.Equal(t, "llama3", op.config.Model)
	assert.Equal(t, 5*time.Second, op.config.Timeout)
	assert.Equal(t, "ollama:llama3", p.Name())
}
