package store

import (
	"context"
	stdjson "encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-docqa/pkg/errors"
	qdrantopts "github.com/kart-io/sentinel-docqa/pkg/options/qdrant"
	"github.com/kart-io/sentinel-docqa/pkg/utils/json"
)

// fakeQdrant 实现 Qdrant REST API 的最小子集。
type fakeQdrant struct {
	mu          sync.Mutex
	collections map[string][]qdrantPoint
	apiKeys     []string
	waits       []string
}

func newFakeQdrant(t *testing.T) (*fakeQdrant, *httptest.Server) {
	f := &fakeQdrant{collections: map[string][]qdrantPoint{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /collections", f.list)
	mux.HandleFunc("GET /collections/{name}", f.get)
	mux.HandleFunc("PUT /collections/{name}", f.create)
	mux.HandleFunc("PUT /collections/{name}/points", f.upsert)
	mux.HandleFunc("POST /collections/{name}/points/search", f.search)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, _ := json.Marshal(v)
	_, _ = w.Write(data)
}

func (f *fakeQdrant) list(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cols := make([]map[string]string, 0, len(f.collections))
	for name := range f.collections {
		cols = append(cols, map[string]string{"name": name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": map[string]any{"collections": cols}})
}

func (f *fakeQdrant) get(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.collections[r.PathValue("name")]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"status": map[string]string{"error": "Not found"}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": map[string]string{"status": "green"}})
}

func (f *fakeQdrant) create(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := r.PathValue("name")
	if _, ok := f.collections[name]; ok {
		writeJSON(w, http.StatusConflict, map[string]any{"status": map[string]string{"error": "already exists"}})
		return
	}
	f.collections[name] = nil
	writeJSON(w, http.StatusOK, map[string]any{"result": true})
}

func (f *fakeQdrant) upsert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Points []qdrantPoint `json:"points"`
	}
	if err := stdjson.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, nil)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits = append(f.waits, r.URL.Query().Get("wait"))
	name := r.PathValue("name")
	if _, ok := f.collections[name]; !ok {
		writeJSON(w, http.StatusNotFound, nil)
		return
	}
	f.collections[name] = append(f.collections[name], body.Points...)
	writeJSON(w, http.StatusOK, map[string]any{"result": map[string]string{"status": "completed"}})
}

func (f *fakeQdrant) search(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	points, ok := f.collections[r.PathValue("name")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"status": map[string]string{"error": "Not found"}})
		return
	}
	result := make([]map[string]any, 0, len(points))
	for i := len(points) - 1; i >= 0; i-- {
		result = append(result, map[string]any{"id": points[i].ID, "score": 0.9, "payload": points[i].Payload})
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func newTestQdrantStore(t *testing.T) (*fakeQdrant, VectorStore) {
	f, srv := newFakeQdrant(t)
	opts := qdrantopts.NewOptions()
	opts.URL = srv.URL
	opts.APIKey = "secret"
	return f, NewQdrantStore(opts, 3)
}

func TestQdrantUpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	f, s := newTestQdrantStore(t)

	v := []float32{0.1, 0.2, 0.3}
	require.NoError(t, s.Upsert(ctx, "report", []Record{
		{ID: "6f1c1b8e-8d7a-4b8f-9d3e-1a2b3c4d5e6f", Vector: v, Text: "hello"},
	}))

	got, err := s.Search(ctx, "report", v, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, got)

	assert.Equal(t, []string{"true"}, f.waits)
	for _, key := range f.apiKeys {
		assert.Equal(t, "secret", key)
	}
}

func TestQdrantEnsureAndList(t *testing.T) {
	ctx := context.Background()
	_, s := newTestQdrantStore(t)

	require.NoError(t, s.EnsureCollection(ctx, "b"))
	require.NoError(t, s.EnsureCollection(ctx, "a"))
	require.NoError(t, s.EnsureCollection(ctx, "a"))

	names, err := s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestQdrantSearchMissingCollection(t *testing.T) {
	_, s := newTestQdrantStore(t)

	_, err := s.Search(context.Background(), "nope", []float32{1, 0, 0}, 3)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrStoreRead))
}

func TestQdrantUnreachable(t *testing.T) {
	opts := qdrantopts.NewOptions()
	opts.URL = "http://127.0.0.1:1"
	s := NewQdrantStore(opts, 3)

	_, err := s.CollectionExists(context.Background(), "doc")
	assert.True(t, stderrors.Is(err, errors.ErrStoreUnavailable))

	_, err = s.ListCollections(context.Background())
	assert.True(t, stderrors.Is(err, errors.ErrStoreUnavailable))
}

func TestQdrantRejectsSlashInName(t *testing.T) {
	_, s := newTestQdrantStore(t)

	err := s.EnsureCollection(context.Background(), "a/b")
	assert.True(t, stderrors.Is(err, errors.ErrBadIdentifier))
}
