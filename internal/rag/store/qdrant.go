package store

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	qdrantopts "github.com/kart-io/sentinel-docqa/pkg/options/qdrant"
	"github.com/kart-io/sentinel-docqa/pkg/utils/json"
)

// qdrantBackend 通过 REST API 访问 Qdrant。
type qdrantBackend struct {
	client *resty.Client
}

// NewQdrantStore 创建 Qdrant 向量存储。
func NewQdrantStore(opts *qdrantopts.Options, dim int) VectorStore {
	return newCollectionStore(newQdrantBackend(opts), dim, opts.Timeout)
}

func newQdrantBackend(opts *qdrantopts.Options) *qdrantBackend {
	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.URL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if opts.APIKey != "" {
		client.SetHeader("api-key", opts.APIKey)
	}
	client.JSONMarshal = json.Marshal
	client.JSONUnmarshal = json.Unmarshal

	return &qdrantBackend{client: client}
}

type qdrantPoint struct {
	ID      string            `json:"id"`
	Vector  []float32         `json:"vector"`
	Payload map[string]string `json:"payload"`
}

type qdrantScored struct {
	Score   float32        `json:"score"`
	Payload map[string]any `json:"payload"`
}

type qdrantSearchResponse struct {
	Result []qdrantScored `json:"result"`
}

type qdrantListResponse struct {
	Result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	} `json:"result"`
}

func (s *qdrantBackend) kind() string { return "qdrant" }

func (s *qdrantBackend) validName(name string) error {
	if strings.ContainsAny(name, "/\\") || len(name) > 255 {
		return fmt.Errorf("%q is not a valid qdrant collection name", name)
	}
	return nil
}

func statusErr(op string, resp *resty.Response) error {
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode(), strings.TrimSpace(resp.String()))
}

func (s *qdrantBackend) exists(ctx context.Context, name string) (bool, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("collection", name).
		Get("/collections/{collection}")
	if err != nil {
		return false, err
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return false, nil
	case resp.IsSuccess():
		return true, nil
	default:
		return false, statusErr("get collection", resp)
	}
}

func (s *qdrantBackend) create(ctx context.Context, name string, dim int) error {
	body := map[string]any{
		"vectors": map[string]any{"size": dim, "distance": "Cosine"},
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("collection", name).
		SetBody(body).
		Put("/collections/{collection}")
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return statusErr("create collection", resp)
	}
	return nil
}

func (s *qdrantBackend) upsert(ctx context.Context, name string, records []Record) error {
	points := make([]qdrantPoint, len(records))
	for i, r := range records {
		points[i] = qdrantPoint{ID: r.ID, Vector: r.Vector, Payload: map[string]string{"text": r.Text}}
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("collection", name).
		SetQueryParam("wait", "true").
		SetBody(map[string]any{"points": points}).
		Put("/collections/{collection}/points")
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return statusErr("upsert points", resp)
	}
	return nil
}

func (s *qdrantBackend) search(ctx context.Context, name string, vector []float32, k int) ([]hit, error) {
	var out qdrantSearchResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("collection", name).
		SetBody(map[string]any{"vector": vector, "limit": k, "with_payload": true}).
		SetResult(&out).
		Post("/collections/{collection}/points/search")
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, statusErr("search points", resp)
	}

	hits := make([]hit, 0, len(out.Result))
	for _, p := range out.Result {
		text, _ := p.Payload["text"].(string)
		hits = append(hits, hit{text: text, score: p.Score})
	}
	return hits, nil
}

func (s *qdrantBackend) list(ctx context.Context) ([]string, error) {
	var out qdrantListResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/collections")
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, statusErr("list collections", resp)
	}

	names := make([]string, 0, len(out.Result.Collections))
	for _, c := range out.Result.Collections {
		names = append(names, c.Name)
	}
	return names, nil
}

func (s *qdrantBackend) close(context.Context) error { return nil }
