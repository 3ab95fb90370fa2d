// Package milvus wraps the Milvus SDK client for per-document vector collections.
package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	milvusopts "github.com/kart-io/sentinel-docqa/pkg/options/milvus"
)

// 集合字段名
const (
	FieldID        = "id"
	FieldEmbedding = "embedding"
	FieldText      = "text"

	idMaxLen   = 64
	textMaxLen = 65535
)

// Client wraps the Milvus SDK client.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
}

// New creates a new Milvus client.
func New(ctx context.Context, opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	return &Client{
		client: c,
		opts:   opts,
	}, nil
}

// Close closes the Milvus client connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// Options returns the options the client was built with.
func (c *Client) Options() *milvusopts.Options {
	return c.opts
}

// HasCollection reports whether the collection exists.
func (c *Client) HasCollection(ctx context.Context, name string) (bool, error) {
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

// CreateCollection 创建集合：VarChar 主键 id、FloatVector embedding、VarChar text，
// embedding 上建 HNSW COSINE 索引并加载到内存。
func (c *Client) CreateCollection(ctx context.Context, name string, dim int) error {
	schema := entity.NewSchema().
		WithName(name).
		WithDescription("document chunks").
		WithAutoID(false).
		WithField(entity.NewField().
			WithName(FieldID).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(idMaxLen).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(FieldEmbedding).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(dim))).
		WithField(entity.NewField().
			WithName(FieldText).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(textMaxLen))

	if err := c.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(name, schema)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return c.FinishCollection(ctx, name)
}

// FinishCollection 建索引并加载集合。索引参数相同时重复创建在服务端是幂等的，
// 可用于补齐中途失败的 CreateCollection。
func (c *Client) FinishCollection(ctx context.Context, name string) error {
	idx := index.NewHNSWIndex(entity.COSINE, c.opts.IndexM, c.opts.IndexEfConstruction)
	createIdxTask, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, FieldEmbedding, idx))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := createIdxTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for index creation: %w", err)
	}

	return c.Load(ctx, name)
}

// Load loads the collection into memory. Loading an already-loaded collection is a no-op on the server.
func (c *Client) Load(ctx context.Context, name string) error {
	loadTask, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection loading: %w", err)
	}
	return nil
}

// Upsert writes rows keyed by id and flushes so they are searchable immediately.
func (c *Client) Upsert(ctx context.Context, name string, ids []string, vectors [][]float32, texts []string) error {
	if len(ids) == 0 {
		return nil
	}

	dim := len(vectors[0])
	columns := []column.Column{
		column.NewColumnVarChar(FieldID, ids),
		column.NewColumnFloatVector(FieldEmbedding, dim, vectors),
		column.NewColumnVarChar(FieldText, texts),
	}

	if _, err := c.client.Upsert(ctx, milvusclient.NewColumnBasedInsertOption(name, columns...)); err != nil {
		return fmt.Errorf("failed to upsert data: %w", err)
	}

	flushTask, err := c.client.Flush(ctx, milvusclient.NewFlushOption(name))
	if err != nil {
		return fmt.Errorf("failed to flush collection: %w", err)
	}
	if err := flushTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for flush: %w", err)
	}
	return nil
}

// SearchResult represents a single search hit.
type SearchResult struct {
	ID    string
	Score float32
	Text  string
}

// Search performs a cosine similarity search and returns hits best first.
func (c *Client) Search(ctx context.Context, name string, vector []float32, topK int) ([]SearchResult, error) {
	results, err := c.client.Search(ctx, milvusclient.NewSearchOption(
		name,
		topK,
		[]entity.Vector{entity.FloatVector(vector)},
	).WithANNSField(FieldEmbedding).
		WithSearchParam("ef", strconv.Itoa(max(c.opts.SearchEf, topK))).
		WithOutputFields(FieldText))
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	if len(results) == 0 {
		return []SearchResult{}, nil
	}

	rs := results[0]
	var texts *column.ColumnVarChar
	for _, field := range rs.Fields {
		if col, ok := field.(*column.ColumnVarChar); ok && col.Name() == FieldText {
			texts = col
		}
	}

	hits := make([]SearchResult, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		hit := SearchResult{Score: rs.Scores[i]}
		if idCol, ok := rs.IDs.(*column.ColumnVarChar); ok {
			hit.ID = idCol.Data()[i]
		}
		if texts != nil {
			hit.Text = texts.Data()[i]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// ListCollections returns every collection name in the database.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	names, err := c.client.ListCollections(ctx, milvusclient.NewListCollectionOption())
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}
