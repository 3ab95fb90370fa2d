package store

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/kart-io/sentinel-docqa/pkg/component/milvus"
)

var milvusName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var _ completer = (*milvusBackend)(nil)

// milvusBackend 基于 Milvus 的向量存储。
type milvusBackend struct {
	client *milvus.Client
	loaded sync.Map
}

// NewMilvusStore 创建 Milvus 向量存储。
func NewMilvusStore(client *milvus.Client, dim int) VectorStore {
	return newCollectionStore(&milvusBackend{client: client}, dim, client.Options().Timeout)
}

func (s *milvusBackend) kind() string { return "milvus" }

func (s *milvusBackend) validName(name string) error {
	if !milvusName.MatchString(name) || len(name) > 255 {
		return fmt.Errorf("%q is not a valid milvus collection name", name)
	}
	return nil
}

func (s *milvusBackend) exists(ctx context.Context, name string) (bool, error) {
	return s.client.HasCollection(ctx, name)
}

func (s *milvusBackend) create(ctx context.Context, name string, dim int) error {
	if err := s.client.CreateCollection(ctx, name, dim); err != nil {
		return err
	}
	s.loaded.Store(name, struct{}{})
	return nil
}

// complete 补齐索引和加载，集合对象已存在但不可检索时使用。
func (s *milvusBackend) complete(ctx context.Context, name string) error {
	if err := s.client.FinishCollection(ctx, name); err != nil {
		return err
	}
	s.loaded.Store(name, struct{}{})
	return nil
}

func (s *milvusBackend) upsert(ctx context.Context, name string, records []Record) error {
	ids := make([]string, len(records))
	vectors := make([][]float32, len(records))
	texts := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
		vectors[i] = r.Vector
		texts[i] = r.Text
	}
	return s.client.Upsert(ctx, name, ids, vectors, texts)
}

func (s *milvusBackend) search(ctx context.Context, name string, vector []float32, k int) ([]hit, error) {
	// 服务重启后已有集合可能尚未加载
	if _, ok := s.loaded.Load(name); !ok {
		if err := s.client.Load(ctx, name); err != nil {
			return nil, err
		}
		s.loaded.Store(name, struct{}{})
	}

	results, err := s.client.Search(ctx, name, vector, k)
	if err != nil {
		return nil, err
	}
	hits := make([]hit, len(results))
	for i, r := range results {
		hits[i] = hit{text: r.Text, score: r.Score}
	}
	return hits, nil
}

func (s *milvusBackend) list(ctx context.Context) ([]string, error) {
	return s.client.ListCollections(ctx)
}

func (s *milvusBackend) close(ctx context.Context) error {
	return s.client.Close(ctx)
}
