package store

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-docqa/pkg/component/milvus"
	"github.com/kart-io/sentinel-docqa/pkg/errors"
	milvusopts "github.com/kart-io/sentinel-docqa/pkg/options/milvus"
	pgvopts "github.com/kart-io/sentinel-docqa/pkg/options/pgvector"
	qdrantopts "github.com/kart-io/sentinel-docqa/pkg/options/qdrant"
	storeopts "github.com/kart-io/sentinel-docqa/pkg/options/store"
)

// Config 选择并配置向量存储后端。
type Config struct {
	Backend   string
	Dimension int
	Milvus    *milvusopts.Options
	Qdrant    *qdrantopts.Options
	PGVector  *pgvopts.Options
}

// New 按 Backend 创建向量存储，连接失败返回 ErrStoreUnavailable。
func New(ctx context.Context, cfg *Config) (VectorStore, error) {
	var (
		vs  VectorStore
		err error
	)

	switch cfg.Backend {
	case storeopts.BackendMilvus, "":
		var client *milvus.Client
		client, err = milvus.New(ctx, cfg.Milvus)
		if err == nil {
			vs = NewMilvusStore(client, cfg.Dimension)
		}
	case storeopts.BackendQdrant:
		vs = NewQdrantStore(cfg.Qdrant, cfg.Dimension)
	case storeopts.BackendPGVector:
		vs, err = NewPGVectorStore(ctx, cfg.PGVector, cfg.Dimension)
	case storeopts.BackendMemory:
		vs = NewMemoryStore(cfg.Dimension)
	default:
		return nil, errors.ErrConfig.WithMessagef("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, errors.ErrStoreUnavailable.WithCause(fmt.Errorf("%s: %w", cfg.Backend, err))
	}

	logger.Infow("vector store ready", "backend", cfg.Backend, "dimension", cfg.Dimension)
	return vs, nil
}
