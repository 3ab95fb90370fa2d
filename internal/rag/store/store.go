package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-docqa/pkg/errors"
)

// Record 表示一条向量记录。
type Record struct {
	// ID 记录 ID，UUIDv4 字符串。
	ID string
	// Vector 嵌入向量，维度必须等于集合维度。
	Vector []float32
	// Text 原始文本块，存于 payload 字段 text。
	Text string
}

// VectorStore 定义向量存储接口。
type VectorStore interface {
	// CollectionExists 检查集合是否存在。
	CollectionExists(ctx context.Context, name string) (bool, error)

	// EnsureCollection 集合不存在时创建，已存在视为成功。
	EnsureCollection(ctx context.Context, name string) error

	// Upsert 按 id 写入记录，返回前等待存储确认持久化。
	Upsert(ctx context.Context, name string, records []Record) error

	// Search 返回最多 k 条文本，按相似度降序。
	Search(ctx context.Context, name string, vector []float32, k int) ([]string, error)

	// ListCollections 返回排序后的集合名。
	ListCollections(ctx context.Context) ([]string, error)

	// Close 关闭连接。
	Close(ctx context.Context) error
}

// hit 是后端返回的一条检索结果，按相似度降序排列。
type hit struct {
	text  string
	score float32
}

// backend 是各存储驱动需要实现的原始操作。
type backend interface {
	kind() string
	validName(name string) error
	exists(ctx context.Context, name string) (bool, error)
	create(ctx context.Context, name string, dim int) error
	upsert(ctx context.Context, name string, records []Record) error
	search(ctx context.Context, name string, vector []float32, k int) ([]hit, error)
	list(ctx context.Context) ([]string, error)
	close(ctx context.Context) error
}

// completer 由创建分多步的后端实现。create 失败但集合已存在时，
// 集合可能只建了一半，complete 补齐剩余步骤。
type completer interface {
	complete(ctx context.Context, name string) error
}

var _ VectorStore = (*collectionStore)(nil)

// collectionStore 在 backend 之上实现 VectorStore 的公共语义。
type collectionStore struct {
	b       backend
	dim     int
	timeout time.Duration
	guard   collectionGuard
}

func newCollectionStore(b backend, dim int, timeout time.Duration) *collectionStore {
	return &collectionStore{b: b, dim: dim, timeout: timeout}
}

func (s *collectionStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *collectionStore) checkName(name string) error {
	if name == "" {
		return errors.ErrBadIdentifier.WithMessage("collection name is empty")
	}
	if err := s.b.validName(name); err != nil {
		return errors.ErrBadIdentifier.WithCause(err)
	}
	return nil
}

func (s *collectionStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	if err := s.checkName(name); err != nil {
		return false, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ok, err := s.b.exists(ctx, name)
	if err != nil {
		return false, errors.ErrStoreUnavailable.WithCause(fmt.Errorf("%s: check collection %q: %w", s.b.kind(), name, err))
	}
	return ok, nil
}

func (s *collectionStore) EnsureCollection(ctx context.Context, name string) error {
	if err := s.checkName(name); err != nil {
		return err
	}
	return s.guard.ensure(ctx, name, func(ctx context.Context) error {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		return s.ensure(ctx, name)
	})
}

func (s *collectionStore) ensure(ctx context.Context, name string) error {
	exists, err := s.b.exists(ctx, name)
	if err != nil {
		return errors.ErrStoreUnavailable.WithCause(fmt.Errorf("%s: check collection %q: %w", s.b.kind(), name, err))
	}
	if exists {
		return nil
	}

	createErr := s.b.create(ctx, name, s.dim)
	if createErr == nil {
		logger.Infow("collection created", "backend", s.b.kind(), "collection", name, "dimension", s.dim)
		return nil
	}

	// 另一个进程可能已抢先创建，也可能是本次创建中途失败
	if exists, err := s.b.exists(ctx, name); err == nil && exists {
		c, ok := s.b.(completer)
		if !ok {
			logger.Warnw("collection create failed but collection exists, using it",
				"backend", s.b.kind(), "collection", name, "error", createErr)
			return nil
		}
		if err := c.complete(ctx, name); err != nil {
			return errors.ErrStoreWrite.WithCause(fmt.Errorf("%s: complete collection %q after %v: %w", s.b.kind(), name, createErr, err))
		}
		logger.Warnw("collection create failed but collection exists, completed it",
			"backend", s.b.kind(), "collection", name, "error", createErr)
		return nil
	}
	return errors.ErrStoreWrite.WithCause(fmt.Errorf("%s: create collection %q: %w", s.b.kind(), name, createErr))
}

func (s *collectionStore) Upsert(ctx context.Context, name string, records []Record) error {
	if err := s.EnsureCollection(ctx, name); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	for _, r := range records {
		if len(r.Vector) != s.dim {
			return errors.ErrStoreWrite.WithMessagef("record %s has dimension %d, collection %q expects %d",
				r.ID, len(r.Vector), name, s.dim)
		}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.b.upsert(ctx, name, records); err != nil {
		return errors.ErrStoreWrite.WithCause(fmt.Errorf("%s: upsert %d records into %q: %w", s.b.kind(), len(records), name, err))
	}
	logger.Debugw("records upserted", "backend", s.b.kind(), "collection", name, "count", len(records))
	return nil
}

func (s *collectionStore) Search(ctx context.Context, name string, vector []float32, k int) ([]string, error) {
	if err := s.checkName(name); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// k <= 0 不查询后端，但集合不存在时仍然报错
	if k <= 0 {
		exists, err := s.b.exists(ctx, name)
		if err != nil {
			return nil, errors.ErrStoreRead.WithCause(fmt.Errorf("%s: check collection %q: %w", s.b.kind(), name, err))
		}
		if !exists {
			return nil, errors.ErrStoreRead.WithMessagef("collection %q not found", name)
		}
		return []string{}, nil
	}

	hits, err := s.b.search(ctx, name, vector, k)
	if err != nil {
		return nil, errors.ErrStoreRead.WithCause(fmt.Errorf("%s: search %q: %w", s.b.kind(), name, err))
	}

	texts := make([]string, 0, min(len(hits), k))
	for _, h := range hits {
		if h.text == "" {
			continue
		}
		texts = append(texts, h.text)
		if len(texts) == k {
			break
		}
	}
	return texts, nil
}

func (s *collectionStore) ListCollections(ctx context.Context) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	names, err := s.b.list(ctx)
	if err != nil {
		return nil, errors.ErrStoreUnavailable.WithCause(fmt.Errorf("%s: list collections: %w", s.b.kind(), err))
	}
	slices.Sort(names)
	return names, nil
}

func (s *collectionStore) Close(ctx context.Context) error {
	return s.b.close(ctx)
}
