package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/sentinel-docqa/pkg/utils/json"
)

// EmbeddingCacheConfig Embedding 缓存配置。
type EmbeddingCacheConfig struct {
	// TTL 缓存过期时间，0 表示不过期。
	TTL time.Duration
	// KeyPrefix 缓存键前缀。
	KeyPrefix string
}

// DefaultEmbeddingCacheConfig 返回默认的 Embedding 缓存配置。
func DefaultEmbeddingCacheConfig() *EmbeddingCacheConfig {
	return &EmbeddingCacheConfig{
		TTL:       24 * time.Hour,
		KeyPrefix: "docqa:emb:",
	}
}

// CacheStats 缓存命中统计。
type CacheStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// CachedEmbeddingProvider 在 Redis 中缓存 Embedding 结果的包装器。
// Redis 出错时退化为直接调用底层 provider，不影响功能。
type CachedEmbeddingProvider struct {
	provider EmbeddingProvider
	redis    goredis.Cmdable
	config   *EmbeddingCacheConfig

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedEmbeddingProvider 创建带缓存的 Embedding Provider。
func NewCachedEmbeddingProvider(provider EmbeddingProvider, redis goredis.Cmdable, config *EmbeddingCacheConfig) *CachedEmbeddingProvider {
	if config == nil {
		config = DefaultEmbeddingCacheConfig()
	}
	return &CachedEmbeddingProvider{
		provider: provider,
		redis:    redis,
		config:   config,
	}
}

// cacheKey 键包含模型名，避免不同模型的向量互相污染。
func (c *CachedEmbeddingProvider) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return c.config.KeyPrefix + c.provider.Name() + ":" + hex.EncodeToString(hash[:])
}

// Embed 生成单个文本的 Embedding（带缓存）。
func (c *CachedEmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.redis == nil {
		return c.provider.Embed(ctx, text)
	}

	key := c.cacheKey(text)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var embedding []float32
		if err := json.Unmarshal(data, &embedding); err == nil && len(embedding) > 0 {
			c.hits.Add(1)
			logger.Debugw("embedding cache hit", "text_length", len(text), "key", key)
			return embedding, nil
		}
		logger.Warnw("corrupt cached embedding, deleting", "key", key)
		_ = c.redis.Del(ctx, key).Err()
	case !stderrors.Is(err, goredis.Nil):
		logger.Warnw("redis get error, falling back to provider", "error", err.Error())
	}

	c.misses.Add(1)
	embedding, err := c.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err = json.Marshal(embedding); err != nil {
		logger.Warnw("failed to marshal embedding for caching", "error", err.Error())
		return embedding, nil
	}
	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("failed to cache embedding", "error", err.Error(), "key", key)
	}

	return embedding, nil
}

// Name 返回底层 provider 的名称。
func (c *CachedEmbeddingProvider) Name() string {
	return c.provider.Name()
}

// Stats 返回进程内的命中统计。
func (c *CachedEmbeddingProvider) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

var _ EmbeddingProvider = (*CachedEmbeddingProvider)(nil)
