// Package ragsvc wires the document Q&A service together.
package ragsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/sentinel-docqa/internal/rag/biz"
	"github.com/kart-io/sentinel-docqa/internal/rag/handler"
	"github.com/kart-io/sentinel-docqa/internal/rag/metrics"
	"github.com/kart-io/sentinel-docqa/internal/rag/router"
	"github.com/kart-io/sentinel-docqa/internal/rag/store"
	"github.com/kart-io/sentinel-docqa/pkg/component/redis"
	"github.com/kart-io/sentinel-docqa/pkg/infra/app"
	"github.com/kart-io/sentinel-docqa/pkg/infra/pool"
	"github.com/kart-io/sentinel-docqa/pkg/infra/server"
	"github.com/kart-io/sentinel-docqa/pkg/infra/tracing"
	"github.com/kart-io/sentinel-docqa/pkg/llm"
	// 注册 ollama 供应商
	_ "github.com/kart-io/sentinel-docqa/pkg/llm/ollama"
	"github.com/kart-io/sentinel-docqa/pkg/llm/resilience"
	cacheopts "github.com/kart-io/sentinel-docqa/pkg/options/cache"
	llmopts "github.com/kart-io/sentinel-docqa/pkg/options/llm"
	logopts "github.com/kart-io/sentinel-docqa/pkg/options/logger"
	mwopts "github.com/kart-io/sentinel-docqa/pkg/options/middleware"
	milvusopts "github.com/kart-io/sentinel-docqa/pkg/options/milvus"
	pgvopts "github.com/kart-io/sentinel-docqa/pkg/options/pgvector"
	qdrantopts "github.com/kart-io/sentinel-docqa/pkg/options/qdrant"
	ragopts "github.com/kart-io/sentinel-docqa/pkg/options/rag"
	httpopts "github.com/kart-io/sentinel-docqa/pkg/options/server/http"
	storeopts "github.com/kart-io/sentinel-docqa/pkg/options/store"
	tracingopts "github.com/kart-io/sentinel-docqa/pkg/options/tracing"
)

// Name is the name of the application.
const Name = "sentinel-docqa"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions       *httpopts.Options
	LogOptions        *logopts.Options
	TracingOptions    *tracingopts.Options
	StoreOptions      *storeopts.Options
	MilvusOptions     *milvusopts.Options
	QdrantOptions     *qdrantopts.Options
	PGVectorOptions   *pgvopts.Options
	CacheOptions      *cacheopts.Options
	EmbeddingOptions  *llmopts.ProviderOptions
	GenerationOptions *llmopts.ProviderOptions
	RAGOptions        *ragopts.Options
	MiddlewareOptions *mwopts.Options
}

// Server represents the document Q&A server.
type Server struct {
	srv             *server.Server
	shutdownTimeout time.Duration

	// 按创建顺序登记，退出时逆序释放
	closers []closer
}

type closer struct {
	name string
	fn   func(ctx context.Context) error
}

// NewServer initializes and returns a new Server instance.
// Resources acquired before a failing step are released before returning.
func (cfg *Config) NewServer(ctx context.Context) (_ *Server, err error) {
	s := &Server{shutdownTimeout: cfg.HTTPOptions.ShutdownTimeout}
	defer func() {
		if err != nil {
			s.release(context.Background())
		}
	}()

	// 1. 初始化日志
	if err := cfg.LogOptions.Init(Name, app.GetVersion()); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Infow("Starting document Q&A service...", "version", app.GetVersion())

	// 2. 初始化链路追踪
	if cfg.TracingOptions.ServiceName == "" {
		cfg.TracingOptions.ServiceName = Name
	}
	if cfg.TracingOptions.ServiceVersion == "" {
		cfg.TracingOptions.ServiceVersion = app.GetVersion()
	}
	tp, err := tracing.NewProvider(ctx, cfg.TracingOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	s.track("tracing", tp.Shutdown)

	// 3. 初始化向量存储
	vectorStore, err := store.New(ctx, &store.Config{
		Backend:   cfg.StoreOptions.Backend,
		Dimension: cfg.RAGOptions.Dimension,
		Milvus:    cfg.MilvusOptions,
		Qdrant:    cfg.QdrantOptions,
		PGVector:  cfg.PGVectorOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	s.track("store", vectorStore.Close)

	// 4. 初始化 Redis（向量缓存），不可用时降级为无缓存
	var rdb goredis.Cmdable
	if cfg.CacheOptions.Enabled {
		client, err := redis.New(ctx, cfg.CacheOptions.Redis)
		if err != nil {
			logger.Warnw("failed to connect to redis, cache will be disabled", "error", err.Error())
		} else {
			rdb = client.Client()
			s.track("redis", func(context.Context) error { return client.Close() })
			logger.Infow("Redis cache initialized", "addr", cfg.CacheOptions.Redis.Addr(), "ttl", cfg.CacheOptions.TTL)
		}
	} else {
		logger.Info("Cache is disabled")
	}

	// 5. 初始化指标与模型供应商
	ragMetrics := metrics.New(cfg.MiddlewareOptions.Metrics.Namespace)
	embedProvider, genProvider, err := cfg.newProviders(rdb, ragMetrics)
	if err != nil {
		return nil, err
	}

	// 6. 初始化向量化工作池
	embedPool, err := pool.NewPool("embedding", pool.EmbeddingPool, pool.EmbeddingPoolConfig(cfg.RAGOptions.Concurrency))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding pool: %w", err)
	}
	s.track("pool", func(context.Context) error { embedPool.Release(); return nil })
	ragMetrics.RegisterPool(cfg.MiddlewareOptions.Metrics.Namespace, embedPool)

	// 7. 初始化 Biz 层
	processor := biz.NewProcessor(vectorStore, embedProvider, genProvider, embedPool, ragMetrics, &biz.ProcessorConfig{
		ChunkSize: cfg.RAGOptions.ChunkSize,
		TopK:      cfg.RAGOptions.TopK,
		UploadDir: cfg.RAGOptions.UploadDir,
	})
	logger.Infow("Processor initialized",
		"chunk_size", cfg.RAGOptions.ChunkSize,
		"top_k", cfg.RAGOptions.TopK,
		"concurrency", cfg.RAGOptions.Concurrency,
	)

	// 8. 初始化 Handler 与服务器
	ragHandler := handler.NewRAGHandler(processor, cfg.RAGOptions.UploadDir, app.GetVersion())
	s.srv = server.NewServer(cfg.HTTPOptions, cfg.MiddlewareOptions, ragMetrics.Registry())

	// 9. 注册路由
	router.Register(s.srv.Engine(), ragHandler, cfg.MiddlewareOptions.Metrics.Path, ragMetrics.Handler())

	logger.Info("Document Q&A service is ready")
	return s, nil
}

func (cfg *Config) newProviders(rdb goredis.Cmdable, m *metrics.RAGMetrics) (llm.EmbeddingProvider, llm.GenerationProvider, error) {
	embed, err := llm.NewEmbeddingProvider(cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.ToConfigMap())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	gen, err := llm.NewGenerationProvider(cfg.GenerationOptions.Provider, cfg.GenerationOptions.ToConfigMap())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize generation provider: %w", err)
	}

	resilientEmbed := resilience.NewResilientEmbeddingProvider(embed,
		resilience.RetryConfigFromMaxRetries(cfg.EmbeddingOptions.MaxRetries),
		breakerConfig(cfg.EmbeddingOptions))
	resilientGen := resilience.NewResilientGenerationProvider(gen,
		resilience.RetryConfigFromMaxRetries(cfg.GenerationOptions.MaxRetries),
		breakerConfig(cfg.GenerationOptions))

	namespace := cfg.MiddlewareOptions.Metrics.Namespace
	m.RegisterBreaker(namespace, "embedding", resilientEmbed.CircuitBreaker())
	m.RegisterBreaker(namespace, "generation", resilientGen.CircuitBreaker())

	embed, gen = resilientEmbed, resilientGen

	// 缓存在重试之外，命中时不触发模型请求
	if rdb != nil {
		embed = llm.NewCachedEmbeddingProvider(embed, rdb, &llm.EmbeddingCacheConfig{
			TTL:       cfg.CacheOptions.TTL,
			KeyPrefix: cfg.CacheOptions.KeyPrefix,
		})
	}

	logger.Infow("Model providers initialized",
		"embedding.provider", cfg.EmbeddingOptions.Provider,
		"embedding.model", cfg.EmbeddingOptions.Model,
		"generation.provider", cfg.GenerationOptions.Provider,
		"generation.model", cfg.GenerationOptions.Model,
	)
	return embed, gen, nil
}

// breakerConfig 返回 nil 表示不启用熔断。
func breakerConfig(o *llmopts.ProviderOptions) *resilience.CircuitBreakerConfig {
	if o.BreakerMaxFailures <= 0 {
		return nil
	}
	c := resilience.DefaultCircuitBreakerConfig()
	c.MaxFailures = o.BreakerMaxFailures
	return c
}

func (s *Server) track(name string, fn func(ctx context.Context) error) {
	s.closers = append(s.closers, closer{name: name, fn: fn})
}

// Run starts the HTTP server and blocks until ctx is cancelled,
// then shuts down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	if err := s.srv.Start(ctx); err != nil {
		s.release(context.Background())
		return err
	}

	<-ctx.Done()
	logger.Info("Shutting down document Q&A service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err := s.srv.Stop(shutdownCtx)
	if err != nil {
		logger.Errorw("HTTP server shutdown failed", "error", err)
	}
	s.release(shutdownCtx)

	logger.Info("Document Q&A service stopped")
	return err
}

func (s *Server) release(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		c := s.closers[i]
		if err := c.fn(ctx); err != nil {
			logger.Warnw("failed to release resource", "resource", c.name, "error", err)
		}
	}
	s.closers = nil
}
