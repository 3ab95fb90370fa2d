package resilience

import (
	"context"
	stderrors "errors"
	"net"

	"github.com/kart-io/sentinel-docqa/pkg/errors"
	"github.com/kart-io/sentinel-docqa/pkg/llm"
)

// ResilientEmbeddingProvider 带重试和熔断的 Embedding Provider 包装器。
type ResilientEmbeddingProvider struct {
	provider llm.EmbeddingProvider
	retry    *RetryConfig
	cb       *CircuitBreaker
}

// NewResilientEmbeddingProvider 创建带韧性功能的 Embedding Provider。
// cbConfig 为 nil 或 MaxFailures <= 0 时不启用熔断器。
func NewResilientEmbeddingProvider(provider llm.EmbeddingProvider, retryConfig *RetryConfig, cbConfig *CircuitBreakerConfig) *ResilientEmbeddingProvider {
	return &ResilientEmbeddingProvider{
		provider: provider,
		retry:    retryOrDefault(retryConfig),
		cb:       breakerOrNil(cbConfig),
	}
}

// Embed 为单个文本生成向量嵌入（带重试和熔断）。
func (r *ResilientEmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	var result []float32
	err := RetryWithCircuitBreaker(ctx, r.retry, r.cb, func(ctx context.Context) error {
		var err error
		result, err = r.provider.Embed(ctx, text)
		return err
	})
	if err != nil {
		return nil, asTransport(err)
	}
	return result, nil
}

// Name 返回供应商名称。
func (r *ResilientEmbeddingProvider) Name() string {
	return r.provider.Name()
}

// CircuitBreaker 获取熔断器实例，未启用时为 nil。
func (r *ResilientEmbeddingProvider) CircuitBreaker() *CircuitBreaker {
	return r.cb
}

// ResilientGenerationProvider 带重试和熔断的文本生成 Provider 包装器。
type ResilientGenerationProvider struct {
	provider llm.GenerationProvider
	retry    *RetryConfig
	cb       *CircuitBreaker
}

// NewResilientGenerationProvider 创建带韧性功能的文本生成 Provider。
func NewResilientGenerationProvider(provider llm.GenerationProvider, retryConfig *RetryConfig, cbConfig *CircuitBreakerConfig) *ResilientGenerationProvider {
	return &ResilientGenerationProvider{
		provider: provider,
		retry:    retryOrDefault(retryConfig),
		cb:       breakerOrNil(cbConfig),
	}
}

// Generate 根据提示生成文本（带重试和熔断）。
func (r *ResilientGenerationProvider) Generate(ctx context.Context, prompt string) (string, error) {
	var result string
	err := RetryWithCircuitBreaker(ctx, r.retry, r.cb, func(ctx context.Context) error {
		var err error
		result, err = r.provider.Generate(ctx, prompt)
		return err
	})
	if err != nil {
		return "", asTransport(err)
	}
	return result, nil
}

// Name 返回供应商名称。
func (r *ResilientGenerationProvider) Name() string {
	return r.provider.Name()
}

// CircuitBreaker 获取熔断器实例，未启用时为 nil。
func (r *ResilientGenerationProvider) CircuitBreaker() *CircuitBreaker {
	return r.cb
}

func retryOrDefault(cfg *RetryConfig) *RetryConfig {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}
	if cfg.Retryable == nil {
		cfg.Retryable = IsRetryableError
	}
	return cfg
}

func breakerOrNil(cfg *CircuitBreakerConfig) *CircuitBreaker {
	if cfg == nil || cfg.MaxFailures <= 0 {
		return nil
	}
	return NewCircuitBreaker(cfg)
}

// asTransport 保证熔断与取消错误也归入 ErrTransport，其余错误原样返回。
func asTransport(err error) error {
	var errno *errors.Errno
	if stderrors.As(err, &errno) {
		return err
	}
	return errors.ErrTransport.WithCause(err)
}

// IsRetryableError 判断错误是否可重试。
// 仅网络错误、超时以及 5xx/429 响应可重试；格式错误与其他 4xx 从不重试。
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if stderrors.Is(err, ErrCircuitBreakerOpen) || stderrors.Is(err, context.Canceled) {
		return false
	}
	if stderrors.Is(err, errors.ErrMalformedResponse) {
		return false
	}

	var statusErr *llm.StatusError
	if stderrors.As(err, &statusErr) {
		return statusErr.Retryable()
	}

	// 单次调用超时可重试，调用方取消已在上面排除
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	return stderrors.As(err, &opErr)
}
