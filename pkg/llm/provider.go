// Package llm 提供统一的 LLM 供应商抽象层。
// Embedding 与文本生成可以使用不同的端点和模型。
package llm

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// EmbeddingProvider 定义 Embedding 供应商接口。
type EmbeddingProvider interface {
	// Embed 为单个文本生成向量嵌入。
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name 返回供应商名称。
	Name() string
}

// GenerationProvider 定义文本生成供应商接口。
type GenerationProvider interface {
	// Generate 根据提示生成文本（单轮、非流式）。
	Generate(ctx context.Context, prompt string) (string, error)

	// Name 返回供应商名称。
	Name() string
}

// Provider 同时支持 Embedding 和文本生成的完整供应商。
type Provider interface {
	EmbeddingProvider
	GenerationProvider
}

// ProviderFactory 供应商工厂函数类型。
type ProviderFactory func(config map[string]any) (Provider, error)

// StatusError 表示模型端点返回的非 2xx 响应。
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("请求失败，状态码 %d: %s", e.StatusCode, e.Body)
}

// Retryable 5xx 与 429 视为瞬时错误。
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

var registry = &providerRegistry{
	providers: make(map[string]ProviderFactory),
}

type providerRegistry struct {
	mu        sync.RWMutex
	providers map[string]ProviderFactory
}

// RegisterProvider 注册供应商工厂。
func RegisterProvider(name string, factory ProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.providers[name] = factory
}

// NewProvider 根据名称创建供应商实例。
func NewProvider(name string, config map[string]any) (Provider, error) {
	registry.mu.RLock()
	factory, ok := registry.providers[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider: %s (registered: %s)", name, strings.Join(ListProviders(), ", "))
	}

	return factory(config)
}

// NewEmbeddingProvider 根据名称创建 Embedding 供应商实例。
func NewEmbeddingProvider(name string, config map[string]any) (EmbeddingProvider, error) {
	return NewProvider(name, config)
}

// NewGenerationProvider 根据名称创建文本生成供应商实例。
func NewGenerationProvider(name string, config map[string]any) (GenerationProvider, error) {
	return NewProvider(name, config)
}

// ListProviders 列出所有已注册的供应商名称。
func ListProviders() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.providers))
	for name := range registry.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
