// Package ollama 提供 Ollama 兼容端点的 LLM 供应商实现。
// 每个 Provider 实例绑定一个完整的端点 URL 和一个模型。
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kart-io/sentinel-docqa/pkg/errors"
	"github.com/kart-io/sentinel-docqa/pkg/llm"
	"github.com/kart-io/sentinel-docqa/pkg/utils/json"
)

const ProviderName = "ollama"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Config Ollama 供应商配置。
type Config struct {
	// URL 完整的端点地址，例如 http://localhost:11434/api/embeddings。
	URL     string        `json:"url" mapstructure:"url"`
	Model   string        `json:"model" mapstructure:"model"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		URL:     "http://localhost:11434/api/embeddings",
		Model:   "nomic-embed-text",
		Timeout: 60 * time.Second,
	}
}

// Provider Ollama 供应商实现。
type Provider struct {
	config *Config
	client *resty.Client
}

// NewProvider 从配置 map 创建 Ollama 供应商。
func NewProvider(configMap map[string]any) (llm.Provider, error) {
	cfg := DefaultConfig()

	if v, ok := configMap["url"].(string); ok && v != "" {
		cfg.URL = v
	}
	if v, ok := configMap["model"].(string); ok && v != "" {
		cfg.Model = v
	}
	if v, ok := configMap["timeout"].(time.Duration); ok && v > 0 {
		cfg.Timeout = v
	}

	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig 使用结构化配置创建 Ollama 供应商。
func NewProviderWithConfig(cfg *Config) *Provider {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	client.JSONMarshal = json.Marshal
	client.JSONUnmarshal = json.Unmarshal

	return &Provider{
		config: cfg,
		client: client,
	}
}

// Name 返回供应商名称。
func (p *Provider) Name() string {
	return ProviderName + ":" + p.config.Model
}

// request Ollama embeddings 与 generate API 共用的请求体。
type request struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type generateResponse struct {
	Response *string `json:"response"`
}

// Embed 为单个文本生成向量嵌入。
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	var out embedResponse
	if err := p.post(ctx, text, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, errors.ErrMalformedResponse.WithMessage("响应缺少 embedding 字段")
	}
	return out.Embedding, nil
}

// Generate 根据提示生成文本，原样返回 response 字段。
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	var out generateResponse
	if err := p.post(ctx, prompt, &out); err != nil {
		return "", err
	}
	if out.Response == nil {
		return "", errors.ErrMalformedResponse.WithMessage("响应缺少 response 字段")
	}
	return *out.Response, nil
}

// post 发送一次请求，不做重试；重试由 resilience 包装器负责。
func (p *Provider) post(ctx context.Context, prompt string, out any) error {
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(request{Model: p.config.Model, Prompt: prompt, Stream: false}).
		Post(p.config.URL)
	if err != nil {
		return errors.ErrTransport.WithCause(fmt.Errorf("请求失败: %w", err))
	}

	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return errors.ErrTransport.WithCause(&llm.StatusError{
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		})
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.ErrMalformedResponse.WithCause(fmt.Errorf("解析响应失败: %w", err))
	}
	return nil
}
