// Package llm provides model endpoint configuration options.
package llm

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-docqa/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// ProviderOptions 定义模型服务配置，embedding 和 generation 各持一份。
type ProviderOptions struct {
	// section 决定 flag 前缀，例如 "embedding" 或 "generation"。
	section string

	// Provider 供应商名称。
	Provider string `json:"provider" mapstructure:"provider" validate:"required"`

	// URL 完整的接口地址，例如 http://localhost:11434/api/embeddings。
	URL string `json:"url" mapstructure:"url" validate:"required,url"`

	// Model 使用的模型名称。
	Model string `json:"model" mapstructure:"model" validate:"required"`

	// Timeout 单次请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// MaxRetries 最大重试次数，0 表示不重试。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries" validate:"gte=0,lte=10"`

	// BreakerMaxFailures 熔断阈值，0 表示关闭熔断。
	BreakerMaxFailures int `json:"breaker-max-failures" mapstructure:"breaker-max-failures" validate:"gte=0"`
}

func newProviderOptions(section, url, model string, timeout time.Duration) *ProviderOptions {
	return &ProviderOptions{
		section:            section,
		Provider:           "ollama",
		URL:                url,
		Model:              model,
		Timeout:            timeout,
		MaxRetries:         2,
		BreakerMaxFailures: 5,
	}
}

// NewEmbeddingOptions 创建默认 Embedding 配置。
func NewEmbeddingOptions() *ProviderOptions {
	return newProviderOptions("embedding", "http://localhost:11434/api/embeddings", "nomic-embed-text", 30*time.Second)
}

// NewGenerationOptions 创建默认 Generation 配置。
func NewGenerationOptions() *ProviderOptions {
	return newProviderOptions("generation", "http://localhost:11434/api/generate", "llama3", 120*time.Second)
}

// ToConfigMap 转换为配置 map，用于供应商工厂。
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"url":     o.URL,
		"model":   o.Model,
		"timeout": o.Timeout,
	}
}

// AddFlags adds flags for provider options to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(append(prefixes, o.section)...)
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "Model provider name.")
	fs.StringVar(&o.URL, p+"url", o.URL, "Full endpoint URL of the model service.")
	fs.StringVar(&o.Model, p+"model", o.Model, "Model name.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Per-call request timeout.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "Retries on transient failures (0 disables).")
	fs.IntVar(&o.BreakerMaxFailures, p+"breaker-max-failures", o.BreakerMaxFailures, "Consecutive failures that open the circuit breaker (0 disables).")
}

// Validate validates the provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}
	return options.ValidateStruct(o.section, o)
}

// Complete completes the provider options with defaults.
func (o *ProviderOptions) Complete() error {
	if o.Provider == "" {
		o.Provider = "ollama"
	}
	return nil
}
