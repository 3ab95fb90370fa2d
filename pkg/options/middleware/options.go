// Package middleware provides HTTP middleware configuration options.
package middleware

import (
	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-docqa/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options 聚合各中间件配置，应用顺序固定为 recovery, request-id, logger, metrics。
type Options struct {
	Recovery  *RecoveryOptions  `json:"recovery" mapstructure:"recovery"`
	RequestID *RequestIDOptions `json:"request-id" mapstructure:"request-id"`
	Logger    *LoggerOptions    `json:"logger" mapstructure:"logger"`
	Metrics   *MetricsOptions   `json:"metrics" mapstructure:"metrics"`
}

// NewOptions 创建默认中间件选项。
func NewOptions() *Options {
	return &Options{
		Recovery:  NewRecoveryOptions(),
		RequestID: NewRequestIDOptions(),
		Logger:    NewLoggerOptions(),
		Metrics:   NewMetricsOptions(),
	}
}

// AddFlags adds flags for all middleware options.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	o.Recovery.AddFlags(fs, prefixes...)
	o.RequestID.AddFlags(fs, prefixes...)
	o.Logger.AddFlags(fs, prefixes...)
	o.Metrics.AddFlags(fs, prefixes...)
}

// Validate validates all middleware options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	errs = append(errs, o.RequestID.Validate()...)
	errs = append(errs, o.Metrics.Validate()...)
	return errs
}

// Complete completes the middleware options with defaults.
func (o *Options) Complete() error {
	if o.Recovery == nil {
		o.Recovery = NewRecoveryOptions()
	}
	if o.RequestID == nil {
		o.RequestID = NewRequestIDOptions()
	}
	if o.Logger == nil {
		o.Logger = NewLoggerOptions()
	}
	if o.Metrics == nil {
		o.Metrics = NewMetricsOptions()
	}
	return nil
}
