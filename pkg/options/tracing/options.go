// Package tracing provides OpenTelemetry tracing options.
package tracing

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-docqa/pkg/errors"
	"github.com/kart-io/sentinel-docqa/pkg/options"
)

// SamplerType defines the type of sampler to use.
type SamplerType string

const (
	// SamplerAlwaysOn samples all traces.
	SamplerAlwaysOn SamplerType = "always_on"
	// SamplerAlwaysOff never samples traces.
	SamplerAlwaysOff SamplerType = "always_off"
	// SamplerRatio samples traces based on a ratio.
	SamplerRatio SamplerType = "ratio"
	// SamplerParentBased uses the parent span's sampling decision.
	SamplerParentBased SamplerType = "parent_based"
)

// ExporterType defines the type of exporter to use.
type ExporterType string

const (
	// ExporterOTLPGRPC exports spans via OTLP over gRPC.
	ExporterOTLPGRPC ExporterType = "otlp_grpc"
	// ExporterOTLPHTTP exports spans via OTLP over HTTP.
	ExporterOTLPHTTP ExporterType = "otlp_http"
	// ExporterStdout exports spans to stdout (for development).
	ExporterStdout ExporterType = "stdout"
	// ExporterNoop does not export spans.
	ExporterNoop ExporterType = "noop"
)

var _ options.IOptions = (*Options)(nil)

// Options defines configuration for OpenTelemetry tracing.
type Options struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// ServiceName 为空时使用应用名。
	ServiceName string `json:"service-name" mapstructure:"service-name"`

	ServiceVersion string `json:"service-version" mapstructure:"service-version"`

	// Environment is the deployment environment (e.g., production, staging, development).
	Environment string `json:"environment" mapstructure:"environment"`

	ExporterType ExporterType `json:"exporter-type" mapstructure:"exporter-type"`

	// Endpoint is the OTLP exporter endpoint.
	// For gRPC: "localhost:4317"
	// For HTTP: "localhost:4318"
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`

	Insecure bool              `json:"insecure" mapstructure:"insecure"`
	Headers  map[string]string `json:"headers" mapstructure:"headers"`

	SamplerType  SamplerType `json:"sampler-type" mapstructure:"sampler-type"`
	SamplerRatio float64     `json:"sampler-ratio" mapstructure:"sampler-ratio"`

	BatchTimeout  time.Duration `json:"batch-timeout" mapstructure:"batch-timeout"`
	ExportTimeout time.Duration `json:"export-timeout" mapstructure:"export-timeout"`
}

// NewOptions creates default tracing options.
func NewOptions() *Options {
	return &Options{
		Enabled:       false,
		Environment:   "development",
		ExporterType:  ExporterOTLPGRPC,
		Endpoint:      "localhost:4317",
		Insecure:      true,
		Headers:       make(map[string]string),
		SamplerType:   SamplerParentBased,
		SamplerRatio:  1.0,
		BatchTimeout:  5 * time.Second,
		ExportTimeout: 30 * time.Second,
	}
}

// AddFlags adds flags for tracing options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "tracing."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Enable OpenTelemetry tracing")
	fs.StringVar(&o.ServiceName, p+"service-name", o.ServiceName, "Service name for tracing (defaults to the app name)")
	fs.StringVar(&o.Environment, p+"environment", o.Environment, "Deployment environment")
	fs.StringVar((*string)(&o.ExporterType), p+"exporter-type", string(o.ExporterType), "Exporter type (otlp_grpc, otlp_http, stdout, noop)")
	fs.StringVar(&o.Endpoint, p+"endpoint", o.Endpoint, "OTLP exporter endpoint")
	fs.BoolVar(&o.Insecure, p+"insecure", o.Insecure, "Disable TLS for OTLP connection")
	fs.StringVar((*string)(&o.SamplerType), p+"sampler-type", string(o.SamplerType), "Sampler type (always_on, always_off, ratio, parent_based)")
	fs.Float64Var(&o.SamplerRatio, p+"sampler-ratio", o.SamplerRatio, "Sampling ratio (0.0 to 1.0)")
	fs.DurationVar(&o.BatchTimeout, p+"batch-timeout", o.BatchTimeout, "Maximum time to wait before exporting a batch")
	fs.DurationVar(&o.ExportTimeout, p+"export-timeout", o.ExportTimeout, "Maximum time allowed for exporting spans")
}

// Validate validates the tracing options.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, errors.ErrConfig.WithMessage("tracing: "+fmt.Sprintf(format, args...)))
	}

	switch o.ExporterType {
	case ExporterOTLPGRPC, ExporterOTLPHTTP:
		if o.Endpoint == "" {
			bad("endpoint is required for exporter type %s", o.ExporterType)
		}
	case ExporterStdout, ExporterNoop:
	default:
		bad("invalid exporter type: %s", o.ExporterType)
	}

	switch o.SamplerType {
	case SamplerAlwaysOn, SamplerAlwaysOff, SamplerRatio, SamplerParentBased:
	default:
		bad("invalid sampler type: %s", o.SamplerType)
	}

	if o.SamplerRatio < 0.0 || o.SamplerRatio > 1.0 {
		bad("sampler ratio must be between 0.0 and 1.0, got %f", o.SamplerRatio)
	}
	if o.BatchTimeout <= 0 {
		bad("batch timeout must be positive")
	}
	if o.ExportTimeout <= 0 {
		bad("export timeout must be positive")
	}
	return errs
}

// Complete fills in any missing values with defaults.
func (o *Options) Complete() error {
	if o.Headers == nil {
		o.Headers = make(map[string]string)
	}
	return nil
}
