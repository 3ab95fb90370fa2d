package middleware

import (
	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-docqa/pkg/options"
)

// MetricsOptions defines metrics options.
type MetricsOptions struct {
	Path      string `json:"path" mapstructure:"path" validate:"required,startswith=/"`
	Namespace string `json:"namespace" mapstructure:"namespace" validate:"required"`
	Subsystem string `json:"subsystem" mapstructure:"subsystem" validate:"required"`
}

func NewMetricsOptions() *MetricsOptions {
	return &MetricsOptions{
		Path:      "/metrics",
		Namespace: "docqa",
		Subsystem: "http",
	}
}

func (o *MetricsOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "middleware.metrics."
	fs.StringVar(&o.Path, p+"path", o.Path, "Metrics endpoint path")
	fs.StringVar(&o.Namespace, p+"namespace", o.Namespace, "Metrics namespace")
	fs.StringVar(&o.Subsystem, p+"subsystem", o.Subsystem, "Metrics subsystem")
}

func (o *MetricsOptions) Validate() []error {
	if o == nil {
		return nil
	}
	return options.ValidateStruct("middleware.metrics", o)
}
