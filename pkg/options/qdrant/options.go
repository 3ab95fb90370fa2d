// Package qdrant provides options for the Qdrant REST client.
package qdrant

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-docqa/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains Qdrant connection settings.
type Options struct {
	URL     string        `json:"url" mapstructure:"url" validate:"required,url"`
	APIKey  string        `json:"-" mapstructure:"api-key"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout" validate:"gt=0"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		URL:     "http://localhost:6333",
		Timeout: 30 * time.Second,
	}
}

// AddFlags adds flags for Qdrant options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "qdrant."
	fs.StringVar(&o.URL, p+"url", o.URL, "Qdrant REST endpoint.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "Qdrant API key, sent as the api-key header.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Qdrant request timeout.")
}

// Validate validates the Qdrant options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	return options.ValidateStruct("qdrant", o)
}

// Complete completes the Qdrant options.
func (o *Options) Complete() error {
	return nil
}
