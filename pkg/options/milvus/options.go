// Package milvusopts provides options for Milvus client configuration.
package milvusopts

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-docqa/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains Milvus client configuration.
type Options struct {
	// Address is the Milvus server address (host:port).
	Address string `json:"address" mapstructure:"address" validate:"required,hostname_port"`

	// Database is the database name to use.
	Database string `json:"database" mapstructure:"database"`

	// Username for authentication.
	Username string `json:"username" mapstructure:"username"`

	// Password for authentication.
	Password string `json:"-" mapstructure:"password"`

	// Timeout for connection and operations.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// HNSW 索引参数
	IndexM              int `json:"index-m" mapstructure:"index-m" validate:"gte=4,lte=64"`
	IndexEfConstruction int `json:"index-ef-construction" mapstructure:"index-ef-construction" validate:"gte=8"`
	SearchEf            int `json:"search-ef" mapstructure:"search-ef" validate:"gte=1"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Address:             "localhost:19530",
		Database:            "default",
		Timeout:             30 * time.Second,
		IndexM:              16,
		IndexEfConstruction: 200,
		SearchEf:            64,
	}
}

// AddFlags adds flags for Milvus options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "milvus."
	fs.StringVar(&o.Address, p+"address", o.Address, "Milvus server address (host:port).")
	fs.StringVar(&o.Database, p+"database", o.Database, "Milvus database name.")
	fs.StringVar(&o.Username, p+"username", o.Username, "Milvus username.")
	fs.StringVar(&o.Password, p+"password", o.Password, "Milvus password.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Milvus connection and operation timeout.")
	fs.IntVar(&o.IndexM, p+"index-m", o.IndexM, "HNSW max degree (M).")
	fs.IntVar(&o.IndexEfConstruction, p+"index-ef-construction", o.IndexEfConstruction, "HNSW efConstruction.")
	fs.IntVar(&o.SearchEf, p+"search-ef", o.SearchEf, "HNSW ef used at search time.")
}

// Validate validates the Milvus options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	return options.ValidateStruct("milvus", o)
}

// Complete completes the Milvus options with defaults.
func (o *Options) Complete() error {
	if o.Database == "" {
		o.Database = "default"
	}
	return nil
}
