// Package store selects the vector store backend.
package store

import (
	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-docqa/pkg/options"
)

// 支持的向量存储后端
const (
	BackendMilvus   = "milvus"
	BackendQdrant   = "qdrant"
	BackendPGVector = "pgvector"
	BackendMemory   = "memory"
)

var _ options.IOptions = (*Options)(nil)

// Options selects which vector store backend serves the pipeline.
type Options struct {
	Backend string `json:"backend" mapstructure:"backend" validate:"oneof=milvus qdrant pgvector memory"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{Backend: BackendMilvus}
}

// AddFlags adds flags for store options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Backend, options.Join(prefixes...)+"store.backend", o.Backend,
		"Vector store backend (milvus|qdrant|pgvector|memory).")
}

// Validate validates the store options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	return options.ValidateStruct("store", o)
}

// Complete completes the store options.
func (o *Options) Complete() error {
	if o.Backend == "" {
		o.Backend = BackendMilvus
	}
	return nil
}
