// Package rag provides document Q&A pipeline configuration options.
package rag

import (
	"runtime"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-docqa/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains pipeline configuration.
type Options struct {
	// ChunkSize is the maximum number of code points per chunk.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size" validate:"gt=0"`

	// TopK is the number of results to return from similarity search.
	TopK int `json:"top-k" mapstructure:"top-k" validate:"gt=0"`

	// Dimension is the embedding vector dimension of every collection.
	Dimension int `json:"dimension" mapstructure:"dimension" validate:"gt=0"`

	// UploadDir is the directory uploaded PDFs are saved into.
	UploadDir string `json:"upload-dir" mapstructure:"upload-dir" validate:"required"`

	// Concurrency caps concurrent embedding calls.
	Concurrency int `json:"concurrency" mapstructure:"concurrency" validate:"gte=1"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		ChunkSize:   1000,
		TopK:        6,
		Dimension:   768, // nomic-embed-text dimension
		UploadDir:   "_output/uploads",
		Concurrency: 4 * runtime.NumCPU(),
	}
}

// AddFlags adds flags for RAG options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "rag."
	fs.IntVar(&o.ChunkSize, p+"chunk-size", o.ChunkSize, "Maximum code points per chunk.")
	fs.IntVar(&o.TopK, p+"top-k", o.TopK, "Number of results from similarity search.")
	fs.IntVar(&o.Dimension, p+"dimension", o.Dimension, "Embedding vector dimension.")
	fs.StringVar(&o.UploadDir, p+"upload-dir", o.UploadDir, "Directory for uploaded documents.")
	fs.IntVar(&o.Concurrency, p+"concurrency", o.Concurrency, "Worker pool capacity for embedding calls.")
}

// Validate validates the RAG options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	return options.ValidateStruct("rag", o)
}

// Complete completes the RAG options with defaults.
func (o *Options) Complete() error {
	if o.Concurrency <= 0 {
		o.Concurrency = 4 * runtime.NumCPU()
	}
	return nil
}
