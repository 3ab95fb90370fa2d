// Package options contains flags and options for initializing the document Q&A server.
package options

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	ragsvc "github.com/kart-io/sentinel-docqa/internal/rag"
	"github.com/kart-io/sentinel-docqa/pkg/infra/app"
	cacheopts "github.com/kart-io/sentinel-docqa/pkg/options/cache"
	llmopts "github.com/kart-io/sentinel-docqa/pkg/options/llm"
	logopts "github.com/kart-io/sentinel-docqa/pkg/options/logger"
	middlewareopts "github.com/kart-io/sentinel-docqa/pkg/options/middleware"
	milvusopts "github.com/kart-io/sentinel-docqa/pkg/options/milvus"
	pgvopts "github.com/kart-io/sentinel-docqa/pkg/options/pgvector"
	qdrantopts "github.com/kart-io/sentinel-docqa/pkg/options/qdrant"
	ragopts "github.com/kart-io/sentinel-docqa/pkg/options/rag"
	httpopts "github.com/kart-io/sentinel-docqa/pkg/options/server/http"
	storeopts "github.com/kart-io/sentinel-docqa/pkg/options/store"
	tracingopts "github.com/kart-io/sentinel-docqa/pkg/options/tracing"
)

var _ app.CliOptions = (*ServerOptions)(nil)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// TracingOptions contains OpenTelemetry configuration.
	TracingOptions *tracingopts.Options `json:"tracing" mapstructure:"tracing"`

	// StoreOptions selects the vector store backend.
	StoreOptions *storeopts.Options `json:"store" mapstructure:"store"`

	MilvusOptions   *milvusopts.Options `json:"milvus" mapstructure:"milvus"`
	QdrantOptions   *qdrantopts.Options `json:"qdrant" mapstructure:"qdrant"`
	PGVectorOptions *pgvopts.Options    `json:"pgvector" mapstructure:"pgvector"`

	// CacheOptions contains the embedding cache configuration.
	CacheOptions *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// EmbeddingOptions contains embedding endpoint configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// GenerationOptions contains generation endpoint configuration.
	GenerationOptions *llmopts.ProviderOptions `json:"generation" mapstructure:"generation"`

	// RAGOptions contains pipeline configuration.
	RAGOptions *ragopts.Options `json:"rag" mapstructure:"rag"`

	// MiddlewareOptions contains HTTP middleware configuration.
	MiddlewareOptions *middlewareopts.Options `json:"middleware" mapstructure:"middleware"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:       httpopts.NewOptions(),
		LogOptions:        logopts.NewOptions(),
		TracingOptions:    tracingopts.NewOptions(),
		StoreOptions:      storeopts.NewOptions(),
		MilvusOptions:     milvusopts.NewOptions(),
		QdrantOptions:     qdrantopts.NewOptions(),
		PGVectorOptions:   pgvopts.NewOptions(),
		CacheOptions:      cacheopts.NewOptions(),
		EmbeddingOptions:  llmopts.NewEmbeddingOptions(),
		GenerationOptions: llmopts.NewGenerationOptions(),
		RAGOptions:        ragopts.NewOptions(),
		MiddlewareOptions: middlewareopts.NewOptions(),
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	o.StoreOptions.AddFlags(fss.FlagSet("store"))
	o.MilvusOptions.AddFlags(fss.FlagSet("store"))
	o.QdrantOptions.AddFlags(fss.FlagSet("store"))
	o.PGVectorOptions.AddFlags(fss.FlagSet("store"))
	o.CacheOptions.AddFlags(fss.FlagSet("cache"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"))
	o.GenerationOptions.AddFlags(fss.FlagSet("generation"))
	o.RAGOptions.AddFlags(fss.FlagSet("rag"))
	o.MiddlewareOptions.AddFlags(fss.FlagSet("middleware"))
	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	completers := []struct {
		name string
		fn   func() error
	}{
		{"http", o.HTTPOptions.Complete},
		{"log", o.LogOptions.Complete},
		{"tracing", o.TracingOptions.Complete},
		{"store", o.StoreOptions.Complete},
		{"milvus", o.MilvusOptions.Complete},
		{"qdrant", o.QdrantOptions.Complete},
		{"pgvector", o.PGVectorOptions.Complete},
		{"cache", o.CacheOptions.Complete},
		{"embedding", o.EmbeddingOptions.Complete},
		{"generation", o.GenerationOptions.Complete},
		{"rag", o.RAGOptions.Complete},
		{"middleware", o.MiddlewareOptions.Complete},
	}
	for _, c := range completers {
		if err := c.fn(); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}
	return nil
}

// Validate checks whether the options in ServerOptions are valid.
// Only the selected store backend is validated.
func (o *ServerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)
	errs = append(errs, o.StoreOptions.Validate()...)

	switch o.StoreOptions.Backend {
	case storeopts.BackendMilvus:
		errs = append(errs, o.MilvusOptions.Validate()...)
	case storeopts.BackendQdrant:
		errs = append(errs, o.QdrantOptions.Validate()...)
	case storeopts.BackendPGVector:
		errs = append(errs, o.PGVectorOptions.Validate()...)
	}

	errs = append(errs, o.CacheOptions.Validate()...)
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.GenerationOptions.Validate()...)
	errs = append(errs, o.RAGOptions.Validate()...)
	errs = append(errs, o.MiddlewareOptions.Validate()...)

	return utilerrors.NewAggregate(errs)
}

// Config builds a ragsvc.Config based on ServerOptions.
func (o *ServerOptions) Config() (*ragsvc.Config, error) {
	return &ragsvc.Config{
		HTTPOptions:       o.HTTPOptions,
		LogOptions:        o.LogOptions,
		TracingOptions:    o.TracingOptions,
		StoreOptions:      o.StoreOptions,
		MilvusOptions:     o.MilvusOptions,
		QdrantOptions:     o.QdrantOptions,
		PGVectorOptions:   o.PGVectorOptions,
		CacheOptions:      o.CacheOptions,
		EmbeddingOptions:  o.EmbeddingOptions,
		GenerationOptions: o.GenerationOptions,
		RAGOptions:        o.RAGOptions,
		MiddlewareOptions: o.MiddlewareOptions,
	}, nil
}
