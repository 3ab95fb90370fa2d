package options_test

import (
	stderrors "errors"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-docqa/pkg/errors"
	"github.com/kart-io/sentinel-docqa/pkg/options"
	cacheopts "github.com/kart-io/sentinel-docqa/pkg/options/cache"
	llmopts "github.com/kart-io/sentinel-docqa/pkg/options/llm"
	ragopts "github.com/kart-io/sentinel-docqa/pkg/options/rag"
	redisopts "github.com/kart-io/sentinel-docqa/pkg/options/redis"
	storeopts "github.com/kart-io/sentinel-docqa/pkg/options/store"
)

func TestJoin(t *testing.T) {
	assert.Equal(t, "", options.Join())
	assert.Equal(t, "a.", options.Join("a"))
	assert.Equal(t, "a.b.", options.Join("a", "b"))
}

func TestValidateStruct(t *testing.T) {
	type cfg struct {
		URL  string `validate:"required,url"`
		Size int    `validate:"gt=0"`
	}

	assert.Empty(t, options.ValidateStruct("x", &cfg{URL: "http://a", Size: 1}))

	errs := options.ValidateStruct("x", &cfg{URL: "nope"})
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.True(t, stderrors.Is(err, errors.ErrConfig))
	}
	assert.Contains(t, errs[0].Error(), "x.URL")
}

func TestDefaultsAreValid(t *testing.T) {
	all := []options.IOptions{
		ragopts.NewOptions(),
		llmopts.NewEmbeddingOptions(),
		llmopts.NewGenerationOptions(),
		redisopts.NewOptions(),
		cacheopts.NewOptions(),
		storeopts.NewOptions(),
	}
	for _, o := range all {
		assert.Empty(t, o.Validate())
	}
}

func TestRAGValidate(t *testing.T) {
	o := ragopts.NewOptions()
	o.ChunkSize = 0
	errs := o.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "rag.ChunkSize")
}

func TestProviderOptionsRequireModel(t *testing.T) {
	o := llmopts.NewEmbeddingOptions()
	o.Model = ""
	o.URL = "not a url"
	errs := o.Validate()
	assert.Len(t, errs, 2)

	m := llmopts.NewGenerationOptions().ToConfigMap()
	assert.Equal(t, "llama3", m["model"])
	assert.Contains(t, m["url"], "/api/generate")
}

func TestProviderOptionsFlagsArePrefixed(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	emb := llmopts.NewEmbeddingOptions()
	gen := llmopts.NewGenerationOptions()
	emb.AddFlags(fs)
	gen.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{"--embedding.model=mxbai", "--generation.max-retries=0"}))
	assert.Equal(t, "mxbai", emb.Model)
	assert.Equal(t, 0, gen.MaxRetries)
}

func TestStoreBackend(t *testing.T) {
	o := storeopts.NewOptions()
	o.Backend = "chroma"
	assert.Len(t, o.Validate(), 1)

	o.Backend = ""
	require.NoError(t, o.Complete())
	assert.Equal(t, storeopts.BackendMilvus, o.Backend)
}

func TestCacheValidateOnlyWhenEnabled(t *testing.T) {
	o := cacheopts.NewOptions()
	o.Redis.Port = 0
	assert.Empty(t, o.Validate())

	o.Enabled = true
	assert.NotEmpty(t, o.Validate())
}

func TestRedisPasswordRedacted(t *testing.T) {
	t.Setenv(redisopts.PasswordEnv, "s3cret")
	o := redisopts.NewOptions()
	require.NoError(t, o.Complete())
	assert.Equal(t, "s3cret", o.Password)

	data, err := o.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "s3cret")
	assert.NotContains(t, o.String(), "s3cret")
	assert.Equal(t, "127.0.0.1:6379", o.Addr())
}
