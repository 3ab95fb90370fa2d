package redis

import (
	"context"
	stderrors "errors"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-docqa/pkg/errors"
	options "github.com/kart-io/sentinel-docqa/pkg/options/redis"
)

func optionsFor(t *testing.T, mr *miniredis.Miniredis) *options.Options {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	opts := options.NewOptions()
	opts.Host = mr.Host()
	opts.Port = port
	return opts
}

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	c, err := New(ctx, optionsFor(t, mr))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "redis", c.Name())
	assert.NoError(t, c.Ping(ctx))

	require.NoError(t, c.Client().Set(ctx, "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := optionsFor(t, mr)
	mr.Close()

	_, err := New(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrCacheUnavailable))
}

func TestNewInvalidOptions(t *testing.T) {
	opts := options.NewOptions()
	opts.Port = 0

	_, err := New(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrConfig))

	_, err = New(context.Background(), nil)
	assert.Error(t, err)
}
