// Package redis provides the Redis client backing the embedding cache.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/sentinel-docqa/pkg/errors"
	options "github.com/kart-io/sentinel-docqa/pkg/options/redis"
)

// Client is a pinged go-redis client.
type Client struct {
	rdb *goredis.Client
}

// New validates opts, dials Redis and pings it once. An unreachable
// server yields ErrCacheUnavailable so callers can run without the cache.
func New(ctx context.Context, opts *options.Options) (*Client, error) {
	if opts == nil {
		return nil, errors.ErrConfig.WithMessage("redis options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, errors.ErrConfig.WithCause(utilerrors.NewAggregate(errs))
	}
	useGlobalLogger()

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr(),
		Password:     opts.Password,
		DB:           opts.Database,
		MaxRetries:   opts.MaxRetries,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolTimeout:  opts.PoolTimeout,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.ErrCacheUnavailable.WithCause(fmt.Errorf("ping %s: %w", opts.Addr(), err))
	}
	return &Client{rdb: rdb}, nil
}

func (c *Client) Name() string { return "redis" }

func (c *Client) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

func (c *Client) Close() error { return c.rdb.Close() }

// Client exposes the go-redis client, e.g. for llm.NewCachedEmbeddingProvider.
func (c *Client) Client() *goredis.Client { return c.rdb }
