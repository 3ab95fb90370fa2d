package store

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// collectionGuard 合并同名集合的并发创建，并缓存已确认存在的集合。
type collectionGuard struct {
	group singleflight.Group
	known sync.Map
}

func (g *collectionGuard) ensure(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if _, ok := g.known.Load(name); ok {
		return nil
	}

	// 共享调用不受首个调用方取消的影响
	shared := context.WithoutCancel(ctx)
	ch := g.group.DoChan(name, func() (any, error) {
		if _, ok := g.known.Load(name); ok {
			return nil, nil
		}
		if err := fn(shared); err != nil {
			return nil, err
		}
		g.known.Store(name, struct{}{})
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *collectionGuard) isKnown(name string) bool {
	_, ok := g.known.Load(name)
	return ok
}
