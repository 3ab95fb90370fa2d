package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// Type 标识池的用途，用于日志与指标标签。
type Type string

const EmbeddingPool Type = "embedding"

// Config 工作池配置。
type Config struct {
	// Capacity 最大并发 goroutine 数
	Capacity int
	// ExpiryDuration 空闲 worker 回收时间
	ExpiryDuration time.Duration
	// Nonblocking 为 true 时池满直接返回 ErrPoolOverload
	Nonblocking bool
	// PanicHandler 为空时记录日志
	PanicHandler func(any)
}

// EmbeddingPoolConfig 向量化池：阻塞提交，capacity 即同时在途的 embedding 请求上限。
func EmbeddingPoolConfig(capacity int) *Config {
	return &Config{Capacity: capacity, ExpiryDuration: 30 * time.Second}
}

// Stats 计数快照。
type Stats struct {
	SubmittedTasks int64
	CompletedTasks int64
	RejectedTasks  int64
	PanicRecovered int64
}

// Pool wraps an ants pool with task accounting and idempotent release.
type Pool struct {
	name string
	typ  Type
	ants *ants.Pool

	submitted atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
	panics    atomic.Int64

	releaseOnce sync.Once
	closed      atomic.Bool
}

// NewPool creates a pool.
func NewPool(name string, typ Type, cfg *Config) (*Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("pool %s: config is nil", name)
	}
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("pool %s: capacity must be positive, got %d", name, cfg.Capacity)
	}

	onPanic := cfg.PanicHandler
	if onPanic == nil {
		onPanic = func(r any) {
			logger.Errorw("Worker panic recovered", "pool", name, "panic", r)
		}
	}

	p := &Pool{name: name, typ: typ}
	ap, err := ants.NewPool(cfg.Capacity,
		ants.WithExpiryDuration(cfg.ExpiryDuration),
		ants.WithNonblocking(cfg.Nonblocking),
		ants.WithPanicHandler(func(r any) {
			p.panics.Add(1)
			onPanic(r)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", name, err)
	}
	p.ants = ap

	logger.Infow("Worker pool created", "name", name, "type", typ, "capacity", cfg.Capacity)
	return p, nil
}

func (p *Pool) Name() string { return p.name }
func (p *Pool) Type() Type   { return p.typ }
func (p *Pool) Cap() int     { return p.ants.Cap() }
func (p *Pool) Running() int { return p.ants.Running() }
func (p *Pool) Waiting() int { return p.ants.Waiting() }

// Submit 提交任务；阻塞模式下池满时等待空闲 worker。
func (p *Pool) Submit(task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	err := p.ants.Submit(func() {
		task()
		// panic 时不会执行到这里，由 PanicHandler 计数
		p.completed.Add(1)
	})
	switch {
	case err == nil:
		p.submitted.Add(1)
		return nil
	case errors.Is(err, ants.ErrPoolOverload):
		p.rejected.Add(1)
		return ErrPoolOverload
	case errors.Is(err, ants.ErrPoolClosed):
		return ErrPoolClosed
	default:
		return err
	}
}

// SubmitWithContext 在 ctx 已取消时不提交。提交成功的任务一定会被调用，
// 由任务自己检查 ctx，调用方的等待逻辑不会因任务被跳过而挂起。
func (p *Pool) SubmitWithContext(ctx context.Context, task func(ctx context.Context)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.Submit(func() { task(ctx) })
}

// Release 关闭池，可重复调用。
func (p *Pool) Release() {
	p.releaseOnce.Do(func() {
		p.closed.Store(true)
		p.ants.Release()
		logger.Infow("Worker pool released", "name", p.name, "stats", p.Stats())
	})
}

func (p *Pool) Stats() Stats {
	return Stats{
		SubmittedTasks: p.submitted.Load(),
		CompletedTasks: p.completed.Load(),
		RejectedTasks:  p.rejected.Load(),
		PanicRecovered: p.panics.Load(),
	}
}
