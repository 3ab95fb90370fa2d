package biz

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-docqa/internal/pkg/rag/textutil"
	"github.com/kart-io/sentinel-docqa/pkg/llm"
)

// TaskPool 提交任务的工作池，由 pool.Pool 实现。
// ctx 已取消时不提交并返回 ctx 错误；提交成功的任务一定会被执行。
type TaskPool interface {
	SubmitWithContext(ctx context.Context, task func(ctx context.Context)) error
}

// errTaskAborted 任务 panic 未写回结果时槽位保留此错误。
var errTaskAborted = stderrors.New("embedding task aborted")

// embedResult 每个文本块独占一个结果槽位。
type embedResult struct {
	vector []float32
	err    error
}

type embedder struct {
	provider llm.EmbeddingProvider
	pool     TaskPool
}

// embedAll 每个文本块一个任务，全部完成后返回，结果顺序与输入一致。
func (e *embedder) embedAll(ctx context.Context, texts []string) []embedResult {
	results := make([]embedResult, len(texts))

	var wg sync.WaitGroup
	for i, text := range texts {
		results[i].err = errTaskAborted
		wg.Add(1)

		err := e.pool.SubmitWithContext(ctx, func(ctx context.Context) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				results[i] = embedResult{err: err}
				return
			}
			vector, err := e.provider.Embed(ctx, text)
			results[i] = embedResult{vector: vector, err: err}
		})
		if err != nil {
			results[i] = embedResult{err: err}
			wg.Done()
		}
	}
	wg.Wait()

	return results
}

// survivors 丢弃失败的槽位并记录告警，返回成功的下标。
func survivors(results []embedResult, texts []string, scope string) []int {
	kept := make([]int, 0, len(results))
	for i, r := range results {
		if r.err != nil {
			logger.Warnw("chunk embedding failed, dropped",
				"scope", scope,
				"chunk", i,
				"preview", textutil.TruncateString(texts[i], 50),
				"error", r.err,
			)
			continue
		}
		kept = append(kept, i)
	}
	return kept
}
