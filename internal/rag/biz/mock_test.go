package biz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kart-io/sentinel-docqa/internal/rag/store"
	"github.com/kart-io/sentinel-docqa/pkg/errors"
	"github.com/kart-io/sentinel-docqa/pkg/llm"
)

const testDim = 4

// inlinePool 同步执行任务。
type inlinePool struct{}

func (inlinePool) SubmitWithContext(ctx context.Context, task func(ctx context.Context)) error {
	task(ctx)
	return nil
}

// rejectPool 拒绝所有任务。
type rejectPool struct{}

func (rejectPool) SubmitWithContext(context.Context, func(context.Context)) error {
	return fmt.Errorf("pool closed")
}

var (
	_ TaskPool = inlinePool{}
	_ TaskPool = rejectPool{}
)

// fakeEmbedder 根据文本长度和首字符生成确定性向量；包含 failOn 的文本返回错误。
type fakeEmbedder struct {
	failOn string
	mu     sync.Mutex
	calls  []string
}

var _ llm.EmbeddingProvider = (*fakeEmbedder)(nil)

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()

	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.ErrTransport.WithMessage("connection refused")
	}
	var first float32
	if text != "" {
		first = float32([]rune(text)[0])
	}
	return []float32{1, float32(len(text)), first, 0.5}, nil
}

func (f *fakeEmbedder) Name() string { return "fake" }

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeGenerator 记录收到的提示词。
type fakeGenerator struct {
	answer  string
	err     error
	prompts []string
}

var _ llm.GenerationProvider = (*fakeGenerator)(nil)

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeGenerator) Name() string { return "fake" }

// orderedStore 搜索结果由向量首个分量决定，首个槽位故意延迟返回。
type orderedStore struct {
	store.VectorStore
}

func (s *orderedStore) Search(_ context.Context, _ string, vector []float32, k int) ([]string, error) {
	if vector[2] == 'a' {
		time.Sleep(20 * time.Millisecond)
	}
	out := make([]string, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, fmt.Sprintf("%c%d", rune(vector[2]), i))
	}
	return out, nil
}

func newTestProcessor(emb llm.EmbeddingProvider, gen llm.GenerationProvider, vs store.VectorStore, uploadDir string) *Processor {
	if vs == nil {
		vs = store.NewMemoryStore(testDim)
	}
	return NewProcessor(vs, emb, gen, inlinePool{}, nil, &ProcessorConfig{
		ChunkSize: 1000,
		TopK:      6,
		UploadDir: uploadDir,
	})
}
