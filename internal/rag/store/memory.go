package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kart-io/sentinel-docqa/internal/pkg/rag/textutil"
)

// memoryBackend 进程内存储，暴力计算余弦相似度。用于本地运行和测试。
type memoryBackend struct {
	mu          sync.RWMutex
	collections map[string]*memCollection

	// createHook 仅供测试观察创建次数
	createHook func(name string) error
}

type memCollection struct {
	dim     int
	records map[string]Record
	order   []string
}

// NewMemoryStore 创建进程内向量存储。
func NewMemoryStore(dim int) VectorStore {
	return newCollectionStore(newMemoryBackend(), dim, 0)
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{collections: make(map[string]*memCollection)}
}

func (m *memoryBackend) kind() string { return "memory" }

func (m *memoryBackend) validName(string) error { return nil }

func (m *memoryBackend) exists(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[name]
	return ok, nil
}

func (m *memoryBackend) create(_ context.Context, name string, dim int) error {
	if m.createHook != nil {
		if err := m.createHook(name); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; ok {
		return fmt.Errorf("collection %q already exists", name)
	}
	m.collections[name] = &memCollection{dim: dim, records: make(map[string]Record)}
	return nil
}

func (m *memoryBackend) upsert(_ context.Context, name string, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[name]
	if !ok {
		return fmt.Errorf("collection %q not found", name)
	}
	for _, r := range records {
		if _, seen := c.records[r.ID]; !seen {
			c.order = append(c.order, r.ID)
		}
		r.Vector = append([]float32(nil), r.Vector...)
		c.records[r.ID] = r
	}
	return nil
}

func (m *memoryBackend) search(_ context.Context, name string, vector []float32, k int) ([]hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q not found", name)
	}
	if len(vector) != c.dim {
		return nil, fmt.Errorf("query dimension %d, collection expects %d", len(vector), c.dim)
	}

	hits := make([]hit, 0, len(c.order))
	for _, id := range c.order {
		r := c.records[id]
		hits = append(hits, hit{
			text:  r.Text,
			score: float32(textutil.CosineSimilarity(vector, r.Vector)),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *memoryBackend) list(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	return names, nil
}

func (m *memoryBackend) close(context.Context) error { return nil }
