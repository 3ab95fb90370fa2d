package textutil_test

import (
	stderrors "errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kart-io/sentinel-docqa/internal/pkg/rag/textutil"
	"github.com/kart-io/sentinel-docqa/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxChars int
		expected []string
	}{
		{"空文本", "", 10, nil},
		{"短文本", "hello", 10, []string{"hello"}},
		{"恰好整除", "abcdef", 3, []string{"abc", "def"}},
		{"最后一块较短", "abcdefg", 3, []string{"abc", "def", "g"}},
		{"多字节字符", "你好世界啊", 2, []string{"你好", "世界", "啊"}},
		{"单字符块", "ab", 1, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := textutil.Chunk(tt.text, tt.maxChars)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, chunks)
		})
	}
}

func TestChunkInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		chunks, err := textutil.Chunk("abc", size)
		assert.Nil(t, chunks)
		assert.True(t, stderrors.Is(err, errors.ErrChunking))
	}
}

func TestChunkProperties(t *testing.T) {
	text := strings.Repeat("文档 chunk ✓ ", 217)
	for _, size := range []int{1, 7, 100, 1000, 5000} {
		chunks, err := textutil.Chunk(text, size)
		require.NoError(t, err)

		assert.Equal(t, text, strings.Join(chunks, ""))
		for _, c := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(c), size)
			assert.NotEmpty(t, c)
		}
	}
}

func TestChunkSizes(t *testing.T) {
	chunks, err := textutil.Chunk(strings.Repeat("x", 2500), 1000)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[1], 1000)
	assert.Len(t, chunks[2], 500)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{
			name:     "相同向量",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{1.0, 0.0, 0.0},
			expected: 1.0,
		},
		{
			name:     "正交向量",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{0.0, 1.0, 0.0},
			expected: 0.0,
		},
		{
			name:     "相反向量",
			a:        []float32{1.0, 0.0, 0.0},
			b:        []float32{-1.0, 0.0, 0.0},
			expected: -1.0,
		},
		{
			name:     "零向量",
			a:        []float32{0, 0},
			b:        []float32{1, 1},
			expected: 0.0,
		},
		{
			name:     "长度不匹配",
			a:        []float32{1.0, 2.0},
			b:        []float32{1.0},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, textutil.CosineSimilarity(tt.a, tt.b), 0.0001)
		})
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "hello", textutil.TruncateString("hello", 10))
	assert.Equal(t, "hel", textutil.TruncateString("hello", 3))
	assert.Equal(t, "你好", textutil.TruncateString("你好世界", 2))
}
