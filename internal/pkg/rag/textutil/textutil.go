// Package textutil 提供 RAG 相关的文本处理工具函数。
package textutil

import (
	"math"
	"unicode/utf8"

	"github.com/kart-io/sentinel-docqa/pkg/errors"
)

// Chunk 按 Unicode 码点将文本切分为最多 maxChars 个字符的块。
// 块之间没有重叠，最后一块可能更短。空文本返回 nil。
// maxChars <= 0 时返回 ErrChunking。
func Chunk(text string, maxChars int) ([]string, error) {
	if maxChars <= 0 {
		return nil, errors.ErrChunking.WithMessagef("chunk size must be positive, got %d", maxChars)
	}
	if text == "" {
		return nil, nil
	}

	chunks := make([]string, 0, utf8.RuneCountInString(text)/maxChars+1)
	start, count := 0, 0
	for i := range text {
		if count == maxChars {
			chunks = append(chunks, text[start:i])
			start, count = i, 0
		}
		count++
	}
	return append(chunks, text[start:]), nil
}

// CosineSimilarity 计算两个向量的余弦相似度。
// 返回值范围为 [-1, 1]，1 表示完全相同，-1 表示完全相反。
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TruncateString 截断字符串到指定的最大 Unicode 字符数。
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}
