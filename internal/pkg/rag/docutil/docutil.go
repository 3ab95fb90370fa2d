// Package docutil 提供文档处理相关的工具函数。
package docutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExt 是可被摄入的文档扩展名。
const PDFExt = ".pdf"

// IsPDF 判断文件名是否以 .pdf 结尾（区分大小写）。
func IsPDF(name string) bool {
	return strings.HasSuffix(name, PDFExt)
}

// ExtractPDFText 读取 PDF 文件并按页提取纯文本。
// 无法解析的页面会被跳过，页面之间以空行分隔。
func ExtractPDFText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return ParsePDF(data)
}

// ParsePDF 从内存中的 PDF 数据提取纯文本。
// pdf 库在遇到损坏的文件时会 panic，这里统一转换为错误返回。
func ParsePDF(data []byte) (_ string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("解析 PDF 失败: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("解析 PDF 失败: %w", err)
	}

	var content strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if content.Len() > 0 {
			content.WriteString("\n\n")
		}
		content.WriteString(text)
	}

	return content.String(), nil
}

// SafeJoin 将上传的文件名限制在 dir 内，丢弃任何目录部分。
func SafeJoin(dir, name string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." {
		return "", fmt.Errorf("无效的文件名: %q", name)
	}
	return filepath.Join(dir, base), nil
}

// EnsureDir 确保目录存在，如果不存在则创建。
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// FileExists 检查文件是否存在。
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
