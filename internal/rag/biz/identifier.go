package biz

import (
	"path/filepath"
	"strings"

	"github.com/kart-io/sentinel-docqa/internal/pkg/rag/docutil"
	"github.com/kart-io/sentinel-docqa/pkg/errors"
)

// DocumentID 由文件名推导集合名：取路径的 base name 并去掉 .pdf 后缀。
func DocumentID(filename string) (string, error) {
	base := filepath.Base(filename)
	if !docutil.IsPDF(base) {
		return "", errors.ErrBadIdentifier.WithMessagef("%q is not a pdf file", filename)
	}

	stem := strings.TrimSuffix(base, docutil.PDFExt)
	if stem == "" {
		return "", errors.ErrBadIdentifier.WithMessagef("%q has an empty name", filename)
	}
	return stem, nil
}
