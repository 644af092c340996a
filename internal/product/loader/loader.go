package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Extractor 文本提取器
//
// Pulls plain text out of uploaded text products. PDF files go through
// go-fitz (MuPDF); anything else is treated as UTF-8 text.
type Extractor struct{}

// NewExtractor 创建文本提取器
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText 提取文本内容
func (e *Extractor) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	if isPDF(data, contentType) {
		return extractPDF(data)
	}
	return string(data), nil
}

func isPDF(data []byte, contentType string) bool {
	if strings.Contains(contentType, "pdf") {
		return true
	}
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

// extractPDF 提取 PDF 文本（使用 go-fitz/MuPDF）
func extractPDF(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	numPages := doc.NumPage()

	for i := 0; i < numPages; i++ {
		text, err := doc.Text(i)
		if err != nil {
			// 跳过无法提取的页面
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	return textBuilder.String(), nil
}
