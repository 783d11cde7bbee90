package generator

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/ledongthuc/pdf"

	"github.com/mondaiapp/mondai/internal/model"
)

// ExtractText turns an uploaded file into prompt text. Images yield a size
// description (no OCR), PDFs yield their concatenated page text. Any other
// content type is rejected with a validation error.
func ExtractText(contentType string, data []byte) (string, error) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return extractFromImage(data)
	case contentType == "application/pdf":
		return extractFromPDF(data)
	default:
		return "", model.NewValidationError("UnsupportedFileType")
	}
}

func extractFromImage(data []byte) (string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	return fmt.Sprintf("画像のサイズは%dx%dです。", cfg.Width, cfg.Height), nil
}

func extractFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract pdf page %d: %w", i, err)
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
