// Package extract pulls plain text out of uploaded documents: native text
// from PDFs, OCR for common image formats. Unsupported media types yield
// empty text without error so upload handling stays best-effort.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/ledongthuc/pdf"
	"github.com/otiai10/gosseract/v2"

	"github.com/askfolio/askfolio/internal/text"
)

// ocrLanguage is the tesseract language model used for image uploads.
const ocrLanguage = "eng"

// Extractor converts document bytes into normalized plain text.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor.
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Text extracts plain text from data according to its declared media type.
// PDF uses native text extraction; PNG/JPEG/WebP go through OCR. Any other
// media type returns "" with no error.
func (e *Extractor) Text(data []byte, mediaType string) (string, error) {
	switch mediaType {
	case "application/pdf":
		out, err := pdfText(data)
		if err != nil {
			return "", fmt.Errorf("extracting pdf text: %w", err)
		}
		return text.Normalize(out), nil

	case "image/png", "image/jpeg", "image/jpg", "image/webp":
		out, err := imageText(data)
		if err != nil {
			return "", fmt.Errorf("running ocr: %w", err)
		}
		return text.Normalize(out), nil

	default:
		e.logger.Warn("unsupported media type for extraction", "media_type", mediaType)
		return "", nil
	}
}

// pdfText reads every page's plain text.
func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	out, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// imageText runs tesseract OCR over the image bytes.
func imageText(data []byte) (string, error) {
	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage(ocrLanguage); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", err
	}
	return client.Text()
}
