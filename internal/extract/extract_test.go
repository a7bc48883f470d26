package extract

import (
	"log/slog"
	"testing"
)

func TestTextUnsupportedMediaType(t *testing.T) {
	e := New(slog.New(slog.DiscardHandler))

	tests := []string{
		"application/zip",
		"text/html",
		"application/octet-stream",
		"",
	}
	for _, mediaType := range tests {
		got, err := e.Text([]byte("some bytes"), mediaType)
		if err != nil {
			t.Errorf("Text(%q) error = %v, want nil", mediaType, err)
		}
		if got != "" {
			t.Errorf("Text(%q) = %q, want empty", mediaType, got)
		}
	}
}

func TestTextMalformedPDF(t *testing.T) {
	e := New(slog.New(slog.DiscardHandler))

	if _, err := e.Text([]byte("not a pdf at all"), "application/pdf"); err == nil {
		t.Error("malformed PDF should error")
	}
}
