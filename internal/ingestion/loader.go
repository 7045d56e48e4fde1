package ingestion

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Loader extracts the plain text of a file.
type Loader func(path string) (string, error)

func defaultLoaders() map[string]Loader {
	return map[string]Loader{
		".pdf": loadPDF,
		".txt": loadText,
		".md":  loadText,
	}
}

// load picks a loader by the lowercased file extension.
func (p *Pipeline) load(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	l, ok := p.loaders[ext]
	if !ok {
		return "", fmt.Errorf("unsupported file type %q", ext)
	}
	return l(path)
}

func loadText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}

// loadPDF extracts the text layer of every page. Scanned datasheets without
// a text layer yield an empty string.
func loadPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	rd, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting text from %s: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rd); err != nil {
		return "", fmt.Errorf("reading text of %s: %w", path, err)
	}
	return buf.String(), nil
}
