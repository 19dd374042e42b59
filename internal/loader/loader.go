// Package loader extracts per-page text from source documents.
// Supported formats: pdf, txt.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"github.com/dmaharana/docchat/internal/models"
)

// Validate checks a file before ingestion: it must exist, carry a
// supported extension and stay under the size cap. Returned errors
// are fatal for that file.
func Validate(filePath string, maxSizeMB int) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if info.IsDir() {
		return fmt.Errorf("not a file: %s", filePath)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf", ".txt":
	default:
		return fmt.Errorf("unsupported file format: %s", ext)
	}

	sizeMB := float64(info.Size()) / (1024 * 1024)
	if maxSizeMB > 0 && sizeMB > float64(maxSizeMB) {
		return fmt.Errorf("file size %.2f MB exceeds %d MB limit", sizeMB, maxSizeMB)
	}
	return nil
}

// LoadPages reads a document and returns its text page by page. An
// unreadable or unsupported file is an error; the caller decides
// whether to abort the batch. Plain text files have no page concept
// and use models.PageUnknown.
func LoadPages(filePath string) ([]models.Page, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return loadPDF(filePath)
	case ".txt":
		return loadText(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func loadPDF(filePath string) ([]models.Page, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF %s: %w", filePath, err)
	}

	source := filepath.Base(filePath)
	var pages []models.Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d of %s: %w", i, filePath, err)
		}
		pages = append(pages, models.Page{
			Text:   text,
			Number: i,
			Source: source,
		})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("file is empty or unreadable: %s", filePath)
	}

	log.Debug().Str("file", source).Int("pages", len(pages)).Msg("loaded PDF")
	return pages, nil
}

func loadText(filePath string) ([]models.Page, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("file is empty or unreadable: %s", filePath)
	}
	return []models.Page{{
		Text:   string(data),
		Number: models.PageUnknown,
		Source: filepath.Base(filePath),
	}}, nil
}
