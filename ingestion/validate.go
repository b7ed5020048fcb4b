package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// plainTextExtensions are the formats chunked directly; everything else in
// the allow-list goes through the configured DocumentParser.
var plainTextExtensions = map[string]bool{
	".txt":  true,
	".sql":  true,
	".md":   true,
	".csv":  true,
	".json": true,
	".xml":  true,
}

// DefaultAllowedExtensions is the file allow-list used when none is
// configured.
var DefaultAllowedExtensions = []string{".txt", ".sql", ".md", ".csv", ".json", ".xml", ".pdf", ".docx", ".xlsx"}

// validateFile checks the file's extension against the allow-list and its
// size against the configured limit.
func (p *Pipeline) validateFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !p.allowedExts[ext] {
		return fmt.Errorf("%w: %s", ErrUnsupportedExtension, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stating file: %w", err)
	}
	if p.maxFileBytes > 0 && info.Size() > p.maxFileBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, info.Size(), p.maxFileBytes)
	}
	return nil
}
