package retrieval

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// minChunkRunes drops fragments too short to be useful grounding.
const minChunkRunes = 40

// LoadDirectory reads every .txt file under dir and splits each into
// paragraph chunks. Ingestion is an offline, one-time step at startup.
func LoadDirectory(dir string) ([]Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("data path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data path is not a directory: %s", dir)
	}

	var docs []Document
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".txt") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		for _, chunk := range SplitParagraphs(string(data)) {
			docs = append(docs, Document{
				Text:   chunk,
				Source: d.Name(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// SplitParagraphs splits text on blank lines, trimming whitespace and
// dropping fragments shorter than minChunkRunes.
func SplitParagraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	var chunks []string
	for _, part := range strings.Split(normalized, "\n\n") {
		chunk := strings.TrimSpace(part)
		if len([]rune(chunk)) < minChunkRunes {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}
