// Package ingest feeds pre-chunked report text into the vector store.
//
// Chunk files are JSON Lines: one object per line with the chunk
// content and its provenance metadata, e.g.
//
//	{"content": "A taxa Selic...", "metadata": {"source": "ri202403.pdf", "page": 12}}
//
// Ingestion is best effort. A file that cannot be read or indexed is
// reported and skipped; the remaining files still run.
package ingest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lastrolabs/lastro/internal/vectorstore"
)

// ErrNoChunks indicates a chunk file with no usable lines.
var ErrNoChunks = errors.New("no chunks found")

// maxLineBytes bounds a single chunk line. Report chunks are a few
// hundred tokens; anything near this limit is a malformed file.
const maxLineBytes = 1 << 20

type chunkRecord struct {
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ReadChunkFile parses a JSON Lines chunk file into documents.
// Blank lines are skipped. A malformed line fails the whole file with
// its line number; partial reads of a corrupt file would silently drop
// chunks otherwise.
func ReadChunkFile(path string) ([]vectorstore.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk file: %w", err)
	}
	defer f.Close()

	docs, err := readChunks(f)
	if err != nil {
		return nil, fmt.Errorf("chunk file %s: %w", path, err)
	}
	return docs, nil
}

func readChunks(r io.Reader) ([]vectorstore.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var docs []vectorstore.Document
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec chunkRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.Content == "" {
			return nil, fmt.Errorf("line %d: chunk has no content", line)
		}

		docs = append(docs, vectorstore.Document{
			ID:       rec.ID,
			Content:  rec.Content,
			Metadata: rec.Metadata,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	if len(docs) == 0 {
		return nil, ErrNoChunks
	}
	return docs, nil
}
