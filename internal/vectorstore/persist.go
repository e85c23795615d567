package vectorstore

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/lastrolabs/lastro/internal/index"
)

// Persisted artifact names. Both live in the store directory and are
// read and written together.
const (
	IndexFileName     = "index.bin"
	DocumentsFileName = "documents.gob"
)

// ErrInconsistentArtifacts is returned by Load when the two artifacts
// disagree on cardinality. A directory written by Save can never be in
// this state; it indicates external tampering or a mixed-version pair.
var ErrInconsistentArtifacts = errors.New("index and document artifacts are inconsistent")

var gzipMagic = []byte{0x1f, 0x8b}

// Save writes the index and document artifacts into dir, creating it
// if absent.
//
// Both artifacts are written to temporary files, synced, and renamed
// into place only after every write succeeded, so a crash mid-save
// leaves the previous pair intact and a fully written directory is
// always internally consistent. I/O failures propagate to the caller.
func (s *Store) Save(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.index
	if idx == nil {
		// An empty store still persists a valid (zero-vector) pair so a
		// later Load round-trips.
		empty, err := index.New(1)
		if err != nil {
			return err
		}
		idx = empty
	}

	err := atomicWriteDir(dir, map[string]writeFunc{
		IndexFileName: func(w io.Writer) error {
			_, err := idx.WriteTo(w)
			return err
		},
		DocumentsFileName: func(w io.Writer) error {
			return s.encodeDocuments(w)
		},
	})
	if err != nil {
		return fmt.Errorf("saving vector store to %s: %w", dir, err)
	}

	s.logger.Info("vector store saved",
		zap.String("dir", dir),
		zap.Int("documents", len(s.documents)),
	)
	return nil
}

// LoadResult reports the outcome of a Load.
type LoadResult struct {
	// Loaded is true when both artifacts were found and state replaced.
	Loaded bool

	// Documents is the number of documents after the load.
	Documents int
}

// Load restores the store from dir.
//
// When both artifacts exist, in-memory state is replaced as a unit.
// When either is missing the current state is kept, a warning is
// logged, and Loaded is false with a nil error: "not yet ingested" is
// not a failure. Present-but-unreadable artifacts and cardinality
// mismatches are errors.
func (s *Store) Load(dir string) (LoadResult, error) {
	indexPath := filepath.Join(dir, IndexFileName)
	docsPath := filepath.Join(dir, DocumentsFileName)

	if !fileExists(indexPath) || !fileExists(docsPath) {
		s.logger.Warn("no persisted vector store found", zap.String("dir", dir))
		return LoadResult{Loaded: false, Documents: s.DocumentCount()}, nil
	}

	idx, err := readIndexFile(indexPath)
	if err != nil {
		return LoadResult{}, fmt.Errorf("loading index artifact: %w", err)
	}

	docs, err := readDocumentsFile(docsPath)
	if err != nil {
		return LoadResult{}, fmt.Errorf("loading documents artifact: %w", err)
	}

	if idx.Len() != len(docs) {
		return LoadResult{}, fmt.Errorf("%w: index has %d vectors, store has %d documents",
			ErrInconsistentArtifacts, idx.Len(), len(docs))
	}

	s.mu.Lock()
	if idx.Len() == 0 {
		// An empty snapshot carries a placeholder dimension; leave the
		// real dimension to be fixed by the first insertion.
		s.index = nil
	} else {
		s.index = idx
	}
	s.documents = docs
	documentsTotal.Set(float64(len(docs)))
	s.mu.Unlock()

	s.logger.Info("vector store loaded",
		zap.String("dir", dir),
		zap.Int("documents", len(docs)),
	)
	return LoadResult{Loaded: true, Documents: len(docs)}, nil
}

// Reset discards the persisted artifacts in dir and clears in-memory
// state. It backs the rebuild operation. Any other live Store over the
// same directory keeps serving its stale in-memory state until the
// process restarts; that is a documented constraint of the instance
// cache, not something Reset repairs.
func (s *Store) Reset(dir string) error {
	for _, name := range []string{IndexFileName, DocumentsFileName} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", name, err)
		}
	}

	s.mu.Lock()
	s.index = nil
	s.documents = nil
	documentsTotal.Set(0)
	s.mu.Unlock()

	s.logger.Info("vector store reset", zap.String("dir", dir))
	return nil
}

// encodeDocuments gob-encodes the document sequence, gzip-compressed
// when configured.
func (s *Store) encodeDocuments(w io.Writer) error {
	if s.config.Compress {
		gz := gzip.NewWriter(w)
		if err := gob.NewEncoder(gz).Encode(s.documents); err != nil {
			return fmt.Errorf("encoding documents: %w", err)
		}
		return gz.Close()
	}
	if err := gob.NewEncoder(w).Encode(s.documents); err != nil {
		return fmt.Errorf("encoding documents: %w", err)
	}
	return nil
}

func readIndexFile(path string) (*index.Flat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return index.ReadSnapshot(f)
}

// readDocumentsFile decodes the document artifact, transparently
// handling gzip by sniffing the magic bytes.
func readDocumentsFile(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}

	var r io.Reader = br
	if bytes.Equal(head, gzipMagic) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip documents artifact: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var docs []Document
	if err := gob.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decoding documents: %w", err)
	}
	return docs, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

type writeFunc func(io.Writer) error

// atomicWriteDir writes every file to a temp file in dir, syncs it,
// then renames all temp files into place. Either every artifact is
// replaced or none is left partially written.
func atomicWriteDir(dir string, files map[string]writeFunc) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tempFiles := make([]string, 0, len(files))
	defer func() {
		for _, tmp := range tempFiles {
			_ = os.Remove(tmp)
		}
	}()

	type mapping struct {
		temp   string
		target string
	}
	mappings := make([]mapping, 0, len(files))

	for name, write := range files {
		tmp, err := os.CreateTemp(dir, name+".tmp-*")
		if err != nil {
			return fmt.Errorf("creating temp file for %s: %w", name, err)
		}
		tempFiles = append(tempFiles, tmp.Name())

		if err := write(tmp); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("writing %s: %w", name, err)
		}
		if err := tmp.Sync(); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("syncing %s: %w", name, err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", name, err)
		}

		mappings = append(mappings, mapping{temp: tmp.Name(), target: filepath.Join(dir, name)})
	}

	for _, m := range mappings {
		if err := os.Rename(m.temp, m.target); err != nil {
			return fmt.Errorf("renaming %s: %w", m.target, err)
		}
	}
	tempFiles = nil

	// Best-effort directory sync so the renames survive a crash.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	return nil
}
