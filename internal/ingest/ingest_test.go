package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastrolabs/lastro/internal/embeddings"
	"github.com/lastrolabs/lastro/internal/ingest"
	"github.com/lastrolabs/lastro/internal/vectorstore"
)

func newStore(t *testing.T) *vectorstore.Store {
	t.Helper()
	provider, err := embeddings.NewHashProvider(0)
	require.NoError(t, err)
	store, err := vectorstore.New(provider, vectorstore.Config{}, nil)
	require.NoError(t, err)
	return store
}

func writeChunkFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func chunkLine(content, source string, page int) string {
	return fmt.Sprintf(`{"content": %q, "metadata": {"source": %q, "page": %d}}`, content, source, page)
}

func TestReadChunkFile(t *testing.T) {
	dir := t.TempDir()
	path := writeChunkFile(t, dir, "chunks.jsonl",
		chunkLine("A taxa Selic foi mantida em 10,50% ao ano.", "ri202403.pdf", 12),
		"",
		chunkLine("A inflação acumulada atingiu 4,2%.", "ri202403.pdf", 15),
	)

	docs, err := ingest.ReadChunkFile(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "A taxa Selic foi mantida em 10,50% ao ano.", docs[0].Content)
	assert.Equal(t, "ri202403.pdf", docs[0].Source())
	page, ok := docs[0].Page()
	assert.True(t, ok)
	assert.Equal(t, 12, page)
}

func TestReadChunkFileRejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := writeChunkFile(t, dir, "bad.jsonl",
		chunkLine("ok", "a.pdf", 1),
		`{"content": `,
	)

	_, err := ingest.ReadChunkFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadChunkFileRejectsEmptyContent(t *testing.T) {
	dir := t.TempDir()
	path := writeChunkFile(t, dir, "empty-content.jsonl", `{"metadata": {"source": "a.pdf"}}`)

	_, err := ingest.ReadChunkFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content")
}

func TestReadChunkFileEmpty(t *testing.T) {
	dir := t.TempDir()
	path := writeChunkFile(t, dir, "empty.jsonl", "", "")

	_, err := ingest.ReadChunkFile(path)
	assert.ErrorIs(t, err, ingest.ErrNoChunks)
}

func TestRunIngestsAndPersists(t *testing.T) {
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "store")
	path := writeChunkFile(t, dir, "chunks.jsonl",
		chunkLine("Selic em alta.", "ri202403.pdf", 1),
		chunkLine("Inflação em queda.", "ri202403.pdf", 2),
		chunkLine("PIB estável.", "ri202403.pdf", 3),
	)

	store := newStore(t)
	ing := ingest.New(store, 2, nil)

	res, err := ing.Run(context.Background(), []string{path}, storeDir)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 3, res.Documents)
	assert.Equal(t, 3, store.DocumentCount())

	// The run persists the store once at the end.
	fresh := newStore(t)
	loaded, err := fresh.Load(storeDir)
	require.NoError(t, err)
	require.True(t, loaded.Loaded)
	assert.Equal(t, 3, fresh.DocumentCount())
}

func TestRunSkipsFailingFile(t *testing.T) {
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "store")
	good := writeChunkFile(t, dir, "good.jsonl", chunkLine("Selic em alta.", "a.pdf", 1))
	bad := writeChunkFile(t, dir, "bad.jsonl", "not json")
	missing := filepath.Join(dir, "missing.jsonl")

	store := newStore(t)
	ing := ingest.New(store, 0, nil)

	res, err := ing.Run(context.Background(), []string{bad, missing, good}, storeDir)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 2, res.Failed)
	assert.ElementsMatch(t, []string{bad, missing}, res.FailedFiles)
	assert.Equal(t, 1, store.DocumentCount())
}

// capacityEmbedder delegates to the hash embedder for a limited number
// of batches, then fails, simulating a model that dies mid-file.
type capacityEmbedder struct {
	inner   *embeddings.HashProvider
	batches int
}

func (e *capacityEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if e.batches <= 0 {
		return nil, errors.New("model unavailable")
	}
	e.batches--
	return e.inner.EmbedDocuments(ctx, texts)
}

func (e *capacityEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.inner.EmbedQuery(ctx, text)
}

func TestRunPersistsPartialBatchesOfFailedFile(t *testing.T) {
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "store")
	path := writeChunkFile(t, dir, "chunks.jsonl",
		chunkLine("Selic em alta.", "ri202403.pdf", 1),
		chunkLine("Inflação em queda.", "ri202403.pdf", 2),
		chunkLine("PIB estável.", "ri202403.pdf", 3),
	)

	inner, err := embeddings.NewHashProvider(0)
	require.NoError(t, err)
	store, err := vectorstore.New(&capacityEmbedder{inner: inner, batches: 1}, vectorstore.Config{}, nil)
	require.NoError(t, err)

	// Batch size 2: the first batch lands, the second fails the file.
	ing := ingest.New(store, 2, nil)
	res, err := ing.Run(context.Background(), []string{path}, storeDir)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 2, res.Documents)
	assert.Equal(t, 2, store.DocumentCount())

	// The documents that did land must survive the run.
	fresh := newStore(t)
	loaded, err := fresh.Load(storeDir)
	require.NoError(t, err)
	require.True(t, loaded.Loaded)
	assert.Equal(t, 2, fresh.DocumentCount())
}

func TestRunNothingIngestedSkipsSave(t *testing.T) {
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "store")
	bad := writeChunkFile(t, dir, "bad.jsonl", "not json")

	store := newStore(t)
	ing := ingest.New(store, 0, nil)

	res, err := ing.Run(context.Background(), []string{bad}, storeDir)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Documents)

	_, err = os.Stat(storeDir)
	assert.True(t, os.IsNotExist(err))
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newStore(t)
	ing := ingest.New(store, 0, nil)

	_, err := ing.Run(ctx, []string{"whatever.jsonl"}, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
