package vectorstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastrolabs/lastro/internal/embeddings"
	"github.com/lastrolabs/lastro/internal/vectorstore"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		compress bool
	}{
		{name: "plain"},
		{name: "compressed", compress: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			ctx := context.Background()

			store := newStoreWithConfig(t, vectorstore.Config{Compress: tt.compress})
			_, err := store.AddDocuments(ctx, reportChunks())
			require.NoError(t, err)
			require.NoError(t, store.Save(dir))

			want, err := store.Search(ctx, "Selic", 3)
			require.NoError(t, err)

			restored := newStoreWithConfig(t, vectorstore.Config{})
			result, err := restored.Load(dir)
			require.NoError(t, err)
			assert.True(t, result.Loaded)
			assert.Equal(t, 3, result.Documents)
			assert.Equal(t, store.DocumentCount(), restored.DocumentCount())

			for i := 0; i < store.DocumentCount(); i++ {
				a, ok := store.DocumentAt(i)
				require.True(t, ok)
				b, ok := restored.DocumentAt(i)
				require.True(t, ok)
				assert.Equal(t, a, b)
			}

			got, err := restored.Search(ctx, "Selic", 3)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func newStoreWithConfig(t *testing.T, cfg vectorstore.Config) *vectorstore.Store {
	t.Helper()
	embedder, err := embeddings.NewHashProvider(0)
	require.NoError(t, err)
	store, err := vectorstore.New(embedder, cfg, nil)
	require.NoError(t, err)
	return store
}

func TestLoadMissingArtifactsIsNotAnError(t *testing.T) {
	store := newStore(t, 0)

	result, err := store.Load(t.TempDir())
	require.NoError(t, err)
	assert.False(t, result.Loaded)
	assert.Equal(t, 0, store.DocumentCount())
}

func TestLoadWithOneArtifactMissingKeepsState(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store := newStore(t, 0)
	_, err := store.AddDocuments(ctx, reportChunks())
	require.NoError(t, err)
	require.NoError(t, store.Save(dir))

	require.NoError(t, os.Remove(filepath.Join(dir, vectorstore.DocumentsFileName)))

	restored := newStore(t, 0)
	result, err := restored.Load(dir)
	require.NoError(t, err)
	assert.False(t, result.Loaded)
	assert.Equal(t, 0, restored.DocumentCount())
}

func TestLoadRejectsInconsistentArtifacts(t *testing.T) {
	ctx := context.Background()

	// Two directories persisted with different document counts; mixing
	// their artifacts must be caught at load time.
	bigDir := t.TempDir()
	big := newStore(t, 0)
	_, err := big.AddDocuments(ctx, reportChunks())
	require.NoError(t, err)
	require.NoError(t, big.Save(bigDir))

	smallDir := t.TempDir()
	small := newStore(t, 0)
	_, err = small.AddDocuments(ctx, reportChunks()[:1])
	require.NoError(t, err)
	require.NoError(t, small.Save(smallDir))

	data, err := os.ReadFile(filepath.Join(smallDir, vectorstore.DocumentsFileName))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(bigDir, vectorstore.DocumentsFileName), data, 0o644))

	_, err = newStore(t, 0).Load(bigDir)
	assert.ErrorIs(t, err, vectorstore.ErrInconsistentArtifacts)
}

func TestLoadRejectsCorruptIndex(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store := newStore(t, 0)
	_, err := store.AddDocuments(ctx, reportChunks())
	require.NoError(t, err)
	require.NoError(t, store.Save(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, vectorstore.IndexFileName), []byte("not an index"), 0o644))

	_, err = newStore(t, 0).Load(dir)
	assert.Error(t, err)
}

func TestSaveEmptyStoreRoundTrips(t *testing.T) {
	dir := t.TempDir()

	store := newStore(t, 0)
	require.NoError(t, store.Save(dir))

	restored := newStore(t, 0)
	result, err := restored.Load(dir)
	require.NoError(t, err)
	assert.True(t, result.Loaded)
	assert.Equal(t, 0, restored.DocumentCount())

	// The dimension stays unfixed, so a later insert establishes it.
	_, err = restored.AddDocuments(context.Background(), reportChunks())
	require.NoError(t, err)
	assert.Equal(t, 3, restored.DocumentCount())
}

func TestResetDiscardsStateAndArtifacts(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store := newStore(t, 0)
	_, err := store.AddDocuments(ctx, reportChunks())
	require.NoError(t, err)
	require.NoError(t, store.Save(dir))

	require.NoError(t, store.Reset(dir))
	assert.Equal(t, 0, store.DocumentCount())

	_, err = os.Stat(filepath.Join(dir, vectorstore.IndexFileName))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, vectorstore.DocumentsFileName))
	assert.True(t, os.IsNotExist(err))

	// Resetting a directory with nothing persisted is fine.
	require.NoError(t, store.Reset(dir))
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store := newStore(t, 0)
	_, err := store.AddDocuments(ctx, reportChunks())
	require.NoError(t, err)
	require.NoError(t, store.Save(dir))
	require.NoError(t, store.Save(dir)) // overwrite in place

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{vectorstore.IndexFileName, vectorstore.DocumentsFileName}, names)
}
