package ingest

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/lastrolabs/lastro/internal/vectorstore"
)

// DefaultBatchSize is the number of chunks indexed per embedding call.
const DefaultBatchSize = 25

var filesFailed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "lastro",
	Subsystem: "ingest",
	Name:      "files_failed_total",
	Help:      "Chunk files that failed to ingest.",
})

// Result summarizes an ingestion run.
type Result struct {
	// Processed is the number of files fully indexed.
	Processed int

	// Failed is the number of files skipped after an error.
	Failed int

	// FailedFiles lists the paths that were skipped.
	FailedFiles []string

	// Documents is the total number of chunks added to the store.
	Documents int
}

// Ingestor runs batch ingestion of chunk files into a store.
type Ingestor struct {
	store     *vectorstore.Store
	batchSize int
	logger    *zap.Logger
}

// New creates an Ingestor. batchSize <= 0 selects DefaultBatchSize.
func New(store *vectorstore.Store, batchSize int, logger *zap.Logger) *Ingestor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		store:     store,
		batchSize: batchSize,
		logger:    logger.Named("ingest"),
	}
}

// Run ingests every chunk file in paths and persists the store to dir
// once at the end. A failing file is logged and skipped; the run only
// errors when the final save fails or ctx is canceled.
func (i *Ingestor) Run(ctx context.Context, paths []string, dir string) (*Result, error) {
	res := &Result{}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		added, err := i.ingestFile(ctx, path)
		// A file can fail after some of its batches landed; those
		// documents are in the store and must reach the final save.
		res.Documents += added
		if err != nil {
			filesFailed.Inc()
			res.Failed++
			res.FailedFiles = append(res.FailedFiles, path)
			i.logger.Warn("skipping chunk file",
				zap.String("path", path),
				zap.Int("documents", added),
				zap.Error(err))
			continue
		}

		res.Processed++
		i.logger.Info("chunk file ingested",
			zap.String("path", path),
			zap.Int("documents", added))
	}

	if res.Documents > 0 {
		if err := i.store.Save(dir); err != nil {
			return res, fmt.Errorf("failed to persist store: %w", err)
		}
	}

	i.logger.Info("ingestion finished",
		zap.Int("processed", res.Processed),
		zap.Int("failed", res.Failed),
		zap.Int("documents", res.Documents))

	return res, nil
}

func (i *Ingestor) ingestFile(ctx context.Context, path string) (int, error) {
	docs, err := ReadChunkFile(path)
	if err != nil {
		return 0, err
	}

	added := 0
	for start := 0; start < len(docs); start += i.batchSize {
		end := min(start+i.batchSize, len(docs))
		if _, err := i.store.AddDocuments(ctx, docs[start:end]); err != nil {
			return added, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		added += end - start
	}
	return added, nil
}
