// Package main implements the lastro CLI for ingesting monetary policy
// report chunks and querying the vector knowledge base.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lastrolabs/lastro/internal/config"
	"github.com/lastrolabs/lastro/internal/logging"
	"github.com/lastrolabs/lastro/internal/services"
)

var (
	// configPath is the optional YAML config file
	configPath string
	// finalK is the post-rerank selection size for search/context
	finalK int
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lastro",
	Short: "Vector knowledge base for BACEN monetary policy reports",
	Long: `lastro indexes pre-chunked monetary policy report text into a local
vector store and answers queries with a two-stage retrieval pipeline
(vector recall followed by reranking).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	searchCmd.Flags().IntVarP(&finalK, "top", "k", 0, "number of results to return")
	contextCmd.Flags().IntVarP(&finalK, "top", "k", 0, "number of excerpts to include")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(infoCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <chunks.jsonl>...",
	Short: "Index chunk files into the vector store",
	Long: `Index one or more JSON Lines chunk files into the vector store and
persist it. A failing file is reported and skipped; the remaining
files are still processed.

Examples:
  lastro ingest data/chunks/ri202403.jsonl
  lastro ingest data/chunks/*.jsonl`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a similarity search and print the ranked documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var contextCmd = &cobra.Command{
	Use:   "context <query>",
	Short: "Retrieve and format context excerpts for a query",
	Long: `Retrieve the most relevant report excerpts for a query and print
them as formatted context blocks, ready to paste into a prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Discard the persisted vector store",
	Long: `Discard the persisted vector store artifacts and the in-memory state.
Run ingest afterwards to rebuild the index from chunk files.`,
	RunE: runRebuild,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print store and configuration details",
	RunE:  runInfo,
}

// setup loads .env, configuration and logging, and builds the service
// container every command runs against.
func setup() (*services.Container, *zap.Logger, error) {
	// Missing .env is fine; explicit environment still applies.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}

	container, err := services.New(cfg, logger)
	if err != nil {
		logger.Sync()
		return nil, nil, err
	}
	return container, logger, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	container, logger, err := setup()
	if err != nil {
		return err
	}
	defer container.Close()
	defer logger.Sync()

	res, err := container.Ingestor().Run(cmd.Context(), args, container.Config().StoreDir())
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d file(s), %d failed, %d documents indexed.\n",
		res.Processed, res.Failed, res.Documents)
	for _, f := range res.FailedFiles {
		fmt.Printf("  failed: %s\n", f)
	}
	if res.Failed > 0 && res.Processed == 0 {
		return fmt.Errorf("all %d file(s) failed", res.Failed)
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	container, logger, err := setup()
	if err != nil {
		return err
	}
	defer container.Close()
	defer logger.Sync()

	docs, err := container.Retriever().RetrieveDocuments(cmd.Context(), args[0], finalK)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("Nenhum resultado.")
		return nil
	}

	for i, doc := range docs {
		fmt.Printf("%d. [%.3f] %s\n", i+1, doc.RerankerScore, doc.Content)
	}
	return nil
}

func runContext(cmd *cobra.Command, args []string) error {
	container, logger, err := setup()
	if err != nil {
		return err
	}
	defer container.Close()
	defer logger.Sync()

	out, err := container.Retriever().Retrieve(cmd.Context(), args[0], finalK)
	if err != nil {
		return err
	}

	fmt.Println(out)
	return nil
}

func runRebuild(cmd *cobra.Command, args []string) error {
	container, logger, err := setup()
	if err != nil {
		return err
	}
	defer container.Close()
	defer logger.Sync()

	if err := container.Store().Reset(container.Config().StoreDir()); err != nil {
		return err
	}

	fmt.Println("Vector store discarded. Run 'lastro ingest' to rebuild it.")
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	container, logger, err := setup()
	if err != nil {
		return err
	}
	defer container.Close()
	defer logger.Sync()

	cfg := container.Config()
	store := container.Store()

	fmt.Printf("Store directory:    %s\n", cfg.StoreDir())
	fmt.Printf("Documents:          %d\n", store.DocumentCount())
	fmt.Printf("Vector dimension:   %d\n", store.Dimension())
	fmt.Printf("Embedding provider: %s\n", cfg.Embeddings.Provider)
	fmt.Printf("Embedding model:    %s\n", cfg.Embeddings.Model)
	fmt.Printf("Initial K:          %d\n", cfg.Retrieval.InitialK)
	fmt.Printf("Final K:            %d\n", cfg.Retrieval.FinalK)
	fmt.Printf("Compression:        %t\n", cfg.VectorStore.Compress)
	return nil
}
