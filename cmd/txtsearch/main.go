// Package main provides the txtsearch CLI: directory indexing plus the
// search, serve, and mcp command surfaces.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/txtsearch/internal/chunker"
	"github.com/bull/txtsearch/internal/embedding"
	"github.com/bull/txtsearch/internal/indexer"
	"github.com/bull/txtsearch/internal/metastore"
	"github.com/bull/txtsearch/internal/vectorstore"
	"github.com/bull/txtsearch/internal/walker"
)

const version = "0.1.0"

// indexDirName is the per-target folder holding the index files.
const indexDirName = ".txtsearch"

var rootCmd = &cobra.Command{
	Use:   "txtsearch",
	Short: "Index directories and search them with multiple strategies",
	Long: `Index directories and search with multiple strategies (literal, lexical, semantic, agentic).

Examples:

  # Index a directory
  txtsearch index ./src/

  # Search with a specific strategy
  txtsearch search --strategy semantic "function that handles authentication"

Environment variables:
  QDRANT_HOST    Qdrant hostname (default: localhost)
  QDRANT_PORT    Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY OpenAI API key for embeddings (required)`,
}

var (
	flagOutputDir    string
	flagFilePattern  string
	flagExclude      string
	flagChunkSize    int
	flagChunkOverlap int
	flagCollection   string
	flagEphemeral    bool

	flagSearchDir string
	flagStrategy  string
	flagLimit     int
)

var indexCmd = &cobra.Command{
	Use:   "index <directory>",
	Short: "Index a directory for search",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndex,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search an indexed directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	RunE:  runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	RunE:  runMCP,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("txtsearch %s\n", version)
	},
}

func init() {
	indexCmd.Flags().StringVarP(&flagOutputDir, "output-dir", "o", "",
		"directory to store index files (default: .txtsearch in target directory)")
	indexCmd.Flags().StringVarP(&flagFilePattern, "file-pattern", "f", "*.{py,js,ts,md,txt,json,yaml,yml}",
		"file patterns to include in the index")
	indexCmd.Flags().StringVarP(&flagExclude, "exclude", "e", "",
		"patterns to exclude from indexing")
	indexCmd.Flags().IntVar(&flagChunkSize, "chunk-size", chunker.DefaultChunkSize,
		"target chunk size in characters")
	indexCmd.Flags().IntVar(&flagChunkOverlap, "chunk-overlap", chunker.DefaultChunkOverlap,
		"characters of overlap between chunks")
	indexCmd.Flags().StringVar(&flagCollection, "collection", vectorstore.DefaultCollectionName,
		"vector store collection name")
	indexCmd.Flags().BoolVar(&flagEphemeral, "ephemeral", false,
		"keep embeddings in memory instead of Qdrant (throwaway runs)")

	for _, cmd := range []*cobra.Command{searchCmd, serveCmd, mcpCmd} {
		cmd.Flags().StringVarP(&flagSearchDir, "directory", "d", "",
			"directory with index (default: current directory)")
	}
	searchCmd.Flags().StringVarP(&flagStrategy, "strategy", "s", "semantic",
		"search strategy to use")
	searchCmd.Flags().IntVarP(&flagLimit, "limit", "n", 10,
		"maximum number of results to return")

	rootCmd.AddCommand(indexCmd, searchCmd, serveCmd, mcpCmd, versionCmd)
}

func main() {
	// Load .env if present (local development), ignore if missing.
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()
	targetDir := args[0]

	if info, err := os.Stat(targetDir); err != nil || !info.IsDir() {
		return fmt.Errorf("directory not found: %s", targetDir)
	}

	indexDir := flagOutputDir
	if indexDir == "" {
		indexDir = filepath.Join(targetDir, indexDirName)
	}
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	var include, exclude []string
	if flagFilePattern != "" {
		include = walker.ExpandBracePattern(flagFilePattern)
	}
	if flagExclude != "" {
		exclude = walker.ExpandBracePattern(flagExclude)
	}

	embeddingClient, err := embedding.NewClient()
	if err != nil {
		return fmt.Errorf("create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, 0)

	metaPath := filepath.Join(indexDir, "meta.db")
	if flagEphemeral {
		metaPath = metastore.MemoryPath
	}
	meta, err := metastore.Open(metaPath, logger)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	defer meta.Close()

	var vectors vectorstore.Store
	if flagEphemeral {
		vectors = vectorstore.NewMemoryStore(embedder, logger)
	} else {
		vectors, err = vectorstore.NewQdrantStore(
			getEnv("QDRANT_HOST", "localhost"),
			getEnvInt("QDRANT_PORT", 6334),
			flagCollection, embedder, logger)
		if err != nil {
			return fmt.Errorf("connect to Qdrant: %w", err)
		}
	}
	defer vectors.Close()

	splitter, err := chunker.New(flagChunkSize, flagChunkOverlap, nil)
	if err != nil {
		return err
	}

	pipeline := indexer.NewPipeline(walker.New(include, exclude), meta, vectors, splitter, logger)

	result, err := pipeline.IndexDirectory(ctx, targetDir)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d files (%d chunks, %d skipped) in %s\n",
		result.FilesProcessed, result.ChunksCreated, result.FilesSkipped,
		result.Duration.Round(10*time.Millisecond))
	if len(result.Errors) > 0 {
		fmt.Printf("Encountered %d errors:\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}

// requireIndexDir resolves the index folder for the search-side commands
// and fails when the directory has not been indexed yet.
func requireIndexDir() (string, error) {
	searchDir := flagSearchDir
	if searchDir == "" {
		searchDir = "."
	}
	indexDir := filepath.Join(searchDir, indexDirName)
	if _, err := os.Stat(indexDir); err != nil {
		return "", fmt.Errorf("no index found in %s, run 'txtsearch index' first", searchDir)
	}
	return indexDir, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if _, err := requireIndexDir(); err != nil {
		return err
	}
	fmt.Printf("Searching for %q using %s strategy (limit %d)\n", args[0], flagStrategy, flagLimit)
	return fmt.Errorf("search is not implemented yet")
}

func runServe(cmd *cobra.Command, args []string) error {
	if _, err := requireIndexDir(); err != nil {
		return err
	}
	return fmt.Errorf("the REST API server is not implemented yet")
}

func runMCP(cmd *cobra.Command, args []string) error {
	if _, err := requireIndexDir(); err != nil {
		return err
	}
	return fmt.Errorf("the MCP server is not implemented yet")
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
