// Package main provides the career-sync CLI for building, querying, and
// match-scoring against the career content index.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/codexankiiit31/career-retrieval/internal/assembler"
	"github.com/codexankiiit31/career-retrieval/internal/chunker"
	"github.com/codexankiiit31/career-retrieval/internal/corpus"
	"github.com/codexankiiit31/career-retrieval/internal/embedding"
	"github.com/codexankiiit31/career-retrieval/internal/index"
	"github.com/codexankiiit31/career-retrieval/internal/pipeline"
	"github.com/codexankiiit31/career-retrieval/internal/retriever"
	"github.com/codexankiiit31/career-retrieval/internal/scorer"
	"github.com/codexankiiit31/career-retrieval/internal/source"
	"github.com/codexankiiit31/career-retrieval/internal/storage"
	"github.com/codexankiiit31/career-retrieval/internal/tagger"
)

var rootCmd = &cobra.Command{
	Use:   "career-sync",
	Short: "Career content index management tool",
	Long:  "CLI for building the career content vector index and running retrieval and match scoring against it",
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebuild the index from configured content sources",
	Long: `Builds a fresh index from scraped content and persists it.

This command:
1. Loads documents from the data directory (and GitHub, if configured)
2. Chunks, tags, and embeds them through a bounded worker pool
3. Assembles a new index off to the side and persists it
4. Optionally mirrors the chunks into Qdrant for large corpora

Environment variables:
  DATA_DIR       Scraped content directory (default: ./data)
  GITHUB_SOURCE  Optional owner/repo/path of markdown learning content
  INDEX_PATH     Persisted index blob path (default: ./career_index.bin)
  OPENAI_API_KEY OpenAI API key for embeddings (required)
  TAG_CHUNKS     Set to "true" to topic-tag chunks with GPT-4o
  QDRANT_HOST    If set, also upsert chunks into Qdrant
  QDRANT_PORT    Qdrant gRPC port (default: 6334)
  GITHUB_TOKEN   GitHub token for higher rate limits (optional)`,
	RunE: runSync,
}

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve content for a query against the persisted index",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score a resume against a job description",
	RunE:  runMatch,
}

var (
	queryK      int
	queryTopics []string
	queryBudget int
	resumePath  string
	jobPath     string
)

func init() {
	queryCmd.Flags().IntVar(&queryK, "k", retriever.DefaultK, "number of results")
	queryCmd.Flags().StringSliceVar(&queryTopics, "topics", nil, "restrict candidates to these topic tags")
	queryCmd.Flags().IntVar(&queryBudget, "budget", assembler.DefaultBudgetTokens, "token budget for the context block")
	matchCmd.Flags().StringVar(&resumePath, "resume", "", "path to resume plain text")
	matchCmd.Flags().StringVar(&jobPath, "job", "", "path to job description plain text")
	matchCmd.MarkFlagRequired("resume")
	matchCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(syncCmd, queryCmd, matchCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()
	logger := slog.Default()

	dataDir := getEnv("DATA_DIR", "./data")
	indexPath := getEnv("INDEX_PATH", "./career_index.bin")

	embeddingClient, err := embedding.NewClient()
	if err != nil {
		return fmt.Errorf("create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, 0)

	var tag pipeline.Tagger
	if getEnv("TAG_CHUNKS", "false") == "true" {
		tag = tagger.New(embeddingClient.Client(), logger)
	}

	var sources []pipeline.Source
	if _, err := os.Stat(dataDir); err == nil {
		sources = append(sources, source.NewFileSource(dataDir, "", logger))
	}
	if gh := os.Getenv("GITHUB_SOURCE"); gh != "" {
		parts := strings.SplitN(gh, "/", 3)
		if len(parts) != 3 {
			return fmt.Errorf("GITHUB_SOURCE must be owner/repo/path, got %q", gh)
		}
		ghSource, err := source.NewGitHubSource(parts[0], parts[1], parts[2], logger)
		if err != nil {
			return fmt.Errorf("create github source: %w", err)
		}
		sources = append(sources, ghSource)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no content sources: %s does not exist and GITHUB_SOURCE is unset", dataDir)
	}

	builder := pipeline.NewBuilder(chunker.NewChunker(0, 0), embedder, tag, 0, logger)

	fmt.Println("Building index...")
	ix, result, err := builder.Build(ctx, sources...)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	f, err := os.Create(indexPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", indexPath, err)
	}
	defer f.Close()
	if err := ix.Persist(f); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}

	// Mirror into Qdrant when configured, for corpora past the
	// exact-search budget.
	if host := os.Getenv("QDRANT_HOST"); host != "" {
		port := getEnvInt("QDRANT_PORT", 6334)
		fmt.Printf("Mirroring %d chunks to Qdrant at %s:%d...\n", ix.Len(), host, port)
		store, err := storage.NewStore(host, port, ix.Dimension())
		if err != nil {
			return fmt.Errorf("connect to qdrant: %w", err)
		}
		defer store.Close()
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("clear collection: %w", err)
		}
		if err := store.UpsertChunks(ctx, ix.Chunks()); err != nil {
			return fmt.Errorf("upsert chunks: %w", err)
		}
	}

	fmt.Println()
	fmt.Println("Sync complete!")
	fmt.Printf("  Documents: %d\n", result.TotalDocs)
	fmt.Printf("  Chunks: %d (%d duplicates suppressed)\n", result.TotalChunks, result.DuplicateChunks)
	fmt.Printf("  Index: %s\n", indexPath)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))

	if len(result.SkippedDocs) > 0 {
		fmt.Println()
		fmt.Println("Skipped documents:")
		for _, skipped := range result.SkippedDocs {
			fmt.Printf("  - %s (%s): %s\n", skipped.DocumentID, skipped.Source, skipped.Reason)
		}
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ix, err := loadIndex()
	if err != nil {
		return err
	}

	embeddingClient, err := embedding.NewClient()
	if err != nil {
		return fmt.Errorf("create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, 0)

	r := retriever.New(ix, embedder, retriever.Options{})
	results, err := r.Retrieve(ctx, corpus.Query{
		Text:        args[0],
		K:           queryK,
		TopicFilter: queryTopics,
	})
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matching content.")
		return nil
	}

	for i, res := range results {
		fmt.Printf("%d. [%.3f] %s\n", i+1, res.Score, res.Chunk.Source)
	}
	fmt.Println()
	fmt.Println(assembler.Assemble(results, queryBudget))
	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	resumeText, err := os.ReadFile(resumePath)
	if err != nil {
		return fmt.Errorf("read resume: %w", err)
	}
	jobText, err := os.ReadFile(jobPath)
	if err != nil {
		return fmt.Errorf("read job description: %w", err)
	}

	embeddingClient, err := embedding.NewClient()
	if err != nil {
		return fmt.Errorf("create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, 0)

	var tag pipeline.Tagger
	if getEnv("TAG_CHUNKS", "false") == "true" {
		tag = tagger.New(embeddingClient.Client(), slog.Default())
	}

	resumeChunks, jobChunks, err := pipeline.PrepareMatchChunks(ctx, embedder, tag, string(resumeText), string(jobText))
	if err != nil {
		return fmt.Errorf("prepare match inputs: %w", err)
	}

	score, err := scorer.Score(resumeChunks, jobChunks)
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}

	out, err := json.MarshalIndent(score, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// loadIndex reads the persisted index blob and wraps it in a handle.
func loadIndex() (*index.Handle, error) {
	indexPath := getEnv("INDEX_PATH", "./career_index.bin")
	f, err := os.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("open index %s (run sync first): %w", indexPath, err)
	}
	defer f.Close()

	ix, err := index.Load(f, 0)
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", indexPath, err)
	}
	return index.NewHandle(ix), nil
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
