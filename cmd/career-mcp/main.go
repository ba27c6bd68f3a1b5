// Package main provides the MCP server entry point for career content retrieval.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/codexankiiit31/career-retrieval/internal/embedding"
	"github.com/codexankiiit31/career-retrieval/internal/index"
	mcpserver "github.com/codexankiiit31/career-retrieval/internal/mcp"
	"github.com/codexankiiit31/career-retrieval/internal/pipeline"
	"github.com/codexankiiit31/career-retrieval/internal/retriever"
	"github.com/codexankiiit31/career-retrieval/internal/storage"
	"github.com/codexankiiit31/career-retrieval/internal/tagger"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Configuration from environment
	indexPath := getEnv("INDEX_PATH", "./career_index.bin")
	port := getEnv("PORT", "8080")

	// Load the persisted index if one exists. Serving starts either way;
	// search_content reports an unpublished index until a sync runs.
	handle := index.NewHandle(nil)
	if f, err := os.Open(indexPath); err == nil {
		ix, loadErr := index.Load(f, 0)
		f.Close()
		if loadErr != nil {
			log.Fatalf("failed to load index %s: %v", indexPath, loadErr)
		}
		handle.Publish(ix)
		log.Printf("Loaded index with %d chunks from %s", ix.Len(), indexPath)
	} else {
		log.Printf("No index at %s, starting with empty handle", indexPath)
	}

	// Initialize embedding client
	embeddingClient, err := embedding.NewClient()
	if err != nil {
		log.Fatalf("failed to create embedding client: %v", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, 0) // Use default batch size

	var tag pipeline.Tagger
	if getEnv("TAG_CHUNKS", "false") == "true" {
		tag = tagger.New(embeddingClient.Client(), slog.Default())
	}

	// Prefer Qdrant for search when configured, otherwise the in-memory handle
	var searcher retriever.Searcher = handle
	if host := os.Getenv("QDRANT_HOST"); host != "" {
		qdrantPort := getEnvInt("QDRANT_PORT", 6334)
		store, err := storage.NewStore(host, qdrantPort, embedding.Dimension)
		if err != nil {
			log.Fatalf("failed to connect to Qdrant: %v", err)
		}
		defer store.Close()
		if err := store.EnsureCollection(ctx); err != nil {
			log.Fatalf("failed to ensure collection: %v", err)
		}
		searcher = store
		log.Printf("Using Qdrant at %s:%d for search", host, qdrantPort)
	}

	r := retriever.New(searcher, embedder, retriever.Options{})

	// Create MCP server
	server := mcpserver.NewServer(&mcpserver.Config{
		Handle:    handle,
		Retriever: r,
		Embedder:  embedder,
		Tagger:    tag,
	})

	// Create HTTP server with multiple endpoints
	mux := http.NewServeMux()

	// Health endpoint (for Fly.io health checks)
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(handle))

	// Landing page
	mux.HandleFunc("/", mcpserver.NewLandingHandler())

	// MCP HTTP endpoint (for remote client connections)
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	// Check if running in server mode (HTTP) or stdio mode (local development)
	serverMode := getEnv("SERVER_MODE", "false") == "true"

	if serverMode {
		// HTTP mode: serve MCP over HTTP for remote clients
		addr := "0.0.0.0:" + port
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	} else {
		// Stdio mode: run MCP server over stdin/stdout for local clients
		// Also start HTTP health endpoint in background for local testing
		go func() {
			addr := "0.0.0.0:" + port
			log.Printf("Starting health server on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("Health server error: %v", err)
			}
		}()

		log.Println("Starting Career Retrieval MCP Server (stdio mode)...")
		if err := server.Run(ctx); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
	}
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
