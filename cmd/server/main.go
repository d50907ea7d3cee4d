package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bom-labs/loan-assistant/internal/api"
	"github.com/bom-labs/loan-assistant/internal/config"
	"github.com/bom-labs/loan-assistant/internal/core"
	"github.com/bom-labs/loan-assistant/internal/index"
	"github.com/bom-labs/loan-assistant/internal/ingest"
	"github.com/bom-labs/loan-assistant/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line flag for the offline corpus + index build
	ingestFlag := flag.Bool("ingest", false, "Build the corpus and vector index, then exit")
	flag.Parse()

	// Initialize the index store
	chunkStore, err := store.NewChunkStore(config.AppConfig.IndexPath)
	if err != nil {
		log.Fatalf("Failed to initialize index store: %v", err)
	}
	defer chunkStore.Close()

	// Initialize LLM service
	llmService := core.NewLLMService()
	defer llmService.Close()

	// Offline batch job: scrape, chunk, embed, persist, exit.
	if *ingestFlag {
		runIngest(chunkStore, llmService)
		// chunkStore.Close() and llmService.Close() run via their defers.
		return
	}

	conversations := store.NewConversationStore(config.AppConfig.ConversationsDir)

	// Initialize the query pipeline and load the index eagerly so the
	// health probe reflects readiness.
	ragService := core.NewRAGService(chunkStore, conversations, llmService, llmService, config.AppConfig.RetrievalK)
	if err := ragService.Initialize(); err != nil {
		log.Fatalf("Failed to initialize RAG service: %v", err)
	}

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(ragService)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}

// runIngest executes the one-shot offline pipeline: fetch and clean the
// corpus, split and embed it, and overwrite the persisted index.
func runIngest(chunkStore *store.ChunkStore, llmService *core.LLMService) {
	log.Println("Starting data ingestion process...")
	ctx := context.Background()

	exaClient, err := ingest.NewExaClient(config.AppConfig.ExaAPIKey, config.AppConfig.ExaNumResults)
	if err != nil {
		log.Fatalf("Failed to initialize search client: %v", err)
	}

	builder := ingest.NewBuilder(exaClient, config.AppConfig.RawDataPath, config.AppConfig.CleanedDataPath)
	documents, err := builder.Fetch(ctx)
	if err != nil {
		log.Fatalf("Corpus build failed: %v", err)
	}

	splitter := index.NewSplitter(config.AppConfig.ChunkSize, config.AppConfig.ChunkOverlap)
	chunks, err := index.Build(ctx, documents, splitter, llmService.GetEmbedding)
	if err != nil {
		log.Fatalf("Index build failed: %v", err)
	}

	if err := chunkStore.ReplaceAll(chunks); err != nil {
		log.Fatalf("Failed to persist index: %v", err)
	}

	count, err := chunkStore.Count()
	if err != nil {
		log.Fatalf("Failed to read back persisted index: %v", err)
	}
	log.Printf("Data ingestion complete. Persisted %d chunks to %s. Exiting.", count, config.AppConfig.IndexPath)
}
