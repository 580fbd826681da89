package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/luminahq/lumina/internal/api/handlers"
	"github.com/luminahq/lumina/internal/api/middleware"
	"github.com/luminahq/lumina/internal/chunker"
	"github.com/luminahq/lumina/internal/config"
	"github.com/luminahq/lumina/internal/embeddings"
	"github.com/luminahq/lumina/internal/extractor"
	"github.com/luminahq/lumina/internal/jobs"
	"github.com/luminahq/lumina/internal/observability"
	"github.com/luminahq/lumina/internal/openai"
	"github.com/luminahq/lumina/internal/repository"
	"github.com/luminahq/lumina/internal/service"
	"github.com/luminahq/lumina/pkg/database"
)

// maxRequestBodyBytes limits request bodies; job and asset payloads are small.
const maxRequestBodyBytes = 1 << 20

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Configure slog with the log level from config
	setupLogging(cfg.LogLevel)

	// Initialize tracing. NewTracerProvider returns nil when
	// OTEL_TRACES_EXPORTER is unset, in which case otelhttp falls back to
	// the global no-op provider.
	tracerProvider, err := observability.NewTracerProvider(cfg)
	if err != nil {
		slog.Error("Failed to initialize tracer provider", "error", err)
		os.Exit(1)
	}

	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
	}

	// Initialize database connection. pgvector types are registered on every
	// new connection so embedding columns scan into pgvector.Vector.
	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithAfterConnect(pgxvec.RegisterTypes))
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize embedding client if OpenAI API key is configured
	var embeddingClient embeddings.Client
	if cfg.OpenAIAPIKey != "" {
		embeddingClient = openai.NewClient(cfg.OpenAIAPIKey, openai.WithDimensions(cfg.EmbeddingDimensions))
		slog.Info("Embeddings enabled", "dimensions", cfg.EmbeddingDimensions)
	} else {
		embeddingClient = embeddings.NewMockClientWithDimensions(cfg.EmbeddingDimensions)
		slog.Warn("OPENAI_API_KEY not set, using deterministic mock embeddings")
	}

	// Initialize repositories
	assetsRepo := repository.NewAssetsRepository(db)
	vectorRecordsRepo := repository.NewVectorRecordsRepository(db)

	// Initialize the vector store. When the vector_records table is missing
	// or unreachable, the store runs in disabled mode and search endpoints
	// return empty results instead of errors.
	vectorStore := service.NewVectorStore(ctx, service.VectorStoreParams{
		Records:   vectorRecordsRepo,
		Embedder:  embeddingClient,
		Limiter:   rate.NewLimiter(rate.Limit(cfg.EmbeddingRateLimit), 1),
		Dimension: cfg.EmbeddingDimensions,
		Capacity:  cfg.VectorIndexCapacity,
		Threshold: cfg.SearchScoreThreshold,
	})

	// Initialize the job pipeline
	queue := jobs.NewQueue()
	processor := jobs.NewProcessor(jobs.ProcessorParams{
		Queue:        queue,
		Assets:       assetsRepo,
		Vectors:      vectorStore,
		CSVExtractor: extractor.NewCSVExtractor(nil),
		PDFExtractor: extractor.NewPDFExtractor(nil),
		CSVChunker:   chunker.NewCSVChunker(),
		DocChunker:   chunker.NewDocumentChunker(chunker.DocumentChunkerParams{}),
		BatchSize:    cfg.JobBatchSize,
		MaxAttempts:  cfg.JobMaxAttempts,
		PollInterval: cfg.JobPollInterval,
	})

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	searchHandler := handlers.NewSearchHandler(vectorStore)
	assetsHandler := handlers.NewAssetsHandler(assetsRepo, processor)
	jobsHandler := handlers.NewJobsHandler(processor, queue)

	// Set up public endpoints (no authentication required)
	publicMux := http.NewServeMux()
	publicMux.HandleFunc("GET /health", healthHandler.Check)

	var publicHandler http.Handler = publicMux

	// Set up protected endpoints (authentication required)
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /v1/assets", assetsHandler.Create)
	protectedMux.HandleFunc("GET /v1/assets", assetsHandler.List)
	protectedMux.HandleFunc("GET /v1/assets/{id}", assetsHandler.Get)
	protectedMux.HandleFunc("DELETE /v1/assets/{id}", assetsHandler.Delete)
	protectedMux.HandleFunc("GET /v1/assets/{id}/summary", searchHandler.DocumentSummary)

	protectedMux.HandleFunc("GET /v1/search/assets", searchHandler.SearchAssets)
	protectedMux.HandleFunc("GET /v1/search/chunks", searchHandler.SearchChunks)
	protectedMux.HandleFunc("GET /v1/search/hybrid", searchHandler.HybridSearch)
	protectedMux.HandleFunc("GET /v1/vector-store/stats", searchHandler.Stats)

	protectedMux.HandleFunc("POST /v1/jobs", jobsHandler.Enqueue)
	protectedMux.HandleFunc("GET /v1/jobs/queue", jobsHandler.QueueStatus)

	// Apply middleware to protected endpoints
	var protectedHandler http.Handler = protectedMux
	protectedHandler = middleware.MaxBody(maxRequestBodyBytes)(protectedHandler)
	protectedHandler = middleware.Auth(cfg.APIKey)(protectedHandler)

	// Combine both handlers
	mainMux := http.NewServeMux()
	mainMux.Handle("/v1/", protectedHandler)
	mainMux.Handle("/", publicHandler) // Catch-all for public routes (/health, etc.)

	// Logging runs inside otelhttp so r.Context() carries the span (and its
	// trace_id) by the time access logs are written. RequestID runs outermost
	// so request_id is present everywhere.
	otelOpts := []otelhttp.Option{
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	}
	if tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(tracerProvider))
	}

	var handler http.Handler = otelhttp.NewHandler(middleware.Logging(mainMux), "lumina-api", otelOpts...)
	handler = middleware.RequestID(handler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Start the job processor loop
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go processor.Run(workerCtx)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Stop accepting new HTTP requests
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// 2. Stop the job processor. The queue is in-memory, so anything still
	// pending is lost; log the count for visibility.
	workerCancel()

	if pending := queue.Len(); pending > 0 {
		slog.Warn("Discarding pending jobs on shutdown", "pending", pending)
	}

	// 3. Flush any buffered spans
	if err := observability.ShutdownTracerProvider(shutdownCtx, tracerProvider); err != nil {
		slog.Error("Failed to shutdown tracer provider", "error", err)
	}

	slog.Info("Server exited")
}

// setupLogging configures slog with the specified log level
func setupLogging(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := observability.NewTraceContextHandler(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(slog.New(handler))
}
