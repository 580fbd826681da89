// backfill-vectors enqueues vectorization jobs for assets that already have
// extracted content but no vectors, then drains the queue synchronously. Run
// this after enabling the vector store on an existing asset database.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"golang.org/x/time/rate"

	"github.com/luminahq/lumina/internal/chunker"
	"github.com/luminahq/lumina/internal/embeddings"
	"github.com/luminahq/lumina/internal/extractor"
	"github.com/luminahq/lumina/internal/jobs"
	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/openai"
	"github.com/luminahq/lumina/internal/repository"
	"github.com/luminahq/lumina/internal/service"
	"github.com/luminahq/lumina/pkg/database"
)

const (
	defaultDimensions = 1536
	defaultRateLimit  = 5.0
	defaultBatchSize  = 5

	// idlePollInterval is the wait between drain attempts while retried jobs
	// sit out their backoff delay.
	idlePollInterval = 500 * time.Millisecond

	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env for consistency with the API server (godotenv.Load() there).
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		slog.Error("DATABASE_URL is required")

		return exitFailure
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		slog.Error("OPENAI_API_KEY is required; backfilling with mock embeddings would poison the index")

		return exitFailure
	}

	dimensions := getEnvAsInt("EMBEDDING_DIMENSIONS", defaultDimensions)
	rateLimit := getEnvAsFloat("EMBEDDING_RATE_LIMIT", defaultRateLimit)
	batchSize := getEnvAsInt("JOB_BATCH_SIZE", defaultBatchSize)

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, databaseURL, database.WithAfterConnect(pgxvec.RegisterTypes))
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	var embeddingClient embeddings.Client = openai.NewClient(apiKey, openai.WithDimensions(dimensions))

	assetsRepo := repository.NewAssetsRepository(db)
	vectorRecordsRepo := repository.NewVectorRecordsRepository(db)

	vectorStore := service.NewVectorStore(ctx, service.VectorStoreParams{
		Records:   vectorRecordsRepo,
		Embedder:  embeddingClient,
		Limiter:   rate.NewLimiter(rate.Limit(rateLimit), 1),
		Dimension: dimensions,
	})

	if !vectorStore.Enabled() {
		slog.Error("Vector store unavailable, nothing to backfill")

		return exitFailure
	}

	ids, err := assetsRepo.ListIDsForVectorBackfill(ctx)
	if err != nil {
		slog.Error("Failed to list assets for backfill", "error", err)

		return exitFailure
	}

	if len(ids) == 0 {
		slog.Info("No assets need vector backfill")

		return exitSuccess
	}

	queue := jobs.NewQueue()
	processor := jobs.NewProcessor(jobs.ProcessorParams{
		Queue:        queue,
		Assets:       assetsRepo,
		Vectors:      vectorStore,
		CSVExtractor: extractor.NewCSVExtractor(nil),
		PDFExtractor: extractor.NewPDFExtractor(nil),
		CSVChunker:   chunker.NewCSVChunker(),
		DocChunker:   chunker.NewDocumentChunker(chunker.DocumentChunkerParams{}),
	})

	enqueued := 0

	for _, id := range ids {
		asset, err := assetsRepo.GetByID(ctx, id)
		if err != nil {
			slog.Warn("Skipping asset", "asset_id", id, "error", err)

			continue
		}

		content := asset.Metadata.ExtractedContent
		if content == nil {
			continue
		}

		jobType := jobs.JobTypeVectorizePDF
		if content.Kind == models.ExtractionKindCSV {
			jobType = jobs.JobTypeVectorizeCSV
		}

		processor.Enqueue(ctx, jobType, id, jobs.PriorityLow)
		enqueued++
	}

	slog.Info("Backfill queued", "assets", enqueued)

	processed, failed := 0, 0

	for queue.Len() > 0 {
		report := processor.ProcessJobs(ctx, batchSize)
		processed += report.Processed
		failed += report.Failed

		// Retried jobs wait out their backoff before becoming eligible.
		if report.Processed == 0 && report.Failed == 0 {
			time.Sleep(idlePollInterval)
		}
	}

	slog.Info("Backfill complete", "processed", processed, "failed", failed)

	if failed > 0 {
		return exitFailure
	}

	return exitSuccess
}

func getEnvAsInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultValue
	}

	return n
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return defaultValue
	}

	return f
}
