package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/luminahq/lumina/internal/lumerrors"
	"github.com/luminahq/lumina/internal/models"
)

// AssetsRepository is the asset persistence surface the processor needs.
type AssetsRepository interface {
	GetByID(ctx context.Context, id string) (*models.Asset, error)
	UpdateMetadata(ctx context.Context, id string, metadata models.AssetMetadata) error
}

// VectorWriter is the vector store surface the processor needs.
type VectorWriter interface {
	AddAsset(ctx context.Context, asset *models.Asset) error
	AddDocumentChunks(ctx context.Context, chunks []models.Chunk, parent *models.Asset) error
	RemoveAsset(ctx context.Context, assetID string) error
	RemoveDocumentChunks(ctx context.Context, assetID string) error
}

// Extractor turns a source file into extracted content.
type Extractor interface {
	Extract(ctx context.Context, source string) (*models.ExtractionResult, error)
}

// CSVChunker converts a CSV extraction into chunks.
type CSVChunker interface {
	Chunk(extraction *models.CSVExtraction, assetID string) []models.Chunk
}

// DocumentChunker converts a document extraction into chunks.
type DocumentChunker interface {
	Chunk(extraction *models.PDFExtraction, assetID string) []models.Chunk
}

// ImageAnalyzer runs vision analysis for image assets that still have
// analysis pending. Optional; without one, pending analysis is skipped.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, asset *models.Asset) (*models.ImageAnalysis, error)
}

// JobFailure describes one failed job in a Report.
type JobFailure struct {
	JobType JobType `json:"job_type"`
	AssetID string  `json:"asset_id"`
	Error   string  `json:"error"`
}

// Report summarizes one ProcessJobs run.
type Report struct {
	Processed int          `json:"processed"`
	Failed    int          `json:"failed"`
	Failures  []JobFailure `json:"failures,omitempty"`
}

// Processor drains the queue on a timer and dispatches jobs through the
// extract/chunk/vectorize pipeline. Jobs in one batch run sequentially, never
// concurrently, so two jobs cannot race on the same asset.
type Processor struct {
	queue       *Queue
	assets      AssetsRepository
	vectors     VectorWriter
	csvExtract  Extractor
	pdfExtract  Extractor
	csvChunk    CSVChunker
	docChunk    DocumentChunker
	analyzer    ImageAnalyzer
	logger      *slog.Logger
	batchSize   int
	maxAttempts int
	interval    time.Duration
	backoff     BackoffPolicy
}

// ProcessorParams configures a Processor. Analyzer and Logger may be nil;
// zero batch/attempt/interval values fall back to defaults.
type ProcessorParams struct {
	Queue        *Queue
	Assets       AssetsRepository
	Vectors      VectorWriter
	CSVExtractor Extractor
	PDFExtractor Extractor
	CSVChunker   CSVChunker
	DocChunker   DocumentChunker
	Analyzer     ImageAnalyzer
	Logger       *slog.Logger
	BatchSize    int
	MaxAttempts  int
	PollInterval time.Duration
	Backoff      BackoffPolicy
}

// NewProcessor creates a job processor.
func NewProcessor(p ProcessorParams) *Processor {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if p.BatchSize <= 0 {
		p.BatchSize = 5
	}

	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}

	if p.PollInterval <= 0 {
		p.PollInterval = 5 * time.Second
	}

	if p.Backoff == (BackoffPolicy{}) {
		p.Backoff = DefaultBackoffPolicy
	}

	return &Processor{
		queue:       p.Queue,
		assets:      p.Assets,
		vectors:     p.Vectors,
		csvExtract:  p.CSVExtractor,
		pdfExtract:  p.PDFExtractor,
		csvChunk:    p.CSVChunker,
		docChunk:    p.DocChunker,
		analyzer:    p.Analyzer,
		logger:      logger,
		batchSize:   p.BatchSize,
		maxAttempts: p.MaxAttempts,
		interval:    p.PollInterval,
		backoff:     p.Backoff,
	}
}

// Enqueue adds a job to the queue. The running loop picks it up on the next
// tick; marker flags (extraction/vectorization pending) are set here so the
// asset's status reflects queued work immediately.
func (p *Processor) Enqueue(ctx context.Context, jobType JobType, assetID string, priority Priority) {
	p.queue.Enqueue(jobType, assetID, priority)
	p.logger.Info("job enqueued", "job_type", jobType, "asset_id", assetID, "priority", priority)

	switch jobType {
	case JobTypeExtractCSV, JobTypeExtractPDF:
		p.markPending(ctx, assetID, func(m *models.AssetMetadata) {
			m.ExtractionPending = true
			m.ExtractionFailed = false
			m.ExtractionError = ""
		})
	case JobTypeVectorizeCSV, JobTypeVectorizePDF:
		p.markPending(ctx, assetID, func(m *models.AssetMetadata) {
			m.VectorizationPending = true
			m.VectorizationFailed = false
			m.VectorizationError = ""
		})
	}
}

// markPending applies a metadata mutation, ignoring missing assets.
func (p *Processor) markPending(ctx context.Context, assetID string, mutate func(*models.AssetMetadata)) {
	asset, err := p.assets.GetByID(ctx, assetID)
	if err != nil {
		if !errors.Is(err, lumerrors.ErrAssetNotFound) {
			p.logger.Warn("failed to load asset for pending flag", "asset_id", assetID, "error", err)
		}

		return
	}

	mutate(&asset.Metadata)

	if err := p.assets.UpdateMetadata(ctx, assetID, asset.Metadata); err != nil {
		p.logger.Warn("failed to set pending flag", "asset_id", assetID, "error", err)
	}
}

// Run drives the batch loop until ctx is cancelled. Each tick drains up to
// batchSize jobs.
func (p *Processor) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("job processor started", "interval", p.interval, "batch_size", p.batchSize)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("job processor stopped", "pending", p.queue.Len())

			return
		case <-ticker.C:
			p.ProcessJobs(ctx, p.batchSize)
		}
	}
}

// ProcessJobs synchronously processes up to maxJobs eligible jobs and reports
// the outcome. One job's failure does not abort the batch.
func (p *Processor) ProcessJobs(ctx context.Context, maxJobs int) Report {
	report := Report{}

	for _, job := range p.queue.Pop(maxJobs, time.Now()) {
		err := p.processJob(ctx, job)
		if err == nil {
			report.Processed++

			continue
		}

		report.Failed++
		report.Failures = append(report.Failures, JobFailure{
			JobType: job.Type,
			AssetID: job.AssetID,
			Error:   err.Error(),
		})

		p.retry(job, err)
	}

	return report
}

// retry re-enqueues a failed job at low priority with backoff, or drops it
// once attempts are exhausted.
func (p *Processor) retry(job Job, cause error) {
	job.Attempts++

	if job.Attempts >= p.maxAttempts {
		p.logger.Error("job dropped after max attempts",
			"job_type", job.Type,
			"asset_id", job.AssetID,
			"attempts", job.Attempts,
			"error", cause,
		)

		return
	}

	job.Priority = PriorityLow
	job.NotBefore = time.Now().Add(p.backoff.Delay(job.Attempts))
	p.queue.Push(job)

	p.logger.Warn("job re-enqueued",
		"job_type", job.Type,
		"asset_id", job.AssetID,
		"attempt", job.Attempts,
		"error", cause,
	)
}

// processJob dispatches one job. A missing asset is a silent no-op: the asset
// was deleted between enqueue and processing.
func (p *Processor) processJob(ctx context.Context, job Job) error {
	asset, err := p.assets.GetByID(ctx, job.AssetID)
	if err != nil {
		if errors.Is(err, lumerrors.ErrAssetNotFound) {
			if job.Type == JobTypeRemove {
				return p.removeVectors(ctx, job.AssetID)
			}

			p.logger.Debug("asset gone, skipping job", "job_type", job.Type, "asset_id", job.AssetID)

			return nil
		}

		return fmt.Errorf("load asset %s: %w", job.AssetID, err)
	}

	switch job.Type {
	case JobTypeAdd, JobTypeUpdate:
		return p.upsertAsset(ctx, asset)
	case JobTypeRemove:
		return p.removeVectors(ctx, job.AssetID)
	case JobTypeExtractCSV:
		return p.extract(ctx, asset, p.csvExtract, JobTypeVectorizeCSV, job.Priority)
	case JobTypeExtractPDF:
		return p.extract(ctx, asset, p.pdfExtract, JobTypeVectorizePDF, job.Priority)
	case JobTypeVectorizeCSV:
		return p.vectorize(ctx, asset, JobTypeExtractCSV, job.Priority)
	case JobTypeVectorizePDF:
		return p.vectorize(ctx, asset, JobTypeExtractPDF, job.Priority)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

// upsertAsset refreshes the asset-level vector, running pending image
// analysis first when an analyzer is configured.
func (p *Processor) upsertAsset(ctx context.Context, asset *models.Asset) error {
	if asset.Metadata.AIAnalysisPending && p.analyzer != nil {
		analysis, err := p.analyzer.Analyze(ctx, asset)
		if err != nil {
			p.logger.Warn("image analysis failed, indexing without it", "asset_id", asset.ID, "error", err)
		} else {
			asset.Metadata.Image = analysis
			asset.Metadata.AIAnalysisPending = false

			if err := p.assets.UpdateMetadata(ctx, asset.ID, asset.Metadata); err != nil {
				return fmt.Errorf("persist image analysis for %s: %w", asset.ID, err)
			}
		}
	}

	if err := p.vectors.AddAsset(ctx, asset); err != nil {
		return fmt.Errorf("add asset vector %s: %w", asset.ID, err)
	}

	return nil
}

func (p *Processor) removeVectors(ctx context.Context, assetID string) error {
	if err := p.vectors.RemoveAsset(ctx, assetID); err != nil {
		return fmt.Errorf("remove asset vector %s: %w", assetID, err)
	}

	if err := p.vectors.RemoveDocumentChunks(ctx, assetID); err != nil {
		return fmt.Errorf("remove chunk vectors %s: %w", assetID, err)
	}

	return nil
}

// extract runs the extractor and persists the result on the asset. An
// extraction failure is recorded on the asset's metadata instead of failing
// the job; success self-enqueues the matching vectorize job.
func (p *Processor) extract(
	ctx context.Context, asset *models.Asset, extractor Extractor, next JobType, priority Priority,
) error {
	result, err := extractor.Extract(ctx, asset.URL)
	if err != nil {
		var extractionErr *lumerrors.ExtractionError
		if errors.As(err, &extractionErr) {
			asset.Metadata.ExtractionPending = false
			asset.Metadata.ExtractionFailed = true
			asset.Metadata.ExtractionError = extractionErr.Error()

			if updateErr := p.assets.UpdateMetadata(ctx, asset.ID, asset.Metadata); updateErr != nil {
				return fmt.Errorf("record extraction failure for %s: %w", asset.ID, updateErr)
			}

			p.logger.Warn("extraction failed", "asset_id", asset.ID, "error", err)

			return nil
		}

		return fmt.Errorf("extract %s: %w", asset.ID, err)
	}

	asset.Metadata.ExtractedContent = result
	asset.Metadata.ExtractionPending = false
	asset.Metadata.ExtractionFailed = false
	asset.Metadata.ExtractionError = ""
	asset.Metadata.VectorizationPending = true

	if err := p.assets.UpdateMetadata(ctx, asset.ID, asset.Metadata); err != nil {
		return fmt.Errorf("persist extraction for %s: %w", asset.ID, err)
	}

	p.queue.Enqueue(next, asset.ID, priority)
	p.logger.Info("extraction complete", "asset_id", asset.ID, "next_job", next)

	return nil
}

// vectorize chunks the extracted content and writes asset plus chunk vectors.
// Missing extracted content re-enqueues the extraction job instead of
// failing. A vectorization failure is recorded on the asset's metadata.
func (p *Processor) vectorize(
	ctx context.Context, asset *models.Asset, extractionJob JobType, priority Priority,
) error {
	extracted := asset.Metadata.ExtractedContent
	if extracted == nil {
		p.logger.Info("no extracted content, re-enqueueing extraction", "asset_id", asset.ID)
		p.Enqueue(ctx, extractionJob, asset.ID, priority)

		return nil
	}

	var chunks []models.Chunk

	switch {
	case extracted.CSV != nil:
		chunks = p.csvChunk.Chunk(extracted.CSV, asset.ID)
	case extracted.PDF != nil:
		chunks = p.docChunk.Chunk(extracted.PDF, asset.ID)
	}

	err := p.writeVectors(ctx, asset, chunks)
	if err != nil {
		asset.Metadata.VectorizationPending = false
		asset.Metadata.VectorizationFailed = true
		asset.Metadata.VectorizationError = err.Error()

		if updateErr := p.assets.UpdateMetadata(ctx, asset.ID, asset.Metadata); updateErr != nil {
			return fmt.Errorf("record vectorization failure for %s: %w", asset.ID, updateErr)
		}

		p.logger.Warn("vectorization failed", "asset_id", asset.ID, "error", err)

		return nil
	}

	now := time.Now()
	asset.Metadata.Vectorized = true
	asset.Metadata.VectorLastUpdated = &now
	asset.Metadata.VectorizationPending = false
	asset.Metadata.VectorizationFailed = false
	asset.Metadata.VectorizationError = ""

	if err := p.assets.UpdateMetadata(ctx, asset.ID, asset.Metadata); err != nil {
		return fmt.Errorf("persist vectorization for %s: %w", asset.ID, err)
	}

	p.logger.Info("vectorization complete", "asset_id", asset.ID, "chunks", len(chunks))

	return nil
}

// writeVectors replaces the asset's chunk vectors and refreshes its
// asset-level vector. Old chunks are removed first so a re-vectorization of
// shorter content leaves no stale records.
func (p *Processor) writeVectors(ctx context.Context, asset *models.Asset, chunks []models.Chunk) error {
	if err := p.vectors.RemoveDocumentChunks(ctx, asset.ID); err != nil {
		return fmt.Errorf("remove stale chunks: %w", err)
	}

	if err := p.vectors.AddDocumentChunks(ctx, chunks, asset); err != nil {
		return fmt.Errorf("add chunks: %w", err)
	}

	if err := p.vectors.AddAsset(ctx, asset); err != nil {
		return fmt.Errorf("add asset vector: %w", err)
	}

	return nil
}
