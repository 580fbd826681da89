// Package service contains the vector store: searchable-text construction,
// embedding, similarity search, and document summaries on top of the vector
// records repository.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/luminahq/lumina/internal/embeddings"
	"github.com/luminahq/lumina/internal/lumerrors"
	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/repository"
	vecmath "github.com/luminahq/lumina/pkg/embeddings"
)

const (
	// UpsertBatchSize caps how many records go into one batch write, and how
	// many texts go into one embedding call.
	UpsertBatchSize = 100

	defaultSearchLimit     = 10
	defaultQueryCacheSize  = 512
	defaultSummaryKeywords = 10
)

// ErrEmptyQuery is returned for blank search queries (used by handlers for
// status mapping).
var ErrEmptyQuery = errors.New("query is required and must be non-empty")

// VectorRecordsRepository is the persistence surface the vector store needs.
type VectorRecordsRepository interface {
	Upsert(ctx context.Context, record *models.VectorRecord) error
	UpsertBatch(ctx context.Context, records []models.VectorRecord) error
	Delete(ctx context.Context, id string) error
	DeleteByIDs(ctx context.Context, ids []string) error
	Nearest(
		ctx context.Context, queryEmbedding []float32, filter *repository.NearestFilter, minScore float64, limit int,
	) ([]models.SearchResult, error)
	ListByAsset(ctx context.Context, assetID, recordType string, limit int) ([]models.VectorRecord, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// VectorStore embeds searchable text and reads/writes the similarity index.
// When the backing index is unreachable at startup the store degrades to a
// disabled state: writes become no-ops and searches return empty results
// instead of errors.
type VectorStore struct {
	records   VectorRecordsRepository
	embedder  embeddings.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
	dimension int
	capacity  int64
	threshold float64

	queryCache     *lru.Cache[string, []float32]
	queryLoadGroup singleflight.Group

	enabled atomic.Bool
}

// VectorStoreParams configures a VectorStore. Limiter and Logger may be nil.
type VectorStoreParams struct {
	Records   VectorRecordsRepository
	Embedder  embeddings.Client
	Limiter   *rate.Limiter
	Logger    *slog.Logger
	Dimension int
	// Capacity is the nominal index size used to report fullness in stats.
	Capacity int64
	// Threshold is the default minimum similarity score for searches.
	Threshold      float64
	QueryCacheSize int
}

// NewVectorStore creates a VectorStore and checks the backing index once.
// An unreachable index is logged, not returned: the store starts disabled.
func NewVectorStore(ctx context.Context, p VectorStoreParams) *VectorStore {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cacheSize := p.QueryCacheSize
	if cacheSize <= 0 {
		cacheSize = defaultQueryCacheSize
	}

	// lru.New only fails on non-positive size.
	queryCache, _ := lru.New[string, []float32](cacheSize)

	s := &VectorStore{
		records:    p.Records,
		embedder:   p.Embedder,
		limiter:    p.Limiter,
		logger:     logger,
		dimension:  p.Dimension,
		capacity:   p.Capacity,
		threshold:  p.Threshold,
		queryCache: queryCache,
	}

	if err := p.Records.Ping(ctx); err != nil {
		logger.Error("vector store unavailable, continuing in disabled mode", "error", err)
	} else {
		s.enabled.Store(true)
	}

	return s
}

// Enabled reports whether the backing index was reachable at startup.
func (s *VectorStore) Enabled() bool {
	return s.enabled.Load()
}

// AddAsset builds the asset-level searchable text, embeds it, and upserts one
// record keyed by the asset ID. Image assets with a precomputed hybrid
// embedding skip the embedding call. No-op when the store is disabled.
func (s *VectorStore) AddAsset(ctx context.Context, asset *models.Asset) error {
	if !s.Enabled() {
		s.logger.Debug("vector store disabled, skipping add asset", "asset_id", asset.ID)

		return nil
	}

	text := BuildAssetSearchableText(asset)
	if strings.TrimSpace(text) == "" {
		s.logger.Warn("asset has no searchable text, skipping", "asset_id", asset.ID)

		return nil
	}

	var (
		embedding []float32
		err       error
	)

	if image := asset.Metadata.Image; image != nil && len(image.HybridEmbedding) > 0 {
		// Hybrid embeddings arrive from the vision pipeline unnormalized.
		embedding = append([]float32(nil), image.HybridEmbedding...)
		vecmath.NormalizeL2(embedding)
	} else {
		embedding, err = s.embed(ctx, text)
		if err != nil {
			return fmt.Errorf("embed asset %s: %w", asset.ID, err)
		}
	}

	record := &models.VectorRecord{
		ID:        asset.ID,
		Embedding: embedding,
		Metadata: models.RecordMetadata{
			Type:      models.RecordTypeAsset,
			AssetID:   asset.ID,
			UserID:    asset.UserID,
			FolderID:  asset.FolderID,
			AssetType: asset.Type,
			Name:      asset.Name,
			Preview:   truncate(text, previewLength),
		},
	}

	if err := s.records.Upsert(ctx, record); err != nil {
		return fmt.Errorf("upsert asset vector %s: %w", asset.ID, err)
	}

	s.logger.Info("asset vector upserted", "asset_id", asset.ID, "type", asset.Type)

	return nil
}

// AddDocumentChunks embeds and upserts chunk-level records in batches of at
// most UpsertBatchSize. Record IDs follow "{assetID}_chunk_{i}". No-op when
// the store is disabled.
func (s *VectorStore) AddDocumentChunks(ctx context.Context, chunks []models.Chunk, parent *models.Asset) error {
	if !s.Enabled() {
		s.logger.Debug("vector store disabled, skipping add chunks", "asset_id", parent.ID)

		return nil
	}

	if len(chunks) == 0 {
		return nil
	}

	for start := 0; start < len(chunks); start += UpsertBatchSize {
		end := start + UpsertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = BuildChunkSearchableText(&batch[i], parent)
		}

		vectors, err := s.embedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks for asset %s: %w", parent.ID, err)
		}

		records := make([]models.VectorRecord, len(batch))
		for i := range batch {
			chunk := &batch[i]
			records[i] = models.VectorRecord{
				ID:        chunk.ID,
				Embedding: vectors[i],
				Metadata: models.RecordMetadata{
					Type:       models.RecordTypeDocumentChunk,
					AssetID:    parent.ID,
					UserID:     parent.UserID,
					FolderID:   parent.FolderID,
					AssetType:  parent.Type,
					Name:       parent.Name,
					ChunkIndex: start + i,
					ChunkType:  chunk.Type,
					Title:      chunk.Metadata.Title,
					Section:    chunk.Metadata.Section,
					Keywords:   chunk.Metadata.Keywords,
					WordCount:  chunk.Metadata.WordCount,
					Quality:    chunk.Metadata.QualityScore,
					Preview:    truncate(chunk.Content, previewLength),
				},
			}
		}

		if err := s.records.UpsertBatch(ctx, records); err != nil {
			return fmt.Errorf("upsert chunk vectors for asset %s: %w", parent.ID, err)
		}
	}

	s.logger.Info("document chunks upserted", "asset_id", parent.ID, "chunks", len(chunks))

	return nil
}

// RemoveAsset deletes the single asset-level record. No-op when disabled.
func (s *VectorStore) RemoveAsset(ctx context.Context, assetID string) error {
	if !s.Enabled() {
		return nil
	}

	if err := s.records.Delete(ctx, assetID); err != nil {
		return fmt.Errorf("delete asset vector %s: %w", assetID, err)
	}

	return nil
}

// RemoveDocumentChunks enumerates the asset's chunk records via the metadata
// filter (chunk IDs are not otherwise listable) and deletes them in batches.
func (s *VectorStore) RemoveDocumentChunks(ctx context.Context, assetID string) error {
	if !s.Enabled() {
		return nil
	}

	records, err := s.records.ListByAsset(ctx, assetID, models.RecordTypeDocumentChunk, 0)
	if err != nil {
		return fmt.Errorf("list chunk vectors for asset %s: %w", assetID, err)
	}

	if len(records) == 0 {
		return nil
	}

	ids := make([]string, len(records))
	for i, record := range records {
		ids[i] = record.ID
	}

	for start := 0; start < len(ids); start += UpsertBatchSize {
		end := start + UpsertBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		if err := s.records.DeleteByIDs(ctx, ids[start:end]); err != nil {
			return fmt.Errorf("delete chunk vectors for asset %s: %w", assetID, err)
		}
	}

	s.logger.Info("document chunks removed", "asset_id", assetID, "chunks", len(ids))

	return nil
}

// SearchOptions narrows an asset-level search. A nil Threshold uses the
// store default; nil Type and FolderID are not applied.
type SearchOptions struct {
	Limit     int
	Threshold *float64
	Type      *models.AssetType
	FolderID  *string
}

// SearchAssets embeds the query and returns asset-level matches with
// score >= threshold. A nil userID searches globally; the user filter is
// omitted entirely rather than matched against an empty string.
func (s *VectorStore) SearchAssets(
	ctx context.Context, query string, userID *string, opts SearchOptions,
) ([]models.SearchResult, error) {
	if !s.Enabled() {
		return []models.SearchResult{}, nil
	}

	embedding, err := s.queryEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	filter := &repository.NearestFilter{
		Type:     models.RecordTypeAsset,
		UserID:   userID,
		FolderID: opts.FolderID,
	}

	if opts.Type != nil {
		assetType := string(*opts.Type)
		filter.AssetType = &assetType
	}

	results, err := s.records.Nearest(ctx, embedding, filter, s.minScore(opts.Threshold), s.limit(opts.Limit))
	if err != nil {
		return nil, fmt.Errorf("search assets: %w", err)
	}

	return results, nil
}

// ChunkSearchOptions narrows a chunk-level search. A nil AssetID searches
// across all documents.
type ChunkSearchOptions struct {
	Limit     int
	Threshold *float64
	AssetID   *string
}

// SearchDocumentChunks is the chunk-level counterpart of SearchAssets,
// restricted to document_chunk records with an optional asset filter.
func (s *VectorStore) SearchDocumentChunks(
	ctx context.Context, query string, userID *string, opts ChunkSearchOptions,
) ([]models.SearchResult, error) {
	if !s.Enabled() {
		return []models.SearchResult{}, nil
	}

	embedding, err := s.queryEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	filter := &repository.NearestFilter{
		Type:    models.RecordTypeDocumentChunk,
		UserID:  userID,
		AssetID: opts.AssetID,
	}

	results, err := s.records.Nearest(ctx, embedding, filter, s.minScore(opts.Threshold), s.limit(opts.Limit))
	if err != nil {
		return nil, fmt.Errorf("search document chunks: %w", err)
	}

	return results, nil
}

// HybridSearchOptions configures a hybrid search. IncludeAssets and
// IncludeChunks default to true via DefaultHybridSearchOptions.
type HybridSearchOptions struct {
	IncludeAssets bool
	IncludeChunks bool
	AssetLimit    int
	ChunkLimit    int
	Threshold     *float64
}

// DefaultHybridSearchOptions returns the options used when a caller passes
// none: both result sets included, default limits.
func DefaultHybridSearchOptions() HybridSearchOptions {
	return HybridSearchOptions{
		IncludeAssets: true,
		IncludeChunks: true,
		AssetLimit:    defaultSearchLimit,
		ChunkLimit:    defaultSearchLimit,
	}
}

// HybridSearch runs the asset-level and chunk-level searches independently
// and unions the result sets. The two sets are deliberately not fused or
// re-ranked against each other; they feed separate result facets.
func (s *VectorStore) HybridSearch(
	ctx context.Context, query string, userID *string, opts HybridSearchOptions,
) (*models.HybridSearchResult, error) {
	result := &models.HybridSearchResult{
		Assets: []models.SearchResult{},
		Chunks: []models.SearchResult{},
	}

	if !s.Enabled() {
		return result, nil
	}

	if opts.IncludeAssets {
		assets, err := s.SearchAssets(ctx, query, userID, SearchOptions{
			Limit:     opts.AssetLimit,
			Threshold: opts.Threshold,
		})
		if err != nil {
			return nil, err
		}

		result.Assets = assets
	}

	if opts.IncludeChunks {
		chunks, err := s.SearchDocumentChunks(ctx, query, userID, ChunkSearchOptions{
			Limit:     opts.ChunkLimit,
			Threshold: opts.Threshold,
		})
		if err != nil {
			return nil, err
		}

		result.Chunks = chunks
	}

	result.TotalResults = len(result.Assets) + len(result.Chunks)

	return result, nil
}

// GetDocumentSummary aggregates chunk metadata for one asset without any
// similarity query: chunk count, total word count, distinct sections, top
// keywords by frequency, and average quality. Returns nil when the asset has
// no chunks (or none owned by userID).
func (s *VectorStore) GetDocumentSummary(
	ctx context.Context, assetID string, userID *string, maxChunks int,
) (*models.DocumentSummary, error) {
	if !s.Enabled() {
		return nil, nil
	}

	records, err := s.records.ListByAsset(ctx, assetID, models.RecordTypeDocumentChunk, maxChunks)
	if err != nil {
		return nil, fmt.Errorf("document summary for asset %s: %w", assetID, err)
	}

	summary := &models.DocumentSummary{AssetID: assetID}

	var (
		qualityTotal  float64
		sectionsSeen  = make(map[string]struct{})
		keywordCounts = make(map[string]int)
	)

	for _, record := range records {
		md := record.Metadata
		if userID != nil && md.UserID != *userID {
			continue
		}

		summary.ChunkCount++
		summary.TotalWordCount += md.WordCount
		qualityTotal += md.Quality

		if md.Section != "" {
			if _, seen := sectionsSeen[md.Section]; !seen {
				sectionsSeen[md.Section] = struct{}{}
				summary.Sections = append(summary.Sections, md.Section)
			}
		}

		for _, kw := range md.Keywords {
			keywordCounts[kw]++
		}
	}

	if summary.ChunkCount == 0 {
		return nil, nil
	}

	summary.AverageQuality = qualityTotal / float64(summary.ChunkCount)
	summary.TopKeywords = topKeywords(keywordCounts, defaultSummaryKeywords)

	return summary, nil
}

// GetStats reports index availability, record count, dimension, and
// fullness relative to the configured capacity.
func (s *VectorStore) GetStats(ctx context.Context) (*models.VectorStoreStats, error) {
	stats := &models.VectorStoreStats{
		Available: s.Enabled(),
		Dimension: s.dimension,
	}

	if !stats.Available {
		return stats, nil
	}

	total, err := s.records.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("vector store stats: %w", err)
	}

	stats.TotalVectors = total
	if s.capacity > 0 {
		stats.IndexFullness = float64(total) / float64(s.capacity)
	}

	return stats, nil
}

// embed generates one embedding, honoring the rate limiter when configured.
func (s *VectorStore) embed(ctx context.Context, text string) ([]float32, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embedding rate limit: %w", err)
		}
	}

	vec, err := s.embedder.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, lumerrors.NewEmbeddingError(err)
	}

	vecmath.NormalizeL2(vec)

	return vec, nil
}

// embedBatch generates embeddings for a batch of texts in one call.
func (s *VectorStore) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embedding rate limit: %w", err)
		}
	}

	vecs, err := s.embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		return nil, lumerrors.NewEmbeddingError(err)
	}

	for _, vec := range vecs {
		vecmath.NormalizeL2(vec)
	}

	return vecs, nil
}

// queryEmbedding returns the embedding for a search query, cached by exact
// query text. Concurrent misses for the same query share one embedding call.
func (s *VectorStore) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if vec, ok := s.queryCache.Get(query); ok {
		return vec, nil
	}

	val, err, _ := s.queryLoadGroup.Do(query, func() (any, error) {
		vec, loadErr := s.embed(ctx, query)
		if loadErr != nil {
			return nil, loadErr
		}

		s.queryCache.Add(query, vec)

		return vec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	return val.([]float32), nil
}

func (s *VectorStore) minScore(threshold *float64) float64 {
	if threshold != nil {
		return *threshold
	}

	return s.threshold
}

func (s *VectorStore) limit(limit int) int {
	if limit > 0 {
		return limit
	}

	return defaultSearchLimit
}

// topKeywords returns the limit most frequent keywords, ties broken
// alphabetically for deterministic output.
func topKeywords(counts map[string]int, limit int) []string {
	if len(counts) == 0 {
		return nil
	}

	keywords := make([]string, 0, len(counts))
	for kw := range counts {
		keywords = append(keywords, kw)
	}

	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}

		return keywords[i] < keywords[j]
	})

	if len(keywords) > limit {
		keywords = keywords[:limit]
	}

	return keywords
}
