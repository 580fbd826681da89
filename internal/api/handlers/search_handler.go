package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/luminahq/lumina/internal/api/response"
	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/service"
)

// maxSearchLimit caps how many results a single request may ask for.
const maxSearchLimit = 100

// SearchStore defines the vector store surface the search endpoints need.
type SearchStore interface {
	SearchAssets(ctx context.Context, query string, userID *string, opts service.SearchOptions) ([]models.SearchResult, error)
	SearchDocumentChunks(ctx context.Context, query string, userID *string, opts service.ChunkSearchOptions) ([]models.SearchResult, error)
	HybridSearch(ctx context.Context, query string, userID *string, opts service.HybridSearchOptions) (*models.HybridSearchResult, error)
	GetDocumentSummary(ctx context.Context, assetID string, userID *string, maxChunks int) (*models.DocumentSummary, error)
	GetStats(ctx context.Context) (*models.VectorStoreStats, error)
}

// SearchHandler handles HTTP requests for semantic search over assets and
// document chunks.
type SearchHandler struct {
	store SearchStore
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(store SearchStore) *SearchHandler {
	return &SearchHandler{store: store}
}

// SearchResponse is the envelope for asset and chunk search results.
type SearchResponse struct {
	Results []models.SearchResult `json:"results"`
	Total   int                   `json:"total"`
}

// SearchAssets handles GET /v1/search/assets.
// Query parameters: q (required), user_id, limit, threshold, type, folder_id.
// An absent user_id searches across all users.
func (h *SearchHandler) SearchAssets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	opts := service.SearchOptions{
		Limit:     searchLimit(r),
		Threshold: queryFloat(r, "threshold"),
		FolderID:  queryString(r, "folder_id"),
	}

	if t := queryString(r, "type"); t != nil {
		assetType := models.AssetType(*t)
		opts.Type = &assetType
	}

	results, err := h.store.SearchAssets(r.Context(), query, queryString(r, "user_id"), opts)
	if err != nil {
		respondSearchError(w, r, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, SearchResponse{Results: results, Total: len(results)})
}

// SearchChunks handles GET /v1/search/chunks.
// Query parameters: q (required), user_id, limit, threshold, asset_id.
func (h *SearchHandler) SearchChunks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	opts := service.ChunkSearchOptions{
		Limit:     searchLimit(r),
		Threshold: queryFloat(r, "threshold"),
		AssetID:   queryString(r, "asset_id"),
	}

	results, err := h.store.SearchDocumentChunks(r.Context(), query, queryString(r, "user_id"), opts)
	if err != nil {
		respondSearchError(w, r, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, SearchResponse{Results: results, Total: len(results)})
}

// HybridSearch handles GET /v1/search/hybrid.
// Query parameters: q (required), user_id, include_assets, include_chunks,
// asset_limit, chunk_limit, threshold. Both result sets are returned
// independently, without fusion.
func (h *SearchHandler) HybridSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	opts := service.DefaultHybridSearchOptions()
	opts.IncludeAssets = queryBool(r, "include_assets", opts.IncludeAssets)
	opts.IncludeChunks = queryBool(r, "include_chunks", opts.IncludeChunks)
	opts.AssetLimit = clampLimit(queryInt(r, "asset_limit", opts.AssetLimit))
	opts.ChunkLimit = clampLimit(queryInt(r, "chunk_limit", opts.ChunkLimit))
	opts.Threshold = queryFloat(r, "threshold")

	result, err := h.store.HybridSearch(r.Context(), query, queryString(r, "user_id"), opts)
	if err != nil {
		respondSearchError(w, r, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// DocumentSummary handles GET /v1/assets/{id}/summary.
// Query parameters: user_id, max_chunks. Returns 404 when the asset has no
// chunk vectors visible to the given user.
func (h *SearchHandler) DocumentSummary(w http.ResponseWriter, r *http.Request) {
	assetID := r.PathValue("id")
	if assetID == "" {
		response.RespondBadRequest(w, "asset id is required")

		return
	}

	summary, err := h.store.GetDocumentSummary(r.Context(), assetID, queryString(r, "user_id"), queryInt(r, "max_chunks", 0))
	if err != nil {
		respondSearchError(w, r, err)

		return
	}

	if summary == nil {
		response.RespondNotFound(w, "no document chunks for asset")

		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}

// Stats handles GET /v1/vector-store/stats.
func (h *SearchHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		respondSearchError(w, r, err)

		return
	}

	response.RespondJSON(w, http.StatusOK, stats)
}

func searchLimit(r *http.Request) int {
	return clampLimit(queryInt(r, "limit", 0))
}

func clampLimit(limit int) int {
	if limit > maxSearchLimit {
		return maxSearchLimit
	}

	return limit
}

func respondSearchError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrEmptyQuery) {
		response.RespondBadRequest(w, "q is required")

		return
	}

	logError(r, "search request failed", err)
	response.RespondInternalServerError(w, "search failed")
}
