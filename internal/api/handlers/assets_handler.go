package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/luminahq/lumina/internal/api/response"
	"github.com/luminahq/lumina/internal/jobs"
	"github.com/luminahq/lumina/internal/lumerrors"
	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/repository"
)

// AssetsRepository defines the data access the asset endpoints need.
type AssetsRepository interface {
	Create(ctx context.Context, asset *models.Asset) (*models.Asset, error)
	GetByID(ctx context.Context, id string) (*models.Asset, error)
	List(ctx context.Context, filters *repository.ListAssetsFilters) ([]models.Asset, error)
	Delete(ctx context.Context, id string) error
}

// JobEnqueuer enqueues pipeline jobs. Implemented by jobs.Processor.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, jobType jobs.JobType, assetID string, priority jobs.Priority)
}

// AssetsHandler handles asset CRUD and kicks off the ingestion pipeline for
// new assets.
type AssetsHandler struct {
	repo      AssetsRepository
	processor JobEnqueuer
}

// NewAssetsHandler creates a new assets handler.
func NewAssetsHandler(repo AssetsRepository, processor JobEnqueuer) *AssetsHandler {
	return &AssetsHandler{repo: repo, processor: processor}
}

// CreateAssetRequest is the body for POST /v1/assets.
type CreateAssetRequest struct {
	Name     string           `json:"name"`
	Filename string           `json:"filename"`
	Type     models.AssetType `json:"type"`
	MimeType string           `json:"mime_type"`
	URL      string           `json:"url"`
	UserID   string           `json:"user_id"`
	FolderID string           `json:"folder_id"`
	Tags     []string         `json:"tags"`
	Priority string           `json:"priority"`
}

// AssetResponse is an asset plus its derived vectorization status.
type AssetResponse struct {
	models.Asset

	VectorStatus models.VectorStatus `json:"vector_status"`
}

func assetResponse(asset *models.Asset) AssetResponse {
	return AssetResponse{Asset: *asset, VectorStatus: asset.VectorStatus()}
}

// Create handles POST /v1/assets: persists the asset and enqueues the first
// pipeline job for its type.
func (h *AssetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAssetRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if strings.TrimSpace(req.Name) == "" {
		response.RespondBadRequest(w, "name is required")

		return
	}

	if strings.TrimSpace(req.URL) == "" {
		response.RespondBadRequest(w, "url is required")

		return
	}

	if strings.TrimSpace(req.UserID) == "" {
		response.RespondBadRequest(w, "user_id is required")

		return
	}

	priority, err := parsePriority(req.Priority, jobs.PriorityNormal)
	if err != nil {
		response.RespondUnprocessableEntity(w, err.Error())

		return
	}

	assetType := req.Type
	if assetType == "" {
		assetType = models.AssetTypeOther
	}

	asset := &models.Asset{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Filename: req.Filename,
		Type:     assetType,
		MimeType: req.MimeType,
		URL:      req.URL,
		UserID:   req.UserID,
		FolderID: req.FolderID,
		Tags:     req.Tags,
	}

	created, err := h.repo.Create(r.Context(), asset)
	if err != nil {
		logError(r, "create asset failed", err)
		response.RespondInternalServerError(w, "failed to create asset")

		return
	}

	h.processor.Enqueue(r.Context(), initialJobType(created.Type), created.ID, priority)

	response.RespondJSON(w, http.StatusCreated, assetResponse(created))
}

// Get handles GET /v1/assets/{id}.
func (h *AssetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	asset, err := h.repo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, lumerrors.ErrAssetNotFound) {
			response.RespondNotFound(w, "asset not found")

			return
		}

		logError(r, "get asset failed", err)
		response.RespondInternalServerError(w, "failed to get asset")

		return
	}

	response.RespondJSON(w, http.StatusOK, assetResponse(asset))
}

// ListAssetsResponse is the envelope for GET /v1/assets.
type ListAssetsResponse struct {
	Assets []AssetResponse `json:"assets"`
	Total  int             `json:"total"`
}

// List handles GET /v1/assets.
// Query parameters: user_id, folder_id, type, limit, offset.
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := &repository.ListAssetsFilters{
		UserID:   queryString(r, "user_id"),
		FolderID: queryString(r, "folder_id"),
		Limit:    queryInt(r, "limit", 0),
		Offset:   queryInt(r, "offset", 0),
	}

	if t := queryString(r, "type"); t != nil {
		assetType := models.AssetType(*t)
		filters.Type = &assetType
	}

	assets, err := h.repo.List(r.Context(), filters)
	if err != nil {
		logError(r, "list assets failed", err)
		response.RespondInternalServerError(w, "failed to list assets")

		return
	}

	out := make([]AssetResponse, len(assets))
	for i := range assets {
		out[i] = assetResponse(&assets[i])
	}

	response.RespondJSON(w, http.StatusOK, ListAssetsResponse{Assets: out, Total: len(out)})
}

// Delete handles DELETE /v1/assets/{id}: removes the asset row and enqueues
// vector cleanup.
func (h *AssetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, lumerrors.ErrAssetNotFound) {
			response.RespondNotFound(w, "asset not found")

			return
		}

		logError(r, "delete asset failed", err)
		response.RespondInternalServerError(w, "failed to delete asset")

		return
	}

	// The remove job still cleans up vectors even though the row is gone.
	h.processor.Enqueue(r.Context(), jobs.JobTypeRemove, id, jobs.PriorityHigh)

	w.WriteHeader(http.StatusNoContent)
}

// initialJobType maps an asset type to the first pipeline stage it needs.
// CSV and document types go through extraction; everything else is indexed
// directly from its metadata.
func initialJobType(assetType models.AssetType) jobs.JobType {
	switch assetType {
	case models.AssetTypeCSV:
		return jobs.JobTypeExtractCSV
	case models.AssetTypePDF, models.AssetTypeDocument:
		return jobs.JobTypeExtractPDF
	default:
		return jobs.JobTypeAdd
	}
}
