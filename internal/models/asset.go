// Package models contains the domain types shared by the pipeline: assets,
// extraction results, chunks, vector records, and search results.
package models

import "time"

// AssetType categorizes an asset by its content.
type AssetType string

// Asset type constants.
const (
	AssetTypeImage    AssetType = "image"
	AssetTypeCSV      AssetType = "csv"
	AssetTypePDF      AssetType = "pdf"
	AssetTypeDocument AssetType = "document"
	AssetTypeOther    AssetType = "other"
)

// Asset is a user-owned file record. The pipeline never creates or deletes
// assets; it only reads them and extends their Metadata.
type Asset struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Filename  string        `json:"filename,omitempty"`
	Type      AssetType     `json:"type"`
	MimeType  string        `json:"mime_type,omitempty"`
	URL       string        `json:"url"`
	UserID    string        `json:"user_id"`
	FolderID  string        `json:"folder_id,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
	Metadata  AssetMetadata `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// AssetMetadata is the pipeline-owned portion of an asset record. Extraction
// and vectorization jobs write their outcome here instead of failing the job.
type AssetMetadata struct {
	ExtractedContent *ExtractionResult `json:"extracted_content,omitempty"`

	Vectorized        bool       `json:"vectorized,omitempty"`
	VectorLastUpdated *time.Time `json:"vector_last_updated,omitempty"`

	ExtractionPending    bool   `json:"extraction_pending,omitempty"`
	VectorizationPending bool   `json:"vectorization_pending,omitempty"`
	ExtractionFailed     bool   `json:"extraction_failed,omitempty"`
	ExtractionError      string `json:"extraction_error,omitempty"`
	VectorizationFailed  bool   `json:"vectorization_failed,omitempty"`
	VectorizationError   string `json:"vectorization_error,omitempty"`

	// AIAnalysisPending is set by the upload layer for image assets that still
	// need vision analysis before their searchable text is complete.
	AIAnalysisPending bool           `json:"ai_analysis_pending,omitempty"`
	Image             *ImageAnalysis `json:"image,omitempty"`
}

// ImageAnalysis holds vision-model output for image assets. All fields feed
// into the asset-level searchable text; HybridEmbedding, when present, is
// preferred over a freshly generated text embedding.
type ImageAnalysis struct {
	Description string   `json:"description,omitempty"`
	Objects     []string `json:"objects,omitempty"`
	Colors      []string `json:"colors,omitempty"`
	OCRText     string   `json:"ocr_text,omitempty"`
	Themes      []string `json:"themes,omitempty"`
	Mood        string   `json:"mood,omitempty"`
	Style       string   `json:"style,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	Composition string   `json:"composition,omitempty"`
	Lighting    string   `json:"lighting,omitempty"`
	Setting     string   `json:"setting,omitempty"`

	HybridEmbedding []float32 `json:"hybrid_embedding,omitempty"`
}

// VectorStatus is the vectorization lifecycle state of an asset.
type VectorStatus string

// Vector status constants. Failed states are terminal unless a new job is
// explicitly enqueued.
const (
	VectorStatusNotVectorized        VectorStatus = "not_vectorized"
	VectorStatusExtractionPending    VectorStatus = "extraction_pending"
	VectorStatusExtracted            VectorStatus = "extracted"
	VectorStatusVectorizationPending VectorStatus = "vectorization_pending"
	VectorStatusVectorized           VectorStatus = "vectorized"
	VectorStatusExtractionFailed     VectorStatus = "extraction_failed"
	VectorStatusVectorizationFailed  VectorStatus = "vectorization_failed"
)

// VectorStatus derives the lifecycle state from the metadata flags.
func (a *Asset) VectorStatus() VectorStatus {
	m := a.Metadata

	switch {
	case m.VectorizationFailed:
		return VectorStatusVectorizationFailed
	case m.ExtractionFailed:
		return VectorStatusExtractionFailed
	case m.Vectorized:
		return VectorStatusVectorized
	case m.VectorizationPending:
		return VectorStatusVectorizationPending
	case m.ExtractedContent != nil:
		return VectorStatusExtracted
	case m.ExtractionPending:
		return VectorStatusExtractionPending
	default:
		return VectorStatusNotVectorized
	}
}
