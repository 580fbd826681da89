package models

// Vector record types stored in the metadata "type" field. Asset-level records
// use the asset ID as the record ID; chunk-level records use ChunkVectorID.
const (
	RecordTypeAsset         = "asset"
	RecordTypeDocumentChunk = "document_chunk"
)

// RecordMetadata is the filterable metadata stored alongside each embedding.
type RecordMetadata struct {
	Type      string    `json:"type"`
	AssetID   string    `json:"asset_id"`
	UserID    string    `json:"user_id,omitempty"`
	FolderID  string    `json:"folder_id,omitempty"`
	AssetType AssetType `json:"asset_type,omitempty"`
	Name      string    `json:"name,omitempty"`

	// Chunk-level fields.
	ChunkIndex int       `json:"chunk_index,omitempty"`
	ChunkType  ChunkType `json:"chunk_type,omitempty"`
	Title      string    `json:"title,omitempty"`
	Section    string    `json:"section,omitempty"`
	Keywords   []string  `json:"keywords,omitempty"`
	WordCount  int       `json:"word_count,omitempty"`
	Quality    float64   `json:"quality,omitempty"`

	// Preview is a short prefix of the embedded text, returned with search
	// results so callers can render a snippet without a second lookup.
	Preview string `json:"preview,omitempty"`
}

// VectorRecord is one row in the similarity index. All records in one index
// share the same embedding dimension.
type VectorRecord struct {
	ID        string         `json:"id"`
	Embedding []float32      `json:"embedding"`
	Metadata  RecordMetadata `json:"metadata"`
}

// SearchResult is one similarity match. ID is the vector record ID (an asset
// ID or a chunk ID); Score is cosine similarity mapped to [0,1].
type SearchResult struct {
	ID       string         `json:"id"`
	AssetID  string         `json:"asset_id"`
	Score    float64        `json:"score"`
	Metadata RecordMetadata `json:"metadata"`
}

// HybridSearchResult holds the two independent result sets of a hybrid search.
// The sets are not fused or re-ranked against each other.
type HybridSearchResult struct {
	Assets       []SearchResult `json:"assets"`
	Chunks       []SearchResult `json:"chunks"`
	TotalResults int            `json:"total_results"`
}

// DocumentSummary aggregates chunk metadata for one asset.
type DocumentSummary struct {
	AssetID        string   `json:"asset_id"`
	ChunkCount     int      `json:"chunk_count"`
	TotalWordCount int      `json:"total_word_count"`
	Sections       []string `json:"sections,omitempty"`
	TopKeywords    []string `json:"top_keywords,omitempty"`
	AverageQuality float64  `json:"average_quality"`
}

// VectorStoreStats describes the backing index.
type VectorStoreStats struct {
	Available     bool    `json:"available"`
	TotalVectors  int64   `json:"total_vectors"`
	Dimension     int     `json:"dimension"`
	IndexFullness float64 `json:"index_fullness"`
}
