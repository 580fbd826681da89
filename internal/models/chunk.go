package models

import "fmt"

// ChunkType is the category tag of a chunk.
type ChunkType string

// Chunk categories.
const (
	ChunkTypeMetadata     ChunkType = "metadata"
	ChunkTypeColumnSchema ChunkType = "column_schema"
	ChunkTypeRowContent   ChunkType = "row_content"
	ChunkTypeStatistics   ChunkType = "statistics"
	ChunkTypeSampleValues ChunkType = "sample_values"
	ChunkTypeText         ChunkType = "text"
)

// Order bases per chunk category. Orders are monotonically increasing within a
// category, so a consumer can recover the category from the order alone.
const (
	OrderMetadata       = 0
	OrderColumnBase     = 1
	OrderStatisticsBase = 500
	OrderRowBase        = 1000
	OrderSampleBase     = 2000
)

// Chunk is a bounded, typed slice of extracted content prepared for embedding.
// Chunks are ephemeral: they live in memory between the chunker and the vector
// store and are persisted only as the resulting vector record.
type Chunk struct {
	ID       string        `json:"id"`
	AssetID  string        `json:"asset_id"`
	Type     ChunkType     `json:"type"`
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
	Order    int           `json:"order"`
}

// ChunkMetadata carries chunk-scoped context used for searchable text and
// document summaries. Zero values mean "not applicable" for the chunk type.
type ChunkMetadata struct {
	Title      string   `json:"title,omitempty"`
	Section    string   `json:"section,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	WordCount  int      `json:"word_count,omitempty"`
	PageStart  int      `json:"page_start,omitempty"`
	PageEnd    int      `json:"page_end,omitempty"`
	RowStart   int      `json:"row_start,omitempty"`
	RowEnd     int      `json:"row_end,omitempty"`
	ColumnName string   `json:"column_name,omitempty"`

	// QualityScore is a numeric rendering of the source document's quality
	// grade (high=1.0, medium=0.5, low=0.0) used for summary averaging.
	QualityScore float64 `json:"quality_score,omitempty"`
}

// ChunkVectorID returns the deterministic vector record ID for the i-th chunk
// of an asset. The assetID prefix enables filtered bulk deletion.
func ChunkVectorID(assetID string, i int) string {
	return fmt.Sprintf("%s_chunk_%d", assetID, i)
}
