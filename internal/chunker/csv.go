// Package chunker turns extractor output into ordered, typed chunks sized for
// independent embedding. Chunkers are deterministic: the same extraction
// always yields the same chunk count, contents, and order values.
package chunker

import (
	"fmt"
	"strings"

	"github.com/luminahq/lumina/internal/models"
)

// DefaultMaxChunkSize bounds a single chunk's content length in characters.
const DefaultMaxChunkSize = 1000

// CSVChunker converts a CSV extraction into chunks. Chunk order values encode
// the category (metadata, column schema, row content, statistics, samples) so
// consumers can recover it without inspecting the type tag.
type CSVChunker struct {
	maxChunkSize int
}

// NewCSVChunker creates a CSV chunker with the default chunk size.
func NewCSVChunker() *CSVChunker {
	return &CSVChunker{maxChunkSize: DefaultMaxChunkSize}
}

// Chunk emits, in order: one summary chunk, one schema chunk per column,
// row-content chunks bounded by maxChunkSize, two statistics chunks, and one
// sample-values chunk per column that has samples. IDs follow the
// "{assetID}_chunk_{i}" convention in emission order.
func (c *CSVChunker) Chunk(extraction *models.CSVExtraction, assetID string) []models.Chunk {
	if extraction == nil {
		return nil
	}

	var chunks []models.Chunk

	push := func(chunk models.Chunk) {
		chunk.ID = models.ChunkVectorID(assetID, len(chunks))
		chunk.AssetID = assetID
		chunks = append(chunks, chunk)
	}

	push(models.Chunk{
		Type:    models.ChunkTypeMetadata,
		Content: extraction.Summary,
		Order:   models.OrderMetadata,
		Metadata: models.ChunkMetadata{
			Title:     "Summary",
			WordCount: len(strings.Fields(extraction.Summary)),
		},
	})

	for i, col := range extraction.Columns {
		push(models.Chunk{
			Type:    models.ChunkTypeColumnSchema,
			Content: describeColumn(col),
			Order:   models.OrderColumnBase + i,
			Metadata: models.ChunkMetadata{
				Title:      "Column: " + col.Name,
				ColumnName: col.Name,
			},
		})
	}

	for _, chunk := range c.rowChunks(extraction) {
		push(chunk)
	}

	push(models.Chunk{
		Type:    models.ChunkTypeStatistics,
		Content: describeQuality(extraction),
		Order:   models.OrderStatisticsBase,
		Metadata: models.ChunkMetadata{
			Title: "Data Quality",
		},
	})
	push(models.Chunk{
		Type:    models.ChunkTypeStatistics,
		Content: describeTypeDistribution(extraction),
		Order:   models.OrderStatisticsBase + 1,
		Metadata: models.ChunkMetadata{
			Title: "Data Types",
		},
	})

	for i, col := range extraction.Columns {
		if len(col.Samples) == 0 {
			continue
		}

		push(models.Chunk{
			Type:    models.ChunkTypeSampleValues,
			Content: fmt.Sprintf("Sample values for %s: %s", col.Name, strings.Join(col.Samples, ", ")),
			Order:   models.OrderSampleBase + i,
			Metadata: models.ChunkMetadata{
				Title:      "Samples: " + col.Name,
				ColumnName: col.Name,
			},
		})
	}

	return chunks
}

// rowChunks renders retained rows as "col: value | col: value" lines and packs
// them into chunks, closing a chunk before it would exceed maxChunkSize. Each
// chunk records the 1-indexed row range it covers.
func (c *CSVChunker) rowChunks(extraction *models.CSVExtraction) []models.Chunk {
	var chunks []models.Chunk

	var buf strings.Builder

	start := 0

	flush := func(end int) {
		if buf.Len() == 0 {
			return
		}

		chunks = append(chunks, models.Chunk{
			Type:    models.ChunkTypeRowContent,
			Content: buf.String(),
			Order:   models.OrderRowBase + len(chunks),
			Metadata: models.ChunkMetadata{
				Title:    fmt.Sprintf("Rows %d-%d", start+1, end),
				RowStart: start + 1,
				RowEnd:   end,
			},
		})

		buf.Reset()
	}

	for i, row := range extraction.SampleRows {
		line := renderRow(extraction.Columns, row)
		if buf.Len() > 0 && buf.Len()+len(line)+1 > c.maxChunkSize {
			flush(i)

			start = i
		}

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}

		buf.WriteString(line)
	}

	flush(len(extraction.SampleRows))

	return chunks
}

// renderRow joins "col: value" pairs with " | ", skipping empty cells.
func renderRow(columns []models.ColumnStats, row []string) string {
	parts := make([]string, 0, len(columns))

	for i, col := range columns {
		if i >= len(row) {
			break
		}

		value := strings.TrimSpace(row[i])
		if value == "" {
			continue
		}

		parts = append(parts, col.Name+": "+value)
	}

	return strings.Join(parts, " | ")
}

func describeColumn(col models.ColumnStats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Column: %s\nType: %s\nFill rate: %.1f%%\nUnique values: %d",
		col.Name, col.DataType, col.FillRate, col.UniqueValues)

	if len(col.Samples) > 0 {
		fmt.Fprintf(&b, "\nSamples: %s", strings.Join(col.Samples, ", "))
	}

	return b.String()
}

// describeQuality buckets columns by fill rate into high (>90%), partial
// (50-90%), and sparse (<50%).
func describeQuality(extraction *models.CSVExtraction) string {
	var high, partial, sparse []string

	for _, col := range extraction.Columns {
		switch {
		case col.FillRate > 90:
			high = append(high, col.Name)
		case col.FillRate >= 50:
			partial = append(partial, col.Name)
		default:
			sparse = append(sparse, col.Name)
		}
	}

	var b strings.Builder

	b.WriteString("Data quality by fill rate.")

	if len(high) > 0 {
		fmt.Fprintf(&b, " Complete (>90%%): %s.", strings.Join(high, ", "))
	}

	if len(partial) > 0 {
		fmt.Fprintf(&b, " Partial (50-90%%): %s.", strings.Join(partial, ", "))
	}

	if len(sparse) > 0 {
		fmt.Fprintf(&b, " Sparse (<50%%): %s.", strings.Join(sparse, ", "))
	}

	return b.String()
}

// describeTypeDistribution counts columns per inferred data type, in
// inference precedence order for stable output.
func describeTypeDistribution(extraction *models.CSVExtraction) string {
	counts := make(map[models.ColumnDataType]int)
	for _, col := range extraction.Columns {
		counts[col.DataType]++
	}

	ordered := []models.ColumnDataType{
		models.ColumnTypeInteger,
		models.ColumnTypeFloat,
		models.ColumnTypeDate,
		models.ColumnTypeBoolean,
		models.ColumnTypeEmail,
		models.ColumnTypeURL,
		models.ColumnTypeText,
	}

	parts := make([]string, 0, len(counts))

	for _, dt := range ordered {
		if counts[dt] > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", dt, counts[dt]))
		}
	}

	return "Data type distribution. " + strings.Join(parts, ", ")
}
