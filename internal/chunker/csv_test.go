package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminahq/lumina/internal/models"
)

func employeeExtraction() *models.CSVExtraction {
	return &models.CSVExtraction{
		Summary:     "CSV file with 3 rows and 4 columns.",
		RowCount:    3,
		ColumnCount: 4,
		Columns: []models.ColumnStats{
			{Name: "Name", DataType: models.ColumnTypeText, FillRate: 100, UniqueValues: 3, Samples: []string{"Alice", "Bob", "Carol"}},
			{Name: "Age", DataType: models.ColumnTypeInteger, FillRate: 100, UniqueValues: 3, Samples: []string{"30", "25", "35"}},
			{Name: "Department", DataType: models.ColumnTypeText, FillRate: 100, UniqueValues: 2, Samples: []string{"Engineering", "Marketing", "Engineering"}},
			{Name: "Email", DataType: models.ColumnTypeEmail, FillRate: 100, UniqueValues: 3, Samples: []string{"alice@example.com", "bob@example.com", "carol@example.com"}},
		},
		SampleRows: [][]string{
			{"Alice", "30", "Engineering", "alice@example.com"},
			{"Bob", "25", "Marketing", "bob@example.com"},
			{"Carol", "35", "Engineering", "carol@example.com"},
		},
	}
}

func countByType(chunks []models.Chunk) map[models.ChunkType]int {
	counts := make(map[models.ChunkType]int)
	for _, c := range chunks {
		counts[c.Type]++
	}

	return counts
}

func TestCSVChunker_Chunk(t *testing.T) {
	chunker := NewCSVChunker()
	chunks := chunker.Chunk(employeeExtraction(), "asset-1")

	counts := countByType(chunks)
	assert.Equal(t, 1, counts[models.ChunkTypeMetadata])
	assert.Equal(t, 4, counts[models.ChunkTypeColumnSchema])
	assert.GreaterOrEqual(t, counts[models.ChunkTypeRowContent], 1)
	assert.Equal(t, 2, counts[models.ChunkTypeStatistics])
	assert.LessOrEqual(t, counts[models.ChunkTypeSampleValues], 4)
	assert.GreaterOrEqual(t, counts[models.ChunkTypeSampleValues], 1)

	// IDs follow the deterministic {assetID}_chunk_{i} convention.
	for i, chunk := range chunks {
		assert.Equal(t, models.ChunkVectorID("asset-1", i), chunk.ID)
		assert.Equal(t, "asset-1", chunk.AssetID)
	}
}

func TestCSVChunker_OrderEncodesCategory(t *testing.T) {
	chunks := NewCSVChunker().Chunk(employeeExtraction(), "asset-1")

	for _, chunk := range chunks {
		switch chunk.Type {
		case models.ChunkTypeMetadata:
			assert.Equal(t, models.OrderMetadata, chunk.Order)
		case models.ChunkTypeColumnSchema:
			assert.GreaterOrEqual(t, chunk.Order, models.OrderColumnBase)
			assert.Less(t, chunk.Order, models.OrderStatisticsBase)
		case models.ChunkTypeStatistics:
			assert.GreaterOrEqual(t, chunk.Order, models.OrderStatisticsBase)
			assert.Less(t, chunk.Order, models.OrderRowBase)
		case models.ChunkTypeRowContent:
			assert.GreaterOrEqual(t, chunk.Order, models.OrderRowBase)
			assert.Less(t, chunk.Order, models.OrderSampleBase)
		case models.ChunkTypeSampleValues:
			assert.GreaterOrEqual(t, chunk.Order, models.OrderSampleBase)
		}
	}
}

func TestCSVChunker_Deterministic(t *testing.T) {
	chunker := NewCSVChunker()

	first := chunker.Chunk(employeeExtraction(), "asset-1")
	second := chunker.Chunk(employeeExtraction(), "asset-1")

	require.Equal(t, len(first), len(second))

	for i := range first {
		assert.Equal(t, first[i].Order, second[i].Order)
		assert.Equal(t, first[i].Content, second[i].Content)
	}
}

func TestCSVChunker_RowChunkContent(t *testing.T) {
	chunks := NewCSVChunker().Chunk(employeeExtraction(), "asset-1")

	var rows []models.Chunk

	for _, c := range chunks {
		if c.Type == models.ChunkTypeRowContent {
			rows = append(rows, c)
		}
	}

	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].Content, "Name: Alice | Age: 30 | Department: Engineering | Email: alice@example.com")
	assert.Equal(t, 1, rows[0].Metadata.RowStart)
	assert.Equal(t, 3, rows[0].Metadata.RowEnd)
}

func TestCSVChunker_RowChunksRespectMaxSize(t *testing.T) {
	extraction := &models.CSVExtraction{
		RowCount:    40,
		ColumnCount: 1,
		Columns:     []models.ColumnStats{{Name: "notes", DataType: models.ColumnTypeText}},
	}

	long := make([]byte, 120)
	for i := range long {
		long[i] = 'x'
	}

	for i := 0; i < 40; i++ {
		extraction.SampleRows = append(extraction.SampleRows, []string{string(long)})
	}

	chunks := NewCSVChunker().Chunk(extraction, "asset-2")

	var rows []models.Chunk

	for _, c := range chunks {
		if c.Type == models.ChunkTypeRowContent {
			rows = append(rows, c)
		}
	}

	require.Greater(t, len(rows), 1)

	prevEnd := 0

	for _, r := range rows {
		assert.LessOrEqual(t, len(r.Content), DefaultMaxChunkSize)
		assert.Equal(t, prevEnd+1, r.Metadata.RowStart)
		assert.GreaterOrEqual(t, r.Metadata.RowEnd, r.Metadata.RowStart)

		prevEnd = r.Metadata.RowEnd
	}

	assert.Equal(t, 40, prevEnd)
}

func TestCSVChunker_StatisticsContent(t *testing.T) {
	extraction := employeeExtraction()
	extraction.Columns[1].FillRate = 60
	extraction.Columns[2].FillRate = 20

	chunks := NewCSVChunker().Chunk(extraction, "asset-1")

	var stats []models.Chunk

	for _, c := range chunks {
		if c.Type == models.ChunkTypeStatistics {
			stats = append(stats, c)
		}
	}

	require.Len(t, stats, 2)

	quality, types := stats[0], stats[1]
	assert.Equal(t, models.OrderStatisticsBase, quality.Order)
	assert.Contains(t, quality.Content, "Complete (>90%): Name, Email")
	assert.Contains(t, quality.Content, "Partial (50-90%): Age")
	assert.Contains(t, quality.Content, "Sparse (<50%): Department")

	assert.Equal(t, models.OrderStatisticsBase+1, types.Order)
	assert.Contains(t, types.Content, "integer: 1")
	assert.Contains(t, types.Content, "text: 2")
	assert.Contains(t, types.Content, "email: 1")
}

func TestCSVChunker_NilExtraction(t *testing.T) {
	assert.Nil(t, NewCSVChunker().Chunk(nil, "asset-1"))
}

func TestCSVChunker_SkipsSampleChunksForEmptyColumns(t *testing.T) {
	extraction := &models.CSVExtraction{
		Summary:     "CSV file with 2 rows and 2 columns.",
		RowCount:    2,
		ColumnCount: 2,
		Columns: []models.ColumnStats{
			{Name: "id", DataType: models.ColumnTypeInteger, Samples: []string{"1", "2"}},
			{Name: "blank", DataType: models.ColumnTypeText, NullCount: 2},
		},
		SampleRows: [][]string{{"1", ""}, {"2", ""}},
	}

	chunks := NewCSVChunker().Chunk(extraction, "asset-3")

	counts := countByType(chunks)
	assert.Equal(t, 1, counts[models.ChunkTypeSampleValues])
}
