package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminahq/lumina/internal/models"
)

func TestDocumentChunker_HybridUsesSections(t *testing.T) {
	extraction := &models.PDFExtraction{
		Text:      "full text",
		PageCount: 2,
		Quality:   models.QualityHigh,
		Sections: []models.Section{
			{Title: "INTRODUCTION", Content: "the pipeline ingests assets and extracts searchable content.", Page: 1},
			{Title: "RESULTS", Content: "search quality improved across every measured asset category.", Page: 2},
		},
	}

	chunker := NewDocumentChunker(DocumentChunkerParams{})
	chunks := chunker.Chunk(extraction, "doc-1")

	require.Len(t, chunks, 2)

	assert.Equal(t, "INTRODUCTION", chunks[0].Metadata.Title)
	assert.Equal(t, "INTRODUCTION", chunks[0].Metadata.Section)
	assert.Equal(t, 1, chunks[0].Metadata.PageStart)
	assert.Equal(t, "RESULTS", chunks[1].Metadata.Title)
	assert.Equal(t, 2, chunks[1].Metadata.PageStart)

	for i, chunk := range chunks {
		assert.Equal(t, models.ChunkVectorID("doc-1", i), chunk.ID)
		assert.Equal(t, i, chunk.Order)
		assert.Equal(t, models.ChunkTypeText, chunk.Type)
		assert.Equal(t, 1.0, chunk.Metadata.QualityScore)
		assert.Positive(t, chunk.Metadata.WordCount)
	}
}

func TestDocumentChunker_SplitsLongSections(t *testing.T) {
	content := strings.TrimSpace(strings.Repeat("every word in this section counts toward the window size. ", 40))
	extraction := &models.PDFExtraction{
		Text:     content,
		Quality:  models.QualityMedium,
		Sections: []models.Section{{Title: "BODY", Content: content, Page: 1}},
	}

	chunker := NewDocumentChunker(DocumentChunkerParams{MaxChunkSize: 500, Overlap: 50})
	chunks := chunker.Chunk(extraction, "doc-2")

	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 500)
		assert.Equal(t, "BODY", chunk.Metadata.Section)
		assert.Equal(t, 0.5, chunk.Metadata.QualityScore)
	}

	// Adjacent chunks share overlapping text.
	tail := chunks[0].Content[len(chunks[0].Content)-20:]
	assert.Contains(t, chunks[1].Content, strings.TrimSpace(tail))
}

func TestDocumentChunker_FixedStrategyIgnoresSections(t *testing.T) {
	extraction := &models.PDFExtraction{
		Text:    "short document text with no need for multiple windows.",
		Quality: models.QualityLow,
		Sections: []models.Section{
			{Title: "ONE SECTION", Content: "section content", Page: 1},
		},
	}

	chunker := NewDocumentChunker(DocumentChunkerParams{Strategy: StrategyFixed})
	chunks := chunker.Chunk(extraction, "doc-3")

	require.Len(t, chunks, 1)
	assert.Equal(t, extraction.Text, chunks[0].Content)
	assert.Empty(t, chunks[0].Metadata.Section)
	assert.Zero(t, chunks[0].Metadata.QualityScore)
}

func TestDocumentChunker_NoSectionsFallsBackToText(t *testing.T) {
	extraction := &models.PDFExtraction{
		Text:    "plain document with no detected structure at all.",
		Quality: models.QualityMedium,
	}

	chunks := NewDocumentChunker(DocumentChunkerParams{}).Chunk(extraction, "doc-4")

	require.Len(t, chunks, 1)
	assert.Equal(t, extraction.Text, chunks[0].Content)
}

func TestDocumentChunker_EmptyText(t *testing.T) {
	chunker := NewDocumentChunker(DocumentChunkerParams{})

	assert.Nil(t, chunker.Chunk(nil, "doc-5"))
	assert.Nil(t, chunker.Chunk(&models.PDFExtraction{Text: "   "}, "doc-5"))
}

func TestDocumentChunker_Deterministic(t *testing.T) {
	content := strings.TrimSpace(strings.Repeat("repeatable content for stable chunk boundaries. ", 60))
	extraction := &models.PDFExtraction{Text: content, Quality: models.QualityHigh}

	chunker := NewDocumentChunker(DocumentChunkerParams{MaxChunkSize: 400, Overlap: 40})

	first := chunker.Chunk(extraction, "doc-6")
	second := chunker.Chunk(extraction, "doc-6")

	require.Equal(t, len(first), len(second))

	for i := range first {
		assert.Equal(t, first[i].Content, second[i].Content)
		assert.Equal(t, first[i].Metadata.Keywords, second[i].Metadata.Keywords)
	}
}

func TestExtractKeywords(t *testing.T) {
	text := "pipeline pipeline pipeline search search asset the and with tiny"

	keywords := extractKeywords(text, 3)
	require.Len(t, keywords, 3)

	assert.Equal(t, "pipeline", keywords[0])
	assert.Equal(t, "search", keywords[1])
	// "the", "and", "with" are stop words; "tiny" and "asset" tie at one
	// occurrence and break alphabetically.
	assert.Equal(t, "asset", keywords[2])
}

func TestExtractKeywords_Empty(t *testing.T) {
	assert.Nil(t, extractKeywords("a an to", 5))
}
