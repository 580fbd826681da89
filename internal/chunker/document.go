package chunker

import (
	"sort"
	"strings"

	"github.com/luminahq/lumina/internal/models"
)

// Strategy selects how document text is split into chunks.
type Strategy string

// Chunking strategies.
const (
	// StrategyFixed splits the full text into size-bounded windows.
	StrategyFixed Strategy = "fixed"
	// StrategyHybrid splits per detected section, falling back to fixed
	// windows when the extraction carries no sections.
	StrategyHybrid Strategy = "hybrid"
)

// DefaultOverlap is the character overlap carried between adjacent chunks.
const DefaultOverlap = 100

const maxChunkKeywords = 5

// DocumentChunker splits extracted document text into size-bounded chunks
// with overlap, preferring section boundaries under the hybrid strategy.
type DocumentChunker struct {
	maxChunkSize int
	overlap      int
	strategy     Strategy
}

// DocumentChunkerParams configures a DocumentChunker. Zero values fall back
// to defaults (size 1000, overlap 100, hybrid strategy).
type DocumentChunkerParams struct {
	MaxChunkSize int
	Overlap      int
	Strategy     Strategy
}

// NewDocumentChunker creates a document chunker.
func NewDocumentChunker(params DocumentChunkerParams) *DocumentChunker {
	if params.MaxChunkSize <= 0 {
		params.MaxChunkSize = DefaultMaxChunkSize
	}

	if params.Overlap < 0 || params.Overlap >= params.MaxChunkSize {
		params.Overlap = DefaultOverlap
	}

	if params.Strategy == "" {
		params.Strategy = StrategyHybrid
	}

	return &DocumentChunker{
		maxChunkSize: params.MaxChunkSize,
		overlap:      params.Overlap,
		strategy:     params.Strategy,
	}
}

// Chunk splits the extraction into text chunks. Under the hybrid strategy
// each detected section is chunked on its own so no chunk straddles a section
// boundary; without sections (or under the fixed strategy) the whole text is
// windowed. Returns nil for empty text.
func (c *DocumentChunker) Chunk(extraction *models.PDFExtraction, assetID string) []models.Chunk {
	if extraction == nil || strings.TrimSpace(extraction.Text) == "" {
		return nil
	}

	quality := qualityScore(extraction.Quality)

	var chunks []models.Chunk

	push := func(content, title string, page int) {
		content = strings.TrimSpace(content)
		if content == "" {
			return
		}

		i := len(chunks)
		chunks = append(chunks, models.Chunk{
			ID:      models.ChunkVectorID(assetID, i),
			AssetID: assetID,
			Type:    models.ChunkTypeText,
			Content: content,
			Order:   i,
			Metadata: models.ChunkMetadata{
				Title:        title,
				Section:      title,
				Keywords:     extractKeywords(content, maxChunkKeywords),
				WordCount:    len(strings.Fields(content)),
				PageStart:    page,
				PageEnd:      page,
				QualityScore: quality,
			},
		})
	}

	if c.strategy == StrategyHybrid && len(extraction.Sections) > 0 {
		for _, section := range extraction.Sections {
			for _, piece := range c.split(section.Content) {
				push(piece, section.Title, section.Page)
			}
		}

		return chunks
	}

	for _, piece := range c.split(extraction.Text) {
		push(piece, "", 0)
	}

	return chunks
}

// split windows text into pieces of at most maxChunkSize characters,
// breaking at the last whitespace inside the window and stepping back by
// overlap between windows.
func (c *DocumentChunker) split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.maxChunkSize {
		return []string{text}
	}

	var pieces []string

	start := 0

	for start < len(runes) {
		end := start + c.maxChunkSize
		if end >= len(runes) {
			pieces = append(pieces, string(runes[start:]))

			break
		}

		// Break at whitespace so words stay intact.
		cut := end
		for cut > start && !isSpaceRune(runes[cut]) {
			cut--
		}

		if cut == start {
			cut = end
		}

		pieces = append(pieces, string(runes[start:cut]))

		next := cut - c.overlap
		if next <= start {
			next = cut
		}

		start = next
	}

	return pieces
}

func isSpaceRune(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}

// keywordStopWords excludes common function words from keyword extraction.
var keywordStopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "that": {}, "with": {}, "this": {},
	"from": {}, "are": {}, "was": {}, "were": {}, "have": {}, "has": {},
	"not": {}, "but": {}, "all": {}, "can": {}, "will": {}, "their": {},
	"they": {}, "its": {}, "into": {}, "than": {}, "which": {}, "when": {},
}

// extractKeywords returns the most frequent words longer than three
// characters, excluding stop words. Ties break alphabetically so the result
// is deterministic.
func extractKeywords(text string, limit int) []string {
	counts := make(map[string]int)

	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?()[]\"'")
		if len(word) <= 3 {
			continue
		}

		if _, stop := keywordStopWords[word]; stop {
			continue
		}

		counts[word]++
	}

	if len(counts) == 0 {
		return nil
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}

	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}

		return words[i] < words[j]
	})

	if len(words) > limit {
		words = words[:limit]
	}

	return words
}

// qualityScore maps the quality grade to a numeric score for summary
// averaging.
func qualityScore(quality models.TextQuality) float64 {
	switch quality {
	case models.QualityHigh:
		return 1.0
	case models.QualityMedium:
		return 0.5
	default:
		return 0.0
	}
}
