package extractor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/luminahq/lumina/internal/lumerrors"
	"github.com/luminahq/lumina/internal/models"
)

const (
	maxSections       = 50
	linesPerPage      = 50
	languageWordLimit = 500
)

var (
	numberedHeading = regexp.MustCompile(`^\d{1,2}\.\s+\S.*`)
	chapterHeading  = regexp.MustCompile(`(?i)^(chapter|section)\s+\d+\b.*`)
)

// PDFExtractor extracts plain text from PDF files and derives word count,
// quality grade, language, and a heuristic section outline.
type PDFExtractor struct {
	logger *slog.Logger
}

// NewPDFExtractor creates a PDF extractor. logger may be nil (slog default).
func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}

	return &PDFExtractor{logger: logger}
}

// Extract parses the PDF at source (local path or URL) and returns a PDF-kind
// ExtractionResult. An empty or image-only PDF yields low quality and no
// sections rather than an error.
func (e *PDFExtractor) Extract(ctx context.Context, source string) (*models.ExtractionResult, error) {
	path, cleanup, err := resolveSource(ctx, source)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, lumerrors.NewExtractionError(source, "unparsable PDF", err)
	}
	defer file.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pdf extraction cancelled: %w", err)
	}

	pageCount := reader.NumPage()

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, lumerrors.NewExtractionError(source, "text extraction failed", err)
	}

	raw, err := io.ReadAll(plain)
	if err != nil {
		return nil, lumerrors.NewExtractionError(source, "text extraction failed", err)
	}

	text := cleanText(string(raw))
	extraction := analyzeText(text, pageCount)

	e.logger.Debug("pdf extracted",
		"source", source,
		"pages", pageCount,
		"words", extraction.WordCount,
		"quality", extraction.Quality,
	)

	return &models.ExtractionResult{
		Kind: models.ExtractionKindPDF,
		PDF:  extraction,
	}, nil
}

// analyzeText derives all text metrics from cleaned text. Split out from
// Extract so the heuristics are testable without a real PDF.
func analyzeText(text string, pageCount int) *models.PDFExtraction {
	words := strings.Fields(text)

	return &models.PDFExtraction{
		Text:      text,
		PageCount: pageCount,
		WordCount: len(words),
		Quality:   assessQuality(text, words),
		Language:  detectLanguage(words),
		Sections:  detectSections(text),
	}
}

// cleanText normalizes extracted PDF text: collapses runs of spaces and tabs,
// trims line edges, and squeezes blank-line runs down to one.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		line = strings.TrimSpace(strings.Join(strings.Fields(line), " "))
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}

			blank = true

			continue
		}

		blank = false

		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// assessQuality grades extracted text. High needs substantial text with
// plausible word lengths and few special characters; garbled extractions
// (image-heavy PDFs, broken encodings) land in low.
func assessQuality(text string, words []string) models.TextQuality {
	wordCount := len(words)
	if wordCount == 0 {
		return models.QualityLow
	}

	var letters int
	for _, w := range words {
		letters += len([]rune(w))
	}

	avgWordLen := float64(letters) / float64(wordCount)

	var special, total int

	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}

		total++

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsPunct(r) {
			special++
		}
	}

	specialRatio := 0.0
	if total > 0 {
		specialRatio = float64(special) / float64(total)
	}

	switch {
	case wordCount > 500 && avgWordLen > 3 && avgWordLen < 10 && specialRatio < 0.05:
		return models.QualityHigh
	case wordCount > 100 && specialRatio < 0.15:
		return models.QualityMedium
	default:
		return models.QualityLow
	}
}

// Stop words per language, used for frequency-based language detection over
// the first few hundred words. English wins ties and empty input.
var stopWords = map[string][]string{
	"english": {"the", "and", "of", "to", "in", "is", "that", "for", "with", "as", "on", "are", "was", "this"},
	"french":  {"le", "la", "les", "de", "des", "et", "est", "dans", "pour", "que", "une", "un", "du", "sur"},
	"spanish": {"el", "la", "los", "las", "de", "y", "es", "en", "que", "por", "una", "un", "del", "con"},
}

// detectLanguage counts stop-word hits per language over the first
// languageWordLimit words and returns the winner, defaulting to English.
func detectLanguage(words []string) string {
	if len(words) > languageWordLimit {
		words = words[:languageWordLimit]
	}

	seen := make(map[string]int, len(words))
	for _, w := range words {
		seen[strings.ToLower(strings.Trim(w, ".,;:!?()\"'"))]++
	}

	best, bestScore := "english", 0

	for _, lang := range []string{"english", "french", "spanish"} {
		score := 0
		for _, sw := range stopWords[lang] {
			score += seen[sw]
		}

		if score > bestScore {
			best, bestScore = lang, score
		}
	}

	return best
}

// detectSections scans line by line for heading shapes: ALL-CAPS lines,
// numbered headings ("3. Results"), chapter/section markers, and short
// Title-Case lines. Content accumulates under the most recent heading; the
// page estimate assumes linesPerPage lines per page.
func detectSections(text string) []models.Section {
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")

	var sections []models.Section

	var current *models.Section

	var body []string

	flush := func() {
		if current == nil {
			return
		}

		current.Content = strings.TrimSpace(strings.Join(body, "\n"))
		sections = append(sections, *current)
		current = nil
		body = nil
	}

	// total counts flushed sections plus the one being accumulated, so the
	// cap holds before the final flush.
	total := func() int {
		if current != nil {
			return len(sections) + 1
		}

		return len(sections)
	}

	for i, line := range lines {
		next := ""
		if i+1 < len(lines) {
			next = lines[i+1]
		}

		if isHeading(line, next) && total() < maxSections {
			flush()

			current = &models.Section{
				Title: line,
				Page:  i/linesPerPage + 1,
			}

			continue
		}

		if current != nil {
			body = append(body, line)
		}
	}

	flush()

	return sections
}

// isHeading reports whether a line looks like a section heading. The
// Title-Case shape also requires a non-empty following line, so a trailing
// Title-Case line (a signature, a caption before a blank) is not treated as
// a heading.
func isHeading(line, next string) bool {
	line = strings.TrimSpace(line)
	if line == "" || len(line) > 120 {
		return false
	}

	if isAllCaps(line) && len(line) >= 6 {
		return true
	}

	if numberedHeading.MatchString(line) || chapterHeading.MatchString(line) {
		return true
	}

	if strings.TrimSpace(next) == "" {
		return false
	}

	words := strings.Fields(line)
	if len(words) >= 2 && len(words) <= 8 && isTitleCase(words) && !strings.HasSuffix(line, ".") {
		return true
	}

	return false
}

// isAllCaps reports whether the line has at least one letter and no lowercase.
func isAllCaps(line string) bool {
	hasLetter := false

	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}

		if unicode.IsUpper(r) {
			hasLetter = true
		}
	}

	return hasLetter
}

// isTitleCase reports whether every word starts with an uppercase letter.
func isTitleCase(words []string) bool {
	for _, w := range words {
		r := []rune(w)[0]
		if !unicode.IsUpper(r) {
			return false
		}
	}

	return true
}
