package extractor

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/luminahq/lumina/internal/lumerrors"
	"github.com/luminahq/lumina/internal/models"
)

const (
	maxColumnSamples  = 10
	maxSampleRows     = 100
	highFillRate      = 90
	lowFillRate       = 50
	validatePeekLines = 10
)

var (
	dateISO  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateUS   = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
	dateDash = regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`)
)

// CSVExtractor streams a CSV file and derives per-column statistics, type
// inference, and a human-readable summary.
type CSVExtractor struct {
	logger *slog.Logger
}

// NewCSVExtractor creates a CSV extractor. logger may be nil (slog default).
func NewCSVExtractor(logger *slog.Logger) *CSVExtractor {
	if logger == nil {
		logger = slog.Default()
	}

	return &CSVExtractor{logger: logger}
}

// columnAccumulator collects per-column state during the row scan.
type columnAccumulator struct {
	name      string
	nullCount int
	samples   []string
	unique    map[string]struct{}
}

// Extract reads the CSV at source (local path or URL) and returns a CSV-kind
// ExtractionResult. Rows are streamed; memory grows with column cardinality,
// not file size.
func (e *CSVExtractor) Extract(ctx context.Context, source string) (*models.ExtractionResult, error) {
	path, cleanup, err := resolveSource(ctx, source)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	file, err := os.Open(path)
	if err != nil {
		return nil, lumerrors.NewExtractionError(source, "file not found", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, lumerrors.NewExtractionError(source, "empty file", nil)
		}

		return nil, lumerrors.NewExtractionError(source, "unparsable CSV", err)
	}

	columns := make([]*columnAccumulator, len(header))
	for i, name := range header {
		columns[i] = &columnAccumulator{
			name:   strings.TrimSpace(name),
			unique: make(map[string]struct{}),
		}
	}

	rowCount := 0

	var sampleRows [][]string

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("csv extraction cancelled: %w", err)
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, lumerrors.NewExtractionError(source, "unparsable CSV", err)
		}

		rowCount++

		if len(sampleRows) < maxSampleRows {
			row := make([]string, len(record))
			copy(row, record)
			sampleRows = append(sampleRows, row)
		}

		for i, col := range columns {
			value := ""
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}

			if value == "" {
				col.nullCount++
				continue
			}

			col.unique[value] = struct{}{}
			if len(col.samples) < maxColumnSamples {
				col.samples = append(col.samples, value)
			}
		}
	}

	stats := make([]models.ColumnStats, len(columns))
	for i, col := range columns {
		fillRate := 0.0
		if rowCount > 0 {
			fillRate = float64(rowCount-col.nullCount) / float64(rowCount) * 100
		}

		stats[i] = models.ColumnStats{
			Name:         col.name,
			DataType:     inferDataType(col.samples),
			NullCount:    col.nullCount,
			FillRate:     fillRate,
			UniqueValues: len(col.unique),
			Samples:      col.samples,
		}
	}

	extraction := &models.CSVExtraction{
		RowCount:    rowCount,
		ColumnCount: len(columns),
		Columns:     stats,
		SampleRows:  sampleRows,
	}
	extraction.Summary = summarizeCSV(extraction)

	e.logger.Debug("csv extracted",
		"source", source,
		"rows", rowCount,
		"columns", len(columns),
	)

	return &models.ExtractionResult{
		Kind: models.ExtractionKindCSV,
		CSV:  extraction,
	}, nil
}

// ValidateCSV is the cheap pre-check callers run before enqueueing an
// extraction job: it parses only the first few lines and reports structural
// problems (missing file, no header, inconsistent field counts) without
// scanning the whole file.
func ValidateCSV(ctx context.Context, source string) error {
	path, cleanup, err := resolveSource(ctx, source)
	if err != nil {
		return err
	}
	defer cleanup()

	file, err := os.Open(path)
	if err != nil {
		return lumerrors.NewExtractionError(source, "file not found", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	for i := 0; i < validatePeekLines; i++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			if i == 0 {
				return lumerrors.NewExtractionError(source, "empty file", nil)
			}

			return nil
		}

		if err != nil {
			return lumerrors.NewExtractionError(source, "unparsable CSV", err)
		}

		if i == 0 && len(record) == 0 {
			return lumerrors.NewExtractionError(source, "no header row", nil)
		}
	}

	return nil
}

// inferDataType applies ordered heuristics over the collected samples:
// numeric (float when any value carries a decimal point, else integer), then
// date, boolean, email, URL, falling through to text. A column with no
// samples is text.
func inferDataType(samples []string) models.ColumnDataType {
	if len(samples) == 0 {
		return models.ColumnTypeText
	}

	if allMatch(samples, isNumeric) {
		if anyMatch(samples, func(s string) bool { return strings.Contains(s, ".") }) {
			return models.ColumnTypeFloat
		}

		return models.ColumnTypeInteger
	}

	if allMatch(samples, isDate) {
		return models.ColumnTypeDate
	}

	if allMatch(samples, isBoolean) {
		return models.ColumnTypeBoolean
	}

	if allMatch(samples, isEmail) {
		return models.ColumnTypeEmail
	}

	if allMatch(samples, isURL) {
		return models.ColumnTypeURL
	}

	return models.ColumnTypeText
}

func allMatch(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}

	return true
}

func anyMatch(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if pred(v) {
			return true
		}
	}

	return false
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)

	return err == nil
}

func isDate(s string) bool {
	return dateISO.MatchString(s) || dateUS.MatchString(s) || dateDash.MatchString(s)
}

func isBoolean(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "yes", "no", "1", "0":
		return true
	default:
		return false
	}
}

func isEmail(s string) bool {
	if strings.ContainsAny(s, " \t") {
		return false
	}

	addr, err := mail.ParseAddress(s)

	return err == nil && addr.Address == s && strings.Contains(s, "@")
}

func isURL(s string) bool {
	u, err := url.Parse(s)

	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// summarizeCSV builds the human-readable one-paragraph description used as
// the asset's metadata chunk content.
func summarizeCSV(c *models.CSVExtraction) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CSV file with %d rows and %d columns.", c.RowCount, c.ColumnCount)

	if len(c.Columns) > 0 {
		parts := make([]string, len(c.Columns))
		for i, col := range c.Columns {
			parts[i] = fmt.Sprintf("%s (%s)", col.Name, col.DataType)
		}

		fmt.Fprintf(&b, " Columns: %s.", strings.Join(parts, ", "))
	}

	var high, low []string

	for _, col := range c.Columns {
		switch {
		case col.FillRate > highFillRate:
			high = append(high, col.Name)
		case col.FillRate < lowFillRate:
			low = append(low, col.Name)
		}
	}

	if len(high) > 0 {
		fmt.Fprintf(&b, " High-quality columns (fill rate > %d%%): %s.", highFillRate, strings.Join(high, ", "))
	}

	if len(low) > 0 {
		fmt.Fprintf(&b, " Low-quality columns (fill rate < %d%%): %s.", lowFillRate, strings.Join(low, ", "))
	}

	return b.String()
}
