package models

// ExtractionKind discriminates the variants of ExtractionResult.
type ExtractionKind string

// Extraction kinds.
const (
	ExtractionKindCSV ExtractionKind = "csv"
	ExtractionKindPDF ExtractionKind = "pdf"
)

// ExtractionResult is a tagged union of extractor outputs. Exactly one of CSV
// or PDF is non-nil, selected by Kind.
type ExtractionResult struct {
	Kind ExtractionKind `json:"kind"`
	CSV  *CSVExtraction `json:"csv,omitempty"`
	PDF  *PDFExtraction `json:"pdf,omitempty"`
}

// CSVExtraction is the output of the CSV extractor: per-column statistics and
// a human-readable summary of the table.
type CSVExtraction struct {
	Summary     string        `json:"summary"`
	RowCount    int           `json:"row_count"`
	ColumnCount int           `json:"column_count"`
	Columns     []ColumnStats `json:"columns"`
	// SampleRows holds the first rows of the file (capped) so chunking can
	// reconstruct row-level content without re-reading the source.
	SampleRows [][]string `json:"sample_rows,omitempty"`
}

// ColumnDataType is the inferred type of a CSV column.
type ColumnDataType string

// Column data types, in inference precedence order.
const (
	ColumnTypeInteger ColumnDataType = "integer"
	ColumnTypeFloat   ColumnDataType = "float"
	ColumnTypeDate    ColumnDataType = "date"
	ColumnTypeBoolean ColumnDataType = "boolean"
	ColumnTypeEmail   ColumnDataType = "email"
	ColumnTypeURL     ColumnDataType = "url"
	ColumnTypeText    ColumnDataType = "text"
)

// ColumnStats holds per-column statistics accumulated during the row scan.
// FillRate is a percentage in [0,100]; Samples holds at most the first ten
// non-empty values seen.
type ColumnStats struct {
	Name         string         `json:"name"`
	DataType     ColumnDataType `json:"data_type"`
	NullCount    int            `json:"null_count"`
	FillRate     float64        `json:"fill_rate"`
	UniqueValues int            `json:"unique_values"`
	Samples      []string       `json:"samples,omitempty"`
}

// TextQuality is the heuristic quality grade of extracted document text.
type TextQuality string

// Text quality grades.
const (
	QualityHigh   TextQuality = "high"
	QualityMedium TextQuality = "medium"
	QualityLow    TextQuality = "low"
)

// PDFExtraction is the output of the PDF extractor.
type PDFExtraction struct {
	Text      string      `json:"text"`
	PageCount int         `json:"page_count"`
	WordCount int         `json:"word_count"`
	Quality   TextQuality `json:"quality"`
	Language  string      `json:"language"`
	Sections  []Section   `json:"sections,omitempty"`
}

// Section is a header-delimited region of a document with a rough page
// estimate (1-indexed).
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Page    int    `json:"page"`
}
