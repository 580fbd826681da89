package extractor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminahq/lumina/internal/lumerrors"
	"github.com/luminahq/lumina/internal/models"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestCSVExtractor_Extract(t *testing.T) {
	csvData := "Name,Age,Department,Email\n" +
		"Alice,30,Engineering,alice@example.com\n" +
		"Bob,25,Marketing,bob@example.com\n" +
		"Carol,35,Engineering,carol@example.com\n"

	path := writeTempCSV(t, csvData)
	extractor := NewCSVExtractor(nil)

	result, err := extractor.Extract(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, result.CSV)

	assert.Equal(t, models.ExtractionKindCSV, result.Kind)
	assert.Equal(t, 3, result.CSV.RowCount)
	assert.Equal(t, 4, result.CSV.ColumnCount)
	require.Len(t, result.CSV.Columns, 4)

	byName := make(map[string]models.ColumnStats)
	for _, col := range result.CSV.Columns {
		byName[col.Name] = col
	}

	assert.Equal(t, models.ColumnTypeText, byName["Name"].DataType)
	assert.Equal(t, models.ColumnTypeInteger, byName["Age"].DataType)
	assert.Equal(t, models.ColumnTypeText, byName["Department"].DataType)
	assert.Equal(t, models.ColumnTypeEmail, byName["Email"].DataType)

	assert.Equal(t, 3, byName["Name"].UniqueValues)
	assert.Equal(t, 2, byName["Department"].UniqueValues)
	assert.InDelta(t, 100.0, byName["Age"].FillRate, 0.001)

	assert.Contains(t, result.CSV.Summary, "3 rows")
	assert.Contains(t, result.CSV.Summary, "4 columns")
	assert.Contains(t, result.CSV.Summary, "Age (integer)")
}

func TestCSVExtractor_Extract_FillRateAndNulls(t *testing.T) {
	csvData := "id,score\n" +
		"1,\n" +
		"2,0.5\n" +
		"3,\n" +
		"4,\n"

	path := writeTempCSV(t, csvData)
	extractor := NewCSVExtractor(nil)

	result, err := extractor.Extract(context.Background(), path)
	require.NoError(t, err)

	score := result.CSV.Columns[1]
	assert.Equal(t, 3, score.NullCount)
	assert.InDelta(t, 25.0, score.FillRate, 0.001)
	assert.Equal(t, models.ColumnTypeFloat, score.DataType)
	assert.Equal(t, 1, score.UniqueValues)

	// A column under 50% fill rate is called out in the summary.
	assert.Contains(t, result.CSV.Summary, "Low-quality columns")
	assert.Contains(t, result.CSV.Summary, "score")
}

func TestCSVExtractor_Extract_SampleCap(t *testing.T) {
	csvData := "n\n"
	for i := 0; i < 25; i++ {
		csvData += "42\n"
	}

	path := writeTempCSV(t, csvData)
	extractor := NewCSVExtractor(nil)

	result, err := extractor.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 25, result.CSV.RowCount)
	assert.Len(t, result.CSV.Columns[0].Samples, maxColumnSamples)
	assert.Equal(t, 1, result.CSV.Columns[0].UniqueValues)
}

func TestCSVExtractor_Extract_HeaderOnly(t *testing.T) {
	path := writeTempCSV(t, "a,b,c\n")
	extractor := NewCSVExtractor(nil)

	result, err := extractor.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 0, result.CSV.RowCount)
	assert.Equal(t, 3, result.CSV.ColumnCount)

	for _, col := range result.CSV.Columns {
		assert.Equal(t, models.ColumnTypeText, col.DataType)
		assert.Zero(t, col.FillRate)
	}
}

func TestCSVExtractor_Extract_EmptyFile(t *testing.T) {
	path := writeTempCSV(t, "")
	extractor := NewCSVExtractor(nil)

	_, err := extractor.Extract(context.Background(), path)
	require.Error(t, err)

	var extractionErr *lumerrors.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, "empty file", extractionErr.Reason)
}

func TestCSVExtractor_Extract_MissingFile(t *testing.T) {
	extractor := NewCSVExtractor(nil)

	_, err := extractor.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)

	var extractionErr *lumerrors.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, "file not found", extractionErr.Reason)
}

func TestCSVExtractor_Extract_MalformedCSV(t *testing.T) {
	// Unclosed quote makes the record unparsable.
	path := writeTempCSV(t, "a,b\n\"oops,1\nx,2\n")
	extractor := NewCSVExtractor(nil)

	_, err := extractor.Extract(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &lumerrors.ExtractionError{}))
}

func TestCSVExtractor_Extract_FromURL(t *testing.T) {
	csvData := "city,population\nBerlin,3700000\nParis,2100000\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(csvData))
	}))
	defer server.Close()

	extractor := NewCSVExtractor(nil)

	result, err := extractor.Extract(context.Background(), server.URL+"/data.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, result.CSV.RowCount)
	assert.Equal(t, models.ColumnTypeInteger, result.CSV.Columns[1].DataType)
}

func TestCSVExtractor_Extract_URLNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	extractor := NewCSVExtractor(nil)

	_, err := extractor.Extract(context.Background(), server.URL+"/missing.csv")
	require.Error(t, err)

	var extractionErr *lumerrors.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Contains(t, extractionErr.Reason, "status 404")
}

func TestValidateCSV(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := writeTempCSV(t, "a,b\n1,2\n3,4\n")
		assert.NoError(t, ValidateCSV(context.Background(), path))
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeTempCSV(t, "")
		err := ValidateCSV(context.Background(), path)
		require.Error(t, err)

		var extractionErr *lumerrors.ExtractionError
		require.ErrorAs(t, err, &extractionErr)
		assert.Equal(t, "empty file", extractionErr.Reason)
	})

	t.Run("inconsistent field count", func(t *testing.T) {
		path := writeTempCSV(t, "a,b,c\n1,2\n")
		err := ValidateCSV(context.Background(), path)
		require.Error(t, err)

		var extractionErr *lumerrors.ExtractionError
		require.ErrorAs(t, err, &extractionErr)
		assert.Equal(t, "unparsable CSV", extractionErr.Reason)
	})

	t.Run("missing file", func(t *testing.T) {
		err := ValidateCSV(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
		require.Error(t, err)
	})
}

func TestInferDataType(t *testing.T) {
	tests := []struct {
		name    string
		samples []string
		want    models.ColumnDataType
	}{
		{"integers", []string{"1", "42", "-7"}, models.ColumnTypeInteger},
		{"floats", []string{"1.5", "2", "3.14"}, models.ColumnTypeFloat},
		{"iso dates", []string{"2024-01-15", "2023-12-31"}, models.ColumnTypeDate},
		{"us dates", []string{"1/15/2024", "12/31/2023"}, models.ColumnTypeDate},
		{"booleans", []string{"true", "FALSE", "yes"}, models.ColumnTypeBoolean},
		{"emails", []string{"a@example.com", "b@test.org"}, models.ColumnTypeEmail},
		{"urls", []string{"https://example.com", "http://test.org/page"}, models.ColumnTypeURL},
		{"plain text", []string{"hello", "world"}, models.ColumnTypeText},
		{"mixed falls back to text", []string{"42", "hello"}, models.ColumnTypeText},
		{"no samples", nil, models.ColumnTypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferDataType(tt.samples))
		})
	}
}

func TestResolveSource_Oversized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.csv")

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(MaxFileSize+1))
	require.NoError(t, f.Close())

	_, _, err = resolveSource(context.Background(), path)
	require.Error(t, err)

	var extractionErr *lumerrors.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Contains(t, extractionErr.Reason, "file too large")
}
