package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adolfdaniel/browser-genai-eval/internal/rouge"
	"github.com/adolfdaniel/browser-genai-eval/internal/session"
)

func sampleResults() []session.ScoredResult {
	return []session.ScoredResult{
		{
			ArticleID:        1,
			Configuration:    "tldr_short_plain-text",
			ArticleLength:    1200,
			ReferenceSummary: "the reference",
			GeneratedSummary: "the, \"quoted\" summary",
			RougeScores:      rouge.Scores{Rouge1: 0.5, Rouge2: 0.25, RougeL: 0.4},
			CompressionRatio: 0.1,
			ProcessingTime:   1.5,
			Timestamp:        "2024-01-01T12:00:00Z",
			Source:           session.SourceBrowser,
		},
		{
			ArticleID:        2,
			Configuration:    "headline_long_markdown",
			ArticleLength:    800,
			GeneratedSummary: "fallback text",
			Timestamp:        "2024-01-01T12:00:30Z",
			Source:           session.SourceTimeoutFallback,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResults()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"article_id", "configuration", "article_length",
		"reference_summary", "generated_summary",
		"rouge1", "rouge2", "rougeL",
		"compression_ratio", "processing_time", "timestamp", "source",
	}, records[0])

	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "tldr_short_plain-text", records[1][1])
	assert.Equal(t, "the, \"quoted\" summary", records[1][4], "quoting survives the round trip")
	assert.Equal(t, "0.500000", records[1][5])
	assert.Equal(t, "browser_api", records[1][11])

	assert.Equal(t, "timeout_fallback", records[2][11])
	assert.Equal(t, "0.000000", records[2][5])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1, "header only")
}

func TestFilename(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "summarization_results_20240315_090507.csv", Filename(ts))
}

func TestExportToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "results")

	path, err := ExportToFile(dir, sampleResults())
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tldr_short_plain-text")
}
