package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adolfdaniel/browser-genai-eval/internal/session"
)

var header = []string{
	"article_id",
	"configuration",
	"article_length",
	"reference_summary",
	"generated_summary",
	"rouge1",
	"rouge2",
	"rougeL",
	"compression_ratio",
	"processing_time",
	"timestamp",
	"source",
}

func WriteCSV(w io.Writer, results []session.ScoredResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, result := range results {
		row := []string{
			strconv.Itoa(result.ArticleID),
			result.Configuration,
			strconv.Itoa(result.ArticleLength),
			result.ReferenceSummary,
			result.GeneratedSummary,
			formatFloat(result.RougeScores.Rouge1),
			formatFloat(result.RougeScores.Rouge2),
			formatFloat(result.RougeScores.RougeL),
			formatFloat(result.CompressionRatio),
			formatFloat(result.ProcessingTime),
			result.Timestamp,
			result.Source,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// Filename embeds the export time, e.g. summarization_results_20240101_120000.csv.
func Filename(t time.Time) string {
	return fmt.Sprintf("summarization_results_%s.csv", t.Format("20060102_150405"))
}

// ExportToFile writes the results to a timestamped file under dir, creating
// the directory if needed, and returns the written path.
func ExportToFile(dir string, results []session.ScoredResult) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results dir: %w", err)
	}

	path := filepath.Join(dir, Filename(time.Now()))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	if err := WriteCSV(file, results); err != nil {
		return "", err
	}
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
