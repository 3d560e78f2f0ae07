package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/adolfdaniel/browser-genai-eval/internal/storage/models"
	"github.com/adolfdaniel/browser-genai-eval/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS evaluation_runs (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		dataset TEXT NOT NULL,
		mode TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		completed_at INTEGER NOT NULL,
		total_results INTEGER NOT NULL,
		avg_rouge1 REAL,
		avg_rouge2 REAL,
		avg_rougeL REAL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_session ON evaluation_runs(session_id);
	CREATE INDEX IF NOT EXISTS idx_runs_completed ON evaluation_runs(completed_at);

	CREATE TABLE IF NOT EXISTS run_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		article_id INTEGER NOT NULL,
		configuration TEXT NOT NULL,
		article_length INTEGER,
		generated_summary TEXT,
		rouge1 REAL,
		rouge2 REAL,
		rougeL REAL,
		compression_ratio REAL,
		processing_time REAL,
		source TEXT,
		timestamp TEXT,
		FOREIGN KEY (run_id) REFERENCES evaluation_runs(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_results_run ON run_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_config ON run_results(configuration);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) SaveRun(run *models.EvaluationRun, results []models.RunResult) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO evaluation_runs
			(id, session_id, dataset, mode, started_at, completed_at, total_results, avg_rouge1, avg_rouge2, avg_rougeL)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.SessionID,
		run.Dataset,
		run.Mode,
		run.StartedAt.Unix(),
		run.CompletedAt.Unix(),
		run.TotalResults,
		run.AvgRouge1,
		run.AvgRouge2,
		run.AvgRougeL,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO run_results
			(run_id, article_id, configuration, article_length, generated_summary,
			 rouge1, rouge2, rougeL, compression_ratio, processing_time, source, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, result := range results {
		_, err = stmt.Exec(
			run.ID,
			result.ArticleID,
			result.Configuration,
			result.ArticleLength,
			result.GeneratedSummary,
			result.Rouge1,
			result.Rouge2,
			result.RougeL,
			result.CompressionRatio,
			result.ProcessingTime,
			result.Source,
			result.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	logger.Debug("Run persisted", zap.String("run_id", run.ID), zap.Int("results", len(results)))
	return nil
}

func (c *Client) ListRuns(limit int) ([]models.EvaluationRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := c.db.Query(
		`SELECT id, session_id, dataset, mode, started_at, completed_at, total_results,
			avg_rouge1, avg_rouge2, avg_rougeL
		 FROM evaluation_runs ORDER BY completed_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.EvaluationRun
	for rows.Next() {
		var run models.EvaluationRun
		var startedAt, completedAt int64

		err = rows.Scan(
			&run.ID,
			&run.SessionID,
			&run.Dataset,
			&run.Mode,
			&startedAt,
			&completedAt,
			&run.TotalResults,
			&run.AvgRouge1,
			&run.AvgRouge2,
			&run.AvgRougeL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.StartedAt = time.Unix(startedAt, 0)
		run.CompletedAt = time.Unix(completedAt, 0)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

func (c *Client) GetRunResults(runID string) ([]models.RunResult, error) {
	rows, err := c.db.Query(
		`SELECT run_id, article_id, configuration, article_length, generated_summary,
			rouge1, rouge2, rougeL, compression_ratio, processing_time, source, timestamp
		 FROM run_results WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query run results: %w", err)
	}
	defer rows.Close()

	var results []models.RunResult
	for rows.Next() {
		var result models.RunResult
		err = rows.Scan(
			&result.RunID,
			&result.ArticleID,
			&result.Configuration,
			&result.ArticleLength,
			&result.GeneratedSummary,
			&result.Rouge1,
			&result.Rouge2,
			&result.RougeL,
			&result.CompressionRatio,
			&result.ProcessingTime,
			&result.Source,
			&result.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run results: %w", err)
	}

	return results, nil
}
