package models

import "time"

// EvaluationRun is one persisted evaluation run, written when a session
// reaches Completed.
type EvaluationRun struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Dataset      string    `json:"dataset"`
	Mode         string    `json:"evaluation_mode"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
	TotalResults int       `json:"total_results"`
	AvgRouge1    float64   `json:"avg_rouge1"`
	AvgRouge2    float64   `json:"avg_rouge2"`
	AvgRougeL    float64   `json:"avg_rougeL"`
}

type RunResult struct {
	RunID            string  `json:"run_id"`
	ArticleID        int     `json:"article_id"`
	Configuration    string  `json:"configuration"`
	ArticleLength    int     `json:"article_length"`
	GeneratedSummary string  `json:"generated_summary"`
	Rouge1           float64 `json:"rouge1"`
	Rouge2           float64 `json:"rouge2"`
	RougeL           float64 `json:"rougeL"`
	CompressionRatio float64 `json:"compression_ratio"`
	ProcessingTime   float64 `json:"processing_time"`
	Source           string  `json:"source"`
	Timestamp        string  `json:"timestamp"`
}
