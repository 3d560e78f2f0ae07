package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adolfdaniel/browser-genai-eval/internal/dataset"
	"github.com/adolfdaniel/browser-genai-eval/internal/rouge"
)

type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusStopping
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusStopping:
		return "stopping"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

type Mode string

const (
	ModeSingle Mode = "single"
	ModeAll    Mode = "all"
)

// Result sources. Timeout and error fallbacks still produce a ScoredResult so
// progress counts stay consistent.
const (
	SourceBrowser         = "browser_api"
	SourceErrorFallback   = "error_fallback"
	SourceTimeoutFallback = "timeout_fallback"
)

// PendingRequest is one row of the per-session request correlation table.
// Entries are created on dispatch and removed on the matching response or the
// timeout sweep, never mutated in place.
type PendingRequest struct {
	RequestID    string
	ArticleIndex int
	Config       Configuration
	DispatchedAt time.Time
}

type ScoredResult struct {
	ArticleID        int          `json:"article_id"`
	Configuration    string       `json:"configuration"`
	ArticleLength    int          `json:"article_length"`
	ReferenceSummary string       `json:"reference_summary"`
	GeneratedSummary string       `json:"generated_summary"`
	RougeScores      rouge.Scores `json:"rouge_scores"`
	CompressionRatio float64      `json:"compression_ratio"`
	ProcessingTime   float64      `json:"processing_time"`
	Timestamp        string       `json:"timestamp"`
	Source           string       `json:"source"`
}

// RunParams captures everything a single evaluation run needs. Articles and
// Configs are fixed for the run's lifetime.
type RunParams struct {
	DatasetID   string
	DatasetName string
	MaxArticles int
	Mode        Mode
	Articles    []dataset.Article
	Configs     []Configuration
}

// EvaluationSession is one isolated evaluation context per connected client.
// All mutable fields are guarded by the session's own mutex; the store never
// serializes sessions against each other.
type EvaluationSession struct {
	ID string

	mu          sync.Mutex
	status      Status
	datasetID   string
	datasetName string
	maxArticles int
	mode        Mode
	articles    []dataset.Article
	configs     []Configuration
	pending     map[string]*PendingRequest
	results     []ScoredResult
	run         int
	dispatched  int
	curArticle  int
	curConfig   int
	cancel      context.CancelFunc

	// wake resumes the dispatch loop when a pending request resolves.
	// Buffered so resolvers never block.
	wake chan struct{}
}

func newSession(id string) *EvaluationSession {
	return &EvaluationSession{
		ID:      id,
		status:  StatusIdle,
		pending: make(map[string]*PendingRequest),
		wake:    make(chan struct{}, 1),
	}
}

// BeginRun transitions the session into Running and resets all per-run state.
// Restarting a Completed session clears prior results; the run counter makes
// stale request ids from earlier runs unmatchable.
func (s *EvaluationSession) BeginRun(params RunParams) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusRunning || s.status == StatusStopping {
		return 0, ErrAlreadyRunning
	}

	s.status = StatusRunning
	s.datasetID = params.DatasetID
	s.datasetName = params.DatasetName
	s.maxArticles = params.MaxArticles
	s.mode = params.Mode
	s.articles = params.Articles
	s.configs = params.Configs
	s.pending = make(map[string]*PendingRequest)
	s.results = nil
	s.dispatched = 0
	s.curArticle = 0
	s.curConfig = 0
	s.run++

	// Drain any stale wake signal from a previous run.
	select {
	case <-s.wake:
	default:
	}

	return s.run, nil
}

// RequestStop asks the dispatch loop to wind down. Pending requests are left
// to resolve through the normal response path or the timeout sweep.
func (s *EvaluationSession) RequestStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRunning {
		return false
	}
	s.status = StatusStopping
	s.signalLocked()
	return true
}

// CompleteRun marks the given run Completed. It reports true only for the
// first caller of the current run, which is the exactly-once guard for the
// completion event.
func (s *EvaluationSession) CompleteRun(run int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != run || (s.status != StatusRunning && s.status != StatusStopping) {
		return false
	}
	s.status = StatusCompleted
	return true
}

func (s *EvaluationSession) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *EvaluationSession) Run() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run
}

func (s *EvaluationSession) Article(index int) (dataset.Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.articles) {
		return dataset.Article{}, false
	}
	return s.articles[index], true
}

func (s *EvaluationSession) SetCursors(articleIdx, configIdx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.curArticle = articleIdx
	s.curConfig = configIdx
}

// AddPending inserts a correlation entry. A duplicate request id is an
// invariant violation and is rejected rather than overwritten, since an
// overwrite would orphan a browser-side response.
func (s *EvaluationSession) AddPending(req *PendingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.ArticleIndex < 0 || req.ArticleIndex >= len(s.articles) {
		return fmt.Errorf("%w: index %d with %d articles", ErrArticleOutOfRange, req.ArticleIndex, len(s.articles))
	}
	if _, exists := s.pending[req.RequestID]; exists {
		return fmt.Errorf("%w: %s", ErrCorrelationCollision, req.RequestID)
	}

	s.pending[req.RequestID] = req
	s.dispatched++
	return nil
}

// TakePending resolves a correlation entry. The false return is the
// duplicate/late-response defense: an id that was already resolved (or never
// existed) matches nothing.
func (s *EvaluationSession) TakePending(requestID string) (*PendingRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.pending[requestID]
	if !ok {
		return nil, false
	}
	delete(s.pending, requestID)
	return req, true
}

func (s *EvaluationSession) AppendResult(result ScoredResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
}

// ExpiredPending returns the request ids of entries older than timeout.
// Resolution happens through the normal response path, so an id that races
// with a real response simply misses.
func (s *EvaluationSession) ExpiredPending(now time.Time, timeout time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []string
	for id, req := range s.pending {
		if now.Sub(req.DispatchedAt) >= timeout {
			expired = append(expired, id)
		}
	}
	return expired
}

// Counts reports completed, outstanding and total expected items for the
// current run.
func (s *EvaluationSession) Counts() (completed, pending, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results), len(s.pending), len(s.articles) * len(s.configs)
}

func (s *EvaluationSession) Dispatched() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatched
}

func (s *EvaluationSession) Results() []ScoredResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ScoredResult, len(s.results))
	copy(out, s.results)
	return out
}

func (s *EvaluationSession) SetCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = cancel
}

// Cancel tears down any in-flight orchestration. Safe to call repeatedly.
func (s *EvaluationSession) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Signal wakes the dispatch loop. Non-blocking; coalescing signals is fine
// because the loop re-checks counts on every wake.
func (s *EvaluationSession) Signal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signalLocked()
}

func (s *EvaluationSession) signalLocked() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *EvaluationSession) Wake() <-chan struct{} {
	return s.wake
}

// Snapshot is a read-only view for the status event and the results endpoint.
type Snapshot struct {
	SessionID      string         `json:"session_id"`
	Status         string         `json:"status"`
	IsRunning      bool           `json:"is_running"`
	DatasetID      string         `json:"dataset_id"`
	DatasetName    string         `json:"dataset"`
	Mode           Mode           `json:"evaluation_mode"`
	CurrentArticle int            `json:"current_article"`
	TotalArticles  int            `json:"total_articles"`
	TotalItems     int            `json:"total_items"`
	Completed      int            `json:"completed"`
	Pending        int            `json:"pending"`
	Results        []ScoredResult `json:"results"`
}

func (s *EvaluationSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]ScoredResult, len(s.results))
	copy(results, s.results)

	return Snapshot{
		SessionID:      s.ID,
		Status:         s.status.String(),
		IsRunning:      s.status == StatusRunning || s.status == StatusStopping,
		DatasetID:      s.datasetID,
		DatasetName:    s.datasetName,
		Mode:           s.mode,
		CurrentArticle: s.curArticle,
		TotalArticles:  len(s.articles),
		TotalItems:     len(s.articles) * len(s.configs),
		Completed:      len(s.results),
		Pending:        len(s.pending),
		Results:        results,
	}
}
