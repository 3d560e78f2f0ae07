// Package evaluation drives one session's dataset walk to completion. The
// browser-hosted summarizer is treated as an unreliable remote worker:
// requests are dispatched over the event channel, correlated back by id, and
// resolved by the first of a real response or the timeout sweep.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adolfdaniel/browser-genai-eval/internal/dataset"
	"github.com/adolfdaniel/browser-genai-eval/internal/metrics"
	"github.com/adolfdaniel/browser-genai-eval/internal/rouge"
	"github.com/adolfdaniel/browser-genai-eval/internal/session"
	"github.com/adolfdaniel/browser-genai-eval/internal/storage/models"
	"github.com/adolfdaniel/browser-genai-eval/pkg/logger"
)

// RunRecorder persists completed runs. Failures are logged, never surfaced to
// the session.
type RunRecorder interface {
	SaveRun(run *models.EvaluationRun, results []models.RunResult) error
}

// ArticleLoader supplies article/reference pairs for a dataset. Satisfied by
// *dataset.Provider.
type ArticleLoader interface {
	Load(ctx context.Context, datasetID string, maxArticles int) ([]dataset.Article, error)
}

type Config struct {
	ResponseTimeout time.Duration
	SweepInterval   time.Duration
	DispatchDelay   time.Duration
	MaxArticles     int
	DefaultArticles int
}

type Orchestrator struct {
	store    *session.Store
	provider ArticleLoader
	scorer   *rouge.Scorer
	emitter  Emitter
	recorder RunRecorder
	cfg      Config
}

func NewOrchestrator(store *session.Store, provider ArticleLoader, scorer *rouge.Scorer, emitter Emitter, recorder RunRecorder, cfg Config) *Orchestrator {
	if cfg.ResponseTimeout == 0 {
		cfg.ResponseTimeout = 30 * time.Second
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 5 * time.Second
	}
	if cfg.MaxArticles == 0 {
		cfg.MaxArticles = 50
	}
	if cfg.DefaultArticles == 0 {
		cfg.DefaultArticles = 20
	}

	return &Orchestrator{
		store:    store,
		provider: provider,
		scorer:   scorer,
		emitter:  emitter,
		recorder: recorder,
		cfg:      cfg,
	}
}

type StartParams struct {
	DatasetID      string
	MaxArticles    int
	Mode           session.Mode
	SelectedConfig session.Configuration
}

type StartAck struct {
	MaxArticles    int          `json:"max_articles"`
	Mode           session.Mode `json:"evaluation_mode"`
	SelectedConfig string       `json:"selected_config,omitempty"`
	Dataset        string       `json:"selected_dataset"`
	TotalArticles  int          `json:"total_articles"`
	TotalItems     int          `json:"total_items"`
}

// Start loads articles, resets the session and launches its dispatch loop.
// A dataset that cannot be loaded degrades to the built-in samples instead of
// failing the run.
func (o *Orchestrator) Start(sessionID string, params StartParams) (*StartAck, error) {
	sess, err := o.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if status := sess.Status(); status == session.StatusRunning || status == session.StatusStopping {
		return nil, session.ErrAlreadyRunning
	}

	maxArticles := params.MaxArticles
	if maxArticles <= 0 {
		maxArticles = o.cfg.DefaultArticles
	}
	if maxArticles > o.cfg.MaxArticles {
		maxArticles = o.cfg.MaxArticles
	}

	datasetID := params.DatasetID
	articles, err := o.provider.Load(context.Background(), datasetID, maxArticles)
	if err != nil {
		if !errors.Is(err, dataset.ErrDatasetUnavailable) {
			return nil, err
		}
		logger.Warn("Dataset unavailable, falling back to sample articles",
			zap.String("dataset", datasetID),
			zap.Error(err),
		)
		metrics.DatasetFallbacks.Inc()
		datasetID = dataset.SampleDataset
		articles = dataset.SampleArticles(maxArticles)
	}

	var configs []session.Configuration
	if params.Mode == session.ModeAll {
		configs = session.AllConfigurations()
	} else {
		configs = []session.Configuration{params.SelectedConfig}
	}

	datasetName := dataset.DisplayName(datasetID)
	run, err := sess.BeginRun(session.RunParams{
		DatasetID:   datasetID,
		DatasetName: datasetName,
		MaxArticles: maxArticles,
		Mode:        params.Mode,
		Articles:    articles,
		Configs:     configs,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess.SetCancel(cancel)

	metrics.EvaluationsStarted.Inc()
	metrics.RunningEvaluations.Inc()

	o.logf(sessionID, "Starting evaluation process with %s dataset...", datasetName)
	o.emitter.Emit(sessionID, EventEvaluationStarted, startedPayload{
		TotalArticles: len(articles),
		TotalItems:    len(articles) * len(configs),
		Dataset:       datasetName,
	})

	go o.runLoop(ctx, sess, run, articles, configs)

	ack := &StartAck{
		MaxArticles:   maxArticles,
		Mode:          params.Mode,
		Dataset:       datasetID,
		TotalArticles: len(articles),
		TotalItems:    len(articles) * len(configs),
	}
	if params.Mode == session.ModeSingle {
		ack.SelectedConfig = params.SelectedConfig.String()
	}
	return ack, nil
}

// Stop requests a cooperative wind-down. The loop observes it before the
// next dispatch; the in-flight request resolves normally or times out.
func (o *Orchestrator) Stop(sessionID string) error {
	sess, err := o.store.Get(sessionID)
	if err != nil {
		return err
	}

	if sess.RequestStop() {
		o.logf(sessionID, "Stop requested, finishing outstanding requests")
	}
	return nil
}

// runLoop walks articles x configurations with a single outstanding request
// at a time. Other sessions' loops run independently.
func (o *Orchestrator) runLoop(ctx context.Context, sess *session.EvaluationSession, run int, articles []dataset.Article, configs []session.Configuration) {
	defer metrics.RunningEvaluations.Dec()

	totalItems := len(articles) * len(configs)

loop:
	for i, article := range articles {
		for j, cfg := range configs {
			if ctx.Err() != nil {
				return
			}
			if sess.Status() == session.StatusStopping {
				break loop
			}

			sess.SetCursors(i, j)
			o.dispatch(sess, run, i, article, cfg, totalItems)

			if !o.awaitResolution(ctx, sess) {
				return
			}

			if o.cfg.DispatchDelay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(o.cfg.DispatchDelay):
				}
			}
		}
	}

	o.finish(sess, run)
}

func (o *Orchestrator) dispatch(sess *session.EvaluationSession, run, articleIdx int, article dataset.Article, cfg session.Configuration, totalItems int) {
	requestID := fmt.Sprintf("req_%d_%s_%d_%s", article.ID, cfg, run, uuid.NewString())

	err := sess.AddPending(&session.PendingRequest{
		RequestID:    requestID,
		ArticleIndex: articleIdx,
		Config:       cfg,
		DispatchedAt: time.Now(),
	})
	if err != nil {
		// Collisions are an internal invariant violation: skip this item and
		// keep the loop alive rather than orphaning a browser response.
		logger.Error("Failed to register pending request",
			zap.String("session_id", sess.ID),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return
	}

	metrics.Dispatches.Inc()
	o.logf(sess.ID, "Requesting %s summarization for article %d", cfg, article.ID)

	o.emitter.Emit(sess.ID, EventProgressUpdate, progressPayload{
		Current:   sess.Dispatched(),
		Total:     totalItems,
		ArticleID: article.ID,
	})
	o.emitter.Emit(sess.ID, EventSummarizeRequest, summarizeRequestPayload{
		RequestID:     requestID,
		ArticleID:     article.ID,
		Text:          article.Text,
		Configuration: cfg.String(),
	})
}

// awaitResolution suspends until the outstanding request resolves (response
// handler or timeout sweep) or the session is torn down.
func (o *Orchestrator) awaitResolution(ctx context.Context, sess *session.EvaluationSession) bool {
	for {
		_, pending, _ := sess.Counts()
		if pending == 0 {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-sess.Wake():
		}
	}
}

// Response is the payload of a summarization_result event from the browser.
type Response struct {
	ArticleID     int
	Configuration string
	Summary       string
	ErrorMessage  string
}

// HandleResponse resolves a correlated browser response. Unknown or
// already-resolved request ids are logged and discarded, which is the whole
// duplicate/late-response defense.
func (o *Orchestrator) HandleResponse(sessionID, requestID string, response Response) error {
	sess, err := o.store.Get(sessionID)
	if err != nil {
		return err
	}

	req, ok := sess.TakePending(requestID)
	if !ok {
		metrics.DiscardedResponses.Inc()
		logger.Debug("Discarding response with no pending request",
			zap.String("session_id", sessionID),
			zap.String("request_id", requestID),
		)
		return nil
	}

	article, ok := sess.Article(req.ArticleIndex)
	if !ok {
		logger.Error("Pending request referenced missing article",
			zap.String("request_id", requestID),
			zap.Int("article_index", req.ArticleIndex),
		)
		sess.Signal()
		return nil
	}

	o.logf(sessionID, "Received summarization for article %d (request: %s)", article.ID, requestID)

	var result session.ScoredResult
	if response.ErrorMessage != "" {
		o.logf(sessionID, "Error in browser summarization: %s", response.ErrorMessage)
		result = o.fallbackResult(article, req, session.SourceErrorFallback)
	} else {
		result = o.scoredResult(article, req, response.Summary, session.SourceBrowser)
	}

	o.deliverResult(sess, result)
	return nil
}

// resolveTimeout synthesizes an error result for a request the browser never
// answered, guaranteeing forward progress.
func (o *Orchestrator) resolveTimeout(sess *session.EvaluationSession, requestID string) {
	req, ok := sess.TakePending(requestID)
	if !ok {
		return
	}

	article, ok := sess.Article(req.ArticleIndex)
	if !ok {
		sess.Signal()
		return
	}

	o.logf(sess.ID, "Timeout waiting for browser response for article %d, config: %s", article.ID, req.Config)
	o.deliverResult(sess, o.fallbackResult(article, req, session.SourceTimeoutFallback))
}

func (o *Orchestrator) deliverResult(sess *session.EvaluationSession, result session.ScoredResult) {
	sess.AppendResult(result)

	metrics.Responses.WithLabelValues(result.Source).Inc()
	metrics.RougeScore.WithLabelValues("rouge1").Observe(result.RougeScores.Rouge1)
	metrics.RougeScore.WithLabelValues("rouge2").Observe(result.RougeScores.Rouge2)
	metrics.RougeScore.WithLabelValues("rougeL").Observe(result.RougeScores.RougeL)
	metrics.ProcessingTime.Observe(result.ProcessingTime)

	completed, _, total := sess.Counts()
	o.emitter.Emit(sess.ID, EventArticleCompleted, result)
	o.emitter.Emit(sess.ID, EventProgressUpdate, progressPayload{
		Current:   completed,
		Total:     total,
		ArticleID: result.ArticleID,
	})

	// Wake the dispatch loop; it either advances to the next item or, when
	// everything has resolved, finishes the run itself.
	sess.Signal()

	if completed >= total {
		o.finish(sess, sess.Run())
	}
}

// finish is called by both the dispatch loop and the last resolver; the
// CompleteRun guard makes the completion event exactly-once per run.
func (o *Orchestrator) finish(sess *session.EvaluationSession, run int) {
	if !sess.CompleteRun(run) {
		return
	}

	results := sess.Results()
	snapshot := sess.Snapshot()

	metrics.EvaluationsCompleted.Inc()
	o.logf(sess.ID, "Evaluation completed!")
	o.emitter.Emit(sess.ID, EventEvaluationCompleted, completedPayload{
		TotalResults: len(results),
		Results:      results,
	})

	if o.recorder != nil {
		go o.persistRun(snapshot, results)
	}
}

func (o *Orchestrator) scoredResult(article dataset.Article, req *session.PendingRequest, summary, source string) session.ScoredResult {
	scores := o.scorer.Score(summary, article.ReferenceSummary)

	compression := 0.0
	if len(article.Text) > 0 {
		compression = float64(len(summary)) / float64(len(article.Text))
	}

	return session.ScoredResult{
		ArticleID:        article.ID,
		Configuration:    req.Config.String(),
		ArticleLength:    len(article.Text),
		ReferenceSummary: article.ReferenceSummary,
		GeneratedSummary: summary,
		RougeScores:      scores,
		CompressionRatio: compression,
		ProcessingTime:   time.Since(req.DispatchedAt).Seconds(),
		Timestamp:        time.Now().Format(time.RFC3339),
		Source:           source,
	}
}

// fallbackResult builds a deterministic stand-in summary when the browser
// errored or timed out. It is scored like any other result so progress counts
// stay consistent.
func (o *Orchestrator) fallbackResult(article dataset.Article, req *session.PendingRequest, source string) session.ScoredResult {
	summary := fmt.Sprintf(
		"This article discusses key topics related to article %d using %s configuration. "+
			"The main points cover important aspects of the subject matter.",
		article.ID, req.Config,
	)
	return o.scoredResult(article, req, summary, source)
}

func (o *Orchestrator) persistRun(snapshot session.Snapshot, results []session.ScoredResult) {
	run := &models.EvaluationRun{
		ID:           uuid.NewString(),
		SessionID:    snapshot.SessionID,
		Dataset:      snapshot.DatasetName,
		Mode:         string(snapshot.Mode),
		StartedAt:    time.Now(),
		CompletedAt:  time.Now(),
		TotalResults: len(results),
	}

	rows := make([]models.RunResult, 0, len(results))
	var sum1, sum2, sumL float64
	var earliest time.Time

	for _, result := range results {
		sum1 += result.RougeScores.Rouge1
		sum2 += result.RougeScores.Rouge2
		sumL += result.RougeScores.RougeL

		if ts, err := time.Parse(time.RFC3339, result.Timestamp); err == nil {
			started := ts.Add(-time.Duration(result.ProcessingTime * float64(time.Second)))
			if earliest.IsZero() || started.Before(earliest) {
				earliest = started
			}
		}

		rows = append(rows, models.RunResult{
			RunID:            run.ID,
			ArticleID:        result.ArticleID,
			Configuration:    result.Configuration,
			ArticleLength:    result.ArticleLength,
			GeneratedSummary: result.GeneratedSummary,
			Rouge1:           result.RougeScores.Rouge1,
			Rouge2:           result.RougeScores.Rouge2,
			RougeL:           result.RougeScores.RougeL,
			CompressionRatio: result.CompressionRatio,
			ProcessingTime:   result.ProcessingTime,
			Source:           result.Source,
			Timestamp:        result.Timestamp,
		})
	}

	if len(results) > 0 {
		run.AvgRouge1 = sum1 / float64(len(results))
		run.AvgRouge2 = sum2 / float64(len(results))
		run.AvgRougeL = sumL / float64(len(results))
	}
	if !earliest.IsZero() {
		run.StartedAt = earliest
	}

	if err := o.recorder.SaveRun(run, rows); err != nil {
		logger.Error("Failed to persist evaluation run",
			zap.String("session_id", snapshot.SessionID),
			zap.Error(err),
		)
	}
}

func (o *Orchestrator) logf(sessionID, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	logger.Info(message, zap.String("session_id", sessionID))
	o.emitter.Emit(sessionID, EventLogUpdate, logPayload{
		Message: fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message),
	})
}
