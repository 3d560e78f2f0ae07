package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/adolfdaniel/browser-genai-eval/internal/dataset"
	"github.com/adolfdaniel/browser-genai-eval/internal/evaluation"
	"github.com/adolfdaniel/browser-genai-eval/internal/export"
	"github.com/adolfdaniel/browser-genai-eval/internal/session"
	"github.com/adolfdaniel/browser-genai-eval/internal/storage/models"
	"github.com/adolfdaniel/browser-genai-eval/pkg/logger"
)

// RunLister reads persisted run history.
type RunLister interface {
	ListRuns(limit int) ([]models.EvaluationRun, error)
}

type EvaluationHandler struct {
	store          *session.Store
	orchestrator   *evaluation.Orchestrator
	runs           RunLister
	defaultDataset string
	resultsDir     string
}

func NewEvaluationHandler(store *session.Store, orchestrator *evaluation.Orchestrator, runs RunLister, defaultDataset, resultsDir string) *EvaluationHandler {
	return &EvaluationHandler{
		store:          store,
		orchestrator:   orchestrator,
		runs:           runs,
		defaultDataset: defaultDataset,
		resultsDir:     resultsDir,
	}
}

type startRequest struct {
	SessionID       string `json:"session_id"`
	MaxArticles     int    `json:"max_articles"`
	EvaluationMode  string `json:"evaluation_mode"`
	SelectedConfig  string `json:"selected_config"`
	SelectedDataset string `json:"selected_dataset"`
}

func (h *EvaluationHandler) StartEvaluation(c *fiber.Ctx) error {
	var req startRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON body"})
	}

	if req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id is required"})
	}

	mode := session.Mode(req.EvaluationMode)
	if mode == "" {
		mode = session.ModeSingle
	}
	if mode != session.ModeSingle && mode != session.ModeAll {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Invalid evaluation_mode: %s", req.EvaluationMode),
		})
	}

	selectedConfig := session.DefaultConfiguration()
	if mode == session.ModeSingle && req.SelectedConfig != "" {
		var err error
		selectedConfig, err = session.ParseConfiguration(req.SelectedConfig)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	datasetID := req.SelectedDataset
	if datasetID == "" {
		datasetID = h.defaultDataset
	}
	if _, ok := dataset.Lookup(datasetID); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Invalid dataset: %s", datasetID),
		})
	}

	ack, err := h.orchestrator.Start(req.SessionID, evaluation.StartParams{
		DatasetID:      datasetID,
		MaxArticles:    req.MaxArticles,
		Mode:           mode,
		SelectedConfig: selectedConfig,
	})
	if err != nil {
		return evaluationError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":          "Evaluation started",
		"max_articles":     ack.MaxArticles,
		"evaluation_mode":  ack.Mode,
		"selected_config":  ack.SelectedConfig,
		"selected_dataset": ack.Dataset,
		"total_articles":   ack.TotalArticles,
		"total_items":      ack.TotalItems,
	})
}

type stopRequest struct {
	SessionID string `json:"session_id"`
}

func (h *EvaluationHandler) StopEvaluation(c *fiber.Ctx) error {
	var req stopRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON body"})
	}

	if err := h.orchestrator.Stop(req.SessionID); err != nil {
		return evaluationError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Evaluation stopped"})
}

func (h *EvaluationHandler) GetResults(c *fiber.Ctx) error {
	sess, err := h.store.Get(c.Query("session_id"))
	if err != nil {
		return evaluationError(c, err)
	}

	return c.JSON(sess.Results())
}

func (h *EvaluationHandler) GetStatus(c *fiber.Ctx) error {
	sess, err := h.store.Get(c.Query("session_id"))
	if err != nil {
		return evaluationError(c, err)
	}

	return c.JSON(sess.Snapshot())
}

func (h *EvaluationHandler) GetDatasets(c *fiber.Ctx) error {
	datasets := make(map[string]dataset.Info)
	for _, info := range dataset.Catalog() {
		datasets[info.ID] = info
	}

	return c.JSON(fiber.Map{
		"datasets": datasets,
		"default":  h.defaultDataset,
	})
}

// ExportResults writes the session's results to the results directory and
// streams the file back as a download.
func (h *EvaluationHandler) ExportResults(c *fiber.Ctx) error {
	sess, err := h.store.Get(c.Query("session_id"))
	if err != nil {
		return evaluationError(c, err)
	}

	results := sess.Results()
	if len(results) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No results to export"})
	}

	path, err := export.ExportToFile(h.resultsDir, results)
	if err != nil {
		logger.Error("Failed to export results", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Export failed"})
	}

	logger.Info("Results exported",
		zap.String("session_id", sess.ID),
		zap.String("path", path),
		zap.Int("results", len(results)),
	)
	return c.Download(path)
}

func (h *EvaluationHandler) GetRuns(c *fiber.Ctx) error {
	if h.runs == nil {
		return c.JSON([]models.EvaluationRun{})
	}

	runs, err := h.runs.ListRuns(c.QueryInt("limit", 50))
	if err != nil {
		logger.Error("Failed to list runs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list runs"})
	}
	if runs == nil {
		runs = []models.EvaluationRun{}
	}

	return c.JSON(runs)
}

func evaluationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, session.ErrAlreadyRunning), errors.Is(err, session.ErrDuplicateSession):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		logger.Error("Evaluation request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal error"})
	}
}
