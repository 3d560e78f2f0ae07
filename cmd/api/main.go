package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/adolfdaniel/browser-genai-eval/internal/api/handlers"
	rediscache "github.com/adolfdaniel/browser-genai-eval/internal/cache/redis"
	"github.com/adolfdaniel/browser-genai-eval/internal/dataset"
	"github.com/adolfdaniel/browser-genai-eval/internal/evaluation"
	"github.com/adolfdaniel/browser-genai-eval/internal/metrics"
	"github.com/adolfdaniel/browser-genai-eval/internal/middleware/ratelimit"
	"github.com/adolfdaniel/browser-genai-eval/internal/middleware/security"
	"github.com/adolfdaniel/browser-genai-eval/internal/rouge"
	"github.com/adolfdaniel/browser-genai-eval/internal/session"
	"github.com/adolfdaniel/browser-genai-eval/internal/storage/sqlite"
	"github.com/adolfdaniel/browser-genai-eval/pkg/config"
	appLogger "github.com/adolfdaniel/browser-genai-eval/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting summarization evaluation server")

	metrics.Init()

	var cache *rediscache.Client
	if cfg.Redis.Enabled {
		cache, err = rediscache.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, article caching disabled", zap.Error(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	var history *sqlite.Client
	if cfg.SQLite.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0755); err != nil {
			appLogger.Warn("Failed to create data dir", zap.Error(err))
		}
		history, err = sqlite.NewClient(cfg.SQLite.Path)
		if err != nil {
			appLogger.Warn("SQLite unavailable, run history disabled", zap.Error(err))
			history = nil
		} else {
			defer history.Close()
			if err := history.InitSchema(); err != nil {
				appLogger.Fatal("Failed to initialize schema", zap.Error(err))
			}
		}
	}

	store := session.NewStore()
	provider := dataset.NewProvider(cfg.Dataset, cache)
	scorer := rouge.NewScorer(cfg.Evaluation.UseStemmer)
	hub := handlers.NewHub()

	var recorder evaluation.RunRecorder
	if history != nil {
		recorder = history
	}

	orchestrator := evaluation.NewOrchestrator(store, provider, scorer, hub, recorder, evaluation.Config{
		ResponseTimeout: time.Duration(cfg.Evaluation.ResponseTimeoutSec) * time.Second,
		SweepInterval:   time.Duration(cfg.Evaluation.SweepIntervalSec) * time.Second,
		DispatchDelay:   time.Duration(cfg.Evaluation.DispatchDelayMS) * time.Millisecond,
		MaxArticles:     cfg.Evaluation.MaxAllowedArticles,
		DefaultArticles: cfg.Evaluation.DefaultMaxArticles,
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go orchestrator.RunSweeper(sweepCtx)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(security.Headers())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 120,
		Logger:               appLogger.Log,
	})

	var runs handlers.RunLister
	if history != nil {
		runs = history
	}
	evalHandler := handlers.NewEvaluationHandler(store, orchestrator, runs, cfg.Dataset.Default, cfg.Export.ResultsDir)
	wsHandler := handlers.NewWebSocketHandler(store, orchestrator, hub)

	api := app.Group("/api", limiter.Middleware())
	api.Post("/start_evaluation", evalHandler.StartEvaluation)
	api.Post("/stop_evaluation", evalHandler.StopEvaluation)
	api.Get("/results", evalHandler.GetResults)
	api.Get("/status", evalHandler.GetStatus)
	api.Get("/datasets", evalHandler.GetDatasets)
	api.Get("/export_results", evalHandler.ExportResults)
	api.Get("/runs", evalHandler.GetRuns)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	stopSweep()
	app.Shutdown()
	appLogger.Info("Server stopped")
}
