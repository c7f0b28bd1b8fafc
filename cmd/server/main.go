package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/manikandareas/masukptn-backend/internal/config"
	"github.com/manikandareas/masukptn-backend/internal/database"
	"github.com/manikandareas/masukptn-backend/internal/handler"
	"github.com/manikandareas/masukptn-backend/internal/jobs"
	"github.com/manikandareas/masukptn-backend/internal/logger"
	"github.com/manikandareas/masukptn-backend/internal/queue"
	"github.com/manikandareas/masukptn-backend/internal/repository"
	"github.com/manikandareas/masukptn-backend/internal/router"
	"github.com/manikandareas/masukptn-backend/internal/service"
	"github.com/manikandareas/masukptn-backend/internal/storage"
	"github.com/manikandareas/masukptn-backend/internal/validator"
	"github.com/manikandareas/masukptn-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting MasukPTN Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	subtestRepo := repository.NewSubtestRepository(pool)
	blueprintRepo := repository.NewBlueprintRepository(pool)
	importRepo := repository.NewQuestionImportRepository(pool)

	// ─── Initialize Infrastructure ─────────────────────────────────────
	objectStore := storage.New(cfg.StorageRoot)
	dispatcher := queue.NewDispatcher(rdb, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, userRepo)
	practiceService := service.NewPracticeService(attemptRepo, questionRepo)
	tryoutService := service.NewTryoutService(attemptRepo, questionRepo, blueprintRepo, service.NewClockCache(rdb), log)
	catalogService := service.NewCatalogService(examRepo, blueprintRepo, subtestRepo)
	questionService := service.NewQuestionService(questionRepo, subtestRepo)
	adminService := service.NewAdminService(subtestRepo, examRepo, blueprintRepo)
	extractService := service.NewExtractService()

	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set, draft generation will fail until configured")
	}
	geminiService, err := service.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Gemini client")
	}

	importService := service.NewImportService(
		importRepo, questionRepo, objectStore, dispatcher,
		extractService, geminiService, cfg.ImportRetries, log,
	)

	// ─── Register Jobs ─────────────────────────────────────────────────
	registry, err := jobs.Bootstrap(importService.Process)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register job handlers")
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Catalog:  handler.NewCatalogHandler(catalogService),
		Practice: handler.NewPracticeHandler(practiceService),
		Tryout:   handler.NewTryoutHandler(tryoutService),
		Admin:    handler.NewAdminHandler(adminService),
		Question: handler.NewQuestionHandler(questionService),
		Import:   handler.NewImportHandler(importService, cfg),
		Job:      handler.NewJobHandler(registry, cfg.JobToken, log),
		WS:       handler.NewWSHandler(tryoutService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Worker ──────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	importWorker := worker.NewImportWorker(rdb, registry, dispatcher, log)
	go importWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the import worker and let in-flight jobs settle.
	workerCancel()
	time.Sleep(2 * time.Second)

	geminiService.Close()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
