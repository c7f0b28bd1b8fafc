package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/manikandareas/masukptn-backend/internal/config"
	"github.com/manikandareas/masukptn-backend/internal/handler"
	"github.com/manikandareas/masukptn-backend/internal/middleware"
	"github.com/manikandareas/masukptn-backend/internal/response"
	"github.com/manikandareas/masukptn-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Catalog  *handler.CatalogHandler
	Practice *handler.PracticeHandler
	Tryout   *handler.TryoutHandler
	Admin    *handler.AdminHandler
	Question *handler.QuestionHandler
	Import   *handler.ImportHandler
	Job      *handler.JobHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "X-Job-Token"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", authLimiter.Middleware(), handlers.Auth.Register)
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireUserJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireUserJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Catalog Group (Public, Cached) ─────────────────────────────
	catalog := router.Group("/api/v1/catalog")
	catalog.Use(middleware.CacheControl(60))
	{
		catalog.GET("/exams", handlers.Catalog.ListExams)
		catalog.GET("/exams/:exam_id", handlers.Catalog.GetExam)
		catalog.GET("/subtests", handlers.Catalog.ListSubtests)
	}

	// ─── 3. Attempt Groups (JWT + Single Device) ───────────────────────
	practice := router.Group("/api/v1/practice")
	practice.Use(
		middleware.RequireUserJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		practice.POST("", handlers.Practice.Start)
		practice.GET("", handlers.Practice.List)
		practice.GET("/:attempt_id", handlers.Practice.Get)
		practice.PUT("/:attempt_id/items/:item_id", handlers.Practice.SubmitAnswer)
		practice.POST("/:attempt_id/complete", handlers.Practice.Complete)
	}

	tryout := router.Group("/api/v1/tryout")
	tryout.Use(
		middleware.RequireUserJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		tryout.POST("", handlers.Tryout.Start)
		tryout.GET("", handlers.Tryout.List)
		tryout.GET("/:attempt_id", handlers.Tryout.Get)
		tryout.GET("/:attempt_id/state", handlers.Tryout.State)
		tryout.POST("/:attempt_id/sections/start", handlers.Tryout.StartSection)
		tryout.POST("/:attempt_id/sections/advance", handlers.Tryout.AdvanceSection)
		tryout.PUT("/:attempt_id/items/:item_id", handlers.Tryout.SubmitAnswer)
		tryout.POST("/:attempt_id/results", handlers.Tryout.CalculateResults)
	}

	// ─── 4. WebSocket Group (WS Auth via query token) ──────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/tryout/:attempt_id/clock", handlers.WS.TryoutClockStream)
	}

	// ─── 5. Job Dispatch (Queue Callback, Token Header) ────────────────
	router.POST("/api/v1/jobs", handlers.Job.Dispatch)

	// ─── 6. Admin Group (JWT + Role Check) ─────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(
		middleware.RequireUserJWT(authService),
		middleware.RequireAdmin(),
	)
	{
		// Subtest taxonomy
		adminAPI.POST("/subtests", handlers.Admin.CreateSubtest)
		adminAPI.GET("/subtests", handlers.Admin.ListSubtests)
		adminAPI.DELETE("/subtests/:subtest_id", handlers.Admin.DeleteSubtest)

		// Exam management
		adminAPI.POST("/exams", handlers.Admin.CreateExam)
		adminAPI.GET("/exams", handlers.Admin.ListExams)
		adminAPI.GET("/exams/:exam_id", handlers.Admin.GetExam)
		adminAPI.PUT("/exams/:exam_id", handlers.Admin.UpdateExam)
		adminAPI.DELETE("/exams/:exam_id", handlers.Admin.DeleteExam)

		// Blueprint management
		adminAPI.POST("/blueprints", handlers.Admin.CreateBlueprint)
		adminAPI.GET("/blueprints/:blueprint_id", handlers.Admin.GetBlueprint)
		adminAPI.GET("/exams/:exam_id/blueprints", handlers.Admin.ListBlueprints)
		adminAPI.POST("/blueprints/:blueprint_id/archive", handlers.Admin.ArchiveBlueprint)

		// Question bank
		adminAPI.POST("/questions", handlers.Question.Create)
		adminAPI.GET("/questions/:question_id", handlers.Question.Get)
		adminAPI.GET("/subtests/:subtest_id/questions", handlers.Question.ListBySubtest)
		adminAPI.PUT("/questions/:question_id", handlers.Question.Update)
		adminAPI.DELETE("/questions/:question_id", handlers.Question.Delete)

		// Question imports
		adminAPI.POST("/imports", handlers.Import.Upload)
		adminAPI.GET("/imports", handlers.Import.List)
		adminAPI.GET("/imports/:import_id", handlers.Import.Get)
		adminAPI.POST("/imports/:import_id/enqueue", handlers.Import.Enqueue)
		adminAPI.POST("/imports/:import_id/retry", handlers.Import.Retry)
		adminAPI.PUT("/imports/:import_id", handlers.Import.UpdateMetadata)
		adminAPI.PUT("/imports/:import_id/questions/:index", handlers.Import.UpdateDraftQuestion)
		adminAPI.POST("/imports/:import_id/save", handlers.Import.Save)
		adminAPI.DELETE("/imports/:import_id", handlers.Import.Delete)
	}

	return router
}
