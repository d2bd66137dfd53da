package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-service/internal/metrics"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

// Pinger reports whether the storage backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type HandlerManager struct {
	attemptHandler     *AttemptHandler
	quizHandler        *QuizHandler
	lessonHandler      *LessonHandler
	maintenanceHandler *MaintenanceHandler

	storage Pinger
	metrics *metrics.Metrics
	session SessionConfig
	logger  utils.Logger
}

func NewHandlerManager(
	serviceManager *services.ServiceManager,
	storage Pinger,
	m *metrics.Metrics,
	session SessionConfig,
	logger utils.Logger,
) *HandlerManager {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &HandlerManager{
		attemptHandler:     NewAttemptHandler(serviceManager.Attempt, logger),
		quizHandler:        NewQuizHandler(serviceManager.Quiz, serviceManager.Analytics, logger),
		lessonHandler:      NewLessonHandler(serviceManager.Lessons, logger),
		maintenanceHandler: NewMaintenanceHandler(serviceManager.Sweeper, logger),
		storage:            storage,
		metrics:            m,
		session:            session,
		logger:             logger,
	}
}

// CORSMiddleware allows the configured origins. A single "*" allows any
// origin without credentials.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", SessionHeader},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	if hm.metrics != nil {
		router.Use(hm.metrics.Middleware())
		router.GET("/metrics", hm.metrics.Handler())
	}

	router.GET("/health", hm.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(SessionMiddleware(hm.session))
	{
		attempts := v1.Group("/attempts")
		{
			attempts.POST("", hm.attemptHandler.StartAttempt)
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.PUT("/:id/answers", hm.attemptHandler.RecordAnswer)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.PUT("/:id/progress", hm.attemptHandler.SaveProgress)
			attempts.GET("/:id/progress", hm.attemptHandler.GetProgress)
			attempts.GET("/:id/result", hm.attemptHandler.GetResult)
		}

		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", hm.quizHandler.CreateQuiz)
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.PUT("/:id", hm.quizHandler.UpdateQuiz)
			quizzes.GET("/:id/settings", hm.quizHandler.GetSettings)
			quizzes.GET("/:id/stats", hm.quizHandler.GetStats)
			quizzes.GET("/:id/difficult-questions", hm.quizHandler.GetDifficultQuestions)
		}

		lessons := v1.Group("/lessons")
		{
			lessons.POST("", hm.lessonHandler.CreateLesson)
			lessons.GET("/:id/progress", hm.lessonHandler.GetProgress)
			lessons.PUT("/:id/progress", hm.lessonHandler.UpdateProgress)
		}

		v1.POST("/maintenance/sweep", hm.maintenanceHandler.SweepAbandoned)
	}
}

// HealthCheck reports 503 when storage is unreachable
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	if hm.storage != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := hm.storage.Ping(ctx); err != nil {
			hm.logger.Warn("Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "quiz-service",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "quiz-service",
	})
}
