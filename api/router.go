package api

import (
	"github.com/gin-gonic/gin"

	"github.com/MAHMOUDGAD123/vidl-api/api/handlers"
	"github.com/MAHMOUDGAD123/vidl-api/api/middleware"
	"github.com/MAHMOUDGAD123/vidl-api/internal/app"
	"github.com/MAHMOUDGAD123/vidl-api/internal/domain"
	"github.com/MAHMOUDGAD123/vidl-api/pkg/logger"
)

// Dependencies bundles everything the router wires into handlers.
type Dependencies struct {
	Store        domain.SessionStore
	Source       domain.MediaSource
	Orchestrator *app.Orchestrator
	Janitor      *app.Janitor
	History      domain.HistoryRepository
	LogAdapter   *logger.LoggerAdapter
	LogsDir      string
}

// SetupRouter sets up the HTTP router with categorized logging.
func SetupRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.LoggerWithAdapter(deps.LogAdapter))
	router.Use(middleware.RecoveryWithAdapter(deps.LogAdapter))
	router.Use(middleware.CORS())

	sessionLog := deps.LogAdapter.Session()

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(deps.Janitor)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		sessionHandler := handlers.NewSessionHandler(deps.Store, deps.Orchestrator, deps.History, sessionLog)
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", sessionHandler.Open)
			sessions.GET("/:id/progress", sessionHandler.Progress)

			// the session folder is torn down once the response is written
			sessions.POST("/:id/download",
				middleware.SessionCleanup(deps.Store, sessionLog),
				sessionHandler.Download)
		}

		mediaHandler := handlers.NewMediaHandler(deps.Source, sessionLog)
		v1.POST("/search", mediaHandler.Search)

		historyHandler := handlers.NewHistoryHandler(deps.History, sessionLog)
		history := v1.Group("/history")
		{
			history.GET("", historyHandler.List)
			history.GET("/stats", historyHandler.Stats)
		}

		logHandler := handlers.NewLogHandler(deps.LogsDir)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "not found"})
	})

	return router
}
