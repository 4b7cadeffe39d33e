package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wayspot-tools/contribtrack/app/cfg"
	"github.com/wayspot-tools/contribtrack/app/mailapi"
	"github.com/wayspot-tools/contribtrack/app/notify"
	"github.com/wayspot-tools/contribtrack/app/processor"
	"github.com/wayspot-tools/contribtrack/app/tasks"
)

func NewHandler(proc *processor.Processor, sources *mailapi.SourceCache,
	notifier *notify.Log, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		processor: proc,
		sources:   sources,
		notifier:  notifier,
		scheduler: scheduler,
	}
}

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware: the userscript posts intercepted host-app
	// traffic from a browser origin we cannot predict.
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	// Intercept sink: the userscript forwards host-app traffic here.
	r.POST("/intercept/manager", handler.InterceptManager)
	r.POST("/intercept/action", handler.InterceptAction)

	// Health and status endpoints
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	// Data and control endpoints, optionally behind an access key
	api := r.Group("/api")
	if apiAccessKey != "" {
		api.Use(authMiddleware(apiAccessKey))
		slog.Info("API authentication enabled")
	} else {
		slog.Warn("API authentication disabled (API_ACCESS_KEY not set)")
	}
	{
		api.GET("/contributions", handler.ListContributions)
		api.GET("/contributions/:id/history", handler.GetContributionHistory)
		api.POST("/import/:source/start", handler.StartImport)
		api.GET("/import/status", handler.GetImportStatus)
		api.GET("/notifications", handler.ListNotifications)
		api.GET("/settings/crash-reports", handler.GetCrashReportSettings)
		api.POST("/settings/crash-reports", handler.SetCrashReportSettings)
		api.GET("/crash-reports", handler.ListCrashReports)
	}

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"intercept_manager": "/intercept/manager (POST)",
			"intercept_action":  "/intercept/action (POST)",
			"health":            "/health",
			"stats":             "/stats",
			"contributions":     "/api/contributions",
			"history":           "/api/contributions/<id>/history",
			"import":            "/api/import/<source>/start (POST)",
			"import_status":     "/api/import/status",
			"notifications":     "/api/notifications",
		}

		c.JSON(200, gin.H{
			"service":     "contribtrack",
			"version":     cfg.Get().Version,
			"description": "Wayspot contribution status tracker with email import and history merging",
			"endpoints":   endpoints,
			"api_status": map[string]interface{}{
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// authMiddleware creates authentication middleware for API endpoints
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		// Also check Authorization header with Bearer prefix
		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
