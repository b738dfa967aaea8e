package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups the route handlers mounted by NewRouter
type Handlers struct {
	AI      *AIHandler
	DB      *DBHandler
	Scraper *ScraperHandler
}

// RouterOptions configures the middleware stack
type RouterOptions struct {
	// Production hides error details and switches gin to release mode
	Production bool
	// AllowedOrigins may call the API with credentials. Empty allows any
	// origin without credentials.
	AllowedOrigins []string
}

// NewRouter builds the HTTP API
func NewRouter(h Handlers, opts RouterOptions, logger *zap.Logger) *gin.Engine {
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery(), cors(opts.AllowedOrigins), environment(opts.Production))

	api := r.Group("/api")
	api.GET("/health", health)

	ai := api.Group("/ai")
	{
		ai.POST("/update-metrics", h.AI.UpdateMetrics)
		ai.POST("/update-subfield-metrics", h.AI.UpdateSubfieldMetrics)
		ai.POST("/generate-field", h.AI.GenerateField)
		ai.POST("/generate-subfield", h.AI.GenerateSubfield)
		ai.POST("/generate-insight", h.AI.GenerateInsight)
		ai.POST("/generate-sub-insight", h.AI.GenerateSubInsight)
	}

	db := api.Group("/db")
	{
		db.GET("/fields", h.DB.ListFields)
		db.GET("/fields/:id", h.DB.GetField)
		db.GET("/fields/:id/subfields", h.DB.ListFieldSubfields)
		db.GET("/subfields", h.DB.ListSubfields)
		db.GET("/subfields/:id", h.DB.GetSubfield)
		db.GET("/metrics/field/:id", h.DB.FieldMetrics)
		db.GET("/metrics/field/:id/all", h.DB.FieldMetricsHistory)
		db.GET("/metrics/subfield/:id", h.DB.SubfieldMetrics)
		db.GET("/metrics/subfield/:id/all", h.DB.SubfieldMetricsHistory)
		db.GET("/radar-data", h.DB.RadarData)
		db.GET("/insights", h.DB.ListInsights)
		db.POST("/feedback", h.DB.CreateFeedback)
		db.GET("/model-parameters", h.DB.GetModelParameters)
		db.PUT("/model-parameters", h.DB.UpdateModelParameters)
	}

	scraper := api.Group("/scraper")
	{
		scraper.GET("/arxiv-papers", h.Scraper.FieldPapers)
		scraper.GET("/arxiv-papers-sf", h.Scraper.SubfieldPapers)
		scraper.GET("/run-scraper", h.Scraper.RunFieldScraper)
		scraper.GET("/run-scraper-sf", h.Scraper.RunSubfieldScraper)
		scraper.POST("/backup", h.Scraper.Backup)
	}

	return r
}

// health reports liveness
// GET /api/health
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// =============================================================================
// Middleware
// =============================================================================

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request served", fields...)
		}
	}
}

// cors echoes allow-listed origins with credentials. Without an allow-list
// every origin is served the wildcard and no credentials.
func cors(allowed []string) gin.HandlerFunc {
	allow := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allow[o] = true
		}
	}

	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))
		switch {
		case len(allow) == 0:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && allow[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		default:
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Header("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func environment(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(productionKey, production)
		c.Next()
	}
}
