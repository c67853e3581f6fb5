package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/culturemech/culturemech/internal/layerstore"
	"github.com/culturemech/culturemech/internal/reports"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
	"github.com/culturemech/culturemech/internal/telemetry/metrics"
)

// RouterConfig aggregates the dependencies the route tree is built from.
type RouterConfig struct {
	Store   *layerstore.Store
	Reports *reports.Store
	Metrics *metrics.Registry
	Logger  logging.Logger
}

// NewRouter builds the complete gin route tree: unauthenticated health and
// metrics endpoints, and a read-only /api/v1 surface over the corpus and
// run-report history. CultureMech has no multi-tenant or write-path HTTP
// surface — every mutation goes through cmd/culturemech or the gRPC
// ingestion contract — so there is no auth/tenant middleware layer here.
func NewRouter(cfg RouterConfig) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(cfg.Logger))

	health := &HealthHandler{Store: cfg.Store}
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	recipes := &RecipeHandler{Store: cfg.Store}
	reportHandler := &ReportHandler{Reports: cfg.Reports}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/recipes", recipes.List)
		v1.GET("/recipes/:source/:key", recipes.Get)

		v1.GET("/reports", reportHandler.List)
		v1.GET("/reports/:command/latest", reportHandler.Latest)
		v1.GET("/mapping-stats/latest", reportHandler.LatestMappingStats)
	}

	return r
}

// requestLogger records one structured log line per request at the
// logging.Logger the teacher's own chi middleware logged through.
func requestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		log.Info("http request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.String("duration", time.Since(started).String()),
		)
	}
}
