package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vxl-labs/glasscore/internal/api/handlers"
	"github.com/vxl-labs/glasscore/internal/auth"
	"github.com/vxl-labs/glasscore/internal/queue"
	"github.com/vxl-labs/glasscore/internal/storage"
)

type RouterConfig struct {
	APIKey string
	DB     *storage.PostgresStore
	MinIO  *storage.MinIOStore
	Bus    *queue.Bus
	// EmbedFn extracts a face embedding from image bytes, wired in once the
	// vision pipeline is initialized.
	EmbedFn func(imageData []byte) ([]float32, error)
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.MinIO, cfg.Bus)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// Persons (gallery)
	personH := handlers.NewPersonHandler(cfg.DB, cfg.MinIO, cfg.Bus)
	personH.EmbedFn = cfg.EmbedFn
	v1.GET("/persons", personH.List)
	v1.GET("/persons/:id", personH.Get)
	v1.PATCH("/persons/:id", personH.Update)
	v1.POST("/search", personH.Search)

	// Summaries
	summaryH := handlers.NewSummaryHandler(cfg.DB)
	v1.GET("/persons/:id/summaries", summaryH.List)

	// Todos
	todoH := handlers.NewTodoHandler(cfg.DB)
	v1.GET("/todos", todoH.List)
	v1.POST("/todos/:id/complete", todoH.Complete)
	v1.DELETE("/todos/:id", todoH.Delete)

	return r
}
