package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/lexbridge/lexbridge-backend/internal/http/handlers"
	httpMW "github.com/lexbridge/lexbridge-backend/internal/http/middleware"
	"github.com/lexbridge/lexbridge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	HealthHandler    *httpH.HealthHandler
	RetrievalHandler *httpH.RetrievalHandler
	VerifyHandler    *httpH.VerifyHandler
	BridgeHandler    *httpH.BridgeHandler
	FeedbackHandler  *httpH.FeedbackHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("lexbridge"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	v1 := r.Group("/api/v1")
	{
		if cfg.RetrievalHandler != nil {
			v1.POST("/retrieve", cfg.RetrievalHandler.Retrieve)
		}
		if cfg.VerifyHandler != nil {
			v1.POST("/verify", cfg.VerifyHandler.Verify)
		}
		if cfg.BridgeHandler != nil {
			v1.POST("/bridge/mappings", cfg.BridgeHandler.AddMappings)
			v1.DELETE("/bridge/chunks/:chunkID", cfg.BridgeHandler.DeleteChunk)
		}
		if cfg.FeedbackHandler != nil {
			v1.POST("/feedback/alpha", cfg.FeedbackHandler.SubmitAlphaFeedback)
		}
	}

	return r
}
