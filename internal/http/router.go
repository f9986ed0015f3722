package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/curiofm/curio-backend/internal/http/handlers"
	httpMW "github.com/curiofm/curio-backend/internal/http/middleware"
	"github.com/curiofm/curio-backend/internal/observability"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string
	ServiceName string
	Tracing     bool

	TrackHandler       *httpH.TrackHandler
	EngagementHandler  *httpH.EngagementHandler
	UserHandler        *httpH.UserHandler
	LeaderboardHandler *httpH.LeaderboardHandler
	HubHandler         *httpH.HubHandler
	RealtimeHandler    *httpH.RealtimeHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		name := cfg.ServiceName
		if name == "" {
			name = "curio-api"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")

	if cfg.TrackHandler != nil {
		api.GET("/tracks", cfg.TrackHandler.Feed)
		api.POST("/tracks", cfg.TrackHandler.Submit)
		api.GET("/tracks/:id", cfg.TrackHandler.Get)
		api.POST("/tracks/:id", cfg.TrackHandler.Action)
	}

	if cfg.EngagementHandler != nil {
		api.POST("/tracks/:id/tip", cfg.EngagementHandler.Tip)
		api.GET("/tracks/:id/tippers", cfg.EngagementHandler.Tippers)
		api.POST("/tracks/:id/cosign", cfg.EngagementHandler.Cosign)
		api.GET("/tracks/:id/cosign", cfg.EngagementHandler.CosignCount)
		api.GET("/tracks/:id/cosign/check", cfg.EngagementHandler.CosignCheck)
		api.GET("/tracks/:id/cosigners", cfg.EngagementHandler.Cosigners)
	}

	if cfg.UserHandler != nil {
		api.GET("/users/:username/stats", cfg.UserHandler.Stats)
		api.GET("/users/:username/tracks", cfg.UserHandler.Tracks)
		api.POST("/users/:username/bio", cfg.UserHandler.UpdateBio)
	}

	if cfg.LeaderboardHandler != nil {
		api.GET("/leaderboard", cfg.LeaderboardHandler.Leaderboard)
		api.GET("/curators/top", cfg.LeaderboardHandler.TopCurators)
	}

	if cfg.HubHandler != nil {
		api.GET("/hub/verifications/:fid", cfg.HubHandler.Verifications)
	}

	// Realtime (SSE)
	if cfg.RealtimeHandler != nil {
		api.GET("/events", cfg.RealtimeHandler.Stream)
	}

	return r
}
