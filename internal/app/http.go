package app

import (
	"gorm.io/gorm"

	"github.com/curiofm/curio-backend/internal/http"
	httpH "github.com/curiofm/curio-backend/internal/http/handlers"
	"github.com/curiofm/curio-backend/internal/observability"
	"github.com/curiofm/curio-backend/internal/platform/logger"
	"github.com/curiofm/curio-backend/internal/realtime"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Track       *httpH.TrackHandler
	Engagement  *httpH.EngagementHandler
	User        *httpH.UserHandler
	Leaderboard *httpH.LeaderboardHandler
	Hub         *httpH.HubHandler
	Realtime    *httpH.RealtimeHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, s Services, hub *realtime.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(db),
		Track:       httpH.NewTrackHandler(log, s.Tracks, s.Tips),
		Engagement:  httpH.NewEngagementHandler(log, s.Tips, s.Cosigns),
		User:        httpH.NewUserHandler(log, s.Curators),
		Leaderboard: httpH.NewLeaderboardHandler(log, s.Curators),
		Hub:         httpH.NewHubHandler(log, s.Curators),
		Realtime:    httpH.NewRealtimeHandler(log, hub),
	}
}

func wireServer(log *logger.Logger, cfg Config, h Handlers, metrics *observability.Metrics) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:                log,
		Metrics:            metrics,
		CORSOrigins:        cfg.CORSOrigins,
		ServiceName:        cfg.ServiceName,
		Tracing:            cfg.Otel.Enabled,
		HealthHandler:      h.Health,
		TrackHandler:       h.Track,
		EngagementHandler:  h.Engagement,
		UserHandler:        h.User,
		LeaderboardHandler: h.Leaderboard,
		HubHandler:         h.Hub,
		RealtimeHandler:    h.Realtime,
	})
}
