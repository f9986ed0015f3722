package app

import (
	"gorm.io/gorm"

	"github.com/curiofm/curio-backend/internal/observability"
	"github.com/curiofm/curio-backend/internal/platform/logger"
	"github.com/curiofm/curio-backend/internal/realtime"
	"github.com/curiofm/curio-backend/internal/services"
)

type Services struct {
	Scores        services.ScoreKeeper
	Feed          services.FeedNotifier
	Notifications services.NotificationDispatcher
	Tracks        services.TrackService
	Tips          services.TipService
	Cosigns       services.CosignService
	Curators      services.CuratorService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients, hub *realtime.Hub, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	rules := cfg.EngagementRules()

	var emitter services.Emitter = &services.HubEmitter{Hub: hub}
	if c.EventBus != nil {
		emitter = &services.BusEmitter{Bus: c.EventBus, Hub: hub, Log: log}
	}
	feed := services.NewFeedNotifier(emitter)
	scores := services.NewScoreKeeper(log, rules, r.Recommendation, r.CoSign, r.Activity, r.Profile)
	dispatcher := services.NewNotificationDispatcher(log, c.Notify, cfg.Notify.Timeout, metrics)

	return Services{
		Scores:        scores,
		Feed:          feed,
		Notifications: dispatcher,
		Tracks: services.NewTrackService(db, log, rules, c.Songlink,
			r.Track, r.Recommendation, r.CoSign, r.Profile, r.Activity, scores, feed, metrics),
		Tips: services.NewTipService(db, log, rules, r.Recommendation, r.Tip,
			scores, dispatcher, feed, metrics),
		Cosigns: services.NewCosignService(db, log, r.Recommendation, r.CoSign, scores, feed, metrics),
		Curators: services.NewCuratorService(db, log, rules, r.Profile, r.Recommendation,
			r.CoSign, r.Activity, scores, c.Farcaster),
	}
}
