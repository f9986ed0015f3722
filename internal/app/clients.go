package app

import (
	"fmt"
	"strings"

	"github.com/curiofm/curio-backend/internal/clients/farcaster"
	"github.com/curiofm/curio-backend/internal/clients/notify"
	"github.com/curiofm/curio-backend/internal/clients/songlink"
	"github.com/curiofm/curio-backend/internal/observability"
	"github.com/curiofm/curio-backend/internal/platform/logger"
	"github.com/curiofm/curio-backend/internal/realtime/bus"
)

type Clients struct {
	Songlink  songlink.Normalizer
	Farcaster farcaster.Hub
	Notify    notify.Client
	EventBus  bus.Bus
}

func wireClients(log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")

	normalizer, err := songlink.New(log, songlink.Config{
		BaseURL:     cfg.Songlink.BaseURL,
		APIKey:      cfg.Songlink.APIKey,
		UserCountry: cfg.Songlink.Country,
		Timeout:     cfg.Songlink.Timeout,
		RatePerSec:  cfg.Songlink.RatePerSec,
		Burst:       cfg.Songlink.Burst,
	}, metrics)
	if err != nil {
		return Clients{}, fmt.Errorf("init songlink client: %w", err)
	}

	hub, err := farcaster.NewHub(log, farcaster.HubConfig{BaseURL: cfg.FarcasterHub})
	if err != nil {
		return Clients{}, fmt.Errorf("init farcaster hub client: %w", err)
	}

	pusher, err := notify.New(log, notify.Config{
		URL:     cfg.Notify.URL,
		Token:   cfg.Notify.Token,
		Timeout: cfg.Notify.Timeout,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init notify client: %w", err)
	}
	if !pusher.Enabled() {
		log.Info("NOTIFY_URL not set; push notifications disabled")
	}

	// Redis
	var eventBus bus.Bus
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		b, err := bus.NewRedisBus(log, bus.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis event bus: %w", err)
		}
		eventBus = b
	}

	return Clients{
		Songlink:  normalizer,
		Farcaster: hub,
		Notify:    pusher,
		EventBus:  eventBus,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.EventBus != nil {
		_ = c.EventBus.Close()
	}
}
