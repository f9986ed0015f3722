package songlink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/curiofm/curio-backend/internal/domain/music"
	"github.com/curiofm/curio-backend/internal/observability"
	"github.com/curiofm/curio-backend/internal/platform/httpx"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

const (
	DefaultBaseURL = "https://api.song.link/v1-alpha.1/links"
	breakerName    = "songlink"
	maxBodyBytes   = 2 << 20
)

var (
	ErrNoEntity    = errors.New("songlink: response has no canonical entity")
	ErrRateLimited = errors.New("songlink: local rate limit wait failed")
)

// NormalizedTrack is the canonical identity the link service resolved.
type NormalizedTrack struct {
	CanonicalID  string
	Title        string
	Artist       string
	ArtworkURL   string
	PageURL      string
	PlatformURLs music.PlatformURLs
}

// Normalizer resolves an arbitrary music url. Callers treat any error as
// "fall back to curator-supplied metadata".
type Normalizer interface {
	Normalize(ctx context.Context, rawURL string) (*NormalizedTrack, error)
}

type Config struct {
	BaseURL      string
	APIKey       string
	UserCountry  string
	Timeout      time.Duration
	RatePerSec   float64
	Burst        int
	TripRequests uint32
	TripRatio    float64
	CoolDown     time.Duration
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[*NormalizedTrack]
	metrics    *observability.Metrics
}

func New(log *logger.Logger, cfg Config, metrics *observability.Metrics) (Normalizer, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserCountry == "" {
		cfg.UserCountry = "US"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 8
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RatePerSec)
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}
	if cfg.TripRequests == 0 {
		cfg.TripRequests = 10
	}
	if cfg.TripRatio <= 0 {
		cfg.TripRatio = 0.6
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = 30 * time.Second
	}

	c := &client{
		log:        log.With("client", "SonglinkClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		metrics:    metrics,
	}
	metrics.SetBreakerState(breakerName, 0)
	c.cb = gobreaker.NewCircuitBreaker[*NormalizedTrack](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.CoolDown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.TripRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.TripRatio
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			c.metrics.SetBreakerState(name, breakerGauge(to))
		},
	})
	return c, nil
}

// isBreakerSuccess treats unresolvable links as answers, not outages.
// 429 still counts against the breaker.
func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, ErrNoEntity) {
		return true
	}
	status := httpx.StatusOf(err)
	return status >= 400 && status < 500 && status != http.StatusTooManyRequests
}

func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (c *client) Normalize(ctx context.Context, rawURL string) (*NormalizedTrack, error) {
	ctx, span := otel.Tracer("curio/songlink").Start(ctx, "songlink.Normalize")
	defer span.End()
	span.SetAttributes(attribute.String("music.url", rawURL))

	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		c.metrics.ObserveNormalizer("rate_limited", 0)
		span.SetStatus(codes.Error, "rate limited")
		return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	out, err := c.cb.Execute(func() (*NormalizedTrack, error) {
		return c.fetch(ctx, rawURL)
	})
	dur := time.Since(start)
	switch {
	case err == nil:
		c.metrics.ObserveNormalizer("ok", dur)
		span.SetAttributes(attribute.String("music.canonical_id", out.CanonicalID))
		return out, nil
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.ObserveNormalizer("breaker_open", 0)
	default:
		c.metrics.ObserveNormalizer("fallback", dur)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

type linksResponse struct {
	EntityUniqueID     string                  `json:"entityUniqueId"`
	PageURL            string                  `json:"pageUrl"`
	EntitiesByUniqueID map[string]entity       `json:"entitiesByUniqueId"`
	LinksByPlatform    map[string]platformLink `json:"linksByPlatform"`
}

type entity struct {
	Title        string `json:"title"`
	ArtistName   string `json:"artistName"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

type platformLink struct {
	URL string `json:"url"`
}

func (c *client) fetch(ctx context.Context, rawURL string) (*NormalizedTrack, error) {
	q := url.Values{}
	q.Set("url", rawURL)
	q.Set("userCountry", c.cfg.UserCountry)
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("songlink request: %w", err)
	}
	defer resp.Body.Close()

	if !httpx.IsSuccess(resp.StatusCode) {
		return nil, httpx.ErrorFromResponse("songlink", resp)
	}

	var payload linksResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("songlink decode: %w", err)
	}
	return payload.toTrack()
}

func (p linksResponse) toTrack() (*NormalizedTrack, error) {
	id := strings.TrimSpace(p.EntityUniqueID)
	if id == "" {
		return nil, ErrNoEntity
	}
	ent, ok := p.EntitiesByUniqueID[id]
	if !ok {
		return nil, ErrNoEntity
	}
	links := music.PlatformURLs{}
	for _, platform := range music.Platforms {
		if l, ok := p.LinksByPlatform[platform]; ok && strings.TrimSpace(l.URL) != "" {
			links[platform] = l.URL
		}
	}
	return &NormalizedTrack{
		CanonicalID:  id,
		Title:        ent.Title,
		Artist:       ent.ArtistName,
		ArtworkURL:   ent.ThumbnailURL,
		PageURL:      p.PageURL,
		PlatformURLs: links,
	}, nil
}
