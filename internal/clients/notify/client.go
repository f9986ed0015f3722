package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/curiofm/curio-backend/internal/platform/httpx"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

// Notification is a push message addressed to one or more fids.
type Notification struct {
	NotificationID string  `json:"notificationId"`
	Title          string  `json:"title"`
	Body           string  `json:"body"`
	TargetURL      string  `json:"targetUrl,omitempty"`
	TargetFIDs     []int64 `json:"targetFids"`
}

type Client interface {
	Send(ctx context.Context, n Notification) error
	Enabled() bool
}

type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

// New returns a client; with no URL configured every Send is a no-op.
func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg.URL = strings.TrimSpace(cfg.URL)
	cfg.Token = strings.TrimSpace(cfg.Token)
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &client{
		log:        log.With("client", "NotifyClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *client) Enabled() bool { return c.cfg.URL != "" }

func (c *client) Send(ctx context.Context, n Notification) error {
	if !c.Enabled() {
		return nil
	}
	if len(n.TargetFIDs) == 0 {
		return fmt.Errorf("notify: target fids required")
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify request: %w", err)
	}
	defer resp.Body.Close()
	if !httpx.IsSuccess(resp.StatusCode) {
		return httpx.ErrorFromResponse("notify", resp)
	}
	return nil
}
