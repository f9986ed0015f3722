package farcaster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/curiofm/curio-backend/internal/platform/httpx"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

const DefaultHubURL = "https://hub.pinata.cloud"

// Hub reads identity data from a Farcaster Hub HTTP API.
type Hub interface {
	// VerifiedAddresses returns the fid's verified Ethereum addresses, lower-cased
	// and de-duplicated, in the order the hub reported them. Upstream non-2xx
	// responses are returned as *httpx.HTTPError.
	VerifiedAddresses(ctx context.Context, fid int64) ([]string, error)
}

type HubConfig struct {
	BaseURL string
	Timeout time.Duration
}

type hubClient struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func NewHub(log *logger.Logger, cfg HubConfig) (Hub, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultHubURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &hubClient{
		log:        log.With("client", "FarcasterHub"),
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type verificationsResponse struct {
	Messages []struct {
		Data struct {
			Type                          string       `json:"type"`
			VerificationAddAddressBody    *addressBody `json:"verificationAddAddressBody"`
			VerificationAddEthAddressBody *addressBody `json:"verificationAddEthAddressBody"`
		} `json:"data"`
	} `json:"messages"`
}

type addressBody struct {
	Address  string `json:"address"`
	Protocol string `json:"protocol"`
}

func (h *hubClient) VerifiedAddresses(ctx context.Context, fid int64) ([]string, error) {
	if fid <= 0 {
		return nil, fmt.Errorf("invalid fid %d", fid)
	}
	endpoint := h.baseURL + "/v1/verificationsByFid?fid=" + strconv.FormatInt(fid, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hub request: %w", err)
	}
	defer resp.Body.Close()
	if !httpx.IsSuccess(resp.StatusCode) {
		return nil, httpx.ErrorFromResponse("farcaster-hub", resp)
	}

	var payload verificationsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("hub decode: %w", err)
	}

	seen := map[string]bool{}
	out := []string{}
	for _, m := range payload.Messages {
		for _, body := range []*addressBody{m.Data.VerificationAddAddressBody, m.Data.VerificationAddEthAddressBody} {
			if body == nil || !isEthereum(body) {
				continue
			}
			addr := strings.ToLower(strings.TrimSpace(body.Address))
			if addr == "" || seen[addr] {
				continue
			}
			seen[addr] = true
			out = append(out, addr)
		}
	}
	h.log.Debug("hub verifications", "fid", fid, "count", len(out))
	return out, nil
}

func isEthereum(b *addressBody) bool {
	p := strings.ToUpper(strings.TrimSpace(b.Protocol))
	if p != "" && p != "PROTOCOL_ETHEREUM" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(b.Address)), "0x")
}
