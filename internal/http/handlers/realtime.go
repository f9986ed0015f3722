package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/curiofm/curio-backend/internal/platform/logger"
	"github.com/curiofm/curio-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.Hub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub}
}

// GET /events?curator=<fid>
// Every stream receives the feed channel; curator adds that curator's channel.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	client := h.hub.NewClient()
	defer h.hub.Close(client)

	h.hub.Subscribe(client, realtime.FeedChannel)
	if raw := strings.TrimSpace(c.Query("curator")); raw != "" {
		if fid, err := strconv.ParseInt(raw, 10, 64); err == nil && fid > 0 {
			h.hub.Subscribe(client, realtime.CuratorChannel(fid))
		}
	}

	h.log.Debug("event stream open", "client_id", client.ID, "channels", len(client.Channels))
	h.hub.Serve(c.Writer, c.Request, client)
	h.log.Debug("event stream closed", "client_id", client.ID)
}
