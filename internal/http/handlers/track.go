package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/curiofm/curio-backend/internal/http/response"
	"github.com/curiofm/curio-backend/internal/platform/logger"
	"github.com/curiofm/curio-backend/internal/services"
)

type TrackHandler struct {
	log    *logger.Logger
	tracks services.TrackService
	tips   services.TipService
}

func NewTrackHandler(log *logger.Logger, tracks services.TrackService, tips services.TipService) *TrackHandler {
	return &TrackHandler{log: log.With("handler", "TrackHandler"), tracks: tracks, tips: tips}
}

// GET /tracks?sort=recent|most_tipped&genre=&limit=&offset=
func (h *TrackHandler) Feed(c *gin.Context) {
	limit, offset, ok := pageQuery(c)
	if !ok {
		return
	}
	page, err := h.tracks.Feed(c.Request.Context(), services.FeedParams{
		Sort:   c.Query("sort"),
		Genre:  c.Query("genre"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, page)
}

// POST /tracks
func (h *TrackHandler) Submit(c *gin.Context) {
	var in services.SubmitInput
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.tracks.Submit(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /tracks/:id
func (h *TrackHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.tracks.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /tracks/:id
// body: { "action": "tip" }
func (h *TrackHandler) Action(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action"`
	}
	if !bindJSON(c, &req) {
		return
	}
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "tip":
		res, err := h.tips.LegacyTip(c.Request.Context(), id)
		if err != nil {
			response.RespondAPIError(c, h.log, err)
			return
		}
		response.RespondOK(c, res)
	default:
		response.RespondError(c, http.StatusBadRequest, "unsupported_action", paramError("action must be \"tip\""))
	}
}
