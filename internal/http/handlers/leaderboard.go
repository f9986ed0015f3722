package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/curiofm/curio-backend/internal/http/response"
	"github.com/curiofm/curio-backend/internal/platform/logger"
	"github.com/curiofm/curio-backend/internal/services"
)

type LeaderboardHandler struct {
	log      *logger.Logger
	curators services.CuratorService
}

func NewLeaderboardHandler(log *logger.Logger, curators services.CuratorService) *LeaderboardHandler {
	return &LeaderboardHandler{log: log.With("handler", "LeaderboardHandler"), curators: curators}
}

// GET /leaderboard?sort=score|xp&limit=
func (h *LeaderboardHandler) Leaderboard(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	sort := c.Query("sort")
	entries, err := h.curators.Leaderboard(c.Request.Context(), sort, limit)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	if sort == "" {
		sort = "score"
	}
	response.RespondOK(c, gin.H{"sort": sort, "curators": entries})
}

// GET /curators/top?limit=
func (h *LeaderboardHandler) TopCurators(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	top, err := h.curators.TopCurators(c.Request.Context(), limit)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"curators": top})
}
