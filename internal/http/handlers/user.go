package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/curiofm/curio-backend/internal/http/response"
	"github.com/curiofm/curio-backend/internal/platform/logger"
	"github.com/curiofm/curio-backend/internal/services"
)

type UserHandler struct {
	log      *logger.Logger
	curators services.CuratorService
}

func NewUserHandler(log *logger.Logger, curators services.CuratorService) *UserHandler {
	return &UserHandler{log: log.With("handler", "UserHandler"), curators: curators}
}

// GET /users/:username/stats
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.curators.Stats(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, stats)
}

// GET /users/:username/tracks
func (h *UserHandler) Tracks(c *gin.Context) {
	limit, offset, ok := pageQuery(c)
	if !ok {
		return
	}
	page, err := h.curators.Tracks(c.Request.Context(), c.Param("username"), limit, offset)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, page)
}

// POST /users/:username/bio
// body: { "fid": 123, "bio": "..." }
func (h *UserHandler) UpdateBio(c *gin.Context) {
	var req struct {
		FID int64  `json:"fid"`
		Bio string `json:"bio"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.curators.UpdateBio(c.Request.Context(), c.Param("username"), req.FID, req.Bio)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "bio": p.Bio})
}
