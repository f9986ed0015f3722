package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/curiofm/curio-backend/internal/http/response"
	"github.com/curiofm/curio-backend/internal/platform/logger"
	"github.com/curiofm/curio-backend/internal/services"
)

// EngagementHandler serves tips and co-signs on a recommendation.
type EngagementHandler struct {
	log     *logger.Logger
	tips    services.TipService
	cosigns services.CosignService
}

func NewEngagementHandler(log *logger.Logger, tips services.TipService, cosigns services.CosignService) *EngagementHandler {
	return &EngagementHandler{log: log.With("handler", "EngagementHandler"), tips: tips, cosigns: cosigns}
}

// POST /tracks/:id/tip
func (h *EngagementHandler) Tip(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in services.TipInput
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.tips.Record(c.Request.Context(), id, in)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /tracks/:id/tippers
func (h *EngagementHandler) Tippers(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	limit, offset, ok := pageQuery(c)
	if !ok {
		return
	}
	page, err := h.tips.ListTippers(c.Request.Context(), id, limit, offset)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, page)
}

// POST /tracks/:id/cosign
// body: { "fid": 123 }
func (h *EngagementHandler) Cosign(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req fidBody
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.cosigns.Cosign(c.Request.Context(), id, req.FID)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "count": res.Count})
}

// GET /tracks/:id/cosign
func (h *EngagementHandler) CosignCount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := h.cosigns.Count(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"count": n})
}

// GET /tracks/:id/cosign/check?fid=
func (h *EngagementHandler) CosignCheck(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	fid, ok := queryInt64(c, "fid")
	if !ok {
		return
	}
	res, err := h.cosigns.Check(c.Request.Context(), id, fid)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /tracks/:id/cosigners
func (h *EngagementHandler) Cosigners(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	limit, offset, ok := pageQuery(c)
	if !ok {
		return
	}
	page, err := h.cosigns.ListCosigners(c.Request.Context(), id, limit, offset)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, page)
}
