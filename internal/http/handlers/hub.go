package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/curiofm/curio-backend/internal/http/response"
	"github.com/curiofm/curio-backend/internal/platform/logger"
	"github.com/curiofm/curio-backend/internal/services"
)

type HubHandler struct {
	log      *logger.Logger
	curators services.CuratorService
}

func NewHubHandler(log *logger.Logger, curators services.CuratorService) *HubHandler {
	return &HubHandler{log: log.With("handler", "HubHandler"), curators: curators}
}

// GET /hub/verifications/:fid
func (h *HubHandler) Verifications(c *gin.Context) {
	fid, err := strconv.ParseInt(c.Param("fid"), 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", fmtParamErr("fid"))
		return
	}
	addrs, err := h.curators.VerifiedAddresses(c.Request.Context(), fid)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"fid": fid, "addresses": addrs})
}
