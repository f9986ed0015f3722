package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/curiofm/curio-backend/internal/http/response"
)

type fidBody struct {
	FID int64 `json:"fid"`
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter. A malformed value is a
// 400; an absent one yields def.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", fmtParamErr(name))
		return 0, false
	}
	return n, true
}

func queryInt64(c *gin.Context, name string) (int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", fmtParamErr(name))
		return 0, false
	}
	return n, true
}

func pageQuery(c *gin.Context) (limit, offset int, ok bool) {
	if limit, ok = queryInt(c, "limit", 0); !ok {
		return 0, 0, false
	}
	if offset, ok = queryInt(c, "offset", 0); !ok {
		return 0, 0, false
	}
	return limit, offset, true
}

type paramError string

func (e paramError) Error() string { return string(e) }

func fmtParamErr(name string) error {
	return paramError(name + " must be an integer")
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}
