package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curiofm/curio-backend/internal/platform/apierr"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

const (
	internalMessage = "internal error"
	upstreamMessage = "upstream service error"
)

var upstreamMessages = map[string]string{
	"hub_error":       "farcaster hub request failed",
	"hub_unavailable": "farcaster hub unavailable",
}

var errInternal = errors.New(internalMessage)

// RespondAPIError writes err using the status and code carried by an
// *apierr.Error. Internal failures are logged and never echoed to the client.
func RespondAPIError(c *gin.Context, log *logger.Logger, err error) {
	ae := apierr.From(err)
	_ = c.Error(err)
	if ae.Status >= http.StatusInternalServerError && ae.Code == "internal_error" {
		if log != nil {
			log.Error("request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"error", err,
			)
		}
		RespondError(c, ae.Status, ae.Code, errInternal)
		return
	}
	if ae.Upstream {
		if log != nil {
			log.Warn("upstream failure", "path", c.FullPath(), "status", ae.Status, "code", ae.Code, "error", err)
		}
		msg, ok := upstreamMessages[ae.Code]
		if !ok {
			msg = upstreamMessage
		}
		RespondError(c, ae.Status, ae.Code, errors.New(msg))
		return
	}
	RespondError(c, ae.Status, ae.Code, ae)
}
