package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coinpredict/internal/auth"
	"coinpredict/internal/service"
)

type ResolutionHandler struct {
	Service    *service.ResolutionService
	CronSecret string
	Logger     *zap.Logger
}

func (h *ResolutionHandler) Register(r *gin.Engine) {
	r.POST("/api/v1/resolve-predictions", auth.RequireSecret("cron secret", h.CronSecret, h.Logger), h.resolve)
}

// @Summary Resolve eligible predictions
// @Description Resolves every pending prediction older than the resolution window. Partial failures are reported in the summary.
// @Tags resolution
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Failure 401 {object} apiResponse
// @Failure 500 {object} apiResponse
// @Failure 503 {object} apiResponse
// @Router /api/v1/resolve-predictions [post]
func (h *ResolutionHandler) resolve(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "resolution service unavailable", nil)
		return
	}
	summary, err := h.Service.Run(c.Request.Context(), "http")
	if err != nil {
		if errors.Is(err, service.ErrResolutionDisabled) {
			Error(c, http.StatusServiceUnavailable, err.Error(), nil)
			return
		}
		if h.Logger != nil {
			h.Logger.Error("resolution run failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, summary, nil)
}
