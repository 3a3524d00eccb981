package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coinpredict/internal/service"
)

type LeaderboardHandler struct {
	Service *service.LeaderboardService
}

func (h *LeaderboardHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/leaderboard", h.list)
}

// @Summary Leaderboard
// @Tags leaderboard
// @Param limit query int false "max entries (default 100, max 500)"
// @Success 200 {object} apiResponse
// @Router /api/v1/leaderboard [get]
func (h *LeaderboardHandler) list(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "leaderboard unavailable", nil)
		return
	}
	entries, err := h.Service.Compute(c.Request.Context(), intQuery(c, "limit", 100))
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, entries, map[string]any{"count": len(entries)})
}
