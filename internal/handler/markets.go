package handler

import (
	"github.com/gin-gonic/gin"

	"coinpredict/internal/service"
)

type MarketHandler struct {
	Service *service.MarketService
}

func (h *MarketHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/markets", h.top)
}

// @Summary Top coins by market cap, stablecoins excluded
// @Tags markets
// @Success 200 {object} apiResponse
// @Failure 503 {object} apiResponse
// @Router /api/v1/markets [get]
func (h *MarketHandler) top(c *gin.Context) {
	items, err := h.Service.TopCoins(c.Request.Context())
	if err != nil {
		ErrorFrom(c, err)
		return
	}
	Ok(c, items, nil)
}
