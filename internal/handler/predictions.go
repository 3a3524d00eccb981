package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"coinpredict/internal/models"
	"coinpredict/internal/service"
)

type PredictionHandler struct {
	Service *service.PredictionService
}

func (h *PredictionHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1")
	g.POST("/predictions", h.create)
	g.GET("/predictions", h.list)
	g.GET("/predictions/:id", h.get)
	g.GET("/users/:user_id/stats", h.userStats)
}

type createPredictionRequest struct {
	UserID             string           `json:"user_id" binding:"required,max=128"`
	CoinID             string           `json:"coin_id" binding:"required,max=100"`
	PredictedDirection string           `json:"predicted_direction" binding:"required,direction"`
	PriceAtPrediction  *decimal.Decimal `json:"price_at_prediction"`
}

// @Summary Create prediction
// @Tags predictions
// @Accept json
// @Param body body createPredictionRequest true "prediction"
// @Success 201 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Failure 503 {object} apiResponse
// @Router /api/v1/predictions [post]
func (h *PredictionHandler) create(c *gin.Context) {
	var req createPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	dir, err := models.ParseDirection(req.PredictedDirection)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	item, err := h.Service.Create(c.Request.Context(), service.CreatePredictionInput{
		UserID:            req.UserID,
		CoinID:            req.CoinID,
		Direction:         dir,
		PriceAtPrediction: req.PriceAtPrediction,
	})
	if err != nil {
		ErrorFrom(c, err)
		return
	}
	Created(c, item)
}

// @Summary List predictions
// @Tags predictions
// @Param user_id query string false "user id"
// @Param coin_id query string false "coin id"
// @Param status query string false "pending|correct|incorrect|error_resolving"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/v1/predictions [get]
func (h *PredictionHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	items, total, err := h.Service.List(c.Request.Context(), service.ListPredictionsInput{
		UserID: c.Query("user_id"),
		CoinID: c.Query("coin_id"),
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		ErrorFrom(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Get prediction
// @Tags predictions
// @Param id path string true "prediction id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/v1/predictions/{id} [get]
func (h *PredictionHandler) get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	item, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		ErrorFrom(c, err)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "prediction not found", nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary User stats
// @Tags predictions
// @Param user_id path string true "user id"
// @Success 200 {object} apiResponse
// @Router /api/v1/users/{user_id}/stats [get]
func (h *PredictionHandler) userStats(c *gin.Context) {
	stats, err := h.Service.UserStats(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		ErrorFrom(c, err)
		return
	}
	Ok(c, stats, nil)
}
