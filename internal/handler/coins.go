package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coinpredict/internal/auth"
	"coinpredict/internal/service"
)

type CoinHandler struct {
	Service       *service.CoinService
	AdminPassword string
	Sessions      *auth.Sessions
	Logger        *zap.Logger
}

func (h *CoinHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/managed-coins", h.listActive)

	admin := r.Group("/api/v1/admin/coins", auth.RequireAdmin(h.AdminPassword, h.Sessions, h.Logger))
	admin.GET("", h.listAll)
	admin.POST("", h.add)
	admin.PUT("/:id", h.update)
	admin.DELETE("/:id", h.remove)
}

// @Summary Active managed coins
// @Tags coins
// @Success 200 {object} apiResponse
// @Router /api/v1/managed-coins [get]
func (h *CoinHandler) listActive(c *gin.Context) {
	items, err := h.Service.List(c.Request.Context(), true)
	if err != nil {
		ErrorFrom(c, err)
		return
	}
	Ok(c, items, nil)
}

// @Summary All managed coins
// @Tags admin
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Router /api/v1/admin/coins [get]
func (h *CoinHandler) listAll(c *gin.Context) {
	items, err := h.Service.List(c.Request.Context(), false)
	if err != nil {
		ErrorFrom(c, err)
		return
	}
	Ok(c, items, nil)
}

type addCoinRequest struct {
	CoinID   string  `json:"coin_id" binding:"required,max=100"`
	Symbol   string  `json:"symbol" binding:"required,max=32"`
	Name     string  `json:"name" binding:"required,max=120"`
	ImageURL *string `json:"image_url" binding:"omitempty,url"`
	IsActive *bool   `json:"is_active"`
}

// @Summary Add managed coin
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Param body body addCoinRequest true "coin"
// @Success 201 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/v1/admin/coins [post]
func (h *CoinHandler) add(c *gin.Context) {
	var req addCoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	item, err := h.Service.Add(c.Request.Context(), service.AddCoinInput{
		CoinID:   req.CoinID,
		Symbol:   req.Symbol,
		Name:     req.Name,
		ImageURL: req.ImageURL,
		IsActive: req.IsActive,
	})
	if err != nil {
		ErrorFrom(c, err)
		return
	}
	Created(c, item)
}

type updateCoinRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// @Summary Activate or deactivate a managed coin
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Param id path string true "coin row id"
// @Param body body updateCoinRequest true "state"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/v1/admin/coins/{id} [put]
func (h *CoinHandler) update(c *gin.Context) {
	var req updateCoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	item, err := h.Service.SetActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		ErrorFrom(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Delete managed coin
// @Tags admin
// @Security BearerAuth
// @Param id path string true "coin row id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/v1/admin/coins/{id} [delete]
func (h *CoinHandler) remove(c *gin.Context) {
	item, err := h.Service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		ErrorFrom(c, err)
		return
	}
	Ok(c, item, nil)
}
