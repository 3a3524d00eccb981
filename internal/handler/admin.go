package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coinpredict/internal/auth"
	"coinpredict/internal/repository"
	"coinpredict/internal/service"
)

// AdminHandler serves resolution run history and feature switches.
type AdminHandler struct {
	Runs          repository.ResolutionRunRepository
	Settings      *service.SystemSettingsService
	AdminPassword string
	Sessions      *auth.Sessions
	Logger        *zap.Logger
}

func (h *AdminHandler) Register(r *gin.Engine) {
	r.POST("/api/v1/admin/session", h.createSession)
	g := r.Group("/api/v1/admin", auth.RequireAdmin(h.AdminPassword, h.Sessions, h.Logger))
	g.GET("/resolution-runs", h.listRuns)
	g.GET("/switches", h.listSwitches)
	g.PUT("/switches/:name", h.putSwitch)
}

type createSessionRequest struct {
	Password string `json:"password" binding:"required"`
}

// @Summary Exchange the admin password for a session token
// @Tags admin
// @Accept json
// @Param body body createSessionRequest true "credentials"
// @Success 201 {object} apiResponse
// @Failure 401 {object} apiResponse
// @Router /api/v1/admin/session [post]
func (h *AdminHandler) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	switch err := auth.CheckSecret(req.Password, h.AdminPassword); {
	case errors.Is(err, auth.ErrNotConfigured):
		Error(c, http.StatusInternalServerError, "admin password not configured", nil)
		return
	case err != nil:
		if h.Logger != nil {
			h.Logger.Warn("admin session refused", zap.String("client_ip", c.ClientIP()))
		}
		Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	token, expiresAt, err := h.Sessions.Sign(c.ClientIP())
	if err != nil {
		Error(c, http.StatusInternalServerError, "session unavailable", nil)
		return
	}
	Created(c, gin.H{"token": token, "expires_at": expiresAt})
}

// @Summary Resolution run history
// @Tags admin
// @Security BearerAuth
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/v1/admin/resolution-runs [get]
func (h *AdminHandler) listRuns(c *gin.Context) {
	if h.Runs == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	items, err := h.Runs.ListResolutionRuns(c.Request.Context(), limit, offset)
	if err != nil {
		ErrorFrom(c, err)
		return
	}
	Ok(c, items, map[string]any{"limit": limit, "offset": offset})
}

// @Summary Feature switches
// @Tags admin
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Router /api/v1/admin/switches [get]
func (h *AdminHandler) listSwitches(c *gin.Context) {
	Ok(c, h.Settings.ListSwitches(c.Request.Context()), nil)
}

type putSwitchRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// @Summary Set feature switch
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Param name path string true "resolution|prediction_intake"
// @Param body body putSwitchRequest true "state"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/v1/admin/switches/{name} [put]
func (h *AdminHandler) putSwitch(c *gin.Context) {
	key, ok := service.SwitchKey(strings.TrimSpace(c.Param("name")))
	if !ok {
		Error(c, http.StatusNotFound, "unknown switch", nil)
		return
	}
	var req putSwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := h.Settings.SetEnabled(c.Request.Context(), key, *req.Enabled); err != nil {
		ErrorFrom(c, err)
		return
	}
	if h.Logger != nil {
		h.Logger.Info("feature switch updated", zap.String("key", key), zap.Bool("enabled", *req.Enabled))
	}
	Ok(c, service.SwitchState{
		Name:    strings.TrimPrefix(key, "feature."),
		Key:     key,
		Enabled: *req.Enabled,
	}, nil)
}
