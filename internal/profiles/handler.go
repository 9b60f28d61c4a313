package profiles

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/shared/apperr"
	"skillgap-backend/internal/shared/server/middleware"
	"skillgap-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

type setRolesRequest struct {
	Roles []string `json:"roles" binding:"required"`
}

type setAPIKeyRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/roles", h.setRoles)
	rg.GET("/roles", h.getRoles)
	rg.POST("/api-key", h.setAPIKey)
	rg.GET("/api-key", h.getAPIKey)
}

func (h *Handler) setRoles(c *gin.Context) {
	var req setRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, apperr.KindValidation, "Request body must include roles")
		return
	}
	result, err := h.Svc.SetPreferredRoles(c.Request.Context(), middleware.UserIDFromContext(c), req.Roles)
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, gin.H{"status": "success", "roles": result})
}

func (h *Handler) getRoles(c *gin.Context) {
	roles, err := h.Svc.GetPreferredRoles(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, gin.H{"roles": roles})
}

func (h *Handler) setAPIKey(c *gin.Context) {
	var req setAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, apperr.KindValidation, "Invalid API key format")
		return
	}
	result, err := h.Svc.SetAPIKey(c.Request.Context(), middleware.UserIDFromContext(c), req.APIKey)
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, gin.H{
		"status":     "success",
		"message":    "API key " + result.Status,
		"key_prefix": result.Prefix,
	})
}

func (h *Handler) getAPIKey(c *gin.Context) {
	prefix, ok, err := h.Svc.APIKeyPrefix(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, gin.H{"has_key": ok, "key_prefix": prefix})
}
