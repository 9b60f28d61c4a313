package analyses

import (
	"net/http"
	"strconv"
	"strings"

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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/history", h.history)
	rg.GET("/latest", h.latest)
}

func (h *Handler) history(c *gin.Context) {
	limit := DefaultHistoryLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.Error(c, http.StatusBadRequest, apperr.KindValidation, "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := h.Svc.History(c.Request.Context(), middleware.UserIDFromContext(c), limit)
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, gin.H{"analyses": list})
}

func (h *Handler) latest(c *gin.Context) {
	a, err := h.Svc.Latest(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.AppError(c, err)
		return
	}
	c.Set("analysisId", a.ID)
	respond.OK(c, a)
}
