package reports

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
	rg.GET("/reports", h.list)
}

// list serves GET /reports. With ?analysis_id it returns that analysis'
// report only.
func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if analysisID := strings.TrimSpace(c.Query("analysis_id")); analysisID != "" {
		rep, err := h.Svc.ForAnalysis(c.Request.Context(), userID, analysisID)
		if err != nil {
			respond.AppError(c, err)
			return
		}
		c.Set("reportId", rep.ID)
		respond.OK(c, gin.H{"reports": []Report{rep}})
		return
	}

	limit := DefaultListLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.Error(c, http.StatusBadRequest, apperr.KindValidation, "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := h.Svc.List(c.Request.Context(), userID, limit)
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, gin.H{"reports": list})
}
