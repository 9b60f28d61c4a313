package pipeline

import (
	"errors"
	"io"
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

type generateRequest struct {
	// Role names are validated where they are stored.
	PreferredRoles []string `json:"preferred_roles"`
}

// RegisterRoutes attaches POST /generate. Extra middleware (rate limiting)
// runs before the handler.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mw ...gin.HandlerFunc) {
	rg.POST("/generate", append(mw, h.generate)...)
}

func (h *Handler) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, apperr.KindValidation, "Invalid request body")
		return
	}

	out, err := h.Svc.Generate(c.Request.Context(), Request{
		UserID: middleware.UserIDFromContext(c),
		Email:  middleware.UserEmailFromContext(c),
		Roles:  req.PreferredRoles,
	})
	if err != nil {
		respond.AppError(c, err)
		return
	}
	c.Set("analysisId", out.AnalysisID)
	c.Set("reportId", out.ReportID)
	c.Set("apiKeySource", out.Summary.APIKeySource)
	respond.OK(c, out)
}
