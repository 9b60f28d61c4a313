package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/shared/apperr"
	"skillgap-backend/internal/shared/server/middleware"
	"skillgap-backend/internal/shared/server/respond"
	"skillgap-backend/internal/shared/telemetry"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

// me returns the caller's profile. A caller without a profiles row yet gets
// one recorded from the token so reports have a name to print.
func (h *Handler) me(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, apperr.KindInternal, "service unavailable")
		return
	}
	ctx := c.Request.Context()
	userID := middleware.UserIDFromContext(c)
	user, err := h.Svc.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		user = User{ID: userID, Email: middleware.UserEmailFromContext(c)}
		if uerr := h.Svc.UpsertFromAuth(ctx, user); uerr != nil {
			telemetry.Error("users.record_failed", map[string]any{"user_id": userID, "error": uerr.Error()})
		}
		err = nil
	}
	if err != nil {
		respond.AppError(c, apperr.Wrap(apperr.KindPersistence, "Failed to load profile", err))
		return
	}
	respond.OK(c, gin.H{
		"id":           user.ID,
		"email":        user.Email,
		"full_name":    user.FullName,
		"display_name": user.DisplayName(),
	})
}
