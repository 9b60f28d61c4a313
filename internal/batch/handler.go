package batch

import (
	"context"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/shared/server/respond"
)

type Handler struct {
	Runner *Runner
}

func NewHandler(r *Runner) *Handler {
	return &Handler{Runner: r}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/run", h.run)
	rg.GET("/status", h.status)
}

// run keeps going after the caller hangs up; users aborted mid-run would
// otherwise wait for the next scheduled run.
func (h *Handler) run(c *gin.Context) {
	summary, err := h.Runner.Run(context.WithoutCancel(c.Request.Context()), TriggerHTTP)
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, summary)
}

func (h *Handler) status(c *gin.Context) {
	st, err := h.Runner.Status(c.Request.Context())
	if err != nil {
		respond.AppError(c, err)
		return
	}
	respond.OK(c, st)
}
