package dashboard

import (
	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the dashboard.
type Handler struct {
	composer *Composer
	logger   *zap.Logger
}

// NewHandler creates a new dashboard handler.
func NewHandler(composer *Composer, logger *zap.Logger) *Handler {
	return &Handler{composer: composer, logger: logger}
}

// RegisterRoutes sets up GET /dashboard. Any signed-in user may call it, including
// one whose role is missing.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	router.GET("/dashboard", authMW, h.get)
}

func (h *Handler) get(c *gin.Context) {
	view, err := h.composer.Compose(c.Request.Context(), session.FromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, view.Message, view)
}
