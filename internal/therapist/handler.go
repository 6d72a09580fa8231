// File: internal/therapist/handler.go
package therapist

import (
	"errors"

	"creative_cure_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for directory handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new directory handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the public directory routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/therapists")
	{
		group.GET("", h.list)
		group.GET("/search", h.search)
	}
}

// list always answers 200; a failed load is reported inside the directory.
func (h *Handler) list(c *gin.Context) {
	dir := h.service.ListTherapists(c.Request.Context())
	msg := "Therapists retrieved successfully."
	switch {
	case !dir.Ready():
		msg = "Therapist directory is unavailable."
	case dir.Empty:
		msg = "No therapists available."
	}
	common.RespondOK(c, msg, dir)
}

func (h *Handler) search(c *gin.Context) {
	results, err := h.service.SearchTherapists(c.Request.Context(), c.Query("q"))
	if err != nil {
		if !errors.Is(err, ErrSearchDisabled) {
			h.logger.Error("Therapist search failed", zap.Error(err))
		}
		common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails(err.Error()))
		return
	}
	common.RespondOK(c, "Search completed.", results)
}
