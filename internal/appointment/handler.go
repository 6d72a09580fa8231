// File: internal/appointment/handler.go
package appointment

import (
	"errors"

	"creative_cure_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for appointment handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new appointment handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the appointment read and status routes. The create route
// belongs to the booking handler.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, therapistMW gin.HandlerFunc) {
	group := router.Group("/appointments")
	group.Use(authMW)
	{
		group.GET("", h.listMine)
		group.PATCH("/:id/status", therapistMW, h.updateStatus)
	}
}

func (h *Handler) listMine(c *gin.Context) {
	list, err := h.service.ListFor(c.Request.Context(), common.GetUserIDFromContext(c), common.GetUserRoleFromContext(c))
	if err != nil {
		h.logger.Error("Failed to list appointments", zap.Error(err))
		common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails(err.Error()))
		return
	}
	common.RespondOK(c, "Appointments retrieved successfully.", list)
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	updated, err := h.service.UpdateStatus(c.Request.Context(), common.GetUserIDFromContext(c), c.Param("id"), req.Status)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Appointment status updated.", updated)
}
