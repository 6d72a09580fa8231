package booking

import (
	"errors"

	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for booking handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new booking handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the one-shot booking route and the draft API. Every route
// needs a patient session.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, patientMW gin.HandlerFunc, writeMWs ...gin.HandlerFunc) {
	router.POST("/appointments", chain(append([]gin.HandlerFunc{authMW, patientMW}, writeMWs...), h.book)...)

	drafts := router.Group("/bookings")
	drafts.Use(authMW, patientMW)
	{
		drafts.POST("", chain(writeMWs, h.start)...)
		drafts.GET("/:id", h.get)
		drafts.PUT("/:id", h.fill)
		drafts.POST("/:id/submit", chain(writeMWs, h.submit)...)
		drafts.DELETE("/:id", h.cancel)
	}
}

func (h *Handler) book(c *gin.Context) {
	var req BookRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.Book(c.Request.Context(), session.FromContext(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	common.RespondCreated(c, "Appointment booked successfully!", res)
}

func (h *Handler) start(c *gin.Context) {
	var req StartDraftRequest
	if !bindJSON(c, &req) {
		return
	}
	snap, err := h.service.StartDraft(c.Request.Context(), session.FromContext(c), req.TherapistID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	common.RespondCreated(c, "Booking form opened.", snap)
}

func (h *Handler) get(c *gin.Context) {
	snap, err := h.service.GetDraft(c.Request.Context(), session.FromContext(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	common.RespondOK(c, "", snap)
}

func (h *Handler) fill(c *gin.Context) {
	var req FillRequest
	if !bindJSON(c, &req) {
		return
	}
	snap, err := h.service.FillDraft(c.Request.Context(), session.FromContext(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	common.RespondOK(c, "Booking form updated.", snap)
}

func (h *Handler) submit(c *gin.Context) {
	res, err := h.service.SubmitDraft(c.Request.Context(), session.FromContext(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	common.RespondCreated(c, "Appointment booked successfully!", res)
}

func (h *Handler) cancel(c *gin.Context) {
	if err := h.service.CancelDraft(c.Request.Context(), session.FromContext(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrDirectoryNotReady):
		common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails("The therapist directory could not be loaded."))
	case errors.Is(err, ErrTherapistNotFound):
		common.RespondWithError(c, common.ErrNotFound.WithDetails(err.Error()))
	case errors.Is(err, ErrDraftNotFound):
		common.RespondWithError(c, common.ErrNotFound.WithDetails("Booking draft not found or expired."))
	case IsWorkflowError(err):
		common.RespondWithError(c, common.ErrInvalidTransition.WithDetails(err.Error()))
	default:
		common.RespondWithError(c, err)
	}
}

func chain(mws []gin.HandlerFunc, last gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(mws)+1)
	return append(append(out, mws...), last)
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return false
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return false
	}
	return true
}
