package chat

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const defaultHeartbeat = 25 * time.Second

// SessionSubscriber notifies long-lived streams about session changes.
type SessionSubscriber interface {
	Subscribe(uid string, l session.Listener) func()
}

// Handler struct holds dependencies for community chat handlers.
type Handler struct {
	feed      *Feed
	sessions  SessionSubscriber
	heartbeat time.Duration
	logger    *zap.Logger
}

// NewHandler creates a new chat handler.
func NewHandler(feed *Feed, sessions SessionSubscriber, logger *zap.Logger) *Handler {
	return &Handler{feed: feed, sessions: sessions, heartbeat: defaultHeartbeat, logger: logger}
}

// RegisterRoutes mounts the feed under /community and the legacy /community-chats.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, writeMWs ...gin.HandlerFunc) {
	for _, prefix := range []string{"/community", "/community-chats"} {
		group := router.Group(prefix)
		group.Use(authMW)
		{
			group.GET("/messages", h.list)
			group.POST("/messages", append(append([]gin.HandlerFunc{}, writeMWs...), h.append)...)
			group.GET("/stream", h.stream)
		}
	}
}

func (h *Handler) list(c *gin.Context) {
	msgs, err := h.feed.Snapshot(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list chat messages", zap.Error(err))
		common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails(err.Error()))
		return
	}
	common.RespondOK(c, "", msgs)
}

func (h *Handler) append(c *gin.Context) {
	var req AppendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	m, err := h.feed.Append(session.FromContext(c), req.Text, req.Subject)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondAccepted(c, "Message sent.", m)
}

// stream pushes snapshots as server-sent events. The stream holds one session
// subscription and ends with a signed_out event when the user signs out.
func (h *Handler) stream(c *gin.Context) {
	st := session.FromContext(c)
	if !st.SignedIn() {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	signedOut := make(chan struct{})
	var once sync.Once
	unsubscribe := h.sessions.Subscribe(st.User.ID, func(e session.Event) {
		if e.Type == session.EventSignedOut {
			once.Do(func() { close(signedOut) })
		}
	})
	defer unsubscribe()

	updates := h.feed.Subscribe(ctx)
	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	h.logger.Debug("Chat stream opened", zap.String("userID", st.User.ID))

	c.Stream(func(io.Writer) bool {
		select {
		case <-signedOut:
			c.SSEvent("signed_out", gin.H{"redirect": common.SignInPath})
			return false
		case msgs, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("snapshot", msgs)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().UnixMilli())
			return true
		case <-ctx.Done():
			return false
		}
	})
	h.logger.Debug("Chat stream closed", zap.String("userID", st.User.ID))
}
