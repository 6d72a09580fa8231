package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"creative_cure_backend/internal/appointment"
	"creative_cure_backend/internal/auth"
	"creative_cure_backend/internal/booking"
	"creative_cure_backend/internal/chat"
	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/config"
	"creative_cure_backend/internal/dashboard"
	"creative_cure_backend/internal/filestorage"
	"creative_cure_backend/internal/jobs"
	"creative_cure_backend/internal/middleware"
	"creative_cure_backend/internal/session"
	"creative_cure_backend/internal/therapist"
	"creative_cure_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted under /api/v1.
type Handlers struct {
	Auth        *auth.Handler
	User        *user.Handler
	Therapist   *therapist.Handler
	Appointment *appointment.Handler
	Booking     *booking.Handler
	Dashboard   *dashboard.Handler
	Chat        *chat.Handler
}

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	feed              *chat.Feed
	limiter           *middleware.RateLimiter
	directoryIndexJob *jobs.DirectoryIndexJob
}

// NewServer creates a new instance of our application server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	handlers Handlers,
	sessions *session.Provider,
	feed *chat.Feed,
	metrics *middleware.Metrics,
	directoryIndexJob *jobs.DirectoryIndexJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	common.RegisterValidators()
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())
	router.Use(metrics.Handler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	if allowsAnyOrigin(cfg.CORSAllowedOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
		corsConfig.AllowCredentials = true
	}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(sessions, logger.Named("AuthMiddleware"))
	sessionMW := middleware.SessionMiddleware(sessions, logger.Named("SessionMiddleware"))
	patientMW := middleware.RoleAuthMiddleware(common.RolePatient)
	therapistMW := middleware.RoleAuthMiddleware(common.RoleTherapist)

	var limiter *middleware.RateLimiter
	var writeMWs []gin.HandlerFunc
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		writeMWs = append(writeMWs, middleware.RateLimit(limiter))
	}

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Creative Cure API is healthy!"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.BlobDriver == config.BlobDriverLocal {
		router.Static(strings.TrimSuffix(filestorage.LocalURLPrefix, "/"), cfg.LocalStoragePath)
	}

	v1 := router.Group("/api/v1")
	handlers.Auth.RegisterRoutes(v1, authMW, sessionMW)
	handlers.User.RegisterRoutes(v1, authMW)
	handlers.Therapist.RegisterRoutes(v1)
	handlers.Appointment.RegisterRoutes(v1, authMW, therapistMW)
	handlers.Booking.RegisterRoutes(v1, authMW, patientMW, writeMWs...)
	handlers.Dashboard.RegisterRoutes(v1, authMW)
	handlers.Chat.RegisterRoutes(v1, authMW, writeMWs...)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		// The chat stream is long-lived, so writes are not bounded here.
		IdleTimeout: 120 * time.Second,
	}

	return &Server{
		httpServer:        httpServer,
		router:            router,
		cfg:               cfg,
		logger:            logger,
		feed:              feed,
		limiter:           limiter,
		directoryIndexJob: directoryIndexJob,
	}, nil
}

// Router exposes the configured engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start() error {
	if s.directoryIndexJob != nil {
		if err := s.directoryIndexJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start directory index job", zap.Error(err))
		}
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("ginMode", s.cfg.GinMode),
		zap.String("dataStore", s.cfg.DataStore),
		zap.String("chatStore", s.cfg.ChatStore),
		zap.String("blobDriver", s.cfg.BlobDriver),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

// Shutdown stops the job scheduler, drains HTTP connections and waits for chat
// writes still in flight.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.directoryIndexJob != nil {
		s.directoryIndexJob.Stop()
	}
	err := s.httpServer.Shutdown(ctx)
	if s.limiter != nil {
		s.limiter.Stop()
	}

	flushed := make(chan struct{})
	go func() {
		s.feed.Wait()
		close(flushed)
	}()
	select {
	case <-flushed:
	case <-ctx.Done():
		s.logger.Warn("Pending chat writes not flushed before shutdown deadline")
	}
	return err
}

func allowsAnyOrigin(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
