// internal/interfaces/http/server.go
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/config"
	"github.com/Kyac99/finance-gestion-app/internal/domain/user"
	"github.com/Kyac99/finance-gestion-app/internal/infrastructure/database/gormdb"
	"github.com/Kyac99/finance-gestion-app/internal/infrastructure/database/redis"
	"github.com/Kyac99/finance-gestion-app/internal/interfaces/http/middleware"
	"github.com/Kyac99/finance-gestion-app/internal/interfaces/http/routes"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	gin         *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
	services    *routes.Services
	log         logrus.FieldLogger
	startedAt   time.Time
}

// NewServer creates a new HTTP server instance. redisClient may be nil.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log logrus.FieldLogger) *Server {
	var revoker user.TokenRevoker
	if redisClient != nil {
		revoker = redisClient
	}

	s := &Server{
		config:      cfg,
		db:          db,
		redisClient: redisClient,
		services:    routes.NewServices(db, cfg, revoker, log),
		log:         log,
		startedAt:   time.Now(),
	}
	s.gin = s.buildEngine()
	return s
}

// Services exposes the wired domain services
func (s *Server) Services() *routes.Services {
	return s.services
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	s.log.WithFields(logrus.Fields{
		"port":     s.config.Server.Port,
		"base_url": fmt.Sprintf("http://localhost:%s/api/v1", s.config.Server.Port),
	}).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.log.Info("Shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.log.Info("HTTP server stopped gracefully")
	return nil
}

func (s *Server) buildEngine() *gin.Engine {
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(s.config.Security.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(s.config.Security.TrustedProxies); err != nil {
			s.log.WithError(err).Warn("Ignoring invalid trusted proxies")
		}
	}

	s.setupMiddleware(engine)
	s.setupRoutes(engine)
	return engine
}

// setupMiddleware configures all middleware for the server
func (s *Server) setupMiddleware(engine *gin.Engine) {
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(s.log))
	engine.Use(middleware.CORS(s.config))
	engine.Use(middleware.SecurityHeaders())

	if s.redisClient != nil {
		engine.Use(middleware.RateLimit(s.redisClient, s.config.Security.RateLimitPerMinute, s.log))
	}

	maxBody := s.config.Server.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 20
	}
	engine.Use(middleware.RequestSizeLimit(maxBody))
	engine.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

// setupRoutes configures all routes for the server
func (s *Server) setupRoutes(engine *gin.Engine) {
	engine.GET("/health", s.healthCheck)
	engine.GET("/ready", s.readinessCheck)

	apiV1 := engine.Group("/api/v1")
	routes.SetupRoutes(apiV1, s.services, s.log)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
}

// healthCheck reports whether the process is up
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
		"uptime":      time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// readinessCheck verifies the database and, when enabled, Redis
func (s *Server) readinessCheck(c *gin.Context) {
	checks := gin.H{}
	ready := true

	if err := gormdb.Health(c.Request.Context(), s.db); err != nil {
		s.log.WithError(err).Warn("Database readiness check failed")
		checks["database"] = "unavailable"
		ready = false
	} else {
		checks["database"] = "ok"
	}

	if s.redisClient != nil {
		if err := s.redisClient.Health(c.Request.Context()); err != nil {
			s.log.WithError(err).Warn("Redis readiness check failed")
			checks["redis"] = "unavailable"
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not ready"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	})
}
