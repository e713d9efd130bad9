package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"eventhub/internal/app"
	"eventhub/internal/consumers"
	"eventhub/internal/handlers"
	"eventhub/internal/middleware"
	"eventhub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP API
type Server struct {
	router     *gin.Engine
	components *app.Components
	services   *service.Services
	consumers  *consumers.ConsumerService
}

// NewServer builds the router over the shared components. With the
// in-memory broker the consumers run inside the API process.
func NewServer(components *app.Components) (*Server, error) {
	cfg := components.Config
	gin.SetMode(cfg.GinMode)

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not configured")
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())

	server := &Server{
		router:     router,
		components: components,
		services:   components.Services(),
	}

	if components.InProcessConsumers() {
		server.consumers = components.Consumers()
		if err := server.consumers.Start(); err != nil {
			return nil, fmt.Errorf("failed to start in-process consumers: %w", err)
		}
	}

	server.setupRoutes()
	return server, nil
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services)

	api := s.router.Group("/api")
	api.Use(middleware.JWTAuth(s.components.Config.Auth.JWTSecret))
	h.RegisterRoutes(api)

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.components.Registry, promhttp.HandlerOpts{})))
}

func (s *Server) healthCheck(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":  "ok",
		"service": "eventhub-api",
		"version": "1.0.0",
	}

	if db := s.components.DB; db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		check := db.HealthCheck(ctx)
		body["database"] = check
		if check.Status != "healthy" {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}

	c.JSON(status, body)
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.components.Config.Port)
	return s.router.Run(addr)
}

// GetRouter returns the router for tests and http.Server
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup stops in-process consumers and closes connections
func (s *Server) Cleanup(ctx context.Context) error {
	if s.consumers != nil {
		if err := s.consumers.Shutdown(ctx); err != nil {
			slog.Error("Error stopping consumers", "error", err)
		}
	}
	s.components.Close()
	return nil
}
