// Package api exposes the reconciliation service over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/finvoice/reconcile-backend/internal/api/handlers"
	"github.com/finvoice/reconcile-backend/internal/api/middleware"
	"github.com/finvoice/reconcile-backend/internal/application/service"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	svc        *service.ReconcileService
}

// NewServer creates a new API server.
func NewServer(cfg Config, svc *service.ReconcileService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config: cfg,
		router: gin.New(),
		logger: logger,
		svc:    svc,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.Logging(s.logger))
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	s.router.Use(middleware.User())
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	s.router.GET("/health", handlers.Health)

	api := s.router.Group("/api")

	invoicesHandler := handlers.NewInvoicesHandler(s.svc)
	api.GET("/invoices", invoicesHandler.List)
	api.GET("/invoices/:id", invoicesHandler.Get)
	api.GET("/invoices/:id/payments", invoicesHandler.Payments)

	paymentsHandler := handlers.NewPaymentsHandler(s.svc)
	api.POST("/payments", paymentsHandler.Create)

	txHandler := handlers.NewTransactionsHandler(s.svc)
	api.POST("/transactions/upload", txHandler.Upload)
	api.POST("/transactions/get-matches", txHandler.GetMatches)
	api.POST("/transactions/record-payment", txHandler.RecordPayment)
	api.POST("/transactions/confirm-matches", txHandler.ConfirmMatches)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the gin engine for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}
