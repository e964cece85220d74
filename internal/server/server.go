// Package server wires the HTTP surface: routes, middleware and lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Career-Scout/careerscout/internal/config"
	"github.com/Career-Scout/careerscout/internal/handlers"
	"github.com/Career-Scout/careerscout/internal/logger"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Server hosts the analysis API.
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	http   *http.Server
}

func New(cfg *config.Config, svc handlers.Analyzer) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{cfg: cfg, router: router}
	s.setupMiddleware()
	s.setupRoutes(svc)
	return s
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupMiddleware() {
	corsConfig := cors.Config{
		AllowOrigins:     s.cfg.CORS.AllowedOrigins,
		AllowMethods:     s.cfg.CORS.AllowedMethods,
		AllowHeaders:     s.cfg.CORS.AllowedHeaders,
		ExposeHeaders:    s.cfg.CORS.ExposedHeaders,
		AllowCredentials: s.cfg.CORS.AllowCredentials,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if len(corsConfig.AllowMethods) == 0 {
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(corsConfig.AllowHeaders) == 0 {
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	}
	s.router.Use(cors.New(corsConfig))

	s.router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	})

	// Analysis runs are long; the request timeout bounds them rather than
	// any per-handler deadline.
	timeout := s.cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = time.Hour
	}
	s.router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
}

func (s *Server) setupRoutes(svc handlers.Analyzer) {
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api/v1")
	api.GET("/health", handlers.HealthHandler(Version))
	api.POST("/analyze", handlers.AnalyzeHandler(svc))
	api.POST("/analyze/stream", handlers.AnalyzeStreamHandler(svc))
	api.GET("/analyze/ws", handlers.AnalyzeSocketHandler(svc))
	api.POST("/refine", handlers.RefineHandler(svc))
	api.POST("/refine/stream", handlers.RefineStreamHandler(svc))
}

// Start blocks serving HTTP until the listener fails or Stop is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	logger.Logger.Info().Str("addr", addr).Msg("careerscout API listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	logger.Logger.Info().Msg("shutting down")
	return s.http.Shutdown(ctx)
}
