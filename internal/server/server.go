// Package server exposes usage, the model catalog and the metering proxy
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/j-veylop/inspectro-tui/internal/logger"
	"github.com/j-veylop/inspectro-tui/internal/models"
	"github.com/j-veylop/inspectro-tui/internal/services/dashboard"
)

// ProxyPrefix is the path every proxied call lives under.
const ProxyPrefix = "/proxy/"

// CatalogStore reads the persisted catalog.
type CatalogStore interface {
	GetCatalog(ctx context.Context) (*models.Catalog, error)
}

// Options wires the server's collaborators. Proxy may be nil, in which case
// no proxy route is registered.
type Options struct {
	Addr      string
	Usage     dashboard.Source
	Dashboard *dashboard.Service
	Catalog   CatalogStore
	Proxy     http.Handler
}

// Server is the HTTP front of the usage store.
type Server struct {
	engine    *gin.Engine
	http      *http.Server
	usage     dashboard.Source
	dashboard *dashboard.Service
	catalog   CatalogStore
}

// New builds a server and registers its routes.
func New(opts Options) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{
		engine:    engine,
		usage:     opts.Usage,
		dashboard: opts.Dashboard,
		catalog:   opts.Catalog,
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	api := engine.Group("/api")
	api.GET("/usage", s.getUsage)
	api.GET("/usage/series", s.getUsageSeries)
	api.GET("/llm", s.getLLM)
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if opts.Proxy != nil {
		engine.Any(ProxyPrefix+"*path", gin.WrapH(opts.Proxy))
	}

	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	logger.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
