// Package server exposes the tool service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"toolforge/internal/forge"
	"toolforge/internal/logging"
)

// Options configures a Server.
type Options struct {
	Listen string
	// Mode is the gin mode: debug, release or test.
	Mode string
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// Server is the HTTP front of a forge.Service.
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// New builds the router. It does not start listening.
func New(svc *forge.Service, opts Options) *Server {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	g := gin.New()
	initRouter(g, svc, opts.Gatherer)

	return &Server{
		engine: g,
		http: &http.Server{
			Addr:              opts.Listen,
			Handler:           g,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Server("Listening on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logging.Server("Shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		logging.ServerError("Shutdown failed: %v", err)
		return err
	}
	return <-errCh
}

func initRouter(g *gin.Engine, svc *forge.Service, gatherer prometheus.Gatherer) {
	g.Use(gin.Recovery())
	g.Use(requestLogger())

	g.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "tools": svc.Registry().Len()})
	})
	g.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	toolHandler := NewToolHandler(svc)

	apiV1 := g.Group("/v1")
	{
		apiV1.GET("/tools", toolHandler.List)
		apiV1.GET("/tools/prompt", toolHandler.Prompt)
		apiV1.POST("/tools", toolHandler.Submit)
		apiV1.POST("/tools/:name/invoke", toolHandler.Invoke)

		apiV1.POST("/actions", toolHandler.Act)
		apiV1.GET("/history", toolHandler.History)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Get(logging.CategoryServer).Debug("%s %s -> %d (%v)",
			c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
