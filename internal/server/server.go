package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/penwyp/go-milestone-board/internal/application/board"
	"github.com/penwyp/go-milestone-board/internal/metrics"
	"github.com/penwyp/go-milestone-board/internal/util"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// shutdownTimeout bounds the wait for in-flight requests on shutdown
const shutdownTimeout = 5 * time.Second

// Server is the HTTP dashboard of a board.
type Server struct {
	board  *board.Board
	engine *gin.Engine
	page   *template.Template

	mu     sync.Mutex
	status string // shown once on the next page view
}

// New creates the dashboard server and registers its routes.
func New(b *board.Board) (*Server, error) {
	page, err := template.New("board.html.tmpl").Funcs(template.FuncMap{
		"px": func(f float64) string { return fmt.Sprintf("%.1f", f) },
	}).ParseFS(templateFS, "templates/board.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	s := &Server{
		board:  b,
		engine: gin.New(),
		page:   page,
	}
	s.engine.Use(gin.Recovery(), requestLogger(), requestMetrics())
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving the dashboard.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// HTML dashboard
	r.GET("/", s.handlePage)
	r.GET("/select", s.handleSelect)
	r.POST("/commit", s.handleCommit)
	r.POST("/cancel", s.handleCancel)
	r.POST("/reload", s.handleReload)

	// JSON API
	api := r.Group("/api")
	api.GET("/categories", s.apiCategories)
	api.GET("/timeline/:category", s.apiTimeline)
	api.GET("/panel", s.apiPanel)
	api.POST("/select", s.apiSelect)
	api.POST("/commit", s.apiCommit)
	api.POST("/cancel", s.apiCancel)
	api.POST("/reload", s.apiReload)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		util.LogInfof("Dashboard listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		util.LogInfo("Shutting down dashboard...")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("dashboard shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) setStatus(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = msg
}

func (s *Server) takeStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.status
	s.status = ""
	return msg
}

// requestLogger logs every request after it completes
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		util.LogInfo("HTTP request",
			util.F("method", c.Request.Method),
			util.F("path", path),
			util.F("query", query),
			util.F("status", c.Writer.Status()),
			util.F("latency", time.Since(start)),
			util.F("client_ip", c.ClientIP()),
		)
	}
}

// requestMetrics records request latency by route
func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, route, fmt.Sprint(c.Writer.Status()), time.Since(start))
	}
}

// renderJSON writes v encoded with sonic
func renderJSON(c *gin.Context, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		util.LogErrorf("Failed to encode response: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}

// bindJSON decodes the request body with sonic
func bindJSON(c *gin.Context, v any) error {
	data, err := c.GetRawData()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("empty request body")
	}
	return sonic.Unmarshal(data, v)
}
