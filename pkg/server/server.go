// Package server exposes probing over HTTP
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jpfielding/jxl.go/pkg/jxl"
	"github.com/jpfielding/jxl.go/pkg/report"
	"github.com/jpfielding/jxl.go/pkg/store"
)

// DefaultMaxBody bounds an uploaded stream
const DefaultMaxBody = 64 << 20

// APIResponse is the envelope of every reply
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func respond(c *gin.Context, httpStatus int, data any, message string) {
	success := httpStatus < http.StatusBadRequest
	if message == "" {
		if success {
			message = "ok"
		} else {
			message = http.StatusText(httpStatus)
		}
	}
	if data == nil {
		data = gin.H{}
	}
	c.JSON(httpStatus, APIResponse{Success: success, Data: data, Message: message, Code: httpStatus})
}

// Options configures a Server
type Options struct {
	Decoder *jxl.Decoder
	Store   *store.Store // optional, reports are persisted and queryable when set
	Probe   report.Options
	MaxBody int64 // 0 means DefaultMaxBody
	Debug   bool
}

// Server serves the probe API
type Server struct {
	opts   Options
	engine *gin.Engine
}

// New builds the router
func New(opts Options) *Server {
	if opts.Decoder == nil {
		opts.Decoder = jxl.NewDecoder()
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{opts: opts, engine: gin.New()}
	s.engine.Use(gin.Recovery())
	s.engine.Use(loggingMiddleware())

	api := s.engine.Group("/api")
	api.GET("/health", s.health)
	api.POST("/probe", s.probe)
	api.GET("/reports", s.listReports)
	api.GET("/reports/:id", s.reportsByContent)
	return s
}

// Handler returns the http handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "serving probe api", "addr", addr, "backend", s.opts.Decoder.Backend())
		errs <- srv.ListenAndServe()
	}()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.DebugContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) health(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"backend": s.opts.Decoder.Backend(),
		"store":   s.opts.Store != nil,
	}, "")
}

// probe reads the request body as a stream. The optional source query
// parameter names it in the report.
func (s *Server) probe(c *gin.Context) {
	source := c.DefaultQuery("source", "upload")
	opts := s.opts.Probe
	if name := c.Query("format"); name != "" {
		format, err := jxl.ParsePixelFormat(name)
		if err != nil {
			respond(c, http.StatusBadRequest, nil, err.Error())
			return
		}
		opts.Format = format
	}
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBody)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respond(c, http.StatusRequestEntityTooLarge, nil, err.Error())
			return
		}
		respond(c, http.StatusBadRequest, nil, err.Error())
		return
	}
	ctx := c.Request.Context()
	r, err := report.ProbeBytes(ctx, s.opts.Decoder, source, data, opts)
	if err != nil {
		respond(c, http.StatusInternalServerError, nil, err.Error())
		return
	}
	if s.opts.Store != nil {
		if err := s.opts.Store.Save(ctx, r); err != nil {
			slog.WarnContext(ctx, "failed to store report", "source", source, "error", err)
		}
	}
	respond(c, http.StatusOK, r, "")
}

func (s *Server) listReports(c *gin.Context) {
	if s.opts.Store == nil {
		respond(c, http.StatusServiceUnavailable, nil, "no report store configured")
		return
	}
	ctx := c.Request.Context()
	if source := c.Query("source"); source != "" {
		r, err := s.opts.Store.Get(ctx, source)
		s.reply(c, []report.Report{r}, err)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 0 {
		respond(c, http.StatusBadRequest, nil, "invalid limit")
		return
	}
	reports, err := s.opts.Store.List(ctx, c.Query("status"), limit)
	s.reply(c, reports, err)
}

func (s *Server) reportsByContent(c *gin.Context) {
	if s.opts.Store == nil {
		respond(c, http.StatusServiceUnavailable, nil, "no report store configured")
		return
	}
	reports, err := s.opts.Store.FindByContent(c.Request.Context(), c.Param("id"))
	s.reply(c, reports, err)
}

func (s *Server) reply(c *gin.Context, reports []report.Report, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respond(c, http.StatusNotFound, nil, err.Error())
	case err != nil:
		respond(c, http.StatusInternalServerError, nil, err.Error())
	default:
		respond(c, http.StatusOK, gin.H{"reports": reports, "summary": report.Summarize(reports)}, "")
	}
}
