// Package server exposes the coordinator over HTTP.
//
// Routes:
//
//	GET  /health          liveness check
//	GET  /api/presets     preset catalog
//	POST /api/calculate   JSON integration request
//	POST /calculate       form integration request
//	POST /tool            agent tool call
//	GET  /schema          tool schema for agent registration
//	GET  /metrics         Prometheus exposition (when enabled)
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/njchilds90/goquad"
	"github.com/njchilds90/goquad/internal/config"
	"github.com/njchilds90/goquad/internal/metrics"
)

var validate = validator.New()

func init() {
	binding.EnableDecoderDisallowUnknownFields = true
}

type Server struct {
	coord    *goquad.Coordinator
	logger   *zap.Logger
	metrics  *metrics.Metrics
	addr     string
	defaultN int
	timeout  time.Duration
	maxBody  int64
	router   *gin.Engine
}

// New wires the routes. m may be nil, in which case /metrics is not served.
func New(cfg *config.Config, coord *goquad.Coordinator, logger *zap.Logger, m *metrics.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		coord:    coord,
		logger:   logger,
		metrics:  m,
		addr:     cfg.Server.Addr,
		defaultN: cfg.Engine.DefaultN,
		timeout:  cfg.GetRequestTimeout(),
		maxBody:  cfg.Server.MaxBodyBytes,
	}

	r := gin.New()
	r.Use(s.recovery(), otelgin.Middleware("goquad"), s.accessLog())
	r.GET("/health", s.handleHealth)
	r.POST("/tool", s.handleTool)
	r.GET("/schema", s.handleSchema)
	r.POST("/calculate", s.handleCalculateForm)

	api := r.Group("/api")
	api.GET("/presets", s.handlePresets)
	api.POST("/calculate", s.handleCalculate)

	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.timeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Message: "goquad integration API is running"})
}

func (s *Server) handlePresets(c *gin.Context) {
	c.JSON(http.StatusOK, goquad.Presets())
}

func (s *Server) handleCalculate(c *gin.Context) {
	var req CalculateRequest
	if err := s.decodeJSON(c, &req); err != nil {
		s.badRequest(c, err)
		return
	}
	if err := validate.Struct(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	n := s.defaultN
	if req.N != nil {
		n = *req.N
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()
	rep, err := s.coord.Run(ctx, req.Function, *req.A, *req.B, n)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newCalculateResponse(req.Function, rep))
}

func (s *Server) handleCalculateForm(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	var form CalculateForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		s.badRequest(c, err)
		return
	}
	if err := validate.Struct(&form); err != nil {
		s.badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	var (
		display string
		rep     *goquad.Report
		err     error
	)
	if form.FuncType == "preset" {
		display = form.Function
		rep, err = s.coord.RunPreset(ctx, form.Function, *form.A, *form.B, *form.N)
	} else {
		display = form.CustomFunction
		rep, err = s.coord.Run(ctx, form.CustomFunction, *form.A, *form.B, *form.N)
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newCalculateResponse(display, rep))
}

func (s *Server) handleTool(c *gin.Context) {
	var req goquad.ToolRequest
	if err := s.decodeJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, goquad.ToolResponse{Error: err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()
	c.JSON(http.StatusOK, s.coord.HandleToolCall(ctx, req))
}

func (s *Server) handleSchema(c *gin.Context) {
	c.Data(http.StatusOK, "application/json", []byte(goquad.MCPToolSpec()))
}

// ============================================================
// Helpers
// ============================================================

// decodeJSON binds exactly one JSON value with no unknown fields.
func (s *Server) decodeJSON(c *gin.Context, v any) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	body, err := c.GetRawData()
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if !json.Valid(body) {
		return errors.New("invalid JSON: body must be a single JSON value")
	}
	if err := binding.JSON.BindBody(body, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func (s *Server) badRequest(c *gin.Context, err error) {
	s.logger.Debug("bad request", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: err.Error(),
		Kind:  string(goquad.KindInvalidParameter),
	})
}

// fail maps a coordinator error onto a status code.
func (s *Server) fail(c *gin.Context, err error) {
	kind := goquad.KindOf(err)
	status := http.StatusInternalServerError
	switch {
	case kind != "":
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Kind: string(kind)})
}

func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in handler",
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			}
		}()
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
