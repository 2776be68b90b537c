package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"ai-date-planner/internal/config"
	"ai-date-planner/internal/metrics"
	"ai-date-planner/internal/planner"

	"github.com/gin-gonic/gin"
)

const defaultUsageDays = 7

// PlanGenerator produces a plan for a single request.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, req planner.PlanRequest) (planner.PlanResponse, error)
}

// UsageReporter serves aggregated token usage.
type UsageReporter interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Server wires the HTTP routes to the planner.
type Server struct {
	planner   PlanGenerator
	usage     UsageReporter
	cfg       *config.Config
	logger    *slog.Logger
	startedAt time.Time
}

// New creates a Server. usage may be nil when metrics are disabled.
func New(cfg *config.Config, gen PlanGenerator, usage UsageReporter, logger *slog.Logger) *Server {
	return &Server{
		planner:   gen,
		usage:     usage,
		cfg:       cfg,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), recovery(s.logger), accessLog(s.logger))
	r.Use(corsPolicy(s.cfg.CORSAllowedOrigins)...)

	r.GET("/", s.handleIndex)
	r.POST("/generate-plan", s.handleGeneratePlan)
	r.GET("/health", s.handleHealth)
	r.GET("/usage", s.handleUsage)

	return r
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "success"})
}

func (s *Server) handleGeneratePlan(c *gin.Context) {
	var body planner.PlanRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request body: "+err.Error()))
		return
	}
	req := body.PlanRequest()

	ctx := c.Request.Context()
	l := s.logger.With(slog.String(requestIDKey, c.GetString(requestIDKey)))

	resp, err := s.planner.GeneratePlan(ctx, req)
	if err != nil {
		status, msg := http.StatusInternalServerError, "failed to generate plan"
		var perr *planner.ProviderError
		if errors.As(err, &perr) {
			status, msg = http.StatusBadGateway, "plan provider unavailable"
			if perr.Timeout {
				status, msg = http.StatusGatewayTimeout, "plan provider timed out"
			}
		}
		l.ErrorContext(ctx, "plan generation failed", slog.Int("status", status), slog.Any("error", err))
		c.JSON(status, errorBody(msg))
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.GetSysHealth(s.startedAt, s.cfg.MetricsDBPath))
}

func (s *Server) handleUsage(c *gin.Context) {
	if s.usage == nil {
		c.JSON(http.StatusNotFound, errorBody("usage metrics are disabled"))
		return
	}

	days := defaultUsageDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, errorBody("days must be a positive integer"))
			return
		}
		days = n
	}

	usage, err := s.usage.GetDailyUsage(c.Request.Context(), days)
	if err != nil {
		s.logger.ErrorContext(c.Request.Context(), "failed to load usage", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, errorBody("failed to load usage"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "usage": usage})
}

func errorBody(msg string) gin.H {
	return gin.H{"status": planner.StatusError, "message": msg}
}
