package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/slackbridge/internal/adapter/metrics"
	"github.com/pscheid92/slackbridge/internal/domain"
	"github.com/pscheid92/slackbridge/internal/platform/config"
	"github.com/pscheid92/slackbridge/internal/platform/signature"
)

type requestVerifier interface {
	Check(rawBody []byte, timestamp, providedSignature string) signature.Result
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	verifier    requestVerifier
	replayGuard domain.ReplayGuard

	httpMetrics    *metrics.HTTPMetrics
	webhookMetrics *metrics.WebhookMetrics
	metricsHandler http.Handler

	healthChecks []HealthCheck
	clock        clockwork.Clock
	startTime    time.Time
}

// Deps groups the collaborators NewServer wires into routes.
type Deps struct {
	Verifier       requestVerifier
	ReplayGuard    domain.ReplayGuard
	HTTPMetrics    *metrics.HTTPMetrics
	WebhookMetrics *metrics.WebhookMetrics
	MetricsHandler http.Handler
	HealthChecks   []HealthCheck
	Clock          clockwork.Clock
}

func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Verifier == nil {
		return nil, fmt.Errorf("request verifier is required")
	}
	if deps.ReplayGuard == nil {
		deps.ReplayGuard = domain.NoopReplayGuard{}
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		verifier:       deps.Verifier,
		replayGuard:    deps.ReplayGuard,
		httpMetrics:    deps.HTTPMetrics,
		webhookMetrics: deps.WebhookMetrics,
		metricsHandler: deps.MetricsHandler,
		healthChecks:   deps.HealthChecks,
		clock:          deps.Clock,
		startTime:      deps.Clock.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP exposes the router for in-process tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
