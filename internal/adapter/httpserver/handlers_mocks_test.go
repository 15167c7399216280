package httpserver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/slackbridge/internal/platform/config"
	"github.com/pscheid92/slackbridge/internal/platform/signature"
)

// --- Mock implementations ---

type mockVerifier struct {
	result signature.Result
	calls  int
}

func (m *mockVerifier) Check(_ []byte, _, _ string) signature.Result {
	m.calls++
	return m.result
}

type mockReplayGuard struct {
	mu     sync.Mutex
	seenFn func(ctx context.Context, sig string, ttl time.Duration) (bool, error)
	ttls   []time.Duration
}

func (m *mockReplayGuard) Seen(ctx context.Context, sig string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	m.ttls = append(m.ttls, ttl)
	m.mu.Unlock()
	if m.seenFn != nil {
		return m.seenFn(ctx, sig, ttl)
	}
	return false, nil
}

// --- Test helpers ---

const (
	testSecret    = "8f742231b10e8888abcd99yyyzzz85a5"
	testTimestamp = "1531420618"
)

var testNow = time.Unix(1531420618, 0)

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		WebhookRateLimit:   1000,
		WebhookRateBurst:   1000,
		WebhookMaxBodySize: 1 << 20,
	}
}

func newTestServer(t *testing.T, opts ...func(*Server)) *Server {
	t.Helper()

	clock := clockwork.NewFakeClockAt(testNow)
	srv := &Server{
		echo:        echo.New(),
		config:      testConfig(),
		verifier:    &mockVerifier{result: signature.Result{Reason: signature.ReasonOK}},
		replayGuard: &mockReplayGuard{},
		clock:       clock,
		startTime:   clock.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withVerifier(v requestVerifier) func(*Server) {
	return func(s *Server) {
		s.verifier = v
	}
}

func withReplayGuard(g *mockReplayGuard) func(*Server) {
	return func(s *Server) {
		s.replayGuard = g
	}
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withConfig(cfg *config.Config) func(*Server) {
	return func(s *Server) {
		s.config = cfg
	}
}

// realVerifier signs with testSecret against a fake clock pinned to testNow.
func realVerifier(t *testing.T) *signature.Verifier {
	t.Helper()
	v, err := signature.NewVerifier([]byte(testSecret), clockwork.NewFakeClockAt(testNow))
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}
	return v
}
