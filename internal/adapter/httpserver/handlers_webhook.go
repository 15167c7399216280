package httpserver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/slackbridge/internal/domain"
	apperrors "github.com/pscheid92/slackbridge/internal/platform/errors"
	"github.com/pscheid92/slackbridge/internal/platform/signature"
)

const (
	HeaderTimestamp = "X-Slack-Request-Timestamp"
	HeaderSignature = "X-Slack-Signature"

	// A signature stays acceptable from ts-ReplayWindow to ts+ReplayWindow,
	// so the guard has to remember it for the whole span.
	replayGuardTTL = 2 * signature.ReplayWindow

	reasonReplayed = "replayed"
)

// handleWebhookEvent authenticates the raw request and acknowledges it.
// The payload itself is not interpreted here.
func (s *Server) handleWebhookEvent(c echo.Context) error {
	req := c.Request()
	ctx := req.Context()

	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), req.Body, s.config.WebhookMaxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.TooLargeError("request body too large").WithContext("limit_bytes", maxErr.Limit)
		}
		return apperrors.ValidationError("failed to read request body").WithContext("cause", err.Error())
	}

	sig := req.Header.Get(HeaderSignature)
	result := s.verifier.Check(body, req.Header.Get(HeaderTimestamp), sig)
	s.observeVerification(string(result.Reason))
	if !result.OK() {
		return apperrors.UnauthorizedError().
			WithContext("reason", string(result.Reason)).
			WithContext("skew_seconds", result.Skew.Seconds())
	}

	seen, err := s.replayGuard.Seen(ctx, sig, replayGuardTTL)
	switch {
	case err != nil:
		// Fail open: a Redis outage must not drop genuine deliveries.
		slog.WarnContext(ctx, "Replay guard unavailable, accepting webhook", "error", err)
		s.observeGuardError()
	case seen:
		s.observeReplay()
		return apperrors.UnauthorizedError().
			WithCause(domain.ErrReplayDetected).
			WithContext("reason", reasonReplayed)
	}

	s.observeBody(len(body))
	slog.DebugContext(ctx, "Webhook accepted", "bytes", len(body))

	if err := c.JSON(http.StatusOK, map[string]bool{"ok": true}); err != nil {
		return fmt.Errorf("failed to write webhook response: %w", err)
	}
	return nil
}

func (s *Server) observeVerification(result string) {
	if s.webhookMetrics != nil {
		s.webhookMetrics.ObserveVerification(result)
	}
}

func (s *Server) observeReplay() {
	if s.webhookMetrics != nil {
		s.webhookMetrics.Replays.Inc()
	}
}

func (s *Server) observeGuardError() {
	if s.webhookMetrics != nil {
		s.webhookMetrics.GuardErrors.Inc()
	}
}

func (s *Server) observeBody(n int) {
	if s.webhookMetrics != nil {
		s.webhookMetrics.BodyBytes.Observe(float64(n))
	}
}
