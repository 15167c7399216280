package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/pscheid92/slackbridge/internal/adapter/metrics"
	goredis "github.com/redis/go-redis/v9"
)

// CircuitBreakerHook implements goredis.Hook and fails Redis calls fast while
// the server is unhealthy, so the replay guard cannot stall webhook delivery.
type CircuitBreakerHook struct {
	cb circuitbreaker.CircuitBreaker[any]
}

var _ goredis.Hook = (*CircuitBreakerHook)(nil)

// CircuitBreakerSettings tune the breaker. Zero values fall back to
// defaultBreakerSettings.
type CircuitBreakerSettings struct {
	FailureRate      float64
	MinExecutions    uint
	FailurePeriod    time.Duration
	OpenDelay        time.Duration
	SuccessThreshold uint
}

var defaultBreakerSettings = CircuitBreakerSettings{
	FailureRate:      0.6,
	MinExecutions:    5,
	FailurePeriod:    10 * time.Second,
	OpenDelay:        30 * time.Second,
	SuccessThreshold: 1,
}

// NewCircuitBreakerHook builds the hook. m may be nil.
func NewCircuitBreakerHook(settings CircuitBreakerSettings, m *metrics.RedisMetrics) *CircuitBreakerHook {
	s := settings.withDefaults()

	cb := circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(s.FailureRate, s.MinExecutions, s.FailurePeriod).
		WithDelay(s.OpenDelay).
		WithSuccessThreshold(s.SuccessThreshold).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "redis",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			if m != nil {
				m.CircuitStateChanges.WithLabelValues(e.NewState.String()).Inc()
				m.CircuitState.Set(stateToFloat(e.NewState))
			}
		}).
		Build()

	return &CircuitBreakerHook{cb: cb}
}

func (s CircuitBreakerSettings) withDefaults() CircuitBreakerSettings {
	d := defaultBreakerSettings
	if s.FailureRate > 0 {
		d.FailureRate = s.FailureRate
	}
	if s.MinExecutions > 0 {
		d.MinExecutions = s.MinExecutions
	}
	if s.FailurePeriod > 0 {
		d.FailurePeriod = s.FailurePeriod
	}
	if s.OpenDelay > 0 {
		d.OpenDelay = s.OpenDelay
	}
	if s.SuccessThreshold > 0 {
		d.SuccessThreshold = s.SuccessThreshold
	}
	return d
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

func (h *CircuitBreakerHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if !h.cb.TryAcquirePermit() {
			return nil, fmt.Errorf("redis circuit breaker open: %w", circuitbreaker.ErrOpen)
		}
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.cb.RecordError(err)
			return nil, fmt.Errorf("circuit breaker dial failed: %w", err)
		}
		h.cb.RecordSuccess()
		return conn, nil
	}
}

// ProcessHook counts goredis.Nil as success: a duplicate SET NX is a
// healthy answer.
func (h *CircuitBreakerHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		if !h.cb.TryAcquirePermit() {
			err := fmt.Errorf("redis circuit breaker open: %w", circuitbreaker.ErrOpen)
			cmd.SetErr(err)
			return err
		}

		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, goredis.Nil) {
			h.cb.RecordError(err)
			return err
		}
		h.cb.RecordSuccess()
		return err
	}
}

func (h *CircuitBreakerHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		if !h.cb.TryAcquirePermit() {
			return fmt.Errorf("redis circuit breaker open: %w", circuitbreaker.ErrOpen)
		}

		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, goredis.Nil) {
			h.cb.RecordError(err)
			return err
		}
		h.cb.RecordSuccess()
		return err
	}
}

// State returns the current breaker state.
func (h *CircuitBreakerHook) State() circuitbreaker.State {
	return h.cb.State()
}
