package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/slackbridge/internal/adapter/httpserver"
	"github.com/pscheid92/slackbridge/internal/adapter/metrics"
	"github.com/pscheid92/slackbridge/internal/adapter/redis"
	"github.com/pscheid92/slackbridge/internal/domain"
	"github.com/pscheid92/slackbridge/internal/platform/config"
	"github.com/pscheid92/slackbridge/internal/platform/crypto"
	"github.com/pscheid92/slackbridge/internal/platform/logging"
	"github.com/pscheid92/slackbridge/internal/platform/signature"
	"github.com/pscheid92/slackbridge/internal/platform/version"
	goredis "github.com/redis/go-redis/v9"
)

const (
	redisConnectTimeout = 30 * time.Second
	shutdownTimeout     = 10 * time.Second
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// setupCipher fails the boot on a bad key rather than on the first token.
func setupCipher(cfg *config.Config) domain.TokenCipher {
	cipher, err := crypto.NewAesGcmCryptoService(cfg.TokenEncryptionKey)
	if err != nil {
		slog.Error("Failed to create token cipher", "error_kind", crypto.KindOf(err).String())
		os.Exit(1)
	}
	return cipher
}

func setupVerifier(cfg *config.Config, clock clockwork.Clock) *signature.Verifier {
	verifier, err := signature.NewVerifier([]byte(cfg.SigningSecret), clock)
	if err != nil {
		slog.Error("Failed to create request verifier", "error", err)
		os.Exit(1)
	}
	return verifier
}

// setupRedis returns nil when REDIS_URL is unset; replay protection is then
// limited to the timestamp window.
func setupRedis(cfg *config.Config, m *metrics.RedisMetrics) *goredis.Client {
	if cfg.RedisURL == "" {
		slog.Warn("REDIS_URL not set, replay guard disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL,
		redis.NewMetricsHook(m),
		redis.NewCircuitBreakerHook(redis.CircuitBreakerSettings{}, m),
	)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().Version)

	reg := metrics.NewRegistry()
	redisMetrics := metrics.NewRedisMetrics(reg)

	cipher := setupCipher(cfg)
	verifier := setupVerifier(cfg, clock)

	healthChecks := []httpserver.HealthCheck{httpserver.TokenCipherCheck(cipher)}

	var replayGuard domain.ReplayGuard = domain.NoopReplayGuard{}
	if rdb := setupRedis(cfg, redisMetrics); rdb != nil {
		defer func() { _ = rdb.Close() }()
		replayGuard = redis.NewReplayGuard(rdb)
		healthChecks = append(healthChecks, httpserver.PingCheck("redis", httpserver.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})))
	}

	srv, err := httpserver.NewServer(cfg, httpserver.Deps{
		Verifier:       verifier,
		ReplayGuard:    replayGuard,
		HTTPMetrics:    metrics.NewHTTPMetrics(reg),
		WebhookMetrics: metrics.NewWebhookMetrics(reg),
		MetricsHandler: metrics.Handler(reg),
		HealthChecks:   healthChecks,
		Clock:          clock,
	})
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
