package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pscheid92/slackbridge/internal/domain"
)

const cipherProbe = "slackbridge-health-probe"

type pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to a pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// PingCheck reports the named dependency unhealthy when Ping fails.
func PingCheck(name string, p pinger) HealthCheck {
	return HealthCheck{
		Name: name,
		Check: func(ctx context.Context) error {
			if err := p.Ping(ctx); err != nil {
				slog.WarnContext(ctx, "Health check failed", "check", name, "error", err)
				return fmt.Errorf("%s ping failed: %w", name, err)
			}
			return nil
		},
	}
}

// TokenCipherCheck round-trips a fixed probe through the cipher.
func TokenCipherCheck(cipher domain.TokenCipher) HealthCheck {
	return HealthCheck{
		Name: "token_cipher",
		Check: func(ctx context.Context) error {
			artifact, err := cipher.Encrypt(cipherProbe)
			if err != nil {
				return fmt.Errorf("token cipher encrypt failed: %w", err)
			}
			plaintext, err := cipher.Decrypt(artifact)
			if err != nil {
				return fmt.Errorf("token cipher decrypt failed: %w", err)
			}
			if plaintext != cipherProbe {
				return errors.New("token cipher round-trip mismatch")
			}
			return nil
		},
	}
}
