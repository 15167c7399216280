// Package signature authenticates inbound webhook requests.
//
// A request is genuine when its v0 HMAC-SHA256 signature over
// "v0:<timestamp>:<raw body>" matches and the timestamp lies within
// ReplayWindow of the verifier's clock in either direction.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	Version = "v0"

	// ReplayWindow is the maximum accepted distance between the request
	// timestamp and now.
	ReplayWindow = 300 * time.Second

	signaturePrefix = Version + "="
)

var (
	ErrConfig        = errors.New("webhook signature verification misconfigured")
	ErrMissingSecret = &ConfigError{Reason: "signing secret is missing"}
)

// ConfigError reports unusable verifier configuration. It matches ErrConfig.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return ErrConfig.Error() + ": " + e.Reason
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// Reason explains a verification outcome. It is meant for logs and metrics
// only and must not be echoed to the caller.
type Reason string

const (
	ReasonOK           Reason = "ok"
	ReasonBadTimestamp Reason = "bad_timestamp"
	ReasonExpired      Reason = "expired"
	ReasonBadSignature Reason = "bad_signature"
)

type Result struct {
	Reason Reason
	// Skew is now minus the request timestamp; zero when the timestamp did not parse.
	Skew time.Duration
}

func (r Result) OK() bool {
	return r.Reason == ReasonOK
}

type Verifier struct {
	secret []byte
	clock  clockwork.Clock
}

// NewVerifier copies secret. A nil clock selects the real clock.
func NewVerifier(secret []byte, clock clockwork.Clock) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Verifier{
		secret: append([]byte(nil), secret...),
		clock:  clock,
	}, nil
}

// Verify reports whether the request is authentic and fresh.
func (v *Verifier) Verify(rawBody []byte, timestamp, providedSignature string) bool {
	return v.Check(rawBody, timestamp, providedSignature).OK()
}

func (v *Verifier) Check(rawBody []byte, timestamp, providedSignature string) Result {
	return check(v.secret, v.clock.Now(), rawBody, timestamp, providedSignature)
}

// Sign returns the header value a sender would attach for rawBody at timestamp.
func (v *Verifier) Sign(rawBody []byte, timestamp string) string {
	return sign(v.secret, rawBody, timestamp)
}

// Verify is the one-shot form of Verifier.Verify evaluated at now.
// Only a missing secret produces an error.
func Verify(rawBody []byte, timestamp, providedSignature string, secret []byte, now time.Time) (bool, error) {
	if len(secret) == 0 {
		return false, ErrMissingSecret
	}
	return check(secret, now, rawBody, timestamp, providedSignature).OK(), nil
}

func check(secret []byte, now time.Time, rawBody []byte, timestamp, providedSignature string) Result {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return Result{Reason: ReasonBadTimestamp}
	}

	window := int64(ReplayWindow / time.Second)
	skew, ok := skewSeconds(now.Unix(), ts)
	if !ok || skew > window || skew < -window {
		return Result{Reason: ReasonExpired, Skew: toDuration(skew, ok)}
	}
	result := Result{Skew: time.Duration(skew) * time.Second}

	expected := sign(secret, rawBody, timestamp)
	// hmac.Equal is constant time for equal lengths and false otherwise.
	if !hmac.Equal([]byte(expected), []byte(providedSignature)) {
		result.Reason = ReasonBadSignature
		return result
	}

	result.Reason = ReasonOK
	return result
}

func sign(secret, rawBody []byte, timestamp string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(Version + ":" + timestamp + ":"))
	mac.Write(rawBody)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// skewSeconds computes now-ts, reporting false on int64 overflow.
func skewSeconds(now, ts int64) (int64, bool) {
	d := now - ts
	if (ts > 0 && d > now) || (ts < 0 && d < now) {
		return 0, false
	}
	return d, true
}

// toDuration returns zero for skews a time.Duration cannot hold.
func toDuration(skewSec int64, ok bool) time.Duration {
	const maxSec = math.MaxInt64 / int64(time.Second)
	if !ok || skewSec > maxSec || skewSec < -maxSec {
		return 0
	}
	return time.Duration(skewSec) * time.Second
}
