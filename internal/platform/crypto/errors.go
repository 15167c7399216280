package crypto

import (
	"errors"
	"fmt"
)

// Kind classifies a token cipher failure.
type Kind int

const (
	// KindConfig means the key material is missing or malformed.
	KindConfig Kind = iota + 1
	// KindFormat means the serialized artifact is not iv:tag:ciphertext hex.
	KindFormat
	// KindAuth means the authentication tag did not verify.
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindFormat:
		return "format"
	case KindAuth:
		return "auth"
	default:
		return "unknown"
	}
}

var (
	ErrConfig = errors.New("invalid token encryption key")
	ErrFormat = errors.New("malformed encrypted token")
	ErrAuth   = errors.New("token authentication failed")
)

// Error is returned by every failing cipher operation. It matches the
// sentinel of its Kind via errors.Is and never carries key or plaintext bytes.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.sentinel(), e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.sentinel())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindConfig:
		return ErrConfig
	case KindFormat:
		return ErrFormat
	case KindAuth:
		return ErrAuth
	default:
		return nil
	}
}

// KindOf reports the Kind of err, or 0 when err did not come from this package.
func KindOf(err error) Kind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return 0
}

func configError(op string, cause error) *Error {
	return &Error{Kind: KindConfig, Op: op, Err: cause}
}

func formatError(op string, cause error) *Error {
	return &Error{Kind: KindFormat, Op: op, Err: cause}
}

func authError(op string, cause error) *Error {
	return &Error{Kind: KindAuth, Op: op, Err: cause}
}
