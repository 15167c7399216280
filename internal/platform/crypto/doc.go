// Package crypto provides encryption services for OAuth tokens at rest.
//
// AesGcmCryptoService seals tokens with AES-256-GCM under a 16-byte random IV and
// serializes them as hex(iv):hex(tag):hex(ciphertext). Failures are classified as
// ErrConfig (bad key material), ErrFormat (malformed artifact) or ErrAuth (tag mismatch).
// Persistence of the artifact is left to the caller.
package crypto
