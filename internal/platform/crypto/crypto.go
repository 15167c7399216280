package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// KeyHexLength is the length of the hex-encoded AES-256 key.
	KeyHexLength = 64
	// IVSize is the GCM nonce size used for every token.
	IVSize = 16
	// TagSize is the GCM authentication tag size.
	TagSize = 16

	fieldSeparator = ":"
)

type Service interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(serialized string) (string, error)
}

type AesGcmCryptoService struct {
	gcm  cipher.AEAD
	rand io.Reader
}

var _ Service = (*AesGcmCryptoService)(nil)

func NewAesGcmCryptoService(hexKey string) (*AesGcmCryptoService, error) {
	key, err := parseKey(hexKey)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, configError("new cipher", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, configError("new cipher", fmt.Errorf("failed to create GCM: %w", err))
	}

	service := AesGcmCryptoService{gcm: gcm, rand: rand.Reader}
	return &service, nil
}

// parseKey never wraps the hex decoder error: it quotes the offending key byte.
func parseKey(hexKey string) ([]byte, error) {
	if hexKey == "" {
		return nil, configError("parse key", errors.New("key is missing"))
	}
	if len(hexKey) != KeyHexLength {
		return nil, configError("parse key", fmt.Errorf("key must be %d hex characters", KeyHexLength))
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, configError("parse key", errors.New("key is not valid hex"))
	}
	return key, nil
}

func (c *AesGcmCryptoService) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	// Seal returns ciphertext || tag
	sealed := c.gcm.Seal(nil, iv, []byte(plaintext), nil)
	split := len(sealed) - TagSize
	ciphertext, tag := sealed[:split], sealed[split:]

	return hex.EncodeToString(iv) + fieldSeparator +
		hex.EncodeToString(tag) + fieldSeparator +
		hex.EncodeToString(ciphertext), nil
}

func (c *AesGcmCryptoService) Decrypt(serialized string) (string, error) {
	iv, tag, ciphertext, err := parseArtifact(serialized)
	if err != nil {
		return "", err
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plainBytes, err := c.gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", authError("decrypt", err)
	}

	return string(plainBytes), nil
}

// parseArtifact splits iv:tag:ciphertext. The ciphertext field is empty only
// for an empty plaintext; IV and tag must always be present and full length.
func parseArtifact(serialized string) (iv, tag, ciphertext []byte, err error) {
	fields := strings.Split(serialized, fieldSeparator)
	if len(fields) != 3 {
		return nil, nil, nil, formatError("decrypt", fmt.Errorf("expected 3 fields, got %d", len(fields)))
	}
	if fields[0] == "" || fields[1] == "" {
		return nil, nil, nil, formatError("decrypt", errors.New("empty field"))
	}

	if iv, err = hex.DecodeString(fields[0]); err != nil {
		return nil, nil, nil, formatError("decrypt", fmt.Errorf("failed to decode IV hex: %w", err))
	}
	if len(iv) != IVSize {
		return nil, nil, nil, formatError("decrypt", fmt.Errorf("IV must be %d bytes, got %d", IVSize, len(iv)))
	}

	if tag, err = hex.DecodeString(fields[1]); err != nil {
		return nil, nil, nil, formatError("decrypt", fmt.Errorf("failed to decode tag hex: %w", err))
	}
	if len(tag) != TagSize {
		return nil, nil, nil, formatError("decrypt", fmt.Errorf("tag must be %d bytes, got %d", TagSize, len(tag)))
	}

	if ciphertext, err = hex.DecodeString(fields[2]); err != nil {
		return nil, nil, nil, formatError("decrypt", fmt.Errorf("failed to decode ciphertext hex: %w", err))
	}

	return iv, tag, ciphertext, nil
}

// EncryptWith validates hexKey and encrypts plaintext in one call.
func EncryptWith(plaintext, hexKey string) (string, error) {
	svc, err := NewAesGcmCryptoService(hexKey)
	if err != nil {
		return "", err
	}
	return svc.Encrypt(plaintext)
}

// DecryptWith validates hexKey and decrypts serialized in one call.
func DecryptWith(serialized, hexKey string) (string, error) {
	svc, err := NewAesGcmCryptoService(hexKey)
	if err != nil {
		return "", err
	}
	return svc.Decrypt(serialized)
}
