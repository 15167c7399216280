package domain

// TokenCipher encrypts OAuth tokens before they are handed to an external
// store and decrypts them on the way back.
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(serialized string) (string, error)
}
