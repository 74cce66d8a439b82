// Package secrets seals marketplace API tokens at rest with AES-GCM. The
// master key comes from configuration; sealed tokens are opaque base64 blobs
// stored on the integration record.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

// TokenVault seals and opens API tokens
type TokenVault struct {
	key []byte
}

// NewTokenVault derives the sealing key from the configured master secret
func NewTokenVault(masterKey string) (*TokenVault, error) {
	if masterKey == "" {
		return nil, fmt.Errorf("master key is required")
	}
	sum := sha256.Sum256([]byte(masterKey))
	return &TokenVault{key: sum[:]}, nil
}

// Seal encrypts a token for storage
func (v *TokenVault) Seal(token string) (string, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(token), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a sealed token
func (v *TokenVault) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("malformed sealed token: %w", err)
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(raw) < gcm.NonceSize() {
		return "", fmt.Errorf("malformed sealed token")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]

	token, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to open sealed token: %w", err)
	}
	return string(token), nil
}
