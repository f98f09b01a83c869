// Package encryption provides authenticated encryption for sensitive data
// like access tokens and raw webhook payloads. Uses AES-256-GCM.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"polyglot-shopify-sync/internal/ports"
)

// ErrInvalidCiphertext is returned when decryption fails.
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// AESEncryptionService implements EncryptionService with AES-256-GCM. The key
// is derived from the configured secret using SHA-256.
type AESEncryptionService struct {
	key [32]byte
}

// NewAESEncryptionService creates an encryption service from a secret
func NewAESEncryptionService(secret string) ports.EncryptionService {
	return &AESEncryptionService{key: sha256.Sum256([]byte(secret))}
}

// Encrypt encrypts plaintext and encodes the result as base64
func (s *AESEncryptionService) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.key[:])
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

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a value produced by Encrypt
func (s *AESEncryptionService) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	block, err := aes.NewCipher(s.key[:])
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", ErrInvalidCiphertext
	}

	nonce, cipherData := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, cipherData, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plaintext), nil
}
