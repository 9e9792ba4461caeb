// Package crypto provides the authenticated-encryption capability the policy
// store depends on. Implementations are injected so the store's logic stays
// testable without exercising real cryptography.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/errors"
)

// Encryptor seals and opens policy rule content. Encryption must be
// authenticated: tampering with ciphertext is detected at decrypt time.
type Encryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// AESGCMEncryptor implements Encryptor with AES-256-GCM and a random
// per-message nonce prepended to the ciphertext.
type AESGCMEncryptor struct {
	aead cipher.AEAD
}

// NewAESGCMEncryptor creates an encryptor from a 32-byte key
func NewAESGCMEncryptor(key []byte) (*AESGCMEncryptor, error) {
	if len(key) != 32 {
		return nil, errors.NewEncryptionError("encryption key must be 32 bytes (AES-256)")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.NewEncryptionError("failed to initialize cipher").WithCause(err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.NewEncryptionError("failed to initialize GCM").WithCause(err)
	}

	return &AESGCMEncryptor{aead: aead}, nil
}

// NewAESGCMEncryptorFromBase64 creates an encryptor from a base64-encoded
// key, the form the key takes in configuration.
func NewAESGCMEncryptorFromBase64(encodedKey string) (*AESGCMEncryptor, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, errors.NewEncryptionError("encryption key is not valid base64").WithCause(err)
	}
	return NewAESGCMEncryptor(key)
}

// GenerateKey produces a random 32-byte key
func GenerateKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, errors.NewEncryptionError("failed to generate key").WithCause(err)
	}
	return key, nil
}

// Encrypt seals plaintext; the returned bytes are nonce || ciphertext
func (e *AESGCMEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, errors.NewEncryptionError("plaintext cannot be empty")
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.NewEncryptionError("failed to generate nonce").WithCause(err)
	}

	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens nonce || ciphertext. Authentication failure (a tampered or
// corrupt message) surfaces as an encryption error.
func (e *AESGCMEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	nonceSize := e.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.NewEncryptionError("ciphertext is too short")
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errors.NewEncryptionError("failed to authenticate ciphertext").WithCause(err)
	}

	return plaintext, nil
}
