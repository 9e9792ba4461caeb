package testutil

import (
	"bytes"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/errors"
)

var fakeHeader = []byte("enc:")

// FakeEncryptor is a deterministic Encryptor for tests: it prefixes plaintext
// with a marker instead of encrypting. Determinism lets tests assert exact
// ciphertext equality; tampering is detectable because Decrypt rejects
// payloads without the marker.
type FakeEncryptor struct {
	// FailEncrypt forces Encrypt to return an error, for fail-closed tests.
	FailEncrypt bool
}

// NewFakeEncryptor creates a deterministic test encryptor
func NewFakeEncryptor() *FakeEncryptor {
	return &FakeEncryptor{}
}

// Encrypt wraps plaintext with the fake marker
func (e *FakeEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	if e.FailEncrypt {
		return nil, errors.NewEncryptionError("encryption unavailable")
	}
	return append(append([]byte{}, fakeHeader...), plaintext...), nil
}

// Decrypt strips the fake marker
func (e *FakeEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if !bytes.HasPrefix(ciphertext, fakeHeader) {
		return nil, errors.NewEncryptionError("malformed ciphertext")
	}
	return ciphertext[len(fakeHeader):], nil
}
