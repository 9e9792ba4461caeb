package values

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/errors"
)

// RuleHash represents the SHA-256 integrity digest of a rule set's plaintext.
// The digest is computed before encryption and verified against the decrypted
// content on every read; a mismatch means the stored policy was tampered with.
type RuleHash struct {
	hash string // hex-encoded SHA-256 (64 characters)
}

// SHA-256 hex: exactly 64 hex characters
var sha256HexRegex = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)

// NewRuleHash creates a RuleHash value object with validation
func NewRuleHash(hash string) (RuleHash, error) {
	if hash == "" {
		return RuleHash{}, errors.NewValidationError("EMPTY_HASH",
			"rule hash cannot be empty")
	}

	normalized := strings.ToLower(strings.TrimSpace(hash))

	if !sha256HexRegex.MatchString(normalized) {
		return RuleHash{}, errors.NewValidationError("INVALID_HASH_FORMAT",
			"rule hash must be a 64-character hexadecimal string (SHA-256)")
	}

	return RuleHash{hash: normalized}, nil
}

// ComputeRuleHash computes the SHA-256 digest of plaintext rule content
func ComputeRuleHash(plaintext []byte) (RuleHash, error) {
	if len(plaintext) == 0 {
		return RuleHash{}, errors.NewValidationError("EMPTY_RULE_CONTENT",
			"rule content to hash cannot be empty")
	}

	sum := sha256.Sum256(plaintext)
	return RuleHash{hash: hex.EncodeToString(sum[:])}, nil
}

// MustNewRuleHash creates a RuleHash and panics on error (for tests)
func MustNewRuleHash(hash string) RuleHash {
	h, err := NewRuleHash(hash)
	if err != nil {
		panic(err)
	}
	return h
}

// String returns the hex-encoded digest
func (h RuleHash) String() string {
	return h.hash
}

// Bytes returns the raw digest bytes
func (h RuleHash) Bytes() ([]byte, error) {
	return hex.DecodeString(h.hash)
}

// IsEmpty checks if the hash is unset
func (h RuleHash) IsEmpty() bool {
	return h.hash == ""
}

// Equal checks if two RuleHash objects carry the same digest
func (h RuleHash) Equal(other RuleHash) bool {
	return h.hash == other.hash
}

// Matches recomputes the digest of plaintext and compares it to this hash.
func (h RuleHash) Matches(plaintext []byte) bool {
	computed, err := ComputeRuleHash(plaintext)
	if err != nil {
		return false
	}
	return h.Equal(computed)
}

// MarshalText implements encoding.TextMarshaler
func (h RuleHash) MarshalText() ([]byte, error) {
	return []byte(h.hash), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (h *RuleHash) UnmarshalText(text []byte) error {
	parsed, err := NewRuleHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
