package values

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuleHash(t *testing.T) {
	validHash := hashOf(t, []byte("rule content"))

	tests := []struct {
		name    string
		hash    string
		wantErr bool
		errCode string
	}{
		{
			name: "valid hash",
			hash: validHash,
		},
		{
			name: "valid hash uppercase",
			hash: strings.ToUpper(validHash),
		},
		{
			name: "valid hash with whitespace",
			hash: "  " + validHash + "  ",
		},
		{
			name:    "empty hash",
			hash:    "",
			wantErr: true,
			errCode: "EMPTY_HASH",
		},
		{
			name:    "too short",
			hash:    validHash[:63],
			wantErr: true,
			errCode: "INVALID_HASH_FORMAT",
		},
		{
			name:    "too long",
			hash:    validHash + "a",
			wantErr: true,
			errCode: "INVALID_HASH_FORMAT",
		},
		{
			name:    "non-hex characters",
			hash:    strings.Repeat("z", 64),
			wantErr: true,
			errCode: "INVALID_HASH_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewRuleHash(tt.hash)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errCode)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, strings.ToLower(strings.TrimSpace(tt.hash)), h.String())
			assert.False(t, h.IsEmpty())
		})
	}
}

func TestComputeRuleHash(t *testing.T) {
	t.Run("matches sha256 of content", func(t *testing.T) {
		content := []byte(`{"entries":[]}`)
		h, err := ComputeRuleHash(content)
		require.NoError(t, err)
		assert.Equal(t, hashOf(t, content), h.String())
	})

	t.Run("empty content rejected", func(t *testing.T) {
		_, err := ComputeRuleHash(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "EMPTY_RULE_CONTENT")
	})

	t.Run("deterministic", func(t *testing.T) {
		content := []byte("same bytes")
		first, err := ComputeRuleHash(content)
		require.NoError(t, err)
		second, err := ComputeRuleHash(content)
		require.NoError(t, err)
		assert.True(t, first.Equal(second))
	})
}

func TestRuleHashMatches(t *testing.T) {
	content := []byte("original rule content")
	h, err := ComputeRuleHash(content)
	require.NoError(t, err)

	assert.True(t, h.Matches(content))
	assert.False(t, h.Matches([]byte("tampered rule content")))
	assert.False(t, h.Matches(nil))
}

func TestRuleHashTextMarshaling(t *testing.T) {
	original, err := ComputeRuleHash([]byte("content"))
	require.NoError(t, err)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded RuleHash
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equal(decoded))

	var invalid RuleHash
	err = json.Unmarshal([]byte(`"not-a-hash"`), &invalid)
	require.Error(t, err)
}

func hashOf(t *testing.T, content []byte) string {
	t.Helper()
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
