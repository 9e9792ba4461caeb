package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/compliance"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/policy"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/telemetry"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/values"
	"github.com/meridianhealth/ai-governance-backend/internal/infrastructure/config"
)

func newTestCache(t *testing.T) (*PolicyCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cache, err := NewPolicyCache(&config.RedisConfig{
		URL:         mr.Addr(),
		DialTimeout: time.Second,
	}, time.Minute, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return cache, mr
}

func activeVersion(t *testing.T) *policy.PolicyVersion {
	t.Helper()

	hash, err := values.ComputeRuleHash([]byte("enc:rules"))
	require.NoError(t, err)

	return &policy.PolicyVersion{
		ID:            uuid.New(),
		EventType:     telemetry.EventTypeDrift,
		Framework:     compliance.FrameworkNISTAIRMF,
		Version:       values.MustNewVersion("1.2.0"),
		Ciphertext:    []byte("enc:rules"),
		RuleHash:      hash,
		Status:        policy.StatusActive,
		EffectiveDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		CreatedBy:     "compliance-admin",
	}
}

func TestPolicyCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	version := activeVersion(t)
	cache.Set(ctx, version)

	got := cache.Get(ctx, version.Key())
	require.NotNil(t, got)
	assert.Equal(t, version.ID, got.ID)
	assert.Equal(t, version.EventType, got.EventType)
	assert.Equal(t, version.Framework, got.Framework)
	assert.True(t, version.Version.Equal(got.Version))
	assert.Equal(t, version.Ciphertext, got.Ciphertext)
	assert.True(t, version.RuleHash.Equal(got.RuleHash))
	assert.Equal(t, policy.StatusActive, got.Status)
}

func TestPolicyCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	got := cache.Get(context.Background(), policy.Key{
		EventType: telemetry.EventTypeBias,
		Framework: compliance.FrameworkFDASaMD,
	})
	assert.Nil(t, got)
}

func TestPolicyCacheSkipsNonActiveVersions(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	version := activeVersion(t)
	version.Status = policy.StatusDeprecated
	cache.Set(ctx, version)

	assert.Nil(t, cache.Get(ctx, version.Key()))
}

func TestPolicyCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	version := activeVersion(t)
	cache.Set(ctx, version)
	require.NotNil(t, cache.Get(ctx, version.Key()))

	cache.Invalidate(ctx, version.Key())
	assert.Nil(t, cache.Get(ctx, version.Key()))
}

func TestPolicyCacheEvictsMalformedRecords(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	key := policy.Key{EventType: telemetry.EventTypeDrift, Framework: compliance.FrameworkNISTAIRMF}
	require.NoError(t, mr.Set(cacheKey(key), "{not json"))

	assert.Nil(t, cache.Get(ctx, key))
	assert.False(t, mr.Exists(cacheKey(key)), "malformed record should be evicted")
}

func TestPolicyCacheDegradesWhenRedisDown(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	version := activeVersion(t)
	cache.Set(ctx, version)

	mr.Close()

	// All operations degrade silently; reads become misses.
	assert.Nil(t, cache.Get(ctx, version.Key()))
	cache.Set(ctx, version)
	cache.Invalidate(ctx, version.Key())
}

func TestPolicyCacheRespectsTTL(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	version := activeVersion(t)
	cache.Set(ctx, version)

	mr.FastForward(2 * time.Minute)
	assert.Nil(t, cache.Get(ctx, version.Key()))
}
