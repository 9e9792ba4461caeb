package cache

import (
	"context"
	stderrors "errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/compliance"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/policy"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/telemetry"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/values"
	"github.com/meridianhealth/ai-governance-backend/internal/infrastructure/config"
)

// PolicyCache keeps the active policy version for hot lineages in Redis so
// concurrent translations do not all hit the database. Only the ciphertext
// record is cached: integrity verification still happens on every read,
// cache hit or not, and plaintext rules never enter the cache.
type PolicyCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// cachedVersion is the wire form of a cached policy version. Ciphertext is
// base64 via encoding/json's []byte handling.
type cachedVersion struct {
	ID             uuid.UUID  `json:"id"`
	EventType      string     `json:"event_type"`
	Framework      string     `json:"framework"`
	Version        string     `json:"version"`
	Ciphertext     []byte     `json:"ciphertext"`
	RuleHash       string     `json:"rule_hash"`
	EffectiveDate  time.Time  `json:"effective_date"`
	DeprecatedDate *time.Time `json:"deprecated_date,omitempty"`
	CreatedBy      string     `json:"created_by"`
}

// NewPolicyCache creates a Redis-backed policy cache
func NewPolicyCache(cfg *config.RedisConfig, ttl time.Duration, logger *zap.Logger) (*PolicyCache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.URL,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("policy cache initialized",
		zap.String("addr", cfg.URL),
		zap.Duration("ttl", ttl))

	return &PolicyCache{client: client, ttl: ttl, logger: logger}, nil
}

// Get returns the cached active version for a lineage, or nil on a miss.
// Cache failures degrade to a miss: the caller falls back to the database.
func (c *PolicyCache) Get(ctx context.Context, key policy.Key) *policy.PolicyVersion {
	raw, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			c.logger.Warn("policy cache read failed",
				zap.String("key", key.String()), zap.Error(err))
		}
		return nil
	}

	var cached cachedVersion
	if err := json.Unmarshal(raw, &cached); err != nil {
		c.logger.Warn("cached policy record is malformed; evicting",
			zap.String("key", key.String()), zap.Error(err))
		_ = c.client.Del(ctx, cacheKey(key)).Err()
		return nil
	}

	version, err := values.NewVersion(cached.Version)
	if err != nil {
		return nil
	}

	hash, err := values.NewRuleHash(cached.RuleHash)
	if err != nil {
		return nil
	}

	return &policy.PolicyVersion{
		ID:             cached.ID,
		EventType:      telemetry.EventType(cached.EventType),
		Framework:      compliance.Framework(cached.Framework),
		Version:        version,
		Ciphertext:     cached.Ciphertext,
		RuleHash:       hash,
		Status:         policy.StatusActive,
		EffectiveDate:  cached.EffectiveDate,
		DeprecatedDate: cached.DeprecatedDate,
		CreatedBy:      cached.CreatedBy,
	}
}

// Set stores an active version under its lineage key
func (c *PolicyCache) Set(ctx context.Context, version *policy.PolicyVersion) {
	if version == nil || version.Status != policy.StatusActive {
		return
	}

	cached := cachedVersion{
		ID:             version.ID,
		EventType:      string(version.EventType),
		Framework:      string(version.Framework),
		Version:        version.Version.String(),
		Ciphertext:     version.Ciphertext,
		RuleHash:       version.RuleHash.String(),
		EffectiveDate:  version.EffectiveDate,
		DeprecatedDate: version.DeprecatedDate,
		CreatedBy:      version.CreatedBy,
	}

	raw, err := json.Marshal(cached)
	if err != nil {
		c.logger.Warn("failed to marshal policy record for cache", zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, cacheKey(version.Key()), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("policy cache write failed",
			zap.String("key", version.Key().String()), zap.Error(err))
	}
}

// Invalidate evicts a lineage's cached record. Called after every
// CreateVersion so stale actives are bounded by a write, not only the TTL.
func (c *PolicyCache) Invalidate(ctx context.Context, key policy.Key) {
	if err := c.client.Del(ctx, cacheKey(key)).Err(); err != nil {
		c.logger.Warn("policy cache invalidation failed",
			zap.String("key", key.String()), zap.Error(err))
	}
}

// Close releases the Redis client
func (c *PolicyCache) Close() error {
	return c.client.Close()
}

func cacheKey(key policy.Key) string {
	return fmt.Sprintf("policy:active:%s:%s", key.EventType, key.Framework)
}
