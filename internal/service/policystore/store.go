// Package policystore implements durable, tamper-evident, versioned storage
// of policy rule logic. Rule content is encrypted at rest with authenticated
// encryption and its SHA-256 digest is verified against the decrypted
// plaintext on every read.
package policystore

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/compliance"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/errors"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/policy"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/telemetry"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/values"
	"github.com/meridianhealth/ai-governance-backend/internal/infrastructure/crypto"
	"github.com/meridianhealth/ai-governance-backend/internal/metrics"
)

// Cache is the optional read-through cache for active-policy ciphertext
// records. Implemented by the Redis policy cache; nil disables caching.
type Cache interface {
	Get(ctx context.Context, key policy.Key) *policy.PolicyVersion
	Set(ctx context.Context, version *policy.PolicyVersion)
	Invalidate(ctx context.Context, key policy.Key)
}

// Store is the policy store service. It is constructed with injected
// dependencies and carries no ambient global state.
type Store struct {
	repo      policy.Repository
	encryptor crypto.Encryptor
	clock     clockwork.Clock
	logger    *zap.Logger
	cache     Cache
	metrics   *metrics.Registry
	validate  *validator.Validate
}

// NewStore creates a policy store service. Cache may be nil.
func NewStore(
	repo policy.Repository,
	encryptor crypto.Encryptor,
	clock clockwork.Clock,
	logger *zap.Logger,
	cache Cache,
	registry *metrics.Registry,
) *Store {
	return &Store{
		repo:      repo,
		encryptor: encryptor,
		clock:     clock,
		logger:    logger,
		cache:     cache,
		metrics:   registry,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// CreatePolicyVersionInput carries the administrative request to supersede
// (or start) a policy lineage.
type CreatePolicyVersionInput struct {
	EventType    telemetry.EventType  `validate:"required"`
	Framework    compliance.Framework `validate:"required"`
	BumpType     values.BumpType      `validate:"required,oneof=major minor patch"`
	RuleLogic    policy.RuleLogic     `validate:"required"`
	CreatedBy    string               `validate:"required"`
	ChangeReason string               `validate:"required"`
}

// CreatePolicyVersion validates, encrypts, and activates a new rule-set
// version, atomically deprecating the prior active version of the lineage.
// Nothing is stored if validation or encryption fails.
func (s *Store) CreatePolicyVersion(ctx context.Context, input CreatePolicyVersionInput) (uuid.UUID, error) {
	if err := s.validate.Struct(input); err != nil {
		return uuid.Nil, errors.NewValidationError("INVALID_POLICY_INPUT",
			"policy version input is incomplete").WithCause(err)
	}

	key := policy.Key{EventType: input.EventType, Framework: input.Framework}
	if err := key.Validate(); err != nil {
		return uuid.Nil, err
	}

	if err := input.RuleLogic.Validate(); err != nil {
		return uuid.Nil, err
	}

	// Determine the next semantic version from the current active one.
	var fromVersion values.Version
	nextVersion := values.InitialVersion()

	current, err := s.repo.GetActive(ctx, key)
	switch {
	case err == nil:
		fromVersion = current.Version
		nextVersion, err = current.Version.Bump(input.BumpType)
		if err != nil {
			return uuid.Nil, err
		}
	case errors.IsPolicyNotFound(err):
		// first version of this lineage starts at 1.0.0
	default:
		return uuid.Nil, err
	}

	plaintext, err := input.RuleLogic.CanonicalJSON()
	if err != nil {
		return uuid.Nil, err
	}

	ruleHash, err := values.ComputeRuleHash(plaintext)
	if err != nil {
		return uuid.Nil, err
	}

	// Fail closed: an encryption failure aborts before any write.
	ciphertext, err := s.encryptor.Encrypt(plaintext)
	if err != nil {
		s.logger.Error("policy encryption failed; nothing stored",
			zap.String("key", key.String()),
			zap.Error(err))
		return uuid.Nil, err
	}

	now := s.clock.Now().UTC()
	version := &policy.PolicyVersion{
		ID:            uuid.New(),
		EventType:     input.EventType,
		Framework:     input.Framework,
		Version:       nextVersion,
		Ciphertext:    ciphertext,
		RuleHash:      ruleHash,
		Status:        policy.StatusActive,
		EffectiveDate: now,
		CreatedBy:     input.CreatedBy,
	}

	entry := &policy.ChangeLogEntry{
		ID:          uuid.New(),
		Key:         key,
		FromVersion: fromVersion,
		ToVersion:   nextVersion,
		Reason:      input.ChangeReason,
		Actor:       input.CreatedBy,
		ChangedAt:   now,
	}

	if err := s.repo.CreateVersion(ctx, version, entry); err != nil {
		return uuid.Nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, key)
	}

	if s.metrics != nil {
		s.metrics.PolicyVersionsCreated.Add(ctx, 1)
	}

	s.logger.Info("policy version created",
		zap.String("key", key.String()),
		zap.String("from_version", fromVersion.String()),
		zap.String("to_version", nextVersion.String()),
		zap.String("created_by", input.CreatedBy),
	)

	return version.ID, nil
}

// GetActivePolicy decrypts the active rule set for a lineage and verifies
// its integrity hash against the decrypted plaintext. A hash mismatch is a
// hard IntegrityError: translation for this lineage must halt rather than
// proceed with possibly tampered rules.
func (s *Store) GetActivePolicy(ctx context.Context, eventType telemetry.EventType, framework compliance.Framework) (*policy.RuleLogic, error) {
	key := policy.Key{EventType: eventType, Framework: framework}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	version, err := s.activeVersion(ctx, key)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.encryptor.Decrypt(version.Ciphertext)
	if err != nil {
		s.logger.Error("policy decryption failed",
			zap.String("key", key.String()),
			zap.String("version", version.Version.String()),
			zap.Error(err))
		return nil, err
	}

	if !version.RuleHash.Matches(plaintext) {
		if s.metrics != nil {
			s.metrics.IntegrityFailures.Add(ctx, 1)
		}
		s.logger.Error("policy integrity verification failed; possible tampering",
			zap.String("key", key.String()),
			zap.String("version", version.Version.String()),
			zap.String("stored_hash", version.RuleHash.String()),
		)
		return nil, errors.NewIntegrityError("POLICY_HASH_MISMATCH",
			"decrypted policy content does not match its stored integrity hash").
			WithDetails(map[string]interface{}{
				"event_type": string(eventType),
				"framework":  string(framework),
				"version":    version.Version.String(),
			})
	}

	return policy.ParseRuleLogic(plaintext)
}

// GetPolicyHistory returns the metadata-only version history of a lineage,
// oldest first. Rule content, encrypted or decrypted, is never exposed here.
func (s *Store) GetPolicyHistory(ctx context.Context, eventType telemetry.EventType, framework compliance.Framework) ([]policy.VersionRecord, error) {
	key := policy.Key{EventType: eventType, Framework: framework}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	return s.repo.GetHistory(ctx, key)
}

// activeVersion fetches the active ciphertext record, cache first
func (s *Store) activeVersion(ctx context.Context, key policy.Key) (*policy.PolicyVersion, error) {
	if s.cache != nil {
		if cached := s.cache.Get(ctx, key); cached != nil {
			if s.metrics != nil {
				s.metrics.PolicyCacheHits.Add(ctx, 1)
			}
			return cached, nil
		}
		if s.metrics != nil {
			s.metrics.PolicyCacheMisses.Add(ctx, 1)
		}
	}

	version, err := s.repo.GetActive(ctx, key)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, version)
	}

	return version, nil
}
