package testutil

import (
	"context"
	"sync"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/errors"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/policy"
)

// MemoryPolicyRepository is an in-memory policy.Repository for tests. It
// mirrors the transactional guarantees of the PostgreSQL implementation:
// CreateVersion deprecates the prior active version and activates the new one
// under one lock acquisition.
type MemoryPolicyRepository struct {
	mu       sync.RWMutex
	versions map[string][]*policy.PolicyVersion
	changes  map[string][]*policy.ChangeLogEntry
}

// NewMemoryPolicyRepository creates an empty in-memory repository
func NewMemoryPolicyRepository() *MemoryPolicyRepository {
	return &MemoryPolicyRepository{
		versions: make(map[string][]*policy.PolicyVersion),
		changes:  make(map[string][]*policy.ChangeLogEntry),
	}
}

// GetActive returns the active version for a lineage
func (r *MemoryPolicyRepository) GetActive(ctx context.Context, key policy.Key) (*policy.PolicyVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.versions[key.String()] {
		if v.Status == policy.StatusActive {
			copied := *v
			return &copied, nil
		}
	}

	return nil, errors.NewPolicyNotFoundError(string(key.EventType), string(key.Framework))
}

// CreateVersion deprecates any active version and appends the new one
func (r *MemoryPolicyRepository) CreateVersion(ctx context.Context, version *policy.PolicyVersion, entry *policy.ChangeLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := version.Key().String()

	for _, existing := range r.versions[key] {
		if existing.Version.Equal(version.Version) {
			return errors.NewConflictError("DUPLICATE_POLICY_VERSION",
				"a version with this identity already exists for the lineage")
		}
	}

	for _, existing := range r.versions[key] {
		if existing.Status == policy.StatusActive {
			existing.Deprecate(version.EffectiveDate)
		}
	}

	copied := *version
	r.versions[key] = append(r.versions[key], &copied)
	r.changes[key] = append(r.changes[key], entry)
	return nil
}

// GetHistory returns every version of a lineage, oldest first
func (r *MemoryPolicyRepository) GetHistory(ctx context.Context, key policy.Key) ([]policy.VersionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := r.versions[key.String()]
	records := make([]policy.VersionRecord, 0, len(versions))
	for _, v := range versions {
		records = append(records, policy.VersionRecord{
			Version:        v.Version,
			Status:         v.Status,
			EffectiveDate:  v.EffectiveDate,
			DeprecatedDate: v.DeprecatedDate,
			RuleHash:       v.RuleHash,
		})
	}

	return records, nil
}

// ChangeLog returns the recorded change-log entries for a lineage
func (r *MemoryPolicyRepository) ChangeLog(key policy.Key) []*policy.ChangeLogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.changes[key.String()]
}

// Tamper mutates the stored ciphertext of the active version for a lineage.
// Tests use it to simulate at-rest corruption.
func (r *MemoryPolicyRepository) Tamper(key policy.Key, mutate func([]byte) []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range r.versions[key.String()] {
		if v.Status == policy.StatusActive {
			v.Ciphertext = mutate(v.Ciphertext)
			return true
		}
	}
	return false
}
