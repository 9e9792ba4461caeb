package policy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/values"
)

// VersionRecord is the audit-safe view of one version in a lineage's history.
// It never carries rule content, encrypted or otherwise.
type VersionRecord struct {
	Version        values.Version  `json:"version"`
	Status         Status          `json:"status"`
	EffectiveDate  time.Time       `json:"effective_date"`
	DeprecatedDate *time.Time      `json:"deprecated_date,omitempty"`
	RuleHash       values.RuleHash `json:"rule_hash"`
}

// ChangeLogEntry records one administrative change to a policy lineage
type ChangeLogEntry struct {
	ID          uuid.UUID      `json:"id"`
	Key         Key            `json:"key"`
	FromVersion values.Version `json:"from_version"` // zero for the first version
	ToVersion   values.Version `json:"to_version"`
	Reason      string         `json:"reason"`
	Actor       string         `json:"actor"`
	ChangedAt   time.Time      `json:"changed_at"`
}

// Repository is the persistence contract for versioned policy lineages.
//
// Reads must be safe under concurrent access by many simultaneous
// translations. Writes are rare and serialized per lineage by the
// implementation; CreateVersion commits the prior version's deprecation and
// the new version's activation in one atomic transaction so there is never a
// window with zero or two active versions.
type Repository interface {
	// GetActive returns the active version for a lineage, or a
	// POLICY_NOT_FOUND error when the lineage has no active version.
	GetActive(ctx context.Context, key Key) (*PolicyVersion, error)

	// CreateVersion atomically deprecates the current active version (if
	// any) and activates the given one, recording the change-log entry in
	// the same transaction.
	CreateVersion(ctx context.Context, version *PolicyVersion, entry *ChangeLogEntry) error

	// GetHistory returns all versions of a lineage ordered oldest first,
	// as metadata-only records.
	GetHistory(ctx context.Context, key Key) ([]VersionRecord, error)
}
