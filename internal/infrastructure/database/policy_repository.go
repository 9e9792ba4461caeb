package database

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/compliance"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/errors"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/policy"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/telemetry"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/values"
)

// PolicyRepository implements policy.Repository over PostgreSQL.
//
// Reads never block on each other; writers are serialized per lineage by
// locking the lineage's active row inside the CreateVersion transaction.
type PolicyRepository struct {
	db *pgxpool.Pool
}

// NewPolicyRepository creates a new PostgreSQL policy repository
func NewPolicyRepository(db *pgxpool.Pool) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// GetActive returns the active version for a lineage
func (r *PolicyRepository) GetActive(ctx context.Context, key policy.Key) (*policy.PolicyVersion, error) {
	query := `
		SELECT id, event_type, framework, version, ciphertext, rule_hash,
		       status, effective_date, deprecated_date, created_by
		FROM policy_versions
		WHERE event_type = $1 AND framework = $2 AND status = 'active'`

	row := r.db.QueryRow(ctx, query, string(key.EventType), string(key.Framework))

	version, err := scanPolicyVersion(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NewPolicyNotFoundError(string(key.EventType), string(key.Framework))
		}
		return nil, errors.NewInternalError("failed to load active policy").WithCause(err)
	}

	return version, nil
}

// CreateVersion deprecates the current active version (if any) and activates
// the given one in a single transaction. A partial unique index on
// (event_type, framework) WHERE status = 'active' backstops the
// one-active-version invariant at the schema level.
func (r *PolicyRepository) CreateVersion(ctx context.Context, version *policy.PolicyVersion, entry *policy.ChangeLogEntry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errors.NewInternalError("failed to begin transaction").WithCause(err)
	}
	defer tx.Rollback(ctx)

	// Lock the lineage's active row so concurrent administrative writes for
	// the same (event_type, framework) pair serialize here.
	deprecateQuery := `
		UPDATE policy_versions
		SET status = 'deprecated', deprecated_date = $3
		WHERE event_type = $1 AND framework = $2 AND status = 'active'`

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, deprecateQuery,
		string(version.EventType), string(version.Framework), now); err != nil {
		return errors.NewInternalError("failed to deprecate prior version").WithCause(err)
	}

	insertQuery := `
		INSERT INTO policy_versions (
			id, event_type, framework, version, ciphertext, rule_hash,
			status, effective_date, deprecated_date, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = tx.Exec(ctx, insertQuery,
		version.ID,
		string(version.EventType),
		string(version.Framework),
		version.Version.String(),
		version.Ciphertext,
		version.RuleHash.String(),
		string(version.Status),
		version.EffectiveDate,
		version.DeprecatedDate,
		version.CreatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == "23505" {
			return errors.NewConflictError("DUPLICATE_POLICY_VERSION",
				"a version with this identity already exists for the lineage")
		}
		return errors.NewInternalError("failed to insert policy version").WithCause(err)
	}

	var fromVersion *string
	if !entry.FromVersion.IsZero() {
		s := entry.FromVersion.String()
		fromVersion = &s
	}

	logQuery := `
		INSERT INTO policy_change_log (
			id, event_type, framework, from_version, to_version,
			reason, actor, changed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = tx.Exec(ctx, logQuery,
		entry.ID,
		string(entry.Key.EventType),
		string(entry.Key.Framework),
		fromVersion,
		entry.ToVersion.String(),
		entry.Reason,
		entry.Actor,
		entry.ChangedAt,
	)
	if err != nil {
		return errors.NewInternalError("failed to record change log entry").WithCause(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.NewInternalError("failed to commit policy version").WithCause(err)
	}

	return nil
}

// GetHistory returns every version of a lineage, oldest first, metadata only
func (r *PolicyRepository) GetHistory(ctx context.Context, key policy.Key) ([]policy.VersionRecord, error) {
	query := `
		SELECT version, status, effective_date, deprecated_date, rule_hash
		FROM policy_versions
		WHERE event_type = $1 AND framework = $2
		ORDER BY effective_date ASC`

	rows, err := r.db.Query(ctx, query, string(key.EventType), string(key.Framework))
	if err != nil {
		return nil, errors.NewInternalError("failed to load policy history").WithCause(err)
	}
	defer rows.Close()

	var records []policy.VersionRecord
	for rows.Next() {
		var (
			versionStr     string
			status         string
			effectiveDate  time.Time
			deprecatedDate *time.Time
			hashStr        string
		)

		if err := rows.Scan(&versionStr, &status, &effectiveDate, &deprecatedDate, &hashStr); err != nil {
			return nil, errors.NewInternalError("failed to scan history row").WithCause(err)
		}

		version, err := values.NewVersion(versionStr)
		if err != nil {
			return nil, errors.NewInternalError("stored version is malformed").WithCause(err)
		}

		hash, err := values.NewRuleHash(hashStr)
		if err != nil {
			return nil, errors.NewInternalError("stored rule hash is malformed").WithCause(err)
		}

		records = append(records, policy.VersionRecord{
			Version:        version,
			Status:         policy.Status(status),
			EffectiveDate:  effectiveDate,
			DeprecatedDate: deprecatedDate,
			RuleHash:       hash,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewInternalError("failed to iterate history rows").WithCause(err)
	}

	return records, nil
}

// rowScanner covers pgx.Row for shared scanning
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicyVersion(row rowScanner) (*policy.PolicyVersion, error) {
	var (
		pv             policy.PolicyVersion
		eventType      string
		framework      string
		versionStr     string
		hashStr        string
		status         string
	)

	err := row.Scan(
		&pv.ID,
		&eventType,
		&framework,
		&versionStr,
		&pv.Ciphertext,
		&hashStr,
		&status,
		&pv.EffectiveDate,
		&pv.DeprecatedDate,
		&pv.CreatedBy,
	)
	if err != nil {
		return nil, err
	}

	pv.EventType = telemetry.EventType(eventType)
	pv.Framework = compliance.Framework(framework)
	pv.Status = policy.Status(status)

	pv.Version, err = values.NewVersion(versionStr)
	if err != nil {
		return nil, err
	}

	pv.RuleHash, err = values.NewRuleHash(hashStr)
	if err != nil {
		return nil, err
	}

	return &pv, nil
}
