package database

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/compliance"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/errors"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/telemetry"
)

// TranslationRepository persists the outputs of the translation engine. All
// violations and actions derived from one telemetry event are committed in a
// single transaction so a violation can never be stored without its actions.
type TranslationRepository struct {
	db *pgxpool.Pool
}

// NewTranslationRepository creates a new PostgreSQL translation repository
func NewTranslationRepository(db *pgxpool.Pool) *TranslationRepository {
	return &TranslationRepository{db: db}
}

// StoreEvent retains a normalized telemetry event for audit. Events are
// immutable; re-storing the same id is a conflict.
func (r *TranslationRepository) StoreEvent(ctx context.Context, event *telemetry.Event) error {
	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return errors.NewInternalError("failed to marshal event payload").WithCause(err)
	}

	query := `
		INSERT INTO telemetry_events (
			id, ai_system_id, event_type, source, severity,
			metric, metric_value, threshold, payload, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.Exec(ctx, query,
		event.ID,
		event.AISystemID,
		string(event.EventType),
		event.Source,
		event.Severity,
		event.Metric,
		event.MetricValue,
		event.Threshold,
		payloadJSON,
		event.ProcessedAt,
	)
	if err != nil {
		return errors.NewInternalError("failed to store telemetry event").WithCause(err)
	}

	return nil
}

// StoreTranslation persists every violation of a translated event together
// with its owned actions, atomically per event.
func (r *TranslationRepository) StoreTranslation(ctx context.Context, translated *compliance.TranslatedEvent) error {
	if translated == nil || len(translated.Violations) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errors.NewInternalError("failed to begin transaction").WithCause(err)
	}
	defer tx.Rollback(ctx)

	violationQuery := `
		INSERT INTO compliance_violations (
			id, telemetry_event_id, ai_system_id, framework, control_id,
			control_name, violation_type, severity, requires_reporting,
			reporting_deadline, description, resolved, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	actionQuery := `
		INSERT INTO required_actions (
			id, violation_id, ai_system_id, action_type, priority,
			description, assignee, deadline, automated, details, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for _, violation := range translated.Violations {
		_, err := tx.Exec(ctx, violationQuery,
			violation.ID,
			violation.TelemetryEventID,
			violation.AISystemID,
			string(violation.Framework),
			violation.ControlID,
			violation.ControlName,
			violation.ViolationType,
			string(violation.Severity),
			violation.RequiresReporting,
			violation.ReportingDeadline,
			violation.Description,
			violation.Resolved,
			violation.CreatedAt,
		)
		if err != nil {
			return errors.NewInternalError("failed to store violation").WithCause(err)
		}

		for _, action := range translated.ActionsFor(violation.ID) {
			detailsJSON, err := json.Marshal(action.Details)
			if err != nil {
				return errors.NewInternalError("failed to marshal action details").WithCause(err)
			}

			_, err = tx.Exec(ctx, actionQuery,
				action.ID,
				action.ViolationID,
				action.AISystemID,
				string(action.ActionType),
				string(action.Priority),
				action.Description,
				action.Assignee,
				action.Deadline,
				action.Automated,
				detailsJSON,
				string(action.Status),
				action.CreatedAt,
			)
			if err != nil {
				return errors.NewInternalError("failed to store required action").WithCause(err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.NewInternalError("failed to commit translation").WithCause(err)
	}

	return nil
}

// MarkResolved flips a violation's resolved flag via the resolution workflow
func (r *TranslationRepository) MarkResolved(ctx context.Context, violation *compliance.Violation) error {
	query := `
		UPDATE compliance_violations
		SET resolved = true, resolved_by = $2, resolved_at = $3
		WHERE id = $1 AND resolved = false`

	tag, err := r.db.Exec(ctx, query, violation.ID, violation.ResolvedBy, violation.ResolvedAt)
	if err != nil {
		return errors.NewInternalError("failed to resolve violation").WithCause(err)
	}

	if tag.RowsAffected() == 0 {
		return errors.NewNotFoundError("unresolved violation")
	}

	return nil
}
