package compliance

import (
	"encoding/json"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/errors"
)

// DetailKind discriminates the typed action-detail payloads
type DetailKind string

const (
	DetailKindQuarantine DetailKind = "quarantine"
	DetailKindReport     DetailKind = "report"
	DetailKindReview     DetailKind = "review"
	DetailKindOpaque     DetailKind = "opaque"
)

// ActionDetails is a tagged union of the known action-detail shapes. Exactly
// one typed payload is set for known kinds; unknown or forward-compatible
// payloads ride in Raw with a schema version instead of an untyped map.
type ActionDetails struct {
	Kind          DetailKind         `json:"kind"`
	Quarantine    *QuarantineDetails `json:"quarantine,omitempty"`
	Report        *ReportDetails     `json:"report,omitempty"`
	Review        *ReviewDetails     `json:"review,omitempty"`
	Raw           json.RawMessage    `json:"raw,omitempty"`
	SchemaVersion int                `json:"schema_version,omitempty"`
}

// QuarantineDetails parameterizes automated containment of an AI system
type QuarantineDetails struct {
	SystemID string `json:"system_id"`
	Scope    string `json:"scope"` // "system" or "endpoint"
	Reason   string `json:"reason"`
}

// ReportDetails parameterizes a regulatory reporting obligation
type ReportDetails struct {
	Framework    Framework `json:"framework"`
	ControlID    string    `json:"control_id"`
	DeadlineDays int       `json:"deadline_days"`
}

// ReviewDetails parameterizes a human review task
type ReviewDetails struct {
	Framework Framework `json:"framework"`
	ControlID string    `json:"control_id"`
	Guidance  string    `json:"guidance,omitempty"`
}

// NewQuarantineDetails builds quarantine details
func NewQuarantineDetails(systemID, scope, reason string) ActionDetails {
	return ActionDetails{
		Kind: DetailKindQuarantine,
		Quarantine: &QuarantineDetails{
			SystemID: systemID,
			Scope:    scope,
			Reason:   reason,
		},
	}
}

// NewReportDetails builds regulatory-report details
func NewReportDetails(framework Framework, controlID string, deadlineDays int) ActionDetails {
	return ActionDetails{
		Kind: DetailKindReport,
		Report: &ReportDetails{
			Framework:    framework,
			ControlID:    controlID,
			DeadlineDays: deadlineDays,
		},
	}
}

// NewReviewDetails builds human-review details
func NewReviewDetails(framework Framework, controlID, guidance string) ActionDetails {
	return ActionDetails{
		Kind: DetailKindReview,
		Review: &ReviewDetails{
			Framework: framework,
			ControlID: controlID,
			Guidance:  guidance,
		},
	}
}

// NewOpaqueDetails wraps an unrecognized payload for forward compatibility
func NewOpaqueDetails(raw json.RawMessage, schemaVersion int) ActionDetails {
	return ActionDetails{
		Kind:          DetailKindOpaque,
		Raw:           raw,
		SchemaVersion: schemaVersion,
	}
}

// Validate checks that the union carries exactly the payload its kind names
func (d ActionDetails) Validate() error {
	switch d.Kind {
	case DetailKindQuarantine:
		if d.Quarantine == nil {
			return errors.NewValidationError("MISSING_DETAIL_PAYLOAD",
				"quarantine details require a quarantine payload")
		}
	case DetailKindReport:
		if d.Report == nil {
			return errors.NewValidationError("MISSING_DETAIL_PAYLOAD",
				"report details require a report payload")
		}
	case DetailKindReview:
		if d.Review == nil {
			return errors.NewValidationError("MISSING_DETAIL_PAYLOAD",
				"review details require a review payload")
		}
	case DetailKindOpaque:
		if len(d.Raw) == 0 {
			return errors.NewValidationError("MISSING_DETAIL_PAYLOAD",
				"opaque details require a raw payload")
		}
	default:
		return errors.NewValidationError("UNKNOWN_DETAIL_KIND",
			"unrecognized action detail kind: "+string(d.Kind))
	}
	return nil
}
