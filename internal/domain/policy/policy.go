package policy

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/compliance"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/errors"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/telemetry"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/values"
)

// Key identifies a policy lineage: one versioned rule set exists per
// (eventType, framework) pair.
type Key struct {
	EventType telemetry.EventType  `json:"event_type"`
	Framework compliance.Framework `json:"framework"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.EventType, k.Framework)
}

// Validate checks both components against their closed sets
func (k Key) Validate() error {
	if !k.EventType.IsValid() {
		return errors.NewValidationError("INVALID_EVENT_TYPE",
			"unknown telemetry event type: "+string(k.EventType))
	}
	if !k.Framework.IsValid() {
		return errors.NewValidationError("INVALID_FRAMEWORK",
			"unknown regulatory framework: "+string(k.Framework))
	}
	return nil
}

// RuleEntry maps an event pattern to one control violation with its severity
// and reporting obligation. A nil Threshold matches unconditionally whenever
// the entry's (eventType, framework) lineage was selected for an event.
type RuleEntry struct {
	Framework             compliance.Framework `json:"framework"`
	ControlID             string               `json:"control_id"`
	ControlName           string               `json:"control_name"`
	ViolationType         string               `json:"violation_type"`
	Severity              compliance.Severity  `json:"severity"`
	RequiresReporting     bool                 `json:"requires_reporting"`
	ReportingDeadlineDays *int                 `json:"reporting_deadline_days,omitempty"`
	Threshold             *ThresholdCondition  `json:"threshold,omitempty"`
	RemediationSteps      []string             `json:"remediation_steps"`
}

// Validate enforces the per-entry structural invariants
func (e RuleEntry) Validate() error {
	if !e.Framework.IsValid() {
		return errors.NewValidationError("INVALID_FRAMEWORK",
			"unknown regulatory framework: "+string(e.Framework))
	}
	if e.ControlID == "" {
		return errors.NewValidationError("MISSING_CONTROL_ID",
			"rule entry requires a control id")
	}
	if e.ControlName == "" {
		return errors.NewValidationError("MISSING_CONTROL_NAME",
			"rule entry requires a control name")
	}
	if e.ViolationType == "" {
		return errors.NewValidationError("MISSING_VIOLATION_TYPE",
			"rule entry requires a violation type")
	}
	if !e.Severity.IsValid() {
		return errors.NewValidationError("INVALID_SEVERITY",
			fmt.Sprintf("severity must be one of low, medium, high, critical; got %q", e.Severity))
	}
	if e.RequiresReporting {
		if e.ReportingDeadlineDays == nil {
			return errors.NewValidationError("MISSING_REPORTING_DEADLINE",
				"rule entries that require reporting must carry reporting_deadline_days")
		}
		if *e.ReportingDeadlineDays <= 0 {
			return errors.NewValidationError("INVALID_REPORTING_DEADLINE",
				"reporting_deadline_days must be positive")
		}
	}
	if e.Threshold != nil {
		if err := e.Threshold.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// RuleLogic is the decrypted content of a policy version: the ordered rule
// entries evaluated against matching telemetry events.
type RuleLogic struct {
	Entries []RuleEntry `json:"entries"`
}

// Validate enforces the rule-list invariants: at least one entry, valid
// entries, and control ids unique within the version.
func (l RuleLogic) Validate() error {
	if len(l.Entries) == 0 {
		return errors.NewValidationError("EMPTY_RULE_LOGIC",
			"rule logic must contain at least one entry")
	}

	seen := make(map[string]struct{}, len(l.Entries))
	for i, entry := range l.Entries {
		if err := entry.Validate(); err != nil {
			return errors.NewValidationError("INVALID_RULE_ENTRY",
				fmt.Sprintf("rule entry %d is invalid", i)).WithCause(err)
		}
		if _, dup := seen[entry.ControlID]; dup {
			return errors.NewValidationError("DUPLICATE_CONTROL_ID",
				fmt.Sprintf("control id %q appears more than once", entry.ControlID))
		}
		seen[entry.ControlID] = struct{}{}
	}
	return nil
}

// CanonicalJSON produces the deterministic byte representation that is both
// hashed for integrity and encrypted for storage. encoding/json already
// serializes struct fields in declaration order, so marshaling the typed
// structure is canonical.
func (l RuleLogic) CanonicalJSON() ([]byte, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, errors.NewInternalError("failed to serialize rule logic").WithCause(err)
	}
	return data, nil
}

// ParseRuleLogic decodes and validates decrypted rule content
func ParseRuleLogic(plaintext []byte) (*RuleLogic, error) {
	var logic RuleLogic
	if err := json.Unmarshal(plaintext, &logic); err != nil {
		return nil, errors.NewValidationError("MALFORMED_RULE_LOGIC",
			"rule content is not valid JSON").WithCause(err)
	}
	if err := logic.Validate(); err != nil {
		return nil, err
	}
	return &logic, nil
}

// Status tracks a version's place in its lineage. Versions progress
// active -> deprecated only; there is no resurrection.
type Status string

const (
	StatusActive     Status = "active"
	StatusDeprecated Status = "deprecated"
)

// PolicyVersion is an encrypted, versioned rule set. The plaintext never
// leaves the policy store; history views expose metadata only.
type PolicyVersion struct {
	ID             uuid.UUID            `json:"id"`
	EventType      telemetry.EventType  `json:"event_type"`
	Framework      compliance.Framework `json:"framework"`
	Version        values.Version       `json:"version"`
	Ciphertext     []byte               `json:"-"`
	RuleHash       values.RuleHash      `json:"rule_hash"`
	Status         Status               `json:"status"`
	EffectiveDate  time.Time            `json:"effective_date"`
	DeprecatedDate *time.Time           `json:"deprecated_date,omitempty"`
	CreatedBy      string               `json:"created_by"`
}

// Key returns the lineage key of this version
func (p *PolicyVersion) Key() Key {
	return Key{EventType: p.EventType, Framework: p.Framework}
}

// Deprecate transitions the version out of active status. Deprecated is
// terminal: a deprecated version is retained for audit but never reactivated.
func (p *PolicyVersion) Deprecate(at time.Time) error {
	if p.Status != StatusActive {
		return errors.NewBusinessError("NOT_ACTIVE",
			"only the active version can be deprecated")
	}

	p.Status = StatusDeprecated
	deprecatedAt := at.UTC()
	p.DeprecatedDate = &deprecatedAt
	return nil
}
