package compliance

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/errors"
)

// Framework identifies a regulatory or standards body whose controls are
// tracked against deployed AI systems.
type Framework string

const (
	FrameworkHIPAA       Framework = "HIPAA"
	FrameworkNISTAIRMF   Framework = "NIST_AI_RMF"
	FrameworkFDASaMD     Framework = "FDA_SAMD"
	FrameworkISO27001    Framework = "ISO_27001"
	FrameworkStateAILaws Framework = "STATE_AI_LAWS"
)

// IsValid checks the framework against the closed set
func (f Framework) IsValid() bool {
	switch f {
	case FrameworkHIPAA, FrameworkNISTAIRMF, FrameworkFDASaMD,
		FrameworkISO27001, FrameworkStateAILaws:
		return true
	default:
		return false
	}
}

func (f Framework) String() string {
	return string(f)
}

// Severity is the closed four-level scale shared by rules and violations.
// Presentation mapping (colors, labels) lives entirely outside the core.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid checks the severity against the closed set
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

func (s Severity) String() string {
	return string(s)
}

// Rank orders severities for comparison; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Violation is a derived finding that a specific control was breached.
// Severity and reporting fields are a snapshot of the matched rule at
// evaluation time: a later policy version never retroactively alters a
// recorded violation.
type Violation struct {
	ID                uuid.UUID  `json:"id"`
	TelemetryEventID  uuid.UUID  `json:"telemetry_event_id"`
	AISystemID        uuid.UUID  `json:"ai_system_id"`
	Framework         Framework  `json:"framework"`
	ControlID         string     `json:"control_id"`
	ControlName       string     `json:"control_name"`
	ViolationType     string     `json:"violation_type"`
	Severity          Severity   `json:"severity"`
	RequiresReporting bool       `json:"requires_reporting"`
	ReportingDeadline *time.Time `json:"reporting_deadline,omitempty"`
	Description       string     `json:"description"`
	Resolved          bool       `json:"resolved"`
	ResolvedBy        *uuid.UUID `json:"resolved_by,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Resolve marks the violation resolved. Resolution is the only permitted
// mutation after derivation.
func (v *Violation) Resolve(by uuid.UUID, at time.Time) error {
	if v.Resolved {
		return errors.NewBusinessError("ALREADY_RESOLVED",
			"violation is already resolved")
	}

	v.Resolved = true
	v.ResolvedBy = &by
	resolvedAt := at.UTC()
	v.ResolvedAt = &resolvedAt
	return nil
}

// ActionType categorizes remediation tasks
type ActionType string

const (
	ActionTypeQuarantineSystem ActionType = "quarantine_system"
	ActionTypeSuspendEndpoint  ActionType = "suspend_endpoint"
	ActionTypeHumanReview      ActionType = "human_review"
	ActionTypeRemediation      ActionType = "remediation"
	ActionTypeRegulatoryReport ActionType = "regulatory_report"
	ActionTypeDocumentation    ActionType = "documentation"
)

func (t ActionType) String() string {
	return string(t)
}

// Priority orders remediation work
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) String() string {
	return string(p)
}

// ActionStatus tracks execution progress. Transitions are owned by the
// action-execution collaborator, not this engine.
type ActionStatus string

const (
	ActionStatusPending    ActionStatus = "pending"
	ActionStatusInProgress ActionStatus = "in_progress"
	ActionStatusCompleted  ActionStatus = "completed"
	ActionStatusFailed     ActionStatus = "failed"
)

// RequiredAction is a remediation task owned by exactly one violation.
// Assignee is nil when the action is automated.
type RequiredAction struct {
	ID          uuid.UUID     `json:"id"`
	ViolationID uuid.UUID     `json:"violation_id"`
	AISystemID  uuid.UUID     `json:"ai_system_id"`
	ActionType  ActionType    `json:"action_type"`
	Priority    Priority      `json:"priority"`
	Description string        `json:"description"`
	Assignee    *string       `json:"assignee,omitempty"`
	Deadline    *time.Time    `json:"deadline,omitempty"`
	Automated   bool          `json:"automated"`
	Details     ActionDetails `json:"details"`
	Status      ActionStatus  `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// TranslatedEvent is the engine's structured output for one telemetry event:
// the derived violations in deterministic order and each violation's actions
// keyed by violation identity. The map is scoped to this single call; it must
// never be merged with mappings from other calls.
type TranslatedEvent struct {
	EventID            uuid.UUID
	Violations         []*Violation
	ActionsByViolation map[uuid.UUID][]*RequiredAction
}

// NewTranslatedEvent creates an empty result for the given event
func NewTranslatedEvent(eventID uuid.UUID) *TranslatedEvent {
	return &TranslatedEvent{
		EventID:            eventID,
		Violations:         []*Violation{},
		ActionsByViolation: make(map[uuid.UUID][]*RequiredAction),
	}
}

// Add appends a violation and its owned actions. Every action must already
// carry the violation's id; cross-violation leakage is rejected here rather
// than silently repaired.
func (t *TranslatedEvent) Add(violation *Violation, actions []*RequiredAction) error {
	if violation == nil {
		return errors.NewValidationError("NIL_VIOLATION", "violation cannot be nil")
	}

	if _, exists := t.ActionsByViolation[violation.ID]; exists {
		return errors.NewConflictError("DUPLICATE_VIOLATION",
			"violation already present in translated event")
	}

	for _, action := range actions {
		if action.ViolationID != violation.ID {
			return errors.NewValidationError("ACTION_OWNERSHIP",
				"action is not owned by the violation it was added under")
		}
	}

	t.Violations = append(t.Violations, violation)
	t.ActionsByViolation[violation.ID] = actions
	return nil
}

// ActionsFor returns the actions owned by a violation
func (t *TranslatedEvent) ActionsFor(violationID uuid.UUID) []*RequiredAction {
	return t.ActionsByViolation[violationID]
}

// TotalActions counts actions across all violations
func (t *TranslatedEvent) TotalActions() int {
	n := 0
	for _, actions := range t.ActionsByViolation {
		n += len(actions)
	}
	return n
}
