package translation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/compliance"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/policy"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/telemetry"
)

// Deadline windows per severity. Low-severity work is best effort and gets
// no hard deadline.
const (
	criticalWindow = 4 * time.Hour
	highWindow     = 24 * time.Hour
	mediumWindow   = 7 * 24 * time.Hour
)

// DefaultAssignee receives human remediation work when no routing rule says
// otherwise. Assignment refinement happens downstream.
const DefaultAssignee = "compliance-officer"

// PlannerConfig controls action generation
type PlannerConfig struct {
	// AutomationHooks names the action types for which an automation
	// integration exists. Critical violations get an automated containment
	// action only when its hook is registered.
	AutomationHooks map[compliance.ActionType]bool
	DefaultAssignee string
}

// DefaultPlannerConfig registers the containment hooks the platform ships with
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		AutomationHooks: map[compliance.ActionType]bool{
			compliance.ActionTypeQuarantineSystem: true,
			compliance.ActionTypeSuspendEndpoint:  true,
		},
		DefaultAssignee: DefaultAssignee,
	}
}

// Planner generates the remediation actions required for each violation.
// It produces the plan only; execution belongs to the action-execution
// collaborator. Every action is tagged with exactly the violation it belongs
// to: actions are never pooled across violations, even when two violations
// from the same event share remediation step text.
type Planner struct {
	config PlannerConfig
}

// NewPlanner creates an action planner
func NewPlanner(config PlannerConfig) *Planner {
	if config.DefaultAssignee == "" {
		config.DefaultAssignee = DefaultAssignee
	}
	return &Planner{config: config}
}

// Plan builds the action list owned by one violation. Deadlines anchor to
// the event's processing time, matching the violation's reporting deadline
// arithmetic.
func (p *Planner) Plan(event *telemetry.Event, violation *compliance.Violation, entry policy.RuleEntry) []*compliance.RequiredAction {
	base := event.ProcessedAt
	var actions []*compliance.RequiredAction

	// Critical violations are contained automatically when a hook exists,
	// and always get an urgent human review inside the reporting window.
	if violation.Severity == compliance.SeverityCritical {
		if p.config.AutomationHooks[compliance.ActionTypeQuarantineSystem] {
			actions = append(actions, &compliance.RequiredAction{
				ID:          uuid.New(),
				ViolationID: violation.ID,
				AISystemID:  violation.AISystemID,
				ActionType:  compliance.ActionTypeQuarantineSystem,
				Priority:    compliance.PriorityUrgent,
				Description: fmt.Sprintf("Automatically quarantine AI system pending review of %s control %s", violation.Framework, violation.ControlID),
				Automated:   true,
				Details: compliance.NewQuarantineDetails(
					violation.AISystemID.String(), "system", violation.ViolationType),
				Status:    compliance.ActionStatusPending,
				CreatedAt: base,
			})
		}

		reviewDeadline := earliestDeadline(base.Add(criticalWindow), violation.ReportingDeadline)
		actions = append(actions, p.humanAction(violation, base,
			compliance.ActionTypeHumanReview,
			compliance.PriorityUrgent,
			fmt.Sprintf("Urgent review of critical %s violation of control %s", violation.Framework, violation.ControlID),
			&reviewDeadline,
			compliance.NewReviewDetails(violation.Framework, violation.ControlID,
				"Critical finding: verify containment and assess patient impact"),
		))
	}

	// One human action per remediation step, scaled by severity.
	priority, window := severityPlan(violation.Severity)
	for _, step := range entry.RemediationSteps {
		var deadline *time.Time
		if window > 0 {
			d := base.Add(window)
			deadline = &d
		}

		actions = append(actions, p.humanAction(violation, base,
			compliance.ActionTypeRemediation,
			priority,
			step,
			deadline,
			compliance.NewReviewDetails(violation.Framework, violation.ControlID, step),
		))
	}

	// Reporting obligations become an explicit action with the regulatory
	// deadline attached.
	if violation.RequiresReporting && violation.ReportingDeadline != nil {
		reportPriority := compliance.PriorityHigh
		if violation.Severity == compliance.SeverityCritical {
			reportPriority = compliance.PriorityUrgent
		}

		deadlineDays := 0
		if entry.ReportingDeadlineDays != nil {
			deadlineDays = *entry.ReportingDeadlineDays
		}

		actions = append(actions, p.humanAction(violation, base,
			compliance.ActionTypeRegulatoryReport,
			reportPriority,
			fmt.Sprintf("File %s report for control %s before the regulatory deadline", violation.Framework, violation.ControlID),
			violation.ReportingDeadline,
			compliance.NewReportDetails(violation.Framework, violation.ControlID, deadlineDays),
		))
	}

	return actions
}

func (p *Planner) humanAction(
	violation *compliance.Violation,
	createdAt time.Time,
	actionType compliance.ActionType,
	priority compliance.Priority,
	description string,
	deadline *time.Time,
	details compliance.ActionDetails,
) *compliance.RequiredAction {
	assignee := p.config.DefaultAssignee
	return &compliance.RequiredAction{
		ID:          uuid.New(),
		ViolationID: violation.ID,
		AISystemID:  violation.AISystemID,
		ActionType:  actionType,
		Priority:    priority,
		Description: description,
		Assignee:    &assignee,
		Deadline:    deadline,
		Automated:   false,
		Details:     details,
		Status:      compliance.ActionStatusPending,
		CreatedAt:   createdAt,
	}
}

// severityPlan maps severity to remediation priority and deadline window
func severityPlan(severity compliance.Severity) (compliance.Priority, time.Duration) {
	switch severity {
	case compliance.SeverityCritical:
		return compliance.PriorityUrgent, criticalWindow
	case compliance.SeverityHigh:
		return compliance.PriorityHigh, highWindow
	case compliance.SeverityMedium:
		return compliance.PriorityMedium, mediumWindow
	default:
		return compliance.PriorityLow, 0
	}
}

func earliestDeadline(candidate time.Time, reporting *time.Time) time.Time {
	if reporting != nil && reporting.Before(candidate) {
		return *reporting
	}
	return candidate
}
