package fixtures

import (
	"testing"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/compliance"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/policy"
)

// RuleEntryBuilder builds test rule entries
type RuleEntryBuilder struct {
	t     *testing.T
	entry policy.RuleEntry
}

// NewRuleEntryBuilder creates a builder defaulting to a NIST drift control
func NewRuleEntryBuilder(t *testing.T) *RuleEntryBuilder {
	t.Helper()
	return &RuleEntryBuilder{
		t: t,
		entry: policy.RuleEntry{
			Framework:     compliance.FrameworkNISTAIRMF,
			ControlID:     "MEASURE-2.4",
			ControlName:   "Model Drift Monitoring",
			ViolationType: "drift_threshold_exceeded",
			Severity:      compliance.SeverityMedium,
			RemediationSteps: []string{
				"Review drift metrics against the deployment baseline",
			},
		},
	}
}

// WithFramework sets the framework
func (b *RuleEntryBuilder) WithFramework(framework compliance.Framework) *RuleEntryBuilder {
	b.entry.Framework = framework
	return b
}

// WithControl sets the control id and name
func (b *RuleEntryBuilder) WithControl(id, name string) *RuleEntryBuilder {
	b.entry.ControlID = id
	b.entry.ControlName = name
	return b
}

// WithViolationType sets the violation type
func (b *RuleEntryBuilder) WithViolationType(violationType string) *RuleEntryBuilder {
	b.entry.ViolationType = violationType
	return b
}

// WithSeverity sets the severity
func (b *RuleEntryBuilder) WithSeverity(severity compliance.Severity) *RuleEntryBuilder {
	b.entry.Severity = severity
	return b
}

// WithReporting marks the entry reportable with the given deadline in days
func (b *RuleEntryBuilder) WithReporting(deadlineDays int) *RuleEntryBuilder {
	b.entry.RequiresReporting = true
	b.entry.ReportingDeadlineDays = &deadlineDays
	return b
}

// WithThreshold attaches a threshold condition
func (b *RuleEntryBuilder) WithThreshold(field policy.Field, operator policy.Operator, value string) *RuleEntryBuilder {
	b.entry.Threshold = &policy.ThresholdCondition{
		Field:    field,
		Operator: operator,
		Value:    value,
	}
	return b
}

// WithRemediationSteps replaces the remediation steps
func (b *RuleEntryBuilder) WithRemediationSteps(steps ...string) *RuleEntryBuilder {
	b.entry.RemediationSteps = steps
	return b
}

// Build returns the entry
func (b *RuleEntryBuilder) Build() policy.RuleEntry {
	return b.entry
}

// RuleLogicBuilder builds test rule sets
type RuleLogicBuilder struct {
	t       *testing.T
	entries []policy.RuleEntry
}

// NewRuleLogicBuilder creates an empty rule-logic builder
func NewRuleLogicBuilder(t *testing.T) *RuleLogicBuilder {
	t.Helper()
	return &RuleLogicBuilder{t: t}
}

// WithEntry appends a rule entry
func (b *RuleLogicBuilder) WithEntry(entry policy.RuleEntry) *RuleLogicBuilder {
	b.entries = append(b.entries, entry)
	return b
}

// Build returns the rule logic
func (b *RuleLogicBuilder) Build() policy.RuleLogic {
	entries := b.entries
	if entries == nil {
		entries = []policy.RuleEntry{NewRuleEntryBuilder(b.t).Build()}
	}
	return policy.RuleLogic{Entries: entries}
}
