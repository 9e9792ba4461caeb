package translation

import (
	"github.com/meridianhealth/ai-governance-backend/internal/domain/compliance"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/policy"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/telemetry"
)

// FrameworkRule is one row of the applicability table: the framework applies
// to the event type either unconditionally or only when the event flags a
// PHI impact.
type FrameworkRule struct {
	Framework   compliance.Framework
	RequiresPHI bool
}

// ApplicabilityTable maps an event type to the frameworks whose policies
// must be consulted, in a fixed order. Order matters: violation output
// ordering follows key ordering, and audits require reproducible output.
type ApplicabilityTable map[telemetry.EventType][]FrameworkRule

// DefaultApplicabilityTable reflects current regulatory guidance for
// healthcare AI deployments. HIPAA joins quality-signal event types only
// when the event touches protected health information.
func DefaultApplicabilityTable() ApplicabilityTable {
	return ApplicabilityTable{
		telemetry.EventTypeAlert: {
			{Framework: compliance.FrameworkNISTAIRMF},
			{Framework: compliance.FrameworkHIPAA, RequiresPHI: true},
		},
		telemetry.EventTypeDrift: {
			{Framework: compliance.FrameworkNISTAIRMF},
			{Framework: compliance.FrameworkHIPAA, RequiresPHI: true},
		},
		telemetry.EventTypeBias: {
			{Framework: compliance.FrameworkNISTAIRMF},
			{Framework: compliance.FrameworkFDASaMD},
			{Framework: compliance.FrameworkStateAILaws},
		},
		telemetry.EventTypeRun: {
			{Framework: compliance.FrameworkNISTAIRMF},
		},
		telemetry.EventTypeError: {
			{Framework: compliance.FrameworkNISTAIRMF},
			{Framework: compliance.FrameworkHIPAA, RequiresPHI: true},
		},
		telemetry.EventTypeTrace: {
			{Framework: compliance.FrameworkNISTAIRMF},
		},
		telemetry.EventTypeGeneration: {
			{Framework: compliance.FrameworkNISTAIRMF},
			{Framework: compliance.FrameworkHIPAA, RequiresPHI: true},
		},
		telemetry.EventTypeScore: {
			{Framework: compliance.FrameworkNISTAIRMF},
			{Framework: compliance.FrameworkFDASaMD},
		},
		telemetry.EventTypeTrainingComplete: {
			{Framework: compliance.FrameworkNISTAIRMF},
			{Framework: compliance.FrameworkFDASaMD},
		},
		telemetry.EventTypePatientAccess: {
			{Framework: compliance.FrameworkHIPAA},
		},
		telemetry.EventTypeClinicalDataAccess: {
			{Framework: compliance.FrameworkHIPAA},
			{Framework: compliance.FrameworkISO27001},
		},
	}
}

// Classifier resolves which policy lineages apply to a telemetry event.
// It is a pure function of the event and its configured table: no side
// effects, stable output ordering.
type Classifier struct {
	table ApplicabilityTable
}

// NewClassifier creates a classifier with the default applicability table
func NewClassifier() *Classifier {
	return NewClassifierWithTable(DefaultApplicabilityTable())
}

// NewClassifierWithTable creates a classifier with a custom table
func NewClassifierWithTable(table ApplicabilityTable) *Classifier {
	return &Classifier{table: table}
}

// ResolveKeys returns the ordered policy lookups for an event. An event type
// absent from the table yields no keys, which translates to zero violations.
func (c *Classifier) ResolveKeys(event *telemetry.Event) []policy.Key {
	rules, ok := c.table[event.EventType]
	if !ok {
		return nil
	}

	keys := make([]policy.Key, 0, len(rules))
	for _, rule := range rules {
		if rule.RequiresPHI && !event.PHIImpact() {
			continue
		}
		keys = append(keys, policy.Key{
			EventType: event.EventType,
			Framework: rule.Framework,
		})
	}

	return keys
}
