package policy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/compliance"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/telemetry"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/values"
)

func validEntry() RuleEntry {
	days := 2
	return RuleEntry{
		Framework:             compliance.FrameworkHIPAA,
		ControlID:             "164.312(b)",
		ControlName:           "Audit Controls",
		ViolationType:         "phi_exposure",
		Severity:              compliance.SeverityCritical,
		RequiresReporting:     true,
		ReportingDeadlineDays: &days,
		RemediationSteps:      []string{"Notify the privacy officer"},
	}
}

func TestKeyValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     Key
		wantErr string
	}{
		{
			name: "valid key",
			key:  Key{EventType: telemetry.EventTypeDrift, Framework: compliance.FrameworkNISTAIRMF},
		},
		{
			name:    "unknown event type",
			key:     Key{EventType: "heartbeat", Framework: compliance.FrameworkHIPAA},
			wantErr: "INVALID_EVENT_TYPE",
		},
		{
			name:    "unknown framework",
			key:     Key{EventType: telemetry.EventTypeDrift, Framework: "GDPR"},
			wantErr: "INVALID_FRAMEWORK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRuleEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RuleEntry)
		wantErr string
	}{
		{
			name:   "valid entry",
			mutate: func(e *RuleEntry) {},
		},
		{
			name:    "missing control id",
			mutate:  func(e *RuleEntry) { e.ControlID = "" },
			wantErr: "MISSING_CONTROL_ID",
		},
		{
			name:    "missing control name",
			mutate:  func(e *RuleEntry) { e.ControlName = "" },
			wantErr: "MISSING_CONTROL_NAME",
		},
		{
			name:    "missing violation type",
			mutate:  func(e *RuleEntry) { e.ViolationType = "" },
			wantErr: "MISSING_VIOLATION_TYPE",
		},
		{
			name:    "invalid severity",
			mutate:  func(e *RuleEntry) { e.Severity = "catastrophic" },
			wantErr: "INVALID_SEVERITY",
		},
		{
			name:    "reporting without deadline",
			mutate:  func(e *RuleEntry) { e.ReportingDeadlineDays = nil },
			wantErr: "MISSING_REPORTING_DEADLINE",
		},
		{
			name: "non-positive deadline",
			mutate: func(e *RuleEntry) {
				zero := 0
				e.ReportingDeadlineDays = &zero
			},
			wantErr: "INVALID_REPORTING_DEADLINE",
		},
		{
			name: "invalid threshold surfaces",
			mutate: func(e *RuleEntry) {
				e.Threshold = &ThresholdCondition{Field: "latency", Operator: OpGreaterThan, Value: "1"}
			},
			wantErr: "INVALID_CONDITION_FIELD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := validEntry()
			tt.mutate(&entry)
			err := entry.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRuleLogicValidate(t *testing.T) {
	t.Run("empty rule logic rejected", func(t *testing.T) {
		err := RuleLogic{}.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "EMPTY_RULE_LOGIC")
	})

	t.Run("duplicate control ids rejected", func(t *testing.T) {
		logic := RuleLogic{Entries: []RuleEntry{validEntry(), validEntry()}}
		err := logic.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DUPLICATE_CONTROL_ID")
	})

	t.Run("invalid entry reported with index", func(t *testing.T) {
		bad := validEntry()
		bad.ControlID = ""
		logic := RuleLogic{Entries: []RuleEntry{validEntry(), bad}}
		err := logic.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "INVALID_RULE_ENTRY")
	})

	t.Run("valid logic accepted", func(t *testing.T) {
		second := validEntry()
		second.ControlID = "164.308(a)(1)"
		logic := RuleLogic{Entries: []RuleEntry{validEntry(), second}}
		require.NoError(t, logic.Validate())
	})
}

func TestCanonicalJSONRoundTrip(t *testing.T) {
	logic := RuleLogic{Entries: []RuleEntry{validEntry()}}

	first, err := logic.CanonicalJSON()
	require.NoError(t, err)
	second, err := logic.CanonicalJSON()
	require.NoError(t, err)
	assert.Equal(t, first, second, "canonical form must be byte-stable")

	parsed, err := ParseRuleLogic(first)
	require.NoError(t, err)
	assert.Equal(t, logic, *parsed)
}

func TestParseRuleLogicRejectsGarbage(t *testing.T) {
	_, err := ParseRuleLogic([]byte("not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MALFORMED_RULE_LOGIC")

	_, err = ParseRuleLogic([]byte(`{"entries":[]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMPTY_RULE_LOGIC")
}

func TestPolicyVersionDeprecate(t *testing.T) {
	version := &PolicyVersion{
		ID:            uuid.New(),
		EventType:     telemetry.EventTypeDrift,
		Framework:     compliance.FrameworkNISTAIRMF,
		Version:       values.InitialVersion(),
		Status:        StatusActive,
		EffectiveDate: time.Now().UTC(),
	}

	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, version.Deprecate(at))
	assert.Equal(t, StatusDeprecated, version.Status)
	require.NotNil(t, version.DeprecatedDate)
	assert.Equal(t, at, *version.DeprecatedDate)

	t.Run("deprecated is terminal", func(t *testing.T) {
		err := version.Deprecate(at.Add(time.Hour))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "NOT_ACTIVE")
	})
}
