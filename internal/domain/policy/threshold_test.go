package policy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/telemetry"
)

func metricEvent(t *testing.T, metric, value, threshold string) *telemetry.Event {
	t.Helper()
	event, err := telemetry.NewEvent(uuid.New(), telemetry.EventTypeDrift, telemetry.SourceArize, time.Now())
	require.NoError(t, err)
	return event.WithMetric(metric, value, threshold)
}

func TestThresholdConditionValidate(t *testing.T) {
	tests := []struct {
		name      string
		condition ThresholdCondition
		wantErr   string
	}{
		{
			name:      "numeric comparison",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: OpGreaterThan, Value: "0.25"},
		},
		{
			name:      "equality on source",
			condition: ThresholdCondition{Field: FieldSource, Operator: OpEqual, Value: "arize"},
		},
		{
			name:      "exceeds threshold takes no value",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: OpExceedsThreshold},
		},
		{
			name:      "exceeds threshold by pct",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: OpExceedsThresholdByPct, Value: "10"},
		},
		{
			name:      "unknown field",
			condition: ThresholdCondition{Field: "latency", Operator: OpGreaterThan, Value: "1"},
			wantErr:   "INVALID_CONDITION_FIELD",
		},
		{
			name:      "unknown operator",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: "matches", Value: "x"},
			wantErr:   "INVALID_CONDITION_OPERATOR",
		},
		{
			name:      "numeric operator with non-numeric value",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: OpLessThan, Value: "high"},
			wantErr:   "INVALID_CONDITION_VALUE",
		},
		{
			name:      "exceeds threshold rejects stray value",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: OpExceedsThreshold, Value: "0.1"},
			wantErr:   "UNEXPECTED_CONDITION_VALUE",
		},
		{
			name:      "exceeds threshold requires metric_value field",
			condition: ThresholdCondition{Field: FieldThreshold, Operator: OpExceedsThreshold},
			wantErr:   "INVALID_CONDITION_FIELD",
		},
		{
			name:      "negative percentage rejected",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: OpExceedsThresholdByPct, Value: "-5"},
			wantErr:   "INVALID_CONDITION_VALUE",
		},
		{
			name:      "equality requires a value",
			condition: ThresholdCondition{Field: FieldSource, Operator: OpEqual},
			wantErr:   "MISSING_CONDITION_VALUE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.condition.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestThresholdConditionMatches(t *testing.T) {
	tests := []struct {
		name      string
		condition ThresholdCondition
		event     func(t *testing.T) *telemetry.Event
		want      bool
	}{
		{
			name:      "gt matches",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: OpGreaterThan, Value: "0.25"},
			event:     func(t *testing.T) *telemetry.Event { return metricEvent(t, "psi", "0.31", "0.25") },
			want:      true,
		},
		{
			name:      "gt boundary is exclusive",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: OpGreaterThan, Value: "0.25"},
			event:     func(t *testing.T) *telemetry.Event { return metricEvent(t, "psi", "0.25", "0.25") },
			want:      false,
		},
		{
			name:      "gte boundary is inclusive",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: OpGreaterThanOrEqual, Value: "0.25"},
			event:     func(t *testing.T) *telemetry.Event { return metricEvent(t, "psi", "0.25", "0.25") },
			want:      true,
		},
		{
			name:      "decimal comparison avoids float artifacts",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: OpGreaterThan, Value: "0.1"},
			event:     func(t *testing.T) *telemetry.Event { return metricEvent(t, "psi", "0.10000000000000001", "0.1") },
			want:      true,
		},
		{
			name:      "exceeds threshold uses event operands",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: OpExceedsThreshold},
			event:     func(t *testing.T) *telemetry.Event { return metricEvent(t, "psi", "0.31", "0.25") },
			want:      true,
		},
		{
			name:      "exceeds threshold equal is not exceeding",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: OpExceedsThreshold},
			event:     func(t *testing.T) *telemetry.Event { return metricEvent(t, "psi", "0.25", "0.25") },
			want:      false,
		},
		{
			name:      "exceeds threshold by pct above bar",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: OpExceedsThresholdByPct, Value: "20"},
			event:     func(t *testing.T) *telemetry.Event { return metricEvent(t, "psi", "0.31", "0.25") },
			want:      true,
		},
		{
			name:      "exceeds threshold by pct below bar",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: OpExceedsThresholdByPct, Value: "30"},
			event:     func(t *testing.T) *telemetry.Event { return metricEvent(t, "psi", "0.31", "0.25") },
			want:      false,
		},
		{
			name:      "missing metric value never matches",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: OpGreaterThan, Value: "0.25"},
			event: func(t *testing.T) *telemetry.Event {
				event, err := telemetry.NewEvent(uuid.New(), telemetry.EventTypeDrift, telemetry.SourceArize, time.Now())
				require.NoError(t, err)
				return event
			},
			want: false,
		},
		{
			name:      "unparseable operand never matches",
			condition: ThresholdCondition{Field: FieldMetricValue, Operator: OpGreaterThan, Value: "0.25"},
			event:     func(t *testing.T) *telemetry.Event { return metricEvent(t, "psi", "high", "0.25") },
			want:      false,
		},
		{
			name:      "equality on severity",
			condition: ThresholdCondition{Field: FieldSeverity, Operator: OpEqual, Value: "critical"},
			event: func(t *testing.T) *telemetry.Event {
				return metricEvent(t, "psi", "0.31", "0.25").WithSeverity("critical")
			},
			want: true,
		},
		{
			name:      "not equal on source",
			condition: ThresholdCondition{Field: FieldSource, Operator: OpNotEqual, Value: "langsmith"},
			event:     func(t *testing.T) *telemetry.Event { return metricEvent(t, "psi", "0.31", "0.25") },
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.condition.Validate(), "test conditions must be valid")
			assert.Equal(t, tt.want, tt.condition.Matches(tt.event(t)))
		})
	}
}
