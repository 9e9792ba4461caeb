package telemetry

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	systemID := uuid.New()
	processedAt := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		aiSystemID uuid.UUID
		eventType  EventType
		source     string
		wantErr    bool
		errCode    string
	}{
		{
			name:       "valid drift event",
			aiSystemID: systemID,
			eventType:  EventTypeDrift,
			source:     SourceArize,
		},
		{
			name:       "unknown source accepted",
			aiSystemID: systemID,
			eventType:  EventTypeAlert,
			source:     "new-vendor",
		},
		{
			name:       "missing system id",
			aiSystemID: uuid.Nil,
			eventType:  EventTypeDrift,
			source:     SourceArize,
			wantErr:    true,
			errCode:    "MISSING_AI_SYSTEM",
		},
		{
			name:       "unknown event type",
			aiSystemID: systemID,
			eventType:  EventType("heartbeat"),
			source:     SourceArize,
			wantErr:    true,
			errCode:    "INVALID_EVENT_TYPE",
		},
		{
			name:       "missing source",
			aiSystemID: systemID,
			eventType:  EventTypeDrift,
			source:     "",
			wantErr:    true,
			errCode:    "MISSING_SOURCE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := NewEvent(tt.aiSystemID, tt.eventType, tt.source, processedAt)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errCode)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, event.ID)
			assert.Equal(t, tt.aiSystemID, event.AISystemID)
			assert.Equal(t, processedAt, event.ProcessedAt)
			assert.Equal(t, time.UTC, event.ProcessedAt.Location())
		})
	}
}

func TestEventWithMetric(t *testing.T) {
	event, err := NewEvent(uuid.New(), EventTypeDrift, SourceArize, time.Now())
	require.NoError(t, err)

	event.WithMetric("psi", "0.31", "0.25")
	require.NotNil(t, event.Metric)
	assert.Equal(t, "psi", *event.Metric)
	require.NotNil(t, event.MetricValue)
	assert.Equal(t, "0.31", *event.MetricValue)
	require.NotNil(t, event.Threshold)
	assert.Equal(t, "0.25", *event.Threshold)

	t.Run("empty threshold stays nil", func(t *testing.T) {
		other, err := NewEvent(uuid.New(), EventTypeScore, SourceWandB, time.Now())
		require.NoError(t, err)
		other.WithMetric("accuracy", "0.91", "")
		assert.Nil(t, other.Threshold)
	})
}

func TestEventPHIImpact(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]interface{}
		want    bool
	}{
		{"no payload", nil, false},
		{"flag absent", map[string]interface{}{"model": "triage-v2"}, false},
		{"bool true", map[string]interface{}{"phi_impact": true}, true},
		{"bool false", map[string]interface{}{"phi_impact": false}, false},
		{"string true", map[string]interface{}{"phi_impact": "true"}, true},
		{"string false", map[string]interface{}{"phi_impact": "false"}, false},
		{"unexpected type", map[string]interface{}{"phi_impact": 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := NewEvent(uuid.New(), EventTypeGeneration, SourceLangSmith, time.Now())
			require.NoError(t, err)
			if tt.payload != nil {
				event.WithPayload(tt.payload)
			}
			assert.Equal(t, tt.want, event.PHIImpact())
		})
	}

	t.Run("patient-scoped metric implies phi", func(t *testing.T) {
		event, err := NewEvent(uuid.New(), EventTypeDrift, SourceArize, time.Now())
		require.NoError(t, err)
		event.WithMetric("patient_record_drift", "0.4", "0.2")
		assert.True(t, event.PHIImpact())
	})

	t.Run("quality metric alone does not imply phi", func(t *testing.T) {
		event, err := NewEvent(uuid.New(), EventTypeDrift, SourceArize, time.Now())
		require.NoError(t, err)
		event.WithMetric("psi", "0.4", "0.2")
		assert.False(t, event.PHIImpact())
	})
}
