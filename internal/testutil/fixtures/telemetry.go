package fixtures

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/telemetry"
)

// TelemetryEventBuilder builds test telemetry events
type TelemetryEventBuilder struct {
	t           *testing.T
	id          uuid.UUID
	aiSystemID  uuid.UUID
	eventType   telemetry.EventType
	source      string
	severity    *string
	metric      string
	metricValue string
	threshold   string
	payload     map[string]interface{}
	processedAt time.Time
}

// NewTelemetryEventBuilder creates a builder with drift-alert defaults
func NewTelemetryEventBuilder(t *testing.T) *TelemetryEventBuilder {
	t.Helper()
	return &TelemetryEventBuilder{
		t:           t,
		id:          uuid.New(),
		aiSystemID:  uuid.New(),
		eventType:   telemetry.EventTypeDrift,
		source:      telemetry.SourceArize,
		metric:      "psi",
		metricValue: "0.31",
		threshold:   "0.25",
		processedAt: time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC),
	}
}

// WithID sets the event id
func (b *TelemetryEventBuilder) WithID(id uuid.UUID) *TelemetryEventBuilder {
	b.id = id
	return b
}

// WithAISystemID sets the AI system the event concerns
func (b *TelemetryEventBuilder) WithAISystemID(id uuid.UUID) *TelemetryEventBuilder {
	b.aiSystemID = id
	return b
}

// WithEventType sets the event type
func (b *TelemetryEventBuilder) WithEventType(eventType telemetry.EventType) *TelemetryEventBuilder {
	b.eventType = eventType
	return b
}

// WithSource sets the upstream platform
func (b *TelemetryEventBuilder) WithSource(source string) *TelemetryEventBuilder {
	b.source = source
	return b
}

// WithSeverity sets the reported severity
func (b *TelemetryEventBuilder) WithSeverity(severity string) *TelemetryEventBuilder {
	b.severity = &severity
	return b
}

// WithMetric sets the metric triple
func (b *TelemetryEventBuilder) WithMetric(metric, value, threshold string) *TelemetryEventBuilder {
	b.metric = metric
	b.metricValue = value
	b.threshold = threshold
	return b
}

// WithoutMetric clears the metric triple
func (b *TelemetryEventBuilder) WithoutMetric() *TelemetryEventBuilder {
	b.metric = ""
	b.metricValue = ""
	b.threshold = ""
	return b
}

// WithPayload sets the raw payload
func (b *TelemetryEventBuilder) WithPayload(payload map[string]interface{}) *TelemetryEventBuilder {
	b.payload = payload
	return b
}

// WithPHIImpact marks the event as touching protected health information
func (b *TelemetryEventBuilder) WithPHIImpact() *TelemetryEventBuilder {
	if b.payload == nil {
		b.payload = make(map[string]interface{})
	}
	b.payload["phi_impact"] = true
	return b
}

// WithProcessedAt pins the normalization timestamp
func (b *TelemetryEventBuilder) WithProcessedAt(at time.Time) *TelemetryEventBuilder {
	b.processedAt = at
	return b
}

// Build constructs the event
func (b *TelemetryEventBuilder) Build() *telemetry.Event {
	b.t.Helper()

	event, err := telemetry.NewEvent(b.aiSystemID, b.eventType, b.source, b.processedAt)
	require.NoError(b.t, err)

	event.ID = b.id
	if b.metric != "" {
		event.WithMetric(b.metric, b.metricValue, b.threshold)
	}
	if b.severity != nil {
		event.WithSeverity(*b.severity)
	}
	if b.payload != nil {
		event.WithPayload(b.payload)
	}

	return event
}
