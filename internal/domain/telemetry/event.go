package telemetry

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/errors"
)

// EventType categorizes inbound AI telemetry signals
type EventType string

const (
	EventTypeAlert              EventType = "alert"
	EventTypeDrift              EventType = "drift"
	EventTypeBias               EventType = "bias"
	EventTypeRun                EventType = "run"
	EventTypeError              EventType = "error"
	EventTypeTrace              EventType = "trace"
	EventTypeGeneration         EventType = "generation"
	EventTypeScore              EventType = "score"
	EventTypeTrainingComplete   EventType = "training_complete"
	EventTypePatientAccess      EventType = "patient_access"
	EventTypeClinicalDataAccess EventType = "clinical_data_access"
)

// IsValid checks the event type against the closed set
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeAlert, EventTypeDrift, EventTypeBias, EventTypeRun,
		EventTypeError, EventTypeTrace, EventTypeGeneration, EventTypeScore,
		EventTypeTrainingComplete, EventTypePatientAccess, EventTypeClinicalDataAccess:
		return true
	default:
		return false
	}
}

func (t EventType) String() string {
	return string(t)
}

// Known observability platform identifiers. Source is open-ended: vendors
// appear faster than releases, so unknown sources are accepted as-is.
const (
	SourceLangSmith = "langsmith"
	SourceArize     = "arize"
	SourceLangFuse  = "langfuse"
	SourceWandB     = "wandb"
	SourceEHR       = "ehr"
)

// Event is the normalized representation of an inbound AI telemetry signal.
// It is immutable once created: a single event may yield zero, one, or many
// compliance violations, and is retained for audit regardless of outcome.
type Event struct {
	ID          uuid.UUID              `json:"id"`
	AISystemID  uuid.UUID              `json:"ai_system_id"`
	EventType   EventType              `json:"event_type"`
	Source      string                 `json:"source"`
	Severity    *string                `json:"severity,omitempty"`
	Metric      *string                `json:"metric,omitempty"`
	MetricValue *string                `json:"metric_value,omitempty"`
	Threshold   *string                `json:"threshold,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	ProcessedAt time.Time              `json:"processed_at"`
}

// NewEvent creates a normalized telemetry event stamped with the given
// processing time. The ingestion boundary owns normalization; this
// constructor only enforces the invariants the engine depends on.
func NewEvent(aiSystemID uuid.UUID, eventType EventType, source string, processedAt time.Time) (*Event, error) {
	if aiSystemID == uuid.Nil {
		return nil, errors.NewValidationError("MISSING_AI_SYSTEM",
			"telemetry event requires an AI system id")
	}

	if !eventType.IsValid() {
		return nil, errors.NewValidationError("INVALID_EVENT_TYPE",
			"unknown telemetry event type: "+string(eventType))
	}

	if source == "" {
		return nil, errors.NewValidationError("MISSING_SOURCE",
			"telemetry event requires a source platform identifier")
	}

	return &Event{
		ID:          uuid.New(),
		AISystemID:  aiSystemID,
		EventType:   eventType,
		Source:      source,
		ProcessedAt: processedAt.UTC(),
	}, nil
}

// WithMetric attaches the metric triple carried by metric-bearing signals.
func (e *Event) WithMetric(metric, value, threshold string) *Event {
	e.Metric = &metric
	e.MetricValue = &value
	if threshold != "" {
		e.Threshold = &threshold
	}
	return e
}

// WithSeverity attaches the vendor-reported severity, if any.
func (e *Event) WithSeverity(severity string) *Event {
	e.Severity = &severity
	return e
}

// WithPayload attaches the opaque vendor payload.
func (e *Event) WithPayload(payload map[string]interface{}) *Event {
	e.Payload = payload
	return e
}

// PHIImpact reports whether the event flags an impact on protected health
// information. Vendors signal this through the normalized payload, or
// implicitly through a metric scoped to patient data.
func (e *Event) PHIImpact() bool {
	if e.Metric != nil {
		metric := strings.ToLower(*e.Metric)
		if strings.Contains(metric, "phi") || strings.Contains(metric, "patient") {
			return true
		}
	}

	if e.Payload == nil {
		return false
	}

	if flag, ok := e.Payload["phi_impact"].(bool); ok {
		return flag
	}

	// Some normalizers emit the flag as a string
	if flag, ok := e.Payload["phi_impact"].(string); ok {
		return flag == "true"
	}

	return false
}
