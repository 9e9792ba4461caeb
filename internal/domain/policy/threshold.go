package policy

import (
	"github.com/shopspring/decimal"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/errors"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/telemetry"
)

// Field names the event attribute a threshold condition reads
type Field string

const (
	FieldMetricValue Field = "metric_value"
	FieldThreshold   Field = "threshold"
	FieldMetric      Field = "metric"
	FieldSource      Field = "source"
	FieldSeverity    Field = "severity"
)

// IsValid checks the field against the closed set
func (f Field) IsValid() bool {
	switch f {
	case FieldMetricValue, FieldThreshold, FieldMetric, FieldSource, FieldSeverity:
		return true
	default:
		return false
	}
}

// Operator names a comparison in the condition grammar
type Operator string

const (
	OpGreaterThan        Operator = "gt"
	OpGreaterThanOrEqual Operator = "gte"
	OpLessThan           Operator = "lt"
	OpLessThanOrEqual    Operator = "lte"
	OpEqual              Operator = "eq"
	OpNotEqual           Operator = "neq"
	// OpExceedsThreshold compares the event's metric value against the
	// event-supplied threshold; Value is unused.
	OpExceedsThreshold Operator = "exceeds_threshold"
	// OpExceedsThresholdByPct matches when the metric value exceeds the
	// event-supplied threshold by more than Value percent.
	OpExceedsThresholdByPct Operator = "exceeds_threshold_by_pct"
)

// IsValid checks the operator against the closed set
func (o Operator) IsValid() bool {
	switch o {
	case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual,
		OpEqual, OpNotEqual, OpExceedsThreshold, OpExceedsThresholdByPct:
		return true
	default:
		return false
	}
}

// numeric reports whether the operator requires decimal operands
func (o Operator) numeric() bool {
	switch o {
	case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual,
		OpExceedsThreshold, OpExceedsThresholdByPct:
		return true
	default:
		return false
	}
}

// ThresholdCondition is the explicit comparison grammar for rule matching:
// a field, an operator, and a literal operand. Conditions are data, never
// executable content, and are validated at policy-creation time so that
// evaluation cannot fail on a stored policy.
type ThresholdCondition struct {
	Field    Field    `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value,omitempty"`
}

// Validate rejects unknown fields and operators and ill-typed operands
func (c ThresholdCondition) Validate() error {
	if !c.Field.IsValid() {
		return errors.NewValidationError("INVALID_CONDITION_FIELD",
			"unknown condition field: "+string(c.Field))
	}
	if !c.Operator.IsValid() {
		return errors.NewValidationError("INVALID_CONDITION_OPERATOR",
			"unknown condition operator: "+string(c.Operator))
	}

	switch c.Operator {
	case OpExceedsThreshold:
		// operand comes from the event; Value must be empty
		if c.Value != "" {
			return errors.NewValidationError("UNEXPECTED_CONDITION_VALUE",
				"exceeds_threshold takes its operand from the event threshold")
		}
		if c.Field != FieldMetricValue {
			return errors.NewValidationError("INVALID_CONDITION_FIELD",
				"exceeds_threshold applies to the metric_value field")
		}
	case OpExceedsThresholdByPct:
		if c.Field != FieldMetricValue {
			return errors.NewValidationError("INVALID_CONDITION_FIELD",
				"exceeds_threshold_by_pct applies to the metric_value field")
		}
		pct, err := decimal.NewFromString(c.Value)
		if err != nil {
			return errors.NewValidationError("INVALID_CONDITION_VALUE",
				"exceeds_threshold_by_pct requires a numeric percentage").WithCause(err)
		}
		if pct.IsNegative() {
			return errors.NewValidationError("INVALID_CONDITION_VALUE",
				"exceeds_threshold_by_pct requires a non-negative percentage")
		}
	default:
		if c.Operator.numeric() {
			if _, err := decimal.NewFromString(c.Value); err != nil {
				return errors.NewValidationError("INVALID_CONDITION_VALUE",
					"numeric operators require a numeric condition value").WithCause(err)
			}
		} else if c.Value == "" {
			return errors.NewValidationError("MISSING_CONDITION_VALUE",
				"equality operators require a condition value")
		}
	}

	return nil
}

// Matches evaluates the condition against a telemetry event. A missing or
// unparseable event operand means the rule does not match; evaluation of a
// validated condition never errors.
func (c ThresholdCondition) Matches(event *telemetry.Event) bool {
	operand, ok := c.fieldValue(event)
	if !ok {
		return false
	}

	switch c.Operator {
	case OpEqual:
		return operand == c.Value
	case OpNotEqual:
		return operand != c.Value
	case OpExceedsThreshold:
		metricValue, threshold, ok := eventOperands(event)
		if !ok {
			return false
		}
		return metricValue.GreaterThan(threshold)
	case OpExceedsThresholdByPct:
		metricValue, threshold, ok := eventOperands(event)
		if !ok {
			return false
		}
		pct, err := decimal.NewFromString(c.Value)
		if err != nil {
			return false
		}
		// threshold * (1 + pct/100)
		bar := threshold.Mul(decimal.NewFromInt(1).Add(pct.Div(decimal.NewFromInt(100))))
		return metricValue.GreaterThan(bar)
	}

	// remaining operators are numeric comparisons against Value
	left, err := decimal.NewFromString(operand)
	if err != nil {
		return false
	}
	right, err := decimal.NewFromString(c.Value)
	if err != nil {
		return false
	}

	switch c.Operator {
	case OpGreaterThan:
		return left.GreaterThan(right)
	case OpGreaterThanOrEqual:
		return left.GreaterThanOrEqual(right)
	case OpLessThan:
		return left.LessThan(right)
	case OpLessThanOrEqual:
		return left.LessThanOrEqual(right)
	default:
		return false
	}
}

// fieldValue resolves the condition's field from the event
func (c ThresholdCondition) fieldValue(event *telemetry.Event) (string, bool) {
	switch c.Field {
	case FieldMetricValue:
		if event.MetricValue == nil {
			return "", false
		}
		return *event.MetricValue, true
	case FieldThreshold:
		if event.Threshold == nil {
			return "", false
		}
		return *event.Threshold, true
	case FieldMetric:
		if event.Metric == nil {
			return "", false
		}
		return *event.Metric, true
	case FieldSource:
		return event.Source, true
	case FieldSeverity:
		if event.Severity == nil {
			return "", false
		}
		return *event.Severity, true
	default:
		return "", false
	}
}

// eventOperands parses the metric value and threshold the event carries
func eventOperands(event *telemetry.Event) (metricValue, threshold decimal.Decimal, ok bool) {
	if event.MetricValue == nil || event.Threshold == nil {
		return decimal.Zero, decimal.Zero, false
	}

	metricValue, err := decimal.NewFromString(*event.MetricValue)
	if err != nil {
		return decimal.Zero, decimal.Zero, false
	}

	threshold, err = decimal.NewFromString(*event.Threshold)
	if err != nil {
		return decimal.Zero, decimal.Zero, false
	}

	return metricValue, threshold, true
}
