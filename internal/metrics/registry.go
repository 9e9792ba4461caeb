package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds the engine's domain metrics
type Registry struct {
	meter metric.Meter

	// Translation metrics
	TranslationDuration metric.Float64Histogram
	TranslationFailures metric.Int64Counter
	ViolationsDerived   metric.Int64Counter
	ActionsPlanned      metric.Int64Counter

	// Policy store metrics
	PolicyVersionsCreated metric.Int64Counter
	IntegrityFailures     metric.Int64Counter
	PolicyCacheHits       metric.Int64Counter
	PolicyCacheMisses     metric.Int64Counter
}

// NewRegistry creates the metric instruments on the given meter
func NewRegistry(meter metric.Meter) (*Registry, error) {
	r := &Registry{meter: meter}

	var err error

	r.TranslationDuration, err = meter.Float64Histogram(
		"aigov.translation.duration",
		metric.WithDescription("Translation call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	r.TranslationFailures, err = meter.Int64Counter(
		"aigov.translation.failures",
		metric.WithDescription("Translation calls that ended in error"),
	)
	if err != nil {
		return nil, err
	}

	r.ViolationsDerived, err = meter.Int64Counter(
		"aigov.translation.violations_derived",
		metric.WithDescription("Compliance violations derived from telemetry events"),
	)
	if err != nil {
		return nil, err
	}

	r.ActionsPlanned, err = meter.Int64Counter(
		"aigov.translation.actions_planned",
		metric.WithDescription("Remediation actions planned for derived violations"),
	)
	if err != nil {
		return nil, err
	}

	r.PolicyVersionsCreated, err = meter.Int64Counter(
		"aigov.policy.versions_created",
		metric.WithDescription("Policy versions created by the administrative workflow"),
	)
	if err != nil {
		return nil, err
	}

	r.IntegrityFailures, err = meter.Int64Counter(
		"aigov.policy.integrity_failures",
		metric.WithDescription("Policy reads whose decrypted content failed hash verification"),
	)
	if err != nil {
		return nil, err
	}

	r.PolicyCacheHits, err = meter.Int64Counter(
		"aigov.policy.cache_hits",
		metric.WithDescription("Active-policy lookups served from cache"),
	)
	if err != nil {
		return nil, err
	}

	r.PolicyCacheMisses, err = meter.Int64Counter(
		"aigov.policy.cache_misses",
		metric.WithDescription("Active-policy lookups that fell back to the database"),
	)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// NewDefaultRegistry builds a registry on the globally configured meter
// provider. Without an SDK installed the instruments are no-ops, which is
// what tests want.
func NewDefaultRegistry() (*Registry, error) {
	return NewRegistry(otel.Meter("github.com/meridianhealth/ai-governance-backend"))
}

// RecordViolation increments the violation counter with framework/severity attributes
func (r *Registry) RecordViolation(ctx context.Context, framework, severity string) {
	r.ViolationsDerived.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("framework", framework),
			attribute.String("severity", severity),
		))
}
