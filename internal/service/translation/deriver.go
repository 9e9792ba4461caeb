package translation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/compliance"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/errors"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/policy"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/telemetry"
)

// Deriver evaluates the active rule set for one policy lineage against a
// concrete event and produces violation drafts.
type Deriver struct {
	policies PolicyProvider
	logger   *zap.Logger
}

// NewDeriver creates a violation deriver
func NewDeriver(policies PolicyProvider, logger *zap.Logger) *Deriver {
	return &Deriver{policies: policies, logger: logger}
}

// Derive fetches the active policy for the key and evaluates each rule entry
// against the event.
//
// A missing policy is a normal outcome (no rule defined yet) and yields zero
// violations. An integrity failure aborts: it indicates a potential security
// incident and must surface to the caller, never be swallowed.
//
// Output ordering is deterministic: entries are evaluated in controlId order.
func (d *Deriver) Derive(ctx context.Context, event *telemetry.Event, key policy.Key) ([]Derived, error) {
	logic, err := d.policies.GetActivePolicy(ctx, key.EventType, key.Framework)
	if err != nil {
		if errors.IsPolicyNotFound(err) {
			d.logger.Debug("no active policy for key; skipping",
				zap.String("key", key.String()))
			return nil, nil
		}
		return nil, err
	}

	entries := make([]policy.RuleEntry, len(logic.Entries))
	copy(entries, logic.Entries)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ControlID < entries[j].ControlID
	})

	var derived []Derived
	for _, entry := range entries {
		if entry.Threshold != nil && !entry.Threshold.Matches(event) {
			continue
		}

		derived = append(derived, Derived{
			Violation: newViolation(event, entry),
			Entry:     entry,
		})
	}

	return derived, nil
}

// newViolation snapshots the matched rule entry into a violation draft.
// Severity and reporting fields are copied at evaluation time; later policy
// versions never alter this record.
func newViolation(event *telemetry.Event, entry policy.RuleEntry) *compliance.Violation {
	violation := &compliance.Violation{
		ID:                uuid.New(),
		TelemetryEventID:  event.ID,
		AISystemID:        event.AISystemID,
		Framework:         entry.Framework,
		ControlID:         entry.ControlID,
		ControlName:       entry.ControlName,
		ViolationType:     entry.ViolationType,
		Severity:          entry.Severity,
		RequiresReporting: entry.RequiresReporting,
		Description:       describeViolation(event, entry),
		Resolved:          false,
		CreatedAt:         event.ProcessedAt,
	}

	if entry.RequiresReporting && entry.ReportingDeadlineDays != nil {
		// Deadlines anchor to the event's processing time so repeated
		// translation of the same event is reproducible.
		deadline := event.ProcessedAt.Add(time.Duration(*entry.ReportingDeadlineDays) * 24 * time.Hour)
		violation.ReportingDeadline = &deadline
	}

	return violation
}

func describeViolation(event *telemetry.Event, entry policy.RuleEntry) string {
	desc := fmt.Sprintf("%s control %s (%s): %s triggered by %s event from %s",
		entry.Framework, entry.ControlID, entry.ControlName,
		entry.ViolationType, event.EventType, event.Source)

	if event.Metric != nil && event.MetricValue != nil {
		desc += fmt.Sprintf(" (%s=%s", *event.Metric, *event.MetricValue)
		if event.Threshold != nil {
			desc += fmt.Sprintf(", threshold=%s", *event.Threshold)
		}
		desc += ")"
	}

	return desc
}
