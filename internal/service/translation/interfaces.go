package translation

import (
	"context"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/compliance"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/policy"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/telemetry"
)

// PolicyProvider is the engine's view of the policy store: integrity-verified
// retrieval of the active rule set for a lineage. Implemented by
// policystore.Store.
type PolicyProvider interface {
	GetActivePolicy(ctx context.Context, eventType telemetry.EventType, framework compliance.Framework) (*policy.RuleLogic, error)
}

// Recorder persists translation outputs. Implemented by
// database.TranslationRepository; the event and all of its violations and
// actions must be stored atomically per event.
type Recorder interface {
	StoreEvent(ctx context.Context, event *telemetry.Event) error
	StoreTranslation(ctx context.Context, translated *compliance.TranslatedEvent) error
}

// ResolutionStore persists the resolution of a stored violation. Also
// implemented by database.TranslationRepository.
type ResolutionStore interface {
	MarkResolved(ctx context.Context, violation *compliance.Violation) error
}

// Derived pairs a violation draft with the rule entry that produced it. The
// entry travels alongside so the planner can read remediation steps without
// re-fetching policy content.
type Derived struct {
	Violation *compliance.Violation
	Entry     policy.RuleEntry
}
