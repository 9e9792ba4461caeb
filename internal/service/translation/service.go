package translation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/compliance"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/telemetry"
	"github.com/meridianhealth/ai-governance-backend/internal/metrics"
)

// Service orchestrates the translation pipeline: classification, violation
// derivation, and action planning. Translation is read-only with respect to
// policies and deterministic for a fixed active policy set: translating the
// same event twice yields structurally identical results.
type Service struct {
	classifier *Classifier
	deriver    *Deriver
	planner    *Planner
	logger     *zap.Logger
	metrics    *metrics.Registry
	tracer     trace.Tracer
}

// NewService wires the translation pipeline. Registry may be nil, which
// disables metrics.
func NewService(
	policies PolicyProvider,
	planner *Planner,
	registry *metrics.Registry,
	logger *zap.Logger,
) *Service {
	return &Service{
		classifier: NewClassifier(),
		deriver:    NewDeriver(policies, logger),
		planner:    planner,
		logger:     logger,
		metrics:    registry,
		tracer:     otel.Tracer("translation"),
	}
}

// Translate maps one telemetry event to its compliance consequences. Events
// that match no rule produce an empty result, not an error; infrastructure
// and integrity failures abort the whole call so a partial picture is never
// persisted.
func (s *Service) Translate(ctx context.Context, event *telemetry.Event) (*compliance.TranslatedEvent, error) {
	ctx, span := s.tracer.Start(ctx, "translation.translate",
		trace.WithAttributes(
			attribute.String("event.id", event.ID.String()),
			attribute.String("event.type", event.EventType.String()),
			attribute.String("event.source", event.Source),
		))
	defer span.End()

	start := time.Now()

	keys := s.classifier.ResolveKeys(event)
	span.SetAttributes(attribute.Int("policy.keys", len(keys)))

	var derived []Derived
	for _, key := range keys {
		matched, err := s.deriver.Derive(ctx, event, key)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "derivation failed")
			if s.metrics != nil {
				s.metrics.TranslationFailures.Add(ctx, 1)
			}
			s.logger.Error("translation aborted",
				zap.String("event_id", event.ID.String()),
				zap.String("policy_key", key.String()),
				zap.Error(err))
			return nil, err
		}
		derived = append(derived, matched...)
	}

	result := compliance.NewTranslatedEvent(event.ID)
	for _, d := range dedupeBySeverity(derived) {
		actions := s.planner.Plan(event, d.Violation, d.Entry)
		if err := result.Add(d.Violation, actions); err != nil {
			span.RecordError(err)
			if s.metrics != nil {
				s.metrics.TranslationFailures.Add(ctx, 1)
			}
			return nil, err
		}

		if s.metrics != nil {
			s.metrics.RecordViolation(ctx, d.Violation.Framework.String(), d.Violation.Severity.String())
			s.metrics.ActionsPlanned.Add(ctx, int64(len(actions)))
		}
	}

	if s.metrics != nil {
		s.metrics.TranslationDuration.Record(ctx, time.Since(start).Seconds())
	}

	s.logger.Info("event translated",
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", event.EventType.String()),
		zap.Int("violations", len(result.Violations)),
		zap.Int("actions", result.TotalActions()))

	return result, nil
}

// TranslateAndRecord translates an event and persists the event together with
// its derived violations and actions through the recorder. Translation errors
// surface before anything is written; the stored picture is never partial.
func (s *Service) TranslateAndRecord(ctx context.Context, event *telemetry.Event, recorder Recorder) (*compliance.TranslatedEvent, error) {
	result, err := s.Translate(ctx, event)
	if err != nil {
		return nil, err
	}

	if err := recorder.StoreEvent(ctx, event); err != nil {
		s.logger.Error("failed to store telemetry event",
			zap.String("event_id", event.ID.String()),
			zap.Error(err))
		return nil, err
	}

	if err := recorder.StoreTranslation(ctx, result); err != nil {
		s.logger.Error("failed to store translation",
			zap.String("event_id", event.ID.String()),
			zap.Error(err))
		return nil, err
	}

	return result, nil
}

// ResolveViolation marks a violation resolved and persists the resolution.
// Resolution is the only mutation permitted after derivation; an already
// resolved violation is a conflict, not a silent no-op.
func (s *Service) ResolveViolation(ctx context.Context, store ResolutionStore, violation *compliance.Violation, resolvedBy uuid.UUID, at time.Time) error {
	if err := violation.Resolve(resolvedBy, at); err != nil {
		return err
	}

	if err := store.MarkResolved(ctx, violation); err != nil {
		s.logger.Error("failed to persist violation resolution",
			zap.String("violation_id", violation.ID.String()),
			zap.Error(err))
		return err
	}

	s.logger.Info("violation resolved",
		zap.String("violation_id", violation.ID.String()),
		zap.String("resolved_by", resolvedBy.String()))
	return nil
}

// dedupeBySeverity collapses findings that name the same (framework, control)
// pair, keeping the most severe. Within one policy version control ids are
// unique, so duplicates only arise when several applicable policies cite the
// same control. Output order is the first-seen order of each pair, which keeps
// translation deterministic.
func dedupeBySeverity(derived []Derived) []Derived {
	type controlKey struct {
		framework compliance.Framework
		controlID string
	}

	index := make(map[controlKey]int, len(derived))
	out := make([]Derived, 0, len(derived))
	for _, d := range derived {
		key := controlKey{d.Violation.Framework, d.Violation.ControlID}
		if i, seen := index[key]; seen {
			if d.Violation.Severity.Rank() > out[i].Violation.Severity.Rank() {
				out[i] = d
			}
			continue
		}
		index[key] = len(out)
		out = append(out, d)
	}
	return out
}
