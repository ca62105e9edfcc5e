// Package events publishes auto-link lifecycle events
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

type publisher interface {
	Publish(ctx context.Context, key, eventType string, event any) error
}

// Emitter publishes provider.created and service.linked events. Publish
// failures are logged and never fail the run.
type Emitter struct {
	producer publisher
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// ProviderCreated emits a provider.created event keyed by provider id
func (e *Emitter) ProviderCreated(ctx context.Context, provider models.CandidateEntity, serviceIDs []string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.ProviderCreated")
	defer span.End()

	event := &ProviderCreatedEvent{
		BaseEvent:  newBaseEvent(ctx, EventTypeProviderCreated),
		ProviderID: provider.ID,
		Name:       provider.CanonicalName,
		Slug:       provider.Slug,
		Location:   provider.Location,
		ServiceIDs: serviceIDs,
	}

	if err := e.producer.Publish(ctx, provider.ID, string(EventTypeProviderCreated), event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("provider_id", provider.ID).Error("Failed to emit provider.created event")
	}
}

// ServiceLinked emits a service.linked event keyed by provider id
func (e *Emitter) ServiceLinked(ctx context.Context, decision models.MatchDecision) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.ServiceLinked")
	defer span.End()

	event := &ServiceLinkedEvent{
		BaseEvent:       newBaseEvent(ctx, EventTypeServiceLinked),
		ServiceID:       decision.RecordID,
		ServiceTitle:    decision.RecordTitle,
		ProviderID:      decision.EntityID,
		ProviderName:    decision.EntityName,
		Action:          decision.Action,
		MatchType:       decision.MatchType,
		SimilarityScore: decision.SimilarityScore,
	}

	if err := e.producer.Publish(ctx, decision.EntityID, string(EventTypeServiceLinked), event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("service_id", decision.RecordID).Error("Failed to emit service.linked event")
	}
}
