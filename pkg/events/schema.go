package events

import (
	"context"
	"time"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
)

// EventType defines the type of event
type EventType string

const (
	EventTypeProviderCreated EventType = "provider.created"
	EventTypeServiceLinked   EventType = "service.linked"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	RunID         string    `json:"run_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func newBaseEvent(ctx context.Context, eventType EventType) BaseEvent {
	return BaseEvent{
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		RunID:         appctx.GetRunID(ctx),
		Timestamp:     time.Now().UTC(),
	}
}

// ProviderCreatedEvent is emitted when an auto-link run creates a provider
type ProviderCreatedEvent struct {
	BaseEvent
	ProviderID string   `json:"provider_id"`
	Name       string   `json:"name"`
	Slug       string   `json:"slug"`
	Location   string   `json:"location"`
	ServiceIDs []string `json:"service_ids"`
}

// ServiceLinkedEvent is emitted when a service is linked to a provider
type ServiceLinkedEvent struct {
	BaseEvent
	ServiceID       string           `json:"service_id"`
	ServiceTitle    string           `json:"service_title"`
	ProviderID      string           `json:"provider_id"`
	ProviderName    string           `json:"provider_name"`
	Action          models.Action    `json:"action"`
	MatchType       models.MatchType `json:"match_type"`
	SimilarityScore float64          `json:"similarity_score"`
}
