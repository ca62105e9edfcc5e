package graph

import (
	"context"

	"github.com/Gobusters/ectologger"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	upsertProviderCypher = `
		MERGE (p:Provider {id: $id})
		SET p.name = $name, p.slug = $slug, p.location = $location, p.auto_created = true`

	linkServiceCypher = `
		MERGE (p:Provider {id: $provider_id})
		ON CREATE SET p.name = $provider_name
		MERGE (s:Service {id: $service_id})
		SET s.title = $service_title
		MERGE (p)-[r:OFFERS]->(s)
		SET r.match_type = $match_type, r.similarity_score = $similarity_score, r.run_id = $run_id`
)

type writer interface {
	Write(ctx context.Context, cypher string, params map[string]any) error
}

// Projector mirrors committed auto-link writes as (Provider)-[:OFFERS]->(Service).
// Write failures are logged and never fail the run.
type Projector struct {
	client writer
	logger ectologger.Logger
}

func NewProjector(client writer, logger ectologger.Logger) *Projector {
	return &Projector{
		client: client,
		logger: logger,
	}
}

func (p *Projector) ProviderCreated(ctx context.Context, provider models.CandidateEntity, _ []string) {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.ProviderCreated")
	defer span.End()

	err := p.client.Write(ctx, upsertProviderCypher, map[string]any{
		"id":       provider.ID,
		"name":     provider.CanonicalName,
		"slug":     provider.Slug,
		"location": provider.Location,
	})
	p.record(ctx, "provider", err, map[string]any{"provider_id": provider.ID})
}

func (p *Projector) ServiceLinked(ctx context.Context, decision models.MatchDecision) {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.ServiceLinked")
	defer span.End()

	err := p.client.Write(ctx, linkServiceCypher, map[string]any{
		"provider_id":      decision.EntityID,
		"provider_name":    decision.EntityName,
		"service_id":       decision.RecordID,
		"service_title":    decision.RecordTitle,
		"match_type":       string(decision.MatchType),
		"similarity_score": decision.SimilarityScore,
		"run_id":           appctx.GetRunID(ctx),
	})
	p.record(ctx, "offers", err, map[string]any{
		"provider_id": decision.EntityID,
		"service_id":  decision.RecordID,
	})
}

func (p *Projector) record(ctx context.Context, kind string, err error, fields map[string]any) {
	if err != nil {
		metrics.RecordGraphWrite(kind, "error")
		p.logger.WithContext(ctx).WithError(err).WithFields(fields).Error("Failed to project to graph")
		return
	}
	metrics.RecordGraphWrite(kind, "success")
}
