// Package linking runs auto-link batches: it matches every service listing
// without a provider against the known providers, creates one provider per
// distinct unmatched name and writes the links.
package linking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	DefaultLockKey = "fern:autolink:run"
	DefaultLockTTL = 10 * time.Minute
)

// Config contains configuration for the orchestrator.
type Config struct {
	Matching matching.Config
	Blocking bool // trigram blocking for the fuzzy scan
	LockKey  string
	LockTTL  time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Matching: matching.DefaultConfig(),
		LockKey:  DefaultLockKey,
		LockTTL:  DefaultLockTTL,
	}
}

// Options are the per-run inputs. A nil Threshold uses the configured default.
type Options struct {
	DryRun    bool
	Threshold *float64
}

// Orchestrator runs auto-link batches.
type Orchestrator struct {
	logger      ectologger.Logger
	records     RecordStore
	entities    EntityStore
	locker      RunLocker
	provisioner *Provisioner
	observers   []Observer
	cfg         Config
}

// NewOrchestrator creates a new orchestrator. A nil locker falls back to an
// in-process lock.
func NewOrchestrator(
	logger ectologger.Logger,
	records RecordStore,
	entities EntityStore,
	tx Transactor,
	locker RunLocker,
	cfg Config,
	observers ...Observer,
) *Orchestrator {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if cfg.LockKey == "" {
		cfg.LockKey = DefaultLockKey
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	if cfg.Matching.Threshold == 0 {
		cfg.Matching.Threshold = matching.DefaultThreshold
	}
	return &Orchestrator{
		logger:      logger,
		records:     records,
		entities:    entities,
		locker:      locker,
		provisioner: NewProvisioner(logger, records, entities, tx),
		observers:   observers,
		cfg:         cfg,
	}
}

// Run executes one batch. A returned error means the run was aborted before
// any write; per-record write failures are reported as failed decisions.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*BatchReport, error) {
	threshold := o.cfg.Matching.Threshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	if err := matching.ValidateThreshold(threshold); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	runID := uuid.NewString()
	ctx = appctx.SetRunID(ctx, runID)
	ctx, span := tracing.StartSpan(ctx, "Orchestrator.Run",
		attribute.Bool("autolink.dry_run", opts.DryRun),
		attribute.Float64("autolink.threshold", threshold),
	)
	defer span.End()

	log := o.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":    runID,
		"dry_run":   opts.DryRun,
		"threshold": threshold,
	})
	log.Info("Starting auto-link run")

	start := time.Now()
	report, err := o.run(ctx, log, opts.DryRun, threshold)
	if err != nil {
		tracing.RecordError(span, err)
		metrics.RecordRun(opts.DryRun, "error", time.Since(start).Seconds())
		log.WithError(err).Error("Auto-link run aborted")
		return nil, err
	}
	report.RunID = runID
	metrics.RecordRun(opts.DryRun, "success", time.Since(start).Seconds())

	if err := report.Validate(); err != nil {
		log.WithError(err).Error("Auto-link report is inconsistent")
	}

	tracing.SetAttributes(span,
		attribute.Int("autolink.linked", report.LinkedCount),
		attribute.Int("autolink.created", report.CreatedCount),
		attribute.Int("autolink.failed", report.FailedCount),
	)
	log.WithFields(map[string]any{
		"linked":      report.LinkedCount,
		"created":     report.CreatedCount,
		"failed":      report.FailedCount,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Auto-link run complete")
	return report, nil
}

func (o *Orchestrator) run(ctx context.Context, log ectologger.Logger, dryRun bool, threshold float64) (*BatchReport, error) {
	if !dryRun {
		release, err := o.locker.Acquire(ctx, o.cfg.LockKey, o.cfg.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.WithError(err).Warn("Failed to release run lock")
			}
		}()
	}

	records, err := o.records.ListUnlinked(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unlinked services: %w", err)
	}
	entities, err := o.entities.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}

	index := matching.NewIndex(entities)
	if o.cfg.Blocking {
		index.EnableBlocking()
	}
	for _, dup := range index.Duplicates() {
		log.WithFields(map[string]any{
			"name":      dup.Key,
			"winner_id": dup.WinnerID,
			"loser_id":  dup.LoserID,
		}).Warn("Duplicate provider name, exact matches resolve to the lowest id")
	}
	metrics.RecordIndex(index.Len(), len(index.Duplicates()))

	mcfg := o.cfg.Matching
	mcfg.Threshold = threshold
	matcher, err := matching.NewMatcher(index, mcfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	log.WithFields(map[string]any{
		"services":  len(records),
		"providers": index.Len(),
	}).Debug("Loaded auto-link inputs")

	b := &batch{
		decisions: make([]models.MatchDecision, len(records)),
		positions: make(map[string]int, len(records)),
	}
	var unmatched []models.UnlinkedRecord
	for i, r := range records {
		b.positions[r.ID] = i
		res, err := matcher.Match(ctx, r.RawName)
		if err != nil {
			return nil, fmt.Errorf("match service %s: %w", r.ID, err)
		}

		d := models.MatchDecision{
			RecordID:        r.ID,
			RecordTitle:     r.Title,
			SimilarityScore: res.Score,
		}
		if res.Matched() {
			d.EntityID = res.Candidate.ID
			d.EntityName = res.Candidate.CanonicalName
			d.Action = models.ActionLinked
			d.MatchType = res.MatchType
			b.linked = append(b.linked, i)
		} else {
			d.Action = models.ActionCreatedAndLinked
			d.MatchType = models.MatchTypeCreated
			unmatched = append(unmatched, r)
		}
		b.decisions[i] = d
	}

	groups := o.provisioner.Plan(unmatched, index.Slugs())
	if dryRun {
		for _, g := range groups {
			for _, r := range g.Records {
				d := b.decision(r.ID)
				d.EntityID = models.DryRunEntityID
				d.EntityName = g.Entity.CanonicalName
			}
		}
	} else {
		o.writeLinks(ctx, log, b)
		o.commitGroups(ctx, b, groups)
	}

	for _, d := range b.decisions {
		metrics.RecordDecision(string(d.Action), string(d.MatchType))
	}
	return NewBatchReport(b.decisions, dryRun, threshold), nil
}

// batch holds the decisions of one run in ascending record id order.
type batch struct {
	decisions []models.MatchDecision
	positions map[string]int
	linked    []int
}

func (b *batch) decision(recordID string) *models.MatchDecision {
	return &b.decisions[b.positions[recordID]]
}

func fail(d *models.MatchDecision, matchType models.MatchType, err error) {
	d.Action = models.ActionFailed
	d.MatchType = matchType
	d.EntityID = ""
	d.Reason = err.Error()
}

func cancelled(err error) error {
	return fmt.Errorf("batch cancelled: %w", err)
}

func (o *Orchestrator) writeLinks(ctx context.Context, log ectologger.Logger, b *batch) {
	for _, i := range b.linked {
		d := &b.decisions[i]
		if err := ctx.Err(); err != nil {
			fail(d, d.MatchType, cancelled(err))
			continue
		}
		if err := o.records.SetLink(ctx, d.RecordID, d.EntityID); err != nil {
			log.WithError(err).WithFields(map[string]any{
				"service_id":  d.RecordID,
				"provider_id": d.EntityID,
			}).Warn("Failed to link service")
			fail(d, d.MatchType, fmt.Errorf("%w: link service %s: %w", ErrPersistence, d.RecordID, err))
			continue
		}
		o.notifyLinked(ctx, *d)
	}
}

func (o *Orchestrator) commitGroups(ctx context.Context, b *batch, groups []Group) {
	for _, g := range groups {
		for _, r := range g.Records {
			b.decision(r.ID).EntityName = g.Entity.CanonicalName
		}

		if err := ctx.Err(); err != nil {
			for _, r := range g.Records {
				fail(b.decision(r.ID), models.MatchTypeNone, cancelled(err))
			}
			continue
		}

		id, err := o.provisioner.Commit(ctx, g)
		if err != nil {
			for _, r := range g.Records {
				fail(b.decision(r.ID), models.MatchTypeNone, err)
			}
			continue
		}

		for _, r := range g.Records {
			b.decision(r.ID).EntityID = id
		}
		o.notifyCreated(ctx, models.CandidateEntity{
			ID:            id,
			CanonicalName: g.Entity.CanonicalName,
			Slug:          g.Entity.Slug,
			Location:      g.Entity.Location,
		}, g.RecordIDs())
		for _, r := range g.Records {
			o.notifyLinked(ctx, *b.decision(r.ID))
		}
	}
}

func (o *Orchestrator) notifyCreated(ctx context.Context, provider models.CandidateEntity, recordIDs []string) {
	for _, obs := range o.observers {
		obs.ProviderCreated(ctx, provider, recordIDs)
	}
}

func (o *Orchestrator) notifyLinked(ctx context.Context, d models.MatchDecision) {
	for _, obs := range o.observers {
		obs.ServiceLinked(ctx, d)
	}
}
