package linking

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const fallbackSlug = "provider"

// Group is a set of unmatched records sharing a folded provider name. Exactly
// one provider is created per group and every record in it is linked to it.
type Group struct {
	Key     string
	Entity  models.NewEntity
	Records []models.UnlinkedRecord
}

// RecordIDs returns the ids of the group's records in ascending order.
func (g Group) RecordIDs() []string {
	ids := make([]string, len(g.Records))
	for i, r := range g.Records {
		ids[i] = r.ID
	}
	return ids
}

// Provisioner plans and commits provider creation for unmatched records.
type Provisioner struct {
	logger   ectologger.Logger
	records  RecordStore
	entities EntityStore
	tx       Transactor
}

func NewProvisioner(logger ectologger.Logger, records RecordStore, entities EntityStore, tx Transactor) *Provisioner {
	return &Provisioner{
		logger:   logger,
		records:  records,
		entities: entities,
		tx:       tx,
	}
}

// Plan groups records by folded name. It never mutates a store. Groups are
// ordered by their first record id and usedSlugs is not modified.
func (p *Provisioner) Plan(records []models.UnlinkedRecord, usedSlugs map[string]struct{}) []Group {
	sorted := make([]models.UnlinkedRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byKey := make(map[string]int)
	groups := make([]Group, 0)
	for _, r := range sorted {
		key := normalizers.Fold(r.RawName)
		pos, ok := byKey[key]
		if !ok {
			pos = len(groups)
			byKey[key] = pos
			groups = append(groups, Group{Key: key})
		}
		groups[pos].Records = append(groups[pos].Records, r)
	}

	slugs := make(map[string]struct{}, len(usedSlugs)+len(groups))
	for s := range usedSlugs {
		slugs[s] = struct{}{}
	}
	for i := range groups {
		groups[i].Entity = newEntity(groups[i].Records, slugs)
	}
	return groups
}

func newEntity(records []models.UnlinkedRecord, usedSlugs map[string]struct{}) models.NewEntity {
	name := records[0].RawName

	location := models.DefaultProviderLocation
	for _, r := range records {
		if r.LocationHint != nil && strings.TrimSpace(*r.LocationHint) != "" {
			location = strings.TrimSpace(*r.LocationHint)
			break
		}
	}

	return models.NewEntity{
		CanonicalName: name,
		Slug:          uniqueSlug(normalizers.Slug(name), usedSlugs),
		Location:      location,
		Email:         "",
		Phone:         "",
		Description:   fmt.Sprintf("Auto-created provider for services listed under %q", name),
	}
}

// uniqueSlug reserves base, or base-2, base-3 ... when taken.
func uniqueSlug(base string, used map[string]struct{}) string {
	if base == "" {
		base = fallbackSlug
	}
	slug := base
	for n := 2; ; n++ {
		if _, taken := used[slug]; !taken {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
	used[slug] = struct{}{}
	return slug
}

// Commit creates the group's provider and links every record to it in one
// transaction. On error nothing from the group remains committed.
func (p *Provisioner) Commit(ctx context.Context, group Group) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "Provisioner.Commit")
	defer span.End()

	var entityID string
	err := p.tx.WithinTx(ctx, func(ctx context.Context) error {
		id, err := p.entities.Create(ctx, group.Entity)
		if err != nil {
			return fmt.Errorf("create provider %q: %w", group.Entity.CanonicalName, err)
		}
		for _, r := range group.Records {
			if err := p.records.SetLink(ctx, r.ID, id); err != nil {
				return fmt.Errorf("link service %s: %w", r.ID, err)
			}
		}
		entityID = id
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"provider_name": group.Entity.CanonicalName,
			"slug":          group.Entity.Slug,
			"records":       len(group.Records),
		}).Warn("Failed to provision provider")
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"provider_id":   entityID,
		"provider_name": group.Entity.CanonicalName,
		"slug":          group.Entity.Slug,
		"records":       len(group.Records),
	}).Info("Provisioned provider")
	return entityID, nil
}
