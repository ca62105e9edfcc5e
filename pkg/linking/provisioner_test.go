package linking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func record(id, name string) models.UnlinkedRecord {
	return models.UnlinkedRecord{ID: id, Title: "Service " + id, RawName: name}
}

func TestProvisioner_Plan(t *testing.T) {
	p := NewProvisioner(testLogger(), nil, nil, nil)

	t.Run("groups by folded name using the first record's name", func(t *testing.T) {
		groups := p.Plan([]models.UnlinkedRecord{
			record("s5", "foo bar"),
			record("s4", "Foo Bar"),
			record("s6", " FOO BAR"),
			record("s1", "Zeta"),
		}, nil)

		require.Len(t, groups, 2)
		assert.Equal(t, "zeta", groups[0].Key)
		assert.Equal(t, "foo bar", groups[1].Key)
		assert.Equal(t, "Foo Bar", groups[1].Entity.CanonicalName)
		assert.Equal(t, []string{"s4", "s5", "s6"}, groups[1].RecordIDs())
	})

	t.Run("fills placeholders", func(t *testing.T) {
		groups := p.Plan([]models.UnlinkedRecord{record("s1", "Café Crème Ltd.")}, nil)

		require.Len(t, groups, 1)
		assert.Equal(t, models.NewEntity{
			CanonicalName: "Café Crème Ltd.",
			Slug:          "cafe-creme-ltd",
			Location:      models.DefaultProviderLocation,
			Email:         "",
			Phone:         "",
			Description:   `Auto-created provider for services listed under "Café Crème Ltd."`,
		}, groups[0].Entity)
	})

	t.Run("uses the first non-empty location hint", func(t *testing.T) {
		blank := "  "
		austin := " Austin "
		groups := p.Plan([]models.UnlinkedRecord{
			{ID: "s1", RawName: "Foo", LocationHint: &blank},
			{ID: "s2", RawName: "foo", LocationHint: &austin},
		}, nil)

		require.Len(t, groups, 1)
		assert.Equal(t, "Austin", groups[0].Entity.Location)
	})

	t.Run("suffixes colliding slugs", func(t *testing.T) {
		used := map[string]struct{}{"acme": {}, "acme-2": {}}
		groups := p.Plan([]models.UnlinkedRecord{
			record("s1", "Acme!"),
			record("s2", "Acme?"),
			record("s3", "東京"),
			record("s4", "***"),
		}, used)

		require.Len(t, groups, 4)
		assert.Equal(t, "acme-3", groups[0].Entity.Slug)
		assert.Equal(t, "acme-4", groups[1].Entity.Slug)
		assert.Equal(t, "provider", groups[2].Entity.Slug)
		assert.Equal(t, "provider-2", groups[3].Entity.Slug)
		assert.Len(t, used, 2, "caller's slug set must not be modified")
	})

	t.Run("no records", func(t *testing.T) {
		assert.Empty(t, p.Plan(nil, nil))
	})
}
