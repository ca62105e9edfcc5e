package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/linking"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/store/memory"
)

const fixturesJSON = `{
  "providers": [{"id": "p1", "name": "Acme Plumbing", "slug": "acme-plumbing", "location": "Denver"}],
  "services": [
    {"id": "s1", "title": "Drain cleaning", "provider": "ACME plumbing"},
    {"id": "s2", "title": "Lawn care", "provider": "Green Thumb", "location": "Boulder"},
    {"id": "s3", "title": "Hedge trimming", "provider": "green thumb"}
  ]
}`

func setupFixtures(t *testing.T) string {
	t.Helper()
	logger = ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	var err error
	cfg, err = config.Load()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fixtures.json")
	require.NoError(t, os.WriteFile(path, []byte(fixturesJSON), 0o600))
	return path
}

func TestRunFixtures(t *testing.T) {
	path := setupFixtures(t)
	out := filepath.Join(t.TempDir(), "linked.json")

	report, err := runFixtures(context.Background(), autoLinkFlags{fixtures: path, writeTo: out}, linking.Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.LinkedCount)
	assert.Equal(t, 2, report.CreatedCount)
	assert.Equal(t, 0, report.FailedCount)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var snapshot memory.Fixtures
	require.NoError(t, json.Unmarshal(data, &snapshot))

	require.Len(t, snapshot.Providers, 2)
	var created models.Provider
	for _, p := range snapshot.Providers {
		if p.ID != "p1" {
			created = p
		}
	}
	assert.Equal(t, "Green Thumb", created.Name)
	assert.Equal(t, "green-thumb", created.Slug)
	assert.Equal(t, "Boulder", created.Location)
	for _, svc := range snapshot.Services {
		assert.NotEmpty(t, svc.ProviderID, svc.ID)
	}
}

func TestRunFixtures_DryRunLeavesFileUntouched(t *testing.T) {
	path := setupFixtures(t)
	out := filepath.Join(t.TempDir(), "linked.json")

	report, err := runFixtures(context.Background(), autoLinkFlags{fixtures: path, writeTo: out}, linking.Options{DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var snapshot memory.Fixtures
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.Len(t, snapshot.Providers, 1)
}

func TestWriteReport(t *testing.T) {
	report := linking.NewBatchReport([]models.MatchDecision{
		{RecordID: "s1", RecordTitle: "Drain cleaning", EntityID: "p1", EntityName: "Acme Plumbing", Action: models.ActionLinked, SimilarityScore: 1, MatchType: models.MatchTypeExact},
		{RecordID: "s2", RecordTitle: "Lawn care", EntityName: "Green Thumb", Action: models.ActionFailed, MatchType: models.MatchTypeNone, Reason: "persistence error: boom"},
	}, false, 0.85)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeReport(&buf, "json", report))

		var decoded linking.BatchReport
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, 1, decoded.LinkedCount)
		assert.Equal(t, 1, decoded.FailedCount)
		assert.Len(t, decoded.Decisions, 2)
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeReport(&buf, "table", report))

		out := buf.String()
		assert.Contains(t, out, "Drain cleaning")
		assert.Contains(t, out, "persistence error: boom")
		assert.Contains(t, out, "linked=1 created=0 failed=1 dry_run=false threshold=0.85")
	})
}
